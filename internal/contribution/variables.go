package contribution

import (
	"regexp"
	"strings"

	"promptlib/internal/prompt"
)

// 占位符形如 [COMPANY_NAME] 或 [FIRST_NAME/LAST_NAME]
var variablePattern = regexp.MustCompile(`\[([A-Z_]+(?:/[A-Z_]+)*)\]`)

// 常见占位符的中文说明，未收录的用兜底文案
var variableDescriptions = map[string]string{
	"COMPANY":    "Company or organization name",
	"NAME":       "Person's name",
	"FIRST_NAME": "First name",
	"LAST_NAME":  "Last name",
	"EMAIL":      "Email address",
	"TOPIC":      "Main topic or subject",
	"PRODUCT":    "Product or service name",
	"INDUSTRY":   "Industry or sector",
	"LOCATION":   "Geographic location",
	"DATE":       "Date or time period",
	"BUDGET":     "Budget amount",
	"GOAL":       "Objective or goal",
	"AUDIENCE":   "Target audience",
	"TONE":       "Desired tone or style",
}

// ExtractVariables 从正文中提取占位符变量。
// 同名占位符只取首次出现，保持出现顺序。
func ExtractVariables(content string) []prompt.Variable {
	matches := variablePattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]bool, len(matches))
	variables := make([]prompt.Variable, 0, len(matches))

	for _, m := range matches {
		placeholder, raw := m[0], m[1]
		if seen[placeholder] {
			continue
		}
		seen[placeholder] = true
		variables = append(variables, prompt.Variable{
			Name:        strings.ToLower(strings.ReplaceAll(raw, "/", "_")),
			Placeholder: placeholder,
			Description: describeVariable(raw),
		})
	}
	return variables
}

func describeVariable(raw string) string {
	if desc, ok := variableDescriptions[raw]; ok {
		return desc
	}
	return "Custom variable to be replaced"
}
