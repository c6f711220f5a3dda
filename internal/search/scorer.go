// Package search 实现提示词库的关键词检索与相关度排序。
// 评分是纯词面匹配：规范化、去停用词、同义词扩展后按字段权重累加出现次数。
package search

import (
	"regexp"
	"strings"

	"promptlib/internal/prompt"
)

var (
	nonWordPattern    = regexp.MustCompile(`[^\w\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// 对评分无贡献的常见虚词
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true,
	"of": true, "with": true, "by": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true,
	"should": true, "may": true, "might": true, "must": true, "can": true,
	"this": true, "that": true, "these": true, "those": true,
}

// 领域同义词表，查询词命中时一并参与匹配
var synonyms = map[string][]string{
	"ai":          {"artificial intelligence", "machine learning", "ml"},
	"email":       {"mail", "message", "communication"},
	"code":        {"programming", "software", "development"},
	"sales":       {"selling", "marketing", "business development"},
	"engineering": {"technical", "construction", "building"},
	"write":       {"create", "generate", "compose"},
	"analyze":     {"examine", "review", "evaluate"},
	"plan":        {"planning", "strategy", "organize"},
}

// 字段权重：标题最重，正文最轻
var fieldWeights = []struct {
	weight int
	text   func(*prompt.Prompt) string
}{
	{5, func(p *prompt.Prompt) string { return p.Title }},
	{4, func(p *prompt.Prompt) string { return strings.Join(p.Tags, " ") }},
	{3, func(p *prompt.Prompt) string { return p.Description }},
	{3, func(p *prompt.Prompt) string { return p.UseCase }},
	{2, func(p *prompt.Prompt) string { return p.Category }},
	{2, func(p *prompt.Prompt) string { return strings.Join(p.Industry, " ") }},
	{1, func(p *prompt.Prompt) string { return p.Content }},
}

// Normalize 规范化查询：小写、标点转空格、折叠空白
func Normalize(term string) string {
	term = strings.ToLower(term)
	term = nonWordPattern.ReplaceAllString(term, " ")
	term = whitespacePattern.ReplaceAllString(term, " ")
	return strings.TrimSpace(term)
}

// ExtractKeywords 从查询中提取关键词：丢弃停用词与过短词，展开同义词
func ExtractKeywords(term string) []string {
	var keywords []string
	for _, word := range strings.Fields(Normalize(term)) {
		if len(word) <= 2 || stopWords[word] {
			continue
		}
		keywords = append(keywords, word)
		keywords = append(keywords, synonyms[word]...)
	}
	return keywords
}

// Score 计算一条提示词对查询的相关度，零分表示不相关
func Score(p *prompt.Prompt, term string) int {
	if term == "" {
		return 0
	}
	keywords := ExtractKeywords(term)
	score := 0
	for _, field := range fieldWeights {
		text := strings.ToLower(field.text(p))
		if text == "" {
			continue
		}
		for _, keyword := range keywords {
			score += strings.Count(text, keyword) * field.weight
		}
	}
	return score
}

// Highlight 用 <mark> 标注文本中命中的关键词
func Highlight(text, term string) string {
	if text == "" || term == "" {
		return text
	}
	for _, keyword := range ExtractKeywords(term) {
		re, err := regexp.Compile(`(?i)(` + regexp.QuoteMeta(keyword) + `)`)
		if err != nil {
			continue
		}
		text = re.ReplaceAllString(text, "<mark>$1</mark>")
	}
	return text
}
