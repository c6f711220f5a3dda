// Package contribution 实现社区提示词投稿：校验、提交、审核与入库。
package contribution

import (
	"time"

	"promptlib/internal/prompt"
)

// Draft 投稿表单，字段未经校验
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Tags        []string `json:"tags"`
	Industry    []string `json:"industry"`
	AITools     []string `json:"aiTools"`
	Difficulty  string   `json:"difficulty"`
	UseCase     string   `json:"useCase"`
}

// Contribution 投稿记录。结构与正式提示词一致，多出审核相关字段；
// 审核通过前不会出现在公开集合里。
type Contribution struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Content         string            `json:"content"`
	Category        string            `json:"category"`
	Subcategory     string            `json:"subcategory,omitempty"`
	Tags            []string          `json:"tags"`
	Industry        []string          `json:"industry"`
	AITools         []string          `json:"aiTools"`
	Difficulty      prompt.Difficulty `json:"difficulty"`
	UseCase         string            `json:"useCase"`
	Variables       []prompt.Variable `json:"variables"`
	Status          prompt.Status     `json:"status"`
	SubmittedBy     prompt.Submitter  `json:"submittedBy"`
	ModerationNotes string            `json:"moderationNotes,omitempty"`
	ModeratedAt     *time.Time        `json:"moderatedAt,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// Stats 投稿队列统计
type Stats struct {
	Total             int            `json:"total"`
	Pending           int            `json:"pending"`
	Approved          int            `json:"approved"`
	Rejected          int            `json:"rejected"`
	ByCategory        map[string]int `json:"byCategory"`
	ByUser            map[string]int `json:"byUser"`
	RecentSubmissions []Contribution `json:"recentSubmissions"`
}

// Filters 投稿检索条件，零值字段不参与过滤
type Filters struct {
	Status   prompt.Status
	Category string
	UserID   string
}

// Export 投稿数据导出
type Export struct {
	ExportID      string         `json:"exportId"`
	UserID        string         `json:"userId"`
	Contributions []Contribution `json:"contributions"`
	Total         int            `json:"total"`
	ExportDate    time.Time      `json:"exportDate"`
}
