// Package prompt 定义提示词数据模型与集合仓库
package prompt

import (
	"fmt"
	"time"
)

// Difficulty 难度级别
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Difficulties 全部合法难度
var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

// ValidDifficulty 判断难度是否合法
func ValidDifficulty(d Difficulty) bool {
	for _, v := range Difficulties {
		if d == v {
			return true
		}
	}
	return false
}

// Status 审核状态
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// VoteCounts 投票计数器。不变量 Score == Upvotes - Downvotes，
// 且两个计数器均不为负；仅投票服务允许修改。
type VoteCounts struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	Score     int `json:"score"`
}

// UsageStats 使用统计
type UsageStats struct {
	Count     int        `json:"count"`
	FirstUsed *time.Time `json:"firstUsed,omitempty"`
	LastUsed  *time.Time `json:"lastUsed,omitempty"`
}

// Variable 提示词中待替换的变量占位
type Variable struct {
	Name        string `json:"name"`
	Placeholder string `json:"placeholder"`
	Description string `json:"description"`
	Example     string `json:"example"`
}

// Author 作者信息
type Author struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
}

// Submitter 投稿人信息
type Submitter struct {
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Rating 评分聚合
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Prompt 提示词模板，库内被搜索/投票/收藏的基本单元
type Prompt struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	Category    string     `json:"category"`
	Subcategory string     `json:"subcategory,omitempty"`
	Tags        []string   `json:"tags"`
	Industry    []string   `json:"industry"`
	AITools     []string   `json:"aiTools"`
	Difficulty  Difficulty `json:"difficulty"`
	UseCase     string     `json:"useCase"`
	Variables   []Variable `json:"variables"`
	Author      *Author    `json:"author,omitempty"`
	SubmittedBy *Submitter `json:"submittedBy,omitempty"`
	Rating      *Rating    `json:"rating,omitempty"`
	Votes       VoteCounts `json:"votes"`
	Usage       UsageStats `json:"usage"`
	Status      Status     `json:"status,omitempty"`
	IsPublic    bool       `json:"isPublic"`
	IsFeatured  bool       `json:"isFeatured"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Validate 存储边界上的结构校验，拒绝缺字段/非法枚举的持久化数据
func (p *Prompt) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("提示词缺少 id")
	}
	if p.Title == "" {
		return fmt.Errorf("提示词 %s 缺少标题", p.ID)
	}
	if p.Difficulty != "" && !ValidDifficulty(p.Difficulty) {
		return fmt.Errorf("提示词 %s 难度非法: %s", p.ID, p.Difficulty)
	}
	switch p.Status {
	case "", StatusPending, StatusApproved, StatusRejected:
	default:
		return fmt.Errorf("提示词 %s 状态非法: %s", p.ID, p.Status)
	}
	if p.Votes.Upvotes < 0 || p.Votes.Downvotes < 0 {
		return fmt.Errorf("提示词 %s 投票计数为负", p.ID)
	}
	return nil
}

// Find 按 id 在集合中查找，未命中返回 nil
func Find(prompts []Prompt, id string) *Prompt {
	for i := range prompts {
		if prompts[i].ID == id {
			return &prompts[i]
		}
	}
	return nil
}
