// Package voting 实现投票账本：每个身份对每条提示词至多一票，
// 聚合计数器只允许经由本服务修改，保证 score == upvotes - downvotes。
package voting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"promptlib/internal/metrics"
	"promptlib/internal/prompt"
	"promptlib/internal/store"
)

// Direction 投票方向
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Outcome 投票操作结果类型
type Outcome string

const (
	// OutcomeRecorded 新票已记录（含换方向）
	OutcomeRecorded Outcome = "vote_recorded"
	// OutcomeRemoved 同方向重复投票被视为撤销
	OutcomeRemoved Outcome = "vote_removed"
)

var (
	// ErrInvalidDirection 投票方向非法
	ErrInvalidDirection = errors.New("voting: invalid vote direction")
	// ErrPromptNotFound 目标提示词不存在
	ErrPromptNotFound = errors.New("voting: prompt not found")
)

// Result 投票操作的结构化结果。Prompts 是更新后的集合副本，
// 调用方用它重绘界面，不依赖对入参切片的原地修改。
type Result struct {
	Outcome  Outcome
	UserVote Direction // 撤销后为空
	Votes    prompt.VoteCounts
	Prompts  []prompt.Prompt
}

// Stats 单条提示词的投票视图
type Stats struct {
	Upvotes   int       `json:"upvotes"`
	Downvotes int       `json:"downvotes"`
	Score     int       `json:"score"`
	UserVote  Direction `json:"userVote,omitempty"`
}

// Export 投票数据导出
type Export struct {
	ExportID   string               `json:"exportId"`
	UserID     string               `json:"userId"`
	Votes      map[string]Direction `json:"votes"`
	TotalVotes int                  `json:"totalVotes"`
	ExportDate time.Time            `json:"exportDate"`
}

// Service 投票账本，绑定一个身份
type Service struct {
	store     store.Store
	repo      *prompt.Repository
	identity  string
	userVotes map[string]Direction
}

// NewService 创建账本并加载该身份的投票记录
func NewService(ctx context.Context, s store.Store, repo *prompt.Repository, identity string) *Service {
	svc := &Service{
		store:     s,
		repo:      repo,
		identity:  identity,
		userVotes: make(map[string]Direction),
	}
	s.Get(ctx, store.VotesKey(identity), &svc.userVotes)
	if svc.userVotes == nil {
		svc.userVotes = make(map[string]Direction)
	}
	return svc
}

// Identity 当前账本绑定的身份
func (s *Service) Identity() string {
	return s.identity
}

// UserVote 返回该身份对某条提示词的投票方向，未投为空
func (s *Service) UserVote(promptID string) Direction {
	return s.userVotes[promptID]
}

// Cast 投票/换票/撤票。唯一允许修改计数器的路径。
// 先持久化投票桶，再持久化提示词集合；两次写之间的崩溃窗口是接受的取舍。
func (s *Service) Cast(ctx context.Context, promptID string, direction Direction, prompts []prompt.Prompt) (*Result, error) {
	if direction != DirectionUp && direction != DirectionDown {
		return nil, ErrInvalidDirection
	}
	if prompt.Find(prompts, promptID) == nil {
		return nil, ErrPromptNotFound
	}

	// 不在调用方切片上原地改动，返回更新后的副本
	updated := make([]prompt.Prompt, len(prompts))
	copy(updated, prompts)
	target := prompt.Find(updated, promptID)

	current := s.userVotes[promptID]
	result := &Result{Prompts: updated}

	if current == direction {
		// 同方向重复，视为撤销
		decrement(&target.Votes, direction)
		delete(s.userVotes, promptID)
		result.Outcome = OutcomeRemoved
	} else {
		if current != "" {
			// 先撤掉旧方向
			decrement(&target.Votes, current)
		}
		increment(&target.Votes, direction)
		s.userVotes[promptID] = direction
		result.Outcome = OutcomeRecorded
		result.UserVote = direction
	}

	// 计数器任何变动后无条件重算
	target.Votes.Score = target.Votes.Upvotes - target.Votes.Downvotes
	result.Votes = target.Votes

	s.store.Set(ctx, store.VotesKey(s.identity), s.userVotes)
	s.repo.Save(ctx, updated)

	metrics.VotesCastTotal.WithLabelValues(string(direction), string(result.Outcome)).Inc()
	return result, nil
}

// Stats 获取某条提示词的投票统计（含本人投票方向）
func (s *Service) Stats(promptID string, prompts []prompt.Prompt) Stats {
	p := prompt.Find(prompts, promptID)
	if p == nil {
		return Stats{}
	}
	return Stats{
		Upvotes:   p.Votes.Upvotes,
		Downvotes: p.Votes.Downvotes,
		Score:     p.Votes.Score,
		UserVote:  s.userVotes[promptID],
	}
}

// Rekey 登录后把账本迁移到新身份：整桶改挂到新身份键下。
// 新身份已有的旧桶被整体覆盖（匿名票优先，见设计文档）。
func (s *Service) Rekey(ctx context.Context, newIdentity string) bool {
	s.identity = newIdentity
	return s.store.Set(ctx, store.VotesKey(newIdentity), s.userVotes)
}

// ExportVotes 导出本人投票数据
func (s *Service) ExportVotes() Export {
	votes := make(map[string]Direction, len(s.userVotes))
	for k, v := range s.userVotes {
		votes[k] = v
	}
	return Export{
		ExportID:   uuid.New().String(),
		UserID:     s.identity,
		Votes:      votes,
		TotalVotes: len(votes),
		ExportDate: time.Now().UTC(),
	}
}

// Clear 清空本人投票记录
func (s *Service) Clear(ctx context.Context) {
	s.userVotes = make(map[string]Direction)
	s.store.Remove(ctx, store.VotesKey(s.identity))
}

// 计数器减一，floored 到 0
func decrement(v *prompt.VoteCounts, d Direction) {
	if d == DirectionUp {
		if v.Upvotes > 0 {
			v.Upvotes--
		}
	} else {
		if v.Downvotes > 0 {
			v.Downvotes--
		}
	}
}

func increment(v *prompt.VoteCounts, d Direction) {
	if d == DirectionUp {
		v.Upvotes++
	} else {
		v.Downvotes++
	}
}
