package contribution

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"promptlib/internal/auth"
	"promptlib/internal/logger"
	"promptlib/internal/metrics"
	"promptlib/internal/prompt"
	"promptlib/internal/store"
)

var (
	// ErrContributionNotFound 投稿不存在
	ErrContributionNotFound = errors.New("contribution: not found")
	// ErrPermissionDenied 当前会话无投稿权限
	ErrPermissionDenied = errors.New("contribution: permission denied")
	// ErrValidation 表单校验未通过，详情见 ValidationError.Problems
	ErrValidation = errors.New("contribution: validation failed")
)

// ValidationError 聚合全部校验问题，一次性返回给表单
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("投稿校验未通过: %s", strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// 基础内容过滤词表，命中即拒
var deniedWords = []string{"spam", "hack", "malware", "virus"}

// Service 投稿服务
type Service struct {
	store store.Store
	repo  *prompt.Repository
	auth  *auth.Service
}

// NewService 创建投稿服务
func NewService(s store.Store, repo *prompt.Repository, authSvc *auth.Service) *Service {
	return &Service{store: s, repo: repo, auth: authSvc}
}

// Validate 校验投稿表单，返回全部问题而不是只报第一条
func (s *Service) Validate(d *Draft) []string {
	var problems []string

	if utf8.RuneCountInString(strings.TrimSpace(d.Title)) < 5 {
		problems = append(problems, "标题至少需要 5 个字符")
	}
	if utf8.RuneCountInString(strings.TrimSpace(d.Description)) < 20 {
		problems = append(problems, "描述至少需要 20 个字符")
	}
	if utf8.RuneCountInString(strings.TrimSpace(d.Content)) < 50 {
		problems = append(problems, "提示词正文至少需要 50 个字符")
	}
	if d.Category == "" {
		problems = append(problems, "请选择分类")
	}
	if d.Difficulty == "" {
		problems = append(problems, "请选择难度")
	} else if !prompt.ValidDifficulty(prompt.Difficulty(d.Difficulty)) {
		problems = append(problems, "难度取值非法")
	}
	if len(d.AITools) == 0 {
		problems = append(problems, "请至少选择一个 AI 工具")
	}
	if utf8.RuneCountInString(strings.TrimSpace(d.UseCase)) < 10 {
		problems = append(problems, "使用场景说明至少需要 10 个字符")
	}

	// 内容过滤：标题/描述/正文拼接后检查，命中一个词即止
	combined := strings.ToLower(d.Title + " " + d.Description + " " + d.Content)
	for _, word := range deniedWords {
		if strings.Contains(combined, word) {
			problems = append(problems, "内容疑似包含不当素材")
			break
		}
	}
	return problems
}

// Submit 提交投稿：校验、鉴权、生成待审记录并置于队列最前
func (s *Service) Submit(ctx context.Context, d *Draft) (*Contribution, error) {
	if !s.auth.UserPermissions().CanSubmitPrompts {
		return nil, ErrPermissionDenied
	}

	if problems := s.Validate(d); len(problems) > 0 {
		metrics.ContributionValidationFailures.Inc()
		return nil, &ValidationError{Problems: problems}
	}

	now := time.Now().UTC()
	contribution := Contribution{
		ID:          newContributionID(),
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Content:     strings.TrimSpace(d.Content),
		Category:    d.Category,
		Subcategory: d.Subcategory,
		Tags:        d.Tags,
		Industry:    d.Industry,
		AITools:     d.AITools,
		Difficulty:  prompt.Difficulty(d.Difficulty),
		UseCase:     strings.TrimSpace(d.UseCase),
		Variables:   ExtractVariables(d.Content),
		Status:      prompt.StatusPending,
		SubmittedBy: prompt.Submitter{
			UserID:      s.auth.ActiveIdentity(ctx),
			Name:        s.submitterName(),
			SubmittedAt: now,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	contributions := s.load(ctx)
	contributions = append([]Contribution{contribution}, contributions...)
	s.save(ctx, contributions)

	metrics.ContributionsTotal.WithLabelValues("submitted").Inc()
	logger.Info("收到新投稿",
		zap.String("id", contribution.ID),
		zap.String("category", contribution.Category))
	return &contribution, nil
}

// Approve 审核通过：置为已审并克隆入公开提示词集合。
// 重复审核是无操作，不会重复入库。
func (s *Service) Approve(ctx context.Context, id, notes string) (*Contribution, error) {
	contributions := s.load(ctx)
	c := findContribution(contributions, id)
	if c == nil {
		return nil, ErrContributionNotFound
	}
	if c.Status == prompt.StatusApproved {
		return c, nil
	}

	now := time.Now().UTC()
	c.Status = prompt.StatusApproved
	c.ModerationNotes = notes
	c.ModeratedAt = &now
	c.UpdatedAt = now
	s.save(ctx, contributions)

	s.repo.Append(ctx, c.toPrompt())

	metrics.ContributionsTotal.WithLabelValues("approved").Inc()
	logger.Info("投稿已通过审核", zap.String("id", c.ID))
	return c, nil
}

// Reject 审核拒绝并记录原因，不影响公开集合
func (s *Service) Reject(ctx context.Context, id, reason string) (*Contribution, error) {
	contributions := s.load(ctx)
	c := findContribution(contributions, id)
	if c == nil {
		return nil, ErrContributionNotFound
	}

	now := time.Now().UTC()
	c.Status = prompt.StatusRejected
	c.ModerationNotes = reason
	c.ModeratedAt = &now
	c.UpdatedAt = now
	s.save(ctx, contributions)

	metrics.ContributionsTotal.WithLabelValues("rejected").Inc()
	return c, nil
}

// Delete 删除投稿：仅限待审状态，或投稿人本人
func (s *Service) Delete(ctx context.Context, id string) error {
	contributions := s.load(ctx)
	c := findContribution(contributions, id)
	if c == nil {
		return ErrContributionNotFound
	}
	if c.Status != prompt.StatusPending && c.SubmittedBy.UserID != s.auth.ActiveIdentity(ctx) {
		return ErrPermissionDenied
	}

	kept := contributions[:0]
	for _, item := range contributions {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.save(ctx, kept)
	return nil
}

// ByStatus 按状态列出投稿
func (s *Service) ByStatus(ctx context.Context, status prompt.Status) []Contribution {
	var out []Contribution
	for _, c := range s.load(ctx) {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out
}

// ByUser 列出某用户的全部投稿，userID 为空时取当前身份
func (s *Service) ByUser(ctx context.Context, userID string) []Contribution {
	if userID == "" {
		userID = s.auth.ActiveIdentity(ctx)
	}
	var out []Contribution
	for _, c := range s.load(ctx) {
		if c.SubmittedBy.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}

// Search 关键词匹配标题/描述/标签，再按过滤条件收窄
func (s *Service) Search(ctx context.Context, query string, filters Filters) []Contribution {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []Contribution
	for _, c := range s.load(ctx) {
		if query != "" && !matchesQuery(&c, query) {
			continue
		}
		if filters.Status != "" && c.Status != filters.Status {
			continue
		}
		if filters.Category != "" && c.Category != filters.Category {
			continue
		}
		if filters.UserID != "" && c.SubmittedBy.UserID != filters.UserID {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ContributionStats 投稿队列统计，近七天提交单独列出
func (s *Service) ContributionStats(ctx context.Context) Stats {
	stats := Stats{
		ByCategory: make(map[string]int),
		ByUser:     make(map[string]int),
	}
	cutoff := time.Now().AddDate(0, 0, -7)

	for _, c := range s.load(ctx) {
		stats.Total++
		switch c.Status {
		case prompt.StatusPending:
			stats.Pending++
		case prompt.StatusApproved:
			stats.Approved++
		case prompt.StatusRejected:
			stats.Rejected++
		}
		stats.ByCategory[c.Category]++
		stats.ByUser[c.SubmittedBy.UserID]++
		if c.SubmittedBy.SubmittedAt.After(cutoff) {
			stats.RecentSubmissions = append(stats.RecentSubmissions, c)
		}
	}
	return stats
}

// ExportContributions 导出当前身份可见的全部投稿
func (s *Service) ExportContributions(ctx context.Context) Export {
	contributions := s.load(ctx)
	return Export{
		ExportID:      uuid.New().String(),
		UserID:        s.auth.ActiveIdentity(ctx),
		Contributions: contributions,
		Total:         len(contributions),
		ExportDate:    time.Now().UTC(),
	}
}

// ClearAll 清空投稿队列（管理操作）
func (s *Service) ClearAll(ctx context.Context) {
	s.store.Remove(ctx, store.KeyContributions)
}

func (s *Service) load(ctx context.Context) []Contribution {
	var contributions []Contribution
	s.store.Get(ctx, store.KeyContributions, &contributions)
	return contributions
}

func (s *Service) save(ctx context.Context, contributions []Contribution) {
	s.store.Set(ctx, store.KeyContributions, contributions)
}

func (s *Service) submitterName() string {
	if session := s.auth.CurrentSession(); session != nil {
		return session.Name
	}
	return "Anonymous"
}

// toPrompt 审核通过后克隆为公开提示词，计数器从零开始
func (c *Contribution) toPrompt() prompt.Prompt {
	submitter := c.SubmittedBy
	return prompt.Prompt{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Content:     c.Content,
		Category:    c.Category,
		Subcategory: c.Subcategory,
		Tags:        c.Tags,
		Industry:    c.Industry,
		AITools:     c.AITools,
		Difficulty:  c.Difficulty,
		UseCase:     c.UseCase,
		Variables:   c.Variables,
		Author: &prompt.Author{
			Name:    c.SubmittedBy.Name,
			Company: "Community Contributor",
		},
		SubmittedBy: &submitter,
		Status:      prompt.StatusApproved,
		IsPublic:    true,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func findContribution(contributions []Contribution, id string) *Contribution {
	for i := range contributions {
		if contributions[i].ID == id {
			return &contributions[i]
		}
	}
	return nil
}

func matchesQuery(c *Contribution, query string) bool {
	if strings.Contains(strings.ToLower(c.Title), query) ||
		strings.Contains(strings.ToLower(c.Description), query) {
		return true
	}
	for _, tag := range c.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// newContributionID 生成 contrib_ + 毫秒时间戳 base36 + 5 位随机 base36
func newContributionID() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 5)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return "contrib_" + strconv.FormatInt(time.Now().UnixMilli(), 36) + string(b)
}
