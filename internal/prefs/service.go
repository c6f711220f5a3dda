// Package prefs 管理用户本地偏好：收藏、界面设置、使用统计与搜索历史。
// 所有数据按键分桶存放，互不影响，损坏或缺失时回落到默认值。
package prefs

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"promptlib/internal/config"
	"promptlib/internal/store"
)

// Settings 界面设置
type Settings struct {
	Theme          string `json:"theme"`
	DefaultView    string `json:"defaultView"`
	ResultsPerPage int    `json:"resultsPerPage"`
	ShowUsageStats bool   `json:"showUsageStats"`
	AutoSave       bool   `json:"autoSave"`
}

// DefaultSettings 默认界面设置
func DefaultSettings() Settings {
	return Settings{
		Theme:          "light",
		DefaultView:    "browse",
		ResultsPerPage: 12,
		ShowUsageStats: true,
		AutoSave:       true,
	}
}

// Usage 单条提示词的使用统计
type Usage struct {
	Count     int        `json:"count"`
	FirstUsed *time.Time `json:"firstUsed,omitempty"`
	LastUsed  *time.Time `json:"lastUsed,omitempty"`
}

// Bundle 偏好数据导出/导入的整体载荷
type Bundle struct {
	ExportID   string           `json:"exportId,omitempty"`
	Favorites  []string         `json:"favorites"`
	Settings   Settings         `json:"settings"`
	Usage      map[string]Usage `json:"usage"`
	History    []string         `json:"searchHistory"`
	ExportDate time.Time        `json:"exportDate"`
}

// Service 偏好服务
type Service struct {
	store        store.Store
	historyLimit int
}

// NewService 创建偏好服务
func NewService(s store.Store, cfg *config.SearchConfig) *Service {
	limit := 20
	if cfg != nil && cfg.HistoryLimit > 0 {
		limit = cfg.HistoryLimit
	}
	return &Service{store: s, historyLimit: limit}
}

// Favorites 收藏的提示词 ID 列表
func (s *Service) Favorites(ctx context.Context) []string {
	var favorites []string
	s.store.Get(ctx, store.KeyFavorites, &favorites)
	return favorites
}

// IsFavorite 是否已收藏
func (s *Service) IsFavorite(ctx context.Context, promptID string) bool {
	for _, id := range s.Favorites(ctx) {
		if id == promptID {
			return true
		}
	}
	return false
}

// AddFavorite 收藏，已收藏时保持不变
func (s *Service) AddFavorite(ctx context.Context, promptID string) {
	favorites := s.Favorites(ctx)
	for _, id := range favorites {
		if id == promptID {
			return
		}
	}
	s.store.Set(ctx, store.KeyFavorites, append(favorites, promptID))
}

// RemoveFavorite 取消收藏
func (s *Service) RemoveFavorite(ctx context.Context, promptID string) {
	favorites := s.Favorites(ctx)
	for i, id := range favorites {
		if id == promptID {
			s.store.Set(ctx, store.KeyFavorites, append(favorites[:i], favorites[i+1:]...))
			return
		}
	}
}

// ToggleFavorite 收藏/取消收藏，返回操作后的收藏状态
func (s *Service) ToggleFavorite(ctx context.Context, promptID string) bool {
	if s.IsFavorite(ctx, promptID) {
		s.RemoveFavorite(ctx, promptID)
		return false
	}
	s.AddFavorite(ctx, promptID)
	return true
}

// GetSettings 读取界面设置，缺失字段用默认值补齐
func (s *Service) GetSettings(ctx context.Context) Settings {
	settings := DefaultSettings()
	s.store.Get(ctx, store.KeySettings, &settings)
	if settings.Theme == "" {
		settings.Theme = "light"
	}
	if settings.DefaultView == "" {
		settings.DefaultView = "browse"
	}
	if settings.ResultsPerPage <= 0 {
		settings.ResultsPerPage = 12
	}
	return settings
}

// UpdateSettings 合并式更新：只覆盖调用方给出的字段
func (s *Service) UpdateSettings(ctx context.Context, patch func(*Settings)) Settings {
	settings := s.GetSettings(ctx)
	if patch != nil {
		patch(&settings)
	}
	s.store.Set(ctx, store.KeySettings, settings)
	return settings
}

// TrackUsage 记录一次使用：首次使用时间只写一次，末次使用时间随写随新
func (s *Service) TrackUsage(ctx context.Context, promptID string) Usage {
	usage := s.allUsage(ctx)
	now := time.Now().UTC()

	entry := usage[promptID]
	entry.Count++
	if entry.FirstUsed == nil {
		entry.FirstUsed = &now
	}
	entry.LastUsed = &now
	usage[promptID] = entry

	s.store.Set(ctx, store.KeyUsage, usage)
	return entry
}

// UsageFor 单条提示词的使用统计，从未使用时计数为零
func (s *Service) UsageFor(ctx context.Context, promptID string) Usage {
	return s.allUsage(ctx)[promptID]
}

// MostUsed 按使用次数降序取前 limit 条的 ID
func (s *Service) MostUsed(ctx context.Context, limit int) []string {
	usage := s.allUsage(ctx)
	ids := make([]string, 0, len(usage))
	for id := range usage {
		ids = append(ids, id)
	}
	// 次数相同按 ID 排序，保证结果可复现
	sort.Slice(ids, func(i, j int) bool {
		a, b := usage[ids[i]], usage[ids[j]]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return ids[i] < ids[j]
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

func (s *Service) allUsage(ctx context.Context) map[string]Usage {
	usage := make(map[string]Usage)
	s.store.Get(ctx, store.KeyUsage, &usage)
	if usage == nil {
		usage = make(map[string]Usage)
	}
	return usage
}

// History 搜索历史，最近一次在最前
func (s *Service) History(ctx context.Context) []string {
	var history []string
	s.store.Get(ctx, store.KeyHistory, &history)
	return history
}

// RecordSearch 记录一次搜索：空白词忽略，重复词上浮到最前，超限截断
func (s *Service) RecordSearch(ctx context.Context, term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}

	history := s.History(ctx)
	for i, existing := range history {
		if existing == term {
			history = append(history[:i], history[i+1:]...)
			break
		}
	}
	history = append([]string{term}, history...)
	if len(history) > s.historyLimit {
		history = history[:s.historyLimit]
	}
	s.store.Set(ctx, store.KeyHistory, history)
}

// ClearHistory 清空搜索历史
func (s *Service) ClearHistory(ctx context.Context) {
	s.store.Remove(ctx, store.KeyHistory)
}

// ExportBundle 导出全部偏好数据
func (s *Service) ExportBundle(ctx context.Context) Bundle {
	return Bundle{
		ExportID:   uuid.New().String(),
		Favorites:  s.Favorites(ctx),
		Settings:   s.GetSettings(ctx),
		Usage:      s.allUsage(ctx),
		History:    s.History(ctx),
		ExportDate: time.Now().UTC(),
	}
}

// ImportBundle 整体导入，覆盖现有偏好
func (s *Service) ImportBundle(ctx context.Context, b Bundle) bool {
	ok := s.store.Set(ctx, store.KeyFavorites, b.Favorites)
	ok = s.store.Set(ctx, store.KeySettings, b.Settings) && ok
	ok = s.store.Set(ctx, store.KeyUsage, b.Usage) && ok
	ok = s.store.Set(ctx, store.KeyHistory, b.History) && ok
	return ok
}

// ClearAll 清空全部偏好数据
func (s *Service) ClearAll(ctx context.Context) {
	s.store.Remove(ctx, store.KeyFavorites)
	s.store.Remove(ctx, store.KeySettings)
	s.store.Remove(ctx, store.KeyUsage)
	s.store.Remove(ctx, store.KeyHistory)
}
