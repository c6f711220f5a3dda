// Package store 以 sqlite 键值表模拟浏览器端 localStorage：
// 命名空间字符串键 + JSON 序列化值，读写失败一律降级为默认值而不是向上抛错。
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"promptlib/internal/logger"
	"promptlib/internal/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrCorruptState 表示持久化数据无法按预期结构解析
var ErrCorruptState = errors.New("store: corrupt state")

// 存储键目录（沿用 promptLibrary 命名空间）
const (
	KeyIdentity      = "promptLibraryUserId"        // 匿名身份 ID
	KeySession       = "promptLibraryAuth"          // 会话记录
	KeyPrompts       = "promptLibraryData"          // 提示词集合
	KeyContributions = "promptLibraryContributions" // 投稿集合
	KeyFavorites     = "promptLibraryFavorites"     // 收藏集
	KeySettings      = "promptLibrarySettings"      // 界面设置
	KeyUsage         = "promptLibraryUsage"         // 使用统计
	KeyHistory       = "promptLibraryHistory"       // 搜索历史

	// KeyVotesPrefix 投票桶键前缀，完整键形如 promptLibraryVotes:<identity>
	KeyVotesPrefix = "promptLibraryVotes"
)

// VotesKey 返回某个身份的投票桶键
func VotesKey(identityID string) string {
	return KeyVotesPrefix + ":" + identityID
}

// Store 键值存储契约。写入返回是否成功而非 error，
// 调用方在失败时继续使用内存态（尽力而为，不中断交互）。
type Store interface {
	Set(ctx context.Context, key string, value any) bool
	Get(ctx context.Context, key string, out any) bool
	GetStrict(ctx context.Context, key string, out any) (bool, error)
	Remove(ctx context.Context, key string) bool
	Keys(ctx context.Context, prefix string) []string
}

// Entry 键值条目
type Entry struct {
	Key       string    `gorm:"column:key;primaryKey;size:255"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName 指定表名
func (Entry) TableName() string {
	return "kv_entries"
}

// KV 基于 GORM/sqlite 的键值存储
type KV struct {
	db *gorm.DB
}

// NewKV 创建键值存储
func NewKV(db *gorm.DB) *KV {
	return &KV{db: db}
}

// AutoMigrate 自动迁移表结构
func (s *KV) AutoMigrate() error {
	return s.db.AutoMigrate(&Entry{})
}

// Set 序列化并写入，失败时记录日志并返回 false
func (s *KV) Set(ctx context.Context, key string, value any) bool {
	data, err := json.Marshal(value)
	if err != nil {
		s.degrade("set", key, err)
		return false
	}

	entry := Entry{Key: key, Value: string(data), UpdatedAt: time.Now().UTC()}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		s.degrade("set", key, err)
		return false
	}
	return true
}

// Get 读取并反序列化；键缺失或数据损坏时返回 false，out 保持调用方默认值
func (s *KV) Get(ctx context.Context, key string, out any) bool {
	ok, err := s.GetStrict(ctx, key, out)
	if err != nil {
		return false
	}
	return ok
}

// GetStrict 与 Get 相同，但数据损坏时返回 ErrCorruptState，
// 供提示词/投稿集合这类结构化数据在存储边界做显式校验。
func (s *KV) GetStrict(ctx context.Context, key string, out any) (bool, error) {
	var entry Entry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		s.degrade("get", key, err)
		return false, nil
	}

	if err := json.Unmarshal([]byte(entry.Value), out); err != nil {
		s.degrade("decode", key, err)
		return false, ErrCorruptState
	}
	return true, nil
}

// Remove 删除键，失败时记录日志并返回 false
func (s *KV) Remove(ctx context.Context, key string) bool {
	if err := s.db.WithContext(ctx).Delete(&Entry{}, "key = ?", key).Error; err != nil {
		s.degrade("remove", key, err)
		return false
	}
	return true
}

// Keys 列出指定前缀下的全部键，按键名排序
func (s *KV) Keys(ctx context.Context, prefix string) []string {
	var keys []string
	err := s.db.WithContext(ctx).
		Model(&Entry{}).
		Where("key LIKE ?", prefix+"%").
		Order("key").
		Pluck("key", &keys).Error
	if err != nil {
		s.degrade("keys", prefix, err)
		return nil
	}
	return keys
}

func (s *KV) degrade(op, key string, err error) {
	metrics.StorageFailuresTotal.WithLabelValues(op).Inc()
	logger.Warn("本地存储降级",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
}
