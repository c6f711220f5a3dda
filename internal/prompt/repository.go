package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"promptlib/internal/logger"
	"promptlib/internal/store"

	"go.uber.org/zap"
)

// Repository 提示词集合仓库。集合整体以 JSON 数组形式存放在单个键下，
// 加载时做严格校验，损坏数据返回 store.ErrCorruptState 而不是带着未定义字段继续。
type Repository struct {
	store store.Store
}

// NewRepository 创建仓库
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// Load 加载提示词集合。本地无副本时返回空集合。
func (r *Repository) Load(ctx context.Context) ([]Prompt, error) {
	var prompts []Prompt
	ok, err := r.store.GetStrict(ctx, store.KeyPrompts, &prompts)
	if err != nil {
		return nil, fmt.Errorf("提示词集合损坏: %w", err)
	}
	if !ok {
		return nil, nil
	}

	for i := range prompts {
		if err := prompts[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrCorruptState, err)
		}
	}
	return prompts, nil
}

// Save 持久化整个集合，尽力而为
func (r *Repository) Save(ctx context.Context, prompts []Prompt) bool {
	return r.store.Set(ctx, store.KeyPrompts, prompts)
}

// Append 向集合追加一条并持久化（审核通过的投稿走这里）
func (r *Repository) Append(ctx context.Context, p Prompt) bool {
	prompts, err := r.Load(ctx)
	if err != nil {
		logger.Warn("追加前加载集合失败，按空集合处理", zap.Error(err))
		prompts = nil
	}
	prompts = append(prompts, p)
	return r.Save(ctx, prompts)
}

// SeedFromFile 当本地没有副本时，从静态 JSON 文件导入初始集合。
// 返回导入条数；已有副本时不做任何事。
func (r *Repository) SeedFromFile(ctx context.Context, path string) (int, error) {
	existing, err := r.Load(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("读取初始数据失败: %w", err)
	}

	var prompts []Prompt
	if err := json.Unmarshal(data, &prompts); err != nil {
		return 0, fmt.Errorf("解析初始数据失败: %w", err)
	}
	for i := range prompts {
		if err := prompts[i].Validate(); err != nil {
			return 0, fmt.Errorf("初始数据校验失败: %w", err)
		}
	}

	if !r.Save(ctx, prompts) {
		return 0, fmt.Errorf("写入初始数据失败")
	}
	logger.Info("初始提示词集合导入完成", zap.Int("count", len(prompts)), zap.String("path", path))
	return len(prompts), nil
}
