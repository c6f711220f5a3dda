package prefs

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"promptlib/internal/config"
	"promptlib/internal/store"
)

func setupPrefsTest(t *testing.T) *Service {
	t.Helper()
	dsn := "file:prefs_service?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	kv := store.NewKV(db)
	require.NoError(t, kv.AutoMigrate())
	require.NoError(t, db.Exec("DELETE FROM kv_entries").Error)
	return NewService(kv, &config.SearchConfig{HistoryLimit: 20, SuggestionLimit: 8})
}

func TestToggleFavorite(t *testing.T) {
	ctx := context.Background()
	svc := setupPrefsTest(t)

	require.Empty(t, svc.Favorites(ctx))
	require.True(t, svc.ToggleFavorite(ctx, "prompt-1"))
	require.True(t, svc.IsFavorite(ctx, "prompt-1"))

	require.True(t, svc.ToggleFavorite(ctx, "prompt-2"))
	require.Equal(t, []string{"prompt-1", "prompt-2"}, svc.Favorites(ctx))

	// 再次切换即取消收藏
	require.False(t, svc.ToggleFavorite(ctx, "prompt-1"))
	require.False(t, svc.IsFavorite(ctx, "prompt-1"))
	require.Equal(t, []string{"prompt-2"}, svc.Favorites(ctx))
}

func TestSettingsDefaultsAndMerge(t *testing.T) {
	ctx := context.Background()
	svc := setupPrefsTest(t)

	settings := svc.GetSettings(ctx)
	require.Equal(t, "light", settings.Theme)
	require.Equal(t, "browse", settings.DefaultView)
	require.Equal(t, 12, settings.ResultsPerPage)
	require.True(t, settings.ShowUsageStats)
	require.True(t, settings.AutoSave)

	// 只改主题，其余字段保持不变
	updated := svc.UpdateSettings(ctx, func(s *Settings) { s.Theme = "dark" })
	require.Equal(t, "dark", updated.Theme)
	require.Equal(t, 12, updated.ResultsPerPage)

	reread := svc.GetSettings(ctx)
	require.Equal(t, "dark", reread.Theme)
	require.True(t, reread.AutoSave)
}

func TestTrackUsage(t *testing.T) {
	ctx := context.Background()
	svc := setupPrefsTest(t)

	require.Zero(t, svc.UsageFor(ctx, "prompt-1").Count)

	first := svc.TrackUsage(ctx, "prompt-1")
	require.Equal(t, 1, first.Count)
	require.NotNil(t, first.FirstUsed)
	require.NotNil(t, first.LastUsed)

	second := svc.TrackUsage(ctx, "prompt-1")
	require.Equal(t, 2, second.Count)
	// 首次使用时间不随后续使用改变
	require.Equal(t, first.FirstUsed.UnixNano(), second.FirstUsed.UnixNano())
	require.False(t, second.LastUsed.Before(*first.LastUsed))
}

func TestMostUsed(t *testing.T) {
	ctx := context.Background()
	svc := setupPrefsTest(t)

	for i := 0; i < 3; i++ {
		svc.TrackUsage(ctx, "prompt-b")
	}
	svc.TrackUsage(ctx, "prompt-a")
	svc.TrackUsage(ctx, "prompt-c")

	require.Equal(t, []string{"prompt-b", "prompt-a"}, svc.MostUsed(ctx, 2))
	// 次数并列时按 ID 排序
	require.Equal(t, []string{"prompt-b", "prompt-a", "prompt-c"}, svc.MostUsed(ctx, 0))
}

func TestSearchHistory(t *testing.T) {
	ctx := context.Background()
	svc := setupPrefsTest(t)

	svc.RecordSearch(ctx, "email")
	svc.RecordSearch(ctx, "code review")
	svc.RecordSearch(ctx, "   ")
	require.Equal(t, []string{"code review", "email"}, svc.History(ctx))

	// 重复词上浮到最前而不是重复出现
	svc.RecordSearch(ctx, "email")
	require.Equal(t, []string{"email", "code review"}, svc.History(ctx))

	svc.ClearHistory(ctx)
	require.Empty(t, svc.History(ctx))
}

func TestSearchHistoryLimit(t *testing.T) {
	ctx := context.Background()
	svc := setupPrefsTest(t)

	for i := 0; i < 25; i++ {
		svc.RecordSearch(ctx, "term-"+string(rune('a'+i)))
	}
	history := svc.History(ctx)
	require.Len(t, history, 20)
	// 最旧的被挤出
	require.Equal(t, "term-"+string(rune('a'+24)), history[0])
}

func TestExportImportBundle(t *testing.T) {
	ctx := context.Background()
	svc := setupPrefsTest(t)

	svc.ToggleFavorite(ctx, "prompt-1")
	svc.TrackUsage(ctx, "prompt-1")
	svc.RecordSearch(ctx, "sales")
	svc.UpdateSettings(ctx, func(s *Settings) { s.ResultsPerPage = 24 })

	bundle := svc.ExportBundle(ctx)
	require.Equal(t, []string{"prompt-1"}, bundle.Favorites)
	require.Equal(t, 24, bundle.Settings.ResultsPerPage)
	require.Equal(t, 1, bundle.Usage["prompt-1"].Count)
	require.Equal(t, []string{"sales"}, bundle.History)

	svc.ClearAll(ctx)
	require.Empty(t, svc.Favorites(ctx))
	require.Equal(t, 12, svc.GetSettings(ctx).ResultsPerPage)

	require.True(t, svc.ImportBundle(ctx, bundle))
	require.Equal(t, []string{"prompt-1"}, svc.Favorites(ctx))
	require.Equal(t, 24, svc.GetSettings(ctx).ResultsPerPage)
	require.Equal(t, []string{"sales"}, svc.History(ctx))
}

func TestAddRemoveFavorite(t *testing.T) {
	ctx := context.Background()
	svc := setupPrefsTest(t)

	svc.AddFavorite(ctx, "prompt-1")
	// 重复添加不产生重复项
	svc.AddFavorite(ctx, "prompt-1")
	require.Equal(t, []string{"prompt-1"}, svc.Favorites(ctx))

	svc.RemoveFavorite(ctx, "prompt-1")
	// 删除不存在的条目是无操作
	svc.RemoveFavorite(ctx, "prompt-x")
	require.Empty(t, svc.Favorites(ctx))
}
