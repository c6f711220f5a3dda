package voting

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"promptlib/internal/prompt"
	"promptlib/internal/store"
)

func setupVotingTest(t *testing.T) (*store.KV, *prompt.Repository) {
	t.Helper()
	dsn := "file:voting_service?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	kv := store.NewKV(db)
	require.NoError(t, kv.AutoMigrate())
	require.NoError(t, db.Exec("DELETE FROM kv_entries").Error)
	return kv, prompt.NewRepository(kv)
}

func votingPrompts() []prompt.Prompt {
	now := time.Now().UTC()
	return []prompt.Prompt{
		{
			ID:         "prompt-1",
			Title:      "冷启动销售邮件",
			Category:   "sales",
			Difficulty: prompt.DifficultyBeginner,
			CreatedAt:  now.AddDate(0, 0, -2),
			Votes:      prompt.VoteCounts{Upvotes: 3, Downvotes: 1, Score: 2},
		},
		{
			ID:         "prompt-2",
			Title:      "代码审查清单",
			Category:   "engineering",
			Difficulty: prompt.DifficultyAdvanced,
			CreatedAt:  now.AddDate(0, 0, -40),
			Votes:      prompt.VoteCounts{Upvotes: 10, Downvotes: 10, Score: 0},
		},
	}
}

func TestCastInvalidInput(t *testing.T) {
	ctx := context.Background()
	kv, repo := setupVotingTest(t)
	svc := NewService(ctx, kv, repo, "user_test1")
	prompts := votingPrompts()

	_, err := svc.Cast(ctx, "prompt-1", "sideways", prompts)
	require.ErrorIs(t, err, ErrInvalidDirection)

	_, err = svc.Cast(ctx, "nope", DirectionUp, prompts)
	require.ErrorIs(t, err, ErrPromptNotFound)

	// 失败路径不留投票记录
	require.Empty(t, svc.UserVote("prompt-1"))
}

func TestCastRecordAndUndo(t *testing.T) {
	ctx := context.Background()
	kv, repo := setupVotingTest(t)
	svc := NewService(ctx, kv, repo, "user_test2")
	prompts := votingPrompts()

	res, err := svc.Cast(ctx, "prompt-1", DirectionUp, prompts)
	require.NoError(t, err)
	require.Equal(t, OutcomeRecorded, res.Outcome)
	require.Equal(t, DirectionUp, res.UserVote)
	require.Equal(t, prompt.VoteCounts{Upvotes: 4, Downvotes: 1, Score: 3}, res.Votes)
	// 入参切片不被原地修改
	require.Equal(t, 3, prompts[0].Votes.Upvotes)

	// 同方向重复视为撤销，恢复原计数
	res, err = svc.Cast(ctx, "prompt-1", DirectionUp, res.Prompts)
	require.NoError(t, err)
	require.Equal(t, OutcomeRemoved, res.Outcome)
	require.Empty(t, res.UserVote)
	require.Equal(t, prompt.VoteCounts{Upvotes: 3, Downvotes: 1, Score: 2}, res.Votes)
	require.Empty(t, svc.UserVote("prompt-1"))
}

func TestCastSwitchDirection(t *testing.T) {
	ctx := context.Background()
	kv, repo := setupVotingTest(t)
	svc := NewService(ctx, kv, repo, "user_test3")
	prompts := votingPrompts()

	res, err := svc.Cast(ctx, "prompt-1", DirectionUp, prompts)
	require.NoError(t, err)

	// 换方向：撤 up 加 down，净变化 -2
	res, err = svc.Cast(ctx, "prompt-1", DirectionDown, res.Prompts)
	require.NoError(t, err)
	require.Equal(t, OutcomeRecorded, res.Outcome)
	require.Equal(t, DirectionDown, res.UserVote)
	require.Equal(t, prompt.VoteCounts{Upvotes: 3, Downvotes: 2, Score: 1}, res.Votes)
	require.Equal(t, res.Votes.Upvotes-res.Votes.Downvotes, res.Votes.Score)
}

func TestCastFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	kv, repo := setupVotingTest(t)
	svc := NewService(ctx, kv, repo, "user_test4")

	prompts := votingPrompts()
	prompts[0].Votes = prompt.VoteCounts{}

	res, err := svc.Cast(ctx, "prompt-1", DirectionUp, prompts)
	require.NoError(t, err)
	// 人为把计数清零后撤票，不得出现负数
	res.Prompts[0].Votes = prompt.VoteCounts{}
	res, err = svc.Cast(ctx, "prompt-1", DirectionUp, res.Prompts)
	require.NoError(t, err)
	require.Equal(t, OutcomeRemoved, res.Outcome)
	require.GreaterOrEqual(t, res.Votes.Upvotes, 0)
	require.GreaterOrEqual(t, res.Votes.Downvotes, 0)
	require.Equal(t, 0, res.Votes.Score)
}

func TestVotesPersistAcrossInstances(t *testing.T) {
	ctx := context.Background()
	kv, repo := setupVotingTest(t)
	svc := NewService(ctx, kv, repo, "user_test5")

	_, err := svc.Cast(ctx, "prompt-1", DirectionDown, votingPrompts())
	require.NoError(t, err)

	// 同一身份的新实例恢复投票记录与计数
	svc2 := NewService(ctx, kv, repo, "user_test5")
	require.Equal(t, DirectionDown, svc2.UserVote("prompt-1"))

	saved, err := repo.Load(ctx)
	require.NoError(t, err)
	stats := svc2.Stats("prompt-1", saved)
	require.Equal(t, 2, stats.Downvotes)
	require.Equal(t, 1, stats.Score)
	require.Equal(t, DirectionDown, stats.UserVote)
}

func TestRekeyMovesBucket(t *testing.T) {
	ctx := context.Background()
	kv, repo := setupVotingTest(t)
	svc := NewService(ctx, kv, repo, "user_anon")

	_, err := svc.Cast(ctx, "prompt-1", DirectionUp, votingPrompts())
	require.NoError(t, err)

	require.True(t, svc.Rekey(ctx, "user_login"))
	require.Equal(t, "user_login", svc.Identity())

	// 新身份下能读回迁移后的投票
	migrated := NewService(ctx, kv, repo, "user_login")
	require.Equal(t, DirectionUp, migrated.UserVote("prompt-1"))
}

func TestExportAndClear(t *testing.T) {
	ctx := context.Background()
	kv, repo := setupVotingTest(t)
	svc := NewService(ctx, kv, repo, "user_test6")

	_, err := svc.Cast(ctx, "prompt-1", DirectionUp, votingPrompts())
	require.NoError(t, err)
	_, err = svc.Cast(ctx, "prompt-2", DirectionDown, votingPrompts())
	require.NoError(t, err)

	export := svc.ExportVotes()
	require.Equal(t, "user_test6", export.UserID)
	require.Equal(t, 2, export.TotalVotes)
	require.Equal(t, DirectionUp, export.Votes["prompt-1"])

	svc.Clear(ctx)
	require.Empty(t, svc.UserVote("prompt-1"))
	require.Zero(t, svc.ExportVotes().TotalVotes)
}
