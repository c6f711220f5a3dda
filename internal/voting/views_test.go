package voting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"promptlib/internal/prompt"
)

func viewPrompts() []prompt.Prompt {
	now := time.Now().UTC()
	return []prompt.Prompt{
		{ID: "a", Category: "sales", CreatedAt: now.AddDate(0, 0, -2),
			Votes: prompt.VoteCounts{Upvotes: 8, Downvotes: 2, Score: 6}},
		{ID: "b", Category: "sales", CreatedAt: now.AddDate(0, 0, -30),
			Votes: prompt.VoteCounts{Upvotes: 20, Downvotes: 19, Score: 1}},
		{ID: "c", Category: "engineering", CreatedAt: now.AddDate(0, 0, -1),
			Votes: prompt.VoteCounts{Upvotes: 3, Downvotes: 3, Score: 0}},
		{ID: "d", Category: "sales", CreatedAt: now.AddDate(0, 0, -3),
			Votes: prompt.VoteCounts{Upvotes: 8, Downvotes: 2, Score: 6}},
	}
}

func ids(prompts []prompt.Prompt) []string {
	out := make([]string, len(prompts))
	for i, p := range prompts {
		out[i] = p.ID
	}
	return out
}

func TestSortByScoreStable(t *testing.T) {
	prompts := viewPrompts()

	desc := SortByScore(prompts, true)
	// 同分（a、d）保持输入顺序
	require.Equal(t, []string{"a", "d", "b", "c"}, ids(desc))

	asc := SortByScore(prompts, false)
	require.Equal(t, []string{"c", "b", "a", "d"}, ids(asc))

	// 原切片不动
	require.Equal(t, []string{"a", "b", "c", "d"}, ids(prompts))
}

func TestTrendingWindowAndVelocity(t *testing.T) {
	prompts := viewPrompts()

	trending := Trending(prompts, 7)
	// b 在窗口外被排除；a 速度 6/2=3 高于 d 的 6/3=2，c 为 0
	require.Equal(t, []string{"a", "d", "c"}, ids(trending))
}

func TestTopByCategory(t *testing.T) {
	prompts := viewPrompts()

	top := TopByCategory(prompts, "sales", 2)
	require.Equal(t, []string{"a", "d"}, ids(top))

	require.Empty(t, TopByCategory(prompts, "writing", 5))
}

func TestVotePercentage(t *testing.T) {
	p := &prompt.Prompt{Votes: prompt.VoteCounts{Upvotes: 3, Downvotes: 1}}
	require.Equal(t, Percentage{Upvote: 75, Downvote: 25}, VotePercentage(p))

	// 零票时不做除法，双零
	empty := &prompt.Prompt{}
	require.Equal(t, Percentage{}, VotePercentage(empty))
}

func TestSummarize(t *testing.T) {
	prompts := viewPrompts()

	s := Summarize(prompts)
	require.Equal(t, 65, s.TotalVotes)
	require.Equal(t, 39, s.TotalUpvotes)
	require.Equal(t, 26, s.TotalDownvotes)
	require.InDelta(t, 13.0/4, s.AverageScore, 1e-9)
	// 最高分取第一个出现的并列最高
	require.Equal(t, "a", s.TopPrompt.ID)
	// b 票多且接近五五开，争议度 39/2 最大
	require.Equal(t, "b", s.ControversialPrompt.ID)

	require.Equal(t, Summary{}, Summarize(nil))
}

func TestSummarizeControversyTies(t *testing.T) {
	prompts := []prompt.Prompt{
		{ID: "x", Votes: prompt.VoteCounts{Upvotes: 5, Downvotes: 5, Score: 0}},
		{ID: "y", Votes: prompt.VoteCounts{Upvotes: 5, Downvotes: 5, Score: 0}},
	}
	s := Summarize(prompts)
	// 严格大于才替换，并列时保留先出现者
	require.Equal(t, "x", s.ControversialPrompt.ID)
}
