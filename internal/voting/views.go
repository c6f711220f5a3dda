package voting

import (
	"math"
	"sort"
	"time"

	"promptlib/internal/prompt"
)

// Percentage 赞成/反对占比，总票为零时两者都是 0
type Percentage struct {
	Upvote   int `json:"upvotePercentage"`
	Downvote int `json:"downvotePercentage"`
}

// Summary 全库投票汇总
type Summary struct {
	TotalVotes          int            `json:"totalVotes"`
	TotalUpvotes        int            `json:"totalUpvotes"`
	TotalDownvotes      int            `json:"totalDownvotes"`
	AverageScore        float64        `json:"averageScore"`
	TopPrompt           *prompt.Prompt `json:"topPrompt"`
	ControversialPrompt *prompt.Prompt `json:"controversialPrompt"`
}

// SortByScore 按得分排序，返回副本。desc 为 true 时高分在前。
// 同分保持输入顺序。
func SortByScore(prompts []prompt.Prompt, desc bool) []prompt.Prompt {
	sorted := make([]prompt.Prompt, len(prompts))
	copy(sorted, prompts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if desc {
			return sorted[i].Votes.Score > sorted[j].Votes.Score
		}
		return sorted[i].Votes.Score < sorted[j].Votes.Score
	})
	return sorted
}

// Trending 近期热度榜：只看窗口内创建的提示词，按速度（得分/天龄）降序。
// 天龄不足一天按一天计，避免刚发布的条目除零或被无限放大。
func Trending(prompts []prompt.Prompt, days int) []prompt.Prompt {
	cutoff := time.Now().AddDate(0, 0, -days)
	recent := make([]prompt.Prompt, 0)
	for _, p := range prompts {
		if p.CreatedAt.After(cutoff) {
			recent = append(recent, p)
		}
	}
	velocity := func(p prompt.Prompt) float64 {
		ageDays := time.Since(p.CreatedAt).Hours() / 24
		return float64(p.Votes.Score) / math.Max(1, ageDays)
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return velocity(recent[i]) > velocity(recent[j])
	})
	return recent
}

// TopByCategory 某分类下得分最高的若干条
func TopByCategory(prompts []prompt.Prompt, category string, limit int) []prompt.Prompt {
	filtered := make([]prompt.Prompt, 0)
	for _, p := range prompts {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	sorted := SortByScore(filtered, true)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// VotePercentage 单条提示词的赞成/反对占比
func VotePercentage(p *prompt.Prompt) Percentage {
	total := p.Votes.Upvotes + p.Votes.Downvotes
	if total == 0 {
		return Percentage{}
	}
	return Percentage{
		Upvote:   int(math.Round(float64(p.Votes.Upvotes) / float64(total) * 100)),
		Downvote: int(math.Round(float64(p.Votes.Downvotes) / float64(total) * 100)),
	}
}

// Summarize 汇总全库投票情况，并标出最高分与争议最大的条目。
// 争议度 = 总票数 / |得分+1|，票多且正反接近的条目数值最大。
func Summarize(prompts []prompt.Prompt) Summary {
	var s Summary
	maxScore := math.Inf(-1)
	maxControversy := 0.0
	for i := range prompts {
		p := &prompts[i]
		total := p.Votes.Upvotes + p.Votes.Downvotes
		s.TotalVotes += total
		s.TotalUpvotes += p.Votes.Upvotes
		s.TotalDownvotes += p.Votes.Downvotes
		if float64(p.Votes.Score) > maxScore {
			maxScore = float64(p.Votes.Score)
			s.TopPrompt = p
		}
		controversy := float64(total) / math.Abs(float64(p.Votes.Score)+1)
		if controversy > maxControversy {
			maxControversy = controversy
			s.ControversialPrompt = p
		}
	}
	if len(prompts) > 0 {
		s.AverageScore = float64(s.TotalUpvotes-s.TotalDownvotes) / float64(len(prompts))
	}
	return s
}
