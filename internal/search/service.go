package search

import (
	"sort"
	"strings"

	"promptlib/internal/config"
	"promptlib/internal/metrics"
	"promptlib/internal/prompt"
)

// Filters 高级检索条件，零值字段不参与过滤
type Filters struct {
	Query      string
	Category   string
	Difficulty prompt.Difficulty
	AITool     string
	Industry   string
	MinRating  float64
	Tags       []string
}

// Result 带相关度的检索结果
type Result struct {
	Prompt    prompt.Prompt
	Relevance int
}

// Index 关键词倒排索引，键是关键词，值是提示词下标集合
type Index map[string]map[int]bool

// Service 检索服务
type Service struct {
	suggestionLimit int
}

// NewService 创建检索服务
func NewService(cfg *config.SearchConfig) *Service {
	limit := 8
	if cfg != nil && cfg.SuggestionLimit > 0 {
		limit = cfg.SuggestionLimit
	}
	return &Service{suggestionLimit: limit}
}

// Search 全文检索：仅保留正分结果，按相关度降序，同分保持输入顺序
func (s *Service) Search(prompts []prompt.Prompt, query string) []Result {
	metrics.SearchesTotal.Inc()

	var results []Result
	for _, p := range prompts {
		if score := Score(&p, query); score > 0 {
			results = append(results, Result{Prompt: p, Relevance: score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	return results
}

// Advanced 文本检索与条件过滤的组合。
// 有查询词时先按相关度排序，再依次套过滤条件。
func (s *Service) Advanced(prompts []prompt.Prompt, filters Filters) []prompt.Prompt {
	results := prompts
	if filters.Query != "" {
		ranked := s.Search(prompts, filters.Query)
		results = make([]prompt.Prompt, len(ranked))
		for i, r := range ranked {
			results[i] = r.Prompt
		}
	}
	return applyQueryFilters(results, filters)
}

func applyQueryFilters(prompts []prompt.Prompt, filters Filters) []prompt.Prompt {
	out := make([]prompt.Prompt, 0, len(prompts))
	for _, p := range prompts {
		if filters.Category != "" && p.Category != filters.Category {
			continue
		}
		if filters.Difficulty != "" && p.Difficulty != filters.Difficulty {
			continue
		}
		if filters.AITool != "" && !contains(p.AITools, filters.AITool) {
			continue
		}
		if filters.Industry != "" && !contains(p.Industry, filters.Industry) {
			continue
		}
		if filters.MinRating > 0 && (p.Rating == nil || p.Rating.Average < filters.MinRating) {
			continue
		}
		if len(filters.Tags) > 0 && !containsAny(p.Tags, filters.Tags) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// MultiFilters 多值筛选条件，用于浏览页的组合筛选器。
// 空列表/零值字段不参与过滤。
type MultiFilters struct {
	Categories   []string
	Difficulties []prompt.Difficulty
	AITools      []string
	Industries   []string
	MinRating    float64
	MinUsage     int
	FeaturedOnly bool
}

// ApplyFilters 按多值条件过滤，不改变排序
func ApplyFilters(prompts []prompt.Prompt, filters MultiFilters) []prompt.Prompt {
	out := make([]prompt.Prompt, 0, len(prompts))
	for _, p := range prompts {
		if len(filters.Categories) > 0 && !contains(filters.Categories, p.Category) {
			continue
		}
		if len(filters.Difficulties) > 0 && !containsDifficulty(filters.Difficulties, p.Difficulty) {
			continue
		}
		if len(filters.AITools) > 0 && !containsAny(p.AITools, filters.AITools) {
			continue
		}
		if len(filters.Industries) > 0 && !containsAny(p.Industry, filters.Industries) {
			continue
		}
		// 无评分的条目不受评分下限约束，沿用宽松口径
		if filters.MinRating > 0 && p.Rating != nil && p.Rating.Average < filters.MinRating {
			continue
		}
		if filters.MinUsage > 0 && p.Usage.Count < filters.MinUsage {
			continue
		}
		if filters.FeaturedOnly && !p.IsFeatured {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Suggestions 输入提示：从标题/标签/分类/使用场景里收集包含片段的候选，
// 去重后取前若干条并按长度升序（短的通常更像补全）。
func (s *Service) Suggestions(prompts []prompt.Prompt, partial string) []string {
	if len(partial) < 2 {
		return nil
	}
	term := Normalize(partial)
	if term == "" {
		return nil
	}

	seen := make(map[string]bool)
	var suggestions []string
	add := func(candidate string) {
		if candidate == "" || seen[candidate] {
			return
		}
		if strings.Contains(strings.ToLower(candidate), term) {
			seen[candidate] = true
			suggestions = append(suggestions, candidate)
		}
	}

	for i := range prompts {
		p := &prompts[i]
		add(p.Title)
		for _, tag := range p.Tags {
			add(tag)
		}
		add(p.Category)
		add(p.UseCase)
	}

	if len(suggestions) > s.suggestionLimit {
		suggestions = suggestions[:s.suggestionLimit]
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return len(suggestions[i]) < len(suggestions[j])
	})
	return suggestions
}

// PopularTerms 热门检索词：统计标签与标题关键词（长度大于 3）的出现频次，
// 取前十，频次相同按字典序保证稳定
func PopularTerms(prompts []prompt.Prompt) []string {
	frequency := make(map[string]int)
	for i := range prompts {
		for _, tag := range prompts[i].Tags {
			frequency[tag]++
		}
		for _, word := range ExtractKeywords(prompts[i].Title) {
			if len(word) > 3 {
				frequency[word]++
			}
		}
	}

	terms := make([]string, 0, len(frequency))
	for term := range frequency {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if frequency[terms[i]] != frequency[terms[j]] {
			return frequency[terms[i]] > frequency[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > 10 {
		terms = terms[:10]
	}
	return terms
}

// BuildIndex 预构建倒排索引，供高频检索场景复用
func BuildIndex(prompts []prompt.Prompt) Index {
	index := make(Index)
	for i := range prompts {
		p := &prompts[i]
		searchable := strings.Join(append([]string{
			p.Title, p.Description, p.UseCase, p.Category,
		}, append(p.Tags, p.Industry...)...), " ")

		for _, keyword := range ExtractKeywords(searchable) {
			if index[keyword] == nil {
				index[keyword] = make(map[int]bool)
			}
			index[keyword][i] = true
		}
	}
	return index
}

// SearchIndex 用倒排索引检索，命中任一关键词即入选，结果保持集合顺序
func SearchIndex(index Index, prompts []prompt.Prompt, query string) []prompt.Prompt {
	if query == "" {
		return prompts
	}
	matched := make(map[int]bool)
	for _, keyword := range ExtractKeywords(query) {
		for i := range index[keyword] {
			matched[i] = true
		}
	}

	out := make([]prompt.Prompt, 0, len(matched))
	for i := range prompts {
		if matched[i] {
			out = append(out, prompts[i])
		}
	}
	return out
}

func contains(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}

func containsDifficulty(list []prompt.Difficulty, target prompt.Difficulty) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}

func containsAny(list, targets []string) bool {
	for _, target := range targets {
		if contains(list, target) {
			return true
		}
	}
	return false
}
