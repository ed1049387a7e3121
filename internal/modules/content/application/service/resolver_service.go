package service

import (
	"context"
	"sort"
	"strings"

	"PulseLink/internal/modules/content/infrastructure/search"
	"PulseLink/pkg/zlog"

	"go.uber.org/zap"
)

// ContentCandidate 通过筛选的候选内容
type ContentCandidate struct {
	URL            string `json:"url"`
	Title          string `json:"title"`
	Source         string `json:"source"`
	MediaType      string `json:"mediaType"`
	RelevanceScore int    `json:"relevanceScore"`
}

// ResolverService 按触发类型检索并挑选相关内容。
// 检索服务不可用或无结果都返回 (nil, nil)，上层视作"本次不触发"。
type ResolverService interface {
	Resolve(ctx context.Context, contentType, triggerValue string) (*ContentCandidate, error)
	ResolveTop(ctx context.Context, contentType, triggerValue string, count int) ([]ContentCandidate, error)
}

// typeProfile 每种活动类型的检索与打分画像
type typeProfile struct {
	boost   []string
	exclude []string
	bonus   map[string]int
}

var profiles = map[string]typeProfile{
	"GAME": {
		boost:   []string{"gaming", "reaction", "funny"},
		exclude: []string{"walkthrough", "tutorial"},
		bonus:   map[string]int{"gaming": 2, "game": 1, "reaction": 1},
	},
	"MUSIC": {
		boost:   []string{"music", "vibe"},
		exclude: []string{"lyrics", "karaoke"},
		bonus:   map[string]int{"music": 2, "concert": 1, "dance": 1},
	},
	"STREAMING": {
		boost:   []string{"stream", "live", "hype"},
		exclude: []string{"offline", "schedule"},
		bonus:   map[string]int{"stream": 2, "live": 1},
	},
	"WATCHING": {
		boost:   []string{"scene", "reaction"},
		exclude: []string{"spoiler", "trailer"},
		bonus:   map[string]int{"scene": 2, "tv": 1, "movie": 1},
	},
	"CUSTOM": {
		boost: []string{"mood", "funny"},
		bonus: map[string]int{"mood": 1, "funny": 1},
	},
	"COMPETING": {
		boost:   []string{"esports", "tournament", "hype"},
		exclude: []string{"bracket", "schedule"},
		bonus:   map[string]int{"tournament": 2, "esports": 1, "winner": 1},
	},
}

const (
	minDimension = 200
	// 近似正方形的宽高比界限
	squareRatioLow  = 0.8
	squareRatioHigh = 1.25
)

type resolverServiceImpl struct {
	provider      search.Provider
	maxCandidates int
}

func NewResolverService(provider search.Provider, maxCandidates int) ResolverService {
	if maxCandidates <= 0 {
		maxCandidates = 5
	}
	return &resolverServiceImpl{provider: provider, maxCandidates: maxCandidates}
}

func (s *resolverServiceImpl) Resolve(ctx context.Context, contentType, triggerValue string) (*ContentCandidate, error) {
	top, err := s.ResolveTop(ctx, contentType, triggerValue, 1)
	if err != nil || len(top) == 0 {
		return nil, err
	}
	return &top[0], nil
}

func (s *resolverServiceImpl) ResolveTop(ctx context.Context, contentType, triggerValue string, count int) ([]ContentCandidate, error) {
	if triggerValue == "" {
		return nil, nil
	}
	if count <= 0 || count > s.maxCandidates {
		count = s.maxCandidates
	}

	profile := profiles[contentType]
	query := buildQuery(triggerValue, profile)

	// 每次触发都实时检索，不做结果缓存
	results, err := s.provider.Search(ctx, query, s.maxCandidates*4)
	if err != nil {
		zlog.Warn("content search failed",
			zap.String("content_type", contentType),
			zap.String("query", query),
			zap.Error(err),
		)
		return nil, nil
	}
	if len(results) == 0 {
		return nil, nil
	}

	candidates := make([]ContentCandidate, 0, len(results))
	for i := range results {
		r := &results[i]
		if excluded(r.Title, profile.exclude) {
			continue
		}
		candidates = append(candidates, ContentCandidate{
			URL:            r.URL,
			Title:          r.Title,
			Source:         r.Source,
			MediaType:      r.MediaType,
			RelevanceScore: score(r, profile),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RelevanceScore > candidates[j].RelevanceScore
	})
	if len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates, nil
}

func buildQuery(triggerValue string, profile typeProfile) string {
	parts := []string{triggerValue}
	for _, b := range profile.boost {
		parts = append(parts, "+"+b)
	}
	for _, e := range profile.exclude {
		parts = append(parts, "-"+e)
	}
	return strings.Join(parts, " ")
}

func excluded(title string, excludes []string) bool {
	lower := strings.ToLower(title)
	for _, e := range excludes {
		if strings.Contains(lower, e) {
			return true
		}
	}
	return false
}

func score(r *search.RawResult, profile typeProfile) int {
	n := 0
	if r.Title != "" {
		n++
	}
	if r.Source != "" {
		n++
	}
	if r.Width >= minDimension && r.Height >= minDimension {
		n++
	}
	if r.Width > 0 && r.Height > 0 {
		ratio := float64(r.Width) / float64(r.Height)
		if ratio >= squareRatioLow && ratio <= squareRatioHigh {
			n++
		}
	}
	lower := strings.ToLower(r.Title)
	for keyword, bonus := range profile.bonus {
		if strings.Contains(lower, keyword) {
			n += bonus
		}
	}
	return n
}
