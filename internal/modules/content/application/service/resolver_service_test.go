package service

import (
	"context"
	"errors"
	"testing"

	"PulseLink/internal/modules/content/infrastructure/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTopFiltersAndRanks(t *testing.T) {
	provider := search.NewMockProvider([]search.RawResult{
		{URL: "u1", Title: "Hades walkthrough part 3", Source: "tube", Width: 400, Height: 400},
		{URL: "u2", Title: "Hades gaming reaction", Source: "tube", Width: 400, Height: 400},
		{URL: "u3", Title: "Hades", Source: "", Width: 50, Height: 300},
	})
	resolver := NewResolverService(provider, 5)

	candidates, err := resolver.ResolveTop(context.Background(), "GAME", "Hades", 5)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	// 排除关键词命中的结果不得出现
	for _, c := range candidates {
		assert.NotContains(t, c.Title, "walkthrough")
	}

	// 标题+来源+尺寸+近方形+gaming(2)+reaction(1) 应排第一
	assert.Equal(t, "u2", candidates[0].URL)
	assert.Greater(t, candidates[0].RelevanceScore, candidates[1].RelevanceScore)
}

func TestResolveQueryCarriesBoostAndExcludeTerms(t *testing.T) {
	provider := search.NewMockProvider(nil)
	resolver := NewResolverService(provider, 5)

	_, err := resolver.Resolve(context.Background(), "GAME", "Hades")
	require.NoError(t, err)

	require.Len(t, provider.Queries, 1)
	query := provider.Queries[0]
	assert.Contains(t, query, "Hades")
	assert.Contains(t, query, "+gaming")
	assert.Contains(t, query, "-walkthrough")
}

func TestResolveProviderOutageYieldsNoCandidate(t *testing.T) {
	provider := search.NewMockProvider(nil)
	provider.Err = errors.New("search service down")
	resolver := NewResolverService(provider, 5)

	candidate, err := resolver.Resolve(context.Background(), "GAME", "Hades")
	assert.NoError(t, err)
	assert.Nil(t, candidate)
}

func TestResolveEmptyTriggerValue(t *testing.T) {
	provider := search.NewMockProvider([]search.RawResult{{URL: "u1", Title: "x"}})
	resolver := NewResolverService(provider, 5)

	candidate, err := resolver.Resolve(context.Background(), "GAME", "")
	assert.NoError(t, err)
	assert.Nil(t, candidate)
	assert.Empty(t, provider.Queries)
}

func TestResolveTopTruncatesToCount(t *testing.T) {
	results := make([]search.RawResult, 10)
	for i := range results {
		results[i] = search.RawResult{URL: "u", Title: "Queen concert", Source: "tube"}
	}
	resolver := NewResolverService(search.NewMockProvider(results), 8)

	candidates, err := resolver.ResolveTop(context.Background(), "MUSIC", "Queen", 3)
	require.NoError(t, err)
	assert.Len(t, candidates, 3)
}

func TestResolveUnknownTypeUsesBareQuery(t *testing.T) {
	provider := search.NewMockProvider([]search.RawResult{{URL: "u1", Title: "anything", Source: "tube"}})
	resolver := NewResolverService(provider, 5)

	candidate, err := resolver.Resolve(context.Background(), "UNKNOWN", "whatever")
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "whatever", provider.Queries[0])
}
