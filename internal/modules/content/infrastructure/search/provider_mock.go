package search

import "context"

// MockProvider 测试与未配置检索服务时的替身
type MockProvider struct {
	Results []RawResult
	Err     error

	// Queries 记录收到的查询串，便于测试断言
	Queries []string
}

func NewMockProvider(results []RawResult) *MockProvider {
	return &MockProvider{Results: results}
}

func (m *MockProvider) Search(_ context.Context, query string, limit int) ([]RawResult, error) {
	m.Queries = append(m.Queries, query)
	if m.Err != nil {
		return nil, m.Err
	}
	if limit > 0 && len(m.Results) > limit {
		return m.Results[:limit], nil
	}
	return m.Results, nil
}
