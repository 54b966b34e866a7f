package aigateway

import (
	"context"
	"errors"
	"sync"
)

// MaxRecordedCalls bounds each recorded-call slice; older requests are dropped first.
const MaxRecordedCalls = 256

// ErrMockExhausted is returned when no scripted result is queued and no responder is set.
var ErrMockExhausted = errors.New("mock gateway: no scripted result")

// Mock is a scripted Gateway for tests. Queued results are consumed FIFO per operation; a
// responder func, when set, takes precedence. Forced errors apply to every call of that kind.
type Mock struct {
	mu sync.Mutex

	paths    []*LearningPathResponse
	insights [][]InsightDetail
	reviews  []*ReviewResponse

	PathResponder     func(req LearningPathRequest) (*LearningPathResponse, error)
	InsightsResponder func(req InsightsRequest) ([]InsightDetail, error)
	ReviewResponder   func(req ReviewRequest) (*ReviewResponse, error)

	FailLearningPath error
	FailInsights     error
	FailReview       error

	PathCalls     []LearningPathRequest
	InsightsCalls []InsightsRequest
	ReviewCalls   []ReviewRequest
}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Name() string { return "mock" }

func (m *Mock) QueueLearningPath(topics ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, &LearningPathResponse{Topics: topics})
}

func (m *Mock) QueueInsights(insights []InsightDetail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insights = append(m.insights, insights)
}

func (m *Mock) QueueReview(resp *ReviewResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews = append(m.reviews, resp)
}

func (m *Mock) GenerateLearningPath(ctx context.Context, req LearningPathRequest) (*LearningPathResponse, error) {
	m.mu.Lock()
	m.PathCalls = keepRecent(m.PathCalls, req)
	if m.FailLearningPath != nil {
		err := m.FailLearningPath
		m.mu.Unlock()
		return nil, err
	}
	if r := m.PathResponder; r != nil {
		m.mu.Unlock()
		return r(req)
	}
	defer m.mu.Unlock()
	if len(m.paths) == 0 {
		return nil, ErrMockExhausted
	}
	out := *m.paths[0]
	m.paths = m.paths[1:]
	out.DomainName = req.DomainName
	return &out, nil
}

func (m *Mock) GenerateInsights(ctx context.Context, req InsightsRequest) ([]InsightDetail, error) {
	m.mu.Lock()
	m.InsightsCalls = keepRecent(m.InsightsCalls, req)
	if m.FailInsights != nil {
		err := m.FailInsights
		m.mu.Unlock()
		return nil, err
	}
	if r := m.InsightsResponder; r != nil {
		m.mu.Unlock()
		return r(req)
	}
	defer m.mu.Unlock()
	if len(m.insights) == 0 {
		return nil, ErrMockExhausted
	}
	out := m.insights[0]
	m.insights = m.insights[1:]
	return out, nil
}

func (m *Mock) GenerateReview(ctx context.Context, req ReviewRequest) (*ReviewResponse, error) {
	m.mu.Lock()
	m.ReviewCalls = keepRecent(m.ReviewCalls, req)
	if m.FailReview != nil {
		err := m.FailReview
		m.mu.Unlock()
		return nil, err
	}
	if r := m.ReviewResponder; r != nil {
		m.mu.Unlock()
		return r(req)
	}
	defer m.mu.Unlock()
	if len(m.reviews) == 0 {
		return nil, ErrMockExhausted
	}
	out := m.reviews[0]
	m.reviews = m.reviews[1:]
	return out, nil
}

// InsightsCallCount is safe to call concurrently with the gateway methods.
func (m *Mock) InsightsCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.InsightsCalls)
}

func keepRecent[T any](calls []T, req T) []T {
	calls = append(calls, req)
	if over := len(calls) - MaxRecordedCalls; over > 0 {
		calls = append(calls[:0:0], calls[over:]...)
	}
	return calls
}
