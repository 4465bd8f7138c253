package usecases_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/midzapp/midz/internal/core/domain"
)

// --- Mock Geocoder ---

type mockGeocoder struct {
	forwardFn func(ctx context.Context, address string) ([]domain.GeoPoint, error)
	reverseFn func(ctx context.Context, p domain.GeoPoint) (string, error)

	forwardCalls atomic.Int32
	reverseCalls atomic.Int32
}

func (m *mockGeocoder) Forward(ctx context.Context, address string) ([]domain.GeoPoint, error) {
	m.forwardCalls.Add(1)
	if m.forwardFn != nil {
		return m.forwardFn(ctx, address)
	}
	return nil, nil
}

func (m *mockGeocoder) Reverse(ctx context.Context, p domain.GeoPoint) (string, error) {
	m.reverseCalls.Add(1)
	if m.reverseFn != nil {
		return m.reverseFn(ctx, p)
	}
	return "", nil
}

// addressBook geocodes from a fixed table; unknown addresses have no match.
func addressBook(book map[string]domain.GeoPoint) func(ctx context.Context, address string) ([]domain.GeoPoint, error) {
	return func(ctx context.Context, address string) ([]domain.GeoPoint, error) {
		if p, ok := book[address]; ok {
			return []domain.GeoPoint{p}, nil
		}
		return nil, nil
	}
}

func everywhereIs(locality string) func(ctx context.Context, p domain.GeoPoint) (string, error) {
	return func(ctx context.Context, p domain.GeoPoint) (string, error) {
		return locality, nil
	}
}

// concurrencyGauge records the peak number of overlapping calls.
type concurrencyGauge struct {
	cur  atomic.Int32
	peak atomic.Int32
}

func (g *concurrencyGauge) enter() {
	n := g.cur.Add(1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (g *concurrencyGauge) leave() { g.cur.Add(-1) }

// slowEverywhere answers every address with point after delay, through gauge.
func slowEverywhere(gauge *concurrencyGauge, delay time.Duration, point domain.GeoPoint) func(ctx context.Context, address string) ([]domain.GeoPoint, error) {
	return func(ctx context.Context, address string) ([]domain.GeoPoint, error) {
		gauge.enter()
		defer gauge.leave()
		time.Sleep(delay)
		return []domain.GeoPoint{point}, nil
	}
}

// --- Mock VenueSearcher ---

type searchCall struct {
	query  string
	center domain.GeoPoint
	radius float64
}

type mockSearcher struct {
	searchFn func(ctx context.Context, query string, center domain.GeoPoint, radius float64) ([]domain.VenueCandidate, error)

	mu    sync.Mutex
	calls []searchCall
}

func (m *mockSearcher) Search(ctx context.Context, query string, center domain.GeoPoint, radius float64) ([]domain.VenueCandidate, error) {
	m.mu.Lock()
	m.calls = append(m.calls, searchCall{query: query, center: center, radius: radius})
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, query, center, radius)
	}
	return nil, nil
}

func (m *mockSearcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// --- Mock UserDirectory ---

type mockUsers struct {
	users map[string]domain.User
}

func (m *mockUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (m *mockUsers) GetByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	var out []domain.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// --- Mock BoardStore ---

type mockBoards struct {
	listFn func(ctx context.Context, ownerID string) ([]domain.Board, error)
}

func (m *mockBoards) ListByOwner(ctx context.Context, ownerID string) ([]domain.Board, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID)
	}
	return nil, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	completed []*domain.PlanResult
	failed    []string
}

func (m *mockPublisher) PublishPlanCompleted(ctx context.Context, r *domain.PlanResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, r)
	return nil
}

func (m *mockPublisher) PublishPlanFailed(ctx context.Context, sessionID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, reason)
	return nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("valkey nil message")
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
