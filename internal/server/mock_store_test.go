package server

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/alfredjeanlab/flightpath/internal/model"
	"github.com/alfredjeanlab/flightpath/internal/store"
)

// mockStore is an in-memory store for handler tests.
type mockStore struct {
	mu       sync.Mutex
	airports map[int64]*model.Airport
	conns    map[model.Pair]*model.Connection
	nextID   int64

	routes map[string]*model.Route

	// createRouteErr is returned by CreateRoute when set.
	createRouteErr error
}

func newMockStore(airports ...*model.Airport) *mockStore {
	m := &mockStore{
		airports: make(map[int64]*model.Airport),
		conns:    make(map[model.Pair]*model.Connection),
		routes:   make(map[string]*model.Route),
	}
	for _, a := range airports {
		if a.Concurrency == 0 {
			a.Concurrency = model.ConcurrencyLow
		}
		m.airports[a.ID] = a
	}
	return m
}

func (m *mockStore) addConnection(a, b int64, dist, cost float64) {
	c := &model.Connection{AirportA: a, AirportB: b, DistanceKM: dist, CongestionFactor: 1.0, Cost: cost}
	c.Normalize()
	m.nextID++
	c.ID = m.nextID
	m.conns[c.Pair()] = c
}

func (m *mockStore) ListAirports(_ context.Context, _ model.AirportFilter) ([]*model.Airport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Airport
	for _, a := range m.airports {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) GetAirport(_ context.Context, id int64) (*model.Airport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.airports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockStore) GetAirports(ctx context.Context, ids []int64) ([]*model.Airport, error) {
	all, _ := m.ListAirports(ctx, model.AirportFilter{})
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*model.Airport
	for _, a := range all {
		if want[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) UpsertAirport(_ context.Context, a *model.Airport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.airports[a.ID] = &cp
	return nil
}

func (m *mockStore) UpdateAirportConcurrency(_ context.Context, id int64, c model.Concurrency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.airports[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.Concurrency = c
	return nil
}

func (m *mockStore) ListConnections(_ context.Context, ids []int64) ([]*model.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in := make(map[int64]bool, len(ids))
	for _, id := range ids {
		in[id] = true
	}
	var out []*model.Connection
	for _, c := range m.conns {
		if ids != nil && (!in[c.AirportA] || !in[c.AirportB]) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AirportA != out[j].AirportA {
			return out[i].AirportA < out[j].AirportA
		}
		return out[i].AirportB < out[j].AirportB
	})
	return out, nil
}

func (m *mockStore) CreateConnection(_ context.Context, c *model.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.Normalize()
	if _, ok := m.conns[c.Pair()]; ok {
		return fmt.Errorf("%w: %d-%d", store.ErrDuplicateConnection, c.AirportA, c.AirportB)
	}
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.conns[c.Pair()] = &cp
	return nil
}

func (m *mockStore) CreateRoute(_ context.Context, r *model.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createRouteErr != nil {
		return m.createRouteErr
	}
	cp := *r
	cp.Stops = append([]int64(nil), r.Stops...)
	m.routes[r.ID] = &cp
	return nil
}

func (m *mockStore) GetRoute(_ context.Context, id string) (*model.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (m *mockStore) ListRoutes(_ context.Context, f model.RouteFilter) ([]*model.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Route{}
	for _, r := range m.routes {
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *mockStore) DeleteRoute(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[id]
	if !ok || r.UserID != userID {
		return sql.ErrNoRows
	}
	delete(m.routes, id)
	return nil
}

// RunInTransaction snapshots connections and concurrency so a failed
// transaction leaves the store unchanged.
func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	m.mu.Lock()
	conns := make(map[model.Pair]*model.Connection, len(m.conns))
	for k, v := range m.conns {
		conns[k] = v
	}
	conc := make(map[int64]model.Concurrency, len(m.airports))
	for id, a := range m.airports {
		conc[id] = a.Concurrency
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.conns = conns
		for id, c := range conc {
			m.airports[id].Concurrency = c
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *mockStore) Close() error { return nil }
