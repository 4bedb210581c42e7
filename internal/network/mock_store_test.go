package network

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/alfredjeanlab/flightpath/internal/model"
	"github.com/alfredjeanlab/flightpath/internal/store"
)

// mockStore is a minimal in-memory store for assembler tests.
type mockStore struct {
	mu       sync.Mutex
	airports map[int64]*model.Airport
	conns    map[model.Pair]*model.Connection
	nextID   int64

	// failCreates makes the next n CreateConnection calls report a duplicate.
	failCreates int
	txCount     int
}

func newMockStore(airports ...*model.Airport) *mockStore {
	m := &mockStore{
		airports: make(map[int64]*model.Airport),
		conns:    make(map[model.Pair]*model.Connection),
	}
	for _, a := range airports {
		if a.Concurrency == 0 {
			a.Concurrency = model.ConcurrencyLow
		}
		m.airports[a.ID] = a
	}
	return m
}

func (m *mockStore) addConnection(a, b int64, dist, factor float64) {
	c := &model.Connection{AirportA: a, AirportB: b, DistanceKM: dist, CongestionFactor: factor, Cost: dist * 5 * factor}
	c.Normalize()
	m.nextID++
	c.ID = m.nextID
	m.conns[c.Pair()] = c
}

func (m *mockStore) degree(id int64) int {
	n := 0
	for p := range m.conns {
		if p.A == id || p.B == id {
			n++
		}
	}
	return n
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
	// Mirrors the CHECK constraints on the connections table.
	if err := model.ValidateConnection(c); err != nil {
		return err
	}
	if m.failCreates > 0 {
		m.failCreates--
		return fmt.Errorf("%w: %d-%d", store.ErrDuplicateConnection, c.AirportA, c.AirportB)
	}
	if _, ok := m.conns[c.Pair()]; ok {
		return fmt.Errorf("%w: %d-%d", store.ErrDuplicateConnection, c.AirportA, c.AirportB)
	}
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.conns[c.Pair()] = &cp
	return nil
}

func (m *mockStore) CreateRoute(context.Context, *model.Route) error { return nil }

func (m *mockStore) GetRoute(context.Context, string) (*model.Route, error) {
	return nil, sql.ErrNoRows
}

func (m *mockStore) ListRoutes(context.Context, model.RouteFilter) ([]*model.Route, error) {
	return nil, nil
}

func (m *mockStore) DeleteRoute(context.Context, string, string) error { return sql.ErrNoRows }

// RunInTransaction snapshots connections and concurrency so a failed
// transaction leaves the store unchanged.
func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	m.mu.Lock()
	m.txCount++
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
