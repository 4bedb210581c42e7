// Package network assembles the per-request airport graph from the store,
// synthesizing and persisting connections first when the stored topology is
// too sparse to route over.
package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/alfredjeanlab/flightpath/internal/geo"
	"github.com/alfredjeanlab/flightpath/internal/graph"
	"github.com/alfredjeanlab/flightpath/internal/lock"
	"github.com/alfredjeanlab/flightpath/internal/metrics"
	"github.com/alfredjeanlab/flightpath/internal/model"
	"github.com/alfredjeanlab/flightpath/internal/store"
	"github.com/alfredjeanlab/flightpath/internal/topology"
)

// DefaultMaxNodes is the neighbourhood size used when a request does not
// give one.
const DefaultMaxNodes = 300

// DefaultRetries is how many times synthesis is attempted when a concurrent
// writer inserts a conflicting connection.
const DefaultRetries = 3

var (
	// ErrInsufficientAirports means the store holds fewer than two airports.
	// It is a configuration problem, not a property of the request.
	ErrInsufficientAirports = errors.New("not enough airports in the database")

	// ErrEndpointMissing means the origin or destination is not a known airport.
	ErrEndpointMissing = errors.New("origin or destination airport not found")
)

// SynthesisReport describes what a synthesis step wrote.
type SynthesisReport struct {
	Created     []*model.Connection         `json:"created"`
	Concurrency map[int64]model.Concurrency `json:"concurrency"`
	Attempts    int                         `json:"attempts"`
	Stats       *model.TopologyStats        `json:"stats,omitempty"`
}

// Wrote reports whether synthesis changed the store.
func (r *SynthesisReport) Wrote() bool {
	return r != nil && (len(r.Created) > 0 || len(r.Concurrency) > 0)
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLocker sets the lock held while synthesizing. Defaults to an
// in-process lock.
func WithLocker(l lock.Locker) Option {
	return func(a *Assembler) { a.locker = l }
}

// WithRand sets the randomness source for target degrees.
func WithRand(r *rand.Rand) Option {
	return func(a *Assembler) { a.synth.Rand = r }
}

// WithChoices overrides the target degrees drawn per airport.
func WithChoices(choices []int) Option {
	return func(a *Assembler) { a.synth.Choices = choices }
}

// WithRetries sets the number of synthesis attempts.
func WithRetries(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.retries = n
		}
	}
}

// WithMetrics records synthesis counters on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(a *Assembler) { a.metrics = c }
}

// Assembler builds graphs over a store.
type Assembler struct {
	store   store.Store
	locker  lock.Locker
	retries int
	metrics *metrics.Collector

	// synthMu guards synth, whose random source is not safe for concurrent use.
	synthMu sync.Mutex
	synth   *topology.Synthesizer
}

// New returns an Assembler over s.
func New(s store.Store, opts ...Option) *Assembler {
	seed := uint64(time.Now().UnixNano())
	a := &Assembler{
		store:   s,
		locker:  lock.NewLocal(),
		retries: DefaultRetries,
		synth:   topology.NewSynthesizer(rand.New(rand.NewPCG(seed, seed>>1))),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Synthesize grows the topology among ids (all airports when ids is nil)
// and persists the new connections and changed concurrency classes in one
// transaction. It holds the topology lock for the duration and retries when
// a concurrent writer created one of the same pairs.
func (a *Assembler) Synthesize(ctx context.Context, ids []int64) (*SynthesisReport, error) {
	return a.synthesize(ctx, ids, nil)
}

// needFunc reports whether the connections loaded inside the synthesis
// transaction still call for synthesis.
type needFunc func(conns []*model.Connection) bool

// synthesize runs synthesis under the topology lock. When need is non-nil it
// is evaluated against the topology read inside the transaction, and a nil
// report is returned if another writer already satisfied it.
func (a *Assembler) synthesize(ctx context.Context, ids []int64, need needFunc) (*SynthesisReport, error) {
	release, err := a.locker.Lock(ctx, lock.TopologyKey)
	if err != nil {
		return nil, fmt.Errorf("acquire topology lock: %w", err)
	}
	defer func() {
		if err := release(); err != nil {
			slog.Warn("release topology lock", "err", err)
		}
	}()

	for attempt := 1; ; attempt++ {
		report, err := a.synthesizeOnce(ctx, ids, need)
		if err == nil {
			if report == nil {
				return nil, nil
			}
			report.Attempts = attempt
			a.metrics.AddSynthesized(len(report.Created))
			return report, nil
		}
		if !errors.Is(err, store.ErrDuplicateConnection) || attempt >= a.retries {
			return nil, err
		}
		slog.Warn("synthesis conflicted with a concurrent writer, retrying", "attempt", attempt, "err", err)
		a.metrics.IncRetries()
	}
}

func (a *Assembler) synthesizeOnce(ctx context.Context, ids []int64, need needFunc) (*SynthesisReport, error) {
	report := &SynthesisReport{}
	skipped := false
	err := a.store.RunInTransaction(ctx, func(tx store.Store) error {
		var (
			airports []*model.Airport
			err      error
		)
		if ids == nil {
			airports, err = tx.ListAirports(ctx, model.AirportFilter{})
		} else {
			airports, err = tx.GetAirports(ctx, ids)
		}
		if err != nil {
			return fmt.Errorf("load airports: %w", err)
		}
		conns, err := tx.ListConnections(ctx, ids)
		if err != nil {
			return fmt.Errorf("load connections: %w", err)
		}
		if need != nil && !need(conns) {
			skipped = true
			return nil
		}

		nodes := make([]topology.Node, len(airports))
		for i, ap := range airports {
			nodes[i] = topology.Node{ID: ap.ID, Point: geo.Point{Lat: ap.Lat, Lon: ap.Lon}}
		}
		pairs := make([]model.Pair, len(conns))
		for i, c := range conns {
			pairs[i] = c.Pair()
		}

		a.synthMu.Lock()
		res := a.synth.Synthesize(nodes, pairs)
		a.synthMu.Unlock()

		created, conc := topology.Derive(res)
		for _, c := range created {
			if err := model.ValidateConnection(c); err != nil {
				return fmt.Errorf("synthesized connection %d-%d: %w", c.AirportA, c.AirportB, err)
			}
			if err := tx.CreateConnection(ctx, c); err != nil {
				return fmt.Errorf("create connection %d-%d: %w", c.AirportA, c.AirportB, err)
			}
		}
		changed := make([]int64, 0, len(conc))
		for id := range conc {
			changed = append(changed, id)
		}
		sort.Slice(changed, func(i, j int) bool { return changed[i] < changed[j] })
		for _, id := range changed {
			if err := tx.UpdateAirportConcurrency(ctx, id, conc[id]); err != nil {
				return fmt.Errorf("update concurrency of airport %d: %w", id, err)
			}
		}

		report.Created = created
		report.Concurrency = conc
		report.Stats = model.ComputeTopologyStats(airports, append(conns, created...))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if skipped {
		return nil, nil
	}
	return report, nil
}

// BuildFull builds the graph over every airport. When no connections exist
// yet the whole topology is synthesized first. Unknown endpoints are reported
// before anything is written. The report is nil when nothing was synthesized.
func (a *Assembler) BuildFull(ctx context.Context, origin, destination int64) (*graph.Graph, *SynthesisReport, error) {
	airports, err := a.store.ListAirports(ctx, model.AirportFilter{})
	if err != nil {
		return nil, nil, fmt.Errorf("load airports: %w", err)
	}
	if len(airports) < 2 {
		return nil, nil, ErrInsufficientAirports
	}
	if !hasEndpoints(airports, origin, destination) {
		return nil, nil, ErrEndpointMissing
	}
	conns, err := a.store.ListConnections(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("load connections: %w", err)
	}

	var report *SynthesisReport
	if len(conns) == 0 {
		report, err = a.synthesize(ctx, nil, func(conns []*model.Connection) bool { return len(conns) == 0 })
		if err != nil {
			return nil, nil, fmt.Errorf("synthesize topology: %w", err)
		}
		if airports, err = a.store.ListAirports(ctx, model.AirportFilter{}); err != nil {
			return nil, nil, fmt.Errorf("reload airports: %w", err)
		}
		if conns, err = a.store.ListConnections(ctx, nil); err != nil {
			return nil, nil, fmt.Errorf("reload connections: %w", err)
		}
	}
	return graph.FromModel(airports, conns), report, nil
}

func hasEndpoints(airports []*model.Airport, origin, destination int64) bool {
	var o, d bool
	for _, ap := range airports {
		o = o || ap.ID == origin
		d = d || ap.ID == destination
	}
	return o && d
}

// BuildNeighborhood builds the graph over the maxNodes airports nearest the
// origin plus the destination. Connections are synthesized within that
// subset when any of its airports is below the minimum degree. The report is
// nil when nothing was synthesized.
func (a *Assembler) BuildNeighborhood(ctx context.Context, origin, destination int64, maxNodes int) (*graph.Graph, *SynthesisReport, error) {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	airports, err := a.store.ListAirports(ctx, model.AirportFilter{})
	if err != nil {
		return nil, nil, fmt.Errorf("load airports: %w", err)
	}
	if len(airports) < 2 {
		return nil, nil, ErrInsufficientAirports
	}

	ids, err := Neighborhood(airports, origin, destination, maxNodes)
	if err != nil {
		return nil, nil, err
	}
	conns, err := a.store.ListConnections(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load connections: %w", err)
	}

	var report *SynthesisReport
	if underConnected(ids, conns) {
		report, err = a.synthesize(ctx, ids, func(conns []*model.Connection) bool {
			return underConnected(ids, conns)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("synthesize topology: %w", err)
		}
		if conns, err = a.store.ListConnections(ctx, ids); err != nil {
			return nil, nil, fmt.Errorf("reload connections: %w", err)
		}
	}

	subset, err := a.store.GetAirports(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load subset airports: %w", err)
	}
	return graph.FromModel(subset, conns), report, nil
}

// Neighborhood returns, in ascending ID order, the maxNodes airports nearest
// origin (ties broken by ID) plus destination.
func Neighborhood(airports []*model.Airport, origin, destination int64, maxNodes int) ([]int64, error) {
	if !hasEndpoints(airports, origin, destination) {
		return nil, ErrEndpointMissing
	}
	var o *model.Airport
	for _, ap := range airports {
		if ap.ID == origin {
			o = ap
		}
	}

	type ranked struct {
		id   int64
		dist float64
	}
	from := geo.Point{Lat: o.Lat, Lon: o.Lon}
	all := make([]ranked, len(airports))
	for i, ap := range airports {
		all[i] = ranked{id: ap.ID, dist: geo.Haversine(from, geo.Point{Lat: ap.Lat, Lon: ap.Lon})}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].dist != all[j].dist {
			return all[i].dist < all[j].dist
		}
		return all[i].id < all[j].id
	})

	if maxNodes > len(all) {
		maxNodes = len(all)
	}
	ids := make([]int64, 0, maxNodes+1)
	hasDest := false
	for _, r := range all[:maxNodes] {
		ids = append(ids, r.id)
		if r.id == destination {
			hasDest = true
		}
	}
	if !hasDest {
		ids = append(ids, destination)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// underConnected reports whether any airport in ids has fewer connections
// inside the subset than the smallest synthesis target allows.
func underConnected(ids []int64, conns []*model.Connection) bool {
	if len(ids) < 2 {
		return false
	}
	minDegree := min(topology.DefaultChoices[0], len(ids)-1)
	degree := make(map[int64]int, len(ids))
	for _, c := range conns {
		degree[c.AirportA]++
		degree[c.AirportB]++
	}
	for _, id := range ids {
		if degree[id] < minDegree {
			return true
		}
	}
	return false
}
