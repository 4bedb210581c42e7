// Package lock serialises topology writers, either within one process or
// across processes sharing a Redis instance.
package lock

import (
	"context"
	"sync"
)

// TopologyKey is the key held while connections are synthesized.
const TopologyKey = "flightpath:lock:topology"

// Locker acquires named locks. The returned release function must be called
// exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func() error, err error)
}

// Local is an in-process Locker keyed by name. The zero value is ready to use.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocal returns an in-process Locker.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.slots == nil {
		l.slots = make(map[string]chan struct{})
	}
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// Lock blocks until key is free or ctx is done.
func (l *Local) Lock(ctx context.Context, key string) (func() error, error) {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() error {
		once.Do(func() { <-ch })
		return nil
	}, nil
}
