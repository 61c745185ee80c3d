package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/storefront/internal/store"
)

// FaultyBackend wraps a store.Backend and fails chosen operations.
//
// It deliberately exposes only the store.Backend methods, so a wrapped
// transactional backend is seen as non-transactional. Tests use it to drive
// cascades into their partial-failure path.
type FaultyBackend struct {
	inner store.Backend

	mu     sync.Mutex
	faults map[string]error
	hooks  map[string]func()
	calls  []string
}

// NewFaultyBackend wraps inner with no faults installed.
func NewFaultyBackend(inner store.Backend) *FaultyBackend {
	return &FaultyBackend{inner: inner, faults: make(map[string]error), hooks: make(map[string]func())}
}

// FailOn makes every op ("select", "insert", "update", "delete") on table
// return err.
func (f *FaultyBackend) FailOn(op, table string, err error) *FaultyBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[op+" "+table] = err
	return f
}

// OnCall runs fn before every op on table reaches the wrapped backend.
// fn may use the wrapped backend directly.
func (f *FaultyBackend) OnCall(op, table string, fn func()) *FaultyBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks[op+" "+table] = fn
	return f
}

// Calls returns the operations attempted so far, as "op table".
func (f *FaultyBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FaultyBackend) record(op string, t store.Table) error {
	call := op + " " + t.Name
	f.mu.Lock()
	f.calls = append(f.calls, call)
	err, failing := f.faults[call]
	hook := f.hooks[call]
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if failing {
		return fmt.Errorf("injected fault on %s: %w", call, err)
	}
	return nil
}

func (f *FaultyBackend) Select(ctx context.Context, t store.Table, filters ...store.Filter) ([]store.Record, error) {
	if err := f.record("select", t); err != nil {
		return nil, err
	}
	return f.inner.Select(ctx, t, filters...)
}

func (f *FaultyBackend) Insert(ctx context.Context, t store.Table, rec store.Record) error {
	if err := f.record("insert", t); err != nil {
		return err
	}
	return f.inner.Insert(ctx, t, rec)
}

func (f *FaultyBackend) Update(ctx context.Context, t store.Table, set store.Record, filters ...store.Filter) (int64, error) {
	if err := f.record("update", t); err != nil {
		return 0, err
	}
	return f.inner.Update(ctx, t, set, filters...)
}

func (f *FaultyBackend) Delete(ctx context.Context, t store.Table, filters ...store.Filter) (int64, error) {
	if err := f.record("delete", t); err != nil {
		return 0, err
	}
	return f.inner.Delete(ctx, t, filters...)
}
