package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator returns order reference ids "<prefix>-0001",
// "<prefix>-0002", ... so golden output does not depend on UUID randomness.
//
// If prefix is empty, "ref" is used.
//
// Thread-safety: SequenceGenerator is safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator whose first id ends in 0001.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "ref"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next reference id.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// FixedGenerator returns predetermined reference ids in order.
//
// Panics if all ids have been consumed. This is a fail-fast approach
// to catch a test that creates more orders than it declared.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
