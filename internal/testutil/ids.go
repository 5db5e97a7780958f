package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDGenerator hands out run ids "<prefix>-0001", "<prefix>-0002", ...
//
// It stands in for store.UUIDv7Generator so archived runs and golden
// output are byte-identical between test runs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewSequenceIDGenerator creates a generator. An empty prefix becomes "run".
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	if prefix == "" {
		prefix = "run"
	}
	return &SequenceIDGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%04d", g.prefix, g.seq)
}

// Reset restarts the sequence. The next Generate returns "<prefix>-0001".
func (g *SequenceIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
