package testutil

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/roach88/liturgia/internal/program"
)

// FixedIDGenerator mints local step ids in sequence: local-1, local-2, ...
//
// Unlike program.UUIDv7Generator the output is predictable, so golden traces
// and assertions can name local steps directly.
type FixedIDGenerator struct {
	mu sync.Mutex
	n  int
}

// NewFixedIDGenerator creates a generator whose first id is local-1.
func NewFixedIDGenerator() *FixedIDGenerator {
	return &FixedIDGenerator{}
}

// NewLocalID implements program.IDGenerator.
func (g *FixedIDGenerator) NewLocalID() program.StepID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return program.StepID(program.LocalIDPrefix + strconv.Itoa(g.n))
}

// SequentialIDs returns a persisted-id generator for store.WithIDGenerator:
// prefix-0001, prefix-0002, ...
func SequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%04d", prefix, n)
	}
}
