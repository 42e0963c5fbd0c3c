package kernel

import (
	"fmt"
	"sync"
	"time"

	"github.com/Coding-Krakken/pel/pkg/canonicalize"
)

// DrawEntry records one PRNG draw taken during a Monte Carlo batch:
// which run it belonged to, the draw's position in that run's
// sequence, and the seed the run was using at the time.
type DrawEntry struct {
	RunID      string    `json:"run_id"`
	Sequence   uint64    `json:"sequence"`
	DrawIndex  uint64    `json:"draw_index"`
	Seed       string    `json:"seed"`
	RecordedAt time.Time `json:"recorded_at"`
}

// DrawAuditLog accumulates every PRNG draw made across a Monte Carlo
// batch's runs into a hash chain, so two batches run with the same
// seed can be compared for bit-for-bit draw equivalence — the
// mechanical backing for spec.md §8's Monte-Carlo reproducibility
// property, rather than trusting it on faith.
type DrawAuditLog struct {
	mu             sync.Mutex
	entries        []DrawEntry
	sequenceNumber uint64
	cumulativeHash string
}

// NewDrawAuditLog returns an empty audit log for one Monte Carlo batch.
func NewDrawAuditLog() *DrawAuditLog {
	return &DrawAuditLog{}
}

// record appends one draw and folds it into the cumulative hash.
// Errors computing the canonical hash are swallowed: a broken audit
// trail must never abort the simulation it's observing.
func (l *DrawAuditLog) record(runID string, drawIndex uint64, seed string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sequenceNumber++
	entry := DrawEntry{
		RunID:      runID,
		Sequence:   l.sequenceNumber,
		DrawIndex:  drawIndex,
		Seed:       seed,
		RecordedAt: time.Now().UTC(),
	}

	hash, err := canonicalize.CanonicalHash(map[string]interface{}{
		"run_id":        entry.RunID,
		"sequence":      entry.Sequence,
		"draw_index":    entry.DrawIndex,
		"seed":          entry.Seed,
		"previous_hash": l.cumulativeHash,
	})
	if err == nil {
		l.cumulativeHash = hash
	}

	l.entries = append(l.entries, entry)
}

// Len returns the number of draws recorded so far.
func (l *DrawAuditLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Hash returns the cumulative hash of every draw recorded so far, the
// empty string if none has been recorded yet.
func (l *DrawAuditLog) Hash() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cumulativeHash
}

// RunIDForIndex is a small helper shared by the Monte Carlo driver for
// building a stable per-run identifier from its position in the batch.
func RunIDForIndex(i int) string {
	return fmt.Sprintf("run-%d", i)
}
