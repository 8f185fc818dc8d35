package order

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
)

const (
	idPrefix = "RR"
	// Suffixes are drawn from [1000, 9999], matching the historical
	// human-readable reference format.
	suffixMin = 1000
	suffixMax = 9999
	// maxDraws bounds the regenerate loop before falling back to a
	// collision-resistant suffix.
	maxDraws = 16

	filterCapacity = 1_000_000
	filterFPR      = 0.001
)

// IDGenerator produces human-readable order references of the form RR-4821
// or, with year salting, RR-2026-4821. The draw space is small, so a Bloom
// filter seeded from already-issued ids drives check-and-regenerate; once
// the space looks exhausted the generator falls back to a UUID suffix
// rather than loop forever. Bloom false positives only cause an extra
// redraw, never a duplicate id.
type IDGenerator struct {
	yearSalt bool
	now      func() time.Time

	mu     sync.Mutex
	issued *bloom.BloomFilter
}

// NewIDGenerator creates a generator. With yearSalt set, ids carry the
// current year between prefix and suffix.
func NewIDGenerator(yearSalt bool) *IDGenerator {
	return &IDGenerator{
		yearSalt: yearSalt,
		now:      time.Now,
		issued:   bloom.NewWithEstimates(filterCapacity, filterFPR),
	}
}

// Seed marks already-persisted order ids as issued. Call once at startup
// with the ids from the order store.
func (g *IDGenerator) Seed(ids []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		g.issued.AddString(id)
	}
}

// Next returns a fresh order id not previously seen by this generator.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	for range maxDraws {
		id := g.format(rand.IntN(suffixMax-suffixMin+1) + suffixMin)
		if g.issued.TestString(id) {
			continue
		}
		g.issued.AddString(id)
		return id
	}

	// Draw space saturated: widen to a UUID-derived suffix.
	id := fmt.Sprintf("%s-%s", idPrefix, strings.ToUpper(uuid.NewString()[:8]))
	g.issued.AddString(id)
	return id
}

func (g *IDGenerator) format(suffix int) string {
	if g.yearSalt {
		return fmt.Sprintf("%s-%d-%04d", idPrefix, g.now().Year(), suffix)
	}
	return fmt.Sprintf("%s-%04d", idPrefix, suffix)
}
