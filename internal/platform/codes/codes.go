// Package codes issues the short human-readable identifiers used throughout
// the registry: patient ids like P-1042, prescription ids like RX-3301,
// session ids like S-88412 and insurance ids like INS-882210. Uniqueness is
// the only hard guarantee; the digits are random, not sequential.
package codes

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Well-known prefixes.
const (
	PrefixPatient      = "P"
	PrefixPrescription = "RX"
	PrefixSession      = "S"
	PrefixInsurance    = "INS"
)

// Generator issues prefixed codes and remembers every code it has handed out
// or been told about, so a code is never issued twice within one process.
type Generator struct {
	mu   sync.Mutex
	rand *rand.Rand
	used map[string]struct{}
}

// NewGenerator returns a Generator seeded from the wall clock.
func NewGenerator() *Generator {
	return NewSeededGenerator(time.Now().UnixNano())
}

// NewSeededGenerator returns a Generator with a fixed seed, for reproducible
// demo datasets and tests.
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{
		rand: rand.New(rand.NewSource(seed)),
		used: make(map[string]struct{}),
	}
}

// Next returns a fresh code of the form "<prefix>-<n>" where n has exactly
// the given number of digits. It retries on collision with previously issued
// or reserved codes.
func (g *Generator) Next(prefix string, digits int) string {
	if digits < 1 {
		digits = 4
	}
	low := 1
	for i := 1; i < digits; i++ {
		low *= 10
	}
	span := low*10 - low

	g.mu.Lock()
	defer g.mu.Unlock()
	for {
		code := fmt.Sprintf("%s-%d", prefix, low+g.rand.Intn(span))
		if _, taken := g.used[code]; !taken {
			g.used[code] = struct{}{}
			return code
		}
	}
}

// Reserve marks an externally assigned code (for example a seeded demo
// record) as taken. It returns false if the code was already known.
func (g *Generator) Reserve(code string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, taken := g.used[code]; taken {
		return false
	}
	g.used[code] = struct{}{}
	return true
}
