// Package refcode generates short human-facing reference codes: fixed-length
// strings drawn from uppercase letters and digits. Codes are drawn repeatedly
// until one not already in use is found, so callers supply an existence check
// against their own namespace (patients and queue entries keep separate ones).
package refcode

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generator produces unique codes of a fixed length.
// The zero value is not usable; use New or NewWithRand.
type Generator struct {
	length int

	mu  sync.Mutex
	rng *rand.Rand
}

// ExistsFunc reports whether a candidate code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// New returns a Generator producing codes of the given length, seeded from
// the current time.
func New(length int) *Generator {
	return NewWithRand(length, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand returns a Generator using the provided random source. Tests use
// this to force collisions deterministically.
func NewWithRand(length int, rng *rand.Rand) *Generator {
	return &Generator{length: length, rng: rng}
}

// Next generates a unique code, retrying on collision until exists reports
// false. The retry loop is unbounded; the code space (36^length) dwarfs any
// realistic active set.
func (g *Generator) Next(ctx context.Context, exists ExistsFunc) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code := g.draw()
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
}

func (g *Generator) draw() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	b := make([]byte, g.length)
	for i := range b {
		b[i] = Alphabet[g.rng.Intn(len(Alphabet))]
	}
	return string(b)
}
