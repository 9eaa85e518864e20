package seed

import (
	"math/rand/v2"
	"strings"
	"time"
)

// Rand is the source of every synthesized value. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewRand returns a PCG-backed generator. A zero seed picks one from the clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

// randomToken returns n uppercase base-36 characters.
func randomToken(rnd Rand, n int) string {
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(base36[rnd.IntN(len(base36))])
	}
	return b.String()
}
