package random

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Shuffle performs an in-place Fisher-Yates shuffle of the slice using
// the given source. Every permutation is equally likely.
func Shuffle[T any](r *mrand.Rand, slice []T) {
	for i := len(slice) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		slice[i], slice[j] = slice[j], slice[i]
	}
}

// NewSource returns a math/rand generator seeded from crypto/rand.
func NewSource() *mrand.Rand {
	var seed int64
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(buf[:]))
	}
	return mrand.New(mrand.NewSource(seed))
}
