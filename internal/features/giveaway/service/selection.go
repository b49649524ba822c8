package service

import (
	mrand "math/rand"

	"brainrot-market-backend/internal/utils/random"
)

// SelectWinners draws min(count, len(participants)) winners uniformly at
// random, without duplicates. The input slice is not modified. Deterministic
// for a seeded source.
func SelectWinners(rng *mrand.Rand, participants []string, count int) []string {
	if len(participants) == 0 || count < 1 {
		return []string{}
	}

	pool := append([]string(nil), participants...)
	random.Shuffle(rng, pool)

	if count > len(pool) {
		count = len(pool)
	}
	return pool[:count]
}
