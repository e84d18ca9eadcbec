package game

import (
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

// deriveRand builds a generator from seed mixed with salts. The same inputs
// always produce the same sequence.
func deriveRand(seed int64, salts ...int64) *rand.Rand {
	mix := seed
	for _, s := range salts {
		mix ^= s
	}
	return rand.New(rand.NewSource(mix))
}

// salt hashes a stable identifier into a seed component.
func salt(s string) int64 {
	return int64(xxhash.Sum64String(s))
}

// Salt is salt for callers outside the engine, such as status effects
// that need a generator specific to a card or an actor.
func Salt(s string) int64 { return salt(s) }

// ShuffleSeed is the seed a player's deck is shuffled with when joining.
func ShuffleSeed(seed int64, pid PlayerID) int64 {
	return seed ^ salt(string(pid))
}

func shuffleIDs(r *rand.Rand, ids []CardInstID) {
	r.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
}
