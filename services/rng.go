package services

import (
	"hash/fnv"
	"math/rand"
	"time"
)

// deriveSeed mixes a run seed and a stream id into an independent seed
// (SplitMix64 finalizer).
func deriveSeed(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}

// classRand returns the random stream of one competition class. It depends
// only on the run seed and the class key, so classes may be drawn in any order.
func classRand(seed int64, classKey string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(classKey))
	return rand.New(rand.NewSource(deriveSeed(seed, h.Sum64())))
}

// resolveSeed picks the request seed, then the configured one, then a fresh
// time based seed. The second result reports whether the seed was generated.
func resolveSeed(request, configured *int64, now time.Time) (int64, bool) {
	switch {
	case request != nil:
		return *request, false
	case configured != nil:
		return *configured, false
	default:
		return now.UnixNano(), true
	}
}
