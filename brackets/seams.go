package brackets

import (
	"math/rand"
	"sort"
)

// nextPowerOfTwo returns the smallest power of two that is >= n (1 for n <= 1).
func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// seamLevels splits the first-round match numbers 1..matches into nested seam
// groups, outermost first: {1, M}, then the pair around the middle, then the
// pairs around the middle of each half, and so on. Every match number appears
// in exactly one level.
func seamLevels(matches int) [][]int {
	if matches < 1 {
		return nil
	}
	if matches == 1 {
		return [][]int{{1}}
	}
	levels := [][]int{{1, matches}}
	for span := matches; span > 2; span /= 2 {
		level := make([]int, 0, 2*matches/span)
		for start := 1; start <= matches; start += span {
			mid := start + span/2
			level = append(level, mid-1, mid)
		}
		levels = append(levels, level)
	}
	return levels
}

// byeMatches picks the first-round matches that receive a bye. Whole seam
// levels are consumed in order; a level larger than the remaining budget gives
// a random subset, returned in ascending order.
func byeMatches(matches, byes int, rng *rand.Rand) []int {
	out := make([]int, 0, byes)
	for _, level := range seamLevels(matches) {
		remaining := byes - len(out)
		if remaining <= 0 {
			break
		}
		if remaining >= len(level) {
			out = append(out, level...)
			continue
		}
		picked := make([]int, 0, remaining)
		for _, i := range rng.Perm(len(level))[:remaining] {
			picked = append(picked, level[i])
		}
		sort.Ints(picked)
		out = append(out, picked...)
	}
	return out
}
