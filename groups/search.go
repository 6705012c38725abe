package groups

// search runs the randomized repair of the last batch at position pos. Each
// round either moves a last-batch entrant into a group whose last slot is
// still empty or swaps two last-batch entrants; a move that raises the score
// is reverted. Earlier batches are never touched.
func (d *drawer) search(pos int) {
	for it := 0; it < d.opts.SearchIterations && d.score > 0; it++ {
		var occupied, empty []int
		for gi := range d.groups {
			if d.groups[gi][pos].IsEntrant() {
				occupied = append(occupied, gi)
			} else {
				empty = append(empty, gi)
			}
		}

		canMove := len(occupied) > 0 && len(empty) > 0
		canSwap := len(occupied) > 1
		if !canMove && !canSwap {
			return
		}

		// A move needs an empty last slot; without one the round swaps.
		var g1, g2 int
		if canMove && (!canSwap || d.rng.Intn(2) == 0) {
			g1 = occupied[d.rng.Intn(len(occupied))]
			g2 = empty[d.rng.Intn(len(empty))]
		} else {
			i := d.rng.Intn(len(occupied))
			j := d.rng.Intn(len(occupied) - 1)
			if j >= i {
				j++
			}
			g1, g2 = occupied[i], occupied[j]
		}

		before := d.score
		d.swap(g1+1, g2+1, pos, ActionSwap)
		if d.score > before {
			d.swap(g1+1, g2+1, pos, ActionRevert)
		}
	}
}
