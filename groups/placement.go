package groups

import (
	"log/slog"
	"sort"

	"github.com/Dosada05/tournament-draw/models"
)

// countryKey is the sorted country pair of an entrant; singles leave one side empty.
func (d *drawer) countryKey(e *models.Entrant) [2]string {
	a, b := e.Members(d.reg)
	var k [2]string
	if a != nil {
		k[0] = a.Country
	}
	if b != nil {
		k[1] = b.Country
	}
	if k[0] > k[1] {
		k[0], k[1] = k[1], k[0]
	}
	return k
}

func (d *drawer) countries(e *models.Entrant) []string {
	a, b := e.Members(d.reg)
	out := make([]string, 0, 2)
	if a != nil {
		out = append(out, a.Country)
	}
	if b != nil && (a == nil || b.Country != a.Country) {
		out = append(out, b.Country)
	}
	return out
}

func (d *drawer) bases(e *models.Entrant) []string {
	a, b := e.Members(d.reg)
	out := make([]string, 0, 2)
	if a.HasBase() {
		out = append(out, a.Base)
	}
	if b.HasBase() && (!a.HasBase() || b.Base != a.Base) {
		out = append(out, b.Base)
	}
	return out
}

// countryConflict reports whether group gi already holds an entrant with the
// same country, or for teams the same pair of countries, as e.
func (d *drawer) countryConflict(gi int, e *models.Entrant) bool {
	key := d.countryKey(e)
	for _, s := range d.groups[gi] {
		if s.IsEntrant() && d.countryKey(s.Entrant) == key {
			return true
		}
	}
	return false
}

func (d *drawer) baseConflict(gi int, e *models.Entrant) bool {
	bases := d.bases(e)
	if len(bases) == 0 {
		return false
	}
	for _, s := range d.groups[gi] {
		if !s.IsEntrant() {
			continue
		}
		for _, ob := range d.bases(s.Entrant) {
			for _, b := range bases {
				if b == ob {
					return true
				}
			}
		}
	}
	return false
}

// sameCountry counts the players in group gi sharing a country with e.
func (d *drawer) sameCountry(gi int, e *models.Entrant) int {
	mine := d.countries(e)
	n := 0
	for _, s := range d.groups[gi] {
		if !s.IsEntrant() {
			continue
		}
		a, b := s.Entrant.Members(d.reg)
		for _, p := range []*models.Player{a, b} {
			if p == nil {
				continue
			}
			for _, c := range mine {
				if p.Country == c {
					n++
				}
			}
		}
	}
	return n
}

func (d *drawer) freeGroups(pos int) []int {
	free := make([]int, 0, d.numGroups)
	for gi := range d.groups {
		if d.groups[gi][pos].IsEmpty() {
			free = append(free, gi)
		}
	}
	return free
}

// backtrack places the batch at position pos, one entrant per group, so that
// no group receives a country it already holds. It tries at most
// BacktrackLimit placements and leaves the partition untouched on failure.
func (d *drawer) backtrack(batch []*models.Entrant, pos int) bool {
	budget := d.opts.BacktrackLimit
	var solve func(i int) bool
	solve = func(i int) bool {
		if i == len(batch) {
			return true
		}
		e := batch[i]
		for _, gi := range d.rng.Perm(d.numGroups) {
			if !d.groups[gi][pos].IsEmpty() || d.countryConflict(gi, e) {
				continue
			}
			if budget == 0 {
				return false
			}
			budget--
			d.add(gi+1, pos, e, MethodBacktrack, i == len(batch)-1)
			if solve(i + 1) {
				return true
			}
			d.remove(gi+1, pos, MethodBacktrack)
		}
		return false
	}
	return solve(0)
}

// fallback places the batch greedily. Entrants whose countries are most
// frequent in the batch, then closest to filling another round of groups, go
// first; each takes the free group without a base conflict that holds the
// fewest players of its countries.
func (d *drawer) fallback(batch []*models.Entrant, pos int) {
	for i, e := range d.fallbackOrder(batch) {
		free := d.freeGroups(pos)
		candidates := make([]int, 0, len(free))
		for _, gi := range free {
			if !d.baseConflict(gi, e) {
				candidates = append(candidates, gi)
			}
		}

		batchEnd := i == len(batch)-1
		if len(candidates) == 0 {
			target := free[d.rng.Intn(len(free))]
			d.logger.Debug("no group without base conflict, placing at random",
				slog.String("entrant", e.Key()), slog.Int("group", target+1))
			d.add(target+1, pos, e, MethodRandom, batchEnd)
			continue
		}

		best := -1
		var ties []int
		for _, gi := range candidates {
			n := d.sameCountry(gi, e)
			switch {
			case best == -1 || n < best:
				best = n
				ties = append(ties[:0], gi)
			case n == best:
				ties = append(ties, gi)
			}
		}
		d.add(ties[d.rng.Intn(len(ties))]+1, pos, e, MethodFallback, batchEnd)
	}
}

func (d *drawer) fallbackOrder(batch []*models.Entrant) []*models.Entrant {
	inBatch := make(map[string]int)
	for _, e := range batch {
		for _, c := range d.countries(e) {
			inBatch[c]++
		}
	}
	placed := make(map[string]int)
	for _, group := range d.groups {
		for _, s := range group {
			if !s.IsEntrant() {
				continue
			}
			a, b := s.Entrant.Members(d.reg)
			if a != nil {
				placed[a.Country]++
			}
			if b != nil {
				placed[b.Country]++
			}
		}
	}

	type ranked struct {
		entrant   *models.Entrant
		frequency int
		closeness int
	}
	order := make([]ranked, len(batch))
	for i, e := range batch {
		r := ranked{entrant: e}
		for _, c := range d.countries(e) {
			r.frequency = max(r.frequency, inBatch[c])
			r.closeness = max(r.closeness, placed[c]%d.numGroups)
		}
		order[i] = r
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].frequency != order[j].frequency {
			return order[i].frequency > order[j].frequency
		}
		return order[i].closeness > order[j].closeness
	})

	out := make([]*models.Entrant, len(order))
	for i, r := range order {
		out[i] = r.entrant
	}
	return out
}
