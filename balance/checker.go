// Package balance scores group partitions against the draw's balance rules:
// country spread, home-base uniqueness, unrated-player spread and, for team
// competitions, the spread of full- and half-country teams.
//
// Every function is pure and returns violations in a stable order (groups
// ascending, countries and bases sorted), so repeated checks of the same
// partition compare equal.
package balance

import (
	"sort"

	"github.com/Dosada05/tournament-draw/models"
)

// groupCounts holds, per key (country or base), the count per group number.
type groupCounts map[string]map[int]int

func (c groupCounts) add(key string, group int) {
	m, ok := c[key]
	if !ok {
		m = make(map[int]int)
		c[key] = m
	}
	m[group]++
}

func (c groupCounts) sortedKeys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// spread fills zero counts for groups 1..groups and returns max, min and the full map.
func spread(perGroup map[int]int, groups int) (maxCount, minCount int, full map[int]int) {
	full = make(map[int]int, groups)
	for g := 1; g <= groups; g++ {
		n := perGroup[g]
		full[g] = n
		if g == 1 || n > maxCount {
			maxCount = n
		}
		if g == 1 || n < minCount {
			minCount = n
		}
	}
	return maxCount, minCount, full
}

// AllowedCountrySpread is the tolerated difference between the groups with the
// most and the fewest players of one country.
func AllowedCountrySpread(c models.Competition) int {
	if c.IsTeam() {
		return 2
	}
	return 1
}

// CountryDistribution flags every country whose per-group player count spreads
// wider than AllowedCountrySpread. Team members count individually, so a
// mixed-country team contributes to two countries.
func CountryDistribution(reg *models.Registry, c models.Competition, p models.Partition) []Violation {
	counts := make(groupCounts)
	for gi, group := range p {
		for _, s := range group {
			if !s.IsEntrant() {
				continue
			}
			a, b := s.Entrant.Members(reg)
			if a != nil {
				counts.add(a.Country, gi+1)
			}
			if b != nil {
				counts.add(b.Country, gi+1)
			}
		}
	}

	allowed := AllowedCountrySpread(c)
	var violations []Violation
	for _, country := range counts.sortedKeys() {
		maxCount, minCount, full := spread(counts[country], len(p))
		if maxCount-minCount > allowed {
			violations = append(violations, Violation{
				Kind:    KindCountry,
				Country: country,
				Max:     maxCount,
				Min:     minCount,
				Counts:  full,
			})
		}
	}
	return violations
}

// BaseUniqueness flags every base represented by more than one entrant of the
// same group. A team represents the union of its members' bases.
func BaseUniqueness(reg *models.Registry, p models.Partition) []Violation {
	var violations []Violation
	for gi, group := range p {
		perBase := make(map[string]int)
		for _, s := range group {
			if !s.IsEntrant() {
				continue
			}
			for base := range entrantBases(reg, s.Entrant) {
				perBase[base]++
			}
		}
		bases := make([]string, 0, len(perBase))
		for base, n := range perBase {
			if n > 1 {
				bases = append(bases, base)
			}
		}
		sort.Strings(bases)
		for _, base := range bases {
			violations = append(violations, Violation{
				Kind:  KindBase,
				Group: gi + 1,
				Base:  base,
				Count: perBase[base],
			})
		}
	}
	return violations
}

func entrantBases(reg *models.Registry, e *models.Entrant) map[string]struct{} {
	bases := make(map[string]struct{}, 2)
	a, b := e.Members(reg)
	if a.HasBase() {
		bases[a.Base] = struct{}{}
	}
	if b.HasBase() {
		bases[b.Base] = struct{}{}
	}
	return bases
}

// RatingGapDistribution flags an uneven spread of unrated entrants: the group
// with the most must not exceed the group with the fewest by more than one.
func RatingGapDistribution(reg *models.Registry, p models.Partition) []Violation {
	if len(p) == 0 {
		return nil
	}
	unrated := make(map[int]int, len(p))
	for gi, group := range p {
		for _, s := range group {
			if !s.IsEntrant() {
				continue
			}
			if a := reg.Get(s.Entrant.A); a != nil && !a.IsRated() {
				unrated[gi+1]++
			}
		}
	}

	maxCount, minCount, full := spread(unrated, len(p))
	if maxCount <= minCount+1 {
		return nil
	}
	v := Violation{Kind: KindRatingGap, Max: maxCount, Min: minCount, Counts: full}
	for g := 1; g <= len(p); g++ {
		switch full[g] {
		case minCount:
			v.MinGroups = append(v.MinGroups, g)
		case maxCount:
			v.MaxGroups = append(v.MaxGroups, g)
		}
	}
	return []Violation{v}
}

// TeamCountryDistribution flags countries whose full-country teams (both
// members share the nationality) or half-country teams spread by more than one
// across groups.
func TeamCountryDistribution(reg *models.Registry, p models.Partition) []Violation {
	full := make(groupCounts)
	half := make(groupCounts)
	for gi, group := range p {
		for _, s := range group {
			if !s.IsEntrant() || !s.Entrant.IsTeam() {
				continue
			}
			a, b := s.Entrant.Members(reg)
			if a == nil || b == nil {
				continue
			}
			if a.Country == b.Country {
				full.add(a.Country, gi+1)
				continue
			}
			half.add(a.Country, gi+1)
			half.add(b.Country, gi+1)
		}
	}

	var violations []Violation
	for _, tc := range []struct {
		teamType TeamType
		counts   groupCounts
	}{{FullCountry, full}, {HalfCountry, half}} {
		for _, country := range tc.counts.sortedKeys() {
			maxCount, minCount, perGroup := spread(tc.counts[country], len(p))
			if maxCount-minCount > 1 {
				violations = append(violations, Violation{
					Kind:     KindTeamCountry,
					TeamType: tc.teamType,
					Country:  country,
					Max:      maxCount,
					Min:      minCount,
					Counts:   perGroup,
				})
			}
		}
	}
	return violations
}

// Evaluate runs every check that applies to the competition: rating gaps are
// only checked for singles, team nationality only for doubles and mixed.
func Evaluate(reg *models.Registry, c models.Competition, p models.Partition) []Violation {
	violations := CountryDistribution(reg, c, p)
	violations = append(violations, BaseUniqueness(reg, p)...)
	if c.IsTeam() {
		violations = append(violations, TeamCountryDistribution(reg, p)...)
	} else {
		violations = append(violations, RatingGapDistribution(reg, p)...)
	}
	return violations
}
