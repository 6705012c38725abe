package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Dosada05/tournament-draw/models"
)

// FindMissingPlayers lists the start numbers entrants reference that are not
// registered, ascending and without duplicates.
func FindMissingPlayers(reg *models.Registry, entrants []*models.Entrant) []int {
	missing := make(map[int]struct{})
	for _, e := range entrants {
		for _, n := range e.StartNumbers() {
			if !reg.Has(n) {
				missing[n] = struct{}{}
			}
		}
	}
	return sortedKeys(missing)
}

// FindUnreferencedPlayers lists registered players that no entrant references.
func FindUnreferencedPlayers(reg *models.Registry, entrants []*models.Entrant) []int {
	used := make(map[int]struct{})
	for _, e := range entrants {
		for _, n := range e.StartNumbers() {
			used[n] = struct{}{}
		}
	}
	unused := make(map[int]struct{})
	for _, p := range reg.Players() {
		if _, ok := used[p.StartNumber]; !ok {
			unused[p.StartNumber] = struct{}{}
		}
	}
	return sortedKeys(unused)
}

// ValidateEntrants checks the entrant rows before a draw. Unknown players are
// reported with ErrUnknownPlayer, every other problem with ErrValidationFailed.
func ValidateEntrants(reg *models.Registry, entrants []*models.Entrant) error {
	if missing := FindMissingPlayers(reg, entrants); len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrUnknownPlayer, missing)
	}

	var problems []string
	for i, e := range entrants {
		switch {
		case !e.Competition.IsValid():
			problems = append(problems, fmt.Sprintf("row %d: unknown competition %q", i+1, e.Competition))
		case strings.TrimSpace(e.Class) == "":
			problems = append(problems, fmt.Sprintf("row %d: competition class is empty", i+1))
		case e.Competition.IsTeam() && !e.IsTeam():
			problems = append(problems, fmt.Sprintf("row %d: %s entrant %s has no partner", i+1, e.Competition, e.Key()))
		case !e.Competition.IsTeam() && e.IsTeam():
			problems = append(problems, fmt.Sprintf("row %d: singles entrant %s has a partner", i+1, e.Key()))
		case e.AmountOfGroups < 1:
			problems = append(problems, fmt.Sprintf("row %d: amount of groups must be at least 1, got %d", i+1, e.AmountOfGroups))
		}
	}
	if len(problems) == 0 {
		groupsPerClass := make(map[string]int)
		for _, e := range entrants {
			key := e.ClassKey()
			if n, seen := groupsPerClass[key]; seen && n != e.AmountOfGroups {
				problems = append(problems, fmt.Sprintf("class %s: amount of groups differs between rows (%d and %d)", key, n, e.AmountOfGroups))
				continue
			}
			groupsPerClass[key] = e.AmountOfGroups
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(problems, "; "))
	}
	return nil
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
