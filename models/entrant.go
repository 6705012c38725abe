package models

import (
	"fmt"
	"strconv"
)

type Competition string

const (
	CompetitionSingles Competition = "S"
	CompetitionDoubles Competition = "D"
	CompetitionMixed   Competition = "M"
)

func (c Competition) IsValid() bool {
	switch c {
	case CompetitionSingles, CompetitionDoubles, CompetitionMixed:
		return true
	}
	return false
}

// IsTeam reports whether entrants of this competition are two-person teams.
func (c Competition) IsTeam() bool {
	return c == CompetitionDoubles || c == CompetitionMixed
}

// Order is the display order of competitions: singles, doubles, mixed.
func (c Competition) Order() int {
	switch c {
	case CompetitionSingles:
		return 0
	case CompetitionDoubles:
		return 1
	case CompetitionMixed:
		return 2
	}
	return 3
}

// Entrant is one row of a competition class: a single player or a team.
// Only GroupNo is written after import, by the group draw.
type Entrant struct {
	Competition      Competition `json:"competition" db:"competition"`
	Class            string      `json:"class" db:"class"`
	Seeding          *int        `json:"seeding,omitempty" db:"seeding"`
	AmountOfGroups   int         `json:"amount_of_groups" db:"amount_of_groups"`
	A                int         `json:"start_number_a" db:"start_number_a"`
	B                *int        `json:"start_number_b,omitempty" db:"start_number_b"`
	GroupNo          int         `json:"group_no,omitempty" db:"group_no"`
	GroupPos         *int        `json:"group_pos,omitempty" db:"group_pos"`
	MainRound        bool        `json:"main_round,omitempty" db:"main_round"`
	ConsolationRound bool        `json:"consolation_round,omitempty" db:"consolation_round"`
}

func (e *Entrant) IsTeam() bool {
	return e.B != nil
}

// Key identifies the entrant inside its class: "a" or "a/b".
func (e *Entrant) Key() string {
	if e.B == nil {
		return strconv.Itoa(e.A)
	}
	return strconv.Itoa(e.A) + "/" + strconv.Itoa(*e.B)
}

// ClassKey identifies the competition class the entrant belongs to, e.g. "S:U18".
func (e *Entrant) ClassKey() string {
	return ClassKey(e.Competition, e.Class)
}

// StartNumbers returns the referenced player ids, a first.
func (e *Entrant) StartNumbers() []int {
	if e.B == nil {
		return []int{e.A}
	}
	return []int{e.A, *e.B}
}

// Members resolves the entrant's players. Missing ids resolve to nil.
func (e *Entrant) Members(reg *Registry) (a, b *Player) {
	a = reg.Get(e.A)
	if e.B != nil {
		b = reg.Get(*e.B)
	}
	return a, b
}

func (e *Entrant) String() string {
	seeding := "-"
	if e.Seeding != nil {
		seeding = strconv.Itoa(*e.Seeding)
	}
	return fmt.Sprintf("%s %s [%s] %s", e.Competition, e.Class, seeding, e.Key())
}

func ClassKey(c Competition, class string) string {
	return string(c) + ":" + class
}

// SeedingLess orders a before b when a is seeded stronger; unseeded entrants go last.
func SeedingLess(a, b *int) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}
