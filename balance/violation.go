package balance

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindCountry     Kind = "country"
	KindBase        Kind = "base"
	KindRatingGap   Kind = "rating-gap"
	KindTeamCountry Kind = "team-country"
)

type TeamType string

const (
	FullCountry TeamType = "full-country"
	HalfCountry TeamType = "half-country"
)

// Violation describes one detected imbalance in a partition. Fields that do not
// apply to the violation's kind are left zero.
type Violation struct {
	Kind      Kind        `json:"kind"`
	Country   string      `json:"country,omitempty"`
	Base      string      `json:"base,omitempty"`
	TeamType  TeamType    `json:"team_type,omitempty"`
	Group     int         `json:"group,omitempty"`
	Count     int         `json:"count,omitempty"`
	Max       int         `json:"max"`
	Min       int         `json:"min"`
	Counts    map[int]int `json:"counts,omitempty"`
	MinGroups []int       `json:"min_groups,omitempty"`
	MaxGroups []int       `json:"max_groups,omitempty"`
}

func (v Violation) String() string {
	switch v.Kind {
	case KindCountry:
		return fmt.Sprintf("country %s spread %d-%d", v.Country, v.Min, v.Max)
	case KindBase:
		return fmt.Sprintf("base %s appears %d times in group %d", v.Base, v.Count, v.Group)
	case KindRatingGap:
		return fmt.Sprintf("unrated entrants spread %d-%d (groups %v vs %v)", v.Min, v.Max, v.MinGroups, v.MaxGroups)
	case KindTeamCountry:
		return fmt.Sprintf("%s teams of %s spread %d-%d", v.TeamType, v.Country, v.Min, v.Max)
	}
	return string(v.Kind)
}

var ErrInvalidWeights = errors.New("violation weights must be positive")

// Weights scale the number of violations of each kind into a single score.
type Weights struct {
	Country     int `json:"country" yaml:"country"`
	TeamCountry int `json:"team_country" yaml:"team_country"`
	Base        int `json:"base" yaml:"base"`
	RatingGap   int `json:"rating_gap" yaml:"rating_gap"`
}

func DefaultWeights() Weights {
	return Weights{Country: 10, TeamCountry: 5, Base: 3, RatingGap: 1}
}

// Validate rejects non-positive weights: a zero weight would let a violation
// hide behind a zero score.
func (w Weights) Validate() error {
	if w.Country <= 0 || w.TeamCountry <= 0 || w.Base <= 0 || w.RatingGap <= 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidWeights, w)
	}
	return nil
}

func (w Weights) of(k Kind) int {
	switch k {
	case KindCountry:
		return w.Country
	case KindTeamCountry:
		return w.TeamCountry
	case KindBase:
		return w.Base
	case KindRatingGap:
		return w.RatingGap
	}
	return 0
}

// Score is the weighted number of violations. 0 means a balanced partition.
func Score(violations []Violation, w Weights) int {
	total := 0
	for _, v := range violations {
		total += w.of(v.Kind)
	}
	return total
}

// CountByKind tallies violations per kind.
func CountByKind(violations []Violation) map[Kind]int {
	out := make(map[Kind]int, 4)
	for _, v := range violations {
		out[v.Kind]++
	}
	return out
}
