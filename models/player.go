package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrDuplicatePlayer = errors.New("duplicate player start number")

// Player is a registered competitor. Players are created once at import and never mutated.
type Player struct {
	StartNumber int    `json:"start_number" db:"start_number"`
	FirstName   string `json:"first_name" db:"first_name"`
	LastName    string `json:"last_name" db:"last_name"`
	Country     string `json:"country" db:"country"`
	Base        string `json:"base,omitempty" db:"base"`
	Gender      string `json:"gender,omitempty" db:"gender"`
	QTTR        *int   `json:"qttr,omitempty" db:"qttr"`
}

// HasBase reports whether the player carries a home base. The literal "None"
// is what older exports wrote for a missing base.
func (p *Player) HasBase() bool {
	if p == nil {
		return false
	}
	b := strings.TrimSpace(p.Base)
	return b != "" && !strings.EqualFold(b, "none")
}

func (p *Player) IsRated() bool {
	return p != nil && p.QTTR != nil
}

func (p *Player) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p *Player) String() string {
	base := "no base"
	if p.HasBase() {
		base = p.Base
	}
	return fmt.Sprintf("[%d] %s (%s, %s)", p.StartNumber, p.FullName(), p.Country, base)
}

// Registry is the read-only player lookup shared by every component of a run.
type Registry struct {
	byStartNumber map[int]*Player
	ordered       []*Player
}

func NewRegistry(players []*Player) (*Registry, error) {
	reg := &Registry{
		byStartNumber: make(map[int]*Player, len(players)),
		ordered:       make([]*Player, 0, len(players)),
	}
	for _, p := range players {
		if p == nil {
			continue
		}
		if _, exists := reg.byStartNumber[p.StartNumber]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicatePlayer, p.StartNumber)
		}
		reg.byStartNumber[p.StartNumber] = p
		reg.ordered = append(reg.ordered, p)
	}
	return reg, nil
}

// Get returns the player registered under startNumber, nil if unknown.
func (r *Registry) Get(startNumber int) *Player {
	if r == nil {
		return nil
	}
	return r.byStartNumber[startNumber]
}

func (r *Registry) Has(startNumber int) bool {
	return r.Get(startNumber) != nil
}

// Players returns the players in import order.
func (r *Registry) Players() []*Player {
	out := make([]*Player, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (r *Registry) Len() int {
	return len(r.ordered)
}
