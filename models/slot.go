package models

import "encoding/json"

type SlotKind uint8

const (
	SlotEmpty SlotKind = iota
	SlotEntrant
	SlotBye
)

func (k SlotKind) String() string {
	switch k {
	case SlotEntrant:
		return "entrant"
	case SlotBye:
		return "bye"
	default:
		return "empty"
	}
}

// Slot is a position inside a group or a bracket match: an entrant, a bye or nothing.
// Two slots are equal when their kind and entrant match, so empty slots are
// interchangeable and only their position tells them apart.
type Slot struct {
	Kind    SlotKind
	Entrant *Entrant
}

var (
	Empty = Slot{Kind: SlotEmpty}
	Bye   = Slot{Kind: SlotBye}
)

func Occupied(e *Entrant) Slot {
	if e == nil {
		return Empty
	}
	return Slot{Kind: SlotEntrant, Entrant: e}
}

func (s Slot) IsEmpty() bool   { return s.Kind == SlotEmpty }
func (s Slot) IsBye() bool     { return s.Kind == SlotBye }
func (s Slot) IsEntrant() bool { return s.Kind == SlotEntrant && s.Entrant != nil }

func (s Slot) Equal(o Slot) bool {
	return s.Kind == o.Kind && s.Entrant == o.Entrant
}

func (s Slot) String() string {
	switch s.Kind {
	case SlotEntrant:
		return s.Entrant.Key()
	case SlotBye:
		return "BYE"
	default:
		return "-"
	}
}

type slotJSON struct {
	Kind    string   `json:"kind"`
	Entrant *Entrant `json:"entrant,omitempty"`
}

func (s Slot) MarshalJSON() ([]byte, error) {
	return json.Marshal(slotJSON{Kind: s.Kind.String(), Entrant: s.Entrant})
}
