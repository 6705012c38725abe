package models

// Partition maps group numbers to ordered slots: index i holds group i+1.
type Partition [][]Slot

func NewPartition(groups, size int) Partition {
	p := make(Partition, groups)
	for i := range p {
		p[i] = make([]Slot, size)
	}
	return p
}

// Group returns the slots of group number no (1-based).
func (p Partition) Group(no int) []Slot {
	if no < 1 || no > len(p) {
		return nil
	}
	return p[no-1]
}

func (p Partition) Clone() Partition {
	out := make(Partition, len(p))
	for i, g := range p {
		out[i] = make([]Slot, len(g))
		copy(out[i], g)
	}
	return out
}

// Compact returns a copy without empty slots.
func (p Partition) Compact() Partition {
	out := make(Partition, len(p))
	for i, g := range p {
		out[i] = make([]Slot, 0, len(g))
		for _, s := range g {
			if s.IsEntrant() {
				out[i] = append(out[i], s)
			}
		}
	}
	return out
}

// Sizes returns the number of real entrants per group.
func (p Partition) Sizes() []int {
	sizes := make([]int, len(p))
	for i, g := range p {
		for _, s := range g {
			if s.IsEntrant() {
				sizes[i]++
			}
		}
	}
	return sizes
}

// Entrants returns the real entrants of group number no in slot order.
func (p Partition) Entrants(no int) []*Entrant {
	g := p.Group(no)
	out := make([]*Entrant, 0, len(g))
	for _, s := range g {
		if s.IsEntrant() {
			out = append(out, s.Entrant)
		}
	}
	return out
}

func (p Partition) Equal(o Partition) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if len(p[i]) != len(o[i]) {
			return false
		}
		for j := range p[i] {
			if !p[i][j].Equal(o[i][j]) {
				return false
			}
		}
	}
	return true
}
