package brackets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/Dosada05/tournament-draw/models"
)

var ErrNotEnoughEntrants = errors.New("not enough entrants to build a single elimination bracket (minimum 2)")

// DefaultConflictRadius checks conflicts between the two slots of a match only.
const DefaultConflictRadius = 1

type Side uint8

const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	if s == SideB {
		return "B"
	}
	return "A"
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Match struct {
	UID          string      `json:"uid"`
	Round        int         `json:"round"`
	OrderInRound int         `json:"order_in_round"`
	SlotA        models.Slot `json:"slot_a"`
	SlotB        models.Slot `json:"slot_b"`

	SourceMatchAUID string `json:"source_match_a_uid,omitempty"`
	SourceMatchBUID string `json:"source_match_b_uid,omitempty"`

	// Next is the match the winner advances to, nil for the final.
	Next     *Match `json:"-"`
	NextUID  string `json:"next_uid,omitempty"`
	NextSlot Side   `json:"next_slot"`

	Winner *models.Entrant `json:"winner,omitempty"`
}

// IsBye reports whether exactly one side of the match is a bye.
func (m *Match) IsBye() bool {
	return m.SlotA.IsBye() != m.SlotB.IsBye()
}

// ByeWinner returns the entrant advancing without play, nil if the match is played.
func (m *Match) ByeWinner() *models.Entrant {
	switch {
	case !m.IsBye():
		return nil
	case m.SlotA.IsBye():
		return m.SlotB.Entrant
	default:
		return m.SlotA.Entrant
	}
}

func (m *Match) Slot(side Side) models.Slot {
	if side == SideB {
		return m.SlotB
	}
	return m.SlotA
}

func (m *Match) setSlot(side Side, s models.Slot) {
	if side == SideB {
		m.SlotB = s
		return
	}
	m.SlotA = s
}

// Conflict records an entrant that had to be placed next to an opponent it
// should have been kept apart from.
type Conflict struct {
	Entrant  *models.Entrant `json:"entrant"`
	MatchUID string          `json:"match_uid"`
	Side     Side            `json:"side"`
}

type Bracket struct {
	Size       int        `json:"size"`
	Byes       int        `json:"byes"`
	FirstRound []*Match   `json:"-"`
	Rounds     [][]*Match `json:"rounds"`
	Root       *Match     `json:"-"`
	Conflicts  []Conflict `json:"conflicts"`
}

// Match returns the match with the given UID, nil if there is none.
func (b *Bracket) Match(uid string) *Match {
	for _, round := range b.Rounds {
		for _, m := range round {
			if m.UID == uid {
				return m
			}
		}
	}
	return nil
}

// Slots returns the first-round slots in bracket order: match 1 A, match 1 B, match 2 A, ...
func (b *Bracket) Slots() []models.Slot {
	out := make([]models.Slot, 0, 2*len(b.FirstRound))
	for _, m := range b.FirstRound {
		out = append(out, m.SlotA, m.SlotB)
	}
	return out
}

type SingleEliminationGenerator struct {
	// ConflictRadius widens the conflict check to every slot in the same block
	// of 2^ConflictRadius first-round slots.
	ConflictRadius int
	Logger         *slog.Logger
}

func NewSingleEliminationGenerator(conflictRadius int, logger *slog.Logger) *SingleEliminationGenerator {
	return &SingleEliminationGenerator{ConflictRadius: conflictRadius, Logger: logger}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.Build(params.Registry, params.Entrants, params.Rand)
}

// SortForBracket orders entrants group winners first, then runners-up and so
// on, each rank by seeding. Entrants without a rank or seeding go last.
func SortForBracket(entrants []*models.Entrant) []*models.Entrant {
	sorted := make([]*models.Entrant, len(entrants))
	copy(sorted, entrants)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if models.SeedingLess(a.GroupPos, b.GroupPos) {
			return true
		}
		if models.SeedingLess(b.GroupPos, a.GroupPos) {
			return false
		}
		return models.SeedingLess(a.Seeding, b.Seeding)
	})
	return sorted
}

// Build seeds the entrants into a single elimination bracket. The two
// strongest entrants open the top and the bottom half, byes go to the
// outermost seams first, and everybody else is drawn into an open slot that
// does not pair them with a compatriot or a clubmate where possible.
func (g *SingleEliminationGenerator) Build(reg *models.Registry, entrants []*models.Entrant, rng *rand.Rand) (*Bracket, error) {
	n := len(entrants)
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNotEnoughEntrants, n)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	logger := g.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	radius := g.ConflictRadius
	if radius < 1 {
		radius = DefaultConflictRadius
	}

	sorted := SortForBracket(entrants)
	size := nextPowerOfTwo(n)
	matches := size / 2
	bracket := &Bracket{Size: size, Byes: size - n}

	slots := make([]models.Slot, size)
	for _, m := range byeMatches(matches, bracket.Byes, rng) {
		slots[byeSlot(m, matches)] = models.Bye
	}
	slots[0] = models.Occupied(sorted[0])
	slots[size-1] = models.Occupied(sorted[1])

	for _, e := range sorted[2:] {
		open := openSlots(slots, true)
		if len(open) == 0 {
			open = openSlots(slots, false)
		}
		rng.Shuffle(len(open), func(i, j int) { open[i], open[j] = open[j], open[i] })

		target := -1
		for _, s := range open {
			if !hasConflict(reg, slots, s, radius, e) {
				target = s
				break
			}
		}
		if target == -1 {
			target = open[len(open)-1]
			c := Conflict{Entrant: e, MatchUID: matchUID(1, target/2+1), Side: Side(target % 2)}
			bracket.Conflicts = append(bracket.Conflicts, c)
			logger.Debug("forced bracket placement despite conflict",
				slog.String("entrant", e.Key()),
				slog.String("match", c.MatchUID),
				slog.String("side", c.Side.String()))
		}
		slots[target] = models.Occupied(e)
	}

	bracket.FirstRound = make([]*Match, matches)
	for i := range bracket.FirstRound {
		bracket.FirstRound[i] = &Match{
			UID:          matchUID(1, i+1),
			Round:        1,
			OrderInRound: i + 1,
			SlotA:        slots[2*i],
			SlotB:        slots[2*i+1],
		}
	}
	bracket.Rounds = [][]*Match{bracket.FirstRound}

	current := bracket.FirstRound
	for len(current) > 1 {
		round := len(bracket.Rounds) + 1
		next := make([]*Match, len(current)/2)
		for i := range next {
			m := &Match{
				UID:             matchUID(round, i+1),
				Round:           round,
				OrderInRound:    i + 1,
				SourceMatchAUID: current[2*i].UID,
				SourceMatchBUID: current[2*i+1].UID,
			}
			link(current[2*i], m, SideA)
			link(current[2*i+1], m, SideB)
			next[i] = m
		}
		bracket.Rounds = append(bracket.Rounds, next)
		current = next
	}
	bracket.Root = current[0]
	return bracket, nil
}

func matchUID(round, order int) string {
	return fmt.Sprintf("R%dM%d", round, order)
}

// byeSlot is the slot index of a bye in first-round match m: side B in the
// top half of the draw, side A in the bottom half.
func byeSlot(m, matches int) int {
	idx := 2 * (m - 1)
	if m <= matches/2 {
		return idx + 1
	}
	return idx
}

func partner(slot int) int {
	return slot ^ 1
}

// openSlots lists the empty slots, restricted to those facing a bye when facingBye is set.
func openSlots(slots []models.Slot, facingBye bool) []int {
	var open []int
	for i, s := range slots {
		if !s.IsEmpty() {
			continue
		}
		if facingBye && !slots[partner(i)].IsBye() {
			continue
		}
		open = append(open, i)
	}
	return open
}

// hasConflict checks e against every entrant in the same block of 2^radius slots as slot.
func hasConflict(reg *models.Registry, slots []models.Slot, slot, radius int, e *models.Entrant) bool {
	block := 1 << radius
	start := slot &^ (block - 1)
	for i := start; i < start+block && i < len(slots); i++ {
		if i == slot || !slots[i].IsEntrant() {
			continue
		}
		if conflicting(reg, e, slots[i].Entrant) {
			return true
		}
	}
	return false
}

// conflicting reports whether two entrants should not meet early: singles
// sharing a country or a base, teams whose members match pairwise on country
// or pairwise on base.
func conflicting(reg *models.Registry, x, y *models.Entrant) bool {
	xa, xb := x.Members(reg)
	ya, yb := y.Members(reg)
	if xa == nil || ya == nil {
		return false
	}
	if !x.IsTeam() || !y.IsTeam() {
		return xa.Country == ya.Country || sameBase(xa, ya)
	}
	if xb == nil || yb == nil {
		return false
	}
	return (xa.Country == ya.Country && xb.Country == yb.Country) ||
		(sameBase(xa, ya) && sameBase(xb, yb))
}

func sameBase(a, b *models.Player) bool {
	return a.HasBase() && b.HasBase() && a.Base == b.Base
}

func link(from, to *Match, side Side) {
	from.Next = to
	from.NextUID = to.UID
	from.NextSlot = side
	if w := from.ByeWinner(); w != nil {
		from.Winner = w
		to.setSlot(side, models.Occupied(w))
	}
}
