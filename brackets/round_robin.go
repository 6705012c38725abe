package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-draw/models"
)

// RoundRobinGenerator schedules the fixtures of one group: everybody meets
// everybody once per leg.
type RoundRobinGenerator struct {
	// Legs is 1 for a single round robin and 2 for a double one.
	Legs int
}

func NewRoundRobinGenerator(legs int) *RoundRobinGenerator {
	return &RoundRobinGenerator{Legs: legs}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket returns the group fixtures as a bracket whose rounds are
// match days. Round robin matches do not feed each other, so Root stays nil.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rounds, err := g.Schedule(params.Entrants)
	if err != nil {
		return nil, err
	}
	b := &Bracket{Size: len(params.Entrants), Rounds: rounds}
	if len(rounds) > 0 {
		b.FirstRound = rounds[0]
	}
	return b, nil
}

// Schedule pairs the entrants with the circle method. The first entrant stays
// fixed while the others rotate; with an odd count one entrant sits out each
// round. The second leg repeats the first with sides swapped.
func (g *RoundRobinGenerator) Schedule(entrants []*models.Entrant) ([][]*Match, error) {
	if len(entrants) < 2 {
		return nil, fmt.Errorf("%w: round robin needs 2, got %d", ErrNotEnoughEntrants, len(entrants))
	}
	legs := g.Legs
	if legs != 2 {
		legs = 1
	}

	circle := make([]*models.Entrant, len(entrants), len(entrants)+1)
	copy(circle, entrants)
	if len(circle)%2 == 1 {
		circle = append(circle, nil)
	}
	perLeg := len(circle) - 1

	rounds := make([][]*Match, 0, perLeg*legs)
	for r := 0; r < perLeg; r++ {
		round := make([]*Match, 0, len(circle)/2)
		for i := 0; i < len(circle)/2; i++ {
			a, b := circle[i], circle[len(circle)-1-i]
			if a == nil || b == nil {
				continue
			}
			// Alternate sides so the fixed entrant is not always listed first.
			if i == 0 && r%2 == 1 {
				a, b = b, a
			}
			round = append(round, &Match{
				UID:          matchUID(r+1, len(round)+1),
				Round:        r + 1,
				OrderInRound: len(round) + 1,
				SlotA:        models.Occupied(a),
				SlotB:        models.Occupied(b),
			})
		}
		rounds = append(rounds, round)

		last := circle[len(circle)-1]
		copy(circle[2:], circle[1:len(circle)-1])
		circle[1] = last
	}

	if legs == 2 {
		for r := 0; r < perLeg; r++ {
			round := make([]*Match, len(rounds[r]))
			for i, m := range rounds[r] {
				round[i] = &Match{
					UID:          matchUID(perLeg+r+1, i+1),
					Round:        perLeg + r + 1,
					OrderInRound: i + 1,
					SlotA:        m.SlotB,
					SlotB:        m.SlotA,
				}
			}
			rounds = append(rounds, round)
		}
	}
	return rounds, nil
}
