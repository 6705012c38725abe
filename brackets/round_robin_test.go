package brackets_test

import (
	"context"
	"testing"

	"github.com/Dosada05/tournament-draw/brackets"
	"github.com/Dosada05/tournament-draw/models"
	"github.com/stretchr/testify/require"
)

func pairings(rounds [][]*brackets.Match) map[[2]int]int {
	seen := make(map[[2]int]int)
	for _, round := range rounds {
		for _, m := range round {
			a, b := m.SlotA.Entrant.A, m.SlotB.Entrant.A
			if a > b {
				a, b = b, a
			}
			seen[[2]int{a, b}]++
		}
	}
	return seen
}

func TestRoundRobin_EveryPairOnce(t *testing.T) {
	for n := 2; n <= 7; n++ {
		countries := make([]string, n)
		for i := range countries {
			countries[i] = "GER"
		}
		_, entrants := field(t, countries...)

		rounds, err := brackets.NewRoundRobinGenerator(1).Schedule(entrants)
		require.NoError(t, err)

		wantRounds := n - 1
		if n%2 == 1 {
			wantRounds = n
		}
		require.Len(t, rounds, wantRounds, "n=%d", n)

		seen := pairings(rounds)
		require.Len(t, seen, n*(n-1)/2, "n=%d", n)
		for pair, count := range seen {
			require.Equal(t, 1, count, "n=%d pair %v", n, pair)
		}

		for r, round := range rounds {
			busy := map[int]bool{}
			for i, m := range round {
				require.Equal(t, r+1, m.Round)
				require.Equal(t, i+1, m.OrderInRound)
				require.False(t, busy[m.SlotA.Entrant.A])
				require.False(t, busy[m.SlotB.Entrant.A])
				busy[m.SlotA.Entrant.A] = true
				busy[m.SlotB.Entrant.A] = true
			}
		}
	}
}

func TestRoundRobin_SecondLegSwapsSides(t *testing.T) {
	_, entrants := field(t, "A", "B", "C", "D")

	rounds, err := brackets.NewRoundRobinGenerator(2).Schedule(entrants)
	require.NoError(t, err)
	require.Len(t, rounds, 6)

	for r := 0; r < 3; r++ {
		for i, m := range rounds[r] {
			back := rounds[r+3][i]
			require.Equal(t, r+4, back.Round)
			require.Same(t, m.SlotA.Entrant, back.SlotB.Entrant)
			require.Same(t, m.SlotB.Entrant, back.SlotA.Entrant)
		}
	}
	for _, count := range pairings(rounds) {
		require.Equal(t, 2, count)
	}
}

func TestRoundRobin_GenerateBracket(t *testing.T) {
	_, entrants := field(t, "A", "B", "C")

	var g brackets.BracketGenerator = brackets.NewRoundRobinGenerator(1)
	require.Equal(t, "RoundRobin", g.GetName())

	b, err := g.GenerateBracket(context.Background(), brackets.GenerateBracketParams{Entrants: entrants})
	require.NoError(t, err)
	require.Equal(t, 3, b.Size)
	require.Len(t, b.Rounds, 3)
	require.Nil(t, b.Root)
	for _, round := range b.Rounds {
		require.Len(t, round, 1)
	}

	_, err = g.GenerateBracket(context.Background(), brackets.GenerateBracketParams{Entrants: []*models.Entrant{entrants[0]}})
	require.ErrorIs(t, err, brackets.ErrNotEnoughEntrants)
}
