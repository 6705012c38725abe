package brackets

import (
	"context"
	"math/rand"

	"github.com/Dosada05/tournament-draw/models"
)

type GenerateBracketParams struct {
	Registry *models.Registry
	Entrants []*models.Entrant
	// Rand drives every random choice of the generator. Nil uses a fixed seed.
	Rand *rand.Rand
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error)

	GetName() string
}
