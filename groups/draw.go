// Package groups draws the entrants of one competition class into balanced groups.
//
// The draw works in batches of one entrant per group. The strongest batch is
// placed deterministically, every further batch is placed by backtracking over
// country conflicts with a greedy fallback, and a bounded local search finally
// tries to repair remaining violations inside the last batch. Every mutation is
// recorded in a Log so the draw can be replayed step by step.
package groups

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/Dosada05/tournament-draw/balance"
	"github.com/Dosada05/tournament-draw/models"
)

var (
	ErrInvalidConfig = errors.New("invalid draw configuration")
	ErrMixedClasses  = errors.New("entrants belong to different competition classes")
)

const (
	DefaultBacktrackLimit   = 10000
	DefaultSearchIterations = 10000
	defaultSeed             = 1
)

type Options struct {
	Weights balance.Weights
	// BacktrackLimit caps the placements tried per batch before the greedy fallback.
	BacktrackLimit int
	// SearchIterations caps the repair moves of the local search.
	SearchIterations int
	// Rand is the only source of randomness of the draw. Nil uses a fixed seed.
	Rand   *rand.Rand
	Logger *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Weights:          balance.DefaultWeights(),
		BacktrackLimit:   DefaultBacktrackLimit,
		SearchIterations: DefaultSearchIterations,
	}
}

func (o Options) validate() error {
	if err := o.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if o.BacktrackLimit <= 0 {
		return fmt.Errorf("%w: backtrack limit must be positive, got %d", ErrInvalidConfig, o.BacktrackLimit)
	}
	if o.SearchIterations < 0 {
		return fmt.Errorf("%w: search iterations must not be negative, got %d", ErrInvalidConfig, o.SearchIterations)
	}
	return nil
}

// Result is the outcome of a draw. A nonzero Score is not an error: it reports
// the imbalance the draw could not remove.
type Result struct {
	Partition  models.Partition    `json:"groups"`
	Log        *Log                `json:"-"`
	Violations []balance.Violation `json:"violations"`
	Score      int                 `json:"score"`
}

// MaxGroupSize is the number of entrants the fullest group receives.
func MaxGroupSize(entrants, groups int) int {
	if groups <= 0 {
		return 0
	}
	return (entrants + groups - 1) / groups
}

// SortBySeeding orders entrants strongest first. Unseeded entrants follow in input order.
func SortBySeeding(entrants []*models.Entrant) []*models.Entrant {
	sorted := make([]*models.Entrant, len(entrants))
	copy(sorted, entrants)
	sort.SliceStable(sorted, func(i, j int) bool {
		return models.SeedingLess(sorted[i].Seeding, sorted[j].Seeding)
	})
	return sorted
}

type drawer struct {
	reg         *models.Registry
	competition models.Competition
	numGroups   int
	groups      models.Partition
	opts        Options
	rng         *rand.Rand
	logger      *slog.Logger
	log         *Log
	violations  []balance.Violation
	score       int
}

// Draw partitions the entrants of one competition class into numGroups groups.
// It writes GroupNo on every entrant.
func Draw(reg *models.Registry, entrants []*models.Entrant, numGroups int, opts Options) (*Result, error) {
	if numGroups < 1 {
		return nil, fmt.Errorf("%w: number of groups must be at least 1, got %d", ErrInvalidConfig, numGroups)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	for _, e := range entrants[min(1, len(entrants)):] {
		if e.Competition != entrants[0].Competition || e.Class != entrants[0].Class {
			return nil, fmt.Errorf("%w: %s and %s", ErrMixedClasses, entrants[0].ClassKey(), e.ClassKey())
		}
	}

	d := &drawer{
		reg:       reg,
		numGroups: numGroups,
		opts:      opts,
		rng:       opts.Rand,
		logger:    opts.Logger,
	}
	if d.rng == nil {
		d.rng = rand.New(rand.NewSource(defaultSeed))
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(entrants) > 0 {
		d.competition = entrants[0].Competition
	}

	sorted := SortBySeeding(entrants)
	size := MaxGroupSize(len(sorted), numGroups)
	d.groups = models.NewPartition(numGroups, size)
	d.log = NewLog(d.groups)

	for b := 0; b < size; b++ {
		batch := sorted[b*numGroups : min((b+1)*numGroups, len(sorted))]
		if b == 0 {
			d.placeDeterministic(batch)
			continue
		}
		if !d.backtrack(batch, b) {
			d.logger.Debug("backtracking failed, using greedy fallback",
				slog.String("class", batch[0].ClassKey()), slog.Int("batch", b))
			d.fallback(batch, b)
		}
	}

	if size > 1 {
		d.search(size - 1)
	}

	result := &Result{
		Partition:  d.groups.Compact(),
		Log:        d.log,
		Violations: d.violations,
		Score:      d.score,
	}
	for gi, group := range result.Partition {
		for _, s := range group {
			s.Entrant.GroupNo = gi + 1
		}
	}
	return result, nil
}

func (d *drawer) evaluate() {
	d.violations = balance.Evaluate(d.reg, d.competition, d.groups)
	d.score = balance.Score(d.violations, d.opts.Weights)
}

func (d *drawer) record(s Snapshot) {
	d.evaluate()
	s.Violations = d.violations
	s.Score = d.score
	d.log.Append(s)
}

func (d *drawer) add(group, pos int, e *models.Entrant, method Method, batchEnd bool) {
	slot := models.Occupied(e)
	d.groups[group-1][pos] = slot
	d.record(Snapshot{
		Action:   ActionAdd,
		Method:   method,
		Groups:   []int{group},
		Position: pos,
		Slots:    []models.Slot{slot},
		BatchEnd: batchEnd,
	})
}

func (d *drawer) remove(group, pos int, method Method) {
	prev := d.groups[group-1][pos]
	d.groups[group-1][pos] = models.Empty
	d.record(Snapshot{
		Action:   ActionRemove,
		Method:   method,
		Groups:   []int{group},
		Position: pos,
		Slots:    []models.Slot{prev},
	})
}

func (d *drawer) swap(g1, g2, pos int, action Action) {
	a, b := d.groups[g1-1][pos], d.groups[g2-1][pos]
	d.groups[g1-1][pos], d.groups[g2-1][pos] = b, a
	d.record(Snapshot{
		Action:   action,
		Method:   MethodSearch,
		Groups:   []int{g1, g2},
		Position: pos,
		Slots:    []models.Slot{a, b},
	})
}

// placeDeterministic puts the strongest batch into groups 1..n in seeding order.
func (d *drawer) placeDeterministic(batch []*models.Entrant) {
	for i, e := range batch {
		d.add(i+1, 0, e, MethodDeterministic, i == len(batch)-1)
	}
}
