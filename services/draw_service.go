package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tournament-draw/balance"
	"github.com/Dosada05/tournament-draw/brackets"
	"github.com/Dosada05/tournament-draw/config"
	"github.com/Dosada05/tournament-draw/dataio"
	"github.com/Dosada05/tournament-draw/groups"
	"github.com/Dosada05/tournament-draw/models"
	"github.com/Dosada05/tournament-draw/repositories"
	"github.com/Dosada05/tournament-draw/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type DrawInput struct {
	Players  []*models.Player  `json:"players"`
	Entrants []*models.Entrant `json:"entrants"`
	// Seed overrides the configured seed for this run.
	Seed *int64 `json:"seed,omitempty"`
}

// ClassDraw is the set of entrants drawn together.
type ClassDraw struct {
	Key         string
	Competition models.Competition
	Class       string
	NumGroups   int
	Entrants    []*models.Entrant
}

type ClassResult struct {
	Key         string                      `json:"key"`
	Competition models.Competition          `json:"competition"`
	Class       string                      `json:"class"`
	NumGroups   int                         `json:"num_groups"`
	Groups      models.Partition            `json:"groups"`
	Violations  []balance.Violation         `json:"violations"`
	Score       int                         `json:"score"`
	Steps       int                         `json:"steps"`
	Fixtures    map[int][][]*brackets.Match `json:"fixtures,omitempty"`
	Log         *groups.Log                 `json:"-"`
}

type DrawRun struct {
	ID        uuid.UUID             `json:"id"`
	Seed      int64                 `json:"seed"`
	CreatedAt time.Time             `json:"created_at"`
	Classes   []*ClassResult        `json:"classes"`
	Export    *storage.UploadResult `json:"export,omitempty"`
	Archived  bool                  `json:"archived"`

	registry *models.Registry
}

// Class returns the result of the class with the given key, nil if absent.
func (r *DrawRun) Class(key string) *ClassResult {
	for _, c := range r.Classes {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// SnapshotView is one step of a class draw as the viewer shows it.
type SnapshotView struct {
	RunID            uuid.UUID        `json:"run_id"`
	ClassKey         string           `json:"class"`
	Index            int              `json:"index"`
	Total            int              `json:"total"`
	Entry            groups.Snapshot  `json:"entry"`
	Groups           models.Partition `json:"groups"`
	PreviousBoundary *int             `json:"previous_boundary,omitempty"`
	NextBoundary     *int             `json:"next_boundary,omitempty"`
}

type BracketInput struct {
	Players  []*models.Player  `json:"players"`
	Entrants []*models.Entrant `json:"entrants"`
	Seed     *int64            `json:"seed,omitempty"`
	// RunID selects the room the result is announced in.
	RunID string `json:"run_id,omitempty"`
}

type ClassBracket struct {
	Key         string             `json:"key"`
	Competition models.Competition `json:"competition"`
	Class       string             `json:"class"`
	Bracket     *brackets.Bracket  `json:"bracket"`
}

// BracketRoom receives bracket events not tied to a draw run.
const BracketRoom = "brackets"

type DrawService interface {
	RunDraw(ctx context.Context, input DrawInput) (*DrawRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (*DrawRun, error)
	ListRuns(ctx context.Context, limit int) ([]repositories.DrawRunSummary, error)
	DeleteRun(ctx context.Context, id uuid.UUID) error
	Snapshot(ctx context.Context, id uuid.UUID, classKey string, index int) (*SnapshotView, error)
	BuildBrackets(ctx context.Context, input BracketInput) ([]*ClassBracket, error)
	Export(ctx context.Context, id uuid.UUID) ([]byte, error)
}

type drawService struct {
	settings    config.DrawSettings
	defaultSeed *int64
	drawRepo    repositories.DrawRepository
	uploader    storage.FileUploader
	hub         *brackets.Hub
	logger      *slog.Logger
	now         func() time.Time

	bracketGenerator brackets.BracketGenerator

	mu   sync.RWMutex
	runs map[uuid.UUID]*DrawRun
}

// NewDrawService wires the draw engine. drawRepo, uploader and hub are
// optional; a nil value switches the archive, export upload or live events off.
func NewDrawService(
	settings config.DrawSettings,
	defaultSeed *int64,
	drawRepo repositories.DrawRepository,
	uploader storage.FileUploader,
	hub *brackets.Hub,
	logger *slog.Logger,
) DrawService {
	if logger == nil {
		logger = slog.Default()
	}
	return &drawService{
		settings:    settings,
		defaultSeed: defaultSeed,
		drawRepo:    drawRepo,
		uploader:    uploader,
		hub:         hub,
		logger:      logger,
		now:         time.Now,
		runs:        make(map[uuid.UUID]*DrawRun),

		bracketGenerator: brackets.NewSingleEliminationGenerator(settings.ConflictRadius, logger),
	}
}

// SplitByClass groups entrants by competition and class, ordered singles,
// doubles, mixed and then by class label. Entrants keep their input order.
func SplitByClass(entrants []*models.Entrant) []ClassDraw {
	index := make(map[string]int)
	var classes []ClassDraw
	for _, e := range entrants {
		key := e.ClassKey()
		i, ok := index[key]
		if !ok {
			i = len(classes)
			index[key] = i
			classes = append(classes, ClassDraw{
				Key:         key,
				Competition: e.Competition,
				Class:       e.Class,
				NumGroups:   e.AmountOfGroups,
			})
		}
		classes[i].Entrants = append(classes[i].Entrants, e)
	}
	sort.SliceStable(classes, func(i, j int) bool {
		if classes[i].Competition.Order() != classes[j].Competition.Order() {
			return classes[i].Competition.Order() < classes[j].Competition.Order()
		}
		return classes[i].Class < classes[j].Class
	})
	return classes
}

func (s *drawService) RunDraw(ctx context.Context, input DrawInput) (*DrawRun, error) {
	reg, err := models.NewRegistry(input.Players)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if len(input.Entrants) == 0 {
		return nil, fmt.Errorf("%w: no entrants", ErrValidationFailed)
	}
	if err := ValidateEntrants(reg, input.Entrants); err != nil {
		return nil, err
	}
	if unused := FindUnreferencedPlayers(reg, input.Entrants); len(unused) > 0 {
		s.logger.Info("players without entry", slog.Any("start_numbers", unused))
	}

	seed, generated := resolveSeed(input.Seed, s.defaultSeed, s.now())
	if generated {
		s.logger.Info("no seed configured, using generated seed", slog.Int64("seed", seed))
	}

	classes := SplitByClass(input.Entrants)
	results := make([]*ClassResult, len(classes))

	g, gctx := errgroup.WithContext(ctx)
	for i, class := range classes {
		i, class := i, class
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.drawClass(reg, class, seed)
			if err != nil {
				return fmt.Errorf("draw class %s: %w", class.Key, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	run := &DrawRun{
		ID:        uuid.New(),
		Seed:      seed,
		CreatedAt: s.now().UTC(),
		Classes:   results,
		registry:  reg,
	}

	if s.drawRepo != nil {
		if err := s.drawRepo.SaveRun(ctx, nil, toRecord(run)); err != nil {
			return nil, fmt.Errorf("failed to archive draw run: %w", err)
		}
		run.Archived = true
	}

	if s.uploader != nil {
		if err := s.uploadExport(ctx, run); err != nil {
			s.logger.Warn("export upload failed", slog.String("run_id", run.ID.String()), slog.Any("error", err))
		}
	}

	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()

	for _, c := range run.Classes {
		if c.Score > 0 {
			s.logger.Warn("draw finished with violations",
				slog.String("run_id", run.ID.String()),
				slog.String("class", c.Key),
				slog.Int("score", c.Score),
				slog.Int("violations", len(c.Violations)))
		}
	}
	s.logger.Info("draw completed",
		slog.String("run_id", run.ID.String()),
		slog.Int64("seed", seed),
		slog.Int("classes", len(run.Classes)))

	s.broadcast(brackets.DrawRoom(run.ID.String()), brackets.EventDrawCompleted, summarize(run))
	return run, nil
}

func (s *drawService) drawClass(reg *models.Registry, class ClassDraw, seed int64) (*ClassResult, error) {
	opts := s.settings.GroupOptions()
	opts.Rand = classRand(seed, class.Key)
	opts.Logger = s.logger.With(slog.String("class", class.Key))

	res, err := groups.Draw(reg, class.Entrants, class.NumGroups, opts)
	if err != nil {
		return nil, err
	}

	result := &ClassResult{
		Key:         class.Key,
		Competition: class.Competition,
		Class:       class.Class,
		NumGroups:   class.NumGroups,
		Groups:      res.Partition,
		Violations:  res.Violations,
		Score:       res.Score,
		Steps:       res.Log.Len(),
		Log:         res.Log,
	}

	fixtures := brackets.NewRoundRobinGenerator(s.settings.FixtureLegs)
	for gi := range res.Partition {
		members := res.Partition.Entrants(gi + 1)
		if len(members) < 2 {
			continue
		}
		rounds, err := fixtures.Schedule(members)
		if err != nil {
			return nil, err
		}
		if result.Fixtures == nil {
			result.Fixtures = make(map[int][][]*brackets.Match)
		}
		result.Fixtures[gi+1] = rounds
	}
	return result, nil
}

func (s *drawService) GetRun(ctx context.Context, id uuid.UUID) (*DrawRun, error) {
	s.mu.RLock()
	run, ok := s.runs[id]
	s.mu.RUnlock()
	if ok {
		return run, nil
	}
	if s.drawRepo == nil {
		return nil, ErrDrawNotFound
	}

	rec, err := s.drawRepo.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrDrawRunNotFound) {
			return nil, ErrDrawNotFound
		}
		return nil, fmt.Errorf("failed to load draw run %s: %w", id, err)
	}
	return fromRecord(rec), nil
}

func (s *drawService) ListRuns(ctx context.Context, limit int) ([]repositories.DrawRunSummary, error) {
	if s.drawRepo != nil {
		return s.drawRepo.ListRuns(ctx, limit)
	}

	s.mu.RLock()
	summaries := make([]repositories.DrawRunSummary, 0, len(s.runs))
	for _, run := range s.runs {
		summaries = append(summaries, summaryOf(run))
	}
	s.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// DeleteRun forgets a run, removes it from the archive and deletes its
// uploaded export. A failed export delete is logged only.
func (s *drawService) DeleteRun(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	_, inMemory := s.runs[id]
	delete(s.runs, id)
	s.mu.Unlock()

	archived := false
	if s.drawRepo != nil {
		err := s.drawRepo.DeleteRun(ctx, id)
		switch {
		case err == nil:
			archived = true
		case errors.Is(err, repositories.ErrDrawRunNotFound):
		default:
			return fmt.Errorf("failed to delete draw run %s: %w", id, err)
		}
	}
	if !inMemory && !archived {
		return ErrDrawNotFound
	}

	if s.uploader != nil {
		if err := s.uploader.Delete(ctx, storage.ExportKey(id.String())); err != nil {
			s.logger.Warn("failed to delete export", slog.String("run_id", id.String()), slog.Any("error", err))
		}
	}
	s.logger.Info("draw run deleted", slog.String("run_id", id.String()))
	return nil
}

func (s *drawService) Snapshot(ctx context.Context, id uuid.UUID, classKey string, index int) (*SnapshotView, error) {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	class := run.Class(classKey)
	if class == nil {
		return nil, fmt.Errorf("%w: %s", ErrClassNotFound, classKey)
	}
	if class.Log == nil {
		return nil, ErrSnapshotsUnavailable
	}

	entry, err := class.Log.At(index)
	if err != nil {
		return nil, err
	}
	partition, err := groups.ReplaySlots(class.Log, index)
	if err != nil {
		return nil, err
	}

	view := &SnapshotView{
		RunID:    id,
		ClassKey: classKey,
		Index:    index,
		Total:    class.Log.Len(),
		Entry:    entry,
		Groups:   partition,
	}
	if prev, ok := groups.PreviousBatchBoundary(class.Log, index); ok {
		view.PreviousBoundary = &prev
	}
	if next, ok := groups.NextBatchBoundary(class.Log, index); ok {
		view.NextBoundary = &next
	}
	return view, nil
}

// BuildBrackets seeds the entrants qualified for the main round of every
// class into a single elimination bracket. Classes with fewer than two
// qualified entrants are skipped.
func (s *drawService) BuildBrackets(ctx context.Context, input BracketInput) ([]*ClassBracket, error) {
	reg, err := models.NewRegistry(input.Players)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if missing := FindMissingPlayers(reg, input.Entrants); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnknownPlayer, missing)
	}

	seed, generated := resolveSeed(input.Seed, s.defaultSeed, s.now())
	if generated {
		s.logger.Info("no seed configured, using generated seed", slog.Int64("seed", seed))
	}

	var out []*ClassBracket
	for _, class := range SplitByClass(input.Entrants) {
		var qualified []*models.Entrant
		for _, e := range class.Entrants {
			if e.MainRound && e.GroupPos != nil {
				qualified = append(qualified, e)
			}
		}
		if len(qualified) < 2 {
			s.logger.Info("class skipped, not enough qualified entrants",
				slog.String("class", class.Key), slog.Int("qualified", len(qualified)))
			continue
		}

		bracket, err := s.bracketGenerator.GenerateBracket(ctx, brackets.GenerateBracketParams{
			Registry: reg,
			Entrants: qualified,
			Rand:     classRand(seed, class.Key),
		})
		if err != nil {
			return nil, fmt.Errorf("build bracket for %s: %w", class.Key, err)
		}
		if len(bracket.Conflicts) > 0 {
			s.logger.Warn("bracket has unavoidable conflicts",
				slog.String("generator", s.bracketGenerator.GetName()),
				slog.String("class", class.Key),
				slog.Int("conflicts", len(bracket.Conflicts)))
		}
		out = append(out, &ClassBracket{
			Key:         class.Key,
			Competition: class.Competition,
			Class:       class.Class,
			Bracket:     bracket,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no class has two entrants qualified for the main round", ErrValidationFailed)
	}

	room := BracketRoom
	if input.RunID != "" {
		room = brackets.DrawRoom(input.RunID)
	}
	s.broadcast(room, brackets.EventBracketBuilt, out)
	return out, nil
}

func (s *drawService) Export(ctx context.Context, id uuid.UUID) ([]byte, error) {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	return exportCSV(run)
}

func exportCSV(run *DrawRun) ([]byte, error) {
	classes := make([]dataio.ClassGroups, len(run.Classes))
	for i, c := range run.Classes {
		classes[i] = dataio.ClassGroups{Competition: c.Competition, Class: c.Class, Groups: c.Groups}
	}
	var buf bytes.Buffer
	if err := dataio.WriteGroups(&buf, run.registry, classes); err != nil {
		return nil, fmt.Errorf("failed to export draw run %s: %w", run.ID, err)
	}
	return buf.Bytes(), nil
}

func (s *drawService) uploadExport(ctx context.Context, run *DrawRun) error {
	data, err := exportCSV(run)
	if err != nil {
		return err
	}
	result, err := s.uploader.Upload(ctx, storage.ExportKey(run.ID.String()), storage.CSVContentType, bytes.NewReader(data))
	if err != nil {
		return err
	}
	run.Export = result
	return nil
}

func (s *drawService) broadcast(room, event string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    event,
		Payload: payload,
		RoomID:  room,
	})
}
