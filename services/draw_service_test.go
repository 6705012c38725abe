package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-draw/brackets"
	"github.com/Dosada05/tournament-draw/config"
	"github.com/Dosada05/tournament-draw/groups"
	"github.com/Dosada05/tournament-draw/models"
	"github.com/Dosada05/tournament-draw/repositories"
	"github.com/Dosada05/tournament-draw/services"
	"github.com/Dosada05/tournament-draw/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

type fakeDrawRepo struct {
	mu      sync.Mutex
	runs    map[uuid.UUID]*repositories.DrawRunRecord
	saveErr error
}

func newFakeDrawRepo() *fakeDrawRepo {
	return &fakeDrawRepo{runs: make(map[uuid.UUID]*repositories.DrawRunRecord)}
}

func (r *fakeDrawRepo) SaveRun(ctx context.Context, exec repositories.SQLExecutor, run *repositories.DrawRunRecord) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	return nil
}

func (r *fakeDrawRepo) GetRun(ctx context.Context, id uuid.UUID) (*repositories.DrawRunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, repositories.ErrDrawRunNotFound
	}
	return run, nil
}

func (r *fakeDrawRepo) ListRuns(ctx context.Context, limit int) ([]repositories.DrawRunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repositories.DrawRunSummary
	for _, run := range r.runs {
		out = append(out, repositories.DrawRunSummary{ID: run.ID, Seed: run.Seed, CreatedAt: run.CreatedAt})
	}
	return out, nil
}

func (r *fakeDrawRepo) DeleteRun(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[id]; !ok {
		return repositories.ErrDrawRunNotFound
	}
	delete(r.runs, id)
	return nil
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	err     error
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.objects == nil {
		u.objects = make(map[string][]byte)
	}
	u.objects[key] = data
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string { return "https://cdn.test/" + key }

// tournament registers eight singles players from four countries and two
// doubles teams, drawn into two singles groups and one doubles group.
func tournament() ([]*models.Player, []*models.Entrant) {
	countries := []string{"GER", "GER", "FRA", "FRA", "AUT", "AUT", "SUI", "SUI"}
	var players []*models.Player
	var entrants []*models.Entrant
	for i, c := range countries {
		players = append(players, &models.Player{
			StartNumber: i + 1,
			LastName:    "Player" + c,
			Country:     c,
			QTTR:        intPtr(2000 - i*10),
		})
		entrants = append(entrants, &models.Entrant{
			Competition:    models.CompetitionSingles,
			Class:          "Open",
			Seeding:        intPtr(i + 1),
			AmountOfGroups: 2,
			A:              i + 1,
		})
	}
	entrants = append(entrants,
		&models.Entrant{Competition: models.CompetitionDoubles, Class: "Open", AmountOfGroups: 1, A: 1, B: intPtr(2)},
		&models.Entrant{Competition: models.CompetitionDoubles, Class: "Open", AmountOfGroups: 1, A: 3, B: intPtr(4)},
	)
	return players, entrants
}

func newService(repo repositories.DrawRepository, uploader storage.FileUploader, hub *brackets.Hub) services.DrawService {
	return services.NewDrawService(config.DefaultDrawSettings(), nil, repo, uploader, hub, nil)
}

func TestSplitByClass_OrdersCompetitionsAndKeepsInputOrder(t *testing.T) {
	entrants := []*models.Entrant{
		{Competition: models.CompetitionMixed, Class: "A", A: 1, B: intPtr(2)},
		{Competition: models.CompetitionSingles, Class: "U18", A: 3},
		{Competition: models.CompetitionDoubles, Class: "A", A: 4, B: intPtr(5)},
		{Competition: models.CompetitionSingles, Class: "Open", A: 6},
		{Competition: models.CompetitionSingles, Class: "U18", A: 7},
	}

	classes := services.SplitByClass(entrants)

	var got []string
	for _, c := range classes {
		got = append(got, c.Key)
	}
	require.Equal(t, []string{"S:Open", "S:U18", "D:A", "M:A"}, got)
	require.Equal(t, []*models.Entrant{entrants[1], entrants[4]}, classes[1].Entrants)
}

func TestRunDraw_DrawsEveryClass(t *testing.T) {
	players, entrants := tournament()
	svc := newService(nil, nil, nil)

	run, err := svc.RunDraw(context.Background(), services.DrawInput{Players: players, Entrants: entrants, Seed: int64Ptr(7)})
	require.NoError(t, err)
	require.Equal(t, int64(7), run.Seed)
	require.False(t, run.Archived)
	require.Len(t, run.Classes, 2)

	singles := run.Class("S:Open")
	require.NotNil(t, singles)
	require.Equal(t, []int{4, 4}, singles.Groups.Sizes())
	require.Zero(t, singles.Score)
	require.Equal(t, singles.Log.Len(), singles.Steps)
	require.Len(t, singles.Fixtures, 2)
	require.Len(t, singles.Fixtures[1], 3)

	doubles := run.Class("D:Open")
	require.NotNil(t, doubles)
	require.Equal(t, []int{2}, doubles.Groups.Sizes())
	require.Len(t, doubles.Fixtures[1], 1)

	for _, e := range entrants {
		require.NotZero(t, e.GroupNo)
	}
}

func TestRunDraw_SameSeedSameGroups(t *testing.T) {
	draw := func() [][]string {
		players, entrants := tournament()
		run, err := newService(nil, nil, nil).RunDraw(context.Background(),
			services.DrawInput{Players: players, Entrants: entrants, Seed: int64Ptr(42)})
		require.NoError(t, err)
		var out [][]string
		for _, c := range run.Classes {
			for gi := range c.Groups {
				var keys []string
				for _, e := range c.Groups.Entrants(gi + 1) {
					keys = append(keys, e.Key())
				}
				out = append(out, keys)
			}
		}
		return out
	}
	require.Equal(t, draw(), draw())
}

func TestRunDraw_RejectsInvalidInput(t *testing.T) {
	players, entrants := tournament()
	svc := newService(nil, nil, nil)

	_, err := svc.RunDraw(context.Background(), services.DrawInput{Players: players})
	require.ErrorIs(t, err, services.ErrValidationFailed)

	dup := append([]*models.Player{{StartNumber: 1}}, players...)
	_, err = svc.RunDraw(context.Background(), services.DrawInput{Players: dup, Entrants: entrants})
	require.ErrorIs(t, err, services.ErrValidationFailed)
	require.ErrorIs(t, err, models.ErrDuplicatePlayer)

	unknown := append(entrants, &models.Entrant{Competition: models.CompetitionSingles, Class: "Open", AmountOfGroups: 2, A: 99})
	_, err = svc.RunDraw(context.Background(), services.DrawInput{Players: players, Entrants: unknown})
	require.ErrorIs(t, err, services.ErrUnknownPlayer)
}

func TestRunDraw_ArchivesUploadsAndAnnounces(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := newFakeDrawRepo()
	uploader := &fakeUploader{}
	hub := brackets.NewHub(nil)
	go hub.Run(ctx)

	players, entrants := tournament()
	svc := newService(repo, uploader, hub)

	run, err := svc.RunDraw(ctx, services.DrawInput{Players: players, Entrants: entrants, Seed: int64Ptr(3)})
	require.NoError(t, err)
	require.True(t, run.Archived)
	require.Contains(t, repo.runs, run.ID)

	key := storage.ExportKey(run.ID.String())
	require.NotNil(t, run.Export)
	require.Equal(t, key, run.Export.Key)
	csv := string(uploader.objects[key])
	require.True(t, strings.HasPrefix(csv, "S_D_M;class;"))
	require.Equal(t, 1+len(entrants), strings.Count(csv, "\n"))

	// a client joining the run's room receives bracket events for it
	client := &brackets.Client{Hub: hub, Send: make(chan []byte, 4), Room: brackets.DrawRoom(run.ID.String())}
	hub.Register <- client
	require.Eventually(t, func() bool { return hub.RoomSize(client.Room) == 1 }, time.Second, 10*time.Millisecond)

	for _, e := range entrants[:4] {
		e.MainRound = true
		e.GroupPos = intPtr(e.A)
	}
	_, err = svc.BuildBrackets(ctx, services.BracketInput{Players: players, Entrants: entrants, RunID: run.ID.String()})
	require.NoError(t, err)

	var msg struct {
		Type   string `json:"type"`
		RoomID string `json:"room_id"`
	}
	select {
	case raw := <-client.Send:
		require.NoError(t, json.Unmarshal(raw, &msg))
	case <-time.After(time.Second):
		t.Fatal("no bracket event received")
	}
	require.Equal(t, brackets.EventBracketBuilt, msg.Type)
	require.Equal(t, client.Room, msg.RoomID)
}

func TestRunDraw_ArchiveFailureFailsRun(t *testing.T) {
	repo := newFakeDrawRepo()
	repo.saveErr = errors.New("connection refused")
	players, entrants := tournament()

	_, err := newService(repo, nil, nil).RunDraw(context.Background(), services.DrawInput{Players: players, Entrants: entrants})
	require.ErrorContains(t, err, "connection refused")
}

func TestRunDraw_UploadFailureKeepsRun(t *testing.T) {
	players, entrants := tournament()
	svc := newService(nil, &fakeUploader{err: errors.New("bucket missing")}, nil)

	run, err := svc.RunDraw(context.Background(), services.DrawInput{Players: players, Entrants: entrants})
	require.NoError(t, err)
	require.Nil(t, run.Export)

	got, err := svc.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	require.Same(t, run, got)
}

func TestGetRun_FallsBackToArchive(t *testing.T) {
	repo := newFakeDrawRepo()
	players, entrants := tournament()
	run, err := newService(repo, nil, nil).RunDraw(context.Background(),
		services.DrawInput{Players: players, Entrants: entrants, Seed: int64Ptr(5)})
	require.NoError(t, err)

	// a fresh service only knows the run through the archive
	svc := newService(repo, nil, nil)
	archived, err := svc.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	require.True(t, archived.Archived)
	require.Equal(t, run.Seed, archived.Seed)
	for _, c := range run.Classes {
		ac := archived.Class(c.Key)
		require.NotNil(t, ac)
		for gi := range c.Groups {
			var want, got []string
			for _, e := range c.Groups.Entrants(gi + 1) {
				want = append(want, e.Key())
			}
			for _, e := range ac.Groups.Entrants(gi + 1) {
				got = append(got, e.Key())
			}
			require.Equal(t, want, got)
		}
	}

	_, err = svc.Snapshot(context.Background(), run.ID, "S:Open", 0)
	require.ErrorIs(t, err, services.ErrSnapshotsUnavailable)

	data, err := svc.Export(context.Background(), run.ID)
	require.NoError(t, err)
	require.Equal(t, 1+len(entrants), bytes.Count(data, []byte("\n")))

	_, err = svc.GetRun(context.Background(), uuid.New())
	require.ErrorIs(t, err, services.ErrDrawNotFound)
}

func TestSnapshot_ReplaysSteps(t *testing.T) {
	players, entrants := tournament()
	svc := newService(nil, nil, nil)
	run, err := svc.RunDraw(context.Background(), services.DrawInput{Players: players, Entrants: entrants, Seed: int64Ptr(11)})
	require.NoError(t, err)
	class := run.Class("S:Open")

	first, err := svc.Snapshot(context.Background(), run.ID, "S:Open", 0)
	require.NoError(t, err)
	require.Equal(t, class.Steps, first.Total)
	require.Equal(t, groups.ActionAdd, first.Entry.Action)
	require.Nil(t, first.PreviousBoundary)
	require.NotNil(t, first.NextBoundary)

	last, err := svc.Snapshot(context.Background(), run.ID, "S:Open", class.Steps-1)
	require.NoError(t, err)
	require.True(t, last.Groups.Compact().Equal(class.Groups))
	require.Nil(t, last.NextBoundary)

	_, err = svc.Snapshot(context.Background(), run.ID, "S:Open", class.Steps)
	require.ErrorIs(t, err, groups.ErrSnapshotIndex)

	_, err = svc.Snapshot(context.Background(), run.ID, "S:U11", 0)
	require.ErrorIs(t, err, services.ErrClassNotFound)
}

func TestListRuns_InMemoryNewestFirst(t *testing.T) {
	svc := newService(nil, nil, nil)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		players, entrants := tournament()
		run, err := svc.RunDraw(context.Background(), services.DrawInput{Players: players, Entrants: entrants})
		require.NoError(t, err)
		ids = append(ids, run.ID)
		time.Sleep(2 * time.Millisecond)
	}

	summaries, err := svc.ListRuns(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, ids[2], summaries[0].ID)
	require.Equal(t, ids[1], summaries[1].ID)
	require.Equal(t, []string{"S:Open", "D:Open"}, summaries[0].ClassKeys)
}

func TestBuildBrackets_UsesQualifiedEntrants(t *testing.T) {
	players, entrants := tournament()
	for i, e := range entrants[:8] {
		e.GroupNo = i%2 + 1
		e.GroupPos = intPtr(i/2 + 1)
		e.MainRound = i < 6
	}
	svc := newService(nil, nil, nil)

	out, err := svc.BuildBrackets(context.Background(), services.BracketInput{Players: players, Entrants: entrants, Seed: int64Ptr(1)})
	require.NoError(t, err)
	require.Len(t, out, 1, "doubles have no qualified entrants")
	require.Equal(t, "S:Open", out[0].Key)
	require.Equal(t, 8, out[0].Bracket.Size)
	require.Equal(t, 2, out[0].Bracket.Byes)

	_, err = svc.BuildBrackets(context.Background(), services.BracketInput{Players: players, Entrants: entrants[8:]})
	require.ErrorIs(t, err, services.ErrValidationFailed)
}

func TestDeleteRun(t *testing.T) {
	repo := newFakeDrawRepo()
	uploader := &fakeUploader{}
	svc := newService(repo, uploader, nil)
	players, entrants := tournament()

	run, err := svc.RunDraw(context.Background(), services.DrawInput{Players: players, Entrants: entrants})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRun(context.Background(), run.ID))
	require.NotContains(t, repo.runs, run.ID)
	require.Equal(t, []string{storage.ExportKey(run.ID.String())}, uploader.deleted)

	_, err = svc.GetRun(context.Background(), run.ID)
	require.ErrorIs(t, err, services.ErrDrawNotFound)
	require.ErrorIs(t, svc.DeleteRun(context.Background(), run.ID), services.ErrDrawNotFound)
}
