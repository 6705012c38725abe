package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-draw/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

var (
	ErrDrawRunNotFound = errors.New("draw run not found")
	ErrDrawRunConflict = errors.New("draw run already archived")
)

// DrawRunRecord is the archived form of a draw run: the final groups of every
// class, without the step log.
type DrawRunRecord struct {
	ID        uuid.UUID
	Seed      int64
	CreatedAt time.Time
	Classes   []*ClassRecord
}

type ClassRecord struct {
	Competition models.Competition
	Class       string
	NumGroups   int
	Score       int
	Assignments []AssignmentRecord
}

// AssignmentRecord places one entrant at Position (0-based) of group GroupNo.
type AssignmentRecord struct {
	GroupNo      int
	Position     int
	Seeding      *int
	StartNumberA int
	StartNumberB *int
}

type DrawRunSummary struct {
	ID         uuid.UUID `json:"id"`
	Seed       int64     `json:"seed"`
	CreatedAt  time.Time `json:"created_at"`
	ClassKeys  []string  `json:"classes"`
	TotalScore int       `json:"total_score"`
}

type DrawRepository interface {
	SaveRun(ctx context.Context, exec SQLExecutor, run *DrawRunRecord) error
	GetRun(ctx context.Context, id uuid.UUID) (*DrawRunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]DrawRunSummary, error)
	DeleteRun(ctx context.Context, id uuid.UUID) error
}

type postgresDrawRepository struct {
	db *sql.DB
}

func NewPostgresDrawRepository(db *sql.DB) DrawRepository {
	return &postgresDrawRepository{db: db}
}

// SaveRun stores the run with all classes and assignments. Without an
// external transaction it opens and finishes its own.
func (r *postgresDrawRepository) SaveRun(ctx context.Context, exec SQLExecutor, run *DrawRunRecord) (err error) {
	tx, isExternalTx := exec.(*sql.Tx)
	if !isExternalTx {
		tx, err = r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("SaveRun failed to begin transaction: %w", err)
		}
		defer func() {
			if p := recover(); p != nil {
				tx.Rollback()
				panic(p)
			} else if err != nil {
				tx.Rollback()
			} else {
				err = tx.Commit()
			}
		}()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO draw_runs (id, seed, created_at) VALUES ($1, $2, $3)`,
		run.ID, run.Seed, run.CreatedAt)
	if err != nil {
		return handleDrawRunError(err)
	}

	classStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO draw_classes (run_id, competition, class, num_groups, score)
		VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("SaveRun failed to prepare class statement: %w", err)
	}
	defer classStmt.Close()

	assignStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO draw_assignments (run_id, competition, class, group_no, position, seeding, start_number_a, start_number_b)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("SaveRun failed to prepare assignment statement: %w", err)
	}
	defer assignStmt.Close()

	for _, c := range run.Classes {
		if _, err = classStmt.ExecContext(ctx, run.ID, c.Competition, c.Class, c.NumGroups, c.Score); err != nil {
			return fmt.Errorf("SaveRun failed for class %s: %w", models.ClassKey(c.Competition, c.Class), err)
		}
		for _, a := range c.Assignments {
			_, err = assignStmt.ExecContext(ctx, run.ID, c.Competition, c.Class, a.GroupNo, a.Position, a.Seeding, a.StartNumberA, a.StartNumberB)
			if err != nil {
				return fmt.Errorf("SaveRun failed for class %s group %d: %w", models.ClassKey(c.Competition, c.Class), a.GroupNo, err)
			}
		}
	}
	return nil
}

// GetRun loads a run, reading its classes and assignments in parallel.
func (r *postgresDrawRepository) GetRun(ctx context.Context, id uuid.UUID) (*DrawRunRecord, error) {
	run := &DrawRunRecord{ID: id}
	err := r.db.QueryRowContext(ctx, `SELECT seed, created_at FROM draw_runs WHERE id = $1`, id).
		Scan(&run.Seed, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDrawRunNotFound
		}
		return nil, fmt.Errorf("failed to get draw run %s: %w", id, err)
	}

	var classes []*ClassRecord
	assignments := make(map[string][]AssignmentRecord)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.db.QueryContext(gctx, `
			SELECT competition, class, num_groups, score
			FROM draw_classes WHERE run_id = $1
			ORDER BY competition, class`, id)
		if err != nil {
			return fmt.Errorf("failed to list classes of run %s: %w", id, err)
		}
		defer rows.Close()
		for rows.Next() {
			c := &ClassRecord{}
			if err := rows.Scan(&c.Competition, &c.Class, &c.NumGroups, &c.Score); err != nil {
				return fmt.Errorf("failed to scan class of run %s: %w", id, err)
			}
			classes = append(classes, c)
		}
		return rows.Err()
	})
	g.Go(func() error {
		rows, err := r.db.QueryContext(gctx, `
			SELECT competition, class, group_no, position, seeding, start_number_a, start_number_b
			FROM draw_assignments WHERE run_id = $1
			ORDER BY competition, class, group_no, position`, id)
		if err != nil {
			return fmt.Errorf("failed to list assignments of run %s: %w", id, err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				competition models.Competition
				class       string
				a           AssignmentRecord
				seeding     sql.NullInt64
				b           sql.NullInt64
			)
			if err := rows.Scan(&competition, &class, &a.GroupNo, &a.Position, &seeding, &a.StartNumberA, &b); err != nil {
				return fmt.Errorf("failed to scan assignment of run %s: %w", id, err)
			}
			a.Seeding = nullableInt(seeding)
			a.StartNumberB = nullableInt(b)
			key := models.ClassKey(competition, class)
			assignments[key] = append(assignments[key], a)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, c := range classes {
		c.Assignments = assignments[models.ClassKey(c.Competition, c.Class)]
	}
	run.Classes = classes
	return run, nil
}

func (r *postgresDrawRepository) ListRuns(ctx context.Context, limit int) ([]DrawRunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT dr.id, dr.seed, dr.created_at,
		       COALESCE(array_agg(dc.competition || ':' || dc.class ORDER BY dc.competition, dc.class)
		                FILTER (WHERE dc.run_id IS NOT NULL), '{}'),
		       COALESCE(SUM(dc.score), 0)
		FROM draw_runs dr
		LEFT JOIN draw_classes dc ON dc.run_id = dr.id
		GROUP BY dr.id
		ORDER BY dr.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list draw runs: %w", err)
	}
	defer rows.Close()

	runs := make([]DrawRunSummary, 0)
	for rows.Next() {
		var s DrawRunSummary
		if err := rows.Scan(&s.ID, &s.Seed, &s.CreatedAt, pq.Array(&s.ClassKeys), &s.TotalScore); err != nil {
			return nil, fmt.Errorf("failed to scan draw run summary: %w", err)
		}
		runs = append(runs, s)
	}
	return runs, rows.Err()
}

func (r *postgresDrawRepository) DeleteRun(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM draw_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete draw run %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrDrawRunNotFound)
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func handleDrawRunError(err error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrDrawRunConflict
	}
	return fmt.Errorf("failed to insert draw run: %w", err)
}
