package services

import (
	"sort"

	"github.com/Dosada05/tournament-draw/models"
	"github.com/Dosada05/tournament-draw/repositories"
)

// RunSummary is the DRAW_COMPLETED event payload.
type RunSummary struct {
	repositories.DrawRunSummary
	Export string `json:"export,omitempty"`
}

func toRecord(run *DrawRun) *repositories.DrawRunRecord {
	rec := &repositories.DrawRunRecord{
		ID:        run.ID,
		Seed:      run.Seed,
		CreatedAt: run.CreatedAt,
		Classes:   make([]*repositories.ClassRecord, 0, len(run.Classes)),
	}
	for _, c := range run.Classes {
		cr := &repositories.ClassRecord{
			Competition: c.Competition,
			Class:       c.Class,
			NumGroups:   c.NumGroups,
			Score:       c.Score,
		}
		for gi, group := range c.Groups {
			pos := 0
			for _, s := range group {
				if !s.IsEntrant() {
					continue
				}
				cr.Assignments = append(cr.Assignments, repositories.AssignmentRecord{
					GroupNo:      gi + 1,
					Position:     pos,
					Seeding:      s.Entrant.Seeding,
					StartNumberA: s.Entrant.A,
					StartNumberB: s.Entrant.B,
				})
				pos++
			}
		}
		rec.Classes = append(rec.Classes, cr)
	}
	return rec
}

// fromRecord rebuilds an archived run. Archived runs carry neither a step log
// nor player details.
func fromRecord(rec *repositories.DrawRunRecord) *DrawRun {
	run := &DrawRun{
		ID:        rec.ID,
		Seed:      rec.Seed,
		CreatedAt: rec.CreatedAt,
		Archived:  true,
	}
	for _, cr := range rec.Classes {
		assignments := make([]repositories.AssignmentRecord, len(cr.Assignments))
		copy(assignments, cr.Assignments)
		sort.SliceStable(assignments, func(i, j int) bool {
			if assignments[i].GroupNo != assignments[j].GroupNo {
				return assignments[i].GroupNo < assignments[j].GroupNo
			}
			return assignments[i].Position < assignments[j].Position
		})

		partition := make(models.Partition, cr.NumGroups)
		for i := range partition {
			partition[i] = []models.Slot{}
		}
		for _, a := range assignments {
			if a.GroupNo < 1 || a.GroupNo > cr.NumGroups {
				continue
			}
			e := &models.Entrant{
				Competition:    cr.Competition,
				Class:          cr.Class,
				Seeding:        a.Seeding,
				AmountOfGroups: cr.NumGroups,
				A:              a.StartNumberA,
				B:              a.StartNumberB,
				GroupNo:        a.GroupNo,
			}
			partition[a.GroupNo-1] = append(partition[a.GroupNo-1], models.Occupied(e))
		}

		run.Classes = append(run.Classes, &ClassResult{
			Key:         models.ClassKey(cr.Competition, cr.Class),
			Competition: cr.Competition,
			Class:       cr.Class,
			NumGroups:   cr.NumGroups,
			Groups:      partition,
			Score:       cr.Score,
		})
	}
	sort.SliceStable(run.Classes, func(i, j int) bool {
		a, b := run.Classes[i], run.Classes[j]
		if a.Competition.Order() != b.Competition.Order() {
			return a.Competition.Order() < b.Competition.Order()
		}
		return a.Class < b.Class
	})
	return run
}

func summaryOf(run *DrawRun) repositories.DrawRunSummary {
	summary := repositories.DrawRunSummary{
		ID:        run.ID,
		Seed:      run.Seed,
		CreatedAt: run.CreatedAt,
		ClassKeys: make([]string, 0, len(run.Classes)),
	}
	for _, c := range run.Classes {
		summary.ClassKeys = append(summary.ClassKeys, c.Key)
		summary.TotalScore += c.Score
	}
	return summary
}

func summarize(run *DrawRun) RunSummary {
	out := RunSummary{DrawRunSummary: summaryOf(run)}
	if run.Export != nil {
		out.Export = run.Export.Location
	}
	return out
}
