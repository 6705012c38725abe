package dataio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Dosada05/tournament-draw/models"
)

var exportHeader = []string{
	"S_D_M", "class", "seeding", "group_no", "group_pos", "for_main_round", "for_consolation", "draw_number",
	"startnumber_A", "last_name_A", "country_A", "PPP_chapter_A",
	"startnumber_B", "last_name_B", "country_B", "PPP_chapter_B",
}

// ClassGroups is the drawn partition of one competition class.
type ClassGroups struct {
	Competition models.Competition
	Class       string
	Groups      models.Partition
	// DrawNumbers maps an entrant key to its bracket position, if a bracket was built.
	DrawNumbers map[string]int
}

// WriteGroups writes one export row per entrant, classes in the given order
// and entrants in group and slot order.
func WriteGroups(w io.Writer, reg *models.Registry, classes []ClassGroups) error {
	cw := csv.NewWriter(w)
	cw.Comma = separator
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}

	for _, c := range classes {
		for gi, group := range c.Groups {
			for _, s := range group {
				if !s.IsEntrant() {
					continue
				}
				if err := cw.Write(exportRow(reg, c, gi+1, s.Entrant)); err != nil {
					return fmt.Errorf("write export row %s: %w", s.Entrant.Key(), err)
				}
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	return nil
}

func exportRow(reg *models.Registry, c ClassGroups, groupNo int, e *models.Entrant) []string {
	a, b := e.Members(reg)
	row := []string{
		string(c.Competition),
		c.Class,
		optionalInt(e.Seeding),
		strconv.Itoa(groupNo),
		optionalInt(e.GroupPos),
		flag(e.MainRound),
		flag(e.ConsolationRound),
		"",
	}
	if n, ok := c.DrawNumbers[e.Key()]; ok {
		row[7] = strconv.Itoa(n)
	}
	row = append(row, playerColumns(e.A, a)...)
	if e.B != nil {
		row = append(row, playerColumns(*e.B, b)...)
	} else {
		row = append(row, "", "", "", "")
	}
	return row
}

func playerColumns(startNumber int, p *models.Player) []string {
	if p == nil {
		return []string{strconv.Itoa(startNumber), "", "", ""}
	}
	return []string{strconv.Itoa(startNumber), p.LastName, p.Country, p.Base}
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func flag(v bool) string {
	if v {
		return "1"
	}
	return ""
}
