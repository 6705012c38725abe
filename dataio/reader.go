// Package dataio reads and writes the semicolon separated files exchanged with
// the tournament office: players.csv, draw_input.csv and the draw export.
package dataio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-draw/models"
)

var ErrMalformedRow = errors.New("malformed row")

const separator = ';'

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = separator
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

// readRows returns every record after the header together with its line number.
func readRows(r io.Reader, minFields int, row func(line int, fields []string) error) error {
	cr := newReader(r)
	header := true
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedRow, err)
		}
		if header {
			header = false
			continue
		}
		line, _ := cr.FieldPos(0)
		if len(fields) < minFields {
			return fmt.Errorf("%w: line %d has %d fields, want %d", ErrMalformedRow, line, len(fields), minFields)
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if err := row(line, fields); err != nil {
			return err
		}
	}
}

// ReadPlayers parses start_number;last_name;first_name;country;base;gender
// with an optional trailing qttr column.
func ReadPlayers(r io.Reader) ([]*models.Player, error) {
	var players []*models.Player
	err := readRows(r, 6, func(line int, f []string) error {
		startNumber, err := parseInt(line, "start_number", f[0])
		if err != nil {
			return err
		}
		p := &models.Player{
			StartNumber: startNumber,
			LastName:    f[1],
			FirstName:   f[2],
			Country:     f[3],
			Base:        f[4],
			Gender:      f[5],
		}
		if len(f) > 6 {
			if p.QTTR, err = parseOptionalInt(line, "qttr", f[6]); err != nil {
				return err
			}
		}
		players = append(players, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return players, nil
}

// ReadDrawData parses competition;competition_class;amount_of_groups;seeding;
// group_no;group_pos;main_round;consolation_round;start_number_a;start_number_b.
func ReadDrawData(r io.Reader) ([]*models.Entrant, error) {
	var entrants []*models.Entrant
	err := readRows(r, 10, func(line int, f []string) error {
		e := &models.Entrant{
			Competition:      models.Competition(strings.ToUpper(f[0])),
			Class:            f[1],
			MainRound:        parseFlag(f[6]),
			ConsolationRound: parseFlag(f[7]),
		}
		var err error
		if e.AmountOfGroups, err = parseInt(line, "amount_of_groups", f[2]); err != nil {
			return err
		}
		if e.Seeding, err = parseOptionalInt(line, "seeding", f[3]); err != nil {
			return err
		}
		groupNo, err := parseOptionalInt(line, "group_no", f[4])
		if err != nil {
			return err
		}
		if groupNo != nil {
			e.GroupNo = *groupNo
		}
		if e.GroupPos, err = parseOptionalInt(line, "group_pos", f[5]); err != nil {
			return err
		}
		if e.A, err = parseInt(line, "start_number_a", f[8]); err != nil {
			return err
		}
		if e.B, err = parseOptionalInt(line, "start_number_b", f[9]); err != nil {
			return err
		}
		entrants = append(entrants, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entrants, nil
}

func parseInt(line int, column, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d column %s: %q is not a number", ErrMalformedRow, line, column, s)
	}
	return v, nil
}

func parseOptionalInt(line int, column, s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := parseInt(line, column, s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseFlag treats any marker except an empty cell, 0, false or no as set.
func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "", "0", "false", "no", "n":
		return false
	}
	return true
}
