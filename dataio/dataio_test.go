package dataio_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Dosada05/tournament-draw/dataio"
	"github.com/Dosada05/tournament-draw/models"
	"github.com/stretchr/testify/require"
)

const playersCSV = `start_number;last_name;first_name;country;base;gender
1;Muster;Max;GER;Berlin;m
2;Doe;Jane;USA;;f;1820
3;Dupont;Luc;FRA;none;m;
`

const drawCSV = `competition;competition_class;amount_of_groups;seeding;group_no;group_pos;main_round;consolation_round;start_number_a;start_number_b
S;Open;2;1;;;;;1;
s;Open;2;;1;2;1;0;2;
D;Open;1;3;;;x;;1;2
`

func TestReadPlayers(t *testing.T) {
	players, err := dataio.ReadPlayers(strings.NewReader(playersCSV))
	require.NoError(t, err)
	require.Len(t, players, 3)

	require.Equal(t, &models.Player{StartNumber: 1, LastName: "Muster", FirstName: "Max", Country: "GER", Base: "Berlin", Gender: "m"}, players[0])
	require.NotNil(t, players[1].QTTR)
	require.Equal(t, 1820, *players[1].QTTR)
	require.False(t, players[1].HasBase())
	require.Nil(t, players[2].QTTR)
	require.False(t, players[2].HasBase())
}

func TestReadDrawData(t *testing.T) {
	entrants, err := dataio.ReadDrawData(strings.NewReader(drawCSV))
	require.NoError(t, err)
	require.Len(t, entrants, 3)

	first := entrants[0]
	require.Equal(t, models.CompetitionSingles, first.Competition)
	require.Equal(t, "Open", first.Class)
	require.Equal(t, 2, first.AmountOfGroups)
	require.Equal(t, 1, *first.Seeding)
	require.Zero(t, first.GroupNo)
	require.Nil(t, first.GroupPos)
	require.False(t, first.MainRound)
	require.Nil(t, first.B)

	second := entrants[1]
	require.Equal(t, models.CompetitionSingles, second.Competition)
	require.Nil(t, second.Seeding)
	require.Equal(t, 1, second.GroupNo)
	require.Equal(t, 2, *second.GroupPos)
	require.True(t, second.MainRound)
	require.False(t, second.ConsolationRound)

	team := entrants[2]
	require.True(t, team.IsTeam())
	require.Equal(t, "1/2", team.Key())
	require.True(t, team.MainRound)
}

func TestRead_MalformedRows(t *testing.T) {
	_, err := dataio.ReadPlayers(strings.NewReader("header\nx;Doe;Jane;USA;;f\n"))
	require.ErrorIs(t, err, dataio.ErrMalformedRow)
	require.Contains(t, err.Error(), "line 2")

	_, err = dataio.ReadPlayers(strings.NewReader("header\n1;Doe;Jane\n"))
	require.ErrorIs(t, err, dataio.ErrMalformedRow)

	_, err = dataio.ReadDrawData(strings.NewReader("header\nS;Open;two;1;;;;;1;\n"))
	require.ErrorIs(t, err, dataio.ErrMalformedRow)
	require.Contains(t, err.Error(), "amount_of_groups")
}

func TestRead_HeaderOnly(t *testing.T) {
	players, err := dataio.ReadPlayers(strings.NewReader("start_number;last_name;first_name;country;base;gender\n"))
	require.NoError(t, err)
	require.Empty(t, players)
}

func TestWriteGroups(t *testing.T) {
	players, err := dataio.ReadPlayers(strings.NewReader(playersCSV))
	require.NoError(t, err)
	reg, err := models.NewRegistry(players)
	require.NoError(t, err)

	seed := 1
	pos := 1
	single := &models.Entrant{Competition: models.CompetitionSingles, Class: "Open", Seeding: &seed, A: 1, GroupPos: &pos, MainRound: true}
	other := &models.Entrant{Competition: models.CompetitionSingles, Class: "Open", A: 3}
	b := 2
	team := &models.Entrant{Competition: models.CompetitionDoubles, Class: "Open", A: 1, B: &b}

	var buf bytes.Buffer
	err = dataio.WriteGroups(&buf, reg, []dataio.ClassGroups{
		{
			Competition: models.CompetitionSingles,
			Class:       "Open",
			Groups:      models.Partition{{models.Occupied(single), models.Empty}, {models.Occupied(other)}},
			DrawNumbers: map[string]int{"1": 1},
		},
		{
			Competition: models.CompetitionDoubles,
			Class:       "Open",
			Groups:      models.Partition{{models.Occupied(team)}},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, []string{
		"S_D_M;class;seeding;group_no;group_pos;for_main_round;for_consolation;draw_number;startnumber_A;last_name_A;country_A;PPP_chapter_A;startnumber_B;last_name_B;country_B;PPP_chapter_B",
		"S;Open;1;1;1;1;;1;1;Muster;GER;Berlin;;;;",
		"S;Open;;2;;;;;3;Dupont;FRA;none;;;;",
		"D;Open;;1;;;;;1;Muster;GER;Berlin;2;Doe;USA;",
	}, lines)
}
