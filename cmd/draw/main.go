// Command draw runs the group draw offline: it reads players.csv and
// draw_input.csv from INPUT_DIR and writes the groups to OUTPUT_FILE.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Dosada05/tournament-draw/config"
	"github.com/Dosada05/tournament-draw/dataio"
	"github.com/Dosada05/tournament-draw/services"
)

func main() {
	if err := run(); err != nil {
		slog.Error("draw failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	seed := flag.Int64("seed", 0, "random seed; 0 keeps DRAW_RANDOM_SEED or a time based seed")
	inputDir := flag.String("input", cfg.InputDir, "directory holding players.csv and draw_input.csv")
	outputFile := flag.String("output", cfg.OutputFile, "CSV file the groups are written to")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	players, err := readCSV(filepath.Join(*inputDir, "players.csv"), dataio.ReadPlayers)
	if err != nil {
		return err
	}
	entrants, err := readCSV(filepath.Join(*inputDir, "draw_input.csv"), dataio.ReadDrawData)
	if err != nil {
		return err
	}
	logger.Info("input loaded", slog.Int("players", len(players)), slog.Int("entrants", len(entrants)))

	input := services.DrawInput{Players: players, Entrants: entrants}
	if *seed != 0 {
		input.Seed = seed
	}

	svc := services.NewDrawService(cfg.Draw, cfg.RandomSeed, nil, nil, nil, logger)
	drawRun, err := svc.RunDraw(context.Background(), input)
	if err != nil {
		return err
	}
	for _, c := range drawRun.Classes {
		logger.Info("class drawn",
			slog.String("class", c.Key),
			slog.Any("sizes", c.Groups.Sizes()),
			slog.Int("score", c.Score),
			slog.Int("steps", c.Steps))
	}

	data, err := svc.Export(context.Background(), drawRun.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(*outputFile), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(*outputFile, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *outputFile, err)
	}
	logger.Info("groups written", slog.String("file", *outputFile), slog.Int64("seed", drawRun.Seed))
	return nil
}

func readCSV[T any](path string, read func(r io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
