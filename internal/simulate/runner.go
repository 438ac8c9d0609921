package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	service "github.com/lairofevil/standings/internal/app"
	"github.com/lairofevil/standings/internal/domain/model"
	"github.com/lairofevil/standings/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// tokenTTL covers a whole simulation.
const tokenTTL = time.Hour

// ErrMismatch is returned when served standings differ from the expected ones.
var ErrMismatch = errors.New("served standings do not match")

// Run seeds the service with a generated tournament, submits every run,
// replays some submissions and verifies the served standings.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Named("simulate")
	stats := &Stats{StartTime: time.Now()}

	client, err := newHTTPClient(cfg, tokenTTL)
	if err != nil {
		return stats, err
	}

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.Int("teams", cfg.Teams),
		logger.Int("runsPerPlayer", cfg.RunsPerPlayer),
		logger.Int("workers", cfg.Workers),
	)

	if err := client.Do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	t, err := Generate(cfg)
	if err != nil {
		return stats, err
	}
	stats.RunsGenerated = len(t.Runs)

	if err := seed(ctx, client, t); err != nil {
		return stats, fmt.Errorf("seeding failed: %w", err)
	}

	accepted, err := submit(ctx, cfg, client, t.Runs, stats)
	if err != nil {
		return stats, fmt.Errorf("submission failed: %w", err)
	}

	if err := replay(ctx, client, t.Runs, accepted, cfg.Retries, stats); err != nil {
		return stats, fmt.Errorf("replay failed: %w", err)
	}

	checks := []bool{false}
	if len(t.Teams) > 0 {
		checks = append(checks, true)
	}
	for _, byTeam := range checks {
		if err := check(ctx, cfg, client, t, byTeam, stats); err != nil {
			return stats, err
		}
	}

	if cfg.OutputFile != "" {
		if err := save(cfg.OutputFile, t); err != nil {
			log.Warn(ctx, "failed to save runs to file", logger.Error(err))
		}
	}

	stats.Duration = time.Since(stats.StartTime)
	log.Info(ctx, "simulation completed",
		logger.Int("runsGenerated", stats.RunsGenerated),
		logger.Int("runsAccepted", stats.RunsAccepted),
		logger.Int("runsFailed", stats.RunsFailed),
		logger.Int("retriesSame", stats.RetriesSame),
		logger.Int("rowsChecked", stats.RowsChecked),
		logger.String("duration", stats.Duration.String()),
	)
	return stats, nil
}

// seed registers players, teams and the round.
func seed(ctx context.Context, c *HTTPClient, t *Tournament) error {
	for _, p := range t.Players {
		if err := c.Do(ctx, http.MethodPut, "/players/"+p.ID, p, nil, http.StatusOK); err != nil {
			return err
		}
	}
	for _, team := range t.Teams {
		if err := c.Do(ctx, http.MethodPut, "/teams/"+team.ID, team, nil, http.StatusOK); err != nil {
			return err
		}
	}
	req := service.CreateRoundRequest{ID: t.RoundID, Name: "Simulated round"}
	return c.Do(ctx, http.MethodPost, "/rounds", req, nil, http.StatusCreated)
}

// submit posts every run with at most cfg.Workers in flight and returns the
// stored run id per submission id.
func submit(ctx context.Context, cfg *Config, c *HTTPClient, runs []Submission, stats *Stats) (map[string]string, error) {
	ids := make([]string, len(runs))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i, s := range runs {
		g.Go(func() error {
			var run model.ScoredRun
			if err := c.Do(gctx, http.MethodPost, "/runs", s, &run, http.StatusCreated); err != nil {
				failed.Add(1)
				var se *StatusError
				if errors.As(err, &se) {
					// A rejected run is counted; the rest keep going.
					logger.Get().Warn(gctx, "run rejected", logger.String("submissionId", s.SubmissionID), logger.Error(err))
					return nil
				}
				return err
			}
			ids[i] = run.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	accepted := make(map[string]string, len(runs))
	for i, s := range runs {
		if ids[i] != "" {
			accepted[s.SubmissionID] = ids[i]
		}
	}
	stats.RunsAccepted = len(accepted)
	stats.RunsFailed = int(failed.Load())
	if stats.RunsFailed > 0 {
		return accepted, fmt.Errorf("%d runs were rejected", stats.RunsFailed)
	}
	return accepted, nil
}

// replay resubmits the first n runs and expects the original run back.
func replay(ctx context.Context, c *HTTPClient, runs []Submission, accepted map[string]string, n int, stats *Stats) error {
	for _, s := range runs[:min(n, len(runs))] {
		var run model.ScoredRun
		if err := c.Do(ctx, http.MethodPost, "/runs", s, &run, http.StatusCreated); err != nil {
			return err
		}
		if run.ID != accepted[s.SubmissionID] {
			return fmt.Errorf("retry of %s stored run %s, want %s", s.SubmissionID, run.ID, accepted[s.SubmissionID])
		}
		stats.RetriesSame++
	}
	return nil
}

// check fetches one standings table and compares it with the local ranking.
func check(ctx context.Context, cfg *Config, c *HTTPClient, t *Tournament, byTeam bool, stats *Stats) error {
	by := service.ByPlayer
	if byTeam {
		by = service.ByTeam
	}
	var view service.StandingsView
	if err := c.Do(ctx, http.MethodGet, "/rounds/"+t.RoundID+"/standings?by="+string(by), nil, &view, http.StatusOK); err != nil {
		return fmt.Errorf("standings retrieval failed: %w", err)
	}
	expected, err := Expected(t, byTeam)
	if err != nil {
		return err
	}
	if err := Compare(expected, view.Rows); err != nil {
		return fmt.Errorf("%w by %s: %w", ErrMismatch, by, err)
	}
	stats.RowsChecked += len(view.Rows)

	if cfg.Verbose {
		for _, r := range view.Rows {
			logger.Get().Info(ctx, "standing",
				logger.String("by", string(by)),
				logger.Int("rank", r.Rank),
				logger.String("subject", r.SubjectID),
				logger.String("name", view.Names[r.SubjectID]),
				logger.Float64("score", r.Score),
			)
		}
	}
	return nil
}

// save writes the generated tournament as JSON.
func save(filename string, t *Tournament) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tournament: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
