package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/lairofevil/standings/internal/simulate"
	"github.com/lairofevil/standings/pkg/logger"
	"github.com/urfave/cli/v2"
)

// Default configuration constants.
const (
	defaultPlayers       = 40
	defaultTeams         = 4
	defaultRunsPerPlayer = 5
	defaultRetries       = 10
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "simulate",
		Usage: "drive a standings service with a generated tournament and verify its standings",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:9080", Usage: "base URL of the service", EnvVars: []string{"LAIR_SIM_URL"}},
			&cli.StringFlag{Name: "secret", Usage: "token signing secret when the service has auth enabled", EnvVars: []string{"LAIR_AUTH_SECRET"}},
			&cli.IntFlag{Name: "players", Value: defaultPlayers, Usage: "number of players"},
			&cli.IntFlag{Name: "teams", Value: defaultTeams, Usage: "number of teams; 0 skips team standings"},
			&cli.IntFlag{Name: "runs", Value: defaultRunsPerPlayer, Usage: "runs per player"},
			&cli.IntFlag{Name: "retries", Value: defaultRetries, Usage: "submissions replayed to check idempotency"},
			&cli.IntFlag{Name: "workers", Value: runtime.NumCPU() * defaultWorkers, Usage: "concurrent submitters"},
			&cli.DurationFlag{Name: "timeout", Value: defaultTimeout, Usage: "HTTP request timeout"},
			&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "seed for generated data"},
			&cli.StringFlag{Name: "output", Usage: "write the generated tournament to this file"},
			&cli.StringFlag{Name: "log-format", Value: "text", Usage: "log format: text or json"},
			&cli.BoolFlag{Name: "verbose", Usage: "log every standings row"},
		},
		Action: func(c *cli.Context) error {
			if err := logger.InitWith(os.Stdout, c.String("log-format")); err != nil {
				return err
			}
			_, err := simulate.Run(c.Context, &simulate.Config{
				BaseURL:       c.String("url"),
				Secret:        c.String("secret"),
				Players:       c.Int("players"),
				Teams:         c.Int("teams"),
				RunsPerPlayer: c.Int("runs"),
				Retries:       c.Int("retries"),
				Workers:       c.Int("workers"),
				Timeout:       c.Duration("timeout"),
				Seed:          c.Uint64("seed"),
				OutputFile:    c.String("output"),
				Verbose:       c.Bool("verbose"),
			})
			return err
		},
	}
}
