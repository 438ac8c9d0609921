// Package simulate drives a running standings service with a generated
// tournament and checks the standings it serves.
package simulate

import "time"

// Config holds configuration for a simulation.
type Config struct {
	BaseURL       string        // Base URL of the service
	Secret        string        // Token signing secret; empty when auth is off
	Players       int           // Number of players to register
	Teams         int           // Number of teams to split players into
	RunsPerPlayer int           // Runs submitted per player
	Retries       int           // Submissions replayed to exercise idempotency
	Workers       int           // Concurrent submitters
	Timeout       time.Duration // HTTP request timeout
	Seed          uint64        // Seed for generated data
	OutputFile    string        // Optional file receiving the generated runs
	Verbose       bool          // Log every standings row
}

// Stats holds simulation statistics.
type Stats struct {
	RunsGenerated int
	RunsAccepted  int
	RunsFailed    int
	RetriesSame   int
	RowsChecked   int
	StartTime     time.Time
	Duration      time.Duration
}
