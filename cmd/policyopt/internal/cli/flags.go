// Package cli parses policyopt's subcommands and flags and maps results
// onto the exit codes spec.md §6 defines, grounded on
// cmd/test-analyzer/internal/cli's flag-parsing + exit-code pattern.
package cli

import (
	"flag"
	"fmt"
)

// Exit codes, spec.md §6.
const (
	ExitOK                 = 0
	ExitConfigOrFileError  = 1
	ExitValidationFailure  = 2
	ExitInterrupted        = 130
)

// RunConfig holds the flags for "policyopt run".
type RunConfig struct {
	ExperimentPath string
	Model          string
	Seed           uint64
	SeedSet        bool
	DB             string
	DryRun         bool
	VerboseAreas   []string
}

// ParseRun parses "policyopt run <experiment.yaml> [flags]".
func ParseRun(args []string) (*RunConfig, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	cfg := &RunConfig{}

	fs.StringVar(&cfg.Model, "model", "", `override experiment.llm.model, "provider:model"`)
	var seed uint64
	fs.Uint64Var(&seed, "seed", 0, "override experiment.master_seed")
	fs.StringVar(&cfg.DB, "db", "", "override experiment.output.database")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "load and validate the experiment without running it")
	var verbose string
	fs.StringVar(&verbose, "verbose", "", "comma-separated areas: iterations,bootstrap,llm,policy (parsed; run prints no extra trace output for them)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() < 1 {
		return nil, fmt.Errorf("run: missing <experiment.yaml> argument")
	}
	cfg.ExperimentPath = fs.Arg(0)
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return nil, err
	}
	cfg.SeedSet = seedFlagWasSet(fs, "seed")
	cfg.Seed = seed
	cfg.VerboseAreas = splitCSV(verbose)
	return cfg, nil
}

func seedFlagWasSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// ReplayConfig holds the flags for "policyopt replay".
type ReplayConfig struct {
	RunID string
	DB    string
	Audit bool
	Start int
	End   int
}

// ParseReplay parses "policyopt replay <run_id> --db PATH [flags]".
func ParseReplay(args []string) (*ReplayConfig, error) {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	cfg := &ReplayConfig{Start: -1, End: -1}

	fs.StringVar(&cfg.DB, "db", "", "path to the run's SQLite database (required)")
	fs.BoolVar(&cfg.Audit, "audit", false, "include LLM audit interactions in the replay")
	fs.IntVar(&cfg.Start, "start", -1, "first iteration to replay (default: 0)")
	fs.IntVar(&cfg.End, "end", -1, "last iteration to replay (default: last)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() < 1 {
		return nil, fmt.Errorf("replay: missing <run_id> argument")
	}
	cfg.RunID = fs.Arg(0)
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return nil, err
	}
	if cfg.DB == "" {
		return nil, fmt.Errorf("replay: --db is required")
	}
	return cfg, nil
}

// ResultsConfig holds the flags for "policyopt results".
type ResultsConfig struct {
	DB         string
	Experiment string
	Limit      int
}

// ParseResults parses "policyopt results --db PATH [flags]".
func ParseResults(args []string) (*ResultsConfig, error) {
	fs := flag.NewFlagSet("results", flag.ContinueOnError)
	cfg := &ResultsConfig{}

	fs.StringVar(&cfg.DB, "db", "", "path to a SQLite database (required)")
	fs.StringVar(&cfg.Experiment, "experiment", "", "filter to one experiment name")
	fs.IntVar(&cfg.Limit, "limit", 20, "maximum number of runs to list")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.DB == "" {
		return nil, fmt.Errorf("results: --db is required")
	}
	return cfg, nil
}
