package cli

import (
	"fmt"
	"os"
)

// PrintHelp prints the top-level help message.
func PrintHelp() {
	fmt.Fprint(os.Stdout, `policyopt - LLM-driven policy optimization for RTGS liquidity queues

USAGE:
    policyopt <command> [arguments]

COMMANDS:
    run <experiment.yaml>      Run an optimization experiment to convergence
    validate <experiment.yaml> Load and validate an experiment without running it
    info <experiment.yaml>     Print a human-readable summary of an experiment
    list <directory>           List experiment YAML files in a directory
    replay <run_id>            Replay a completed run's recorded iterations
    results                    List runs recorded in a database

Run "policyopt <command> -h" for command-specific flags.

EXIT CODES:
    0    success
    1    config or file error
    2    validation failure
    130  interrupted (SIGINT/SIGTERM)
`)
}

// PrintRunHelp prints help for "policyopt run".
func PrintRunHelp() {
	fmt.Fprint(os.Stdout, `policyopt run <experiment.yaml> [flags]

FLAGS:
    --model PROVIDER:MODEL   override experiment.llm.model
    --seed N                 override experiment.master_seed
    --db PATH                override experiment.output.database
    --dry-run                load and validate without running
    --verbose AREAS          comma-separated areas: iterations,bootstrap,llm,policy
                             (parsed; run prints no extra trace output for them)
`)
}

// PrintReplayHelp prints help for "policyopt replay".
func PrintReplayHelp() {
	fmt.Fprint(os.Stdout, `policyopt replay <run_id> --db PATH [flags]

FLAGS:
    --db PATH       path to the run's SQLite database (required)
    --audit         include LLM audit interactions in the replay
    --start I       first iteration to replay (default: 0)
    --end I         last iteration to replay (default: last)
`)
}

// PrintResultsHelp prints help for "policyopt results".
func PrintResultsHelp() {
	fmt.Fprint(os.Stdout, `policyopt results --db PATH [flags]

FLAGS:
    --db PATH           path to a SQLite database (required)
    --experiment NAME   filter to one experiment name
    --limit N           maximum number of runs to list (default: 20)
`)
}
