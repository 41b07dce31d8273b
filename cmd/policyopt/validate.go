package main

import (
	"fmt"
	"os"

	"github.com/lookatitude/policyopt/cmd/policyopt/internal/cli"
	"github.com/lookatitude/policyopt/config"
)

func validateCmd(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "policyopt validate: missing <experiment.yaml> argument")
		return cli.ExitConfigOrFileError
	}

	cfg, err := config.LoadExperiment(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "policyopt validate: %v\n", err)
		return cli.ExitValidationFailure
	}

	fmt.Printf("%s: valid (%d optimized agent(s), mode=%s, max_iterations=%d)\n",
		cfg.Name, len(cfg.OptimizedAgents), cfg.Evaluation.Mode, cfg.Convergence.MaxIterations)
	return cli.ExitOK
}
