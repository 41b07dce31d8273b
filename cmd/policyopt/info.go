package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/lookatitude/policyopt/cmd/policyopt/internal/cli"
	"github.com/lookatitude/policyopt/config"
)

func infoCmd(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "policyopt info: missing <experiment.yaml> argument")
		return cli.ExitConfigOrFileError
	}

	cfg, err := config.LoadExperiment(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "policyopt info: %v\n", err)
		return cli.ExitConfigOrFileError
	}

	fmt.Printf("Name:              %s\n", cfg.Name)
	if cfg.Description != "" {
		fmt.Printf("Description:       %s\n", cfg.Description)
	}
	fmt.Printf("Scenario:          %s\n", cfg.ScenarioPath)
	fmt.Printf("Optimized agents:  %s\n", strings.Join(cfg.OptimizedAgents, ", "))
	fmt.Printf("Evaluation mode:   %s (num_samples=%d, ticks=%d)\n",
		cfg.Evaluation.Mode, cfg.Evaluation.NumSamples, cfg.Evaluation.Ticks)
	fmt.Printf("Convergence:       max_iterations=%d stability_window=%d stability_threshold=%v improvement_threshold=%v\n",
		cfg.Convergence.MaxIterations, cfg.Convergence.StabilityWindow,
		cfg.Convergence.StabilityThreshold, cfg.Convergence.ImprovementThreshold)
	fmt.Printf("LLM model:         %s\n", cfg.LLM.Model)
	fmt.Printf("Master seed:       %d\n", cfg.MasterSeed)
	fmt.Printf("Output database:   %s\n", cfg.Output.Database)
	return cli.ExitOK
}
