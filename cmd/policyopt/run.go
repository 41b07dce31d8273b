package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lookatitude/policyopt/cmd/policyopt/internal/cli"
	"github.com/lookatitude/policyopt/config"
	"github.com/lookatitude/policyopt/evaluator"
	"github.com/lookatitude/policyopt/llmclient"
	"github.com/lookatitude/policyopt/llmcontext"
	"github.com/lookatitude/policyopt/o11y"
	"github.com/lookatitude/policyopt/optimize"
	"github.com/lookatitude/policyopt/schema"
	"github.com/lookatitude/policyopt/simulator"
	"github.com/lookatitude/policyopt/state/sqlite"
)

func runCmd(ctx context.Context, logger *o11y.Logger, args []string) int {
	rc, err := cli.ParseRun(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "policyopt run: %v\n", err)
		cli.PrintRunHelp()
		return cli.ExitConfigOrFileError
	}

	cfg, err := config.LoadExperiment(rc.ExperimentPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "policyopt run: %v\n", err)
		return cli.ExitConfigOrFileError
	}
	if rc.Model != "" {
		cfg.LLM.Model = rc.Model
	}
	if rc.SeedSet {
		cfg.MasterSeed = rc.Seed
	}
	if rc.DB != "" {
		cfg.Output.Database = rc.DB
	}

	if rc.DryRun {
		logger.Info(ctx, "experiment validated, dry-run requested", "name", cfg.Name)
		return cli.ExitOK
	}

	client, err := resolveClient(cfg.LLM.Model, cfg.LLM.MaxRetries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "policyopt run: %v\n", err)
		return cli.ExitConfigOrFileError
	}
	audited := llmclient.NewAuditCapture(client)

	db, err := sqlite.Open(cfg.Output.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "policyopt run: %v\n", err)
		return cli.ExitConfigOrFileError
	}
	defer db.Close()

	runID := optimize.NewRunID()
	store, err := sqlite.NewLive(db, runID, cfg.Name, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "policyopt run: %v\n", err)
		return cli.ExitConfigOrFileError
	}

	sim := simulator.NewReference()
	ev := evaluator.New(sim, cfg.ScenarioPath, cfg.Evaluation.Mode)
	builder := llmcontext.New(cfg.Evaluation.Mode)

	loop := optimize.New(cfg, ev, builder, audited, store, nil)

	logger.Info(ctx, "starting optimization run", "run_id", runID, "name", cfg.Name,
		"agents", strings.Join(cfg.OptimizedAgents, ","))

	result, err := loop.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "policyopt run: %v\n", err)
		return 1
	}

	logger.Info(ctx, "optimization run finished",
		"run_id", result.RunID, "state", string(result.State),
		"iterations", result.NumIterations, "converged", result.Converged,
		"reason", result.ConvergenceReason)

	if result.State == schema.RunAborted {
		return cli.ExitInterrupted
	}
	return cli.ExitOK
}

// resolveClient builds the LLM client named by modelSpec ("provider:model"),
// reading that provider's API key from its LLM_<PROVIDER>_API_KEY
// environment variable at run start only, per spec.md §6. maxRetries carries
// the experiment's llm.max_retries through to the provider's retry policy.
func resolveClient(modelSpec string, maxRetries int) (llmclient.Client, error) {
	provider, _, ok := strings.Cut(modelSpec, ":")
	if !ok {
		return nil, fmt.Errorf("llm.model %q is not in \"provider:model\" form", modelSpec)
	}
	envVar := "LLM_" + strings.ToUpper(provider) + "_API_KEY"
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s is not set", envVar)
	}
	return llmclient.New(modelSpec, config.ProviderConfig{Provider: provider, APIKey: apiKey, MaxRetries: maxRetries})
}
