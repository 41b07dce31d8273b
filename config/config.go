package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lookatitude/policyopt/core"
	"github.com/lookatitude/policyopt/schema"
)

// LoadExperiment reads an experiment YAML document from path, validates it
// against the ranges and cross-field invariants from spec.md §3, resolves
// system_prompt_file and constraints_module, and returns the immutable
// ExperimentConfig. It never guesses at a missing or malformed field --
// every failure is a *core-compatible error describing exactly which field
// is wrong.
func LoadExperiment(path string) (*schema.ExperimentConfig, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, core.NewError("config.LoadExperiment", core.ErrConfigInvalid, fmt.Sprintf("resolve path %q", path), err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, core.NewError("config.LoadExperiment", core.ErrConfigInvalid, fmt.Sprintf("read %q", abs), err)
	}

	var cfg schema.ExperimentConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, core.NewError("config.LoadExperiment", core.ErrConfigInvalid, fmt.Sprintf("parse %q", abs), err)
	}
	cfg.SetSourcePath(abs)

	if err := resolveSystemPrompt(&cfg); err != nil {
		return nil, err
	}
	if err := resolveConstraints(&cfg); err != nil {
		return nil, err
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func resolveSystemPrompt(cfg *schema.ExperimentConfig) error {
	dir := filepath.Dir(cfg.SourcePath())
	switch {
	case cfg.LLM.SystemPrompt != "" && cfg.LLM.SystemPromptFile != "":
		return core.NewError("config.resolveSystemPrompt", core.ErrConfigInvalid, "llm.system_prompt and llm.system_prompt_file are mutually exclusive", nil)
	case cfg.LLM.SystemPromptFile != "":
		p := cfg.LLM.SystemPromptFile
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return core.NewError("config.resolveSystemPrompt", core.ErrConfigInvalid, fmt.Sprintf("read llm.system_prompt_file %q", p), err)
		}
		cfg.ResolvedSystemPrompt = string(b)
	default:
		cfg.ResolvedSystemPrompt = cfg.LLM.SystemPrompt
	}
	return nil
}

func resolveConstraints(cfg *schema.ExperimentConfig) error {
	switch {
	case cfg.PolicyConstraints != nil && cfg.ConstraintsModule != "":
		return core.NewError("config.resolveConstraints", core.ErrConfigInvalid, "policy_constraints and constraints_module are mutually exclusive", nil)
	case cfg.ConstraintsModule != "":
		fn, ok := lookupConstraintsModule(cfg.ConstraintsModule)
		if !ok {
			return core.NewError("config.resolveConstraints", core.ErrConfigInvalid, fmt.Sprintf("constraints_module %q is not registered", cfg.ConstraintsModule), nil)
		}
		resolved := fn()
		cfg.PolicyConstraints = &resolved
	case cfg.PolicyConstraints == nil:
		return core.NewError("config.resolveConstraints", core.ErrConfigInvalid, "one of policy_constraints or constraints_module is required", nil)
	}
	return nil
}

// validate checks required fields and the value ranges from spec.md §3.
// Cross-field invariants (system_prompt vs system_prompt_file,
// policy_constraints vs constraints_module) are already enforced by
// resolveSystemPrompt and resolveConstraints by the time validate runs.
func validate(cfg *schema.ExperimentConfig) error {
	const op = "config.validate"

	if cfg.Name == "" {
		return core.NewError(op, core.ErrConfigInvalid, "name is required", nil)
	}
	if cfg.ScenarioPath == "" {
		return core.NewError(op, core.ErrConfigInvalid, "scenario is required", nil)
	}
	if len(cfg.OptimizedAgents) == 0 {
		return core.NewError(op, core.ErrConfigInvalid, "optimized_agents must be non-empty", nil)
	}

	switch cfg.Evaluation.Mode {
	case schema.ModeBootstrap:
		if cfg.Evaluation.NumSamples < 1 {
			return core.NewError(op, core.ErrConfigInvalid, fmt.Sprintf("evaluation.num_samples must be >= 1 for mode %q", cfg.Evaluation.Mode), nil)
		}
	case schema.ModeDeterministicPairwise, schema.ModeDeterministicTemporal:
		// single fixed sample per iteration; num_samples is not consulted.
	default:
		return core.NewError(op, core.ErrConfigInvalid, fmt.Sprintf("evaluation.mode %q is not one of bootstrap, deterministic-pairwise, deterministic-temporal", cfg.Evaluation.Mode), nil)
	}
	if cfg.Evaluation.Ticks < 1 {
		return core.NewError(op, core.ErrConfigInvalid, "evaluation.ticks must be >= 1", nil)
	}

	if cfg.Convergence.MaxIterations < 1 {
		return core.NewError(op, core.ErrConfigInvalid, "convergence.max_iterations must be >= 1", nil)
	}
	if cfg.Convergence.StabilityThreshold < 0 || cfg.Convergence.StabilityThreshold > 1 {
		return core.NewError(op, core.ErrConfigInvalid, fmt.Sprintf("convergence.stability_threshold must be in [0,1], got %v", cfg.Convergence.StabilityThreshold), nil)
	}
	if cfg.Convergence.StabilityWindow < 1 {
		return core.NewError(op, core.ErrConfigInvalid, "convergence.stability_window must be >= 1", nil)
	}
	if cfg.Convergence.ImprovementThreshold < 0 {
		return core.NewError(op, core.ErrConfigInvalid, "convergence.improvement_threshold must be >= 0", nil)
	}

	if cfg.LLM.Model == "" {
		return core.NewError(op, core.ErrConfigInvalid, "llm.model is required", nil)
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return core.NewError(op, core.ErrConfigInvalid, fmt.Sprintf("llm.temperature must be in [0,2], got %v", cfg.LLM.Temperature), nil)
	}
	if cfg.LLM.MaxRetries < 0 {
		return core.NewError(op, core.ErrConfigInvalid, "llm.max_retries must be >= 0", nil)
	}

	return nil
}
