package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// EvaluationMode selects how PolicyEvaluator generates and evaluates
// samples for an experiment.
type EvaluationMode string

const (
	// ModeBootstrap evaluates num_samples independent bootstrap samples
	// per iteration step.
	ModeBootstrap EvaluationMode = "bootstrap"
	// ModeDeterministicPairwise evaluates exactly one sample per iteration
	// step, seeded from the master seed, iteration and agent ID.
	ModeDeterministicPairwise EvaluationMode = "deterministic-pairwise"
	// ModeDeterministicTemporal evaluates exactly one sample per iteration
	// step whose seed varies by iteration, tracking a cost history across
	// the run.
	ModeDeterministicTemporal EvaluationMode = "deterministic-temporal"
)

// EvaluationConfig holds the evaluation.* fields of an experiment YAML.
type EvaluationConfig struct {
	Mode       EvaluationMode `yaml:"mode"`
	NumSamples int            `yaml:"num_samples"`
	Ticks      int            `yaml:"ticks"`
}

// ConvergenceConfig holds the convergence.* fields of an experiment YAML.
type ConvergenceConfig struct {
	MaxIterations       int     `yaml:"max_iterations"`
	StabilityThreshold  float64 `yaml:"stability_threshold"`
	StabilityWindow     int     `yaml:"stability_window"`
	ImprovementThreshold float64 `yaml:"improvement_threshold"`
}

// LLMConfig holds the llm.* fields of an experiment YAML. Model is a
// "provider:name" identifier (e.g. "anthropic:claude-sonnet-4-5").
// ThinkingBudget and ReasoningEffort are provider-specific pass-through
// settings (Anthropic extended thinking, OpenAI reasoning effort); exactly
// one, either, or neither may be set, and unrecognized providers simply
// ignore whichever does not apply to them.
type LLMConfig struct {
	Model            string        `yaml:"model"`
	Temperature      float64       `yaml:"temperature"`
	MaxRetries       int           `yaml:"max_retries"`
	Timeout          time.Duration `yaml:"timeout"`
	SystemPrompt     string        `yaml:"system_prompt"`
	SystemPromptFile string        `yaml:"system_prompt_file"`
	ThinkingBudget   int           `yaml:"thinking_budget"`
	ReasoningEffort  string        `yaml:"reasoning_effort"`
}

// OutputConfig holds the output.* fields of an experiment YAML.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Database  string `yaml:"database"`
	Verbose   bool   `yaml:"verbose"`
}

// ExperimentConfig is the immutable, validated representation of an
// experiment YAML document (spec.md §3 ExperimentConfig).
type ExperimentConfig struct {
	Name            string            `yaml:"name"`
	Description     string            `yaml:"description"`
	ScenarioPath    string            `yaml:"scenario"`
	Evaluation      EvaluationConfig  `yaml:"evaluation"`
	Convergence     ConvergenceConfig `yaml:"convergence"`
	LLM             LLMConfig         `yaml:"llm"`
	OptimizedAgents []string          `yaml:"optimized_agents"`

	// Exactly one of PolicyConstraints / ConstraintsModule is set.
	PolicyConstraints *ScenarioConstraints `yaml:"policy_constraints"`
	ConstraintsModule string              `yaml:"constraints_module"`

	Output     OutputConfig `yaml:"output"`
	MasterSeed uint64       `yaml:"master_seed"`

	// ResolvedSystemPrompt is populated by the loader after resolving
	// SystemPrompt / SystemPromptFile; empty when neither was set.
	ResolvedSystemPrompt string `yaml:"-"`

	// sourcePath is the absolute path the YAML was loaded from, used to
	// resolve relative scenario/system-prompt-file paths.
	sourcePath string `yaml:"-"`
}

// SourcePath returns the absolute path the experiment YAML was loaded from.
func (c *ExperimentConfig) SourcePath() string { return c.sourcePath }

// SetSourcePath is used by the config loader to record where this
// ExperimentConfig was read from.
func (c *ExperimentConfig) SetSourcePath(p string) { c.sourcePath = p }

// GetSystemPrompt returns the resolved system prompt text, whether it came
// from the inline system_prompt field or was read from system_prompt_file.
func (c *ExperimentConfig) GetSystemPrompt() string {
	return c.ResolvedSystemPrompt
}

// ScenarioConstraints is the whitelist of parameters and tree actions a
// proposed Policy must satisfy (spec.md §3 ScenarioConstraints).
type ScenarioConstraints struct {
	// Parameters maps a parameter name to its allowed range/type.
	Parameters map[string]ParamConstraint `yaml:"parameters"`
	// Trees maps a decision-tree name to its whitelisted actions.
	Trees map[string][]string `yaml:"trees"`
}

// ParamConstraint describes the allowed range and type of one policy
// parameter.
type ParamConstraint struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Type string  `yaml:"type"` // "int" | "float" | "bool"
}

// ConstraintsOf returns the whitelisted actions for a named decision tree.
func (c *ExperimentConfig) ConstraintsOf(tree string) ([]string, bool) {
	if c.PolicyConstraints == nil {
		return nil, false
	}
	actions, ok := c.PolicyConstraints.Trees[tree]
	return actions, ok
}

// GetConstraints returns the resolved ScenarioConstraints for this
// experiment, whether declared inline or resolved from constraints_module.
func (c *ExperimentConfig) GetConstraints() *ScenarioConstraints {
	return c.PolicyConstraints
}

// ConfigHash returns a stable SHA-256 hex digest over the canonical JSON
// encoding of c, usable as a fingerprint of the loaded configuration.
// ExperimentRecord.ConfigSnapshot holds the canonical JSON itself, not
// this digest. Two
// ExperimentConfig values with identical field values hash identically
// regardless of the order their source YAML declared map keys in, since
// encoding/json sorts map keys on marshal.
func (c *ExperimentConfig) ConfigHash() string {
	b, err := json.Marshal(c)
	if err != nil {
		// ExperimentConfig contains no channels, funcs, or cyclic
		// structures, so Marshal cannot fail on a valid value.
		panic(err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
