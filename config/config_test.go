package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lookatitude/policyopt/schema"
)

func validYAML() string {
	return `
name: checkout-v2
description: checkout scenario optimization
scenario: scenario.yaml
evaluation:
  mode: bootstrap
  num_samples: 16
  ticks: 50
convergence:
  max_iterations: 20
  stability_threshold: 0.02
  stability_window: 3
  improvement_threshold: 1.0
llm:
  model: "anthropic:claude-sonnet-4-5"
  temperature: 0.7
  max_retries: 2
  system_prompt: "you optimize checkout routing policy"
optimized_agents: ["router"]
policy_constraints:
  parameters:
    retry_budget:
      min: 0
      max: 5
      type: int
  trees:
    routing: ["approve", "decline", "review"]
output:
  directory: out
  database: out/state.db
master_seed: 42
`
}

func writeYAML(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadExperiment_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, "experiment.yaml", validYAML())

	cfg, err := LoadExperiment(path)
	if err != nil {
		t.Fatalf("LoadExperiment() error = %v", err)
	}
	if cfg.Name != "checkout-v2" {
		t.Errorf("Name = %q, want checkout-v2", cfg.Name)
	}
	if cfg.Evaluation.Mode != schema.ModeBootstrap {
		t.Errorf("Mode = %q, want bootstrap", cfg.Evaluation.Mode)
	}
	if cfg.GetSystemPrompt() != "you optimize checkout routing policy" {
		t.Errorf("GetSystemPrompt() = %q", cfg.GetSystemPrompt())
	}
	if cfg.GetConstraints() == nil {
		t.Fatalf("GetConstraints() = nil")
	}
	actions, ok := cfg.ConstraintsOf("routing")
	if !ok || len(actions) != 3 {
		t.Errorf("ConstraintsOf(routing) = %v, %v", actions, ok)
	}
	if cfg.SourcePath() == "" {
		t.Errorf("SourcePath() is empty")
	}
}

func TestLoadExperiment_SystemPromptFile(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "prompt.txt", "resolved from file")

	yaml := `
name: x
description: x
scenario: scenario.yaml
evaluation: {mode: bootstrap, num_samples: 1, ticks: 1}
convergence: {max_iterations: 1, stability_threshold: 0.1, stability_window: 1, improvement_threshold: 0}
llm: {model: "openai:gpt-4o", temperature: 0.5, system_prompt_file: "prompt.txt"}
optimized_agents: ["a"]
policy_constraints: {parameters: {}, trees: {}}
master_seed: 1
`
	path := writeYAML(t, dir, "experiment.yaml", yaml)

	cfg, err := LoadExperiment(path)
	if err != nil {
		t.Fatalf("LoadExperiment() error = %v", err)
	}
	if cfg.GetSystemPrompt() != "resolved from file" {
		t.Errorf("GetSystemPrompt() = %q, want file contents", cfg.GetSystemPrompt())
	}
}

func TestLoadExperiment_RejectsBothSystemPromptForms(t *testing.T) {
	dir := t.TempDir()
	yaml := `
name: x
description: x
scenario: scenario.yaml
evaluation: {mode: bootstrap, num_samples: 1, ticks: 1}
convergence: {max_iterations: 1, stability_threshold: 0.1, stability_window: 1, improvement_threshold: 0}
llm: {model: "openai:gpt-4o", temperature: 0.5, system_prompt: "a", system_prompt_file: "b.txt"}
optimized_agents: ["a"]
policy_constraints: {parameters: {}, trees: {}}
master_seed: 1
`
	path := writeYAML(t, dir, "experiment.yaml", yaml)

	if _, err := LoadExperiment(path); err == nil {
		t.Fatalf("LoadExperiment() error = nil, want mutually-exclusive error")
	}
}

func TestLoadExperiment_RejectsBothConstraintForms(t *testing.T) {
	dir := t.TempDir()
	yaml := `
name: x
description: x
scenario: scenario.yaml
evaluation: {mode: bootstrap, num_samples: 1, ticks: 1}
convergence: {max_iterations: 1, stability_threshold: 0.1, stability_window: 1, improvement_threshold: 0}
llm: {model: "openai:gpt-4o", temperature: 0.5}
optimized_agents: ["a"]
policy_constraints: {parameters: {}, trees: {}}
constraints_module: "scenarios.x"
master_seed: 1
`
	path := writeYAML(t, dir, "experiment.yaml", yaml)

	if _, err := LoadExperiment(path); err == nil {
		t.Fatalf("LoadExperiment() error = nil, want mutually-exclusive error")
	}
}

func TestLoadExperiment_ResolvesConstraintsModule(t *testing.T) {
	RegisterConstraintsModule("scenarios.test.fixture", func() schema.ScenarioConstraints {
		return schema.ScenarioConstraints{
			Trees: map[string][]string{"routing": {"approve", "decline"}},
		}
	})

	dir := t.TempDir()
	yaml := `
name: x
description: x
scenario: scenario.yaml
evaluation: {mode: bootstrap, num_samples: 1, ticks: 1}
convergence: {max_iterations: 1, stability_threshold: 0.1, stability_window: 1, improvement_threshold: 0}
llm: {model: "openai:gpt-4o", temperature: 0.5}
optimized_agents: ["a"]
constraints_module: "scenarios.test.fixture"
master_seed: 1
`
	path := writeYAML(t, dir, "experiment.yaml", yaml)

	cfg, err := LoadExperiment(path)
	if err != nil {
		t.Fatalf("LoadExperiment() error = %v", err)
	}
	actions, ok := cfg.ConstraintsOf("routing")
	if !ok || len(actions) != 2 {
		t.Errorf("ConstraintsOf(routing) = %v, %v, want [approve decline]", actions, ok)
	}
}

func TestLoadExperiment_UnregisteredConstraintsModule(t *testing.T) {
	dir := t.TempDir()
	yaml := `
name: x
description: x
scenario: scenario.yaml
evaluation: {mode: bootstrap, num_samples: 1, ticks: 1}
convergence: {max_iterations: 1, stability_threshold: 0.1, stability_window: 1, improvement_threshold: 0}
llm: {model: "openai:gpt-4o", temperature: 0.5}
optimized_agents: ["a"]
constraints_module: "scenarios.nonexistent"
master_seed: 1
`
	path := writeYAML(t, dir, "experiment.yaml", yaml)

	if _, err := LoadExperiment(path); err == nil {
		t.Fatalf("LoadExperiment() error = nil, want unregistered-module error")
	}
}

func TestLoadExperiment_MissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	yaml := `
description: missing name
scenario: scenario.yaml
evaluation: {mode: bootstrap, num_samples: 1, ticks: 1}
convergence: {max_iterations: 1, stability_threshold: 0.1, stability_window: 1, improvement_threshold: 0}
llm: {model: "openai:gpt-4o", temperature: 0.5}
optimized_agents: ["a"]
policy_constraints: {parameters: {}, trees: {}}
master_seed: 1
`
	path := writeYAML(t, dir, "experiment.yaml", yaml)

	if _, err := LoadExperiment(path); err == nil {
		t.Fatalf("LoadExperiment() error = nil, want missing-field error")
	}
}

func TestLoadExperiment_OutOfRangeTemperature(t *testing.T) {
	dir := t.TempDir()
	yaml := `
name: x
description: x
scenario: scenario.yaml
evaluation: {mode: bootstrap, num_samples: 1, ticks: 1}
convergence: {max_iterations: 1, stability_threshold: 0.1, stability_window: 1, improvement_threshold: 0}
llm: {model: "openai:gpt-4o", temperature: 3.5}
optimized_agents: ["a"]
policy_constraints: {parameters: {}, trees: {}}
master_seed: 1
`
	path := writeYAML(t, dir, "experiment.yaml", yaml)

	if _, err := LoadExperiment(path); err == nil {
		t.Fatalf("LoadExperiment() error = nil, want out-of-range temperature error")
	}
}

func TestLoadExperiment_InvalidMode(t *testing.T) {
	dir := t.TempDir()
	yaml := `
name: x
description: x
scenario: scenario.yaml
evaluation: {mode: quarterly, num_samples: 1, ticks: 1}
convergence: {max_iterations: 1, stability_threshold: 0.1, stability_window: 1, improvement_threshold: 0}
llm: {model: "openai:gpt-4o", temperature: 0.5}
optimized_agents: ["a"]
policy_constraints: {parameters: {}, trees: {}}
master_seed: 1
`
	path := writeYAML(t, dir, "experiment.yaml", yaml)

	if _, err := LoadExperiment(path); err == nil {
		t.Fatalf("LoadExperiment() error = nil, want invalid-mode error")
	}
}

func TestExperimentConfig_ConfigHashStable(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, "experiment.yaml", validYAML())

	cfg1, err := LoadExperiment(path)
	if err != nil {
		t.Fatalf("LoadExperiment() error = %v", err)
	}
	cfg2, err := LoadExperiment(path)
	if err != nil {
		t.Fatalf("LoadExperiment() error = %v", err)
	}
	if cfg1.ConfigHash() != cfg2.ConfigHash() {
		t.Errorf("ConfigHash() not stable across reloads of the same file")
	}
	if cfg1.ConfigHash() == "" {
		t.Errorf("ConfigHash() is empty")
	}
}
