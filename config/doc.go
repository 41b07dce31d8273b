// Package config loads and validates the experiment YAML documents that
// drive a policy optimization run, and holds the provider configuration
// shared by llmclient's registry.
//
// # Loading an Experiment
//
// [LoadExperiment] reads an experiment YAML file, resolves system_prompt /
// system_prompt_file and policy_constraints / constraints_module, validates
// every field against the ranges in spec.md §3, and returns an immutable
// [schema.ExperimentConfig]:
//
//	cfg, err := config.LoadExperiment("experiments/checkout-v2.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Validation is hand-rolled rather than struct-tag-driven because several
// invariants are cross-field (at most one of system_prompt /
// system_prompt_file; at most one of policy_constraints /
// constraints_module) and cannot be expressed by per-field tags alone.
//
// # Constraints Modules
//
// The legacy constraints_module field names a ScenarioConstraints factory
// by dotted path rather than declaring it inline. Scenario packages
// register a factory from an init() function:
//
//	func init() {
//	    config.RegisterConstraintsModule("scenarios.checkout.v2", func() schema.ScenarioConstraints {
//	        return schema.ScenarioConstraints{ /* ... */ }
//	    })
//	}
//
// [LoadExperiment] resolves constraints_module through this registry at
// load time; an unregistered name is a load error.
//
// # Provider Configuration
//
// [ProviderConfig] holds common configuration for an LLM provider (name,
// API key, model identifier, base URL, timeout, and a flexible Options map
// for provider-specific settings), consumed by llmclient's provider
// registry. [GetOption] retrieves typed values from the Options map:
//
//	temp, ok := config.GetOption[float64](cfg, "temperature")
package config
