// Package simulator provides the reference deterministic payment-queue
// simulator the evaluator drives: given a scenario, a policy, and a seed,
// it produces a stable, ordered event stream and per-agent integer-cent
// cost components (spec.md §6 Simulator contract). The core optimization
// packages treat the simulator as a collaborator reached only through the
// Simulator interface; Scenario YAML is otherwise opaque to them.
package simulator

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is the parsed form of the scenario YAML a simulator run
// operates over. It is never inspected by the optimization core, which
// forwards only the file path (spec.md §6 "Scenario YAML").
type Scenario struct {
	Agents                   []AgentSpec `yaml:"agents"`
	ArrivalRatePerTick       float64     `yaml:"arrival_rate_per_tick"`
	PaymentMeanCents         int64       `yaml:"payment_mean_cents"`
	InitialLiquidityCents    int64       `yaml:"initial_liquidity_cents"`
	OverdraftPenaltyBPS      int64       `yaml:"overdraft_penalty_bps"`
	DelayPenaltyPerTickCents int64       `yaml:"delay_penalty_per_tick_cents"`
	DeadlineTick             int         `yaml:"deadline_tick"`
	DeadlinePenaltyCents     int64       `yaml:"deadline_penalty_cents"`
	EODPenaltyCents          int64       `yaml:"eod_penalty_cents"`
}

// AgentSpec is one participant in a scenario.
type AgentSpec struct {
	ID string `yaml:"id"`
}

// LoadScenario reads and parses a scenario YAML file from path.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("simulator: load scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("simulator: parse scenario %s: %w", path, err)
	}
	if len(s.Agents) == 0 {
		return nil, fmt.Errorf("simulator: scenario %s declares no agents", path)
	}
	sort.Slice(s.Agents, func(i, j int) bool { return s.Agents[i].ID < s.Agents[j].ID })
	return &s, nil
}

// HasAgent reports whether id is a participant in s.
func (s *Scenario) HasAgent(id string) bool {
	for _, a := range s.Agents {
		if a.ID == id {
			return true
		}
	}
	return false
}
