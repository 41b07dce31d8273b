package simulator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/lookatitude/policyopt/schema"
)

// Reference is the deterministic RTGS liquidity simulator used by tests
// and by experiments that do not supply their own Simulator. It models one
// participant queuing or releasing payment obligations against a liquidity
// limit derived from the policy's initial_liquidity_fraction parameter,
// under a "queue_release" decision tree whose per-tick node is selected by
// sibling order. All randomness derives from a math/rand/v2 PCG seeded
// exclusively by the caller's seed (spec.md §6: "MUST NOT read wall-clock
// state").
type Reference struct {
	scenarios map[string]*Scenario
}

// NewReference returns a Reference simulator with an empty scenario cache.
func NewReference() *Reference {
	return &Reference{scenarios: make(map[string]*Scenario)}
}

func (r *Reference) scenario(path string) (*Scenario, error) {
	if s, ok := r.scenarios[path]; ok {
		return s, nil
	}
	s, err := LoadScenario(path)
	if err != nil {
		return nil, err
	}
	r.scenarios[path] = s
	return s, nil
}

// Run implements Simulator.
func (r *Reference) Run(ctx context.Context, scenarioPath string, agentID string, policy schema.Policy, seed uint64, ticks int) (SimulationOutcome, error) {
	s, err := r.scenario(scenarioPath)
	if err != nil {
		return SimulationOutcome{}, err
	}
	if !s.HasAgent(agentID) {
		return SimulationOutcome{}, fmt.Errorf("simulator: agent %q not declared in scenario", agentID)
	}

	fraction := policy.Parameters["initial_liquidity_fraction"]
	if fraction <= 0 {
		fraction = 1.0
	}
	limit := int64(float64(s.InitialLiquidityCents) * fraction)

	nodes := policy.Trees["queue_release"]
	if len(nodes) == 0 {
		nodes = []schema.PolicyNode{{ID: "queue_release/0", Action: "release"}}
	}

	rng := rand.New(rand.NewPCG(seed, seed>>32|1))

	var events []schema.BootstrapEvent
	var delayCost, overdraftCost, deadlinePenalty, eodPenalty int64
	var settled, total int
	var delaySum float64

	type pending struct {
		amount    int64
		arrivedAt int
	}
	var queue []pending
	liquidity := limit

	for tick := 0; tick < ticks; tick++ {
		if rng.Float64() < s.ArrivalRatePerTick {
			amount := int64(rng.Float64()*float64(s.PaymentMeanCents)*2) + 1
			total++
			queue = append(queue, pending{amount: amount, arrivedAt: tick})
			events = append(events, schema.BootstrapEvent{
				Tick: tick, Type: schema.EventArrival, AgentID: agentID,
				Details: map[string]any{"amount_cents": amount},
			})
		}

		node := nodes[tick%len(nodes)]
		events = append(events, schema.BootstrapEvent{
			Tick: tick, Type: schema.EventPolicyDecision, AgentID: agentID,
			Details: map[string]any{"node_id": node.ID, "action": node.Action},
		})

		switch node.Action {
		case "release":
			var remaining []pending
			for _, p := range queue {
				if liquidity >= p.amount {
					liquidity -= p.amount
					settled++
					delaySum += float64(tick - p.arrivedAt)
					events = append(events, schema.BootstrapEvent{
						Tick: tick, Type: schema.EventSettlement, AgentID: agentID,
						Details: map[string]any{
							"amount_cents": p.amount,
							"net_position": liquidity,
							"queued_ticks": tick - p.arrivedAt,
						},
					})
				} else {
					overdraft := p.amount - liquidity
					cost := overdraft * s.OverdraftPenaltyBPS / 10000
					overdraftCost += cost
					liquidity = 0
					settled++
					delaySum += float64(tick - p.arrivedAt)
					events = append(events, schema.BootstrapEvent{
						Tick: tick, Type: schema.EventOverdraftCost, AgentID: agentID,
						Details: map[string]any{"amount_cents": overdraft, "cost_cents": cost},
					})
				}
			}
			queue = remaining
		case "hold", "queue":
			for _, p := range queue {
				delayCost += s.DelayPenaltyPerTickCents
				events = append(events, schema.BootstrapEvent{
					Tick: tick, Type: schema.EventQueueRelease, AgentID: agentID,
					Details: map[string]any{"amount_cents": p.amount, "held": true},
				})
				if s.DeadlineTick > 0 && tick-p.arrivedAt >= s.DeadlineTick {
					deadlinePenalty += s.DeadlinePenaltyCents
				}
			}
		}

		if len(queue) > 0 {
			events = append(events, schema.BootstrapEvent{
				Tick: tick, Type: schema.EventDelayCost, AgentID: agentID,
				Details: map[string]any{"queue_depth": len(queue), "cost_cents": s.DelayPenaltyPerTickCents * int64(len(queue))},
			})
		}
	}

	if len(queue) > 0 {
		eodPenalty = s.EODPenaltyCents * int64(len(queue))
	}

	rate := 1.0
	avgDelay := 0.0
	if total > 0 {
		rate = float64(settled) / float64(total)
		avgDelay = delaySum / float64(total)
	}

	breakdown := schema.CostBreakdown{
		DelayCost:       delayCost,
		OverdraftCost:   overdraftCost,
		DeadlinePenalty: deadlinePenalty,
		EODPenalty:      eodPenalty,
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Tick < events[j].Tick })

	return SimulationOutcome{
		Events:         events,
		CostsByAgent:   map[string]schema.CostBreakdown{agentID: breakdown},
		SettlementRate: map[string]float64{agentID: rate},
		AvgDelay:       map[string]float64{agentID: avgDelay},
	}, nil
}
