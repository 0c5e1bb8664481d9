package models

import "strings"

// SpecialistName identifies one of the domain specialists.
type SpecialistName string

const (
	SpecialistUpstream  SpecialistName = "upstream"
	SpecialistLogistics SpecialistName = "logistics"
	SpecialistFinance   SpecialistName = "finance"
)

// SpecialistPrecedence is the fixed ordering used for fan-out and synthesis.
// Synthesis input order follows this list, never completion order, so a
// multi-specialist answer is reproducible given reproducible specialist
// outputs.
var SpecialistPrecedence = []SpecialistName{
	SpecialistUpstream,
	SpecialistLogistics,
	SpecialistFinance,
}

// RoutingDecision is the closed vocabulary produced by intent
// classification.
type RoutingDecision string

const (
	DecisionUpstream          RoutingDecision = "UPSTREAM"
	DecisionLogistics         RoutingDecision = "LOGISTICS"
	DecisionFinance           RoutingDecision = "FINANCE"
	DecisionUpstreamLogistics RoutingDecision = "UPSTREAM_LOGISTICS"
	DecisionUpstreamFinance   RoutingDecision = "UPSTREAM_FINANCE"
	DecisionLogisticsFinance  RoutingDecision = "LOGISTICS_FINANCE"
	DecisionAllAgents         RoutingDecision = "ALL_AGENTS"
	DecisionClarify           RoutingDecision = "CLARIFY"
)

// KnownDecisions lists every valid routing label.
var KnownDecisions = []RoutingDecision{
	DecisionUpstream,
	DecisionLogistics,
	DecisionFinance,
	DecisionUpstreamLogistics,
	DecisionUpstreamFinance,
	DecisionLogisticsFinance,
	DecisionAllAgents,
	DecisionClarify,
}

// Known reports whether the decision is one of the closed vocabulary.
func (d RoutingDecision) Known() bool {
	for _, known := range KnownDecisions {
		if d == known {
			return true
		}
	}
	return false
}

// Specialists maps the decision to the subset of specialists it activates,
// in fixed precedence order. CLARIFY and unknown labels activate none.
func (d RoutingDecision) Specialists() []SpecialistName {
	if d == DecisionClarify || !d.Known() {
		return nil
	}
	if d == DecisionAllAgents {
		return append([]SpecialistName(nil), SpecialistPrecedence...)
	}
	var active []SpecialistName
	label := string(d)
	for _, name := range SpecialistPrecedence {
		if strings.Contains(label, strings.ToUpper(string(name))) {
			active = append(active, name)
		}
	}
	return active
}
