package models

import (
	"reflect"
	"testing"
)

func TestSpecialistsMapping(t *testing.T) {
	tests := []struct {
		decision RoutingDecision
		want     []SpecialistName
	}{
		{DecisionUpstream, []SpecialistName{SpecialistUpstream}},
		{DecisionLogistics, []SpecialistName{SpecialistLogistics}},
		{DecisionFinance, []SpecialistName{SpecialistFinance}},
		{DecisionUpstreamLogistics, []SpecialistName{SpecialistUpstream, SpecialistLogistics}},
		{DecisionUpstreamFinance, []SpecialistName{SpecialistUpstream, SpecialistFinance}},
		{DecisionLogisticsFinance, []SpecialistName{SpecialistLogistics, SpecialistFinance}},
		{DecisionAllAgents, []SpecialistName{SpecialistUpstream, SpecialistLogistics, SpecialistFinance}},
		{DecisionClarify, nil},
	}

	for _, tt := range tests {
		got := tt.decision.Specialists()
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.decision, tt.want, got)
		}
	}
}

func TestSpecialistsUnknownLabel(t *testing.T) {
	if got := RoutingDecision("MAYBE").Specialists(); got != nil {
		t.Errorf("unknown label should activate no specialists, got %v", got)
	}
	if got := RoutingDecision("UPSTREAM_MAYBE").Specialists(); got != nil {
		t.Errorf("unknown label with a valid substring should activate no specialists, got %v", got)
	}
}

func TestSpecialistsReturnsPrecedenceOrder(t *testing.T) {
	// Combination labels always yield precedence order regardless of label
	// wording.
	got := DecisionLogisticsFinance.Specialists()
	want := []SpecialistName{SpecialistLogistics, SpecialistFinance}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	all := DecisionAllAgents.Specialists()
	if !reflect.DeepEqual(all, SpecialistPrecedence) {
		t.Errorf("ALL_AGENTS should follow precedence %v, got %v", SpecialistPrecedence, all)
	}
}

func TestKnown(t *testing.T) {
	for _, d := range KnownDecisions {
		if !d.Known() {
			t.Errorf("%s should be known", d)
		}
	}
	for _, raw := range []string{"", "maybe", "UPSTREAM ", "ROUTE_ALL"} {
		if RoutingDecision(raw).Known() {
			t.Errorf("%q should not be known", raw)
		}
	}
}

func TestSpecialistsCopyIsPrivate(t *testing.T) {
	got := DecisionAllAgents.Specialists()
	got[0] = SpecialistFinance
	if SpecialistPrecedence[0] != SpecialistUpstream {
		t.Error("mutating the returned slice must not affect SpecialistPrecedence")
	}
}
