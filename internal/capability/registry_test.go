package capability

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"nexus/pkg/models"
)

func TestRegistryDefinitionsPerSpecialist(t *testing.T) {
	r := NewRegistry()

	for _, name := range models.SpecialistPrecedence {
		defs := r.Definitions(name)
		if len(defs) == 0 {
			t.Errorf("%s has no capability definitions", name)
		}
	}

	if defs := r.Definitions(models.SpecialistName("weather")); len(defs) != 0 {
		t.Errorf("unknown specialist should have no definitions, got %d", len(defs))
	}
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		specialist models.SpecialistName
		want       []string
	}{
		{models.SpecialistUpstream, []string{"get_production_data", "get_lifting_schedule", "get_well_status"}},
		{models.SpecialistLogistics, []string{"track_vessel", "get_weather_forecast", "get_delivery_status"}},
		{models.SpecialistFinance, []string{"calculate_revenue_impact", "analyze_operational_cost", "calculate_profitability", "get_market_price_trends"}},
	}

	for _, tt := range tests {
		got := r.Names(tt.specialist)
		if len(got) != len(tt.want) {
			t.Errorf("%s: expected %d capabilities, got %v", tt.specialist, len(tt.want), got)
			continue
		}
		for i, name := range tt.want {
			if got[i] != name {
				t.Errorf("%s[%d]: expected %s, got %s", tt.specialist, i, name, got[i])
			}
		}
	}
}

func TestInvokeProductionData(t *testing.T) {
	r := NewRegistry()

	res := r.Invoke(context.Background(), models.SpecialistUpstream,
		"get_production_data", json.RawMessage(`{"block_name":"Rokan"}`))
	if res.IsError {
		t.Fatalf("unexpected error result: %s", res.Content)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(res.Content), &payload); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if payload["oil_production_bopd"] != float64(150000) {
		t.Errorf("expected Rokan at 150000 BOPD, got %v", payload["oil_production_bopd"])
	}
	if payload["status"] != "operational" {
		t.Errorf("expected operational status, got %v", payload["status"])
	}
}

func TestInvokeRevenueImpactDefaultsPrice(t *testing.T) {
	r := NewRegistry()

	res := r.Invoke(context.Background(), models.SpecialistFinance,
		"calculate_revenue_impact", json.RawMessage(`{"oil_volume_barrels":1000}`))
	if res.IsError {
		t.Fatalf("unexpected error result: %s", res.Content)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(res.Content), &payload); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if payload["price_per_barrel_usd"] != float64(85) {
		t.Errorf("expected ICP default price 85, got %v", payload["price_per_barrel_usd"])
	}
	if payload["total_revenue_usd"] != float64(85000) {
		t.Errorf("expected revenue 85000, got %v", payload["total_revenue_usd"])
	}
}

func TestInvokeUnknownCapability(t *testing.T) {
	r := NewRegistry()

	res := r.Invoke(context.Background(), models.SpecialistUpstream,
		"launch_rocket", json.RawMessage(`{}`))
	if !res.IsError {
		t.Fatal("expected error result for unknown capability")
	}
	if !strings.Contains(res.Content, "launch_rocket") {
		t.Errorf("error result should name the capability: %s", res.Content)
	}
}

func TestInvokeCrossSpecialistDenied(t *testing.T) {
	// Capabilities are scoped per specialist; finance cannot call upstream
	// tools.
	r := NewRegistry()

	res := r.Invoke(context.Background(), models.SpecialistFinance,
		"get_production_data", json.RawMessage(`{"block_name":"Rokan"}`))
	if !res.IsError {
		t.Error("expected error result for out-of-scope capability")
	}
}

func TestInvokeHandlerErrorBecomesResult(t *testing.T) {
	r := NewRegistry()

	res := r.Invoke(context.Background(), models.SpecialistLogistics,
		"track_vessel", json.RawMessage(`{"vessel_name":"MT Ghost Ship"}`))
	if !res.IsError {
		t.Fatal("expected error result for untracked vessel")
	}
	if !strings.Contains(res.Content, "track_vessel failed") {
		t.Errorf("error result should carry the failure context: %s", res.Content)
	}
}

func TestInvokeMissingArguments(t *testing.T) {
	r := NewRegistry()

	res := r.Invoke(context.Background(), models.SpecialistUpstream,
		"get_production_data", nil)
	if !res.IsError {
		t.Error("expected error result for missing arguments")
	}
}
