package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

const (
	// Benchmark crude price in USD per barrel used when none is supplied.
	defaultOilPriceUSD = 85.0
	usdToIDR           = 15800.0
)

var opexPerBarrel = map[string]float64{
	"Rokan":   22.5,
	"Mahakam": 28.0,
	"Cepu":    35.0,
}

func financeCapabilities() []Capability {
	return []Capability{
		{
			Name: "calculate_revenue_impact",
			Definition: anthropic.ToolUnionParam{
				OfTool: &anthropic.ToolParam{
					Name:        "calculate_revenue_impact",
					Description: anthropic.String("Calculate revenue impact of an oil volume at a given price per barrel."),
					InputSchema: anthropic.ToolInputSchemaParam{
						Properties: map[string]interface{}{
							"oil_volume_barrels": map[string]interface{}{
								"type":        "integer",
								"description": "Oil volume in barrels",
							},
							"oil_price_usd": map[string]interface{}{
								"type":        "number",
								"description": "Price per barrel in USD (default 85.0)",
							},
						},
						Required: []string{"oil_volume_barrels"},
					},
				},
			},
			Handler: calculateRevenueImpact,
		},
		{
			Name: "analyze_operational_cost",
			Definition: anthropic.ToolUnionParam{
				OfTool: &anthropic.ToolParam{
					Name:        "analyze_operational_cost",
					Description: anthropic.String("Analyze daily operating cost for a block at a production volume."),
					InputSchema: anthropic.ToolInputSchemaParam{
						Properties: map[string]interface{}{
							"block_name": map[string]interface{}{
								"type":        "string",
								"description": "Block name",
							},
							"production_volume_bopd": map[string]interface{}{
								"type":        "integer",
								"description": "Production volume in BOPD",
							},
						},
						Required: []string{"block_name", "production_volume_bopd"},
					},
				},
			},
			Handler: analyzeOperationalCost,
		},
		{
			Name: "calculate_profitability",
			Definition: anthropic.ToolUnionParam{
				OfTool: &anthropic.ToolParam{
					Name:        "calculate_profitability",
					Description: anthropic.String("Calculate gross profit and margin from revenue and operating cost."),
					InputSchema: anthropic.ToolInputSchemaParam{
						Properties: map[string]interface{}{
							"revenue_usd": map[string]interface{}{
								"type":        "number",
								"description": "Total revenue in USD",
							},
							"operating_cost_usd": map[string]interface{}{
								"type":        "number",
								"description": "Total operating cost in USD",
							},
						},
						Required: []string{"revenue_usd", "operating_cost_usd"},
					},
				},
			},
			Handler: calculateProfitability,
		},
		{
			Name: "get_market_price_trends",
			Definition: anthropic.ToolUnionParam{
				OfTool: &anthropic.ToolParam{
					Name:        "get_market_price_trends",
					Description: anthropic.String("Get market price trend for an energy commodity."),
					InputSchema: anthropic.ToolInputSchemaParam{
						Properties: map[string]interface{}{
							"commodity": map[string]interface{}{
								"type":        "string",
								"description": "Commodity: \"crude_oil\" or \"natural_gas\" (default crude_oil)",
							},
							"days_back": map[string]interface{}{
								"type":        "integer",
								"description": "Lookback window in days (default 30)",
							},
						},
					},
				},
			},
			Handler: getMarketPriceTrends,
		},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func calculateRevenueImpact(_ context.Context, input json.RawMessage) (string, error) {
	var args struct {
		OilVolumeBarrels int     `json:"oil_volume_barrels"`
		OilPriceUSD      float64 `json:"oil_price_usd"`
	}
	if err := decodeInput(input, &args); err != nil {
		return "", err
	}
	if args.OilVolumeBarrels <= 0 {
		return "", fmt.Errorf("oil_volume_barrels must be positive")
	}
	if args.OilPriceUSD == 0 {
		args.OilPriceUSD = defaultOilPriceUSD
	}

	revenueUSD := float64(args.OilVolumeBarrels) * args.OilPriceUSD
	return marshalResult(map[string]any{
		"volume_barrels":       args.OilVolumeBarrels,
		"price_per_barrel_usd": args.OilPriceUSD,
		"total_revenue_usd":    round2(revenueUSD),
		"total_revenue_idr":    round2(revenueUSD * usdToIDR),
		"exchange_rate":        usdToIDR,
		"calculation_date":     time.Now().Format("2006-01-02"),
		"price_benchmark":      "Indonesian Crude Price (ICP)",
	})
}

func analyzeOperationalCost(_ context.Context, input json.RawMessage) (string, error) {
	var args struct {
		BlockName            string `json:"block_name"`
		ProductionVolumeBOPD int    `json:"production_volume_bopd"`
	}
	if err := decodeInput(input, &args); err != nil {
		return "", err
	}
	if args.BlockName == "" {
		return "", fmt.Errorf("block_name is required")
	}
	if args.ProductionVolumeBOPD <= 0 {
		return "", fmt.Errorf("production_volume_bopd must be positive")
	}

	opex, ok := opexPerBarrel[args.BlockName]
	if !ok {
		opex = 25.0
	}
	dailyCost := float64(args.ProductionVolumeBOPD) * opex

	return marshalResult(map[string]any{
		"block":                         args.BlockName,
		"production_volume_bopd":        args.ProductionVolumeBOPD,
		"operating_cost_per_barrel_usd": opex,
		"total_daily_cost_usd":          round2(dailyCost),
		"cost_breakdown": map[string]any{
			"labor_usd":       round2(dailyCost * 0.35),
			"maintenance_usd": round2(dailyCost * 0.25),
			"energy_usd":      round2(dailyCost * 0.20),
			"other_usd":       round2(dailyCost * 0.20),
		},
		"analysis_date": time.Now().Format("2006-01-02"),
	})
}

func calculateProfitability(_ context.Context, input json.RawMessage) (string, error) {
	var args struct {
		RevenueUSD       float64 `json:"revenue_usd"`
		OperatingCostUSD float64 `json:"operating_cost_usd"`
	}
	if err := decodeInput(input, &args); err != nil {
		return "", err
	}
	if args.RevenueUSD < 0 || args.OperatingCostUSD < 0 {
		return "", fmt.Errorf("revenue and cost must be non-negative")
	}

	grossProfit := args.RevenueUSD - args.OperatingCostUSD
	margin := 0.0
	if args.RevenueUSD > 0 {
		margin = grossProfit / args.RevenueUSD * 100
	}

	assessment := "Low - Requires cost optimization"
	switch {
	case margin > 70:
		assessment = "Excellent - Highly profitable operation"
	case margin > 50:
		assessment = "Good - Healthy profit margin"
	case margin > 30:
		assessment = "Moderate - Acceptable profitability"
	}

	return marshalResult(map[string]any{
		"revenue_usd":              round2(args.RevenueUSD),
		"operating_cost_usd":       round2(args.OperatingCostUSD),
		"gross_profit_usd":         round2(grossProfit),
		"profit_margin_percentage": round2(margin),
		"profitability_assessment": assessment,
		"breakeven_volume_bopd":    math.Round(args.OperatingCostUSD / defaultOilPriceUSD),
		"calculation_timestamp":    time.Now().Format(time.RFC3339),
	})
}

func getMarketPriceTrends(_ context.Context, input json.RawMessage) (string, error) {
	var args struct {
		Commodity string `json:"commodity"`
		DaysBack  int    `json:"days_back"`
	}
	// Both arguments are optional.
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if args.Commodity == "" {
		args.Commodity = "crude_oil"
	}
	if args.DaysBack <= 0 {
		args.DaysBack = 30
	}

	current := defaultOilPriceUSD
	unit := "USD/barrel"
	if args.Commodity == "natural_gas" {
		current = 2.85
		unit = "USD/MMBtu"
	}

	return marshalResult(map[string]any{
		"commodity":          args.Commodity,
		"period_days":        args.DaysBack,
		"current_price":      current,
		"unit":               unit,
		"trend":              "stable",
		"change_percentage":  1.2,
		"price_benchmark":    "Indonesian Crude Price (ICP)",
		"analysis_timestamp": time.Now().Format(time.RFC3339),
	})
}
