package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

// blockProduction holds reference production figures per block.
type blockProduction struct {
	OilBOPD   int
	GasMMSCFD int
	Wells     int
}

var productionByBlock = map[string]blockProduction{
	"Rokan":   {OilBOPD: 150000, GasMMSCFD: 450, Wells: 2500},
	"Mahakam": {OilBOPD: 85000, GasMMSCFD: 1200, Wells: 1800},
	"Cepu":    {OilBOPD: 35000, GasMMSCFD: 180, Wells: 450},
}

var liftingVessels = []string{"MT Nusantara Prime", "MT Nusantara Excellence", "MT Nusantara Victory"}

var liftingDestinations = []string{"Balongan Refinery", "Cilacap Refinery", "Tanjung Priok Fuel Terminal"}

func upstreamCapabilities() []Capability {
	return []Capability{
		{
			Name: "get_production_data",
			Definition: anthropic.ToolUnionParam{
				OfTool: &anthropic.ToolParam{
					Name:        "get_production_data",
					Description: anthropic.String("Get current daily production volumes for an oil & gas block (BOPD for oil, MMSCFD for gas)."),
					InputSchema: anthropic.ToolInputSchemaParam{
						Properties: map[string]interface{}{
							"block_name": map[string]interface{}{
								"type":        "string",
								"description": "Block name (e.g. \"Rokan\", \"Mahakam\", \"Cepu\")",
							},
						},
						Required: []string{"block_name"},
					},
				},
			},
			Handler: getProductionData,
		},
		{
			Name: "get_lifting_schedule",
			Definition: anthropic.ToolUnionParam{
				OfTool: &anthropic.ToolParam{
					Name:        "get_lifting_schedule",
					Description: anthropic.String("Get the tanker lifting schedule from a block to refineries and terminals."),
					InputSchema: anthropic.ToolInputSchemaParam{
						Properties: map[string]interface{}{
							"block_name": map[string]interface{}{
								"type":        "string",
								"description": "Block name",
							},
							"days_ahead": map[string]interface{}{
								"type":        "integer",
								"description": "Number of days ahead to include (default 7)",
							},
						},
						Required: []string{"block_name"},
					},
				},
			},
			Handler: getLiftingSchedule,
		},
		{
			Name: "get_well_status",
			Definition: anthropic.ToolUnionParam{
				OfTool: &anthropic.ToolParam{
					Name:        "get_well_status",
					Description: anthropic.String("Query operational status of wells in a block."),
					InputSchema: anthropic.ToolInputSchemaParam{
						Properties: map[string]interface{}{
							"block_name": map[string]interface{}{
								"type":        "string",
								"description": "Block name",
							},
							"well_ids": map[string]interface{}{
								"type":        "array",
								"items":       map[string]interface{}{"type": "string"},
								"description": "Specific well IDs (optional; all wells if omitted)",
							},
						},
						Required: []string{"block_name"},
					},
				},
			},
			Handler: getWellStatus,
		},
	}
}

func getProductionData(_ context.Context, input json.RawMessage) (string, error) {
	var args struct {
		BlockName string `json:"block_name"`
	}
	if err := decodeInput(input, &args); err != nil {
		return "", err
	}
	if args.BlockName == "" {
		return "", fmt.Errorf("block_name is required")
	}

	block := productionByBlock[args.BlockName]
	status := "operational"
	if block.OilBOPD == 0 {
		status = "unknown"
	}

	return marshalResult(map[string]any{
		"block":                 args.BlockName,
		"date":                  time.Now().Format("2006-01-02"),
		"oil_production_bopd":   block.OilBOPD,
		"gas_production_mmscfd": block.GasMMSCFD,
		"status":                status,
		"wells_active":          block.Wells,
		"data_quality":          "real-time",
	})
}

func getLiftingSchedule(_ context.Context, input json.RawMessage) (string, error) {
	var args struct {
		BlockName string `json:"block_name"`
		DaysAhead int    `json:"days_ahead"`
	}
	if err := decodeInput(input, &args); err != nil {
		return "", err
	}
	if args.BlockName == "" {
		return "", fmt.Errorf("block_name is required")
	}
	if args.DaysAhead <= 0 {
		args.DaysAhead = 7
	}

	// One lifting roughly every second day, 500k barrels each.
	base := time.Now()
	var schedule []map[string]any
	total := 0
	for i := 0; i < args.DaysAhead; i += 2 {
		volume := 500000
		schedule = append(schedule, map[string]any{
			"date":           base.AddDate(0, 0, i).Format("2006-01-02"),
			"volume_barrels": volume,
			"vessel":         liftingVessels[(i/2)%len(liftingVessels)],
			"destination":    liftingDestinations[(i/2)%len(liftingDestinations)],
		})
		total += volume
	}

	return marshalResult(map[string]any{
		"block":                args.BlockName,
		"schedule_period_days": args.DaysAhead,
		"schedule":             schedule,
		"total_volume_barrels": total,
	})
}

func getWellStatus(_ context.Context, input json.RawMessage) (string, error) {
	var args struct {
		BlockName string   `json:"block_name"`
		WellIDs   []string `json:"well_ids"`
	}
	if err := decodeInput(input, &args); err != nil {
		return "", err
	}
	if args.BlockName == "" {
		return "", fmt.Errorf("block_name is required")
	}

	ids := args.WellIDs
	if len(ids) == 0 {
		prefix := args.BlockName
		if len(prefix) > 3 {
			prefix = prefix[:3]
		}
		for i := 1; i <= 5; i++ {
			ids = append(ids, fmt.Sprintf("%s-%03d", prefix, i))
		}
	}

	wells := make([]map[string]any, 0, len(ids))
	for i, id := range ids {
		// Every fourth well is down for maintenance.
		if i%4 == 3 {
			wells = append(wells, map[string]any{
				"id":             id,
				"status":         "maintenance",
				"downtime_hours": 48,
			})
			continue
		}
		wells = append(wells, map[string]any{
			"id":              id,
			"status":          "producing",
			"production_bopd": 120 + 10*i,
		})
	}

	return marshalResult(map[string]any{
		"block":               args.BlockName,
		"total_wells_queried": len(wells),
		"wells":               wells,
		"query_timestamp":     time.Now().Format(time.RFC3339),
	})
}
