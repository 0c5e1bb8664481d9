// Package specialist defines the domain specialists and the tool-calling
// execution loop each one runs for a query.
package specialist

import (
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"go.yaml.in/yaml/v3"

	"nexus/pkg/models"
)

// Specialist is a domain-scoped responder: a name, a system directive, and
// (via the capability registry) a fixed tool set.
type Specialist struct {
	Name        models.SpecialistName
	Description string
	Directive   string
	// Model overrides the client default for this specialist when set.
	Model anthropic.Model
}

// Set holds the configured specialists, addressable by name.
type Set struct {
	byName map[models.SpecialistName]Specialist
}

// BuiltinSet returns the three built-in specialists with their default
// directives.
func BuiltinSet() *Set {
	set := &Set{byName: make(map[models.SpecialistName]Specialist)}
	for _, s := range builtinSpecialists() {
		set.byName[s.Name] = s
	}
	return set
}

// Get returns the specialist with the given name.
func (s *Set) Get(name models.SpecialistName) (Specialist, bool) {
	spec, ok := s.byName[name]
	return spec, ok
}

// All returns the specialists in fixed precedence order.
func (s *Set) All() []Specialist {
	out := make([]Specialist, 0, len(s.byName))
	for _, name := range models.SpecialistPrecedence {
		if spec, ok := s.byName[name]; ok {
			out = append(out, spec)
		}
	}
	return out
}

// overrideFile is the YAML structure for specialist definition overrides.
type overrideFile struct {
	Specialists map[string]struct {
		Description string `yaml:"description"`
		Directive   string `yaml:"directive"`
		Model       string `yaml:"model"`
	} `yaml:"specialists"`
}

// ApplyOverrides merges a YAML definitions file into the set. Only known
// specialist names are accepted; empty fields keep their built-in values.
func (s *Set) ApplyOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read specialist definitions: %w", err)
	}

	var file overrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse specialist definitions: %w", err)
	}

	for name, override := range file.Specialists {
		spec, ok := s.byName[models.SpecialistName(name)]
		if !ok {
			return fmt.Errorf("unknown specialist %q in %s", name, path)
		}
		if override.Description != "" {
			spec.Description = override.Description
		}
		if override.Directive != "" {
			spec.Directive = override.Directive
		}
		if override.Model != "" {
			spec.Model = anthropic.Model(override.Model)
		}
		s.byName[spec.Name] = spec
	}
	return nil
}

func builtinSpecialists() []Specialist {
	return []Specialist{
		{
			Name: models.SpecialistUpstream,
			Description: "Specialist in oil & gas upstream production data: " +
				"production volumes, lifting schedules, well status, and field operations.",
			Directive: `You are the Upstream Production Specialist.

Your expertise:
- Oil and gas production data for all blocks (Rokan, Mahakam, Cepu)
- Lifting schedules and tanker operations
- Well status and operational metrics

Guidelines:
1. Always provide specific numerical data when available
2. Include units (BOPD for oil, MMSCFD for gas)
3. Mention data quality and timestamp
4. Flag abnormal production proactively

Start with the key findings, give context against normal operations, then
flag issues. Be concise but complete.`,
		},
		{
			Name: models.SpecialistLogistics,
			Description: "Specialist in shipping logistics: vessel tracking, " +
				"marine weather, delivery status, and shipping delays.",
			Directive: `You are the Logistics Specialist.

Your expertise:
- Tanker tracking: position, speed, route, ETA
- Marine weather along shipping routes
- End-to-end delivery status and delays

Guidelines:
1. Report vessel positions with route context and ETA
2. Relate weather risk to schedule impact
3. Flag delays and suggest mitigations

Lead with current status, then risks, then recommendations. Be concise.`,
		},
		{
			Name: models.SpecialistFinance,
			Description: "Specialist in financial analysis: revenue impact, " +
				"operating costs, profitability, and market price trends.",
			Directive: `You are the Finance Specialist.

Your expertise:
- Revenue impact of production and shipment volumes
- Operating cost analysis per block
- Profitability metrics and margins
- Energy commodity price trends

Guidelines:
1. Show the numbers behind every conclusion, in USD (and IDR where useful)
2. State the price benchmark and exchange rate used
3. Call out margin pressure or cost anomalies

Lead with the financial headline, then the calculation, then the assessment.`,
		},
	}
}
