// Package capability defines the schema-typed tools each specialist may
// invoke during reasoning, and the executor that dispatches invocations.
// The orchestration core never interprets capability semantics, only their
// names, argument shapes, and success/failure outcome.
package capability

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"nexus/pkg/models"
)

// Handler executes one capability invocation. A returned error becomes an
// error-flagged result fed back to the specialist, never a loop fault.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Capability pairs a tool schema with its handler.
type Capability struct {
	Name       string
	Definition anthropic.ToolUnionParam
	Handler    Handler
}

// Result is the outcome of one invocation.
type Result struct {
	Content string
	IsError bool
}

// Registry maps each specialist to its fixed set of named capabilities.
type Registry struct {
	bySpecialist map[models.SpecialistName][]Capability
}

// NewRegistry creates a registry with the built-in domain capability sets.
func NewRegistry() *Registry {
	return &Registry{
		bySpecialist: map[models.SpecialistName][]Capability{
			models.SpecialistUpstream:  upstreamCapabilities(),
			models.SpecialistLogistics: logisticsCapabilities(),
			models.SpecialistFinance:   financeCapabilities(),
		},
	}
}

// Definitions returns the tool schemas offered to the given specialist.
func (r *Registry) Definitions(specialist models.SpecialistName) []anthropic.ToolUnionParam {
	caps := r.bySpecialist[specialist]
	defs := make([]anthropic.ToolUnionParam, 0, len(caps))
	for _, c := range caps {
		defs = append(defs, c.Definition)
	}
	return defs
}

// Names returns the capability names declared by the given specialist.
func (r *Registry) Names(specialist models.SpecialistName) []string {
	caps := r.bySpecialist[specialist]
	names := make([]string, 0, len(caps))
	for _, c := range caps {
		names = append(names, c.Name)
	}
	return names
}

// Invoke runs a named capability for a specialist. Unknown tools and
// handler failures come back as error results; invocations are independent
// and side-effect-free on the orchestration's own state.
func (r *Registry) Invoke(ctx context.Context, specialist models.SpecialistName, name string, input json.RawMessage) Result {
	for _, c := range r.bySpecialist[specialist] {
		if c.Name != name {
			continue
		}
		content, err := c.Handler(ctx, input)
		if err != nil {
			return Result{Content: fmt.Sprintf("capability %s failed: %v", name, err), IsError: true}
		}
		return Result{Content: content}
	}
	return Result{Content: fmt.Sprintf("unknown capability %q for specialist %s", name, specialist), IsError: true}
}

// marshalResult encodes a handler's payload as compact JSON.
func marshalResult(payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(data), nil
}

// decodeInput parses an invocation's argument record.
func decodeInput(input json.RawMessage, dst any) error {
	if len(input) == 0 {
		return fmt.Errorf("missing arguments")
	}
	if err := json.Unmarshal(input, dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
