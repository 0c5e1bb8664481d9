// Package router classifies a free-text query into a routing decision
// selecting which specialist(s) handle it.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"nexus/internal/llm"
	"nexus/pkg/models"
)

// routingDirective instructs the reasoning service to answer with exactly
// one label from the closed vocabulary.
const routingDirective = `You are the intent router for a multi-specialist energy operations assistant.

Available specialists:
- UPSTREAM: Production data, lifting schedules, well status, field operations
- LOGISTICS: Vessel tracking, weather, shipping delays, delivery status
- FINANCE: Revenue calculations, cost analysis, profitability, market trends

Routing rules:
- If the query is about PRODUCTION/VOLUMES/WELLS, route to UPSTREAM
- If the query is about SHIPPING/VESSELS/WEATHER/DELIVERY, route to LOGISTICS
- If the query is about REVENUE/COSTS/PROFITS/PRICES, route to FINANCE
- If the query spans multiple domains, select ALL relevant specialists
- If the query is ambiguous, ask for clarification

Your response must be exactly ONE of:
UPSTREAM, LOGISTICS, FINANCE, UPSTREAM_LOGISTICS, UPSTREAM_FINANCE, LOGISTICS_FINANCE, ALL_AGENTS, CLARIFY

Respond with only the routing decision, nothing else.`

// Router submits queries to the reasoning service and parses the returned
// label.
type Router struct {
	reasoner    llm.Reasoner
	model       anthropic.Model
	onAmbiguous func(query, raw string)
}

// Option configures a Router.
type Option func(*Router)

// WithModel sets the classification model.
func WithModel(model anthropic.Model) Option {
	return func(r *Router) { r.model = model }
}

// WithAmbiguousHandler registers a callback fired when the service returns
// an unrecognized label. Ambiguity is not an error, but it is a routing
// quality signal worth logging.
func WithAmbiguousHandler(fn func(query, raw string)) Option {
	return func(r *Router) { r.onAmbiguous = fn }
}

// New creates a Router backed by the given reasoner.
func New(reasoner llm.Reasoner, opts ...Option) *Router {
	r := &Router{reasoner: reasoner}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classify routes a query. Any returned text that is not exactly one of the
// known labels becomes CLARIFY; the router never silently selects zero
// specialists and proceeds.
func (r *Router) Classify(ctx context.Context, query string) (models.RoutingDecision, error) {
	msg, err := r.reasoner.Generate(ctx, llm.GenerateRequest{
		Directive: routingDirective,
		History:   []models.Message{models.UserMessage("User query: " + query)},
		Model:     r.model,
		MaxTokens: 64,
	})
	if err != nil {
		return "", fmt.Errorf("classify intent: %w", err)
	}

	decision := ParseDecision(msg.Content)
	if !ParsedExactly(msg.Content) && r.onAmbiguous != nil {
		r.onAmbiguous(query, msg.Content)
	}
	return decision, nil
}

// ParseDecision normalizes raw classifier output (trim, uppercase) and maps
// it onto the closed vocabulary. Unrecognized text yields CLARIFY.
func ParseDecision(raw string) models.RoutingDecision {
	label := models.RoutingDecision(strings.ToUpper(strings.TrimSpace(raw)))
	if label.Known() {
		return label
	}
	return models.DecisionClarify
}

// ParsedExactly reports whether raw matched a known label without falling
// back to the CLARIFY default.
func ParsedExactly(raw string) bool {
	return models.RoutingDecision(strings.ToUpper(strings.TrimSpace(raw))).Known()
}
