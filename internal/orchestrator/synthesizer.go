package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"nexus/internal/llm"
	"nexus/pkg/models"
)

// SpecialistOutput is one specialist's final message, handed to the
// synthesizer in fixed precedence order.
type SpecialistOutput struct {
	Name models.SpecialistName
	Text string
}

// Synthesizer merges multiple specialist outputs into one answer with a
// single reasoning call. No iteration, no capability calls.
type Synthesizer struct {
	reasoner llm.Reasoner
	model    anthropic.Model
}

// NewSynthesizer creates a Synthesizer. An empty model uses the client
// default.
func NewSynthesizer(reasoner llm.Reasoner, model anthropic.Model) *Synthesizer {
	return &Synthesizer{reasoner: reasoner, model: model}
}

const synthesisDirective = `You are synthesizing responses from multiple energy-operations specialists
into one answer for the user. Preserve every concrete figure with its units.
Resolve the responses into a single cohesive narrative; do not repeat the
specialists' outputs verbatim as separate sections.`

// Combine builds a combination directive embedding the outputs in the given
// order and submits it once. The caller guarantees the ordering.
func (s *Synthesizer) Combine(ctx context.Context, query string, outputs []SpecialistOutput) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "User question: %s\n\nSpecialist responses:\n", query)
	for _, out := range outputs {
		fmt.Fprintf(&b, "\n[%s]\n%s\n", out.Name, out.Text)
	}
	b.WriteString("\nCreate a cohesive, integrated final response.")

	msg, err := s.reasoner.Generate(ctx, llm.GenerateRequest{
		Directive: synthesisDirective,
		History:   []models.Message{models.UserMessage(b.String())},
		Model:     s.model,
	})
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	return msg.Content, nil
}

// fallbackCombine joins outputs verbatim when the synthesizer itself is
// unavailable, so a degraded run still answers with the gathered facts.
func fallbackCombine(outputs []SpecialistOutput) string {
	var b strings.Builder
	for i, out := range outputs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s]\n%s", out.Name, out.Text)
	}
	return b.String()
}
