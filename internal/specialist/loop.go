package specialist

import (
	"context"
	"sync"

	"nexus/internal/capability"
	"nexus/internal/llm"
	"nexus/pkg/models"
)

// Event is emitted during loop execution for streaming to a UI or log.
type Event struct {
	Type       string // "text", "tool_use", "tool_result", "done", "degraded"
	Specialist models.SpecialistName
	Tool       string
	Content    string
}

// LoopConfig configures one specialist execution loop.
type LoopConfig struct {
	Specialist    Specialist
	Reasoner      llm.Reasoner
	Registry      *capability.Registry
	MaxIterations int // reasoning calls before forced termination (0 = default 10)
	// Stop is polled before each reasoning step; returning true ends the
	// loop early with whatever output exists. Optional.
	Stop func() bool
	// OnEvent receives streaming events. Optional.
	OnEvent func(Event)
}

// Loop is the per-specialist state machine: REASON alternates with
// CALL_TOOLS until the specialist stops requesting capabilities or the
// iteration bound forces termination.
type Loop struct {
	spec          Specialist
	reasoner      llm.Reasoner
	registry      *capability.Registry
	maxIterations int
	stop          func() bool
	onEvent       func(Event)
}

// LoopResult is the outcome of one completed loop.
type LoopResult struct {
	Specialist models.SpecialistName
	// Output is the specialist's final textual message. When the bound
	// forces termination, this is the last reasoning output, however
	// incomplete.
	Output string
	// History is the loop's private branch, seed included.
	History    []models.Message
	Iterations int
	ToolCalls  int
	// Degraded is set when a reasoning-service failure forced DONE.
	Degraded bool
	// Stopped is set when an operator stop signal ended the loop.
	Stopped bool
}

// NewLoop creates a specialist execution loop.
func NewLoop(cfg LoopConfig) *Loop {
	maxIter := cfg.MaxIterations
	if maxIter == 0 {
		maxIter = 10
	}
	return &Loop{
		spec:          cfg.Specialist,
		reasoner:      cfg.Reasoner,
		registry:      cfg.Registry,
		maxIterations: maxIter,
		stop:          cfg.Stop,
		onEvent:       cfg.OnEvent,
	}
}

func (l *Loop) emit(event Event) {
	if l.onEvent != nil {
		event.Specialist = l.spec.Name
		l.onEvent(event)
	}
}

// Run executes the loop against a private branch of the seed history. The
// iteration bound is enforced here, by the loop driver itself: the loop
// self-terminates even if the reasoning service keeps requesting
// capability calls. The returned error is non-nil only for context
// cancellation; every other failure degrades the result instead.
func (l *Loop) Run(ctx context.Context, seed []models.Message) (*LoopResult, error) {
	history := models.CloneHistory(seed)
	result := &LoopResult{Specialist: l.spec.Name}
	tools := l.registry.Definitions(l.spec.Name)

	for result.Iterations < l.maxIterations {
		if err := ctx.Err(); err != nil {
			result.History = history
			result.Degraded = true
			return result, err
		}
		if l.stop != nil && l.stop() {
			result.History = history
			result.Stopped = true
			result.Degraded = true
			l.emit(Event{Type: "degraded", Content: "stop signal received"})
			return result, nil
		}

		// REASON
		result.Iterations++
		msg, err := l.reasoner.Generate(ctx, llm.GenerateRequest{
			Directive: l.spec.Directive,
			History:   history,
			Tools:     tools,
			Model:     l.spec.Model,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				result.History = history
				result.Degraded = true
				return result, ctxErr
			}
			// Reasoning failure forces DONE; the loop keeps whatever
			// history exists and surfaces as degraded, never as a fault.
			result.History = history
			result.Degraded = true
			l.emit(Event{Type: "degraded", Content: err.Error()})
			return result, nil
		}

		history = append(history, *msg)
		if msg.Content != "" {
			result.Output = msg.Content
			l.emit(Event{Type: "text", Content: msg.Content})
		}

		if len(msg.ToolCalls) == 0 {
			result.History = history
			l.emit(Event{Type: "done"})
			return result, nil
		}

		if result.Iterations >= l.maxIterations {
			// Bound reached with capability requests pending: forced
			// termination, not an error.
			break
		}

		// CALL_TOOLS: invocations within one step are independent; a
		// failure in one never cancels its siblings.
		history = append(history, l.invokeAll(ctx, msg.ToolCalls)...)
		result.ToolCalls += len(msg.ToolCalls)
	}

	result.History = history
	l.emit(Event{Type: "done", Content: "iteration bound reached"})
	return result, nil
}

// invokeAll runs every requested capability in parallel and returns one
// capability-result message per invocation, in request order.
func (l *Loop) invokeAll(ctx context.Context, calls []models.ToolCall) []models.Message {
	results := make([]models.Message, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call models.ToolCall) {
			defer wg.Done()
			l.emit(Event{Type: "tool_use", Tool: call.Name, Content: string(call.Input)})
			out := l.registry.Invoke(ctx, l.spec.Name, call.Name, call.Input)
			l.emit(Event{Type: "tool_result", Tool: call.Name, Content: truncateForDisplay(out.Content)})
			results[i] = models.CapabilityMessage(call.ID, out.Content, out.IsError)
		}(i, call)
	}
	wg.Wait()

	return results
}

func truncateForDisplay(s string) string {
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
