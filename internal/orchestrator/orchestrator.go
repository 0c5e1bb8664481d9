package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"nexus/internal/capability"
	"nexus/internal/llm"
	"nexus/internal/router"
	"nexus/internal/specialist"
	"nexus/internal/state"
	"nexus/pkg/models"
)

// ClarificationText is the fixed response for CLARIFY routings. The
// clarification path is a first-class terminal state, not an error.
const ClarificationText = "I need more information to help you. Could you please clarify your question? " +
	"Are you asking about production data, shipping logistics, or financial analysis?"

// FailureText is the generic response when every activated specialist
// degraded with no usable content.
const FailureText = "Sorry, I was unable to answer that right now. Please try again in a moment."

// ErrAllSpecialistsFailed is returned alongside a failed RunResult when no
// specialist produced usable content.
var ErrAllSpecialistsFailed = errors.New("all specialists failed")

// RunRecorder persists completed run records. Optional; a nil recorder
// disables persistence.
type RunRecorder interface {
	SaveRun(r *state.Run) error
}

// RequiredConfig holds the collaborators every orchestrator needs: the
// reasoning client, the capability registry, and the specialist set. They
// are constructed once at process start and passed in explicitly; there is
// no ambient singleton.
type RequiredConfig struct {
	Reasoner    llm.Reasoner
	Registry    *capability.Registry
	Specialists *specialist.Set
}

// Orchestrator owns one query's RunState from routing through final
// response: it classifies intent, fans out specialist loops, joins them,
// and synthesizes.
type Orchestrator struct {
	reasoner    llm.Reasoner
	registry    *capability.Registry
	specialists *specialist.Set
	router      *router.Router
	synth       *Synthesizer

	maxIterations int
	runTimeout    time.Duration

	store   RunRecorder
	signals *SignalManager
	tracker *llm.TokenTracker
	logger  *DebugLogger
	onEvent func(specialist.Event)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRouterModel sets the classification model.
func WithRouterModel(model anthropic.Model) Option {
	return func(o *Orchestrator) {
		o.router = router.New(o.reasoner,
			router.WithModel(model),
			router.WithAmbiguousHandler(func(query, raw string) {
				debugLog("ambiguous routing label %q for query %q", raw, query)
			}))
	}
}

// WithSynthesizerModel sets the synthesis model.
func WithSynthesizerModel(model anthropic.Model) Option {
	return func(o *Orchestrator) { o.synth = NewSynthesizer(o.reasoner, model) }
}

// WithMaxIterations bounds each specialist loop's reasoning calls.
func WithMaxIterations(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithRunTimeout bounds a whole run's wall-clock time.
func WithRunTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.runTimeout = d
		}
	}
}

// WithStore enables run-record persistence.
func WithStore(store RunRecorder) Option {
	return func(o *Orchestrator) { o.store = store }
}

// WithSignals wires the operator stop-signal manager into specialist loops.
func WithSignals(signals *SignalManager) Option {
	return func(o *Orchestrator) { o.signals = signals }
}

// WithTokenTracker records per-run token usage in results.
func WithTokenTracker(tracker *llm.TokenTracker) Option {
	return func(o *Orchestrator) { o.tracker = tracker }
}

// WithLogger sets the debug logger.
func WithLogger(logger *DebugLogger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
		setPackageLogger(logger)
	}
}

// WithEventHandler streams specialist loop events to the caller.
func WithEventHandler(fn func(specialist.Event)) Option {
	return func(o *Orchestrator) { o.onEvent = fn }
}

// New creates an Orchestrator.
func New(required RequiredConfig, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		reasoner:      required.Reasoner,
		registry:      required.Registry,
		specialists:   required.Specialists,
		maxIterations: 10,
		runTimeout:    5 * time.Minute,
	}
	o.router = router.New(o.reasoner,
		router.WithAmbiguousHandler(func(query, raw string) {
			debugLog("ambiguous routing label %q for query %q", raw, query)
		}))
	o.synth = NewSynthesizer(o.reasoner, "")

	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one query end to end and returns the service-layer contract:
// final response, routing decision, and specialists involved. Synchronous
// from the caller's perspective; loops run concurrently inside.
func (o *Orchestrator) Run(ctx context.Context, query, userID, userRole string) (*models.RunResult, error) {
	runID := uuid.New().String()[:8]
	started := time.Now()

	var tokensInStart, tokensOutStart int64
	if o.tracker != nil {
		tokensInStart, tokensOutStart = o.tracker.Total()
	}

	st := models.NewRunState(runID, query, userID, userRole)
	debugLog("run %s: query %q user=%s role=%s", runID, query, userID, userRole)

	decision, err := o.router.Classify(ctx, query)
	if err != nil {
		debugLog("run %s: classification failed: %v", runID, err)
		return nil, err
	}
	st.Decision = decision
	debugLog("run %s: routed %s", runID, decision)

	names := decision.Specialists()
	if decision == models.DecisionClarify || len(names) == 0 {
		// Short-circuit: no specialist loops start.
		st.SetFinalResponse(ClarificationText)
		result := o.finishRun(st, started, models.RunClarification, nil, false,
			tokensInStart, tokensOutStart)
		return result, nil
	}

	outputs, degraded := o.fanOut(ctx, st, names)

	if len(outputs) == 0 {
		st.SetFinalResponse(FailureText)
		result := o.finishRun(st, started, models.RunFailed, names, true,
			tokensInStart, tokensOutStart)
		return result, ErrAllSpecialistsFailed
	}

	final := outputs[0].Text
	if len(outputs) > 1 {
		combined, err := o.synth.Combine(ctx, query, outputs)
		if err != nil {
			// The specialists already did the work; answer with their
			// outputs rather than discarding the run.
			debugLog("run %s: synthesis failed, falling back: %v", runID, err)
			combined = fallbackCombine(outputs)
			degraded = true
		}
		final = combined
	}

	st.SetFinalResponse(final)
	result := o.finishRun(st, started, models.RunCompleted, names, degraded,
		tokensInStart, tokensOutStart)
	return result, nil
}

// fanOut runs one specialist loop per activated specialist, all seeded with
// the same read-only history snapshot, and joins them. Returned outputs are
// in fixed precedence order regardless of completion order; degraded is set
// when any loop was cancelled, stopped, or failed.
func (o *Orchestrator) fanOut(ctx context.Context, st *models.RunState, names []models.SpecialistName) ([]SpecialistOutput, bool) {
	runCtx, cancel := context.WithTimeout(ctx, o.runTimeout)
	defer cancel()

	var stop func() bool
	if o.signals != nil {
		stop = o.signals.ShouldStop
	}

	results := make([]*specialist.LoopResult, len(names))
	cancelled := make([]bool, len(names))

	// The group is a join barrier only: loop failures degrade their own
	// slot and must never cancel sibling loops, so every goroutine
	// returns nil.
	var g errgroup.Group
	for i, name := range names {
		spec, ok := o.specialists.Get(name)
		if !ok {
			debugLog("run %s: no specialist registered for %s", st.ID, name)
			continue
		}

		loop := specialist.NewLoop(specialist.LoopConfig{
			Specialist:    spec,
			Reasoner:      o.reasoner,
			Registry:      o.registry,
			MaxIterations: o.maxIterations,
			Stop:          stop,
			OnEvent:       o.onEvent,
		})

		i, name := i, name
		g.Go(func() error {
			res, err := loop.Run(runCtx, st.History)
			results[i] = res
			if err != nil {
				// Deadline or cancellation: this loop contributes no
				// final message.
				cancelled[i] = true
				debugLog("run %s: specialist %s cancelled after %d iterations: %v",
					st.ID, name, res.Iterations, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var outputs []SpecialistOutput
	degraded := false
	for i, name := range names {
		res := results[i]
		if res == nil {
			degraded = true
			continue
		}
		st.Iterations[name] = res.Iterations
		st.Degraded[name] = res.Degraded || cancelled[i]
		st.Completed[name] = !cancelled[i]
		if res.Degraded || cancelled[i] {
			degraded = true
		}
		if cancelled[i] || res.Output == "" {
			continue
		}
		outputs = append(outputs, SpecialistOutput{Name: name, Text: res.Output})
	}
	return outputs, degraded
}

// finishRun builds the result, persists the record, and logs the outcome.
func (o *Orchestrator) finishRun(st *models.RunState, started time.Time, status models.RunStatus,
	names []models.SpecialistName, degraded bool, tokensInStart, tokensOutStart int64) *models.RunResult {

	final, _ := st.FinalResponse()

	var tokensIn, tokensOut int64
	if o.tracker != nil {
		in, out := o.tracker.Total()
		tokensIn = in - tokensInStart
		tokensOut = out - tokensOutStart
	}

	result := &models.RunResult{
		RunID:               st.ID,
		FinalResponse:       final,
		RoutingDecision:     st.Decision,
		SpecialistsInvolved: names,
		Status:              status,
		Degraded:            degraded,
		Iterations:          st.Iterations,
		TokensIn:            tokensIn,
		TokensOut:           tokensOut,
		Duration:            time.Since(started),
	}

	if o.store != nil {
		rec := &state.Run{
			ID:            st.ID,
			Query:         st.Query,
			UserID:        st.UserID,
			UserRole:      st.UserRole,
			Routing:       st.Decision,
			Specialists:   names,
			FinalResponse: final,
			Status:        status,
			Degraded:      degraded,
			Iterations:    st.Iterations,
			TokensIn:      tokensIn,
			TokensOut:     tokensOut,
			StartedAt:     started,
			Duration:      result.Duration,
		}
		if err := o.store.SaveRun(rec); err != nil {
			debugLog("run %s: save record: %v", st.ID, err)
		}
	}

	debugLog("run %s: %s in %s (specialists=%v degraded=%v)",
		st.ID, status, result.Duration.Round(time.Millisecond), names, degraded)
	return result
}
