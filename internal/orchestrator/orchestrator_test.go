package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"nexus/internal/capability"
	"nexus/internal/llm"
	"nexus/internal/specialist"
	"nexus/internal/state"
	"nexus/pkg/models"
)

// fakeReasoner dispatches on the request directive: routing calls get the
// scripted label, specialist calls get a per-specialist reply, synthesis
// calls get the scripted synthesis text.
type fakeReasoner struct {
	mu sync.Mutex

	routeLabel string
	replies    map[models.SpecialistName]func(ctx context.Context) (*models.Message, error)
	synthReply string

	routeCalls  int
	synthCalls  int
	synthPrompt string
	loopCalls   map[models.SpecialistName]int
}

func newFakeReasoner(routeLabel string) *fakeReasoner {
	return &fakeReasoner{
		routeLabel: routeLabel,
		replies:    make(map[models.SpecialistName]func(ctx context.Context) (*models.Message, error)),
		synthReply: "synthesized answer",
		loopCalls:  make(map[models.SpecialistName]int),
	}
}

func (f *fakeReasoner) reply(name models.SpecialistName, text string) {
	f.replies[name] = func(context.Context) (*models.Message, error) {
		return &models.Message{Role: models.RoleSpecialist, Content: text}, nil
	}
}

func (f *fakeReasoner) fail(name models.SpecialistName) {
	f.replies[name] = func(context.Context) (*models.Message, error) {
		return nil, &llm.ServiceError{Err: errors.New("service unavailable")}
	}
}

func (f *fakeReasoner) Generate(ctx context.Context, req llm.GenerateRequest) (*models.Message, error) {
	switch {
	case strings.Contains(req.Directive, "intent router"):
		f.mu.Lock()
		f.routeCalls++
		f.mu.Unlock()
		return &models.Message{Role: models.RoleSpecialist, Content: f.routeLabel}, nil

	case strings.Contains(req.Directive, "synthesizing responses"):
		f.mu.Lock()
		f.synthCalls++
		f.synthPrompt = req.History[0].Content
		f.mu.Unlock()
		return &models.Message{Role: models.RoleSpecialist, Content: f.synthReply}, nil

	case strings.Contains(req.Directive, "Upstream Production Specialist"):
		return f.specialistReply(ctx, models.SpecialistUpstream)
	case strings.Contains(req.Directive, "Logistics Specialist"):
		return f.specialistReply(ctx, models.SpecialistLogistics)
	case strings.Contains(req.Directive, "Finance Specialist"):
		return f.specialistReply(ctx, models.SpecialistFinance)
	}
	return nil, errors.New("unexpected directive")
}

func (f *fakeReasoner) specialistReply(ctx context.Context, name models.SpecialistName) (*models.Message, error) {
	f.mu.Lock()
	f.loopCalls[name]++
	fn := f.replies[name]
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("no scripted reply for " + string(name))
	}
	return fn(ctx)
}

func newTestOrchestrator(reasoner llm.Reasoner, opts ...Option) *Orchestrator {
	return New(RequiredConfig{
		Reasoner:    reasoner,
		Registry:    capability.NewRegistry(),
		Specialists: specialist.BuiltinSet(),
	}, opts...)
}

func TestRunClarifyShortCircuits(t *testing.T) {
	fake := newFakeReasoner("CLARIFY")
	orch := newTestOrchestrator(fake)

	result, err := orch.Run(context.Background(), "help", "u1", "analyst")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != models.RunClarification {
		t.Errorf("expected clarification status, got %s", result.Status)
	}
	if result.FinalResponse != ClarificationText {
		t.Errorf("unexpected final response: %q", result.FinalResponse)
	}
	if len(fake.loopCalls) != 0 {
		t.Errorf("no specialist loop should start on CLARIFY, got %v", fake.loopCalls)
	}
	if fake.synthCalls != 0 {
		t.Error("no synthesis should run on CLARIFY")
	}
	if len(result.SpecialistsInvolved) != 0 {
		t.Errorf("expected no specialists, got %v", result.SpecialistsInvolved)
	}
}

func TestRunUnrecognizedLabelClarifies(t *testing.T) {
	fake := newFakeReasoner("I would say UPSTREAM, probably")
	orch := newTestOrchestrator(fake)

	result, err := orch.Run(context.Background(), "q", "u1", "analyst")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RoutingDecision != models.DecisionClarify {
		t.Errorf("expected CLARIFY fallback, got %s", result.RoutingDecision)
	}
	if len(fake.loopCalls) != 0 {
		t.Errorf("no specialist loop should start, got %v", fake.loopCalls)
	}
}

func TestRunSingleSpecialistVerbatim(t *testing.T) {
	fake := newFakeReasoner("UPSTREAM")
	fake.reply(models.SpecialistUpstream, "Rokan is at 150000 BOPD.")
	orch := newTestOrchestrator(fake)

	result, err := orch.Run(context.Background(), "production at Rokan?", "u1", "analyst")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != models.RunCompleted {
		t.Errorf("expected completed, got %s", result.Status)
	}
	if result.FinalResponse != "Rokan is at 150000 BOPD." {
		t.Errorf("single specialist output must pass through verbatim, got %q", result.FinalResponse)
	}
	if fake.synthCalls != 0 {
		t.Error("synthesis must be skipped for a single specialist")
	}
	if result.Degraded {
		t.Error("clean run should not be degraded")
	}
}

func TestRunMultiSpecialistSynthesized(t *testing.T) {
	fake := newFakeReasoner("UPSTREAM_LOGISTICS")
	// Upstream responds slowly so logistics finishes first; synthesis
	// input order must still follow precedence, not completion order.
	fake.replies[models.SpecialistUpstream] = func(context.Context) (*models.Message, error) {
		time.Sleep(50 * time.Millisecond)
		return &models.Message{Role: models.RoleSpecialist, Content: "upstream facts"}, nil
	}
	fake.reply(models.SpecialistLogistics, "logistics facts")
	orch := newTestOrchestrator(fake)

	result, err := orch.Run(context.Background(), "production and shipping?", "u1", "analyst")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinalResponse != "synthesized answer" {
		t.Errorf("expected synthesized answer, got %q", result.FinalResponse)
	}
	if fake.synthCalls != 1 {
		t.Fatalf("expected one synthesis call, got %d", fake.synthCalls)
	}

	upstreamAt := strings.Index(fake.synthPrompt, "[upstream]")
	logisticsAt := strings.Index(fake.synthPrompt, "[logistics]")
	if upstreamAt < 0 || logisticsAt < 0 {
		t.Fatalf("synthesis prompt missing specialist sections: %q", fake.synthPrompt)
	}
	if upstreamAt > logisticsAt {
		t.Error("synthesis input must follow precedence order, not completion order")
	}

	want := []models.SpecialistName{models.SpecialistUpstream, models.SpecialistLogistics}
	if len(result.SpecialistsInvolved) != 2 ||
		result.SpecialistsInvolved[0] != want[0] || result.SpecialistsInvolved[1] != want[1] {
		t.Errorf("expected specialists %v, got %v", want, result.SpecialistsInvolved)
	}
}

func TestRunPartialFailureDegrades(t *testing.T) {
	fake := newFakeReasoner("UPSTREAM_FINANCE")
	fake.reply(models.SpecialistUpstream, "upstream facts")
	fake.fail(models.SpecialistFinance)
	orch := newTestOrchestrator(fake)

	result, err := orch.Run(context.Background(), "production value?", "u1", "analyst")
	if err != nil {
		t.Fatalf("partial failure must not fail the run: %v", err)
	}
	if result.Status != models.RunCompleted {
		t.Errorf("expected completed, got %s", result.Status)
	}
	if !result.Degraded {
		t.Error("run with a failed specialist should be degraded")
	}
	// One usable output left: it passes through verbatim.
	if result.FinalResponse != "upstream facts" {
		t.Errorf("expected surviving output verbatim, got %q", result.FinalResponse)
	}
	if fake.synthCalls != 0 {
		t.Error("one usable output should skip synthesis")
	}
}

func TestRunAllSpecialistsFailed(t *testing.T) {
	fake := newFakeReasoner("ALL_AGENTS")
	for _, name := range models.SpecialistPrecedence {
		fake.fail(name)
	}
	orch := newTestOrchestrator(fake)

	result, err := orch.Run(context.Background(), "everything?", "u1", "analyst")
	if !errors.Is(err, ErrAllSpecialistsFailed) {
		t.Fatalf("expected ErrAllSpecialistsFailed, got %v", err)
	}
	if result == nil {
		t.Fatal("failed run should still return a result")
	}
	if result.Status != models.RunFailed {
		t.Errorf("expected failed status, got %s", result.Status)
	}
	if result.FinalResponse != FailureText {
		t.Errorf("unexpected final response: %q", result.FinalResponse)
	}
}

func TestRunTimeoutDoesNotHang(t *testing.T) {
	fake := newFakeReasoner("UPSTREAM")
	fake.replies[models.SpecialistUpstream] = func(ctx context.Context) (*models.Message, error) {
		<-ctx.Done()
		return nil, &llm.ServiceError{Err: ctx.Err()}
	}
	orch := newTestOrchestrator(fake, WithRunTimeout(30*time.Millisecond))

	done := make(chan struct{})
	var result *models.RunResult
	var err error
	go func() {
		result, err = orch.Run(context.Background(), "q", "u1", "analyst")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not terminate after the deadline")
	}

	if !errors.Is(err, ErrAllSpecialistsFailed) {
		t.Fatalf("expected ErrAllSpecialistsFailed, got %v", err)
	}
	if result.Status != models.RunFailed {
		t.Errorf("expected failed status, got %s", result.Status)
	}
}

func TestRunDeadlineKeepsSurvivingSpecialist(t *testing.T) {
	fake := newFakeReasoner("UPSTREAM_LOGISTICS")
	// Upstream never answers before the run deadline; logistics does. The
	// run must complete on the surviving output, flagged degraded.
	fake.replies[models.SpecialistUpstream] = func(ctx context.Context) (*models.Message, error) {
		<-ctx.Done()
		return nil, &llm.ServiceError{Err: ctx.Err()}
	}
	fake.reply(models.SpecialistLogistics, "vessel is on schedule")
	orch := newTestOrchestrator(fake, WithRunTimeout(50*time.Millisecond))

	result, err := orch.Run(context.Background(), "production and shipping?", "u1", "analyst")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != models.RunCompleted {
		t.Errorf("expected completed, got %s", result.Status)
	}
	if result.FinalResponse != "vessel is on schedule" {
		t.Errorf("expected surviving specialist output, got %q", result.FinalResponse)
	}
	if !result.Degraded {
		t.Error("run that lost a specialist to the deadline should be degraded")
	}
	if fake.synthCalls != 0 {
		t.Error("one usable output should skip synthesis")
	}
}

func TestRunClassificationErrorPropagates(t *testing.T) {
	failing := &failingReasoner{}
	orch := newTestOrchestrator(failing)

	_, err := orch.Run(context.Background(), "q", "u1", "analyst")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrAllSpecialistsFailed) {
		t.Error("classification failure is not a specialist failure")
	}
}

type failingReasoner struct{}

func (f *failingReasoner) Generate(ctx context.Context, req llm.GenerateRequest) (*models.Message, error) {
	return nil, &llm.ServiceError{Err: errors.New("down")}
}

// recordingStore captures saved run records.
type recordingStore struct {
	mu   sync.Mutex
	runs []*state.Run
}

func (r *recordingStore) SaveRun(run *state.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func TestRunPersistsRecord(t *testing.T) {
	fake := newFakeReasoner("FINANCE")
	fake.reply(models.SpecialistFinance, "margins look healthy")
	store := &recordingStore{}
	orch := newTestOrchestrator(fake, WithStore(store))

	result, err := orch.Run(context.Background(), "profitability?", "u7", "manager")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.runs) != 1 {
		t.Fatalf("expected one saved record, got %d", len(store.runs))
	}
	rec := store.runs[0]
	if rec.ID != result.RunID {
		t.Errorf("record ID %s does not match run ID %s", rec.ID, result.RunID)
	}
	if rec.Query != "profitability?" || rec.UserID != "u7" || rec.UserRole != "manager" {
		t.Errorf("record missing query attribution: %+v", rec)
	}
	if rec.Routing != models.DecisionFinance {
		t.Errorf("expected FINANCE routing, got %s", rec.Routing)
	}
	if rec.FinalResponse != "margins look healthy" {
		t.Errorf("unexpected recorded response: %q", rec.FinalResponse)
	}
}

func TestFallbackCombine(t *testing.T) {
	got := fallbackCombine([]SpecialistOutput{
		{Name: models.SpecialistUpstream, Text: "150000 BOPD"},
		{Name: models.SpecialistFinance, Text: "12.75M USD"},
	})
	want := "[upstream]\n150000 BOPD\n\n[finance]\n12.75M USD"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSynthesisFailureFallsBack(t *testing.T) {
	fake := newFakeReasoner("UPSTREAM_LOGISTICS")
	fake.reply(models.SpecialistUpstream, "upstream facts")
	fake.reply(models.SpecialistLogistics, "logistics facts")
	orch := newTestOrchestrator(fake)

	// Replace the synthesizer with one whose reasoner always fails.
	orch.synth = NewSynthesizer(&failingReasoner{}, "")

	result, err := orch.Run(context.Background(), "q", "u1", "analyst")
	if err != nil {
		t.Fatalf("synthesis failure must not fail the run: %v", err)
	}
	if !strings.Contains(result.FinalResponse, "[upstream]\nupstream facts") ||
		!strings.Contains(result.FinalResponse, "[logistics]\nlogistics facts") {
		t.Errorf("expected fallback combination, got %q", result.FinalResponse)
	}
	if !result.Degraded {
		t.Error("fallback combination should mark the run degraded")
	}
}
