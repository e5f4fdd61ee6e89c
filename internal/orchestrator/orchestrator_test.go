package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/batonlabs/baton/internal/agent"
	"github.com/batonlabs/baton/internal/aicf"
	"github.com/batonlabs/baton/pkg/models"
)

func mockInvokers() map[string]agent.Invoker {
	invokers := make(map[string]agent.Invoker)
	for _, p := range DefaultProfiles() {
		invokers[p.ID] = &agent.MockInvoker{AgentID: p.ID}
	}
	return invokers
}

func persistedRecords(t *testing.T, store *aicf.Store) []*aicf.Record {
	t.Helper()
	files, err := store.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("len(ListFiles()) = %d, want 1", len(files))
	}
	records, err := store.ReadFile(filepath.Join(store.Dir(), files[0]))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	return records
}

func TestRun_CompletesBuildPlan(t *testing.T) {
	store := aicf.NewStore(t.TempDir())
	invokers := mockInvokers()
	o := New(Config{Registry: DefaultRegistry(), Invokers: invokers, Store: store})

	state, err := o.Run(context.Background(), "Build a login page")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if state.Status != models.StatusComplete {
		t.Errorf("Status = %v, want %v", state.Status, models.StatusComplete)
	}
	if len(state.SessionID) != 8 {
		t.Errorf("SessionID = %q, want 8 chars", state.SessionID)
	}
	if len(state.Results) != 3 {
		t.Fatalf("len(Results) = %d, want 3", len(state.Results))
	}

	wantAgents := []string{"architect", "builder", "reviewer"}
	for i, r := range state.Results {
		if r.AgentID != wantAgents[i] {
			t.Errorf("Results[%d].AgentID = %q, want %q", i, r.AgentID, wantAgents[i])
		}
		if r.StepIndex != i {
			t.Errorf("Results[%d].StepIndex = %d, want %d", i, r.StepIndex, i)
		}
	}

	if state.Synthesis == nil {
		t.Fatal("Synthesis = nil, want result")
	}
	if state.Synthesis.StepIndex != 3 {
		t.Errorf("Synthesis.StepIndex = %d, want 3", state.Synthesis.StepIndex)
	}
	if state.Synthesis.AgentID != "reviewer" {
		t.Errorf("Synthesis.AgentID = %q, want %q (last-used agent)", state.Synthesis.AgentID, "reviewer")
	}

	records := persistedRecords(t, store)
	if len(records) != 1 {
		t.Fatalf("persisted records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.ConversationID != state.SessionID {
		t.Errorf("ConversationID = %q, want %q", rec.ConversationID, state.SessionID)
	}
	if len(rec.AIActions) != 4 {
		t.Errorf("len(AIActions) = %d, want 4 (three steps plus synthesis)", len(rec.AIActions))
	}
	if rec.WorkingState.NextAction != "none" {
		t.Errorf("NextAction = %q, want %q", rec.WorkingState.NextAction, "none")
	}
}

func TestRun_StepFailurePropagates(t *testing.T) {
	store := aicf.NewStore(t.TempDir())
	invokers := mockInvokers()
	boom := agent.NewError(agent.ErrProvider, "builder", errors.New("boom"))
	invokers["builder"] = &agent.MockInvoker{
		AgentID: "builder",
		Respond: func(prompt, compressedContext string) (*agent.InvokeResult, error) {
			return nil, boom
		},
	}
	o := New(Config{Registry: DefaultRegistry(), Invokers: invokers, Store: store})

	state, err := o.Run(context.Background(), "Build a login page")
	if err == nil {
		t.Fatal("Run() error = nil, want failure")
	}
	var agentErr *agent.Error
	if !errors.As(err, &agentErr) {
		t.Fatalf("Run() error = %v, want *agent.Error", err)
	}
	if agentErr.Kind != agent.ErrProvider {
		t.Errorf("Kind = %v, want %v", agentErr.Kind, agent.ErrProvider)
	}

	if state.Status != models.StatusFailed {
		t.Errorf("Status = %v, want %v", state.Status, models.StatusFailed)
	}
	if state.FailedStep != 1 {
		t.Errorf("FailedStep = %d, want 1", state.FailedStep)
	}
	if len(state.Results) != 1 {
		t.Fatalf("len(Results) = %d, want 1 (step 0 only)", len(state.Results))
	}
	if state.Results[0].AgentID != "architect" {
		t.Errorf("Results[0].AgentID = %q, want %q", state.Results[0].AgentID, "architect")
	}

	// Step 2's agent was never reached.
	reviewer := invokers["reviewer"].(*agent.MockInvoker)
	if calls := reviewer.Calls(); len(calls) != 0 {
		t.Errorf("reviewer calls = %d, want 0", len(calls))
	}

	// The partial session is still persisted.
	records := persistedRecords(t, store)
	rec := records[0]
	if len(rec.AIActions) != 1 {
		t.Errorf("len(AIActions) = %d, want 1", len(rec.AIActions))
	}
	if rec.WorkingState.NextAction != "retry:implementation" {
		t.Errorf("NextAction = %q, want %q", rec.WorkingState.NextAction, "retry:implementation")
	}
	if len(rec.WorkingState.Blockers) != 1 {
		t.Errorf("Blockers = %v, want one cause", rec.WorkingState.Blockers)
	}
}

func TestRun_SynthesisFailure(t *testing.T) {
	store := aicf.NewStore(t.TempDir())
	invokers := mockInvokers()
	calls := 0
	invokers["reviewer"] = &agent.MockInvoker{
		AgentID: "reviewer",
		Respond: func(prompt, compressedContext string) (*agent.InvokeResult, error) {
			calls++
			if calls == 1 {
				// The review step itself succeeds.
				return &agent.InvokeResult{Text: "looks good", TokenCount: 5}, nil
			}
			return nil, agent.NewError(agent.ErrRateLimit, "reviewer", nil)
		},
	}
	o := New(Config{Registry: DefaultRegistry(), Invokers: invokers, Store: store})

	state, err := o.Run(context.Background(), "Build a login page")
	if err == nil {
		t.Fatal("Run() error = nil, want synthesis failure")
	}
	if state.Status != models.StatusFailed {
		t.Errorf("Status = %v, want %v", state.Status, models.StatusFailed)
	}
	if state.FailedStep != 3 {
		t.Errorf("FailedStep = %d, want 3 (len(steps))", state.FailedStep)
	}
	if len(state.Results) != 3 {
		t.Errorf("len(Results) = %d, want 3", len(state.Results))
	}
	if state.Synthesis != nil {
		t.Errorf("Synthesis = %+v, want nil", state.Synthesis)
	}

	rec := persistedRecords(t, store)[0]
	if rec.WorkingState.NextAction != "retry:synthesis" {
		t.Errorf("NextAction = %q, want %q", rec.WorkingState.NextAction, "retry:synthesis")
	}
}

func TestRun_ContextFlowsBetweenSteps(t *testing.T) {
	invokers := mockInvokers()
	o := New(Config{Registry: DefaultRegistry(), Invokers: invokers})

	if _, err := o.Run(context.Background(), "Build a login page"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	architect := invokers["architect"].(*agent.MockInvoker)
	builder := invokers["builder"].(*agent.MockInvoker)
	reviewer := invokers["reviewer"].(*agent.MockInvoker)

	// Step 0 sees no prior actions.
	first, err := aicf.Decode(architect.Calls()[0].CompressedContext)
	if err != nil {
		t.Fatalf("Decode(step 0 context) error = %v", err)
	}
	if len(first.AIActions) != 0 {
		t.Errorf("step 0 context AIActions = %d, want 0", len(first.AIActions))
	}

	// Step 1 sees step 0's result.
	second, err := aicf.Decode(builder.Calls()[0].CompressedContext)
	if err != nil {
		t.Fatalf("Decode(step 1 context) error = %v", err)
	}
	if len(second.AIActions) != 1 {
		t.Fatalf("step 1 context AIActions = %d, want 1", len(second.AIActions))
	}
	if second.AIActions[0].AgentID != "architect" {
		t.Errorf("step 1 context action agent = %q, want %q", second.AIActions[0].AgentID, "architect")
	}
	if !strings.Contains(builder.Calls()[0].Prompt, "Build a login page") {
		t.Errorf("step 1 prompt = %q, want it to carry the task", builder.Calls()[0].Prompt)
	}

	// The synthesis call carries every step result.
	reviewerCalls := reviewer.Calls()
	if len(reviewerCalls) != 2 {
		t.Fatalf("reviewer calls = %d, want 2 (review step plus synthesis)", len(reviewerCalls))
	}
	synth, err := aicf.Decode(reviewerCalls[1].CompressedContext)
	if err != nil {
		t.Fatalf("Decode(synthesis context) error = %v", err)
	}
	if len(synth.AIActions) != 3 {
		t.Errorf("synthesis context AIActions = %d, want 3", len(synth.AIActions))
	}
	if synth.WorkingState.NextAction != "synthesize" {
		t.Errorf("synthesis context NextAction = %q, want %q", synth.WorkingState.NextAction, "synthesize")
	}
}

func TestRun_CancellationBetweenSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	invokers := mockInvokers()
	invokers["architect"] = &agent.MockInvoker{
		AgentID: "architect",
		Respond: func(prompt, compressedContext string) (*agent.InvokeResult, error) {
			cancel()
			return &agent.InvokeResult{Text: "plan drafted", TokenCount: 3}, nil
		},
	}
	o := New(Config{Registry: DefaultRegistry(), Invokers: invokers})

	state, err := o.Run(ctx, "Build a login page")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if state.Status != models.StatusFailed {
		t.Errorf("Status = %v, want %v", state.Status, models.StatusFailed)
	}
	if state.FailedStep != 1 {
		t.Errorf("FailedStep = %d, want 1 (checkpoint before step 1)", state.FailedStep)
	}
	if len(state.Results) != 1 {
		t.Errorf("len(Results) = %d, want 1", len(state.Results))
	}
}

func TestRun_SignalCancelBetweenSteps(t *testing.T) {
	signalsDir := filepath.Join(t.TempDir(), "signals")
	sw, err := NewSignalWatcher(signalsDir)
	if err != nil {
		t.Fatalf("NewSignalWatcher() error = %v", err)
	}
	defer sw.Close()

	invokers := mockInvokers()
	invokers["architect"] = &agent.MockInvoker{
		AgentID: "architect",
		Respond: func(prompt, compressedContext string) (*agent.InvokeResult, error) {
			if err := SendCancel(signalsDir); err != nil {
				t.Errorf("SendCancel() error = %v", err)
			}
			return &agent.InvokeResult{Text: "plan drafted", TokenCount: 3}, nil
		},
	}
	o := New(Config{Registry: DefaultRegistry(), Invokers: invokers, Signals: sw})

	state, err := o.Run(context.Background(), "Build a login page")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if state.FailedStep != 1 {
		t.Errorf("FailedStep = %d, want 1", state.FailedStep)
	}
}

func TestRun_EmptyRegistryFailsFast(t *testing.T) {
	store := aicf.NewStore(t.TempDir())
	o := New(Config{Registry: NewAgentRegistry(), Store: store})

	state, err := o.Run(context.Background(), "Build a login page")
	if !errors.Is(err, ErrNoEligibleAgent) {
		t.Fatalf("Run() error = %v, want ErrNoEligibleAgent", err)
	}
	if state.Status != models.StatusFailed {
		t.Errorf("Status = %v, want %v", state.Status, models.StatusFailed)
	}
	if state.FailedStep != 0 {
		t.Errorf("FailedStep = %d, want 0", state.FailedStep)
	}
	if len(state.Results) != 0 {
		t.Errorf("len(Results) = %d, want 0", len(state.Results))
	}

	rec := persistedRecords(t, store)[0]
	if len(rec.AIActions) != 0 {
		t.Errorf("len(AIActions) = %d, want 0", len(rec.AIActions))
	}
}

func TestRunPlan_RunsFixedPlan(t *testing.T) {
	invokers := mockInvokers()
	o := New(Config{Registry: DefaultRegistry(), Invokers: invokers})

	plan := &models.ExecutionPlan{
		Intent: models.IntentBuild,
		Steps: []models.Step{
			{
				Index:       0,
				Name:        "solo",
				Description: "Do the one thing",
				Required:    []models.Capability{models.CapabilityCoding, models.CapabilityImplementation},
			},
		},
	}

	state, err := o.RunPlan(context.Background(), "demo task", plan)
	if err != nil {
		t.Fatalf("RunPlan() error = %v", err)
	}
	if state.Status != models.StatusComplete {
		t.Errorf("Status = %v, want %v", state.Status, models.StatusComplete)
	}
	if len(state.Results) != 1 {
		t.Fatalf("len(Results) = %d, want 1", len(state.Results))
	}
	if state.Results[0].AgentID != "builder" {
		t.Errorf("Results[0].AgentID = %q, want %q", state.Results[0].AgentID, "builder")
	}
	if state.Synthesis == nil || state.Synthesis.StepIndex != 1 {
		t.Errorf("Synthesis = %+v, want StepIndex 1", state.Synthesis)
	}
}

func TestRunPlan_RejectsInvalidPlan(t *testing.T) {
	o := New(Config{Registry: DefaultRegistry(), Invokers: mockInvokers()})

	if _, err := o.RunPlan(context.Background(), "demo task", &models.ExecutionPlan{}); err == nil {
		t.Error("RunPlan() error = nil, want invalid plan error")
	}
}

func TestRun_EmitsLifecycleEvents(t *testing.T) {
	o := New(Config{Registry: DefaultRegistry(), Invokers: mockInvokers()})

	if _, err := o.Run(context.Background(), "Build a login page"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	o.Close()

	var types []EventType
	for ev := range o.Events() {
		types = append(types, ev.Type)
	}
	if len(types) == 0 {
		t.Fatal("no events emitted")
	}

	if types[0] != EventPlanReady {
		t.Errorf("first event = %v, want %v", types[0], EventPlanReady)
	}
	if types[len(types)-1] != EventSessionCompleted {
		t.Errorf("last event = %v, want %v", types[len(types)-1], EventSessionCompleted)
	}

	counts := make(map[EventType]int)
	for _, ty := range types {
		counts[ty]++
	}
	if counts[EventStepStarted] != 3 || counts[EventStepCompleted] != 3 {
		t.Errorf("step events = %d started / %d completed, want 3/3",
			counts[EventStepStarted], counts[EventStepCompleted])
	}
	if counts[EventSynthesisStarted] != 1 {
		t.Errorf("synthesis events = %d, want 1", counts[EventSynthesisStarted])
	}
}
