package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/batonlabs/baton/internal/agent"
	"github.com/batonlabs/baton/internal/aicf"
	"github.com/batonlabs/baton/pkg/models"
)

// Default invocation timeouts, mirroring the config defaults.
const (
	defaultStepTimeout      = 2 * time.Minute
	defaultSynthesisTimeout = 2 * time.Minute
)

// Config contains the collaborators and tuning for an Orchestrator.
type Config struct {
	// Registry holds the agent profiles available for selection.
	Registry *AgentRegistry
	// Invokers maps agent ids to their capability adapters. Every
	// registered agent needs an invoker before it can take a step.
	Invokers map[string]agent.Invoker
	// Store persists session records. Optional; nil disables persistence.
	Store *aicf.Store
	// SummaryChars caps per-action summaries in projected records.
	SummaryChars int
	// StepTimeout bounds each step invocation.
	StepTimeout time.Duration
	// SynthesisTimeout bounds the final synthesis invocation.
	SynthesisTimeout time.Duration
	// Logger receives debug lines. Optional.
	Logger *DebugLogger
	// Signals watches for out-of-band cancel requests. Optional.
	Signals *SignalWatcher
	// Emitter receives progress events. A default buffered emitter is
	// created when nil.
	Emitter *EventEmitter
}

// Orchestrator drives a task through planning, sequential step
// execution, synthesis, and persistence. One Orchestrator may run many
// sessions; each Run owns its SessionState exclusively, so distinct
// sessions can run concurrently.
type Orchestrator struct {
	registry *AgentRegistry
	invokers map[string]agent.Invoker
	analyzer *TaskAnalyzer
	store    *aicf.Store

	summaryChars     int
	stepTimeout      time.Duration
	synthesisTimeout time.Duration

	logger  *DebugLogger
	signals *SignalWatcher
	emitter *EventEmitter
}

// New creates an Orchestrator from the given configuration, filling in
// defaults for the optional pieces.
func New(cfg Config) *Orchestrator {
	if cfg.Emitter == nil {
		cfg.Emitter = NewEventEmitter(100)
	}
	if cfg.Logger == nil {
		cfg.Logger = NopLogger()
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = defaultStepTimeout
	}
	if cfg.SynthesisTimeout <= 0 {
		cfg.SynthesisTimeout = defaultSynthesisTimeout
	}

	return &Orchestrator{
		registry:         cfg.Registry,
		invokers:         cfg.Invokers,
		analyzer:         NewTaskAnalyzer(),
		store:            cfg.Store,
		summaryChars:     cfg.SummaryChars,
		stepTimeout:      cfg.StepTimeout,
		synthesisTimeout: cfg.SynthesisTimeout,
		logger:           cfg.Logger,
		signals:          cfg.Signals,
		emitter:          cfg.Emitter,
	}
}

// Events returns a read-only channel of progress events.
// This is used by the progress printer and the TUI to receive updates.
func (o *Orchestrator) Events() <-chan Event {
	return o.emitter.Events()
}

// Close releases the event channel. Call after the final Run returns.
func (o *Orchestrator) Close() {
	o.emitter.Close()
}

// Run analyzes the task into a plan and executes it. The returned
// session is always non-nil and terminal; the error is non-nil exactly
// when the session failed.
func (o *Orchestrator) Run(ctx context.Context, task string) (*models.SessionState, error) {
	return o.run(ctx, task, o.analyzer.Analyze(task))
}

// RunPlan executes a caller-supplied plan instead of analyzing the
// task. The demo command uses this to run a fixed plan against mocks.
func (o *Orchestrator) RunPlan(ctx context.Context, task string, plan *models.ExecutionPlan) (*models.SessionState, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	return o.run(ctx, task, plan)
}

func (o *Orchestrator) run(ctx context.Context, task string, plan *models.ExecutionPlan) (*models.SessionState, error) {
	state := &models.SessionState{
		SessionID: uuid.New().String()[:8],
		Task:      models.Task{Description: task},
		Plan:      plan,
		Status:    models.StatusPlanning,
		CreatedAt: time.Now(),
	}

	o.logger.Log("session %s: planned intent=%s steps=%d", state.SessionID, plan.Intent, len(plan.Steps))
	o.emit(Event{
		Type:      EventPlanReady,
		SessionID: state.SessionID,
		Message:   fmt.Sprintf("intent %s, %d steps", plan.Intent, len(plan.Steps)),
	})

	// An empty registry aborts before any step runs.
	if o.registry.Count() == 0 {
		return o.fail(state, 0, ErrNoEligibleAgent)
	}

	for i, step := range plan.Steps {
		// Cooperative cancel checkpoint between steps. Mid-call
		// cancellation is the invoker's contract via ctx.
		if err := o.checkCancel(ctx, state, i); err != nil {
			return o.fail(state, i, err)
		}

		state.Status = models.StatusExecuting
		compressed := aicf.Encode(ProjectRecord(state, o.summaryChars))

		agentID, err := SelectAgent(o.registry, step, state.LastAgentID())
		if err != nil {
			return o.fail(state, i, err)
		}
		invoker, ok := o.invokers[agentID]
		if !ok {
			return o.fail(state, i, fmt.Errorf("no invoker configured for agent %q", agentID))
		}

		o.logger.Log("session %s: step %d (%s) -> agent %s", state.SessionID, i, step.Name, agentID)
		o.emit(Event{
			Type:      EventStepStarted,
			SessionID: state.SessionID,
			StepIndex: i,
			StepName:  step.Name,
			AgentID:   agentID,
		})

		res, err := invoker.Invoke(ctx, step.Description, compressed, o.stepTimeout)
		if err != nil {
			o.emit(Event{
				Type:      EventStepFailed,
				SessionID: state.SessionID,
				StepIndex: i,
				StepName:  step.Name,
				AgentID:   agentID,
				Error:     err,
			})
			return o.fail(state, i, err)
		}

		state.Results = append(state.Results, models.StepResult{
			StepIndex:  i,
			AgentID:    agentID,
			OutputText: res.Text,
			TokenCount: res.TokenCount,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		})
		o.emit(Event{
			Type:      EventStepCompleted,
			SessionID: state.SessionID,
			StepIndex: i,
			StepName:  step.Name,
			AgentID:   agentID,
			Tokens:    res.TokenCount,
		})
	}

	// Finalizing: one synthesis call to the agent that took the last
	// step, with the full context of all results.
	state.Status = models.StatusFinalizing
	synthIndex := len(plan.Steps)
	agentID := state.LastAgentID()
	invoker, ok := o.invokers[agentID]
	if !ok {
		return o.fail(state, synthIndex, fmt.Errorf("no invoker configured for agent %q", agentID))
	}

	o.logger.Log("session %s: synthesis -> agent %s", state.SessionID, agentID)
	o.emit(Event{
		Type:      EventSynthesisStarted,
		SessionID: state.SessionID,
		StepIndex: synthIndex,
		StepName:  "synthesis",
		AgentID:   agentID,
	})

	compressed := aicf.Encode(ProjectRecord(state, o.summaryChars))
	res, err := invoker.Invoke(ctx, synthesisDescription(task), compressed, o.synthesisTimeout)
	if err != nil {
		o.emit(Event{
			Type:      EventStepFailed,
			SessionID: state.SessionID,
			StepIndex: synthIndex,
			StepName:  "synthesis",
			AgentID:   agentID,
			Error:     err,
		})
		return o.fail(state, synthIndex, err)
	}

	state.Synthesis = &models.StepResult{
		StepIndex:  synthIndex,
		AgentID:    agentID,
		OutputText: res.Text,
		TokenCount: res.TokenCount,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	state.Status = models.StatusComplete
	path, perr := o.persist(state)

	o.emit(Event{
		Type:       EventSessionCompleted,
		SessionID:  state.SessionID,
		StepIndex:  synthIndex,
		AgentID:    agentID,
		Message:    fmt.Sprintf("%d steps, %d tokens", len(state.Results), totalTokens(state)),
		Tokens:     totalTokens(state),
		RecordPath: path,
	})

	if perr != nil {
		// The work itself succeeded; surface the lost record.
		return state, fmt.Errorf("persist session record: %w", perr)
	}
	return state, nil
}

// checkCancel reports a cancellation observed through the context or
// the signal watcher.
func (o *Orchestrator) checkCancel(ctx context.Context, state *models.SessionState, stepIndex int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.signals != nil && o.signals.ShouldCancel() {
		o.emit(Event{
			Type:      EventCancelRequested,
			SessionID: state.SessionID,
			StepIndex: stepIndex,
			Message:   "cancel signal received",
		})
		return context.Canceled
	}
	return nil
}

// fail marks the session terminal, persists what completed, and emits
// the failure event. The step cause is returned even when persistence
// also fails; persistence problems are only logged here.
func (o *Orchestrator) fail(state *models.SessionState, stepIndex int, cause error) (*models.SessionState, error) {
	state.Status = models.StatusFailed
	state.FailedStep = stepIndex
	state.FailureCause = cause.Error()

	o.logger.Log("session %s: failed at step %d: %v", state.SessionID, stepIndex, cause)

	path, err := o.persist(state)
	if err != nil {
		log.Printf("[orchestrator] warning: persist failed session %s: %v", state.SessionID, err)
	}

	o.emit(Event{
		Type:       EventSessionFailed,
		SessionID:  state.SessionID,
		StepIndex:  stepIndex,
		Error:      cause,
		RecordPath: path,
	})

	return state, cause
}

// persist projects the session and appends the record to its session
// file. Returns the file path written to.
func (o *Orchestrator) persist(state *models.SessionState) (string, error) {
	if o.store == nil {
		return "", nil
	}
	path, err := o.store.Append(ProjectRecord(state, o.summaryChars))
	if err != nil {
		return "", err
	}
	o.logger.Log("session %s: record appended to %s", state.SessionID, path)
	return path, nil
}

func totalTokens(state *models.SessionState) int {
	total := 0
	for _, r := range state.Results {
		total += r.TokenCount
	}
	if state.Synthesis != nil {
		total += state.Synthesis.TokenCount
	}
	return total
}

func (o *Orchestrator) emit(ev Event) {
	o.emitter.Emit(ev)
}
