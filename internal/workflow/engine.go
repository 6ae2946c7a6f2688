package workflow

// #region imports
import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kestrelops/pathtriage/internal/commands"
	"github.com/kestrelops/pathtriage/internal/incident"
	"github.com/kestrelops/pathtriage/internal/oracle"
	"github.com/kestrelops/pathtriage/internal/policy"
	"github.com/kestrelops/pathtriage/internal/ranking"
	"github.com/kestrelops/pathtriage/internal/report"
	"github.com/kestrelops/pathtriage/internal/signals"
)

// #endregion

// #region tuning

const (
	// failureBudget is the consecutive-failure count at which a work node
	// stops retrying and installs its degraded fallback result.
	failureBudget = 3

	// autoSelectConfidence is the diagnosis confidence above which the
	// top policy-clean candidate is preselected for command generation.
	autoSelectConfidence = 0.85

	defaultOracleTimeout = 60 * time.Second
	defaultTopN          = 3
)

// fallback diagnosis installed after repeated analysis failures.
const (
	fallbackCause      = "unknown"
	fallbackConfidence = 0.3
)

// #endregion tuning

// #region collaborators

// Executor runs an approved command plan against the remediation backend.
type Executor interface {
	Execute(ctx context.Context, plan commands.Plan, inc incident.Context) (ExecutionResult, error)
}

// AuditSink receives step-level events for external audit storage. Sinks
// must not block; failures are the sink's concern.
type AuditSink interface {
	StepEvent(incidentID, step, event, detail string)
}

// OutcomeRecorder receives executed-remediation outcomes, feeding the
// observed success-rate store.
type OutcomeRecorder interface {
	RecordOutcome(incidentID, playbookID, rootCause, status, message string) error
}

// #endregion collaborators

// #region engine

// Engine drives incident runs through the triage graph, persisting a
// checkpoint after every step so a run can be resumed after a restart.
type Engine struct {
	store     Store
	diagnoser oracle.Diagnoser
	ranker    *ranking.Engine
	generator *commands.Generator
	gate      *policy.Gate
	executor  Executor

	audit    AuditSink
	outcomes OutcomeRecorder

	oracleTimeout time.Duration
	topN          int

	// locks serializes all mutation per incident id.
	locks sync.Map
}

// EngineOption configures optional collaborators.
type EngineOption func(*Engine)

func WithAudit(sink AuditSink) EngineOption {
	return func(e *Engine) { e.audit = sink }
}

func WithOutcomes(rec OutcomeRecorder) EngineOption {
	return func(e *Engine) { e.outcomes = rec }
}

func WithOracleTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.oracleTimeout = d }
}

func WithTopN(n int) EngineOption {
	return func(e *Engine) { e.topN = n }
}

// NewEngine wires the triage engine. All collaborators except audit and
// outcomes are required.
func NewEngine(store Store, diagnoser oracle.Diagnoser, ranker *ranking.Engine, generator *commands.Generator, gate *policy.Gate, executor Executor, opts ...EngineOption) *Engine {
	e := &Engine{
		store:         store,
		diagnoser:     diagnoser,
		ranker:        ranker,
		generator:     generator,
		gate:          gate,
		executor:      executor,
		oracleTimeout: defaultOracleTimeout,
		topN:          defaultTopN,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) lock(incidentID string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(incidentID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// #endregion engine

// #region operations

// Start creates a new run for the incident and drives it until it pauses
// at a gate or terminates. An incident id with an existing run is rejected.
func (e *Engine) Start(ctx context.Context, incidentID string, inc incident.Context) (State, error) {
	mu := e.lock(incidentID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := e.store.Get(incidentID); err == nil {
		return State{}, fmt.Errorf("incident %s already has a run", incidentID)
	}

	st := NewState(incidentID, inc)
	if err := e.store.Put(incidentID, *st); err != nil {
		return State{}, fmt.Errorf("persist initial state: %w", err)
	}
	log.Printf("[WORKFLOW] started incident=%s priority=%s", incidentID, inc.EffectivePriority())
	return e.drive(ctx, st)
}

// Get returns the current state snapshot for an incident.
func (e *Engine) Get(incidentID string) (State, error) {
	return e.store.Get(incidentID)
}

// SubmitApproval records a human decision at the gate the run is paused on
// and resumes the run. The state is not mutated when the submission does
// not match the paused gate.
func (e *Engine) SubmitApproval(ctx context.Context, incidentID, step string, approved bool, approver, feedback string) (State, error) {
	mu := e.lock(incidentID)
	mu.Lock()
	defer mu.Unlock()

	st, err := e.store.Get(incidentID)
	if err != nil {
		return State{}, err
	}
	if st.Status != StatusPaused {
		return State{}, fmt.Errorf("incident %s is %s, not awaiting approval", incidentID, st.Status)
	}
	if st.CurrentStep != step {
		return State{}, fmt.Errorf("incident %s is paused at %s, not %s", incidentID, st.CurrentStep, step)
	}
	routes, ok := gateRouting[step]
	if !ok {
		return State{}, fmt.Errorf("step %s is not an approval gate", step)
	}

	st.addApproval(step, approver, approved, feedback)
	switch step {
	case StepReviewDiagnosis:
		st.DiagnosisApproved = approved
		st.DiagnosisFeedback = feedback
	case StepReviewCommands:
		st.CommandsApproved = approved
		st.CommandsFeedback = feedback
	}

	decision := decideGate(&st, step)
	e.stepEvent(incidentID, step, "decision", decision)
	log.Printf("[WORKFLOW] incident=%s gate=%s decision=%s", incidentID, step, decision)

	if next := routes[decision]; next != StepEnd {
		st.CurrentStep = next
		st.Status = StatusRunning
	} else {
		st.CurrentStep = StepEnd
		st.Status = StatusStopped
	}
	st.touch()
	if err := e.store.Put(incidentID, st); err != nil {
		return State{}, fmt.Errorf("persist approval: %w", err)
	}
	if st.Status != StatusRunning {
		return st, nil
	}
	return e.drive(ctx, &st)
}

// Resume re-drives an interrupted run from its last checkpoint. Paused and
// terminal runs are returned unchanged.
func (e *Engine) Resume(ctx context.Context, incidentID string) (State, error) {
	mu := e.lock(incidentID)
	mu.Lock()
	defer mu.Unlock()

	st, err := e.store.Get(incidentID)
	if err != nil {
		return State{}, err
	}
	if st.Status != StatusRunning {
		return st, nil
	}
	log.Printf("[WORKFLOW] resuming incident=%s at step=%s", incidentID, st.CurrentStep)
	return e.drive(ctx, &st)
}

// Cancel terminates a non-terminal run.
func (e *Engine) Cancel(incidentID, reason string) (State, error) {
	mu := e.lock(incidentID)
	mu.Lock()
	defer mu.Unlock()

	st, err := e.store.Get(incidentID)
	if err != nil {
		return State{}, err
	}
	if st.Status.Terminal() {
		return State{}, fmt.Errorf("incident %s already %s", incidentID, st.Status)
	}
	if reason == "" {
		reason = "cancelled by operator"
	}
	st.addError(st.CurrentStep, reason, 0)
	st.CurrentStep = StepEnd
	st.Status = StatusFailed
	st.touch()
	if err := e.store.Put(incidentID, st); err != nil {
		return State{}, fmt.Errorf("persist cancel: %w", err)
	}
	e.stepEvent(incidentID, StepEnd, "cancelled", reason)
	return st, nil
}

// #endregion operations

// #region driver

// drive executes work nodes until the run pauses at a gate or terminates,
// persisting the state after every transition.
func (e *Engine) drive(ctx context.Context, st *State) (State, error) {
	for st.Status == StatusRunning {
		step := st.CurrentStep
		n, ok := graph[step]
		if !ok {
			st.Status = StatusFailed
			st.addError(step, "unknown step", 0)
			break
		}

		if n.kind == nodeGate {
			st.Status = StatusPaused
			st.touch()
			e.stepEvent(st.IncidentID, step, "paused", "awaiting approval")
			log.Printf("[WORKFLOW] incident=%s paused at %s", st.IncidentID, step)
			break
		}

		e.stepEvent(st.IncidentID, step, "enter", "")
		started := time.Now()
		result, err := n.handler(e, ctx, st)
		if err != nil {
			count := st.retryCount(step) + 1
			st.setRetryCount(step, count)
			st.addError(step, err.Error(), count)
			e.stepEvent(st.IncidentID, step, "error", err.Error())
			log.Printf("[WORKFLOW] incident=%s step=%s attempt=%d failed: %v", st.IncidentID, step, count, err)
			if count < failureBudget {
				if perr := e.store.Put(st.IncidentID, *st); perr != nil {
					return *st, fmt.Errorf("persist after failure: %w", perr)
				}
				continue
			}
			result = n.fallback(e, st, err)
			e.stepEvent(st.IncidentID, step, "fallback", "degraded result installed")
			log.Printf("[WORKFLOW] incident=%s step=%s budget exhausted, using fallback", st.IncidentID, step)
		}
		st.setRetryCount(step, 0)
		st.addHistory(step, time.Since(started), result)
		e.stepEvent(st.IncidentID, step, "complete", "")

		next := n.next(st)
		if next == StepEnd {
			st.CurrentStep = StepEnd
			if step == StepSummarize {
				st.Status = StatusCompleted
			} else {
				st.Status = StatusFailed
			}
		} else {
			st.CurrentStep = next
		}
		st.touch()
		if err := e.store.Put(st.IncidentID, *st); err != nil {
			return *st, fmt.Errorf("persist after %s: %w", step, err)
		}
	}

	if st.Status.Terminal() {
		e.stepEvent(st.IncidentID, StepEnd, "terminal", string(st.Status))
		log.Printf("[WORKFLOW] incident=%s finished status=%s", st.IncidentID, st.Status)
	}
	if err := e.store.Put(st.IncidentID, *st); err != nil {
		return *st, fmt.Errorf("persist state: %w", err)
	}
	return *st, nil
}

func (e *Engine) stepEvent(incidentID, step, event, detail string) {
	if e.audit != nil {
		e.audit.StepEvent(incidentID, step, event, detail)
	}
}

// #endregion driver

// #region handlers

func (e *Engine) diagnoseStep(ctx context.Context, st *State) (any, error) {
	sum := signals.Derive(st.Incident)
	octx, cancel := context.WithTimeout(ctx, e.oracleTimeout)
	defer cancel()

	diag, err := e.diagnoser.Diagnose(octx, sum, st.Incident)
	if err != nil {
		return nil, fmt.Errorf("diagnose: %w", err)
	}
	st.Diagnosis = &diag
	st.DiagnosisApproved = false
	st.DiagnosisFeedback = ""
	return diag, nil
}

func (e *Engine) diagnoseFallback(st *State, lastErr error) any {
	diag := oracle.Diagnosis{
		Cause:      fallbackCause,
		Confidence: fallbackConfidence,
		Reasoning:  fmt.Sprintf("automatic analysis unavailable: %v", lastErr),
		NextSteps:  []string{"review raw telemetry manually"},
	}
	st.Diagnosis = &diag
	st.DiagnosisApproved = false
	st.DiagnosisFeedback = ""
	return diag
}

func (e *Engine) recommendStep(ctx context.Context, st *State) (any, error) {
	if st.Diagnosis == nil {
		return nil, fmt.Errorf("recommend: no diagnosis available")
	}
	octx, cancel := context.WithTimeout(ctx, e.oracleTimeout)
	defer cancel()

	res := e.ranker.Rank(octx, st.Diagnosis.Cause, st.Diagnosis.Confidence, st.Incident, e.topN)
	for i := range res.Options {
		v := e.gate.Check(res.Options[i].Candidate, st.Incident.Policy, st.Incident.Prices)
		res.Options[i].Candidate.Verdict = &v
	}
	st.Recommendation = &res
	st.SelectedCandidateID = e.selectCandidate(st, res)
	return res, nil
}

// selectCandidate preselects the candidate for command generation. A
// high-confidence diagnosis takes the recommended candidate as long as it
// passes policy; otherwise the highest ranked policy-clean option wins.
// Without any clean option the recommended candidate is kept so its
// violations surface at the command review gate.
func (e *Engine) selectCandidate(st *State, res ranking.Result) string {
	if st.Diagnosis != nil && st.Diagnosis.Confidence > autoSelectConfidence {
		for _, opt := range res.Options {
			if opt.Candidate.ID == res.Recommended && opt.Candidate.Verdict != nil && opt.Candidate.Verdict.OK {
				return res.Recommended
			}
		}
	}
	for _, opt := range res.Options {
		if opt.Candidate.Verdict != nil && opt.Candidate.Verdict.OK {
			return opt.Candidate.ID
		}
	}
	return res.Recommended
}

func (e *Engine) recommendFallback(st *State, lastErr error) any {
	cause, conf := fallbackCause, fallbackConfidence
	if st.Diagnosis != nil {
		cause, conf = st.Diagnosis.Cause, st.Diagnosis.Confidence
	}
	res := ranking.Result{
		RootCause:     cause,
		Confidence:    conf,
		RankingMethod: "rule_based",
		FallbackUsed:  true,
	}
	st.Recommendation = &res
	st.SelectedCandidateID = ""
	return res
}

func (e *Engine) generateCommandsStep(_ context.Context, st *State) (any, error) {
	if st.SelectedCandidateID == "" {
		return nil, fmt.Errorf("generate commands: no candidate selected")
	}
	plan, err := e.generator.Generate(st.SelectedCandidateID, st.Incident)
	if err != nil {
		return nil, fmt.Errorf("generate commands: %w", err)
	}
	st.CommandPlan = &plan
	st.CommandsApproved = false
	st.CommandsFeedback = ""
	return plan, nil
}

func (e *Engine) generateCommandsFallback(st *State, lastErr error) any {
	plan := commands.Plan{
		PlaybookID: st.SelectedCandidateID,
		SafetyWarnings: []string{
			fmt.Sprintf("command generation unavailable: %v", lastErr),
			"manual command preparation required",
		},
	}
	st.CommandPlan = &plan
	st.CommandsApproved = false
	st.CommandsFeedback = ""
	return plan
}

func (e *Engine) executeStep(ctx context.Context, st *State) (any, error) {
	if st.CommandPlan == nil {
		return nil, fmt.Errorf("execute: no command plan")
	}
	res, err := e.executor.Execute(ctx, *st.CommandPlan, st.Incident)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	st.Execution = &res
	st.ExecutionStatus = res.Status
	if res.Status == "failed" {
		st.ExecRetryCount++
		st.addError(StepExecute, res.Message, st.ExecRetryCount)
	}
	e.recordOutcome(st, res)
	return res, nil
}

func (e *Engine) executeFallback(st *State, lastErr error) any {
	res := ExecutionResult{
		Status:  "failed",
		Message: fmt.Sprintf("execution backend unavailable: %v", lastErr),
	}
	st.Execution = &res
	st.ExecutionStatus = res.Status
	st.ExecRetryCount = maxExecRetries
	e.recordOutcome(st, res)
	return res
}

func (e *Engine) recordOutcome(st *State, res ExecutionResult) {
	if e.outcomes == nil || st.CommandPlan == nil {
		return
	}
	cause := ""
	if st.Diagnosis != nil {
		cause = st.Diagnosis.Cause
	}
	if err := e.outcomes.RecordOutcome(st.IncidentID, st.CommandPlan.PlaybookID, cause, res.Status, res.Message); err != nil {
		log.Printf("[WORKFLOW] incident=%s outcome record failed: %v", st.IncidentID, err)
	}
}

func (e *Engine) summarizeStep(_ context.Context, st *State) (any, error) {
	md := report.Render(reportInput(st))
	st.Report = md
	st.ReportGeneratedAt = time.Now().UTC()
	return fmt.Sprintf("report generated (%d bytes)", len(md)), nil
}

func (e *Engine) summarizeFallback(st *State, lastErr error) any {
	st.Report = fmt.Sprintf("# Incident %s\n\nReport generation unavailable: %v\n", st.IncidentID, lastErr)
	st.ReportGeneratedAt = time.Now().UTC()
	return "fallback report generated"
}

func reportInput(st *State) report.Input {
	in := report.Input{
		IncidentID:     st.IncidentID,
		Incident:       st.Incident,
		Signals:        signals.Derive(st.Incident),
		Diagnosis:      st.Diagnosis,
		Recommendation: st.Recommendation,
		Plan:           st.CommandPlan,
		StartedAt:      st.CreatedAt,
		FinishedAt:     time.Now().UTC(),
	}
	if st.Execution != nil {
		in.ExecutionStatus = st.Execution.Status
		in.ExecutionMessage = st.Execution.Message
		in.CommandsExecuted = st.Execution.CommandsExecuted
		in.VerificationOK = st.Execution.VerificationOK
	}
	for _, a := range st.Approvals {
		in.Approvals = append(in.Approvals, report.Decision{
			Step:     a.Step,
			Approved: a.Approved,
			Approver: a.Approver,
			Feedback: a.Feedback,
		})
	}
	for _, er := range st.Errors {
		in.Errors = append(in.Errors, report.Note{Step: er.Step, Message: er.Message})
	}
	return in
}

// #endregion handlers
