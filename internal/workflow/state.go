// Package workflow is the incident triage state machine: named steps with
// durable checkpoints, human-approval gates, retry budgets, and an
// append-only audit trail carried inside the state aggregate.
package workflow

// #region imports
import (
	"time"

	"github.com/kestrelops/pathtriage/internal/commands"
	"github.com/kestrelops/pathtriage/internal/incident"
	"github.com/kestrelops/pathtriage/internal/oracle"
	"github.com/kestrelops/pathtriage/internal/ranking"
)

// #endregion

// #region status

// Status is the workflow lifecycle state.
type Status string

const (
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"    // waiting at a gate for a human decision
	StatusCompleted Status = "completed" // reached summarize and finished
	StatusStopped   Status = "stopped"   // human rejected at a gate
	StatusFailed    Status = "failed"    // execution exhausted retries or cancelled
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusStopped || s == StatusFailed
}

// #endregion status

// #region sub-records

// HistoryEntry is one completed step in the run, with a serialized result
// snapshot.
type HistoryEntry struct {
	Step       string    `json:"step"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
	Result     any       `json:"result,omitempty"`
}

// Approval is an immutable human decision record.
type Approval struct {
	Step      string    `json:"step"`
	Approved  bool      `json:"approved"`
	Approver  string    `json:"approver,omitempty"`
	Feedback  string    `json:"feedback,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorEntry is one logged step failure.
type ErrorEntry struct {
	Step         string    `json:"step"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	RetryAttempt int       `json:"retry_attempt"`
}

// ExecutionResult is the remediation backend's report.
type ExecutionResult struct {
	Status           string `json:"status"` // "success" | "partial" | "failed"
	Message          string `json:"message"`
	CommandsExecuted int    `json:"commands_executed"`
	VerificationOK   bool   `json:"verification_ok"`
}

// #endregion sub-records

// #region state

// State is the single mutable aggregate for one incident run. It is mutated
// only by the engine driver and by explicit approval submissions, and is
// retained after termination for audit.
type State struct {
	IncidentID string           `json:"incident_id"`
	Incident   incident.Context `json:"incident"`

	CurrentStep string `json:"current_step"`
	Status      Status `json:"workflow_status"`

	Diagnosis         *oracle.Diagnosis `json:"diagnosis,omitempty"`
	DiagnosisApproved bool              `json:"diagnosis_approved"`
	DiagnosisFeedback string            `json:"diagnosis_feedback,omitempty"`

	Recommendation      *ranking.Result `json:"recommendation,omitempty"`
	SelectedCandidateID string          `json:"selected_candidate_id,omitempty"`

	CommandPlan      *commands.Plan `json:"command_plan,omitempty"`
	CommandsApproved bool           `json:"commands_approved"`
	CommandsFeedback string         `json:"commands_feedback,omitempty"`

	Execution       *ExecutionResult `json:"execution,omitempty"`
	ExecutionStatus string           `json:"execution_status,omitempty"`
	ExecRetryCount  int              `json:"exec_retry_count"`

	Report            string    `json:"report,omitempty"`
	ReportGeneratedAt time.Time `json:"report_generated_at,omitzero"`

	// RetryCount is the generic per-step failure counter; it resets to zero
	// whenever the step completes or its fallback is installed.
	RetryCount map[string]int `json:"retry_count,omitempty"`

	History   []HistoryEntry `json:"history"`
	Approvals []Approval     `json:"approvals"`
	Errors    []ErrorEntry   `json:"errors"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState creates the initial aggregate for an incident.
func NewState(incidentID string, inc incident.Context) *State {
	now := time.Now().UTC()
	return &State{
		IncidentID:  incidentID,
		Incident:    inc,
		CurrentStep: StepDiagnose,
		Status:      StatusRunning,
		RetryCount:  map[string]int{},
		History:     []HistoryEntry{},
		Approvals:   []Approval{},
		Errors:      []ErrorEntry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// #endregion state

// #region update-helpers

func (s *State) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// addHistory appends a completed-step record.
func (s *State) addHistory(step string, duration time.Duration, result any) {
	s.History = append(s.History, HistoryEntry{
		Step:       step,
		Timestamp:  time.Now().UTC(),
		DurationMs: duration.Milliseconds(),
		Result:     result,
	})
	s.touch()
}

// addApproval appends a human decision record.
func (s *State) addApproval(step, approver string, approved bool, feedback string) {
	s.Approvals = append(s.Approvals, Approval{
		Step:      step,
		Approved:  approved,
		Approver:  approver,
		Feedback:  feedback,
		Timestamp: time.Now().UTC(),
	})
	s.touch()
}

// addError appends a failure record with the attempt number it occurred on.
func (s *State) addError(step, message string, attempt int) {
	s.Errors = append(s.Errors, ErrorEntry{
		Step:         step,
		Message:      message,
		Timestamp:    time.Now().UTC(),
		RetryAttempt: attempt,
	})
	s.touch()
}

// retryCount returns the generic failure counter for a step.
func (s *State) retryCount(step string) int {
	if s.RetryCount == nil {
		return 0
	}
	return s.RetryCount[step]
}

func (s *State) setRetryCount(step string, n int) {
	if s.RetryCount == nil {
		s.RetryCount = map[string]int{}
	}
	s.RetryCount[step] = n
}

// #endregion update-helpers
