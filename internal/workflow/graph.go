package workflow

// #region imports
import (
	"context"
	"strings"
)

// #endregion

// #region steps

// Step names. CurrentStep always holds one of these (or StepEnd once
// terminal).
const (
	StepDiagnose         = "diagnose"
	StepReviewDiagnosis  = "review_diagnosis"
	StepRecommend        = "recommend"
	StepGenerateCommands = "generate_commands"
	StepReviewCommands   = "review_commands"
	StepExecute          = "execute"
	StepSummarize        = "summarize"
	StepEnd              = "end"
)

// Gate decisions.
const (
	DecisionApproved = "approved"
	DecisionRetry    = "retry"
	DecisionModify   = "modify"
	DecisionRejected = "rejected"
)

// #endregion steps

// #region node

type nodeKind int

const (
	nodeWork nodeKind = iota
	nodeGate
)

// handlerFunc runs one work node against the state. A returned error counts
// against the node's failure budget; the engine then either re-runs the
// node or installs the fallback.
type handlerFunc func(e *Engine, ctx context.Context, st *State) (result any, err error)

// fallbackFunc installs the node's deterministic degraded result after the
// failure budget is exhausted.
type fallbackFunc func(e *Engine, st *State, lastErr error) any

// node is one vertex of the workflow graph.
type node struct {
	kind     nodeKind
	handler  handlerFunc
	fallback fallbackFunc
	// next resolves the following step after a work node completes.
	next func(st *State) string
}

// #endregion node

// #region graph

// graph is the canonical triage graph. CurrentStep indexes into it.
var graph = map[string]node{
	StepDiagnose: {
		kind:     nodeWork,
		handler:  (*Engine).diagnoseStep,
		fallback: (*Engine).diagnoseFallback,
		next:     func(*State) string { return StepReviewDiagnosis },
	},
	StepReviewDiagnosis: {kind: nodeGate},
	StepRecommend: {
		kind:     nodeWork,
		handler:  (*Engine).recommendStep,
		fallback: (*Engine).recommendFallback,
		next:     func(*State) string { return StepGenerateCommands },
	},
	StepGenerateCommands: {
		kind:     nodeWork,
		handler:  (*Engine).generateCommandsStep,
		fallback: (*Engine).generateCommandsFallback,
		next:     func(*State) string { return StepReviewCommands },
	},
	StepReviewCommands: {kind: nodeGate},
	StepExecute: {
		kind:     nodeWork,
		handler:  (*Engine).executeStep,
		fallback: (*Engine).executeFallback,
		next:     routeAfterExecute,
	},
	StepSummarize: {
		kind:     nodeWork,
		handler:  (*Engine).summarizeStep,
		fallback: (*Engine).summarizeFallback,
		next:     func(*State) string { return StepEnd },
	},
}

// gateRouting maps (gate, decision) to the next step. StepEnd means the
// decision terminates the run as stopped.
var gateRouting = map[string]map[string]string{
	StepReviewDiagnosis: {
		DecisionApproved: StepRecommend,
		DecisionRetry:    StepDiagnose,
		DecisionRejected: StepEnd,
	},
	StepReviewCommands: {
		DecisionApproved: StepExecute,
		DecisionModify:   StepGenerateCommands,
		DecisionRejected: StepEnd,
	},
}

// #endregion graph

// #region routing

// retryCues and modifyCues are the feedback keywords that turn an
// unapproved gate into a loop-back instead of a rejection.
var (
	retryCues  = []string{"retry", "again"}
	modifyCues = []string{"modify", "change", "different"}
)

// decideGate maps the gate's approval flag and feedback to a decision.
// Absence of explicit approval never continues past a gate.
func decideGate(st *State, gate string) string {
	switch gate {
	case StepReviewDiagnosis:
		if st.DiagnosisApproved {
			return DecisionApproved
		}
		if containsAny(st.DiagnosisFeedback, retryCues) {
			return DecisionRetry
		}
		return DecisionRejected
	case StepReviewCommands:
		if st.CommandsApproved {
			return DecisionApproved
		}
		if containsAny(st.CommandsFeedback, modifyCues) {
			return DecisionModify
		}
		return DecisionRejected
	}
	return DecisionRejected
}

// maxExecRetries is the execute-specific business retry budget.
const maxExecRetries = 2

// routeAfterExecute routes success and partial results forward, replays
// execute while the retry budget lasts, and terminates otherwise. Error
// logging for failed attempts happens in the execute handler.
func routeAfterExecute(st *State) string {
	switch st.ExecutionStatus {
	case "success", "partial":
		return StepSummarize
	case "failed":
		if st.ExecRetryCount < maxExecRetries {
			return StepExecute
		}
		return StepEnd
	}
	return StepSummarize
}

func containsAny(feedback string, cues []string) bool {
	lower := strings.ToLower(feedback)
	for _, cue := range cues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// #endregion routing
