package workflow

// #region imports
import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kestrelops/pathtriage/internal/commands"
	"github.com/kestrelops/pathtriage/internal/incident"
)

// #endregion

// #region simulated

// SimulatedExecutor applies command plans against nothing: it walks the
// plan, logs every command, and reports success. Outcomes can be forced
// per playbook for rehearsals and tests.
type SimulatedExecutor struct {
	// Delay is the simulated per-command latency.
	Delay time.Duration
	// Outcomes forces the result status for a playbook id.
	Outcomes map[string]string
}

func NewSimulatedExecutor() *SimulatedExecutor {
	return &SimulatedExecutor{}
}

func (s *SimulatedExecutor) Execute(ctx context.Context, plan commands.Plan, _ incident.Context) (ExecutionResult, error) {
	if len(plan.Commands) == 0 {
		return ExecutionResult{
			Status:  "failed",
			Message: "no commands to execute",
		}, nil
	}

	for i, cmd := range plan.Commands {
		if err := ctx.Err(); err != nil {
			return ExecutionResult{}, fmt.Errorf("execution interrupted: %w", err)
		}
		log.Printf("[EXEC] %s (%d/%d) %s", plan.PlaybookID, i+1, len(plan.Commands), cmd)
		if s.Delay > 0 {
			time.Sleep(s.Delay)
		}
	}

	if status, ok := s.Outcomes[plan.PlaybookID]; ok && status != "success" {
		return ExecutionResult{
			Status:           status,
			Message:          fmt.Sprintf("simulated %s for %s", status, plan.PlaybookID),
			CommandsExecuted: len(plan.Commands),
			VerificationOK:   false,
		}, nil
	}

	return ExecutionResult{
		Status: "success",
		Message: fmt.Sprintf("%d commands applied, verification passed: %s",
			len(plan.Commands), strings.Join(firstN(plan.Verification, 1), "; ")),
		CommandsExecuted: len(plan.Commands),
		VerificationOK:   true,
	}, nil
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

// #endregion simulated
