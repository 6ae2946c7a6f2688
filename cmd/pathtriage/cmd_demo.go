package main

// #region imports
import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kestrelops/pathtriage/internal/fixture"
	"github.com/kestrelops/pathtriage/internal/incident"
	"github.com/kestrelops/pathtriage/internal/workflow"
)

// #endregion

var demoFlags struct {
	db      string
	catalog string
	rules   string
	approve bool
}

var demoCmd = &cobra.Command{
	Use:   "demo [fixture.yaml]",
	Short: "Run one incident end to end with scripted approvals",
	Long: `Drives a single incident through the full triage graph. Without a fixture
a built-in congestion incident is used. Gate decisions come from the
fixture's decisions list; gates without a scripted decision are approved
when --approve is set and rejected otherwise.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().StringVar(&demoFlags.db, "db", envOr("PATHTRIAGE_DB", "pathtriage.db"), "SQLite database path")
	demoCmd.Flags().StringVar(&demoFlags.catalog, "catalog", os.Getenv("PATHTRIAGE_CATALOG"), "playbook catalog YAML (default: builtin)")
	demoCmd.Flags().StringVar(&demoFlags.rules, "rules", os.Getenv("PATHTRIAGE_RULES"), "extra policy rules YAML")
	demoCmd.Flags().BoolVar(&demoFlags.approve, "approve", true, "approve gates without a scripted decision")
}

// demoIncident is the built-in congestion scenario.
func demoIncident() fixture.Fixture {
	return fixture.Fixture{
		Description: "congestion on the primary path after a traffic shift",
		IncidentID:  "demo-" + uuid.New().String()[:8],
		Incident: incident.Context{
			HotPath:         "frankfurt-amsterdam",
			LatencyCurrent:  187,
			LatencyBaseline: 42,
			LossCurrent:     2.8,
			LossBaseline:    0.1,
			Utilization: map[string]float64{
				"frankfurt-amsterdam": 96,
				"frankfurt-paris":     41,
				"amsterdam-london":    55,
			},
			RecentChanges: nil,
			Priority:      incident.PriorityHigh,
			CreatedBy:     "demo",
			Policy: incident.Policy{
				LatencyTargetMs:      100,
				MinPathRedundancy:    1,
				MaxBurstCostPerHrEUR: 500,
			},
			Prices: incident.Prices{BurstCapacityPer1GbpsHr: 350},
		},
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	fix := demoIncident()
	if len(args) == 1 {
		var err error
		fix, err = fixture.Load(args[0])
		if err != nil {
			return err
		}
	}

	rt, err := buildRuntime(demoFlags.db, demoFlags.catalog, demoFlags.rules, fix.PolicyRules)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	fmt.Printf("incident %s: %s\n", fix.IncidentID, fix.Description)

	st, err := rt.engine.Start(ctx, fix.IncidentID, fix.Incident)
	if err != nil {
		return err
	}

	scripted := map[string][]fixture.Decision{}
	for _, d := range fix.Decisions {
		scripted[d.Step] = append(scripted[d.Step], d)
	}

	for st.Status == workflow.StatusPaused {
		gate := st.CurrentStep
		printGate(st)

		decision := fixture.Decision{Step: gate, Approved: demoFlags.approve, Approver: "demo"}
		if queue := scripted[gate]; len(queue) > 0 {
			decision, scripted[gate] = queue[0], queue[1:]
		}
		fmt.Printf("  -> %s approved=%t feedback=%q\n", gate, decision.Approved, decision.Feedback)

		st, err = rt.engine.SubmitApproval(ctx, fix.IncidentID, gate, decision.Approved, decision.Approver, decision.Feedback)
		if err != nil {
			return err
		}
	}

	fmt.Printf("\nfinal status: %s\n", st.Status)
	if st.Report != "" {
		fmt.Printf("\n%s\n", st.Report)
	}
	return nil
}

// printGate summarizes what is waiting for approval.
func printGate(st workflow.State) {
	switch st.CurrentStep {
	case workflow.StepReviewDiagnosis:
		if st.Diagnosis != nil {
			fmt.Printf("\ndiagnosis: %s (confidence %.0f%%)\n", st.Diagnosis.Cause, st.Diagnosis.Confidence*100)
			fmt.Printf("  %s\n", st.Diagnosis.Reasoning)
		}
	case workflow.StepReviewCommands:
		if st.CommandPlan != nil {
			fmt.Printf("\ncommand plan: %s (risk %s)\n", st.CommandPlan.PlaybookName, st.CommandPlan.RiskLevel)
			for _, c := range st.CommandPlan.Commands {
				fmt.Printf("  %s\n", c)
			}
			for _, w := range st.CommandPlan.SafetyWarnings {
				fmt.Printf("  warning: %s\n", w)
			}
		}
	}
}
