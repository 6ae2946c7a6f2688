package main

// #region imports
import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrelops/pathtriage/internal/audit"
	"github.com/kestrelops/pathtriage/internal/checkpoint"
)

// #endregion

var inspectFlags struct {
	db        string
	events    bool
	snapshots bool
	report    bool
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [incident-id]",
	Short: "Inspect stored incidents, checkpoints, and audit trails",
	Long: `Without arguments, lists all stored incidents. With an incident id,
prints its current state, optionally the checkpoint lineage, the step event
trail, or the final report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFlags.db, "db", envOr("PATHTRIAGE_DB", "pathtriage.db"), "SQLite database path")
	inspectCmd.Flags().BoolVar(&inspectFlags.events, "events", false, "print the step event trail")
	inspectCmd.Flags().BoolVar(&inspectFlags.snapshots, "snapshots", false, "print the checkpoint lineage")
	inspectCmd.Flags().BoolVar(&inspectFlags.report, "report", false, "print the final report")
}

func runInspect(_ *cobra.Command, args []string) error {
	if _, err := os.Stat(inspectFlags.db); err != nil {
		return fmt.Errorf("database %s not found", inspectFlags.db)
	}
	cps, err := checkpoint.NewStore(inspectFlags.db)
	if err != nil {
		return fmt.Errorf("open checkpoint store: %w", err)
	}
	defer cps.Close()

	if len(args) == 0 {
		return listIncidents(cps)
	}
	return showIncident(cps, args[0])
}

func listIncidents(cps *checkpoint.Store) error {
	items, err := cps.List()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no incidents stored")
		return nil
	}
	fmt.Printf("%-28s %-18s %-10s %s\n", "INCIDENT", "STEP", "STATUS", "UPDATED")
	for _, it := range items {
		fmt.Printf("%-28s %-18s %-10s %s\n",
			it.IncidentID, it.CurrentStep, it.Status, it.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func showIncident(cps *checkpoint.Store, id string) error {
	st, err := cps.Get(id)
	if err != nil {
		return err
	}

	fmt.Printf("incident:  %s\n", st.IncidentID)
	fmt.Printf("path:      %s\n", st.Incident.HotPath)
	fmt.Printf("step:      %s\n", st.CurrentStep)
	fmt.Printf("status:    %s\n", st.Status)
	if st.Diagnosis != nil {
		fmt.Printf("diagnosis: %s (confidence %.0f%%)\n", st.Diagnosis.Cause, st.Diagnosis.Confidence*100)
	}
	if st.Recommendation != nil {
		fmt.Printf("selected:  %s\n", st.SelectedCandidateID)
	}
	if st.ExecutionStatus != "" {
		fmt.Printf("execution: %s\n", st.ExecutionStatus)
	}
	fmt.Printf("steps run: %d, approvals: %d, errors: %d\n",
		len(st.History), len(st.Approvals), len(st.Errors))

	if inspectFlags.snapshots {
		snaps, err := cps.Snapshots(id)
		if err != nil {
			return err
		}
		fmt.Printf("\ncheckpoint lineage (%d):\n", len(snaps))
		for _, s := range snaps {
			fmt.Printf("  %s  %-18s %-10s %s\n",
				s.CreatedAt.Format(time.RFC3339), s.CurrentStep, s.Status, s.SnapshotID)
		}
	}

	if inspectFlags.events {
		trail, err := audit.NewLog(cps.DB())
		if err != nil {
			return err
		}
		events, err := trail.Events(id)
		if err != nil {
			return err
		}
		fmt.Printf("\nstep events (%d):\n", len(events))
		for _, ev := range events {
			fmt.Printf("  %s  %-18s %-10s %s\n",
				ev.CreatedAt.Format(time.RFC3339), ev.Step, ev.Event, ev.Detail)
		}
	}

	if inspectFlags.report {
		if st.Report == "" {
			fmt.Println("\nno report generated")
		} else {
			fmt.Printf("\n%s\n", st.Report)
		}
	}
	return nil
}
