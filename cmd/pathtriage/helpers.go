package main

// #region imports
import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kestrelops/pathtriage/internal/audit"
	"github.com/kestrelops/pathtriage/internal/catalog"
	"github.com/kestrelops/pathtriage/internal/checkpoint"
	"github.com/kestrelops/pathtriage/internal/commands"
	"github.com/kestrelops/pathtriage/internal/history"
	"github.com/kestrelops/pathtriage/internal/oracle"
	"github.com/kestrelops/pathtriage/internal/policy"
	"github.com/kestrelops/pathtriage/internal/ranking"
	"github.com/kestrelops/pathtriage/internal/workflow"
)

// #endregion

// #region env

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion env

// #region wiring

// runtime bundles the wired collaborators behind one teardown.
type runtime struct {
	engine      *workflow.Engine
	checkpoints *checkpoint.Store
	trail       *audit.Log
}

func (r *runtime) Close() error {
	return r.checkpoints.Close()
}

// buildRuntime wires the full engine: SQLite checkpoint, audit and history
// stores on one database file, catalog, policy gate, diagnoser, ranker,
// command generator and the simulated executor.
func buildRuntime(dbPath, catalogPath, rulesPath string, extraRules []policy.Rule) (*runtime, error) {
	cps, err := checkpoint.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store: %w", err)
	}

	trail, err := audit.NewLog(cps.DB())
	if err != nil {
		cps.Close()
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	outcomes, err := history.NewStore(cps.DB())
	if err != nil {
		cps.Close()
		return nil, fmt.Errorf("open history store: %w", err)
	}

	cat := catalog.Default()
	if catalogPath != "" {
		cat, err = catalog.Load(catalogPath)
		if err != nil {
			cps.Close()
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	}

	rules := extraRules
	if rulesPath != "" {
		loaded, err := loadRules(rulesPath)
		if err != nil {
			cps.Close()
			return nil, err
		}
		rules = append(rules, loaded...)
	}
	gate, err := policy.NewGate(rules)
	if err != nil {
		cps.Close()
		return nil, fmt.Errorf("build policy gate: %w", err)
	}

	rankOpts := []ranking.EngineOption{
		ranking.WithSuccessRates(outcomes.SuccessRate),
	}
	var diagnoser oracle.Diagnoser = oracle.NewHeuristic()
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		llm := oracle.NewLLMClient(key,
			envOr("PATHTRIAGE_MODEL", ""),
			os.Getenv("OPENAI_BASE_URL"))
		diagnoser = llm
		rankOpts = append(rankOpts, ranking.WithReranker(llm))
	}

	engine := workflow.NewEngine(
		cps,
		diagnoser,
		ranking.NewEngine(cat, rankOpts...),
		commands.NewGenerator(cat),
		gate,
		workflow.NewSimulatedExecutor(),
		workflow.WithAudit(trail),
		workflow.WithOutcomes(outcomes),
	)

	return &runtime{engine: engine, checkpoints: cps, trail: trail}, nil
}

// loadRules reads extra policy rules from a YAML file.
func loadRules(path string) ([]policy.Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var rules []policy.Rule
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return rules, nil
}

// #endregion wiring
