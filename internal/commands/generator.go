// Package commands turns a playbook's command template into concrete,
// safety-checked CLI steps for one incident.
package commands

// #region imports
import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kestrelops/pathtriage/internal/catalog"
	"github.com/kestrelops/pathtriage/internal/incident"
)

// #endregion

// #region types

// Plan is the generated command set for a selected playbook.
type Plan struct {
	PlaybookID      string   `json:"playbook_id"`
	PlaybookName    string   `json:"playbook_name"`
	RiskLevel       string   `json:"risk_level"`
	TimeToEffect    string   `json:"time_to_effect"`
	EstimatedImpact string   `json:"estimated_impact"`
	Commands        []string `json:"commands"`
	Verification    []string `json:"verification,omitempty"`
	Rollback        []string `json:"rollback,omitempty"`
	SafetyWarnings  []string `json:"safety_warnings,omitempty"`
	Prerequisites   []string `json:"prerequisites,omitempty"`
}

// #endregion

// #region generator

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// dangerousPatterns are never allowed in generated output regardless of the
// template source.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`rm\s+-rf`),
	regexp.MustCompile(`del\s+/f`),
	regexp.MustCompile(`format\s+`),
	regexp.MustCompile(`erase\s+nvram`),
	regexp.MustCompile(`write\s+erase`),
}

// Generator renders playbook templates against incident parameters.
type Generator struct {
	catalog *catalog.Catalog
	now     func() time.Time
}

// NewGenerator creates a Generator over the given catalog.
func NewGenerator(cat *catalog.Catalog) *Generator {
	return &Generator{catalog: cat, now: time.Now}
}

// Generate renders the playbook's command, verification, and rollback
// blocks with incident parameters substituted. Templates referencing a
// parameter that cannot be derived from the context fail loudly.
func (g *Generator) Generate(playbookID string, inc incident.Context) (Plan, error) {
	p, err := g.catalog.ByID(playbookID)
	if err != nil {
		return Plan{}, err
	}

	params := g.buildParameters(inc)

	cmdBlock, err := substitute(p.CommandsTemplate, params)
	if err != nil {
		return Plan{}, fmt.Errorf("playbook %s commands: %w", playbookID, err)
	}
	rollbackBlock, err := substitute(p.RollbackProcedure, params)
	if err != nil {
		return Plan{}, fmt.Errorf("playbook %s rollback: %w", playbookID, err)
	}
	verification := make([]string, 0, len(p.VerificationSteps))
	for _, step := range p.VerificationSteps {
		rendered, err := substitute(step, params)
		if err != nil {
			return Plan{}, fmt.Errorf("playbook %s verification: %w", playbookID, err)
		}
		verification = append(verification, rendered)
	}

	cmds := splitLines(cmdBlock)
	return Plan{
		PlaybookID:      p.ID,
		PlaybookName:    p.Name,
		RiskLevel:       p.RiskLevel,
		TimeToEffect:    p.TimeToEffect,
		EstimatedImpact: p.EstimatedImpact,
		Commands:        cmds,
		Verification:    verification,
		Rollback:        splitLines(rollbackBlock),
		SafetyWarnings:  scanSafety(cmds, p),
		Prerequisites:   p.Prerequisites,
	}, nil
}

// #endregion

// #region parameters

// buildParameters derives the substitution map from the incident context.
func (g *Generator) buildParameters(inc incident.Context) map[string]string {
	params := map[string]string{
		"timestamp": g.now().UTC().Format("20060102-150405"),
		"hot_path":  inc.HotPath,
	}

	routerSource, routerDest := "RouterA", "RouterB"
	if parts := strings.Split(inc.HotPath, "-"); len(parts) >= 2 {
		routerSource, routerDest = parts[0], parts[1]
	}
	params["router_source"] = routerSource
	params["router_dest"] = routerDest

	// The most utilized segment is the interface the remediation targets.
	iface := "GigabitEthernet0/1"
	var peak float64
	for seg, util := range inc.Utilization {
		if util > peak {
			peak = util
			iface = seg
		}
	}
	params["interface_id"] = iface

	params["current_latency"] = fmt.Sprintf("%.0f", inc.LatencyCurrent)
	params["expected_latency"] = fmt.Sprintf("%.0f", inc.LatencyBaseline)
	params["current_loss"] = fmt.Sprintf("%.2f", inc.LossCurrent)
	params["expected_loss"] = fmt.Sprintf("%.2f", inc.LossBaseline)

	params["alternate_next_hop"] = "10.0.0.254"
	params["backup_config_path"] = fmt.Sprintf("flash:backup-%s.cfg", params["timestamp"])
	params["original_config_path"] = "flash:pre-rollback.cfg"
	params["new_bandwidth"] = "10000000"

	return params
}

// substitute replaces {name} tokens. Unknown tokens are collected and
// reported together.
func substitute(template string, params map[string]string) (string, error) {
	missing := map[string]bool{}
	out := placeholderRe.ReplaceAllStringFunc(template, func(token string) string {
		name := token[1 : len(token)-1]
		if v, ok := params[name]; ok {
			return v
		}
		missing[name] = true
		return token
	})
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for n := range missing {
			names = append(names, n)
		}
		sort.Strings(names)
		return "", fmt.Errorf("missing parameters: %s", strings.Join(names, ", "))
	}
	return out, nil
}

// #endregion

// #region safety

// scanSafety flags dangerous command patterns and high-risk playbooks.
func scanSafety(cmds []string, p catalog.Playbook) []string {
	var warnings []string
	for _, cmd := range cmds {
		for _, re := range dangerousPatterns {
			if re.MatchString(cmd) {
				warnings = append(warnings, fmt.Sprintf("dangerous pattern %q in: %s", re.String(), cmd))
			}
		}
	}
	if p.RiskLevel == catalog.RiskHigh || p.RiskLevel == catalog.RiskCritical {
		warnings = append(warnings, fmt.Sprintf("%s-risk playbook: requires explicit approval before execution", p.RiskLevel))
	}
	return warnings
}

func splitLines(block string) []string {
	var out []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// #endregion
