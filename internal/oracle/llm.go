package oracle

// #region imports
import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kestrelops/pathtriage/internal/incident"
	"github.com/kestrelops/pathtriage/internal/ranking"
	"github.com/kestrelops/pathtriage/internal/signals"
)

// #endregion

// #region client

// LLMClient backs both oracles with an OpenAI-compatible chat completions
// endpoint. A custom base URL allows routing to compatible providers.
type LLMClient struct {
	client openai.Client
	model  string
}

// NewLLMClient creates a client for the given API key. baseURL may be empty
// for the default endpoint.
func NewLLMClient(apiKey, model, baseURL string) *LLMClient {
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &LLMClient{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *LLMClient) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.3),
		MaxTokens:   openai.Int(1500),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// #endregion

// #region diagnose

const diagnoseSystemPrompt = `You are an expert network incident analyst.
Diagnose the root cause from the evidence. Check utilization first: below
70% congestion is unlikely; consider routing, hardware, or quality issues
instead. For every hypothesis list supporting and contradicting evidence,
and lower confidence to 0.3-0.5 when contradictions exist.
Respond with JSON only:
{"cause": "...", "confidence": 0.0, "reasoning": "...",
 "contributing_factors": ["..."], "contradicting_signals": ["..."],
 "next_steps": ["..."]}`

// Diagnose asks the LLM for a root-cause hypothesis.
func (c *LLMClient) Diagnose(ctx context.Context, sum signals.Summary, inc incident.Context) (Diagnosis, error) {
	text, err := c.complete(ctx, diagnoseSystemPrompt, diagnosePrompt(sum, inc))
	if err != nil {
		return Diagnosis{}, err
	}

	var d Diagnosis
	if err := unmarshalLoose(text, &d); err != nil {
		return Diagnosis{}, fmt.Errorf("parse diagnosis: %w", err)
	}
	if d.Cause == "" {
		return Diagnosis{}, fmt.Errorf("parse diagnosis: no cause in response")
	}
	if d.Confidence < 0 {
		d.Confidence = 0
	}
	if d.Confidence > 1 {
		d.Confidence = 1
	}
	return d, nil
}

func diagnosePrompt(sum signals.Summary, inc incident.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Incident on %s\n\n", inc.HotPath)
	fmt.Fprintf(&b, "Utilization (primary congestion indicator): peak %.1f%% on %s, average %.1f%%, band=%s\n",
		sum.UtilPeak, sum.PeakSegment, sum.UtilAvg, sum.CongestionBand)
	fmt.Fprintf(&b, "Latency: baseline %.1fms, current %.1fms, delta %+.1fms (%+.0f%%)\n",
		inc.LatencyBaseline, inc.LatencyCurrent, sum.DeltaLatencyMs, sum.LatencyPct)
	fmt.Fprintf(&b, "Loss: baseline %.2f%%, current %.2f%%, delta %+.2f%% (%.1fx)\n",
		inc.LossBaseline, inc.LossCurrent, sum.DeltaLossPct, sum.LossMultiplier)
	fmt.Fprintf(&b, "Latency SLA target %.0fms violated: %v\n", inc.Policy.LatencyTargetMs, sum.SLAViolated)

	for seg, util := range inc.Utilization {
		fmt.Fprintf(&b, "- segment %s: %.0f%%\n", seg, util)
	}

	if len(inc.RecentChanges) > 0 {
		b.WriteString("\nRecent changes (check timeline correlation):\n")
		for _, e := range inc.RecentChanges {
			fmt.Fprintf(&b, "- %s: %s on %s\n", e.TS, e.Type, e.Scope)
		}
	} else {
		b.WriteString("\nNo configuration or deployment changes in the incident window.\n")
	}
	return b.String()
}

// #endregion

// #region rerank

const rerankSystemPrompt = `You are a network incident remediation expert.
Re-rank the given playbook options considering business impact, time
sensitivity, risk tolerance, and operational reality. The rule-based scores
are good starting points. Respond with JSON only:
{"recommendation_reasoning": "...",
 "rankings": [{"playbook_id": "...", "score": 0.0, "reasoning": "..."}]}
Scores are 0.0-1.0. Only include playbooks from the list.`

// rerankResponse mirrors the JSON shape the rerank prompt requests.
type rerankResponse struct {
	RecommendationReasoning string `json:"recommendation_reasoning"`
	Rankings                []struct {
		PlaybookID string  `json:"playbook_id"`
		Score      float64 `json:"score"`
		Reasoning  string  `json:"reasoning"`
	} `json:"rankings"`
}

// Rerank submits the top candidates for contextual re-ordering. Any
// transport or parse failure is returned as an error; the ranking engine
// falls back to the rule-based order.
func (c *LLMClient) Rerank(ctx context.Context, options []ranking.Option, inc incident.Context, rootCause string, confidence float64) (ranking.RerankResult, error) {
	text, err := c.complete(ctx, rerankSystemPrompt, rerankPrompt(options, inc, rootCause, confidence))
	if err != nil {
		return ranking.RerankResult{}, err
	}

	var resp rerankResponse
	if err := unmarshalLoose(text, &resp); err != nil {
		return ranking.RerankResult{}, fmt.Errorf("parse rerank: %w", err)
	}
	if len(resp.Rankings) == 0 {
		return ranking.RerankResult{}, fmt.Errorf("parse rerank: no rankings in response")
	}

	out := ranking.RerankResult{OverallReasoning: resp.RecommendationReasoning}
	for _, r := range resp.Rankings {
		out.Rankings = append(out.Rankings, ranking.RerankEntry{
			ID:        r.PlaybookID,
			Score:     r.Score,
			Reasoning: r.Reasoning,
		})
	}
	return out, nil
}

func rerankPrompt(options []ranking.Option, inc incident.Context, rootCause string, confidence float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Incident on %s, root cause %s (confidence %.0f%%), latency %.0fms, loss %.2f%%, priority %s.\n\nOptions:\n",
		inc.HotPath, rootCause, confidence*100, inc.LatencyCurrent, inc.LossCurrent, inc.EffectivePriority())
	for i, o := range options {
		fmt.Fprintf(&b, "%d. %s (id=%s) rule_score=%.2f risk=%s time=%s cost=%s success=%d%%\n   %s\n",
			i+1, o.Candidate.Name, o.Candidate.ID, o.RuleScore,
			o.Candidate.RiskLevel, o.Candidate.TimeToEffect, o.Candidate.Cost,
			o.SuccessRatePct, o.Reasoning)
	}
	return b.String()
}

// #endregion

// #region json

// unmarshalLoose parses JSON out of a model response that may wrap the
// object in prose or a code fence: everything from the first '{' to the
// last '}' is treated as the payload.
func unmarshalLoose(text string, v any) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in response")
	}
	return json.Unmarshal([]byte(text[start:end+1]), v)
}

// #endregion
