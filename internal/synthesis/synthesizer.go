// Package synthesis produces a new candidate system prompt for a client
// from the evaluation feedback accumulated across its scenario runs.
package synthesis

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/promptsim/backend/internal/llm"
	"github.com/promptsim/backend/internal/metrics"
	"github.com/promptsim/backend/internal/store"
	"github.com/promptsim/backend/pkg/apperr"
	"github.com/promptsim/backend/pkg/jsonx"
	"github.com/promptsim/backend/pkg/logger"
)

// Completer is the LLM surface the synthesizer needs.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

type Synthesizer struct {
	store     *store.Store
	completer Completer
	maxTokens int
}

func New(st *store.Store, completer Completer, maxTokens int) *Synthesizer {
	return &Synthesizer{store: st, completer: completer, maxTokens: maxTokens}
}

// Stats reports how the synthesized prompt compares to the ±5% length
// target. A mismatch is advisory only and never blocks persistence.
type Stats struct {
	OriginalWordCount    int    `json:"originalWordCount"`
	SynthesizedWordCount int    `json:"synthesizedWordCount"`
	TargetWordCount      int    `json:"targetWordCount"`
	LengthMatch          bool   `json:"lengthMatch"`
	LengthDifference     int    `json:"lengthDifference"`
	QualityNote          string `json:"qualityNote"`
}

const minCombinedPromptLen = 100

// Synthesize runs the full pipeline: precondition checks, latest-run
// selection, one LLM call, JSON extraction, and persistence of a new
// immutable suggestion.
func (s *Synthesizer) Synthesize(ctx context.Context, clientID string) (*store.FinalPromptSuggestion, *Stats, error) {
	suggestion, stats, err := s.synthesize(ctx, clientID)
	if err != nil {
		metrics.SynthesisTotal.WithLabelValues("error").Inc()
		return nil, nil, err
	}
	metrics.SynthesisTotal.WithLabelValues("success").Inc()
	return suggestion, stats, nil
}

func (s *Synthesizer) synthesize(ctx context.Context, clientID string) (*store.FinalPromptSuggestion, *Stats, error) {
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, nil, err
	}

	if strings.TrimSpace(client.BaseSystemPrompt) == "" {
		return nil, nil, apperr.Validation("client base system prompt is empty; set a base system prompt before generating the final prompt")
	}

	scenarios, err := s.activeScenarios(ctx, clientID)
	if err != nil {
		return nil, nil, err
	}
	if len(scenarios) == 0 {
		return nil, nil, apperr.Validation("no active scenarios found for this client")
	}

	latestRuns, err := s.latestRunsPerScenario(ctx, clientID, scenarios)
	if err != nil {
		return nil, nil, err
	}
	if len(latestRuns) == 0 {
		return nil, nil, apperr.Validation("no completed simulation runs found for this client")
	}

	feedbackSummary := renderFeedbackSummary(latestRuns, scenarios)
	baseWordCount := wordCount(client.BaseSystemPrompt)

	resp, err := s.completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: synthesisSystemPrompt,
		UserPrompt:   buildSynthesisPrompt(client, baseWordCount, feedbackSummary),
		Temperature:  0.3,
		MaxTokens:    s.maxTokens,
	})
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, nil, apperr.Parse("received an empty response from the model", "")
	}

	var parsed struct {
		CombinedPrompt    string `json:"combinedPrompt"`
		CombinedPromptAlt string `json:"combined_prompt"`
		Rationale         string `json:"rationale"`
	}
	if err := jsonx.Unmarshal(resp.Content, &parsed); err != nil {
		return nil, nil, err
	}

	combinedPrompt := parsed.CombinedPrompt
	if combinedPrompt == "" {
		combinedPrompt = parsed.CombinedPromptAlt
	}
	if combinedPrompt == "" {
		return nil, nil, apperr.Validation("model response is missing the required combinedPrompt field")
	}
	if len(combinedPrompt) < minCombinedPromptLen {
		return nil, nil, apperr.Validation("synthesized prompt is too short or empty")
	}

	rationale := parsed.Rationale
	if rationale == "" {
		rationale = "Rationale not provided by the model."
	}

	stats := lengthStats(baseWordCount, wordCount(combinedPrompt))
	if !stats.LengthMatch {
		logger.Warn("Synthesized prompt length outside target range",
			zap.Int("synthesized", stats.SynthesizedWordCount),
			zap.Int("target", stats.TargetWordCount),
		)
	}

	runIDs := make([]string, len(latestRuns))
	for i, run := range latestRuns {
		runIDs[i] = run.ID
	}

	suggestion, err := s.store.CreateSuggestion(ctx, clientID, runIDs, combinedPrompt, rationale)
	if err != nil {
		return nil, nil, err
	}

	return suggestion, stats, nil
}

func (s *Synthesizer) activeScenarios(ctx context.Context, clientID string) ([]store.Scenario, error) {
	all, err := s.store.ListScenarios(ctx, clientID)
	if err != nil {
		return nil, err
	}
	active := make([]store.Scenario, 0, len(all))
	for _, sc := range all {
		if sc.IsActive {
			active = append(active, sc)
		}
	}
	return active, nil
}

// latestRunsPerScenario keeps the most recent completed run for each active
// scenario. ListRuns returns newest-first, so keeping the first occurrence
// of each scenario id selects true recency.
func (s *Synthesizer) latestRunsPerScenario(ctx context.Context, clientID string, scenarios []store.Scenario) ([]store.SimulationRun, error) {
	runs, err := s.store.ListRuns(ctx, clientID, "")
	if err != nil {
		return nil, err
	}

	activeIDs := make(map[string]bool, len(scenarios))
	for _, sc := range scenarios {
		activeIDs[sc.ID] = true
	}

	seen := make(map[string]bool)
	latest := make([]store.SimulationRun, 0, len(scenarios))
	for _, run := range runs {
		if run.Status != store.StatusCompleted || !activeIDs[run.ScenarioID] || seen[run.ScenarioID] {
			continue
		}
		seen[run.ScenarioID] = true
		latest = append(latest, run)
	}
	return latest, nil
}

func lengthStats(baseWordCount, synthesizedWordCount int) *Stats {
	tolerance := baseWordCount * 5 / 100
	diff := synthesizedWordCount - baseWordCount
	match := abs(diff) <= tolerance

	note := "Length matches target"
	if !match {
		note = "Length slightly outside target range"
	}

	return &Stats{
		OriginalWordCount:    baseWordCount,
		SynthesizedWordCount: synthesizedWordCount,
		TargetWordCount:      baseWordCount,
		LengthMatch:          match,
		LengthDifference:     diff,
		QualityNote:          note,
	}
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func renderFeedbackSummary(runs []store.SimulationRun, scenarios []store.Scenario) string {
	byID := make(map[string]store.Scenario, len(scenarios))
	for _, sc := range scenarios {
		byID[sc.ID] = sc
	}

	blocks := make([]string, len(runs))
	for i, run := range runs {
		sc := byID[run.ScenarioID]

		suggestions := "- No specific suggestions provided"
		if len(run.PromptImprovementSuggestions) > 0 {
			bullets := make([]string, len(run.PromptImprovementSuggestions))
			for j, s := range run.PromptImprovementSuggestions {
				bullets[j] = "- " + s
			}
			suggestions = strings.Join(bullets, "\n")
		}

		summary := run.EvaluationSummary
		if summary == "" {
			summary = "No summary available"
		}
		feedback := run.DetailedFeedback
		if feedback == "" {
			feedback = "No detailed feedback available"
		}

		blocks[i] = fmt.Sprintf(`
SCENARIO: %s (%s)
Description: %s
Customer Persona: %s
Goal: %s

TEST RESULTS:
- Score: %v/100
- Summary: %s

DETAILED FEEDBACK:
%s

SPECIFIC IMPROVEMENT SUGGESTIONS:
%s
`, orNA(sc.Name), orNA(sc.Type), orNA(sc.Description), orNA(sc.CustomerPersona), orNA(sc.Goal),
			run.Score, summary, feedback, suggestions)
	}

	return strings.Join(blocks, "\n"+strings.Repeat("=", 80)+"\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
