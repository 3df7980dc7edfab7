// Package simulation drives multi-turn conversations between an LLM-played
// customer and an LLM-played agent, persists the transcript after every
// turn, and scores the finished conversation.
package simulation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/promptsim/backend/internal/llm"
	"github.com/promptsim/backend/internal/metrics"
	"github.com/promptsim/backend/internal/store"
	"github.com/promptsim/backend/pkg/apperr"
	"github.com/promptsim/backend/pkg/logger"
)

// Completer is the LLM surface the pipeline needs.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

type Pipeline struct {
	store     *store.Store
	completer Completer
}

func NewPipeline(st *store.Store, completer Completer) *Pipeline {
	return &Pipeline{store: st, completer: completer}
}

// Result is the per-scenario outcome of one simulation request.
type Result struct {
	RunID      string  `json:"runId"`
	ScenarioID string  `json:"scenarioId"`
	Status     string  `json:"status"`
	Score      float64 `json:"score"`
}

const (
	degradedScore   = 50
	degradedSummary = "Simulation completed with partial data due to processing error."
)

var degradedSuggestions = []string{
	"Review the base system prompt for clarity and completeness",
	"Ensure all required client information is properly configured",
}

// Run executes one simulation per requested scenario, sequentially. A
// scenario id that resolves to no record is skipped; it is an error only
// when none resolve. Each resolved scenario independently reaches a
// terminal completed run, degraded if anything inside it failed.
func (p *Pipeline) Run(ctx context.Context, clientID string, scenarioIDs []string) ([]Result, error) {
	client, err := p.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	scenarios, err := p.resolveScenarios(ctx, scenarioIDs)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(scenarios))
	for i := range scenarios {
		result, err := p.runScenario(ctx, client, &scenarios[i])
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	return results, nil
}

// resolveScenarios fetches the scenario collection and keeps the requested
// ids; the document store cannot query by id membership.
func (p *Pipeline) resolveScenarios(ctx context.Context, scenarioIDs []string) ([]store.Scenario, error) {
	all, err := p.store.ListScenarios(ctx, "")
	if err != nil {
		return nil, err
	}

	requested := make(map[string]bool, len(scenarioIDs))
	for _, id := range scenarioIDs {
		requested[id] = true
	}

	scenarios := make([]store.Scenario, 0, len(scenarioIDs))
	for _, sc := range all {
		if requested[sc.ID] {
			scenarios = append(scenarios, sc)
		}
	}

	if len(scenarios) == 0 {
		return nil, apperr.NotFound("scenarios for the provided ids", "")
	}
	return scenarios, nil
}

// runScenario returns an error only when the store itself fails; every LLM
// or parsing failure is absorbed into a degraded completion so the run
// still terminates completed.
func (p *Pipeline) runScenario(ctx context.Context, client *store.Client, scenario *store.Scenario) (*Result, error) {
	started := time.Now()

	run, err := p.store.CreateRun(ctx, client.ID, scenario.ID)
	if err != nil {
		return nil, err
	}

	conversation, evaluation, simErr := p.simulate(ctx, client, scenario, run.ID)
	if simErr != nil {
		logger.Error("Scenario simulation failed, writing degraded completion",
			zap.String("run_id", run.ID),
			zap.String("scenario_id", scenario.ID),
			zap.Error(simErr),
		)
		result, err := p.completeDegraded(ctx, run.ID, scenario.ID, simErr)
		if err != nil {
			return nil, err
		}
		metrics.SimulationsTotal.WithLabelValues("degraded").Inc()
		metrics.SimulationDuration.Observe(time.Since(started).Seconds())
		return result, nil
	}

	err = p.store.CompleteRun(ctx, run.ID, conversation,
		evaluation.Score, evaluation.EvaluationSummary, evaluation.DetailedFeedback,
		evaluation.PromptImprovementSuggestions)
	if err != nil {
		return nil, err
	}

	metrics.SimulationsTotal.WithLabelValues("completed").Inc()
	metrics.SimulationDuration.Observe(time.Since(started).Seconds())
	metrics.EvaluationScores.Observe(evaluation.Score)

	return &Result{
		RunID:      run.ID,
		ScenarioID: scenario.ID,
		Status:     store.StatusCompleted,
		Score:      evaluation.Score,
	}, nil
}

// simulate produces the full transcript turn by turn and evaluates it.
// The transcript is persisted once per turn; that write is the only
// progress signal an observer polling the run record gets.
func (p *Pipeline) simulate(ctx context.Context, client *store.Client, scenario *store.Scenario, runID string) ([]store.ConversationMessage, *EvaluationResult, error) {
	customerSystemPrompt := buildCustomerSimulatorPrompt(scenario)
	agentSystemPrompt := buildAgentPrompt(client)

	conversation := make([]store.ConversationMessage, 0, 2*scenario.MessageCount)

	for turn := 1; turn <= scenario.MessageCount; turn++ {
		customerMessage, err := p.customerTurn(ctx, customerSystemPrompt, conversation, turn, scenario.MessageCount)
		if err != nil {
			return nil, nil, err
		}
		conversation = append(conversation, store.ConversationMessage{
			Role:    store.RoleCustomer,
			Content: customerMessage,
			Turn:    turn,
		})

		agentResp, err := p.completer.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: agentSystemPrompt,
			UserPrompt:   renderTranscript(conversation, "\n"),
			Temperature:  0.7,
		})
		if err != nil {
			return nil, nil, err
		}
		conversation = append(conversation, store.ConversationMessage{
			Role:    store.RoleAgent,
			Content: agentResp.Content,
			Turn:    turn,
		})

		metrics.ConversationTurnsTotal.Inc()

		if err := p.store.SaveConversation(ctx, runID, conversation); err != nil {
			return nil, nil, err
		}
	}

	evaluation, err := evaluateConversation(ctx, p.completer, client, scenario, conversation)
	if err != nil {
		return nil, nil, err
	}

	return conversation, evaluation, nil
}

func (p *Pipeline) customerTurn(ctx context.Context, systemPrompt string, conversation []store.ConversationMessage, turn, messageCount int) (string, error) {
	var userPrompt string
	if turn == 1 {
		userPrompt = firstTurnInstruction(messageCount)
	} else {
		userPrompt = laterTurnInstruction(turn, messageCount, renderTranscript(conversation, "\n"))
	}

	resp, err := p.completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.8,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// completeDegraded re-reads whatever transcript was last persisted and
// forces the run to completed with placeholder scoring, embedding the
// error text for operator visibility.
func (p *Pipeline) completeDegraded(ctx context.Context, runID, scenarioID string, cause error) (*Result, error) {
	conversation := []store.ConversationMessage{}
	if run, err := p.store.GetRun(ctx, runID); err == nil {
		conversation = run.Conversation
	}

	feedback := degradedFeedback(cause, len(conversation) > 0)

	err := p.store.CompleteRun(ctx, runID, conversation,
		degradedScore, degradedSummary, feedback, degradedSuggestions)
	if err != nil {
		return nil, err
	}

	return &Result{
		RunID:      runID,
		ScenarioID: scenarioID,
		Status:     store.StatusCompleted,
		Score:      degradedScore,
	}, nil
}
