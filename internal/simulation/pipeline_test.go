package simulation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptsim/backend/internal/docstore/memstore"
	"github.com/promptsim/backend/internal/llm"
	"github.com/promptsim/backend/internal/store"
	"github.com/promptsim/backend/pkg/apperr"
)

const evalJSON = `{"score": 82, "evaluationSummary": "Good handling.", "detailedFeedback": "The agent stayed on policy.", "promptImprovementSuggestions": ["Tighten the tone"]}`

// fakeCompleter scripts responses per call. The evaluator call is
// recognizable by its JSON-only system prompt.
type fakeCompleter struct {
	calls int
	fn    func(call int, req llm.CompletionRequest) (string, error)
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls++
	content, err := f.fn(f.calls, req)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: content}, nil
}

func happyCompleter() *fakeCompleter {
	return &fakeCompleter{fn: func(call int, req llm.CompletionRequest) (string, error) {
		if req.SystemPrompt == jsonOnlySystemPrompt {
			return evalJSON, nil
		}
		return "message", nil
	}}
}

func seedClientAndScenario(t *testing.T, st *store.Store, messageCount int) (*store.Client, *store.Scenario) {
	t.Helper()
	ctx := context.Background()

	client, err := st.CreateClient(ctx, store.ClientInput{
		Name:             "Acme",
		BaseSystemPrompt: "Be helpful.",
	})
	require.NoError(t, err)

	scenario, err := st.CreateScenario(ctx, store.ScenarioInput{
		ClientID:     client.ID,
		Name:         "Late delivery",
		MessageCount: &messageCount,
	})
	require.NoError(t, err)

	return client, scenario
}

func TestRunProducesAlternatingTranscript(t *testing.T) {
	ctx := context.Background()
	st := store.New(memstore.New())
	client, scenario := seedClientAndScenario(t, st, 3)

	pipeline := NewPipeline(st, happyCompleter())

	results, err := pipeline.Run(ctx, client.ID, []string{scenario.ID})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, store.StatusCompleted, results[0].Status)
	assert.Equal(t, 82.0, results[0].Score)

	run, err := st.GetRun(ctx, results[0].RunID)
	require.NoError(t, err)
	require.Len(t, run.Conversation, 6)

	for i, msg := range run.Conversation {
		wantRole := store.RoleCustomer
		if i%2 == 1 {
			wantRole = store.RoleAgent
		}
		assert.Equal(t, wantRole, msg.Role, "message %d", i)
		assert.Equal(t, i/2+1, msg.Turn, "message %d", i)
	}

	assert.Equal(t, store.StatusCompleted, run.Status)
	assert.Equal(t, "Good handling.", run.EvaluationSummary)
	assert.Equal(t, []string{"Tighten the tone"}, run.PromptImprovementSuggestions)
}

func TestRunMissingClient(t *testing.T) {
	st := store.New(memstore.New())
	pipeline := NewPipeline(st, happyCompleter())

	_, err := pipeline.Run(context.Background(), "no-such-client", []string{"s1"})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestRunSkipsUnknownScenarioIDs(t *testing.T) {
	ctx := context.Background()
	st := store.New(memstore.New())
	client, scenario := seedClientAndScenario(t, st, 1)

	pipeline := NewPipeline(st, happyCompleter())

	results, err := pipeline.Run(ctx, client.ID, []string{scenario.ID, "bogus-id"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, scenario.ID, results[0].ScenarioID)
}

func TestRunAllScenarioIDsUnknown(t *testing.T) {
	ctx := context.Background()
	st := store.New(memstore.New())
	client, _ := seedClientAndScenario(t, st, 1)

	pipeline := NewPipeline(st, happyCompleter())

	_, err := pipeline.Run(ctx, client.ID, []string{"bogus-1", "bogus-2"})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestLLMFailureYieldsDegradedCompletion(t *testing.T) {
	ctx := context.Background()
	st := store.New(memstore.New())
	client, scenario := seedClientAndScenario(t, st, 2)

	failing := &fakeCompleter{fn: func(call int, req llm.CompletionRequest) (string, error) {
		return "", errors.New("upstream down")
	}}
	pipeline := NewPipeline(st, failing)

	results, err := pipeline.Run(ctx, client.ID, []string{scenario.ID})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, store.StatusCompleted, results[0].Status)
	assert.Equal(t, float64(degradedScore), results[0].Score)

	run, err := st.GetRun(ctx, results[0].RunID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, run.Status)
	assert.Equal(t, degradedSummary, run.EvaluationSummary)
	assert.Empty(t, run.Conversation)
	assert.Contains(t, run.DetailedFeedback, "No conversation was generated.")
}

func TestPartialTranscriptSurvivesDegradedCompletion(t *testing.T) {
	ctx := context.Background()
	st := store.New(memstore.New())
	client, scenario := seedClientAndScenario(t, st, 3)

	// Calls 1 and 2 are turn one; the turn-two customer call fails.
	flaky := &fakeCompleter{fn: func(call int, req llm.CompletionRequest) (string, error) {
		if call >= 3 {
			return "", errors.New("timeout")
		}
		return "message", nil
	}}
	pipeline := NewPipeline(st, flaky)

	results, err := pipeline.Run(ctx, client.ID, []string{scenario.ID})
	require.NoError(t, err)
	require.Len(t, results, 1)

	run, err := st.GetRun(ctx, results[0].RunID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, run.Status)
	assert.Len(t, run.Conversation, 2)
	assert.Contains(t, run.DetailedFeedback, "A partial conversation was generated.")
}

func TestEvaluationParseFailureDegradesButKeepsTranscript(t *testing.T) {
	ctx := context.Background()
	st := store.New(memstore.New())
	client, scenario := seedClientAndScenario(t, st, 1)

	noJSON := &fakeCompleter{fn: func(call int, req llm.CompletionRequest) (string, error) {
		if req.SystemPrompt == jsonOnlySystemPrompt {
			return "I cannot produce JSON today", nil
		}
		return "message", nil
	}}
	pipeline := NewPipeline(st, noJSON)

	results, err := pipeline.Run(ctx, client.ID, []string{scenario.ID})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, float64(degradedScore), results[0].Score)

	run, err := st.GetRun(ctx, results[0].RunID)
	require.NoError(t, err)
	assert.Len(t, run.Conversation, 2)
	assert.Equal(t, degradedSummary, run.EvaluationSummary)
}

func TestEveryScenarioCompletesWhenOneDegrades(t *testing.T) {
	ctx := context.Background()
	st := store.New(memstore.New())
	client, first := seedClientAndScenario(t, st, 1)

	one := 1
	second, err := st.CreateScenario(ctx, store.ScenarioInput{
		ClientID:     client.ID,
		Name:         "Second case",
		MessageCount: &one,
	})
	require.NoError(t, err)

	// Every call belonging to the second scenario fails; its name shows up
	// in the customer simulator prompt.
	selective := &fakeCompleter{fn: func(call int, req llm.CompletionRequest) (string, error) {
		if strings.Contains(req.SystemPrompt, "Second case") || strings.Contains(req.UserPrompt, "Second case") {
			return "", errors.New("quota exceeded")
		}
		if req.SystemPrompt == jsonOnlySystemPrompt {
			return evalJSON, nil
		}
		return "message", nil
	}}
	pipeline := NewPipeline(st, selective)

	results, err := pipeline.Run(ctx, client.ID, []string{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, results, 2)

	scoreByScenario := make(map[string]float64, len(results))
	for _, r := range results {
		assert.Equal(t, store.StatusCompleted, r.Status)
		scoreByScenario[r.ScenarioID] = r.Score
	}
	assert.Equal(t, 82.0, scoreByScenario[first.ID])
	assert.Equal(t, float64(degradedScore), scoreByScenario[second.ID])
}
