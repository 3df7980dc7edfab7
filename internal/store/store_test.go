package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptsim/backend/internal/docstore/memstore"
	"github.com/promptsim/backend/pkg/apperr"
)

func newTestStore() *Store {
	return New(memstore.New())
}

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	created, err := st.CreateClient(ctx, ClientInput{
		Name:             "Acme Support",
		Industry:         "e-commerce",
		ToneOfVoice:      "friendly",
		BaseSystemPrompt: "You are a helpful support agent.",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	fetched, err := st.GetClient(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Support", fetched.Name)
	assert.Equal(t, "e-commerce", fetched.Industry)
	assert.Equal(t, "friendly", fetched.ToneOfVoice)
	assert.True(t, created.CreatedAt.Equal(fetched.CreatedAt))
	assert.True(t, created.UpdatedAt.Equal(fetched.UpdatedAt))
}

func TestGetClientNotFound(t *testing.T) {
	st := newTestStore()

	_, err := st.GetClient(context.Background(), "missing-id")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestUpdateClientRefreshesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	created, err := st.CreateClient(ctx, ClientInput{Name: "Before"})
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)

	updated, err := st.UpdateClient(ctx, created.ID, ClientInput{Name: "After", Industry: "saas"})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, "saas", updated.Industry)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestDeleteClientLeavesDependents(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	client, err := st.CreateClient(ctx, ClientInput{Name: "Doomed"})
	require.NoError(t, err)

	scenario, err := st.CreateScenario(ctx, ScenarioInput{ClientID: client.ID, Name: "Refund request"})
	require.NoError(t, err)

	run, err := st.CreateRun(ctx, client.ID, scenario.ID)
	require.NoError(t, err)

	require.NoError(t, st.DeleteClient(ctx, client.ID))

	_, err = st.GetClient(ctx, client.ID)
	assert.True(t, apperr.IsNotFound(err))

	still, err := st.GetScenario(ctx, scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, client.ID, still.ClientID)

	_, err = st.GetRun(ctx, run.ID)
	require.NoError(t, err)
}

func TestScenarioDefaults(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	scenario, err := st.CreateScenario(ctx, ScenarioInput{ClientID: "c1", Name: "Angry customer"})
	require.NoError(t, err)
	assert.Equal(t, DefaultScenarioType, scenario.Type)
	assert.Equal(t, DefaultMessageCount, scenario.MessageCount)
	assert.True(t, scenario.IsActive)
}

func TestScenarioExplicitValuesKept(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	scenario, err := st.CreateScenario(ctx, ScenarioInput{
		ClientID:     "c1",
		Name:         "Billing dispute",
		Type:         "escalation",
		MessageCount: intPtr(3),
		IsActive:     boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "escalation", scenario.Type)
	assert.Equal(t, 3, scenario.MessageCount)
	assert.False(t, scenario.IsActive)
}

func TestListScenariosFiltersByClientNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	first, err := st.CreateScenario(ctx, ScenarioInput{ClientID: "c1", Name: "First"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = st.CreateScenario(ctx, ScenarioInput{ClientID: "other", Name: "Elsewhere"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := st.CreateScenario(ctx, ScenarioInput{ClientID: "c1", Name: "Second"})
	require.NoError(t, err)

	scenarios, err := st.ListScenarios(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, second.ID, scenarios[0].ID)
	assert.Equal(t, first.ID, scenarios[1].ID)

	all, err := st.ListScenarios(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	run, err := st.CreateRun(ctx, "c1", "s1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Empty(t, run.Conversation)

	partial := []ConversationMessage{
		{Role: RoleCustomer, Content: "My order is late", Turn: 1},
		{Role: RoleAgent, Content: "Let me check that for you", Turn: 1},
	}
	require.NoError(t, st.SaveConversation(ctx, run.ID, partial))

	inFlight, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, inFlight.Status)
	assert.Len(t, inFlight.Conversation, 2)

	err = st.CompleteRun(ctx, run.ID, partial, 87.5, "Handled well.", "Detailed notes.", []string{"Mention refund policy"})
	require.NoError(t, err)

	done, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, 87.5, done.Score)
	assert.Equal(t, "Handled well.", done.EvaluationSummary)
	assert.Equal(t, []string{"Mention refund policy"}, done.PromptImprovementSuggestions)
}

func TestListRunsFilters(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	r1, err := st.CreateRun(ctx, "c1", "s1")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	r2, err := st.CreateRun(ctx, "c1", "s2")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = st.CreateRun(ctx, "c2", "s1")
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, "c1", "")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, r2.ID, runs[0].ID)
	assert.Equal(t, r1.ID, runs[1].ID)

	runs, err = st.ListRuns(ctx, "c1", "s2")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, r2.ID, runs[0].ID)

	runs, err = st.ListRuns(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestSuggestionsAccumulate(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	first, err := st.CreateSuggestion(ctx, "c1", []string{"r1"}, "prompt one", "why one")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := st.CreateSuggestion(ctx, "c1", []string{"r2", "r3"}, "prompt two", "why two")
	require.NoError(t, err)

	suggestions, err := st.ListSuggestions(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, second.ID, suggestions[0].ID)
	assert.Equal(t, first.ID, suggestions[1].ID)
	assert.Equal(t, []string{"r2", "r3"}, suggestions[0].SourceSimulationRunIDs)
}
