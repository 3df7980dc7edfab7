package migration

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptsim/backend/internal/docstore/memstore"
	"github.com/promptsim/backend/internal/store"
)

func newSourceDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE clients (
			id TEXT PRIMARY KEY, name TEXT NOT NULL,
			industry TEXT, description TEXT, tone_of_voice TEXT,
			products_or_services TEXT, policies TEXT, extra_context TEXT,
			base_system_prompt TEXT, created_at TEXT, updated_at TEXT
		);
		CREATE TABLE scenarios (
			id TEXT PRIMARY KEY, client_id TEXT NOT NULL, name TEXT NOT NULL,
			type TEXT, description TEXT, customer_persona TEXT, goal TEXT,
			message_count INTEGER, is_active BOOLEAN, created_at TEXT
		);
		CREATE TABLE simulation_runs (
			id TEXT PRIMARY KEY, client_id TEXT NOT NULL, scenario_id TEXT NOT NULL,
			status TEXT, conversation TEXT, score REAL,
			evaluation_summary TEXT, detailed_feedback TEXT,
			prompt_improvement_suggestions TEXT, created_at TEXT
		);
		CREATE TABLE final_prompt_suggestions (
			id TEXT PRIMARY KEY, client_id TEXT NOT NULL,
			source_simulation_run_ids TEXT, combined_prompt TEXT,
			rationale TEXT, created_at TEXT
		);
	`)
	require.NoError(t, err)
	return db
}

func seedSource(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO clients (id, name, industry, created_at, updated_at)
		VALUES ('c1', 'Acme', 'retail', '2025-01-10T10:00:00Z', '2025-01-10T10:00:00Z');

		INSERT INTO scenarios (id, client_id, name, type, message_count, is_active, created_at)
		VALUES ('s1', 'c1', 'Refund', NULL, NULL, NULL, '2025-01-11T10:00:00Z');

		INSERT INTO simulation_runs (id, client_id, scenario_id, status, conversation, score, prompt_improvement_suggestions, created_at)
		VALUES ('r1', 'c1', 's1', 'completed',
		        '[{"role":"customer","content":"hi","turn":1}]', 88,
		        '["Be warmer"]', '2025-01-12T10:00:00Z');

		INSERT INTO final_prompt_suggestions (id, client_id, source_simulation_run_ids, combined_prompt, rationale, created_at)
		VALUES ('p1', 'c1', '["r1"]', 'A better prompt.', 'Because.', '2025-01-13T10:00:00Z');
	`)
	require.NoError(t, err)
}

func TestMigrateCopiesEverything(t *testing.T) {
	ctx := context.Background()
	src := newSourceDB(t)
	seedSource(t, src)
	dst := memstore.New()

	m := New(src, dst)
	report, err := m.Migrate(ctx, "")
	require.NoError(t, err)
	assert.True(t, report.Success)

	for _, collection := range []string{
		store.CollectionClients, store.CollectionScenarios,
		store.CollectionRuns, store.CollectionSuggestions,
	} {
		result := report.Results[collection]
		assert.Equal(t, 1, result.Total, collection)
		assert.Equal(t, 1, result.Migrated, collection)
	}

	st := store.New(dst)

	client, err := st.GetClient(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", client.Name)
	assert.Equal(t, "retail", client.Industry)

	run, err := st.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "completed", run.Status)
	assert.Equal(t, 88.0, run.Score)
	require.Len(t, run.Conversation, 1)
	assert.Equal(t, "hi", run.Conversation[0].Content)
	assert.Equal(t, []string{"Be warmer"}, run.PromptImprovementSuggestions)
}

func TestMigrateAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	src := newSourceDB(t)
	seedSource(t, src)
	dst := memstore.New()

	m := New(src, dst)
	_, err := m.Migrate(ctx, "")
	require.NoError(t, err)

	scenario, err := store.New(dst).GetScenario(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, store.DefaultScenarioType, scenario.Type)
	assert.Equal(t, store.DefaultMessageCount, scenario.MessageCount)
	assert.True(t, scenario.IsActive)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	src := newSourceDB(t)
	seedSource(t, src)
	dst := memstore.New()

	m := New(src, dst)
	_, err := m.Migrate(ctx, "")
	require.NoError(t, err)

	// Existing destination documents are never overwritten.
	st := store.New(dst)
	_, err = st.UpdateClient(ctx, "c1", store.ClientInput{Name: "Renamed"})
	require.NoError(t, err)

	report, err := m.Migrate(ctx, "")
	require.NoError(t, err)
	for collection, result := range report.Results {
		assert.Equal(t, 1, result.Total, collection)
		assert.Equal(t, 0, result.Migrated, collection)
	}

	client, err := st.GetClient(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", client.Name)
}

func TestMigrateSingleCollection(t *testing.T) {
	ctx := context.Background()
	src := newSourceDB(t)
	seedSource(t, src)
	dst := memstore.New()

	m := New(src, dst)
	report, err := m.Migrate(ctx, store.CollectionClients)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, 1, report.Results[store.CollectionClients].Migrated)

	_, err = store.New(dst).GetScenario(ctx, "s1")
	require.Error(t, err)
}

func TestStatusReportsPendingMigration(t *testing.T) {
	ctx := context.Background()
	src := newSourceDB(t)
	seedSource(t, src)
	dst := memstore.New()

	m := New(src, dst)

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.SourceClients)
	assert.Equal(t, 0, status.DestinationClients)
	assert.True(t, status.NeedsMigration)

	_, err = m.Migrate(ctx, "")
	require.NoError(t, err)

	status, err = m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.DestinationClients)
	assert.False(t, status.NeedsMigration)
}
