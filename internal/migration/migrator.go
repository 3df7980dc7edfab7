// Package migration copies legacy rows out of the old SQLite database into
// the document store. The copy is idempotent: ids that already exist in the
// destination are never overwritten, so reruns after partial failures only
// fill the gaps.
package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/promptsim/backend/internal/docstore"
	"github.com/promptsim/backend/internal/store"
	"github.com/promptsim/backend/pkg/logger"
)

type Migrator struct {
	src *sql.DB
	dst docstore.Store
}

func New(src *sql.DB, dst docstore.Store) *Migrator {
	return &Migrator{src: src, dst: dst}
}

// CollectionResult counts one collection's source rows and how many of them
// were actually written this run.
type CollectionResult struct {
	Total    int `json:"total"`
	Migrated int `json:"migrated"`
}

type Report struct {
	Success bool                        `json:"success"`
	Message string                      `json:"message"`
	Results map[string]CollectionResult `json:"results"`
}

// Status compares client counts on both sides of the migration.
type Status struct {
	SourceClients      int  `json:"sourceClients"`
	DestinationClients int  `json:"destinationClients"`
	NeedsMigration     bool `json:"needsMigration"`
}

// Migrate copies every collection, or only the named one when collectionName
// is non-empty. Unknown names match nothing and yield an empty report.
func (m *Migrator) Migrate(ctx context.Context, collectionName string) (*Report, error) {
	report := &Report{Results: make(map[string]CollectionResult)}

	steps := []struct {
		name string
		run  func(context.Context) (CollectionResult, error)
	}{
		{store.CollectionClients, m.migrateClients},
		{store.CollectionScenarios, m.migrateScenarios},
		{store.CollectionRuns, m.migrateRuns},
		{store.CollectionSuggestions, m.migrateSuggestions},
	}

	totalMigrated := 0
	for _, step := range steps {
		if collectionName != "" && collectionName != step.name {
			continue
		}
		logger.Info("Migrating collection", zap.String("collection", step.name))
		result, err := step.run(ctx)
		if err != nil {
			return nil, fmt.Errorf("migrate %s: %w", step.name, err)
		}
		report.Results[step.name] = result
		totalMigrated += result.Migrated
		logger.Info("Collection migrated",
			zap.String("collection", step.name),
			zap.Int("total", result.Total),
			zap.Int("migrated", result.Migrated),
		)
	}

	report.Success = true
	report.Message = fmt.Sprintf("Migration complete! Migrated %d documents.", totalMigrated)
	return report, nil
}

func (m *Migrator) Status(ctx context.Context) (*Status, error) {
	var srcClients int
	err := m.src.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&srcClients)
	if err != nil {
		return nil, fmt.Errorf("count source clients: %w", err)
	}

	docs, err := m.dst.List(ctx, store.CollectionClients)
	if err != nil {
		return nil, fmt.Errorf("count destination clients: %w", err)
	}

	return &Status{
		SourceClients:      srcClients,
		DestinationClients: len(docs),
		NeedsMigration:     srcClients > len(docs),
	}, nil
}

func (m *Migrator) migrateClients(ctx context.Context) (CollectionResult, error) {
	rows, err := m.src.QueryContext(ctx, `
		SELECT id, name, industry, description, tone_of_voice,
		       products_or_services, policies, extra_context,
		       base_system_prompt, created_at, updated_at
		FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return CollectionResult{}, err
	}
	defer rows.Close()

	var result CollectionResult
	for rows.Next() {
		var (
			id, name                                  string
			industry, description, tone, products     sql.NullString
			policies, extraContext, basePrompt        sql.NullString
			createdAt, updatedAt                      sql.NullString
		)
		err := rows.Scan(&id, &name, &industry, &description, &tone, &products,
			&policies, &extraContext, &basePrompt, &createdAt, &updatedAt)
		if err != nil {
			return CollectionResult{}, err
		}
		result.Total++

		client := store.Client{
			ID:                 id,
			Name:               name,
			Industry:           industry.String,
			Description:        description.String,
			ToneOfVoice:        tone.String,
			ProductsOrServices: products.String,
			Policies:           policies.String,
			ExtraContext:       extraContext.String,
			BaseSystemPrompt:   basePrompt.String,
			CreatedAt:          parseTimestamp(createdAt),
			UpdatedAt:          parseTimestamp(updatedAt),
		}
		written, err := m.copyDoc(ctx, store.CollectionClients, id, client)
		if err != nil {
			return CollectionResult{}, err
		}
		if written {
			result.Migrated++
		}
	}
	return result, rows.Err()
}

func (m *Migrator) migrateScenarios(ctx context.Context) (CollectionResult, error) {
	rows, err := m.src.QueryContext(ctx, `
		SELECT id, client_id, name, type, description, customer_persona,
		       goal, message_count, is_active, created_at
		FROM scenarios ORDER BY created_at DESC`)
	if err != nil {
		return CollectionResult{}, err
	}
	defer rows.Close()

	var result CollectionResult
	for rows.Next() {
		var (
			id, clientID, name          string
			scType, description         sql.NullString
			persona, goal, createdAt    sql.NullString
			messageCount                sql.NullInt64
			isActive                    sql.NullBool
		)
		err := rows.Scan(&id, &clientID, &name, &scType, &description,
			&persona, &goal, &messageCount, &isActive, &createdAt)
		if err != nil {
			return CollectionResult{}, err
		}
		result.Total++

		scenario := store.Scenario{
			ID:              id,
			ClientID:        clientID,
			Name:            name,
			Type:            store.DefaultScenarioType,
			Description:     description.String,
			CustomerPersona: persona.String,
			Goal:            goal.String,
			MessageCount:    store.DefaultMessageCount,
			IsActive:        true,
			CreatedAt:       parseTimestamp(createdAt),
		}
		if scType.Valid && scType.String != "" {
			scenario.Type = scType.String
		}
		if messageCount.Valid && messageCount.Int64 > 0 {
			scenario.MessageCount = int(messageCount.Int64)
		}
		if isActive.Valid {
			scenario.IsActive = isActive.Bool
		}

		written, err := m.copyDoc(ctx, store.CollectionScenarios, id, scenario)
		if err != nil {
			return CollectionResult{}, err
		}
		if written {
			result.Migrated++
		}
	}
	return result, rows.Err()
}

func (m *Migrator) migrateRuns(ctx context.Context) (CollectionResult, error) {
	rows, err := m.src.QueryContext(ctx, `
		SELECT id, client_id, scenario_id, status, conversation, score,
		       evaluation_summary, detailed_feedback,
		       prompt_improvement_suggestions, created_at
		FROM simulation_runs ORDER BY created_at DESC`)
	if err != nil {
		return CollectionResult{}, err
	}
	defer rows.Close()

	var result CollectionResult
	for rows.Next() {
		var (
			id, clientID, scenarioID            string
			status, conversation, summary       sql.NullString
			feedback, suggestions, createdAt    sql.NullString
			score                               sql.NullFloat64
		)
		err := rows.Scan(&id, &clientID, &scenarioID, &status, &conversation,
			&score, &summary, &feedback, &suggestions, &createdAt)
		if err != nil {
			return CollectionResult{}, err
		}
		result.Total++

		run := store.SimulationRun{
			ID:                           id,
			ClientID:                     clientID,
			ScenarioID:                   scenarioID,
			Status:                       store.StatusPending,
			Conversation:                 decodeJSONArray[store.ConversationMessage](conversation),
			Score:                        score.Float64,
			EvaluationSummary:            summary.String,
			DetailedFeedback:             feedback.String,
			PromptImprovementSuggestions: decodeJSONArray[string](suggestions),
			CreatedAt:                    parseTimestamp(createdAt),
		}
		if status.Valid && status.String != "" {
			run.Status = status.String
		}

		written, err := m.copyDoc(ctx, store.CollectionRuns, id, run)
		if err != nil {
			return CollectionResult{}, err
		}
		if written {
			result.Migrated++
		}
	}
	return result, rows.Err()
}

func (m *Migrator) migrateSuggestions(ctx context.Context) (CollectionResult, error) {
	rows, err := m.src.QueryContext(ctx, `
		SELECT id, client_id, source_simulation_run_ids, combined_prompt,
		       rationale, created_at
		FROM final_prompt_suggestions ORDER BY created_at DESC`)
	if err != nil {
		return CollectionResult{}, err
	}
	defer rows.Close()

	var result CollectionResult
	for rows.Next() {
		var (
			id, clientID                           string
			sourceIDs, combined, rationale, created sql.NullString
		)
		err := rows.Scan(&id, &clientID, &sourceIDs, &combined, &rationale, &created)
		if err != nil {
			return CollectionResult{}, err
		}
		result.Total++

		suggestion := store.FinalPromptSuggestion{
			ID:                     id,
			ClientID:               clientID,
			SourceSimulationRunIDs: decodeJSONArray[string](sourceIDs),
			CombinedPrompt:         combined.String,
			Rationale:              rationale.String,
			CreatedAt:              parseTimestamp(created),
		}
		written, err := m.copyDoc(ctx, store.CollectionSuggestions, id, suggestion)
		if err != nil {
			return CollectionResult{}, err
		}
		if written {
			result.Migrated++
		}
	}
	return result, rows.Err()
}

// copyDoc writes one document unless the id is already present, preserving
// whatever the destination holds.
func (m *Migrator) copyDoc(ctx context.Context, collection, id string, v any) (bool, error) {
	exists, err := m.dst.Exists(ctx, collection, id)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	if err := m.dst.Set(ctx, collection, id, data); err != nil {
		return false, err
	}
	return true, nil
}

func parseTimestamp(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Now().UTC()
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s.String); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// decodeJSONArray tolerates NULL and malformed values; legacy rows stored
// these columns as free-form text.
func decodeJSONArray[T any](s sql.NullString) []T {
	out := []T{}
	if !s.Valid || s.String == "" {
		return out
	}
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		return []T{}
	}
	return out
}
