// Package store is the typed repository over the document store: CRUD per
// collection, defaulting at the construction boundary, and newest-first
// listing. When a listing is filtered by a foreign key the whole collection
// is fetched and filtered client-side, since the document store offers no
// composite queries; unfiltered listings use backend ordering when the
// backend declares the capability and sort client-side otherwise.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/promptsim/backend/internal/docstore"
	"github.com/promptsim/backend/pkg/apperr"
	"github.com/promptsim/backend/pkg/logger"
)

type Store struct {
	db docstore.Store
}

func New(db docstore.Store) *Store {
	return &Store{db: db}
}

func (s *Store) get(ctx context.Context, collection, id, resource string, v interface{}) error {
	data, err := s.db.Get(ctx, collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound(resource, id)
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", resource, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", resource, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, collection, id string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return s.db.Set(ctx, collection, id, data)
}

// listDocs returns a collection's raw documents, backend-ordered
// newest-first when the backend supports it.
func (s *Store) listDocs(ctx context.Context, collection string) ([]docstore.Document, bool, error) {
	if s.db.SupportsOrderedList() {
		docs, err := s.db.ListOrdered(ctx, collection, "created_at")
		return docs, true, err
	}
	docs, err := s.db.List(ctx, collection)
	return docs, false, err
}

func decodeAll[T any](docs []docstore.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := json.Unmarshal(doc.Data, &v); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func sortNewestFirst[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}

// Clients

func (s *Store) CreateClient(ctx context.Context, in ClientInput) (*Client, error) {
	now := time.Now().UTC()
	client := &Client{
		ID:                 uuid.New().String(),
		Name:               in.Name,
		Industry:           in.Industry,
		Description:        in.Description,
		ToneOfVoice:        in.ToneOfVoice,
		ProductsOrServices: in.ProductsOrServices,
		Policies:           in.Policies,
		ExtraContext:       in.ExtraContext,
		BaseSystemPrompt:   in.BaseSystemPrompt,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.put(ctx, CollectionClients, client.ID, client); err != nil {
		return nil, err
	}

	logger.Info("Client created", zap.String("client_id", client.ID), zap.String("name", client.Name))
	return client, nil
}

func (s *Store) GetClient(ctx context.Context, id string) (*Client, error) {
	var client Client
	if err := s.get(ctx, CollectionClients, id, "client", &client); err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *Store) ListClients(ctx context.Context) ([]Client, error) {
	docs, ordered, err := s.listDocs(ctx, CollectionClients)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	clients, err := decodeAll[Client](docs)
	if err != nil {
		return nil, err
	}
	if !ordered {
		sortNewestFirst(clients, func(c Client) time.Time { return c.CreatedAt })
	}
	return clients, nil
}

// UpdateClient overwrites all editable fields and refreshes updated_at.
func (s *Store) UpdateClient(ctx context.Context, id string, in ClientInput) (*Client, error) {
	client, err := s.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}

	client.Name = in.Name
	client.Industry = in.Industry
	client.Description = in.Description
	client.ToneOfVoice = in.ToneOfVoice
	client.ProductsOrServices = in.ProductsOrServices
	client.Policies = in.Policies
	client.ExtraContext = in.ExtraContext
	client.BaseSystemPrompt = in.BaseSystemPrompt
	client.UpdatedAt = time.Now().UTC()

	if err := s.put(ctx, CollectionClients, id, client); err != nil {
		return nil, err
	}
	return client, nil
}

// DeleteClient removes the client record only. Scenarios, runs and
// suggestions referencing it are left in place.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	return s.db.Delete(ctx, CollectionClients, id)
}

// Scenarios

func (s *Store) CreateScenario(ctx context.Context, in ScenarioInput) (*Scenario, error) {
	scenario := newScenario(in, time.Now().UTC())
	scenario.ID = uuid.New().String()

	if err := s.put(ctx, CollectionScenarios, scenario.ID, scenario); err != nil {
		return nil, err
	}

	logger.Info("Scenario created",
		zap.String("scenario_id", scenario.ID),
		zap.String("client_id", scenario.ClientID),
	)
	return scenario, nil
}

func (s *Store) GetScenario(ctx context.Context, id string) (*Scenario, error) {
	var scenario Scenario
	if err := s.get(ctx, CollectionScenarios, id, "scenario", &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// ListScenarios returns scenarios newest-first, restricted to a client when
// clientID is non-empty.
func (s *Store) ListScenarios(ctx context.Context, clientID string) ([]Scenario, error) {
	if clientID != "" {
		docs, err := s.db.List(ctx, CollectionScenarios)
		if err != nil {
			return nil, fmt.Errorf("failed to list scenarios: %w", err)
		}
		all, err := decodeAll[Scenario](docs)
		if err != nil {
			return nil, err
		}
		scenarios := make([]Scenario, 0, len(all))
		for _, sc := range all {
			if sc.ClientID == clientID {
				scenarios = append(scenarios, sc)
			}
		}
		sortNewestFirst(scenarios, func(sc Scenario) time.Time { return sc.CreatedAt })
		return scenarios, nil
	}

	docs, ordered, err := s.listDocs(ctx, CollectionScenarios)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	scenarios, err := decodeAll[Scenario](docs)
	if err != nil {
		return nil, err
	}
	if !ordered {
		sortNewestFirst(scenarios, func(sc Scenario) time.Time { return sc.CreatedAt })
	}
	return scenarios, nil
}

func (s *Store) UpdateScenario(ctx context.Context, id string, in ScenarioInput) (*Scenario, error) {
	scenario, err := s.GetScenario(ctx, id)
	if err != nil {
		return nil, err
	}

	scenario.Name = in.Name
	scenario.Type = in.Type
	scenario.Description = in.Description
	scenario.CustomerPersona = in.CustomerPersona
	scenario.Goal = in.Goal
	if in.MessageCount != nil {
		scenario.MessageCount = *in.MessageCount
	}
	if in.IsActive != nil {
		scenario.IsActive = *in.IsActive
	}

	if err := s.put(ctx, CollectionScenarios, id, scenario); err != nil {
		return nil, err
	}
	return scenario, nil
}

func (s *Store) DeleteScenario(ctx context.Context, id string) error {
	return s.db.Delete(ctx, CollectionScenarios, id)
}

// Simulation runs

// CreateRun allocates a run record with a fresh random id and status
// running. Run ids are never reused across executions.
func (s *Store) CreateRun(ctx context.Context, clientID, scenarioID string) (*SimulationRun, error) {
	run := &SimulationRun{
		ID:           uuid.New().String(),
		ClientID:     clientID,
		ScenarioID:   scenarioID,
		Status:       StatusRunning,
		Conversation: []ConversationMessage{},
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.put(ctx, CollectionRuns, run.ID, run); err != nil {
		return nil, err
	}

	logger.Info("Simulation run created",
		zap.String("run_id", run.ID),
		zap.String("scenario_id", scenarioID),
	)
	return run, nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*SimulationRun, error) {
	var run SimulationRun
	if err := s.get(ctx, CollectionRuns, id, "simulation run", &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// SaveConversation persists the transcript-so-far. This per-turn write is
// the only progress signal observers get while a run executes.
func (s *Store) SaveConversation(ctx context.Context, runID string, conversation []ConversationMessage) error {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	run.Conversation = conversation
	return s.put(ctx, CollectionRuns, runID, run)
}

// CompleteRun transitions the run to its terminal state with the evaluation
// outcome. Completed is terminal; callers never transition a run out of it.
func (s *Store) CompleteRun(ctx context.Context, runID string, conversation []ConversationMessage, score float64, summary, feedback string, suggestions []string) error {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}

	run.Status = StatusCompleted
	run.Conversation = conversation
	run.Score = score
	run.EvaluationSummary = summary
	run.DetailedFeedback = feedback
	run.PromptImprovementSuggestions = suggestions

	if err := s.put(ctx, CollectionRuns, runID, run); err != nil {
		return err
	}

	logger.Info("Simulation run completed",
		zap.String("run_id", runID),
		zap.Float64("score", score),
	)
	return nil
}

// ListRuns returns runs newest-first, optionally filtered by client and/or
// scenario.
func (s *Store) ListRuns(ctx context.Context, clientID, scenarioID string) ([]SimulationRun, error) {
	if clientID != "" || scenarioID != "" {
		docs, err := s.db.List(ctx, CollectionRuns)
		if err != nil {
			return nil, fmt.Errorf("failed to list simulation runs: %w", err)
		}
		all, err := decodeAll[SimulationRun](docs)
		if err != nil {
			return nil, err
		}
		runs := make([]SimulationRun, 0, len(all))
		for _, r := range all {
			if clientID != "" && r.ClientID != clientID {
				continue
			}
			if scenarioID != "" && r.ScenarioID != scenarioID {
				continue
			}
			runs = append(runs, r)
		}
		sortNewestFirst(runs, func(r SimulationRun) time.Time { return r.CreatedAt })
		return runs, nil
	}

	docs, ordered, err := s.listDocs(ctx, CollectionRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to list simulation runs: %w", err)
	}
	runs, err := decodeAll[SimulationRun](docs)
	if err != nil {
		return nil, err
	}
	if !ordered {
		sortNewestFirst(runs, func(r SimulationRun) time.Time { return r.CreatedAt })
	}
	return runs, nil
}

// Final prompt suggestions

// CreateSuggestion appends a new immutable suggestion; history accumulates,
// existing suggestions are never updated.
func (s *Store) CreateSuggestion(ctx context.Context, clientID string, sourceRunIDs []string, combinedPrompt, rationale string) (*FinalPromptSuggestion, error) {
	suggestion := &FinalPromptSuggestion{
		ID:                     uuid.New().String(),
		ClientID:               clientID,
		SourceSimulationRunIDs: sourceRunIDs,
		CombinedPrompt:         combinedPrompt,
		Rationale:              rationale,
		CreatedAt:              time.Now().UTC(),
	}

	if err := s.put(ctx, CollectionSuggestions, suggestion.ID, suggestion); err != nil {
		return nil, err
	}

	logger.Info("Final prompt suggestion created",
		zap.String("suggestion_id", suggestion.ID),
		zap.String("client_id", clientID),
		zap.Int("source_runs", len(sourceRunIDs)),
	)
	return suggestion, nil
}

func (s *Store) ListSuggestions(ctx context.Context, clientID string) ([]FinalPromptSuggestion, error) {
	if clientID != "" {
		docs, err := s.db.List(ctx, CollectionSuggestions)
		if err != nil {
			return nil, fmt.Errorf("failed to list suggestions: %w", err)
		}
		all, err := decodeAll[FinalPromptSuggestion](docs)
		if err != nil {
			return nil, err
		}
		suggestions := make([]FinalPromptSuggestion, 0, len(all))
		for _, p := range all {
			if p.ClientID == clientID {
				suggestions = append(suggestions, p)
			}
		}
		sortNewestFirst(suggestions, func(p FinalPromptSuggestion) time.Time { return p.CreatedAt })
		return suggestions, nil
	}

	docs, ordered, err := s.listDocs(ctx, CollectionSuggestions)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	suggestions, err := decodeAll[FinalPromptSuggestion](docs)
	if err != nil {
		return nil, err
	}
	if !ordered {
		sortNewestFirst(suggestions, func(p FinalPromptSuggestion) time.Time { return p.CreatedAt })
	}
	return suggestions, nil
}
