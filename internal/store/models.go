package store

import "time"

// Collection names in the document store.
const (
	CollectionClients     = "clients"
	CollectionScenarios   = "scenarios"
	CollectionRuns        = "simulation_runs"
	CollectionSuggestions = "final_prompt_suggestions"
)

// Conversation roles.
const (
	RoleCustomer = "customer"
	RoleAgent    = "agent"
)

// Simulation run statuses. A run transitions running -> completed exactly
// once and never leaves completed.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
)

// Scenario defaults applied at the construction boundary.
const (
	DefaultScenarioType = "general"
	DefaultMessageCount = 8
)

type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Turn    int    `json:"turn"`
}

// Client is a configured business profile whose support-agent behavior is
// under test.
type Client struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Industry           string    `json:"industry"`
	Description        string    `json:"description"`
	ToneOfVoice        string    `json:"tone_of_voice"`
	ProductsOrServices string    `json:"products_or_services"`
	Policies           string    `json:"policies"`
	ExtraContext       string    `json:"extra_context"`
	BaseSystemPrompt   string    `json:"base_system_prompt"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Scenario defines one simulated customer situation for a client.
type Scenario struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"client_id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Description     string    `json:"description"`
	CustomerPersona string    `json:"customer_persona"`
	Goal            string    `json:"goal"`
	MessageCount    int       `json:"message_count"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// SimulationRun is one executed, scored conversation for a
// (client, scenario) pair. Conversation is append-only while running.
type SimulationRun struct {
	ID                           string                `json:"id"`
	ClientID                     string                `json:"client_id"`
	ScenarioID                   string                `json:"scenario_id"`
	Status                       string                `json:"status"`
	Conversation                 []ConversationMessage `json:"conversation"`
	Score                        float64               `json:"score"`
	EvaluationSummary            string                `json:"evaluation_summary"`
	DetailedFeedback             string                `json:"detailed_feedback"`
	PromptImprovementSuggestions []string              `json:"prompt_improvement_suggestions"`
	CreatedAt                    time.Time             `json:"created_at"`
}

// FinalPromptSuggestion is a synthesized candidate replacement for a
// client's base system prompt. Immutable once created.
type FinalPromptSuggestion struct {
	ID                     string    `json:"id"`
	ClientID               string    `json:"client_id"`
	SourceSimulationRunIDs []string  `json:"source_simulation_run_ids"`
	CombinedPrompt         string    `json:"combined_prompt"`
	Rationale              string    `json:"rationale"`
	CreatedAt              time.Time `json:"created_at"`
}

// ClientInput carries the editable client fields. Every field but Name
// defaults to the empty string.
type ClientInput struct {
	Name               string `json:"name"`
	Industry           string `json:"industry"`
	Description        string `json:"description"`
	ToneOfVoice        string `json:"tone_of_voice"`
	ProductsOrServices string `json:"products_or_services"`
	Policies           string `json:"policies"`
	ExtraContext       string `json:"extra_context"`
	BaseSystemPrompt   string `json:"base_system_prompt"`
}

// ScenarioInput carries the editable scenario fields. MessageCount and
// IsActive are pointers so that "absent" is distinguishable from zero
// values and the defaults apply only when unset.
type ScenarioInput struct {
	ClientID        string `json:"client_id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	Description     string `json:"description"`
	CustomerPersona string `json:"customer_persona"`
	Goal            string `json:"goal"`
	MessageCount    *int   `json:"message_count"`
	IsActive        *bool  `json:"is_active"`
}

func newScenario(in ScenarioInput, now time.Time) *Scenario {
	s := &Scenario{
		ClientID:        in.ClientID,
		Name:            in.Name,
		Type:            in.Type,
		Description:     in.Description,
		CustomerPersona: in.CustomerPersona,
		Goal:            in.Goal,
		MessageCount:    DefaultMessageCount,
		IsActive:        true,
		CreatedAt:       now,
	}
	if s.Type == "" {
		s.Type = DefaultScenarioType
	}
	if in.MessageCount != nil {
		s.MessageCount = *in.MessageCount
	}
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
	return s
}
