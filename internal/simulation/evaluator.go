package simulation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/promptsim/backend/internal/llm"
	"github.com/promptsim/backend/internal/store"
	"github.com/promptsim/backend/pkg/apperr"
	"github.com/promptsim/backend/pkg/jsonx"
)

const jsonOnlySystemPrompt = "You are a JSON-only response bot. Always output valid JSON."

// EvaluationResult is the composite verdict for one finished transcript.
// The score is accepted as returned by the model, without clamping.
type EvaluationResult struct {
	Score                        float64  `json:"score"`
	EvaluationSummary            string   `json:"evaluationSummary"`
	DetailedFeedback             string   `json:"detailedFeedback"`
	PromptImprovementSuggestions []string `json:"promptImprovementSuggestions"`
}

func buildEvaluationPrompt(client *store.Client, scenario *store.Scenario, conversation []store.ConversationMessage) string {
	return fmt.Sprintf(`You are an expert evaluator of customer support chat quality.
Your task is to rate how well the AI agent handled the conversation.

CLIENT DETAILS:
- Name: %s
- Industry: %s
- Description: %s
- Products/services: %s
- Policies: %s
- Tone of voice: %s
- Base system prompt: %s

SCENARIO DETAILS:
- Name: %s
- Type: %s
- Description: %s
- Customer persona: %s
- Goal: %s

CONVERSATION:
%s

Evaluate:
1. Goal achievement: Did the agent accomplish the scenario's goal?
2. Tone & style: Did the agent follow the required tone and remain professional?
3. Policy compliance: Did the agent respect the client's stated policies?
4. Helpfulness & clarity: Were the responses clear, concise, and helpful?
5. Safety & risk: Did the agent avoid unsafe promises or misleading information?

Output JSON ONLY in this format:
{
  "score": <number between 0 and 100>,
  "evaluationSummary": "<2-3 sentences summary>",
  "detailedFeedback": "<multi-paragraph explanation>",
  "promptImprovementSuggestions": [
    "<short bullet suggestion 1>",
    "<short bullet suggestion 2>"
  ]
}`,
		client.Name, client.Industry, client.Description, client.ProductsOrServices,
		client.Policies, client.ToneOfVoice, client.BaseSystemPrompt,
		scenario.Name, scenario.Type, scenario.Description, scenario.CustomerPersona, scenario.Goal,
		renderTranscript(conversation, "\n\n"))
}

// evaluateConversation scores one completed transcript. The model is asked
// for a bare JSON object; only the first {...} substring of the response is
// considered.
func evaluateConversation(ctx context.Context, completer Completer, client *store.Client, scenario *store.Scenario, conversation []store.ConversationMessage) (*EvaluationResult, error) {
	resp, err := completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: jsonOnlySystemPrompt,
		UserPrompt:   buildEvaluationPrompt(client, scenario, conversation),
		Temperature:  0.3,
	})
	if err != nil {
		return nil, err
	}

	candidate, ok := jsonx.ExtractObject(resp.Content)
	if !ok {
		return nil, apperr.Parse("failed to parse evaluation response", "")
	}

	var result EvaluationResult
	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return nil, apperr.Parse("failed to decode evaluation response", "")
	}

	return &result, nil
}
