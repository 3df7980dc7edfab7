package simulation

import (
	"fmt"
	"strings"

	"github.com/promptsim/backend/internal/store"
)

// buildCustomerSimulatorPrompt renders the system instruction for the
// LLM-played customer. Pure string building; rebuilt identically every turn.
func buildCustomerSimulatorPrompt(scenario *store.Scenario) string {
	return fmt.Sprintf(`You are simulating a real customer in a customer support conversation.
You must behave according to this scenario:
- Scenario name: %s
- Type: %s
- Description: %s
- Persona: %s
- Goal: %s

Instructions:
- Speak as the customer only.
- Be consistent in mood and style (e.g., furious, polite, confused).
- React realistically to the agent's previous message.
- Do NOT write the agent's messages.
- Keep each message between 1-3 sentences.
- Stop escalating if your goal is clearly achieved.
- Be natural and human-like in your responses.`,
		scenario.Name, scenario.Type, scenario.Description, scenario.CustomerPersona, scenario.Goal)
}

// buildAgentPrompt renders the system instruction for the LLM-played agent,
// embedding the client's base system prompt verbatim.
func buildAgentPrompt(client *store.Client) string {
	return fmt.Sprintf(`You are the AI support agent for this client.

CLIENT DETAILS:
- Name: %s
- Industry: %s
- Description: %s
- Products/services: %s
- Policies: %s
- Tone of voice: %s
- Extra context: %s

BASE SYSTEM PROMPT (to follow strictly):
%s

General rules:
- Always respond in a helpful, accurate, and policy-compliant way.
- Stay within the client's tone and style.
- If you lack information, ask clarifying questions or say you don't know.
- Never invent policies or guarantees not provided.
- Keep responses concise and professional.`,
		client.Name, client.Industry, client.Description, client.ProductsOrServices,
		client.Policies, client.ToneOfVoice, client.ExtraContext, client.BaseSystemPrompt)
}

func firstTurnInstruction(messageCount int) string {
	return fmt.Sprintf("This is turn 1 of %d. Start the conversation naturally as the customer described in the scenario. Introduce your issue or question.", messageCount)
}

func laterTurnInstruction(turn, messageCount int, transcript string) string {
	return fmt.Sprintf("This is turn %d of %d.\n\nConversation so far:\n%s\n\nRespond naturally as the customer. React to the agent's last message.", turn, messageCount, transcript)
}

func degradedFeedback(cause error, hasConversation bool) string {
	suffix := "No conversation was generated."
	if hasConversation {
		suffix = "A partial conversation was generated."
	}
	return fmt.Sprintf("The simulation was run but encountered an error: %v. %s", cause, suffix)
}

func renderTranscript(conversation []store.ConversationMessage, separator string) string {
	lines := make([]string, len(conversation))
	for i, msg := range conversation {
		speaker := "Agent"
		if msg.Role == store.RoleCustomer {
			speaker = "Customer"
		}
		lines[i] = fmt.Sprintf("%s: %s", speaker, msg.Content)
	}
	return strings.Join(lines, separator)
}
