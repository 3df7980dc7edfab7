package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/promptsim/backend/internal/synthesis"
)

type SynthesisHandler struct {
	synthesizer *synthesis.Synthesizer
}

func NewSynthesisHandler(s *synthesis.Synthesizer) *SynthesisHandler {
	return &SynthesisHandler{synthesizer: s}
}

func (h *SynthesisHandler) Synthesize(c *fiber.Ctx) error {
	var req struct {
		ClientID string `json:"clientId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ClientID == "" {
		return badRequest(c, "clientId is required")
	}

	suggestion, stats, err := h.synthesizer.Synthesize(c.Context(), req.ClientID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"id":                        suggestion.ID,
		"client_id":                 suggestion.ClientID,
		"source_simulation_run_ids": suggestion.SourceSimulationRunIDs,
		"combined_prompt":           suggestion.CombinedPrompt,
		"rationale":                 suggestion.Rationale,
		"created_at":                suggestion.CreatedAt,
		"stats":                     stats,
	})
}
