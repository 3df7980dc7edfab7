package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/promptsim/backend/internal/simulation"
)

type SimulationHandler struct {
	pipeline *simulation.Pipeline
}

func NewSimulationHandler(pipeline *simulation.Pipeline) *SimulationHandler {
	return &SimulationHandler{pipeline: pipeline}
}

// Simulate runs the requested scenarios synchronously. The response arrives
// only after every scenario has reached a terminal run; callers that want
// progress poll the run records instead.
func (h *SimulationHandler) Simulate(c *fiber.Ctx) error {
	var req struct {
		ClientID    string   `json:"clientId"`
		ScenarioIDs []string `json:"scenarioIds"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ClientID == "" || len(req.ScenarioIDs) == 0 {
		return badRequest(c, "clientId and scenarioIds are required")
	}

	results, err := h.pipeline.Run(c.Context(), req.ClientID, req.ScenarioIDs)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"results": results,
	})
}
