package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/promptsim/backend/internal/store"
)

type ScenarioHandler struct {
	store *store.Store
}

func NewScenarioHandler(st *store.Store) *ScenarioHandler {
	return &ScenarioHandler{store: st}
}

// List returns every scenario, or only one client's when client_id is given.
func (h *ScenarioHandler) List(c *fiber.Ctx) error {
	scenarios, err := h.store.ListScenarios(c.Context(), c.Query("client_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(scenarios)
}

func (h *ScenarioHandler) Create(c *fiber.Ctx) error {
	var in store.ScenarioInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(in.ClientID) == "" || strings.TrimSpace(in.Name) == "" {
		return badRequest(c, "client_id and name are required")
	}

	scenario, err := h.store.CreateScenario(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(scenario)
}

func (h *ScenarioHandler) Get(c *fiber.Ctx) error {
	scenario, err := h.store.GetScenario(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(scenario)
}

func (h *ScenarioHandler) Update(c *fiber.Ctx) error {
	var in store.ScenarioInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	scenario, err := h.store.UpdateScenario(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(scenario)
}

func (h *ScenarioHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.DeleteScenario(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
