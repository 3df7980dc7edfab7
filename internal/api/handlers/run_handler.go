package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/promptsim/backend/internal/store"
)

type RunHandler struct {
	store *store.Store
}

func NewRunHandler(st *store.Store) *RunHandler {
	return &RunHandler{store: st}
}

// List filters by client_id and scenario_id query params; both optional.
func (h *RunHandler) List(c *fiber.Ctx) error {
	runs, err := h.store.ListRuns(c.Context(), c.Query("client_id"), c.Query("scenario_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(runs)
}

// Get serves the polling loop: the conversation field grows turn by turn
// while the run is in progress.
func (h *RunHandler) Get(c *fiber.Ctx) error {
	run, err := h.store.GetRun(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(run)
}
