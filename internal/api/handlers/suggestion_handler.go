package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/promptsim/backend/internal/store"
)

type SuggestionHandler struct {
	store *store.Store
}

func NewSuggestionHandler(st *store.Store) *SuggestionHandler {
	return &SuggestionHandler{store: st}
}

func (h *SuggestionHandler) List(c *fiber.Ctx) error {
	suggestions, err := h.store.ListSuggestions(c.Context(), c.Query("client_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(suggestions)
}
