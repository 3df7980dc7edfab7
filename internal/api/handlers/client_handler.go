package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/promptsim/backend/internal/store"
)

type ClientHandler struct {
	store *store.Store
}

func NewClientHandler(st *store.Store) *ClientHandler {
	return &ClientHandler{store: st}
}

func (h *ClientHandler) List(c *fiber.Ctx) error {
	clients, err := h.store.ListClients(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(clients)
}

func (h *ClientHandler) Create(c *fiber.Ctx) error {
	var in store.ClientInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(in.Name) == "" {
		return badRequest(c, "Name is required")
	}

	client, err := h.store.CreateClient(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(client)
}

func (h *ClientHandler) Get(c *fiber.Ctx) error {
	client, err := h.store.GetClient(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(client)
}

func (h *ClientHandler) Update(c *fiber.Ctx) error {
	var in store.ClientInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(in.Name) == "" {
		return badRequest(c, "Name is required")
	}

	client, err := h.store.UpdateClient(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(client)
}

// Delete removes only the client record. Scenarios, runs, and suggestions
// referencing it are left in place.
func (h *ClientHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.DeleteClient(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
