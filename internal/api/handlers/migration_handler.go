package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/promptsim/backend/internal/migration"
)

type MigrationHandler struct {
	migrator *migration.Migrator
}

func NewMigrationHandler(m *migration.Migrator) *MigrationHandler {
	return &MigrationHandler{migrator: m}
}

// Migrate copies legacy data into the document store. An optional
// collectionName in the body restricts the copy to one collection. An
// unparseable or empty body means everything, matching curl -X POST usage.
func (h *MigrationHandler) Migrate(c *fiber.Ctx) error {
	var req struct {
		CollectionName string `json:"collectionName"`
	}
	_ = c.BodyParser(&req)

	report, err := h.migrator.Migrate(c.Context(), req.CollectionName)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

func (h *MigrationHandler) Status(c *fiber.Ctx) error {
	status, err := h.migrator.Status(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}
