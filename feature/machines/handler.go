package machines

import (
	"vendhub-backend/core/apperr"
	"vendhub-backend/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the machine directory.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// RegisterRoutes registers the machine directory routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/machines")
	group.Get("/", h.HandleListMachines)
	group.Get("/:id", h.HandleGetMachine)
}

// HandleListMachines lists machines.
// @Summary List Machines
// @Tags machines
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /machines [get]
func (h *Handler) HandleListMachines(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)

	machines, total, err := h.service.List(c.Context(), page, limit)
	if err != nil {
		l.Error("machine list failed", zap.Error(err))
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"data":  machines,
		"page":  page,
		"limit": limit,
		"total": total,
	})
}

// HandleGetMachine returns a single machine.
// @Summary Get Machine
// @Tags machines
// @Produce json
// @Param id path string true "Machine ID"
// @Success 200 {object} Machine
// @Failure 404 {object} map[string]string "Not Found"
// @Router /machines/{id} [get]
func (h *Handler) HandleGetMachine(c *fiber.Ctx) error {
	m, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(m)
}
