package reconciliation

import (
	"time"

	"vendhub-backend/core/apperr"
	"vendhub-backend/core/logger"
	"vendhub-backend/feature/reconciliation/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the reconciliation engine.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the reconciliation routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/reconciliation")
	group.Post("/runs", h.HandleCreateRun)
	group.Get("/runs", h.HandleListRuns)
	group.Get("/runs/:id", h.HandleGetRun)
	group.Delete("/runs/:id", h.HandleDeleteRun)
	group.Post("/runs/:id/cancel", h.HandleCancelRun)
	group.Get("/runs/:id/mismatches", h.HandleListMismatches)
	group.Get("/runs/:id/report", h.HandleGetReport)
	group.Post("/mismatches/:id/resolve", h.HandleResolveMismatch)
}

// CreateRunRequest is the create-run request body.
type CreateRunRequest struct {
	DateFrom             time.Time `json:"date_from"`
	DateTo               time.Time `json:"date_to"`
	Sources              []string  `json:"sources"`
	MachineIDs           []string  `json:"machine_ids"`
	TimeToleranceSeconds *int      `json:"time_tolerance_seconds"`
	AmountTolerance      *int64    `json:"amount_tolerance"`
}

// ResolveMismatchRequest is the resolve-mismatch request body.
type ResolveMismatchRequest struct {
	Notes string `json:"notes"`
}

// pageResponse wraps a paginated collection.
type pageResponse struct {
	Data  any   `json:"data"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// HandleCreateRun creates a run and starts it asynchronously.
// @Summary Create Reconciliation Run
// @Description Validates parameters, persists a PENDING run and hands it to the background executor. Returns the PENDING run immediately.
// @Tags reconciliation
// @Accept json
// @Produce json
// @Param request body CreateRunRequest true "Run parameters"
// @Success 202 {object} models.ReconciliationRun
// @Failure 400 {object} map[string]string "Validation Error"
// @Router /reconciliation/runs [post]
func (h *Handler) HandleCreateRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req CreateRunRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, l, apperr.Validationf("malformed request body: %v", err))
	}

	run, err := h.service.CreateAndRun(c.Context(), userID(c), RunParams{
		DateFrom:             req.DateFrom,
		DateTo:               req.DateTo,
		Sources:              req.Sources,
		MachineIDs:           req.MachineIDs,
		TimeToleranceSeconds: req.TimeToleranceSeconds,
		AmountTolerance:      req.AmountTolerance,
	})
	if err != nil {
		return respondError(c, l, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(run)
}

// HandleListRuns lists runs.
// @Summary List Reconciliation Runs
// @Description Lists runs, newest first. Supports pagination and status filtering.
// @Tags reconciliation
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Param status query string false "Status filter (pending, running, completed, failed, cancelled)"
// @Success 200 {object} pageResponse
// @Router /reconciliation/runs [get]
func (h *Handler) HandleListRuns(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	status := models.RunStatus(c.Query("status"))

	runs, total, err := h.service.FindAll(c.Context(), page, limit, status)
	if err != nil {
		return respondError(c, l, err)
	}
	return c.JSON(pageResponse{Data: runs, Page: page, Limit: limit, Total: total})
}

// HandleGetRun returns a single run.
// @Summary Get Reconciliation Run
// @Tags reconciliation
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} models.ReconciliationRun
// @Failure 404 {object} map[string]string "Not Found"
// @Router /reconciliation/runs/{id} [get]
func (h *Handler) HandleGetRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	run, err := h.service.FindOne(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, l, err)
	}
	return c.JSON(run)
}

// HandleDeleteRun soft-deletes a run.
// @Summary Delete Reconciliation Run
// @Description Soft-deletes a run. Its mismatches remain for audit.
// @Tags reconciliation
// @Produce json
// @Param id path string true "Run ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /reconciliation/runs/{id} [delete]
func (h *Handler) HandleDeleteRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	if err := h.service.Remove(c.Context(), c.Params("id")); err != nil {
		return respondError(c, l, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleCancelRun cancels a pending run.
// @Summary Cancel Reconciliation Run
// @Description Cancels a run that has not started executing. Fails with 409 once the run left PENDING.
// @Tags reconciliation
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} models.ReconciliationRun
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 409 {object} map[string]string "State Conflict"
// @Router /reconciliation/runs/{id}/cancel [post]
func (h *Handler) HandleCancelRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	run, err := h.service.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, l, err)
	}
	return c.JSON(run)
}

// HandleListMismatches lists a run's mismatches.
// @Summary List Run Mismatches
// @Tags reconciliation
// @Produce json
// @Param id path string true "Run ID"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Param type query string false "Mismatch type filter"
// @Success 200 {object} pageResponse
// @Failure 404 {object} map[string]string "Not Found"
// @Router /reconciliation/runs/{id}/mismatches [get]
func (h *Handler) HandleListMismatches(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	mismatchType := models.MismatchType(c.Query("type"))

	mismatches, total, err := h.service.GetMismatches(c.Context(), c.Params("id"), page, limit, mismatchType)
	if err != nil {
		return respondError(c, l, err)
	}
	return c.JSON(pageResponse{Data: mismatches, Page: page, Limit: limit, Total: total})
}

// HandleGetReport streams the archived report artifact of a run.
// @Summary Get Archived Run Report
// @Tags reconciliation
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} RunReport
// @Failure 404 {object} map[string]string "Not Found"
// @Router /reconciliation/runs/{id}/report [get]
func (h *Handler) HandleGetReport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	if h.service.archiver == nil {
		return respondError(c, l, apperr.NotFoundf("report archiving is disabled"))
	}
	if _, err := h.service.FindOne(c.Context(), c.Params("id")); err != nil {
		return respondError(c, l, err)
	}

	reader, err := h.service.archiver.Fetch(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, l, apperr.NotFoundf("report for run %s", c.Params("id")))
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendStream(reader)
}

// HandleResolveMismatch resolves a mismatch with a note.
// @Summary Resolve Mismatch
// @Description Marks a mismatch resolved. A second resolve attempt fails with 409 and leaves the first resolution untouched.
// @Tags reconciliation
// @Accept json
// @Produce json
// @Param id path string true "Mismatch ID"
// @Param request body ResolveMismatchRequest true "Resolution note"
// @Success 200 {object} models.ReconciliationMismatch
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 409 {object} map[string]string "Already Resolved"
// @Router /reconciliation/mismatches/{id}/resolve [post]
func (h *Handler) HandleResolveMismatch(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req ResolveMismatchRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, l, apperr.Validationf("malformed request body: %v", err))
	}

	mismatch, err := h.service.ResolveMismatch(c.Context(), c.Params("id"), userID(c), req.Notes)
	if err != nil {
		return respondError(c, l, err)
	}
	return c.JSON(mismatch)
}

// userID extracts the acting user from the request. Authentication is
// owned elsewhere; the gateway forwards the identity in a header.
func userID(c *fiber.Ctx) string {
	if id := c.Get("X-User-ID"); id != "" {
		return id
	}
	return "anonymous"
}

// respondError maps taxonomy errors to their HTTP status. Unexpected
// errors are logged and surfaced as 500.
func respondError(c *fiber.Ctx, l *zap.Logger, err error) error {
	status := apperr.Status(err)
	if status == fiber.StatusInternalServerError {
		l.Error("request failed", zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
