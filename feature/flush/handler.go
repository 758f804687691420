package flush

import (
	"errors"
	"strconv"
	"sync"

	"table-sync/core/history"
	"table-sync/core/logger"
	"table-sync/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for sync runs.
type Handler struct {
	service *Service
	// running serializes runs within the process.
	running sync.Mutex
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/flush", h.HandleFlush)
	app.Post("/check", h.HandleCheck)

	group := app.Group("/runs")
	group.Get("/", h.HandleListRuns)
	group.Get("/:id", h.HandleGetRun)
	group.Get("/:id/report", h.HandleGetReport)
}

// HandleFlush runs a sync. Only one run executes at a time; a concurrent
// request gets 409.
// @Summary Run Sync
// @Description Reconciles the source CSV with the target table and writes creates and updates. Fields left empty fall back to the configured defaults.
// @Tags sync
// @Accept json
// @Produce json
// @Param request body Request false "Run overrides"
// @Success 200 {object} Result "Run Result"
// @Failure 400 {object} map[string]string "Configuration Error"
// @Failure 409 {object} map[string]string "Run In Progress"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Security ApiKeyAuth
// @Router /flush [post]
func (h *Handler) HandleFlush(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req Request
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	if !h.running.TryLock() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": ErrRunInProgress.Error()})
	}
	defer h.running.Unlock()

	res, err := h.service.Run(c.Context(), req)
	if err != nil {
		l.Error("Sync run failed", zap.Error(err))
		return errorResponse(c, err)
	}
	return c.JSON(res)
}

// HandleCheck validates source headers against the table fields.
// @Summary Check Headers
// @Description Compares the source header row with the table fields without reading or writing records.
// @Tags sync
// @Accept json
// @Produce json
// @Param request body Request false "Check overrides"
// @Success 200 {object} map[string]interface{} "Status and Report"
// @Failure 400 {object} map[string]string "Configuration Error"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Security ApiKeyAuth
// @Router /check [post]
func (h *Handler) HandleCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req Request
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	report, err := h.service.Check(c.Context(), req)
	if err != nil {
		l.Error("Header check failed", zap.Error(err))
		return errorResponse(c, err)
	}

	status := "passed"
	if !report.Passed() {
		status = "failed"
	}
	return c.JSON(fiber.Map{"status": status, "report": report})
}

// HandleListRuns lists recorded runs, filtered by ?table_id and capped by
// ?limit.
// @Summary List Runs
// @Tags runs
// @Produce json
// @Param table_id query string false "Target table id"
// @Param limit query int false "Maximum runs returned"
// @Success 200 {object} map[string]interface{} "Runs"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 501 {object} map[string]string "History Disabled"
// @Security ApiKeyAuth
// @Router /runs [get]
func (h *Handler) HandleListRuns(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "0"))
	if err != nil {
		return badRequest(c, err)
	}
	runs, err := h.service.Runs(c.Context(), c.Query("table_id"), limit)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"runs": runs})
}

// HandleGetRun returns one run with its events.
// @Summary Get Run
// @Tags runs
// @Produce json
// @Param id path string true "Run id"
// @Success 200 {object} map[string]interface{} "Run"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 501 {object} map[string]string "History Disabled"
// @Security ApiKeyAuth
// @Router /runs/{id} [get]
func (h *Handler) HandleGetRun(c *fiber.Ctx) error {
	run, err := h.service.GetRun(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(run)
}

// HandleGetReport returns the archived JSON report of a run.
// @Summary Get Run Report
// @Tags runs
// @Produce json
// @Param id path string true "Run id"
// @Success 200 {object} Result "Archived Report"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 501 {object} map[string]string "Archive Disabled"
// @Security ApiKeyAuth
// @Router /runs/{id}/report [get]
func (h *Handler) HandleGetReport(c *fiber.Ctx) error {
	data, err := h.service.Report(c.Context(), c.Params("id"))
	if err != nil {
		logger.WithRayID(h.service.logger, c).Warn("Report lookup failed", zap.Error(err))
		return errorResponse(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

func parseBody(c *fiber.Ctx, req *Request) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(req)
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

func errorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var cfgErr *ConfigError
	switch {
	case errors.As(err, &cfgErr):
		status = fiber.StatusBadRequest
	case errors.Is(err, history.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrHistoryDisabled), errors.Is(err, ErrArchiveDisabled):
		status = fiber.StatusNotImplemented
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
