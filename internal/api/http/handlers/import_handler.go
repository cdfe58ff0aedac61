package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-dashboard/internal/config"
	"github.com/spec-kit/sla-dashboard/internal/observability"
	"github.com/spec-kit/sla-dashboard/internal/service"
	apperrors "github.com/spec-kit/sla-dashboard/pkg/util"
)

// ImportHandler triggers helpdesk batch imports.
type ImportHandler struct {
	imports *service.ImportService
	reports *service.ReportService
	metrics *observability.Metrics
	cfg     config.ImportConfig
	logger  *zap.Logger
}

// NewImportHandler constructs handler.
func NewImportHandler(imports *service.ImportService, reports *service.ReportService, metrics *observability.Metrics, cfg config.ImportConfig, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{imports: imports, reports: reports, metrics: metrics, cfg: cfg, logger: logger}
}

// ImportHelpdesk POST /api/import/helpdesk. The request body carries the raw
// export; an empty body falls back to the configured data file.
func (h *ImportHandler) ImportHelpdesk(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var (
		summary *service.ImportSummary
		err     error
	)
	if body := c.Body(); len(body) > 0 {
		records, decodeErr := service.DecodeExport(body)
		if decodeErr != nil {
			return apperrors.NewValidationError("invalid import payload", nil)
		}
		if h.cfg.MaxBatchSize > 0 && len(records) > h.cfg.MaxBatchSize {
			return apperrors.NewValidationError("batch exceeds maximum size", fiber.Map{
				"max_batch_size": h.cfg.MaxBatchSize,
				"records":        len(records),
			})
		}
		summary, err = h.imports.ImportBatch(ctx, records)
	} else {
		if h.cfg.DataFile == "" {
			return apperrors.NewValidationError("no import payload and no data file configured", nil)
		}
		summary, err = h.imports.ImportFile(ctx, h.cfg.DataFile)
	}
	if err != nil {
		h.logger.Error("import failed", zap.Error(err))
		h.metrics.RecordImport(0, 0, true)
		return apperrors.NewInternalError(err)
	}

	h.metrics.RecordImport(summary.Imported, summary.Updated, false)
	h.reports.InvalidateCache(ctx)

	return c.JSON(fiber.Map{
		"status":  "success",
		"summary": summary,
	})
}
