package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-dashboard/internal/config"
	"github.com/spec-kit/sla-dashboard/internal/service"
)

// ImportWorker periodically re-imports the configured helpdesk export file.
// The import pipeline is idempotent, so replaying the same file is safe.
type ImportWorker struct {
	importService *service.ImportService
	reportService *service.ReportService
	cfg           config.ImportConfig
	logger        *zap.Logger
	stop          chan struct{}
	done          chan struct{}
}

// NewImportWorker constructs the worker. It is inert until Start.
func NewImportWorker(importService *service.ImportService, reportService *service.ReportService, cfg config.ImportConfig, logger *zap.Logger) *ImportWorker {
	return &ImportWorker{
		importService: importService,
		reportService: reportService,
		cfg:           cfg,
		logger:        logger,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start launches the periodic import loop. A no-op when no data file or no
// interval is configured.
func (w *ImportWorker) Start(ctx context.Context) {
	if w.cfg.DataFile == "" || w.cfg.Interval <= 0 {
		close(w.done)
		return
	}

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.cfg.Interval)
		defer ticker.Stop()

		w.logger.Info("import worker started",
			zap.String("file", w.cfg.DataFile),
			zap.Duration("interval", w.cfg.Interval))

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()
}

// Stop terminates the loop and waits for it to exit.
func (w *ImportWorker) Stop() {
	close(w.stop)
	<-w.done
}

func (w *ImportWorker) runOnce(ctx context.Context) {
	summary, err := w.importService.ImportFile(ctx, w.cfg.DataFile)
	if err != nil {
		w.logger.Error("scheduled import failed", zap.Error(err))
		return
	}
	w.reportService.InvalidateCache(ctx)
	w.logger.Info("scheduled import completed",
		zap.Int("imported", summary.Imported),
		zap.Int("updated", summary.Updated),
		zap.Int("total_processed", summary.TotalProcessed))
}
