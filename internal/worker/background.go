package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/service"
)

// Background owns the asynchronous parts of the API process: the audit
// writer goroutine and the notification subscriptions on the dispatcher.
type Background struct {
	audit  *AuditWriter
	logger *zap.Logger
}

// StartBackground starts the audit writer and registers notification
// handlers. Either may be nil.
func StartBackground(audit *AuditWriter, notifications *service.NotificationService, logger *zap.Logger) *Background {
	if logger == nil {
		logger = zap.NewNop()
	}
	if audit != nil {
		audit.Start()
	}
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	logger.Info("background workers started",
		zap.Bool("audit_writer", audit != nil),
		zap.Bool("notifications", notifications != nil))
	return &Background{audit: audit, logger: logger}
}

// Shutdown flushes pending audit entries, bounded by ctx.
func (b *Background) Shutdown(ctx context.Context) error {
	if b == nil || b.audit == nil {
		return nil
	}
	if err := b.audit.Close(ctx); err != nil {
		b.logger.Warn("audit writer did not drain", zap.Error(err))
		return err
	}
	return nil
}
