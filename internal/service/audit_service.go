package service

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AuditSink accepts audit lines. Record must not block or fail the caller.
type AuditSink interface {
	Record(actor string, at time.Time, action string)
}

// auditor formats audit lines for a service.
type auditor struct {
	sink AuditSink
}

func (a auditor) record(actor domain.Actor, at time.Time, format string, args ...any) {
	if a.sink == nil {
		return
	}
	a.sink.Record(actor.Describe(), at, fmt.Sprintf(format, args...))
}

// AuditService exposes the audit log to supervisors.
type AuditService struct {
	entries repository.AuditRepository
}

// NewAuditService constructs the service.
func NewAuditService(entries repository.AuditRepository) *AuditService {
	return &AuditService{entries: entries}
}

// List returns the newest entries first. Limit is clamped to [1, 500].
func (s *AuditService) List(ctx context.Context, limit int, actor domain.Actor) ([]domain.AuditEntry, error) {
	if err := requireRole(actor, domain.RoleSupervisor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	entries, err := s.entries.List(ctx, limit)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return entries, nil
}
