package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// BackupFormatVersion is the only backup layout Restore accepts.
const BackupFormatVersion = 1

// maxBackupAuditEntries caps how much of the audit log an export carries.
const maxBackupAuditEntries = 100000

// Backup is a full export of the help desk. Worklogs and audit entries are
// oldest first.
type Backup struct {
	Version    int
	ExportedAt time.Time
	Users      []domain.User
	Tickets    []domain.Ticket
	KB         []domain.KBArticle
	Worklogs   []domain.Worklog
	Audit      []domain.AuditEntry
}

// RestoreSummary counts what a restore wrote.
type RestoreSummary struct {
	Users    int
	Tickets  int
	KB       int
	Worklogs int
	Audit    int
}

// BackupDependencies wires the backup service.
type BackupDependencies struct {
	UserRepo    repository.UserRepository
	TicketRepo  repository.TicketRepository
	WorklogRepo repository.WorklogRepository
	KBRepo      repository.KBRepository
	AuditRepo   repository.AuditRepository
	Snapshots   repository.SnapshotStore
	Sequence    repository.TicketSequence

	// TicketPrefix lets Restore find the highest restored ticket number.
	TicketPrefix string
	Audit        AuditSink
	Logger       *zap.Logger
	Clock        Clock
}

// BackupService exports and restores the whole data set.
type BackupService struct {
	users     repository.UserRepository
	tickets   repository.TicketRepository
	worklogs  repository.WorklogRepository
	kb        repository.KBRepository
	entries   repository.AuditRepository
	snapshots repository.SnapshotStore
	sequence  repository.TicketSequence
	prefix    string
	audit     auditor
	logger    *zap.Logger
	now       Clock
}

// NewBackupService constructs the service.
func NewBackupService(deps BackupDependencies) *BackupService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{
		users:     deps.UserRepo,
		tickets:   deps.TicketRepo,
		worklogs:  deps.WorklogRepo,
		kb:        deps.KBRepo,
		entries:   deps.AuditRepo,
		snapshots: deps.Snapshots,
		sequence:  deps.Sequence,
		prefix:    deps.TicketPrefix,
		audit:     auditor{sink: deps.Audit},
		logger:    logger,
		now:       clockOrDefault(deps.Clock),
	}
}

// Export collects every record, password hashes included so a restore keeps
// logins working. Supervisor+.
func (s *BackupService) Export(ctx context.Context, actor domain.Actor) (*Backup, error) {
	if err := requireRole(actor, domain.RoleSupervisor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	articles, err := s.kb.List(ctx, repository.KBFilter{})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	ids := make([]string, 0, len(tickets))
	for _, ticket := range tickets {
		ids = append(ids, ticket.ID)
	}
	worklogs, err := s.worklogs.ListByTickets(ctx, ids)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	entries, err := s.entries.List(ctx, maxBackupAuditEntries)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	backup := &Backup{
		Version:    BackupFormatVersion,
		ExportedAt: now,
		Users:      nonNil(users),
		Tickets:    nonNil(tickets),
		KB:         nonNil(articles),
		Worklogs:   reversed(worklogs),
		Audit:      reversed(entries),
	}
	s.audit.record(actor, now, "Exported backup JSON")
	return backup, nil
}

// Restore replaces every record with the backup's contents. Admin only. The
// backup must keep at least one active administrator who can sign in.
func (s *BackupService) Restore(ctx context.Context, backup *Backup, actor domain.Actor) (*RestoreSummary, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if backup == nil || backup.Version != BackupFormatVersion {
		details := map[string]any{"supported_version": BackupFormatVersion}
		if backup != nil {
			details["version"] = backup.Version
		}
		return nil, apperrors.NewValidationError("invalid backup file", details)
	}
	if err := validateBackup(backup); err != nil {
		return nil, err
	}

	snapshot := repository.Snapshot{
		Users:    nonNil(backup.Users),
		Tickets:  nonNil(backup.Tickets),
		KB:       nonNil(backup.KB),
		Worklogs: nonNil(backup.Worklogs),
		Audit:    nonNil(backup.Audit),
	}
	if err := s.snapshots.Replace(ctx, snapshot); err != nil {
		return nil, repoError(err, "backup record", nil)
	}

	if highest := s.highestTicketNumber(snapshot.Tickets); highest > 0 && s.sequence != nil {
		if err := s.sequence.Advance(ctx, highest); err != nil {
			s.logger.Error("advance ticket sequence after restore", zap.Int64("floor", highest), zap.Error(err))
		}
	}

	summary := &RestoreSummary{
		Users:    len(snapshot.Users),
		Tickets:  len(snapshot.Tickets),
		KB:       len(snapshot.KB),
		Worklogs: len(snapshot.Worklogs),
		Audit:    len(snapshot.Audit),
	}
	s.logger.Info("restored backup",
		zap.String("actor", actor.ID),
		zap.Int("users", summary.Users),
		zap.Int("tickets", summary.Tickets),
		zap.Int("kb", summary.KB),
		zap.Int("worklogs", summary.Worklogs),
		zap.Int("audit", summary.Audit),
	)
	s.audit.record(actor, s.now(), "Restored from backup JSON")
	return summary, nil
}

func validateBackup(backup *Backup) error {
	hasAdmin := false
	for _, user := range backup.Users {
		if user.ID == "" || user.Username == "" {
			return apperrors.NewValidationError("invalid backup file", map[string]any{"users": "id and username are required"})
		}
		if !user.Role.Valid() {
			return apperrors.NewValidationError("invalid backup file", map[string]any{"user_id": user.ID, "role": string(user.Role)})
		}
		if user.Role == domain.RoleAdmin && user.Active && user.PasswordHash != "" {
			hasAdmin = true
		}
	}
	if !hasAdmin {
		return apperrors.NewValidationError("backup has no active administrator", nil)
	}
	tickets := make(map[string]struct{}, len(backup.Tickets))
	for _, ticket := range backup.Tickets {
		if ticket.ID == "" || ticket.HumanID == "" {
			return apperrors.NewValidationError("invalid backup file", map[string]any{"tickets": "id and human_id are required"})
		}
		if !ticket.Status.Valid() {
			return apperrors.NewValidationError("invalid backup file", map[string]any{"ticket_id": ticket.ID, "status": string(ticket.Status)})
		}
		tickets[ticket.ID] = struct{}{}
	}
	for _, entry := range backup.Worklogs {
		if _, ok := tickets[entry.TicketID]; !ok {
			return apperrors.NewValidationError("invalid backup file", map[string]any{"worklog_id": entry.ID, "ticket_id": entry.TicketID})
		}
	}
	for _, article := range backup.KB {
		if article.ID == "" {
			return apperrors.NewValidationError("invalid backup file", map[string]any{"kb": "id is required"})
		}
	}
	return nil
}

// highestTicketNumber parses "<prefix>-<n>" human ids; others are ignored.
func (s *BackupService) highestTicketNumber(tickets []domain.Ticket) int64 {
	var highest int64
	for _, ticket := range tickets {
		rest, ok := strings.CutPrefix(ticket.HumanID, s.prefix+"-")
		if !ok {
			continue
		}
		if n, err := strconv.ParseInt(rest, 10, 64); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func reversed[T any](items []T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[len(items)-1-i] = item
	}
	return out
}
