package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Snapshot is the complete data set of the help desk.
type Snapshot struct {
	Users    []domain.User
	Tickets  []domain.Ticket
	KB       []domain.KBArticle
	Worklogs []domain.Worklog
	Audit    []domain.AuditEntry
}

// SnapshotStore swaps the whole data set at once.
type SnapshotStore interface {
	// Replace discards every stored record and writes the snapshot in its
	// place. Either all of it lands or nothing changes.
	Replace(ctx context.Context, snapshot Snapshot) error
}

type snapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore returns a Postgres-backed implementation.
func NewSnapshotStore(pool *pgxpool.Pool) SnapshotStore {
	return &snapshotStore{pool: pool}
}

func (s *snapshotStore) Replace(ctx context.Context, snapshot Snapshot) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `TRUNCATE worklogs, tickets, kb_articles, audit_log, users`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	users := &userRepository{db: tx}
	for i := range snapshot.Users {
		if err := users.Create(ctx, &snapshot.Users[i]); err != nil {
			return fmt.Errorf("user %s: %w", snapshot.Users[i].ID, err)
		}
	}
	tickets := &ticketRepository{db: tx}
	for i := range snapshot.Tickets {
		if err := tickets.Create(ctx, &snapshot.Tickets[i]); err != nil {
			return fmt.Errorf("ticket %s: %w", snapshot.Tickets[i].ID, err)
		}
	}
	kb := &kbRepository{db: tx}
	for i := range snapshot.KB {
		if err := kb.Create(ctx, &snapshot.KB[i]); err != nil {
			return fmt.Errorf("article %s: %w", snapshot.KB[i].ID, err)
		}
	}
	worklogs := &worklogRepository{db: tx}
	for i := range snapshot.Worklogs {
		if err := worklogs.Create(ctx, &snapshot.Worklogs[i]); err != nil {
			return fmt.Errorf("worklog %s: %w", snapshot.Worklogs[i].ID, err)
		}
	}
	audit := &auditRepository{db: tx}
	for i := range snapshot.Audit {
		if err := audit.Create(ctx, &snapshot.Audit[i]); err != nil {
			return fmt.Errorf("audit entry %s: %w", snapshot.Audit[i].ID, err)
		}
	}
	return tx.Commit(ctx)
}
