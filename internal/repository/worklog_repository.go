package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// WorklogRepository is the append-only worklog ledger.
type WorklogRepository interface {
	Create(ctx context.Context, entry *domain.Worklog) error
	ListByTickets(ctx context.Context, ticketIDs []string) ([]domain.Worklog, error)
}

type worklogRepository struct {
	db dbtx
}

// NewWorklogRepository builds repository.
func NewWorklogRepository(pool *pgxpool.Pool) WorklogRepository {
	return &worklogRepository{db: pool}
}

func (r *worklogRepository) Create(ctx context.Context, entry *domain.Worklog) error {
	const query = `
        INSERT INTO worklogs (id, ticket_id, actor_id, actor_name, minutes, note, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.TicketID,
		entry.ActorID,
		entry.ActorName,
		entry.Minutes,
		entry.Note,
		entry.CreatedAt,
	)
	return translateError(err)
}

func (r *worklogRepository) ListByTickets(ctx context.Context, ticketIDs []string) ([]domain.Worklog, error) {
	if len(ticketIDs) == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, ticket_id, actor_id, actor_name, minutes, note, created_at
        FROM worklogs WHERE ticket_id = ANY($1) ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Worklog
	for rows.Next() {
		var entry domain.Worklog
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.ActorID,
			&entry.ActorName,
			&entry.Minutes,
			&entry.Note,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
