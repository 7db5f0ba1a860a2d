package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures listing parameters. RequesterID and ParticipantID
// carry the caller's view scope.
type TicketFilter struct {
	RequesterID   *string
	ParticipantID *string
	AssigneeID    *string
	Statuses      []domain.TicketStatus
	Priorities    []domain.Priority
	SearchTerm    *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
	Offset        int
}

// TicketRepository encapsulates ticket persistence. Update is a
// compare-and-swap on Version.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	db dbtx
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{db: pool}
}

const ticketColumns = `id, human_id, type, category, subcategory, impact, urgency, priority, subject, description, tags,
        status, requester_id, requester_name, assignee_id, assignee_name,
        first_response_due_at, first_response_at, resolution_due_at, resolved_at, closed_at,
        comments, internal_notes, timeline, attachments, version, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (` + ticketColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28)`
	if ticket.Version == 0 {
		ticket.Version = 1
	}
	_, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.HumanID,
		ticket.Type,
		ticket.Category,
		ticket.Subcategory,
		ticket.Impact,
		ticket.Urgency,
		ticket.Priority,
		ticket.Subject,
		ticket.Description,
		emptyIfNil(ticket.Tags),
		ticket.Status,
		ticket.RequesterID,
		ticket.RequesterName,
		ticket.AssigneeID,
		ticket.AssigneeName,
		ticket.FirstResponseDueAt,
		ticket.FirstResponseAt,
		ticket.ResolutionDueAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		emptyIfNil(ticket.Comments),
		emptyIfNil(ticket.InternalNotes),
		emptyIfNil(ticket.Timeline),
		emptyIfNil(ticket.Attachments),
		ticket.Version,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	return translateError(err)
}

// Update persists the ticket when the stored version still equals ticket.Version,
// then advances ticket.Version.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET type=$1, category=$2, subcategory=$3, impact=$4, urgency=$5, priority=$6,
            subject=$7, description=$8, tags=$9, status=$10, assignee_id=$11, assignee_name=$12,
            first_response_due_at=$13, first_response_at=$14, resolution_due_at=$15, resolved_at=$16,
            closed_at=$17, comments=$18, internal_notes=$19, timeline=$20, attachments=$21,
            updated_at=$22, version=version+1
        WHERE id=$23 AND version=$24`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Type,
		ticket.Category,
		ticket.Subcategory,
		ticket.Impact,
		ticket.Urgency,
		ticket.Priority,
		ticket.Subject,
		ticket.Description,
		emptyIfNil(ticket.Tags),
		ticket.Status,
		ticket.AssigneeID,
		ticket.AssigneeName,
		ticket.FirstResponseDueAt,
		ticket.FirstResponseAt,
		ticket.ResolutionDueAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		emptyIfNil(ticket.Comments),
		emptyIfNil(ticket.InternalNotes),
		emptyIfNil(ticket.Timeline),
		emptyIfNil(ticket.Attachments),
		ticket.UpdatedAt,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
			return translateError(err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translateError(err)
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if filter.ParticipantID != nil {
		args = append(args, *filter.ParticipantID)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(assignee_id=%s OR requester_id=%s)", placeholder, placeholder))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(human_id) LIKE %s OR LOWER(subject) LIKE %s OR LOWER(description) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC`, base, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.HumanID,
		&ticket.Type,
		&ticket.Category,
		&ticket.Subcategory,
		&ticket.Impact,
		&ticket.Urgency,
		&ticket.Priority,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Tags,
		&ticket.Status,
		&ticket.RequesterID,
		&ticket.RequesterName,
		&ticket.AssigneeID,
		&ticket.AssigneeName,
		&ticket.FirstResponseDueAt,
		&ticket.FirstResponseAt,
		&ticket.ResolutionDueAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.Comments,
		&ticket.InternalNotes,
		&ticket.Timeline,
		&ticket.Attachments,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
