package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// KBFilter narrows article listings.
type KBFilter struct {
	PublishedOnly bool
	Category      *string
	SearchTerm    *string
}

// KBRepository persists knowledge base articles.
type KBRepository interface {
	Create(ctx context.Context, article *domain.KBArticle) error
	Update(ctx context.Context, article *domain.KBArticle) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.KBArticle, error)
	List(ctx context.Context, filter KBFilter) ([]domain.KBArticle, error)
}

type kbRepository struct {
	db dbtx
}

// NewKBRepository constructs repository.
func NewKBRepository(pool *pgxpool.Pool) KBRepository {
	return &kbRepository{db: pool}
}

const kbColumns = `id, title, category, tags, published, body, author_id, author_name, created_at, updated_at`

func (r *kbRepository) Create(ctx context.Context, article *domain.KBArticle) error {
	const query = `
        INSERT INTO kb_articles (` + kbColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.db.Exec(ctx, query,
		article.ID,
		article.Title,
		article.Category,
		emptyIfNil(article.Tags),
		article.Published,
		article.Body,
		article.AuthorID,
		article.AuthorName,
		article.CreatedAt,
		article.UpdatedAt,
	)
	return translateError(err)
}

func (r *kbRepository) Update(ctx context.Context, article *domain.KBArticle) error {
	const query = `
        UPDATE kb_articles SET title=$1, category=$2, tags=$3, published=$4, body=$5, updated_at=$6
        WHERE id=$7`
	cmd, err := r.db.Exec(ctx, query,
		article.Title,
		article.Category,
		emptyIfNil(article.Tags),
		article.Published,
		article.Body,
		article.UpdatedAt,
		article.ID,
	)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *kbRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM kb_articles WHERE id=$1`, id)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *kbRepository) GetByID(ctx context.Context, id string) (*domain.KBArticle, error) {
	query := `SELECT ` + kbColumns + ` FROM kb_articles WHERE id=$1`
	return scanArticle(r.db.QueryRow(ctx, query, id))
}

func (r *kbRepository) List(ctx context.Context, filter KBFilter) ([]domain.KBArticle, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.PublishedOnly {
		clauses = append(clauses, "published")
	}
	if filter.Category != nil && *filter.Category != "" {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.SearchTerm))+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(body) LIKE %s OR LOWER(array_to_string(tags, ' ')) LIKE %s)",
			placeholder, placeholder, placeholder))
	}
	query := fmt.Sprintf(`SELECT %s FROM kb_articles WHERE %s ORDER BY updated_at DESC`, kbColumns, strings.Join(clauses, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.KBArticle
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *article)
	}
	return result, rows.Err()
}

func scanArticle(row pgx.Row) (*domain.KBArticle, error) {
	var article domain.KBArticle
	if err := row.Scan(
		&article.ID,
		&article.Title,
		&article.Category,
		&article.Tags,
		&article.Published,
		&article.Body,
		&article.AuthorID,
		&article.AuthorName,
		&article.CreatedAt,
		&article.UpdatedAt,
	); err != nil {
		return nil, translateError(err)
	}
	return &article, nil
}
