package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// KBService manages knowledge base articles.
type KBService struct {
	articles repository.KBRepository
	audit    auditor
	now      Clock
}

// KBArticleInput is the full editable content of an article.
type KBArticleInput struct {
	Title     string
	Category  string
	Tags      []string
	Published bool
	Body      string
}

// KBListFilter narrows article listings.
type KBListFilter struct {
	Category   *string
	SearchTerm *string
}

// NewKBService constructs the service.
func NewKBService(articles repository.KBRepository, audit AuditSink, clock Clock) *KBService {
	return &KBService{articles: articles, audit: auditor{sink: audit}, now: clockOrDefault(clock)}
}

// List returns articles; requesters only see published ones.
func (s *KBService) List(ctx context.Context, filter KBListFilter, actor domain.Actor) ([]domain.KBArticle, error) {
	if !actor.Role.Valid() {
		return nil, apperrors.NewForbidden("authenticated user required")
	}
	articles, err := s.articles.List(ctx, repository.KBFilter{
		PublishedOnly: !domain.RoleAtLeast(actor.Role, domain.RoleAgent),
		Category:      filter.Category,
		SearchTerm:    filter.SearchTerm,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return articles, nil
}

// Get returns one article. Drafts do not exist for requesters.
func (s *KBService) Get(ctx context.Context, id string, actor domain.Actor) (*domain.KBArticle, error) {
	if !actor.Role.Valid() {
		return nil, apperrors.NewForbidden("authenticated user required")
	}
	article, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !article.Published && !domain.RoleAtLeast(actor.Role, domain.RoleAgent) {
		return nil, apperrors.NewNotFound("article", map[string]any{"article_id": id})
	}
	return article, nil
}

// Create adds an article. Agent+.
func (s *KBService) Create(ctx context.Context, input KBArticleInput, actor domain.Actor) (*domain.KBArticle, error) {
	if err := requireRole(actor, domain.RoleAgent); err != nil {
		return nil, err
	}
	now := s.now()
	article := &domain.KBArticle{
		ID:         uuid.NewString(),
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		CreatedAt:  now,
	}
	if err := applyArticleInput(article, input, now); err != nil {
		return nil, err
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, repoError(err, "article", nil)
	}
	s.audit.record(actor, now, "Created KB %q", article.Title)
	return article, nil
}

// Update replaces an article's content. Supervisor+, or the agent who wrote it.
func (s *KBService) Update(ctx context.Context, id string, input KBArticleInput, actor domain.Actor) (*domain.KBArticle, error) {
	if err := requireRole(actor, domain.RoleAgent); err != nil {
		return nil, err
	}
	article, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.RoleAtLeast(actor.Role, domain.RoleSupervisor) && article.AuthorID != actor.ID {
		return nil, apperrors.NewForbidden("only the author or a supervisor may edit this article")
	}
	now := s.now()
	if err := applyArticleInput(article, input, now); err != nil {
		return nil, err
	}
	if err := s.articles.Update(ctx, article); err != nil {
		return nil, repoError(err, "article", map[string]any{"article_id": id})
	}
	s.audit.record(actor, now, "Updated KB %q", article.Title)
	return article, nil
}

// Delete removes an article. Supervisor+.
func (s *KBService) Delete(ctx context.Context, id string, actor domain.Actor) error {
	if err := requireRole(actor, domain.RoleSupervisor); err != nil {
		return err
	}
	article, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.articles.Delete(ctx, id); err != nil {
		return repoError(err, "article", map[string]any{"article_id": id})
	}
	s.audit.record(actor, s.now(), "Deleted KB %q", article.Title)
	return nil
}

func (s *KBService) load(ctx context.Context, id string) (*domain.KBArticle, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("article", map[string]any{"article_id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return article, nil
}

func applyArticleInput(article *domain.KBArticle, input KBArticleInput, now time.Time) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return apperrors.NewValidationError("title is required", nil)
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = domain.DefaultKBCategory
	}
	article.Title = title
	article.Category = category
	article.Tags = normalizeTags(input.Tags)
	article.Published = input.Published
	article.Body = input.Body
	article.UpdatedAt = now
	return nil
}
