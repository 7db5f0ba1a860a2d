package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// WorklogRepository is an append-only in-memory worklog ledger.
type WorklogRepository struct {
	mu      sync.RWMutex
	entries []domain.Worklog
}

// NewWorklogRepository returns an empty ledger.
func NewWorklogRepository() *WorklogRepository {
	return &WorklogRepository{}
}

var _ repository.WorklogRepository = (*WorklogRepository)(nil)

func (r *WorklogRepository) Create(_ context.Context, entry *domain.Worklog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *WorklogRepository) ListByTickets(_ context.Context, ticketIDs []string) ([]domain.Worklog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Worklog
	for i := len(r.entries) - 1; i >= 0; i-- {
		if contains(ticketIDs, r.entries[i].TicketID) {
			result = append(result, r.entries[i])
		}
	}
	return result, nil
}

// AuditRepository keeps audit entries in insertion order.
type AuditRepository struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

// NewAuditRepository returns an empty log.
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

var _ repository.AuditRepository = (*AuditRepository)(nil)

func (r *AuditRepository) Create(_ context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

// List returns up to limit entries, newest first.
func (r *AuditRepository) List(_ context.Context, limit int) ([]domain.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	result := make([]domain.AuditEntry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, r.entries[i])
	}
	return result, nil
}

// KBRepository is an in-memory article store.
type KBRepository struct {
	mu       sync.RWMutex
	articles map[string]domain.KBArticle
}

// NewKBRepository returns an empty store.
func NewKBRepository() *KBRepository {
	return &KBRepository{articles: make(map[string]domain.KBArticle)}
}

var _ repository.KBRepository = (*KBRepository)(nil)

func (r *KBRepository) Create(_ context.Context, article *domain.KBArticle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[article.ID]; ok {
		return repository.ErrDuplicate
	}
	r.articles[article.ID] = cloneArticle(*article)
	return nil
}

func (r *KBRepository) Update(_ context.Context, article *domain.KBArticle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[article.ID]; !ok {
		return repository.ErrNotFound
	}
	r.articles[article.ID] = cloneArticle(*article)
	return nil
}

func (r *KBRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.articles, id)
	return nil
}

func (r *KBRepository) GetByID(_ context.Context, id string) (*domain.KBArticle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	article, ok := r.articles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := cloneArticle(article)
	return &clone, nil
}

func (r *KBRepository) List(_ context.Context, filter repository.KBFilter) ([]domain.KBArticle, error) {
	var term string
	if filter.SearchTerm != nil {
		term = strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
	}
	r.mu.RLock()
	result := make([]domain.KBArticle, 0, len(r.articles))
	for _, article := range r.articles {
		if filter.PublishedOnly && !article.Published {
			continue
		}
		if filter.Category != nil && *filter.Category != "" && article.Category != *filter.Category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(article.Title), term) &&
			!strings.Contains(strings.ToLower(article.Body), term) &&
			!strings.Contains(strings.ToLower(strings.Join(article.Tags, " ")), term) {
			continue
		}
		result = append(result, cloneArticle(article))
	}
	r.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })
	return result, nil
}

func cloneArticle(a domain.KBArticle) domain.KBArticle {
	a.Tags = append([]string(nil), a.Tags...)
	return a
}

// TicketSequence is a process-local counter.
type TicketSequence struct {
	mu   sync.Mutex
	next int64
}

// NewTicketSequence starts handing out numbers at start+1.
func NewTicketSequence(start int64) *TicketSequence {
	return &TicketSequence{next: start}
}

var _ repository.TicketSequence = (*TicketSequence)(nil)

func (s *TicketSequence) Next(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next, nil
}

func (s *TicketSequence) Advance(_ context.Context, floor int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next < floor {
		s.next = floor
	}
	return nil
}
