package memory

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// SnapshotStore replaces the contents of a set of in-memory repositories.
type SnapshotStore struct {
	users    *UserRepository
	tickets  *TicketRepository
	worklogs *WorklogRepository
	kb       *KBRepository
	audit    *AuditRepository
}

// NewSnapshotStore binds the repositories a restore overwrites.
func NewSnapshotStore(users *UserRepository, tickets *TicketRepository, worklogs *WorklogRepository, kb *KBRepository, audit *AuditRepository) *SnapshotStore {
	return &SnapshotStore{users: users, tickets: tickets, worklogs: worklogs, kb: kb, audit: audit}
}

var _ repository.SnapshotStore = (*SnapshotStore)(nil)

// Replace checks the snapshot for duplicate keys before touching anything,
// then swaps every repository while holding all of their locks.
func (s *SnapshotStore) Replace(_ context.Context, snapshot repository.Snapshot) error {
	users := make(map[string]domain.User, len(snapshot.Users))
	logins := make(map[string]struct{}, 2*len(snapshot.Users))
	for _, user := range snapshot.Users {
		if _, dup := users[user.ID]; dup {
			return repository.ErrDuplicate
		}
		for _, login := range []string{"u:" + user.Username, "e:" + user.Email} {
			if login == "e:" {
				continue
			}
			if _, dup := logins[login]; dup {
				return repository.ErrDuplicate
			}
			logins[login] = struct{}{}
		}
		users[user.ID] = user
	}

	tickets := make(map[string]*domain.Ticket, len(snapshot.Tickets))
	humanIDs := make(map[string]struct{}, len(snapshot.Tickets))
	for i := range snapshot.Tickets {
		ticket := snapshot.Tickets[i].Clone()
		if _, dup := tickets[ticket.ID]; dup {
			return repository.ErrDuplicate
		}
		if _, dup := humanIDs[ticket.HumanID]; dup {
			return repository.ErrDuplicate
		}
		if ticket.Version == 0 {
			ticket.Version = 1
		}
		tickets[ticket.ID] = ticket
		humanIDs[ticket.HumanID] = struct{}{}
	}

	articles := make(map[string]domain.KBArticle, len(snapshot.KB))
	for _, article := range snapshot.KB {
		if _, dup := articles[article.ID]; dup {
			return repository.ErrDuplicate
		}
		articles[article.ID] = cloneArticle(article)
	}

	s.users.mu.Lock()
	defer s.users.mu.Unlock()
	s.tickets.mu.Lock()
	defer s.tickets.mu.Unlock()
	s.worklogs.mu.Lock()
	defer s.worklogs.mu.Unlock()
	s.kb.mu.Lock()
	defer s.kb.mu.Unlock()
	s.audit.mu.Lock()
	defer s.audit.mu.Unlock()

	s.users.users = users
	s.tickets.tickets = tickets
	s.worklogs.entries = append([]domain.Worklog(nil), snapshot.Worklogs...)
	s.kb.articles = articles
	s.audit.entries = append([]domain.AuditEntry(nil), snapshot.Audit...)
	return nil
}
