package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// UserRepository is an in-memory user directory.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserRepository returns an empty directory.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return repository.ErrDuplicate
	}
	if r.clashes(user) {
		return repository.ErrDuplicate
	}
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.clashes(user) {
		return repository.ErrDuplicate
	}
	r.users[user.ID] = *user
	return nil
}

// clashes reports whether another user already owns the username or email.
func (r *UserRepository) clashes(user *domain.User) bool {
	for id, existing := range r.users {
		if id == user.ID {
			continue
		}
		if existing.Username == user.Username || (user.Email != "" && existing.Email == user.Email) {
			return true
		}
	}
	return false
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *UserRepository) GetByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	needle := strings.ToLower(strings.TrimSpace(identifier))
	r.mu.RLock()
	defer r.mu.RUnlock()
	var byEmail *domain.User
	for _, user := range r.users {
		if user.Username == needle {
			u := user
			return &u, nil
		}
		if byEmail == nil && user.Email == needle {
			u := user
			byEmail = &u
		}
	}
	if byEmail == nil {
		return nil, repository.ErrNotFound
	}
	return byEmail, nil
}

func (r *UserRepository) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.mu.RLock()
	result := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		if filter.ActiveOnly && !user.Active {
			continue
		}
		if len(filter.Roles) > 0 && !contains(filter.Roles, user.Role) {
			continue
		}
		result = append(result, user)
	}
	r.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *UserRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}
