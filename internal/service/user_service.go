package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// UserService manages the user directory. Users are deactivated, never deleted.
type UserService struct {
	users     repository.UserRepository
	audit     auditor
	logger    *zap.Logger
	authCfg   config.AuthConfig
	bootstrap config.BootstrapConfig
	now       Clock
}

// UserDependencies bundles collaborators for the directory.
type UserDependencies struct {
	UserRepo  repository.UserRepository
	Audit     AuditSink
	Logger    *zap.Logger
	Auth      config.AuthConfig
	Bootstrap config.BootstrapConfig
	Clock     Clock
}

// UserCreateInput describes a new account. Empty Email and TempPassword take defaults.
type UserCreateInput struct {
	Username     string
	Email        string
	Name         string
	Role         domain.Role
	TempPassword string
}

// UserUpdateInput is a partial update of an account.
type UserUpdateInput struct {
	Username *string
	Email    *string
	Name     *string
	Role     *domain.Role
	Active   *bool
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:     deps.UserRepo,
		audit:     auditor{sink: deps.Audit},
		logger:    logger,
		authCfg:   deps.Auth,
		bootstrap: deps.Bootstrap,
		now:       clockOrDefault(deps.Clock),
	}
}

// FindByID returns a user by id.
func (s *UserService) FindByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "user", map[string]any{"user_id": id})
	}
	return user, nil
}

// FindByIdentifier looks a user up by username or email, case-insensitively.
func (s *UserService) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, repoError(err, "user", nil)
	}
	return user, nil
}

// ListActive returns active users ranked at or above minRole.
func (s *UserService) ListActive(ctx context.Context, minRole domain.Role) ([]domain.User, error) {
	var roles []domain.Role
	for _, role := range []domain.Role{domain.RoleRequester, domain.RoleAgent, domain.RoleSupervisor, domain.RoleAdmin} {
		if domain.RoleAtLeast(role, minRole) {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		return []domain.User{}, nil
	}
	users, err := s.users.List(ctx, repository.UserFilter{Roles: roles, ActiveOnly: true})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// List returns the whole directory. Supervisor+.
func (s *UserService) List(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if err := requireRole(actor, domain.RoleSupervisor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// Create adds an account. Admin only.
func (s *UserService) Create(ctx context.Context, input UserCreateInput, actor domain.Actor) (*domain.User, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.newUser(input)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, repoError(err, "user", map[string]any{"username": user.Username})
	}
	s.audit.record(actor, user.CreatedAt, "Created user %s (%s)", user.Username, user.Role)
	return user, nil
}

func (s *UserService) newUser(input UserCreateInput) (*domain.User, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username == "" {
		return nil, apperrors.NewValidationError("username is required", nil)
	}
	role := input.Role
	if role == "" {
		role = domain.RoleRequester
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		email = username + "@" + s.authCfg.DefaultEmailDomain
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = username
	}
	password := input.TempPassword
	if password == "" {
		password = s.authCfg.DefaultTempPassword
	}
	hash, err := hashPassword(password, s.authCfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		Name:         name,
		Role:         role,
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Update changes profile fields, role or active flag. Admin only.
func (s *UserService) Update(ctx context.Context, id string, input UserUpdateInput, actor domain.Actor) (*domain.User, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*input.Username))
		if username == "" {
			return nil, apperrors.NewValidationError("username is required", nil)
		}
		user.Username = username
	}
	if input.Email != nil {
		if email := strings.ToLower(strings.TrimSpace(*input.Email)); email != "" {
			user.Email = email
		}
	}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			user.Name = name
		}
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *input.Role})
		}
		user.Role = *input.Role
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, repoError(err, "user", map[string]any{"username": user.Username})
	}
	s.audit.record(actor, user.UpdatedAt, "Updated user %s", user.Username)
	return user, nil
}

// SetActive toggles the soft-delete flag. Admin only.
func (s *UserService) SetActive(ctx context.Context, id string, active bool, actor domain.Actor) (*domain.User, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if id == actor.ID && !active {
		return nil, apperrors.NewValidationError("you cannot deactivate your own account", nil)
	}
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Active = active
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, repoError(err, "user", map[string]any{"user_id": id})
	}
	s.audit.record(actor, user.UpdatedAt, "Set %s active=%t", user.Username, active)
	return user, nil
}

// SetPassword replaces a user's password. Admin only.
func (s *UserService) SetPassword(ctx context.Context, id, password string, actor domain.Actor) error {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return err
	}
	if strings.TrimSpace(password) == "" {
		return apperrors.NewValidationError("password is required", nil)
	}
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	hash, err := hashPassword(password, s.authCfg.BcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return repoError(err, "user", map[string]any{"user_id": id})
	}
	s.audit.record(actor, user.UpdatedAt, "Reset password for %s", user.Name)
	return nil
}

// EnsureBootstrapAdmin creates the first administrator when the directory is
// empty. It reports whether an account was created.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context) (bool, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return false, apperrors.NewInternalError(err)
	}
	if count > 0 {
		return false, nil
	}
	username := s.bootstrap.AdminUsername
	if username == "" {
		username = "admin"
	}
	password := s.bootstrap.AdminPassword
	if password == "" {
		password = s.authCfg.DefaultTempPassword
		s.logger.Warn("BOOTSTRAP_ADMIN_PASSWORD not set; bootstrap admin uses the default temporary password")
	}
	user, err := s.newUser(UserCreateInput{
		Username:     username,
		Name:         "Administrator",
		Role:         domain.RoleAdmin,
		TempPassword: password,
	})
	if err != nil {
		return false, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return false, repoError(err, "user", map[string]any{"username": user.Username})
	}
	if s.audit.sink != nil {
		s.audit.sink.Record("System", user.CreatedAt, "Created user "+user.Username+" ("+string(user.Role)+")")
	}
	s.logger.Info("bootstrap admin created", zap.String("username", user.Username))
	return true, nil
}
