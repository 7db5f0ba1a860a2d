package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type recordedAudit struct {
	Actor  string
	At     time.Time
	Action string
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []recordedAudit
}

func (f *fakeAudit) Record(actor string, at time.Time, action string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, recordedAudit{Actor: actor, At: at, Action: action})
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// failingBlobs wraps a blob store and fails selected operations.
type failingBlobs struct {
	*storage.MemoryStore
	failPut    bool
	failDelete bool
}

var errBlobDown = errors.New("blob store unavailable")

func (f *failingBlobs) Put(ctx context.Context, blob storage.Blob) error {
	if f.failPut {
		return errBlobDown
	}
	return f.MemoryStore.Put(ctx, blob)
}

func (f *failingBlobs) Delete(ctx context.Context, ticketID, attachmentID string) error {
	if f.failDelete {
		return errBlobDown
	}
	return f.MemoryStore.Delete(ctx, ticketID, attachmentID)
}

type fixture struct {
	ctx        context.Context
	clock      *testClock
	audit      *fakeAudit
	tickets    *memory.TicketRepository
	users      *memory.UserRepository
	worklogs   *memory.WorklogRepository
	kb         *memory.KBRepository
	blobs      *failingBlobs
	dispatcher events.Dispatcher
	eventsMu   sync.Mutex
	published  []events.Event

	ticketSvc *TicketService
	userSvc   *UserService
	authSvc   *AuthService

	requester  domain.Actor
	other      domain.Actor
	agent      domain.Actor
	agent2     domain.Actor
	supervisor domain.Actor
	admin      domain.Actor
}

var authCfg = config.AuthConfig{
	JWTSecret:             "test-secret",
	AccessTokenTTLMinutes: 30,
	BcryptCost:            bcrypt.MinCost,
	DefaultEmailDomain:    "helpdesk.local",
	DefaultTempPassword:   "changeme",
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:      context.Background(),
		clock:    &testClock{now: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)},
		audit:    &fakeAudit{},
		tickets:  memory.NewTicketRepository(),
		users:    memory.NewUserRepository(),
		worklogs: memory.NewWorklogRepository(),
		kb:       memory.NewKBRepository(),
		blobs:    &failingBlobs{MemoryStore: storage.NewMemoryStore()},
	}
	f.dispatcher = events.NewInMemoryDispatcher(nil)
	f.dispatcher.SubscribeAll(func(_ context.Context, e events.Event) error {
		f.eventsMu.Lock()
		f.published = append(f.published, e)
		f.eventsMu.Unlock()
		return nil
	})

	f.ticketSvc = NewTicketService(TicketDependencies{
		TicketRepo:  f.tickets,
		UserRepo:    f.users,
		WorklogRepo: f.worklogs,
		Sequence:    memory.NewTicketSequence(1000),
		Blobs:       f.blobs,
		Audit:       f.audit,
		Dispatcher:  f.dispatcher,
		Config:      config.TicketConfig{Prefix: "HD", AttachmentMaxBytes: 1024},
		Clock:       f.clock.Now,
	})
	f.userSvc = NewUserService(UserDependencies{
		UserRepo: f.users,
		Audit:    f.audit,
		Auth:     authCfg,
		Clock:    f.clock.Now,
	})
	f.authSvc = NewAuthService(authCfg, AuthDependencies{UserRepo: f.users, Audit: f.audit, Clock: f.clock.Now})

	f.requester = f.seedUser(t, "rita", "Rita Requester", domain.RoleRequester)
	f.other = f.seedUser(t, "oscar", "Oscar Other", domain.RoleRequester)
	f.agent = f.seedUser(t, "alex", "Alex Agent", domain.RoleAgent)
	f.agent2 = f.seedUser(t, "bea", "Bea Agent", domain.RoleAgent)
	f.supervisor = f.seedUser(t, "sam", "Sam Supervisor", domain.RoleSupervisor)
	f.admin = f.seedUser(t, "ada", "Ada Admin", domain.RoleAdmin)
	return f
}

func (f *fixture) seedUser(t *testing.T, username, name string, role domain.Role) domain.Actor {
	t.Helper()
	hash, err := auth.HashPassword("secret-"+username, bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		ID:           "u-" + username,
		Username:     username,
		Email:        username + "@example.com",
		Name:         name,
		Role:         role,
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    f.clock.Now(),
		UpdatedAt:    f.clock.Now(),
	}
	require.NoError(t, f.users.Create(f.ctx, user))
	return domain.ActorFromUser(user)
}

func (f *fixture) createTicket(t *testing.T, actor domain.Actor, subject string) *domain.Ticket {
	t.Helper()
	ticket, err := f.ticketSvc.Create(f.ctx, TicketCreateInput{Subject: subject, Impact: 2, Urgency: 2}, actor)
	require.NoError(t, err)
	return ticket
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func ptr[T any](v T) *T {
	return &v
}
