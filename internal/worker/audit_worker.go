package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

const defaultAuditBuffer = 256

// AuditWriter drains audit lines into the repository on a background
// goroutine. Record never blocks: when the buffer is full the line is dropped
// and a warning logged.
type AuditWriter struct {
	repo    repository.AuditRepository
	logger  *zap.Logger
	queue   chan domain.AuditEntry
	done    chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	timeout time.Duration
}

// NewAuditWriter builds a writer. Call Start before recording.
func NewAuditWriter(repo repository.AuditRepository, logger *zap.Logger, buffer int) *AuditWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = defaultAuditBuffer
	}
	return &AuditWriter{
		repo:    repo,
		logger:  logger,
		queue:   make(chan domain.AuditEntry, buffer),
		done:    make(chan struct{}),
		timeout: 5 * time.Second,
	}
}

// Record enqueues one audit line.
func (w *AuditWriter) Record(actor string, at time.Time, action string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.logger.Warn("audit writer closed, dropping entry", zap.String("action", action))
		return
	}
	entry := domain.AuditEntry{ID: uuid.NewString(), Actor: actor, Action: action, CreatedAt: at}
	select {
	case w.queue <- entry:
	default:
		w.logger.Warn("audit buffer full, dropping entry", zap.String("actor", actor), zap.String("action", action))
	}
}

// Start launches the drain loop.
func (w *AuditWriter) Start() {
	go w.run()
}

func (w *AuditWriter) run() {
	defer close(w.done)
	for entry := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		if err := w.repo.Create(ctx, &entry); err != nil {
			w.logger.Error("audit write failed", zap.String("action", entry.Action), zap.Error(err))
		}
		cancel()
	}
}

// Close stops accepting entries and waits until the queue is flushed or ctx ends.
func (w *AuditWriter) Close(ctx context.Context) error {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		close(w.queue)
		w.mu.Unlock()
	})
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
