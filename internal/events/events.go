// Package events carries post-commit notifications out of the auth core.
// Publishing is a synchronous enqueue; handlers run on the bus's workers.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
)

type Kind string

const (
	KindReferralCode  Kind = "user.referral_code"
	KindWelcomeEmail  Kind = "user.welcome_email"
	KindPasswordReset Kind = "user.password_reset"
)

const handlerTimeout = 30 * time.Second

var ErrBusClosed = errors.New("event bus closed")

// Event is a notification about a user. Tokens are set only for the kinds
// that need them.
type Event struct {
	Kind              Kind
	User              models.User
	VerificationToken string
	ResetToken        string
	OccurredAt        time.Time
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Handler func(ctx context.Context, event Event) error

// Bus is an in-process Publisher backed by a buffered queue and a fixed pool
// of workers. A failing or panicking handler does not affect the others.
type Bus struct {
	queue chan Event

	// mu guards closed. Publishers hold it shared while enqueueing, so
	// workers must not take it.
	mu     sync.RWMutex
	closed bool

	hmu      sync.RWMutex
	handlers map[Kind][]Handler

	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewBus(workers, queueLen int, logger *slog.Logger) *Bus {
	if workers < 1 {
		workers = 1
	}
	if queueLen < 0 {
		queueLen = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		queue:    make(chan Event, queueLen),
		handlers: make(map[Kind][]Handler),
		logger:   logger,
	}
	b.wg.Add(workers)
	for range workers {
		go b.work()
	}
	return b
}

func (b *Bus) Subscribe(kind Kind, h Handler) {
	b.hmu.Lock()
	defer b.hmu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Publish blocks while the queue is full, until ctx is done.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	select {
	case b.queue <- event:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", event.Kind, ctx.Err())
	}
}

// Close stops accepting events and waits for queued ones to be handled.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Bus) work() {
	defer b.wg.Done()
	for event := range b.queue {
		b.hmu.RLock()
		handlers := append([]Handler(nil), b.handlers[event.Kind]...)
		b.hmu.RUnlock()

		if len(handlers) == 0 {
			b.logger.Debug("event has no subscribers", "kind", event.Kind, "user_id", event.User.ID)
			continue
		}
		for _, h := range handlers {
			b.dispatch(h, event)
		}
	}
}

func (b *Bus) dispatch(h Handler, event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "kind", event.Kind, "user_id", event.User.ID, "panic", r)
		}
	}()

	if err := h(ctx, event); err != nil {
		b.logger.Error("event handler failed", "kind", event.Kind, "user_id", event.User.ID, "error", err)
	}
}
