package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBus_DeliversToSubscribersOfKind(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(2, 8, quietLogger())

	var mu sync.Mutex
	got := map[Kind][]int64{}
	record := func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got[e.Kind] = append(got[e.Kind], e.User.ID)
		return nil
	}
	bus.Subscribe(KindWelcomeEmail, record)
	bus.Subscribe(KindReferralCode, record)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, Event{Kind: KindWelcomeEmail, User: models.User{ID: 1}}))
	require.NoError(t, bus.Publish(ctx, Event{Kind: KindReferralCode, User: models.User{ID: 2}}))
	require.NoError(t, bus.Publish(ctx, Event{Kind: KindPasswordReset, User: models.User{ID: 3}}))
	bus.Close()

	assert.Equal(t, []int64{1}, got[KindWelcomeEmail])
	assert.Equal(t, []int64{2}, got[KindReferralCode])
	assert.Empty(t, got[KindPasswordReset])
}

func TestBus_HandlerFailuresAreIsolated(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(1, 4, quietLogger())

	var calls atomic.Int32
	bus.Subscribe(KindPasswordReset, func(context.Context, Event) error { panic("boom") })
	bus.Subscribe(KindPasswordReset, func(context.Context, Event) error { return errors.New("smtp down") })
	bus.Subscribe(KindPasswordReset, func(context.Context, Event) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), Event{Kind: KindPasswordReset}))
	require.NoError(t, bus.Publish(context.Background(), Event{Kind: KindPasswordReset}))
	bus.Close()

	assert.Equal(t, int32(2), calls.Load())
}

func TestBus_PublishAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(1, 1, quietLogger())
	bus.Close()
	bus.Close()

	err := bus.Publish(context.Background(), Event{Kind: KindWelcomeEmail})
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestBus_PublishHonoursContextWhenFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(1, 0, quietLogger())
	release := make(chan struct{})
	started := make(chan struct{})
	bus.Subscribe(KindWelcomeEmail, func(context.Context, Event) error {
		close(started)
		<-release
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), Event{Kind: KindWelcomeEmail}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := bus.Publish(ctx, Event{Kind: KindWelcomeEmail})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	bus.Close()
}

func TestBus_StampsOccurredAt(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(1, 1, quietLogger())
	done := make(chan Event, 1)
	bus.Subscribe(KindReferralCode, func(_ context.Context, e Event) error {
		done <- e
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), Event{Kind: KindReferralCode}))
	bus.Close()
	e := <-done
	assert.False(t, e.OccurredAt.IsZero())
}

func TestBus_CloseStopsEveryWorker(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(4, 2, quietLogger())
	var handled atomic.Int32
	bus.Subscribe(KindWelcomeEmail, func(context.Context, Event) error {
		time.Sleep(time.Millisecond)
		handled.Add(1)
		return nil
	})

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			assert.NoError(t, bus.Publish(context.Background(), Event{Kind: KindWelcomeEmail, User: models.User{ID: id}}))
		}(int64(i))
	}
	wg.Wait()
	bus.Close()

	assert.Equal(t, int32(20), handled.Load())
}
