package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/repositories"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/repositories/repotest"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/services"
)

func TestNewReferralCode(t *testing.T) {
	seen := map[string]bool{}
	for range 50 {
		code, err := services.NewReferralCode()
		require.NoError(t, err)
		assert.Regexp(t, `^[A-HJ-NP-Z2-9]{8}$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}

// collidingUsers fails SetReferralCode with ErrDuplicate a set number of times.
type collidingUsers struct {
	repositories.UserRepository
	collisions int
	calls      int
}

func (c *collidingUsers) SetReferralCode(ctx context.Context, id int64, code string) error {
	c.calls++
	if c.calls <= c.collisions {
		return repositories.ErrDuplicate
	}
	return c.UserRepository.SetReferralCode(ctx, id, code)
}

func TestReferralService_AssignRetriesOnCollision(t *testing.T) {
	store := repotest.NewStore()
	ctx := context.Background()
	user := &models.User{Email: "a@example.com"}
	require.NoError(t, store.Users().Create(ctx, user))

	users := &collidingUsers{UserRepository: store.Users(), collisions: 2}
	require.NoError(t, services.NewReferralService(users, quietLogger()).Assign(ctx, user.ID))
	assert.Equal(t, 3, users.calls)

	stored, err := store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReferralCode)
	assert.Len(t, *stored.ReferralCode, services.ReferralCodeLength)
}

func TestReferralService_AssignGivesUp(t *testing.T) {
	store := repotest.NewStore()
	users := &collidingUsers{UserRepository: store.Users(), collisions: 100}
	err := services.NewReferralService(users, quietLogger()).Assign(context.Background(), 1)
	assert.Error(t, err)
	assert.Equal(t, 5, users.calls)
}

func TestReferralService_HandlesRegistrationEvent(t *testing.T) {
	store := repotest.NewStore()
	ctx := context.Background()
	user := &models.User{Email: "b@example.com"}
	require.NoError(t, store.Users().Create(ctx, user))

	bus := events.NewBus(1, 4, quietLogger())
	services.NewReferralService(store.Users(), quietLogger()).Register(bus)
	require.NoError(t, bus.Publish(ctx, events.Event{Kind: events.KindReferralCode, User: *user}))
	bus.Close()

	stored, err := store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReferralCode)
	first := *stored.ReferralCode

	require.NoError(t, services.NewReferralService(store.Users(), quietLogger()).Assign(ctx, user.ID))
	stored, err = store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *stored.ReferralCode, "existing code is kept")
}
