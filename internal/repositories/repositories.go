// Package repositories persists the entities the identity core reads and
// writes. Implementations join a transaction started by database.Transactor
// when one is present in the context.
package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	// Create inserts the user and assigns its id. A taken email returns ErrDuplicate.
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByReferralCode(ctx context.Context, code string) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	MarkVerified(ctx context.Context, id int64) error
	// SetReferralCode assigns a code only if the user has none yet. A code
	// held by another user returns ErrDuplicate.
	SetReferralCode(ctx context.Context, id int64, code string) error
}

type SignupLinkRepository interface {
	// Create inserts the link; the token is derived once the id is known. A
	// token collision returns ErrDuplicate and nothing is stored.
	Create(ctx context.Context, link *models.SignupLink) error
	FindByToken(ctx context.Context, token string) (*models.SignupLink, error)
	// Redeem sets the redeemer iff the link is currently unused and unexpired
	// at now, as one conditional update. It reports whether a row changed.
	Redeem(ctx context.Context, token string, userID int64, now time.Time) (bool, error)
	// ListByCreator returns the creator's links newest first, redeemers loaded.
	ListByCreator(ctx context.Context, creatorID int64) ([]models.SignupLink, error)
}
