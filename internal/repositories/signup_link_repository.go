package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
)

type GormSignupLinkRepository struct {
	db *gorm.DB
}

func NewSignupLinkRepository(db *gorm.DB) *GormSignupLinkRepository {
	return &GormSignupLinkRepository{db: db}
}

// Create relies on SignupLink.AfterCreate to derive and store the token in the
// insert's transaction, so a collision rolls the whole row back.
func (r *GormSignupLinkRepository) Create(ctx context.Context, link *models.SignupLink) error {
	if err := database.Conn(ctx, r.db).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return oops.Code("SIGNUP_TOKEN_DUPLICATE").With("created_by", link.CreatedByID).Wrap(ErrDuplicate)
		}
		return oops.Code("SIGNUP_LINK_CREATE_FAILED").With("created_by", link.CreatedByID).Wrap(err)
	}
	return nil
}

func (r *GormSignupLinkRepository) FindByToken(ctx context.Context, token string) (*models.SignupLink, error) {
	var link models.SignupLink
	if err := database.Conn(ctx, r.db).Where("token = ?", token).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("SIGNUP_LINK_QUERY_FAILED").Wrap(err)
	}
	return &link, nil
}

func (r *GormSignupLinkRepository) Redeem(ctx context.Context, token string, userID int64, now time.Time) (bool, error) {
	result := database.Conn(ctx, r.db).Model(&models.SignupLink{}).
		Where("token = ? AND used_by_id IS NULL AND expires_at > ?", token, now).
		Updates(map[string]any{"used_by_id": userID, "updated_at": now})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return false, oops.Code("SIGNUP_LINK_REDEEMER_DUPLICATE").With("user_id", userID).Wrap(ErrDuplicate)
		}
		return false, oops.Code("SIGNUP_LINK_REDEEM_FAILED").With("user_id", userID).Wrap(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *GormSignupLinkRepository) ListByCreator(ctx context.Context, creatorID int64) ([]models.SignupLink, error) {
	var links []models.SignupLink
	err := database.Conn(ctx, r.db).
		Preload("UsedBy").
		Where("created_by_id = ?", creatorID).
		Order("created_at DESC, id DESC").
		Find(&links).Error
	if err != nil {
		return nil, oops.Code("SIGNUP_LINK_LIST_FAILED").With("created_by", creatorID).Wrap(err)
	}
	return links, nil
}
