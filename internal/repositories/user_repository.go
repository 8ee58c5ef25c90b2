package repositories

import (
	"context"
	"errors"

	"github.com/samber/oops"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	if err := database.Conn(ctx, r.db).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return oops.Code("USER_DUPLICATE").With("email", user.Email).Wrap(ErrDuplicate)
		}
		return oops.Code("USER_CREATE_FAILED").With("email", user.Email).Wrap(err)
	}
	return nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", models.NormalizeEmail(email))
}

func (r *GormUserRepository) FindByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return r.first(ctx, "referral_code = ?", code)
}

func (r *GormUserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.update(ctx, id, "password", hash)
}

func (r *GormUserRepository) MarkVerified(ctx context.Context, id int64) error {
	return r.update(ctx, id, "is_verified", true)
}

func (r *GormUserRepository) SetReferralCode(ctx context.Context, id int64, code string) error {
	result := database.Conn(ctx, r.db).Model(&models.User{}).
		Where("id = ? AND referral_code IS NULL", id).
		Update("referral_code", code)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return oops.Code("REFERRAL_CODE_TAKEN").With("user_id", id).Wrap(ErrDuplicate)
		}
		return oops.Code("REFERRAL_CODE_UPDATE_FAILED").With("user_id", id).Wrap(result.Error)
	}
	return nil
}

func (r *GormUserRepository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := database.Conn(ctx, r.db).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("USER_QUERY_FAILED").With("query", query).Wrap(err)
	}
	return &user, nil
}

func (r *GormUserRepository) update(ctx context.Context, id int64, column string, value any) error {
	result := database.Conn(ctx, r.db).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return oops.Code("USER_UPDATE_FAILED").With("user_id", id).With("column", column).Wrap(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
