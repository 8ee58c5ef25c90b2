package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"gorm.io/gorm"
)

const (
	SignupLinkTTL      = 24 * time.Hour
	SignupTokenLength  = 7
	signupTokenTimeFmt = "2006-01-02T15:04:05.000Z"
)

// SignupLink is a single-use, time-limited invitation binding an email/role pair.
type SignupLink struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email       *string   `gorm:"size:255" json:"email"`
	Role        Role      `gorm:"size:20;not null" json:"role"`
	Token       *string   `gorm:"size:16;uniqueIndex" json:"token"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedByID int64     `gorm:"not null;index" json:"created_by_id"`
	CreatedBy   *User     `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE" json:"-"`
	UsedByID    *int64    `gorm:"uniqueIndex" json:"used_by_id"`
	UsedBy      *User     `gorm:"foreignKey:UsedByID;constraint:OnDelete:SET NULL" json:"used_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DeriveToken computes the link token from its own identifying fields. The
// row must already have an id.
func (l *SignupLink) DeriveToken() string {
	email := ""
	if l.Email != nil {
		email = *l.Email
	}
	h := sha256.New()
	h.Write([]byte(email))
	h.Write([]byte(l.Role))
	h.Write([]byte(strconv.FormatInt(l.ID, 10)))
	h.Write([]byte(l.ExpiresAt.UTC().Format(signupTokenTimeFmt)))
	return hex.EncodeToString(h.Sum(nil))[:SignupTokenLength]
}

// AfterCreate persists the token inside the insert's transaction, once the
// database has assigned the id.
func (l *SignupLink) AfterCreate(tx *gorm.DB) error {
	if l.Token != nil {
		return nil
	}
	token := l.DeriveToken()
	if err := tx.Model(l).Update("token", token).Error; err != nil {
		return err
	}
	l.Token = &token
	return nil
}

func (l *SignupLink) IsExpired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

func (l *SignupLink) IsUsed() bool {
	return l.UsedByID != nil
}

// IsRedeemable holds iff the link is unexpired and has no redeemer.
func (l *SignupLink) IsRedeemable(now time.Time) bool {
	return !l.IsExpired(now) && !l.IsUsed()
}

func (l *SignupLink) TokenValue() string {
	if l.Token == nil {
		return ""
	}
	return *l.Token
}
