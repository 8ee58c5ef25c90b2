package models

import (
	"strings"
	"time"
)

const (
	LoginMethodEmail  = "email"
	LoginMethodGoogle = "google"
)

// User is the platform account the auth core authenticates against.
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	FullName     string    `gorm:"size:255" json:"full_name"`
	Password     string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"size:20;not null;default:'candidate';index" json:"role"`
	IsVerified   bool      `gorm:"not null;default:false" json:"is_verified"`
	LoginMethod  string    `gorm:"size:20;not null;default:'email'" json:"login_method"`
	ReferralCode *string   `gorm:"size:16;uniqueIndex" json:"referral_code,omitempty"`
	ReferredByID *int64    `gorm:"index" json:"referred_by_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
