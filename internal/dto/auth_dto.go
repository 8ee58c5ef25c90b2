package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	FullName     string `json:"full_name" validate:"required,max=255"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required,min=8,max=128"`
	Role         string `json:"role" validate:"required"`
	SignupToken  string `json:"signup_token,omitempty"`
	ReferralCode string `json:"referral_code,omitempty"`
}

type GoogleAuthRequest struct {
	Token       string `json:"token" validate:"required"`
	Role        string `json:"role" validate:"required"`
	SignupToken string `json:"signup_token,omitempty"`
}

type VerifyEmailRequest struct {
	EmailToken string `json:"email_token" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	PasswordResetToken string `json:"password_reset_token" validate:"required"`
	Password           string `json:"password" validate:"required,min=8,max=128"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	Data        UserResponse `json:"data"`
}

type UserEnvelope struct {
	Data UserResponse `json:"data"`
}

type UserResponse struct {
	ID           int64       `json:"id"`
	Email        string      `json:"email"`
	FullName     string      `json:"full_name"`
	Role         models.Role `json:"role"`
	IsVerified   bool        `json:"is_verified"`
	LoginMethod  string      `json:"login_method"`
	ReferralCode *string     `json:"referral_code"`
	CreatedAt    time.Time   `json:"created_at"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		Role:         u.Role,
		IsVerified:   u.IsVerified,
		LoginMethod:  u.LoginMethod,
		ReferralCode: u.ReferralCode,
		CreatedAt:    u.CreatedAt,
	}
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   bool              `json:"error"`
	Kind    string            `json:"kind,omitempty"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
