package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
)

type CreateSignupLinkRequest struct {
	Role  string  `json:"role" validate:"required"`
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
}

type SignupLinkURLResponse struct {
	URL string `json:"url"`
}

// SignupTokenInfo is what a valid link tells the registration form.
type SignupTokenInfo struct {
	Role  models.Role `json:"role"`
	Email *string     `json:"email"`
}

type SignupLinkResponse struct {
	ID        int64         `json:"id"`
	Email     *string       `json:"email"`
	Role      models.Role   `json:"role"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	CreatedAt time.Time     `json:"created_at"`
	UsedBy    *UserResponse `json:"used_by"`
}

func NewSignupLinkResponse(l *models.SignupLink) SignupLinkResponse {
	resp := SignupLinkResponse{
		ID:        l.ID,
		Email:     l.Email,
		Role:      l.Role,
		Token:     l.TokenValue(),
		ExpiresAt: l.ExpiresAt,
		CreatedAt: l.CreatedAt,
	}
	if l.UsedBy != nil {
		u := NewUserResponse(l.UsedBy)
		resp.UsedBy = &u
	}
	return resp
}
