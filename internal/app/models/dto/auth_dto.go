package dto

import "github.com/tutorlog/sessionlog/internal/app/models"

// LoginRequest represents login credentials, sent as JSON or as a form
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Message  string `json:"message" example:"Login successful"`
	Redirect string `json:"redirect" example:"/session"`
}

// MeResponse describes the current session holder
type MeResponse struct {
	User      *models.StaticUser `json:"user"`
	ExpiresAt int64              `json:"expiresAt"`
}
