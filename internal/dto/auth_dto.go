package dto

import "github.com/google/uuid"

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token    string    `json:"token"`
	UserId   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}

// UpdateAiConfigRequest sets the per-user OpenAI-compatible endpoint
// override. Empty fields fall back to the server defaults.
type UpdateAiConfigRequest struct {
	ApiBaseURL string `json:"api_base_url" validate:"omitempty,url"`
	ApiKey     string `json:"api_key"`
}

type GetAiConfigResponse struct {
	ApiBaseURL string `json:"api_base_url"`
	HasApiKey  bool   `json:"has_api_key"`
}
