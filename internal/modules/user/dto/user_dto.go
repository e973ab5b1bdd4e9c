package dto

import "github.com/unicampus/portal/internal/entity"

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int64           `json:"expires_in"`
	User        *entity.User    `json:"user"`
	Role        *entity.Role    `json:"role"`
	Profile     *entity.Profile `json:"profile"`
	SearchToken string          `json:"search_token,omitempty"`
}

type CreateUserInput struct {
	Name     string   `json:"name" binding:"required,min=3,max=100"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8"`
	Role     string   `json:"role" binding:"required,oneof=admin student preceptor professor"`
	DNI      *string  `json:"dni,omitempty"`
	Careers  []string `json:"careers,omitempty"`
	Year     *int     `json:"year,omitempty"`
}

type UpdateUserInput struct {
	Name     *string  `json:"name,omitempty"`
	Password *string  `json:"password,omitempty"`
	DNI      *string  `json:"dni,omitempty"`
	Careers  []string `json:"careers,omitempty"`
	Year     *int     `json:"year,omitempty"`
}

type UserResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	AvatarURL *string         `json:"avatar_url,omitempty"`
	Profile   *entity.Profile `json:"profile,omitempty"`
}

func ToUserResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role.Name,
		AvatarURL: user.AvatarURL,
		Profile:   user.Profile,
	}
}
