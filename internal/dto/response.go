package dto

import (
	"Mini_Drive/model"
	"time"
)

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
	Roles     []string  `json:"roles"`
}

// NewUserResponse builds the account view with its role.
func NewUserResponse(user *model.User, role string) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt,
		Roles:     []string{role},
	}
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type ShareResponse struct {
	Token     string     `json:"token"`
	URL       string     `json:"url"`
	IsPublic  bool       `json:"isPublic"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type SignedURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type PageResponse struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

type DecisionResponse struct {
	Request *model.AccessRequest   `json:"request"`
	Grant   *model.PermissionGrant `json:"grant,omitempty"`
}
