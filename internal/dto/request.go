package dto

import "time"

type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"fullName"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FullName string `json:"fullName"`
}

// CreateShareRequest omits IsPublic to mean a public link.
type CreateShareRequest struct {
	IsPublic  *bool      `json:"isPublic"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type CreateAccessRequest struct {
	FileID     string `json:"fileId" binding:"required"`
	Permission string `json:"permission"`
	Message    string `json:"message"`
}

// DecisionRequest carries the level granted on approval; empty means the requested level.
type DecisionRequest struct {
	Permission string `json:"permission"`
}

type SetRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type AdminFileQuery struct {
	Search    string `form:"search"`
	UserID    string `form:"user"`
	Type      string `form:"type"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}
