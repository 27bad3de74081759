package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	Email string `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`

	Password string `gorm:"column:pass_word;type:varchar(255);not null" json:"-"`

	FullName string `gorm:"column:full_name;type:varchar(120);not null;default:''" json:"full_name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID when none is set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// UserRole stores the coarse role of a user. A missing row means RoleUser.
type UserRole struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex" json:"user_id"`
	Role      string    `gorm:"column:role;type:varchar(16);not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (UserRole) TableName() string {
	return "user_roles"
}

// BeforeCreate assigns a UUID when none is set.
func (r *UserRole) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// ValidRole reports whether role is a known role name.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
