package service

import (
	"Mini_Drive/config"
	"Mini_Drive/internal/repo"
	"Mini_Drive/model"
	"Mini_Drive/utils"
	"context"
	"errors"
	"net/mail"
	"strings"

	"gorm.io/gorm"
)

const minPasswordLength = 6

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalidf("invalid email")
	}
	return email, nil
}

// Register creates a user with a hashed password.
func Register(ctx context.Context, rawEmail, password, fullName string) (*model.User, error) {
	email, err := normalizeEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, invalidf("password must be at least %d characters", minPasswordLength)
	}
	hash, err := utils.GetPwd(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:    email,
		Password: hash,
		FullName: strings.TrimSpace(fullName),
	}
	err = repo.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if repo.IsDuplicateKey(err) {
				return conflictf("email already registered")
			}
			return err
		}
		if config.AppConfig.IsAdminEmail(email) {
			return upsertRole(ctx, tx, user.ID, model.RoleAdmin)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials and returns the user.
func Authenticate(ctx context.Context, rawEmail, password string) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(rawEmail))
	var user model.User
	if err := repo.Db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !utils.CheckPwd(password, user.Password) {
		return nil, ErrUnauthenticated
	}
	return &user, nil
}

// GetUserByID loads a user.
func GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := repo.Db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the caller's display name.
func UpdateProfile(ctx context.Context, userID, fullName string) (*model.User, error) {
	fullName = strings.TrimSpace(fullName)
	if len(fullName) > 120 {
		return nil, invalidf("full name too long")
	}
	user, err := GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := repo.Db.WithContext(ctx).Model(user).Update("full_name", fullName).Error; err != nil {
		return nil, err
	}
	user.FullName = fullName
	return user, nil
}

// SignOut revokes the presented session token.
func SignOut(ctx context.Context, claims *utils.Claims) error {
	if claims == nil {
		return ErrUnauthenticated
	}
	return utils.RevokeToken(ctx, claims)
}
