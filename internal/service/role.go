package service

import (
	"Mini_Drive/config"
	"Mini_Drive/internal/repo"
	"Mini_Drive/model"
	"Mini_Drive/utils"
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetUserRole returns the caller's role, defaulting to user.
func GetUserRole(ctx context.Context, userID string) (string, error) {
	if role, ok := utils.GetUserRoleFromCache(ctx, userID); ok {
		return role, nil
	}
	var row model.UserRole
	err := repo.Db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	role := model.RoleUser
	switch {
	case err == nil:
		role = row.Role
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return "", err
	}
	if err := utils.SetUserRoleToCache(ctx, userID, role, config.AppConfig.RoleCacheTTL); err != nil {
		log.Printf("cache role failed: %v", err)
	}
	return role, nil
}

// IsAdmin reports whether the user holds the admin role.
func IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	role, err := GetUserRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == model.RoleAdmin, nil
}

func requireAdmin(ctx context.Context, actorID string) error {
	if actorID == "" {
		return ErrUnauthenticated
	}
	ok, err := IsAdmin(ctx, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func upsertRole(ctx context.Context, db *gorm.DB, userID, role string) error {
	row := model.UserRole{UserID: userID, Role: role, CreatedAt: time.Now()}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&row).Error
	if err != nil {
		return err
	}
	if err := utils.InvalidateUserRoleCache(ctx, userID); err != nil {
		log.Printf("invalidate role cache failed: %v", err)
	}
	return nil
}

// SetUserRole changes a user's role. Only admins may call it and they cannot demote themselves.
func SetUserRole(ctx context.Context, actorID, userID, role string) error {
	if err := requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if !model.ValidRole(role) {
		return invalidf("unknown role %q", role)
	}
	if actorID == userID && role != model.RoleAdmin {
		return conflictf("admins cannot remove their own admin role")
	}
	if _, err := GetUserByID(ctx, userID); err != nil {
		return err
	}
	return upsertRole(ctx, repo.Db, userID, role)
}

// BootstrapAdmins grants the admin role to existing users whose email is listed.
func BootstrapAdmins(ctx context.Context, emails []string) error {
	if len(emails) == 0 {
		return nil
	}
	var users []model.User
	if err := repo.Db.WithContext(ctx).Where("email IN ?", emails).Find(&users).Error; err != nil {
		return err
	}
	for _, user := range users {
		if err := upsertRole(ctx, repo.Db, user.ID, model.RoleAdmin); err != nil {
			return err
		}
		log.Printf("bootstrap admin role for user %s", user.ID)
	}
	return nil
}
