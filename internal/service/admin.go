package service

import (
	"Mini_Drive/internal/repo"
	"Mini_Drive/model"
	"context"
	"strings"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AdminFileFilter narrows the cross-user file listing.
type AdminFileFilter struct {
	Search    string
	UserID    string
	Type      string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// AdminFileView is a file with its owner's identity.
type AdminFileView struct {
	model.File `gorm:"embedded"`
	OwnerEmail string `json:"owner_email"`
	OwnerName  string `json:"owner_name"`
}

// TypeCount is the number of files sharing a MIME type.
type TypeCount struct {
	MimeType string `json:"mime_type"`
	Count    int64  `json:"count"`
}

// AdminStats summarizes the whole drive.
type AdminStats struct {
	TotalFiles      int64       `json:"total_files"`
	TotalUsers      int64       `json:"total_users"`
	TotalStorage    int64       `json:"total_storage"`
	PendingRequests int64       `json:"pending_requests"`
	FilesByType     []TypeCount `json:"files_by_type"`
}

// AdminUserView is a user with role and usage.
type AdminUserView struct {
	model.User `gorm:"embedded"`
	Role       string `json:"role"`
	FileCount  int64  `json:"file_count"`
	UsedBytes  int64  `json:"used_bytes"`
}

// Normalize clamps paging to the defaults.
func (f *AdminFileFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
}

// mimeFilter matches either a whole MIME type or a top-level prefix such as "image/".
type mimeFilter struct {
	value  string
	prefix bool
}

var typeCategories = map[string]mimeFilter{
	"image": {value: "image/", prefix: true},
	"video": {value: "video/", prefix: true},
	"audio": {value: "audio/", prefix: true},
	"text":  {value: "text/", prefix: true},
	"pdf":   {value: "application/pdf"},
}

func parseTypeFilter(raw string) (*mimeFilter, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return nil, nil
	}
	if strings.Contains(raw, "/") {
		return &mimeFilter{value: raw}, nil
	}
	if f, ok := typeCategories[raw]; ok {
		return &f, nil
	}
	return nil, invalidf("unknown file type %q", raw)
}

// escapeLike escapes LIKE wildcards with '!', which needs no quoting on any supported driver.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

// AdminListFiles lists files across all users. Admin only.
func AdminListFiles(ctx context.Context, actorID string, filter AdminFileFilter) ([]AdminFileView, int64, error) {
	if err := requireAdmin(ctx, actorID); err != nil {
		return nil, 0, err
	}
	mime, err := parseTypeFilter(filter.Type)
	if err != nil {
		return nil, 0, err
	}
	filtered := func() *gorm.DB {
		return applyFileFilter(repo.Db.WithContext(ctx).
			Table("files").
			Joins("LEFT JOIN users ON users.id = files.owner_id"), filter, mime)
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "files.created_at DESC"
	if orderBy := sanitizeOrderBy(filter.SortBy); orderBy != "" {
		order = orderBy + " " + sanitizeOrderDirection(filter.SortOrder)
	}
	filter.Normalize()
	page, pageSize := filter.Page, filter.PageSize

	var files []AdminFileView
	err = filtered().
		Select("files.*, users.email AS owner_email, users.full_name AS owner_name").
		Order(order).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&files).Error
	if err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

func applyFileFilter(query *gorm.DB, filter AdminFileFilter, mime *mimeFilter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(`(LOWER(files.name) LIKE ? ESCAPE '!' OR LOWER(users.email) LIKE ? ESCAPE '!')`, like, like)
	}
	if filter.UserID != "" {
		query = query.Where("files.owner_id = ?", filter.UserID)
	}
	switch {
	case mime == nil:
	case mime.prefix:
		query = query.Where("files.mime_type LIKE ? ESCAPE '!'", escapeLike(mime.value)+"%")
	default:
		query = query.Where("files.mime_type = ?", mime.value)
	}
	return query
}

// GetAdminStats aggregates counts across the drive. Admin only.
func GetAdminStats(ctx context.Context, actorID string) (*AdminStats, error) {
	if err := requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	db := repo.Db.WithContext(ctx)
	stats := &AdminStats{}
	if err := db.Model(&model.File{}).Count(&stats.TotalFiles).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.File{}).Select("COALESCE(SUM(size_bytes), 0)").Scan(&stats.TotalStorage).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.AccessRequest{}).Where("status = ?", model.RequestPending).Count(&stats.PendingRequests).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.File{}).
		Select("mime_type, COUNT(*) AS count").
		Group("mime_type").
		Order("count DESC").
		Scan(&stats.FilesByType).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// AdminListUsers lists every user with role and usage. Admin only.
func AdminListUsers(ctx context.Context, actorID string) ([]AdminUserView, error) {
	if err := requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	var users []AdminUserView
	err := repo.Db.WithContext(ctx).
		Table("users").
		Select(`users.*, COALESCE(user_roles.role, 'user') AS role,
			(SELECT COUNT(*) FROM files WHERE files.owner_id = users.id) AS file_count,
			(SELECT COALESCE(SUM(size_bytes), 0) FROM files WHERE files.owner_id = users.id) AS used_bytes`).
		Joins("LEFT JOIN user_roles ON user_roles.user_id = users.id").
		Order("users.created_at ASC").
		Scan(&users).Error
	return users, err
}
