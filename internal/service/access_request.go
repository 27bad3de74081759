package service

import (
	"Mini_Drive/internal/repo"
	"Mini_Drive/model"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxRequestMessage = 1000
	requestLockTTL    = 10 * time.Second
)

// AccessRequestView is a request joined with the names a reviewer needs.
type AccessRequestView struct {
	model.AccessRequest `gorm:"embedded"`
	FileName            string `json:"file_name"`
	RequesterEmail      string `json:"requester_email"`
	RequesterName       string `json:"requester_name"`
}

// CreateAccessRequest files a pending request from a non-owner.
func CreateAccessRequest(ctx context.Context, requesterID, fileID string, permission model.PermissionType, message string) (*model.AccessRequest, error) {
	if requesterID == "" {
		return nil, ErrUnauthenticated
	}
	if !permission.Grantable() {
		return nil, invalidf("unknown permission %q", permission)
	}
	message = strings.TrimSpace(message)
	if len(message) > maxRequestMessage {
		return nil, invalidf("message longer than %d characters", maxRequestMessage)
	}

	lock := repo.NewRedisLock(repo.Redis, fmt.Sprintf("lock:access_request:%s:%s", fileID, requesterID), requestLockTTL)
	if err := lock.Lock(ctx); err != nil {
		if errors.Is(err, repo.ErrLockBusy) {
			return nil, conflictf("a request for this file is already being submitted")
		}
		return nil, err
	}
	defer func() { _ = lock.Unlock(context.WithoutCancel(ctx)) }()

	file, err := loadFile(ctx, repo.Db, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID == requesterID {
		return nil, conflictf("owners already have full access")
	}
	decision, err := resolveFor(ctx, file, requesterID, "")
	if err != nil {
		return nil, err
	}
	if decision.Allows(permission) {
		return nil, conflictf("%s access already held", decision.Level)
	}

	var pending int64
	if err := repo.Db.WithContext(ctx).Model(&model.AccessRequest{}).
		Where("file_id = ? AND requested_by = ? AND status = ?", fileID, requesterID, model.RequestPending).
		Count(&pending).Error; err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, conflictf("a pending request already exists for this file")
	}

	req := &model.AccessRequest{
		FileID:              fileID,
		RequestedBy:         requesterID,
		OwnerID:             file.OwnerID,
		RequestedPermission: permission,
		Status:              model.RequestPending,
	}
	if message != "" {
		req.Message = &message
	}
	if err := repo.Db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, err
	}

	if requester, err := GetUserByID(ctx, requesterID); err == nil {
		notifyAccessRequested(ctx, req, file, requester)
	}
	return req, nil
}

func loadRequest(ctx context.Context, db *gorm.DB, requestID string) (*model.AccessRequest, error) {
	var req model.AccessRequest
	if err := db.WithContext(ctx).Where("id = ?", requestID).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// authorizeDecision loads the request and its file and checks the actor may decide it.
func authorizeDecision(ctx context.Context, actorID, requestID string) (*model.AccessRequest, *model.File, error) {
	if actorID == "" {
		return nil, nil, ErrUnauthenticated
	}
	req, err := loadRequest(ctx, repo.Db, requestID)
	if err != nil {
		return nil, nil, err
	}
	file, err := loadFile(ctx, repo.Db, req.FileID)
	if err != nil {
		return nil, nil, err
	}
	if file.OwnerID != actorID {
		admin, err := IsAdmin(ctx, actorID)
		if err != nil {
			return nil, nil, err
		}
		if !admin {
			// the requester may see that their own request is already closed
			if actorID == req.RequestedBy && req.Status != model.RequestPending {
				return nil, nil, conflictf("access request already %s", req.Status)
			}
			return nil, nil, fmt.Errorf("%w: only the file owner or an admin can decide this request", ErrForbidden)
		}
	}
	return req, file, nil
}

// transition moves a pending request to a terminal status. Zero affected rows means
// another decision got there first.
func transition(ctx context.Context, tx *gorm.DB, req *model.AccessRequest, status, actorID string, now time.Time) error {
	res := tx.WithContext(ctx).Model(&model.AccessRequest{}).
		Where("id = ? AND status = ?", req.ID, model.RequestPending).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": now,
			"responded_by": actorID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		current, err := loadRequest(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		return conflictf("access request already %s", current.Status)
	}
	req.Status = status
	req.RespondedAt = &now
	req.RespondedBy = &actorID
	return nil
}

// ApproveAccessRequest marks the request approved and upserts the grant in one transaction.
// An empty granted level means the requested level.
func ApproveAccessRequest(ctx context.Context, actorID, requestID string, granted model.PermissionType) (*model.AccessRequest, *model.PermissionGrant, error) {
	req, file, err := authorizeDecision(ctx, actorID, requestID)
	if err != nil {
		return nil, nil, err
	}
	if granted == "" {
		granted = req.RequestedPermission
	}
	if !granted.Grantable() {
		return nil, nil, invalidf("unknown permission %q", granted)
	}

	var grant model.PermissionGrant
	now := time.Now()
	err = repo.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transition(ctx, tx, req, model.RequestApproved, actorID, now); err != nil {
			return err
		}
		row := model.PermissionGrant{
			FileID:         req.FileID,
			UserID:         req.RequestedBy,
			PermissionType: granted,
			GrantedBy:      actorID,
			GrantedAt:      now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "file_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"permission_type", "granted_by", "granted_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return tx.Where("file_id = ? AND user_id = ?", req.FileID, req.RequestedBy).First(&grant).Error
	})
	if err != nil {
		return nil, nil, err
	}

	notifyAccessDecided(ctx, req, file.Name)
	return req, &grant, nil
}

// DenyAccessRequest marks the request denied. No grant is touched.
func DenyAccessRequest(ctx context.Context, actorID, requestID string) (*model.AccessRequest, error) {
	req, file, err := authorizeDecision(ctx, actorID, requestID)
	if err != nil {
		return nil, err
	}
	err = repo.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return transition(ctx, tx, req, model.RequestDenied, actorID, time.Now())
	})
	if err != nil {
		return nil, err
	}

	notifyAccessDecided(ctx, req, file.Name)
	return req, nil
}

func requestViews(ctx context.Context) *gorm.DB {
	return repo.Db.WithContext(ctx).
		Table("access_requests").
		Select("access_requests.*, files.name AS file_name, users.email AS requester_email, users.full_name AS requester_name").
		Joins("LEFT JOIN files ON files.id = access_requests.file_id").
		Joins("LEFT JOIN users ON users.id = access_requests.requested_by").
		Order("access_requests.created_at DESC")
}

func validStatusFilter(status string) error {
	switch status {
	case "", model.RequestPending, model.RequestApproved, model.RequestDenied:
		return nil
	}
	return invalidf("unknown status %q", status)
}

// ListMyAccessRequests lists requests the caller filed.
func ListMyAccessRequests(ctx context.Context, requesterID string) ([]AccessRequestView, error) {
	var out []AccessRequestView
	err := requestViews(ctx).Where("access_requests.requested_by = ?", requesterID).Scan(&out).Error
	return out, err
}

// ListIncomingAccessRequests lists requests on files the caller owns.
func ListIncomingAccessRequests(ctx context.Context, ownerID, status string) ([]AccessRequestView, error) {
	if err := validStatusFilter(status); err != nil {
		return nil, err
	}
	q := requestViews(ctx).Where("access_requests.owner_id = ?", ownerID)
	if status != "" {
		q = q.Where("access_requests.status = ?", status)
	}
	var out []AccessRequestView
	err := q.Scan(&out).Error
	return out, err
}

// ListAllAccessRequests lists every request. Admin only.
func ListAllAccessRequests(ctx context.Context, actorID, status string) ([]AccessRequestView, error) {
	if err := requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if err := validStatusFilter(status); err != nil {
		return nil, err
	}
	q := requestViews(ctx)
	if status != "" {
		q = q.Where("access_requests.status = ?", status)
	}
	var out []AccessRequestView
	err := q.Scan(&out).Error
	return out, err
}

// LatestAccessRequest returns the caller's most recent request for a file, if any.
func LatestAccessRequest(ctx context.Context, requesterID, fileID string) (*model.AccessRequest, error) {
	var req model.AccessRequest
	err := repo.Db.WithContext(ctx).
		Where("file_id = ? AND requested_by = ?", fileID, requesterID).
		Order("created_at DESC").
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}
