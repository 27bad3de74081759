package service

import (
	"Mini_Drive/internal/repo"
	"Mini_Drive/model"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessRequestApproveFlow(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	owner := mustRegister(t, "a@example.com")
	reader := mustRegister(t, "b@example.com")

	file, err := UploadFile(ctx, UploadInput{
		OwnerID: owner.ID,
		Name:    "report.pdf",
		Size:    2400000,
		Body:    strings.NewReader(strings.Repeat("x", 2400000)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2400000), file.SizeBytes)
	assert.Equal(t, "application/pdf", file.MimeType)

	_, _, _, err = OpenFile(ctx, reader.ID, file.ID, "")
	var denied *AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.True(t, denied.CanRequestAccess)

	req, err := CreateAccessRequest(ctx, reader.ID, file.ID, model.PermissionView, "need for audit")
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Equal(t, owner.ID, req.OwnerID)
	require.NotNil(t, req.Message)
	assert.Equal(t, "need for audit", *req.Message)

	sent := env.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "a@example.com", sent[0].To)

	approved, g, err := ApproveAccessRequest(ctx, owner.ID, req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, approved.Status)
	require.NotNil(t, approved.RespondedAt)
	assert.Equal(t, model.PermissionView, g.PermissionType)
	assert.Equal(t, reader.ID, g.UserID)

	body, got, _, err := OpenFile(ctx, reader.ID, file.ID, "")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Len(t, data, 2400000)
	assert.Equal(t, file.ID, got.ID)

	assert.Len(t, env.notifier.Sent(), 2)
}

func TestAccessRequestDenyAndRetryConflict(t *testing.T) {
	setupService(t)
	ctx := context.Background()
	owner := mustRegister(t, "a@example.com")
	reader := mustRegister(t, "b@example.com")
	file := mustUpload(t, owner.ID, "report.pdf", "%PDF-1.4")

	req, err := CreateAccessRequest(ctx, reader.ID, file.ID, model.PermissionEdit, "")
	require.NoError(t, err)
	assert.Nil(t, req.Message)

	denied, err := DenyAccessRequest(ctx, owner.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestDenied, denied.Status)
	assert.NotNil(t, denied.RespondedAt)

	_, _, _, err = OpenFile(ctx, reader.ID, file.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = DenyAccessRequest(ctx, reader.ID, req.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = DenyAccessRequest(ctx, owner.ID, req.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, _, err = ApproveAccessRequest(ctx, owner.ID, req.ID, "")
	assert.ErrorIs(t, err, ErrConflict)

	g, err := findGrant(ctx, repo.Db, file.ID, reader.ID)
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestAccessRequestRules(t *testing.T) {
	setupService(t)
	ctx := context.Background()
	owner := mustRegister(t, "a@example.com")
	reader := mustRegister(t, "b@example.com")
	file := mustUpload(t, owner.ID, "notes.pdf", "%PDF-1.4")

	_, err := CreateAccessRequest(ctx, owner.ID, file.ID, model.PermissionView, "")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = CreateAccessRequest(ctx, "", file.ID, model.PermissionView, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = CreateAccessRequest(ctx, reader.ID, file.ID, model.PermissionOwner, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = CreateAccessRequest(ctx, reader.ID, file.ID, model.PermissionView, strings.Repeat("m", maxRequestMessage+1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = CreateAccessRequest(ctx, reader.ID, "missing", model.PermissionView, "")
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := CreateAccessRequest(ctx, reader.ID, file.ID, model.PermissionView, "")
	require.NoError(t, err)
	_, err = CreateAccessRequest(ctx, reader.ID, file.ID, model.PermissionEdit, "")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = DenyAccessRequest(ctx, owner.ID, first.ID)
	require.NoError(t, err)
	second, err := CreateAccessRequest(ctx, reader.ID, file.ID, model.PermissionView, "please")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	latest, err := LatestAccessRequest(ctx, reader.ID, file.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, model.RequestPending, latest.Status)

	none, err := LatestAccessRequest(ctx, owner.ID, file.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestAccessRequestHeldLevelConflicts(t *testing.T) {
	setupService(t)
	ctx := context.Background()
	owner := mustRegister(t, "a@example.com")
	editor := mustRegister(t, "b@example.com")
	file := mustUpload(t, owner.ID, "plan.pdf", "%PDF-1.4")
	grant(t, file.ID, editor.ID, model.PermissionEdit)

	_, err := CreateAccessRequest(ctx, editor.ID, file.ID, model.PermissionView, "")
	assert.ErrorIs(t, err, ErrConflict)

	req, err := CreateAccessRequest(ctx, editor.ID, file.ID, model.PermissionAdmin, "")
	require.NoError(t, err)

	_, g, err := ApproveAccessRequest(ctx, owner.ID, req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.PermissionAdmin, g.PermissionType)

	var count int64
	require.NoError(t, repo.Db.Model(&model.PermissionGrant{}).
		Where("file_id = ? AND user_id = ?", file.ID, editor.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAccessRequestDeciders(t *testing.T) {
	setupService(t)
	ctx := context.Background()
	owner := mustRegister(t, "a@example.com")
	reader := mustRegister(t, "b@example.com")
	stranger := mustRegister(t, "c@example.com")
	admin := mustAdmin(t, "root@example.com")
	file := mustUpload(t, owner.ID, "plan.pdf", "%PDF-1.4")

	req, err := CreateAccessRequest(ctx, reader.ID, file.ID, model.PermissionEdit, "")
	require.NoError(t, err)

	_, _, err = ApproveAccessRequest(ctx, stranger.ID, req.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)
	_, _, err = ApproveAccessRequest(ctx, reader.ID, req.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)
	_, _, err = ApproveAccessRequest(ctx, "", req.ID, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, _, err = ApproveAccessRequest(ctx, owner.ID, "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = ApproveAccessRequest(ctx, owner.ID, req.ID, model.PermissionOwner)
	assert.ErrorIs(t, err, ErrInvalidInput)

	approved, g, err := ApproveAccessRequest(ctx, admin.ID, req.ID, model.PermissionView)
	require.NoError(t, err)
	require.NotNil(t, approved.RespondedBy)
	assert.Equal(t, admin.ID, *approved.RespondedBy)
	assert.Equal(t, model.PermissionView, g.PermissionType)
}

func TestListAccessRequests(t *testing.T) {
	setupService(t)
	ctx := context.Background()
	owner := mustRegister(t, "a@example.com")
	reader := mustRegister(t, "b@example.com")
	admin := mustAdmin(t, "root@example.com")
	file := mustUpload(t, owner.ID, "plan.pdf", "%PDF-1.4")

	req, err := CreateAccessRequest(ctx, reader.ID, file.ID, model.PermissionView, "hi")
	require.NoError(t, err)

	mine, err := ListMyAccessRequests(ctx, reader.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, req.ID, mine[0].ID)
	assert.Equal(t, "plan.pdf", mine[0].FileName)
	assert.Equal(t, "b@example.com", mine[0].RequesterEmail)

	incoming, err := ListIncomingAccessRequests(ctx, owner.ID, model.RequestPending)
	require.NoError(t, err)
	assert.Len(t, incoming, 1)

	incoming, err = ListIncomingAccessRequests(ctx, owner.ID, model.RequestApproved)
	require.NoError(t, err)
	assert.Empty(t, incoming)

	_, err = ListIncomingAccessRequests(ctx, owner.ID, "bogus")
	assert.ErrorIs(t, err, ErrInvalidInput)

	others, err := ListIncomingAccessRequests(ctx, reader.ID, "")
	require.NoError(t, err)
	assert.Empty(t, others)

	_, err = ListAllAccessRequests(ctx, owner.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)

	all, err := ListAllAccessRequests(ctx, admin.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
