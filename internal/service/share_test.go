package service

import (
	"Mini_Drive/internal/repo"
	"Mini_Drive/model"
	"Mini_Drive/utils"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureShareLinkReusesToken(t *testing.T) {
	setupService(t)
	ctx := context.Background()
	owner := mustRegister(t, "owner@example.com")
	file := mustUpload(t, owner.ID, "a.pdf", "%PDF-1.4")

	first, err := EnsureShareLink(ctx, owner.ID, file.ID, true, nil)
	require.NoError(t, err)
	assert.Len(t, first.ShareToken, 43)

	expiry := time.Now().Add(2 * time.Hour)
	second, err := EnsureShareLink(ctx, owner.ID, file.ID, false, &expiry)
	require.NoError(t, err)
	assert.Equal(t, first.ShareToken, second.ShareToken)
	assert.False(t, second.IsPublic)
	require.NotNil(t, second.ExpiresAt)

	var count int64
	require.NoError(t, repo.Db.Model(&model.ShareLink{}).Where("file_id = ?", file.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	stored, err := GetMyShareLink(ctx, owner.ID, file.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPublic)

	url := ShareURL(file.ID, first.ShareToken)
	assert.True(t, strings.HasPrefix(url, "http://drive.local/file/"+file.ID+"?token="))
}

func TestEnsureShareLinkRules(t *testing.T) {
	setupService(t)
	ctx := context.Background()
	owner := mustRegister(t, "owner@example.com")
	viewer := mustRegister(t, "viewer@example.com")
	manager := mustRegister(t, "manager@example.com")
	file := mustUpload(t, owner.ID, "a.pdf", "%PDF-1.4")
	grant(t, file.ID, viewer.ID, model.PermissionView)
	grant(t, file.ID, manager.ID, model.PermissionAdmin)

	_, err := EnsureShareLink(ctx, viewer.ID, file.ID, true, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = EnsureShareLink(ctx, "", file.ID, true, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	past := time.Now().Add(-time.Hour)
	_, err = EnsureShareLink(ctx, owner.ID, file.ID, true, &past)
	assert.ErrorIs(t, err, ErrInvalidInput)

	mine, err := EnsureShareLink(ctx, owner.ID, file.ID, true, nil)
	require.NoError(t, err)
	theirs, err := EnsureShareLink(ctx, manager.ID, file.ID, true, nil)
	require.NoError(t, err)
	assert.NotEqual(t, mine.ShareToken, theirs.ShareToken)

	_, err = GetMyShareLink(ctx, viewer.ID, file.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGetSharedFile(t *testing.T) {
	setupService(t)
	ctx := context.Background()
	owner := mustRegister(t, "owner@example.com")
	file := mustUpload(t, owner.ID, "a.pdf", "%PDF-1.4")

	link, err := EnsureShareLink(ctx, owner.ID, file.ID, true, nil)
	require.NoError(t, err)

	got, gotLink, err := GetSharedFile(ctx, link.ShareToken)
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)
	assert.Equal(t, link.ID, gotLink.ID)

	// second lookup is served from the cache
	_, ok := utils.GetShareLinkFromCache(ctx, utils.HashShareToken(link.ShareToken))
	assert.True(t, ok)

	body, _, info, err := OpenSharedFile(ctx, link.ShareToken)
	require.NoError(t, err)
	body.Close()
	assert.Equal(t, int64(len("%PDF-1.4")), info.Size)

	_, _, err = GetSharedFile(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = EnsureShareLink(ctx, owner.ID, file.ID, false, nil)
	require.NoError(t, err)
	_, _, err = GetSharedFile(ctx, link.ShareToken)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRevokeShareLink(t *testing.T) {
	setupService(t)
	ctx := context.Background()
	owner := mustRegister(t, "owner@example.com")
	file := mustUpload(t, owner.ID, "a.pdf", "%PDF-1.4")

	link, err := EnsureShareLink(ctx, owner.ID, file.ID, true, nil)
	require.NoError(t, err)
	_, _, err = GetSharedFile(ctx, link.ShareToken)
	require.NoError(t, err)

	require.NoError(t, RevokeShareLink(ctx, owner.ID, file.ID))
	_, _, err = GetSharedFile(ctx, link.ShareToken)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, RevokeShareLink(ctx, owner.ID, file.ID), ErrNotFound)
}
