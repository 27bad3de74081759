package service

import (
	"Mini_Drive/internal/repo"
	"Mini_Drive/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAccessOrder(t *testing.T) {
	setupService(t)
	ctx := context.Background()
	owner := mustRegister(t, "owner@example.com")
	viewer := mustRegister(t, "viewer@example.com")
	stranger := mustRegister(t, "stranger@example.com")
	admin := mustAdmin(t, "admin@example.com")
	file := mustUpload(t, owner.ID, "a.pdf", "%PDF-1.4")
	grant(t, file.ID, viewer.ID, model.PermissionView)

	cases := []struct {
		name       string
		caller     string
		level      model.PermissionType
		source     string
		canRequest bool
	}{
		{"owner", owner.ID, model.PermissionOwner, AccessViaOwner, false},
		{"admin role", admin.ID, model.PermissionAdmin, AccessViaRole, false},
		{"grant", viewer.ID, model.PermissionView, AccessViaGrant, false},
		{"stranger", stranger.ID, "", "", true},
		{"anonymous", "", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, decision, err := ResolveAccess(ctx, file.ID, tc.caller, "")
			require.NoError(t, err)
			assert.Equal(t, tc.level, decision.Level)
			assert.Equal(t, tc.source, decision.Source)
			assert.Equal(t, tc.canRequest, decision.CanRequestAccess)
		})
	}

	_, _, err := ResolveAccess(ctx, "missing", owner.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOwnerStrayGrantStillOwner(t *testing.T) {
	setupService(t)
	ctx := context.Background()
	owner := mustRegister(t, "owner@example.com")
	file := mustUpload(t, owner.ID, "a.pdf", "%PDF-1.4")
	grant(t, file.ID, owner.ID, model.PermissionView)

	_, decision, err := ResolveAccess(ctx, file.ID, owner.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.PermissionOwner, decision.Level)
	assert.True(t, decision.Allows(model.PermissionAdmin))
}

func TestAuthorizeLevels(t *testing.T) {
	setupService(t)
	ctx := context.Background()
	owner := mustRegister(t, "owner@example.com")
	viewer := mustRegister(t, "viewer@example.com")
	file := mustUpload(t, owner.ID, "a.pdf", "%PDF-1.4")
	grant(t, file.ID, viewer.ID, model.PermissionView)

	_, _, err := Authorize(ctx, file.ID, viewer.ID, "", model.PermissionView)
	require.NoError(t, err)

	_, _, err = Authorize(ctx, file.ID, viewer.ID, "", model.PermissionEdit)
	var denied *AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, model.PermissionEdit, denied.Required)
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = Authorize(ctx, file.ID, "", "", model.PermissionView)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestShareTokenAccess(t *testing.T) {
	setupService(t)
	ctx := context.Background()
	owner := mustRegister(t, "owner@example.com")
	stranger := mustRegister(t, "stranger@example.com")
	file := mustUpload(t, owner.ID, "a.pdf", "%PDF-1.4")
	other := mustUpload(t, owner.ID, "b.pdf", "%PDF-1.5")

	link, err := EnsureShareLink(ctx, owner.ID, file.ID, true, nil)
	require.NoError(t, err)

	_, decision, err := ResolveAccess(ctx, file.ID, "", link.ShareToken)
	require.NoError(t, err)
	assert.Equal(t, model.PermissionView, decision.Level)
	assert.Equal(t, AccessViaShare, decision.Source)

	_, decision, err = ResolveAccess(ctx, file.ID, stranger.ID, link.ShareToken)
	require.NoError(t, err)
	assert.Equal(t, AccessViaShare, decision.Source)
	assert.False(t, decision.Allows(model.PermissionEdit))

	// a token only opens the file it was issued for
	_, decision, err = ResolveAccess(ctx, other.ID, "", link.ShareToken)
	require.NoError(t, err)
	assert.Empty(t, decision.Level)

	_, decision, err = ResolveAccess(ctx, file.ID, "", "not-a-token")
	require.NoError(t, err)
	assert.Empty(t, decision.Level)

	_, err = EnsureShareLink(ctx, owner.ID, file.ID, false, nil)
	require.NoError(t, err)
	_, decision, err = ResolveAccess(ctx, file.ID, "", link.ShareToken)
	require.NoError(t, err)
	assert.Empty(t, decision.Level)
}

func TestExpiredShareTokenDenied(t *testing.T) {
	setupService(t)
	ctx := context.Background()
	owner := mustRegister(t, "owner@example.com")
	file := mustUpload(t, owner.ID, "a.pdf", "%PDF-1.4")

	future := time.Now().Add(time.Hour)
	link, err := EnsureShareLink(ctx, owner.ID, file.ID, true, &future)
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, repo.Db.Model(&model.ShareLink{}).Where("id = ?", link.ID).Update("expires_at", past).Error)
	invalidateShareLink(ctx, link.ShareToken)

	_, decision, err := ResolveAccess(ctx, file.ID, "", link.ShareToken)
	require.NoError(t, err)
	assert.Empty(t, decision.Level)

	_, _, err = GetSharedFile(ctx, link.ShareToken)
	assert.ErrorIs(t, err, ErrForbidden)
}
