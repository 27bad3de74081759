package utils

import (
	"Mini_Drive/config"
	"Mini_Drive/internal/repo"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUtils(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig = config.Config{
		JWTSecret: strings.Repeat("s", 32),
		JWTTTL:    time.Hour,
	}
	s := miniredis.RunT(t)
	repo.Redis = redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = repo.Redis.Close() })
	return s
}

func TestGenerateAndVerifyToken(t *testing.T) {
	setupUtils(t)

	token, err := GenerateToken("user-1", "a@example.com")
	require.NoError(t, err)

	claims, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserId)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)

	_, err = VerifyToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	config.AppConfig.JWTSecret = strings.Repeat("o", 32)
	_, err = VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	setupUtils(t)

	past := time.Now().Add(-time.Hour)
	claims := Claims{
		UserId: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(past),
			IssuedAt:  jwt.NewNumericDate(past.Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.AppConfig.JWTSecret))
	require.NoError(t, err)

	_, err = VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeToken(t *testing.T) {
	setupUtils(t)
	ctx := context.Background()

	token, err := GenerateToken("user-1", "a@example.com")
	require.NoError(t, err)
	claims, err := VerifyToken(token)
	require.NoError(t, err)

	revoked, err := IsTokenRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, RevokeToken(ctx, claims))
	revoked, err = IsTokenRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthMiddleware(t *testing.T) {
	setupUtils(t)

	r := gin.New()
	r.GET("/private", AuthMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserID))
	})
	r.GET("/optional", OptionalAuthMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, "caller="+c.GetString(ContextUserID))
	})

	token, err := GenerateToken("user-9", "z@example.com")
	require.NoError(t, err)

	do := func(path, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, do("/private", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/private", "Token "+token).Code)
	w := do("/private", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-9", w.Body.String())

	assert.Equal(t, "caller=", do("/optional", "").Body.String())
	assert.Equal(t, "caller=user-9", do("/optional", "Bearer "+token).Body.String())
	assert.Equal(t, http.StatusUnauthorized, do("/optional", "Bearer nope").Code)

	claims, err := VerifyToken(token)
	require.NoError(t, err)
	require.NoError(t, RevokeToken(context.Background(), claims))
	assert.Equal(t, http.StatusUnauthorized, do("/private", "Bearer "+token).Code)
}

func TestRequireAdmin(t *testing.T) {
	setupUtils(t)
	isAdmin := func(ctx context.Context, userID string) (bool, error) {
		return userID == "boss", nil
	}
	r := gin.New()
	r.GET("/admin", func(c *gin.Context) {
		c.Set(ContextUserID, c.Query("as"))
	}, RequireAdmin(isAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for as, want := range map[string]int{"boss": http.StatusOK, "intern": http.StatusForbidden, "": http.StatusUnauthorized} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin?as="+as, nil))
		assert.Equal(t, want, w.Code, "as=%q", as)
	}
}

func TestShareToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		token, err := GenerateShareToken()
		require.NoError(t, err)
		assert.Len(t, token, 43)
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "/")
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
	assert.Equal(t, HashShareToken("abc"), HashShareToken("abc"))
	assert.NotEqual(t, HashShareToken("abc"), HashShareToken("abd"))
}

func TestPassword(t *testing.T) {
	hash, err := GetPwd("secret-pass")
	require.NoError(t, err)
	assert.True(t, CheckPwd("secret-pass", hash))
	assert.False(t, CheckPwd("wrong", hash))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "report.pdf", SanitizeFileName("../../etc/report.pdf"))
	assert.Equal(t, "a.txt", SanitizeFileName(`C:\Users\me\a.txt`))
	assert.Equal(t, "", SanitizeFileName("  "))
	assert.Equal(t, "download", SanitizeHeaderFilename("\"\r\n"))
	assert.Equal(t, `attachment; filename="a b.txt"; filename*=UTF-8''a%20b.txt`, ContentDisposition("attachment", "a b.txt"))
}

func TestRedactSharePath(t *testing.T) {
	token := "NnQ4FNEl84S2abcdefghijklmnopqrstuvwxyz01234"
	digest := "sha256-" + HashShareToken(token)[:12]

	cases := []struct {
		in   string
		want string
	}{
		{"/api/files/shared/" + token, "/api/files/shared/" + digest},
		{"/api/files/shared/" + token + "/download", "/api/files/shared/" + digest + "/download"},
		{"/api/files/abc?token=" + token, "/api/files/abc?token=" + digest},
		{"/api/files/abc/download?dl=1&token=" + token, "/api/files/abc/download?dl=1&token=" + digest},
		{"/api/files/abc?page=2", "/api/files/abc?page=2"},
		{"/api/files", "/api/files"},
	}
	for _, tc := range cases {
		got := RedactSharePath(tc.in)
		assert.Equal(t, tc.want, got)
		assert.NotContains(t, got, token)
	}
}
