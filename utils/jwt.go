package utils

import (
	"Mini_Drive/config"
	"Mini_Drive/internal/repo"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserId string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed session JWT.
func GenerateToken(userId string, email string) (string, error) {
	ttl := config.AppConfig.JWTTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	claims := Claims{
		UserId: userId,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userId,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(config.AppConfig.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// VerifyToken parses and validates a JWT.
func VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserId == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func revokedKey(jti string) string {
	return BuildCacheKey(CacheKeyRevokedToken, jti)
}

// RevokeToken marks a token id as signed out until the token would expire anyway.
func RevokeToken(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return ErrInvalidToken
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return repo.Redis.Set(ctx, revokedKey(claims.ID), 1, ttl).Err()
}

// IsTokenRevoked reports whether the token id was signed out.
func IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := repo.Redis.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
