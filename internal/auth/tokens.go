// Package auth はJWTベースの認証フローを提供する。
// アクセストークンはAuthorizationヘッダで、リフレッシュトークンは
// HTTP-onlyクッキーで運ばれる。
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/epyson/internal/model"
)

// TokenPair はアクセストークンとリフレッシュトークンの組。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenManager はJWTの発行と検証を行う。
// アクセス用とリフレッシュ用で署名鍵を分離し、相互流用を防ぐ。
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenManager はTokenManagerを生成する。
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssueAccess はアクセストークンを発行する。
func (m *TokenManager) IssueAccess(userID int64) (string, error) {
	return issue(userID, m.accessSecret, m.accessTTL)
}

// IssueRefresh はリフレッシュトークンを発行する。
func (m *TokenManager) IssueRefresh(userID int64) (string, error) {
	return issue(userID, m.refreshSecret, m.refreshTTL)
}

// IssuePair はアクセス・リフレッシュの両トークンを発行する。
func (m *TokenManager) IssuePair(userID int64) (*TokenPair, error) {
	access, err := m.IssueAccess(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := m.IssueRefresh(userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess はアクセストークンを検証し、ユーザーIDを返す。
func (m *TokenManager) VerifyAccess(token string) (int64, error) {
	return verify(token, m.accessSecret)
}

// VerifyRefresh はリフレッシュトークンを検証し、ユーザーIDを返す。
func (m *TokenManager) VerifyRefresh(token string) (int64, error) {
	return verify(token, m.refreshSecret)
}

func issue(userID int64, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func verify(tokenString string, secret []byte) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return 0, model.NewInvalidTokenError()
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, model.NewInvalidTokenError()
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, model.NewInvalidTokenError()
	}
	return userID, nil
}
