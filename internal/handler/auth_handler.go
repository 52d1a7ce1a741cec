package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/epyson/internal/auth"
	"github.com/hitoshi/epyson/internal/model"
)

const refreshTokenCookie = "refreshToken"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Signup は未確認ユーザーを作成し確認メールを送る。
	Signup(ctx context.Context, name, email, password string) (*model.User, error)
	// Login はパスワードを検証しトークンペアを発行する。
	Login(ctx context.Context, email, password string) (*model.User, *auth.TokenPair, error)
	// Confirm はメール確認トークンを消費しユーザーを確認済みにする。
	Confirm(ctx context.Context, token string) (*model.User, *auth.TokenPair, error)
	// Refresh はリフレッシュトークンを検証し新しいアクセストークンを発行する。
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// AuthHandlerConfig は認証ハンドラーのCookie設定。
type AuthHandlerConfig struct {
	CookieSecure    bool
	CookieDomain    string
	RefreshTokenTTL time.Duration
}

// AuthHandler は認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{service: service, config: config}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type confirmRequest struct {
	Token string `json:"token"`
}

// userResponse は認証レスポンスに含めるユーザー情報。
type userResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

type tokenResponse struct {
	AccessToken string       `json:"accessToken"`
	User        userResponse `json:"user"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}

// validateCredentials はサインアップ入力の形式を検証する。
func validateCredentials(name, email, password string) (string, bool) {
	if utf8.RuneCountInString(name) < 2 {
		return "名前は2文字以上で入力してください。", false
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "メールアドレスの形式が正しくありません。", false
	}
	if len(password) < 6 || len(password) > 26 {
		return "パスワードは6文字以上26文字以内で入力してください。", false
	}
	return "", true
}

// Signup はユーザー登録を処理する。
// POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "リクエスト形式が正しくありません。")
		return
	}
	if msg, ok := validateCredentials(req.Name, req.Email, req.Password); !ok {
		writeValidationError(w, msg)
		return
	}

	user, err := h.service.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Login はログインを処理し、リフレッシュトークンをHTTP-only Cookieで返す。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "リクエスト形式が正しくありません。")
		return
	}

	user, pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: pair.AccessToken,
		User:        toUserResponse(user),
	})
}

// Logout はリフレッシュCookieを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusOK)
}

// Refresh はリフレッシュCookieを検証し新しいアクセストークンを返す。
// GET /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err != nil {
		handleServiceError(w, model.NewInvalidTokenError())
		return
	}

	accessToken, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
}

// Confirm はメール確認トークンを消費し、確認済みユーザーにトークンを発行する。
// POST /users/confirm
func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeValidationError(w, "確認トークンを指定してください。")
		return
	}

	user, pair, err := h.service.Confirm(r.Context(), req.Token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: pair.AccessToken,
		User:        toUserResponse(user),
	})
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    refreshToken,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   int(h.config.RefreshTokenTTL / time.Second),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
