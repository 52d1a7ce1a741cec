package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/hitoshi/epyson/internal/feed"
	"github.com/hitoshi/epyson/internal/middleware"
	"github.com/hitoshi/epyson/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Profile は本人向けプロフィール（メールアドレス付き）を返す。
	Profile(ctx context.Context, userID int64) (*user.Profile, error)
	// PublicProfile は公開プロフィールを返す。
	PublicProfile(ctx context.Context, userID int64) (*user.Profile, error)
	// UpdateProfile は名前と自己紹介を更新する。
	UpdateProfile(ctx context.Context, userID int64, name, description string) (*user.Profile, error)
	// UpdateAvatar はアバター画像URLを更新する。
	UpdateAvatar(ctx context.Context, userID int64, avatar string) (*user.Profile, error)
	// UpdateCover はカバー画像URLを更新する。
	UpdateCover(ctx context.Context, userID int64, cover string) (*user.Profile, error)
	// Search は名前の部分一致でユーザーを検索する。
	Search(ctx context.Context, query string, page, limit int) (*user.SearchPage, error)
}

// UserHandler はユーザープロフィールのHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
	feeds   *FeedHandler
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, feeds *FeedHandler) *UserHandler {
	return &UserHandler{service: service, feeds: feeds}
}

type updateProfileRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateImageRequest struct {
	Avatar string `json:"avatar"`
	Cover  string `json:"cover"`
}

// GetProfile は本人のプロフィールを返す。
// GET /users/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	profile, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile は名前と自己紹介を更新する。
// PATCH /users/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "リクエスト形式が正しくありません。")
		return
	}
	if utf8.RuneCountInString(req.Name) < 2 {
		writeValidationError(w, "名前は2文字以上で入力してください。")
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateAvatar はアバター画像URLを更新する。
// PATCH /users/profile/avatar
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "リクエスト形式が正しくありません。")
		return
	}

	profile, err := h.service.UpdateAvatar(r.Context(), userID, req.Avatar)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateCover はカバー画像URLを更新する。
// PATCH /users/profile/cover
func (h *UserHandler) UpdateCover(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "リクエスト形式が正しくありません。")
		return
	}

	profile, err := h.service.UpdateCover(r.Context(), userID, req.Cover)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Search は名前の部分一致でユーザーを検索する。
// GET /users/search?query&page&limit
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeValidationError(w, "検索キーワードを指定してください。")
		return
	}
	page, limit, err := parsePagination(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.Search(r.Context(), query, page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetByID は公開プロフィールを返す。
// GET /users/{id}
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeValidationError(w, "ユーザーIDの形式が正しくありません。")
		return
	}

	profile, err := h.service.PublicProfile(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Feed はユーザーの投稿フィードを返す。
// GET /users/{id}/feed?page&limit&filter
func (h *UserHandler) Feed(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeValidationError(w, "ユーザーIDの形式が正しくありません。")
		return
	}
	h.feeds.serveFilteredFeed(w, r, feed.AuthorScope(id))
}
