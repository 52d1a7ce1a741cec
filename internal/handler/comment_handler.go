package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/epyson/internal/comment"
	"github.com/hitoshi/epyson/internal/middleware"
	"github.com/hitoshi/epyson/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	// Create はコメントまたは返信を作成する。
	Create(ctx context.Context, userID, postID int64, parentID *int64, text string) (*model.CommentWithAuthor, error)
	// List は投稿のトップレベルコメントを指定の並び順でページネーション付きで返す。
	List(ctx context.Context, postID int64, page, limit int, order model.CommentOrder) (*comment.Page, error)
	// Replies は投稿の全返信コメントを返す。
	Replies(ctx context.Context, postID int64) ([]model.CommentWithAuthor, error)
	// Get は指定IDのコメントを返す。
	Get(ctx context.Context, commentID int64) (*model.CommentWithAuthor, error)
	// Delete はコメントとその返信サブツリーを削除する。投稿者本人のみ。
	Delete(ctx context.Context, userID, commentID int64) error
}

// CommentHandler はコメントのHTTPハンドラー。/posts配下にマウントされる。
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

type createCommentRequest struct {
	Text     string `json:"text"`
	ParentID *int64 `json:"parent_id"`
}

// Create はコメントまたは返信を作成する。
// POST /posts/{id}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}
	postID, ok := parseIDParam(r, "id")
	if !ok {
		writeValidationError(w, "投稿IDの形式が正しくありません。")
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "リクエスト形式が正しくありません。")
		return
	}

	created, err := h.service.Create(r.Context(), userID, postID, req.ParentID, req.Text)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// List は投稿のトップレベルコメントを返す。
// GET /posts/{id}/comments?page&limit&filter
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	postID, ok := parseIDParam(r, "id")
	if !ok {
		writeValidationError(w, "投稿IDの形式が正しくありません。")
		return
	}
	page, limit, err := parsePagination(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	order, err := model.ParseCommentOrder(r.URL.Query().Get("filter"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.List(r.Context(), postID, page, limit, order)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Replies は投稿の全返信コメントを返す。
// GET /posts/{id}/comments/replies
func (h *CommentHandler) Replies(w http.ResponseWriter, r *http.Request) {
	postID, ok := parseIDParam(r, "id")
	if !ok {
		writeValidationError(w, "投稿IDの形式が正しくありません。")
		return
	}

	replies, err := h.service.Replies(r.Context(), postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, replies)
}

// Get は単一コメントを返す。
// GET /posts/comments/{comment_id}
func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	commentID, ok := parseIDParam(r, "comment_id")
	if !ok {
		writeValidationError(w, "コメントIDの形式が正しくありません。")
		return
	}

	c, err := h.service.Get(r.Context(), commentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete はコメントとその返信サブツリーを削除する。
// DELETE /posts/comments/{comment_id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}
	commentID, ok := parseIDParam(r, "comment_id")
	if !ok {
		writeValidationError(w, "コメントIDの形式が正しくありません。")
		return
	}

	if err := h.service.Delete(r.Context(), userID, commentID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
