package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/epyson/internal/feed"
	"github.com/hitoshi/epyson/internal/middleware"
	"github.com/hitoshi/epyson/internal/model"
	"github.com/hitoshi/epyson/internal/post"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, authorID int64, input *post.Input) (*model.PostDetail, error)
	// Update は投稿を更新する。投稿者本人のみ。
	Update(ctx context.Context, userID, postID int64, input *post.Input) (*model.PostDetail, error)
	// Delete は投稿と関連レコードを削除する。投稿者本人のみ。
	Delete(ctx context.Context, userID, postID int64) error
	// Detail は投稿詳細を返し、閲覧を記録する。
	Detail(ctx context.Context, postID int64, ip string) (*model.PostDetail, error)
	// Info は投稿のエンゲージメント集計を返す。
	Info(ctx context.Context, postID int64, viewerID *int64) (*model.EngagementInfo, error)
	// React はいいねの付与・取消を処理する。
	React(ctx context.Context, userID, postID int64, like bool) (*model.EngagementInfo, error)
	// Sitemap は全投稿のIDとタイムスタンプを返す。
	Sitemap(ctx context.Context) ([]model.SitemapEntry, error)
}

// PostHandler は投稿のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
	feeds   *FeedHandler
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface, feeds *FeedHandler) *PostHandler {
	return &PostHandler{service: service, feeds: feeds}
}

type postRequest struct {
	Title       string          `json:"title"`
	Text        string          `json:"text"`
	Attachments json.RawMessage `json:"attachments"`
	TopicID     int64           `json:"topic_id"`
	Tags        []string        `json:"tags"`
}

type reactionRequest struct {
	PostID int64  `json:"post_id"`
	Action string `json:"action"` // like | dislike
}

func (req *postRequest) toInput() *post.Input {
	return &post.Input{
		Title:       req.Title,
		Text:        req.Text,
		Attachments: req.Attachments,
		TopicID:     req.TopicID,
		Tags:        req.Tags,
	}
}

// Create は投稿を作成する。
// POST /posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "リクエスト形式が正しくありません。")
		return
	}
	if req.TopicID < 1 {
		writeValidationError(w, "トピックIDを指定してください。")
		return
	}

	detail, err := h.service.Create(r.Context(), userID, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// Update は投稿を更新する。
// PATCH /posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeValidationError(w, "投稿IDの形式が正しくありません。")
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "リクエスト形式が正しくありません。")
		return
	}

	detail, err := h.service.Update(r.Context(), userID, id, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Delete は投稿を削除する。
// DELETE /posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeValidationError(w, "投稿IDの形式が正しくありません。")
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Detail は投稿詳細を返し、(投稿, IP)の閲覧を冪等に記録する。
// GET /posts/{id}
func (h *PostHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeValidationError(w, "投稿IDの形式が正しくありません。")
		return
	}

	detail, err := h.service.Detail(r.Context(), id, clientIP(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Info は投稿のエンゲージメント集計を返す。
// GET /posts/{id}/info
func (h *PostHandler) Info(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeValidationError(w, "投稿IDの形式が正しくありません。")
		return
	}

	info, err := h.service.Info(r.Context(), id, optionalViewerID(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Recommendations は同一トピック内の関連投稿フィードを返す。
// GET /posts/{id}/recommendations?page&limit
func (h *PostHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeValidationError(w, "投稿IDの形式が正しくありません。")
		return
	}

	// 基準投稿のトピックを特定する。閲覧記録はしない。
	detail, err := h.service.Detail(r.Context(), id, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.feeds.serveFeed(w, r, feed.RelatedScope(detail.TopicID, id), feed.PolicyNew)
}

// Search はタイトル・本文の部分一致検索フィードを返す。
// GET /posts/search?query&page&limit
func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeValidationError(w, "検索キーワードを指定してください。")
		return
	}
	h.feeds.serveFeed(w, r, feed.SearchScope(query), feed.PolicyNew)
}

// ByTag はタグ付き投稿のフィードを返す。
// GET /posts/tag?tag&page&limit
func (h *PostHandler) ByTag(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	if tag == "" {
		writeValidationError(w, "タグを指定してください。")
		return
	}
	h.feeds.serveFeed(w, r, feed.TagScope(tag), feed.PolicyNew)
}

// Sitemap は全投稿のIDとタイムスタンプを返す。
// GET /posts/sitemap
func (h *PostHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Sitemap(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// React はいいねの付与・取消を処理する。
// POST /posts/reaction
func (h *PostHandler) React(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req reactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "リクエスト形式が正しくありません。")
		return
	}
	if req.PostID < 1 {
		writeValidationError(w, "投稿IDを指定してください。")
		return
	}
	if req.Action != "like" && req.Action != "dislike" {
		writeValidationError(w, "リアクション種別はlikeまたはdislikeを指定してください。")
		return
	}

	info, err := h.service.React(r.Context(), userID, req.PostID, req.Action == "like")
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
