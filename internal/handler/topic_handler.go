package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/hitoshi/epyson/internal/feed"
	"github.com/hitoshi/epyson/internal/model"
	"github.com/hitoshi/epyson/internal/topic"
)

// TopicServiceInterface はトピックハンドラーが必要とするサービスインターフェース。
type TopicServiceInterface interface {
	// Create はトピックを作成する。
	Create(ctx context.Context, t *model.Topic) (*model.Topic, error)
	// BySlug はスラッグでトピックを返す。
	BySlug(ctx context.Context, slug string) (*model.Topic, error)
	// All は全トピックを返す。
	All(ctx context.Context) ([]model.Topic, error)
	// List はトピックをページネーション付きで返す。
	List(ctx context.Context, viewerID *int64, page, limit int) (*topic.Page, error)
}

// TopicHandler はトピックのHTTPハンドラー。
type TopicHandler struct {
	service TopicServiceInterface
	feeds   *FeedHandler
}

// NewTopicHandler はTopicHandlerを生成する。
func NewTopicHandler(service TopicServiceInterface, feeds *FeedHandler) *TopicHandler {
	return &TopicHandler{service: service, feeds: feeds}
}

type createTopicRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Avatar      string `json:"avatar"`
	Cover       string `json:"cover"`
	Slug        string `json:"slug"`
}

// All は全トピックを返す。
// GET /topics/all
func (h *TopicHandler) All(w http.ResponseWriter, r *http.Request) {
	topics, err := h.service.All(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

// List はトピック一覧をページネーション付きで返す。
// 認証済み閲覧者には購読中のトピックのみを返す。
// GET /topics?page&limit
func (h *TopicHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.List(r.Context(), optionalViewerID(r), page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Create はトピックを作成する。
// POST /topics
func (h *TopicHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "リクエスト形式が正しくありません。")
		return
	}
	if utf8.RuneCountInString(req.Name) < 2 {
		writeValidationError(w, "トピック名は2文字以上で入力してください。")
		return
	}
	if req.Slug == "" {
		writeValidationError(w, "スラッグを指定してください。")
		return
	}

	created, err := h.service.Create(r.Context(), &model.Topic{
		Name:        req.Name,
		Description: req.Description,
		Avatar:      req.Avatar,
		Cover:       req.Cover,
		Slug:        req.Slug,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// BySlug はスラッグでトピックを返す。
// GET /topics/{slug}
func (h *TopicHandler) BySlug(w http.ResponseWriter, r *http.Request) {
	slug := urlParam(r, "id")
	if slug == "" {
		writeValidationError(w, "スラッグを指定してください。")
		return
	}

	t, err := h.service.BySlug(r.Context(), slug)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Feed はトピックの投稿フィードを返す。
// GET /topics/{id}/feed?page&limit&filter
func (h *TopicHandler) Feed(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeValidationError(w, "トピックIDの形式が正しくありません。")
		return
	}
	h.feeds.serveFilteredFeed(w, r, feed.TopicScope(id))
}
