package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/epyson/internal/feed"
	"github.com/hitoshi/epyson/internal/model"
)

// FeedServiceInterface はフィードハンドラーが必要とするサービスインターフェース。
type FeedServiceInterface interface {
	// Fetch はクエリ記述子から1ページ分のフィードを組み立てる。
	Fetch(ctx context.Context, q feed.Query) (*feed.Page, error)
}

// FeedHandler はフィード配信のHTTPハンドラー。
//
// /feed/popular と /feed/new は匿名閲覧者には全投稿を、認証済み閲覧者には
// 購読トピックの投稿を返す。/feed/my は購読ユーザーの投稿を返し、
// 匿名閲覧者には空ページを返す。
type FeedHandler struct {
	service FeedServiceInterface
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(service FeedServiceInterface) *FeedHandler {
	return &FeedHandler{service: service}
}

// serveFeed はスコープとポリシーを確定したフィードリクエストを処理する共通経路。
func (h *FeedHandler) serveFeed(w http.ResponseWriter, r *http.Request, scope feed.Scope, policy feed.Policy) {
	page, limit, err := parsePagination(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.Fetch(r.Context(), feed.Query{
		Viewer: viewerFromRequest(r),
		Scope:  scope,
		Policy: policy,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// serveFilteredFeed はfilterクエリパラメータでポリシーを選ぶフィードを処理する。
func (h *FeedHandler) serveFilteredFeed(w http.ResponseWriter, r *http.Request, scope feed.Scope) {
	policy, err := feed.ParsePolicy(r.URL.Query().Get("filter"), feed.PolicyNew)
	if err != nil {
		handleServiceError(w, model.NewInvalidFilterError(r.URL.Query().Get("filter")))
		return
	}
	h.serveFeed(w, r, scope, policy)
}

// homeScope は閲覧者に応じたホームフィードのスコープを返す。
func homeScope(r *http.Request) feed.Scope {
	if optionalViewerID(r) != nil {
		return feed.SubscribedTopicsScope()
	}
	return feed.GlobalScope()
}

// Popular は人気順のホームフィードを返す。
// GET /feed/popular
func (h *FeedHandler) Popular(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, homeScope(r), feed.PolicyPopular)
}

// New は新着順のホームフィードを返す。
// GET /feed/new
func (h *FeedHandler) New(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, homeScope(r), feed.PolicyNew)
}

// My は購読ユーザーの投稿フィードを返す。匿名閲覧者には空ページ。
// GET /feed/my
func (h *FeedHandler) My(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, feed.SubscribedAuthorsScope(), feed.PolicyNew)
}
