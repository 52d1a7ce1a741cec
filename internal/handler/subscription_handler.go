package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/epyson/internal/middleware"
	"github.com/hitoshi/epyson/internal/model"
	"github.com/hitoshi/epyson/internal/subscription"
)

// SubscriptionServiceInterface は購読ハンドラーが必要とするサービスインターフェース。
type SubscriptionServiceInterface interface {
	// SubscribeUser はユーザーへの購読を冪等に作成する。
	SubscribeUser(ctx context.Context, userID, targetID int64) error
	// UnsubscribeUser はユーザーへの購読を解除する。
	UnsubscribeUser(ctx context.Context, userID, targetID int64) error
	// SubscribeTopic はトピックへの購読を冪等に作成する。
	SubscribeTopic(ctx context.Context, userID, topicID int64) error
	// UnsubscribeTopic はトピックへの購読を解除する。
	UnsubscribeTopic(ctx context.Context, userID, topicID int64) error
	// UserInfo はユーザーの購読者数・購読数を返す。
	UserInfo(ctx context.Context, targetID int64, viewerID *int64) (*subscription.TargetInfo, error)
	// TopicInfo はトピックの購読者数を返す。
	TopicInfo(ctx context.Context, topicID int64, viewerID *int64) (*subscription.TargetInfo, error)
	// Subscribers は対象の購読者一覧を返す。
	Subscribers(ctx context.Context, targetID int64, subType model.SubscriptionType, page, limit int) (*subscription.SubscriberPage, error)
	// Targets はユーザーの購読先一覧を返す。
	Targets(ctx context.Context, userID int64, page, limit int) (*subscription.TargetPage, error)
}

// SubscriptionHandler は購読のHTTPハンドラー。/usersと/topics配下にマウントされる。
type SubscriptionHandler struct {
	service SubscriptionServiceInterface
}

// NewSubscriptionHandler はSubscriptionHandlerを生成する。
func NewSubscriptionHandler(service SubscriptionServiceInterface) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

type subscriptionRequest struct {
	TargetID int64  `json:"target_id"`
	Action   string `json:"action"` // subscribe | unsubscribe
}

// parseSubscriptionRequest は購読リクエストの共通バリデーション。
func parseSubscriptionRequest(r *http.Request) (*subscriptionRequest, string) {
	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "リクエスト形式が正しくありません。"
	}
	if req.TargetID < 1 {
		return nil, "購読対象IDを指定してください。"
	}
	if req.Action != "subscribe" && req.Action != "unsubscribe" {
		return nil, "操作はsubscribeまたはunsubscribeを指定してください。"
	}
	return &req, ""
}

// UserSubscription はユーザーへの購読・購読解除を処理する。
// POST /users/subscription
func (h *SubscriptionHandler) UserSubscription(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}
	req, msg := parseSubscriptionRequest(r)
	if req == nil {
		writeValidationError(w, msg)
		return
	}

	if req.Action == "subscribe" {
		err = h.service.SubscribeUser(r.Context(), userID, req.TargetID)
	} else {
		err = h.service.UnsubscribeUser(r.Context(), userID, req.TargetID)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// TopicSubscription はトピックへの購読・購読解除を処理する。
// POST /topics/subscription
func (h *SubscriptionHandler) TopicSubscription(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}
	req, msg := parseSubscriptionRequest(r)
	if req == nil {
		writeValidationError(w, msg)
		return
	}

	if req.Action == "subscribe" {
		err = h.service.SubscribeTopic(r.Context(), userID, req.TargetID)
	} else {
		err = h.service.UnsubscribeTopic(r.Context(), userID, req.TargetID)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// UserInfo はユーザーの購読者数・購読数と閲覧者の購読状態を返す。
// GET /users/{id}/info
func (h *SubscriptionHandler) UserInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeValidationError(w, "ユーザーIDの形式が正しくありません。")
		return
	}

	info, err := h.service.UserInfo(r.Context(), id, optionalViewerID(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// TopicInfo はトピックの購読者数と閲覧者の購読状態を返す。
// GET /topics/{id}/info
func (h *SubscriptionHandler) TopicInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeValidationError(w, "トピックIDの形式が正しくありません。")
		return
	}

	info, err := h.service.TopicInfo(r.Context(), id, optionalViewerID(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// UserSubscribers はユーザーの購読者一覧を返す。
// GET /users/{id}/info/subscribers
func (h *SubscriptionHandler) UserSubscribers(w http.ResponseWriter, r *http.Request) {
	h.subscribers(w, r, model.SubscriptionTypeUser)
}

// TopicSubscribers はトピックの購読者一覧を返す。
// GET /topics/{id}/info/subscribers
func (h *SubscriptionHandler) TopicSubscribers(w http.ResponseWriter, r *http.Request) {
	h.subscribers(w, r, model.SubscriptionTypeTopic)
}

func (h *SubscriptionHandler) subscribers(w http.ResponseWriter, r *http.Request, subType model.SubscriptionType) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeValidationError(w, "IDの形式が正しくありません。")
		return
	}
	page, limit, err := parsePagination(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.Subscribers(r.Context(), id, subType, page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// UserSubscriptions はユーザーの購読先一覧を返す。
// GET /users/{id}/info/subscriptions
func (h *SubscriptionHandler) UserSubscriptions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeValidationError(w, "ユーザーIDの形式が正しくありません。")
		return
	}
	page, limit, err := parsePagination(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.Targets(r.Context(), id, page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
