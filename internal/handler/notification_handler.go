package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/epyson/internal/middleware"
	"github.com/hitoshi/epyson/internal/notification"
)

// NotificationServiceInterface は通知ハンドラーが必要とするサービスインターフェース。
type NotificationServiceInterface interface {
	// List は通知一覧を返し、返却後に未読を既読化する。
	List(ctx context.Context, recipientID int64, page, limit int) (*notification.Page, error)
	// UnreadCount は未読通知数を返す。
	UnreadCount(ctx context.Context, recipientID int64) (*notification.Info, error)
}

// NotificationHandler は通知のHTTPハンドラー。全エンドポイントで認証必須。
type NotificationHandler struct {
	service NotificationServiceInterface
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List は通知一覧を返す。返却された未読通知は既読になる。
// GET /notifications?page&limit
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}
	page, limit, err := parsePagination(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.List(r.Context(), userID, page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Info は未読通知数を返す。
// GET /notifications/info
func (h *NotificationHandler) Info(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	info, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
