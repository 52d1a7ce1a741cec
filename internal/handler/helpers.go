// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/epyson/internal/feed"
	"github.com/hitoshi/epyson/internal/middleware"
	"github.com/hitoshi/epyson/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeAPIErrorResponse はAPIErrorを統一フォーマットで書き込む。
// フォーマットはミドルウェア層のErrorResponseBodyに一本化している。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// writeUnauthorized は認証必須エンドポイントの未認証レスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// writeValidationError はリクエストバリデーションエラーを書き込む。
func writeValidationError(w http.ResponseWriter, message string) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "VALIDATION_ERROR",
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidPagination, model.ErrCodeInvalidFilter,
		model.ErrCodeTextLength, model.ErrCodeTitleLength,
		model.ErrCodeInvalidCredentials:
		return http.StatusBadRequest
	case model.ErrCodeInvalidToken:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodePostNotFound, model.ErrCodeTopicNotFound,
		model.ErrCodeCommentNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateEmail:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// parsePagination はpage/limitクエリパラメータを解析する。
// いずれかが欠落または正の整数でない場合はエラー。
func parsePagination(r *http.Request) (page, limit int, err error) {
	page, err = strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 0, 0, model.NewInvalidPaginationError()
	}
	limit, err = strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		return 0, 0, model.NewInvalidPaginationError()
	}
	return page, limit, nil
}

// urlParam はURLパスパラメータを返す。
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// parseIDParam はURLパスの数値IDパラメータを解析する。
func parseIDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// viewerFromRequest はリクエストコンテキストからフィードの閲覧者を構成する。
func viewerFromRequest(r *http.Request) feed.Viewer {
	if userID, err := middleware.UserIDFromContext(r.Context()); err == nil {
		return feed.Identified(userID)
	}
	return feed.Anonymous()
}

// optionalViewerID はリクエストコンテキストから閲覧者IDを取り出す。匿名はnil。
func optionalViewerID(r *http.Request) *int64 {
	if userID, err := middleware.UserIDFromContext(r.Context()); err == nil {
		return &userID
	}
	return nil
}

// clientIP はリクエスト元のIPアドレスを返す。
// リバースプロキシ配下を想定しX-Real-IPを優先する。
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
