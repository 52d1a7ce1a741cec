package middleware

import (
	"net/http"
	"strconv"

	"github.com/hitoshi/epyson/internal/model"
)

// NewPageSizeLimitMiddleware はlimitクエリパラメータの上限を強制するミドルウェアを返す。
// 上限超過は400で拒否する。limitの欠落や非数値はここでは扱わず、
// 各ハンドラーのページネーション検証に委ねる。
// maxPageSizeが0以下の場合は何も制限しない。
func NewPageSizeLimitMiddleware(maxPageSize int) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxPageSize <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := r.URL.Query().Get("limit"); raw != "" {
				if limit, err := strconv.Atoi(raw); err == nil && limit > maxPageSize {
					WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidPaginationError())
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
