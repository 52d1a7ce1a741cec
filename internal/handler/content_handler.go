package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const complaintTimeout = 10 * time.Second

// ComplaintReporter は通報の外部送信インターフェース。
type ComplaintReporter interface {
	// SendComplaint は通報対象URLと理由を外部に中継する。
	SendComplaint(ctx context.Context, postURL, reason string) error
}

// ContentMetrics はコンテンツハンドラーが記録するメトリクスのインターフェース。
type ContentMetrics interface {
	RecordOutboundFailure(collaborator string)
}

// ContentHandler はコンテンツ通報のHTTPハンドラー。
type ContentHandler struct {
	reporter ComplaintReporter
	metrics  ContentMetrics
	logger   *slog.Logger
}

// NewContentHandler はContentHandlerを生成する。metricsはnil可。
func NewContentHandler(reporter ComplaintReporter, metrics ContentMetrics, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{reporter: reporter, metrics: metrics, logger: logger}
}

type complaintRequest struct {
	Content string `json:"content"`
	Reason  string `json:"reason"`
}

// Complaint は通報を受け付け、外部連携は非同期に行う。
// 外部送信の失敗はログとメトリクスに残すのみで、リクエストは常に成功する。
// POST /content/complaint
func (h *ContentHandler) Complaint(w http.ResponseWriter, r *http.Request) {
	var req complaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "リクエスト形式が正しくありません。")
		return
	}
	if req.Content == "" || req.Reason == "" {
		writeValidationError(w, "通報対象と理由を指定してください。")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), complaintTimeout)
		defer cancel()
		if err := h.reporter.SendComplaint(ctx, req.Content, req.Reason); err != nil {
			h.logger.Warn("failed to relay complaint", "error", err)
			if h.metrics != nil {
				h.metrics.RecordOutboundFailure("telegram")
			}
		}
	}()

	w.WriteHeader(http.StatusOK)
}
