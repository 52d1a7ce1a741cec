// Package notify は外部コラボレーターへの送信クライアントを提供する。
// 検索エンジンへのIndexNow通知、Telegramへの通報転送、確認メール送信を含む。
// いずれも本体処理の成否に影響しないfire-and-forget呼び出しとして使われる。
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// defaultIndexNowEndpoint はIndexNow APIのエンドポイント。
const defaultIndexNowEndpoint = "https://api.indexnow.org/indexnow"

// IndexNowClient は新規投稿のURLを検索エンジンに通知するクライアント。
type IndexNowClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string // テスト用にエンドポイントを差し替え可能
	key        string
	host       string
}

// NewIndexNowClient はIndexNowClientの新しいインスタンスを生成する。
// keyはIndexNowの検証キー、hostは公開サイトのホスト名。
func NewIndexNowClient(httpClient *http.Client, logger *slog.Logger, key, host string) *IndexNowClient {
	return &IndexNowClient{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   defaultIndexNowEndpoint,
		key:        key,
		host:       host,
	}
}

// Ping は指定URLのインデックス更新を通知する。
// 失敗しても投稿処理には影響しない（呼び出し元はログだけ残す）。
func (c *IndexNowClient) Ping(ctx context.Context, pageURL string) error {
	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}

	q := reqURL.Query()
	q.Set("url", pageURL)
	q.Set("key", c.key)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("IndexNow APIの呼び出しに失敗しました",
			slog.String("url", pageURL),
			slog.String("error", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.logger.Warn("IndexNow APIがエラーステータスを返しました",
			slog.String("url", pageURL),
			slog.Int("http_status", resp.StatusCode),
		)
		return fmt.Errorf("IndexNow APIがステータス %d を返しました", resp.StatusCode)
	}

	return nil
}
