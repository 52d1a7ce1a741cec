package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// defaultTelegramEndpoint はTelegram Bot APIのベースURL。
const defaultTelegramEndpoint = "https://api.telegram.org"

// TelegramClient はコンテンツ通報をTelegramボットへ転送するクライアント。
type TelegramClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string // テスト用にエンドポイントを差し替え可能
	botToken   string
	chatID     string
}

// NewTelegramClient はTelegramClientの新しいインスタンスを生成する。
func NewTelegramClient(httpClient *http.Client, logger *slog.Logger, botToken, chatID string) *TelegramClient {
	return &TelegramClient{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   defaultTelegramEndpoint,
		botToken:   botToken,
		chatID:     chatID,
	}
}

// SendComplaint は投稿への通報をモデレーション用チャットへ送信する。
func (c *TelegramClient) SendComplaint(ctx context.Context, postURL, reason string) error {
	text := fmt.Sprintf("通報がありました\n対象: %s\n理由: %s", postURL, reason)

	payload, err := json.Marshal(map[string]string{
		"chat_id": c.chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("リクエストボディの構築に失敗しました: %w", err)
	}

	reqURL := fmt.Sprintf("%s/bot%s/sendMessage", c.endpoint, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Telegram APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Telegram APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return fmt.Errorf("Telegram APIがステータス %d を返しました", resp.StatusCode)
	}

	return nil
}
