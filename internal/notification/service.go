// Package notification は通知一覧と既読管理のドメインロジックを提供する。
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/epyson/internal/feed"
	"github.com/hitoshi/epyson/internal/model"
	"github.com/hitoshi/epyson/internal/repository"
)

// Page は通知一覧の1ページ。
type Page struct {
	Data     []model.NotificationWithSender `json:"data"`
	NextPage *int                           `json:"nextPage"`
}

// Info は未読通知数のレスポンス。
type Info struct {
	Unread int `json:"unread"`
}

// Service は通知のサービス層。
type Service struct {
	notifications repository.NotificationRepository
	logger        *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(notifications repository.NotificationRepository, logger *slog.Logger) *Service {
	return &Service{notifications: notifications, logger: logger}
}

// List は受信者の通知をページネーション付きで返し、返却後に未読を既読化する。
// 既読化は受信者の未読行に限定される。失敗してもレスポンスは返す。
func (s *Service) List(ctx context.Context, recipientID int64, page, limit int) (*Page, error) {
	if page < 1 || limit < 1 {
		return nil, model.NewInvalidPaginationError()
	}
	count, err := s.notifications.CountByRecipient(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("通知数の取得に失敗しました: %w", err)
	}
	notifications, err := s.notifications.ListByRecipient(ctx, recipientID, feed.Skip(page, limit), limit)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗しました: %w", err)
	}
	if err := s.notifications.MarkReadByRecipient(ctx, recipientID); err != nil {
		s.logger.Warn("failed to mark notifications read", "recipient_id", recipientID, "error", err)
	}
	return &Page{Data: notifications, NextPage: feed.NextPage(page, count, limit)}, nil
}

// UnreadCount は受信者の未読通知数を返す。
func (s *Service) UnreadCount(ctx context.Context, recipientID int64) (*Info, error) {
	unread, err := s.notifications.CountUnreadByRecipient(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("未読通知数の取得に失敗しました: %w", err)
	}
	return &Info{Unread: unread}, nil
}
