// Package subscription は購読管理のドメインロジックを提供する。
// ユーザー購読とトピック購読のトグル、購読者・購読先の集計と一覧を扱う。
package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/epyson/internal/feed"
	"github.com/hitoshi/epyson/internal/model"
	"github.com/hitoshi/epyson/internal/repository"
)

// Metrics は通知生成の計測インターフェース。
type Metrics interface {
	RecordNotificationSent(notificationType string)
}

// TargetInfo は購読対象の集計情報。
type TargetInfo struct {
	Subscribers   int  `json:"subscribers"`
	Subscriptions int  `json:"subscriptions,omitempty"`
	IsSubscribed  bool `json:"isSubscribed"`
}

// Service は購読管理のサービス層。
type Service struct {
	subs          repository.SubscriptionRepository
	users         repository.UserRepository
	topics        repository.TopicRepository
	notifications repository.NotificationRepository
	metrics       Metrics
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnil可。
func NewService(
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	topics repository.TopicRepository,
	notifications repository.NotificationRepository,
	metrics Metrics,
) *Service {
	return &Service{
		subs:          subs,
		users:         users,
		topics:        topics,
		notifications: notifications,
		metrics:       metrics,
	}
}

// SubscribeUser はユーザーへの購読を冪等に作成する。
// 新規購読の場合のみsubscribe通知を生成する。自分自身への購読は拒否する。
func (s *Service) SubscribeUser(ctx context.Context, userID, targetID int64) error {
	if userID == targetID {
		return model.NewForbiddenError()
	}

	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("購読対象ユーザーの取得に失敗しました: %w", err)
	}
	if target == nil {
		return model.NewUserNotFoundError()
	}

	created, err := s.subs.Subscribe(ctx, userID, targetID, model.SubscriptionTypeUser)
	if err != nil {
		return fmt.Errorf("購読の作成に失敗しました: %w", err)
	}
	if created {
		n := &model.Notification{
			SenderID:    userID,
			RecipientID: targetID,
			Type:        model.NotificationTypeSubscribe,
			CreatedAt:   time.Now().Unix(),
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			return fmt.Errorf("購読通知の作成に失敗しました: %w", err)
		}
		if s.metrics != nil {
			s.metrics.RecordNotificationSent(string(model.NotificationTypeSubscribe))
		}
	}
	return nil
}

// UnsubscribeUser はユーザーへの購読を解除する。
// 実際に解除された場合のみ対応するsubscribe通知を取り下げる。
func (s *Service) UnsubscribeUser(ctx context.Context, userID, targetID int64) error {
	removed, err := s.subs.Unsubscribe(ctx, userID, targetID, model.SubscriptionTypeUser)
	if err != nil {
		return fmt.Errorf("購読の解除に失敗しました: %w", err)
	}
	if removed {
		if err := s.notifications.Retract(ctx, userID, targetID, model.NotificationTypeSubscribe, nil); err != nil {
			return fmt.Errorf("購読通知の取り下げに失敗しました: %w", err)
		}
	}
	return nil
}

// SubscribeTopic はトピックへの購読を冪等に作成する。
// トピックは通知の受信者にならないため、通知は生成しない。
func (s *Service) SubscribeTopic(ctx context.Context, userID, topicID int64) error {
	topic, err := s.topics.FindByID(ctx, topicID)
	if err != nil {
		return fmt.Errorf("購読対象トピックの取得に失敗しました: %w", err)
	}
	if topic == nil {
		return model.NewTopicNotFoundError(fmt.Sprintf("%d", topicID))
	}

	if _, err := s.subs.Subscribe(ctx, userID, topicID, model.SubscriptionTypeTopic); err != nil {
		return fmt.Errorf("購読の作成に失敗しました: %w", err)
	}
	return nil
}

// UnsubscribeTopic はトピックへの購読を解除する。
func (s *Service) UnsubscribeTopic(ctx context.Context, userID, topicID int64) error {
	if _, err := s.subs.Unsubscribe(ctx, userID, topicID, model.SubscriptionTypeTopic); err != nil {
		return fmt.Errorf("購読の解除に失敗しました: %w", err)
	}
	return nil
}

// UserInfo はユーザーの購読者数・購読数と、閲覧者の購読状態を返す。
func (s *Service) UserInfo(ctx context.Context, targetID int64, viewerID *int64) (*TargetInfo, error) {
	subscribers, err := s.subs.CountSubscribers(ctx, targetID, model.SubscriptionTypeUser)
	if err != nil {
		return nil, fmt.Errorf("購読者数の取得に失敗しました: %w", err)
	}
	subscriptions, err := s.subs.CountSubscriptionsByUser(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("購読数の取得に失敗しました: %w", err)
	}

	info := &TargetInfo{Subscribers: subscribers, Subscriptions: subscriptions}
	if viewerID != nil {
		info.IsSubscribed, err = s.subs.Exists(ctx, *viewerID, targetID, model.SubscriptionTypeUser)
		if err != nil {
			return nil, fmt.Errorf("購読状態の確認に失敗しました: %w", err)
		}
	}
	return info, nil
}

// TopicInfo はトピックの購読者数と、閲覧者の購読状態を返す。
func (s *Service) TopicInfo(ctx context.Context, topicID int64, viewerID *int64) (*TargetInfo, error) {
	subscribers, err := s.subs.CountSubscribers(ctx, topicID, model.SubscriptionTypeTopic)
	if err != nil {
		return nil, fmt.Errorf("購読者数の取得に失敗しました: %w", err)
	}

	info := &TargetInfo{Subscribers: subscribers}
	if viewerID != nil {
		info.IsSubscribed, err = s.subs.Exists(ctx, *viewerID, topicID, model.SubscriptionTypeTopic)
		if err != nil {
			return nil, fmt.Errorf("購読状態の確認に失敗しました: %w", err)
		}
	}
	return info, nil
}

// SubscriberPage は購読者一覧の1ページ。
type SubscriberPage struct {
	Data     []model.Subscriber `json:"data"`
	NextPage *int               `json:"nextPage"`
}

// Subscribers は対象の購読者一覧をページネーション付きで返す。
func (s *Service) Subscribers(ctx context.Context, targetID int64, subType model.SubscriptionType, page, limit int) (*SubscriberPage, error) {
	if page < 1 || limit < 1 {
		return nil, model.NewInvalidPaginationError()
	}
	count, err := s.subs.CountSubscribers(ctx, targetID, subType)
	if err != nil {
		return nil, fmt.Errorf("購読者数の取得に失敗しました: %w", err)
	}
	subscribers, err := s.subs.ListSubscribers(ctx, targetID, subType, feed.Skip(page, limit), limit)
	if err != nil {
		return nil, fmt.Errorf("購読者一覧の取得に失敗しました: %w", err)
	}
	return &SubscriberPage{Data: subscribers, NextPage: feed.NextPage(page, count, limit)}, nil
}

// TargetPage は購読先一覧の1ページ。
type TargetPage struct {
	Data     []model.SubscriptionTarget `json:"data"`
	NextPage *int                       `json:"nextPage"`
}

// Targets はユーザーの購読先一覧（ユーザーとトピックを統合）を返す。
func (s *Service) Targets(ctx context.Context, userID int64, page, limit int) (*TargetPage, error) {
	if page < 1 || limit < 1 {
		return nil, model.NewInvalidPaginationError()
	}
	count, err := s.subs.CountSubscriptionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("購読数の取得に失敗しました: %w", err)
	}
	targets, err := s.subs.ListTargetsByUser(ctx, userID, feed.Skip(page, limit), limit)
	if err != nil {
		return nil, fmt.Errorf("購読先一覧の取得に失敗しました: %w", err)
	}
	return &TargetPage{Data: targets, NextPage: feed.NextPage(page, count, limit)}, nil
}
