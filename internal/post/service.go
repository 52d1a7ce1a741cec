// Package post は投稿のドメインロジック（作成・編集・削除・閲覧記録・いいね）を提供する。
package post

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/epyson/internal/model"
	"github.com/hitoshi/epyson/internal/repository"
	"github.com/hitoshi/epyson/internal/security"
)

const (
	titleMaxLength = 500
	textMinLength  = 2
	textMaxLength  = 2499

	pingTimeout = 10 * time.Second
)

// IndexPinger は検索エンジンへのインデックス通知クライアントのインターフェース。
type IndexPinger interface {
	Ping(ctx context.Context, pageURL string) error
}

// Metrics は投稿サービスが記録するメトリクスのインターフェース。
type Metrics interface {
	RecordNotificationSent(notificationType string)
	RecordOutboundFailure(collaborator string)
}

// Input は投稿の作成・更新リクエストの本体。
type Input struct {
	Title       string
	Text        string
	Attachments json.RawMessage
	TopicID     int64
	Tags        []string
}

// Service は投稿のサービス層。
// pinger・metricsはnil許容で、nilの場合は単に何もしない。
type Service struct {
	posts         repository.PostRepository
	notifications repository.NotificationRepository
	sanitizer     security.ContentSanitizerService
	pinger        IndexPinger
	metrics       Metrics
	logger        *slog.Logger
	clientDomain  string
	now           func() int64
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	posts repository.PostRepository,
	notifications repository.NotificationRepository,
	sanitizer security.ContentSanitizerService,
	pinger IndexPinger,
	metrics Metrics,
	logger *slog.Logger,
	clientDomain string,
) *Service {
	return &Service{
		posts:         posts,
		notifications: notifications,
		sanitizer:     sanitizer,
		pinger:        pinger,
		metrics:       metrics,
		logger:        logger,
		clientDomain:  clientDomain,
		now:           func() int64 { return time.Now().Unix() },
	}
}

// validate は投稿本文の長さ制約を検証する。
// 本文長はHTMLタグを除去した可視テキストで数える。
func (s *Service) validate(input *Input) error {
	titleLen := utf8.RuneCountInString(input.Title)
	if titleLen < 1 || titleLen > titleMaxLength {
		return model.NewTitleLengthError()
	}
	textLen := s.sanitizer.StripLength(input.Text)
	if textLen < textMinLength || textLen > textMaxLength {
		return model.NewTextLengthError()
	}
	return nil
}

// Create は投稿を作成し、作成後の詳細を返す。
func (s *Service) Create(ctx context.Context, authorID int64, input *Input) (*model.PostDetail, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	now := s.now()
	p := &model.Post{
		Title:       input.Title,
		Text:        s.sanitizer.Sanitize(input.Text),
		Attachments: input.Attachments,
		AuthorID:    authorID,
		TopicID:     input.TopicID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.posts.Create(ctx, p, input.Tags); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}
	s.pingIndex(p.ID)
	return s.Detail(ctx, p.ID, "")
}

// Update は投稿を更新する。投稿者本人以外からの更新は拒否する。
func (s *Service) Update(ctx context.Context, userID, postID int64, input *Input) (*model.PostDetail, error) {
	p, err := s.findOwned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(input); err != nil {
		return nil, err
	}
	p.Title = input.Title
	p.Text = s.sanitizer.Sanitize(input.Text)
	p.Attachments = input.Attachments
	p.UpdatedAt = s.now()
	if err := s.posts.Update(ctx, p, input.Tags); err != nil {
		return nil, fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}
	s.pingIndex(postID)
	return s.Detail(ctx, postID, "")
}

// Delete は投稿と関連レコードを削除する。投稿者本人以外からの削除は拒否する。
func (s *Service) Delete(ctx context.Context, userID, postID int64) error {
	if _, err := s.findOwned(ctx, userID, postID); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	s.pingIndex(postID)
	return nil
}

func (s *Service) findOwned(ctx context.Context, userID, postID int64) (*model.Post, error) {
	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	if p.AuthorID != userID {
		return nil, model.NewForbiddenError()
	}
	return p, nil
}

// Detail は投稿詳細を返し、ipが空でなければ(post, ip)の閲覧を冪等に記録する。
// 閲覧記録の失敗はレスポンスに影響させない。
func (s *Service) Detail(ctx context.Context, postID int64, ip string) (*model.PostDetail, error) {
	detail, err := s.posts.FindDetailByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if detail == nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	if ip != "" {
		if err := s.posts.RecordView(ctx, postID, ip); err != nil {
			s.logger.Warn("failed to record post view", "post_id", postID, "error", err)
		}
	}
	return detail, nil
}

// Info は投稿1件のエンゲージメント集計を返す。
func (s *Service) Info(ctx context.Context, postID int64, viewerID *int64) (*model.EngagementInfo, error) {
	info, err := s.posts.Info(ctx, postID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("エンゲージメントの取得に失敗しました: %w", err)
	}
	if info == nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	return info, nil
}

// React はいいねの付与・取消を冪等に処理し、更新後の集計を返す。
// 新規のいいねは投稿者への通知を生成し、取消は対応する通知を取り下げる。
// 自分の投稿へのいいねは通知しない。
func (s *Service) React(ctx context.Context, userID, postID int64, like bool) (*model.EngagementInfo, error) {
	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	if like {
		created, err := s.posts.AddLike(ctx, postID, userID)
		if err != nil {
			return nil, fmt.Errorf("いいねの記録に失敗しました: %w", err)
		}
		if created && p.AuthorID != userID {
			s.notifyLike(ctx, userID, p.AuthorID, postID)
		}
	} else {
		removed, err := s.posts.RemoveLike(ctx, postID, userID)
		if err != nil {
			return nil, fmt.Errorf("いいねの取消に失敗しました: %w", err)
		}
		if removed && p.AuthorID != userID {
			if err := s.notifications.Retract(ctx, userID, p.AuthorID, model.NotificationTypeLike, &postID); err != nil {
				s.logger.Warn("failed to retract like notification", "post_id", postID, "error", err)
			}
		}
	}
	return s.Info(ctx, postID, &userID)
}

func (s *Service) notifyLike(ctx context.Context, senderID, recipientID, postID int64) {
	n := &model.Notification{
		SenderID:    senderID,
		RecipientID: recipientID,
		Type:        model.NotificationTypeLike,
		PostID:      &postID,
		CreatedAt:   s.now(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.logger.Warn("failed to create like notification", "post_id", postID, "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordNotificationSent(string(model.NotificationTypeLike))
	}
}

// Sitemap は全投稿のIDとタイムスタンプを返す。
func (s *Service) Sitemap(ctx context.Context) ([]model.SitemapEntry, error) {
	entries, err := s.posts.Sitemap(ctx)
	if err != nil {
		return nil, fmt.Errorf("サイトマップの取得に失敗しました: %w", err)
	}
	return entries, nil
}

// pingIndex は投稿ページのインデックス通知を非同期に送る。
// 失敗はログとメトリクスに残すのみで、呼び出し元のリクエストは失敗させない。
func (s *Service) pingIndex(postID int64) {
	if s.pinger == nil {
		return
	}
	pageURL := fmt.Sprintf("%s/post/%d", s.clientDomain, postID)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		if err := s.pinger.Ping(ctx, pageURL); err != nil {
			s.logger.Warn("failed to ping index", "url", pageURL, "error", err)
			if s.metrics != nil {
				s.metrics.RecordOutboundFailure("indexnow")
			}
		}
	}()
}
