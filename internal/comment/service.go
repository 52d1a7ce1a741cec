// Package comment はコメントのドメインロジック（作成・返信・削除・通知ファンアウト）を提供する。
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/epyson/internal/feed"
	"github.com/hitoshi/epyson/internal/model"
	"github.com/hitoshi/epyson/internal/repository"
	"github.com/hitoshi/epyson/internal/security"
)

// Metrics はコメントサービスが記録するメトリクスのインターフェース。
type Metrics interface {
	RecordNotificationSent(notificationType string)
}

// Page はトップレベルコメント一覧の1ページ。
// nextPageではなく総ページ数を返す。
type Page struct {
	Data  []model.CommentWithAuthor `json:"data"`
	Pages int                       `json:"pages"`
}

// Service はコメントのサービス層。metricsはnil許容。
type Service struct {
	comments      repository.CommentRepository
	posts         repository.PostRepository
	notifications repository.NotificationRepository
	sanitizer     security.ContentSanitizerService
	metrics       Metrics
	logger        *slog.Logger
	now           func() int64
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	notifications repository.NotificationRepository,
	sanitizer security.ContentSanitizerService,
	metrics Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		comments:      comments,
		posts:         posts,
		notifications: notifications,
		sanitizer:     sanitizer,
		metrics:       metrics,
		logger:        logger,
		now:           func() int64 { return time.Now().Unix() },
	}
}

// Create はコメントまたは返信を作成する。
// トップレベルコメントは投稿者へ、返信は親コメントの投稿者へ通知する。
// 自分への通知はスキップする。
func (s *Service) Create(ctx context.Context, userID, postID int64, parentID *int64, text string) (*model.CommentWithAuthor, error) {
	if s.sanitizer.StripLength(text) == 0 {
		return nil, model.NewEmptyCommentError()
	}
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(postID)
	}

	// 返信の場合は親コメントが同じ投稿に属することを確認する
	var parent *model.CommentWithAuthor
	if parentID != nil {
		parent, err = s.comments.FindByID(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("親コメントの取得に失敗しました: %w", err)
		}
		if parent == nil || parent.PostID != postID {
			return nil, model.NewCommentNotFoundError(*parentID)
		}
	}

	c := &model.Comment{
		PostID:    postID,
		ParentID:  parentID,
		UserID:    userID,
		Text:      s.sanitizer.Sanitize(text),
		CreatedAt: s.now(),
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}

	if parent != nil {
		s.notify(ctx, userID, parent.UserID, model.NotificationTypeReplyComment, postID, c.ID)
	} else {
		s.notify(ctx, userID, post.AuthorID, model.NotificationTypeComment, postID, c.ID)
	}

	created, err := s.comments.FindByID(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	return created, nil
}

func (s *Service) notify(ctx context.Context, senderID, recipientID int64, nType model.NotificationType, postID, commentID int64) {
	if senderID == recipientID {
		return
	}
	n := &model.Notification{
		SenderID:    senderID,
		RecipientID: recipientID,
		Type:        nType,
		PostID:      &postID,
		CommentID:   &commentID,
		CreatedAt:   s.now(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.logger.Warn("failed to create comment notification", "comment_id", commentID, "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordNotificationSent(string(nType))
	}
}

// List は投稿のトップレベルコメントを指定の並び順でページネーション付きで返す。
func (s *Service) List(ctx context.Context, postID int64, page, limit int, order model.CommentOrder) (*Page, error) {
	if page < 1 || limit < 1 {
		return nil, model.NewInvalidPaginationError()
	}
	count, err := s.comments.CountTopLevel(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("コメント数の取得に失敗しました: %w", err)
	}
	comments, err := s.comments.ListTopLevel(ctx, postID, feed.Skip(page, limit), limit, order)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return &Page{Data: comments, Pages: feed.TotalPages(count, limit)}, nil
}

// Replies は投稿の全返信コメントを返す。
func (s *Service) Replies(ctx context.Context, postID int64) ([]model.CommentWithAuthor, error) {
	replies, err := s.comments.ListReplies(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("返信一覧の取得に失敗しました: %w", err)
	}
	return replies, nil
}

// Get は指定IDのコメントを返す。
func (s *Service) Get(ctx context.Context, commentID int64) (*model.CommentWithAuthor, error) {
	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewCommentNotFoundError(commentID)
	}
	return c, nil
}

// Delete はコメントとその返信サブツリー全体を削除する。
// コメントの投稿者本人以外からの削除は拒否する。
// サブツリーに紐づく通知はコメント本体より先に削除する。
func (s *Service) Delete(ctx context.Context, userID, commentID int64) error {
	c, err := s.Get(ctx, commentID)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return model.NewForbiddenError()
	}
	if err := s.notifications.DeleteByCommentSubtree(ctx, commentID); err != nil {
		return fmt.Errorf("コメント通知の削除に失敗しました: %w", err)
	}
	if err := s.comments.DeleteSubtree(ctx, commentID); err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	return nil
}
