// Package topic はトピック（コミュニティ）のドメインロジックを提供する。
package topic

import (
	"context"
	"fmt"

	"github.com/hitoshi/epyson/internal/feed"
	"github.com/hitoshi/epyson/internal/model"
	"github.com/hitoshi/epyson/internal/repository"
)

// Page はトピック一覧の1ページ。
type Page struct {
	Data     []model.Topic `json:"data"`
	NextPage *int          `json:"nextPage"`
}

// Service はトピックのサービス層。
type Service struct {
	topics repository.TopicRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(topics repository.TopicRepository) *Service {
	return &Service{topics: topics}
}

// Create はトピックを作成する。
func (s *Service) Create(ctx context.Context, topic *model.Topic) (*model.Topic, error) {
	if err := s.topics.Create(ctx, topic); err != nil {
		return nil, fmt.Errorf("トピックの作成に失敗しました: %w", err)
	}
	return topic, nil
}

// ByID は指定IDのトピックを返す。
func (s *Service) ByID(ctx context.Context, id int64) (*model.Topic, error) {
	t, err := s.topics.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("トピックの取得に失敗しました: %w", err)
	}
	if t == nil {
		return nil, model.NewTopicNotFoundError(fmt.Sprintf("%d", id))
	}
	return t, nil
}

// BySlug はスラッグでトピックを返す。
func (s *Service) BySlug(ctx context.Context, slug string) (*model.Topic, error) {
	t, err := s.topics.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("トピックの取得に失敗しました: %w", err)
	}
	if t == nil {
		return nil, model.NewTopicNotFoundError(slug)
	}
	return t, nil
}

// All は全トピックを返す。
func (s *Service) All(ctx context.Context) ([]model.Topic, error) {
	topics, err := s.topics.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("トピック一覧の取得に失敗しました: %w", err)
	}
	return topics, nil
}

// List はトピックをページネーション付きで返す。
// viewerIDが非nilの場合、その閲覧者が購読しているトピックのみを返す。
func (s *Service) List(ctx context.Context, viewerID *int64, page, limit int) (*Page, error) {
	if page < 1 || limit < 1 {
		return nil, model.NewInvalidPaginationError()
	}
	count, err := s.topics.Count(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("トピック数の取得に失敗しました: %w", err)
	}
	topics, err := s.topics.List(ctx, viewerID, feed.Skip(page, limit), limit)
	if err != nil {
		return nil, fmt.Errorf("トピック一覧の取得に失敗しました: %w", err)
	}
	return &Page{Data: topics, NextPage: feed.NextPage(page, count, limit)}, nil
}
