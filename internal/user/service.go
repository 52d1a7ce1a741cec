// Package user はユーザープロフィールと検索のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"

	"github.com/hitoshi/epyson/internal/feed"
	"github.com/hitoshi/epyson/internal/model"
	"github.com/hitoshi/epyson/internal/repository"
)

// Profile はプロフィールのAPIレスポンス形。
// パスワードハッシュは決して含めない。
type Profile struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Avatar      string `json:"avatar"`
	Cover       string `json:"cover"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"created_at"`
}

// SearchPage はユーザー検索結果の1ページ。
type SearchPage struct {
	Data     []model.UserSearchResult `json:"data"`
	NextPage *int                     `json:"nextPage"`
}

// Service はユーザープロフィールのサービス層。
type Service struct {
	users repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(users repository.UserRepository) *Service {
	return &Service{users: users}
}

// ownProfile は本人向け（メールアドレス付き）のプロフィールを組み立てる。
func ownProfile(u *model.User) *Profile {
	p := publicProfile(u)
	p.Email = u.Email
	return p
}

// publicProfile は公開プロフィール（メールアドレスなし）を組み立てる。
func publicProfile(u *model.User) *Profile {
	return &Profile{
		ID:          u.ID,
		Name:        u.Name,
		Avatar:      u.Avatar,
		Cover:       u.Cover,
		Description: u.Description,
		CreatedAt:   u.CreatedAt,
	}
}

// Profile は本人のプロフィールを返す。
func (s *Service) Profile(ctx context.Context, userID int64) (*Profile, error) {
	u, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ownProfile(u), nil
}

// PublicProfile は公開プロフィールを返す。
func (s *Service) PublicProfile(ctx context.Context, userID int64) (*Profile, error) {
	u, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	return publicProfile(u), nil
}

func (s *Service) find(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}
	return u, nil
}

// UpdateProfile は名前と自己紹介を更新し、更新後のプロフィールを返す。
func (s *Service) UpdateProfile(ctx context.Context, userID int64, name, description string) (*Profile, error) {
	if err := s.users.UpdateProfile(ctx, userID, name, description); err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	return s.Profile(ctx, userID)
}

// UpdateAvatar はアバター画像URLを更新する。
func (s *Service) UpdateAvatar(ctx context.Context, userID int64, avatar string) (*Profile, error) {
	if err := s.users.UpdateAvatar(ctx, userID, avatar); err != nil {
		return nil, fmt.Errorf("アバターの更新に失敗しました: %w", err)
	}
	return s.Profile(ctx, userID)
}

// UpdateCover はカバー画像URLを更新する。
func (s *Service) UpdateCover(ctx context.Context, userID int64, cover string) (*Profile, error) {
	if err := s.users.UpdateCover(ctx, userID, cover); err != nil {
		return nil, fmt.Errorf("カバーの更新に失敗しました: %w", err)
	}
	return s.Profile(ctx, userID)
}

// Search は名前の部分一致でユーザーを検索し、購読者数付きで返す。
func (s *Service) Search(ctx context.Context, query string, page, limit int) (*SearchPage, error) {
	if page < 1 || limit < 1 {
		return nil, model.NewInvalidPaginationError()
	}
	count, err := s.users.CountSearch(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("検索結果数の取得に失敗しました: %w", err)
	}
	results, err := s.users.Search(ctx, query, feed.Skip(page, limit), limit)
	if err != nil {
		return nil, fmt.Errorf("ユーザー検索に失敗しました: %w", err)
	}
	return &SearchPage{Data: results, NextPage: feed.NextPage(page, count, limit)}, nil
}
