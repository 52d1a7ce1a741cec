package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/epyson/internal/model"
)

// Store はフィードクエリの実行インターフェース。
// repository.PostgresFeedRepoがBuildSelect/BuildCountの出力を実行して実装する。
type Store interface {
	// ListPosts はクエリ記述子に対応するページの投稿を注釈付きで返す。
	ListPosts(ctx context.Context, q Query) ([]model.FeedPost, error)
	// CountPosts は同一スコープの候補総数を返す。
	CountPosts(ctx context.Context, q Query) (int, error)
}

// Metrics はフィードクエリの計測インターフェース。
// metrics.CollectorがPrometheusへの記録で実装する。
type Metrics interface {
	RecordFeedQuery(scope, policy string, duration time.Duration)
}

// Page はフィードの1ページを表す。
// NextPageは次ページが存在しない場合にnullとしてシリアライズされる。
type Page struct {
	Data     []model.FeedPost `json:"data"`
	NextPage *int             `json:"nextPage"`
}

// Service はフィード組み立てのサービス層。
// リクエストごとに状態を持たず、ストアへの読み取りのみを発行する。
type Service struct {
	store         Store
	defaultWindow time.Duration
	metrics       Metrics
}

// NewService はServiceを生成する。
// defaultWindowはpopularランキングのデフォルト対象期間。
// metricsはnil可（計測なし）。
func NewService(store Store, defaultWindow time.Duration, metrics Metrics) *Service {
	return &Service{
		store:         store,
		defaultWindow: defaultWindow,
		metrics:       metrics,
	}
}

// Fetch はフィードの1ページを組み立てる。
//
// 前提条件: q.Page >= 1, q.Limit >= 1（ハンドラーでバリデーション済み）。
// 認証済み閲覧者を必要とするスコープに匿名閲覧者が来た場合は
// エラーではなく空ページを返す。候補が存在しない場合も空ページ。
// ストア障害はそのまま伝播し、部分的なページは決して返さない。
func (s *Service) Fetch(ctx context.Context, q Query) (*Page, error) {
	if q.Page < 1 || q.Limit < 1 {
		return nil, model.NewInvalidPaginationError()
	}

	if q.Policy == PolicyPopular && q.Window == 0 {
		q.Window = s.defaultWindow
	}

	// 匿名閲覧者の購読スコープはクエリを発行せずに空ページへ縮退する。
	if _, ok := q.Viewer.UserID(); !ok && q.Scope.RequiresViewer() {
		return emptyPage(), nil
	}

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordFeedQuery(q.Scope.Kind.String(), string(q.Policy), time.Since(start))
		}
	}()

	count, err := s.store.CountPosts(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("フィード候補数の取得に失敗しました: %w", err)
	}
	if count == 0 {
		return emptyPage(), nil
	}

	posts, err := s.store.ListPosts(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("フィードページの取得に失敗しました: %w", err)
	}
	if posts == nil {
		posts = []model.FeedPost{}
	}

	return &Page{
		Data:     posts,
		NextPage: NextPage(q.Page, count, q.Limit),
	}, nil
}

func emptyPage() *Page {
	return &Page{Data: []model.FeedPost{}, NextPage: nil}
}
