package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/epyson/internal/feed"
	"github.com/hitoshi/epyson/internal/model"
)

// PostgresFeedRepo はフィードクエリの実行リポジトリ。
// SQLの構築はfeedパッケージのビルダーに委譲し、ここでは実行とスキャンのみを行う。
type PostgresFeedRepo struct {
	db *sql.DB
}

// NewPostgresFeedRepo はPostgresFeedRepoを生成する。
func NewPostgresFeedRepo(db *sql.DB) *PostgresFeedRepo {
	return &PostgresFeedRepo{db: db}
}

// ListPosts はクエリ記述子に対応するページの投稿を注釈付きで返す。
// スキャン順はfeed.BuildSelectの列順に一致する:
// 投稿本体(7列)、エンゲージメント(4列)、タグJSON(1列)、トピック(4列)、投稿者(2列)。
func (r *PostgresFeedRepo) ListPosts(ctx context.Context, q feed.Query) ([]model.FeedPost, error) {
	query, args := feed.BuildSelect(q)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed page: %w", err)
	}
	defer rows.Close()

	posts := []model.FeedPost{}
	for rows.Next() {
		var p model.FeedPost
		var tagsJSON []byte
		err := rows.Scan(
			&p.ID, &p.Title, &p.Text, &p.Attachments, &p.TopicID, &p.CreatedAt, &p.UpdatedAt,
			&p.Info.Likes, &p.Info.Views, &p.Info.CommentsCount, &p.Info.Liked,
			&tagsJSON,
			&p.Topic.ID, &p.Topic.Avatar, &p.Topic.Name, &p.Topic.Slug,
			&p.Author.ID, &p.Author.Name,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed post: %w", err)
		}
		if err := json.Unmarshal(tagsJSON, &p.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode feed post tags: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feed posts: %w", err)
	}
	return posts, nil
}

// CountPosts は同一スコープの候補総数を返す。
func (r *PostgresFeedRepo) CountPosts(ctx context.Context, q feed.Query) (int, error) {
	query, args := feed.BuildCount(q)
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count feed posts: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ feed.Store = (*PostgresFeedRepo)(nil)
