package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/epyson/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// Create は投稿を作成し、タグをUPSERTして紐付ける。採番されたIDをセットする。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post, tags []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO posts (title, text, attachments, author, topic_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		post.Title, post.Text, post.Attachments, post.AuthorID, post.TopicID,
		post.CreatedAt, post.UpdatedAt,
	).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	if err := attachTags(ctx, tx, post.ID, tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update は投稿のタイトル・本文・添付を更新し、タグを付け替える。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post, tags []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE posts SET title = $1, text = $2, attachments = $3, updated_at = $4 WHERE id = $5`,
		post.Title, post.Text, post.Attachments, post.UpdatedAt, post.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	// 付け替え: 既存の紐付けを外してから貼り直す。タグ本体は共有なので残す。
	_, err = tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, post.ID)
	if err != nil {
		return fmt.Errorf("failed to detach tags: %w", err)
	}
	if err := attachTags(ctx, tx, post.ID, tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// attachTags はタグをUPSERTして投稿に紐付ける。
func attachTags(ctx context.Context, tx *sql.Tx, postID int64, tags []string) error {
	for _, tag := range tags {
		var tagID int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO tags (text) VALUES ($1)
			 ON CONFLICT (text) DO UPDATE SET text = EXCLUDED.text
			 RETURNING id`,
			tag,
		).Scan(&tagID)
		if err != nil {
			return fmt.Errorf("failed to upsert tag: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)
			 ON CONFLICT ON CONSTRAINT uq_post_tags DO NOTHING`,
			postID, tagID,
		)
		if err != nil {
			return fmt.Errorf("failed to attach tag: %w", err)
		}
	}
	return nil
}

// Delete は投稿と関連レコードを削除する。
// 通知はpost_idに外部キーがないため明示的に消し、残りはCASCADEに任せる。
func (r *PostgresPostRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM notifications WHERE post_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post notifications: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewPostNotFoundError(id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FindByID は指定IDの投稿本体を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id int64) (*model.Post, error) {
	post := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, text, attachments, author, topic_id, created_at, updated_at
		 FROM posts WHERE id = $1`,
		id,
	).Scan(&post.ID, &post.Title, &post.Text, &post.Attachments, &post.AuthorID,
		&post.TopicID, &post.CreatedAt, &post.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	return post, nil
}

// FindDetailByID は投稿詳細（タグ・トピック・投稿者付き）を取得する。
func (r *PostgresPostRepo) FindDetailByID(ctx context.Context, id int64) (*model.PostDetail, error) {
	detail := &model.PostDetail{}
	var tagsJSON []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT p.id, p.title, p.text, p.attachments, p.topic_id, p.created_at, p.updated_at,
		   COALESCE(json_agg(DISTINCT jsonb_build_object('id', t.id, 'text', t.text)) FILTER (WHERE t.id IS NOT NULL), '[]') AS tags,
		   topic.id, topic.avatar, topic.name, topic.slug,
		   u.id, u.name
		 FROM posts p
		 JOIN topics topic ON topic.id = p.topic_id
		 JOIN users u ON u.id = p.author
		 LEFT JOIN post_tags pt ON p.id = pt.post_id
		 LEFT JOIN tags t ON pt.tag_id = t.id
		 WHERE p.id = $1
		 GROUP BY p.id, topic.id, u.id`,
		id,
	).Scan(&detail.ID, &detail.Title, &detail.Text, &detail.Attachments,
		&detail.TopicID, &detail.CreatedAt, &detail.UpdatedAt, &tagsJSON,
		&detail.Topic.ID, &detail.Topic.Avatar, &detail.Topic.Name, &detail.Topic.Slug,
		&detail.Author.ID, &detail.Author.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post detail: %w", err)
	}
	if err := json.Unmarshal(tagsJSON, &detail.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode post tags: %w", err)
	}
	return detail, nil
}

// RecordView は(post, ip)の閲覧を冪等に記録する。
func (r *PostgresPostRepo) RecordView(ctx context.Context, postID int64, ip string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO post_views (post_id, ip) VALUES ($1, $2)
		 ON CONFLICT ON CONSTRAINT uq_post_views DO NOTHING`,
		postID, ip,
	)
	if err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}
	return nil
}

// AddLike はいいねを冪等に記録する。新規に記録した場合はtrueを返す。
func (r *PostgresPostRepo) AddLike(ctx context.Context, postID, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)
		 ON CONFLICT ON CONSTRAINT uq_post_likes DO NOTHING`,
		postID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add like: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// RemoveLike はいいねを取り消す。取り消した場合はtrueを返す。
func (r *PostgresPostRepo) RemoveLike(ctx context.Context, postID, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`,
		postID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove like: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Info は投稿1件のエンゲージメント集計を返す。viewerIDが非nilの場合のみlikedを計算する。
func (r *PostgresPostRepo) Info(ctx context.Context, postID int64, viewerID *int64) (*model.EngagementInfo, error) {
	likedExpr := "false"
	args := []any{postID}
	likedJoin := ""
	if viewerID != nil {
		likedJoin = "LEFT JOIN post_likes pliked ON pliked.post_id = p.id AND pliked.user_id = $2"
		likedExpr = "COALESCE(bool_or(pliked.id IS NOT NULL), false)"
		args = append(args, *viewerID)
	}

	query := fmt.Sprintf(
		`SELECT COUNT(DISTINCT pl.id), COUNT(DISTINCT pv.id), COUNT(DISTINCT pc.id), %s
		 FROM posts p
		 LEFT JOIN post_likes pl ON p.id = pl.post_id
		 LEFT JOIN post_views pv ON p.id = pv.post_id
		 LEFT JOIN post_comments pc ON p.id = pc.post_id
		 %s
		 WHERE p.id = $1
		 GROUP BY p.id`,
		likedExpr, likedJoin,
	)

	info := &model.EngagementInfo{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&info.Likes, &info.Views, &info.CommentsCount, &info.Liked,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate post info: %w", err)
	}
	return info, nil
}

// Sitemap は全投稿のIDとタイムスタンプをID昇順で返す。
func (r *PostgresPostRepo) Sitemap(ctx context.Context) ([]model.SitemapEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, updated_at, created_at FROM posts ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sitemap entries: %w", err)
	}
	defer rows.Close()

	entries := []model.SitemapEntry{}
	for rows.Next() {
		var e model.SitemapEntry
		if err := rows.Scan(&e.ID, &e.UpdatedAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sitemap entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sitemap entries: %w", err)
	}
	return entries, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
