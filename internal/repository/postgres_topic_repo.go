package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/epyson/internal/model"
)

// PostgresTopicRepo はPostgreSQLを使用したトピックリポジトリ。
type PostgresTopicRepo struct {
	db *sql.DB
}

// NewPostgresTopicRepo はPostgresTopicRepoを生成する。
func NewPostgresTopicRepo(db *sql.DB) *PostgresTopicRepo {
	return &PostgresTopicRepo{db: db}
}

// Create はトピックを作成し、採番されたIDをセットする。
func (r *PostgresTopicRepo) Create(ctx context.Context, topic *model.Topic) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO topics (name, description, avatar, cover, slug)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		topic.Name, topic.Description, topic.Avatar, topic.Cover, topic.Slug,
	).Scan(&topic.ID)
	if err != nil {
		return fmt.Errorf("failed to insert topic: %w", err)
	}
	return nil
}

// FindByID は指定IDのトピックを取得する。見つからない場合はnilを返す。
func (r *PostgresTopicRepo) FindByID(ctx context.Context, id int64) (*model.Topic, error) {
	return r.findOne(ctx, `SELECT id, name, description, avatar, cover, slug FROM topics WHERE id = $1`, id)
}

// FindBySlug はスラッグでトピックを検索する。見つからない場合はnilを返す。
func (r *PostgresTopicRepo) FindBySlug(ctx context.Context, slug string) (*model.Topic, error) {
	return r.findOne(ctx, `SELECT id, name, description, avatar, cover, slug FROM topics WHERE slug = $1`, slug)
}

func (r *PostgresTopicRepo) findOne(ctx context.Context, query string, arg any) (*model.Topic, error) {
	topic := &model.Topic{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&topic.ID, &topic.Name, &topic.Description, &topic.Avatar, &topic.Cover, &topic.Slug,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find topic: %w", err)
	}
	return topic, nil
}

// ListAll は全トピックをID昇順で返す。
func (r *PostgresTopicRepo) ListAll(ctx context.Context) ([]model.Topic, error) {
	return r.list(ctx, `SELECT id, name, description, avatar, cover, slug FROM topics ORDER BY id`)
}

// List はトピックをページネーション付きで返す。
// viewerIDが非nilの場合、その閲覧者が購読しているトピックのみを返す。
func (r *PostgresTopicRepo) List(ctx context.Context, viewerID *int64, skip, limit int) ([]model.Topic, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT t.id, t.name, t.description, t.avatar, t.cover, t.slug FROM topics t`)
	args := []any{}
	if viewerID != nil {
		sb.WriteString(` INNER JOIN subscriptions s ON s.target_id = t.id AND s.type = 'topic' AND s.user_id = $1`)
		args = append(args, *viewerID)
	}
	sb.WriteString(fmt.Sprintf(` ORDER BY t.id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2))
	args = append(args, limit, skip)

	return r.list(ctx, sb.String(), args...)
}

// Count はListと同一条件のトピック総数を返す。
func (r *PostgresTopicRepo) Count(ctx context.Context, viewerID *int64) (int, error) {
	query := `SELECT COUNT(*) FROM topics`
	args := []any{}
	if viewerID != nil {
		query = `SELECT COUNT(*) FROM topics t
			INNER JOIN subscriptions s ON s.target_id = t.id AND s.type = 'topic' AND s.user_id = $1`
		args = append(args, *viewerID)
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count topics: %w", err)
	}
	return count, nil
}

func (r *PostgresTopicRepo) list(ctx context.Context, query string, args ...any) ([]model.Topic, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	topics := []model.Topic{}
	for rows.Next() {
		var t model.Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Avatar, &t.Cover, &t.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate topics: %w", err)
	}
	return topics, nil
}

// compile-time interface check
var _ TopicRepository = (*PostgresTopicRepo)(nil)
