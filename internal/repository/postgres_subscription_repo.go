package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/epyson/internal/model"
)

// PostgresSubscriptionRepo はPostgreSQLを使用した購読リポジトリ。
type PostgresSubscriptionRepo struct {
	db *sql.DB
}

// NewPostgresSubscriptionRepo はPostgresSubscriptionRepoを生成する。
func NewPostgresSubscriptionRepo(db *sql.DB) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{db: db}
}

// Subscribe は購読を冪等に作成する。新規に作成した場合はtrueを返す。
// 重複は一意制約とON CONFLICT DO NOTHINGで吸収する。
func (r *PostgresSubscriptionRepo) Subscribe(ctx context.Context, userID, targetID int64, subType model.SubscriptionType) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (user_id, target_id, type, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT ON CONSTRAINT uq_subscriptions DO NOTHING`,
		userID, targetID, string(subType), time.Now().Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to subscribe: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Unsubscribe は購読を解除する。解除した場合はtrueを返す。
func (r *PostgresSubscriptionRepo) Unsubscribe(ctx context.Context, userID, targetID int64, subType model.SubscriptionType) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE user_id = $1 AND target_id = $2 AND type = $3`,
		userID, targetID, string(subType),
	)
	if err != nil {
		return false, fmt.Errorf("failed to unsubscribe: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Exists は購読関係が存在するかを返す。
func (r *PostgresSubscriptionRepo) Exists(ctx context.Context, userID, targetID int64, subType model.SubscriptionType) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM subscriptions WHERE user_id = $1 AND target_id = $2 AND type = $3
		 )`,
		userID, targetID, string(subType),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}
	return exists, nil
}

// CountSubscribers は対象の購読者数を返す。
func (r *PostgresSubscriptionRepo) CountSubscribers(ctx context.Context, targetID int64, subType model.SubscriptionType) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE target_id = $1 AND type = $2`,
		targetID, string(subType),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}
	return count, nil
}

// CountSubscriptionsByUser はユーザーの購読数（ユーザー・トピック合算）を返す。
func (r *PostgresSubscriptionRepo) CountSubscriptionsByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	return count, nil
}

// ListSubscribers は対象の購読者一覧をページネーション付きで返す。
func (r *PostgresSubscriptionRepo) ListSubscribers(ctx context.Context, targetID int64, subType model.SubscriptionType, skip, limit int) ([]model.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.avatar
		 FROM subscriptions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.target_id = $1 AND s.type = $2
		 ORDER BY s.id DESC
		 LIMIT $3 OFFSET $4`,
		targetID, string(subType), limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	subscribers := []model.Subscriber{}
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Name, &s.Avatar); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subscribers = append(subscribers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscribers: %w", err)
	}
	return subscribers, nil
}

// ListTargetsByUser はユーザーの購読先一覧（ユーザーとトピックを統合）を返す。
// トピックのIDはURLに使うslugの文字列表現で返す。
func (r *PostgresSubscriptionRepo) ListTargetsByUser(ctx context.Context, userID int64, skip, limit int) ([]model.SubscriptionTarget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.type, COALESCE(u.avatar, t.avatar) AS avatar,
		   COALESCE(u.name, t.name) AS name,
		   COALESCE(u.id::text, t.slug) AS target
		 FROM subscriptions s
		 LEFT JOIN users u ON s.type = 'user' AND u.id = s.target_id
		 LEFT JOIN topics t ON s.type = 'topic' AND t.id = s.target_id
		 WHERE s.user_id = $1
		 ORDER BY s.id DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription targets: %w", err)
	}
	defer rows.Close()

	targets := []model.SubscriptionTarget{}
	for rows.Next() {
		var target model.SubscriptionTarget
		var avatar, name, id sql.NullString
		if err := rows.Scan(&target.Type, &avatar, &name, &id); err != nil {
			return nil, fmt.Errorf("failed to scan subscription target: %w", err)
		}
		// 対象がすでに削除された購読行はavatar/name/idがNULLになる。
		target.Avatar = avatar.String
		target.Name = name.String
		target.ID = id.String
		targets = append(targets, target)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscription targets: %w", err)
	}
	return targets, nil
}

// compile-time interface check
var _ SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)
