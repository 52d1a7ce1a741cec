package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/epyson/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const uniqueViolation = "23505"

// Create はユーザーを作成し、採番されたIDをセットする。
// メールアドレスの重複は一意制約違反として検出する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password, avatar, cover, description, confirmed, blocked, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		user.Name, user.Email, user.Password, user.Avatar, user.Cover,
		user.Description, user.Confirmed, user.Blocked, user.CreatedAt,
	).Scan(&user.ID)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return model.NewDuplicateEmailError()
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, `SELECT id, name, email, password, avatar, cover, description, confirmed, blocked, created_at
		FROM users WHERE id = $1`, id)
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, `SELECT id, name, email, password, avatar, cover, description, confirmed, blocked, created_at
		FROM users WHERE email = $1`, email)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.Password, &user.Avatar,
		&user.Cover, &user.Description, &user.Confirmed, &user.Blocked, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateProfile は名前と自己紹介を更新する。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, id int64, name, description string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = $1, description = $2 WHERE id = $3`,
		name, description, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// UpdateAvatar はアバター画像URLを更新する。
func (r *PostgresUserRepo) UpdateAvatar(ctx context.Context, id int64, avatar string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET avatar = $1 WHERE id = $2`,
		avatar, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}

// UpdateCover はカバー画像URLを更新する。
func (r *PostgresUserRepo) UpdateCover(ctx context.Context, id int64, cover string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET cover = $1 WHERE id = $2`,
		cover, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update cover: %w", err)
	}
	return nil
}

// Confirm はユーザーを確認済みにする。
func (r *PostgresUserRepo) Confirm(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET confirmed = true WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to confirm user: %w", err)
	}
	return nil
}

// Search は名前の部分一致でユーザーを検索し、購読者数付きで返す。
func (r *PostgresUserRepo) Search(ctx context.Context, query string, skip, limit int) ([]model.UserSearchResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.avatar, COUNT(s.id) AS subscribers
		 FROM users u
		 LEFT JOIN subscriptions s ON s.target_id = u.id AND s.type = 'user'
		 WHERE u.name ILIKE $1
		 GROUP BY u.id
		 ORDER BY subscribers DESC, u.id DESC
		 LIMIT $2 OFFSET $3`,
		"%"+query+"%", limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	results := []model.UserSearchResult{}
	for rows.Next() {
		var u model.UserSearchResult
		if err := rows.Scan(&u.ID, &u.Name, &u.Avatar, &u.Subscribers); err != nil {
			return nil, fmt.Errorf("failed to scan user search result: %w", err)
		}
		results = append(results, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user search results: %w", err)
	}
	return results, nil
}

// CountSearch は検索条件に一致するユーザー総数を返す。
func (r *PostgresUserRepo) CountSearch(ctx context.Context, query string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE name ILIKE $1`,
		"%"+query+"%",
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
