package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/epyson/internal/model"
)

// PostgresTokenRepo はPostgreSQLを使用したメール確認トークンリポジトリ。
type PostgresTokenRepo struct {
	db *sql.DB
}

// NewPostgresTokenRepo はPostgresTokenRepoを生成する。
func NewPostgresTokenRepo(db *sql.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

// Create はトークンを作成する。
func (r *PostgresTokenRepo) Create(ctx context.Context, token *model.EmailVerificationToken) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO email_verification_tokens (user_id, token, created_at)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		token.UserID, token.Token, token.CreatedAt,
	).Scan(&token.ID)
	if err != nil {
		return fmt.Errorf("failed to insert verification token: %w", err)
	}
	return nil
}

// FindByToken はトークン文字列でトークンを検索する。見つからない場合はnilを返す。
func (r *PostgresTokenRepo) FindByToken(ctx context.Context, token string) (*model.EmailVerificationToken, error) {
	t := &model.EmailVerificationToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token, created_at FROM email_verification_tokens WHERE token = $1`,
		token,
	).Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find verification token: %w", err)
	}
	return t, nil
}

// DeleteByUserID は指定ユーザーの全トークンを削除する。
func (r *PostgresTokenRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM email_verification_tokens WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete verification tokens: %w", err)
	}
	return nil
}

// DeleteExpiredWithUsers は作成からttlSeconds以上経過したトークンと、
// そのトークンに紐づく未確認ユーザーを同一トランザクションで削除する。
// 確認済みユーザーは削除しない（確認後に残ったトークンだけが消える）。
func (r *PostgresTokenRepo) DeleteExpiredWithUsers(ctx context.Context, ttlSeconds int64) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cutoff := time.Now().Unix() - ttlSeconds

	result, err := tx.ExecContext(ctx,
		`DELETE FROM users
		 WHERE confirmed = false
		   AND id IN (
		     SELECT user_id FROM email_verification_tokens WHERE created_at < $1
		   )`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete unconfirmed users: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	// 確認済みユーザーの期限切れトークンを回収（ユーザー側はCASCADEで処理済み）。
	_, err = tx.ExecContext(ctx,
		`DELETE FROM email_verification_tokens WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(deleted), nil
}

// compile-time interface check
var _ TokenRepository = (*PostgresTokenRepo)(nil)
