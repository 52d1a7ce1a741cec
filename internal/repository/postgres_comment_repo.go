package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/epyson/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// Create はコメントを作成し、採番されたIDをセットする。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	var parentID sql.NullInt64
	if comment.ParentID != nil {
		parentID = sql.NullInt64{Int64: *comment.ParentID, Valid: true}
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO post_comments (post_id, parent_id, user_id, text, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		comment.PostID, parentID, comment.UserID, comment.Text, comment.CreatedAt,
	).Scan(&comment.ID)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

const commentWithAuthorSelect = `SELECT c.id, c.post_id, c.parent_id, c.user_id, c.text, c.created_at, u.name, u.avatar
	FROM post_comments c
	JOIN users u ON u.id = c.user_id`

// FindByID は指定IDのコメントを投稿者情報付きで取得する。見つからない場合はnilを返す。
func (r *PostgresCommentRepo) FindByID(ctx context.Context, id int64) (*model.CommentWithAuthor, error) {
	row := r.db.QueryRowContext(ctx, commentWithAuthorSelect+` WHERE c.id = $1`, id)
	c, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	return c, nil
}

// ListTopLevel は投稿のトップレベルコメントを指定の並び順で
// ページネーション付きで返す。
// orderはParseCommentOrderで検証済みの値のみ受け取る。
func (r *PostgresCommentRepo) ListTopLevel(ctx context.Context, postID int64, skip, limit int, order model.CommentOrder) ([]model.CommentWithAuthor, error) {
	return r.list(ctx,
		commentWithAuthorSelect+` WHERE c.post_id = $1 AND c.parent_id IS NULL
		ORDER BY c.id `+string(order)+` LIMIT $2 OFFSET $3`,
		postID, limit, skip,
	)
}

// CountTopLevel は投稿のトップレベルコメント総数を返す。
func (r *PostgresCommentRepo) CountTopLevel(ctx context.Context, postID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post_comments WHERE post_id = $1 AND parent_id IS NULL`,
		postID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

// ListReplies は投稿の全返信コメントをID昇順で返す。
// 返信はクライアント側でツリー表示されるため全件で返す。
func (r *PostgresCommentRepo) ListReplies(ctx context.Context, postID int64) ([]model.CommentWithAuthor, error) {
	return r.list(ctx,
		commentWithAuthorSelect+` WHERE c.post_id = $1 AND c.parent_id IS NOT NULL
		ORDER BY c.id`,
		postID,
	)
}

// DeleteSubtree はコメントとその返信サブツリー全体を削除する。
// parent_idの自己参照を再帰CTEで辿る。
func (r *PostgresCommentRepo) DeleteSubtree(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`WITH RECURSIVE subtree AS (
		   SELECT id FROM post_comments WHERE id = $1
		   UNION ALL
		   SELECT c.id FROM post_comments c
		   JOIN subtree s ON c.parent_id = s.id
		 )
		 DELETE FROM post_comments WHERE id IN (SELECT id FROM subtree)`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete comment subtree: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewCommentNotFoundError(id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*model.CommentWithAuthor, error) {
	c := &model.CommentWithAuthor{}
	var parentID sql.NullInt64
	err := row.Scan(&c.ID, &c.PostID, &parentID, &c.UserID, &c.Text, &c.CreatedAt,
		&c.Author.Name, &c.Author.Avatar)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		c.ParentID = &parentID.Int64
	}
	return c, nil
}

func (r *PostgresCommentRepo) list(ctx context.Context, query string, args ...any) ([]model.CommentWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []model.CommentWithAuthor{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
