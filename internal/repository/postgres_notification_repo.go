package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/epyson/internal/model"
)

// PostgresNotificationRepo はPostgreSQLを使用した通知リポジトリ。
type PostgresNotificationRepo struct {
	db *sql.DB
}

// NewPostgresNotificationRepo はPostgresNotificationRepoを生成する。
func NewPostgresNotificationRepo(db *sql.DB) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{db: db}
}

// Create は通知を作成する。
func (r *PostgresNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	var postID, commentID sql.NullInt64
	if n.PostID != nil {
		postID = sql.NullInt64{Int64: *n.PostID, Valid: true}
	}
	if n.CommentID != nil {
		commentID = sql.NullInt64{Int64: *n.CommentID, Valid: true}
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO notifications (sender_id, recipient_id, type, post_id, comment_id, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		n.SenderID, n.RecipientID, string(n.Type), postID, commentID, n.IsRead, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// Retract は書き込みイベントの取消に対応する通知を削除する。
// postIDがnilの場合（購読解除）はpost_idを条件に含めない。
func (r *PostgresNotificationRepo) Retract(ctx context.Context, senderID, recipientID int64, nType model.NotificationType, postID *int64) error {
	var err error
	if postID != nil {
		_, err = r.db.ExecContext(ctx,
			`DELETE FROM notifications
			 WHERE sender_id = $1 AND recipient_id = $2 AND type = $3 AND post_id = $4`,
			senderID, recipientID, string(nType), *postID,
		)
	} else {
		_, err = r.db.ExecContext(ctx,
			`DELETE FROM notifications
			 WHERE sender_id = $1 AND recipient_id = $2 AND type = $3`,
			senderID, recipientID, string(nType),
		)
	}
	if err != nil {
		return fmt.Errorf("failed to retract notification: %w", err)
	}
	return nil
}

// ListByRecipient は受信者の通知一覧を送信者情報付きでID降順で返す。
func (r *PostgresNotificationRepo) ListByRecipient(ctx context.Context, recipientID int64, skip, limit int) ([]model.NotificationWithSender, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT n.id, n.sender_id, n.recipient_id, n.type, n.post_id, n.comment_id, n.is_read, n.created_at,
		   u.id, u.name
		 FROM notifications n
		 JOIN users u ON u.id = n.sender_id
		 WHERE n.recipient_id = $1
		 ORDER BY n.id DESC
		 LIMIT $2 OFFSET $3`,
		recipientID, limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []model.NotificationWithSender{}
	for rows.Next() {
		var n model.NotificationWithSender
		var postID, commentID sql.NullInt64
		err := rows.Scan(&n.ID, &n.SenderID, &n.RecipientID, &n.Type, &postID, &commentID,
			&n.IsRead, &n.CreatedAt, &n.Sender.ID, &n.Sender.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if postID.Valid {
			n.PostID = &postID.Int64
		}
		if commentID.Valid {
			n.CommentID = &commentID.Int64
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return notifications, nil
}

// CountByRecipient は受信者の通知総数を返す。
func (r *PostgresNotificationRepo) CountByRecipient(ctx context.Context, recipientID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1`,
		recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// MarkReadByRecipient は受信者の未読通知を既読にする。
// UPDATE対象は必ず受信者の行に限定する。
func (r *PostgresNotificationRepo) MarkReadByRecipient(ctx context.Context, recipientID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = true WHERE recipient_id = $1 AND is_read = false`,
		recipientID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// CountUnreadByRecipient は受信者の未読通知数を返す。
func (r *PostgresNotificationRepo) CountUnreadByRecipient(ctx context.Context, recipientID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false`,
		recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// DeleteByCommentSubtree はコメントとその返信サブツリーに紐づく全通知を削除する。
// post_commentsの自己参照を再帰CTEで辿るため、コメント本体の削除より先に呼ぶこと。
func (r *PostgresNotificationRepo) DeleteByCommentSubtree(ctx context.Context, commentID int64) error {
	_, err := r.db.ExecContext(ctx,
		`WITH RECURSIVE subtree AS (
		   SELECT id FROM post_comments WHERE id = $1
		   UNION ALL
		   SELECT c.id FROM post_comments c
		   JOIN subtree s ON c.parent_id = s.id
		 )
		 DELETE FROM notifications WHERE comment_id IN (SELECT id FROM subtree)`,
		commentID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}

// compile-time interface check
var _ NotificationRepository = (*PostgresNotificationRepo)(nil)
