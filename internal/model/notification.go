// Package model はドメインモデルを定義する。
package model

// NotificationType は通知の種別を表す。
type NotificationType string

const (
	// NotificationTypeLike は投稿へのいいね通知。
	NotificationTypeLike NotificationType = "like"
	// NotificationTypeComment は投稿へのコメント通知。
	NotificationTypeComment NotificationType = "comment"
	// NotificationTypeReplyComment はコメントへの返信通知。
	NotificationTypeReplyComment NotificationType = "reply_comment"
	// NotificationTypeSubscribe はユーザー購読通知。
	NotificationTypeSubscribe NotificationType = "subscribe"
)

// Notification は書き込みイベントで生成されるユーザー通知を表す。
// いいね取消や購読解除の際は対応する通知も取り下げられる。
type Notification struct {
	ID          int64            `json:"id"`
	SenderID    int64            `json:"sender_id"`
	RecipientID int64            `json:"recipient_id"`
	Type        NotificationType `json:"type"`
	PostID      *int64           `json:"post_id"`
	CommentID   *int64           `json:"comment_id"`
	IsRead      bool             `json:"is_read"`
	CreatedAt   int64            `json:"created_at"`
}

// NotificationSenderRef は通知レスポンスに埋め込む送信者参照。
type NotificationSenderRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NotificationWithSender は通知と送信者情報を結合したモデル。
type NotificationWithSender struct {
	Notification
	Sender NotificationSenderRef `json:"sender"`
}
