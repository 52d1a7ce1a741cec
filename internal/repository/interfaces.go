// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/epyson/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成し、採番されたIDをセットする。
	// メールアドレスが重複している場合はmodel.NewDuplicateEmailErrorを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// UpdateProfile は名前と自己紹介を更新する。
	UpdateProfile(ctx context.Context, id int64, name, description string) error

	// UpdateAvatar はアバター画像URLを更新する。
	UpdateAvatar(ctx context.Context, id int64, avatar string) error

	// UpdateCover はカバー画像URLを更新する。
	UpdateCover(ctx context.Context, id int64, cover string) error

	// Confirm はユーザーを確認済みにする。
	Confirm(ctx context.Context, id int64) error

	// Search は名前の部分一致でユーザーを検索し、購読者数付きで返す。
	Search(ctx context.Context, query string, skip, limit int) ([]model.UserSearchResult, error)

	// CountSearch は検索条件に一致するユーザー総数を返す。
	CountSearch(ctx context.Context, query string) (int, error)
}

// TokenRepository はメール確認トークンの永続化インターフェース。
type TokenRepository interface {
	// Create はトークンを作成する。
	Create(ctx context.Context, token *model.EmailVerificationToken) error

	// FindByToken はトークン文字列でトークンを検索する。見つからない場合はnilを返す。
	FindByToken(ctx context.Context, token string) (*model.EmailVerificationToken, error)

	// DeleteByUserID は指定ユーザーの全トークンを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error

	// DeleteExpiredWithUsers は作成からttlSeconds以上経過したトークンと、
	// そのトークンに紐づく未確認ユーザーを同一トランザクションで削除する。
	// 削除したユーザー数を返す。
	DeleteExpiredWithUsers(ctx context.Context, ttlSeconds int64) (int, error)
}

// TopicRepository はトピックデータの永続化インターフェース。
type TopicRepository interface {
	// Create はトピックを作成し、採番されたIDをセットする。
	Create(ctx context.Context, topic *model.Topic) error

	// FindByID は指定IDのトピックを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Topic, error)

	// FindBySlug はスラッグでトピックを検索する。見つからない場合はnilを返す。
	FindBySlug(ctx context.Context, slug string) (*model.Topic, error)

	// ListAll は全トピックをID昇順で返す。
	ListAll(ctx context.Context) ([]model.Topic, error)

	// List はトピックをページネーション付きで返す。
	// viewerIDが非nilの場合、その閲覧者が購読しているトピックのみを返す。
	List(ctx context.Context, viewerID *int64, skip, limit int) ([]model.Topic, error)

	// Count はListと同一条件のトピック総数を返す。
	Count(ctx context.Context, viewerID *int64) (int, error)
}

// PostRepository は投稿データの永続化インターフェース。
// タグの付け替えと削除の連鎖は単一トランザクションで処理する。
type PostRepository interface {
	// Create は投稿を作成し、タグをUPSERTして紐付ける。採番されたIDをセットする。
	Create(ctx context.Context, post *model.Post, tags []string) error

	// Update は投稿のタイトル・本文・添付を更新し、タグを付け替える。
	Update(ctx context.Context, post *model.Post, tags []string) error

	// Delete は投稿と関連レコード（通知、コメント、いいね、閲覧、タグ紐付け）を削除する。
	Delete(ctx context.Context, id int64) error

	// FindByID は指定IDの投稿本体を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Post, error)

	// FindDetailByID は投稿詳細（タグ・トピック・投稿者付き）を取得する。
	// 見つからない場合はnilを返す。
	FindDetailByID(ctx context.Context, id int64) (*model.PostDetail, error)

	// RecordView は(post, ip)の閲覧を冪等に記録する。記録済みならno-op。
	RecordView(ctx context.Context, postID int64, ip string) error

	// AddLike はいいねを冪等に記録する。新規に記録した場合はtrueを返す。
	AddLike(ctx context.Context, postID, userID int64) (bool, error)

	// RemoveLike はいいねを取り消す。取り消した場合はtrueを返す。
	RemoveLike(ctx context.Context, postID, userID int64) (bool, error)

	// Info は投稿1件のエンゲージメント集計を返す。
	// viewerIDが非nilの場合のみlikedを計算する。投稿が存在しない場合はnilを返す。
	Info(ctx context.Context, postID int64, viewerID *int64) (*model.EngagementInfo, error)

	// Sitemap は全投稿のIDとタイムスタンプをID昇順で返す。
	Sitemap(ctx context.Context) ([]model.SitemapEntry, error)
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成し、採番されたIDをセットする。
	Create(ctx context.Context, comment *model.Comment) error

	// FindByID は指定IDのコメントを投稿者情報付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.CommentWithAuthor, error)

	// ListTopLevel は投稿のトップレベルコメントを指定の並び順で
	// ページネーション付きで返す。
	ListTopLevel(ctx context.Context, postID int64, skip, limit int, order model.CommentOrder) ([]model.CommentWithAuthor, error)

	// CountTopLevel は投稿のトップレベルコメント総数を返す。
	CountTopLevel(ctx context.Context, postID int64) (int, error)

	// ListReplies は投稿の全返信コメントをID昇順で返す。
	ListReplies(ctx context.Context, postID int64) ([]model.CommentWithAuthor, error)

	// DeleteSubtree はコメントとその返信サブツリー全体を削除する。
	DeleteSubtree(ctx context.Context, id int64) error
}

// SubscriptionRepository は購読データの永続化インターフェース。
type SubscriptionRepository interface {
	// Subscribe は購読を冪等に作成する。新規に作成した場合はtrueを返す。
	Subscribe(ctx context.Context, userID, targetID int64, subType model.SubscriptionType) (bool, error)

	// Unsubscribe は購読を解除する。解除した場合はtrueを返す。
	Unsubscribe(ctx context.Context, userID, targetID int64, subType model.SubscriptionType) (bool, error)

	// Exists は購読関係が存在するかを返す。
	Exists(ctx context.Context, userID, targetID int64, subType model.SubscriptionType) (bool, error)

	// CountSubscribers は対象の購読者数を返す。
	CountSubscribers(ctx context.Context, targetID int64, subType model.SubscriptionType) (int, error)

	// CountSubscriptionsByUser はユーザーの購読数（ユーザー・トピック合算）を返す。
	CountSubscriptionsByUser(ctx context.Context, userID int64) (int, error)

	// ListSubscribers は対象の購読者一覧をページネーション付きで返す。
	ListSubscribers(ctx context.Context, targetID int64, subType model.SubscriptionType, skip, limit int) ([]model.Subscriber, error)

	// ListTargetsByUser はユーザーの購読先一覧（ユーザーとトピックを統合）を
	// ページネーション付きで返す。
	ListTargetsByUser(ctx context.Context, userID int64, skip, limit int) ([]model.SubscriptionTarget, error)
}

// NotificationRepository は通知データの永続化インターフェース。
type NotificationRepository interface {
	// Create は通知を作成する。
	Create(ctx context.Context, n *model.Notification) error

	// Retract は書き込みイベントの取消（いいね取消、購読解除）に対応する通知を削除する。
	Retract(ctx context.Context, senderID, recipientID int64, nType model.NotificationType, postID *int64) error

	// ListByRecipient は受信者の通知一覧を送信者情報付きでID降順で返す。
	ListByRecipient(ctx context.Context, recipientID int64, skip, limit int) ([]model.NotificationWithSender, error)

	// CountByRecipient は受信者の通知総数を返す。
	CountByRecipient(ctx context.Context, recipientID int64) (int, error)

	// MarkReadByRecipient は受信者の未読通知を既読にする。
	// UPDATE対象は受信者の行に限定される。
	MarkReadByRecipient(ctx context.Context, recipientID int64) error

	// CountUnreadByRecipient は受信者の未読通知数を返す。
	CountUnreadByRecipient(ctx context.Context, recipientID int64) (int, error)

	// DeleteByCommentSubtree はコメントとその返信サブツリーに紐づく
	// 全通知を削除する。コメント本体の削除より先に呼ぶこと。
	DeleteByCommentSubtree(ctx context.Context, commentID int64) error
}
