// Package model はドメインモデルを定義する。
package model

// User はサービス利用ユーザーを表す。
// Passwordはbcryptハッシュを保持し、APIレスポンスには決して含めない。
type User struct {
	ID          int64
	Name        string
	Email       string
	Password    string
	Avatar      string
	Cover       string
	Description string
	Confirmed   bool
	Blocked     bool
	CreatedAt   int64 // Unixエポック秒
}

// EmailVerificationToken はメールアドレス確認用のワンタイムトークンを表す。
// 有効期限切れのトークンはクリーンアップワーカーが未確認ユーザーごと削除する。
type EmailVerificationToken struct {
	ID        int64
	UserID    int64
	Token     string
	CreatedAt int64
}

// UserSearchResult はユーザー検索結果の1行を表す。
// subscriptionsテーブルとのJOINで購読者数を含む。
type UserSearchResult struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	Subscribers int    `json:"subscribers"`
}
