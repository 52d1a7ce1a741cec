// Package model はドメインモデルを定義する。
package model

// Topic は投稿の属するトピック（コミュニティ）を表す。
// slugは人間可読な一意キーで、URLパスに使われる。
type Topic struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Avatar      string `json:"avatar"`
	Cover       string `json:"cover"`
	Slug        string `json:"slug"`
}

// SubscriptionType は購読対象の種別を表す。
type SubscriptionType string

const (
	// SubscriptionTypeUser はユーザーへの購読。
	SubscriptionTypeUser SubscriptionType = "user"
	// SubscriptionTypeTopic はトピックへの購読。
	SubscriptionTypeTopic SubscriptionType = "topic"
)

// Subscription は購読関係（購読者、対象、対象種別）を表す。
// (user_id, target_id, type)の一意制約で重複購読を防ぐ。
type Subscription struct {
	ID        int64
	UserID    int64
	TargetID  int64
	Type      SubscriptionType
	CreatedAt int64
}

// Subscriber は購読者一覧の1行を表す。
type Subscriber struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// SubscriptionTarget は購読先一覧の1行を表す。
// ユーザー購読とトピック購読を統一した形で返す。
// IDはユーザーの場合は数値ID、トピックの場合はslugの文字列表現。
type SubscriptionTarget struct {
	Type   string `json:"type"`
	Avatar string `json:"avatar"`
	Name   string `json:"name"`
	ID     string `json:"id"`
}
