// Package model はドメインモデルを定義する。
package model

import "encoding/json"

// Post は投稿を表す。
// IDは作成順に単調増加で割り当てられ、新着順ソートの代理キーとして使われる。
type Post struct {
	ID          int64
	Title       string
	Text        string
	Attachments json.RawMessage // 添付リスト（JSON配列）
	AuthorID    int64
	TopicID     int64
	CreatedAt   int64 // Unixエポック秒
	UpdatedAt   int64
}

// EngagementInfo は投稿のエンゲージメント集計ブロックを表す。
// likes/views/commentsCountはクエリ時点の再計算値。
// Likedは閲覧者がいる場合のみtrueになりうる（匿名時は常にfalse）。
type EngagementInfo struct {
	Likes         int  `json:"likes"`
	Views         int  `json:"views"`
	CommentsCount int  `json:"commentsCount"`
	Liked         bool `json:"liked"`
}

// TagRef はレスポンスに埋め込むタグ参照。
type TagRef struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// TopicRef はレスポンスに埋め込むトピック参照。
type TopicRef struct {
	ID     int64  `json:"id"`
	Avatar string `json:"avatar"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
}

// AuthorRef はレスポンスに埋め込む投稿者参照。
type AuthorRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FeedPost はフィードの1行を表す。投稿本体にエンゲージメント集計、
// タグ・トピック・投稿者の参照を注釈したもの。
type FeedPost struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Text        string          `json:"text"`
	Attachments json.RawMessage `json:"attachments"`
	TopicID     int64           `json:"topic_id"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
	Info        EngagementInfo  `json:"info"`
	Tags        []TagRef        `json:"tags"`
	Topic       TopicRef        `json:"topic"`
	Author      AuthorRef       `json:"author"`
}

// PostDetail は投稿詳細を表す。フィード行と異なりエンゲージメント集計を
// 含まない（/posts/:id/infoで別途取得する）。
type PostDetail struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Text        string          `json:"text"`
	Attachments json.RawMessage `json:"attachments"`
	TopicID     int64           `json:"topic_id"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
	Tags        []TagRef        `json:"tags"`
	Topic       TopicRef        `json:"topic"`
	Author      AuthorRef       `json:"author"`
}

// SitemapEntry はサイトマップ生成用の投稿エントリ。
type SitemapEntry struct {
	ID        int64 `json:"id"`
	UpdatedAt int64 `json:"updated_at"`
	CreatedAt int64 `json:"created_at"`
}
