// Package model はドメインモデルを定義する。
package model

// Comment は投稿へのコメントを表す。
// ParentIDがnilならトップレベルコメント、非nilなら返信。
type Comment struct {
	ID        int64  `json:"id"`
	PostID    int64  `json:"post_id"`
	ParentID  *int64 `json:"parent_id"`
	UserID    int64  `json:"user_id"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
}

// CommentAuthorRef はコメントレスポンスに埋め込む投稿者参照。
type CommentAuthorRef struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// CommentWithAuthor はコメントと投稿者情報を結合したモデル。
// usersテーブルとJOINして取得される。
type CommentWithAuthor struct {
	Comment
	Author CommentAuthorRef `json:"author"`
}

// CommentOrder はトップレベルコメント一覧のID並び順。
// SQLのORDER BY句に埋め込まれるため、値はParseCommentOrderで
// 検証済みの2値に限定される。
type CommentOrder string

const (
	CommentOrderAsc  CommentOrder = "ASC"
	CommentOrderDesc CommentOrder = "DESC"
)

// ParseCommentOrder はfilterクエリパラメータを並び順へ解析する。
// 省略時は昇順。
func ParseCommentOrder(filter string) (CommentOrder, error) {
	switch filter {
	case "", "asc", "ASC":
		return CommentOrderAsc, nil
	case "desc", "DESC":
		return CommentOrderDesc, nil
	default:
		return "", NewInvalidFilterError(filter)
	}
}
