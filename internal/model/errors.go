// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, content, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidPagination  = "INVALID_PAGINATION"
	ErrCodeInvalidFilter      = "INVALID_FILTER"
	ErrCodePostNotFound       = "POST_NOT_FOUND"
	ErrCodeTopicNotFound      = "TOPIC_NOT_FOUND"
	ErrCodeCommentNotFound    = "COMMENT_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeTextLength         = "TEXT_LENGTH"
	ErrCodeTitleLength        = "TITLE_LENGTH"
	ErrCodeForbidden          = "FORBIDDEN"
)

// NewInvalidPaginationError は無効なページネーションパラメータのエラーを生成する。
func NewInvalidPaginationError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPagination,
		Message:  "ページネーションパラメータが不正です。",
		Category: "validation",
		Action:   "pageとlimitには1以上の整数を指定してください。",
	}
}

// NewInvalidFilterError は無効なフィードフィルタのエラーを生成する。
func NewInvalidFilterError(filter string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFilter,
		Message:  fmt.Sprintf("無効なフィルタです: %s", filter),
		Category: "validation",
		Action:   "フィルタには new、popular のいずれかを指定してください。",
	}
}

// NewPostNotFoundError は投稿未検出エラーを生成する。
func NewPostNotFoundError(postID int64) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %d", postID),
		Category: "content",
		Action:   "投稿IDを確認してください。",
	}
}

// NewTopicNotFoundError はトピック未検出エラーを生成する。
func NewTopicNotFoundError(slug string) *APIError {
	return &APIError{
		Code:     ErrCodeTopicNotFound,
		Message:  fmt.Sprintf("指定されたトピックが見つかりません: %s", slug),
		Category: "content",
		Action:   "トピックのスラッグを確認してください。",
	}
}

// NewCommentNotFoundError はコメント未検出エラーを生成する。
func NewCommentNotFoundError(commentID int64) *APIError {
	return &APIError{
		Code:     ErrCodeCommentNotFound,
		Message:  fmt.Sprintf("指定されたコメントが見つかりません: %d", commentID),
		Category: "content",
		Action:   "コメントIDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証情報不正エラーを生成する。
// メールアドレス・パスワードどちらが誤っているかは明かさない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidTokenError は無効なトークンのエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "トークンが無効か期限切れです。",
		Category: "auth",
		Action:   "再度ログインするか、確認メールを発行し直してください。",
	}
}

// NewTextLengthError は本文の文字数制限エラーを生成する。
func NewTextLengthError() *APIError {
	return &APIError{
		Code:     ErrCodeTextLength,
		Message:  "本文は2文字以上2500文字未満で入力してください。",
		Category: "validation",
		Action:   "本文の長さを調整してください。",
	}
}

// NewEmptyCommentError は空コメントのエラーを生成する。
func NewEmptyCommentError() *APIError {
	return &APIError{
		Code:     ErrCodeTextLength,
		Message:  "コメントを入力してください。",
		Category: "validation",
		Action:   "1文字以上のコメントを入力してください。",
	}
}

// NewTitleLengthError はタイトルの文字数制限エラーを生成する。
func NewTitleLengthError() *APIError {
	return &APIError{
		Code:     ErrCodeTitleLength,
		Message:  "タイトルは1文字以上500文字以下で入力してください。",
		Category: "validation",
		Action:   "タイトルの長さを調整してください。",
	}
}

// NewForbiddenError は他ユーザーのリソースを操作しようとした場合のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "自分が作成したコンテンツのみ編集・削除できます。",
	}
}
