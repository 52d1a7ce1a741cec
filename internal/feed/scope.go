package feed

// ScopeKind は候補集合を選択するスコープの種別を表す。
type ScopeKind int

const (
	// ScopeGlobal は全投稿を対象とする。
	ScopeGlobal ScopeKind = iota
	// ScopeTopic は特定トピックの投稿を対象とする。
	ScopeTopic
	// ScopeAuthor は特定ユーザーの投稿を対象とする。
	ScopeAuthor
	// ScopeSubscribedTopics は閲覧者が購読するトピックの投稿を対象とする。
	ScopeSubscribedTopics
	// ScopeSubscribedAuthors は閲覧者が購読するユーザーの投稿を対象とする。
	ScopeSubscribedAuthors
	// ScopeTag は特定タグの付いた投稿を対象とする。
	ScopeTag
	// ScopeSearch はタイトルまたは本文の部分一致検索を対象とする。
	ScopeSearch
	// ScopeRelated は同一トピック内の関連投稿（指定投稿を除く）を対象とする。
	ScopeRelated
)

// String はメトリクスラベル用のスコープ名を返す。
func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeTopic:
		return "topic"
	case ScopeAuthor:
		return "author"
	case ScopeSubscribedTopics:
		return "subscribed_topics"
	case ScopeSubscribedAuthors:
		return "subscribed_authors"
	case ScopeTag:
		return "tag"
	case ScopeSearch:
		return "search"
	case ScopeRelated:
		return "related"
	default:
		return "unknown"
	}
}

// Scope はフィード候補集合を記述する。
// 同一のScopeからページクエリと件数クエリの両方が構築されるため、
// 両者のWHERE条件が食い違うことはない。
type Scope struct {
	Kind          ScopeKind
	TopicID       int64  // ScopeTopic, ScopeRelated
	AuthorID      int64  // ScopeAuthor
	Tag           string // ScopeTag
	Query         string // ScopeSearch
	ExcludePostID int64  // ScopeRelated
}

// GlobalScope は全投稿スコープを返す。
func GlobalScope() Scope {
	return Scope{Kind: ScopeGlobal}
}

// TopicScope は指定トピックのスコープを返す。
func TopicScope(topicID int64) Scope {
	return Scope{Kind: ScopeTopic, TopicID: topicID}
}

// AuthorScope は指定ユーザーの投稿スコープを返す。
func AuthorScope(authorID int64) Scope {
	return Scope{Kind: ScopeAuthor, AuthorID: authorID}
}

// SubscribedTopicsScope は閲覧者の購読トピックスコープを返す。
func SubscribedTopicsScope() Scope {
	return Scope{Kind: ScopeSubscribedTopics}
}

// SubscribedAuthorsScope は閲覧者の購読ユーザースコープを返す。
func SubscribedAuthorsScope() Scope {
	return Scope{Kind: ScopeSubscribedAuthors}
}

// TagScope は指定タグのスコープを返す。
func TagScope(tag string) Scope {
	return Scope{Kind: ScopeTag, Tag: tag}
}

// SearchScope はタイトル・本文検索のスコープを返す。
func SearchScope(query string) Scope {
	return Scope{Kind: ScopeSearch, Query: query}
}

// RelatedScope は同一トピック内の関連投稿スコープを返す。
// excludePostIDで基準となる投稿自身を除外する。
func RelatedScope(topicID, excludePostID int64) Scope {
	return Scope{Kind: ScopeRelated, TopicID: topicID, ExcludePostID: excludePostID}
}

// RequiresViewer はスコープが認証済み閲覧者を必要とするかを返す。
// 必要なスコープに匿名閲覧者が来た場合、フィードはエラーではなく
// 空ページに縮退する。
func (s Scope) RequiresViewer() bool {
	return s.Kind == ScopeSubscribedTopics || s.Kind == ScopeSubscribedAuthors
}
