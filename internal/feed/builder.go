package feed

import (
	"fmt"
	"strings"
	"time"
)

// argList はプレースホルダの採番と引数リストを管理する。
type argList struct {
	args []any
}

// add は引数を追加し、対応するプレースホルダ（$1, $2, ...）を返す。
func (a *argList) add(v any) string {
	a.args = append(a.args, v)
	return fmt.Sprintf("$%d", len(a.args))
}

// scopeClause はスコープ記述子から候補集合のJOIN句とWHERE条件を構築する。
// ページクエリと件数クエリの双方が必ずこの1箇所を通ることで、
// 件数とページ内容の食い違い（スコープのずれ）を構造的に防ぐ。
func scopeClause(q Query, a *argList) (joins []string, conds []string) {
	switch q.Scope.Kind {
	case ScopeGlobal:
		// 条件なし: 全投稿が候補
	case ScopeTopic:
		conds = append(conds, "p.topic_id = "+a.add(q.Scope.TopicID))
	case ScopeAuthor:
		conds = append(conds, "p.author = "+a.add(q.Scope.AuthorID))
	case ScopeSubscribedTopics:
		userID, _ := q.Viewer.UserID()
		joins = append(joins, "INNER JOIN subscriptions s ON p.topic_id = s.target_id AND s.type = 'topic'")
		conds = append(conds, "s.user_id = "+a.add(userID))
	case ScopeSubscribedAuthors:
		userID, _ := q.Viewer.UserID()
		joins = append(joins, "INNER JOIN subscriptions s ON p.author = s.target_id AND s.type = 'user'")
		conds = append(conds, "s.user_id = "+a.add(userID))
	case ScopeTag:
		joins = append(joins,
			"INNER JOIN post_tags spt ON p.id = spt.post_id",
			"INNER JOIN tags st ON spt.tag_id = st.id",
		)
		conds = append(conds, "st.text = "+a.add(q.Scope.Tag))
	case ScopeSearch:
		ph := a.add("%" + q.Scope.Query + "%")
		conds = append(conds, fmt.Sprintf("(p.text ILIKE %s OR p.title ILIKE %s)", ph, ph))
	case ScopeRelated:
		conds = append(conds, "p.topic_id = "+a.add(q.Scope.TopicID))
		conds = append(conds, "p.id != "+a.add(q.Scope.ExcludePostID))
	}

	// popularランキングの期間フィルタはランキング前の候補選択に属するため、
	// 件数クエリにも同一条件が入る。
	if q.Policy == PolicyPopular && q.Window > 0 {
		cutoff := q.now() - int64(q.Window/time.Second)
		conds = append(conds, "p.created_at >= "+a.add(cutoff))
	}

	return joins, conds
}

// orderClause はランキングポリシーに対応するORDER BY句を返す。
// どちらのポリシーもID降順の決定的なタイブレークを持つため、
// 同一リクエストは常に同一順序を返す。
func orderClause(p Policy) string {
	if p == PolicyPopular {
		return "ORDER BY COUNT(DISTINCT pv.id) + COUNT(DISTINCT pl.id) DESC, p.id DESC"
	}
	return "ORDER BY p.id DESC"
}

// BuildSelect はフィードのページクエリとその引数を構築する。
// 返る行の列順はrepository側のスキャン順と一致している必要がある:
// 投稿本体(7列)、エンゲージメント(4列)、タグJSON(1列)、トピック(4列)、投稿者(2列)。
func BuildSelect(q Query) (string, []any) {
	a := &argList{}

	// パーソナライズ: 閲覧者がいる場合のみlikedをLEFT JOINで計算する。
	// 存在判定のみで候補集合を広げない（行の重複はGROUP BYで畳まれる）。
	likedExpr := "false"
	likedJoin := ""
	if userID, ok := q.Viewer.UserID(); ok {
		likedJoin = "LEFT JOIN post_likes pliked ON pliked.post_id = p.id AND pliked.user_id = " + a.add(userID)
		likedExpr = "COALESCE(bool_or(pliked.id IS NOT NULL), false)"
	}

	joins, conds := scopeClause(q, a)

	var sb strings.Builder
	sb.WriteString(`SELECT p.id, p.title, p.text, p.attachments, p.topic_id, p.created_at, p.updated_at,
  COUNT(DISTINCT pl.id) AS likes,
  COUNT(DISTINCT pv.id) AS views,
  COUNT(DISTINCT pc.id) AS comments_count,
  ` + likedExpr + ` AS liked,
  COALESCE(json_agg(DISTINCT jsonb_build_object('id', t.id, 'text', t.text)) FILTER (WHERE t.id IS NOT NULL), '[]') AS tags,
  topic.id, topic.avatar, topic.name, topic.slug,
  u.id, u.name
FROM posts p
JOIN topics topic ON topic.id = p.topic_id
JOIN users u ON u.id = p.author
LEFT JOIN post_likes pl ON p.id = pl.post_id
LEFT JOIN post_views pv ON p.id = pv.post_id
LEFT JOIN post_comments pc ON p.id = pc.post_id
LEFT JOIN post_tags pt ON p.id = pt.post_id
LEFT JOIN tags t ON pt.tag_id = t.id`)

	if likedJoin != "" {
		sb.WriteString("\n" + likedJoin)
	}
	for _, j := range joins {
		sb.WriteString("\n" + j)
	}
	if len(conds) > 0 {
		sb.WriteString("\nWHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString("\nGROUP BY p.id, topic.id, u.id")
	sb.WriteString("\n" + orderClause(q.Policy))
	sb.WriteString("\nLIMIT " + a.add(q.Limit) + " OFFSET " + a.add(Skip(q.Page, q.Limit)))

	return sb.String(), a.args
}

// BuildCount はページクエリと同一のスコープ記述子から件数クエリを構築する。
// COUNT(DISTINCT p.id)により、スコープ用JOINで行が増えても候補数は変わらない。
func BuildCount(q Query) (string, []any) {
	a := &argList{}
	joins, conds := scopeClause(q, a)

	var sb strings.Builder
	sb.WriteString("SELECT COUNT(DISTINCT p.id) FROM posts p")
	for _, j := range joins {
		sb.WriteString("\n" + j)
	}
	if len(conds) > 0 {
		sb.WriteString("\nWHERE " + strings.Join(conds, " AND "))
	}

	return sb.String(), a.args
}
