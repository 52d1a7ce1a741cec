// Package feed はフィード組み立ての中核ロジックを提供する。
// 可視性フィルタ（スコープ）、ランキングポリシー、ページネーション、
// 閲覧者ごとのパーソナライズを1つのクエリ記述子から構成する。
package feed

// Viewer はフィードリクエストの閲覧者を表す。
// 匿名（Anonymous）か認証済み（Identified）のいずれかであり、
// 可視性フィルタとパーソナライズはこの2状態を網羅的に分岐する。
type Viewer struct {
	userID int64
	known  bool
}

// Anonymous は匿名の閲覧者を返す。
func Anonymous() Viewer {
	return Viewer{}
}

// Identified は認証済みユーザーの閲覧者を返す。
func Identified(userID int64) Viewer {
	return Viewer{userID: userID, known: true}
}

// UserID は閲覧者のユーザーIDを返す。匿名の場合はok=false。
func (v Viewer) UserID() (int64, bool) {
	return v.userID, v.known
}
