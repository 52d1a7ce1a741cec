package feed

import (
	"fmt"
	"time"
)

// Policy はランキングポリシーを表す。
type Policy string

const (
	// PolicyNew はID降順（作成順の代理キー）で並べる。
	PolicyNew Policy = "new"
	// PolicyPopular はエンゲージメント（views+likes）降順で並べ、
	// 同点はID降順で解決する。設定された期間内の投稿のみを対象とする。
	PolicyPopular Policy = "popular"
)

// ParsePolicy はリクエストパラメータからランキングポリシーを解析する。
// 空文字列はデフォルト値defを返す。未知の値はエラー。
func ParsePolicy(s string, def Policy) (Policy, error) {
	switch s {
	case "":
		return def, nil
	case string(PolicyNew):
		return PolicyNew, nil
	case string(PolicyPopular):
		return PolicyPopular, nil
	default:
		return "", fmt.Errorf("unknown ranking policy: %q", s)
	}
}

// Query は1回のフィードリクエストを記述する。
// リクエストごとに構築され、レスポンス返却後に破棄される。
type Query struct {
	Viewer Viewer
	Scope  Scope
	Policy Policy

	// Window はpopularポリシーの対象期間。リクエスト時点から遡る。
	// 0の場合は期間制限なし。
	Window time.Duration

	// Page は1始まりのページ番号、Limitは1ページの最大件数。
	// いずれも1以上であることがバリデーション済みの前提条件。
	Page  int
	Limit int

	// Now はUnixエポック秒での現在時刻。0の場合はtime.Now()を使う。
	// popularの期間フィルタの基準であり、テストで固定できる。
	Now int64
}

// now は期間フィルタの基準時刻を返す。
func (q Query) now() int64 {
	if q.Now != 0 {
		return q.Now
	}
	return time.Now().Unix()
}
