package feed

// Skip はオフセットページネーションの読み飛ばし件数を返す。
// page=1で0、以降limitずつ増える。
func Skip(page, limit int) int {
	return (page - 1) * limit
}

// TotalPages は候補総数countに対する総ページ数を返す（切り上げ）。
// count=0のとき0。
func TotalPages(count, limit int) int {
	if count <= 0 {
		return 0
	}
	return (count + limit - 1) / limit
}

// NextPage は次ページ番号を返す。次ページが存在しない場合はnil。
// 不変条件: 現在のページが最後の非空ページであるか候補集合が空のとき、
// かつそのときに限りnilを返す。
func NextPage(page, count, limit int) *int {
	next := page + 1
	if next > TotalPages(count, limit) {
		return nil
	}
	return &next
}
