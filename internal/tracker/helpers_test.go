package tracker

import "strconv"

// itoa はIDをパス用の文字列に変換する。
func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
