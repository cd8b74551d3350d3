package tracker

import (
	"errors"
	"time"

	"github.com/nao1215/jobtracker/pkg/event"
)

// errInvalidDate は日付として解釈できない入力のエラー。
var errInvalidDate = errors.New("日付の形式が不正です")

// fallbackDateLayouts はYYYY-MM-DDで始まらない入力に試す書式。
var fallbackDateLayouts = []string{time.RFC1123, time.RFC1123Z, "2006/01/02"}

// normalizeDate は入力をYYYY-MM-DD形式に正規化する。
// 先頭10文字がYYYY-MM-DDならそれを使い（RFC3339もここで扱われる）、
// そうでなければfallbackDateLayoutsの書式を順に試す。
func normalizeDate(s string) (string, error) {
	if len(s) >= len(event.DateLayout) {
		prefix := s[:len(event.DateLayout)]
		if _, err := time.Parse(event.DateLayout, prefix); err == nil {
			return prefix, nil
		}
	}
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(event.DateLayout), nil
		}
	}
	return "", errInvalidDate
}

// normalizeOptionalDate は空文字列をnilとして扱うnormalizeDate。
func normalizeOptionalDate(s string) (*string, error) {
	if s == "" {
		return nil, nil
	}
	d, err := normalizeDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
