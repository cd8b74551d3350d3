package event

import (
	"encoding/json"
	"fmt"
)

// Encode はイベントデータをSSEのdata行に載せるJSON文字列に変換する。
func Encode(data any) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("イベントデータのシリアライズに失敗: %w", err)
	}
	return string(b), nil
}
