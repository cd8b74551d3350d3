package application

import "fmt"

// InterviewMode は面接の実施形式を表す。
type InterviewMode string

const (
	// ModeOnline はオンライン面接。
	ModeOnline InterviewMode = "Online"
	// ModeOffline は対面面接。
	ModeOffline InterviewMode = "Offline"
)

// ParseInterviewMode は文字列をInterviewModeに変換する。
func ParseInterviewMode(s string) (InterviewMode, error) {
	switch m := InterviewMode(s); m {
	case ModeOnline, ModeOffline:
		return m, nil
	default:
		return "", fmt.Errorf("不明な面接形式: %q", s)
	}
}

// InterviewResult は面接結果を表す。
type InterviewResult string

const (
	// ResultPending は結果待ち。
	ResultPending InterviewResult = "Pending"
	// ResultPassed は通過。
	ResultPassed InterviewResult = "Passed"
	// ResultFailed は不通過。
	ResultFailed InterviewResult = "Failed"
)

// ParseInterviewResult は文字列をInterviewResultに変換する。空文字列はPendingとして扱う。
func ParseInterviewResult(s string) (InterviewResult, error) {
	if s == "" {
		return ResultPending, nil
	}
	switch r := InterviewResult(s); r {
	case ResultPending, ResultPassed, ResultFailed:
		return r, nil
	default:
		return "", fmt.Errorf("不明な面接結果: %q", s)
	}
}
