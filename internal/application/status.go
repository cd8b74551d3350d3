package application

import "fmt"

// Status は応募のステータスを表す。
type Status string

const (
	// StatusApplied は応募直後の状態。
	StatusApplied Status = "Applied"
	// StatusProcessing は選考中の状態。
	StatusProcessing Status = "Processing"
	// StatusInterview は面接が設定された状態。
	StatusInterview Status = "Interview"
	// StatusSelected は採用が決定した状態（終端）。
	StatusSelected Status = "Selected"
	// StatusRejected は不採用が決定した状態（終端）。
	StatusRejected Status = "Rejected"
	// StatusNoResponse は企業から応答がない状態。
	StatusNoResponse Status = "No Response"
)

// Statuses はすべてのステータスを定義順に返す。
func Statuses() []Status {
	return []Status{
		StatusApplied,
		StatusProcessing,
		StatusInterview,
		StatusSelected,
		StatusRejected,
		StatusNoResponse,
	}
}

// ParseStatus は文字列をStatusに変換する。未知の値の場合はエラーを返す。
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("不明なステータス: %q", s)
}

// IsTerminal は自動イベントで変更してはならない終端ステータスかどうかを返す。
func (s Status) IsTerminal() bool {
	return s == StatusSelected || s == StatusRejected
}

// EventKind はステータスに影響する自動イベントの種類を表す。
type EventKind string

const (
	// EventInterviewScheduled は面接が登録されたことを表す。
	EventInterviewScheduled EventKind = "interview_scheduled"
)

// Event はステータス判定の入力となる自動イベント。
type Event struct {
	// Kind はイベントの種類。
	Kind EventKind
}

// DecideStatus は現在のステータスとイベントから次のステータスを決定する。
// 変更不要の場合は current をそのまま返す。
func DecideStatus(current Status, ev Event) Status {
	switch ev.Kind {
	case EventInterviewScheduled:
		if current.IsTerminal() || current == StatusInterview {
			return current
		}
		return StatusInterview
	default:
		return current
	}
}
