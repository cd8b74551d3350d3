package store

import (
	"context"
	"fmt"

	"github.com/nao1215/jobtracker/internal/application"
)

// InsertInterviewParams は面接登録のパラメータ。
type InsertInterviewParams struct {
	ApplicationID int64
	Date          string
	Mode          application.InterviewMode
	Result        application.InterviewResult
}

// InsertInterview は面接を登録する。
func (s *Store) InsertInterview(ctx context.Context, arg InsertInterviewParams) (Interview, error) {
	iv := Interview{
		ApplicationID: arg.ApplicationID,
		Date:          arg.Date,
		Mode:          arg.Mode,
		Result:        arg.Result,
	}
	if iv.Result == "" {
		iv.Result = application.ResultPending
	}
	err := s.queryRow(ctx,
		`INSERT INTO interviews (application_id, interview_date, interview_mode, result)
		 VALUES (?, ?, ?, ?) RETURNING interview_id`,
		iv.ApplicationID, iv.Date, string(iv.Mode), string(iv.Result),
	).Scan(&iv.ID)
	if err != nil {
		return Interview{}, fmt.Errorf("面接の登録に失敗: %w", err)
	}
	return iv, nil
}

// ListInterviewsByApplication は応募に紐づく面接を登録順に返す。
func (s *Store) ListInterviewsByApplication(ctx context.Context, applicationID int64) ([]Interview, error) {
	rows, err := s.query(ctx,
		`SELECT interview_id, application_id, interview_date, interview_mode, result
		 FROM interviews WHERE application_id = ? ORDER BY interview_id`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("面接一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	interviews := make([]Interview, 0)
	for rows.Next() {
		var iv Interview
		if err := rows.Scan(&iv.ID, &iv.ApplicationID, &iv.Date, &iv.Mode, &iv.Result); err != nil {
			return nil, fmt.Errorf("面接行の読み取りに失敗: %w", err)
		}
		interviews = append(interviews, iv)
	}
	return interviews, rows.Err()
}
