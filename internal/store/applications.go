package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nao1215/jobtracker/internal/application"
)

// CreateApplicationParams は応募作成のパラメータ。
type CreateApplicationParams struct {
	UserID          int64
	RoleID          int64
	ApplicationDate string
	Deadline        *string
	Resume          string
	CoverLetter     string
}

// CreateApplication はステータスAppliedで応募を作成する。職種が存在しない場合はErrNotFoundを返す。
func (s *Store) CreateApplication(ctx context.Context, arg CreateApplicationParams) (Application, error) {
	var exists int
	if err := s.queryRow(ctx, `SELECT 1 FROM job_roles WHERE role_id = ?`, arg.RoleID).Scan(&exists); err != nil {
		return Application{}, wrapNoRows(err)
	}

	a := Application{
		UserID:          arg.UserID,
		RoleID:          arg.RoleID,
		ApplicationDate: arg.ApplicationDate,
		Deadline:        arg.Deadline,
		Status:          application.StatusApplied,
	}
	err := s.queryRow(ctx,
		`INSERT INTO job_applications (user_id, role_id, application_date, deadline, status, resume, cover_letter)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING application_id`,
		arg.UserID, arg.RoleID, arg.ApplicationDate, nullString(arg.Deadline), string(application.StatusApplied),
		arg.Resume, arg.CoverLetter,
	).Scan(&a.ID)
	if err != nil {
		return Application{}, fmt.Errorf("応募の作成に失敗: %w", err)
	}
	return a, nil
}

// GetApplication は応募を1件取得する。
func (s *Store) GetApplication(ctx context.Context, id int64) (Application, error) {
	var (
		a        Application
		deadline sql.NullString
	)
	err := s.queryRow(ctx,
		`SELECT application_id, user_id, role_id, application_date, deadline, status
		 FROM job_applications WHERE application_id = ?`, id,
	).Scan(&a.ID, &a.UserID, &a.RoleID, &a.ApplicationDate, &deadline, &a.Status)
	if err != nil {
		return Application{}, wrapNoRows(err)
	}
	a.Deadline = stringPtr(deadline)
	return a, nil
}

// ListApplications は全応募を応募者・職種・企業と結合してID降順で返す。
func (s *Store) ListApplications(ctx context.Context) ([]Application, error) {
	rows, err := s.query(ctx,
		`SELECT a.application_id, a.user_id, a.role_id, a.application_date, a.deadline, a.status,
		        r.role_title, r.company_id, c.company_name, c.location, u.name, u.email
		 FROM job_applications a
		 JOIN users u ON a.user_id = u.user_id
		 JOIN job_roles r ON a.role_id = r.role_id
		 JOIN companies c ON r.company_id = c.company_id
		 ORDER BY a.application_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("応募一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	apps := make([]Application, 0)
	for rows.Next() {
		var (
			a        Application
			deadline sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.RoleID, &a.ApplicationDate, &deadline, &a.Status,
			&a.RoleTitle, &a.RoleCompanyID, &a.CompanyName, &a.CompanyLocation, &a.UserName, &a.UserEmail); err != nil {
			return nil, fmt.Errorf("応募行の読み取りに失敗: %w", err)
		}
		a.Deadline = stringPtr(deadline)
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// ListApplicationsByUser は指定ユーザーの応募を職種・企業と結合してID降順で返す。
func (s *Store) ListApplicationsByUser(ctx context.Context, userID int64) ([]Application, error) {
	rows, err := s.query(ctx,
		`SELECT a.application_id, a.user_id, a.role_id, a.application_date, a.deadline, a.status,
		        r.role_title, r.company_id, c.company_name
		 FROM job_applications a
		 JOIN job_roles r ON a.role_id = r.role_id
		 JOIN companies c ON r.company_id = c.company_id
		 WHERE a.user_id = ?
		 ORDER BY a.application_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの応募一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	apps := make([]Application, 0)
	for rows.Next() {
		var (
			a        Application
			deadline sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.RoleID, &a.ApplicationDate, &deadline, &a.Status,
			&a.RoleTitle, &a.RoleCompanyID, &a.CompanyName); err != nil {
			return nil, fmt.Errorf("応募行の読み取りに失敗: %w", err)
		}
		a.Deadline = stringPtr(deadline)
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// GetApplicationStatus は応募の現在のステータスを返す。
func (s *Store) GetApplicationStatus(ctx context.Context, id int64) (application.Status, error) {
	var status application.Status
	if err := s.queryRow(ctx, `SELECT status FROM job_applications WHERE application_id = ?`, id).Scan(&status); err != nil {
		return "", wrapNoRows(err)
	}
	return status, nil
}

// SetApplicationStatus は応募のステータスを更新する。応募が存在しない場合はErrNotFoundを返す。
// 終端ステータスの保護は呼び出し側（application.DecideStatus）の責務。
func (s *Store) SetApplicationStatus(ctx context.Context, id int64, status application.Status) error {
	if err := s.execAffected(ctx, `UPDATE job_applications SET status = ? WHERE application_id = ?`, string(status), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("応募ステータスの更新に失敗: %w", err)
	}
	return nil
}

// DeleteApplication は応募を削除する。面接と通知は外部キーにより連鎖削除される。
func (s *Store) DeleteApplication(ctx context.Context, id int64) error {
	if err := s.execAffected(ctx, `DELETE FROM job_applications WHERE application_id = ?`, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("応募の削除に失敗: %w", err)
	}
	return nil
}

// CountApplicationsByStatus はステータスごとの応募件数を返す。件数0のステータスも含む。
func (s *Store) CountApplicationsByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := s.query(ctx, `SELECT status, COUNT(*) FROM job_applications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("ステータス別件数の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[application.Status]int64)
	for rows.Next() {
		var (
			status application.Status
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("件数行の読み取りに失敗: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]StatusCount, 0, len(application.Statuses()))
	for _, st := range application.Statuses() {
		result = append(result, StatusCount{Status: st, Count: counts[st]})
	}
	return result, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
