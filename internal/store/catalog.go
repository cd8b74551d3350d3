package store

import (
	"context"
	"fmt"
)

// CreateCompany は企業を作成する。
func (s *Store) CreateCompany(ctx context.Context, c Company) (Company, error) {
	err := s.queryRow(ctx,
		`INSERT INTO companies (company_name, location, contact_info, industry, city, country)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING company_id`,
		c.Name, c.Location, c.ContactInfo, c.Industry, c.City, c.Country,
	).Scan(&c.ID)
	if err != nil {
		return Company{}, fmt.Errorf("企業の作成に失敗: %w", err)
	}
	return c, nil
}

// ListCompanies は企業一覧をID降順で返す。
func (s *Store) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := s.query(ctx,
		`SELECT company_id, company_name, location, contact_info, industry, city, country
		 FROM companies ORDER BY company_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("企業一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	companies := make([]Company, 0)
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.ContactInfo, &c.Industry, &c.City, &c.Country); err != nil {
			return nil, fmt.Errorf("企業行の読み取りに失敗: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// CreateRole は職種を作成する。企業が存在しない場合はErrNotFoundを返す。
func (s *Store) CreateRole(ctx context.Context, r Role) (Role, error) {
	var exists int
	if err := s.queryRow(ctx, `SELECT 1 FROM companies WHERE company_id = ?`, r.CompanyID).Scan(&exists); err != nil {
		return Role{}, wrapNoRows(err)
	}

	err := s.queryRow(ctx,
		`INSERT INTO job_roles (company_id, role_title, job_type, description, salary_range, location)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING role_id`,
		r.CompanyID, r.Title, r.JobType, r.Description, r.SalaryRange, r.Location,
	).Scan(&r.ID)
	if err != nil {
		return Role{}, fmt.Errorf("職種の作成に失敗: %w", err)
	}
	return r, nil
}

// ListRoles は職種一覧を企業情報と結合してID降順で返す。
func (s *Store) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.query(ctx,
		`SELECT r.role_id, r.company_id, r.role_title, r.job_type, r.description, r.salary_range, r.location,
		        c.company_name, c.location
		 FROM job_roles r
		 JOIN companies c ON r.company_id = c.company_id
		 ORDER BY r.role_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("職種一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	roles := make([]Role, 0)
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.Title, &r.JobType, &r.Description, &r.SalaryRange, &r.Location,
			&r.CompanyName, &r.CompanyLocation); err != nil {
			return nil, fmt.Errorf("職種行の読み取りに失敗: %w", err)
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}
