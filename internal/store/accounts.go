package store

import (
	"context"
	"errors"
	"fmt"
)

// CreateUserParams はユーザー作成のパラメータ。
type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	ContactInfo  string
}

// CreateUser はユーザーを作成する。メールアドレスが重複する場合はErrDuplicateを返す。
func (s *Store) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	u := User{
		Name:         arg.Name,
		Email:        arg.Email,
		ContactInfo:  arg.ContactInfo,
		PasswordHash: arg.PasswordHash,
	}
	err := s.queryRow(ctx,
		`INSERT INTO users (name, email, password_hash, contact_info) VALUES (?, ?, ?, ?) RETURNING user_id`,
		arg.Name, arg.Email, arg.PasswordHash, arg.ContactInfo,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrDuplicate
		}
		return User{}, fmt.Errorf("ユーザーの作成に失敗: %w", err)
	}
	return u, nil
}

// GetUserByEmail はメールアドレスでユーザーを取得する。
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.queryRow(ctx,
		`SELECT user_id, name, email, password_hash, contact_info FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.ContactInfo)
	if err != nil {
		return User{}, wrapNoRows(err)
	}
	return u, nil
}

// ListUsers はユーザー一覧をID降順で返す。
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.query(ctx, `SELECT user_id, name, email, contact_info FROM users ORDER BY user_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.ContactInfo); err != nil {
			return nil, fmt.Errorf("ユーザー行の読み取りに失敗: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateAdminParams は管理者作成のパラメータ。
type CreateAdminParams struct {
	Name         string
	Email        string
	PasswordHash string
}

// CreateAdmin は管理者を作成する。メールアドレスが重複する場合はErrDuplicateを返す。
func (s *Store) CreateAdmin(ctx context.Context, arg CreateAdminParams) (Admin, error) {
	a := Admin{Name: arg.Name, Email: arg.Email, PasswordHash: arg.PasswordHash}
	err := s.queryRow(ctx,
		`INSERT INTO admins (name, email, password_hash) VALUES (?, ?, ?) RETURNING admin_id`,
		arg.Name, arg.Email, arg.PasswordHash,
	).Scan(&a.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return Admin{}, ErrDuplicate
		}
		return Admin{}, fmt.Errorf("管理者の作成に失敗: %w", err)
	}
	return a, nil
}

// GetAdminByEmail はメールアドレスで管理者を取得する。
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (Admin, error) {
	var a Admin
	err := s.queryRow(ctx,
		`SELECT admin_id, name, email, password_hash FROM admins WHERE email = ?`, email,
	).Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash)
	if err != nil {
		return Admin{}, wrapNoRows(err)
	}
	return a, nil
}

// EnsureAdmin は指定メールアドレスの管理者が存在しなければ作成する。
// 既に存在する場合は既存の管理者を返し、パスワードは変更しない。
func (s *Store) EnsureAdmin(ctx context.Context, arg CreateAdminParams) (Admin, bool, error) {
	existing, err := s.GetAdminByEmail(ctx, arg.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Admin{}, false, fmt.Errorf("管理者の取得に失敗: %w", err)
	}
	created, err := s.CreateAdmin(ctx, arg)
	if err != nil {
		return Admin{}, false, err
	}
	return created, true, nil
}
