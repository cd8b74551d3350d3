package store

import (
	"github.com/nao1215/jobtracker/internal/application"
	"github.com/nao1215/jobtracker/pkg/event"
)

// User は応募者。パスワードハッシュはJSONに含めない。
type User struct {
	// ID はユーザーの一意識別子。
	ID int64 `json:"userID"`
	// Name は氏名。
	Name string `json:"name"`
	// Email はログインに使用するメールアドレス。
	Email string `json:"email"`
	// ContactInfo は連絡先。
	ContactInfo string `json:"contact_info"`
	// PasswordHash はbcryptでハッシュ化したパスワード。
	PasswordHash string `json:"-"`
}

// Admin は管理者。
type Admin struct {
	// ID は管理者の一意識別子。
	ID int64 `json:"adminID"`
	// Name は氏名。
	Name string `json:"name"`
	// Email はログインに使用するメールアドレス。
	Email string `json:"email"`
	// PasswordHash はbcryptでハッシュ化したパスワード。
	PasswordHash string `json:"-"`
}

// Company は募集企業。
type Company struct {
	ID          int64  `json:"companyID"`
	Name        string `json:"companyName"`
	Location    string `json:"location"`
	ContactInfo string `json:"contactInfo"`
	Industry    string `json:"industry"`
	City        string `json:"city"`
	Country     string `json:"country"`
}

// Role は企業の募集職種。一覧取得時は企業名と所在地を結合して返す。
type Role struct {
	ID              int64  `json:"roleID"`
	CompanyID       int64  `json:"companyID"`
	Title           string `json:"roleTitle"`
	JobType         string `json:"jobType"`
	Description     string `json:"description"`
	SalaryRange     string `json:"salaryRange"`
	Location        string `json:"location"`
	CompanyName     string `json:"companyName,omitempty"`
	CompanyLocation string `json:"companyLocation,omitempty"`
}

// Application は職種への応募。
type Application struct {
	// ID は応募の一意識別子。
	ID int64 `json:"applicationID"`
	// UserID は応募者のID。
	UserID int64 `json:"userID"`
	// RoleID は応募先職種のID。
	RoleID int64 `json:"roleID"`
	// ApplicationDate は応募日（YYYY-MM-DD）。
	ApplicationDate string `json:"applicationDate"`
	// Deadline は締切日（YYYY-MM-DD）。未設定の場合はnull。
	Deadline *string `json:"deadline"`
	// Status は応募ステータス。
	Status application.Status `json:"status"`

	// 以下は一覧取得時に結合される表示用の項目。
	RoleTitle       string `json:"roleTitle,omitempty"`
	RoleCompanyID   int64  `json:"roleCompanyID,omitempty"`
	CompanyName     string `json:"companyName,omitempty"`
	CompanyLocation string `json:"companyLocation,omitempty"`
	UserName        string `json:"userName,omitempty"`
	UserEmail       string `json:"userEmail,omitempty"`
}

// Interview は応募に紐づく面接。
type Interview struct {
	ID            int64                       `json:"interviewID"`
	ApplicationID int64                       `json:"applicationID"`
	Date          string                      `json:"interviewDate"`
	Mode          application.InterviewMode   `json:"interviewMode"`
	Result        application.InterviewResult `json:"result"`
}

// Notification はユーザー向け通知の一覧表示用の行。
type Notification struct {
	event.NotificationPayload
	// UserID は通知の所有者（応募者）のID。
	UserID int64 `json:"appUserID"`
	// RoleTitle は応募先職種名。
	RoleTitle string `json:"roleTitle"`
	// CompanyName は応募先企業名。
	CompanyName string `json:"companyName"`
	// Delivered はポーラーがプッシュ配信済みかどうか。
	Delivered bool `json:"delivered"`
	// IsRead はユーザーが既読にしたかどうか。
	IsRead bool `json:"isRead"`
}

// UndeliveredNotification はポーラーが配信する未配信通知。
type UndeliveredNotification struct {
	// Payload は配信データ。
	Payload event.NotificationPayload
	// OwnerUserID は配信先ユーザーのID。
	OwnerUserID int64
}

// StatusCount はステータスごとの応募件数。
type StatusCount struct {
	Status application.Status `json:"status"`
	Count  int64              `json:"count"`
}
