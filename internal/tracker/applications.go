package tracker

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/jobtracker/internal/application"
	"github.com/nao1215/jobtracker/internal/notification"
	"github.com/nao1215/jobtracker/internal/store"
	"github.com/nao1215/jobtracker/pkg/event"
	"github.com/nao1215/jobtracker/pkg/middleware"
)

// applyRequest は応募リクエストのJSON構造。
type applyRequest struct {
	// ApplicationDate は応募日。省略時は当日。
	ApplicationDate string `json:"applicationDate"`
	// Deadline は締切日。省略可。
	Deadline    string `json:"deadline"`
	Resume      string `json:"resume"`
	CoverLetter string `json:"coverLetter"`
}

// updateStatusRequest はステータス変更リクエストのJSON構造。
type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// handleApply は認証済みユーザーとして職種に応募するハンドラ。
func (s *Server) handleApply() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleID, ok := paramID(c, "roleID")
		if !ok {
			return
		}
		userID, ok := middleware.GetUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		var req applyRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です"})
			return
		}

		appDate := time.Now().Format(event.DateLayout)
		if req.ApplicationDate != "" {
			d, err := normalizeDate(req.ApplicationDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "applicationDateの形式が不正です"})
				return
			}
			appDate = d
		}
		deadline, err := normalizeOptionalDate(req.Deadline)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "deadlineの形式が不正です"})
			return
		}

		app, err := s.store.CreateApplication(c.Request.Context(), store.CreateApplicationParams{
			UserID:          userID,
			RoleID:          roleID,
			ApplicationDate: appDate,
			Deadline:        deadline,
			Resume:          req.Resume,
			CoverLetter:     req.CoverLetter,
		})
		if err != nil {
			respondStoreError(c, err, "職種が見つかりません", "応募の作成に失敗しました")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"application": app})
	}
}

// handleListUserApplications はユーザーの応募一覧を返すハンドラ。本人または管理者のみ参照できる。
func (s *Server) handleListUserApplications() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := paramID(c, "userID")
		if !ok {
			return
		}
		if !canAccessUser(c, userID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "この応募一覧を参照する権限がありません"})
			return
		}

		apps, err := s.store.ListApplicationsByUser(c.Request.Context(), userID)
		if err != nil {
			respondStoreError(c, err, "", "応募一覧の取得に失敗しました")
			return
		}
		if apps == nil {
			apps = []store.Application{}
		}
		c.JSON(http.StatusOK, apps)
	}
}

// handleListApplications は全応募の一覧を返すハンドラ。
func (s *Server) handleListApplications() gin.HandlerFunc {
	return func(c *gin.Context) {
		apps, err := s.store.ListApplications(c.Request.Context())
		if err != nil {
			respondStoreError(c, err, "", "応募一覧の取得に失敗しました")
			return
		}
		if apps == nil {
			apps = []store.Application{}
		}
		c.JSON(http.StatusOK, apps)
	}
}

// handleUpdateStatus は管理者が応募ステータスを直接変更するハンドラ。
// ステータスガードは通さない。変更後に管理者IDを付けた通知をOutboxへ追記する。
func (s *Server) handleUpdateStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "statusが必要です"})
			return
		}
		status, err := application.ParseStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		if err := s.store.SetApplicationStatus(ctx, id, status); err != nil {
			respondStoreError(c, err, "応募が見つかりません", "ステータスの更新に失敗しました")
			return
		}

		var adminID *int64
		if aid, ok := middleware.GetUserID(c); ok {
			adminID = &aid
		}
		if _, err := s.outbox.Append(ctx, notification.Entry{
			Type:          notification.StatusChangedMessage(status),
			ApplicationID: id,
			AdminID:       adminID,
		}); err != nil {
			log.Printf("[Outbox] ステータス変更通知の追記に失敗 (application=%d): %v", id, err)
		}

		app, err := s.store.GetApplication(ctx, id)
		if err != nil {
			respondStoreError(c, err, "応募が見つかりません", "応募の取得に失敗しました")
			return
		}
		c.JSON(http.StatusOK, gin.H{"application": app})
	}
}

// handleDeleteApplication は応募を削除するハンドラ。面接と通知も合わせて削除される。
func (s *Server) handleDeleteApplication() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := s.store.DeleteApplication(c.Request.Context(), id); err != nil {
			respondStoreError(c, err, "応募が見つかりません", "応募の削除に失敗しました")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
