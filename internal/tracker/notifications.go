package tracker

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/jobtracker/internal/notification"
	"github.com/nao1215/jobtracker/internal/store"
	"github.com/nao1215/jobtracker/pkg/middleware"
)

// createNotificationRequest は管理者による通知作成リクエストのJSON構造。
type createNotificationRequest struct {
	Type          string `json:"type" binding:"required"`
	ApplicationID int64  `json:"applicationID" binding:"required,gt=0"`
}

// handleListNotifications はユーザーの通知一覧を新しい順に返すハンドラ。本人または管理者のみ参照できる。
func (s *Server) handleListNotifications() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := paramID(c, "userID")
		if !ok {
			return
		}
		if !canAccessUser(c, userID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "この通知一覧を参照する権限がありません"})
			return
		}

		notifications, err := s.store.ListNotificationsByUser(c.Request.Context(), userID)
		if err != nil {
			respondStoreError(c, err, "", "通知一覧の取得に失敗しました")
			return
		}
		if notifications == nil {
			notifications = []store.Notification{}
		}
		c.JSON(http.StatusOK, notifications)
	}
}

// handleMarkRead は通知を既読にするハンドラ。通知の所有者または管理者のみ操作できる。
func (s *Server) handleMarkRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		ctx := c.Request.Context()
		n, err := s.store.GetNotification(ctx, id)
		if err != nil {
			respondStoreError(c, err, "通知が見つかりません", "通知の取得に失敗しました")
			return
		}
		if !canAccessUser(c, n.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "この通知を操作する権限がありません"})
			return
		}

		if err := s.store.MarkNotificationRead(ctx, id); err != nil {
			respondStoreError(c, err, "通知が見つかりません", "通知の既読処理に失敗しました")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "通知を既読にしました"})
	}
}

// handleMarkAllRead は本人の全通知を既読にするハンドラ。
func (s *Server) handleMarkAllRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := paramID(c, "userID")
		if !ok {
			return
		}
		if me, ok := middleware.GetUserID(c); !ok || me != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "この通知を操作する権限がありません"})
			return
		}

		updated, err := s.store.MarkAllNotificationsRead(c.Request.Context(), userID)
		if err != nil {
			respondStoreError(c, err, "", "全通知の既読処理に失敗しました")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "全通知を既読にしました", "updated": updated})
	}
}

// handleCreateNotification は管理者が任意の通知を作成するハンドラ。
// 作成した通知は次回のポーリングで応募者へ配信される。
func (s *Server) handleCreateNotification() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createNotificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "typeとapplicationIDが必要です"})
			return
		}

		ctx := c.Request.Context()
		if _, err := s.store.GetApplicationStatus(ctx, req.ApplicationID); err != nil {
			respondStoreError(c, err, "応募が見つかりません", "応募の取得に失敗しました")
			return
		}

		var adminID *int64
		if aid, ok := middleware.GetUserID(c); ok {
			adminID = &aid
		}
		id, err := s.outbox.Append(ctx, notification.Entry{
			Type:          req.Type,
			ApplicationID: req.ApplicationID,
			AdminID:       adminID,
		})
		if err != nil {
			respondStoreError(c, err, "", "通知の作成に失敗しました")
			return
		}

		n, err := s.store.GetNotification(ctx, id)
		if err != nil {
			respondStoreError(c, err, "通知が見つかりません", "通知の取得に失敗しました")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"notification": n})
	}
}
