package tracker

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/jobtracker/internal/application"
	"github.com/nao1215/jobtracker/internal/notification"
	"github.com/nao1215/jobtracker/internal/store"
)

// createInterviewRequest は面接登録リクエストのJSON構造。
type createInterviewRequest struct {
	ApplicationID int64  `json:"applicationID" binding:"required,gt=0"`
	InterviewDate string `json:"interviewDate" binding:"required"`
	InterviewMode string `json:"interviewMode" binding:"required"`
	Result        string `json:"result"`
}

// handleCreateInterview は面接を登録するハンドラ。
// 面接の登録、ステータスガードによる応募ステータスの更新、Outboxへの通知追記を順に行う。
// 通知の追記に失敗しても面接登録自体は成功として扱う。
func (s *Server) handleCreateInterview() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createInterviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "applicationID, interviewDate, interviewModeが必要です"})
			return
		}
		date, err := normalizeDate(req.InterviewDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "interviewDateの形式が不正です"})
			return
		}
		mode, err := application.ParseInterviewMode(req.InterviewMode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := application.ParseInterviewResult(req.Result)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		current, err := s.store.GetApplicationStatus(ctx, req.ApplicationID)
		if err != nil {
			respondStoreError(c, err, "応募が見つかりません", "応募の取得に失敗しました")
			return
		}

		interview, err := s.store.InsertInterview(ctx, store.InsertInterviewParams{
			ApplicationID: req.ApplicationID,
			Date:          date,
			Mode:          mode,
			Result:        result,
		})
		if err != nil {
			respondStoreError(c, err, "応募が見つかりません", "面接の登録に失敗しました")
			return
		}

		next := application.DecideStatus(current, application.Event{Kind: application.EventInterviewScheduled})
		if next != current {
			if err := s.store.SetApplicationStatus(ctx, req.ApplicationID, next); err != nil {
				respondStoreError(c, err, "応募が見つかりません", "ステータスの更新に失敗しました")
				return
			}
		}

		if _, err := s.outbox.Append(ctx, notification.Entry{
			Type:          notification.InterviewScheduledMessage(date),
			ApplicationID: req.ApplicationID,
		}); err != nil {
			log.Printf("[Outbox] 面接通知の追記に失敗 (application=%d): %v", req.ApplicationID, err)
		}

		app, err := s.store.GetApplication(ctx, req.ApplicationID)
		if err != nil {
			respondStoreError(c, err, "応募が見つかりません", "応募の取得に失敗しました")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"interview": interview, "application": app})
	}
}

// handleListInterviews は応募に紐づく面接一覧を返すハンドラ。応募者本人または管理者のみ参照できる。
func (s *Server) handleListInterviews() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		ctx := c.Request.Context()
		app, err := s.store.GetApplication(ctx, id)
		if err != nil {
			respondStoreError(c, err, "応募が見つかりません", "応募の取得に失敗しました")
			return
		}
		if !canAccessUser(c, app.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "この応募を参照する権限がありません"})
			return
		}

		interviews, err := s.store.ListInterviewsByApplication(ctx, id)
		if err != nil {
			respondStoreError(c, err, "", "面接一覧の取得に失敗しました")
			return
		}
		if interviews == nil {
			interviews = []store.Interview{}
		}
		c.JSON(http.StatusOK, interviews)
	}
}
