package tracker

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/jobtracker/internal/store"
)

// handleListUsers は応募者一覧を返すハンドラ。
func (s *Server) handleListUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := s.store.ListUsers(c.Request.Context())
		if err != nil {
			respondStoreError(c, err, "", "ユーザー一覧の取得に失敗しました")
			return
		}
		if users == nil {
			users = []store.User{}
		}
		c.JSON(http.StatusOK, users)
	}
}

// handleOverview は管理ダッシュボード用にステータス別の応募件数とストリームの接続状況を返すハンドラ。
func (s *Server) handleOverview() gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := s.store.CountApplicationsByStatus(c.Request.Context())
		if err != nil {
			respondStoreError(c, err, "", "集計に失敗しました")
			return
		}

		var total int64
		for _, sc := range counts {
			total += sc.Count
		}
		c.JSON(http.StatusOK, gin.H{
			"total":    total,
			"byStatus": counts,
			"stream":   s.hub.Stats(),
		})
	}
}
