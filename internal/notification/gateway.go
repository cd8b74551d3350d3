package notification

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nao1215/jobtracker/pkg/event"
	"github.com/nao1215/jobtracker/pkg/middleware"
)

// DefaultHeartbeat はpingイベントの送信間隔のデフォルト値。
const DefaultHeartbeat = 25 * time.Second

// Gateway はSSEストリームの接続・識別・切断をHubへ橋渡しする。
type Gateway struct {
	hub       *Hub
	heartbeat time.Duration
}

// NewGateway は新しいGatewayを生成する。heartbeatが0以下の場合はDefaultHeartbeatを使う。
func NewGateway(hub *Hub, heartbeat time.Duration) *Gateway {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &Gateway{hub: hub, heartbeat: heartbeat}
}

// HandleStream はSSEストリームを開くハンドラ。
// 接続直後に session イベントでセッションIDを送る。
// 一般ユーザーのトークンで接続した場合はそのユーザーとして自動的に識別する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func (g *Gateway) HandleStream() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := uuid.NewString()
		ch, err := g.hub.Connect(sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ストリームの開始に失敗しました"})
			log.Printf("[Gateway] セッション接続エラー: %v", err)
			return
		}
		defer g.hub.Unregister(sessionID)

		if userID, ok := middleware.GetUserID(c); ok && middleware.GetRole(c) == middleware.RoleUser {
			if err := g.hub.Register(sessionID, userID); err != nil {
				log.Printf("[Gateway] セッション識別エラー: session=%s: %v", sessionID, err)
			}
		}

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		c.Render(-1, sse.Event{
			Event: string(event.NameSession),
			Data:  event.SessionData{SessionID: sessionID},
		})
		c.Writer.Flush()

		ticker := time.NewTicker(g.heartbeat)
		defer ticker.Stop()

		ctx := c.Request.Context()
		c.Stream(func(_ io.Writer) bool {
			select {
			case <-ctx.Done():
				return false
			case p, ok := <-ch:
				if !ok {
					return false
				}
				data, err := event.Encode(p)
				if err != nil {
					log.Printf("[Gateway] 通知のシリアライズに失敗 (notification=%d): %v", p.NotificationID, err)
					return true
				}
				c.Render(-1, sse.Event{
					Event: string(event.NameNotification),
					Id:    strconv.FormatInt(p.NotificationID, 10),
					Data:  data,
				})
				return true
			case t := <-ticker.C:
				c.Render(-1, sse.Event{
					Event: string(event.NamePing),
					Data:  t.UTC().Format(time.RFC3339),
				})
				return true
			}
		})
	}
}

// HandleIdentify はストリームのセッションを認証済みユーザーとして識別するハンドラ。
// 同じセッションを別ユーザーとして識別し直した場合は移動する。
func (g *Gateway) HandleIdentify() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		sessionID := c.Param("sessionID")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "セッションIDが必要です"})
			return
		}

		if err := g.hub.Register(sessionID, userID); err != nil {
			if errors.Is(err, ErrUnknownSession) {
				c.JSON(http.StatusNotFound, gin.H{"error": "セッションが見つかりません"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "セッションの識別に失敗しました"})
			log.Printf("[Gateway] セッション識別エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"sessionID": sessionID, "userID": userID})
	}
}
