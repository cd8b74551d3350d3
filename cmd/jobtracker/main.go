// 応募管理サービスのエントリポイント。
// REST APIとSSEストリームを提供し、バックグラウンドで未配信通知の
// ポーリングとプッシュ配信を行う。
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/jobtracker/internal/config"
	"github.com/nao1215/jobtracker/internal/notification"
	"github.com/nao1215/jobtracker/internal/store"
	"github.com/nao1215/jobtracker/internal/tracker"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("応募管理サービスの実行に失敗: %v", err)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		log.Println("JWT_SECRETが未設定のため開発用の鍵を使用します")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Options{Driver: store.Dialect(cfg.Database.Driver), DSN: cfg.Database.URL})
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("データベース切断エラー: %v", err)
		}
	}()

	if cfg.Admin.Email != "" {
		if err := seedAdmin(ctx, st, cfg); err != nil {
			return err
		}
	}

	hub := notification.NewHub(notification.DefaultSessionBuffer)
	poller := notification.NewPoller(st, hub, cfg.PollInterval())
	server := tracker.NewServer(st, hub, tracker.Options{
		JWTSecret:    cfg.Auth.JWTSecret,
		TokenTTL:     cfg.Auth.TokenTTL,
		CORSOrigins:  cfg.CORSOrigins,
		Heartbeat:    cfg.Heartbeat(),
		PollInterval: cfg.PollInterval(),
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	poller.Start(ctx)
	defer poller.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("応募管理サービスを起動します: %s (driver=%s)", cfg.Addr(), cfg.Database.Driver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("シャットダウンを開始します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// SSEストリームは長時間接続のため、期限切れ後は強制的に閉じる
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTPサーバーの停止がタイムアウトしました: %v", err)
		_ = httpServer.Close()
	}
	return nil
}

// seedAdmin は設定された管理者アカウントがなければ作成する。
func seedAdmin(ctx context.Context, st *store.Store, cfg *config.Config) error {
	hash, err := tracker.HashPassword(cfg.Admin.Password)
	if err != nil {
		return err
	}
	admin, created, err := st.EnsureAdmin(ctx, store.CreateAdminParams{
		Name:         cfg.Admin.Name,
		Email:        cfg.Admin.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return err
	}
	if created {
		log.Printf("管理者アカウントを作成しました: %s (adminID=%d)", admin.Email, admin.ID)
	}
	return nil
}
