package tracker

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/nao1215/jobtracker/internal/store"
	"github.com/nao1215/jobtracker/pkg/middleware"
)

// registerRequest はユーザー登録リクエストのJSON構造。
type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Contact  string `json:"contact"`
	Password string `json:"password" binding:"required,min=8"`
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// HashPassword はパスワードをbcryptでハッシュ化する。
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// handleRegister は応募者アカウントを作成してトークンを発行するハンドラ。
func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name, email, password（8文字以上）が必要です"})
			return
		}

		hash, err := HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー登録に失敗しました"})
			log.Printf("パスワードハッシュ化エラー: %v", err)
			return
		}

		u, err := s.store.CreateUser(c.Request.Context(), store.CreateUserParams{
			Name:         req.Name,
			Email:        req.Email,
			ContactInfo:  req.Contact,
			PasswordHash: hash,
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				c.JSON(http.StatusConflict, gin.H{"error": "このメールアドレスは既に登録されています"})
				return
			}
			respondStoreError(c, err, "", "ユーザー登録に失敗しました")
			return
		}

		s.respondWithToken(c, http.StatusCreated, u.ID, u.Email, middleware.RoleUser, gin.H{"user": u})
	}
}

// handleLogin は応募者のログインハンドラ。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "emailとpasswordが必要です"})
			return
		}

		u, err := s.store.GetUserByEmail(c.Request.Context(), req.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが正しくありません"})
				return
			}
			respondStoreError(c, err, "", "ログインに失敗しました")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが正しくありません"})
			return
		}

		s.respondWithToken(c, http.StatusOK, u.ID, u.Email, middleware.RoleUser, gin.H{"user": u})
	}
}

// handleAdminLogin は管理者のログインハンドラ。
func (s *Server) handleAdminLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "emailとpasswordが必要です"})
			return
		}

		a, err := s.store.GetAdminByEmail(c.Request.Context(), req.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが正しくありません"})
				return
			}
			respondStoreError(c, err, "", "ログインに失敗しました")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが正しくありません"})
			return
		}

		s.respondWithToken(c, http.StatusOK, a.ID, a.Email, middleware.RoleAdmin, gin.H{"admin": a})
	}
}

// respondWithToken はトークンを発行し、bodyに "token" を加えて返す。
func (s *Server) respondWithToken(c *gin.Context, status int, id int64, email string, role middleware.Role, body gin.H) {
	token, err := middleware.GenerateJWT(s.opts.JWTSecret, id, email, role, s.opts.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "トークンの発行に失敗しました"})
		log.Printf("トークン発行エラー: %v", err)
		return
	}
	body["token"] = token
	c.JSON(status, body)
}
