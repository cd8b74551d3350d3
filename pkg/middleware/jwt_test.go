package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSecret はテスト用のJWTシークレット。
const testSecret = "test-secret-key-for-unit-tests"

// parseClaims はテスト用にトークンを検証してクレームを取り出す。
func parseClaims(t *testing.T, tokenStr string) *JWTClaims {
	t.Helper()

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	if err != nil {
		t.Fatalf("トークンのパースに失敗: %v", err)
	}
	if !token.Valid {
		t.Fatal("トークンが無効")
	}
	return claims
}

// TestGenerateJWT はGenerateJWT関数を検証する。
func TestGenerateJWT(t *testing.T) {
	t.Parallel()

	t.Run("ユーザーIDとロールがクレームに含まれること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT(testSecret, 5, "ann@example.com", RoleUser, time.Hour)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		claims := parseClaims(t, tokenStr)
		if claims.UserID != 5 {
			t.Errorf("UserID = %d, want %d", claims.UserID, 5)
		}
		if claims.Email != "ann@example.com" {
			t.Errorf("Email = %q, want %q", claims.Email, "ann@example.com")
		}
		if claims.Role != RoleUser {
			t.Errorf("Role = %q, want %q", claims.Role, RoleUser)
		}
		if claims.Issuer != "jobtracker" {
			t.Errorf("Issuer = %q, want %q", claims.Issuer, "jobtracker")
		}
		if claims.Subject != "5" {
			t.Errorf("Subject = %q, want %q", claims.Subject, "5")
		}
	})

	t.Run("有効期限が指定したTTL後であること", func(t *testing.T) {
		t.Parallel()

		before := time.Now()
		tokenStr, err := GenerateJWT(testSecret, 1, "admin@example.com", RoleAdmin, 2*time.Hour)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		claims := parseClaims(t, tokenStr)
		expected := before.Add(2 * time.Hour)
		if claims.ExpiresAt.Time.Before(expected.Add(-time.Minute)) || claims.ExpiresAt.Time.After(expected.Add(time.Minute)) {
			t.Errorf("ExpiresAt = %v, want およそ %v", claims.ExpiresAt.Time, expected)
		}
	})
}

// newAuthRouter はJWTAuthを適用したテスト用ルーターを返す。
func newAuthRouter() *gin.Engine {
	router := gin.New()
	router.Use(JWTAuth(testSecret))
	router.GET("/me", func(c *gin.Context) {
		id, ok := GetUserID(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "user_id なし"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "role": GetRole(c)})
	})
	return router
}

// TestJWTAuth はJWTAuthミドルウェアを検証する。
func TestJWTAuth(t *testing.T) {
	t.Parallel()

	t.Run("Bearerトークンで認証できること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT(testSecret, 7, "u@example.com", RoleUser, time.Hour)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()
		newAuthRouter().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		var body struct {
			ID   int64  `json:"id"`
			Role string `json:"role"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body.ID != 7 || body.Role != "user" {
			t.Errorf("body = %+v, want id=7 role=user", body)
		}
		if got := w.Header().Get("X-User-ID"); got != "7" {
			t.Errorf("X-User-ID = %q, want %q", got, "7")
		}
	})

	t.Run("tokenクエリパラメータで認証できること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT(testSecret, 9, "q@example.com", RoleUser, time.Hour)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/me?token="+tokenStr, nil)
		w := httptest.NewRecorder()
		newAuthRouter().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
	})

	tests := []struct {
		name   string
		header string
		query  string
	}{
		{name: "トークンがない場合401が返ること"},
		{name: "Bearer形式でない場合401が返ること", header: "Token abc"},
		{name: "不正なトークンの場合401が返ること", header: "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newAuthRouter().ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}

	t.Run("別のシークレットで署名されたトークンは401になること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT("other-secret", 7, "u@example.com", RoleUser, time.Hour)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()
		newAuthRouter().ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("有効期限切れのトークンは401になること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT(testSecret, 7, "u@example.com", RoleUser, -time.Minute)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()
		newAuthRouter().ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("未知のロールを持つトークンは401になること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT(testSecret, 7, "u@example.com", Role("guest"), time.Hour)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()
		newAuthRouter().ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}

// TestRequireRole はRequireRoleミドルウェアを検証する。
func TestRequireRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		role Role
		want int
	}{
		{name: "管理者は通過できること", role: RoleAdmin, want: http.StatusOK},
		{name: "一般ユーザーは403になること", role: RoleUser, want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.Use(JWTAuth(testSecret), RequireRole(RoleAdmin))
			router.GET("/admin", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			tokenStr, err := GenerateJWT(testSecret, 1, "x@example.com", tt.role, time.Hour)
			if err != nil {
				t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
			}
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+tokenStr)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("ステータスコード = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

// TestGetUserID はGetUserID関数を検証する。
func TestGetUserID(t *testing.T) {
	t.Parallel()

	t.Run("未設定の場合falseが返ること", func(t *testing.T) {
		t.Parallel()

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		if _, ok := GetUserID(c); ok {
			t.Error("GetUserID() ok = true, want false")
		}
		if got := GetRole(c); got != "" {
			t.Errorf("GetRole() = %q, want 空文字列", got)
		}
	})

	t.Run("SetIdentityで設定した値が取得できること", func(t *testing.T) {
		t.Parallel()

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		SetIdentity(c, 42, RoleAdmin)
		id, ok := GetUserID(c)
		if !ok || id != 42 {
			t.Errorf("GetUserID() = (%d, %v), want (42, true)", id, ok)
		}
		if got := GetRole(c); got != RoleAdmin {
			t.Errorf("GetRole() = %q, want %q", got, RoleAdmin)
		}
	})
}
