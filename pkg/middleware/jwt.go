package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Role は認証主体の種類を表す。
type Role string

const (
	// RoleUser は応募者。
	RoleUser Role = "user"
	// RoleAdmin は管理者。
	RoleAdmin Role = "admin"
)

// issuer はトークンの発行者名。
const issuer = "jobtracker"

// JWTClaims はJWTトークンのクレーム（ペイロード）を表す。
type JWTClaims struct {
	jwt.RegisteredClaims
	// UserID は認証済み主体の識別子。Roleがadminの場合は管理者ID。
	UserID int64 `json:"user_id"`
	// Email はログインに使用したメールアドレス。
	Email string `json:"email"`
	// Role は認証主体の種類。
	Role Role `json:"role"`
}

// headerKeyUserID はレスポンスにユーザーIDを付与するHTTPヘッダーキー。
const headerKeyUserID = "X-User-ID"

// queryKeyToken はEventSourceなどヘッダーを設定できないクライアントがトークンを渡すクエリパラメータ。
const queryKeyToken = "token"

// コンテキストキー。
const (
	contextKeyUserID = "user_id"
	contextKeyEmail  = "email"
	contextKeyRole   = "role"
)

// GenerateJWT は認証主体の情報からJWTトークンを生成する。
func GenerateJWT(secret string, id int64, email string, role Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatInt(id, 10),
		},
		UserID: id,
		Email:  email,
		Role:   role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// JWTAuth はJWTトークンを検証するGinミドルウェアを返す。
// トークンはAuthorizationヘッダー（Bearer）または token クエリパラメータから取得する。
// 検証に成功した場合、コンテキストに "user_id"、"email"、"role" を設定する。
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "トークンが無効です",
			})
			return
		}

		if claims.Role != RoleUser && claims.Role != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "トークンのロールが不正です",
			})
			return
		}

		c.Set(contextKeyUserID, claims.UserID)
		c.Set(contextKeyEmail, claims.Email)
		c.Set(contextKeyRole, claims.Role)
		c.Header(headerKeyUserID, strconv.FormatInt(claims.UserID, 10))
		c.Next()
	}
}

// extractToken はリクエストからトークン文字列を取り出す。
func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if q := c.Query(queryKeyToken); q != "" {
			return q, nil
		}
		return "", fmt.Errorf("Authorizationヘッダーが必要です")
	}

	tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found {
		return "", fmt.Errorf("Bearer トークン形式が不正です")
	}
	return tokenString, nil
}

// RequireRole は指定ロール以外のリクエストを403で拒否するGinミドルウェアを返す。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func RequireRole(roles ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "この操作を行う権限がありません",
		})
	}
}

// GetUserID はGinコンテキストから認証主体のIDを取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(contextKeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// GetRole はGinコンテキストから認証主体のロールを取得する。
func GetRole(c *gin.Context) Role {
	v, _ := c.Get(contextKeyRole)
	if role, ok := v.(Role); ok {
		return role
	}
	return ""
}

// SetIdentity はコンテキストに認証主体を設定する。
// JWTを介さずにハンドラを検証するテストで使用する。
func SetIdentity(c *gin.Context, id int64, role Role) {
	c.Set(contextKeyUserID, id)
	c.Set(contextKeyRole, role)
}
