package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/jobtracker/internal/application"
	"github.com/nao1215/jobtracker/internal/notification"
	"github.com/nao1215/jobtracker/internal/store"
	"github.com/nao1215/jobtracker/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSecret はテスト用のJWTシークレット。
const testSecret = "test-secret-key-for-unit-tests"

// testEnv はテスト用のサーバーと依存関係。
type testEnv struct {
	s      *Server
	store  *store.Store
	hub    *notification.Hub
	router http.Handler
	admin  store.Admin
	// adminToken は管理者のトークン。
	adminToken string
}

// setupTestServer はテスト用のサーバーをインメモリSQLiteで構築する。
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.Open(t.Context(), store.Options{Driver: store.DialectSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	hash, err := HashPassword("admin-password")
	if err != nil {
		t.Fatalf("パスワードのハッシュ化に失敗: %v", err)
	}
	admin, err := st.CreateAdmin(t.Context(), store.CreateAdminParams{Name: "Admin", Email: "admin@example.com", PasswordHash: hash})
	if err != nil {
		t.Fatalf("管理者の作成に失敗: %v", err)
	}

	hub := notification.NewHub(0)
	s := NewServer(st, hub, Options{
		JWTSecret:    testSecret,
		TokenTTL:     time.Hour,
		CORSOrigins:  []string{"*"},
		Heartbeat:    time.Hour,
		PollInterval: time.Second,
	})
	return &testEnv{
		s:          s,
		store:      st,
		hub:        hub,
		router:     s.Handler(),
		admin:      admin,
		adminToken: tokenFor(t, admin.ID, middleware.RoleAdmin),
	}
}

// tokenFor はテスト用のトークンを生成する。
func tokenFor(t *testing.T, id int64, role middleware.Role) string {
	t.Helper()

	tok, err := middleware.GenerateJWT(testSecret, id, "test@example.com", role, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
	}
	return tok
}

// seeded はseedApplicationが作成したデータ。
type seeded struct {
	user  store.User
	role  store.Role
	app   store.Application
	token string
}

// seedApplication はユーザー・企業・職種・応募を作成するヘルパー関数。
func seedApplication(t *testing.T, env *testEnv, email string) seeded {
	t.Helper()
	ctx := t.Context()

	u, err := env.store.CreateUser(ctx, store.CreateUserParams{Name: "応募者", Email: email, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("ユーザーの作成に失敗: %v", err)
	}
	c, err := env.store.CreateCompany(ctx, store.Company{Name: "Acme", Location: "Tokyo"})
	if err != nil {
		t.Fatalf("企業の作成に失敗: %v", err)
	}
	r, err := env.store.CreateRole(ctx, store.Role{CompanyID: c.ID, Title: "Backend Engineer"})
	if err != nil {
		t.Fatalf("職種の作成に失敗: %v", err)
	}
	a, err := env.store.CreateApplication(ctx, store.CreateApplicationParams{UserID: u.ID, RoleID: r.ID, ApplicationDate: "2024-02-01"})
	if err != nil {
		t.Fatalf("応募の作成に失敗: %v", err)
	}
	return seeded{user: u, role: r, app: a, token: tokenFor(t, u.ID, middleware.RoleUser)}
}

// doRequest はテスト用のHTTPリクエストを実行し、レスポンスを返すヘルパー関数。
func doRequest(router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	reqBody := bytes.NewReader(nil)
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewReader(jsonBytes)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decode はレスポンスボディをデコードするヘルパー関数。
func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("レスポンスボディのパースに失敗: %v (body=%s)", err, w.Body.String())
	}
	return v
}

// notificationsOf はユーザーの通知一覧を返すヘルパー関数。
func notificationsOf(t *testing.T, env *testEnv, userID int64) []store.Notification {
	t.Helper()

	ns, err := env.store.ListNotificationsByUser(t.Context(), userID)
	if err != nil {
		t.Fatalf("通知一覧の取得に失敗: %v", err)
	}
	return ns
}

// failingAppender は常に失敗するAppender。
type failingAppender struct{}

func (failingAppender) Append(context.Context, notification.Entry) (int64, error) {
	return 0, errors.New("notifications table is locked")
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := setupTestServer(t)
	w := doRequest(env.router, http.MethodGet, "/api/health", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
	}
	body := decode[map[string]any](t, w)
	if body["ok"] != true || body["db"] != true {
		t.Errorf("body = %v", body)
	}
	if body["pollIntervalMs"] != float64(1000) {
		t.Errorf("pollIntervalMs = %v, want 1000", body["pollIntervalMs"])
	}
}

func TestAuth(t *testing.T) {
	t.Parallel()

	t.Run("登録したユーザーでログインできる", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		w := doRequest(env.router, http.MethodPost, "/api/auth/register", "", gin.H{
			"name": "Ann", "email": "ann@example.com", "password": "password123", "contact": "090",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("登録のステータスコード = %d, want %d (body=%s)", w.Code, http.StatusCreated, w.Body.String())
		}
		reg := decode[struct {
			User  store.User `json:"user"`
			Token string     `json:"token"`
		}](t, w)
		if reg.User.ID == 0 || reg.Token == "" {
			t.Fatalf("登録レスポンス = %+v", reg)
		}
		if bytes.Contains(w.Body.Bytes(), []byte("password")) {
			t.Error("レスポンスにパスワード情報が含まれている")
		}

		w = doRequest(env.router, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ann@example.com", "password": "password123"})
		if w.Code != http.StatusOK {
			t.Fatalf("ログインのステータスコード = %d, want %d", w.Code, http.StatusOK)
		}

		// 発行されたトークンで本人の応募一覧を参照できる
		login := decode[struct {
			Token string `json:"token"`
		}](t, w)
		w = doRequest(env.router, http.MethodGet, "/api/users/"+itoa(reg.User.ID)+"/applications", login.Token, nil)
		if w.Code != http.StatusOK {
			t.Errorf("応募一覧のステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("同じメールアドレスの登録は409になる", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		req := gin.H{"name": "Ann", "email": "dup@example.com", "password": "password123"}

		doRequest(env.router, http.MethodPost, "/api/auth/register", "", req)
		w := doRequest(env.router, http.MethodPost, "/api/auth/register", "", req)
		if w.Code != http.StatusConflict {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusConflict)
		}
	})

	t.Run("必須項目がない登録は400になる", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		w := doRequest(env.router, http.MethodPost, "/api/auth/register", "", gin.H{"email": "x@example.com"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("誤ったパスワードは401になる", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		doRequest(env.router, http.MethodPost, "/api/auth/register", "", gin.H{
			"name": "Ann", "email": "ann@example.com", "password": "password123",
		})

		w := doRequest(env.router, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ann@example.com", "password": "wrong-password"})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		w = doRequest(env.router, http.MethodPost, "/api/auth/login", "", gin.H{"email": "nobody@example.com", "password": "password123"})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("未登録ユーザーのステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("管理者ログインで管理者トークンが発行される", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		w := doRequest(env.router, http.MethodPost, "/api/admin/login", "", gin.H{"email": "admin@example.com", "password": "admin-password"})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		body := decode[struct {
			Admin store.Admin `json:"admin"`
			Token string      `json:"token"`
		}](t, w)
		if body.Admin.ID != env.admin.ID {
			t.Errorf("adminID = %d, want %d", body.Admin.ID, env.admin.ID)
		}

		w = doRequest(env.router, http.MethodGet, "/api/users", body.Token, nil)
		if w.Code != http.StatusOK {
			t.Errorf("管理者APIのステータスコード = %d, want %d", w.Code, http.StatusOK)
		}

		w = doRequest(env.router, http.MethodPost, "/api/admin/login", "", gin.H{"email": "admin@example.com", "password": "nope"})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("誤ったパスワードのステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}

func TestAccessControl(t *testing.T) {
	t.Parallel()

	env := setupTestServer(t)
	data := seedApplication(t, env, "ann@example.com")
	other := seedApplication(t, env, "bob@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{name: "トークンなしは401", method: http.MethodGet, path: "/api/jobs", want: http.StatusUnauthorized},
		{name: "一般ユーザーは管理者APIを呼べない", method: http.MethodGet, path: "/api/applications", token: data.token, want: http.StatusForbidden},
		{name: "他人の応募一覧は参照できない", method: http.MethodGet, path: "/api/users/" + itoa(other.user.ID) + "/applications", token: data.token, want: http.StatusForbidden},
		{name: "他人の通知一覧は参照できない", method: http.MethodGet, path: "/api/notifications/" + itoa(other.user.ID), token: data.token, want: http.StatusForbidden},
		{name: "他人の面接一覧は参照できない", method: http.MethodGet, path: "/api/applications/" + itoa(other.app.ID) + "/interviews", token: data.token, want: http.StatusForbidden},
		{name: "管理者は応募できない", method: http.MethodPost, path: "/api/jobs/" + itoa(data.role.ID) + "/apply", token: env.adminToken, want: http.StatusForbidden},
		{name: "管理者は任意のユーザーの応募一覧を参照できる", method: http.MethodGet, path: "/api/users/" + itoa(other.user.ID) + "/applications", token: env.adminToken, want: http.StatusOK},
		{name: "不正なIDは400", method: http.MethodGet, path: "/api/users/abc/applications", token: env.adminToken, want: http.StatusBadRequest},
		{name: "未定義のパスは404", method: http.MethodGet, path: "/api/unknown", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := doRequest(env.router, tt.method, tt.path, tt.token, nil)
			if w.Code != tt.want {
				t.Errorf("ステータスコード = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	env := setupTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/jobs", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "*")
	}
}

func TestCorsConfig(t *testing.T) {
	t.Parallel()

	if cfg := corsConfig([]string{"*"}); !cfg.AllowAllOrigins {
		t.Error("\"*\" でAllowAllOriginsにならない")
	}
	cfg := corsConfig([]string{"http://a.example"})
	if cfg.AllowAllOrigins || len(cfg.AllowOrigins) != 1 || !cfg.AllowCredentials {
		t.Errorf("corsConfig() = %+v", cfg)
	}
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	env := setupTestServer(t)
	data := seedApplication(t, env, "ann@example.com")

	w := doRequest(env.router, http.MethodPost, "/api/companies", env.adminToken, gin.H{
		"companyName": "Globex", "location": "Osaka", "industry": "IT",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("企業登録のステータスコード = %d, want %d", w.Code, http.StatusCreated)
	}
	company := decode[struct {
		Company store.Company `json:"company"`
	}](t, w).Company

	w = doRequest(env.router, http.MethodPost, "/api/roles", env.adminToken, gin.H{
		"companyID": company.ID, "roleTitle": "SRE", "jobType": "Full-time",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("職種登録のステータスコード = %d, want %d", w.Code, http.StatusCreated)
	}

	w = doRequest(env.router, http.MethodPost, "/api/roles", env.adminToken, gin.H{"companyID": 9999, "roleTitle": "SRE"})
	if w.Code != http.StatusNotFound {
		t.Errorf("存在しない企業への職種登録のステータスコード = %d, want %d", w.Code, http.StatusNotFound)
	}

	w = doRequest(env.router, http.MethodPost, "/api/companies", data.token, gin.H{"companyName": "X"})
	if w.Code != http.StatusForbidden {
		t.Errorf("一般ユーザーの企業登録のステータスコード = %d, want %d", w.Code, http.StatusForbidden)
	}

	w = doRequest(env.router, http.MethodGet, "/api/jobs", data.token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("求人一覧のステータスコード = %d, want %d", w.Code, http.StatusOK)
	}
	jobs := decode[[]store.Role](t, w)
	if len(jobs) != 2 {
		t.Fatalf("求人件数 = %d, want 2", len(jobs))
	}
	for _, j := range jobs {
		if j.CompanyName == "" {
			t.Errorf("職種 %d に企業名がない", j.ID)
		}
	}

	w = doRequest(env.router, http.MethodGet, "/api/companies", data.token, nil)
	if got := decode[[]store.Company](t, w); len(got) != 2 {
		t.Errorf("企業件数 = %d, want 2", len(got))
	}
}

func TestOverview(t *testing.T) {
	t.Parallel()

	env := setupTestServer(t)
	a := seedApplication(t, env, "ann@example.com")
	seedApplication(t, env, "bob@example.com")
	if err := env.store.SetApplicationStatus(t.Context(), a.app.ID, application.StatusRejected); err != nil {
		t.Fatalf("ステータスの更新に失敗: %v", err)
	}

	w := doRequest(env.router, http.MethodGet, "/api/admin/overview", env.adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
	}
	body := decode[struct {
		Total    int64               `json:"total"`
		ByStatus []store.StatusCount `json:"byStatus"`
	}](t, w)
	if body.Total != 2 {
		t.Errorf("total = %d, want 2", body.Total)
	}
	counts := map[application.Status]int64{}
	for _, sc := range body.ByStatus {
		counts[sc.Status] = sc.Count
	}
	if counts[application.StatusApplied] != 1 || counts[application.StatusRejected] != 1 {
		t.Errorf("byStatus = %v", body.ByStatus)
	}
}

func TestListUsers(t *testing.T) {
	t.Parallel()

	env := setupTestServer(t)
	seedApplication(t, env, "ann@example.com")

	w := doRequest(env.router, http.MethodGet, "/api/users", env.adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
	}
	if users := decode[[]store.User](t, w); len(users) != 1 || users[0].Email != "ann@example.com" {
		t.Errorf("users = %+v", users)
	}
}
