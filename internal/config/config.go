package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// デフォルト値。
const (
	DefaultPort           = "4000"
	DefaultDriver         = "sqlite"
	DefaultDatabaseURL    = "jobtracker.db"
	DefaultJWTSecret      = "dev-secret-key"
	DefaultTokenTTL       = 24 * time.Hour
	DefaultPollIntervalMS = 3000
	DefaultHeartbeatMS    = 25000
)

// Config はアプリケーション全体の設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `yaml:"port"`
	// Database はデータベース接続設定。
	Database struct {
		// Driver は "sqlite" または "pgx"。
		Driver string `yaml:"driver"`
		// URL はSQLiteのファイルパスまたはPostgreSQLの接続文字列。
		URL string `yaml:"url"`
	} `yaml:"database"`
	// Auth はトークン発行の設定。
	Auth struct {
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`
	// Notification は通知配信の設定。
	Notification struct {
		// PollIntervalMS は未配信通知のポーリング間隔（ミリ秒）。
		PollIntervalMS int `yaml:"poll_interval_ms"`
		// HeartbeatMS はストリームのping送信間隔（ミリ秒）。
		HeartbeatMS int `yaml:"heartbeat_ms"`
	} `yaml:"notification"`
	// CORSOrigins はブラウザからのアクセスを許可するオリジン。"*" はすべて許可。
	CORSOrigins []string `yaml:"cors_origins"`
	// Admin は起動時に作成する管理者アカウント。Emailが空の場合は作成しない。
	Admin struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
}

// Addr はHTTPサーバーのリッスンアドレスを返す。
func (c *Config) Addr() string {
	return ":" + c.Port
}

// PollInterval はポーリング間隔を返す。
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Notification.PollIntervalMS) * time.Millisecond
}

// Heartbeat はping送信間隔を返す。
func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.Notification.HeartbeatMS) * time.Millisecond
}

// Load は設定を読み込む。
// カレントディレクトリの .env を環境変数に取り込み（存在しなければ無視）、
// path（空の場合は CONFIG_FILE）のYAMLファイルがあれば読み込み、環境変数で上書きする。
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".envの読み込みに失敗: %w", err)
	}
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	return load(path, os.LookupEnv)
}

// load は環境変数の参照先を差し替えられるLoadの本体。
func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := defaults()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
		content := expandEnvVars(string(b), lookup)
		if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルのパースに失敗: %w", err)
		}
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaults はデフォルト値で埋めた設定を返す。
func defaults() *Config {
	cfg := &Config{Port: DefaultPort, CORSOrigins: []string{"*"}}
	cfg.Database.Driver = DefaultDriver
	cfg.Database.URL = DefaultDatabaseURL
	cfg.Auth.JWTSecret = DefaultJWTSecret
	cfg.Auth.TokenTTL = DefaultTokenTTL
	cfg.Notification.PollIntervalMS = DefaultPollIntervalMS
	cfg.Notification.HeartbeatMS = DefaultHeartbeatMS
	cfg.Admin.Name = "Admin"
	return cfg
}

// envVarPattern は ${VAR_NAME} 形式の参照。
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars は ${VAR_NAME} を環境変数の値で置き換える。未設定の参照はそのまま残す。
func expandEnvVars(content string, lookup func(string) (string, bool)) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		if v, ok := lookup(match[2 : len(match)-1]); ok && v != "" {
			return v
		}
		return match
	})
}

// applyEnv は環境変数で設定を上書きする。
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"PORT":           &cfg.Port,
		"DB_DRIVER":      &cfg.Database.Driver,
		"DATABASE_URL":   &cfg.Database.URL,
		"JWT_SECRET":     &cfg.Auth.JWTSecret,
		"ADMIN_NAME":     &cfg.Admin.Name,
		"ADMIN_EMAIL":    &cfg.Admin.Email,
		"ADMIN_PASSWORD": &cfg.Admin.Password,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"NOTIF_POLL_INTERVAL_MS": &cfg.Notification.PollIntervalMS,
		"STREAM_HEARTBEAT_MS":    &cfg.Notification.HeartbeatMS,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sが整数ではありません: %q", key, v)
		}
		*dst = n
	}

	if v, ok := lookup("TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKEN_TTLの形式が不正です: %q", v)
		}
		cfg.Auth.TokenTTL = d
	}

	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}
	return nil
}

// validate は設定値を検証する。
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("未対応のDB_DRIVERです: %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("DATABASE_URLが空です")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRETが空です")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTLは正の値である必要があります: %s", c.Auth.TokenTTL)
	}
	if c.Notification.PollIntervalMS <= 0 {
		return fmt.Errorf("NOTIF_POLL_INTERVAL_MSは正の値である必要があります: %d", c.Notification.PollIntervalMS)
	}
	if c.Notification.HeartbeatMS <= 0 {
		return fmt.Errorf("STREAM_HEARTBEAT_MSは正の値である必要があります: %d", c.Notification.HeartbeatMS)
	}
	if len(c.CORSOrigins) == 0 {
		return errors.New("CORS_ORIGINSが空です")
	}
	if c.Admin.Email != "" && c.Admin.Password == "" {
		return errors.New("ADMIN_EMAILを指定する場合はADMIN_PASSWORDも必要です")
	}
	return nil
}
