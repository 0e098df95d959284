package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/itemdesk/pkg/endpoint"
	"gopkg.in/yaml.v3"
)

// セッションの保存先の種類。
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// 環境変数名。
const (
	EnvAPIBase        = "ITEMDESK_API_BASE"
	EnvTimeout        = "ITEMDESK_TIMEOUT"
	EnvSessionBackend = "ITEMDESK_SESSION_BACKEND"
	EnvSessionPath    = "ITEMDESK_SESSION_PATH"
	EnvRedisAddr      = "ITEMDESK_REDIS_ADDR"
	EnvMetricsFile    = "ITEMDESK_METRICS_FILE"
)

// ErrInvalidConfig は設定値が不正な場合のエラー。
var ErrInvalidConfig = errors.New("設定が不正です")

// Config はクライアント全体の設定。
type Config struct {
	API       APIConfig     `yaml:"api"`
	Endpoints endpoint.Spec `yaml:"endpoints"`
	Session   SessionConfig `yaml:"session"`
	Metrics   MetricsConfig `yaml:"metrics"`
}

// APIConfig は接続先APIの設定。
type APIConfig struct {
	// BaseURL はAPIのベースURL。
	BaseURL string `yaml:"base_url"`
	// Timeout はリクエストのタイムアウト（例: "30s"）。
	Timeout string `yaml:"timeout"`
}

// SessionConfig はトークンの保存先の設定。
type SessionConfig struct {
	// Backend は sqlite / redis / memory のいずれか。
	Backend string `yaml:"backend"`
	// SQLitePath はsqlite使用時のデータベースファイルのパス。
	SQLitePath string `yaml:"sqlite_path"`
	// RedisAddr はredis使用時の接続先（host:port）。
	RedisAddr string `yaml:"redis_addr"`
}

// MetricsConfig はリクエストメトリクスの出力設定。
type MetricsConfig struct {
	// TextfilePath は終了時にPrometheusテキスト形式でメトリクスを書き出すファイル。
	// 空の場合は計測しない。
	TextfilePath string `yaml:"textfile_path"`
}

// Load は設定を読み込む。pathが空の場合はファイルを読まず、既定値と環境変数だけを使う。
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

// load はLoadの本体。環境変数の参照先を差し替えられる。
func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルのパースに失敗: %w", err)
		}
	}

	applyEnvOverrides(cfg, getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default は既定の設定を返す。
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: "30s",
		},
		Endpoints: endpoint.DefaultSpec(),
		Session: SessionConfig{
			Backend:    BackendSQLite,
			SQLitePath: defaultSQLitePath(),
			RedisAddr:  "localhost:6379",
		},
	}
}

// defaultSQLitePath はユーザー設定ディレクトリ配下のセッションDBのパスを返す。
func defaultSQLitePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "itemdesk-session.db"
	}
	return filepath.Join(dir, "itemdesk", "session.db")
}

// applyEnvOverrides は環境変数で設定を上書きする。
func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvAPIBase); v != "" {
		cfg.API.BaseURL = v
	}
	if v := getenv(EnvTimeout); v != "" {
		cfg.API.Timeout = v
	}
	if v := getenv(EnvSessionBackend); v != "" {
		cfg.Session.Backend = v
	}
	if v := getenv(EnvSessionPath); v != "" {
		cfg.Session.SQLitePath = v
	}
	if v := getenv(EnvRedisAddr); v != "" {
		cfg.Session.RedisAddr = v
	}
	if v := getenv(EnvMetricsFile); v != "" {
		cfg.Metrics.TextfilePath = v
	}
}

// Validate は設定値を検証する。
func (c *Config) Validate() error {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_urlが空です: %w", ErrInvalidConfig)
	}
	if d, err := time.ParseDuration(c.API.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("api.timeout %q は正の時間で指定してください: %w", c.API.Timeout, ErrInvalidConfig)
	}
	if _, err := c.Endpoints.Build(); err != nil {
		return fmt.Errorf("endpointsが不正です: %w: %w", ErrInvalidConfig, err)
	}

	c.Session.Backend = strings.ToLower(strings.TrimSpace(c.Session.Backend))
	switch c.Session.Backend {
	case BackendSQLite:
		if c.Session.SQLitePath == "" {
			return fmt.Errorf("session.sqlite_pathが空です: %w", ErrInvalidConfig)
		}
	case BackendRedis:
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("session.redis_addrが空です: %w", ErrInvalidConfig)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("session.backend %q は sqlite / redis / memory のいずれかです: %w", c.Session.Backend, ErrInvalidConfig)
	}
	return nil
}

// Timeout はリクエストのタイムアウトを返す。Validate済みであること。
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// EndpointTable はエンドポイントの対応表を返す。Validate済みであること。
func (c *Config) EndpointTable() endpoint.Table {
	t, err := c.Endpoints.Build()
	if err != nil {
		return endpoint.Default()
	}
	return t
}
