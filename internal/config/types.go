package config

import "time"

// SessionStoreType selects where visitor sessions are persisted.
type SessionStoreType string

const (
	SessionStoreSQLite SessionStoreType = "sqlite"
	SessionStoreRedis  SessionStoreType = "redis"
)

// Config is the top-level guardpost configuration, corresponding to .guardpost.yml.
type Config struct {
	Server    ServerConfig    `yaml:"server" koanf:"server"`
	Backend   BackendConfig   `yaml:"backend" koanf:"backend"`
	Session   SessionConfig   `yaml:"session" koanf:"session"`
	DataDir   string          `yaml:"data_dir" koanf:"data_dir"`
	Jobs      JobsConfig      `yaml:"jobs" koanf:"jobs"`
	JobSearch JobSearchConfig `yaml:"job_search" koanf:"job_search"`
	Pages     PagesConfig     `yaml:"pages" koanf:"pages"`
	Chat      ChatConfig      `yaml:"chat" koanf:"chat"`
	Log       LogConfig       `yaml:"log" koanf:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port           int      `yaml:"port" koanf:"port"`
	AllowAll       bool     `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
}

// BackendConfig points at the remote member REST API.
type BackendConfig struct {
	BaseURL string        `yaml:"base_url" koanf:"base_url"`
	Timeout time.Duration `yaml:"timeout" koanf:"timeout"`
}

// SessionConfig controls the visitor session cookie and its store.
type SessionConfig struct {
	Store         SessionStoreType `yaml:"store" koanf:"store"`
	CookieName    string           `yaml:"cookie_name" koanf:"cookie_name"`
	TTL           time.Duration    `yaml:"ttl" koanf:"ttl"`
	SweepInterval time.Duration    `yaml:"sweep_interval" koanf:"sweep_interval"`
	Secure        bool             `yaml:"secure" koanf:"secure"`
	RedisAddr     string           `yaml:"redis_addr" koanf:"redis_addr"`
	RedisPassword string           `yaml:"redis_password" koanf:"redis_password"`
	RedisDB       int              `yaml:"redis_db" koanf:"redis_db"`
}

// JobsConfig holds job board display settings.
type JobsConfig struct {
	PageSize int `yaml:"page_size" koanf:"page_size"`
}

// JobSearchConfig holds credentials for the third-party job search APIs.
// A provider without credentials is not registered.
type JobSearchConfig struct {
	PerPage   int             `yaml:"per_page" koanf:"per_page"`
	Adzuna    AdzunaConfig    `yaml:"adzuna" koanf:"adzuna"`
	Reed      ReedConfig      `yaml:"reed" koanf:"reed"`
	Monster   MonsterConfig   `yaml:"monster" koanf:"monster"`
	Contracts ContractsConfig `yaml:"contracts" koanf:"contracts"`
}

type AdzunaConfig struct {
	AppID   string `yaml:"app_id" koanf:"app_id"`
	AppKey  string `yaml:"app_key" koanf:"app_key"`
	Country string `yaml:"country" koanf:"country"`
	BaseURL string `yaml:"base_url" koanf:"base_url"`
}

type ReedConfig struct {
	APIKey  string `yaml:"api_key" koanf:"api_key"`
	BaseURL string `yaml:"base_url" koanf:"base_url"`
}

type MonsterConfig struct {
	APIKey  string `yaml:"api_key" koanf:"api_key"`
	BaseURL string `yaml:"base_url" koanf:"base_url"`
}

type ContractsConfig struct {
	Enabled bool   `yaml:"enabled" koanf:"enabled"`
	BaseURL string `yaml:"base_url" koanf:"base_url"`
}

// PagesConfig controls where static content is read from.
// An empty ContentDir serves the content embedded in the binary.
type PagesConfig struct {
	ContentDir string   `yaml:"content_dir" koanf:"content_dir"`
	Include    []string `yaml:"include" koanf:"include"`
	Watch      bool     `yaml:"watch" koanf:"watch"`
}

type ChatConfig struct {
	Enabled bool `yaml:"enabled" koanf:"enabled"`
}

type LogConfig struct {
	Level       string `yaml:"level" koanf:"level"`
	Development bool   `yaml:"development" koanf:"development"`
}
