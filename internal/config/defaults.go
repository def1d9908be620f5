package config

import "time"

// Default endpoints for the third-party job search APIs.
const (
	DefaultAdzunaURL    = "https://api.adzuna.com/v1/api/jobs"
	DefaultReedURL      = "https://www.reed.co.uk/api/1.0"
	DefaultMonsterURL   = "https://api.monster.io/jobs-svx-service/v2"
	DefaultContractsURL = "https://www.contractsfinder.service.gov.uk"
)

// DefaultIncludes selects every markdown page and the tiers file.
var DefaultIncludes = []string{
	"**/*.md",
	"tiers.yaml",
	"chat.yaml",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:4000/api",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			Store:         SessionStoreSQLite,
			CookieName:    "guardpost_session",
			TTL:           7 * 24 * time.Hour,
			SweepInterval: 10 * time.Minute,
		},
		DataDir: ".guardpost",
		Jobs: JobsConfig{
			PageSize: 10,
		},
		JobSearch: JobSearchConfig{
			PerPage: 20,
			Adzuna: AdzunaConfig{
				Country: "gb",
				BaseURL: DefaultAdzunaURL,
			},
			Reed: ReedConfig{
				BaseURL: DefaultReedURL,
			},
			Monster: MonsterConfig{
				BaseURL: DefaultMonsterURL,
			},
			Contracts: ContractsConfig{
				Enabled: true,
				BaseURL: DefaultContractsURL,
			},
		},
		Pages: PagesConfig{
			Include: DefaultIncludes,
		},
		Chat: ChatConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
