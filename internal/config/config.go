package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	GitHub   GitHubConfig   `yaml:"github"`
	OAuth    OAuthConfig    `yaml:"oauth"`
	Redis    RedisConfig    `yaml:"redis"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Mode     string `yaml:"mode"`      // debug, release, test
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	// Login throttle, enforced per client IP on /api/auth.
	LoginRPS   float64 `yaml:"login_rps"`
	LoginBurst int     `yaml:"login_burst"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

// GitHubConfig describes the upstream issue source: which organization and
// repositories to mirror, and how often.
type GitHubConfig struct {
	Org             string   `yaml:"org"`
	Token           string   `yaml:"token"`
	Repos           []string `yaml:"repos"`
	SyncIntervalMin int      `yaml:"sync_interval_min"`
	FetchTimeoutSec int      `yaml:"fetch_timeout_sec"`
	SyncOnStartup   bool     `yaml:"sync_on_startup"`
}

// OAuthConfig holds the GitHub OAuth application used for reviewer/reporter login.
type OAuthConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	FrontendURL  string `yaml:"frontend_url"`
	BackendURL   string `yaml:"backend_url"`
}

// RedisConfig for optional async task queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.overrideFromEnv()
	cfg.applyDefaults()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       "8080",
			Mode:       "debug",
			LogLevel:   "info",
			LoginRPS:   5,
			LoginBurst: 10,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "bountydesk.db",
		},
		JWT: JWTConfig{
			Secret:     "bountydesk-secret-key-change-in-production",
			ExpireHour: 168, // 7 days, matching the login token lifetime
		},
		GitHub: GitHubConfig{
			SyncIntervalMin: 1,
			FetchTimeoutSec: 30,
			SyncOnStartup:   true,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.LoginRPS == 0 {
		c.Server.LoginRPS = 5
	}
	if c.Server.LoginBurst == 0 {
		c.Server.LoginBurst = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
		if c.Database.DSN == "" {
			c.Database.DSN = "bountydesk.db"
		}
	}
	if c.JWT.ExpireHour == 0 {
		c.JWT.ExpireHour = 168
	}
	if c.GitHub.SyncIntervalMin == 0 {
		c.GitHub.SyncIntervalMin = 1
	}
	if c.GitHub.FetchTimeoutSec == 0 {
		c.GitHub.FetchTimeoutSec = 30
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Server.LogLevel = level
	}
	if rps := os.Getenv("LOGIN_RPS"); rps != "" {
		if f, err := strconv.ParseFloat(rps, 64); err == nil && f > 0 {
			c.Server.LoginRPS = f
		}
	}
	if burst := os.Getenv("LOGIN_BURST"); burst != "" {
		if n, err := strconv.Atoi(burst); err == nil && n > 0 {
			c.Server.LoginBurst = n
		}
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if org := os.Getenv("GITHUB_ORG"); org != "" {
		c.GitHub.Org = org
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		c.GitHub.Token = token
	}
	// Comma-separated repository list, e.g. "bugtracker,portal,api"
	if repos := os.Getenv("GITHUB_REPOS"); repos != "" {
		c.GitHub.Repos = splitRepos(repos)
	}
	if interval := os.Getenv("SYNC_INTERVAL_MIN"); interval != "" {
		if n, err := strconv.Atoi(interval); err == nil && n > 0 {
			c.GitHub.SyncIntervalMin = n
		}
	}
	if clientID := os.Getenv("GITHUB_OAUTH_CLIENT_ID"); clientID != "" {
		c.OAuth.ClientID = clientID
	}
	if clientSecret := os.Getenv("GITHUB_OAUTH_CLIENT_SECRET"); clientSecret != "" {
		c.OAuth.ClientSecret = clientSecret
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		c.OAuth.FrontendURL = frontendURL
	}
	if backendURL := os.Getenv("BACKEND_URL"); backendURL != "" {
		c.OAuth.BackendURL = backendURL
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

func splitRepos(s string) []string {
	var repos []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			repos = append(repos, part)
		}
	}
	return repos
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
