// Package config loads crystald configuration: compiled defaults, overlaid
// by an optional TOML file, overlaid by environment variables. Secrets
// (JWT secret, API keys, merchant keys) normally arrive via environment,
// everything else via the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full crystald configuration.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Auth        AuthConfig        `toml:"auth"`
	SiliconFlow SiliconFlowConfig `toml:"siliconflow"`
	Alipay      AlipayConfig      `toml:"alipay"`
	Payments    PaymentsConfig    `toml:"payments"`
}

type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
	RateLimitRPS   float64  `toml:"rate_limit_rps"`
	RateLimitBurst int      `toml:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Dir string `toml:"dir"`
}

type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	TokenTTL  string `toml:"token_ttl"`
}

type SiliconFlowConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

type AlipayConfig struct {
	AppID      string `toml:"app_id"`
	PrivateKey string `toml:"private_key"`
	PublicKey  string `toml:"public_key"`
	Gateway    string `toml:"gateway"`
	ReturnURL  string `toml:"return_url"`
	NotifyURL  string `toml:"notify_url"`
}

type PaymentsConfig struct {
	PackagePrice   float64 `toml:"package_price"`
	PackageCredits int     `toml:"package_credits"`
}

// DefaultConfig returns the compiled-in defaults.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           3001,
			AllowedOrigins: []string{"http://localhost:5173"},
			RateLimitRPS:   5,
			RateLimitBurst: 10,
		},
		Database: DatabaseConfig{
			Dir: filepath.Join(home, ".crystal-healing"),
		},
		Auth: AuthConfig{
			TokenTTL: "168h",
		},
		SiliconFlow: SiliconFlowConfig{
			BaseURL: "https://cloud.siliconflow.cn/v1",
			Model:   "deepseek-ai/DeepSeek-V3",
			Timeout: "30s",
		},
		Payments: PaymentsConfig{
			PackagePrice:   5.00,
			PackageCredits: 2,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// DefaultPath is the conventional config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".crystal-healing", "config.toml")
}

func (c *Config) applyEnv() {
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Database.Dir, "DATA_DIR")
	setString(&c.SiliconFlow.APIKey, "SILICONFLOW_API_KEY")
	setString(&c.SiliconFlow.BaseURL, "SILICONFLOW_BASE_URL")
	setString(&c.SiliconFlow.Model, "SILICONFLOW_MODEL")
	setString(&c.Alipay.AppID, "ALIPAY_APP_ID")
	setString(&c.Alipay.PrivateKey, "ALIPAY_PRIVATE_KEY")
	setString(&c.Alipay.PublicKey, "ALIPAY_PUBLIC_KEY")
	setString(&c.Alipay.Gateway, "ALIPAY_GATEWAY")
	setString(&c.Alipay.ReturnURL, "ALIPAY_RETURN_URL")
	setString(&c.Alipay.NotifyURL, "ALIPAY_NOTIFY_URL")
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// TokenTTL parses the auth TTL, falling back to the default on garbage.
func (c *Config) TokenTTL() time.Duration {
	d, err := time.ParseDuration(c.Auth.TokenTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// NarrativeTimeout parses the completion timeout.
func (c *Config) NarrativeTimeout() time.Duration {
	d, err := time.ParseDuration(c.SiliconFlow.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
