package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"fioso/internal/ai"
)

type Server struct {
	Port              string `json:"port" toml:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec" toml:"request_timeout_sec"`
}

type Runtime struct {
	Unstable bool `json:"unstable" toml:"unstable"`
}

type Cloudflare struct {
	Enabled   bool   `json:"enabled" toml:"enabled"`
	AccountID string `json:"account_id" toml:"account_id"`
	APIToken  string `json:"api_token" toml:"api_token"`
	Model     string `json:"model" toml:"model"`
}

type Gemini struct {
	Enabled bool   `json:"enabled" toml:"enabled"`
	Key     string `json:"key" toml:"key"`
}

type Report struct {
	ProbeTimeoutSec int    `json:"probe_timeout_sec" toml:"probe_timeout_sec"`
	NetworkURL      string `json:"network_url" toml:"network_url"`
}

type Config struct {
	Server     Server     `json:"server" toml:"server"`
	Runtime    Runtime    `json:"runtime" toml:"runtime"`
	Cloudflare Cloudflare `json:"cloudflare" toml:"cloudflare"`
	Gemini     Gemini     `json:"gemini" toml:"gemini"`
	Report     Report     `json:"report" toml:"report"`
}

func Default() Config {
	return Config{
		Server:  Server{Port: "8080", RequestTimeoutSec: 10},
		Runtime: Runtime{Unstable: false},
		Cloudflare: Cloudflare{
			Enabled: false,
			Model:   ai.DefaultCloudflareModel,
		},
		Gemini: Gemini{Enabled: false},
		Report: Report{
			ProbeTimeoutSec: 10,
			NetworkURL:      "https://google.com",
		},
	}
}

// Load reads config from path, as TOML when it ends in .toml and JSON
// otherwise. If path is empty it looks for config.toml then config.json, and
// missing files fall back to defaults. Environment variables override select
// fields for secrecy.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, candidate := range []string{"config.toml", "config.json"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(string(b), cfg)
		return err
	}
	return json.Unmarshal(b, cfg)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if x, ok := positiveInt(os.Getenv("REQUEST_TIMEOUT_SEC")); ok {
		cfg.Server.RequestTimeoutSec = x
	}
	if b, ok := parseBool(os.Getenv("FIOSO_UNSTABLE")); ok {
		cfg.Runtime.Unstable = b
	}

	if v := os.Getenv("CLOUDFLARE_ACCOUNT_ID"); v != "" {
		cfg.Cloudflare.AccountID = v
		cfg.Cloudflare.Enabled = true
	}
	if v := os.Getenv("CLOUDFLARE_API_TOKEN"); v != "" {
		cfg.Cloudflare.APIToken = v
	}
	if v := os.Getenv("CLOUDFLARE_MODEL"); v != "" {
		cfg.Cloudflare.Model = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.Key = v
		cfg.Gemini.Enabled = true
	}

	if x, ok := positiveInt(os.Getenv("REPORT_TIMEOUT_SEC")); ok {
		cfg.Report.ProbeTimeoutSec = x
	}
	if v := os.Getenv("NETWORK_PROBE_URL"); v != "" {
		cfg.Report.NetworkURL = v
	}
}

// positiveInt reads the leading integer of v, e.g. "15" or "15s".
func positiveInt(v string) (int, bool) {
	var x int
	if _, err := fmt.Sscanf(v, "%d", &x); err != nil || x <= 0 {
		return 0, false
	}
	return x, true
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y":
		return true, true
	case "0", "false", "no", "n":
		return false, true
	}
	return false, false
}

// RequestTimeout is the upstream HTTP client timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}

// ProbeTimeout is the per-probe report timeout.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Report.ProbeTimeoutSec) * time.Second
}

// CloudflareCredentials returns the Cloudflare credentials, or nil when the
// provider is disabled.
func (c Config) CloudflareCredentials() *ai.Credentials {
	if !c.Cloudflare.Enabled {
		return nil
	}
	return &ai.Credentials{AccountID: c.Cloudflare.AccountID, APIToken: c.Cloudflare.APIToken, Model: c.Cloudflare.Model}
}

// GeminiCredentials returns the Gemini credentials, or nil when disabled.
func (c Config) GeminiCredentials() *ai.Credentials {
	if !c.Gemini.Enabled {
		return nil
	}
	return &ai.Credentials{Key: c.Gemini.Key}
}
