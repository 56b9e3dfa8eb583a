package hostconfig

import (
	"os"
	"strconv"
	"strings"

	"desktop-shell/go-backend/pkg/models"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App          models.ApplicationInfo
	Platform     string
	Runtime      string
	Mode         string
	WebView      string
	PreventClose bool

	RPCAddr          string
	RateLimitEnabled *bool
	RateLimitRPS     float64
	RateLimitBurst   int
	StreamMaxGlobal  int
	StreamPerClient  int

	LogLevel string
}

func DefaultConfig() Config {
	return Config{
		App: models.ApplicationInfo{
			Name:        "Wails Nuxt 4 Template",
			Version:     "1.0.0",
			Description: "A modern desktop application built with Wails and Nuxt 4",
			Framework:   "Nuxt 4",
			Backend:     "Go + Wails v2",
		},
		Platform: "desktop",
		Runtime:  "wails",
		RPCAddr:  "127.0.0.1:8787",
		LogLevel: "info",
	}
}

type HostFileConfig struct {
	App  AppFileConfig `yaml:"app"`
	Host HostSection   `yaml:"host"`
	RPC  RPCFileConfig `yaml:"rpc"`
	Log  LogFileConfig `yaml:"log"`
}

type AppFileConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	Framework   string `yaml:"framework"`
	Backend     string `yaml:"backend"`
}

type HostSection struct {
	Platform     string `yaml:"platform"`
	Runtime      string `yaml:"runtime"`
	Mode         string `yaml:"mode"`
	WebView      string `yaml:"webview"`
	PreventClose *bool  `yaml:"preventClose"`
}

type RPCFileConfig struct {
	Addr             string  `yaml:"addr"`
	RateLimitEnabled *bool   `yaml:"rateLimitEnabled"`
	RateLimitRPS     float64 `yaml:"rateLimitRps"`
	RateLimitBurst   int     `yaml:"rateLimitBurst"`
	StreamMaxGlobal  int     `yaml:"streamMaxGlobal"`
	StreamPerClient  int     `yaml:"streamMaxPerClient"`
}

type LogFileConfig struct {
	Level string `yaml:"level"`
}

func LoadFromPath(configPath string) Config {
	cfg := DefaultConfig()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"go-backend/configs/config.yaml",
			"configs/config.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var parsed HostFileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}

		merged := cfg
		Merge(&merged, parsed)
		ApplyEnvOverrides(&merged)
		return merged
	}

	ApplyEnvOverrides(&cfg)
	return cfg
}

func Merge(dst *Config, src HostFileConfig) {
	mergeString(&dst.App.Name, src.App.Name)
	mergeString(&dst.App.Version, src.App.Version)
	mergeString(&dst.App.Description, src.App.Description)
	mergeString(&dst.App.Framework, src.App.Framework)
	mergeString(&dst.App.Backend, src.App.Backend)

	mergeString(&dst.Platform, src.Host.Platform)
	mergeString(&dst.Runtime, src.Host.Runtime)
	mergeString(&dst.Mode, src.Host.Mode)
	mergeString(&dst.WebView, src.Host.WebView)
	if src.Host.PreventClose != nil {
		dst.PreventClose = *src.Host.PreventClose
	}

	mergeString(&dst.RPCAddr, src.RPC.Addr)
	if src.RPC.RateLimitEnabled != nil {
		v := *src.RPC.RateLimitEnabled
		dst.RateLimitEnabled = &v
	}
	if src.RPC.RateLimitRPS > 0 {
		dst.RateLimitRPS = src.RPC.RateLimitRPS
	}
	if src.RPC.RateLimitBurst > 0 {
		dst.RateLimitBurst = src.RPC.RateLimitBurst
	}
	if src.RPC.StreamMaxGlobal > 0 {
		dst.StreamMaxGlobal = src.RPC.StreamMaxGlobal
	}
	if src.RPC.StreamPerClient > 0 {
		dst.StreamPerClient = src.RPC.StreamPerClient
	}

	mergeString(&dst.LogLevel, src.Log.Level)
}

func ApplyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("SHELL_MODE")); v != "" {
		cfg.Mode = v
	}
	if v := strings.TrimSpace(os.Getenv("SHELL_RPC_ADDR")); v != "" {
		cfg.RPCAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("SHELL_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("SHELL_APP_VERSION")); v != "" {
		cfg.App.Version = v
	}

	raw := strings.TrimSpace(os.Getenv("SHELL_PREVENT_CLOSE"))
	if raw == "" {
		return
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return
	}
	cfg.PreventClose = v
}

func mergeString(dst *string, src string) {
	if strings.TrimSpace(src) != "" {
		*dst = strings.TrimSpace(src)
	}
}
