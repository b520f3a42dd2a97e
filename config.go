package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mikills/tinkerings/chartmcp/quickchart"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds the server configuration loaded from environment variables.
type Config struct {
	QuickChartURL string
	Timeout       time.Duration

	Transport string
	Addr      string
	LogLevel  string // debug, info, warn, error
}

// LoadConfig reads the environment, loading a .env file first if one exists.
// Overrides, typically command line flags, are applied before validation.
func LoadConfig(overrides ...func(*Config)) (*Config, error) {
	_ = godotenv.Load()

	timeout, err := getEnvDuration("QUICKCHART_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		QuickChartURL: getEnv("QUICKCHART_BASE_URL", quickchart.DefaultBaseURL),
		Timeout:       timeout,
		Transport:     getEnv("CHART_MCP_TRANSPORT", TransportStdio),
		Addr:          getEnv("CHART_MCP_ADDR", ":8080"),
		LogLevel:      getEnv("CHART_MCP_LOG_LEVEL", "info"),
	}
	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.QuickChartURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("QUICKCHART_BASE_URL must be an absolute URL, got %q", c.QuickChartURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("QUICKCHART_TIMEOUT must be positive, got %s", c.Timeout)
	}
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unknown transport: %s (must be stdio or http)", c.Transport)
	}
	if c.Transport == TransportHTTP && c.Addr == "" {
		return fmt.Errorf("CHART_MCP_ADDR is required for the http transport")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// NewChartClient builds the QuickChart client described by the config.
func (c *Config) NewChartClient() (*quickchart.Client, error) {
	base, err := url.Parse(c.QuickChartURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	qc := quickchart.DefaultConfig()
	qc.BaseURL = base
	qc.Timeout = c.Timeout
	qc.UserAgent = serverName + "/" + serverVersion
	return quickchart.New(qc)
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 30s, got %q", key, v)
	}
	return d, nil
}
