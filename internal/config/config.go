package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server  ServerConfig
	Scraper ScraperConfig
	Proxy   ProxyConfig
	Redis   RedisConfig
}

type ServerConfig struct {
	Port int
}

type ScraperConfig struct {
	Headless        bool
	DefaultMaxPages int
	BatchWorkers    int
}

// ProxyConfig is the service-level proxy pool. Requests may still carry
// their own pool, which takes precedence for that run.
type ProxyConfig struct {
	Endpoints []string
	Username  string
	Password  string
}

// RedisConfig is optional: with an empty Addr the proxy rotator keeps its
// cursor in process memory instead of sharing it across instances.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	RotatorKey string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("PORT", 8080),
		},
		Scraper: ScraperConfig{
			Headless:        getEnvBool("SCRAPER_HEADLESS", true),
			DefaultMaxPages: getEnvInt("SCRAPER_MAX_PAGES", 5),
			BatchWorkers:    getEnvInt("SCRAPER_BATCH_WORKERS", 2),
		},
		Proxy: ProxyConfig{
			Endpoints: getEnvList("PROXY_LIST"),
			Username:  getEnv("PROXY_USERNAME", ""),
			Password:  getEnv("PROXY_PASSWORD", ""),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvInt("REDIS_DB", 0),
			RotatorKey: getEnv("REDIS_ROTATOR_KEY", "review-scraper:proxy-cursor"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Scraper.DefaultMaxPages < 1 {
		return fmt.Errorf("default max pages must be at least 1")
	}

	if c.Scraper.BatchWorkers < 1 {
		return fmt.Errorf("at least 1 batch worker is required")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}
