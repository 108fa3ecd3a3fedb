package main

import (
	"os"
	"strconv"
	"strings"
)

// Config is populated from flags whose defaults come from environment
// variables, the same getEnv/parseBoolEnv pattern the teacher's main.go
// uses, extended with spec.md §6.3's full variable set.
type Config struct {
	Host                string
	Port                string
	DataDir             string
	MaxFileSize         int64
	EnableCORS          bool
	CORSOrigins         []string
	CORSMethods         []string
	CORSHeaders         []string
	CORSAllowCredentials bool
	EnableMetrics       bool
	LogLevel            string
	MaxClients          int
}

const (
	defaultHost        = "127.0.0.1"
	defaultPort        = "8000"
	defaultDataDir     = "./data"
	defaultMaxFileSize = 100 * 1024 * 1024 // 100 MiB
)

// loadConfigFromEnv mirrors spec.md §6.3's documented defaults: permissive
// dev CORS origins, CORS enabled, metrics enabled.
func loadConfigFromEnv() *Config {
	return &Config{
		Host:                 getEnv("SEVINO_HOST", defaultHost),
		Port:                 getEnv("SEVINO_PORT", defaultPort),
		DataDir:              getEnv("SEVINO_DATA_DIR", defaultDataDir),
		MaxFileSize:          getEnvInt64("SEVINO_MAX_FILE_SIZE", defaultMaxFileSize),
		EnableCORS:           getEnvBool("SEVINO_ENABLE_CORS", true),
		CORSOrigins:          getEnvList("SEVINO_CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:8080", "*"}),
		CORSMethods:          getEnvList("SEVINO_CORS_METHODS", []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"}),
		CORSHeaders:          getEnvList("SEVINO_CORS_HEADERS", []string{"Content-Type", "Content-Length", "Authorization"}),
		CORSAllowCredentials: getEnvBool("SEVINO_CORS_ALLOW_CREDENTIALS", false),
		EnableMetrics:        getEnvBool("SEVINO_ENABLE_METRICS", true),
		LogLevel:             getEnv("SEVINO_LOG_LEVEL", "info"),
		MaxClients:           int(getEnvInt64("SEVINO_MAX_CLIENTS", 1024)),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
