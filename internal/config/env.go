package config

import "os"

const (
	EnvLogLevel  = "VGROIDB_LOG_LEVEL"
	EnvLogFormat = "VGROIDB_LOG_FORMAT"
	EnvAddr      = "VGROIDB_ADDR"
)

func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
