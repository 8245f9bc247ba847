package cli

import (
	"os"

	"github.com/mcoot/s3arena/internal/session"
)

// Config holds CLI configuration
type Config struct {
	ServerURL   string
	SessionFile string
	Output      string
	Verbose     bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:   getEnvOrDefault("S3ARENA_SERVER", "http://localhost:8000/api"),
		SessionFile: getEnvOrDefault("S3ARENA_SESSION_FILE", session.DefaultPath()),
		Output:      "text",
		Verbose:     false,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
