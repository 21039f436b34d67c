package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// envFiles are loaded in order; variables already set are never overwritten.
var envFiles = []string{".env", ".env.local"}

func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load environment file", slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("Loaded environment variables", slog.String("file", name))
	}
}

// Credential variables consulted when the configuration leaves a secret empty.
const (
	EnvWordPressUser     = "WP_USER"
	EnvWordPressPassword = "WP_PASSWORD"
	EnvSFTPHost          = "SFTP_HOST"
	EnvSFTPUser          = "SFTP_USER"
	EnvSFTPPassword      = "SFTP_PASS"
	EnvRepositoryToken   = "GIT_TOKEN"
)

func applyEnvCredentials(cfg *Config) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	fill(&cfg.Publish.WordPress.User, EnvWordPressUser)
	fill(&cfg.Publish.WordPress.Password, EnvWordPressPassword)
	fill(&cfg.Publish.SFTP.Host, EnvSFTPHost)
	fill(&cfg.Publish.SFTP.User, EnvSFTPUser)
	fill(&cfg.Publish.SFTP.Password, EnvSFTPPassword)
	if cfg.Data.Repository != nil {
		fill(&cfg.Data.Repository.Token, EnvRepositoryToken)
	}
}
