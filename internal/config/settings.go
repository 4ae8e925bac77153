package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds the runtime configuration read from the env file and the
// process environment.
type Settings struct {
	BaseURL           string
	CompanyCode       string
	CredentialBackend string
	Language          string
	HTTPTimeout       time.Duration
	Password          string // Only from PAYSLIP_PASSWORD, never persisted by Settings.
}

// LoadSettings loads envPath into the process environment (existing variables
// win) and resolves every setting with its fallback. A missing env file is not
// an error.
func LoadSettings(envPath string) (Settings, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Settings{}, fmt.Errorf("%s: %w", ErrSettingsLoad, err)
			}
			slog.Debug(MsgSettingsNoFile,
				LogKeyComponent, CompSettings,
				LogKeyFile, envPath,
			)
		}
	}

	s := Settings{
		BaseURL:           strings.TrimRight(getEnv(EnvBaseURL, DefaultBaseURL), "/"),
		CompanyCode:       getEnv(EnvCompanyCode, DefaultCompanyCode),
		CredentialBackend: strings.ToLower(getEnv(EnvCredentialBackend, DefaultBackend)),
		Language:          strings.ToLower(getEnv(EnvLanguage, DefaultLanguage)),
		HTTPTimeout:       getEnvDuration(EnvHTTPTimeout, HTTPTimeout),
		Password:          os.Getenv(EnvPassword),
	}
	return s, s.Validate()
}

// Validate rejects settings the application cannot run with.
func (s Settings) Validate() error {
	if s.BaseURL == "" {
		return fmt.Errorf("%s must not be empty", EnvBaseURL)
	}
	if s.CredentialBackend != BackendEnvFile && s.CredentialBackend != BackendKeyring {
		return fmt.Errorf("%s: %q", ErrBackendUnsupported, s.CredentialBackend)
	}
	if s.HTTPTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvHTTPTimeout)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
