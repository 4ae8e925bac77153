package secret

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/tartampluch/go-payslip/internal/config"
	"github.com/zalando/go-keyring"
)

// ErrUnsupportedBackend is returned by NewStore for unknown backend names.
var ErrUnsupportedBackend = errors.New(config.ErrBackendUnsupported)

// Store persists the login ID and password between runs.
type Store interface {
	Load() (loginID, password string, err error)
	Save(loginID, password string) error
}

// NewStore returns the store for backend ("env" or "keyring").
func NewStore(backend, envPath string, c *Cipher) (Store, error) {
	switch backend {
	case config.BackendEnvFile:
		return &EnvFileStore{Path: envPath, Cipher: c}, nil
	case config.BackendKeyring:
		return &KeyringStore{Service: config.KeyringService}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, backend)
}

// EnvFileStore keeps encrypted credentials in a dotenv file next to the
// other settings. Unrelated entries of the file are preserved.
type EnvFileStore struct {
	Path   string
	Cipher *Cipher
}

// Load reads and decrypts the stored values. A missing file yields empty
// credentials.
func (s *EnvFileStore) Load() (string, string, error) {
	env, err := s.read()
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", config.ErrCredentialLoad, err)
	}
	return s.Cipher.Decrypt(env[config.EnvStoredLoginID]), s.Cipher.Decrypt(env[config.EnvStoredPassword]), nil
}

// Save encrypts and writes both values, then restricts the file to its owner.
func (s *EnvFileStore) Save(loginID, password string) error {
	env, err := s.read()
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrCredentialSave, err)
	}

	env[config.EnvStoredLoginID] = s.Cipher.Encrypt(loginID)
	env[config.EnvStoredPassword] = s.Cipher.Encrypt(password)

	if err := godotenv.Write(env, s.Path); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCredentialSave, err)
	}
	if err := os.Chmod(s.Path, config.FilePermUserRW); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCredentialSave, err)
	}

	slog.Info(config.MsgCredentialsSaved,
		config.LogKeyComponent, config.CompSecret,
		config.LogKeyBackend, config.BackendEnvFile,
		config.LogKeyFile, s.Path,
	)
	return nil
}

func (s *EnvFileStore) read() (map[string]string, error) {
	env, err := godotenv.Read(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	return env, err
}

// KeyringStore keeps credentials in the OS keyring under Service.
type KeyringStore struct {
	Service string
}

// Load returns empty values for entries that were never saved.
func (s *KeyringStore) Load() (string, string, error) {
	id, err := s.get(config.KeyringUserLoginID)
	if err != nil {
		return "", "", err
	}
	pw, err := s.get(config.KeyringUserPassword)
	if err != nil {
		return "", "", err
	}
	return id, pw, nil
}

func (s *KeyringStore) get(user string) (string, error) {
	v, err := keyring.Get(s.Service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCredentialLoad, err)
	}
	return v, nil
}

// Save writes both entries.
func (s *KeyringStore) Save(loginID, password string) error {
	if err := keyring.Set(s.Service, config.KeyringUserLoginID, loginID); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCredentialSave, err)
	}
	if err := keyring.Set(s.Service, config.KeyringUserPassword, password); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCredentialSave, err)
	}

	slog.Info(config.MsgCredentialsSaved,
		config.LogKeyComponent, config.CompSecret,
		config.LogKeyBackend, config.BackendKeyring,
	)
	return nil
}
