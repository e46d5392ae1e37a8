// Loads the credential configuration from config.json on every use.

package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/maruel/wcstore/internal/jsondb"
	"github.com/maruel/wcstore/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// DefaultExpireMinutes is the token lifetime used when the configuration
// doesn't set one.
const DefaultExpireMinutes = 1440

// AdminConfig holds the single admin credential.
type AdminConfig struct {
	Username string `json:"username" yaml:"username"`
	// Password is either plaintext or a bcrypt hash ($2a$, $2b$ or $2y$).
	Password string `json:"password" yaml:"password"`
}

// JWTConfig holds the token signing parameters.
type JWTConfig struct {
	SecretKey     string `json:"secret_key" yaml:"secret_key"`
	Algorithm     string `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	ExpireMinutes *int   `json:"expire_minutes,omitempty" yaml:"expire_minutes,omitempty"`
	// LegacyExpireMinutes is the key written by older deployments.
	LegacyExpireMinutes *int `json:"access_token_expire_minutes,omitempty" yaml:"access_token_expire_minutes,omitempty"`
}

// SigningAlgorithm returns the configured algorithm, HS256 by default.
func (j *JWTConfig) SigningAlgorithm() string {
	if j.Algorithm == "" {
		return "HS256"
	}
	return j.Algorithm
}

// Expiry returns the default token lifetime.
func (j *JWTConfig) Expiry() time.Duration {
	m := DefaultExpireMinutes
	if j.ExpireMinutes != nil {
		m = *j.ExpireMinutes
	} else if j.LegacyExpireMinutes != nil {
		m = *j.LegacyExpireMinutes
	}
	return time.Duration(m) * time.Minute
}

// Config is the credential configuration.
type Config struct {
	Admin AdminConfig `json:"admin" yaml:"admin"`
	JWT   JWTConfig   `json:"jwt" yaml:"jwt"`
}

// Validate checks that the configuration can be used to authenticate.
func (c *Config) Validate() error {
	if c.Admin.Username == "" {
		return errors.New("admin.username is required")
	}
	if c.Admin.Password == "" {
		return errors.New("admin.password is required")
	}
	if c.JWT.SecretKey == "" {
		return errors.New("jwt.secret_key is required")
	}
	switch c.JWT.SigningAlgorithm() {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("jwt.algorithm %q is not supported", c.JWT.Algorithm)
	}
	if c.JWT.Expiry() < 0 {
		return errors.New("jwt.expire_minutes must be non-negative")
	}
	return nil
}

// ConfigSource yields the current credential configuration.
//
// Implementations must not cache across calls: an edit to the backing file
// takes effect on the next operation.
type ConfigSource interface {
	Load() (*Config, error)
}

// FileConfig reads the configuration from a JSON or YAML file on every Load.
type FileConfig struct {
	path string
}

// NewFileConfig returns a ConfigSource backed by path. The format is YAML when
// the extension is .yaml or .yml and JSON otherwise.
func NewFileConfig(path string) *FileConfig {
	return &FileConfig{path: path}
}

// Path returns the backing file path.
func (f *FileConfig) Path() string {
	return f.path
}

// Load reads, parses and validates the file.
func (f *FileConfig) Load() (*Config, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, &models.StorageError{Op: "read configuration", Err: err}
	}
	cfg, err := ParseConfig(f.path, data)
	if err != nil {
		return nil, &models.StorageError{Op: "parse configuration", Err: err}
	}
	return cfg, nil
}

// ParseConfig decodes and validates configuration data. name selects the
// format by extension.
func ParseConfig(name string, data []byte) (*Config, error) {
	var cfg Config
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CreateDefaultConfig writes a fresh configuration to path with username
// "admin", a random signing secret and a random password stored as a bcrypt
// hash. It returns the plaintext password; it is not recoverable afterwards.
//
// It fails if path already exists.
func CreateDefaultConfig(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	}
	secret, err := randomHex(32)
	if err != nil {
		return "", err
	}
	password, err := randomHex(12)
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	minutes := DefaultExpireMinutes
	cfg := Config{
		Admin: AdminConfig{Username: "admin", Password: string(hash)},
		JWT:   JWTConfig{SecretKey: secret, Algorithm: "HS256", ExpireMinutes: &minutes},
	}
	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(&cfg)
	default:
		data, err = jsondb.Marshal(&cfg)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := jsondb.WriteFileAtomic(path, data, 0o600); err != nil {
		return "", err
	}
	return password, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// WatchConfig logs every change to the configuration file and warns when the
// new content doesn't validate. It returns once the watcher is installed and
// stops when ctx is done.
//
// The directory is watched rather than the file since editors commonly
// replace files by renaming.
func WatchConfig(ctx context.Context, src *FileConfig) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(src.Path())
	if err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					continue
				}
				if _, err := src.Load(); err != nil {
					slog.WarnContext(ctx, "Configuration changed but is invalid", "err", err)
				} else {
					slog.InfoContext(ctx, "Configuration changed")
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching configuration", "err", err)
			}
		}
	}()
	return nil
}
