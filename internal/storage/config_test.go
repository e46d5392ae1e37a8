package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/maruel/wcstore/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    string
		wantErr bool
		expiry  time.Duration
		alg     string
	}{
		{
			name:   "json",
			file:   "config.json",
			data:   `{"admin":{"username":"a","password":"p"},"jwt":{"secret_key":"s","algorithm":"HS512","expire_minutes":5}}`,
			expiry: 5 * time.Minute,
			alg:    "HS512",
		},
		{
			name:   "legacy expiry key",
			file:   "config.json",
			data:   `{"admin":{"username":"a","password":"p"},"jwt":{"secret_key":"s","access_token_expire_minutes":30}}`,
			expiry: 30 * time.Minute,
			alg:    "HS256",
		},
		{
			name:   "yaml defaults",
			file:   "config.yaml",
			data:   "admin:\n  username: a\n  password: p\njwt:\n  secret_key: s\n",
			expiry: DefaultExpireMinutes * time.Minute,
			alg:    "HS256",
		},
		{name: "missing secret", file: "config.json", data: `{"admin":{"username":"a","password":"p"}}`, wantErr: true},
		{name: "asymmetric", file: "config.json", data: `{"admin":{"username":"a","password":"p"},"jwt":{"secret_key":"s","algorithm":"RS256"}}`, wantErr: true},
		{name: "garbage", file: "config.json", data: `admin: a`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig(tt.file, []byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := cfg.JWT.Expiry(); got != tt.expiry {
				t.Errorf("Expiry() = %v, want %v", got, tt.expiry)
			}
			if got := cfg.JWT.SigningAlgorithm(); got != tt.alg {
				t.Errorf("SigningAlgorithm() = %q, want %q", got, tt.alg)
			}
		})
	}
}

func TestFileConfigRereads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	src := NewFileConfig(path)
	if _, err := src.Load(); !errors.Is(err, models.ErrStorage) {
		t.Fatalf("Load() of missing file = %v", err)
	}
	write := func(user string) {
		t.Helper()
		data := `{"admin":{"username":"` + user + `","password":"p"},"jwt":{"secret_key":"s"}}`
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	write("first")
	cfg, err := src.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Admin.Username != "first" {
		t.Errorf("username = %q", cfg.Admin.Username)
	}
	write("second")
	if cfg, err = src.Load(); err != nil || cfg.Admin.Username != "second" {
		t.Errorf("reload = %+v, %v", cfg, err)
	}
}

func TestFileConfigErrorHidesSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"jwt":{"secret_key":"topsecret"`), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := NewFileConfig(path).Load()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := models.PublicMessage(err)
	if strings.Contains(msg, "topsecret") || strings.Contains(msg, path) {
		t.Errorf("public message leaks details: %q", msg)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	for _, name := range []string{"config.json", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			password, err := CreateDefaultConfig(path)
			if err != nil {
				t.Fatal(err)
			}
			cfg, err := NewFileConfig(path).Load()
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Admin.Username != "admin" {
				t.Errorf("username = %q", cfg.Admin.Username)
			}
			if err := bcrypt.CompareHashAndPassword([]byte(cfg.Admin.Password), []byte(password)); err != nil {
				t.Errorf("stored hash doesn't match returned password: %v", err)
			}
			fi, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if fi.Mode().Perm() != 0o600 {
				t.Errorf("mode = %v", fi.Mode().Perm())
			}
			if _, err := CreateDefaultConfig(path); err == nil {
				t.Error("second CreateDefaultConfig() succeeded")
			}
		})
	}
}
