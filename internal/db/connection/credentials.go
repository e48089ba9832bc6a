package connection

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jackc/pgpassfile"
	"github.com/zalando/go-keyring"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

const keyringService = "lazyfilter"

// PasswordSource says where a password came from
type PasswordSource int

const (
	PasswordNone PasswordSource = iota
	PasswordConfig
	PasswordKeyring
	PasswordPassfile
)

func (s PasswordSource) String() string {
	switch s {
	case PasswordConfig:
		return "config"
	case PasswordKeyring:
		return "keyring"
	case PasswordPassfile:
		return ".pgpass"
	default:
		return "none"
	}
}

// keyringUser is the account name a password is stored under
func keyringUser(cfg models.ConnectionConfig) string {
	return fmt.Sprintf("%s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Database)
}

// DefaultPassfilePath returns $PGPASSFILE or ~/.pgpass
func DefaultPassfilePath() string {
	if p := os.Getenv("PGPASSFILE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pgpass")
}

// ResolvePassword looks up the password for cfg. The configured password
// wins, then the OS keyring, then the pgpass file at passfile. A missing
// password is not an error.
func ResolvePassword(cfg models.ConnectionConfig, passfile string) (string, PasswordSource, error) {
	if cfg.Password != "" {
		return cfg.Password, PasswordConfig, nil
	}

	secret, err := keyring.Get(keyringService, keyringUser(cfg))
	switch {
	case err == nil && secret != "":
		return secret, PasswordKeyring, nil
	case err != nil && !errors.Is(err, keyring.ErrNotFound) && !errors.Is(err, keyring.ErrUnsupportedPlatform):
		return "", PasswordNone, fmt.Errorf("failed to read keyring: %w", err)
	}

	if passfile == "" {
		return "", PasswordNone, nil
	}
	pf, err := pgpassfile.ReadPassfile(passfile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", PasswordNone, nil
		}
		return "", PasswordNone, fmt.Errorf("failed to read %s: %w", passfile, err)
	}
	if pw := pf.FindPassword(cfg.Host, strconv.Itoa(cfg.Port), cfg.Database, cfg.User); pw != "" {
		return pw, PasswordPassfile, nil
	}
	return "", PasswordNone, nil
}

// StorePassword saves the password for cfg in the OS keyring
func StorePassword(cfg models.ConnectionConfig, password string) error {
	if err := keyring.Set(keyringService, keyringUser(cfg), password); err != nil {
		return fmt.Errorf("failed to save password: %w", err)
	}
	return nil
}
