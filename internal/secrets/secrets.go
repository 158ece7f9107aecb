package secrets

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"sql-orchestrator/internal/platform/paths"
)

var ErrNotFound = errors.New("secret not found")
var numR = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// DBPasswordKey names the secret that holds a connection's password.
func DBPasswordKey(connection string) string {
	return "db_password_" + connection
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	key = numR.ReplaceAllString(key, "_")
	if key == "" {
		return "empty"
	}
	return key
}

func secretFilePath(key string) (string, error) {
	dir, err := paths.SecretsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, sanitizeKey(key)+".bin"), nil
}

func Set(key string, value []byte) error {
	p, err := secretFilePath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}

	sealed, err := encrypt(value)
	if err != nil {
		return errors.Wrap(err, "encrypt secret")
	}

	return os.WriteFile(p, sealed, 0o600)
}

func Get(key string) ([]byte, error) {
	p, err := secretFilePath(key)
	if err != nil {
		return nil, err
	}

	sealed, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	plain, err := decrypt(sealed)
	if err != nil {
		return nil, errors.Wrap(err, "decrypt secret")
	}
	return plain, nil
}

func Delete(key string) error {
	p, err := secretFilePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
