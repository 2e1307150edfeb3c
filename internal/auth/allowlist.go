// Package auth decides which SSH public keys may open an inventory session.
package auth

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
)

// ErrAllowlistNotFound is returned when the allowlist file doesn't exist.
var ErrAllowlistNotFound = errors.New("allowlist file not found")

// Allowlist is a reloadable set of authorized public keys.
type Allowlist struct {
	path string

	mu   sync.RWMutex
	keys []ssh.PublicKey
}

// LoadAllowlist reads an OpenSSH authorized_keys file. Empty lines,
// comments and unparsable lines are skipped.
func LoadAllowlist(path string) (*Allowlist, error) {
	a := &Allowlist{path: path}
	if err := a.Reload(); err != nil {
		return nil, err
	}
	return a, nil
}

// Reload re-reads the file, keeping the old keys on failure.
func (a *Allowlist) Reload() error {
	file, err := os.Open(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrAllowlistNotFound
		}
		return err
	}
	defer file.Close()

	keys, err := ParseAuthorizedKeys(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", a.path, err)
	}

	a.mu.Lock()
	a.keys = keys
	a.mu.Unlock()
	return nil
}

// Len returns the number of loaded keys.
func (a *Allowlist) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.keys)
}

// Allows reports whether key is in the allowlist.
func (a *Allowlist) Allows(key ssh.PublicKey) bool {
	if key == nil {
		return false
	}

	keyBytes := key.Marshal()
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, allowed := range a.keys {
		if bytes.Equal(keyBytes, allowed.Marshal()) {
			return true
		}
	}
	return false
}

// ParseAuthorizedKeys parses authorized_keys content line by line.
func ParseAuthorizedKeys(r io.Reader) ([]ssh.PublicKey, error) {
	var keys []ssh.PublicKey
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pubKey, _, _, _, err := ssh.ParseAuthorizedKey([]byte(line))
		if err != nil {
			continue
		}
		keys = append(keys, pubKey)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// CreateEmptyAllowlist writes an allowlist file containing only usage notes.
func CreateEmptyAllowlist(path string) error {
	content := `# Inventory terminal SSH allowlist
# One public key per line in OpenSSH authorized_keys format, e.g.
# ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIExample... operador@bodega
`
	return os.WriteFile(path, []byte(content), 0o600)
}
