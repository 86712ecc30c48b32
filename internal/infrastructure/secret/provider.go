// Package secret supplies the token signing key from the process environment
// or a mounted secret file. Keys are loaded once at startup.
package secret

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// MinKeyLength is the shortest accepted HS256 key in bytes.
const MinKeyLength = 32

var (
	// ErrNoSecret is returned when neither a literal secret nor a secret file is configured.
	ErrNoSecret = errors.New("no signing secret configured")
	// ErrWeakSecret is returned for keys shorter than MinKeyLength.
	ErrWeakSecret = fmt.Errorf("signing secret must be at least %d bytes", MinKeyLength)
)

// Provider holds a signing key loaded at startup.
type Provider struct {
	key []byte
	err error
}

// Static returns a provider for a literal key, typically JWT_SECRET.
func Static(key string) *Provider {
	if key == "" {
		return &Provider{err: ErrNoSecret}
	}
	return newProvider(key)
}

// FromFile reads the key from path, trimming surrounding whitespace so files
// written by `echo` or mounted by an orchestrator work unchanged.
func FromFile(path string) *Provider {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &Provider{err: fmt.Errorf("read secret file: %w", err)}
	}
	key := strings.TrimSpace(string(raw))
	if key == "" {
		return &Provider{err: fmt.Errorf("secret file %s is empty", path)}
	}
	return newProvider(key)
}

func newProvider(key string) *Provider {
	if len(key) < MinKeyLength {
		return &Provider{err: ErrWeakSecret}
	}
	return &Provider{key: []byte(key)}
}

// New prefers file over literal when both are set.
func New(literal, file string) *Provider {
	if file != "" {
		return FromFile(file)
	}
	return Static(literal)
}

// SigningKey returns the loaded key or the error encountered while loading it.
func (p *Provider) SigningKey() ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.key, nil
}

// Err reports whether the provider is unusable, for fail-fast checks at startup.
func (p *Provider) Err() error { return p.err }
