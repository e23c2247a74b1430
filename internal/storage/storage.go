// Package storage is a small client-local key/value store with the
// semantics of a browser's localStorage: string keys, string values,
// missing keys are not errors.
package storage

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidKey is returned for keys that cannot be stored safely.
var ErrInvalidKey = errors.New("invalid storage key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// Storage is the localStorage contract.
type Storage interface {
	// GetItem returns the value for key. ok is false when the key is absent.
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
	// RemoveItem deletes key. Removing an absent key succeeds.
	RemoveItem(key string) error
	Close() error
}

// ValidateKey rejects empty keys, path separators and leading dots.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) || key[0] == '.' {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
