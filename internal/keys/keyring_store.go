package keys

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const DefaultKeyringService = "agora"

// KeyringStore keeps tokens in the system keyring, one entry per origin.
type KeyringStore struct {
	Service string
}

func (s *KeyringStore) Get(origin string) (string, error) {
	val, err := keyring.Get(s.service(), Origin(origin))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		return "", err
	}
	if strings.TrimSpace(val) == "" {
		return "", ErrTokenNotFound
	}
	return val, nil
}

func (s *KeyringStore) Put(origin, token string) error {
	return keyring.Set(s.service(), Origin(origin), token)
}

func (s *KeyringStore) Delete(origin string) error {
	err := keyring.Delete(s.service(), Origin(origin))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func (s *KeyringStore) service() string {
	if s != nil && s.Service != "" {
		return s.Service
	}
	return DefaultKeyringService
}

// KeyringAvailable reports whether a system keyring backend appears supported.
func KeyringAvailable() bool {
	_, err := keyring.Get(DefaultKeyringService, "_probe_")
	if err == nil || errors.Is(err, keyring.ErrNotFound) {
		return true
	}
	return !errors.Is(err, keyring.ErrUnsupportedPlatform)
}
