// Package keys keeps forum bearer tokens out of the config file.
package keys

import (
	"errors"
	"net/url"
	"strings"
)

// TokenStore holds one bearer token per forum origin.
type TokenStore interface {
	Get(origin string) (string, error)
	Put(origin, token string) error
	Delete(origin string) error
}

var ErrTokenNotFound = errors.New("token not found")

// Origin reduces a base URL to scheme://host so trailing paths and slashes
// map to the same entry.
func Origin(baseURL string) string {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

// MemStore keeps tokens in memory.
type MemStore struct {
	Tokens map[string]string
}

func (s *MemStore) Get(origin string) (string, error) {
	if s == nil || s.Tokens == nil {
		return "", ErrTokenNotFound
	}
	tok, ok := s.Tokens[Origin(origin)]
	if !ok || tok == "" {
		return "", ErrTokenNotFound
	}
	return tok, nil
}

func (s *MemStore) Put(origin, token string) error {
	if s.Tokens == nil {
		s.Tokens = map[string]string{}
	}
	s.Tokens[Origin(origin)] = token
	return nil
}

func (s *MemStore) Delete(origin string) error {
	if s == nil || s.Tokens == nil {
		return nil
	}
	delete(s.Tokens, Origin(origin))
	return nil
}
