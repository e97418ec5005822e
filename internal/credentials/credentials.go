// Package credentials holds the user-entered username/password pair and
// derives the authorization context used on every API request.
// Nothing here is ever persisted.
package credentials

import (
	"fmt"
	"net/http"
	"sync"
)

// Field names accepted by Store.Set.
const (
	FieldUsername = "username"
	FieldPassword = "password"
)

// Credentials is the raw pair as typed by the user.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"-"`
}

// AuthContext is a read-only view of Credentials that exists only when both
// fields are non-empty.
type AuthContext struct {
	username string
	password string
}

// Derive returns the AuthContext for c, or nil if either field is empty.
func Derive(c Credentials) *AuthContext {
	if c.Username == "" || c.Password == "" {
		return nil
	}
	return &AuthContext{username: c.Username, password: c.Password}
}

// Username returns the user name carried by the context.
func (a *AuthContext) Username() string { return a.username }

// Apply sets HTTP Basic credentials on req.
func (a *AuthContext) Apply(req *http.Request) {
	req.SetBasicAuth(a.username, a.password)
}

// Equal reports whether a and b carry the same credentials. Two nil
// contexts are equal.
func (a *AuthContext) Equal(b *AuthContext) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.username == b.username && a.password == b.password
}

// Store holds the current Credentials in memory.
type Store struct {
	mu    sync.Mutex
	creds Credentials
	auth  *AuthContext
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Credentials returns a copy of the current pair.
func (s *Store) Credentials() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// Set replaces a single field.
func (s *Store) Set(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch field {
	case FieldUsername:
		s.creds.Username = value
	case FieldPassword:
		s.creds.Password = value
	default:
		return fmt.Errorf("unknown credential field %q", field)
	}
	return nil
}

// Auth derives the AuthContext from the current credentials. The previous
// context is returned as-is while it still matches.
func (s *Store) Auth() *AuthContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auth != nil && s.auth.username == s.creds.Username && s.auth.password == s.creds.Password {
		return s.auth
	}
	s.auth = Derive(s.creds)
	return s.auth
}
