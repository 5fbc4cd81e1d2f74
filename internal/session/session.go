// Package session answers "who is signed in". Sign-in flows live elsewhere;
// the composer only needs the current user to gate running simulations.
package session

import "sync"

// User is a signed-in account.
type User struct {
	Name string
}

// Provider reports the current user, or nil when signed out.
type Provider interface {
	CurrentUser() *User
}

// Static is a Provider whose user is set programmatically, e.g. from the
// configuration file. It is safe for concurrent use.
type Static struct {
	mu   sync.RWMutex
	user *User
}

// NewStatic returns a provider signed in as name, or signed out when name is
// empty.
func NewStatic(name string) *Static {
	s := &Static{}
	s.SignIn(name)
	return s
}

func (s *Static) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// SignIn replaces the current user. An empty name signs out.
func (s *Static) SignIn(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		s.user = nil
		return
	}
	s.user = &User{Name: name}
}

// SignOut clears the current user.
func (s *Static) SignOut() { s.SignIn("") }
