// Package memory provides an in-process PrincipalStore for tests and
// examples. Not intended for production use.
package memory

import (
	"context"
	"sync"

	"github.com/clinichub/authcore"
)

// Store is a thread-safe in-memory PrincipalStore.
type Store struct {
	mu       sync.RWMutex
	byID     map[string]authcore.Principal
	byEmail  map[string]string
	profiles map[string]authcore.Profile
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID:     make(map[string]authcore.Principal),
		byEmail:  make(map[string]string),
		profiles: make(map[string]authcore.Profile),
	}
}

// Create implements authcore.PrincipalStore. The single lock makes the
// two-record write atomic with respect to concurrent readers.
func (s *Store) Create(_ context.Context, p *authcore.Principal, profile authcore.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[p.Email]; ok {
		return authcore.ErrDuplicateEmail
	}
	s.byID[p.ID] = *p
	s.byEmail[p.Email] = p.ID
	s.profiles[p.ID] = profile
	return nil
}

// FindByEmail implements authcore.PrincipalStore.
func (s *Store) FindByEmail(_ context.Context, email string) (*authcore.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, authcore.ErrPrincipalNotFound
	}
	p := s.byID[id]
	return &p, nil
}

// FindByID implements authcore.PrincipalStore.
func (s *Store) FindByID(_ context.Context, id string) (*authcore.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, authcore.ErrPrincipalNotFound
	}
	return &p, nil
}

// Profile returns the role-specific record stored with a principal.
func (s *Store) Profile(id string) (authcore.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[id]
	return profile, ok
}

// SetActive flips a principal's active flag. Test hook for the
// inactive-account authentication path.
func (s *Store) SetActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.byID[id]; ok {
		p.Active = active
		s.byID[id] = p
	}
}

var _ authcore.PrincipalStore = (*Store)(nil)
