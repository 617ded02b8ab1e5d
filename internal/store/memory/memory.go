// Package memory provides an in-memory UserStore for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saasify/saasify-api/internal/store"
)

// Store is an in-memory implementation of store.UserStore.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*store.User
	byEmail map[string]*store.User
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		byID:    make(map[string]*store.User),
		byEmail: make(map[string]*store.User),
	}
}

// Create persists a new user, assigning an ID and timestamps.
func (s *Store) Create(ctx context.Context, user *store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := store.NormalizeEmail(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return store.ErrEmailTaken
	}

	now := time.Now()
	user.ID = uuid.NewString()
	user.Email = email
	user.CreatedAt = now
	user.UpdatedAt = now

	cp := *user
	s.byID[cp.ID] = &cp
	s.byEmail[cp.Email] = &cp
	return nil
}

// GetByEmail retrieves a user by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byEmail[store.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

// GetByID retrieves a user by ID.
func (s *Store) GetByID(ctx context.Context, id string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

// Update persists changes to an existing user.
// Returns store.ErrEmailTaken if the new email belongs to a different user.
func (s *Store) Update(ctx context.Context, user *store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[user.ID]
	if !ok {
		return store.ErrNotFound
	}

	email := store.NormalizeEmail(user.Email)
	if other, exists := s.byEmail[email]; exists && other.ID != user.ID {
		return store.ErrEmailTaken
	}

	user.Email = email
	user.CreatedAt = current.CreatedAt
	user.UpdatedAt = time.Now()

	delete(s.byEmail, current.Email)
	cp := *user
	s.byID[cp.ID] = &cp
	s.byEmail[cp.Email] = &cp
	return nil
}

// Delete removes a user by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return store.ErrNotFound
	}

	delete(s.byID, id)
	delete(s.byEmail, user.Email)
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Migrate is a no-op for the in-memory store.
func (s *Store) Migrate(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// Ensure Store implements store.UserStore.
var _ store.UserStore = (*Store)(nil)
