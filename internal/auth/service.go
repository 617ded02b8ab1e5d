// Package auth orchestrates signup, login, and profile operations over the
// credential store, password hasher, and session token codec.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/saasify/saasify-api/internal/password"
	"github.com/saasify/saasify-api/internal/store"
	"github.com/saasify/saasify-api/internal/token"
)

// Validation limits, matching the public signup contract.
const (
	MinPasswordLength = 8
	MinNameLength     = 2

	// MinNewPasswordLength applies to password changes. Looser than the
	// signup minimum for compatibility with accounts created before the
	// signup rule was tightened.
	MinNewPasswordLength = 6

	// SessionTTL is the default lifetime of an issued session token.
	SessionTTL = 7 * 24 * time.Hour
)

// emailPattern is a pragmatic format check, not a full RFC 5322 parser.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Profile is the public view of a user: never the password hash.
type Profile struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  store.Role `json:"role"`
}

// Identity is the minimal decoded session identity.
type Identity struct {
	ID   string     `json:"id"`
	Role store.Role `json:"role"`
}

// Service implements the auth operations. It is stateless between calls;
// all state lives in the token and the store.
type Service struct {
	store      store.UserStore
	hasher     password.Hasher
	codec      *token.Codec
	logger     *slog.Logger
	sessionTTL time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithSessionTTL overrides the default session token lifetime.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sessionTTL = d
		}
	}
}

// NewService wires an auth service.
func NewService(st store.UserStore, hasher password.Hasher, codec *token.Codec, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: st, hasher: hasher, codec: codec, logger: logger, sessionTTL: SessionTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignupInput is the signup request payload.
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
}

// validate checks shape before any store access.
func (in *SignupInput) validate() error {
	var issues []string

	if !emailPattern.MatchString(strings.TrimSpace(in.Email)) {
		issues = append(issues, "email must be a valid email address")
	}
	if len(in.Password) < MinPasswordLength {
		issues = append(issues, "password must be at least 8 characters")
	}
	if len(strings.TrimSpace(in.Name)) < MinNameLength {
		issues = append(issues, "name must be at least 2 characters")
	}
	if in.Role != "" && !store.ValidRole(in.Role) {
		issues = append(issues, "role must be one of admin, manager, user")
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// Signup validates, persists a new user, and issues a session token.
// Returns the public profile and the signed token.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Profile, string, error) {
	if err := in.validate(); err != nil {
		return nil, "", err
	}

	role := store.Role(in.Role)
	if role == "" {
		role = store.RoleUser
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", err
	}

	user := &store.User{
		Email:        store.NormalizeEmail(in.Email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Role:         role,
	}

	// The store enforces email uniqueness atomically; a lost race surfaces
	// here exactly like an up-front duplicate.
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	tok, err := s.codec.Issue(user.ID, string(user.Role), s.sessionTTL)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user signed up", "user_id", user.ID, "role", user.Role)
	return publicProfile(user), tok, nil
}

// Login verifies credentials and issues a fresh session token.
// Unknown email and wrong password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, pass string) (*Profile, string, error) {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	ok, err := s.hasher.Verify(pass, user.PasswordHash)
	if err != nil {
		// A malformed stored hash is data corruption; log it but present
		// the same response as a wrong password.
		s.logger.Error("stored password hash unverifiable", "user_id", user.ID, "error", err)
		return nil, "", ErrInvalidCredentials
	}
	if !ok {
		return nil, "", ErrInvalidCredentials
	}

	tok, err := s.codec.Issue(user.ID, string(user.Role), s.sessionTTL)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return publicProfile(user), tok, nil
}

// CurrentIdentity decodes a session token best-effort. Any verification
// failure yields nil rather than an error; this feeds the optimistic
// "am I logged in" check and must never fail the caller.
func (s *Service) CurrentIdentity(tokenString string) *Identity {
	if tokenString == "" {
		return nil
	}

	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		return nil
	}

	return &Identity{ID: claims.Subject, Role: store.Role(claims.Role)}
}

// GetProfile loads the public profile for an authenticated user.
func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return publicProfile(user), nil
}

// UpdateProfile changes name and email for an authenticated user.
func (s *Service) UpdateProfile(ctx context.Context, userID, name, email string) (*Profile, error) {
	var issues []string
	if len(strings.TrimSpace(name)) < MinNameLength {
		issues = append(issues, "name must be at least 2 characters")
	}
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		issues = append(issues, "email must be a valid email address")
	}
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	user.Name = strings.TrimSpace(name)
	user.Email = store.NormalizeEmail(email)

	if err := s.store.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return publicProfile(user), nil
}

// ChangePassword re-verifies the current password before storing a new
// hash. The re-check guards against a hijacked but unattended session.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < MinNewPasswordLength {
		return &ValidationError{Issues: []string{"new password must be at least 6 characters"}}
	}

	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	ok, err := s.hasher.Verify(current, user.PasswordHash)
	if err != nil || !ok {
		return ErrPasswordIncorrect
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	if err := s.store.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}

// DeleteAccount removes the user after re-verifying their password.
func (s *Service) DeleteAccount(ctx context.Context, userID, pass string) error {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	ok, err := s.hasher.Verify(pass, user.PasswordHash)
	if err != nil || !ok {
		return ErrPasswordIncorrect
	}

	if err := s.store.Delete(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.logger.Info("account deleted", "user_id", userID)
	return nil
}

func publicProfile(u *store.User) *Profile {
	return &Profile{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}
