// Package authz defines the role policy for protected routes. The policy is
// declared in YAML so deployments can tighten or extend route access without
// a rebuild; a default policy ships embedded in the binary.
package authz

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/saasify/saasify-api/internal/store"
)

//go:embed policy.yaml
var defaultPolicy []byte

// Validation errors.
var (
	ErrEmptyPath     = errors.New("route path cannot be empty")
	ErrDuplicatePath = errors.New("duplicate route path")
	ErrNoRoles       = errors.New("route must allow at least one role")
	ErrUnknownRole   = errors.New("unknown role")
)

// Route maps a request path to the roles allowed to reach it.
type Route struct {
	Path  string   `yaml:"path"`
	Roles []string `yaml:"roles"`
}

// Policy is the full route access policy.
type Policy struct {
	Version int     `yaml:"version"`
	Routes  []Route `yaml:"routes"`
}

// Default returns the policy embedded in the binary.
func Default() (*Policy, error) {
	return Parse(defaultPolicy)
}

// LoadFromFile loads and validates a policy from a YAML file.
func LoadFromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a policy from raw YAML.
func Parse(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the policy for empty paths, duplicate paths, and roles
// the system does not define.
func (p *Policy) Validate() error {
	seen := make(map[string]struct{}, len(p.Routes))
	for _, route := range p.Routes {
		if route.Path == "" {
			return ErrEmptyPath
		}
		if _, dup := seen[route.Path]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicatePath, route.Path)
		}
		seen[route.Path] = struct{}{}

		if len(route.Roles) == 0 {
			return fmt.Errorf("%w: %s", ErrNoRoles, route.Path)
		}
		for _, role := range route.Roles {
			if !store.ValidRole(role) {
				return fmt.Errorf("%w: %q on route %s", ErrUnknownRole, role, route.Path)
			}
		}
	}
	return nil
}

// AllowedRoles returns the roles permitted on a path. The second return is
// false when the policy does not mention the path.
func (p *Policy) AllowedRoles(path string) ([]store.Role, bool) {
	for _, route := range p.Routes {
		if route.Path == path {
			roles := make([]store.Role, len(route.Roles))
			for i, r := range route.Roles {
				roles[i] = store.Role(r)
			}
			return roles, true
		}
	}
	return nil, false
}
