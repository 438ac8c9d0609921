// Package auth decides who may do what.
//
// Callers are identified by a signed bearer token carrying a role. What each
// role may do is an injected Policy, so the set of admins is configuration
// rather than code.
package auth

import (
	"context"
	"strings"
)

// Role is the coarse permission group of a caller.
type Role string

// Known roles.
const (
	RoleAdmin   Role = "admin"
	RoleOfficer Role = "officer"
	RolePlayer  Role = "player"
)

// ParseRole validates s.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleOfficer, RolePlayer:
		return r, nil
	default:
		return "", ErrUnknownRole
	}
}

// Principal is the authenticated caller.
type Principal struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Role    Role   `json:"role"`
}

// Anonymous reports whether no identity was presented.
func (p Principal) Anonymous() bool {
	return p.Subject == ""
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, or the zero Principal.
func FromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}
