package auth

import (
	"context"
	"fmt"
	"strings"
)

// Role is the access level carried by an authenticated principal.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleSeller  Role = "seller"
)

// ParseRole converts a raw role claim into a Role.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleManager:
		return RoleManager, nil
	case RoleSeller:
		return RoleSeller, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Elevated reports whether the role may act on sales owned by others.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleManager
}

// Principal is the acting identity of a request. It never carries credentials.
type Principal struct {
	ID   string
	Role Role
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
