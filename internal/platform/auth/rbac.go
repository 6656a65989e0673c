package auth

import (
	"errors"
	"net/http"
	"strings"
)

var ErrForbidden = errors.New("forbidden")

// Roles accepted in the roles claim. A role implies every role ranked below it.
const (
	RoleReader  = "graph-reader"
	RoleBuilder = "graph-builder"
	RoleAdmin   = "admin"
)

func rank(role string) int {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleReader:
		return 1
	case RoleBuilder:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// Grants reports whether any of roles ranks at or above required.
func Grants(roles []string, required string) bool {
	need := rank(required)
	if need == 0 {
		return false
	}
	for _, role := range roles {
		if rank(role) >= need {
			return true
		}
	}
	return false
}

// RequiredRole is graph-builder for requests that store graphs and
// graph-reader for everything else.
func RequiredRole(r *http.Request) string {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return RoleBuilder
	default:
		return RoleReader
	}
}

func RoleAuthorizer() AuthorizeFunc {
	return func(r *http.Request, identity Identity) error {
		if !Grants(identity.Roles, RequiredRole(r)) {
			return ErrForbidden
		}
		return nil
	}
}
