package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/animus-labs/rungraph/internal/platform/env"
)

type Mode string

const (
	ModeOIDC     Mode = "oidc"
	ModeDisabled Mode = "disabled"
)

var ErrUnauthenticated = errors.New("unauthenticated")

type Config struct {
	Mode Mode

	RolesClaim string
	EmailClaim string

	OIDCIssuerURL string
	// OIDCAudience is the client id tokens must be issued for.
	OIDCAudience  string

	// DisabledRoles are granted to every caller when Mode is disabled.
	DisabledRoles []string
}

func ConfigFromEnv() (Config, error) {
	modeRaw := strings.ToLower(env.String("RUNGRAPH_AUTH_MODE", string(ModeOIDC)))
	var mode Mode
	switch modeRaw {
	case string(ModeOIDC):
		mode = ModeOIDC
	case string(ModeDisabled):
		mode = ModeDisabled
	default:
		return Config{}, fmt.Errorf("RUNGRAPH_AUTH_MODE must be one of: oidc, disabled (got %q)", modeRaw)
	}

	cfg := Config{
		Mode:          mode,
		RolesClaim:    env.String("RUNGRAPH_AUTH_ROLES_CLAIM", "roles"),
		EmailClaim:    env.String("RUNGRAPH_AUTH_EMAIL_CLAIM", "email"),
		OIDCIssuerURL: env.String("RUNGRAPH_OIDC_ISSUER_URL", ""),
		OIDCAudience:  env.String("RUNGRAPH_OIDC_AUDIENCE", ""),
		DisabledRoles: normalizeRoles(env.Strings("RUNGRAPH_AUTH_DISABLED_ROLES", []string{RoleBuilder})),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.RolesClaim) == "" {
		return errors.New("RUNGRAPH_AUTH_ROLES_CLAIM is required")
	}
	if strings.TrimSpace(c.EmailClaim) == "" {
		return errors.New("RUNGRAPH_AUTH_EMAIL_CLAIM is required")
	}

	switch c.Mode {
	case ModeOIDC:
		if strings.TrimSpace(c.OIDCIssuerURL) == "" {
			return errors.New("RUNGRAPH_OIDC_ISSUER_URL is required when RUNGRAPH_AUTH_MODE=oidc")
		}
		if strings.TrimSpace(c.OIDCAudience) == "" {
			return errors.New("RUNGRAPH_OIDC_AUDIENCE is required when RUNGRAPH_AUTH_MODE=oidc")
		}
	case ModeDisabled:
		if len(c.DisabledRoles) == 0 {
			return errors.New("RUNGRAPH_AUTH_DISABLED_ROLES must be non-empty when RUNGRAPH_AUTH_MODE=disabled")
		}
	default:
		return fmt.Errorf("unsupported auth mode: %q", c.Mode)
	}
	return nil
}

func normalizeRoles(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		role := strings.ToLower(strings.TrimSpace(v))
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}
