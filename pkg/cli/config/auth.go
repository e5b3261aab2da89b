package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	httpctrl "github.com/plotline-dev/plotline/pkg/controller/http"
	"github.com/plotline-dev/plotline/pkg/domain/types"
	"github.com/plotline-dev/plotline/pkg/service/identity"
	"github.com/urfave/cli/v3"
)

// Auth configures how API callers are authenticated
type Auth struct {
	jwtSecret  string
	jwksURL    string
	audience   string
	adminUsers []string
	noAuth     bool
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "HS256 secret of the identity provider's access tokens",
			Category:    "Authentication",
			Sources:     cli.EnvVars("PLOTLINE_JWT_SECRET"),
			Destination: &x.jwtSecret,
		},
		&cli.StringFlag{
			Name:        "jwks-url",
			Usage:       "JWKS endpoint of the identity provider (used when no JWT secret is set)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("PLOTLINE_JWKS_URL"),
			Destination: &x.jwksURL,
		},
		&cli.StringFlag{
			Name:        "jwt-audience",
			Usage:       "Required aud claim of access tokens",
			Category:    "Authentication",
			Sources:     cli.EnvVars("PLOTLINE_JWT_AUDIENCE"),
			Destination: &x.audience,
		},
		&cli.StringSliceFlag{
			Name:        "admin-user",
			Usage:       "User ID (token subject) that is always an approved admin. Repeatable.",
			Category:    "Authentication",
			Sources:     cli.EnvVars("PLOTLINE_ADMIN_USERS"),
			Destination: &x.adminUsers,
		},
		&cli.BoolFlag{
			Name:        "no-auth",
			Usage:       "Skip authentication and act as a local admin (development only)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("PLOTLINE_NO_AUTH"),
			Destination: &x.noAuth,
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("jwt-secret.len", len(x.jwtSecret)),
		slog.String("jwks-url", x.jwksURL),
		slog.String("audience", x.audience),
		slog.Int("admin-users", len(x.adminUsers)),
		slog.Bool("no-auth", x.noAuth),
	)
}

// IsNoAuthMode reports whether authentication is disabled
func (x *Auth) IsNoAuthMode() bool {
	return x.noAuth
}

// Configure returns the HTTP server options that install authentication
func (x *Auth) Configure(ctx context.Context) ([]httpctrl.Options, error) {
	if x.noAuth {
		return []httpctrl.Options{httpctrl.WithNoAuth()}, nil
	}

	var verifierOpts []identity.Option
	switch {
	case x.jwtSecret != "":
		verifierOpts = append(verifierOpts, identity.WithHMACSecret(x.jwtSecret))
	case x.jwksURL != "":
		verifierOpts = append(verifierOpts, identity.WithJWKSURL(x.jwksURL))
	default:
		return nil, goerr.Wrap(ErrMissingAuth, "set --jwt-secret, --jwks-url or --no-auth")
	}
	if x.audience != "" {
		verifierOpts = append(verifierOpts, identity.WithAudience(x.audience))
	}

	verifier, err := identity.NewJWTVerifier(ctx, verifierOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create token verifier")
	}

	admins := make([]types.UserID, 0, len(x.adminUsers))
	for _, id := range x.adminUsers {
		if id != "" {
			admins = append(admins, types.UserID(id))
		}
	}

	return []httpctrl.Options{
		httpctrl.WithVerifier(verifier),
		httpctrl.WithAdminUsers(admins...),
	}, nil
}
