package identity

import (
	"context"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

var (
	ErrInvalidToken = goerr.New("invalid token")
	ErrNoKey        = goerr.New("no verification key configured")
)

const (
	defaultKeySetTTL = 10 * time.Minute
	acceptableSkew   = 10 * time.Second
)

// Identity is the caller asserted by a verified token
type Identity struct {
	ID    types.UserID
	Email string
}

// Verifier turns a bearer token into an identity
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// JWTVerifier verifies JWTs signed either with a shared HS256 secret or with
// a key from a JWKS endpoint
type JWTVerifier struct {
	secret   []byte
	jwksURL  string
	audience string
	ttl      time.Duration

	keys *jwk.Cache
}

var _ Verifier = &JWTVerifier{}

type Option func(*JWTVerifier)

// WithHMACSecret accepts tokens signed with HS256 and secret
func WithHMACSecret(secret string) Option {
	return func(v *JWTVerifier) {
		v.secret = []byte(secret)
	}
}

// WithJWKSURL accepts tokens signed by a key published at url
func WithJWKSURL(url string) Option {
	return func(v *JWTVerifier) {
		v.jwksURL = url
	}
}

// WithAudience requires the aud claim to contain audience
func WithAudience(audience string) Option {
	return func(v *JWTVerifier) {
		v.audience = audience
	}
}

// WithKeySetTTL sets how often the JWKS endpoint is refreshed
func WithKeySetTTL(ttl time.Duration) Option {
	return func(v *JWTVerifier) {
		v.ttl = ttl
	}
}

// NewJWTVerifier creates a verifier. With a JWKS URL, the key set is cached
// and refreshed in the background until ctx is canceled; a failed refresh
// keeps the previously fetched keys.
func NewJWTVerifier(ctx context.Context, opts ...Option) (*JWTVerifier, error) {
	v := &JWTVerifier{ttl: defaultKeySetTTL}
	for _, opt := range opts {
		opt(v)
	}

	if len(v.secret) == 0 && v.jwksURL == "" {
		return nil, goerr.Wrap(ErrNoKey, "either an HMAC secret or a JWKS URL is required")
	}

	if len(v.secret) == 0 {
		v.keys = jwk.NewCache(ctx)
		if err := v.keys.Register(v.jwksURL, jwk.WithRefreshInterval(v.ttl)); err != nil {
			return nil, goerr.Wrap(err, "failed to register JWKS URL", goerr.V("jwks_url", v.jwksURL))
		}
	}
	return v, nil
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, goerr.Wrap(ErrInvalidToken, "empty token")
	}

	parseOpts := []jwt.ParseOption{
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(acceptableSkew),
	}
	if v.audience != "" {
		parseOpts = append(parseOpts, jwt.WithAudience(v.audience))
	}

	if len(v.secret) > 0 {
		parseOpts = append(parseOpts, jwt.WithKey(jwa.HS256, v.secret))
	} else {
		keySet, err := v.getKeySet(ctx)
		if err != nil {
			return nil, err
		}
		parseOpts = append(parseOpts, jwt.WithKeySet(keySet))
	}

	parsed, err := jwt.Parse([]byte(token), parseOpts...)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidToken, "failed to parse or verify JWT token", goerr.V("reason", err.Error()))
	}

	sub := parsed.Subject()
	if sub == "" {
		return nil, goerr.Wrap(ErrInvalidToken, "sub claim not found in token")
	}

	identity := &Identity{ID: types.UserID(sub)}
	if email, ok := parsed.Get("email"); ok {
		if s, ok := email.(string); ok {
			identity.Email = s
		}
	}
	return identity, nil
}

func (v *JWTVerifier) getKeySet(ctx context.Context) (jwk.Set, error) {
	keySet, err := v.keys.Get(ctx, v.jwksURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch public keys", goerr.V("jwks_url", v.jwksURL))
	}
	return keySet, nil
}
