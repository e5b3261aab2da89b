package http

import (
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/model/auth"
	"github.com/plotline-dev/plotline/pkg/domain/types"
	"github.com/plotline-dev/plotline/pkg/utils/errutil"
	"github.com/plotline-dev/plotline/pkg/utils/logging"
)

const (
	localAdminID    types.UserID = "local-admin"
	localAdminEmail              = "admin@localhost"
)

// authMiddleware resolves the caller of a request into a principal backed by
// its profile
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if s.noAuth {
			profile, err := s.uc.User.EnsureAdmin(ctx, localAdminID, localAdminEmail)
			if err != nil {
				errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
				return
			}
			ctx = auth.ContextWithPrincipal(ctx, profile.Principal())
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if s.verifier == nil {
			errutil.HandleHTTP(ctx, w, goerr.New("no authentication configured"), http.StatusInternalServerError)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(auth.ErrUnauthenticated, "authentication required"), http.StatusUnauthorized)
			return
		}

		id, err := s.verifier.Verify(ctx, token)
		if err != nil {
			logging.From(ctx).Info("token rejected", "error", err.Error())
			errutil.HandleHTTP(ctx, w, goerr.Wrap(auth.ErrUnauthenticated, "invalid authentication token"), http.StatusUnauthorized)
			return
		}

		ensure := s.uc.User.EnsureProfile
		if s.adminUsers[id.ID] {
			ensure = s.uc.User.EnsureAdmin
		}
		profile, err := ensure(ctx, id.ID, id.Email)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
			return
		}

		ctx = auth.ContextWithPrincipal(ctx, profile.Principal())
		ctx = logging.With(ctx, logging.From(ctx).With("user_id", profile.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
