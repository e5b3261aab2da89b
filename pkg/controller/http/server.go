package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/plotline-dev/plotline/pkg/domain/types"
	"github.com/plotline-dev/plotline/pkg/service/identity"
	"github.com/plotline-dev/plotline/pkg/usecase"
	"github.com/plotline-dev/plotline/pkg/utils/logging"
)

const maxBodySize = 1 << 20

type Server struct {
	router     *chi.Mux
	uc         *usecase.UseCases
	verifier   identity.Verifier
	noAuth     bool
	adminUsers map[types.UserID]bool
}

type Options func(*Server)

// WithVerifier authenticates API requests with bearer tokens checked by v
func WithVerifier(v identity.Verifier) Options {
	return func(s *Server) {
		s.verifier = v
	}
}

// WithNoAuth serves every request as the local administrator. Development only.
func WithNoAuth() Options {
	return func(s *Server) {
		s.noAuth = true
	}
}

// WithAdminUsers makes the given identities approved admins on sign-in
func WithAdminUsers(ids ...types.UserID) Options {
	return func(s *Server) {
		for _, id := range ids {
			s.adminUsers[id] = true
		}
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:     r,
		uc:         uc,
		adminUsers: make(map[types.UserID]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/me", s.getMe)

		r.Route("/schemas", func(r chi.Router) {
			r.Get("/", s.listFormKeys)
			r.Get("/{formKey}", s.getSchema)
			r.Post("/{formKey}", s.saveSchema)
			r.Get("/{formKey}/versions", s.listSchemaVersions)
		})

		r.Post("/forms/{formKey}/validate", s.validateForm)

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", s.listProperties)
			r.Post("/", s.submitProperty)
			r.Get("/{propertyID}", s.getProperty)
		})

		r.Route("/admin/users", func(r chi.Router) {
			r.Get("/", s.listUsers)
			r.Post("/{userID}/approve", s.approveUser)
			r.Post("/{userID}/role", s.setUserRole)
			r.Post("/{userID}/ban", s.banUser)
			r.Post("/{userID}/unban", s.unbanUser)
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.With(r.Context(), logger)

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}
