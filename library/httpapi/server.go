// Package httpapi exposes a Library over HTTP with chi routing and JWT bearer authentication.
//
// Reading the catalog is public. Borrowing, returning and the /me endpoints need a valid token.
// Changing the catalog, uploading covers, listing users and reading the whole ledger need a
// librarian or admin token.
package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/AntonStoeckl/library-ledger-go/library"
	"github.com/AntonStoeckl/library-ledger-go/library/shell"
)

const (
	defaultTokenTTL       = 24 * time.Hour
	defaultMaxUploadBytes = 5 << 20
	minSecretBytes        = 16
)

// ErrWeakSecret is returned by NewServer for a JWT secret shorter than 16 bytes.
var ErrWeakSecret = errors.New("jwt secret is too short")

// Server holds the handlers. Create it with NewServer and mount Router.
type Server struct {
	lib            *library.Library
	tokens         tokenIssuer
	maxUploadBytes int64
	requestLogging bool
	logger         shell.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithTokenTTL sets how long issued tokens stay valid.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) error {
		if ttl <= 0 {
			return fmt.Errorf("token ttl must be positive, got %s", ttl)
		}

		s.tokens.ttl = ttl

		return nil
	}
}

// WithMaxUploadBytes caps the size of a cover image upload.
func WithMaxUploadBytes(limit int64) Option {
	return func(s *Server) error {
		if limit <= 0 {
			return fmt.Errorf("upload limit must be positive, got %d", limit)
		}

		s.maxUploadBytes = limit

		return nil
	}
}

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Server) error {
		s.tokens.now = now
		return nil
	}
}

// WithRequestLogging turns chi's access log on or off. It is on by default.
func WithRequestLogging(enabled bool) Option {
	return func(s *Server) error {
		s.requestLogging = enabled
		return nil
	}
}

// WithLogger sets the logger for handler failures.
func WithLogger(logger shell.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// NewServer creates a Server for lib that signs tokens with jwtSecret.
func NewServer(lib *library.Library, jwtSecret string, options ...Option) (*Server, error) {
	if lib == nil {
		return nil, errors.New("library must not be nil")
	}

	if len(jwtSecret) < minSecretBytes {
		return nil, ErrWeakSecret
	}

	s := &Server{
		lib:            lib,
		tokens:         tokenIssuer{secret: []byte(jwtSecret), ttl: defaultTokenTTL, now: time.Now},
		maxUploadBytes: defaultMaxUploadBytes,
		requestLogging: true,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Router returns the http.Handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	if s.requestLogging {
		r.Use(chimw.Logger)
	}

	r.Use(chimw.Recoverer)

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.register)
		r.Post("/auth/login", s.login)

		r.Get("/books", s.listBooks)
		r.Get("/books/{id}", s.getBook)
		r.Get("/books/{id}/availability", s.availability)
		r.Get("/books/{id}/image", s.getImage)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/books/{id}/borrow", s.borrow)
			r.Post("/books/{id}/return", s.returnBook)
			r.Get("/me/borrowed", s.myBorrowed)
			r.Get("/me/history", s.myHistory)

			r.Group(func(r chi.Router) {
				r.Use(requireCatalogManager)

				r.Post("/books", s.addBook)
				r.Patch("/books/{id}", s.updateBook)
				r.Delete("/books/{id}", s.deleteBook)
				r.Put("/books/{id}/image", s.uploadImage)
				r.Get("/ledger", s.ledger)
				r.Get("/users", s.listUsers)
			})
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
