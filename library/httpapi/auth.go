package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/users"
)

type contextKey string

const principalKey contextKey = "principal"

var (
	errMissingToken = errors.New("missing authorization header")
	errInvalidToken = errors.New("invalid or expired token")
	errForbidden    = errors.New("insufficient role")
)

// Claims of an issued token. The subject is the username.
type Claims struct {
	Role core.Role `json:"role"`
	jwt.RegisteredClaims
}

type principal struct {
	Username core.UsernameString
	Role     core.Role
}

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (t tokenIssuer) issue(user core.User) (string, time.Time, error) {
	issuedAt := t.now()
	expiresAt := issuedAt.Add(t.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func (t tokenIssuer) parse(raw string) (principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return principal{}, errInvalidToken
	}

	return principal{Username: claims.Subject, Role: claims.Role}, nil
}

// bearerPrincipal returns the caller of r. The second return value is false without an Authorization header.
func (s *Server) bearerPrincipal(r *http.Request) (principal, bool, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return principal{}, false, nil
	}

	scheme, raw, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
		return principal{}, true, errInvalidToken
	}

	p, err := s.tokens.parse(raw)

	return p, true, err
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, present, err := s.bearerPrincipal(r)
		if !present {
			writeErrorMessage(w, http.StatusUnauthorized, errMissingToken.Error())
			return
		}

		if err != nil {
			writeErrorMessage(w, http.StatusUnauthorized, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
	})
}

func requireCatalogManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalFrom(r.Context())
		if !ok || !p.Role.CanManageCatalog() {
			writeErrorMessage(w, http.StatusForbidden, errForbidden.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func principalFrom(ctx context.Context) (principal, bool) {
	p, ok := ctx.Value(principalKey).(principal)
	return p, ok
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      core.Role `json:"role"`
}

type userResponse struct {
	ID       int       `json:"id"`
	Username string    `json:"username"`
	Role     core.Role `json:"role"`
	Email    string    `json:"email"`
}

func userResponseFrom(user core.User) userResponse {
	return userResponse{ID: user.ID, Username: user.Username, Role: user.Role, Email: user.Email}
}

// register creates a reader. Other roles can only be granted by a librarian or admin.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	role, err := core.ParseRole(req.Role)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if role != core.RoleReader {
		p, present, authErr := s.bearerPrincipal(r)
		if !present || authErr != nil || !p.Role.CanManageCatalog() {
			writeErrorMessage(w, http.StatusForbidden, errForbidden.Error())
			return
		}
	}

	user, err := s.lib.Users.Register(r.Context(), users.Registration{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Role:     string(role),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponseFrom(user))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	user, err := s.lib.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	token, expiresAt, err := s.tokens.issue(user)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt, Username: user.Username, Role: user.Role})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.lib.Users.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	result := make([]userResponse, 0, len(list))
	for _, user := range list {
		result = append(result, userResponseFrom(user))
	}

	writeJSON(w, http.StatusOK, result)
}
