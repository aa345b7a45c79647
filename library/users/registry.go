package users

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shell"
)

const (
	logMsgUserRegistered      = "user registered"
	logMsgAuthenticationFails = "authentication failed"
	logAttrUsername           = "username"
	logAttrRole               = "role"
	maxPasswordBytes          = 72
)

// ErrInvalidCredentials is returned for an unknown user and for a wrong password alike.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Store persists users. CreateUser assigns the id and returns core.ErrDuplicate for a taken username,
// GetUser returns core.ErrNotFound for an unknown one.
type Store interface {
	CreateUser(ctx context.Context, user core.User) (core.User, error)
	GetUser(ctx context.Context, username core.UsernameString) (core.User, error)
	ListUsers(ctx context.Context) ([]core.User, error)
}

// Registration is the input of Register. An empty Role means reader.
type Registration struct {
	Username string
	Password string
	Email    string
	Role     string
}

// Registry is the entry point for user operations.
type Registry struct {
	store      Store
	bcryptCost int
	logger     shell.Logger
}

// Option configures a Registry.
type Option func(*Registry) error

// WithBcryptCost sets the bcrypt cost, bcrypt.MinCost is useful in tests.
func WithBcryptCost(cost int) Option {
	return func(r *Registry) error {
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return fmt.Errorf("%w: bcrypt cost %d out of range", core.ErrValidation, cost)
		}

		r.bcryptCost = cost

		return nil
	}
}

// WithLogger sets the logger for the Registry.
func WithLogger(logger shell.Logger) Option {
	return func(r *Registry) error {
		r.logger = logger
		return nil
	}
}

// NewRegistry creates a Registry on top of store.
func NewRegistry(store Store, options ...Option) (*Registry, error) {
	r := &Registry{
		store:      store,
		bcryptCost: bcrypt.DefaultCost,
	}

	for _, option := range options {
		if err := option(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register validates the registration, hashes the password and stores the user.
func (r *Registry) Register(ctx context.Context, reg Registration) (core.User, error) {
	username := core.NormalizeUsername(reg.Username)
	if username == "" {
		return core.User{}, fmt.Errorf("%w: username must not be empty", core.ErrValidation)
	}

	if reg.Password == "" {
		return core.User{}, fmt.Errorf("%w: password must not be empty", core.ErrValidation)
	}

	if len(reg.Password) > maxPasswordBytes {
		return core.User{}, fmt.Errorf("%w: password must not be longer than %d bytes", core.ErrValidation, maxPasswordBytes)
	}

	role, err := core.ParseRole(reg.Role)
	if err != nil {
		return core.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), r.bcryptCost)
	if err != nil {
		return core.User{}, errors.Join(core.ErrStorage, err)
	}

	user, err := r.store.CreateUser(ctx, core.User{
		Username: username,
		Password: string(hash),
		Role:     role,
		Email:    reg.Email,
	})
	if err != nil {
		return core.User{}, err
	}

	if r.logger != nil {
		r.logger.Info(logMsgUserRegistered, logAttrUsername, user.Username, logAttrRole, string(user.Role))
	}

	return user, nil
}

// Authenticate returns the user when the password matches its stored hash.
func (r *Registry) Authenticate(ctx context.Context, username, password string) (core.User, error) {
	user, err := r.store.GetUser(ctx, core.NormalizeUsername(username))
	if errors.Is(err, core.ErrNotFound) {
		r.logAuthenticationFailure(username)
		return core.User{}, ErrInvalidCredentials
	}

	if err != nil {
		return core.User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		r.logAuthenticationFailure(username)
		return core.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// Get returns one user.
func (r *Registry) Get(ctx context.Context, username string) (core.User, error) {
	return r.store.GetUser(ctx, core.NormalizeUsername(username))
}

// List returns all users in registration order.
func (r *Registry) List(ctx context.Context) ([]core.User, error) {
	return r.store.ListUsers(ctx)
}

func (r *Registry) logAuthenticationFailure(username string) {
	if r.logger != nil {
		r.logger.Warn(logMsgAuthenticationFails, logAttrUsername, username)
	}
}

// DuplicateError builds the error stores return for a taken username.
func DuplicateError(username core.UsernameString) error {
	return fmt.Errorf("%w: username %q", core.ErrDuplicate, username)
}

// NotFoundError builds the error stores return for an unknown username.
func NotFoundError(username core.UsernameString) error {
	return fmt.Errorf("%w: user %q", core.ErrNotFound, username)
}
