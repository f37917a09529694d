package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GiftLink-io/giftlink/internal/models"
	"github.com/GiftLink-io/giftlink/internal/store"
)

// UserStore is the persistence contract the account service depends on.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, changes store.UserChanges) (*models.User, error)
}

// Service implements the register, login, and update-profile use cases.
type Service struct {
	users          UserStore
	hasher         *Hasher
	tokens         *TokenManager
	logger         *slog.Logger
	minPasswordLen int
}

// NewService wires the account service. minPasswordLen below 1 falls back
// to 6, matching the registration contract.
func NewService(users UserStore, hasher *Hasher, tokens *TokenManager, logger *slog.Logger, minPasswordLen int) *Service {
	if minPasswordLen < 1 {
		minPasswordLen = 6
	}
	return &Service{
		users:          users,
		hasher:         hasher,
		tokens:         tokens,
		logger:         logger,
		minPasswordLen: minPasswordLen,
	}
}

// RegisterInput is the request shape for Register.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// RegisterResult carries the session token and non-secret profile fields.
type RegisterResult struct {
	Token     string
	Email     string
	CreatedAt time.Time
}

// Register creates a new account and returns a session token bound to it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	var ve ValidationError
	if !ValidEmail(in.Email) {
		ve.add("email", "valid email required")
	}
	if len(in.Password) < s.minPasswordLen {
		ve.add("password", fmt.Sprintf("password must be at least %d chars", s.minPasswordLen))
	}
	if in.FirstName == "" {
		ve.add("firstName", "first name required")
	}
	if in.LastName == "" {
		ve.add("lastName", "last name required")
	}
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	// Fast path for a friendly conflict error; the unique index on email
	// is what actually closes the check-then-insert race.
	_, err := s.users.GetUserByEmail(ctx, in.Email)
	if err == nil {
		return nil, ErrDuplicateEmail
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hash,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID.Hex())
	return &RegisterResult{Token: token, Email: user.Email, CreatedAt: user.CreatedAt}, nil
}

// LoginInput is the request shape for Login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the session token and display fields.
type LoginResult struct {
	Token     string
	FirstName string
	Email     string
}

// Login authenticates by email and password. An unknown email and a wrong
// password produce the same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	var ve ValidationError
	if !ValidEmail(in.Email) {
		ve.add("email", "valid email required")
	}
	if in.Password == "" {
		ve.add("password", "password required")
	}
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(user.Password, in.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID.Hex())
	return &LoginResult{Token: token, FirstName: user.FirstName, Email: user.Email}, nil
}

// UpdateInput holds the optional profile fields; nil means leave unchanged.
type UpdateInput struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// UpdateResult carries the re-issued session token.
type UpdateResult struct {
	Token string
}

// UpdateProfile applies the supplied fields to the account identified by
// subject (a verified token's subject claim) and re-issues a token. If the
// store applies the update without echoing the document back, that still
// counts as success.
func (s *Service) UpdateProfile(ctx context.Context, subject string, in UpdateInput) (*UpdateResult, error) {
	var ve ValidationError
	if in.FirstName != nil && *in.FirstName == "" {
		ve.add("firstName", "first name cannot be empty")
	}
	if in.LastName != nil && *in.LastName == "" {
		ve.add("lastName", "last name cannot be empty")
	}
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUserByID(ctx, subject); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	changes := store.UserChanges{FirstName: in.FirstName, LastName: in.LastName}
	if _, err := s.users.UpdateUser(ctx, subject, changes); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	token, err := s.tokens.Issue(subject)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user profile updated", "user_id", subject)
	return &UpdateResult{Token: token}, nil
}
