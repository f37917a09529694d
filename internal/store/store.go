// Package store is the document-store boundary. It only uses equality and
// partial-match lookups on the users and gifts collections; everything else
// about the persistence engine stays behind the mongo driver.
package store

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/GiftLink-io/giftlink/internal/database"
)

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicateEmail indicates the unique index on users.email rejected an
// insert. The index, not the pre-insert existence check, is the
// authoritative guard against concurrent registrations.
var ErrDuplicateEmail = errors.New("store: email already exists")

// Store persists users and gifts through the shared connection manager.
type Store struct {
	manager *database.Manager
	logger  *slog.Logger
}

// New creates a Store backed by the given connection manager.
func New(manager *database.Manager, logger *slog.Logger) *Store {
	return &Store{manager: manager, logger: logger}
}

func (s *Store) collection(ctx context.Context, name string) (*mongo.Collection, error) {
	db, err := s.manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}
