package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/GiftLink-io/giftlink/internal/models"
)

// GiftFilter holds the optional search criteria for the gifts collection.
// Name is a case-insensitive partial match; MaxAgeYears is an upper bound.
type GiftFilter struct {
	Name        string
	Category    string
	Condition   string
	MaxAgeYears int
}

// query builds the Mongo filter document. An empty filter matches all gifts.
func (f GiftFilter) query() bson.M {
	q := bson.M{}
	if f.Name != "" {
		q["name"] = bson.M{"$regex": f.Name, "$options": "i"}
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Condition != "" {
		q["condition"] = f.Condition
	}
	if f.MaxAgeYears > 0 {
		q["age_years"] = bson.M{"$lte": f.MaxAgeYears}
	}
	return q
}

// ListGifts returns every gift listing.
func (s *Store) ListGifts(ctx context.Context) ([]models.Gift, error) {
	return s.findGifts(ctx, bson.M{})
}

// SearchGifts returns the gifts matching the given filter.
func (s *Store) SearchGifts(ctx context.Context, filter GiftFilter) ([]models.Gift, error) {
	return s.findGifts(ctx, filter.query())
}

func (s *Store) findGifts(ctx context.Context, query bson.M) ([]models.Gift, error) {
	gifts, err := s.collection(ctx, "gifts")
	if err != nil {
		return nil, err
	}
	cursor, err := gifts.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []models.Gift{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// GetGiftByID looks up a gift by its application-assigned ID.
func (s *Store) GetGiftByID(ctx context.Context, id string) (*models.Gift, error) {
	gifts, err := s.collection(ctx, "gifts")
	if err != nil {
		return nil, err
	}
	var gift models.Gift
	err = gifts.FindOne(ctx, bson.M{"id": id}).Decode(&gift)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &gift, nil
}

// CreateGift inserts a new listing, assigning its ID and posting time.
func (s *Store) CreateGift(ctx context.Context, gift *models.Gift) error {
	gifts, err := s.collection(ctx, "gifts")
	if err != nil {
		return err
	}
	gift.ID = uuid.NewString()
	gift.PostedAt = time.Now().UTC()
	_, err = gifts.InsertOne(ctx, gift)
	return err
}

// SetGiftImage records the object-storage key of a gift's image.
func (s *Store) SetGiftImage(ctx context.Context, id, key string) error {
	gifts, err := s.collection(ctx, "gifts")
	if err != nil {
		return err
	}
	res, err := gifts.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"imageKey": key}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
