package models

import "time"

// Gift is a listing document in the gifts collection. Gifts are looked up
// by their application-assigned id, not by the Mongo _id.
type Gift struct {
	ID          string    `bson:"id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Category    string    `bson:"category" json:"category"`
	Condition   string    `bson:"condition" json:"condition"`
	AgeYears    int       `bson:"age_years" json:"age_years"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	ImageKey    string    `bson:"imageKey,omitempty" json:"imageKey,omitempty"`
	PostedAt    time.Time `bson:"postedAt" json:"postedAt"`
}
