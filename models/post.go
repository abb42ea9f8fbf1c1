package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostStatus enum
type PostStatus string

const (
	PostRejected PostStatus = "rejected"
	PostWorking  PostStatus = "working"
)

// GeoData pinpoints where a report was filed. A document carries either the
// full structure or none of it; partial coordinates are discarded upstream.
type GeoData struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
	City      string  `bson:"city,omitempty" json:"city,omitempty"`
	Region    string  `bson:"region,omitempty" json:"region,omitempty"`
	Country   string  `bson:"country,omitempty" json:"country,omitempty"`
	Address   string  `bson:"address,omitempty" json:"address,omitempty"`
}

// Post represents a single user submission. Posts are append-only: once
// written they are never mutated, only referenced from issues.
type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UID         primitive.ObjectID `bson:"uid" json:"uid"`
	Description string             `bson:"description" json:"description"`
	ImageURL    *string            `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	GeoData     *GeoData           `bson:"geoData,omitempty" json:"geoData,omitempty"`
	Status      PostStatus         `bson:"status" json:"status"`
	AICategory  string             `bson:"aiCategory" json:"aiCategory"`
	AIPriority  string             `bson:"aiPriority" json:"aiPriority"`
	AISummary   string             `bson:"aiSummary" json:"aiSummary"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
