package models

import (
	"encoding/json"
	"time"
)

// Status is the sale state of a listing.
type Status string

const (
	StatusUnsold Status = "unsold"
	StatusSold   Status = "sold"
)

// KeyValue is a labelled attribute used by key features and specifications.
type KeyValue struct {
	Label string `json:"label" bson:"label" validate:"required"`
	Value string `json:"value" bson:"value"`
}

// Car is a marketplace listing. UserID references the owning user and never
// changes after creation.
type Car struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Make           string     `json:"make"`
	Description    *string    `json:"description,omitempty"`
	Price          float64    `json:"price"`
	Images         []string   `json:"images"`
	FactoryOptions []string   `json:"factoryOptions"`
	Highlights     []string   `json:"highlights"`
	KeyFeatures    []KeyValue `json:"keyFeatures"`
	Specifications []KeyValue `json:"specifications"`
	Status         Status     `json:"status"`
	UserID         string     `json:"userId"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// MarshalJSON exposes the identifier as both "_id" and "id".
func (c Car) MarshalJSON() ([]byte, error) {
	type car Car
	return json.Marshal(struct {
		MongoID string `json:"_id"`
		car
	}{MongoID: c.ID, car: car(c)})
}

// Normalize replaces nil slices with empty ones so listings always serialize
// arrays, never null.
func (c *Car) Normalize() {
	if c.Images == nil {
		c.Images = []string{}
	}
	if c.FactoryOptions == nil {
		c.FactoryOptions = []string{}
	}
	if c.Highlights == nil {
		c.Highlights = []string{}
	}
	if c.KeyFeatures == nil {
		c.KeyFeatures = []KeyValue{}
	}
	if c.Specifications == nil {
		c.Specifications = []KeyValue{}
	}
	if c.Status == "" {
		c.Status = StatusUnsold
	}
}

// CarPatch is a partial update. Nil fields are left untouched.
type CarPatch struct {
	Title          *string
	Make           *string
	Description    *string
	Price          *float64
	Images         []string
	FactoryOptions *[]string
	Highlights     *[]string
	KeyFeatures    *[]KeyValue
	Specifications *[]KeyValue
	Status         *Status
}

// Empty reports whether the patch changes nothing.
func (p CarPatch) Empty() bool {
	return p.Title == nil && p.Make == nil && p.Description == nil && p.Price == nil &&
		len(p.Images) == 0 && p.FactoryOptions == nil && p.Highlights == nil &&
		p.KeyFeatures == nil && p.Specifications == nil && p.Status == nil
}

// Apply copies the set fields of p onto c.
func (p CarPatch) Apply(c *Car) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Make != nil {
		c.Make = *p.Make
	}
	if p.Description != nil {
		c.Description = p.Description
	}
	if p.Price != nil {
		c.Price = *p.Price
	}
	if len(p.Images) > 0 {
		c.Images = p.Images
	}
	if p.FactoryOptions != nil {
		c.FactoryOptions = *p.FactoryOptions
	}
	if p.Highlights != nil {
		c.Highlights = *p.Highlights
	}
	if p.KeyFeatures != nil {
		c.KeyFeatures = *p.KeyFeatures
	}
	if p.Specifications != nil {
		c.Specifications = *p.Specifications
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
}
