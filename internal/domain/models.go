// Package domain defines the persistence models for crop listings, buyer
// interests, and marketplace users. These types are stored as MongoDB
// documents and form the core data layer of the marketplace application.
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Interest lifecycle statuses. An interest starts as pending and is moved to
// accepted or rejected by the crop owner. The API does not prevent a second
// transition on an already-terminal interest.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// ValidStatus reports whether s is one of the known interest statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

// Owner identifies the farmer who published a crop listing. The email and
// name are denormalized copies; there is no foreign-key link to the users
// collection.
type Owner struct {
	OwnerName  string `bson:"ownerName" json:"ownerName"`
	OwnerEmail string `bson:"ownerEmail" json:"ownerEmail"`
	OwnerPhone string `bson:"ownerPhone,omitempty" json:"ownerPhone,omitempty"`
}

// Interest is a buyer's expressed intent to purchase some quantity of a
// crop. Interests are embedded in the owning crop document; they are only
// ever appended or status-mutated in place, never removed.
//
// At most one interest per (crop, userEmail) pair may exist at insert time.
type Interest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserEmail string             `bson:"userEmail" json:"userEmail"`
	UserName  string             `bson:"userName,omitempty" json:"userName,omitempty"`
	Quantity  float64            `bson:"quantity" json:"quantity"`
	Message   string             `bson:"message,omitempty" json:"message,omitempty"`
	Status    string             `bson:"status" json:"status"` // pending | accepted | rejected
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Crop represents a sellable listing published by a farmer.
//
// Fields:
//   - ID: store-assigned ObjectID; monotonically increasing, so sorting by
//     _id descending yields insertion recency.
//   - Name/Type/Location: free text, searched case-insensitively.
//   - Quantity: available amount; decremented when an interest is accepted.
//   - Interests: embedded buyer interests, append-only.
//   - CreatedAt: server-assigned at creation, immutable.
type Crop struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Type        string             `bson:"type" json:"type"`
	Location    string             `bson:"location" json:"location"`
	Quantity    float64            `bson:"quantity" json:"quantity"`
	Price       float64            `bson:"price,omitempty" json:"price,omitempty"`
	Unit        string             `bson:"unit,omitempty" json:"unit,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Owner       Owner              `bson:"owner" json:"owner"`
	Interests   []Interest         `bson:"interests" json:"interests"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// InterestOn returns the first embedded interest submitted by userEmail and
// whether one exists.
func (c *Crop) InterestOn(userEmail string) (*Interest, bool) {
	for i := range c.Interests {
		if c.Interests[i].UserEmail == userEmail {
			return &c.Interests[i], true
		}
	}
	return nil, false
}

// InterestByID returns the embedded interest with the given id and whether
// one exists.
func (c *Crop) InterestByID(id primitive.ObjectID) (*Interest, bool) {
	for i := range c.Interests {
		if c.Interests[i].ID == id {
			return &c.Interests[i], true
		}
	}
	return nil, false
}

// InterestView is the enriched projection returned by the "my interests"
// listing: the buyer's interest on a crop together with the crop fields the
// buyer needs to identify the listing.
type InterestView struct {
	Interest  `bson:",inline"`
	CropID    primitive.ObjectID `bson:"cropId" json:"cropId"`
	CropName  string             `bson:"cropName" json:"cropName"`
	CropOwner string             `bson:"cropOwner" json:"cropOwner"`
}

// User is a marketplace user record. Users are keyed by email (upserted, one
// document per address) and the remaining fields are caller-supplied and
// opaque to the service, so reads return the raw stored document.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`
	Role      string             `bson:"role,omitempty" json:"role,omitempty"` // farmer | buyer
	CreatedAt time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}
