// Package repo implements the data persistence layer for domain entities,
// backed by the official MongoDB driver. This file provides repository
// functions for the crops collection, including the embedded interest
// sub-documents.
//
// All functions are context-aware and accept a *mongo.Database handle. They
// follow the "thin repository" approach: no business logic, only query
// composition and single store operations.
//
// Error semantics:
//   - When a crop is not found, functions return ErrNotFound.
//   - When a conditional interest append is rejected because the user already
//     has an interest on the crop, PushInterest returns ErrDuplicateInterest.
//   - On other store errors the raw driver error is propagated.
//
// The bson filter/update builders are exported so they can be unit tested
// without a live server.
package repo

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/farmlink/go-market-backend/internal/domain"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrDuplicateInterest is returned when an interest append is rejected
// because the user already has an interest on the crop.
var ErrDuplicateInterest = errors.New("interest already submitted for this crop")

//
// Filter / update builders
//

// SearchFilter builds the listing filter for an optional free-text search.
// An empty (or blank) search matches everything; otherwise the term is
// matched as a case-insensitive substring against name, type, and location.
// The term is escaped so regex metacharacters are taken literally.
func SearchFilter(search string) bson.M {
	search = strings.TrimSpace(search)
	if search == "" {
		return bson.M{}
	}
	re := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return bson.M{"$or": []bson.M{
		{"name": re},
		{"type": re},
		{"location": re},
	}}
}

// OwnerFilter matches crops published by the given owner email.
func OwnerFilter(email string) bson.M {
	return bson.M{"owner.ownerEmail": email}
}

// InterestUserFilter matches crops containing an interest by the given user.
func InterestUserFilter(email string) bson.M {
	return bson.M{"interests.userEmail": email}
}

// PushInterestFilter matches the target crop only while the user has no
// existing interest on it, so the $push and the duplicate check are a single
// atomic store operation.
func PushInterestFilter(cropID primitive.ObjectID, userEmail string) bson.M {
	return bson.M{
		"_id":                 cropID,
		"interests.userEmail": bson.M{"$ne": userEmail},
	}
}

// StatusUpdate builds the update that sets the matched interest's status in
// place. When decrement is non-zero (an acceptance) the crop quantity is
// decremented in the same update document, so status and quantity can never
// diverge on a store failure.
func StatusUpdate(status string, decrement float64) bson.M {
	u := bson.M{"$set": bson.M{"interests.$.status": status}}
	if decrement != 0 {
		u["$inc"] = bson.M{"quantity": -decrement}
	}
	return u
}

// StripID removes identifier fields from a client-supplied document so an
// update can never rebind _id.
func StripID(doc bson.M) bson.M {
	delete(doc, "id")
	delete(doc, "_id")
	return doc
}

//
// Crop operations
//

// ListCrops returns crops matching the optional search term (all crops when
// the term is blank). Result order is the store's natural order.
func ListCrops(ctx context.Context, db *mongo.Database, search string) ([]domain.Crop, error) {
	cur, err := db.Collection(CropsCollection).Find(ctx, SearchFilter(search))
	if err != nil {
		return nil, err
	}
	out := []domain.Crop{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestCrops returns up to limit crops ordered by _id descending. ObjectIDs
// are monotonically assigned, so this is insertion recency.
func LatestCrops(ctx context.Context, db *mongo.Database, limit int) ([]domain.Crop, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := db.Collection(CropsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	out := []domain.Crop{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCrop fetches a single crop by id, or ErrNotFound if missing.
func GetCrop(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Crop, error) {
	var c domain.Crop
	err := db.Collection(CropsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CropsByOwner returns all crops whose owner email equals the input.
func CropsByOwner(ctx context.Context, db *mongo.Database, email string) ([]domain.Crop, error) {
	cur, err := db.Collection(CropsCollection).Find(ctx, OwnerFilter(email))
	if err != nil {
		return nil, err
	}
	out := []domain.Crop{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCrop inserts a new crop document and returns the store-assigned id.
// The caller is responsible for having set the server-owned fields
// (interests, createdAt) on the document.
func CreateCrop(ctx context.Context, db *mongo.Database, doc bson.M) (primitive.ObjectID, error) {
	res, err := db.Collection(CropsCollection).InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

// UpdateCrop merges the given fields into the crop document via $set.
// Identifier fields are stripped first; the acknowledgment does not reveal
// whether any document matched.
func UpdateCrop(ctx context.Context, db *mongo.Database, id primitive.ObjectID, doc bson.M) error {
	doc = StripID(doc)
	if len(doc) == 0 {
		return nil
	}
	_, err := db.Collection(CropsCollection).UpdateByID(ctx, id, bson.M{"$set": doc})
	return err
}

// DeleteCrop removes the crop document with the given id.
func DeleteCrop(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error {
	_, err := db.Collection(CropsCollection).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

//
// Interest operations (embedded in crops)
//

// PushInterest appends the interest document to the crop's interests array,
// guarded so a user can hold at most one interest per crop. The caller must
// have verified the crop exists: a zero match here means the guard rejected
// a duplicate, and ErrDuplicateInterest is returned.
func PushInterest(ctx context.Context, db *mongo.Database, cropID primitive.ObjectID, userEmail string, doc bson.M) error {
	res, err := db.Collection(CropsCollection).UpdateOne(ctx,
		PushInterestFilter(cropID, userEmail),
		bson.M{"$push": bson.M{"interests": doc}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrDuplicateInterest
	}
	return nil
}

// SetInterestStatus sets the status of the embedded interest in place and,
// when decrement is non-zero, decrements the crop quantity in the same
// update. Returns ErrNotFound when no crop/interest pair matches.
func SetInterestStatus(ctx context.Context, db *mongo.Database, cropID, interestID primitive.ObjectID, status string, decrement float64) error {
	res, err := db.Collection(CropsCollection).UpdateOne(ctx,
		bson.M{"_id": cropID, "interests._id": interestID},
		StatusUpdate(status, decrement),
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CropsWithInterestBy returns every crop containing an interest submitted by
// the given user email.
func CropsWithInterestBy(ctx context.Context, db *mongo.Database, email string) ([]domain.Crop, error) {
	cur, err := db.Collection(CropsCollection).Find(ctx, InterestUserFilter(email))
	if err != nil {
		return nil, err
	}
	out := []domain.Crop{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
