// Package services – CropService
//
// This file implements the CropService, which manages the lifecycle of crop
// listings: searching, recency listing, per-owner listing, and CRUD. Create
// and update payloads are loosely-typed documents so caller-supplied fields
// the service never inspects persist opaquely; the service only owns the
// server-assigned fields (interests, createdAt) and identifier hygiene.
//
// Service-level errors (e.g. ErrCropNotFound, ErrInvalidID) are returned for
// predictable cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/farmlink/go-market-backend/internal/domain"
	"github.com/farmlink/go-market-backend/internal/repo"
)

// CropRepo defines the repository contract required by CropService.
// Implementations are responsible for persistence of crop documents.
type CropRepo interface {
	// ListCrops returns crops matching an optional search term.
	ListCrops(ctx context.Context, db *mongo.Database, search string) ([]domain.Crop, error)

	// LatestCrops returns up to limit crops by insertion recency.
	LatestCrops(ctx context.Context, db *mongo.Database, limit int) ([]domain.Crop, error)

	// GetCrop fetches a crop by id, or repo.ErrNotFound.
	GetCrop(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Crop, error)

	// CropsByOwner returns all crops published by the owner email.
	CropsByOwner(ctx context.Context, db *mongo.Database, email string) ([]domain.Crop, error)

	// CreateCrop inserts a crop document and returns the assigned id.
	CreateCrop(ctx context.Context, db *mongo.Database, doc bson.M) (primitive.ObjectID, error)

	// UpdateCrop merges fields into an existing crop document.
	UpdateCrop(ctx context.Context, db *mongo.Database, id primitive.ObjectID, doc bson.M) error

	// DeleteCrop removes a crop document.
	DeleteCrop(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error
}

// CropService provides listing-level operations over the crops collection.
type CropService struct {
	// DB is the MongoDB database handle used for persistence.
	DB *mongo.Database
	// Repo is the crop repository used by this service.
	Repo CropRepo

	// LatestLimit caps the "latest crops" listing. Defaults to 6.
	LatestLimit int
}

// NewCropService constructs a CropService with the default recency limit.
func NewCropService(db *mongo.Database, r CropRepo) *CropService {
	return &CropService{DB: db, Repo: r, LatestLimit: 6}
}

// List returns crops matching the optional search term; a blank term returns
// every crop. Matching is a case-insensitive substring test across name,
// type, and location.
func (s *CropService) List(ctx context.Context, search string) ([]domain.Crop, error) {
	return s.Repo.ListCrops(ctx, s.DB, search)
}

// Latest returns the most recently created crops, capped at LatestLimit.
func (s *CropService) Latest(ctx context.Context) ([]domain.Crop, error) {
	limit := s.LatestLimit
	if limit < 1 {
		limit = 6
	}
	return s.Repo.LatestCrops(ctx, s.DB, limit)
}

// Get fetches a single crop by its hex id. A malformed id yields
// ErrInvalidID, a missing document ErrCropNotFound.
func (s *CropService) Get(ctx context.Context, id string) (*domain.Crop, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	c, err := s.Repo.GetCrop(ctx, s.DB, oid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrCropNotFound
	}
	return c, err
}

// ListByOwner returns all crops published by the given owner email.
func (s *CropService) ListByOwner(ctx context.Context, email string) ([]domain.Crop, error) {
	return s.Repo.CropsByOwner(ctx, s.DB, email)
}

// Create inserts a new crop listing and returns its assigned hex id.
// Interests and createdAt are always server-assigned; client-supplied values
// for those fields are discarded.
func (s *CropService) Create(ctx context.Context, payload bson.M) (string, error) {
	if payload == nil {
		payload = bson.M{}
	}
	payload = repo.StripID(payload)
	payload["interests"] = bson.A{}
	payload["createdAt"] = time.Now().UTC()

	id, err := s.Repo.CreateCrop(ctx, s.DB, payload)
	if err != nil {
		return "", err
	}
	return id.Hex(), nil
}

// Update merges the payload fields into the stored crop. The identifier is
// immutable: any id field in the payload is stripped before the update.
// The acknowledgment does not indicate whether a document matched.
func (s *CropService) Update(ctx context.Context, id string, payload bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	if payload == nil {
		payload = bson.M{}
	}
	payload["updatedAt"] = time.Now().UTC()
	return s.Repo.UpdateCrop(ctx, s.DB, oid, payload)
}

// Delete removes the crop with the given hex id.
func (s *CropService) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	return s.Repo.DeleteCrop(ctx, s.DB, oid)
}
