// Package services – InterestService
//
// This file implements the InterestService, which governs buyer interests on
// crop listings: submission (with the one-interest-per-user rule), the
// buyer's cross-crop interest listing, and the owner's accept/reject status
// transitions. Accepting an interest decrements the crop's quantity by the
// interest's quantity in the same store operation as the status change.
//
// Service-level errors (ErrCropNotFound, ErrDuplicateInterest,
// ErrInterestNotFound, ErrInvalidStatus) are returned for predictable cases
// so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/farmlink/go-market-backend/internal/domain"
	"github.com/farmlink/go-market-backend/internal/repo"
)

// InterestRepo defines the repository contract required by InterestService.
type InterestRepo interface {
	// GetCrop fetches a crop by id, or repo.ErrNotFound.
	GetCrop(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Crop, error)

	// PushInterest appends an interest document, guarded against duplicates
	// for the same user email (repo.ErrDuplicateInterest).
	PushInterest(ctx context.Context, db *mongo.Database, cropID primitive.ObjectID, userEmail string, doc bson.M) error

	// SetInterestStatus sets an embedded interest's status in place,
	// decrementing the crop quantity when decrement is non-zero.
	SetInterestStatus(ctx context.Context, db *mongo.Database, cropID, interestID primitive.ObjectID, status string, decrement float64) error

	// CropsWithInterestBy returns every crop holding an interest by the user.
	CropsWithInterestBy(ctx context.Context, db *mongo.Database, email string) ([]domain.Crop, error)
}

// InterestService implements the use-cases around buyer interests.
type InterestService struct {
	// DB is the MongoDB database handle used for persistence.
	DB *mongo.Database
	// Repo is the interest repository used by this service.
	Repo InterestRepo
}

// NewInterestService constructs an InterestService.
func NewInterestService(db *mongo.Database, r InterestRepo) *InterestService {
	return &InterestService{DB: db, Repo: r}
}

// Submit records a new interest for the crop named by the payload's cropId.
//
// Semantics and validation:
//   - cropId must be present and a valid hex id; otherwise ErrMissingCropID
//     or ErrInvalidID.
//   - userEmail must be present; otherwise ErrMissingEmail.
//   - The crop must exist; otherwise ErrCropNotFound.
//   - A user may hold at most one interest per crop; a second submission
//     yields ErrDuplicateInterest. The check is a scan of the loaded crop's
//     interests, and the append itself is additionally guarded store-side so
//     two concurrent submissions cannot both land.
//   - The interest id, pending status, and creation timestamp are
//     server-assigned; other payload fields persist opaquely.
func (s *InterestService) Submit(ctx context.Context, payload bson.M) error {
	if payload == nil {
		payload = bson.M{}
	}

	cropHex, _ := payload["cropId"].(string)
	if strings.TrimSpace(cropHex) == "" {
		return ErrMissingCropID
	}
	cropID, err := primitive.ObjectIDFromHex(cropHex)
	if err != nil {
		return ErrInvalidID
	}
	email, _ := payload["userEmail"].(string)
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrMissingEmail
	}

	crop, err := s.Repo.GetCrop(ctx, s.DB, cropID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrCropNotFound
	}
	if err != nil {
		return err
	}
	if _, exists := crop.InterestOn(email); exists {
		return ErrDuplicateInterest
	}

	doc := repo.StripID(payload)
	delete(doc, "cropId")
	doc["_id"] = primitive.NewObjectID()
	doc["userEmail"] = email
	doc["status"] = domain.StatusPending
	doc["createdAt"] = time.Now().UTC()

	if err := s.Repo.PushInterest(ctx, s.DB, cropID, email, doc); err != nil {
		if errors.Is(err, repo.ErrDuplicateInterest) {
			return ErrDuplicateInterest
		}
		return err
	}
	return nil
}

// ListByUser returns one enriched record per crop the user has an interest
// in: the first matching interest, projected with the crop's id, name, and
// owner name.
func (s *InterestService) ListByUser(ctx context.Context, email string) ([]domain.InterestView, error) {
	crops, err := s.Repo.CropsWithInterestBy(ctx, s.DB, email)
	if err != nil {
		return nil, err
	}
	out := make([]domain.InterestView, 0, len(crops))
	for i := range crops {
		in, ok := crops[i].InterestOn(email)
		if !ok {
			continue
		}
		out = append(out, domain.InterestView{
			Interest:  *in,
			CropID:    crops[i].ID,
			CropName:  crops[i].Name,
			CropOwner: crops[i].Owner.OwnerName,
		})
	}
	return out, nil
}

// UpdateStatus transitions the interest identified by (cropID, interestID)
// to the target status. When the target is "accepted", the crop's quantity
// is decremented by the interest's quantity in the same store update as the
// status change.
//
// Errors: ErrInvalidStatus for unknown targets, ErrInvalidID for malformed
// ids, ErrCropNotFound when the crop is missing, ErrInterestNotFound when
// the interest is not embedded in the crop.
func (s *InterestService) UpdateStatus(ctx context.Context, cropID, interestID, status string) error {
	if !domain.ValidStatus(status) {
		return ErrInvalidStatus
	}
	cid, err := primitive.ObjectIDFromHex(cropID)
	if err != nil {
		return ErrInvalidID
	}
	iid, err := primitive.ObjectIDFromHex(interestID)
	if err != nil {
		return ErrInvalidID
	}

	crop, err := s.Repo.GetCrop(ctx, s.DB, cid)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrCropNotFound
	}
	if err != nil {
		return err
	}
	in, ok := crop.InterestByID(iid)
	if !ok {
		return ErrInterestNotFound
	}

	var decrement float64
	if status == domain.StatusAccepted {
		decrement = in.Quantity
	}
	if err := s.Repo.SetInterestStatus(ctx, s.DB, cid, iid, status, decrement); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInterestNotFound
		}
		return err
	}
	return nil
}
