// Crop HTTP handlers.
//
// This file exposes REST endpoints for crop listing resources:
//   - GET    /crops           (list, optional ?search=)
//   - GET    /crops/latest    (most recent listings, fixed cap)
//   - GET    /crops/:id       (fetch one)
//   - GET    /my-crops/:email (listings by owner)
//   - POST   /crops           (create)
//   - PUT    /crops/:id       (merge update)
//   - DELETE /crops/:id       (delete)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/farmlink/go-market-backend/internal/domain"
	"github.com/farmlink/go-market-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// CropService defines crop listing operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CropService interface {
	// List returns crops matching an optional search term (blank = all).
	List(ctx context.Context, search string) ([]domain.Crop, error)
	// Latest returns the most recently created crops, capped.
	Latest(ctx context.Context) ([]domain.Crop, error)
	// Get fetches a single crop by hex id.
	Get(ctx context.Context, id string) (*domain.Crop, error)
	// ListByOwner returns all crops published by the owner email.
	ListByOwner(ctx context.Context, email string) ([]domain.Crop, error)
	// Create inserts a new crop listing and returns its hex id.
	Create(ctx context.Context, payload bson.M) (string, error)
	// Update merges payload fields into the stored crop.
	Update(ctx context.Context, id string, payload bson.M) error
	// Delete removes a crop listing.
	Delete(ctx context.Context, id string) error
}

// InterestService defines buyer interest operations consumed by HTTP handlers.
type InterestService interface {
	// Submit records a new interest from a loose payload (cropId, userEmail,
	// quantity, plus opaque fields).
	Submit(ctx context.Context, payload bson.M) error
	// ListByUser returns one enriched interest record per crop the user
	// participates in.
	ListByUser(ctx context.Context, email string) ([]domain.InterestView, error)
	// UpdateStatus transitions an interest to pending/accepted/rejected.
	UpdateStatus(ctx context.Context, cropID, interestID, status string) error
}

// UserService defines user record operations consumed by HTTP handlers.
type UserService interface {
	// Save upserts the user record keyed by the payload's email.
	Save(ctx context.Context, payload bson.M) error
	// GetByEmail returns the stored user document, or nil when absent.
	GetByEmail(ctx context.Context, email string) (bson.M, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for crops, interests, and users.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	cropSvc     CropService
	interestSvc InterestService
	userSvc     UserService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(cropSvc CropService, interestSvc InterestService, userSvc UserService) *Handlers {
	return &Handlers{cropSvc: cropSvc, interestSvc: interestSvc, userSvc: userSvc}
}

//
// Handlers
//

// ListCrops godoc
// @ID          listCrops
// @Summary     List crops
// @Description Returns all crop listings, optionally filtered by a case-insensitive substring match across name, type, and location.
// @Tags        Crops
// @Produce     json
//
// @Param       search  query  string  false  "Substring to match against name/type/location"  example(wheat)
//
// @Success     200  {array}   domain.Crop
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /crops [get]
func (h *Handlers) ListCrops(c *gin.Context) {
	crops, err := h.cropSvc.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, crops)
}

// LatestCrops godoc
// @ID          latestCrops
// @Summary     List latest crops
// @Description Returns the most recently created crop listings, newest first. The cap is fixed (6 by default).
// @Tags        Crops
// @Produce     json
//
// @Success     200  {array}   domain.Crop
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /crops/latest [get]
func (h *Handlers) LatestCrops(c *gin.Context) {
	crops, err := h.cropSvc.Latest(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, crops)
}

// GetCrop godoc
// @ID          getCrop
// @Summary     Get a crop by id
// @Description Fetches a single crop listing, including its embedded interests.
// @Tags        Crops
// @Produce     json
//
// @Param       id  path  string  true  "Crop ID (ObjectID hex)"  example(66b1f8c2a4d3e5f6a7b8c9d0)
//
// @Success     200  {object}  domain.Crop
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed id"
// @Failure     404  {object}  handlers.ErrorResponse  "Crop not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /crops/{id} [get]
func (h *Handlers) GetCrop(c *gin.Context) {
	crop, err := h.cropSvc.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, services.ErrInvalidID):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrCropNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	default:
		ok(c, http.StatusOK, crop)
	}
}

// MyCrops godoc
// @ID          myCrops
// @Summary     List crops by owner
// @Description Returns all crop listings whose owner email equals the path parameter.
// @Tags        Crops
// @Produce     json
//
// @Param       email  path  string  true  "Owner email"  example(farmer@example.com)
//
// @Success     200  {array}   domain.Crop
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /my-crops/{email} [get]
func (h *Handlers) MyCrops(c *gin.Context) {
	crops, err := h.cropSvc.ListByOwner(c.Request.Context(), c.Param("email"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, crops)
}

// CreateCrop godoc
// @ID          createCrop
// @Summary     Create a crop listing
// @Description Inserts a new crop listing. The interests sequence and creation timestamp are server-assigned; client values for those fields are discarded. Unknown payload fields persist opaquely.
// @Tags        Crops
// @Accept      json
// @Produce     json
//
// @Param       body  body  object  true  "Crop fields (name, type, location, quantity, owner, ...)"
//
// @Success     201  {object}  handlers.AckResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid JSON body"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /crops [post]
func (h *Handlers) CreateCrop(c *gin.Context) {
	var payload bson.M
	if err := c.ShouldBindJSON(&payload); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	id, err := h.cropSvc.Create(c.Request.Context(), payload)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, AckResponse{Acknowledged: true, ID: id})
}

// UpdateCrop godoc
// @ID          updateCrop
// @Summary     Update a crop listing
// @Description Merges the payload fields into the stored crop (field-level overwrite, not whole-document replace). The identifier is immutable and stripped from the payload. The acknowledgment does not indicate whether a document matched.
// @Tags        Crops
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Crop ID (ObjectID hex)"  example(66b1f8c2a4d3e5f6a7b8c9d0)
// @Param       body  body  object  true  "Partial crop fields"
//
// @Success     200  {object}  handlers.AckResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed id or body"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /crops/{id} [put]
func (h *Handlers) UpdateCrop(c *gin.Context) {
	var payload bson.M
	if err := c.ShouldBindJSON(&payload); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	err := h.cropSvc.Update(c.Request.Context(), c.Param("id"), payload)
	switch {
	case errors.Is(err, services.ErrInvalidID):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
	default:
		ok(c, http.StatusOK, AckResponse{Acknowledged: true})
	}
}

// DeleteCrop godoc
// @ID          deleteCrop
// @Summary     Delete a crop listing
// @Tags        Crops
// @Produce     json
//
// @Param       id  path  string  true  "Crop ID (ObjectID hex)"  example(66b1f8c2a4d3e5f6a7b8c9d0)
//
// @Success     200  {object}  handlers.AckResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed id"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /crops/{id} [delete]
func (h *Handlers) DeleteCrop(c *gin.Context) {
	err := h.cropSvc.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, services.ErrInvalidID):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
	default:
		ok(c, http.StatusOK, AckResponse{Acknowledged: true})
	}
}
