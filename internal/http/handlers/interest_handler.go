// Interest HTTP handlers.
//
// This file exposes REST endpoints for buyer interests on crop listings:
//   - POST /interests            (submit an interest)
//   - GET  /my-interests/:email  (a buyer's interests across all crops)
//   - PUT  /interests/status     (accept/reject an interest)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/farmlink/go-market-backend/internal/services"
)

// UpdateInterestStatusRequest is the JSON payload for transitioning an
// interest's status.
type UpdateInterestStatusRequest struct {
	// InterestID identifies the embedded interest.
	InterestID string `json:"interestId" binding:"required" example:"66b1f9d3b5e4f6a7b8c9d0e1"`
	// CropID identifies the crop holding the interest.
	CropID string `json:"cropId" binding:"required" example:"66b1f8c2a4d3e5f6a7b8c9d0"`
	// Status is the target status: pending, accepted, or rejected.
	Status string `json:"status" binding:"required" example:"accepted"`
}

// SubmitInterest godoc
// @ID          submitInterest
// @Summary     Submit an interest
// @Description Appends a pending interest to the crop named by cropId. A user may hold at most one interest per crop; a repeat submission is rejected with a conflict. The interest id, status, and creation timestamp are server-assigned.
// @Tags        Interests
// @Accept      json
// @Produce     json
//
// @Param       body  body  object  true  "Interest fields (cropId, userEmail, quantity, ...)"
//
// @Success     201  {object}  handlers.AckResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid body or duplicate interest"
// @Failure     404  {object}  handlers.ErrorResponse  "Crop not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /interests [post]
func (h *Handlers) SubmitInterest(c *gin.Context) {
	var payload bson.M
	if err := c.ShouldBindJSON(&payload); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	err := h.interestSvc.Submit(c.Request.Context(), payload)
	switch {
	case errors.Is(err, services.ErrMissingCropID),
		errors.Is(err, services.ErrMissingEmail),
		errors.Is(err, services.ErrInvalidID):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrCropNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrDuplicateInterest):
		fail(c, http.StatusBadRequest, ErrCodeConflict, err.Error())
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	default:
		ok(c, http.StatusCreated, AckResponse{Acknowledged: true})
	}
}

// MyInterests godoc
// @ID          myInterests
// @Summary     List a user's interests
// @Description Returns one record per crop the user has an interest in, enriched with the crop's id, name, and owner name.
// @Tags        Interests
// @Produce     json
//
// @Param       email  path  string  true  "Buyer email"  example(buyer@example.com)
//
// @Success     200  {array}   domain.InterestView
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /my-interests/{email} [get]
func (h *Handlers) MyInterests(c *gin.Context) {
	views, err := h.interestSvc.ListByUser(c.Request.Context(), c.Param("email"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, views)
}

// UpdateInterestStatus godoc
// @ID          updateInterestStatus
// @Summary     Update an interest's status
// @Description Sets the status of an embedded interest in place. Accepting an interest also decrements the crop's quantity by the interest's quantity, in the same store operation.
// @Tags        Interests
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.UpdateInterestStatusRequest  true  "Status transition"
//
// @Success     200  {object}  handlers.AckResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid body, id, or status"
// @Failure     404  {object}  handlers.ErrorResponse  "Crop or interest not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /interests/status [put]
func (h *Handlers) UpdateInterestStatus(c *gin.Context) {
	var req UpdateInterestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "interestId, cropId and status are required")
		return
	}
	err := h.interestSvc.UpdateStatus(c.Request.Context(), req.CropID, req.InterestID, req.Status)
	switch {
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidID):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrCropNotFound),
		errors.Is(err, services.ErrInterestNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
	default:
		ok(c, http.StatusOK, AckResponse{Acknowledged: true})
	}
}
