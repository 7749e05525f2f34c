// User HTTP handlers.
//
// This file exposes REST endpoints for marketplace user records:
//   - POST /users         (upsert keyed by email)
//   - GET  /users/:email  (fetch, empty when absent)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/farmlink/go-market-backend/internal/services"
)

// SaveUser godoc
// @ID          saveUser
// @Summary     Save or update a user
// @Description Upserts the user record keyed by the payload's email. Payload fields overwrite stored fields one by one; fields absent from the payload persist unchanged.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  object  true  "User fields including email"
//
// @Success     200  {object}  handlers.AckResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid body or missing email"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [post]
func (h *Handlers) SaveUser(c *gin.Context) {
	var payload bson.M
	if err := c.ShouldBindJSON(&payload); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	err := h.userSvc.Save(c.Request.Context(), payload)
	switch {
	case errors.Is(err, services.ErrMissingEmail):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	default:
		ok(c, http.StatusOK, AckResponse{Acknowledged: true})
	}
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user by email
// @Description Returns the stored user document. A missing user yields an empty (null) body, not a 404.
// @Tags        Users
// @Produce     json
//
// @Param       email  path  string  true  "User email"  example(buyer@example.com)
//
// @Success     200  {object}  domain.User
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{email} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	doc, err := h.userSvc.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, doc)
}
