// Package services – UserService
//
// This file implements the UserService, which saves and reads marketplace
// user records. Users are keyed by email: saves are upserts with field-level
// merge semantics, and reads return the raw stored document (a missing user
// is an empty result, not an error).
package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepo defines the repository contract required by UserService.
type UserRepo interface {
	// UpsertUser saves the user document keyed by email.
	UpsertUser(ctx context.Context, db *mongo.Database, email string, doc bson.M) error

	// GetUserByEmail returns the raw user document, or nil when absent.
	GetUserByEmail(ctx context.Context, db *mongo.Database, email string) (bson.M, error)
}

// UserService implements the use-cases around user records.
type UserService struct {
	// DB is the MongoDB database handle used for persistence.
	DB *mongo.Database
	// Repo is the user repository used by this service.
	Repo UserRepo
}

// NewUserService constructs a UserService.
func NewUserService(db *mongo.Database, r UserRepo) *UserService {
	return &UserService{DB: db, Repo: r}
}

// Save upserts the user record keyed by the payload's email. Payload fields
// overwrite stored fields one by one; fields absent from the payload persist
// unchanged. ErrMissingEmail is returned when the payload has no email.
func (s *UserService) Save(ctx context.Context, payload bson.M) error {
	if payload == nil {
		payload = bson.M{}
	}
	email, _ := payload["email"].(string)
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrMissingEmail
	}
	return s.Repo.UpsertUser(ctx, s.DB, email, payload)
}

// GetByEmail returns the stored user document for the email, or nil when no
// user exists. The absence of a user is not an error.
func (s *UserService) GetByEmail(ctx context.Context, email string) (bson.M, error) {
	return s.Repo.GetUserByEmail(ctx, s.DB, email)
}
