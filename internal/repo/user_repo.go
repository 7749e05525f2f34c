// Package repo implements the data persistence layer for domain entities,
// backed by the official MongoDB driver. This file provides repository
// functions for the users collection.
//
// Users are keyed by email. Writes are upserts with field-level $set merge
// semantics: fields absent from a save payload persist unchanged. Reads
// return the raw stored document so caller-supplied fields round-trip
// opaquely.
package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpsertFilter matches the user document with the given email.
func UpsertFilter(email string) bson.M {
	return bson.M{"email": email}
}

// UpsertUpdate builds the upsert update: caller fields are $set-merged and
// createdAt is stamped only on first insert. A caller-supplied createdAt wins
// outright; the server stamp is skipped because mongo rejects an update whose
// path appears in both $set and $setOnInsert (ConflictingUpdateOperators).
func UpsertUpdate(doc bson.M, now time.Time) bson.M {
	update := bson.M{"$set": doc}
	if _, ok := doc["createdAt"]; !ok {
		update["$setOnInsert"] = bson.M{"createdAt": now}
	}
	return update
}

// UpsertUser saves the user document keyed by email: existing documents get
// the payload fields merged in, otherwise a new document is inserted.
// Identifier fields are stripped so the payload cannot rebind _id.
func UpsertUser(ctx context.Context, db *mongo.Database, email string, doc bson.M) error {
	doc = StripID(doc)
	doc["email"] = email
	_, err := db.Collection(UsersCollection).UpdateOne(ctx,
		UpsertFilter(email),
		UpsertUpdate(doc, time.Now().UTC()),
		options.Update().SetUpsert(true),
	)
	return err
}

// GetUserByEmail returns the raw user document for the given email, or a nil
// document (and nil error) when none exists. A missing user is an empty
// result, not a not-found failure.
func GetUserByEmail(ctx context.Context, db *mongo.Database, email string) (bson.M, error) {
	var doc bson.M
	err := db.Collection(UsersCollection).FindOne(ctx, UpsertFilter(email)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}
