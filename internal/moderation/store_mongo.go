// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taibuivan/modgate/internal/platform/dberr"
	"github.com/taibuivan/modgate/pkg/pointer"
)

const userCollection = "users"

type userDocument struct {
	ID               primitive.ObjectID  `bson:"_id"`
	Name             string              `bson:"name"`
	Email            string              `bson:"email"`
	Status           string              `bson:"status,omitempty"`
	IsVerified       bool                `bson:"isVerified"`
	VerificationType *string             `bson:"verificationType"`
	VerifiedBy       *primitive.ObjectID `bson:"verifiedBy"`
	VerifiedAt       *time.Time          `bson:"verifiedAt"`
}

func (doc *userDocument) toEntity() *User {
	user := &User{
		ID:               doc.ID.Hex(),
		Name:             doc.Name,
		Email:            doc.Email,
		Status:           doc.Status,
		IsVerified:       doc.IsVerified,
		VerifiedAt:       doc.VerifiedAt,
		VerificationType: pointer.Val(doc.VerificationType),
	}
	if doc.VerifiedBy != nil {
		user.VerifiedBy = doc.VerifiedBy.Hex()
	}
	return user
}

// MongoUserRepository implements [UserRepository] on the shared "users"
// collection. Only the verification fields are ever written.
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a repository bound to db.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection(userCollection)}
}

var userProjection = bson.M{
	"name":             1,
	"email":            1,
	"status":           1,
	"isVerified":       1,
	"verificationType": 1,
	"verifiedBy":       1,
	"verifiedAt":       1,
}

// FindByID implements [UserRepository].
func (repository *MongoUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, dberr.ErrNotFound
	}

	var doc userDocument
	err = repository.collection.
		FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(userProjection)).
		Decode(&doc)
	if err != nil {
		return nil, dberr.Wrap(err, "find user")
	}
	return doc.toEntity(), nil
}

// SetVerification implements [UserRepository].
func (repository *MongoUserRepository) SetVerification(ctx context.Context, id string, verification Verification) error {
	fields := bson.M{
		"isVerified":       true,
		"verificationType": verification.Type,
		"verifiedAt":       verification.VerifiedAt,
		"verifiedBy":       nil,
	}

	// Admin ids are ObjectIDs in every deployment this service writes to.
	if adminID, err := primitive.ObjectIDFromHex(verification.VerifiedBy); err == nil {
		fields["verifiedBy"] = adminID
	}

	return repository.updateOne(ctx, id, "verify user", bson.M{"$set": fields})
}

// ClearVerification implements [UserRepository].
func (repository *MongoUserRepository) ClearVerification(ctx context.Context, id string) error {
	return repository.updateOne(ctx, id, "revoke verification", bson.M{"$set": bson.M{
		"isVerified":       false,
		"verificationType": nil,
		"verifiedBy":       nil,
		"verifiedAt":       nil,
	}})
}

func (repository *MongoUserRepository) updateOne(ctx context.Context, id, action string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return dberr.ErrNotFound
	}

	result, err := repository.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return dberr.Wrap(err, action)
	}
	if result.MatchedCount == 0 {
		return dberr.ErrNotFound
	}
	return nil
}
