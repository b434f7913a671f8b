// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taibuivan/modgate/internal/platform/dberr"
	"github.com/taibuivan/modgate/internal/platform/sec"
	"github.com/taibuivan/modgate/pkg/slice"
)

// Collection names and document fields shared with existing deployments.
const (
	adminCollection     = "admins"
	moderatorCollection = "moderators"

	fieldID            = "_id"
	fieldEmail         = "email"
	fieldStatus        = "status"
	fieldBannedAt      = "bannedAt"
	fieldBannedReason  = "bannedReason"
	fieldRefreshTokens = "refreshTokens"
	fieldCreatedAt     = "createdAt"
)

// # Documents

type adminDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (doc *adminDocument) toEntity() *Admin {
	return &Admin{
		ID:           doc.ID.Hex(),
		Name:         doc.Name,
		Email:        doc.Email,
		PasswordHash: doc.Password,
		Role:         sec.Role(doc.Role),
		CreatedAt:    doc.CreatedAt,
	}
}

type moderatorDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          string             `bson:"name"`
	Email         string             `bson:"email"`
	Password      string             `bson:"password"`
	Role          string             `bson:"role"`
	Status        string             `bson:"status"`
	BannedAt      *time.Time         `bson:"bannedAt,omitempty"`
	BannedReason  string             `bson:"bannedReason,omitempty"`
	RefreshTokens []string           `bson:"refreshTokens"`
	CreatedAt     time.Time          `bson:"createdAt"`
}

func (doc *moderatorDocument) toEntity() *Moderator {
	status := sec.Status(doc.Status)
	if status == "" {
		status = sec.StatusActive
	}
	return &Moderator{
		ID:           doc.ID.Hex(),
		Name:         doc.Name,
		Email:        doc.Email,
		PasswordHash: doc.Password,
		Status:       status,
		BannedAt:     doc.BannedAt,
		BannedReason: doc.BannedReason,
		CreatedAt:    doc.CreatedAt,
	}
}

// objectID parses a hex identifier. Malformed ids cannot match any document.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, dberr.ErrNotFound
	}
	return oid, nil
}

// ensureUniqueEmail creates the unique email index on collection.
func ensureUniqueEmail(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: fieldEmail, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return dberr.Wrap(err, "create email index on "+collection.Name())
}

// # Admin Repository

// MongoAdminRepository implements [AdminRepository] on the "admins" collection.
type MongoAdminRepository struct {
	collection *mongo.Collection
}

// NewMongoAdminRepository creates a repository bound to db.
func NewMongoAdminRepository(db *mongo.Database) *MongoAdminRepository {
	return &MongoAdminRepository{collection: db.Collection(adminCollection)}
}

// EnsureIndexes creates the indexes the repository relies on.
func (repository *MongoAdminRepository) EnsureIndexes(ctx context.Context) error {
	return ensureUniqueEmail(ctx, repository.collection)
}

// FindByID implements [AdminRepository].
func (repository *MongoAdminRepository) FindByID(ctx context.Context, id string) (*Admin, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return repository.findOne(ctx, bson.M{fieldID: oid})
}

// FindByEmail implements [AdminRepository].
func (repository *MongoAdminRepository) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	return repository.findOne(ctx, bson.M{fieldEmail: email})
}

func (repository *MongoAdminRepository) findOne(ctx context.Context, filter bson.M) (*Admin, error) {
	var doc adminDocument
	if err := repository.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, dberr.Wrap(err, "find admin")
	}
	return doc.toEntity(), nil
}

// Create implements [AdminRepository].
func (repository *MongoAdminRepository) Create(ctx context.Context, admin *Admin) error {
	doc := adminDocument{
		ID:        primitive.NewObjectID(),
		Name:      admin.Name,
		Email:     admin.Email,
		Password:  admin.PasswordHash,
		Role:      string(admin.Role),
		CreatedAt: admin.CreatedAt,
	}

	if _, err := repository.collection.InsertOne(ctx, doc); err != nil {
		return dberr.Wrap(err, "insert admin")
	}

	admin.ID = doc.ID.Hex()
	return nil
}

// # Moderator Repository

// MongoModeratorRepository implements [ModeratorRepository] and [LedgerStore]
// on the "moderators" collection. The ledger lives in the refreshTokens array
// of each moderator document.
type MongoModeratorRepository struct {
	collection *mongo.Collection
}

// NewMongoModeratorRepository creates a repository bound to db.
func NewMongoModeratorRepository(db *mongo.Database) *MongoModeratorRepository {
	return &MongoModeratorRepository{collection: db.Collection(moderatorCollection)}
}

// EnsureIndexes creates the indexes the repository relies on.
func (repository *MongoModeratorRepository) EnsureIndexes(ctx context.Context) error {
	return ensureUniqueEmail(ctx, repository.collection)
}

// FindByID implements [ModeratorRepository].
func (repository *MongoModeratorRepository) FindByID(ctx context.Context, id string) (*Moderator, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return repository.findOne(ctx, bson.M{fieldID: oid})
}

// FindByEmail implements [ModeratorRepository].
func (repository *MongoModeratorRepository) FindByEmail(ctx context.Context, email string) (*Moderator, error) {
	return repository.findOne(ctx, bson.M{fieldEmail: email})
}

func (repository *MongoModeratorRepository) findOne(ctx context.Context, filter bson.M) (*Moderator, error) {
	var doc moderatorDocument
	projection := options.FindOne().SetProjection(bson.M{fieldRefreshTokens: 0})

	if err := repository.collection.FindOne(ctx, filter, projection).Decode(&doc); err != nil {
		return nil, dberr.Wrap(err, "find moderator")
	}
	return doc.toEntity(), nil
}

// Create implements [ModeratorRepository].
func (repository *MongoModeratorRepository) Create(ctx context.Context, moderator *Moderator) error {
	doc := moderatorDocument{
		ID:            primitive.NewObjectID(),
		Name:          moderator.Name,
		Email:         moderator.Email,
		Password:      moderator.PasswordHash,
		Role:          string(sec.RoleModerator),
		Status:        string(moderator.Status),
		RefreshTokens: []string{},
		CreatedAt:     moderator.CreatedAt,
	}

	if _, err := repository.collection.InsertOne(ctx, doc); err != nil {
		return dberr.Wrap(err, "insert moderator")
	}

	moderator.ID = doc.ID.Hex()
	return nil
}

// List implements [ModeratorRepository].
func (repository *MongoModeratorRepository) List(ctx context.Context, offset, limit int) ([]*Moderator, int, error) {
	total, err := repository.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, dberr.Wrap(err, "count moderators")
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: fieldCreatedAt, Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"password": 0, fieldRefreshTokens: 0})

	cursor, err := repository.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list moderators")
	}
	defer cursor.Close(ctx)

	docs := make([]moderatorDocument, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, dberr.Wrap(err, "decode moderators")
	}

	moderators := slice.Map(docs, func(doc moderatorDocument) *Moderator {
		return doc.toEntity()
	})

	return moderators, int(total), nil
}

// SetBanned implements [ModeratorRepository].
func (repository *MongoModeratorRepository) SetBanned(ctx context.Context, id string, bannedAt time.Time, reason string) error {
	return repository.updateOne(ctx, id, "ban moderator", bson.M{
		"$set": bson.M{
			fieldStatus:       string(sec.StatusBanned),
			fieldBannedAt:     bannedAt,
			fieldBannedReason: reason,
		},
	})
}

// ClearBanned implements [ModeratorRepository].
func (repository *MongoModeratorRepository) ClearBanned(ctx context.Context, id string) error {
	return repository.updateOne(ctx, id, "unban moderator", bson.M{
		"$set":   bson.M{fieldStatus: string(sec.StatusActive)},
		"$unset": bson.M{fieldBannedAt: "", fieldBannedReason: ""},
	})
}

// AddRefreshToken implements [LedgerStore] with a single $push.
func (repository *MongoModeratorRepository) AddRefreshToken(ctx context.Context, moderatorID, token string) error {
	return repository.updateOne(ctx, moderatorID, "add refresh token", bson.M{
		"$push": bson.M{fieldRefreshTokens: token},
	})
}

/*
RemoveRefreshToken implements [LedgerStore].

$pull would drop every copy of the token, so the first match is cut out with
an update pipeline instead. The document is rewritten server side in one
operation.
*/
func (repository *MongoModeratorRepository) RemoveRefreshToken(ctx context.Context, moderatorID, token string) error {
	tokens := "$" + fieldRefreshTokens
	index := bson.M{"$indexOfArray": bson.A{bson.M{"$ifNull": bson.A{tokens, bson.A{}}}, token}}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			fieldRefreshTokens: bson.M{"$let": bson.M{
				"vars": bson.M{"i": index},
				"in": bson.M{"$cond": bson.A{
					bson.M{"$lt": bson.A{"$$i", 0}},
					bson.M{"$ifNull": bson.A{tokens, bson.A{}}},
					bson.M{"$concatArrays": bson.A{
						bson.M{"$slice": bson.A{tokens, "$$i"}},
						bson.M{"$slice": bson.A{tokens, bson.M{"$add": bson.A{"$$i", 1}}, bson.M{"$size": tokens}}},
					}},
				}},
			}},
		}}},
	}

	return repository.updateOne(ctx, moderatorID, "remove refresh token", pipeline)
}

// ClearRefreshTokens implements [LedgerStore].
func (repository *MongoModeratorRepository) ClearRefreshTokens(ctx context.Context, moderatorID string) error {
	return repository.updateOne(ctx, moderatorID, "clear refresh tokens", bson.M{
		"$set": bson.M{fieldRefreshTokens: []string{}},
	})
}

// HasRefreshToken implements [LedgerStore]. The match runs in the query, so
// the token list never leaves the server.
func (repository *MongoModeratorRepository) HasRefreshToken(ctx context.Context, moderatorID, token string) (bool, error) {
	oid, err := objectID(moderatorID)
	if err != nil {
		return false, nil
	}

	filter := bson.M{fieldID: oid, fieldRefreshTokens: token}
	projection := options.FindOne().SetProjection(bson.M{fieldID: 1})

	err = repository.collection.FindOne(ctx, filter, projection).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, dberr.Wrap(err, "lookup refresh token")
	}
	return true, nil
}

func (repository *MongoModeratorRepository) updateOne(ctx context.Context, id, action string, update interface{}) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := repository.collection.UpdateOne(ctx, bson.M{fieldID: oid}, update)
	if err != nil {
		return dberr.Wrap(err, action)
	}
	if result.MatchedCount == 0 {
		return dberr.ErrNotFound
	}
	return nil
}
