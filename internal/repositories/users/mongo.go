package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/member-accounts-be/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// userDocument is the stored shape of a user.
type userDocument struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Username    string        `bson:"username"`
	Email       string        `bson:"useremail"`
	Password    string        `bson:"password"`
	IsMember    bool          `bson:"isMember"`
	Discount    float64       `bson:"discount"`
	AccessToken string        `bson:"accessToken"`
	CreatedAt   time.Time     `bson:"createdAt"`
}

func (d userDocument) model() models.User {
	return models.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		IsMember:     d.IsMember,
		Discount:     d.Discount,
		AccessToken:  d.AccessToken,
		CreatedAt:    d.CreatedAt,
	}
}

var _ Repository = (*MongoRepository)(nil)

// MongoRepository stores users as documents in one collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository creates a repository over coll. Unique indexes must
// already exist (see database.MigrateMongo).
func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

func (r *MongoRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	doc := userDocument{
		ID:          bson.NewObjectID(),
		Username:    user.Username,
		Email:       user.Email,
		Password:    user.PasswordHash,
		IsMember:    user.IsMember,
		Discount:    user.Discount,
		AccessToken: user.AccessToken,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return models.User{}, mongoWriteError(err)
	}
	return doc.model(), nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoRepository) GetByToken(ctx context.Context, token string) (models.User, error) {
	return r.findOne(ctx, bson.M{"accessToken": token})
}

func (r *MongoRepository) SetMembership(ctx context.Context, id string, discount float64) (models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, ErrNotFound
	}

	var doc userDocument
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"isMember": true, "discount": discount}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return doc.model(), nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return doc.model(), nil
}

// mongoWriteError maps a duplicate key error onto the field whose unique
// index rejected the write.
func mongoWriteError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "username_unique"):
		return fmt.Errorf("%w: %v", ErrDuplicateUsername, err)
	case strings.Contains(msg, "useremail_unique"):
		return fmt.Errorf("%w: %v", ErrDuplicateEmail, err)
	case strings.Contains(msg, "accessToken_unique"):
		return fmt.Errorf("%w: %v", ErrDuplicateToken, err)
	default:
		return err
	}
}
