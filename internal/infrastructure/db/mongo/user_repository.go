package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/adamchat/account-service/internal/core/domain"
)

// UserRepository implements ports.UserRepository. Uniqueness of email and
// username comes from the indexes created by EnsureIndexes.
type UserRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewUserRepository(db *mongo.Database, timeout time.Duration) *UserRepository {
	return &UserRepository{coll: db.Collection(collectionUsers), timeout: timeoutOrDefault(timeout)}
}

type mongoUser struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Username          string             `bson:"username"`
	Email             string             `bson:"email"`
	Name              string             `bson:"name,omitempty"`
	PasswordHash      string             `bson:"password_hash"`
	PasswordSalt      string             `bson:"password_salt"`
	Active            bool               `bson:"active"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
	PasswordChangedAt time.Time          `bson:"password_changed_at"`
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := mongoUser{
		Username:          user.Username,
		Email:             domain.NormalizeEmail(user.Email),
		Name:              user.Name,
		PasswordHash:      user.PasswordHash,
		PasswordSalt:      user.PasswordSalt,
		Active:            user.Active,
		CreatedAt:         user.CreatedAt.UTC(),
		UpdatedAt:         user.UpdatedAt.UTC(),
		PasswordChangedAt: user.PasswordChangedAt.UTC(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, storeErr("insert user", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash, salt string, changedAt time.Time) error {
	changedAt = changedAt.UTC()
	return r.update(ctx, id, bson.M{
		"password_hash":       hash,
		"password_salt":       salt,
		"updated_at":          changedAt,
		"password_changed_at": changedAt,
	})
}

func (r *UserRepository) ReplaceHash(ctx context.Context, id, hash, salt string) error {
	return r.update(ctx, id, bson.M{
		"password_hash": hash,
		"password_salt": salt,
	})
}

func (r *UserRepository) update(ctx context.Context, id string, set bson.M) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return storeErr("update user", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeErr("find user", err)
	}
	return mu.toDomain(), nil
}

func (mu *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:                mu.ID.Hex(),
		Username:          mu.Username,
		Email:             mu.Email,
		Name:              mu.Name,
		PasswordHash:      mu.PasswordHash,
		PasswordSalt:      mu.PasswordSalt,
		Active:            mu.Active,
		CreatedAt:         mu.CreatedAt.UTC(),
		UpdatedAt:         mu.UpdatedAt.UTC(),
		PasswordChangedAt: mu.PasswordChangedAt.UTC(),
	}
}
