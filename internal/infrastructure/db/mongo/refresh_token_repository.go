package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/adamchat/account-service/internal/core/domain"
)

// RefreshTokenRepository implements ports.RefreshTokenRepository.
type RefreshTokenRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewRefreshTokenRepository(db *mongo.Database, timeout time.Duration) *RefreshTokenRepository {
	return &RefreshTokenRepository{coll: db.Collection(collectionRefreshTokens), timeout: timeoutOrDefault(timeout)}
}

type mongoRefreshToken struct {
	TokenHash string             `bson:"token_hash"`
	UserID    primitive.ObjectID `bson:"user_id"`
	IssuedAt  time.Time          `bson:"issued_at"`
	ExpiresAt time.Time          `bson:"expires_at"`
}

func (r *RefreshTokenRepository) Insert(ctx context.Context, token *domain.RefreshToken) error {
	uid, ok := objectID(token.UserID)
	if !ok {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, mongoRefreshToken{
		TokenHash: token.TokenHash,
		UserID:    uid,
		IssuedAt:  token.IssuedAt.UTC(),
		ExpiresAt: token.ExpiresAt.UTC(),
	})
	if err != nil {
		return storeErr("insert refresh token", err)
	}
	return nil
}

// ConsumeIfValid is a single findAndModify: the lookup and the delete cannot
// interleave with another caller's.
func (r *RefreshTokenRepository) ConsumeIfValid(ctx context.Context, tokenHash string, now time.Time) (*domain.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{
		"token_hash": tokenHash,
		"expires_at": bson.M{"$gt": now.UTC()},
	}

	var doc mongoRefreshToken
	if err := r.coll.FindOneAndDelete(ctx, filter).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, storeErr("consume refresh token", err)
	}

	return &domain.RefreshToken{
		TokenHash: doc.TokenHash,
		UserID:    doc.UserID.Hex(),
		IssuedAt:  doc.IssuedAt.UTC(),
		ExpiresAt: doc.ExpiresAt.UTC(),
	}, nil
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, tokenHash, userID string) (bool, error) {
	uid, ok := objectID(userID)
	if !ok {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"token_hash": tokenHash, "user_id": uid})
	if err != nil {
		return false, storeErr("delete refresh token", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *RefreshTokenRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	uid, ok := objectID(userID)
	if !ok {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"user_id": uid})
	if err != nil {
		return 0, storeErr("delete user refresh tokens", err)
	}
	return res.DeletedCount, nil
}
