package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adamchat/account-service/internal/core/domain"
)

// ResetCodeRepository implements ports.ResetCodeRepository.
type ResetCodeRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewResetCodeRepository(db *mongo.Database, timeout time.Duration) *ResetCodeRepository {
	return &ResetCodeRepository{coll: db.Collection(collectionResetCodes), timeout: timeoutOrDefault(timeout)}
}

type mongoResetCode struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	Code      string             `bson:"code"`
	CreatedAt time.Time          `bson:"created_at"`
	ExpiresAt time.Time          `bson:"expires_at"`
	Used      bool               `bson:"used"`
	UsedAt    *time.Time         `bson:"used_at,omitempty"`
}

func (d *mongoResetCode) toDomain() *domain.ResetCode {
	return &domain.ResetCode{
		Email:     d.Email,
		Code:      d.Code,
		CreatedAt: d.CreatedAt.UTC(),
		ExpiresAt: d.ExpiresAt.UTC(),
		Used:      d.Used,
	}
}

func (r *ResetCodeRepository) DeleteAllForEmail(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.coll.DeleteMany(ctx, bson.M{"email": domain.NormalizeEmail(email)}); err != nil {
		return storeErr("delete reset codes", err)
	}
	return nil
}

func (r *ResetCodeRepository) Insert(ctx context.Context, code *domain.ResetCode) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, mongoResetCode{
		Email:     domain.NormalizeEmail(code.Email),
		Code:      code.Code,
		CreatedAt: code.CreatedAt.UTC(),
		ExpiresAt: code.ExpiresAt.UTC(),
		Used:      code.Used,
	})
	if err != nil {
		return storeErr("insert reset code", err)
	}
	return nil
}

// FindActive only ever considers the newest row for email. Two overlapping
// Generate calls can both survive the delete step; the later insert wins.
func (r *ResetCodeRepository) FindActive(ctx context.Context, email, code string, now time.Time) (*domain.ResetCode, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc, err := r.latestActive(ctx, email, code, now)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// MarkUsed claims the newest row for email by _id with a conditional update,
// which makes redemption a compare-and-set.
func (r *ResetCodeRepository) MarkUsed(ctx context.Context, email, code string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc, err := r.latestActive(ctx, email, code, now)
	if err != nil {
		return err
	}

	filter := bson.M{
		"_id":        doc.ID,
		"used":       false,
		"expires_at": bson.M{"$gt": now.UTC()},
	}
	update := bson.M{"$set": bson.M{"used": true, "used_at": now.UTC()}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return storeErr("mark reset code used", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCodeInvalidOrExpired
	}
	return nil
}

func (r *ResetCodeRepository) latestActive(ctx context.Context, email, code string, now time.Time) (*mongoResetCode, error) {
	opts := options.FindOne().SetSort(latestCodeSort())

	var doc mongoResetCode
	err := r.coll.FindOne(ctx, bson.M{"email": domain.NormalizeEmail(email)}, opts).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrCodeInvalidOrExpired
		}
		return nil, storeErr("find reset code", err)
	}

	if doc.Code != code || !doc.toDomain().Active(now) {
		return nil, domain.ErrCodeInvalidOrExpired
	}
	return &doc, nil
}

// latestCodeSort orders a lineage newest first. ObjectIDs break ties between
// codes created in the same instant.
func latestCodeSort() bson.D {
	return bson.D{
		{Key: "email", Value: 1},
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	}
}
