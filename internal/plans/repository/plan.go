package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	planserrors "labbook/internal/plans/errors"
	"labbook/pkg/config"
	"labbook/pkg/model"
)

const (
	CollectionName = "Plans"
)

// PlanRepository reads teaching plans so reservations can link to them.
// Plans are authored elsewhere; this service only ever reads.
type PlanRepository interface {
	FindByID(ctx context.Context, id string) (*model.Plan, error)
	FindByAuthor(ctx context.Context, authorID string, limit int, offset int64) ([]*model.Plan, error)
}

type mongoPlanRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPlanRepository(cfg *config.Config) PlanRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPlanRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoPlanRepository) FindByID(ctx context.Context, id string) (*model.Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", planserrors.ErrInvalidID, id)
	}

	var plan model.Plan
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, planserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find plan: %w", err)
	}

	return &plan, nil
}

func (r *mongoPlanRepository) FindByAuthor(ctx context.Context, authorID string, limit int, offset int64) ([]*model.Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"author_id": authorID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find plans by author: %w", err)
	}
	defer cursor.Close(ctx)

	var plans []*model.Plan
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, fmt.Errorf("failed to decode plans: %w", err)
	}

	return plans, nil
}
