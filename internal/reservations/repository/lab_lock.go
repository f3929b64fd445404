package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"labbook/pkg/config"
	"labbook/pkg/model"
)

const (
	LockCollectionName = "Lab_locks"
)

// LabLockRepository provides the per-lab advisory lock. Insertion into the
// lock collection is the acquire; a duplicate key error means the lab is
// busy. A TTL index on expires_at reaps locks left behind by crashes.
type LabLockRepository interface {
	Create(ctx context.Context, lock *model.LabLock) (*model.LabLock, error)
	Delete(ctx context.Context, lockID string) error
}

type mongoLabLockRepository struct {
	collection *mongo.Collection
}

func NewLabLockRepository(cfg *config.Config) LabLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLabLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

// Create returns the driver's duplicate key error untouched when the lock
// already exists; the service layer inspects it.
func (r *mongoLabLockRepository) Create(ctx context.Context, lock *model.LabLock) (*model.LabLock, error) {
	lock.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return nil, err
	}

	return lock, nil
}

func (r *mongoLabLockRepository) Delete(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
