package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"labbook/pkg/config"
	"labbook/pkg/model"
)

const (
	HistoryCollectionName = "Reservation_status_hist"
)

// StatusHistoryRepository is the append-only audit trail store. Records are
// inserted inside the same transaction as the status change they describe
// and are never updated or deleted.
type StatusHistoryRepository interface {
	Append(ctx context.Context, record *model.StatusRecord) error
	ListByReservation(ctx context.Context, reservationID string) ([]*model.StatusRecord, error)
}

type mongoStatusHistoryRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewStatusHistoryRepository(cfg *config.Config) StatusHistoryRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoStatusHistoryRepository{
		cfg:        cfg,
		collection: db.Collection(HistoryCollectionName),
	}
}

func (r *mongoStatusHistoryRepository) Append(ctx context.Context, record *model.StatusRecord) error {
	if record.FromStatus == record.ToStatus {
		return fmt.Errorf("status record must change status, got %s twice", record.FromStatus)
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to append status record: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid.Hex()
	}
	return nil
}

func (r *mongoStatusHistoryRepository) ListByReservation(ctx context.Context, reservationID string) ([]*model.StatusRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"reservation_id": reservationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find status records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*model.StatusRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode status records: %w", err)
	}

	return records, nil
}
