package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	labserrors "labbook/internal/labs/errors"
	"labbook/pkg/config"
	"labbook/pkg/model"
)

const (
	CollectionName = "Labs"

	// Reservation data lives in the booking domain; the lab repository
	// only counts rows there to guard deletion.
	reservationsCollectionName = "Reservations"
)

type LabRepository interface {
	Create(ctx context.Context, lab *model.Lab) error
	FindByID(ctx context.Context, id string) (*model.Lab, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	FindAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.Lab, error)
	CountAll(ctx context.Context, activeOnly bool) (int64, error)
	Update(ctx context.Context, id string, lab *model.Lab) error
	Delete(ctx context.Context, id string) error
	CountReservations(ctx context.Context, labID string) (int64, error)
}

type mongoLabRepository struct {
	cfg          *config.Config
	collection   *mongo.Collection
	reservations *mongo.Collection
}

func NewMongoLabRepository(cfg *config.Config) LabRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLabRepository{
		cfg:          cfg,
		collection:   db.Collection(CollectionName),
		reservations: db.Collection(reservationsCollectionName),
	}
}

func (r *mongoLabRepository) Create(ctx context.Context, lab *model.Lab) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, lab)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", labserrors.ErrDuplicateName, lab.Name)
		}
		return fmt.Errorf("failed to create lab: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		lab.ID = oid.Hex()
	}
	return nil
}

func (r *mongoLabRepository) FindByID(ctx context.Context, id string) (*model.Lab, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", labserrors.ErrInvalidID, id)
	}

	var lab model.Lab
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&lab)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, labserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find lab: %w", err)
	}

	return &lab, nil
}

func (r *mongoLabRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"name": name})
	if err != nil {
		return false, fmt.Errorf("failed to check lab name: %w", err)
	}
	return count > 0, nil
}

func (r *mongoLabRepository) FindAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.Lab, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, activeFilter(activeOnly), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find labs: %w", err)
	}
	defer cursor.Close(ctx)

	var labs []*model.Lab
	if err = cursor.All(ctx, &labs); err != nil {
		return nil, fmt.Errorf("failed to decode labs: %w", err)
	}

	return labs, nil
}

func (r *mongoLabRepository) CountAll(ctx context.Context, activeOnly bool) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, activeFilter(activeOnly))
	if err != nil {
		return 0, fmt.Errorf("failed to count labs: %w", err)
	}
	return count, nil
}

func (r *mongoLabRepository) Update(ctx context.Context, id string, lab *model.Lab) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", labserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":            lab.Name,
			"capacity":        lab.Capacity,
			"equipment_count": lab.EquipmentCount,
			"active":          lab.Active,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", labserrors.ErrDuplicateName, lab.Name)
		}
		return fmt.Errorf("failed to update lab: %w", err)
	}

	if result.MatchedCount == 0 {
		return labserrors.ErrNotFound
	}
	return nil
}

func (r *mongoLabRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", labserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete lab: %w", err)
	}

	if result.DeletedCount == 0 {
		return labserrors.ErrNotFound
	}
	return nil
}

// CountReservations counts in-flight reservations on the lab. Rejected and
// cancelled rows do not block deletion.
func (r *mongoLabRepository) CountReservations(ctx context.Context, labID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"lab_id": labID,
		"status": bson.M{"$in": model.InFlightStatuses()},
	}

	count, err := r.reservations.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count lab reservations: %w", err)
	}
	return count, nil
}

func activeFilter(activeOnly bool) bson.M {
	if !activeOnly {
		return bson.M{}
	}
	return bson.M{"active": true}
}
