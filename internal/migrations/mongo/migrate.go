// Package mongo provisions the MongoDB collections, schema validators and
// indexes the services rely on. Running it repeatedly is safe: existing
// collections and indexes are left in place.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"labbook/pkg/config"
)

const (
	labsCollection          = "Labs"
	reservationsCollection  = "Reservations"
	statusHistoryCollection = "Reservation_status_hist"
	labLocksCollection      = "Lab_locks"
	plansCollection         = "Plans"
)

type Migrator struct {
	cfg *config.Config
	db  *mongo.Database
}

func NewMigrator(cfg *config.Config) *Migrator {
	return &Migrator{
		cfg: cfg,
		db:  cfg.Client.Mongo.Database(cfg.MongoDatabaseName),
	}
}

func (m *Migrator) Run(ctx context.Context) error {
	collections := []struct {
		name   string
		schema bson.M
	}{
		{labsCollection, labSchema()},
		{reservationsCollection, reservationSchema()},
		{statusHistoryCollection, statusHistorySchema()},
		{labLocksCollection, labLockSchema()},
		{plansCollection, planSchema()},
	}

	for _, c := range collections {
		if err := m.ensureCollection(ctx, c.name, c.schema); err != nil {
			return fmt.Errorf("collection %s: %w", c.name, err)
		}
	}

	if err := m.ensureIndexes(ctx); err != nil {
		return err
	}

	m.cfg.Log.Info("Migrations completed", "database", m.cfg.MongoDatabaseName)
	return nil
}

func (m *Migrator) ensureCollection(ctx context.Context, name string, schema bson.M) error {
	opts := options.CreateCollection().SetValidator(schema)

	err := m.db.CreateCollection(ctx, name, opts)
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists" {
			m.cfg.Log.Info("Collection already exists, skipping", "collection", name)
			return nil
		}
		return err
	}

	m.cfg.Log.Info("Collection created", "collection", name)
	return nil
}

func (m *Migrator) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		labsCollection: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_lab_name"),
			},
		},
		reservationsCollection: {
			{
				Keys: bson.D{
					{Key: "lab_id", Value: 1},
					{Key: "start_time", Value: 1},
					{Key: "end_time", Value: 1},
				},
				Options: options.Index().SetName("lab_window"),
			},
			{
				Keys: bson.D{
					{Key: "requester_id", Value: 1},
					{Key: "created_at", Value: -1},
				},
				Options: options.Index().SetName("requester_recent"),
			},
			{
				Keys: bson.D{
					{Key: "status", Value: 1},
					{Key: "created_at", Value: -1},
				},
				Options: options.Index().SetName("status_recent"),
			},
		},
		statusHistoryCollection: {
			{
				Keys: bson.D{
					{Key: "reservation_id", Value: 1},
					{Key: "occurred_at", Value: 1},
				},
				Options: options.Index().SetName("reservation_timeline"),
			},
		},
		labLocksCollection: {
			{
				// Stale locks from crashed processes expire server-side.
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0).SetName("lock_ttl"),
			},
		},
		plansCollection: {
			{
				Keys: bson.D{
					{Key: "author_id", Value: 1},
					{Key: "created_at", Value: -1},
				},
				Options: options.Index().SetName("author_recent"),
			},
		},
	}

	for collection, models := range indexes {
		names, err := m.db.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("indexes for %s: %w", collection, err)
		}
		m.cfg.Log.Info("Indexes ensured", "collection", collection, "indexes", names)
	}

	return nil
}
