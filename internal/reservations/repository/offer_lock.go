package repository

import (
	"context"
	"time"

	"bookstay/pkg/config"
	"bookstay/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// OfferLockRepository provides operations for advisory locks
type OfferLockRepository interface {
	Create(ctx context.Context, lock *model.OfferLock) (*model.OfferLock, error)
	Delete(ctx context.Context, lockID string) error
}

type mongoOfferLockRepository struct {
	collection *mongo.Collection
}

func NewOfferLockRepository(cfg *config.Config) OfferLockRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoOfferLockRepository{
		collection: db.Collection("Offer_locks"),
	}
}

// Returns duplicate key error if lock already exists
func (r *mongoOfferLockRepository) Create(ctx context.Context, lock *model.OfferLock) (*model.OfferLock, error) {
	lock.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return nil, err
	}

	return lock, nil
}

// Delete removes an advisory lock
func (r *mongoOfferLockRepository) Delete(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
