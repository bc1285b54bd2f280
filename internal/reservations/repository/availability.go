package repository

import (
	"context"
	"fmt"
	"time"

	reservationserrors "bookstay/internal/reservations/errors"
	"bookstay/pkg/config"
	"bookstay/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	AvailabilityCollectionName = "Availability"
)

type mongoAvailabilityRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

// AvailabilityRepository manages the per-offer ledger of committed date
// ranges. Entries are created and removed inside the same transaction as the
// reservation they witness.
type AvailabilityRepository interface {
	Create(ctx context.Context, entry *model.Availability) error
	FindByOffer(ctx context.Context, offerID string) ([]*model.Availability, error)
	DeleteByOfferAndRange(ctx context.Context, offerID string, dateFrom string, dateUntil string) error
}

func NewMongoAvailabilityRepository(cfg *config.Config) AvailabilityRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoAvailabilityRepository{
		cfg:        cfg,
		collection: db.Collection(AvailabilityCollectionName),
	}
}

func (r *mongoAvailabilityRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoAvailabilityRepository) Create(ctx context.Context, entry *model.Availability) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	entry.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to create availability entry: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAvailabilityRepository) FindByOffer(ctx context.Context, offerID string) ([]*model.Availability, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date_from", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"offer_id": offerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find availability entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.Availability
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode availability entries: %w", err)
	}

	return entries, nil
}

// DeleteByOfferAndRange removes the single ledger entry matching the exact
// offer and date pair. Exactly one entry exists per committed reservation.
func (r *mongoAvailabilityRepository) DeleteByOfferAndRange(ctx context.Context, offerID string, dateFrom string, dateUntil string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"offer_id":   offerID,
		"date_from":  dateFrom,
		"date_until": dateUntil,
	}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete availability entry: %w", err)
	}

	if result.DeletedCount == 0 {
		return reservationserrors.ErrLedgerEntryNotFound
	}

	return nil
}
