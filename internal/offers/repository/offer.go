package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	offerserrors "bookstay/internal/offers/errors"
	"bookstay/pkg/config"
	mongotx "bookstay/pkg/db/mongo"
	"bookstay/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Offers"
)

type mongoOfferRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type OfferRepository interface {
	Create(ctx context.Context, offer *model.Offer) error
	FindByID(ctx context.Context, id string) (*model.Offer, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Offer, error)
	FindByHotelAndCity(ctx context.Context, hotelName string, city string) ([]*model.Offer, error)
	SearchByCity(ctx context.Context, city string) ([]*model.Offer, error)
	Update(ctx context.Context, id string, offer *model.Offer) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoOfferRepository(cfg *config.Config) OfferRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoOfferRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

func (r *mongoOfferRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoOfferRepository) Create(ctx context.Context, offer *model.Offer) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	offer.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, offer)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		offer.ID = oid.Hex()
	}
	return nil
}

func (r *mongoOfferRepository) FindByID(ctx context.Context, id string) (*model.Offer, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", offerserrors.ErrInvalidID, id)
	}

	var offer model.Offer
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&offer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, offerserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find offer: %w", err)
	}

	return &offer, nil
}

func (r *mongoOfferRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Offer, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "hotel_name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find offers: %w", err)
	}
	defer cursor.Close(ctx)

	var offers []*model.Offer
	if err = cursor.All(ctx, &offers); err != nil {
		return nil, fmt.Errorf("failed to decode offers: %w", err)
	}

	return offers, nil
}

func (r *mongoOfferRepository) FindByHotelAndCity(ctx context.Context, hotelName string, city string) ([]*model.Offer, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"hotel_name": hotelName,
		"city":       city,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find offers by hotel and city: %w", err)
	}
	defer cursor.Close(ctx)

	var offers []*model.Offer
	if err = cursor.All(ctx, &offers); err != nil {
		return nil, fmt.Errorf("failed to decode offers: %w", err)
	}

	return offers, nil
}

func (r *mongoOfferRepository) SearchByCity(ctx context.Context, city string) ([]*model.Offer, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "price_per_night", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"city": city}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search offers: %w", err)
	}
	defer cursor.Close(ctx)

	var offers []*model.Offer
	if err = cursor.All(ctx, &offers); err != nil {
		return nil, fmt.Errorf("failed to decode offers: %w", err)
	}

	return offers, nil
}

func (r *mongoOfferRepository) Update(ctx context.Context, id string, offer *model.Offer) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", offerserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"hotel_name":      offer.HotelName,
			"room_label":      offer.RoomLabel,
			"city":            offer.City,
			"price_per_night": offer.PricePerNight,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, offerserrors.ErrNotFound
	}

	return result, nil
}

func (r *mongoOfferRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", offerserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}

	if result.DeletedCount == 0 {
		return offerserrors.ErrNotFound
	}

	return nil
}

func (r *mongoOfferRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count offers: %w", err)
	}

	return count, nil
}

func (r *mongoOfferRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
