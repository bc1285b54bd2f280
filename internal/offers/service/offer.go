package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	offerserrors "bookstay/internal/offers/errors"
	"bookstay/internal/offers/repository"
	"bookstay/internal/offers/validator"
	"bookstay/pkg/config"
	apperrors "bookstay/pkg/errors"
	"bookstay/pkg/model"
	"bookstay/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type OfferService interface {
	Create(ctx context.Context, offer *model.Offer) error
	GetByID(ctx context.Context, id string) (*model.Offer, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Offer, int64, error)
	Update(ctx context.Context, id string, updates *model.OfferUpdate) error
	Delete(ctx context.Context, id string) error
	SearchByCity(ctx context.Context, city string) ([]*model.Offer, error)
}

type offerService struct {
	repo      repository.OfferRepository
	validator *validator.OfferValidator
	cfg       *config.Config
}

func NewOfferService(
	repo repository.OfferRepository,
	validator *validator.OfferValidator,
	cfg *config.Config,
) OfferService {
	return &offerService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *offerService) Create(ctx context.Context, offer *model.Offer) error {
	s.sanitize(offer)

	if err := s.validator.Validate(offer); err != nil {
		s.cfg.Log.Warn("Offer validation failed",
			"hotel_name", offer.HotelName,
			"city", offer.City,
			"error", err,
		)
		return apperrors.Validation("Offer validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.FindByHotelAndCity(sessCtx, offer.HotelName, offer.City)
		if err != nil {
			return fmt.Errorf("failed to check for duplicates: %w", err)
		}

		for _, existingOffer := range existing {
			if existingOffer.RoomLabel == offer.RoomLabel {
				return apperrors.Conflict(fmt.Sprintf(
					"Offer for this room already exists (id: %s)",
					existingOffer.ID,
				))
			}
		}

		if err := s.repo.Create(sessCtx, offer); err != nil {
			return fmt.Errorf("failed to create offer: %w", err)
		}

		return nil
	})

	if err != nil {
		s.cfg.Log.Error("Failed to create offer",
			"hotel_name", offer.HotelName,
			"city", offer.City,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Offer created successfully",
		"id", offer.ID,
		"hotel_name", offer.HotelName,
		"room_label", offer.RoomLabel,
		"city", offer.City,
	)

	return nil
}

func (s *offerService) GetByID(ctx context.Context, id string) (*model.Offer, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Offer ID cannot be empty")
	}

	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, offerserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Offer", id)
		}
		if errors.Is(err, offerserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid offer ID format")
		}
		s.cfg.Log.Error("Failed to get offer by ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve offer", err)
	}

	return offer, nil
}

func (s *offerService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Offer, int64, error) {
	var count int64
	var offers []*model.Offer
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count offers", "error", errCount)
			errCount = apperrors.Internal("Failed to count offers", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		offers, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list offers", "limit", limit, "offset", offset, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve offers", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return offers, count, nil
}

func (s *offerService) Update(ctx context.Context, id string, updates *model.OfferUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Offer ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, offerserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Offer", id)
		}
		if errors.Is(err, offerserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid offer ID format")
		}
		return apperrors.Internal("Failed to check offer existence", err)
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Offer update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeOfferUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validator.Validate(merged); err != nil {
		return apperrors.Validation("Offer validation failed", map[string]any{"error": err.Error()})
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		s.cfg.Log.Error("Failed to update offer", "id", id, "error", err)
		return apperrors.Internal("Failed to update offer", err)
	}

	s.cfg.Log.Info("Offer updated successfully", "id", id)
	return nil
}

func (s *offerService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Offer ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, offerserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Offer", id)
		}
		if errors.Is(err, offerserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid offer ID format")
		}
		s.cfg.Log.Error("Failed to delete offer", "id", id, "error", err)
		return apperrors.Internal("Failed to delete offer", err)
	}

	s.cfg.Log.Info("Offer deleted successfully", "id", id)
	return nil
}

func (s *offerService) SearchByCity(ctx context.Context, city string) ([]*model.Offer, error) {
	if city == "" {
		return nil, apperrors.InvalidInput("City cannot be empty")
	}

	normalized := sanitizer.SanitizeCityOrLabel(city)
	if normalized == "" {
		return nil, apperrors.InvalidInput("City resulted in no valid value after normalization")
	}

	offers, err := s.repo.SearchByCity(ctx, normalized)
	if err != nil {
		s.cfg.Log.Error("Failed to search offers", "city", normalized, "error", err)
		return nil, apperrors.Internal("Failed to search offers", err)
	}

	s.cfg.Log.Debug("Offer search completed", "city", normalized, "results_count", len(offers))
	return offers, nil
}

func (s *offerService) sanitize(offer *model.Offer) {
	offer.HotelName = sanitizer.NormalizeHotelName(offer.HotelName)
	offer.RoomLabel = sanitizer.SanitizeCityOrLabel(offer.RoomLabel)
	offer.City = sanitizer.SanitizeCityOrLabel(offer.City)
}

func (s *offerService) mergeOfferUpdates(existing *model.Offer, updates *model.OfferUpdate) *model.Offer {
	merged := *existing

	if updates.HotelName != "" {
		merged.HotelName = updates.HotelName
	}
	if updates.RoomLabel != "" {
		merged.RoomLabel = updates.RoomLabel
	}
	if updates.City != "" {
		merged.City = updates.City
	}
	if updates.PricePerNight != nil {
		merged.PricePerNight = *updates.PricePerNight
	}

	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt

	return &merged
}
