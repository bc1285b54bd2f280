package validator

import (
	"testing"
	"time"

	"bookstay/pkg/logger"
	"bookstay/pkg/model"
)

func newTestValidator() *ReservationValidator {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewReservationValidator(log)
}

func TestValidateRequest(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		req     model.ReservationRequest
		wantErr bool
	}{
		{
			name: "valid request",
			req: model.ReservationRequest{
				OfferID:   "507f1f77bcf86cd799439011",
				DateFrom:  "04.10.2024",
				DateUntil: "04.15.2024",
			},
			wantErr: false,
		},
		{
			name: "reversed range is accepted",
			req: model.ReservationRequest{
				OfferID:   "507f1f77bcf86cd799439011",
				DateFrom:  "04.15.2024",
				DateUntil: "04.10.2024",
			},
			wantErr: false,
		},
		{
			name: "single day stay",
			req: model.ReservationRequest{
				OfferID:   "507f1f77bcf86cd799439011",
				DateFrom:  "04.10.2024",
				DateUntil: "04.10.2024",
			},
			wantErr: false,
		},
		{
			name: "missing offer",
			req: model.ReservationRequest{
				DateFrom:  "04.10.2024",
				DateUntil: "04.15.2024",
			},
			wantErr: true,
		},
		{
			name: "malformed offer id",
			req: model.ReservationRequest{
				OfferID:   "not-an-object-id",
				DateFrom:  "04.10.2024",
				DateUntil: "04.15.2024",
			},
			wantErr: true,
		},
		{
			name: "iso date format rejected",
			req: model.ReservationRequest{
				OfferID:   "507f1f77bcf86cd799439011",
				DateFrom:  "2024-04-10",
				DateUntil: "04.15.2024",
			},
			wantErr: true,
		},
		{
			name: "day month swapped out of range",
			req: model.ReservationRequest{
				OfferID:   "507f1f77bcf86cd799439011",
				DateFrom:  "15.04.2024",
				DateUntil: "04.15.2024",
			},
			wantErr: true,
		},
		{
			name: "missing dates",
			req: model.ReservationRequest{
				OfferID: "507f1f77bcf86cd799439011",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRequest(&tt.req)
			if tt.wantErr && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidationErrors_HasDateFormatError(t *testing.T) {
	v := newTestValidator()

	err := v.ValidateRequest(&model.ReservationRequest{
		OfferID:   "507f1f77bcf86cd799439011",
		DateFrom:  "2024-04-10",
		DateUntil: "04.15.2024",
	})
	vErrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if !vErrs.HasDateFormatError() {
		t.Errorf("unparseable date must be flagged as a date format error: %v", vErrs)
	}

	err = v.ValidateRequest(&model.ReservationRequest{
		DateFrom:  "04.10.2024",
		DateUntil: "04.15.2024",
	})
	vErrs, ok = err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if vErrs.HasDateFormatError() {
		t.Errorf("a missing offer is not a date format error: %v", vErrs)
	}
}

func TestValidate_StateConsistency(t *testing.T) {
	v := newTestValidator()

	base := model.Reservation{
		OfferID:   "507f1f77bcf86cd799439011",
		GuestID:   "guest-42",
		DateFrom:  "04.10.2024",
		DateUntil: "04.15.2024",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}

	tests := []struct {
		name    string
		status  string
		payment string
		wantErr bool
	}{
		{"pending with pending payment", model.ReservationPending, model.PaymentPending, false},
		{"confirmed with paid payment", model.ReservationConfirmed, model.PaymentPaid, false},
		{"cancelled with failed payment", model.ReservationCancelled, model.PaymentFailed, false},
		{"cancelled with pending payment", model.ReservationCancelled, model.PaymentPending, false},
		{"pending with paid payment", model.ReservationPending, model.PaymentPaid, true},
		{"confirmed with pending payment", model.ReservationConfirmed, model.PaymentPending, true},
		{"unknown status", "archived", model.PaymentPending, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			r.Status = tt.status
			r.Payment = model.Payment{Status: tt.payment}

			err := v.Validate(&r)
			if tt.wantErr && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
