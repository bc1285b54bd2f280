package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "bookstay/pkg/errors"
	httputil "bookstay/pkg/http"
	"bookstay/pkg/logger"
	"bookstay/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// Mock service for testing
type mockReservationService struct {
	createFunc          func(ctx context.Context, guestID string, req *model.ReservationRequest) (*model.Reservation, error)
	simulatePaymentFunc func(ctx context.Context, guestID string, id string) (*model.Reservation, error)
	cancelFunc          func(ctx context.Context, guestID string, id string) error
}

func (m *mockReservationService) Create(ctx context.Context, guestID string, req *model.ReservationRequest) (*model.Reservation, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, guestID, req)
	}
	return &model.Reservation{}, nil
}

func (m *mockReservationService) GetByID(ctx context.Context, guestID string, id string) (*model.Reservation, error) {
	return nil, nil
}

func (m *mockReservationService) ListByGuest(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	return []*model.Reservation{}, 0, nil
}

func (m *mockReservationService) Cancel(ctx context.Context, guestID string, id string) error {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, guestID, id)
	}
	return nil
}

func (m *mockReservationService) SimulatePayment(ctx context.Context, guestID string, id string) (*model.Reservation, error) {
	if m.simulatePaymentFunc != nil {
		return m.simulatePaymentFunc(ctx, guestID, id)
	}
	return &model.Reservation{}, nil
}

func (m *mockReservationService) PaymentStatus(ctx context.Context, guestID string, id string) (*model.Reservation, error) {
	return &model.Reservation{}, nil
}

func (m *mockReservationService) ReclaimExpired(ctx context.Context) (int, error) {
	return 0, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func TestCreate_MissingGuestHeader(t *testing.T) {
	handler := NewReservationHandler(&mockReservationService{}, testLogger())

	body := `{"offer_id":"507f1f77bcf86cd799439011","date_from":"04.10.2024","date_until":"04.15.2024"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestCreate_PassesGuestFromHeader(t *testing.T) {
	var receivedGuest string
	mockService := &mockReservationService{
		createFunc: func(ctx context.Context, guestID string, req *model.ReservationRequest) (*model.Reservation, error) {
			receivedGuest = guestID
			return &model.Reservation{ID: "64a0f2c3b1d4e5f678901234", GuestID: guestID}, nil
		},
	}
	handler := NewReservationHandler(mockService, testLogger())

	body := `{"offer_id":"507f1f77bcf86cd799439011","date_from":"04.10.2024","date_until":"04.15.2024"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
	req.Header.Set(httputil.GuestIDHeader, "guest-42")
	rec := httptest.NewRecorder()

	handler.Create(rec, req, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if receivedGuest != "guest-42" {
		t.Errorf("expected guest from header, got %q", receivedGuest)
	}

	var resp struct {
		Data model.Reservation `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.GuestID != "guest-42" {
		t.Errorf("response guest mismatch: %q", resp.Data.GuestID)
	}
}

func TestCreate_InvalidBody(t *testing.T) {
	handler := NewReservationHandler(&mockReservationService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader("{not json"))
	req.Header.Set(httputil.GuestIDHeader, "guest-42")
	rec := httptest.NewRecorder()

	handler.Create(rec, req, nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSimulatePayment_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"expired holding window", apperrors.Expired("Reservation holding window has elapsed"), http.StatusGone},
		{"already paid", apperrors.InvalidState("Payment has already been completed or failed"), http.StatusBadRequest},
		{"foreign reservation", apperrors.NotFoundWithID("Reservation", "x"), http.StatusNotFound},
		{"offer contention", apperrors.Conflict("This offer is currently being booked by another request. Please try again."), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mockReservationService{
				simulatePaymentFunc: func(ctx context.Context, guestID string, id string) (*model.Reservation, error) {
					return nil, tt.err
				},
			}
			handler := NewReservationHandler(mockService, testLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/id/x/payment", nil)
			req.Header.Set(httputil.GuestIDHeader, "guest-42")
			rec := httptest.NewRecorder()

			handler.SimulatePayment(rec, req, httprouter.Params{{Key: "id", Value: "x"}})

			if rec.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}

func TestCancel_NoContent(t *testing.T) {
	handler := NewReservationHandler(&mockReservationService{}, testLogger())

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reservations/id/x", nil)
	req.Header.Set(httputil.GuestIDHeader, "guest-42")
	rec := httptest.NewRecorder()

	handler.Cancel(rec, req, httprouter.Params{{Key: "id", Value: "x"}})

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestSimulatePayment_Success(t *testing.T) {
	mockService := &mockReservationService{
		simulatePaymentFunc: func(ctx context.Context, guestID string, id string) (*model.Reservation, error) {
			return &model.Reservation{
				ID:        id,
				Status:    model.ReservationConfirmed,
				Payment:   model.Payment{Status: model.PaymentPaid},
				ExpiresAt: time.Date(2024, 4, 1, 13, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	handler := NewReservationHandler(mockService, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/id/x/payment", nil)
	req.Header.Set(httputil.GuestIDHeader, "guest-42")
	rec := httptest.NewRecorder()

	handler.SimulatePayment(rec, req, httprouter.Params{{Key: "id", Value: "x"}})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data model.Reservation `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Status != model.ReservationConfirmed {
		t.Errorf("expected confirmed, got %s", resp.Data.Status)
	}
}
