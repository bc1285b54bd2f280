package validator

import (
	"errors"
	"fmt"
	"strings"

	"bookstay/pkg/dates"
	"bookstay/pkg/logger"
	"bookstay/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"-"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// HasDateFormatError reports whether any failure came from the calendar date
// check. Callers surface those as invalid input rather than a validation
// failure.
func (v ValidationErrors) HasDateFormatError() bool {
	for _, err := range v {
		if err.Tag == "caldate" {
			return true
		}
	}
	return false
}

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validator.New()

	if err := v.RegisterValidation("caldate", validateCalendarDate); err != nil {
		log.Fatal("Failed to register 'caldate' validator",
			"error", err,
		)
	}

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	_, err := dates.Parse(fl.Field().String())
	return err == nil
}

// ValidateRequest checks the creation payload. Date ordering is deliberately
// not enforced here; the catalog side validates ordering when offers are
// created, and booking creation accepts whatever parses.
func (v *ReservationValidator) ValidateRequest(req *model.ReservationRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ReservationValidator) Validate(reservation *model.Reservation) error {
	if err := v.validate.Struct(reservation); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if reservation.Status == model.ReservationPending && reservation.Payment.Status != model.PaymentPending {
		return ValidationErrors{
			ValidationError{
				Field:   "Payment",
				Message: "pending reservation must carry a pending payment",
			},
		}
	}

	if reservation.Status == model.ReservationConfirmed && reservation.Payment.Status != model.PaymentPaid {
		return ValidationErrors{
			ValidationError{
				Field:   "Payment",
				Message: "confirmed reservation must carry a paid payment",
			},
		}
	}

	return nil
}

func (v *ReservationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "caldate":
			message = fmt.Sprintf("%s must be a calendar date in MM.DD.YYYY format", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
			Tag:     err.Tag(),
		})
	}

	return validationErrors
}
