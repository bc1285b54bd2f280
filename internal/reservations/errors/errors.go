package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	ErrLedgerEntryNotFound = errors.New("availability entry not found")

	ErrDateConflict = errors.New("date range conflicts with existing reservation")
)
