package http

import (
	"net/http"
	"strconv"

	"bookstay/pkg/config"
	apperrors "bookstay/pkg/errors"
)

// GuestIDHeader carries the authenticated requester identity supplied by the
// identity provider in front of this service. The core treats it as opaque.
const GuestIDHeader = "X-Guest-ID"

func ExtractGuestID(r *http.Request) (string, error) {
	guestID := r.Header.Get(GuestIDHeader)
	if guestID == "" {
		return "", apperrors.Unauthorized("missing guest identity")
	}
	return guestID, nil
}

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = int64(v)
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}
