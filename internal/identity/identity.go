package identity

import (
	"strings"

	"easydrive/internal/models"
)

// Caller describes who is making a request. A zero Caller is an anonymous
// guest; guests may still identify themselves by email for their own
// reservations.
type Caller struct {
	Authenticated bool
	Admin         bool
	AccountID     int64
	Email         string
}

// CanAccess reports whether the caller may read or modify the reservation.
// Admins see everything, account holders see their own records, and guests
// match by the email they booked with.
func (c Caller) CanAccess(res *models.Reservation) bool {
	if c.Admin {
		return true
	}
	if c.Authenticated {
		return res.AccountID != 0 && res.AccountID == c.AccountID
	}
	return res.GuestEmail != "" && c.Email != "" &&
		strings.EqualFold(res.GuestEmail, c.Email)
}

// IsHolder reports whether the caller is the reservation's holder, as opposed
// to an admin acting on someone else's booking.
func (c Caller) IsHolder(res *models.Reservation) bool {
	if c.Authenticated {
		return res.AccountID != 0 && res.AccountID == c.AccountID
	}
	return res.GuestEmail != "" && c.Email != "" &&
		strings.EqualFold(res.GuestEmail, c.Email)
}
