package models

const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusModified   = "modified"
	StatusActive     = "active"
	StatusNoShow     = "no-show"
	StatusDispute    = "dispute"
	StatusCancelled  = "cancelled"
	StatusOverridden = "overridden"
)

const (
	TypeFirm = "firm"
	TypeSoft = "soft"
)

const (
	CarAvailable   = "available"
	CarReserved    = "reserved"
	CarUnavailable = "unavailable"
)

// Statuses lists every reservation status. Order is not significant.
var Statuses = []string{
	StatusPending,
	StatusConfirmed,
	StatusModified,
	StatusActive,
	StatusNoShow,
	StatusDispute,
	StatusCancelled,
	StatusOverridden,
}

// ValidStatus reports whether s is a known reservation status.
func ValidStatus(s string) bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

const (
	// DateLayout is the storage and wire format for reservation dates.
	DateLayout = "2006-01-02"

	// NotificationQueueSize bounds the in-memory notification queue.
	NotificationQueueSize = 1000

	// DefaultMaxBookingDays caps how far ahead a window may start.
	DefaultMaxBookingDays = 365
)
