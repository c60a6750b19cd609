package reservation

import (
	"easydrive/internal/identity"
	"easydrive/internal/models"
)

// Statuses only staff may assign. Holders reach modified through edits and
// cancelled through the cancel operation; everything else is an operational
// state set by admins.
var adminOnlyStatuses = map[string]bool{
	models.StatusConfirmed: true,
	models.StatusActive:    true,
	models.StatusNoShow:    true,
	models.StatusDispute:   true,
}

// validateTransition checks a status change requested through the API.
// Terminal statuses absorb everything, and overridden is never assignable
// directly: it is produced only by conflict resolution.
func validateTransition(from, to string, caller identity.Caller) error {
	if !models.ValidStatus(to) || to == models.StatusOverridden {
		return validationf("invalid status %q", to)
	}
	if terminal(from) {
		return conflictf("reservation is %s and cannot change", from)
	}
	if from == to {
		return nil
	}
	if adminOnlyStatuses[to] && !caller.Admin {
		return forbiddenf("status %s can only be set by staff", to)
	}
	return nil
}

func terminal(status string) bool {
	return status == models.StatusCancelled || status == models.StatusOverridden
}
