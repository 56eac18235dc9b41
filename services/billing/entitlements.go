package billing

import (
	"math"
	"time"

	"meramarket/models"
)

// IsContactPassActive reports whether the pass is still valid at now.
func IsContactPassActive(e models.Entitlements, now time.Time) bool {
	return e.ContactPassUntil != nil && now.Before(*e.ContactPassUntil)
}

// DaysRemaining is the number of started days left on the pass, never
// negative.
func DaysRemaining(e models.Entitlements, now time.Time) int {
	if e.ContactPassUntil == nil {
		return 0
	}
	left := e.ContactPassUntil.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}

// CanViewInterestedContacts reports whether the add-on was bought for the
// listing.
func CanViewInterestedContacts(e models.Entitlements, listingID string) bool {
	return e.Addons[listingID].CanViewInterestedContacts
}

// extendFrom returns the later of now and current, plus days.
func extendFrom(current *time.Time, now time.Time, days int) time.Time {
	start := now
	if current != nil && current.After(now) {
		start = *current
	}
	return start.AddDate(0, 0, days)
}
