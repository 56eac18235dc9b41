package auth

import (
	"sort"
	"time"

	"meramarket/models"
)

// Custom claim keys carried on Firebase users.
const (
	claimRole             = "role"
	claimSuspended        = "suspended"
	claimSuspendedReason  = "suspendedReason"
	claimPhoneVerified    = "phoneVerified"
	claimContactPassUntil = "contactPassUntil" // unix seconds
	claimAddons           = "viewContactsAddons"
)

// encodeClaims writes the marketplace fields of u as custom claims.
func encodeClaims(u *models.User) map[string]interface{} {
	claims := map[string]interface{}{
		claimRole: u.Role,
	}
	if u.Suspended {
		claims[claimSuspended] = true
		if u.SuspendedReason != "" {
			claims[claimSuspendedReason] = u.SuspendedReason
		}
	}
	if u.IsVerified {
		claims[claimPhoneVerified] = true
	}
	if until := u.Entitlements.ContactPassUntil; until != nil {
		claims[claimContactPassUntil] = until.Unix()
	}
	var addons []string
	for id, a := range u.Entitlements.Addons {
		if a.CanViewInterestedContacts {
			addons = append(addons, id)
		}
	}
	if len(addons) > 0 {
		sort.Strings(addons)
		claims[claimAddons] = addons
	}
	return claims
}

// decodeClaims reads custom claims back onto u. Claims decoded from JSON
// carry numbers as float64 and lists as []interface{}.
func decodeClaims(u *models.User, claims map[string]interface{}) {
	u.Role = models.RoleUser
	if role, ok := claims[claimRole].(string); ok && validRole(role) {
		u.Role = role
	}
	u.Suspended, _ = claims[claimSuspended].(bool)
	u.SuspendedReason, _ = claims[claimSuspendedReason].(string)
	if v, _ := claims[claimPhoneVerified].(bool); v {
		u.IsVerified = true
	}

	u.Entitlements = models.Entitlements{}
	switch until := claims[claimContactPassUntil].(type) {
	case float64:
		t := time.Unix(int64(until), 0)
		u.Entitlements.ContactPassUntil = &t
	case int64:
		t := time.Unix(until, 0)
		u.Entitlements.ContactPassUntil = &t
	}

	var ids []string
	switch list := claims[claimAddons].(type) {
	case []interface{}:
		for _, v := range list {
			if id, ok := v.(string); ok {
				ids = append(ids, id)
			}
		}
	case []string:
		ids = list
	}
	if len(ids) > 0 {
		u.Entitlements.Addons = make(map[string]models.Addon, len(ids))
		for _, id := range ids {
			u.Entitlements.Addons[id] = models.Addon{CanViewInterestedContacts: true}
		}
	}
}
