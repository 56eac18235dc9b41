// models/user.go
package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a marketplace account.
type User struct {
	ID              string       `bson:"id" json:"id" firestore:"id"`
	Email           string       `bson:"email" json:"email" firestore:"email"`
	Name            string       `bson:"name" json:"name" firestore:"name"`
	Phone           string       `bson:"phone,omitempty" json:"phone,omitempty" firestore:"phone,omitempty"`
	Avatar          string       `bson:"avatar,omitempty" json:"avatar,omitempty" firestore:"avatar,omitempty"`
	Role            string       `bson:"role" json:"role" firestore:"role"` // "user" or "admin"
	IsVerified      bool         `bson:"isVerified" json:"isVerified" firestore:"isVerified"`
	Suspended       bool         `bson:"suspended" json:"suspended" firestore:"suspended"`
	SuspendedReason string       `bson:"suspendedReason,omitempty" json:"suspendedReason,omitempty" firestore:"suspendedReason,omitempty"`
	Entitlements    Entitlements `bson:"entitlements" json:"entitlements" firestore:"entitlements"`
	PasswordHash    string       `bson:"passwordHash" json:"-" firestore:"-"`
	TokenHash       string       `bson:"tokenHash" json:"-" firestore:"-"`
	CreatedAt       time.Time    `bson:"createdAt" json:"createdAt" firestore:"createdAt"`
	LastLoginAt     *time.Time   `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty" firestore:"lastLoginAt,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Entitlements are the paid permissions a user holds.
type Entitlements struct {
	ContactPassUntil *time.Time       `bson:"contactPassUntil,omitempty" json:"contactPassUntil,omitempty" firestore:"contactPassUntil,omitempty"`
	Addons           map[string]Addon `bson:"addons,omitempty" json:"addons,omitempty" firestore:"addons,omitempty"` // keyed by listing ID
}

// Addon is a per-listing entitlement.
type Addon struct {
	CanViewInterestedContacts bool `bson:"canViewInterestedContacts" json:"canViewInterestedContacts" firestore:"canViewInterestedContacts"`
}

// Clone returns a deep copy so callers can modify entitlements safely.
func (e Entitlements) Clone() Entitlements {
	out := Entitlements{}
	if e.ContactPassUntil != nil {
		t := *e.ContactPassUntil
		out.ContactPassUntil = &t
	}
	if e.Addons != nil {
		out.Addons = make(map[string]Addon, len(e.Addons))
		for k, v := range e.Addons {
			out.Addons[k] = v
		}
	}
	return out
}

// UserFilters narrows admin user queries.
type UserFilters struct {
	Role      string `form:"role" json:"role,omitempty"`
	Query     string `form:"q" json:"query,omitempty"`
	Suspended *bool  `form:"suspended" json:"suspended,omitempty"`
}
