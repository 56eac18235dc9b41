package models

import "time"

// Pricing holds the current prices (INR) and durations (days).
type Pricing struct {
	ContactPassPrice       int `json:"contactPassPrice"`
	ContactPassDuration    int `json:"contactPassDuration"`
	ListingPrice           int `json:"listingPrice"`
	ListingDuration        int `json:"listingDuration"`
	ViewContactsAddonPrice int `json:"viewContactsAddonPrice"`
}

// PricingUpdate changes some prices; nil fields are left unchanged.
type PricingUpdate struct {
	ContactPassPrice       *int `json:"contactPassPrice,omitempty"`
	ContactPassDuration    *int `json:"contactPassDuration,omitempty"`
	ListingPrice           *int `json:"listingPrice,omitempty"`
	ListingDuration        *int `json:"listingDuration,omitempty"`
	ViewContactsAddonPrice *int `json:"viewContactsAddonPrice,omitempty"`
}

// PricingAuditEntry records one pricing change.
type PricingAuditEntry struct {
	Timestamp      time.Time      `json:"timestamp"`
	Changes        map[string]int `json:"changes"`
	PreviousValues map[string]int `json:"previousValues"`
	UpdatedBy      string         `json:"updatedBy"`
}
