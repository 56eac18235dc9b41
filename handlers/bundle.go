package handlers

import (
	"meramarket/providers"
	"meramarket/services/integrations"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Registry *integrations.Registry

	Auth         *AuthHandler
	Listings     *ListingHandler
	Requirements *RequirementHandler
	Interests    *InterestHandler
	Payments     *PaymentHandler
	Billing      *BillingHandler
	Storage      *StorageHandler
	Geo          *GeoHandler
	Admin        *AdminHandler
	Policies     *PolicyHandler
	Health       *HealthHandler
}

// NewHandlerBundle builds every handler over the wired services.
func NewHandlerBundle(svc *providers.Services) *HandlerBundle {
	return &HandlerBundle{
		Registry:     svc.Registry,
		Auth:         NewAuthHandler(svc.Registry, svc.Billing),
		Listings:     NewListingHandler(svc.Listings, svc.Interests),
		Requirements: NewRequirementHandler(svc.Listings),
		Interests:    NewInterestHandler(svc.Interests),
		Payments:     NewPaymentHandler(svc.Payments),
		Billing:      NewBillingHandler(svc.Billing),
		Storage:      NewStorageHandler(svc.Registry),
		Geo:          NewGeoHandler(svc.Registry),
		Admin:        NewAdminHandler(svc.Admin, svc.Billing, svc.Registry),
		Policies:     NewPolicyHandler(svc.Admin),
		Health:       NewHealthHandler(svc.Config.AppName),
	}
}
