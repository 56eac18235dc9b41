package listings

import (
	"context"
	"time"

	"meramarket/models"
)

// Store is the data capability: persistence for listings and requirements.
// Every data provider (mock, mongo, firestore) implements it; business rules
// live in Service.
type Store interface {
	QueryListings(ctx context.Context, q models.ListingQuery) (models.Page[models.Listing], error)
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	InsertListing(ctx context.Context, l *models.Listing) error
	SaveListing(ctx context.Context, l *models.Listing) error
	DeleteListing(ctx context.Context, id string) error
	IncrementListingViews(ctx context.Context, id string) error
	// ExpireListings marks active listings whose expiry is before now as
	// expired and returns how many changed.
	ExpireListings(ctx context.Context, now time.Time) (int, error)

	QueryRequirements(ctx context.Context, q models.RequirementQuery) (models.Page[models.Requirement], error)
	GetRequirement(ctx context.Context, id string) (*models.Requirement, error)
	InsertRequirement(ctx context.Context, r *models.Requirement) error
	SaveRequirement(ctx context.Context, r *models.Requirement) error
	DeleteRequirement(ctx context.Context, id string) error
	ExpireRequirements(ctx context.Context, now time.Time) (int, error)
}
