// Package firestoreRepo stores listings and requirements in Cloud Firestore.
//
// Firestore cannot combine a geohash range with ordering by creation time or
// with substring search, so equality filters run server side and the rest of
// the query (price, text, cells, ordering, paging) is applied in memory.
package firestoreRepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"meramarket/models"
	"meramarket/services/listings"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	listingsCollection     = "listings"
	requirementsCollection = "requirements"
)

// Store implements listings.Store on Firestore.
type Store struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewStore wraps a Firestore client. The store owns the client and closes it
// on Close.
func NewStore(client *firestore.Client, logger *zap.Logger) *Store {
	return &Store{client: client, logger: logger}
}

func (s *Store) Close() error {
	return s.client.Close()
}

// --- Listings ---

func (s *Store) QueryListings(ctx context.Context, q models.ListingQuery) (models.Page[models.Listing], error) {
	f := q.Filters
	base := s.client.Collection(listingsCollection).Query
	base = whereEq(base, "category", f.Category)
	base = whereEq(base, "subcategory", f.Subcategory)
	base = whereEq(base, "sellerId", f.SellerID)
	base = whereEq(base, "status", string(f.Status))
	base = whereEq(base, "moderation", f.Moderation)

	seen := make(map[string]bool)
	var matched []models.Listing
	for _, query := range cellQueries(base, q.Cells) {
		err := each(ctx, query, func(doc *firestore.DocumentSnapshot) error {
			var l models.Listing
			if err := doc.DataTo(&l); err != nil {
				return fmt.Errorf("decode listing %s: %w", doc.Ref.ID, err)
			}
			if !seen[l.ID] && q.Matches(&l) {
				seen[l.ID] = true
				matched = append(matched, l)
			}
			return nil
		})
		if err != nil {
			return models.Page[models.Listing]{}, fmt.Errorf("failed to query listings: %w", err)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return newer(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})
	return page(matched, q.Page), nil
}

func (s *Store) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	var l models.Listing
	if err := s.get(ctx, listingsCollection, id, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) InsertListing(ctx context.Context, l *models.Listing) error {
	if _, err := s.client.Collection(listingsCollection).Doc(l.ID).Create(ctx, l); err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

func (s *Store) SaveListing(ctx context.Context, l *models.Listing) error {
	return s.save(ctx, listingsCollection, l.ID, l)
}

func (s *Store) DeleteListing(ctx context.Context, id string) error {
	return s.delete(ctx, listingsCollection, id)
}

func (s *Store) IncrementListingViews(ctx context.Context, id string) error {
	_, err := s.client.Collection(listingsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "views", Value: firestore.Increment(1)},
	})
	return translate(err, "count view for listing", id)
}

func (s *Store) ExpireListings(ctx context.Context, now time.Time) (int, error) {
	return s.expire(ctx, listingsCollection, string(models.ListingActive), string(models.ListingExpired), now)
}

// --- Requirements ---

func (s *Store) QueryRequirements(ctx context.Context, q models.RequirementQuery) (models.Page[models.Requirement], error) {
	f := q.Filters
	base := s.client.Collection(requirementsCollection).Query
	base = whereEq(base, "category", f.Category)
	base = whereEq(base, "subcategory", f.Subcategory)
	base = whereEq(base, "userId", f.UserID)
	base = whereEq(base, "status", string(f.Status))
	base = whereEq(base, "moderation", f.Moderation)

	seen := make(map[string]bool)
	var matched []models.Requirement
	for _, query := range cellQueries(base, q.Cells) {
		err := each(ctx, query, func(doc *firestore.DocumentSnapshot) error {
			var r models.Requirement
			if err := doc.DataTo(&r); err != nil {
				return fmt.Errorf("decode requirement %s: %w", doc.Ref.ID, err)
			}
			if !seen[r.ID] && q.Matches(&r) {
				seen[r.ID] = true
				matched = append(matched, r)
			}
			return nil
		})
		if err != nil {
			return models.Page[models.Requirement]{}, fmt.Errorf("failed to query requirements: %w", err)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return newer(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})
	return page(matched, q.Page), nil
}

func (s *Store) GetRequirement(ctx context.Context, id string) (*models.Requirement, error) {
	var r models.Requirement
	if err := s.get(ctx, requirementsCollection, id, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) InsertRequirement(ctx context.Context, r *models.Requirement) error {
	if _, err := s.client.Collection(requirementsCollection).Doc(r.ID).Create(ctx, r); err != nil {
		return fmt.Errorf("failed to insert requirement: %w", err)
	}
	return nil
}

func (s *Store) SaveRequirement(ctx context.Context, r *models.Requirement) error {
	return s.save(ctx, requirementsCollection, r.ID, r)
}

func (s *Store) DeleteRequirement(ctx context.Context, id string) error {
	return s.delete(ctx, requirementsCollection, id)
}

func (s *Store) ExpireRequirements(ctx context.Context, now time.Time) (int, error) {
	return s.expire(ctx, requirementsCollection, string(models.RequirementActive), string(models.RequirementExpired), now)
}

// --- helpers ---

func (s *Store) get(ctx context.Context, collection, id string, out any) error {
	doc, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return translate(err, "fetch", id)
	}
	if err := doc.DataTo(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", collection, id, err)
	}
	return nil
}

// save overwrites an existing document; it never creates one.
func (s *Store) save(ctx context.Context, collection, id string, doc any) error {
	ref := s.client.Collection(collection).Doc(id)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Set(ref, doc)
	})
	return translate(err, "save", id)
}

func (s *Store) delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx, firestore.Exists)
	return translate(err, "delete", id)
}

func (s *Store) expire(ctx context.Context, collection, from, to string, now time.Time) (int, error) {
	query := s.client.Collection(collection).
		Where("status", "==", from).
		Where("expiresAt", "<", now)

	n := 0
	err := each(ctx, query, func(doc *firestore.DocumentSnapshot) error {
		_, err := doc.Ref.Update(ctx, []firestore.Update{
			{Path: "status", Value: to},
			{Path: "updatedAt", Value: now},
		})
		if err != nil {
			return fmt.Errorf("expire %s: %w", doc.Ref.ID, err)
		}
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("failed to expire %s: %w", collection, err)
	}
	if n > 0 {
		s.logger.Info("Expired records", zap.String("collection", collection), zap.Int("count", n))
	}
	return n, nil
}

func whereEq(q firestore.Query, field, value string) firestore.Query {
	if value == "" {
		return q
	}
	return q.Where(field, "==", value)
}

// cellQueries fans base out into one geohash range query per cell. Without
// cells base is returned as is.
func cellQueries(base firestore.Query, cells []string) []firestore.Query {
	if len(cells) == 0 {
		return []firestore.Query{base}
	}
	out := make([]firestore.Query, 0, len(cells))
	for _, c := range cells {
		out = append(out, base.
			Where("location.geohash", ">=", c).
			Where("location.geohash", "<=", c+"~"))
	}
	return out
}

func each(ctx context.Context, q firestore.Query, fn func(*firestore.DocumentSnapshot) error) error {
	iter := q.Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
}

func newer(a, b time.Time, aID, bID string) bool {
	if a.Equal(b) {
		return aID > bID
	}
	return a.After(b)
}

func page[T any](items []T, req *models.PageRequest) models.Page[T] {
	if items == nil {
		items = []T{}
	}
	if req == nil {
		return models.Page[T]{Items: items, Total: len(items)}
	}
	return models.Paginate(items, *req)
}

func translate(err error, op, id string) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return listings.ErrNotFound
	}
	return fmt.Errorf("failed to %s %s: %w", op, id, err)
}
