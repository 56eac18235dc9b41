package listingRepo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"meramarket/models"
	"meramarket/services/listings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoStore implements listings.Store using MongoDB.
type MongoStore struct {
	listings     *mongo.Collection
	requirements *mongo.Collection
	logger       *zap.Logger
}

// NewMongoStore creates a listings.Store backed by the given database and
// makes sure its indexes exist.
func NewMongoStore(ctx context.Context, db *mongo.Database, logger *zap.Logger) (*MongoStore, error) {
	s := &MongoStore{
		listings:     db.Collection("listings"),
		requirements: db.Collection("requirements"),
		logger:       logger,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// newContext bounds a repository call.
func newContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// ensureIndexes creates indexes for fields that are frequently used in queries.
func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	common := func() []mongo.IndexModel {
		return []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "id", Value: -1}}},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "subcategory", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}}},
			{Keys: bson.D{{Key: "moderation", Value: 1}}},
			{Keys: bson.D{{Key: "location.geohash", Value: 1}}},
		}
	}

	listingIdx := append(common(), mongo.IndexModel{Keys: bson.D{{Key: "sellerId", Value: 1}}})
	if _, err := s.listings.Indexes().CreateMany(ctx, listingIdx); err != nil {
		return fmt.Errorf("failed to create listing indexes: %w", err)
	}
	requirementIdx := append(common(), mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}})
	if _, err := s.requirements.Indexes().CreateMany(ctx, requirementIdx); err != nil {
		return fmt.Errorf("failed to create requirement indexes: %w", err)
	}
	return nil
}

// --- Listings ---

func (s *MongoStore) QueryListings(ctx context.Context, q models.ListingQuery) (models.Page[models.Listing], error) {
	f := q.Filters
	filter := bson.M{}
	setEq(filter, "category", f.Category)
	setEq(filter, "subcategory", f.Subcategory)
	setEq(filter, "sellerId", f.SellerID)
	setEq(filter, "status", string(f.Status))
	setEq(filter, "moderation", f.Moderation)
	setRange(filter, "price", f.MinPrice, f.MaxPrice)
	and := textAndCells(f.Query, q.Cells)
	if len(and) > 0 {
		filter["$and"] = and
	}

	var page models.Page[models.Listing]
	err := s.find(ctx, s.listings, filter, q.Page, &page.Items, &page.Total)
	if err != nil {
		return page, fmt.Errorf("failed to query listings: %w", err)
	}
	if page.Items == nil {
		page.Items = []models.Listing{}
	}
	page.HasMore = q.Page != nil && q.Page.Offset()+len(page.Items) < page.Total
	return page, nil
}

func (s *MongoStore) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var l models.Listing
	if err := s.listings.FindOne(ctx, bson.M{"id": id}).Decode(&l); err != nil {
		return nil, notFound(err, "listing", id)
	}
	return &l, nil
}

func (s *MongoStore) InsertListing(ctx context.Context, l *models.Listing) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.listings.InsertOne(ctx, l); err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

func (s *MongoStore) SaveListing(ctx context.Context, l *models.Listing) error {
	return s.replace(ctx, s.listings, l.ID, l)
}

func (s *MongoStore) DeleteListing(ctx context.Context, id string) error {
	return s.delete(ctx, s.listings, id)
}

func (s *MongoStore) IncrementListingViews(ctx context.Context, id string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	res, err := s.listings.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return fmt.Errorf("failed to count view for listing %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return listings.ErrNotFound
	}
	return nil
}

func (s *MongoStore) ExpireListings(ctx context.Context, now time.Time) (int, error) {
	return s.expire(ctx, s.listings, string(models.ListingActive), string(models.ListingExpired), now)
}

// --- Requirements ---

func (s *MongoStore) QueryRequirements(ctx context.Context, q models.RequirementQuery) (models.Page[models.Requirement], error) {
	f := q.Filters
	filter := bson.M{}
	setEq(filter, "category", f.Category)
	setEq(filter, "subcategory", f.Subcategory)
	setEq(filter, "userId", f.UserID)
	setEq(filter, "status", string(f.Status))
	setEq(filter, "moderation", f.Moderation)
	// A requirement matches when its budget range overlaps the requested one.
	if f.MinBudget > 0 {
		filter["budget.max"] = bson.M{"$gte": f.MinBudget}
	}
	if f.MaxBudget > 0 {
		filter["budget.min"] = bson.M{"$lte": f.MaxBudget}
	}
	and := textAndCells(f.Query, q.Cells)
	if len(and) > 0 {
		filter["$and"] = and
	}

	var page models.Page[models.Requirement]
	err := s.find(ctx, s.requirements, filter, q.Page, &page.Items, &page.Total)
	if err != nil {
		return page, fmt.Errorf("failed to query requirements: %w", err)
	}
	if page.Items == nil {
		page.Items = []models.Requirement{}
	}
	page.HasMore = q.Page != nil && q.Page.Offset()+len(page.Items) < page.Total
	return page, nil
}

func (s *MongoStore) GetRequirement(ctx context.Context, id string) (*models.Requirement, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var r models.Requirement
	if err := s.requirements.FindOne(ctx, bson.M{"id": id}).Decode(&r); err != nil {
		return nil, notFound(err, "requirement", id)
	}
	return &r, nil
}

func (s *MongoStore) InsertRequirement(ctx context.Context, r *models.Requirement) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.requirements.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("failed to insert requirement: %w", err)
	}
	return nil
}

func (s *MongoStore) SaveRequirement(ctx context.Context, r *models.Requirement) error {
	return s.replace(ctx, s.requirements, r.ID, r)
}

func (s *MongoStore) DeleteRequirement(ctx context.Context, id string) error {
	return s.delete(ctx, s.requirements, id)
}

func (s *MongoStore) ExpireRequirements(ctx context.Context, now time.Time) (int, error) {
	return s.expire(ctx, s.requirements, string(models.RequirementActive), string(models.RequirementExpired), now)
}

// --- helpers ---

// find runs a filtered query sorted newest first. A nil page returns every
// match.
func (s *MongoStore) find(ctx context.Context, coll *mongo.Collection, filter bson.M, page *models.PageRequest, out any, total *int) error {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "id", Value: -1}})
	if page != nil {
		p := page.Normalize()
		opts.SetSkip(int64(p.Offset())).SetLimit(int64(p.Limit))
	}

	count, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return err
	}
	*total = int(count)

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func (s *MongoStore) replace(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	res, err := coll.ReplaceOne(ctx, bson.M{"id": id}, doc)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return listings.ErrNotFound
	}
	return nil
}

func (s *MongoStore) delete(ctx context.Context, coll *mongo.Collection, id string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	res, err := coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return listings.ErrNotFound
	}
	return nil
}

func (s *MongoStore) expire(ctx context.Context, coll *mongo.Collection, from, to string, now time.Time) (int, error) {
	ctx, cancel := newContext(ctx, 30*time.Second)
	defer cancel()

	res, err := coll.UpdateMany(ctx,
		bson.M{"status": from, "expiresAt": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"status": to, "updatedAt": now}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire %s records: %w", coll.Name(), err)
	}
	if res.ModifiedCount > 0 {
		s.logger.Info("Expired records", zap.String("collection", coll.Name()), zap.Int64("count", res.ModifiedCount))
	}
	return int(res.ModifiedCount), nil
}

func setEq(filter bson.M, field, value string) {
	if value != "" {
		filter[field] = value
	}
}

func setRange(filter bson.M, field string, min, max float64) {
	r := bson.M{}
	if min > 0 {
		r["$gte"] = min
	}
	if max > 0 {
		r["$lte"] = max
	}
	if len(r) > 0 {
		filter[field] = r
	}
}

// textAndCells builds the $and clauses for the free-text query and the
// geohash cells; each is an $or of its own.
func textAndCells(query string, cells []string) bson.A {
	var and bson.A
	if query != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}})
	}
	if len(cells) > 0 {
		or := make(bson.A, 0, len(cells))
		for _, c := range cells {
			or = append(or, bson.M{"location.geohash": bson.M{"$regex": "^" + regexp.QuoteMeta(c)}})
		}
		and = append(and, bson.M{"$or": or})
	}
	return and
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return listings.ErrNotFound
	}
	return fmt.Errorf("failed to fetch %s with id %s: %w", kind, id, err)
}
