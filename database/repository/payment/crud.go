package paymentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meramarket/models"
	"meramarket/services/payments"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (l *mongoLedger) Insert(ctx context.Context, p *models.Payment) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	p.Version = 1
	if _, err := l.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// Save replaces the document only while it still carries p.Version.
func (l *mongoLedger) Save(ctx context.Context, p *models.Payment) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	next := *p
	next.Version = p.Version + 1
	res, err := l.coll.ReplaceOne(ctx, versionFilter(p.ID, p.Version), &next)
	if err != nil {
		return fmt.Errorf("failed to save payment %s: %w", p.ID, err)
	}
	if res.MatchedCount == 0 {
		n, err := l.coll.CountDocuments(ctx, bson.M{"id": p.ID})
		if err != nil {
			return fmt.Errorf("failed to check payment %s: %w", p.ID, err)
		}
		if n == 0 {
			return payments.ErrNotFound
		}
		return payments.ErrConflict
	}
	p.Version = next.Version
	return nil
}

// versionFilter matches id at version. Documents written before versioning
// have no version field and count as version 0.
func versionFilter(id string, version int64) bson.M {
	if version == 0 {
		return bson.M{"id": id, "version": bson.M{"$in": bson.A{int64(0), nil}}}
	}
	return bson.M{"id": id, "version": version}
}

func (l *mongoLedger) Get(ctx context.Context, id string) (*models.Payment, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var p models.Payment
	if err := l.coll.FindOne(ctx, bson.M{"id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, payments.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch payment %s: %w", id, err)
	}
	return &p, nil
}

func (l *mongoLedger) Query(ctx context.Context, f models.PaymentFilters, page models.PageRequest) (models.Page[models.Payment], error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	filter := buildFilter(f)
	page = page.Normalize()

	total, err := l.coll.CountDocuments(ctx, filter)
	if err != nil {
		return models.Page[models.Payment]{}, fmt.Errorf("failed to count payments: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "id", Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Limit))
	cursor, err := l.coll.Find(ctx, filter, opts)
	if err != nil {
		return models.Page[models.Payment]{}, fmt.Errorf("failed to query payments: %w", err)
	}
	defer cursor.Close(ctx)

	out := models.Page[models.Payment]{Items: []models.Payment{}, Total: int(total)}
	if err := cursor.All(ctx, &out.Items); err != nil {
		return models.Page[models.Payment]{}, err
	}
	out.HasMore = page.Offset()+len(out.Items) < out.Total
	return out, nil
}

func (l *mongoLedger) Revenue(ctx context.Context) (float64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	cursor, err := l.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.PaymentCompleted}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// buildFilter mirrors payments.MatchesFilters.
func buildFilter(f models.PaymentFilters) bson.M {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.EntityID != "" {
		filter["entityId"] = f.EntityID
	}
	created := bson.M{}
	if f.DateFrom != nil {
		created["$gte"] = *f.DateFrom
	}
	if f.DateTo != nil {
		created["$lt"] = f.DateTo.AddDate(0, 0, 1)
	}
	if len(created) > 0 {
		filter["createdAt"] = created
	}
	return filter
}
