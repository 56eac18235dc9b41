package recordsRepo

import (
	"context"
	"fmt"
	"time"

	"meramarket/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Add inserts a moderation action, assigning an ID when it has none.
func (r *mongoHistoryRepo) Add(ctx context.Context, a *models.ModerationAction) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("failed to insert moderation action: %w", err)
	}
	return nil
}

// List returns matching actions newest first.
func (r *mongoHistoryRepo) List(ctx context.Context, f models.HistoryFilters, page models.PageRequest) (models.Page[models.ModerationAction], error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := historyFilter(f)
	page = page.Normalize()

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return models.Page[models.ModerationAction]{}, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Limit))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return models.Page[models.ModerationAction]{}, err
	}
	defer cursor.Close(ctx)

	out := models.Page[models.ModerationAction]{Items: []models.ModerationAction{}, Total: int(total)}
	if err := cursor.All(ctx, &out.Items); err != nil {
		return models.Page[models.ModerationAction]{}, err
	}
	out.HasMore = page.Offset()+len(out.Items) < out.Total
	return out, nil
}

func historyFilter(f models.HistoryFilters) bson.M {
	filter := bson.M{}
	if f.EntityType != "" {
		filter["entityType"] = f.EntityType
	}
	if f.EntityID != "" {
		filter["entityId"] = f.EntityID
	}
	return filter
}
