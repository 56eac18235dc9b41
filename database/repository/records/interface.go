package recordsRepo

import (
	"context"
	"fmt"
	"time"

	"meramarket/services/admin"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var _ admin.HistoryStore = (*mongoHistoryRepo)(nil)

type mongoHistoryRepo struct {
	coll *mongo.Collection
}

// NewMongoHistoryRepo returns an admin.HistoryStore backed by the
// "moderation_history" collection.
func NewMongoHistoryRepo(ctx context.Context, db *mongo.Database) (admin.HistoryStore, error) {
	r := &mongoHistoryRepo{coll: db.Collection("moderation_history")}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "entityType", Value: 1}, {Key: "entityId", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create history indexes: %w", err)
	}
	return r, nil
}
