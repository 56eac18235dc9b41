package paymentRepo

import (
	"context"
	"fmt"
	"time"

	"meramarket/services/payments"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ payments.Ledger = (*mongoLedger)(nil)

type mongoLedger struct {
	coll *mongo.Collection
}

// NewMongoLedger returns a payments.Ledger stored in the "payments"
// collection of db.
func NewMongoLedger(ctx context.Context, db *mongo.Database) (payments.Ledger, error) {
	l := &mongoLedger{coll: db.Collection("payments")}
	if err := l.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func newContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

func (l *mongoLedger) ensureIndexes(ctx context.Context) error {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	_, err := l.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "entityId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create payment indexes: %w", err)
	}
	return nil
}
