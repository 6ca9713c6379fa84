package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const idxTimestamp = "cell_ts"

// EnsureIndexes creates the indexes of a table collection. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database, table string) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: fieldTimestamp, Value: -1}},
			Options: options.Index().SetName(idxTimestamp).SetSparse(true),
		},
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := db.Collection(table).Indexes().CreateMany(ctx, indexes)
	return err
}
