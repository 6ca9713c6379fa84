package mongo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Sokol111/eventsink/pkg/mutation"
	"github.com/Sokol111/eventsink/pkg/persistence"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Cell document fields.
const (
	fieldID        = "_id"
	fieldRow       = "r"
	fieldFamily    = "f"
	fieldQualifier = "q"
	fieldValue     = "v"
	fieldTimestamp = "ts"
	fieldCounter   = "n"
)

// Cell is one stored column value. Counter cells carry N instead of Value.
type Cell struct {
	ID        CellID `bson:"_id"`
	Value     []byte `bson:"v,omitempty"`
	Timestamp int64  `bson:"ts,omitempty"`
	N         int64  `bson:"n,omitempty"`
}

// CellID addresses a cell within a table collection.
type CellID struct {
	Row       []byte `bson:"r"`
	Family    []byte `bson:"f"`
	Qualifier []byte `bson:"q"`
}

type bulkWriter interface {
	BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...options.Lister[options.BulkWriteOptions]) (*mongo.BulkWriteResult, error)
}

// CellStore maps wide-column mutations onto MongoDB: one collection per table,
// one document per cell.
type CellStore struct {
	db           *mongo.Database
	collection   func(table string) bulkWriter
	bulkhead     *Bulkhead
	queryTimeout time.Duration
	log          *zap.Logger
}

func newCellStore(db *mongo.Database, bulkhead *Bulkhead, queryTimeout time.Duration, log *zap.Logger) *CellStore {
	return &CellStore{
		db: db,
		collection: func(table string) bulkWriter {
			return db.Collection(table)
		},
		bulkhead:     bulkhead,
		queryTimeout: queryTimeout,
		log:          log.With(zap.String("component", "cell-store")),
	}
}

// Apply writes the batch with one unordered bulk write per table.
// Tables are written concurrently; the first failure is returned.
func (s *CellStore) Apply(ctx context.Context, batch mutation.Batch) error {
	if batch.Empty() {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for table, part := range batch.ByTable() {
		g.Go(func() error {
			return s.bulkhead.Execute(ctx, func() error {
				return s.applyTable(ctx, table, part)
			})
		})
	}
	return g.Wait()
}

// EnsureIndexes prepares the collection backing table.
func (s *CellStore) EnsureIndexes(ctx context.Context, table string) error {
	return EnsureIndexes(ctx, s.db, table)
}

func (s *CellStore) applyTable(ctx context.Context, table string, batch mutation.Batch) error {
	models := writeModels(batch)

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	res, err := s.collection(table).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			s.log.Error("bulk write partially failed",
				zap.String("table", table),
				zap.Int("models", len(models)),
				zap.Int("failed", len(bwe.WriteErrors)),
				zap.Error(err))
			return fmt.Errorf("%w: table %s: %d of %d writes failed: %v",
				persistence.ErrPartialWrite, table, len(bwe.WriteErrors), len(models), err)
		}
		return fmt.Errorf("failed to write table %s: %w", table, err)
	}

	s.log.Debug("bulk write applied",
		zap.String("table", table),
		zap.Int64("upserted", res.UpsertedCount),
		zap.Int64("modified", res.ModifiedCount))
	return nil
}

func cellFilter(row, family, qualifier []byte) bson.D {
	return bson.D{{Key: fieldID, Value: bson.D{
		{Key: fieldRow, Value: row},
		{Key: fieldFamily, Value: family},
		{Key: fieldQualifier, Value: qualifier},
	}}}
}

// writeModels turns a single-table batch into upserts. Puts of the same cell
// keep only the newest, and increments of the same cell are summed into one $inc.
func writeModels(batch mutation.Batch) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, batch.Len())

	for _, p := range newestPuts(batch.Puts) {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(cellFilter(p.RowKey, p.Family, p.Qualifier)).
			SetUpdate(guardedSet(p)).
			SetUpsert(true))
	}

	for _, inc := range coalesceIncrements(batch.Increments) {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(cellFilter(inc.RowKey, inc.Family, inc.Qualifier)).
			SetUpdate(bson.D{{Key: "$inc", Value: bson.D{
				{Key: fieldCounter, Value: inc.Amount},
			}}}).
			SetUpsert(true))
	}

	return models
}

// guardedSet is an update pipeline that stores the put only when its timestamp
// is not older than the stored one. A missing cell always accepts it.
func guardedSet(p mutation.Put) mongo.Pipeline {
	newer := bson.D{{Key: "$gte", Value: bson.A{
		p.Timestamp,
		bson.D{{Key: "$ifNull", Value: bson.A{"$" + fieldTimestamp, int64(math.MinInt64)}}},
	}}}
	pick := func(incoming any, field string) bson.D {
		return bson.D{{Key: "$cond", Value: bson.A{newer, incoming, "$" + field}}}
	}

	return mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: fieldValue, Value: pick(p.Value, fieldValue)},
		{Key: fieldTimestamp, Value: pick(p.Timestamp, fieldTimestamp)},
	}}}}
}

type cellKey struct{ row, family, qualifier string }

// newestPuts keeps one put per cell: the highest timestamp, the later put on a tie.
// Cells keep the order of their first put.
func newestPuts(puts []mutation.Put) []mutation.Put {
	index := make(map[cellKey]int, len(puts))
	out := make([]mutation.Put, 0, len(puts))
	for _, p := range puts {
		k := cellKey{string(p.RowKey), string(p.Family), string(p.Qualifier)}
		if i, ok := index[k]; ok {
			if p.Timestamp >= out[i].Timestamp {
				out[i] = p
			}
			continue
		}
		index[k] = len(out)
		out = append(out, p)
	}
	return out
}

func coalesceIncrements(incs []mutation.Increment) []mutation.Increment {
	index := make(map[cellKey]int, len(incs))
	out := make([]mutation.Increment, 0, len(incs))
	for _, inc := range incs {
		k := cellKey{string(inc.RowKey), string(inc.Family), string(inc.Qualifier)}
		if i, ok := index[k]; ok {
			out[i].Amount += inc.Amount
			continue
		}
		index[k] = len(out)
		out = append(out, inc)
	}
	return out
}
