package mongo

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Sokol111/eventsink/pkg/mutation"
	"github.com/Sokol111/eventsink/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

type mockBulkWriter struct {
	mu     sync.Mutex
	calls  [][]mongo.WriteModel
	result *mongo.BulkWriteResult
	err    error
	// started is signalled before waiting on block.
	started chan struct{}
	block   chan struct{}
}

func (m *mockBulkWriter) BulkWrite(ctx context.Context, models []mongo.WriteModel, _ ...options.Lister[options.BulkWriteOptions]) (*mongo.BulkWriteResult, error) {
	if m.block != nil {
		m.started <- struct{}{}
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, models)
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &mongo.BulkWriteResult{}, nil
}

func newTestCellStore(writers map[string]*mockBulkWriter, limit int) *CellStore {
	log := zap.NewNop()
	return &CellStore{
		collection: func(table string) bulkWriter {
			return writers[table]
		},
		bulkhead:     NewBulkhead(limit, 50*time.Millisecond, log),
		queryTimeout: time.Second,
		log:          log,
	}
}

func TestWriteModels(t *testing.T) {
	// Given
	batch := mutation.Batch{
		Puts: []mutation.Put{{
			Table: []byte("events"), RowKey: []byte("3-1-1u1"), Family: []byte("d"),
			Qualifier: []byte("x"), Value: []byte("1"), Timestamp: 42,
		}},
		Increments: []mutation.Increment{
			{Table: []byte("events"), RowKey: []byte("incRow"), Family: []byte("d"), Qualifier: []byte("n"), Amount: 1},
			{Table: []byte("events"), RowKey: []byte("incRow"), Family: []byte("d"), Qualifier: []byte("n"), Amount: 1},
			{Table: []byte("events"), RowKey: []byte("incRow"), Family: []byte("d"), Qualifier: []byte("m"), Amount: 5},
		},
	}

	// When
	models := writeModels(batch)

	// Then
	require.Len(t, models, 3)

	put := models[0].(*mongo.UpdateOneModel)
	require.NotNil(t, put.Upsert)
	assert.True(t, *put.Upsert)
	assert.Equal(t, cellFilter([]byte("3-1-1u1"), []byte("d"), []byte("x")), put.Filter)
	newer := bson.D{{Key: "$gte", Value: bson.A{
		int64(42),
		bson.D{{Key: "$ifNull", Value: bson.A{"$ts", int64(math.MinInt64)}}},
	}}}
	assert.Equal(t, mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "v", Value: bson.D{{Key: "$cond", Value: bson.A{newer, []byte("1"), "$v"}}}},
		{Key: "ts", Value: bson.D{{Key: "$cond", Value: bson.A{newer, int64(42), "$ts"}}}},
	}}}}, put.Update)

	inc := models[1].(*mongo.UpdateOneModel)
	assert.Equal(t, cellFilter([]byte("incRow"), []byte("d"), []byte("n")), inc.Filter)
	assert.Equal(t, bson.D{{Key: "$inc", Value: bson.D{{Key: "n", Value: int64(2)}}}}, inc.Update)

	other := models[2].(*mongo.UpdateOneModel)
	assert.Equal(t, bson.D{{Key: "$inc", Value: bson.D{{Key: "n", Value: int64(5)}}}}, other.Update)
}

func TestWriteModels_SameCellPuts(t *testing.T) {
	put := func(q, v string, ts int64) mutation.Put {
		return mutation.Put{Table: []byte("events"), RowKey: []byte("r"), Family: []byte("d"),
			Qualifier: []byte(q), Value: []byte(v), Timestamp: ts}
	}
	storedValue := func(m mongo.WriteModel) []byte {
		set := m.(*mongo.UpdateOneModel).Update.(mongo.Pipeline)[0][0].Value.(bson.D)
		return set[0].Value.(bson.D)[0].Value.(bson.A)[1].([]byte)
	}

	t.Run("newest timestamp wins regardless of order", func(t *testing.T) {
		// Given
		batch := mutation.Batch{Puts: []mutation.Put{put("x", "new", 20), put("y", "y", 5), put("x", "old", 10)}}

		// When
		models := writeModels(batch)

		// Then
		require.Len(t, models, 2)
		assert.Equal(t, []byte("new"), storedValue(models[0]))
		assert.Equal(t, []byte("y"), storedValue(models[1]))
	})

	t.Run("later put wins a timestamp tie", func(t *testing.T) {
		models := writeModels(mutation.Batch{Puts: []mutation.Put{put("x", "first", 7), put("x", "second", 7)}})

		require.Len(t, models, 1)
		assert.Equal(t, []byte("second"), storedValue(models[0]))
	})
}

func TestNewestPuts(t *testing.T) {
	puts := []mutation.Put{
		{RowKey: []byte("a"), Qualifier: []byte("q"), Value: []byte("1"), Timestamp: 3},
		{RowKey: []byte("b"), Qualifier: []byte("q"), Value: []byte("2"), Timestamp: 1},
		{RowKey: []byte("a"), Qualifier: []byte("q"), Value: []byte("3"), Timestamp: 2},
		{RowKey: []byte("a"), Family: []byte("e"), Qualifier: []byte("q"), Value: []byte("4"), Timestamp: 1},
	}

	got := newestPuts(puts)

	require.Len(t, got, 3)
	assert.Equal(t, []byte("1"), got[0].Value)
	assert.Equal(t, []byte("2"), got[1].Value)
	assert.Equal(t, []byte("4"), got[2].Value)
}

func TestCellFilter_FieldOrder(t *testing.T) {
	f := cellFilter([]byte("r"), []byte("f"), []byte("q"))

	id := f[0].Value.(bson.D)
	assert.Equal(t, "_id", f[0].Key)
	assert.Equal(t, []string{"r", "f", "q"}, []string{id[0].Key, id[1].Key, id[2].Key})
}

func TestCellStore_Apply(t *testing.T) {
	t.Run("one bulk write per table", func(t *testing.T) {
		events, audit := &mockBulkWriter{}, &mockBulkWriter{}
		store := newTestCellStore(map[string]*mockBulkWriter{"events": events, "audit": audit}, 4)

		err := store.Apply(context.Background(), mutation.Batch{
			Puts: []mutation.Put{
				{Table: []byte("events"), Qualifier: []byte("a")},
				{Table: []byte("events"), Qualifier: []byte("b")},
				{Table: []byte("audit"), Qualifier: []byte("c")},
			},
		})

		require.NoError(t, err)
		require.Len(t, events.calls, 1)
		assert.Len(t, events.calls[0], 2)
		require.Len(t, audit.calls, 1)
		assert.Len(t, audit.calls[0], 1)
	})

	t.Run("empty batch", func(t *testing.T) {
		events := &mockBulkWriter{}
		store := newTestCellStore(map[string]*mockBulkWriter{"events": events}, 1)

		require.NoError(t, store.Apply(context.Background(), mutation.Batch{}))
		assert.Empty(t, events.calls)
	})

	t.Run("driver error", func(t *testing.T) {
		driverErr := errors.New("server selection timeout")
		store := newTestCellStore(map[string]*mockBulkWriter{"events": {err: driverErr}}, 1)

		err := store.Apply(context.Background(), mutation.Batch{
			Puts: []mutation.Put{{Table: []byte("events")}},
		})

		require.ErrorIs(t, err, driverErr)
		assert.Contains(t, err.Error(), "events")
	})

	t.Run("partial write", func(t *testing.T) {
		bwe := mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{{WriteError: mongo.WriteError{Index: 0, Code: 11000}}}}
		store := newTestCellStore(map[string]*mockBulkWriter{"events": {err: bwe}}, 1)

		err := store.Apply(context.Background(), mutation.Batch{
			Puts: []mutation.Put{{Table: []byte("events")}, {Table: []byte("events")}},
		})

		assert.ErrorIs(t, err, persistence.ErrPartialWrite)
	})

	t.Run("bulkhead full", func(t *testing.T) {
		blocked := &mockBulkWriter{started: make(chan struct{}, 1), block: make(chan struct{})}
		other := &mockBulkWriter{}
		store := newTestCellStore(map[string]*mockBulkWriter{"events": blocked, "audit": other}, 1)

		done := make(chan error, 1)
		go func() {
			done <- store.Apply(context.Background(), mutation.Batch{Puts: []mutation.Put{{Table: []byte("events")}}})
		}()
		<-blocked.started

		err := store.Apply(context.Background(), mutation.Batch{Puts: []mutation.Put{{Table: []byte("audit")}}})

		assert.ErrorIs(t, err, persistence.ErrUnavailable)
		close(blocked.block)
		assert.NoError(t, <-done)
	})
}
