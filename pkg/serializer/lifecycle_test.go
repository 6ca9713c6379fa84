package serializer

import (
	"testing"

	"github.com/Sokol111/eventsink/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func assertInvariant(t *testing.T, err error, op string, phase Phase) {
	t.Helper()

	require.ErrorIs(t, err, ErrInvariant)
	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, op, invErr.Op)
	assert.Equal(t, phase, invErr.Phase)
}

func TestLifecycle_Order(t *testing.T) {
	t.Run("initialize before configure", func(t *testing.T) {
		s := NewJSONSerializer(zap.NewNop())

		err := s.Initialize([]byte("t"), []byte("d"))

		assertInvariant(t, err, "Initialize", PhaseUnconfigured)
	})

	t.Run("configure twice", func(t *testing.T) {
		s := NewJSONSerializer(zap.NewNop())
		require.NoError(t, s.Configure(nil))

		err := s.Configure(nil)

		assertInvariant(t, err, "Configure", PhaseConfigured)
	})

	t.Run("set event before initialize", func(t *testing.T) {
		s := NewJSONSerializer(zap.NewNop())
		require.NoError(t, s.Configure(nil))

		err := s.SetEvent(event.New([]byte(`{}`), nil))

		assertInvariant(t, err, "SetEvent", PhaseConfigured)
	})

	t.Run("actions without event", func(t *testing.T) {
		s, _ := newTestJSONSerializer(t, nil)

		_, err := s.Actions()

		assertInvariant(t, err, "Actions", PhaseInitialized)
	})

	t.Run("actions twice for one event", func(t *testing.T) {
		s, _ := newTestJSONSerializer(t, nil)
		require.NoError(t, s.SetEvent(event.New([]byte(`{"a":"b"}`), nil)))
		_, err := s.Actions()
		require.NoError(t, err)

		_, err = s.Actions()

		assertInvariant(t, err, "Actions", PhaseDrained)
	})

	t.Run("increments without event", func(t *testing.T) {
		s, _ := newTestJSONSerializer(t, nil)

		_, err := s.Increments()

		assertInvariant(t, err, "Increments", PhaseInitialized)
	})

	t.Run("increments before actions", func(t *testing.T) {
		s, _ := newTestJSONSerializer(t, map[string]string{KeyIncrementColumn: "n"})
		require.NoError(t, s.SetEvent(event.New([]byte(`{}`), nil)))

		incs, err := s.Increments()

		require.NoError(t, err)
		assert.Len(t, incs, 1)
		assert.Equal(t, PhaseArmed, s.Phase())
	})

	t.Run("any call after clean up", func(t *testing.T) {
		s, _ := newTestJSONSerializer(t, nil)
		s.CleanUp()
		assert.Equal(t, PhaseClosed, s.Phase())

		assertInvariant(t, s.SetEvent(event.New(nil, nil)), "SetEvent", PhaseClosed)
		_, err := s.Actions()
		assertInvariant(t, err, "Actions", PhaseClosed)
		_, err = s.Increments()
		assertInvariant(t, err, "Increments", PhaseClosed)
		assertInvariant(t, s.Configure(nil), "Configure", PhaseClosed)
	})
}

func TestLifecycle_Phases(t *testing.T) {
	s := NewJSONSerializer(nil)
	assert.Equal(t, PhaseUnconfigured, s.Phase())

	require.NoError(t, s.Configure(nil))
	assert.Equal(t, PhaseConfigured, s.Phase())

	require.NoError(t, s.Initialize([]byte("t"), []byte("d")))
	assert.Equal(t, PhaseInitialized, s.Phase())

	require.NoError(t, s.SetEvent(event.New([]byte(`{}`), nil)))
	assert.Equal(t, PhaseArmed, s.Phase())

	_, err := s.Actions()
	require.NoError(t, err)
	assert.Equal(t, PhaseDrained, s.Phase())

	require.NoError(t, s.SetEvent(event.New([]byte(`{}`), nil)))
	assert.Equal(t, PhaseArmed, s.Phase())

	s.CleanUp()
	assert.Equal(t, PhaseClosed, s.Phase())
}

func TestInitialize_RequiresTableAndFamily(t *testing.T) {
	tests := []struct {
		name  string
		table []byte
		cf    []byte
		key   string
	}{
		{name: "empty table", table: nil, cf: []byte("d"), key: "table"},
		{name: "empty family", table: []byte("t"), cf: []byte{}, key: "cf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewJSONSerializer(zap.NewNop())
			require.NoError(t, s.Configure(nil))

			err := s.Initialize(tt.table, tt.cf)

			require.ErrorIs(t, err, ErrConfig)
			var confErr *ConfigError
			require.ErrorAs(t, err, &confErr)
			assert.Equal(t, tt.key, confErr.Key)
			assert.Equal(t, PhaseConfigured, s.Phase())
		})
	}
}

func TestInitialize_CopiesNames(t *testing.T) {
	table := []byte("events")
	s := NewJSONSerializer(zap.NewNop())
	require.NoError(t, s.Configure(nil))
	require.NoError(t, s.Initialize(table, []byte("d")))

	table[0] = 'X'
	require.NoError(t, s.SetEvent(event.New([]byte(`{"a":"b"}`), nil)))
	puts, err := s.Actions()

	require.NoError(t, err)
	require.Len(t, puts, 1)
	assert.Equal(t, []byte("events"), puts[0].Table)
}

func TestNew(t *testing.T) {
	for _, kind := range []string{"", KindJSON} {
		s, err := New(kind, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &JSONSerializer{}, s)
	}

	s, err := New(KindSimple, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SimpleSerializer{}, s)

	_, err = New("avro", zap.NewNop())
	assert.ErrorIs(t, err, ErrConfig)
}
