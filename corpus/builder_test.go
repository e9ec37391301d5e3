package corpus

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	aimock "github.com/tramovia/rutabot/ai/mock"
	"github.com/tramovia/rutabot/core"
	"github.com/tramovia/rutabot/datasource"
	"github.com/tramovia/rutabot/datasource/mock"
	"github.com/tramovia/rutabot/embedding"
)

func testSource() *mock.MockSource {
	source := mock.NewMockSource()
	source.RoutesData = []datasource.RouteRow{
		{ID: 1, Name: "Norte", Origin: []byte(`{"type":"Point","coordinates":[-76.53,3.45]}`), InstitutionID: "inst-1"},
		{ID: 2, Name: "Sur", InstitutionID: "inst-2"},
	}
	source.InstitutionsData = []datasource.InstitutionRow{
		{ID: "inst-1", Name: "Colegio Central"},
		{ID: "inst-2", Name: "Universidad del Valle"},
	}
	source.VehiclesData = []datasource.VehicleRow{
		{ID: 10, Plate: "ABC123", InstitutionID: "inst-1"},
	}
	source.TripsData = []datasource.TripRow{
		{ID: 100, Departure: "06:30", Arrival: "07:15", RouteID: 1, InstitutionID: "inst-1"},
		{ID: 101, Departure: "17:30", Arrival: "18:15", RouteID: 2, InstitutionID: "inst-2"},
	}
	return source
}

func testGenerator(t *testing.T) *embedding.Generator {
	t.Helper()
	gen, err := embedding.NewGenerator(aimock.NewMockEmbedder(), embedding.WithRetry(1, time.Millisecond))
	require.NoError(t, err)
	return gen
}

func TestNewBuilder(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		builder, err := NewBuilder(testSource(), testGenerator(t))
		require.NoError(t, err)
		defer builder.Release()
		assert.NotNil(t, builder)
	})

	t.Run("nil source", func(t *testing.T) {
		_, err := NewBuilder(nil, testGenerator(t))
		assert.Equal(t, ErrSourceRequired, err)
	})

	t.Run("nil embedding generator", func(t *testing.T) {
		_, err := NewBuilder(testSource(), nil)
		assert.Equal(t, ErrGeneratorRequired, err)
	})

	t.Run("with pool size", func(t *testing.T) {
		builder, err := NewBuilder(testSource(), testGenerator(t), WithPoolSize(2))
		require.NoError(t, err)
		defer builder.Release()
		assert.NotNil(t, builder)
	})
}

func TestBuild_AllFamilies(t *testing.T) {
	builder, err := NewBuilder(testSource(), testGenerator(t))
	require.NoError(t, err)
	defer builder.Release()

	entries, err := builder.Build(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, entries, 7)

	counts := map[core.EntryType]int{}
	for _, entry := range entries {
		counts[entry.Metadata.EntryType()]++
		assert.NotEmpty(t, entry.ID)
		assert.NotEmpty(t, entry.Content)
		assert.True(t, entry.Embedded())
	}
	assert.Equal(t, 2, counts[core.EntryTypeRoute])
	assert.Equal(t, 2, counts[core.EntryTypeInstitution])
	assert.Equal(t, 1, counts[core.EntryTypeVehicle])
	assert.Equal(t, 2, counts[core.EntryTypeTrip])
}

func TestBuild_FamilyOrderStable(t *testing.T) {
	builder, err := NewBuilder(testSource(), testGenerator(t))
	require.NoError(t, err)
	defer builder.Release()

	entries, err := builder.Build(context.Background(), "")
	require.NoError(t, err)

	// Family concatenation order and within-family row order are fixed even
	// though embedding completion order is not.
	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}
	assert.Equal(t, []string{
		"route_1", "route_2",
		"institution_inst-1", "institution_inst-2",
		"vehicle_10",
		"trip_100", "trip_101",
	}, ids)
}

func TestBuild_InstitutionScoping(t *testing.T) {
	builder, err := NewBuilder(testSource(), testGenerator(t))
	require.NoError(t, err)
	defer builder.Release()

	entries, err := builder.Build(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	for _, entry := range entries {
		assert.Equal(t, "inst-1", entry.Metadata.InstitutionID(), "entry %s", entry.ID)
	}
}

func TestBuild_FailingFamilyDegradesToEmpty(t *testing.T) {
	source := testSource()
	source.VehiclesErr = errors.New("vehicles table unavailable")

	builder, err := NewBuilder(source, testGenerator(t))
	require.NoError(t, err)
	defer builder.Release()

	entries, err := builder.Build(context.Background(), "")
	require.NoError(t, err)

	counts := map[core.EntryType]int{}
	for _, entry := range entries {
		counts[entry.Metadata.EntryType()]++
	}
	assert.Equal(t, 0, counts[core.EntryTypeVehicle])
	assert.Equal(t, 2, counts[core.EntryTypeRoute])
	assert.Equal(t, 2, counts[core.EntryTypeInstitution])
	assert.Equal(t, 2, counts[core.EntryTypeTrip])
}

func TestBuild_AllFamiliesFailing(t *testing.T) {
	source := testSource()
	boom := errors.New("database down")
	source.RoutesErr = boom
	source.InstitutionsErr = boom
	source.VehiclesErr = boom
	source.TripsErr = boom

	builder, err := NewBuilder(source, testGenerator(t))
	require.NoError(t, err)
	defer builder.Release()

	entries, err := builder.Build(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuild_EmbeddingFailureLeavesEntryUnembedded(t *testing.T) {
	embedder := aimock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "ABC123") {
			return nil, errors.New("provider down")
		}
		return []float32{0.1, 0.2, 0.3}, nil
	}
	gen, err := embedding.NewGenerator(embedder, embedding.WithRetry(1, time.Millisecond))
	require.NoError(t, err)

	builder, err := NewBuilder(testSource(), gen)
	require.NoError(t, err)
	defer builder.Release()

	entries, err := builder.Build(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, entries, 7)

	unembedded := 0
	for _, entry := range entries {
		if !entry.Embedded() {
			unembedded++
			assert.Equal(t, core.EntryTypeVehicle, entry.Metadata.EntryType())
		}
	}
	assert.Equal(t, 1, unembedded)
}

func TestBuild_CancelledContext(t *testing.T) {
	builder, err := NewBuilder(testSource(), testGenerator(t))
	require.NoError(t, err)
	defer builder.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = builder.Build(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
