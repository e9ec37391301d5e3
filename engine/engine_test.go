package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	aimock "github.com/tramovia/rutabot/ai/mock"
	"github.com/tramovia/rutabot/core"
	"github.com/tramovia/rutabot/corpus"
	"github.com/tramovia/rutabot/datasource"
	dsmock "github.com/tramovia/rutabot/datasource/mock"
	"github.com/tramovia/rutabot/embedding"
)

type fixture struct {
	engine    *Engine
	source    *dsmock.MockSource
	embedder  *aimock.MockEmbedder
	generator *aimock.MockGenerator
	builder   *corpus.Builder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	source := dsmock.NewMockSource()
	source.RoutesData = []datasource.RouteRow{
		{ID: 1, Name: "Norte", Origin: []byte(`{"type":"Point","coordinates":[-76.53,3.45]}`), Destination: []byte(`{"type":"Point","coordinates":[-76.51,3.47]}`), DistanceKM: 12.5, InstitutionID: "inst-1"},
	}
	source.InstitutionsData = []datasource.InstitutionRow{
		{ID: "inst-1", Name: "Colegio Central", Address: "Calle 10 #5-20"},
	}
	source.VehiclesData = []datasource.VehicleRow{
		{ID: 10, Plate: "ABC123", Kind: "bus", Model: "2020", InstitutionID: "inst-1"},
	}
	source.TripsData = []datasource.TripRow{
		{ID: 100, Departure: "06:30", Arrival: "07:15", RouteID: 1, InstitutionID: "inst-1"},
	}

	embedder := aimock.NewMockEmbedder()
	gen, err := embedding.NewGenerator(embedder, embedding.WithRetry(1, time.Millisecond))
	require.NoError(t, err)

	builder, err := corpus.NewBuilder(source, gen)
	require.NoError(t, err)
	t.Cleanup(builder.Release)

	generator := aimock.NewMockGenerator()

	eng, err := NewEngine(builder, gen, generator, opts...)
	require.NoError(t, err)

	return &fixture{
		engine:    eng,
		source:    source,
		embedder:  embedder,
		generator: generator,
		builder:   builder,
	}
}

func TestNewEngine(t *testing.T) {
	f := newFixture(t)

	t.Run("nil builder", func(t *testing.T) {
		gen, err := embedding.NewGenerator(aimock.NewMockEmbedder())
		require.NoError(t, err)
		_, err = NewEngine(nil, gen, aimock.NewMockGenerator())
		assert.Equal(t, ErrBuilderRequired, err)
	})

	t.Run("nil embedding generator", func(t *testing.T) {
		_, err := NewEngine(f.builder, nil, aimock.NewMockGenerator())
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("nil text generator", func(t *testing.T) {
		gen, err := embedding.NewGenerator(aimock.NewMockEmbedder())
		require.NoError(t, err)
		_, err = NewEngine(f.builder, gen, nil)
		assert.Equal(t, ErrGeneratorRequired, err)
	})

	t.Run("invalid topK", func(t *testing.T) {
		gen, err := embedding.NewGenerator(aimock.NewMockEmbedder())
		require.NoError(t, err)
		_, err = NewEngine(f.builder, gen, aimock.NewMockGenerator(), WithTopK(0))
		assert.Equal(t, ErrInvalidTopK, err)
	})
}

func TestInitialize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.engine.Initialize(ctx))

	stats := f.engine.Stats()
	assert.True(t, stats.Ready)
	assert.Equal(t, 4, stats.Total)

	t.Run("idempotent, does not rebuild", func(t *testing.T) {
		before := f.source.CallCount()
		require.NoError(t, f.engine.Initialize(ctx))
		assert.Equal(t, before, f.source.CallCount())
	})
}

func TestStatsDuringBuild(t *testing.T) {
	f := newFixture(t)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		once.Do(func() { close(started) })
		<-release
		return []float32{0.1, 0.2, 0.3}, nil
	}

	initDone := make(chan error, 1)
	go func() {
		initDone <- f.engine.Initialize(context.Background())
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("corpus build never started")
	}

	// Stats must answer while the build is in flight, reporting not ready.
	statsCh := make(chan core.CorpusStats, 1)
	go func() { statsCh <- f.engine.Stats() }()

	select {
	case stats := <-statsCh:
		assert.False(t, stats.Ready)
		assert.Zero(t, stats.Total)
	case <-time.After(time.Second):
		t.Fatal("Stats blocked while the corpus was building")
	}

	close(release)
	require.NoError(t, <-initDone)
	assert.True(t, f.engine.Stats().Ready)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("requires a built corpus", func(t *testing.T) {
		assert.Equal(t, ErrNotReady, f.engine.Refresh(ctx))
	})

	require.NoError(t, f.engine.Initialize(ctx))

	t.Run("picks up new records", func(t *testing.T) {
		f.source.RoutesData = append(f.source.RoutesData, datasource.RouteRow{ID: 2, Name: "Sur", InstitutionID: "inst-1"})
		require.NoError(t, f.engine.Refresh(ctx))

		stats := f.engine.Stats()
		assert.Equal(t, 5, stats.Total)
		assert.Equal(t, 2, stats.ByType[core.EntryTypeRoute])
	})

	t.Run("fingerprint changes with corpus content", func(t *testing.T) {
		before := f.engine.Stats().Fingerprint
		f.source.RoutesData[0].Name = "Norte Expreso"
		require.NoError(t, f.engine.Refresh(ctx))
		assert.NotEqual(t, before, f.engine.Stats().Fingerprint)
	})
}

func TestAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("auto-initializes on first call", func(t *testing.T) {
		f := newFixture(t)
		answer, err := f.engine.Answer(ctx, "¿qué rutas hay?", nil)
		require.NoError(t, err)
		assert.Equal(t, "respuesta generada", answer.Message)
		assert.True(t, f.engine.Stats().Ready)
	})

	t.Run("sources come from the corpus in ranked order", func(t *testing.T) {
		f := newFixture(t)
		answer, err := f.engine.Answer(ctx, "¿qué vehículos hay?", nil)
		require.NoError(t, err)
		require.Len(t, answer.Sources, 4)
		for _, src := range answer.Sources {
			assert.NotEmpty(t, src.ID)
			assert.NotEmpty(t, src.Content)
			assert.NotNil(t, src.Metadata)
		}
	})

	t.Run("topK bounds the retrieved sources", func(t *testing.T) {
		f := newFixture(t, WithTopK(2))
		answer, err := f.engine.Answer(ctx, "horarios", nil)
		require.NoError(t, err)
		assert.Len(t, answer.Sources, 2)
	})

	t.Run("prompt carries context, history and question", func(t *testing.T) {
		f := newFixture(t)
		history := []core.ChatMessage{
			{ID: 1, Role: core.RoleUser, Content: "hola"},
			{ID: 2, Role: core.RoleAssistant, Content: "buenas"},
		}
		_, err := f.engine.Answer(ctx, "¿cuánto mide la ruta Norte?", history)
		require.NoError(t, err)

		prompt := f.generator.LastPrompt()
		assert.Contains(t, prompt, "Contexto:")
		assert.Contains(t, prompt, "Ruta Norte")
		assert.Contains(t, prompt, "Usuario: hola")
		assert.Contains(t, prompt, "Asistente: buenas")
		assert.Contains(t, prompt, "Pregunta: ¿cuánto mide la ruta Norte?")
	})

	t.Run("generation failure yields apology with no sources", func(t *testing.T) {
		f := newFixture(t)
		f.generator.GenerateTextFunc = func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("provider down")
		}

		answer, err := f.engine.Answer(ctx, "hola", nil)
		require.NoError(t, err)
		assert.Equal(t, ApologyText, answer.Message)
		assert.Empty(t, answer.Sources)
	})

	t.Run("question embedding failure yields apology", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.engine.Initialize(ctx))
		f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("provider down")
		}

		answer, err := f.engine.Answer(ctx, "hola", nil)
		require.NoError(t, err)
		assert.Equal(t, ApologyText, answer.Message)
		assert.Empty(t, answer.Sources)
	})

	t.Run("single-entry corpus is always retrieved", func(t *testing.T) {
		source := dsmock.NewMockSource()
		source.RoutesData = []datasource.RouteRow{
			{ID: 7, Name: "Única", Origin: []byte(`{"type":"Point","coordinates":[-76.53,3.45]}`), DistanceKM: 3.2},
		}

		gen, err := embedding.NewGenerator(aimock.NewMockEmbedder(), embedding.WithRetry(1, time.Millisecond))
		require.NoError(t, err)
		builder, err := corpus.NewBuilder(source, gen)
		require.NoError(t, err)
		defer builder.Release()

		eng, err := NewEngine(builder, gen, aimock.NewMockGenerator())
		require.NoError(t, err)

		answer, err := eng.Answer(ctx, "cualquier pregunta sin relación alguna", nil)
		require.NoError(t, err)
		require.Len(t, answer.Sources, 1)
		assert.Equal(t, "route_7", answer.Sources[0].ID)
		assert.Contains(t, answer.Sources[0].Content, "Punto de partida: Ubicación: 3.450000, -76.530000")
	})
}

func TestAnswer_InstitutionScoped(t *testing.T) {
	f := newFixture(t, WithInstitution("inst-2"))
	f.source.RoutesData = append(f.source.RoutesData, datasource.RouteRow{ID: 3, Name: "Oeste", InstitutionID: "inst-2"})

	answer, err := f.engine.Answer(context.Background(), "rutas", nil)
	require.NoError(t, err)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "inst-2", answer.Sources[0].Metadata.InstitutionID())
}

func TestWelcomeMessage(t *testing.T) {
	f := newFixture(t)

	msg := f.engine.WelcomeMessage()
	assert.Equal(t, WelcomeText, msg)
	assert.True(t, strings.Contains(msg, "rutas"))

	// Usable before Initialize: no provider or data-source calls happen.
	assert.Equal(t, 0, f.source.CallCount())
	assert.Equal(t, 0, f.embedder.CallCount())
}

func TestStats(t *testing.T) {
	f := newFixture(t)

	t.Run("before initialization", func(t *testing.T) {
		stats := f.engine.Stats()
		assert.False(t, stats.Ready)
		assert.Zero(t, stats.Total)
	})

	t.Run("after initialization", func(t *testing.T) {
		require.NoError(t, f.engine.Initialize(context.Background()))

		stats := f.engine.Stats()
		assert.True(t, stats.Ready)
		assert.Equal(t, 4, stats.Total)
		assert.Equal(t, 1, stats.ByType[core.EntryTypeRoute])
		assert.Equal(t, 1, stats.ByType[core.EntryTypeInstitution])
		assert.Equal(t, 1, stats.ByType[core.EntryTypeVehicle])
		assert.Equal(t, 1, stats.ByType[core.EntryTypeTrip])
		assert.Zero(t, stats.Unembedded)
		assert.NotZero(t, stats.Fingerprint)
	})
}

func TestCleanup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.engine.Initialize(ctx))
	f.engine.Cleanup()

	stats := f.engine.Stats()
	assert.False(t, stats.Ready)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.Fingerprint)

	// Reinitialization rebuilds from scratch.
	require.NoError(t, f.engine.Initialize(ctx))
	assert.True(t, f.engine.Stats().Ready)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "initializing", StateInitializing.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "refreshing", StateRefreshing.String())
	assert.Equal(t, "unknown", State(99).String())
}
