package session

import (
	"context"
	"errors"
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
	"github.com/tramovia/rutabot/engine"
	"github.com/tramovia/rutabot/storage"
	badgerstore "github.com/tramovia/rutabot/storage/badger"
)

type fixture struct {
	orchestrator *Orchestrator
	engine       *engine.Engine
	source       *dsmock.MockSource
	generator    *aimock.MockGenerator
}

func newEngine(t *testing.T) (*engine.Engine, *dsmock.MockSource, *aimock.MockGenerator) {
	t.Helper()

	source := dsmock.NewMockSource()
	source.RoutesData = []datasource.RouteRow{
		{ID: 1, Name: "Norte", Origin: []byte(`{"type":"Point","coordinates":[-76.53,3.45]}`), DistanceKM: 12.5, InstitutionID: "inst-1"},
	}
	source.InstitutionsData = []datasource.InstitutionRow{
		{ID: "inst-1", Name: "Colegio Central"},
	}

	gen, err := embedding.NewGenerator(aimock.NewMockEmbedder(), embedding.WithRetry(1, time.Millisecond))
	require.NoError(t, err)

	builder, err := corpus.NewBuilder(source, gen)
	require.NoError(t, err)
	t.Cleanup(builder.Release)

	generator := aimock.NewMockGenerator()

	eng, err := engine.NewEngine(builder, gen, generator)
	require.NoError(t, err)

	return eng, source, generator
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	eng, source, generator := newEngine(t)
	orch, err := NewOrchestrator(eng, opts...)
	require.NoError(t, err)
	t.Cleanup(orch.Close)

	return &fixture{
		orchestrator: orch,
		engine:       eng,
		source:       source,
		generator:    generator,
	}
}

func newMemoryStore(t *testing.T) storage.TranscriptStore {
	t.Helper()

	store, backend, err := badgerstore.NewMemoryTranscriptStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		backend.Close()
	})

	return store
}

func TestNewOrchestrator(t *testing.T) {
	t.Run("nil engine", func(t *testing.T) {
		_, err := NewOrchestrator(nil)
		assert.Equal(t, ErrEngineRequired, err)
	})

	t.Run("nil store option", func(t *testing.T) {
		eng, _, _ := newEngine(t)
		_, err := NewOrchestrator(eng, WithTranscriptStore(nil, "s1"))
		assert.Equal(t, ErrStoreRequired, err)
	})

	t.Run("empty session id", func(t *testing.T) {
		eng, _, _ := newEngine(t)
		_, err := NewOrchestrator(eng, WithTranscriptStore(newMemoryStore(t), ""))
		assert.Equal(t, ErrEmptySessionID, err)
	})
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds one welcome message", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.orchestrator.Initialize(ctx))

		assert.True(t, f.orchestrator.IsInitialized())
		assert.Empty(t, f.orchestrator.Err())

		messages := f.orchestrator.Messages()
		require.Len(t, messages, 1)
		assert.Equal(t, core.RoleAssistant, messages[0].Role)
		assert.Equal(t, engine.WelcomeText, messages[0].Content)
	})

	t.Run("captures stats", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.orchestrator.Initialize(ctx))

		stats := f.orchestrator.Stats()
		assert.True(t, stats.Ready)
		assert.Equal(t, 2, stats.Total)
	})

	t.Run("repeat call is a no-op", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.orchestrator.Initialize(ctx))
		before := f.source.CallCount()

		require.NoError(t, f.orchestrator.Initialize(ctx))
		assert.Equal(t, before, f.source.CallCount())
		assert.Len(t, f.orchestrator.Messages(), 1)
	})

	t.Run("failure leaves transcript untouched and sets error", func(t *testing.T) {
		f := newFixture(t)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := f.orchestrator.Initialize(cancelled)
		require.Error(t, err)

		assert.False(t, f.orchestrator.IsInitialized())
		assert.Empty(t, f.orchestrator.Messages())
		assert.NotEmpty(t, f.orchestrator.Err())
	})

	t.Run("recovers after a failed attempt", func(t *testing.T) {
		f := newFixture(t)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		require.Error(t, f.orchestrator.Initialize(cancelled))

		require.NoError(t, f.orchestrator.Initialize(ctx))
		assert.True(t, f.orchestrator.IsInitialized())
		assert.Empty(t, f.orchestrator.Err())
	})
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("appends user and assistant messages", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.orchestrator.Initialize(ctx))

		require.NoError(t, f.orchestrator.SendMessage(ctx, "¿qué rutas hay?"))

		messages := f.orchestrator.Messages()
		require.Len(t, messages, 3)
		assert.Equal(t, core.RoleAssistant, messages[0].Role)
		assert.Equal(t, core.RoleUser, messages[1].Role)
		assert.Equal(t, "¿qué rutas hay?", messages[1].Content)
		assert.Equal(t, core.RoleAssistant, messages[2].Role)
		assert.Equal(t, "respuesta generada", messages[2].Content)
		assert.False(t, f.orchestrator.IsLoading())
	})

	t.Run("message IDs are monotonically increasing", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.orchestrator.Initialize(ctx))
		require.NoError(t, f.orchestrator.SendMessage(ctx, "hola"))
		require.NoError(t, f.orchestrator.SendMessage(ctx, "¿y los horarios?"))

		messages := f.orchestrator.Messages()
		for i := 1; i < len(messages); i++ {
			assert.Greater(t, messages[i].ID, messages[i-1].ID)
		}
	})

	t.Run("before initialize leaves transcript empty and sets error", func(t *testing.T) {
		f := newFixture(t)

		err := f.orchestrator.SendMessage(ctx, "hola")
		assert.Equal(t, ErrNotInitialized, err)
		assert.Empty(t, f.orchestrator.Messages())
		assert.NotEmpty(t, f.orchestrator.Err())
	})

	t.Run("generation failure still answers with the apology", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.orchestrator.Initialize(ctx))

		f.generator.GenerateTextFunc = func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("provider down")
		}

		require.NoError(t, f.orchestrator.SendMessage(ctx, "hola"))

		messages := f.orchestrator.Messages()
		last := messages[len(messages)-1]
		assert.Equal(t, core.RoleAssistant, last.Role)
		assert.Equal(t, engine.ApologyText, last.Content)
	})
}

func TestClearChat(t *testing.T) {
	ctx := context.Background()

	t.Run("after initialize resets to a single welcome message", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.orchestrator.Initialize(ctx))
		require.NoError(t, f.orchestrator.SendMessage(ctx, "hola"))
		require.Len(t, f.orchestrator.Messages(), 3)

		f.orchestrator.ClearChat(ctx)

		messages := f.orchestrator.Messages()
		require.Len(t, messages, 1)
		assert.Equal(t, core.RoleAssistant, messages[0].Role)
	})

	t.Run("before initialize resets to empty", func(t *testing.T) {
		f := newFixture(t)

		f.orchestrator.ClearChat(ctx)
		assert.Empty(t, f.orchestrator.Messages())
	})
}

func TestRefreshKnowledge(t *testing.T) {
	ctx := context.Background()

	t.Run("updates the stats snapshot", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.orchestrator.Initialize(ctx))
		require.Equal(t, 2, f.orchestrator.Stats().Total)

		f.source.RoutesData = append(f.source.RoutesData, datasource.RouteRow{ID: 2, Name: "Sur", InstitutionID: "inst-1"})
		require.NoError(t, f.orchestrator.RefreshKnowledge(ctx))

		assert.Equal(t, 3, f.orchestrator.Stats().Total)
	})

	t.Run("before initialize sets error", func(t *testing.T) {
		f := newFixture(t)

		err := f.orchestrator.RefreshKnowledge(ctx)
		assert.Equal(t, ErrNotInitialized, err)
		assert.NotEmpty(t, f.orchestrator.Err())
	})
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	t.Run("auto-initializes when configured", func(t *testing.T) {
		f := newFixture(t, WithAutoInitialize())

		require.NoError(t, f.orchestrator.Start(ctx))
		assert.True(t, f.orchestrator.IsInitialized())
		assert.Len(t, f.orchestrator.Messages(), 1)
	})

	t.Run("no-op without auto-initialization", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.orchestrator.Start(ctx))
		assert.False(t, f.orchestrator.IsInitialized())
	})
}

func TestTranscriptPersistence(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	eng1, _, _ := newEngine(t)
	first, err := NewOrchestrator(eng1, WithTranscriptStore(store, "user-7"))
	require.NoError(t, err)

	require.NoError(t, first.Initialize(ctx))
	require.NoError(t, first.SendMessage(ctx, "¿qué rutas hay?"))
	sent := first.Messages()
	first.Close()

	eng2, _, _ := newEngine(t)
	second, err := NewOrchestrator(eng2, WithTranscriptStore(store, "user-7"))
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, second.Initialize(ctx))

	restored := second.Messages()
	require.Len(t, restored, len(sent))
	for i := range sent {
		assert.Equal(t, sent[i].ID, restored[i].ID)
		assert.Equal(t, sent[i].Role, restored[i].Role)
		assert.Equal(t, sent[i].Content, restored[i].Content)
	}

	// New messages continue the restored ID sequence.
	require.NoError(t, second.SendMessage(ctx, "gracias"))
	all := second.Messages()
	assert.Greater(t, all[len(all)-1].ID, restored[len(restored)-1].ID)
}
