// Package corpus assembles the retrievable knowledge corpus from the four
// record families exposed by the data source.
//
// A build fans out per record (synthesize, then embed) on a bounded worker
// pool and tolerates partial failure: a family whose query fails contributes
// zero entries, and a record whose embedding fails stays in the corpus
// unembedded. A build as a whole only fails on context cancellation.
package corpus

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/tramovia/rutabot/core"
	"github.com/tramovia/rutabot/datasource"
	"github.com/tramovia/rutabot/embedding"
	"github.com/tramovia/rutabot/synthesis"
)

// Builder constructs corpora from a data source and an embedding generator.
type Builder struct {
	source   datasource.Source
	embedder *embedding.Generator
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if b.pool != nil {
			b.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		b.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a new corpus builder.
func NewBuilder(source datasource.Source, embedder *embedding.Generator, opts ...Option) (*Builder, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if embedder == nil {
		return nil, ErrGeneratorRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		source:   source,
		embedder: embedder,
		pool:     pool,
		logger:   slog.Default().With("component", "corpus-builder"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(b); optErr != nil {
			b.Release()
			return nil, optErr
		}
	}

	return b, nil
}

// Build assembles a corpus, optionally scoped to one institution.
// The four family sub-builds run concurrently and are joined; the returned
// slice concatenates them in a fixed family order, each family keeping the
// data source's row order. Only context cancellation makes Build fail.
func (b *Builder) Build(ctx context.Context, institutionID string) ([]core.CorpusEntry, error) {
	var (
		wg           sync.WaitGroup
		routes       []core.CorpusEntry
		institutions []core.CorpusEntry
		vehicles     []core.CorpusEntry
		trips        []core.CorpusEntry
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		routes = b.buildRoutes(ctx, institutionID)
	}()
	go func() {
		defer wg.Done()
		institutions = b.buildInstitutions(ctx, institutionID)
	}()
	go func() {
		defer wg.Done()
		vehicles = b.buildVehicles(ctx, institutionID)
	}()
	go func() {
		defer wg.Done()
		trips = b.buildTrips(ctx, institutionID)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := make([]core.CorpusEntry, 0, len(routes)+len(institutions)+len(vehicles)+len(trips))
	entries = append(entries, routes...)
	entries = append(entries, institutions...)
	entries = append(entries, vehicles...)
	entries = append(entries, trips...)

	b.logger.Info("corpus build complete",
		"institutionID", institutionID,
		"routes", len(routes),
		"institutions", len(institutions),
		"vehicles", len(vehicles),
		"trips", len(trips))

	return entries, nil
}

// Release releases the worker pool.
// The builder should not be used after calling Release.
func (b *Builder) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}

func (b *Builder) buildRoutes(ctx context.Context, institutionID string) []core.CorpusEntry {
	rows, err := b.source.Routes(ctx, institutionID)
	if err != nil {
		b.logger.Error("route query failed, family skipped", "err", err)
		return nil
	}

	entries := make([]core.CorpusEntry, len(rows))
	var wg sync.WaitGroup
	for i, row := range rows {
		wg.Add(1)
		b.submit(func() {
			defer wg.Done()
			content, md := synthesis.DescribeRoute(row)
			entries[i] = b.embedEntry(ctx, core.EntryID(core.EntryTypeRoute, row.ID), content, md)
		})
	}
	wg.Wait()

	return entries
}

func (b *Builder) buildInstitutions(ctx context.Context, institutionID string) []core.CorpusEntry {
	rows, err := b.source.Institutions(ctx, institutionID)
	if err != nil {
		b.logger.Error("institution query failed, family skipped", "err", err)
		return nil
	}

	entries := make([]core.CorpusEntry, len(rows))
	var wg sync.WaitGroup
	for i, row := range rows {
		wg.Add(1)
		b.submit(func() {
			defer wg.Done()
			content, md := synthesis.DescribeInstitution(row)
			entries[i] = b.embedEntry(ctx, core.EntryID(core.EntryTypeInstitution, row.ID), content, md)
		})
	}
	wg.Wait()

	return entries
}

func (b *Builder) buildVehicles(ctx context.Context, institutionID string) []core.CorpusEntry {
	rows, err := b.source.Vehicles(ctx, institutionID)
	if err != nil {
		b.logger.Error("vehicle query failed, family skipped", "err", err)
		return nil
	}

	entries := make([]core.CorpusEntry, len(rows))
	var wg sync.WaitGroup
	for i, row := range rows {
		wg.Add(1)
		b.submit(func() {
			defer wg.Done()
			content, md := synthesis.DescribeVehicle(row)
			entries[i] = b.embedEntry(ctx, core.EntryID(core.EntryTypeVehicle, row.ID), content, md)
		})
	}
	wg.Wait()

	return entries
}

func (b *Builder) buildTrips(ctx context.Context, institutionID string) []core.CorpusEntry {
	rows, err := b.source.Trips(ctx, institutionID)
	if err != nil {
		b.logger.Error("trip query failed, family skipped", "err", err)
		return nil
	}

	entries := make([]core.CorpusEntry, len(rows))
	var wg sync.WaitGroup
	for i, row := range rows {
		wg.Add(1)
		b.submit(func() {
			defer wg.Done()
			content, md := synthesis.DescribeTrip(row)
			entries[i] = b.embedEntry(ctx, core.EntryID(core.EntryTypeTrip, row.ID), content, md)
		})
	}
	wg.Wait()

	return entries
}

// submit schedules a record task on the pool, falling back to running it
// inline if the pool rejects it (e.g. already released).
func (b *Builder) submit(task func()) {
	if err := b.pool.Submit(task); err != nil {
		task()
	}
}

// embedEntry embeds the synthesized content. An unavailable embedding
// provider leaves the entry without a vector; ranking skips such entries.
func (b *Builder) embedEntry(ctx context.Context, id, content string, md core.EntryMetadata) core.CorpusEntry {
	vector, err := b.embedder.Embed(ctx, content)
	if err != nil {
		b.logger.Warn("entry left unembedded", "id", id, "err", err)
		vector = nil
	}

	return core.CorpusEntry{
		ID:       id,
		Content:  content,
		Metadata: md,
		Vector:   vector,
	}
}
