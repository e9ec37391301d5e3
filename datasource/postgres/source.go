package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tramovia/rutabot/datasource"
)

// Source implements datasource.Source against a PostgreSQL database.
type Source struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ datasource.Source = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewSource creates a Source over an existing connection pool.
// The pool's lifecycle belongs to the Source after this call; Close
// closes it.
func NewSource(pool *pgxpool.Pool, opts ...Option) (*Source, error) {
	if pool == nil {
		return nil, datasource.ErrPoolRequired
	}

	s := &Source{
		pool:   pool,
		logger: slog.Default().With("component", "postgres-source"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open connects to the database and returns a Source over the new pool.
func Open(ctx context.Context, dsn string, opts ...Option) (*Source, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return NewSource(pool, opts...)
}

// Close closes the underlying pool.
func (s *Source) Close() error {
	s.pool.Close()
	return nil
}

// Routes returns transport routes, optionally scoped to one institution.
func (s *Source) Routes(ctx context.Context, institutionID string) ([]datasource.RouteRow, error) {
	stmt := `SELECT id, name, origin, destination, distance_km, institution_id
FROM routes`
	args := []any{}
	if institutionID != "" {
		stmt += ` WHERE institution_id = $1`
		args = append(args, institutionID)
	}
	stmt += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []datasource.RouteRow
	for rows.Next() {
		var row datasource.RouteRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Origin, &row.Destination,
			&row.DistanceKM, &row.InstitutionID); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Institutions returns institutions, or the single matching row when scoped.
func (s *Source) Institutions(ctx context.Context, institutionID string) ([]datasource.InstitutionRow, error) {
	stmt := `SELECT id, name, address, brand_color
FROM institutions`
	args := []any{}
	if institutionID != "" {
		stmt += ` WHERE id = $1`
		args = append(args, institutionID)
	}
	stmt += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []datasource.InstitutionRow
	for rows.Next() {
		var row datasource.InstitutionRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Address, &row.BrandColor); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// vehiclesQuery builds the statement for one vehicle listing. The membership
// join exists only in the scoped variant; owners can belong to several
// institutions, and joining membership unscoped would repeat a vehicle once
// per membership. Unscoped rows carry an empty institution.
func vehiclesQuery(institutionID string) (string, []any) {
	if institutionID != "" {
		return `SELECT v.id, v.plate, v.kind, v.color, v.model, m.institution_id
FROM vehicles v
JOIN institution_members m ON m.user_id = v.owner_id
WHERE v.validated = true AND m.institution_id = $1
ORDER BY v.id`, []any{institutionID}
	}
	return `SELECT v.id, v.plate, v.kind, v.color, v.model, ''::text
FROM vehicles v
WHERE v.validated = true
ORDER BY v.id`, nil
}

// Vehicles returns validated vehicles. When scoped, eligibility requires the
// owner to be a registered member of the institution.
func (s *Source) Vehicles(ctx context.Context, institutionID string) ([]datasource.VehicleRow, error) {
	stmt, args := vehiclesQuery(institutionID)

	rows, err := s.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []datasource.VehicleRow
	for rows.Next() {
		var row datasource.VehicleRow
		if err := rows.Scan(&row.ID, &row.Plate, &row.Kind, &row.Color,
			&row.Model, &row.InstitutionID); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Trips returns scheduled trips; scoping goes through the owning route's
// institution.
func (s *Source) Trips(ctx context.Context, institutionID string) ([]datasource.TripRow, error) {
	stmt := `SELECT t.id, t.trip_date, t.departure_time, t.arrival_time, t.route_id, r.institution_id
FROM trips t
JOIN routes r ON r.id = t.route_id`
	args := []any{}
	if institutionID != "" {
		stmt += ` WHERE r.institution_id = $1`
		args = append(args, institutionID)
	}
	stmt += ` ORDER BY t.id`

	rows, err := s.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []datasource.TripRow
	for rows.Next() {
		var row datasource.TripRow
		if err := rows.Scan(&row.ID, &row.Date, &row.Departure, &row.Arrival,
			&row.RouteID, &row.InstitutionID); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
