package datasource

import (
	"context"
	"time"
)

// RouteRow is one transport route as returned by the data source.
// Origin and Destination hold the raw point-geometry payloads; parsing
// them is the synthesizer's concern.
type RouteRow struct {
	ID            uint64
	Name          string
	Origin        []byte
	Destination   []byte
	DistanceKM    float64
	InstitutionID string
}

// InstitutionRow is one institution as returned by the data source.
type InstitutionRow struct {
	ID         string
	Name       string
	Address    string
	BrandColor string
}

// VehicleRow is one validated vehicle as returned by the data source.
type VehicleRow struct {
	ID            uint64
	Plate         string
	Kind          string
	Color         string
	Model         string
	InstitutionID string
}

// TripRow is one scheduled trip as returned by the data source.
// It carries no personally identifying information.
type TripRow struct {
	ID            uint64
	Date          time.Time
	Departure     string
	Arrival       string
	RouteID       uint64
	InstitutionID string
}

// Source exposes read-only queries over the four record families.
// An empty institutionID means unscoped: every eligible record is returned.
// Row order within a family is stable for a given backing dataset.
// Implementations must be thread-safe for concurrent use.
type Source interface {
	// Routes returns transport routes, optionally scoped to one institution.
	Routes(ctx context.Context, institutionID string) ([]RouteRow, error)

	// Institutions returns institutions, or the single matching row when scoped.
	Institutions(ctx context.Context, institutionID string) ([]InstitutionRow, error)

	// Vehicles returns validated vehicles only. When scoped, a vehicle is
	// eligible if its owner is a registered member of the institution
	// (membership -> ownership join).
	Vehicles(ctx context.Context, institutionID string) ([]VehicleRow, error)

	// Trips returns scheduled trips, optionally scoped through their route's
	// institution.
	Trips(ctx context.Context, institutionID string) ([]TripRow, error)

	// Close releases the underlying connections.
	Close() error
}
