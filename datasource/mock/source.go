package mock

import (
	"context"
	"sync"

	"github.com/tramovia/rutabot/datasource"
)

// MockSource is a test double for datasource.Source backed by in-memory rows.
// Per-family error fields let tests simulate partial data-source failures.
type MockSource struct {
	RoutesData       []datasource.RouteRow
	InstitutionsData []datasource.InstitutionRow
	VehiclesData     []datasource.VehicleRow
	TripsData        []datasource.TripRow

	RoutesErr       error
	InstitutionsErr error
	VehiclesErr     error
	TripsErr        error

	mu        sync.Mutex
	callCount int
}

var _ datasource.Source = (*MockSource)(nil)

// NewMockSource creates an empty mock source.
// Note: Returns concrete type so tests can populate rows and inject errors.
func NewMockSource() *MockSource {
	return &MockSource{}
}

// Routes returns the configured route rows, scoped by institution when asked.
func (m *MockSource) Routes(ctx context.Context, institutionID string) ([]datasource.RouteRow, error) {
	m.bump()
	if m.RoutesErr != nil {
		return nil, m.RoutesErr
	}
	if institutionID == "" {
		return m.RoutesData, nil
	}
	var scoped []datasource.RouteRow
	for _, row := range m.RoutesData {
		if row.InstitutionID == institutionID {
			scoped = append(scoped, row)
		}
	}
	return scoped, nil
}

// Institutions returns the configured institution rows, or the single match.
func (m *MockSource) Institutions(ctx context.Context, institutionID string) ([]datasource.InstitutionRow, error) {
	m.bump()
	if m.InstitutionsErr != nil {
		return nil, m.InstitutionsErr
	}
	if institutionID == "" {
		return m.InstitutionsData, nil
	}
	var scoped []datasource.InstitutionRow
	for _, row := range m.InstitutionsData {
		if row.ID == institutionID {
			scoped = append(scoped, row)
		}
	}
	return scoped, nil
}

// Vehicles returns the configured vehicle rows, scoped by institution when asked.
func (m *MockSource) Vehicles(ctx context.Context, institutionID string) ([]datasource.VehicleRow, error) {
	m.bump()
	if m.VehiclesErr != nil {
		return nil, m.VehiclesErr
	}
	if institutionID == "" {
		return m.VehiclesData, nil
	}
	var scoped []datasource.VehicleRow
	for _, row := range m.VehiclesData {
		if row.InstitutionID == institutionID {
			scoped = append(scoped, row)
		}
	}
	return scoped, nil
}

// Trips returns the configured trip rows, scoped by institution when asked.
func (m *MockSource) Trips(ctx context.Context, institutionID string) ([]datasource.TripRow, error) {
	m.bump()
	if m.TripsErr != nil {
		return nil, m.TripsErr
	}
	if institutionID == "" {
		return m.TripsData, nil
	}
	var scoped []datasource.TripRow
	for _, row := range m.TripsData {
		if row.InstitutionID == institutionID {
			scoped = append(scoped, row)
		}
	}
	return scoped, nil
}

// bump records one family query under the mutex; the corpus builder
// queries families from concurrent goroutines.
func (m *MockSource) bump() {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()
}

// Close is a no-op for mock source.
func (m *MockSource) Close() error {
	return nil
}

// CallCount returns the number of family queries issued.
func (m *MockSource) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears injected errors and the call count. Rows are kept.
func (m *MockSource) Reset() {
	m.RoutesErr = nil
	m.InstitutionsErr = nil
	m.VehiclesErr = nil
	m.TripsErr = nil
	m.callCount = 0
}
