package core

import (
	"fmt"
	"time"
)

// EntryType identifies the record family a corpus entry was synthesized from.
type EntryType string

const (
	EntryTypeRoute       EntryType = "route"
	EntryTypeInstitution EntryType = "institution"
	EntryTypeVehicle     EntryType = "vehicle"
	EntryTypeTrip        EntryType = "trip"
)

// EntryID builds the deterministic corpus entry identifier for a record,
// e.g. "route_42". Identifiers are unique within a single corpus build.
func EntryID(family EntryType, key any) string {
	return fmt.Sprintf("%s_%v", family, key)
}

// GeoPoint is a geographic coordinate extracted from a route's point geometry.
// Valid is false when the geometry was missing or unparseable.
type GeoPoint struct {
	Lat   float64
	Lng   float64
	Valid bool
}

// EntryMetadata is the typed union carried by every corpus entry.
// Concrete implementations are RouteMetadata, InstitutionMetadata,
// VehicleMetadata and TripMetadata.
type EntryMetadata interface {
	// EntryType returns the record family of the metadata.
	EntryType() EntryType

	// InstitutionID returns the owning institution identifier,
	// or "" when the record is not associated with one.
	InstitutionID() string
}

// RouteMetadata carries the structured fields of a transport route.
type RouteMetadata struct {
	RouteID     uint64
	Name        string
	Origin      GeoPoint
	Destination GeoPoint
	DistanceKM  float64
	Institution string
}

func (m RouteMetadata) EntryType() EntryType { return EntryTypeRoute }
func (m RouteMetadata) InstitutionID() string { return m.Institution }

// InstitutionMetadata carries the structured fields of an institution.
type InstitutionMetadata struct {
	Institution string
	Name        string
	Address     string
	BrandColor  string
}

func (m InstitutionMetadata) EntryType() EntryType { return EntryTypeInstitution }

func (m InstitutionMetadata) InstitutionID() string { return m.Institution }

// VehicleMetadata carries the structured fields of a validated vehicle.
type VehicleMetadata struct {
	VehicleID   uint64
	Plate       string
	Kind        string
	Color       string
	Model       string
	Institution string
}

func (m VehicleMetadata) EntryType() EntryType { return EntryTypeVehicle }
func (m VehicleMetadata) InstitutionID() string { return m.Institution }

// TripMetadata carries the structured fields of a scheduled trip.
// It deliberately holds no personally identifying information.
type TripMetadata struct {
	TripID      uint64
	Date        time.Time
	Departure   string
	Arrival     string
	RouteID     uint64
	Institution string
}

func (m TripMetadata) EntryType() EntryType { return EntryTypeTrip }
func (m TripMetadata) InstitutionID() string { return m.Institution }

// CorpusEntry is one retrievable unit of the knowledge corpus: a synthesized
// natural-language description of a record, its typed metadata and the
// embedding of the description.
//
// Vector is nil only when embedding the content failed after retries; such
// entries stay in the corpus for accounting but are excluded from ranking.
type CorpusEntry struct {
	ID       string
	Content  string
	Metadata EntryMetadata
	Vector   []float32
}

// Embedded reports whether the entry carries a usable embedding.
func (e *CorpusEntry) Embedded() bool {
	return len(e.Vector) > 0
}

// Role identifies the author of a chat message.
type Role int

const (
	// RoleUser represents the human asking questions.
	RoleUser Role = iota + 1
	// RoleAssistant represents the answering engine.
	RoleAssistant
)

// ChatMessage is a single message of the visible transcript.
// IDs are unique per session and monotonically creation-ordered.
type ChatMessage struct {
	ID        uint64
	Role      Role
	Content   string
	Timestamp time.Time
}

// Source attributes part of an answer to the corpus entry it was grounded on.
type Source struct {
	ID       string
	Type     EntryType
	Content  string
	Metadata EntryMetadata
}

// Answer is the result of one question-answer round trip.
type Answer struct {
	Message string
	Sources []Source
}

// CorpusStats is a synchronous snapshot of the corpus owned by an engine.
type CorpusStats struct {
	Total       int
	ByType      map[EntryType]int
	Unembedded  int
	Ready       bool
	Fingerprint uint64
}
