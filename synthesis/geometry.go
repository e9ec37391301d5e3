package synthesis

import (
	"encoding/json"
	"fmt"

	"github.com/tramovia/rutabot/core"
)

// locationUnavailable is emitted whenever a point geometry is missing or
// unparseable, so a bad coordinate never fails the whole record.
const locationUnavailable = "Ubicación no disponible"

// pointGeometry matches the nested GeoJSON-style payload stored by the data
// source: {"type":"Point","coordinates":[lng,lat]}.
type pointGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// flatPoint matches the legacy flat payload: {"lat":...,"lng":...}.
type flatPoint struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// ParsePoint extracts a geographic point from a raw geometry payload.
// It accepts both the GeoJSON point shape and the legacy flat shape;
// anything else yields an invalid point.
func ParsePoint(raw []byte) core.GeoPoint {
	if len(raw) == 0 {
		return core.GeoPoint{}
	}

	var geo pointGeometry
	if err := json.Unmarshal(raw, &geo); err == nil && len(geo.Coordinates) >= 2 {
		// GeoJSON order is [lng, lat]
		return core.GeoPoint{Lat: geo.Coordinates[1], Lng: geo.Coordinates[0], Valid: true}
	}

	var flat flatPoint
	if err := json.Unmarshal(raw, &flat); err == nil && flat.Lat != nil && flat.Lng != nil {
		return core.GeoPoint{Lat: *flat.Lat, Lng: *flat.Lng, Valid: true}
	}

	return core.GeoPoint{}
}

// FormatPoint renders a point as a human-readable location line,
// or the unavailable placeholder for invalid points.
func FormatPoint(p core.GeoPoint) string {
	if !p.Valid {
		return locationUnavailable
	}
	return fmt.Sprintf("Ubicación: %.6f, %.6f", p.Lat, p.Lng)
}
