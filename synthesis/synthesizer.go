// Copyright 2025 Tramovia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package synthesis turns raw data-source records into the natural-language
// descriptions the corpus is built from, one mapping per record family.
//
// Synthesis never fails: any field-level problem degrades to a placeholder
// string so one bad record can never abort a corpus build.
package synthesis

import (
	"fmt"
	"strings"
	"time"

	"github.com/tramovia/rutabot/core"
	"github.com/tramovia/rutabot/datasource"
)

// fieldUnknown replaces any empty text field in a synthesized description.
const fieldUnknown = "sin información"

// DescribeRoute synthesizes the description and metadata of a transport route.
func DescribeRoute(row datasource.RouteRow) (string, core.RouteMetadata) {
	origin := ParsePoint(row.Origin)
	destination := ParsePoint(row.Destination)

	content := fmt.Sprintf(
		"Ruta %s. Punto de partida: %s. Punto de llegada: %s. Longitud del recorrido: %.2f km.",
		orUnknown(row.Name),
		FormatPoint(origin),
		FormatPoint(destination),
		row.DistanceKM,
	)

	return content, core.RouteMetadata{
		RouteID:     row.ID,
		Name:        row.Name,
		Origin:      origin,
		Destination: destination,
		DistanceKM:  row.DistanceKM,
		Institution: row.InstitutionID,
	}
}

// DescribeInstitution synthesizes the description and metadata of an institution.
func DescribeInstitution(row datasource.InstitutionRow) (string, core.InstitutionMetadata) {
	content := fmt.Sprintf(
		"Institución %s. Dirección: %s. Color distintivo: %s. Ofrece servicio de transporte para sus miembros.",
		orUnknown(row.Name),
		orUnknown(row.Address),
		orUnknown(row.BrandColor),
	)

	return content, core.InstitutionMetadata{
		Institution: row.ID,
		Name:        row.Name,
		Address:     row.Address,
		BrandColor:  row.BrandColor,
	}
}

// DescribeVehicle synthesizes the description and metadata of a vehicle.
// Only validated vehicles reach this point; the data source filters the rest.
func DescribeVehicle(row datasource.VehicleRow) (string, core.VehicleMetadata) {
	content := fmt.Sprintf(
		"Vehículo validado. Placa: %s. Tipo: %s. Color: %s. Modelo: %s.",
		orUnknown(row.Plate),
		orUnknown(row.Kind),
		orUnknown(row.Color),
		orUnknown(row.Model),
	)

	return content, core.VehicleMetadata{
		VehicleID:   row.ID,
		Plate:       row.Plate,
		Kind:        row.Kind,
		Color:       row.Color,
		Model:       row.Model,
		Institution: row.InstitutionID,
	}
}

// DescribeTrip synthesizes the description and metadata of a scheduled trip.
// The description carries schedule data only, never personal information.
func DescribeTrip(row datasource.TripRow) (string, core.TripMetadata) {
	date := fieldUnknown
	if !row.Date.IsZero() {
		date = row.Date.Format("2006-01-02")
	}

	content := fmt.Sprintf(
		"Viaje programado para el %s. Hora de salida: %s. Hora de llegada: %s.",
		date,
		orUnknown(row.Departure),
		orUnknown(row.Arrival),
	)

	return content, core.TripMetadata{
		TripID:      row.ID,
		Date:        row.Date.Truncate(24 * time.Hour),
		Departure:   row.Departure,
		Arrival:     row.Arrival,
		RouteID:     row.RouteID,
		Institution: row.InstitutionID,
	}
}

// orUnknown substitutes the placeholder for empty or blank fields.
func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return fieldUnknown
	}
	return s
}
