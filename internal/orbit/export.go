package orbit

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
)

// SnapshotExport is the JSON-serializable representation of all planet
// positions at one instant.
type SnapshotExport struct {
	At             time.Time    `json:"at"`
	JulianDay      float64      `json:"julian_day"`
	DaysSinceJ2000 float64      `json:"days_since_j2000"`
	Bodies         []BodyExport `json:"bodies"`
}

// BodyExport is a JSON-friendly planet position with derived fields.
type BodyExport struct {
	ID             bodies.ID `json:"id"`
	Name           string    `json:"name"`
	X              float64   `json:"x_au"`
	Y              float64   `json:"y_au"`
	Z              float64   `json:"z_au"`
	R              float64   `json:"r_au"`
	TrueAnomalyDeg float64   `json:"true_anomaly_deg"`
	OrbitAngleDeg  float64   `json:"orbit_angle_deg"`
	EclipticLonDeg float64   `json:"ecliptic_lon_deg"`
	EclipticLatDeg float64   `json:"ecliptic_lat_deg"`
	LightTimeSec   float64   `json:"light_time_seconds"`
}

// ExportSnapshot converts positions to an exportable format in planet order.
// Bodies missing from positions are skipped.
func ExportSnapshot(positions map[bodies.ID]HeliocentricPosition, at time.Time) *SnapshotExport {
	export := &SnapshotExport{
		At:             at.UTC(),
		JulianDay:      astro.JulianDay(at),
		DaysSinceJ2000: astro.DaysSinceJ2000(at),
	}
	for _, id := range bodies.Planets {
		pos, ok := positions[id]
		if !ok {
			continue
		}
		v := pos.Vec()
		export.Bodies = append(export.Bodies, BodyExport{
			ID:             id,
			Name:           bodies.MustLookup(id).Name,
			X:              pos.X,
			Y:              pos.Y,
			Z:              pos.Z,
			R:              pos.R,
			TrueAnomalyDeg: pos.TrueAnomalyDeg,
			OrbitAngleDeg:  pos.OrbitAngleDeg,
			EclipticLonDeg: astro.EclipticLongitude(v),
			EclipticLatDeg: astro.EclipticLatitude(v),
			LightTimeSec:   astro.LightTimeFromAU(pos.R),
		})
	}
	return export
}

// WriteJSON writes the snapshot as JSON to the given writer.
func (s *SnapshotExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// SummaryRow represents one row in the summary table.
type SummaryRow struct {
	Name     string
	Distance string
	Lon      string
	Lat      string
	Anomaly  string
	Light    string
}

// GenerateSummaryRows creates summary rows from an export.
func GenerateSummaryRows(s *SnapshotExport) []SummaryRow {
	if s == nil {
		return nil
	}
	rows := make([]SummaryRow, 0, len(s.Bodies))
	for _, b := range s.Bodies {
		rows = append(rows, SummaryRow{
			Name:     b.Name,
			Distance: fmt.Sprintf("%.4f", b.R),
			Lon:      fmt.Sprintf("%.2f°", b.EclipticLonDeg),
			Lat:      fmt.Sprintf("%+.2f°", b.EclipticLatDeg),
			Anomaly:  fmt.Sprintf("%.2f°", b.TrueAnomalyDeg),
			Light:    astro.FormatLightTime(b.LightTimeSec),
		})
	}
	return rows
}

// WriteSummaryTable writes a text table to the given writer. Colorize, when
// non-nil, styles each body name.
func WriteSummaryTable(w io.Writer, s *SnapshotExport, colorize func(id bodies.ID, name string) string) {
	fmt.Fprintf(w, "Planet positions @ %s (JD %.4f)\n", s.At.Format(time.RFC3339), s.JulianDay)
	fmt.Fprintln(w, strings.Repeat("─", 72))

	rows := GenerateSummaryRows(s)
	if len(rows) == 0 {
		fmt.Fprintln(w, "No positions")
		return
	}

	fmt.Fprintf(w, "%-10s %10s %10s %9s %10s %10s\n",
		"Body", "Dist AU", "Ecl Lon", "Ecl Lat", "True Anom", "Light")
	fmt.Fprintln(w, strings.Repeat("─", 72))

	for i, r := range rows {
		name := fmt.Sprintf("%-10s", truncateStr(r.Name, 10))
		if colorize != nil {
			name = colorize(s.Bodies[i].ID, name)
		}
		fmt.Fprintf(w, "%s %10s %10s %9s %10s %10s\n", name, r.Distance, r.Lon, r.Lat, r.Anomaly, r.Light)
	}

	fmt.Fprintf(w, "\nTotal: %d bodies\n", len(rows))
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
