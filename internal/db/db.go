// Package db is the capture log: every fix, corner, and telemetry record
// that passed through a survey is written to SQLite for post-survey
// diagnostics and report generation. The parcel polygon handed back to the
// caller is stored alongside for convenience; it is not the system of
// record for parcels.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/Imbaya/shamba-sub000/internal/geo"
	"github.com/Imbaya/shamba-sub000/internal/sensor"
	"github.com/Imbaya/shamba-sub000/internal/survey"
	"github.com/Imbaya/shamba-sub000/internal/telemetry"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the capture log at path and applies the schema
// migrations. Use ":memory:" for an ephemeral log.
func NewDB(path string) (*DB, error) {
	database, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := database.MigrateUp(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate capture log: %w", err)
	}
	return database, nil
}

// OpenDB opens the database without touching the schema. The migrate
// subcommand uses this so migrations stay explicit.
func OpenDB(path string) (*DB, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture log: %w", err)
	}
	if _, err := database.Exec(`PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;`); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	return &DB{database}, nil
}

// CreateSurvey records the start of a capture. mode is "track" or "corners".
func (db *DB) CreateSurvey(id, parcelID, mode string) error {
	_, err := db.Exec(
		`INSERT INTO surveys (id, parcel_id, mode) VALUES (?, ?, ?)`,
		id, parcelID, mode,
	)
	return err
}

// FinishSurvey stores the finished polygon against its survey row.
func (db *DB) FinishSurvey(id string, polygon []geo.Point) error {
	encoded, err := json.Marshal(polygon)
	if err != nil {
		return fmt.Errorf("failed to encode polygon: %w", err)
	}
	_, err = db.Exec(
		`UPDATE surveys SET stopped_at = CURRENT_TIMESTAMP, point_count = ?, polygon = ? WHERE id = ?`,
		len(polygon), string(encoded), id,
	)
	return err
}

// RecordFix logs one raw fix and what the session did with it.
func (db *DB) RecordFix(surveyID string, f sensor.Fix, source, outcome string) error {
	var speed, heading sql.NullFloat64
	if f.SpeedMps != nil {
		speed = sql.NullFloat64{Float64: *f.SpeedMps, Valid: true}
	}
	if f.HeadingDeg != nil {
		heading = sql.NullFloat64{Float64: *f.HeadingDeg, Valid: true}
	}
	_, err := db.Exec(
		`INSERT INTO fixes (survey_id, lat, lng, accuracy_m, speed_mps, heading_deg, source, outcome, timestamp_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		surveyID, f.Point.Lat, f.Point.Lng, f.AccuracyMeters, speed, heading, source, outcome, int64(f.TimestampMs),
	)
	return err
}

// RecordCorner logs one corner window result, successful or failed.
func (db *DB) RecordCorner(surveyID string, r survey.CornerResult) error {
	low := 0
	if r.LowConfidence {
		low = 1
	}
	_, err := db.Exec(
		`INSERT INTO corners (survey_id, lat, lng, confidence_pct, low_confidence, sample_count, received_count, rejected_for_motion, hri, failure)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		surveyID, r.Point.Lat, r.Point.Lng, r.ConfidencePct, low,
		r.SampleCount, r.ReceivedCount, r.RejectedForMotion, r.HRI, string(r.Failure),
	)
	return err
}

// RecordTelemetry logs one reference-device record.
func (db *DB) RecordTelemetry(t telemetry.AnchorTelemetry) error {
	_, err := db.Exec(
		`INSERT INTO telemetry (session_id, measured_lat, measured_lng, truth_lat, truth_lng, delta_north_m, delta_east_m, accuracy_m, timestamp_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.SessionID, t.Measured.Lat, t.Measured.Lng, t.Truth.Lat, t.Truth.Lng,
		t.DeltaNorthMeters, t.DeltaEastMeters, t.AccuracyMeters, int64(t.TimestampMs),
	)
	return err
}

// FixRow is one logged fix as read back for reporting.
type FixRow struct {
	Lat            float64
	Lng            float64
	AccuracyMeters float64
	Source         string
	Outcome        string
	TimestampMs    int64
}

// SurveyFixes returns a survey's fixes in arrival order.
func (db *DB) SurveyFixes(surveyID string) ([]FixRow, error) {
	rows, err := db.Query(
		`SELECT lat, lng, accuracy_m, source, outcome, timestamp_ms FROM fixes
		 WHERE survey_id = ? ORDER BY timestamp_ms ASC`,
		surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fixes []FixRow
	for rows.Next() {
		var f FixRow
		if err := rows.Scan(&f.Lat, &f.Lng, &f.AccuracyMeters, &f.Source, &f.Outcome, &f.TimestampMs); err != nil {
			return nil, err
		}
		fixes = append(fixes, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fixes, nil
}

// CornerRow is one logged corner window as read back for reporting.
type CornerRow struct {
	Lat               float64
	Lng               float64
	ConfidencePct     float64
	LowConfidence     bool
	SampleCount       int
	ReceivedCount     int
	RejectedForMotion int
	HRI               float64
	Failure           string
}

// SurveyCorners returns a survey's corner results in capture order.
func (db *DB) SurveyCorners(surveyID string) ([]CornerRow, error) {
	rows, err := db.Query(
		`SELECT lat, lng, confidence_pct, low_confidence, sample_count, received_count, rejected_for_motion, hri, failure
		 FROM corners WHERE survey_id = ? ORDER BY id ASC`,
		surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var corners []CornerRow
	for rows.Next() {
		var c CornerRow
		var low int
		if err := rows.Scan(&c.Lat, &c.Lng, &c.ConfidencePct, &low, &c.SampleCount, &c.ReceivedCount, &c.RejectedForMotion, &c.HRI, &c.Failure); err != nil {
			return nil, err
		}
		c.LowConfidence = low != 0
		corners = append(corners, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return corners, nil
}

// SurveyPolygon reads back a finished survey's polygon.
func (db *DB) SurveyPolygon(surveyID string) ([]geo.Point, error) {
	var encoded sql.NullString
	err := db.QueryRow(`SELECT polygon FROM surveys WHERE id = ?`, surveyID).Scan(&encoded)
	if err != nil {
		return nil, err
	}
	if !encoded.Valid || encoded.String == "" {
		return nil, nil
	}
	var polygon []geo.Point
	if err := json.Unmarshal([]byte(encoded.String), &polygon); err != nil {
		return nil, fmt.Errorf("failed to decode polygon: %w", err)
	}
	return polygon, nil
}
