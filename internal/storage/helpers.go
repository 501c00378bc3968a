package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skywatch/skywatch/internal/zone"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if rErr := rb.Rollback(); rErr != nil && rErr != sql.ErrTxDone && *err == nil {
		*err = rErr
	}
}

func toNullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func fromNullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func fromNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func toDrone(row *droneRow) (*Drone, error) {
	d := Drone{
		ID:              row.ID,
		Serial:          row.Serial,
		Latitude:        fromNullFloat(row.Latitude),
		Longitude:       fromNullFloat(row.Longitude),
		Height:          fromNullFloat(row.Height),
		HorizontalSpeed: fromNullFloat(row.HorizontalSpeed),
		LastSeenAt:      fromNullTime(row.LastSeenAt),
		IsDangerous:     row.IsDangerous,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if row.LastPayload.Valid {
		d.LastPayload = []byte(row.LastPayload.String)
	}
	if row.DangerReasons != "" {
		if err := json.Unmarshal([]byte(row.DangerReasons), &d.DangerReasons); err != nil {
			return nil, fmt.Errorf("decoding danger reasons: %w", err)
		}
	}
	return &d, nil
}

func toPoint(row *pointRow) *TelemetryPoint {
	return &TelemetryPoint{
		ID:              row.ID,
		DroneID:         row.DroneID,
		Timestamp:       row.Timestamp,
		Latitude:        row.Latitude,
		Longitude:       row.Longitude,
		Height:          fromNullFloat(row.Height),
		HorizontalSpeed: fromNullFloat(row.HorizontalSpeed),
	}
}

func toZone(row *zoneRow) (*zone.Zone, error) {
	z := zone.Zone{
		ID:        row.ID,
		Name:      row.Name,
		Shape:     zone.Shape(row.Shape),
		CenterLat: fromNullFloat(row.CenterLat),
		CenterLon: fromNullFloat(row.CenterLon),
		RadiusKm:  fromNullFloat(row.RadiusKm),
		Active:    row.IsActive,
		CreatedAt: row.CreatedAt,
	}
	if row.Polygon.Valid && row.Polygon.String != "" {
		if err := json.Unmarshal([]byte(row.Polygon.String), &z.Ring); err != nil {
			return nil, fmt.Errorf("decoding polygon: %w", err)
		}
	}
	return &z, nil
}

func zoneArgs(z *zone.Zone) (args []any, err error) {
	var polygon sql.NullString
	if len(z.Ring) > 0 {
		p, err := json.Marshal(z.Ring)
		if err != nil {
			return nil, fmt.Errorf("encoding polygon: %w", err)
		}
		polygon = sql.NullString{String: string(p), Valid: true}
	}

	return []any{
		z.Name,
		string(z.Shape),
		toNullFloat(z.CenterLat),
		toNullFloat(z.CenterLon),
		toNullFloat(z.RadiusKm),
		polygon,
		z.Active,
	}, nil
}
