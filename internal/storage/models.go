package storage

import (
	"database/sql"
	"time"
)

// Drone is the persisted current state of a drone, keyed by its unique
// serial. Pointer fields are nil when the value has never been reported or
// was unparseable in the most recent message.
type Drone struct {
	ID              int64
	Serial          string
	Latitude        *float64
	Longitude       *float64
	Height          *float64
	HorizontalSpeed *float64
	LastSeenAt      *time.Time
	LastPayload     []byte // raw body of the most recent accepted message
	IsDangerous     bool
	DangerReasons   []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TelemetryPoint is one append-only track point of a drone. Points exist
// only for messages that carried a resolvable position.
type TelemetryPoint struct {
	ID              int64
	DroneID         int64
	Timestamp       time.Time
	Latitude        float64
	Longitude       float64
	Height          *float64
	HorizontalSpeed *float64
}

// TelemetryUpdate is the state transition committed for one accepted
// message: the drone's current-state fields are overwritten and, when both
// coordinates are present, a TelemetryPoint is appended. The whole update
// is atomic.
type TelemetryUpdate struct {
	Timestamp       time.Time
	Latitude        *float64
	Longitude       *float64
	Height          *float64
	HorizontalSpeed *float64
	IsDangerous     bool
	DangerReasons   []string
	Payload         []byte
}

// HasPosition reports whether both coordinates resolved, i.e. whether a
// track point will be appended.
func (u *TelemetryUpdate) HasPosition() bool {
	return u.Latitude != nil && u.Longitude != nil
}

type droneRow struct {
	ID              int64
	Serial          string
	Latitude        sql.NullFloat64
	Longitude       sql.NullFloat64
	Height          sql.NullFloat64
	HorizontalSpeed sql.NullFloat64
	LastSeenAt      sql.NullTime
	LastPayload     sql.NullString
	IsDangerous     bool
	DangerReasons   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type pointRow struct {
	ID              int64
	DroneID         int64
	Timestamp       time.Time
	Latitude        float64
	Longitude       float64
	Height          sql.NullFloat64
	HorizontalSpeed sql.NullFloat64
}

type zoneRow struct {
	ID        int64
	Name      string
	Shape     string
	CenterLat sql.NullFloat64
	CenterLon sql.NullFloat64
	RadiusKm  sql.NullFloat64
	Polygon   sql.NullString
	IsActive  bool
	CreatedAt time.Time
}
