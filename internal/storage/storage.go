package storage

import (
	"context"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/skywatch/skywatch/internal/zone"
)

// ErrNotFound is returned when a drone or zone lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Store provides persistence for drones, their telemetry tracks and no-fly
// zones. All write operations are atomic; implementations must be safe for
// concurrent use.
type Store interface {
	// UpsertTelemetry commits the state transition for one accepted message:
	// it creates the drone on first sight (upsert by serial), overwrites its
	// current-state fields and, when the update carries a position, appends
	// a telemetry point. Drone update and point insert happen in a single
	// transaction. Repeating the same update is safe: the drone ends up in
	// the same state and one more identical point is appended.
	UpsertTelemetry(ctx context.Context, serial string, up TelemetryUpdate) error

	// Drone returns the drone with the given serial, or ErrNotFound.
	Drone(ctx context.Context, serial string) (*Drone, error)

	// Drones returns all drones ordered by serial. A non-empty serialFilter
	// keeps only drones whose serial contains it, case-insensitively.
	Drones(ctx context.Context, serialFilter string) ([]*Drone, error)

	// OnlineDrones returns drones with a known position whose lastSeenAt is
	// at or after cutoff, ordered by serial.
	OnlineDrones(ctx context.Context, cutoff time.Time) ([]*Drone, error)

	// DangerousDrones returns drones currently flagged dangerous,
	// ordered by serial.
	DangerousDrones(ctx context.Context) ([]*Drone, error)

	// MarkSafe clears the dangerous flag and reasons of a drone.
	// Returns ErrNotFound for an unknown serial.
	MarkSafe(ctx context.Context, serial string) error

	// Track returns all telemetry points of a drone in ascending timestamp
	// order. Returns ErrNotFound for an unknown serial.
	Track(ctx context.Context, serial string) ([]*TelemetryPoint, error)

	// CreateZone validates and persists a new zone, returning its id.
	CreateZone(ctx context.Context, z *zone.Zone) (int64, error)

	// UpdateZone validates and overwrites an existing zone.
	// Returns ErrNotFound for an unknown id.
	UpdateZone(ctx context.Context, z *zone.Zone) error

	// DeleteZone removes a zone. Returns ErrNotFound for an unknown id.
	DeleteZone(ctx context.Context, id int64) error

	// Zone returns the zone with the given id, or ErrNotFound.
	Zone(ctx context.Context, id int64) (*zone.Zone, error)

	// Zones returns all zones ordered by id.
	Zones(ctx context.Context) ([]zone.Zone, error)

	// ActiveZones returns all active zones ordered by id. The result is a
	// snapshot: concurrent zone writes do not affect a returned slice.
	ActiveZones(ctx context.Context) ([]zone.Zone, error)

	// Close releases all database connections. Safe to call multiple times.
	Close() error
}
