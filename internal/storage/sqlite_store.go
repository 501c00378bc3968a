package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/skywatch/skywatch/internal/zone"
)

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a new database connection and initializes the
// schema using the Sqlite database
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		// A single writer keeps commits serialized per database, which in
		// turn serializes commits per drone serial.
		db.SetMaxOpenConns(1)

		if err = runSQLCommand(db, schemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	// The write connection must exist first so the schema is initialized
	// before any read-only connection is opened.
	if _, err := s.getWriteDB(); err != nil {
		return nil, err
	}

	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) UpsertTelemetry(ctx context.Context, serial string, up TelemetryUpdate) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	reasons := up.DangerReasons
	if reasons == nil {
		reasons = []string{}
	}
	reasonsJSON, err := json.Marshal(reasons)
	if err != nil {
		return fmt.Errorf("encoding danger reasons: %w", err)
	}

	var payload sql.NullString
	if up.Payload != nil {
		payload = sql.NullString{String: string(up.Payload), Valid: true}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	if _, err = tx.ExecContext(ctx, upsertDroneSQL,
		serial,
		toNullFloat(up.Latitude),
		toNullFloat(up.Longitude),
		toNullFloat(up.Height),
		toNullFloat(up.HorizontalSpeed),
		up.Timestamp.UTC(),
		payload,
		up.IsDangerous,
		string(reasonsJSON),
	); err != nil {
		return fmt.Errorf("upserting drone: %w", err)
	}

	if up.HasPosition() {
		if _, err = tx.ExecContext(ctx, insertPointSQL,
			up.Timestamp.UTC(),
			*up.Latitude,
			*up.Longitude,
			toNullFloat(up.Height),
			toNullFloat(up.HorizontalSpeed),
			serial,
		); err != nil {
			return fmt.Errorf("inserting telemetry point: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SqliteStore) Drone(ctx context.Context, serial string) (drone *Drone, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	var row droneRow
	if err = scanDrone(db.QueryRowContext(ctx, selectDroneSQL, serial), &row); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("drone %q: %w", serial, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning drone: %w", err)
	}

	return toDrone(&row)
}

func (s *SqliteStore) Drones(ctx context.Context, serialFilter string) ([]*Drone, error) {
	if serialFilter == "" {
		return s.queryDrones(ctx, selectDronesSQL)
	}
	return s.queryDrones(ctx, selectDronesFilteredSQL, serialFilter)
}

func (s *SqliteStore) OnlineDrones(ctx context.Context, cutoff time.Time) ([]*Drone, error) {
	return s.queryDrones(ctx, selectOnlineDronesSQL, cutoff.UTC())
}

func (s *SqliteStore) DangerousDrones(ctx context.Context) ([]*Drone, error) {
	return s.queryDrones(ctx, selectDangerousDronesSQL)
}

func (s *SqliteStore) queryDrones(ctx context.Context, query string, args ...any) (drones []*Drone, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying drones: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var row droneRow
		if err = scanDrone(rows, &row); err != nil {
			return nil, fmt.Errorf("scanning drone: %w", err)
		}

		var drone *Drone
		if drone, err = toDrone(&row); err != nil {
			return nil, err
		}
		drones = append(drones, drone)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating drones: %w", err)
	}
	return drones, nil
}

func (s *SqliteStore) MarkSafe(ctx context.Context, serial string) error {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	result, err := db.ExecContext(ctx, markSafeSQL, serial)
	if err != nil {
		return fmt.Errorf("marking drone safe: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("drone %q: %w", serial, ErrNotFound)
	}
	return nil
}

func (s *SqliteStore) Track(ctx context.Context, serial string) (points []*TelemetryPoint, err error) {
	if _, err = s.Drone(ctx, serial); err != nil {
		return nil, err
	}

	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectTrackSQL, serial)
	if err != nil {
		return nil, fmt.Errorf("querying track: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var row pointRow
		if err = rows.Scan(
			&row.ID,
			&row.DroneID,
			&row.Timestamp,
			&row.Latitude,
			&row.Longitude,
			&row.Height,
			&row.HorizontalSpeed,
		); err != nil {
			return nil, fmt.Errorf("scanning telemetry point: %w", err)
		}
		points = append(points, toPoint(&row))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating telemetry points: %w", err)
	}
	return points, nil
}

func (s *SqliteStore) CreateZone(ctx context.Context, z *zone.Zone) (int64, error) {
	if err := z.Validate(); err != nil {
		return 0, err
	}

	db, err := s.getWriteDB()
	if err != nil {
		return 0, fmt.Errorf("getting write connection: %w", err)
	}

	args, err := zoneArgs(z)
	if err != nil {
		return 0, err
	}

	result, err := db.ExecContext(ctx, insertZoneSQL, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting zone: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting zone ID: %w", err)
	}

	z.ID = id
	return id, nil
}

func (s *SqliteStore) UpdateZone(ctx context.Context, z *zone.Zone) error {
	if err := z.Validate(); err != nil {
		return err
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	args, err := zoneArgs(z)
	if err != nil {
		return err
	}
	args = append(args, z.ID)

	result, err := db.ExecContext(ctx, updateZoneSQL, args...)
	if err != nil {
		return fmt.Errorf("updating zone: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("zone %d: %w", z.ID, ErrNotFound)
	}
	return nil
}

func (s *SqliteStore) DeleteZone(ctx context.Context, id int64) error {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	result, err := db.ExecContext(ctx, deleteZoneSQL, id)
	if err != nil {
		return fmt.Errorf("deleting zone: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("zone %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SqliteStore) Zone(ctx context.Context, id int64) (*zone.Zone, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	var row zoneRow
	if err = scanZone(db.QueryRowContext(ctx, selectZoneSQL, id), &row); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("zone %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning zone: %w", err)
	}

	return toZone(&row)
}

func (s *SqliteStore) Zones(ctx context.Context) ([]zone.Zone, error) {
	return s.queryZones(ctx, selectZonesSQL)
}

func (s *SqliteStore) ActiveZones(ctx context.Context) ([]zone.Zone, error) {
	return s.queryZones(ctx, selectActiveZonesSQL)
}

func (s *SqliteStore) queryZones(ctx context.Context, query string) (zones []zone.Zone, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying zones: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var row zoneRow
		if err = scanZone(rows, &row); err != nil {
			return nil, fmt.Errorf("scanning zone: %w", err)
		}

		var z *zone.Zone
		if z, err = toZone(&row); err != nil {
			return nil, err
		}
		zones = append(zones, *z)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating zones: %w", err)
	}
	return zones, nil
}

// Close releases all database connections and resources.
// It is safe to call Close multiple times.
func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		if s.writeDB != nil {
			s.closeErr = s.writeDB.Close()
		}
		if s.readDB != nil {
			if err := s.readDB.Close(); err != nil && s.closeErr == nil {
				s.closeErr = err
			}
		}
	})
	return s.closeErr
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDrone(sc scanner, row *droneRow) error {
	return sc.Scan(
		&row.ID,
		&row.Serial,
		&row.Latitude,
		&row.Longitude,
		&row.Height,
		&row.HorizontalSpeed,
		&row.LastSeenAt,
		&row.LastPayload,
		&row.IsDangerous,
		&row.DangerReasons,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
}

func scanZone(sc scanner, row *zoneRow) error {
	return sc.Scan(
		&row.ID,
		&row.Name,
		&row.Shape,
		&row.CenterLat,
		&row.CenterLon,
		&row.RadiusKm,
		&row.Polygon,
		&row.IsActive,
		&row.CreatedAt,
	)
}
