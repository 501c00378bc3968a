package storage

import (
	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

const (
	upsertDroneSQL = `
INSERT INTO drones (serial,
                    latitude,
                    longitude,
                    height,
                    horizontal_speed,
                    last_seen_at,
                    last_payload,
                    is_dangerous,
                    danger_reasons)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (serial) DO UPDATE SET
    latitude         = excluded.latitude,
    longitude        = excluded.longitude,
    height           = excluded.height,
    horizontal_speed = excluded.horizontal_speed,
    last_seen_at     = excluded.last_seen_at,
    last_payload     = excluded.last_payload,
    is_dangerous     = excluded.is_dangerous,
    danger_reasons   = excluded.danger_reasons,
    updated_at       = CURRENT_TIMESTAMP`

	insertPointSQL = `
INSERT INTO telemetry_points (drone_id,
                              timestamp,
                              latitude,
                              longitude,
                              height,
                              horizontal_speed)
SELECT id, ?, ?, ?, ?, ?
FROM drones
WHERE serial = ?`

	selectDroneColumns = `
SELECT
    id,
    serial,
    latitude,
    longitude,
    height,
    horizontal_speed,
    last_seen_at,
    last_payload,
    is_dangerous,
    danger_reasons,
    created_at,
    updated_at
FROM drones`

	selectDroneSQL = selectDroneColumns + `
WHERE
    serial = ?`

	selectDronesSQL = selectDroneColumns + `
ORDER BY serial`

	selectDronesFilteredSQL = selectDroneColumns + `
WHERE
    instr(lower(serial), lower(?)) > 0
ORDER BY serial`

	selectOnlineDronesSQL = selectDroneColumns + `
WHERE
    last_seen_at >= ?
    AND latitude IS NOT NULL
    AND longitude IS NOT NULL
ORDER BY serial`

	selectDangerousDronesSQL = selectDroneColumns + `
WHERE
    is_dangerous = 1
ORDER BY serial`

	markSafeSQL = `
UPDATE drones
SET is_dangerous = 0,
    danger_reasons = '[]',
    updated_at = CURRENT_TIMESTAMP
WHERE serial = ?`

	selectTrackSQL = `
SELECT
    p.id,
    p.drone_id,
    p.timestamp,
    p.latitude,
    p.longitude,
    p.height,
    p.horizontal_speed
FROM telemetry_points p
JOIN drones d ON d.id = p.drone_id
WHERE
    d.serial = ?
ORDER BY p.timestamp, p.id`

	insertZoneSQL = `
INSERT INTO zones (name,
                   shape,
                   center_lat,
                   center_lon,
                   radius_km,
                   polygon,
                   is_active)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	updateZoneSQL = `
UPDATE zones
SET name = ?,
    shape = ?,
    center_lat = ?,
    center_lon = ?,
    radius_km = ?,
    polygon = ?,
    is_active = ?
WHERE id = ?`

	deleteZoneSQL = `
DELETE FROM zones
WHERE id = ?`

	selectZoneColumns = `
SELECT
    id,
    name,
    shape,
    center_lat,
    center_lon,
    radius_km,
    polygon,
    is_active,
    created_at
FROM zones`

	selectZoneSQL = selectZoneColumns + `
WHERE
    id = ?`

	selectZonesSQL = selectZoneColumns + `
ORDER BY id`

	selectActiveZonesSQL = selectZoneColumns + `
WHERE
    is_active = 1
ORDER BY id`
)
