package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/skywatch/skywatch/internal/storage"
	"github.com/skywatch/skywatch/internal/zone"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type droneResponse struct {
	Serial          string     `json:"serial"`
	Latitude        *float64   `json:"latitude"`
	Longitude       *float64   `json:"longitude"`
	Height          *float64   `json:"height"`
	HorizontalSpeed *float64   `json:"horizontal_speed"`
	LastSeenAt      *time.Time `json:"last_seen_at"`
	IsDangerous     bool       `json:"is_dangerous"`
	DangerReasons   []string   `json:"danger_reasons"`
}

func toDroneResponse(d *storage.Drone) droneResponse {
	reasons := d.DangerReasons
	if reasons == nil {
		reasons = []string{}
	}
	return droneResponse{
		Serial:          d.Serial,
		Latitude:        d.Latitude,
		Longitude:       d.Longitude,
		Height:          d.Height,
		HorizontalSpeed: d.HorizontalSpeed,
		LastSeenAt:      d.LastSeenAt,
		IsDangerous:     d.IsDangerous,
		DangerReasons:   reasons,
	}
}

func toDroneResponses(drones []*storage.Drone) []droneResponse {
	out := make([]droneResponse, len(drones))
	for i, d := range drones {
		out[i] = toDroneResponse(d)
	}
	return out
}

type zoneResponse struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Shape     string       `json:"shape"`
	CenterLat *float64     `json:"center_lat,omitempty"`
	CenterLon *float64     `json:"center_lon,omitempty"`
	RadiusKm  *float64     `json:"radius_km,omitempty"`
	Polygon   [][2]float64 `json:"polygon,omitempty"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
}

func toZoneResponse(z *zone.Zone) zoneResponse {
	return zoneResponse{
		ID:        z.ID,
		Name:      z.Name,
		Shape:     string(z.Shape),
		CenterLat: z.CenterLat,
		CenterLon: z.CenterLon,
		RadiusKm:  z.RadiusKm,
		Polygon:   z.Ring,
		IsActive:  z.Active,
		CreatedAt: z.CreatedAt,
	}
}

// geoJSONTrack is a GeoJSON Feature with a LineString geometry whose
// coordinates are [lon, lat] pairs in ascending timestamp order.
type geoJSONTrack struct {
	Type       string          `json:"type"`
	Geometry   geoJSONGeometry `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type geoJSONGeometry struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

func toTrackResponse(serial string, points []*storage.TelemetryPoint) geoJSONTrack {
	coords := make([][2]float64, len(points))
	for i, p := range points {
		coords[i] = [2]float64{p.Longitude, p.Latitude}
	}
	return geoJSONTrack{
		Type: "Feature",
		Geometry: geoJSONGeometry{
			Type:        "LineString",
			Coordinates: coords,
		},
		Properties: map[string]any{
			"serial": serial,
			"points": len(points),
		},
	}
}
