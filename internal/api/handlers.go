package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skywatch/skywatch/internal/geo"
	"github.com/skywatch/skywatch/internal/storage"
	"github.com/skywatch/skywatch/internal/zone"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, role, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token, "role": role})
}

func (s *Server) handleListDrones(w http.ResponseWriter, r *http.Request) {
	drones, err := s.store.Drones(r.Context(), r.URL.Query().Get("serial"))
	if err != nil {
		s.serverError(w, "listing drones", err)
		return
	}
	writeJSON(w, http.StatusOK, toDroneResponses(drones))
}

func (s *Server) handleOnlineDrones(w http.ResponseWriter, r *http.Request) {
	cutoff := time.Now().Add(-s.config.OnlineWindow)
	drones, err := s.store.OnlineDrones(r.Context(), cutoff)
	if err != nil {
		s.serverError(w, "listing online drones", err)
		return
	}
	writeJSON(w, http.StatusOK, toDroneResponses(drones))
}

func (s *Server) handleNearbyDrones(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat", -90, 90)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lon, err := queryFloat(r, "lon", -180, 180)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	candidates, err := s.store.Drones(r.Context(), "")
	if err != nil {
		s.serverError(w, "listing drones", err)
		return
	}

	nearby := make([]*storage.Drone, 0, len(candidates))
	for _, d := range candidates {
		if d.Latitude == nil || d.Longitude == nil {
			continue
		}
		if geo.DistanceKm(lat, lon, *d.Latitude, *d.Longitude) <= s.config.NearbyRadiusKm {
			nearby = append(nearby, d)
		}
	}
	writeJSON(w, http.StatusOK, toDroneResponses(nearby))
}

func (s *Server) handleDangerousDrones(w http.ResponseWriter, r *http.Request) {
	drones, err := s.store.DangerousDrones(r.Context())
	if err != nil {
		s.serverError(w, "listing dangerous drones", err)
		return
	}
	writeJSON(w, http.StatusOK, toDroneResponses(drones))
}

func (s *Server) handleOSD(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")

	d, err := s.store.Drone(r.Context(), serial)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "drone not found")
			return
		}
		s.serverError(w, "loading drone", err)
		return
	}

	osd := json.RawMessage(d.LastPayload)
	if len(osd) == 0 {
		osd = json.RawMessage("null")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"serial":       d.Serial,
		"last_seen_at": d.LastSeenAt,
		"osd":          osd,
	})
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")

	points, err := s.store.Track(r.Context(), serial)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "drone not found")
			return
		}
		s.serverError(w, "loading track", err)
		return
	}
	writeJSON(w, http.StatusOK, toTrackResponse(serial, points))
}

func (s *Server) handleMarkSafe(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")

	if err := s.store.MarkSafe(r.Context(), serial); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "drone not found")
			return
		}
		s.serverError(w, "marking drone safe", err)
		return
	}

	d, err := s.store.Drone(r.Context(), serial)
	if err != nil {
		s.serverError(w, "loading drone", err)
		return
	}
	writeJSON(w, http.StatusOK, toDroneResponse(d))
}

func (s *Server) handleListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := s.store.Zones(r.Context())
	if err != nil {
		s.serverError(w, "listing zones", err)
		return
	}

	out := make([]zoneResponse, len(zones))
	for i := range zones {
		out[i] = toZoneResponse(&zones[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// zoneRequest carries zone fields for create and partial update. Nil means
// "not provided" so PATCH can distinguish clearing from omission.
type zoneRequest struct {
	Name      *string       `json:"name"`
	Shape     *string       `json:"shape"`
	CenterLat *float64      `json:"center_lat"`
	CenterLon *float64      `json:"center_lon"`
	RadiusKm  *float64      `json:"radius_km"`
	Polygon   *[][2]float64 `json:"polygon"`
	IsActive  *bool         `json:"is_active"`
}

func (req *zoneRequest) apply(z *zone.Zone) {
	if req.Name != nil {
		z.Name = *req.Name
	}
	if req.Shape != nil {
		z.Shape = zone.Shape(*req.Shape)
	}
	if req.CenterLat != nil {
		z.CenterLat = req.CenterLat
	}
	if req.CenterLon != nil {
		z.CenterLon = req.CenterLon
	}
	if req.RadiusKm != nil {
		z.RadiusKm = req.RadiusKm
	}
	if req.Polygon != nil {
		z.Ring = *req.Polygon
	}
	if req.IsActive != nil {
		z.Active = *req.IsActive
	}
}

func (s *Server) handleCreateZone(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	z := zone.Zone{Active: true}
	req.apply(&z)

	if _, err := s.store.CreateZone(r.Context(), &z); err != nil {
		if errors.Is(err, zone.ErrInvalid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.serverError(w, "creating zone", err)
		return
	}
	writeJSON(w, http.StatusCreated, toZoneResponse(&z))
}

func (s *Server) handleUpdateZone(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid zone id")
		return
	}

	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	z, err := s.store.Zone(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "zone not found")
			return
		}
		s.serverError(w, "loading zone", err)
		return
	}

	req.apply(z)

	if err := s.store.UpdateZone(r.Context(), z); err != nil {
		switch {
		case errors.Is(err, zone.ErrInvalid):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "zone not found")
		default:
			s.serverError(w, "updating zone", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toZoneResponse(z))
}

func (s *Server) handleDeleteZone(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid zone id")
		return
	}

	if err := s.store.DeleteZone(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "zone not found")
			return
		}
		s.serverError(w, "deleting zone", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func queryFloat(r *http.Request, name string, min, max float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, errors.New(name + " is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New(name + " must be a number")
	}
	if v < min || v > max {
		return 0, errors.New(name + " out of range")
	}
	return v, nil
}
