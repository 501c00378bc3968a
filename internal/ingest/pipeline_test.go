package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/skywatch/skywatch/internal/danger"
	"github.com/skywatch/skywatch/internal/geofence"
	"github.com/skywatch/skywatch/internal/storage"
	"github.com/skywatch/skywatch/internal/zone"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()

	s := storage.NewSqliteStore(filepath.Join(t.TempDir(), "skywatch.sqlite"))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func squareZone(t *testing.T, s storage.Store) {
	t.Helper()

	z := zone.Zone{
		Name:  "Square",
		Shape: zone.ShapePolygon,
		Ring: [][2]float64{
			{35.80, 31.97},
			{35.85, 31.97},
			{35.85, 32.00},
			{35.80, 32.00},
		},
		Active: true,
	}
	if _, err := s.CreateZone(context.Background(), &z); err != nil {
		t.Fatalf("creating zone: %v", err)
	}
}

func TestSerialFromTopic(t *testing.T) {
	tests := []struct {
		topic  string
		serial string
		ok     bool
	}{
		{"thing/product/DR1/osd", "DR1", true},
		{"thing/product/DRONE-42/osd", "DRONE-42", true},
		{"thing/product/DR1/state", "", false},
		{"thing/product//osd", "", false},
		{"thing/product/a/b/osd", "", false},
		{"garbage", "", false},
	}

	for _, tt := range tests {
		serial, ok := SerialFromTopic(tt.topic)
		if serial != tt.serial || ok != tt.ok {
			t.Errorf("SerialFromTopic(%q) = (%q, %v), want (%q, %v)", tt.topic, serial, ok, tt.serial, tt.ok)
		}
	}
}

func TestHandle_EndToEnd(t *testing.T) {
	s := newTestStore(t)
	squareZone(t, s)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := New(s,
		danger.NewClassifier(danger.HeightRule{MaxHeightM: 500}, danger.SpeedRule{MaxSpeedMs: 10}),
		discardLogger(),
		WithClock(func() time.Time { return now }))

	body := []byte(`{"latitude":31.98,"longitude":35.82,"height":600,"horizontal_speed":5,"battery":87}`)
	p.Handle(context.Background(), "thing/product/DR1/osd", body)

	d, err := s.Drone(context.Background(), "DR1")
	if err != nil {
		t.Fatalf("Drone: %v", err)
	}
	if !d.IsDangerous {
		t.Error("drone not flagged dangerous")
	}
	want := []string{"height > 500m", "entered_no_fly_zone"}
	if !slices.Equal(d.DangerReasons, want) {
		t.Errorf("dangerReasons = %v, want %v", d.DangerReasons, want)
	}
	if string(d.LastPayload) != string(body) {
		t.Errorf("lastPayload = %s", d.LastPayload)
	}
	if d.LastSeenAt == nil || !d.LastSeenAt.Equal(now) {
		t.Errorf("lastSeenAt = %v, want %v", d.LastSeenAt, now)
	}

	points, err := s.Track(context.Background(), "DR1")
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}
	if points[0].Latitude != 31.98 || points[0].Longitude != 35.82 {
		t.Errorf("point at (%v, %v), want (31.98, 35.82)", points[0].Latitude, points[0].Longitude)
	}

	if p.Processed() != 1 || p.Dropped() != 0 {
		t.Errorf("processed=%d dropped=%d", p.Processed(), p.Dropped())
	}
}

func TestHandle_MalformedBody(t *testing.T) {
	s := newTestStore(t)
	p := New(s, danger.NewClassifier(), discardLogger())

	p.Handle(context.Background(), "thing/product/DR1/osd", []byte("not json"))

	if _, err := s.Drone(context.Background(), "DR1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("drone created from malformed body, err = %v", err)
	}
	if p.Dropped() != 1 {
		t.Errorf("dropped = %d, want 1", p.Dropped())
	}
}

func TestHandle_UnmatchedTopic(t *testing.T) {
	s := newTestStore(t)
	p := New(s, danger.NewClassifier(), discardLogger())

	p.Handle(context.Background(), "thing/product/DR1/state", []byte(`{"height":600}`))

	drones, err := s.Drones(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(drones) != 0 {
		t.Errorf("got %d drones, want 0", len(drones))
	}
}

func TestHandle_UnknownFieldsNeverFire(t *testing.T) {
	s := newTestStore(t)
	p := New(s, danger.NewClassifier(danger.HeightRule{MaxHeightM: 500}), discardLogger())
	p.Handle(context.Background(), "thing/product/DR5/osd", []byte(`{"height":"very high","latitude":"n/a"}`))

	d, err := s.Drone(context.Background(), "DR5")
	if err != nil {
		t.Fatalf("Drone: %v", err)
	}
	if d.IsDangerous {
		t.Error("unparseable height fired a rule")
	}
	if d.Height != nil {
		t.Errorf("height = %v, want nil", d.Height)
	}

	points, err := s.Track(context.Background(), "DR5")
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 0 {
		t.Errorf("point appended without resolvable position")
	}
}

func TestHandle_NumericStringCoercion(t *testing.T) {
	s := newTestStore(t)
	p := New(s, danger.NewClassifier(danger.HeightRule{MaxHeightM: 500}), discardLogger())

	p.Handle(context.Background(), "thing/product/DR6/osd", []byte(`{"height":"600","latitude":"31.98","longitude":"35.82"}`))

	d, err := s.Drone(context.Background(), "DR6")
	if err != nil {
		t.Fatal(err)
	}
	if d.Height == nil || *d.Height != 600 {
		t.Errorf("height = %v, want 600", d.Height)
	}
	if !d.IsDangerous {
		t.Error("numeric string height did not fire rule")
	}
}

// duplicateReasonRule emits the same reason string as a geofence match,
// proving per-message deduplication.
type duplicateReasonRule struct{}

func (duplicateReasonRule) Check(danger.State) string { return geofence.ReasonNoFlyZone }

func TestHandle_DeduplicatesReasons(t *testing.T) {
	s := newTestStore(t)
	squareZone(t, s)

	p := New(s, danger.NewClassifier(duplicateReasonRule{}), discardLogger())
	p.Handle(context.Background(), "thing/product/DR7/osd", []byte(`{"latitude":31.98,"longitude":35.82}`))

	d, err := s.Drone(context.Background(), "DR7")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(d.DangerReasons, []string{geofence.ReasonNoFlyZone}) {
		t.Errorf("dangerReasons = %v, want single %q", d.DangerReasons, geofence.ReasonNoFlyZone)
	}
}

func TestHandle_GeofenceSkippedWithoutPosition(t *testing.T) {
	s := newTestStore(t)
	squareZone(t, s)

	p := New(s, danger.NewClassifier(), discardLogger())
	p.Handle(context.Background(), "thing/product/DR8/osd", []byte(`{"latitude":31.98,"height":100}`))

	d, err := s.Drone(context.Background(), "DR8")
	if err != nil {
		t.Fatal(err)
	}
	if d.IsDangerous {
		t.Error("geofence evaluated without longitude")
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a", "b", "a", "c", "b"})
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("dedupe() = %v", got)
	}

	if got := dedupe(nil); len(got) != 0 {
		t.Errorf("dedupe(nil) = %v", got)
	}
}

func TestSafeFloat(t *testing.T) {
	if v := safeFloat(float64(1.5)); v == nil || *v != 1.5 {
		t.Errorf("safeFloat(1.5) = %v", f2s(v))
	}
	if v := safeFloat("2.5"); v == nil || *v != 2.5 {
		t.Errorf("safeFloat(\"2.5\") = %v", f2s(v))
	}
	if v := safeFloat("abc"); v != nil {
		t.Errorf("safeFloat(\"abc\") = %v", *v)
	}
	if v := safeFloat(nil); v != nil {
		t.Errorf("safeFloat(nil) = %v", *v)
	}
	if v := safeFloat(true); v != nil {
		t.Errorf("safeFloat(true) = %v", *v)
	}
}

func f2s(v *float64) any {
	if v == nil {
		return "<nil>"
	}
	return *v
}
