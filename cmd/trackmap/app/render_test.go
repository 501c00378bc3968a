package app

import (
	"testing"
	"time"

	"github.com/skywatch/skywatch/internal/storage"
)

func point(lat, lon float64) *storage.TelemetryPoint {
	return &storage.TelemetryPoint{
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Latitude:  lat,
		Longitude: lon,
	}
}

func TestRender(t *testing.T) {
	points := []*storage.TelemetryPoint{
		point(31.978, 35.831),
		point(31.985, 35.845),
	}

	img := NewTrackRenderer(800).Render(points)
	if img == nil {
		t.Fatal("Render() = nil")
	}

	b := img.Bounds()
	if b.Dx() != 800 {
		t.Errorf("width = %d, want 800", b.Dx())
	}
	if b.Dy() < 2*marginPx {
		t.Errorf("height = %d, want at least %d", b.Dy(), 2*marginPx)
	}

	// Start and end markers should be drawn inside the margins.
	if got := img.RGBAAt(marginPx, b.Dy()-marginPx); got != startColor {
		t.Errorf("start marker = %v, want %v", got, startColor)
	}
	if got := img.RGBAAt(b.Dx()-marginPx, marginPx); got != endColor {
		t.Errorf("end marker = %v, want %v", got, endColor)
	}
}

func TestRender_SinglePoint(t *testing.T) {
	img := NewTrackRenderer(400).Render([]*storage.TelemetryPoint{point(31.978, 35.831)})
	if img == nil {
		t.Fatal("Render() = nil")
	}

	b := img.Bounds()
	if b.Dx() != 400 || b.Dy() < 2*marginPx {
		t.Errorf("bounds = %v", b)
	}
}

func TestAnnotate(t *testing.T) {
	annotator, err := NewAnnotator()
	if err != nil {
		t.Fatalf("NewAnnotator: %v", err)
	}

	img := NewTrackRenderer(400).Render([]*storage.TelemetryPoint{
		point(31.978, 35.831),
		point(31.985, 35.845),
	})

	if err := annotator.Annotate(img, []string{"DR1", "2 points, 1.5 km"}); err != nil {
		t.Fatalf("Annotate: %v", err)
	}

	// Text must have changed pixels in the top-left margin.
	changed := false
	for y := 10; y < 60 && !changed; y++ {
		for x := 10; x < 200; x++ {
			if img.RGBAAt(x, y) != backgroundColor {
				changed = true
				break
			}
		}
	}
	if !changed {
		t.Error("Annotate() drew nothing in the top-left margin")
	}
}
