package app

import (
	"image"
	"image/color"
	"math"

	"github.com/skywatch/skywatch/internal/storage"
)

const (
	marginPx    = 60
	minSpanDeg  = 0.0005 // keeps single-point tracks renderable
	pointRadius = 3
)

var (
	backgroundColor = color.RGBA{R: 16, G: 24, B: 38, A: 255}
	trackColor      = color.RGBA{R: 120, G: 200, B: 255, A: 255}
	pointColor      = color.RGBA{R: 255, G: 196, B: 64, A: 255}
	startColor      = color.RGBA{R: 80, G: 230, B: 120, A: 255}
	endColor        = color.RGBA{R: 240, G: 80, B: 80, A: 255}
)

// TrackRenderer projects a telemetry track onto an image using an
// equirectangular projection centred on the track.
type TrackRenderer struct {
	width int
}

func NewTrackRenderer(width int) *TrackRenderer {
	return &TrackRenderer{width: width}
}

// Render draws the track polyline with per-point markers. The first and
// last points get distinct markers.
func (r *TrackRenderer) Render(points []*storage.TelemetryPoint) *image.RGBA {
	minLat, maxLat := points[0].Latitude, points[0].Latitude
	minLon, maxLon := points[0].Longitude, points[0].Longitude
	for _, p := range points[1:] {
		minLat = math.Min(minLat, p.Latitude)
		maxLat = math.Max(maxLat, p.Latitude)
		minLon = math.Min(minLon, p.Longitude)
		maxLon = math.Max(maxLon, p.Longitude)
	}

	if maxLat-minLat < minSpanDeg {
		minLat -= minSpanDeg / 2
		maxLat += minSpanDeg / 2
	}
	if maxLon-minLon < minSpanDeg {
		minLon -= minSpanDeg / 2
		maxLon += minSpanDeg / 2
	}

	// Longitude degrees shrink with latitude; correct the aspect ratio so
	// the track is not stretched.
	midLat := (minLat + maxLat) / 2 * math.Pi / 180
	spanX := (maxLon - minLon) * math.Cos(midLat)
	spanY := maxLat - minLat

	drawW := r.width - 2*marginPx
	drawH := int(float64(drawW) * spanY / spanX)
	if drawH < drawW/4 {
		drawH = drawW / 4
	}
	if drawH > drawW*3 {
		drawH = drawW * 3
	}

	img := image.NewRGBA(image.Rect(0, 0, r.width, drawH+2*marginPx))
	fill(img, backgroundColor)

	project := func(p *storage.TelemetryPoint) (int, int) {
		x := marginPx + int(float64(drawW)*(p.Longitude-minLon)/(maxLon-minLon))
		y := marginPx + int(float64(drawH)*(maxLat-p.Latitude)/(maxLat-minLat))
		return x, y
	}

	for i := 1; i < len(points); i++ {
		x1, y1 := project(points[i-1])
		x2, y2 := project(points[i])
		drawLine(img, x1, y1, x2, y2, trackColor)
	}

	for i, p := range points {
		x, y := project(p)
		c := pointColor
		switch i {
		case 0:
			c = startColor
		case len(points) - 1:
			c = endColor
		}
		drawDot(img, x, y, pointRadius, c)
	}

	return img
}

func fill(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	steps := max(abs(x2-x1), abs(y2-y1))
	if steps == 0 {
		img.SetRGBA(x1, y1, c)
		return
	}

	dx := float64(x2-x1) / float64(steps)
	dy := float64(y2-y1) / float64(steps)
	for i := 0; i <= steps; i++ {
		img.SetRGBA(x1+int(math.Round(float64(i)*dx)), y1+int(math.Round(float64(i)*dy)), c)
	}
}

func drawDot(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				img.SetRGBA(cx+dx, cy+dy, c)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
