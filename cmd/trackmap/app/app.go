package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/skywatch/skywatch/internal/geo"
	"github.com/skywatch/skywatch/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	points, err := store.Track(ctx, config.Serial)
	if err != nil {
		return fmt.Errorf("loading track: %w", err)
	}
	if len(points) == 0 {
		return fmt.Errorf("drone %s has no telemetry points", config.Serial)
	}

	var distanceKm float64
	for i := 1; i < len(points); i++ {
		distanceKm += geo.DistanceKm(
			points[i-1].Latitude, points[i-1].Longitude,
			points[i].Latitude, points[i].Longitude)
	}

	logger.Info("rendering track",
		slog.String("serial", config.Serial),
		slog.String("points", humanize.Comma(int64(len(points)))),
		slog.String("distance", fmt.Sprintf("%.2f km", distanceKm)),
		slog.String("destination", config.OutputFile))

	img := NewTrackRenderer(config.Width).Render(points)

	annotator, err := NewAnnotator()
	if err != nil {
		return fmt.Errorf("creating annotator: %w", err)
	}

	lines := []string{
		config.Serial,
		fmt.Sprintf("%s - %s",
			points[0].Timestamp.Local().Format(time.DateTime),
			points[len(points)-1].Timestamp.Local().Format(time.DateTime)),
		fmt.Sprintf("%s points, %.2f km", humanize.Comma(int64(len(points))), distanceKm),
	}
	if err = annotator.Annotate(img, lines); err != nil {
		return fmt.Errorf("annotating track: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}
