// Command seed populates a database with demo zones and drones for local
// development, and can generate bcrypt hashes for API user configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/skywatch/skywatch/internal/storage"
	"github.com/skywatch/skywatch/internal/zone"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	var dbPath, hashPassword string
	flag.StringVar(&dbPath, "db", "", "Path to the database file")
	flag.StringVar(&hashPassword, "hash", "", "Print a bcrypt hash for the given password and exit")
	flag.Parse()

	if hashPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(hashPassword), bcrypt.DefaultCost)
		if err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
		fmt.Println(string(hash))
		return
	}

	if dbPath == "" {
		logger.Error("no database file provided")
		os.Exit(1)
	}

	if err := run(context.Background(), dbPath, logger); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func f(v float64) *float64 { return &v }

func run(ctx context.Context, dbPath string, logger *slog.Logger) error {
	store := storage.NewSqliteStore(dbPath)
	defer store.Close()

	zones := []zone.Zone{
		{
			Name:      "Airport perimeter",
			Shape:     zone.ShapeCircle,
			CenterLat: f(31.978),
			CenterLon: f(35.831),
			RadiusKm:  f(1.0),
			Active:    true,
		},
		{
			Name:  "City center",
			Shape: zone.ShapePolygon,
			Ring: [][2]float64{
				{35.80, 31.97},
				{35.85, 31.97},
				{35.85, 32.00},
				{35.80, 32.00},
			},
			Active: true,
		},
	}
	for i := range zones {
		id, err := store.CreateZone(ctx, &zones[i])
		if err != nil {
			return fmt.Errorf("creating zone %q: %w", zones[i].Name, err)
		}
		logger.Info("zone created", slog.Int64("id", id), slog.String("name", zones[i].Name))
	}

	now := time.Now().UTC()
	tracks := map[string][][2]float64{
		"DEMO-DR1": {{31.960, 35.810}, {31.970, 35.815}, {31.980, 35.820}},
		"DEMO-DR2": {{32.050, 35.900}, {32.055, 35.905}},
	}
	for serial, track := range tracks {
		for i, pos := range track {
			up := storage.TelemetryUpdate{
				Timestamp:       now.Add(time.Duration(i-len(track)) * time.Minute),
				Latitude:        f(pos[0]),
				Longitude:       f(pos[1]),
				Height:          f(80 + 10*float64(i)),
				HorizontalSpeed: f(6),
				Payload:         []byte(fmt.Sprintf(`{"latitude":%g,"longitude":%g,"demo":true}`, pos[0], pos[1])),
			}
			if err := store.UpsertTelemetry(ctx, serial, up); err != nil {
				return fmt.Errorf("seeding drone %s: %w", serial, err)
			}
		}
		logger.Info("drone seeded", slog.String("serial", serial), slog.Int("points", len(track)))
	}

	logger.Info("seed complete", slog.String("db", dbPath))
	return nil
}
