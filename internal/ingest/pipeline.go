// Package ingest turns raw telemetry messages into drone state transitions.
// Each message runs one pass: identify the drone from the topic, parse the
// body, classify the kinematic state and geofence position, deduplicate the
// reasons, commit. Every per-message failure is converted into a logged
// drop so the surrounding transport loop never stops.
package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/skywatch/skywatch/internal/danger"
	"github.com/skywatch/skywatch/internal/geofence"
	"github.com/skywatch/skywatch/internal/storage"
)

// Drones publish OSD payloads on thing/product/{serial}/osd.
var topicRe = regexp.MustCompile(`^thing/product/([^/]+)/osd$`)

// SerialFromTopic extracts the drone serial from a routing key.
// The second return value is false for topics that do not match.
func SerialFromTopic(topic string) (string, bool) {
	m := topicRe.FindStringSubmatch(topic)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// WithClock overrides the pipeline's time source. Used by tests.
func WithClock(now func() time.Time) func(*Pipeline) {
	return func(p *Pipeline) {
		p.now = now
	}
}

// Pipeline processes telemetry messages one at a time. It is driven by a
// transport adapter and owns no goroutines of its own.
type Pipeline struct {
	store      storage.Store
	classifier *danger.Classifier
	logger     *slog.Logger
	now        func() time.Time

	processed atomic.Int64
	dropped   atomic.Int64
}

// New creates a Pipeline committing to store and classifying with classifier.
func New(store storage.Store, classifier *danger.Classifier, logger *slog.Logger, options ...func(*Pipeline)) *Pipeline {
	p := Pipeline{
		store:      store,
		classifier: classifier,
		logger:     logger,
		now:        time.Now,
	}

	for _, option := range options {
		option(&p)
	}

	return &p
}

// Processed returns the number of messages committed so far.
func (p *Pipeline) Processed() int64 { return p.processed.Load() }

// Dropped returns the number of messages dropped so far.
func (p *Pipeline) Dropped() int64 { return p.dropped.Load() }

// Handle runs one full pass for a single message. It never returns an
// error: malformed topics and bodies are silently dropped, commit failures
// are logged and dropped, and at-least-once delivery means a failed message
// may be retried by the broker later.
func (p *Pipeline) Handle(ctx context.Context, topic string, payload []byte) {
	serial, ok := SerialFromTopic(topic)
	if !ok {
		p.dropped.Add(1)
		return
	}

	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		p.dropped.Add(1)
		p.logger.Debug("dropping undecodable payload", slog.String("serial", serial), slog.String("error", err.Error()))
		return
	}

	lat := safeFloat(body["latitude"])
	lon := safeFloat(body["longitude"])
	height := safeFloat(body["height"])
	hSpeed := safeFloat(body["horizontal_speed"])

	reasons := p.classifier.Classify(danger.State{Height: height, HorizontalSpeed: hSpeed})

	if lat != nil && lon != nil {
		// Snapshot of the active zones at evaluation time; concurrent zone
		// writes do not affect this pass.
		zones, err := p.store.ActiveZones(ctx)
		if err != nil {
			p.dropped.Add(1)
			p.logger.Error("loading active zones", slog.String("serial", serial), slog.String("error", err.Error()))
			return
		}
		if reason := geofence.Check(*lat, *lon, zones); reason != "" {
			reasons = append(reasons, reason)
		}
	}

	reasons = dedupe(reasons)

	up := storage.TelemetryUpdate{
		Timestamp:       p.now().UTC(),
		Latitude:        lat,
		Longitude:       lon,
		Height:          height,
		HorizontalSpeed: hSpeed,
		IsDangerous:     len(reasons) > 0,
		DangerReasons:   reasons,
		Payload:         payload,
	}

	if err := p.store.UpsertTelemetry(ctx, serial, up); err != nil {
		p.dropped.Add(1)
		p.logger.Error("committing telemetry", slog.String("serial", serial), slog.String("error", err.Error()))
		return
	}

	p.processed.Add(1)
	p.logger.Debug("telemetry committed",
		slog.String("serial", serial),
		slog.Bool("dangerous", up.IsDangerous),
		slog.Any("reasons", reasons))
}

// safeFloat best-effort coerces a decoded JSON value to a float. Numbers
// and numeric strings resolve; anything else, including absence, is
// unknown (nil), never an error.
func safeFloat(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil
		}
		return &f
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// dedupe removes duplicate reasons, preserving first-occurrence order.
func dedupe(reasons []string) []string {
	if len(reasons) < 2 {
		return reasons
	}

	seen := make(map[string]struct{}, len(reasons))
	out := reasons[:0]
	for _, r := range reasons {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
