package monitor

import (
	"context"
	"log/slog"

	"drone-activity-classifier/drone"
)

// LogDisplay renders each reading as a structured status line.
type LogDisplay struct {
	Logger *slog.Logger
}

func (d LogDisplay) Show(ctx context.Context, r Reading) error {
	level := slog.LevelInfo
	if r.Status == drone.StatusSuspicious {
		level = slog.LevelWarn
	}
	d.Logger.Log(ctx, level, "drone status",
		slog.String("status", r.Status.String()),
		slog.Float64("lat", r.Sample.Latitude),
		slog.Float64("lon", r.Sample.Longitude),
		slog.String("geohash", r.Geohash),
		slog.Float64("altitude", r.Sample.Altitude),
		slog.Float64("speed", r.Sample.Speed),
		slog.Float64("distanceToRestricted", r.Sample.DistanceToRestricted),
		slog.String("alert", r.Alert),
		slog.Time("timestamp", r.Timestamp),
	)
	return nil
}
