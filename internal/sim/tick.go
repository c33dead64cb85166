package sim

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"raydar-sim/internal/logging"
	"raydar-sim/internal/radar"
	"raydar-sim/internal/telemetry"
	"raydar-sim/internal/tracker"
)

// Run starts the simulation loop and stops when the context is done.
// Each tick advances the model by the wall-clock time since the previous one.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting simulator", "site_id", s.siteID, "tick_interval", s.tickInterval,
		"revolution_period", s.sweep.RevolutionPeriod())
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	last := s.now()
	for {
		select {
		case <-ticker.C:
			now := s.now()
			s.Tick(ctx, now.Sub(last))
			last = now
		case <-ctx.Done():
			log.Info("stopping simulator", "elapsed", s.Elapsed())
			return
		}
	}
}

type tickOutput struct {
	detections []telemetry.DetectionRow
	blips      []telemetry.BlipRow
	state      *telemetry.ScannerStateRow
}

// Tick advances the simulation by dt and forwards the resulting rows to the
// writers. A negative dt is treated as zero. Writer errors are logged and do
// not stop the simulation.
func (s *Simulator) Tick(ctx context.Context, dt time.Duration) {
	out := s.step(ctx, dt)
	s.flush(ctx, out)
}

// step runs one frame under the lock: due waves are spawned, the sweep
// advances, and the tracker moves, fades and detects against the new ray.
func (s *Simulator) step(ctx context.Context, dt time.Duration) tickOutput {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dt < 0 {
		dt = 0
	}
	s.elapsed += dt
	s.spawnDueWaves(ctx)

	s.sweep.Advance(dt)
	ray := s.sweep.Ray()
	dets := s.tracker.Tick(s.elapsed, dt, ray)
	s.detections += len(dets)

	ts := s.now().UTC()
	var out tickOutput
	for _, d := range dets {
		out.detections = append(out.detections, s.detectionRow(d, ts))
	}
	if !s.reported || s.elapsed-s.lastReport >= s.reportInterval {
		s.reported = true
		s.lastReport = s.elapsed
		out.blips = s.blipRows(ts)
		st := s.stateRow(out.blips, ts)
		out.state = &st
	}
	return out
}

func (s *Simulator) spawnDueWaves(ctx context.Context) {
	if s.schedule == nil {
		return
	}
	log := logging.FromContext(ctx)
	center, radius := s.sweep.Center(), s.sweep.Radius()
	for _, w := range s.schedule.Due(s.elapsed) {
		spawned := 0
		for _, t := range w.Targets {
			spec := tracker.Spec{
				Callsign: t.Callsign,
				Position: t.Position(center, radius),
				Heading:  t.Heading,
				Speed:    t.Speed,
			}
			if _, err := s.tracker.Add(spec, s.elapsed); err != nil {
				log.Warn("wave spawn failed", "wave", w.Name, "err", err)
				continue
			}
			spawned++
		}
		ids, err := s.spawnRandomLocked(w.Random)
		if err != nil {
			log.Warn("wave spawn failed", "wave", w.Name, "err", err)
		}
		spawned += len(ids)
		log.Info("scenario wave released", "wave", w.Name, "spawned", spawned, "targets", s.tracker.Len())
	}
}

func (s *Simulator) flush(ctx context.Context, out tickOutput) {
	log := logging.FromContext(ctx)

	// Write detections if any
	if len(out.detections) > 0 && s.detectionWriter != nil {
		if bw, ok := s.detectionWriter.(batchDetectionWriter); ok {
			if err := bw.WriteDetections(out.detections); err != nil {
				log.Error("detection batch write failed", "err", err)
			}
		} else {
			for _, d := range out.detections {
				if err := s.detectionWriter.WriteDetection(d); err != nil {
					log.Error("detection write failed", "target_id", d.TargetID, "err", err)
				}
			}
		}
	}

	if out.blips != nil && s.writer != nil {
		// Batch support if writer implements WriteBatch
		if bw, ok := s.writer.(batchWriter); ok {
			if err := bw.WriteBatch(out.blips); err != nil {
				log.Error("batch write failed", "err", err)
			}
		} else {
			for _, row := range out.blips {
				if err := s.writer.Write(row); err != nil {
					log.Error("write failed", "target_id", row.TargetID, "err", err)
				}
			}
		}
	}

	if out.state != nil && s.stateWriter != nil {
		if err := s.stateWriter.WriteState(*out.state); err != nil {
			log.Error("state write failed", "err", err)
		}
	}
}

func (s *Simulator) detectionRow(d tracker.Detection, ts time.Time) telemetry.DetectionRow {
	rng, bearing := polar(s.sweep.Center(), d.Position)
	return telemetry.DetectionRow{
		SiteID:    s.siteID,
		TargetID:  d.TargetID,
		Callsign:  d.Callsign,
		X:         d.Position.X,
		Y:         d.Position.Y,
		Range:     rng,
		Bearing:   bearing,
		Heading:   d.Heading,
		Speed:     d.Speed,
		SimTime:   d.At.Seconds(),
		Timestamp: ts,
	}
}

// blipRows returns a row for every target, including dark ones.
func (s *Simulator) blipRows(ts time.Time) []telemetry.BlipRow {
	targets := s.tracker.Targets()
	rows := make([]telemetry.BlipRow, 0, len(targets))
	for _, t := range targets {
		rows = append(rows, telemetry.BlipRow{
			SiteID:    s.siteID,
			TargetID:  t.ID,
			Callsign:  t.Callsign,
			X:         t.DisplayPosition.X,
			Y:         t.DisplayPosition.Y,
			TrueX:     t.TruePosition.X,
			TrueY:     t.TruePosition.Y,
			Heading:   t.Heading,
			Speed:     t.Speed,
			Opacity:   t.Opacity,
			State:     string(t.State()),
			Detected:  t.Detected,
			Timestamp: ts,
		})
	}
	return rows
}

func (s *Simulator) stateRow(blips []telemetry.BlipRow, ts time.Time) telemetry.ScannerStateRow {
	visible := 0
	for _, b := range blips {
		if b.Opacity > 0 {
			visible++
		}
	}
	c := s.sweep.Center()
	return telemetry.ScannerStateRow{
		SiteID:     s.siteID,
		AngleDeg:   s.sweep.Degrees(),
		Radius:     s.sweep.Radius(),
		CenterX:    c.X,
		CenterY:    c.Y,
		RPM:        s.cfg.Radar.RPM,
		Targets:    len(blips),
		Visible:    visible,
		Detections: s.detections,
		SimTime:    s.elapsed.Seconds(),
		Timestamp:  ts,
	}
}

// polar returns the range and bearing (degrees, 0 east, counter-clockwise
// on screen) of p as seen from the radar site.
func polar(center, p r2.Vec) (float64, float64) {
	d := r2.Sub(p, center)
	bearing := radar.NormalizeAngle(math.Atan2(-d.Y, d.X)) * 180 / math.Pi
	return r2.Norm(d), bearing
}
