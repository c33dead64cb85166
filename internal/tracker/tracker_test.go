package tracker

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r2"

	"raydar-sim/internal/radar"
)

const (
	testRPM    = 12.5
	testRadius = 250
	frame      = time.Second / 60
)

var testCenter = r2.Vec{X: 250, Y: 250}

// harness drives a sweep and tracker in the simulator's tick order.
type harness struct {
	sweep   *radar.Sweep
	tracker *Tracker
	now     time.Duration
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	sw, err := radar.NewSweep(testRPM, testRadius, testCenter)
	if err != nil {
		t.Fatalf("NewSweep: %v", err)
	}
	return &harness{sweep: sw, tracker: New(cfg, sw.RevolutionPeriod(), rand.New(rand.NewSource(1)))}
}

func (h *harness) tick(dt time.Duration) []Detection {
	h.now += dt
	h.sweep.Advance(dt)
	return h.tracker.Tick(h.now, dt, h.sweep.Ray())
}

func (h *harness) add(t *testing.T, spec Spec) string {
	t.Helper()
	id, err := h.tracker.Add(spec, h.now)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return id
}

func defaultConfig() Config {
	return Config{Capacity: 16, DetectionRadius: 15, FadeRate: 0.2, DebounceFraction: 0.25}
}

func TestAddStartsVisibleAndUndetected(t *testing.T) {
	h := newHarness(t, defaultConfig())
	id := h.add(t, Spec{Callsign: "DLH123", Position: r2.Vec{X: 10, Y: 20}, Heading: 45, Speed: 5})

	tg, ok := h.tracker.Target(id)
	if !ok {
		t.Fatalf("target %s not found", id)
	}
	if tg.DisplayPosition != tg.TruePosition {
		t.Fatalf("display %v != true %v at spawn", tg.DisplayPosition, tg.TruePosition)
	}
	if tg.Opacity != 1 || tg.Detected {
		t.Fatalf("unexpected spawn state: %+v", tg)
	}
	if tg.State() != StateDetected {
		t.Fatalf("expected fresh target to be fully visible, got %s", tg.State())
	}
}

func TestAddGeneratesCallsign(t *testing.T) {
	h := newHarness(t, defaultConfig())
	id := h.add(t, Spec{})
	tg, _ := h.tracker.Target(id)
	if len(tg.Callsign) != 7 || tg.Callsign[:3] != "TGT" {
		t.Fatalf("unexpected generated callsign %q", tg.Callsign)
	}
}

func TestAddRejectsOverflow(t *testing.T) {
	cfg := defaultConfig()
	cfg.Capacity = 2
	h := newHarness(t, cfg)
	h.add(t, Spec{Callsign: "A"})
	h.add(t, Spec{Callsign: "B"})

	_, err := h.tracker.Add(Spec{Callsign: "C"}, 0)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if h.tracker.Len() != 2 {
		t.Fatalf("expected 2 targets, got %d", h.tracker.Len())
	}
	blips := h.tracker.Blips()
	if blips[0].Callsign != "A" || blips[1].Callsign != "B" {
		t.Fatalf("existing targets changed: %+v", blips)
	}
}

func TestRemove(t *testing.T) {
	h := newHarness(t, defaultConfig())
	a := h.add(t, Spec{Callsign: "A"})
	h.add(t, Spec{Callsign: "B"})
	if !h.tracker.Remove(a) {
		t.Fatalf("expected remove to succeed")
	}
	if h.tracker.Remove(a) {
		t.Fatalf("expected second remove to fail")
	}
	if h.tracker.Len() != 1 || h.tracker.Blips()[0].Callsign != "B" {
		t.Fatalf("unexpected targets after remove: %+v", h.tracker.Blips())
	}
}

func TestTickWithoutTargets(t *testing.T) {
	h := newHarness(t, defaultConfig())
	if dets := h.tick(frame); len(dets) != 0 {
		t.Fatalf("expected no detections, got %v", dets)
	}
}

func TestDetectionOnFirstTick(t *testing.T) {
	h := newHarness(t, defaultConfig())
	end := h.sweep.Ray().End
	id := h.add(t, Spec{Callsign: "AFR1", Position: end})

	dets := h.tick(frame)
	if len(dets) != 1 || dets[0].TargetID != id {
		t.Fatalf("expected one detection of %s, got %+v", id, dets)
	}
	tg, _ := h.tracker.Target(id)
	if tg.Opacity != 1 {
		t.Fatalf("expected opacity reset to 1, got %f", tg.Opacity)
	}
	if tg.DisplayPosition != tg.TruePosition {
		t.Fatalf("display %v != true %v after detection", tg.DisplayPosition, tg.TruePosition)
	}
	if !tg.Detected || tg.LastDetectedAt != h.now {
		t.Fatalf("detection timestamp not recorded: %+v", tg)
	}
}

func TestOppositeTargetDetectedOnceWhenSweepArrives(t *testing.T) {
	h := newHarness(t, defaultConfig())
	// Half a turn away from the initial ray, which points east.
	id := h.add(t, Spec{Callsign: "OPP", Position: r2.Vec{X: 0, Y: 250}})

	dt := 10 * time.Millisecond
	half := h.sweep.RevolutionPeriod() / 2
	window := h.tracker.DebounceWindow()

	var hits []time.Duration
	for h.now < half+window {
		for _, d := range h.tick(dt) {
			if d.TargetID == id {
				hits = append(hits, d.At)
			}
		}
	}
	if len(hits) != 1 {
		t.Fatalf("expected exactly one detection, got %d at %v", len(hits), hits)
	}
	if diff := hits[0] - half; diff < -100*time.Millisecond || diff > 100*time.Millisecond {
		t.Fatalf("detection at %v, expected near %v", hits[0], half)
	}
}

func TestDebounceOneDetectionPerRevolution(t *testing.T) {
	h := newHarness(t, defaultConfig())
	// Stationary, 200 units north of the antenna: the beam lingers on it for
	// several frames per pass.
	id := h.add(t, Spec{Callsign: "STAT", Position: r2.Vec{X: 250, Y: 50}})

	period := h.sweep.RevolutionPeriod()
	var hits []time.Duration
	ticksInside := 0
	for h.now < 3*period {
		h.now += frame
		h.sweep.Advance(frame)
		ray := h.sweep.Ray()
		if radar.SegmentIntersectsDisk(ray, r2.Vec{X: 250, Y: 50}, 15) {
			ticksInside++
		}
		for _, d := range h.tracker.Tick(h.now, frame, ray) {
			if d.TargetID == id {
				hits = append(hits, d.At)
			}
		}
	}
	if ticksInside <= len(hits) {
		t.Fatalf("beam should dwell on the target for several ticks per pass (inside=%d hits=%d)", ticksInside, len(hits))
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 detections over 3 revolutions, got %d at %v", len(hits), hits)
	}
	for i := 1; i < len(hits); i++ {
		gap := hits[i] - hits[i-1]
		if gap < period-2*frame || gap > period+2*frame {
			t.Fatalf("detections %d and %d are %v apart, expected about %v", i-1, i, gap, period)
		}
	}
}

func TestDebounceWindowScalesWithRevolution(t *testing.T) {
	h := newHarness(t, defaultConfig())
	// A target on the antenna is under the beam on every tick, so only the
	// debounce window limits re-detection.
	id := h.add(t, Spec{Callsign: "CTR", Position: testCenter})
	window := h.tracker.DebounceWindow()
	if want := h.sweep.RevolutionPeriod() / 4; window != want {
		t.Fatalf("window %v, want %v", window, want)
	}

	dt := 10 * time.Millisecond
	var hits []time.Duration
	for h.now < 2*h.sweep.RevolutionPeriod() {
		for _, d := range h.tick(dt) {
			if d.TargetID == id {
				hits = append(hits, d.At)
			}
		}
	}
	if len(hits) < 2 {
		t.Fatalf("expected repeated detections, got %v", hits)
	}
	for i := 1; i < len(hits); i++ {
		gap := hits[i] - hits[i-1]
		if gap <= window || gap > window+dt {
			t.Fatalf("gap %v outside (%v, %v]", gap, window, window+dt)
		}
	}
}

func TestFadeIsMonotonicBetweenDetections(t *testing.T) {
	h := newHarness(t, defaultConfig())
	id := h.add(t, Spec{Callsign: "MOV", Position: r2.Vec{X: 300, Y: 120}, Heading: 120, Speed: 25})

	prev := 1.0
	detections := 0
	for i := 0; i < 1200; i++ {
		dets := h.tick(frame)
		tg, _ := h.tracker.Target(id)
		if len(dets) > 0 {
			detections++
			prev = tg.Opacity
			continue
		}
		if tg.Opacity > prev {
			t.Fatalf("tick %d: opacity rose from %f to %f without detection", i, prev, tg.Opacity)
		}
		if tg.Opacity < 0 || tg.Opacity > 1 {
			t.Fatalf("tick %d: opacity %f out of range", i, tg.Opacity)
		}
		prev = tg.Opacity
	}
	if detections == 0 {
		t.Fatalf("expected the moving target to be detected at least once")
	}
}

func TestFadeClampsAtZero(t *testing.T) {
	cfg := defaultConfig()
	cfg.FadeRate = 1
	h := newHarness(t, cfg)
	// Outside the scan disk, never detected.
	id := h.add(t, Spec{Callsign: "FAR", Position: r2.Vec{X: 2000, Y: 2000}})
	h.tick(5 * time.Second)
	tg, _ := h.tracker.Target(id)
	if tg.Opacity != 0 {
		t.Fatalf("expected opacity 0, got %f", tg.Opacity)
	}
	if tg.State() != StateDark {
		t.Fatalf("expected dark state, got %s", tg.State())
	}
}

func TestDisplayPositionOnlyChangesOnDetection(t *testing.T) {
	h := newHarness(t, defaultConfig())
	id := h.add(t, Spec{Callsign: "SNAP", Position: r2.Vec{X: 250, Y: 50}, Heading: 0, Speed: 30})

	prev, _ := h.tracker.Target(id)
	detections := 0
	diverged := false
	for i := 0; i < 600; i++ {
		dets := h.tick(frame)
		cur, _ := h.tracker.Target(id)
		if len(dets) == 0 {
			if cur.DisplayPosition != prev.DisplayPosition {
				t.Fatalf("tick %d: display moved without detection: %v -> %v", i, prev.DisplayPosition, cur.DisplayPosition)
			}
		} else {
			detections++
			if cur.DisplayPosition != cur.TruePosition {
				t.Fatalf("tick %d: detection did not snapshot true position", i)
			}
		}
		if cur.TruePosition != cur.DisplayPosition {
			diverged = true
		}
		prev = cur
	}
	if detections == 0 {
		t.Fatalf("expected at least one detection")
	}
	if !diverged {
		t.Fatalf("expected true position to drift away from the displayed blip")
	}
}

func TestMotionIntegration(t *testing.T) {
	h := newHarness(t, defaultConfig())
	id := h.add(t, Spec{Callsign: "NTH", Position: r2.Vec{X: 1000, Y: 1000}, Heading: 90, Speed: 10})
	h.tick(2 * time.Second)
	tg, _ := h.tracker.Target(id)
	if math.Abs(tg.TruePosition.X-1000) > 1e-9 || math.Abs(tg.TruePosition.Y-980) > 1e-9 {
		t.Fatalf("expected (1000, 980), got %v", tg.TruePosition)
	}
}

func TestNegativeDeltaIsZero(t *testing.T) {
	h := newHarness(t, defaultConfig())
	id := h.add(t, Spec{Callsign: "NEG", Position: r2.Vec{X: 2000, Y: 0}, Heading: 10, Speed: 50})
	before, _ := h.tracker.Target(id)
	h.tracker.Tick(0, -time.Second, h.sweep.Ray())
	after, _ := h.tracker.Target(id)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("negative dt changed target (-before +after):\n%s", diff)
	}
}

func TestSpeedJitterStaysInRange(t *testing.T) {
	cfg := defaultConfig()
	cfg.SpeedJitter = true
	cfg.SpeedMin, cfg.SpeedMax = 10, 20
	h := newHarness(t, cfg)
	id := h.add(t, Spec{Callsign: "JIT", Position: r2.Vec{X: 5000, Y: 5000}, Speed: 15})
	for i := 0; i < 100; i++ {
		h.tick(frame)
		tg, _ := h.tracker.Target(id)
		if tg.Speed < 10 || tg.Speed > 20 {
			t.Fatalf("speed %f outside [10, 20]", tg.Speed)
		}
	}
}

func TestDetectionIndependentOfTargetOrder(t *testing.T) {
	specs := []Spec{
		{Callsign: "A", Position: r2.Vec{X: 480, Y: 255}},
		{Callsign: "B", Position: r2.Vec{X: 400, Y: 240}},
		{Callsign: "C", Position: r2.Vec{X: 100, Y: 100}},
		{Callsign: "D", Position: r2.Vec{X: 700, Y: 250}},
		{Callsign: "E", Position: r2.Vec{X: 255, Y: 251}},
	}
	run := func(order []Spec) []string {
		h := newHarness(t, defaultConfig())
		for _, s := range order {
			h.add(t, s)
		}
		var names []string
		for _, d := range h.tick(frame) {
			names = append(names, d.Callsign)
		}
		sort.Strings(names)
		return names
	}

	reversed := make([]Spec, len(specs))
	for i, s := range specs {
		reversed[len(specs)-1-i] = s
	}
	forward := run(specs)
	if diff := cmp.Diff(forward, run(reversed)); diff != "" {
		t.Fatalf("detections depend on order (-forward +reversed):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "B", "E"}, forward); diff != "" {
		t.Fatalf("unexpected detections (-want +got):\n%s", diff)
	}
}

func TestBlipsExposeDisplayState(t *testing.T) {
	h := newHarness(t, defaultConfig())
	id := h.add(t, Spec{Callsign: "BLP", Position: h.sweep.Ray().End, Heading: 270, Speed: 0})
	h.tick(frame)
	h.tick(frame)

	tg, _ := h.tracker.Target(id)
	want := []Blip{{
		ID:             id,
		Callsign:       "BLP",
		Position:       tg.DisplayPosition,
		Heading:        270,
		Opacity:        tg.Opacity,
		State:          StateFading,
		LastDetectedAt: frame,
		Detected:       true,
	}}
	if diff := cmp.Diff(want, h.tracker.Blips()); diff != "" {
		t.Fatalf("blips mismatch (-want +got):\n%s", diff)
	}
}

func TestStateOf(t *testing.T) {
	cases := map[float64]State{-0.1: StateDark, 0: StateDark, 0.5: StateFading, 1: StateDetected}
	for o, want := range cases {
		if got := StateOf(o); got != want {
			t.Errorf("StateOf(%v) = %s, want %s", o, got, want)
		}
	}
}
