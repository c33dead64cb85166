package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"raydar-sim/internal/config"
	"raydar-sim/internal/logging"
	"raydar-sim/internal/sim"
	"raydar-sim/internal/tracker"
)

// Server exposes the simulator over a small HTTP API.
type Server struct {
	Sim *sim.Simulator
	tpl *template.Template
}

//go:embed templates/index.html
var content embed.FS

func NewServer(sim *sim.Simulator) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{Sim: sim, tpl: tpl}
}

// Handler returns the routed admin API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /blips", s.handleBlips)
	mux.HandleFunc("GET /scanner", s.handleScanner)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /spawn", s.handleSpawn)
	mux.HandleFunc("POST /remove", s.handleRemove)
	mux.HandleFunc("POST /resize", s.handleResize)
	return mux
}

// Start serves the API until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	logging.FromContext(ctx).Info("admin UI listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// blipView is the JSON shape of one blip.
type blipView struct {
	ID       string  `json:"id"`
	Callsign string  `json:"callsign"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Heading  float64 `json:"heading"`
	Opacity  float64 `json:"opacity"`
	State    string  `json:"state"`
	Detected bool    `json:"detected"`
}

func blipViews(blips []tracker.Blip) []blipView {
	out := make([]blipView, 0, len(blips))
	for _, b := range blips {
		out = append(out, blipView{
			ID:       b.ID,
			Callsign: b.Callsign,
			X:        b.Position.X,
			Y:        b.Position.Y,
			Heading:  b.Heading,
			Opacity:  b.Opacity,
			State:    string(b.State),
			Detected: b.Detected,
		})
	}
	return out
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		SiteID  string
		Scanner sim.ScannerView
		Health  sim.Health
		Blips   []blipView
		Radar   config.Radar
	}{
		SiteID:  s.Sim.SiteID(),
		Scanner: s.Sim.Scanner(),
		Health:  s.Sim.Health(),
		Blips:   blipViews(s.Sim.Blips()),
		Radar:   s.Sim.GetConfig().Radar,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		logging.FromContext(r.Context()).Error("render index", "err", err)
	}
}

func (s *Server) handleBlips(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, blipViews(s.Sim.Blips()))
}

func (s *Server) handleScanner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Scanner())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Health())
}

// handleSpawn adds one target from query params, or random=N targets.
func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if n := q.Get("random"); n != "" {
		count, err := strconv.Atoi(n)
		if err != nil || count <= 0 {
			httpError(w, http.StatusBadRequest, "random must be a positive integer")
			return
		}
		ids, err := s.Sim.SpawnRandom(count)
		if err != nil {
			writeSpawnError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"ids": ids})
		return
	}

	nums, err := floats(q.Get, "x", "y", "heading", "speed")
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if nums[3] < 0 {
		httpError(w, http.StatusBadRequest, "speed must not be negative")
		return
	}
	id, err := s.Sim.Spawn(tracker.Spec{
		Callsign: q.Get("callsign"),
		Position: r2.Vec{X: nums[0], Y: nums[1]},
		Heading:  nums[2],
		Speed:    nums[3],
	})
	if err != nil {
		writeSpawnError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httpError(w, http.StatusBadRequest, "id is required")
		return
	}
	if !s.Sim.Remove(id) {
		httpError(w, http.StatusNotFound, "no target "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	nums, err := floats(r.URL.Query().Get, "radius", "cx", "cy")
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.Sim.Resize(nums[0], r2.Vec{X: nums[1], Y: nums[2]}); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.Sim.Scanner())
}

// floats parses the named query params. Missing params read as zero and
// non-finite values are rejected.
func floats(get func(string) string, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		v := get(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errors.New("invalid " + name + ": " + v)
		}
		out[i] = f
	}
	return out, nil
}

func writeSpawnError(w http.ResponseWriter, err error) {
	if errors.Is(err, tracker.ErrCapacityExceeded) {
		httpError(w, http.StatusConflict, err.Error())
		return
	}
	httpError(w, http.StatusBadRequest, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
