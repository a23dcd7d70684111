// Package mockapi serves a synthetic sensor backend with the same routes and
// JSON shapes as the real one, for demos and client tests.
package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"

	"github.com/pvz-iot/pvz/internal/api"
	"github.com/pvz-iot/pvz/internal/device"
	"github.com/pvz-iot/pvz/internal/logger"
)

// DefaultDevices is the fleet size when Options.Devices is zero.
const DefaultDevices = 5

// Options configures the mock backend.
type Options struct {
	Devices   int
	Clock     clockwork.Clock
	AccessLog io.Writer // request log in Apache combined format; nil disables it
	Logger    logger.Logger

	// Fail makes the named resources (see api.Resource*) answer 503.
	Fail []string
}

// Server holds the fleet behind the routes.
type Server struct {
	fleet     *Fleet
	clock     clockwork.Clock
	log       logger.Logger
	accessLog io.Writer
	fail      map[string]bool
}

// New creates a Server.
func New(opts Options) *Server {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	n := opts.Devices
	if n == 0 {
		n = DefaultDevices
	}
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}
	fail := make(map[string]bool, len(opts.Fail))
	for _, r := range opts.Fail {
		fail[r] = true
	}
	return &Server{
		fleet:     NewFleet(n, clock.Now().Add(-time.Hour)),
		clock:     clock,
		log:       log,
		accessLog: opts.AccessLog,
		fail:      fail,
	}
}

// NewRouter registers the backend routes.
func (s *Server) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	r.HandleFunc("/api/{env}/{tenant}/devices", s.devices).Methods(http.MethodGet)
	d := r.PathPrefix("/api/{env}/{tenant}/devices").Subrouter()
	d.HandleFunc("/summary/recent", s.recentSummary).Methods(http.MethodGet)
	d.HandleFunc("/summary/drought", s.droughtSummary).Methods(http.MethodGet)
	d.HandleFunc("/{deviceId}", s.device).Methods(http.MethodGet)
	d.HandleFunc("/{deviceId}/metrics", s.metrics).Methods(http.MethodGet)
	d.HandleFunc("/{deviceId}/drought", s.droughtStreak).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "no route")
	})
	return r
}

// Handler wraps the router with panic recovery and, if configured, access
// logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.NewRouter()
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(h)
	if s.accessLog != nil {
		h = handlers.CombinedLoggingHandler(s.accessLog, h)
	}
	return h
}

// ListenAndServe serves the mock backend on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, opts Options) error {
	s := New(opts)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("Mock API listening on %s (%d devices)", addr, s.fleet.n)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) devices(w http.ResponseWriter, r *http.Request) {
	if s.failing(w, r, api.ResourceDevices) {
		return
	}
	writeJSON(w, http.StatusOK, s.stamp(r, s.fleet.Roster(s.clock.Now())))
}

func (s *Server) device(w http.ResponseWriter, r *http.Request) {
	i, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.stamp(r, []api.DeviceState{s.fleet.State(i, s.clock.Now())})[0])
}

func (s *Server) recentSummary(w http.ResponseWriter, r *http.Request) {
	if s.failing(w, r, api.ResourceRecentSummary) {
		return
	}
	body := s.fleet.RecentSummary(s.clock.Now())
	body.Env, body.TenantID = scope(r)
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) droughtSummary(w http.ResponseWriter, r *http.Request) {
	if s.failing(w, r, api.ResourceDroughtSummary) {
		return
	}
	body := s.fleet.DroughtSummary(s.clock.Now())
	body.Env, body.TenantID = scope(r)
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) droughtStreak(w http.ResponseWriter, r *http.Request) {
	if s.failing(w, r, api.ResourceDroughtStreak) {
		return
	}
	i, ok := s.lookup(w, r)
	if !ok {
		return
	}
	body, ok := s.fleet.DroughtStreak(i, s.clock.Now())
	if !ok {
		writeError(w, r, http.StatusNotFound, "no drought data for device")
		return
	}
	body.Env, body.TenantID = scope(r)
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	if s.failing(w, r, api.ResourceMetrics) {
		return
	}
	i, ok := s.lookup(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	bucket := device.BucketHour
	if raw := q.Get("bucket"); raw != "" {
		b, ok := device.ParseBucket(raw)
		if !ok {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown bucket %q", raw))
			return
		}
		bucket = b
	}

	var from, to time.Time
	if q.Has("from") && q.Has("to") {
		f, errFrom := strconv.ParseInt(q.Get("from"), 10, 64)
		t, errTo := strconv.ParseInt(q.Get("to"), 10, 64)
		if errFrom != nil || errTo != nil {
			writeError(w, r, http.StatusBadRequest, "from and to must be epoch seconds")
			return
		}
		from, to = time.Unix(f, 0), time.Unix(t, 0)
	}

	writeJSON(w, http.StatusOK, s.fleet.Metrics(i, bucket, from, to, s.clock.Now()))
}

func (s *Server) failing(w http.ResponseWriter, r *http.Request, resource string) bool {
	if !s.fail[resource] {
		return false
	}
	writeError(w, r, http.StatusServiceUnavailable, resource+" unavailable")
	return true
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (int, bool) {
	id := mux.Vars(r)["deviceId"]
	i, ok := s.fleet.Index(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("device %s not found", id))
	}
	return i, ok
}

func (s *Server) stamp(r *http.Request, states []api.DeviceState) []api.DeviceState {
	env, tenant := scope(r)
	for i := range states {
		states[i].Env, states[i].TenantID = env, tenant
	}
	return states
}

func scope(r *http.Request) (string, string) {
	v := mux.Vars(r)
	return v["env"], v["tenant"]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, api.ErrorBody{
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
