// Package health serves liveness and readiness probes for the Candidly
// server.
//
// /healthz reports process liveness and uptime. /readyz runs the registered
// probes (database, AI backends) concurrently and returns 503 when any of
// them fails.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// probeTimeout bounds a single readiness probe.
const probeTimeout = 5 * time.Second

// Probe checks one dependency. It must honour context cancellation.
type Probe func(ctx context.Context) error

// Handler answers /healthz and /readyz. Probes are registered at construction
// and evaluated concurrently on every readiness request.
type Handler struct {
	service string
	started time.Time
	probes  map[string]Probe
}

// New creates a Handler for the named service.
func New(service string) *Handler {
	return &Handler{
		service: service,
		started: time.Now(),
		probes:  map[string]Probe{},
	}
}

// AddProbe registers a named readiness probe. Not safe to call after the
// handler starts serving requests.
func (h *Handler) AddProbe(name string, p Probe) *Handler {
	h.probes[name] = p
	return h
}

type livenessReply struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

type readinessReply struct {
	Status string            `json:"status"`
	Probes map[string]string `json:"probes,omitempty"`
}

// Healthz reports liveness. A process that can serve HTTP is alive.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, livenessReply{
		Status:  "ok",
		Service: h.service,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	})
}

// Readyz runs every registered probe with a [probeTimeout] deadline. All
// probes run concurrently; the response lists each probe's outcome.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	var (
		mu      sync.Mutex
		results = make(map[string]string, len(h.probes))
	)

	// Plain errgroup on purpose: one failing probe must not cancel the
	// others, every outcome should appear in the report.
	var g errgroup.Group
	for name, probe := range h.probes {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
			defer cancel()
			err := probe(pctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[name] = "fail: " + err.Error()
				return err
			}
			results[name] = "ok"
			return nil
		})
	}

	reply := readinessReply{Status: "ok", Probes: results}
	status := http.StatusOK
	if g.Wait() != nil {
		reply.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, reply)
}

// Register adds the probe routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
