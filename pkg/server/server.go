// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the overlay BGP features generated from the topology snapshot over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.githedgehog.com/fabric-overlay/pkg/config"
	"go.githedgehog.com/fabric-overlay/pkg/overlay"
	"go.githedgehog.com/fabric-overlay/pkg/render"
	"go.githedgehog.com/fabric-overlay/pkg/topology"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	ShutdownTimeout = 10 * time.Second

	reloadKey = "reload"

	HeaderSnapshotID = "X-Topology-Snapshot"
)

// Loader returns a fresh topology snapshot
type Loader func() (*topology.Data, error)

type snapshot struct {
	id      string
	data    *topology.Data
	planner *overlay.Planner
	routers []string
}

type Service struct {
	cfg     *config.Service
	load    Loader
	metrics *Metrics
	sf      *singleflight.Group

	snapshotLock sync.RWMutex
	snapshot     *snapshot
}

// New creates the service and loads the initial snapshot
func New(cfg *config.Service, load Loader) (*Service, error) {
	if cfg == nil {
		return nil, errors.Errorf("config is required")
	}
	if load == nil {
		return nil, errors.Errorf("loader is required")
	}

	svc := &Service{
		cfg:     cfg,
		load:    load,
		metrics: NewMetrics(),
		sf:      &singleflight.Group{},
	}

	if _, err := svc.Reload(); err != nil {
		return nil, errors.Wrapf(err, "error loading initial topology")
	}

	return svc, nil
}

func (svc *Service) Metrics() *Metrics {
	return svc.metrics
}

// Reload replaces the snapshot, concurrent calls share a single load; the old snapshot is kept on errors
func (svc *Service) Reload() (*ReloadOut, error) {
	res, err, _ := svc.sf.Do(reloadKey, func() (any, error) {
		data, err := svc.load()
		if err != nil {
			svc.metrics.Reloads.WithLabelValues(ReloadResultError).Inc()

			return nil, errors.Wrapf(err, "error loading topology")
		}

		routers := []string{}
		for _, pr := range data.PhysicalRouters.All() {
			routers = append(routers, pr.Name)
		}
		slices.SortFunc(routers, topology.CompareNames)

		snap := &snapshot{
			id:      uuid.New().String(),
			data:    data,
			planner: overlay.NewPlannerFor(data, svc.cfg.GroupNamePrefix),
			routers: routers,
		}

		svc.snapshotLock.Lock()
		svc.snapshot = snap
		svc.snapshotLock.Unlock()

		svc.metrics.Reloads.WithLabelValues(ReloadResultSuccess).Inc()
		slog.Info("Topology loaded", "snapshot", snap.id, "routers", len(routers))

		return &ReloadOut{Snapshot: snap.id, Routers: len(routers)}, nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return res.(*ReloadOut), nil //nolint:forcetypeassert
}

func (svc *Service) current() *snapshot {
	svc.snapshotLock.RLock()
	defer svc.snapshotLock.RUnlock()

	return svc.snapshot
}

func (svc *Service) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(svc.metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(ResponseRequestID)
	r.Use(middleware.Heartbeat("/healthz"))

	r.Handle("/metrics", promhttp.HandlerFor(svc.metrics.reg, promhttp.HandlerOpts{
		Registry: svc.metrics.reg,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/routers", svc.handleRouters)
		r.Get("/routers/{name}/"+overlay.FeatureName, svc.handleFeature)
		r.Post("/reload", svc.handleReload)
	})

	return r
}

type RoutersOut struct {
	Snapshot string   `json:"snapshot"`
	Routers  []string `json:"routers"`
}

type ReloadOut struct {
	Snapshot string `json:"snapshot"`
	Routers  int    `json:"routers"`
}

type ErrorOut struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, out any) {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal response", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		slog.Debug("Failed to write response", "err", err)
	}
}

func (svc *Service) handleRouters(w http.ResponseWriter, _ *http.Request) {
	snap := svc.current()
	writeJSON(w, http.StatusOK, &RoutersOut{Snapshot: snap.id, Routers: snap.routers})
}

func (svc *Service) handleFeature(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	output := render.OutputTypeYAML
	if v := r.URL.Query().Get("output"); v != "" {
		var err error
		if output, err = render.ParseOutputType(v); err != nil {
			writeJSON(w, http.StatusBadRequest, &ErrorOut{Error: err.Error()})

			return
		}
	}

	snap := svc.current()
	pr := snap.data.PhysicalRouter(name)
	if pr == nil {
		writeJSON(w, http.StatusNotFound, &ErrorOut{Error: "physical router " + name + " not found"})

		return
	}

	f := snap.planner.Plan(pr)
	svc.metrics.Plans.WithLabelValues(name).Inc()
	svc.metrics.PlanGroups.WithLabelValues(name).Set(float64(len(f.BGP)))

	buf := &bytes.Buffer{}
	if err := render.Render(output, buf, render.NewRouter(name, f, svc.cfg.ShowSecrets).WithNoColor(true)); err != nil {
		slog.Error("Failed to render feature", "router", name, "err", err)
		writeJSON(w, http.StatusInternalServerError, &ErrorOut{Error: err.Error()})

		return
	}

	w.Header().Set(HeaderSnapshotID, snap.id)
	switch output {
	case render.OutputTypeJSON:
		w.Header().Set("Content-Type", "application/json")
	case render.OutputTypeYAML:
		w.Header().Set("Content-Type", "application/yaml")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Debug("Failed to write response", "err", err)
	}
}

func (svc *Service) handleReload(w http.ResponseWriter, _ *http.Request) {
	out, err := svc.Reload()
	if err != nil {
		slog.Error("Failed to reload topology", "err", err)
		writeJSON(w, http.StatusInternalServerError, &ErrorOut{Error: err.Error()})

		return
	}

	writeJSON(w, http.StatusOK, out)
}

// Run serves the API until the context is canceled
func Run(ctx context.Context, cfg *config.Service) error {
	svc, err := New(cfg, func() (*topology.Data, error) {
		return topology.LoadDataFrom(cfg.Topology)
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       90 * time.Second,
		Handler:           svc.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Serving overlay BGP API", "listen", cfg.Listen)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrapf(err, "error running server")
		}

		return nil
	})
	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		return errors.Wrapf(srv.Shutdown(shutdownCtx), "error shutting down server") //nolint:contextcheck
	})

	return g.Wait() //nolint:wrapcheck
}
