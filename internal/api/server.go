package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/glxcee/storm-tape/internal/lifecycle"
	"github.com/glxcee/storm-tape/internal/pathresolver"
	"github.com/glxcee/storm-tape/internal/probe"
	"github.com/glxcee/storm-tape/internal/recall"
	"github.com/glxcee/storm-tape/internal/store"
	"github.com/glxcee/storm-tape/internal/telemetry"
)

// Server holds every collaborator an HTTP handler needs. Build one with
// NewServer and mount its routes with NewRouter.
type Server struct {
	resolver *pathresolver.Resolver
	store    store.Store
	engine   *lifecycle.Engine
	handoff  *recall.Handoff
	prober   probe.Prober
	logger   *zap.Logger
	tracer   trace.Tracer
	now      func() int64
}

// NewServer wires resolver, st, engine, handoff and prober together (prober
// backs the archive-info lookup, which has no other reason to reach into
// internal/recall). logger and tracer may be nil, in which case requests
// are neither logged nor traced (used by unit tests that do not care about
// the ambient stack).
func NewServer(resolver *pathresolver.Resolver, st store.Store, engine *lifecycle.Engine, handoff *recall.Handoff, prober probe.Prober, logger *zap.Logger, tracer trace.Tracer) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("storm-tape")
	}
	return &Server{
		resolver: resolver,
		store:    st,
		engine:   engine,
		handoff:  handoff,
		prober:   prober,
		logger:   logger,
		tracer:   tracer,
		now:      func() int64 { return time.Now().Unix() },
	}
}

// NewRouter mounts every operation of spec.md section 6 onto a fresh chi
// mux, wrapped with the teacher's request-id/recoverer middleware plus
// internal/telemetry's access log.
func (s *Server) NewRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.AccessLog(s.logger))
	r.Use(telemetry.SpanMiddleware(s.tracer))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/stage", s.handleStageCreate)
		r.Get("/stage/{id}", s.handleStageStatus)
		r.Post("/stage/{id}/cancel", s.handleStageCancel)
		r.Post("/release/{id}", s.handleStageRelease)
		r.Delete("/stage/{id}", s.handleStageDelete)

		r.Post("/archiveinfo", s.handleArchiveInfo)

		r.Get("/recalltable/ready-take-over", s.handleReadyTakeOver)
		r.Post("/recalltable/take-over", s.handleTakeOver)
		r.Get("/recalltable/in-progress", s.handleInProgress)
	})

	return r
}
