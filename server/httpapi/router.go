// Package httpapi implements the HTTP contract in front of a game.Manager:
// map listing/detail, join, player roster, state, move actions, manual
// ticks, and leaderboard records — exactly the endpoints named in the
// external interface contract, with structured request/response logging
// and CORS.
//
// Grounded on the MOHCentral-opm-stats-api handler/router conventions
// (chi router, Handler struct composition, zap.SugaredLogger injection)
// and on the original logger.h's per-request field set for the logging
// middleware.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/packrun/packrun/server/game"
)

// Handler bundles the dependencies every route needs.
type Handler struct {
	Manager       *game.Manager
	Log           *zap.Logger
	ManualTick    bool // true when no --tick-period was given
	StaticRoot    string
}

// New constructs the full chi router for the game HTTP API, optionally
// serving static files from h.StaticRoot at "/".
func New(h *Handler) http.Handler {
	if h.Log == nil {
		h.Log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "invalidMethod", "method not allowed")
	})
	r.Use(loggingMiddleware(h.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "HEAD", "POST"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/maps", h.listMaps)
		r.Head("/maps", h.listMaps)
		r.Get("/maps/{id}", h.getMap)
		r.Head("/maps/{id}", h.getMap)

		r.Route("/game", func(r chi.Router) {
			r.Post("/join", h.join)
			r.Get("/players", h.players)
			r.Head("/players", h.players)
			r.Get("/state", h.state)
			r.Head("/state", h.state)
			r.Post("/player/action", h.action)
			r.Post("/tick", h.tick)
			r.Get("/records", h.records)
			r.Head("/records", h.records)
		})
	})

	if h.StaticRoot != "" {
		fs := http.FileServer(http.Dir(h.StaticRoot))
		r.NotFound(func(w http.ResponseWriter, req *http.Request) {
			fs.ServeHTTP(w, req)
		})
	}
	return r
}

func loggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
