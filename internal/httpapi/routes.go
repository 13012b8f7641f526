package httpapi

import (
	"net/http"
	"time"

	"github.com/DoyleJ11/debate-lobby-backend/internal/gateway"
	"github.com/DoyleJ11/debate-lobby-backend/internal/hub"
	"github.com/DoyleJ11/debate-lobby-backend/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func SetupRoutes(h *hub.Hub, gw *gateway.Gateway, log *zap.Logger, wsOpts ws.Options) http.Handler {
	api := NewAPI(h, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	// Public routes
	r.Get("/healthz", api.Healthz)
	r.Route("/lobbies", func(r chi.Router) {
		r.Post("/", api.CreateLobby)
		r.Get("/{code}", api.GetLobby)
		r.Post("/{code}/join", api.JoinLobby)
	})
	r.Get("/ws", ws.Handler(h, gw, log.Named("ws"), wsOpts))
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
