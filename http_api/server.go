package http_api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"pixel_forge/studio"
)

const (
	DefaultAddr = ":8080"

	maxUploadBytes = 32 << 20
)

type Server interface {
	Handler() http.Handler
	Start() error
	Shutdown(ctx context.Context) error
}

type serverImpl struct {
	app    *studio.App
	router chi.Router
	server *http.Server
}

type Config struct {
	App  *studio.App
	Addr string
}

func New(cfg Config) (Server, error) {
	if cfg.App == nil {
		return nil, errors.New("missing app")
	}

	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	s := &serverImpl{app: cfg.App}
	s.router = s.routes()
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

func (s *serverImpl) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(logging)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.healthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/generate", s.generate)
		r.Post("/regenerate/{id}", s.regenerate)
		r.Get("/status", s.status)
		r.Post("/randomize", s.randomize)
		r.Post("/import/png", s.importPNG)
		r.Get("/modifiers", s.modifiers)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", s.listHistory)
			r.Get("/view", s.getView)
			r.Put("/view", s.putView)
			r.Get("/{id}", s.getRecord)
			r.Delete("/{id}", s.deleteRecord)
			r.Get("/{id}/image", s.recordImage)
			r.Get("/{id}/metadata", s.recordMetadata)
		})

		r.Route("/groups/{groupID}", func(r chi.Router) {
			r.Get("/", s.getGroup)
			r.Delete("/", s.deleteGroup)
			r.Get("/export", s.exportGroup)
			r.Get("/sheet", s.groupSheet)
		})

		r.Route("/selection", func(r chi.Router) {
			r.Get("/", s.getSelection)
			r.Delete("/", s.clearSelection)
			r.Post("/mode", s.selectionMode)
			r.Post("/toggle/{id}", s.toggleSelection)
			r.Post("/toggle-all", s.toggleAll)
			r.Post("/delete", s.deleteSelection)
			r.Get("/export", s.exportSelection)
			r.Post("/upload", s.uploadSelection)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.listTemplates)
			r.Post("/", s.createTemplate)
			r.Put("/{id}", s.updateTemplate)
			r.Delete("/{id}", s.deleteTemplate)
		})

		r.Route("/settings/credentials", func(r chi.Router) {
			r.Get("/", s.getCredentials)
			r.Put("/{provider}", s.putCredential)
		})
	})

	return r
}

func (s *serverImpl) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. A graceful shutdown is not an error.
func (s *serverImpl) Start() error {
	log.Printf("HTTP API listening on %s", s.server.Addr)

	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

func (s *serverImpl) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.Printf("%s %s %d %dB %s [%s]",
			r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start), chimiddleware.GetReqID(r.Context()))
	})
}
