// Package server exposes the rotator over HTTP: JSON state and commands plus
// the rendered verse fragment for a browser front end.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"verse-rotator/internal/av"
	"verse-rotator/internal/bible"
	"verse-rotator/internal/compiler"
	"verse-rotator/internal/notes"
	"verse-rotator/internal/rotator"
	"verse-rotator/internal/settings"
)

// Serial runs functions one at a time. The server wraps every controller
// call in it, and the rotator's scheduler dispatches ticks through it.
type Serial struct {
	mu sync.Mutex
}

// Do runs fn while holding the lock.
func (s *Serial) Do(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// CollectionStore is the collection persistence the API edits.
type CollectionStore interface {
	Collections(ctx context.Context) ([]bible.Collection, error)
	SaveCollection(ctx context.Context, c bible.Collection) error
	DeleteCollection(ctx context.Context, name string) error
}

type Deps struct {
	Controller     *rotator.Controller
	Serial         *Serial
	Collections    CollectionStore
	Notes          *notes.Manager
	Compiler       *compiler.Compiler
	AV             *av.System
	Prefs          *settings.Store
	Logger         *zap.Logger
	AllowedOrigins []string
}

type Server struct {
	ctrl        *rotator.Controller
	serial      *Serial
	collections CollectionStore
	notes       *notes.Manager
	compiler    *compiler.Compiler
	av          *av.System
	prefs       *settings.Store
	log         *zap.Logger
	origins     []string
	handler     http.Handler
}

// New wires the routes. Controller, Serial and Prefs are required; the
// other features answer 503 when their dependency is missing.
func New(d Deps) (*Server, error) {
	if d.Controller == nil || d.Serial == nil || d.Prefs == nil {
		return nil, errors.New("server: controller, serial and prefs are required")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if len(d.AllowedOrigins) == 0 {
		d.AllowedOrigins = []string{"https://*", "http://*"}
	}
	s := &Server{
		ctrl:        d.Controller,
		serial:      d.Serial,
		collections: d.Collections,
		notes:       d.Notes,
		compiler:    d.Compiler,
		av:          d.AV,
		prefs:       d.Prefs,
		log:         d.Logger,
		origins:     d.AllowedOrigins,
	}
	s.handler = s.RegisterRoutes()
	return s, nil
}

// Handler is the routed handler.
func (s *Server) Handler() http.Handler { return s.handler }

// HTTPServer returns an *http.Server for addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := s.HTTPServer(addr)
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.getState)
		r.Get("/fragment", s.getFragment)

		r.Post("/navigate", s.navigate)
		r.Post("/pause", s.pause)
		r.Post("/resume", s.resume)
		r.Post("/goto", s.goTo)

		r.Put("/mode", s.setMode)
		r.Put("/translation", s.setTranslation)
		r.Put("/collection", s.setCollection)
		r.Put("/interval", s.setInterval)

		r.Get("/translations", s.listTranslations)
		r.Get("/collections", s.listCollections)
		r.Put("/collections/{name}", s.saveCollection)
		r.Delete("/collections/{name}", s.deleteCollection)

		r.Post("/compile", s.compile)

		r.Get("/notes", s.listNotes)
		r.Post("/notes", s.createNote)
		r.Get("/notes/{name}", s.getNote)
		r.Put("/notes/{name}", s.saveNote)
		r.Delete("/notes/{name}", s.deleteNote)
		r.Get("/notes/{name}/preview", s.previewNote)

		r.Get("/av", s.getAV)
		r.Put("/av", s.putAV)
		r.Get("/preferences", s.getPreferences)
		r.Put("/preferences", s.putPreferences)
		r.Get("/theme", s.getTheme)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
