// Package server exposes editing sessions over HTTP.
//
// Every request names a document; the first request for a document opens
// its session, loading it from storage. Selection-dependent requests carry
// the selection to apply before the edit, so a client never relies on
// state left behind by another request.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/dshills/blockedit/internal/app"
)

const (
	shutdownTimeout = 10 * time.Second
	maxBodyBytes    = 8 << 20
)

// Server routes HTTP requests to editing sessions.
type Server struct {
	app    *app.Application
	logger *zap.Logger
	router *mux.Router

	// locks serializes selection-then-edit requests per document. Entries
	// live as long as the document's session.
	locks sync.Map
}

// New creates a server over a running application.
func New(a *app.Application) *Server {
	s := &Server{
		app:    a,
		logger: a.Logger().Named("http"),
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.logRequests)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.metrics).Methods(http.MethodGet)

	r.HandleFunc("/documents", s.listDocuments).Methods(http.MethodGet)
	r.HandleFunc("/documents", s.createDocument).Methods(http.MethodPost)

	const doc = "/documents/{id}"
	r.HandleFunc(doc, s.getDocument).Methods(http.MethodGet)
	r.HandleFunc(doc, s.putDocument).Methods(http.MethodPut)
	r.HandleFunc(doc+"/html", s.getHTML).Methods(http.MethodGet)
	r.HandleFunc(doc+"/html", s.putHTML).Methods(http.MethodPut)
	r.HandleFunc(doc+"/blocks", s.insertBlock).Methods(http.MethodPost)
	r.HandleFunc(doc+"/blocks/{block}", s.patchBlock).Methods(http.MethodPatch)
	r.HandleFunc(doc+"/blocks/{block}", s.deleteBlock).Methods(http.MethodDelete)
	r.HandleFunc(doc+"/commands", s.listCommands).Methods(http.MethodGet)
	r.HandleFunc(doc+"/commands/{name}", s.runCommand).Methods(http.MethodPost)
	r.HandleFunc(doc+"/text", s.typeText).Methods(http.MethodPost)
	r.HandleFunc(doc+"/keys", s.pressKey).Methods(http.MethodPost)
	r.HandleFunc(doc+"/save", s.save).Methods(http.MethodPost)
	r.HandleFunc(doc+"/session", s.closeSession).Methods(http.MethodDelete)

	// Routes sit on the root router so a known path with the wrong method
	// answers 405; mux subrouters report 404 for that case.
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts the
// listener down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	defer s.locks.Clear()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) lock(id string) func() {
	m, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}
