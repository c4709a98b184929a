package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sw33tLie/rulewatch/internal/utils"
	"github.com/sw33tLie/rulewatch/pkg/audit"
	"github.com/sw33tLie/rulewatch/pkg/documents"
	"github.com/sw33tLie/rulewatch/pkg/storage"
)

// Locker is the archive writer lock taken around on-demand checks.
type Locker interface {
	Lock() error
	Unlock() error
}

type Server struct {
	DB       *storage.DB
	Username string
	Password string

	// Context is the default number of unchanged rows kept around changes
	// on redline pages; <0 shows every row.
	Context int

	// Auditor and Documents enable on-demand checks. Both optional.
	Auditor   *audit.Auditor
	Documents []documents.Document
	WriteLock Locker

	// Gatherer serves /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

func New(db *storage.DB, user, pass string) *Server {
	return &Server{
		DB:       db,
		Username: user,
		Password: pass,
		Context:  -1,
	}
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.basicAuth)

	// Pages
	r.Get("/", s.handleIndexPage)
	r.Get("/documents/{id}", s.handleDocumentPage)
	r.Get("/redline", s.handleRedlinePage)

	// API Group
	r.Route("/api", func(r chi.Router) {
		r.Get("/documents", s.handleDocuments)
		r.Get("/documents/{id}/history", s.handleHistory)
		r.Post("/documents/{id}/check", s.handleCheck)
		r.Get("/snapshots/{id}", s.handleSnapshot)
		r.Get("/redline", s.handleRedline)
	})

	gatherer := s.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
