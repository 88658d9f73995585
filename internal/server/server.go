package server

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/itcaat/ebaylog/internal/models"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Searcher runs one search per call. It never fails; a broken search is an
// empty list.
type Searcher interface {
	Search(ctx context.Context, q models.SearchQuery) []models.Listing
}

// Server is the HTTP front end for searches.
type Server struct {
	searcher Searcher
	router   chi.Router
	log      zerolog.Logger
}

// searchResponse is the body of /api/search
type searchResponse struct {
	Query models.SearchQuery `json:"query"`
	Items []models.Listing   `json:"items"`
}

// NewServer creates a Server that answers searches with searcher.
func NewServer(searcher Searcher, log zerolog.Logger) *Server {
	s := &Server{
		searcher: searcher,
		router:   chi.NewRouter(),
		log:      log.With().Str("component", "server").Logger(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(hlog.NewHandler(s.log))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request handled")
	}))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/api/search", s.handleSearch)
	r.Get("/healthz", s.handleHealth)
}

// requestIDLogger tags the request logger with chi's request id
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			log := hlog.FromRequest(r).With().Str("request_id", id).Logger()
			r = r.WithContext(log.WithContext(r.Context()))
		}
		next.ServeHTTP(w, r)
	})
}

// queryFromRequest reads item, from and to. Missing params are empty.
func queryFromRequest(r *http.Request) models.SearchQuery {
	params := r.URL.Query()
	return models.SearchQuery{
		Item:      params.Get("item"),
		PriceLow:  params.Get("from"),
		PriceHigh: params.Get("to"),
	}
}

// search skips the searcher entirely when there is nothing to look for
func (s *Server) search(r *http.Request, q models.SearchQuery) []models.Listing {
	if !q.Valid() {
		return []models.Listing{}
	}
	return s.searcher.Search(r.Context(), q)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := queryFromRequest(r)

	data := map[string]any{
		"Query":    q,
		"Searched": q.Valid(),
		"items":    s.search(r, q),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		zerolog.Ctx(r.Context()).Err(err).Msg("Failed to render index")
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := queryFromRequest(r)
	writeJSON(r.Context(), w, http.StatusOK, searchResponse{
		Query: q,
		Items: s.search(r, q),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(ctx).Err(err).Msg("Failed to write response")
	}
}
