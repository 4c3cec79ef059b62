// Package fakebackend is an in-memory product/suggestion backend speaking
// the same HTTP contract as the real one. It backs tests and the
// fake-backend command.
package fakebackend

import (
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.uber.org/atomic"

	"github.com/projetoecoscan/ecoscan/internal/schema"
)

// Data sources reported by lookup.
const (
	SourceLocal    = "Local_DB"
	SourceExternal = schema.ExternalAPIPrefix + "OpenFoodFacts"
)

// Route names accepted by Count and FailNext.
const (
	RouteLookup  = "lookup"
	RouteCreate  = "create"
	RouteList    = "list"
	RouteApprove = "approve"
)

type failure struct {
	status int
	body   string
}

// Server holds products, external-API partial records, and the pending
// suggestion queue.
type Server struct {
	mu          sync.Mutex
	products    map[string]schema.ProductInfo
	external    map[string]schema.ProductInfo
	suggestions []schema.PendingSuggestion
	failNext    map[string]failure

	nextID   *atomic.Int64
	requests *atomic.Int64
	counts   map[string]*atomic.Int64
}

// New returns an empty Server.
func New() *Server {
	s := &Server{
		products: make(map[string]schema.ProductInfo),
		external: make(map[string]schema.ProductInfo),
		failNext: make(map[string]failure),
		nextID:   atomic.NewInt64(0),
		requests: atomic.NewInt64(0),
		counts:   make(map[string]*atomic.Int64),
	}
	for _, r := range []string{RouteLookup, RouteCreate, RouteList, RouteApprove} {
		s.counts[r] = atomic.NewInt64(0)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(s.countRequests)

	r.Get("/api/productinfo", s.route(RouteLookup, s.lookup))
	r.Route("/api/suggestions", func(r chi.Router) {
		r.Post("/", s.route(RouteCreate, s.createSuggestion))
		r.Get("/", s.route(RouteList, s.listSuggestions))
		r.Post("/{id}/approve", s.route(RouteApprove, s.approve))
	})
	return r
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Inc()
		slog.Debug("fake backend request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", r.Header.Get("X-Request-ID"),
		)
		next.ServeHTTP(w, r)
	})
}

// route counts calls per route and serves any failure queued with FailNext.
func (s *Server) route(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.counts[name].Inc()
		s.mu.Lock()
		f, ok := s.failNext[name]
		delete(s.failNext, name)
		s.mu.Unlock()
		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		h(w, r)
	}
}

// Requests returns the number of requests served, on any route.
func (s *Server) Requests() int64 { return s.requests.Load() }

// Count returns the number of requests served on route.
func (s *Server) Count(route string) int64 {
	c, ok := s.counts[route]
	if !ok {
		return 0
	}
	return c.Load()
}

// FailNext makes the next request on route answer status with body verbatim.
func (s *Server) FailNext(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[route] = failure{status: status, body: body}
}

// AddProduct stores a complete product record.
func (s *Server) AddProduct(p schema.ProductInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.DataSource == "" {
		p.DataSource = SourceLocal
	}
	p.SuggestionNeeded = false
	s.products[p.Barcode] = p
}

// AddExternal stores what an external product API knows about a barcode.
// Lookups for it report suggestionNeeded with an API_ data source.
func (s *Server) AddExternal(barcode, productName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.external[barcode] = schema.ProductInfo{
		Barcode:          barcode,
		ProductName:      productName,
		DataSource:       SourceExternal,
		SuggestionNeeded: true,
	}
}

// AddSuggestion queues a pending suggestion as if a user had submitted it.
func (s *Server) AddSuggestion(d schema.Draft) schema.PendingSuggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addSuggestionLocked(d)
}

func (s *Server) addSuggestionLocked(d schema.Draft) schema.PendingSuggestion {
	p := schema.PendingSuggestion{
		ID:          s.nextID.Inc(),
		Barcode:     d.Barcode,
		ProductName: d.ProductName,
		Material:    d.Material,
	}
	s.suggestions = append(s.suggestions, p)
	return p
}

// Pending returns the pending queue ordered by id.
func (s *Server) Pending() []schema.PendingSuggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.PendingSuggestion, len(s.suggestions))
	copy(out, s.suggestions)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Product returns the stored product for barcode.
func (s *Server) Product(barcode string) (schema.ProductInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[barcode]
	return p, ok
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("barcode"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "title", "O código de barras é obrigatório.")
		return
	}

	s.mu.Lock()
	p, found := s.products[code]
	ext, partial := s.external[code]
	s.mu.Unlock()

	switch {
	case found:
		writeJSON(w, http.StatusOK, p)
	case partial:
		writeJSON(w, http.StatusOK, ext)
	default:
		writeJSON(w, http.StatusOK, schema.ProductInfo{
			Barcode:          code,
			ProductName:      "Produto não encontrado",
			DataSource:       schema.SourceNotFoundEverywhere,
			SuggestionNeeded: true,
		})
	}
}

func (s *Server) createSuggestion(w http.ResponseWriter, r *http.Request) {
	var d schema.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "title", "Corpo da requisição inválido.")
		return
	}
	if strings.TrimSpace(d.Barcode) == "" || strings.TrimSpace(d.ProductName) == "" || strings.TrimSpace(d.Material) == "" {
		writeError(w, http.StatusBadRequest, "title", "One or more validation errors occurred.")
		return
	}
	s.mu.Lock()
	p := s.addSuggestionLocked(d)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) listSuggestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Pending())
}

func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "title", "Identificador inválido.")
		return
	}
	var d schema.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "title", "Corpo da requisição inválido.")
		return
	}
	if !schema.IsKnownMaterial(d.Material) {
		writeError(w, http.StatusBadRequest, "message", "Material inválido")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, p := range s.suggestions {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		writeError(w, http.StatusNotFound, "title", "Not Found")
		return
	}
	s.suggestions = append(s.suggestions[:idx], s.suggestions[idx+1:]...)

	p := productFor(d)
	s.products[p.Barcode] = p
	delete(s.external, p.Barcode)
	writeJSON(w, http.StatusOK, p)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("fake backend: encoding response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, key, msg string) {
	writeJSON(w, status, map[string]any{key: msg, "status": status})
}
