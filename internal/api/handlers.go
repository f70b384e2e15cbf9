package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/awahed/hellosvc/internal/config"
	"github.com/awahed/hellosvc/internal/model"
)

// Handler serves the static route table. Payloads are fixed at
// construction and handlers touch no shared mutable state, so concurrent
// requests need no synchronization.
type Handler struct {
	hello  model.APIResponse
	health model.APIResponse
	info   model.ServiceInfo
}

// NewHandler builds a Handler from the configured response payloads.
func NewHandler(cfg config.ResponsesConfig) *Handler {
	return &Handler{
		hello: model.APIResponse{
			Message: cfg.Hello.Message,
			Status:  cfg.Hello.Status,
		},
		health: model.APIResponse{
			Message: cfg.Health.Message,
			Status:  cfg.Health.Status,
		},
		info: model.ServiceInfo{
			Service:     cfg.Info.Service,
			Version:     cfg.Info.Version,
			Description: cfg.Info.Description,
			Author:      cfg.Info.Author,
			Port:        cfg.Info.Port,
		},
	}
}

// Route is one entry in the static dispatch table.
type Route struct {
	Name    string
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Routes returns the dispatch table. It is constructed once at startup
// and never mutated afterwards.
func (h *Handler) Routes() []Route {
	return []Route{
		{"Hello", http.MethodGet, "/", h.GetHello},
		{"Health", http.MethodGet, "/health", h.GetHealth},
		{"ServiceInfo", http.MethodGet, "/api/info", h.GetServiceInfo},
	}
}

// GetHello handles GET /
func (h *Handler) GetHello(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.hello)
}

// GetHealth handles GET /health
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.health)
}

// GetServiceInfo handles GET /api/info
func (h *Handler) GetServiceInfo(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.info)
}

// NewRouter registers the route table on a mux router. Matching is exact
// and case-sensitive: unknown paths and trailing-slash variants get a
// 404, a known path with a different method gets a 405.
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	for _, route := range h.Routes() {
		router.HandleFunc(route.Path, route.Handler).
			Methods(route.Method).
			Name(route.Name)
	}
	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	return router
}

func notFound(w http.ResponseWriter, r *http.Request) {
	model.WriteProblem(w, http.StatusNotFound,
		fmt.Sprintf("No route matches %s.", r.URL.Path))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodGet)
	model.WriteProblem(w, http.StatusMethodNotAllowed,
		fmt.Sprintf("Method %s is not allowed for %s.", r.Method, r.URL.Path))
}
