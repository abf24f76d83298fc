package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ServerOptions configures the HTTP surface.
type ServerOptions struct {
	Tokens         map[string]Caller
	AllowedOrigins []string
}

// NewRouter wires the status API routes. The health endpoint is open;
// everything under /v1 requires a bearer token.
func NewRouter(svc *Service, opts ServerOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(BearerAuth(opts.Tokens))

		r.Get("/imports", func(w http.ResponseWriter, req *http.Request) {
			caller, ok := CallerFromContext(req.Context())
			if !ok {
				writeError(w, Errorf(CodeUnauthenticated, "missing caller"))
				return
			}
			recs, err := svc.ListImports(req.Context(), caller)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"imports": recs})
		})

		r.Get("/imports/{importID}", func(w http.ResponseWriter, req *http.Request) {
			view, err := svc.GetStatus(req.Context(), chi.URLParam(req, "importID"))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, view)
		})

		r.Delete("/imports/{importID}", func(w http.ResponseWriter, req *http.Request) {
			caller, ok := CallerFromContext(req.Context())
			if !ok {
				writeError(w, Errorf(CodeUnauthenticated, "missing caller"))
				return
			}
			if err := svc.DeleteImport(req.Context(), caller, chi.URLParam(req, "importID")); err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	apiErr := asError(err)
	writeJSON(w, httpStatus(apiErr.Code), map[string]any{"error": apiErr})
}
