// Package api exposes the profile store and step validator over HTTP.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tariff-impact/internal/model"
	"github.com/sells-group/tariff-impact/internal/profile"
)

// maxBodyBytes caps request bodies. Imported profiles with a full product
// list are the largest payloads.
const maxBodyBytes = 16 << 20

// Server routes HTTP requests to a profile store.
type Server struct {
	router chi.Router
	store  *profile.Store
}

// NewServer builds the router. An empty origin list allows any origin.
func NewServer(store *profile.Store, allowedOrigins []string) *Server {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	s := &Server{router: chi.NewRouter(), store: store}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/profile", func(r chi.Router) {
		r.Get("/", s.handleGetProfile)
		r.Delete("/", s.handleReset)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Post("/clear-templates", s.handleClearTemplates)
	})

	s.router.Route("/fields/{field}", func(r chi.Router) {
		r.Put("/", s.handleSetField)
		r.Post("/validate", s.handleValidateField)
	})

	s.router.Route("/steps/{step}", func(r chi.Router) {
		r.Get("/validation", s.handleStepValidation)
		r.Get("/progress", s.handleStepProgress)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.store.ResetData(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.ExportData()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="tariff-profile.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, eris.Wrap(err, "api: read body"))
		return
	}
	if err := s.store.ImportData(r.Context(), data); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Completeness())
}

func (s *Server) handleClearTemplates(w http.ResponseWriter, r *http.Request) {
	n := s.store.ClearTemplateData(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"flagged": n})
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	f, err := model.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	pt := model.BlankPoint(f)
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(pt); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "api: decode data point"))
		return
	}
	if m := pt.Meta(); !m.RequiresValidation {
		m.Validated = true
	}
	if err := s.store.UpdateData(r.Context(), f, pt); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeField(w, f)
}

func (s *Server) handleValidateField(w http.ResponseWriter, r *http.Request) {
	f, err := model.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err := s.store.MarkAsValidated(r.Context(), f); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeField(w, f)
}

func (s *Server) writeField(w http.ResponseWriter, f model.Field) {
	snap, err := s.store.Snapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Point(f))
}

// Unknown steps are not an error: the validator passes them through.
func (s *Server) handleStepValidation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ValidateStep(chi.URLParam(r, "step")))
}

func (s *Server) handleStepProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.GetStepProgress(chi.URLParam(r, "step")))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed", zap.Int("status", status), zap.Error(err))
	} else {
		zap.L().Warn("api: request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
