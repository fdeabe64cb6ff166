package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/celerya/visura-cli/internal/model"
	"github.com/celerya/visura-cli/internal/pipeline"
	"github.com/celerya/visura-cli/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVisuraTest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, pipeline.TestRecord())
}

// handleVisuraExtract accepts a multipart PDF upload and runs the pipeline.
// The response is always a well-formed record: extraction trouble shows up
// in the confidence fields, never as a transport error.
func (s *Server) handleVisuraExtract(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.cfg.MaxUploadMB)
	if maxBytes <= 0 {
		maxBytes = 20
	}
	maxBytes <<= 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field \"file\" is required"})
		return
	}
	defer file.Close() //nolint:errcheck

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read upload"})
		return
	}

	result, report := s.pipeline.Extract(r.Context(), content, header.Filename)

	if s.store != nil {
		status := model.RunStatusComplete
		if report.Failure != model.FailureNone {
			status = model.RunStatusDegraded
		}
		if _, err := s.store.CreateRun(r.Context(), header.Filename, result, status); err != nil {
			zap.L().Warn("server: failed to persist run",
				zap.String("filename", header.Filename), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if s.lookup == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "ateco dataset not loaded"})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query parameter \"code\" is required"})
		return
	}
	prefer := r.URL.Query().Get("prefer")
	prefix := r.URL.Query().Get("prefix") == "true"
	limit := 50
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	rows := s.lookup.Search(code, prefer, prefix)
	if !prefix && len(rows) > 1 {
		rows = rows[:1]
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{"found": len(rows), "items": rows})
}

func (s *Server) handleSeismicZone(w http.ResponseWriter, r *http.Request) {
	if s.seismic == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "seismic dataset not loaded"})
		return
	}

	comune := r.URL.Query().Get("comune")
	if comune == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query parameter \"comune\" is required"})
		return
	}

	zone, ok := s.seismic.Lookup(comune, r.URL.Query().Get("provincia"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "comune not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"comune":       zone.Comune,
		"provincia":    zone.Provincia,
		"zona_sismica": zone.ZonaInt,
		"descrizione":  zone.Description(),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "store not configured"})
		return
	}

	filter := store.RunFilter{Status: model.RunStatus(r.URL.Query().Get("status"))}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		filter.Limit = l
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list runs", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list runs"})
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "store not configured"})
		return
	}

	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}
