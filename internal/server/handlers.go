package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/nagare/internal/models"
)

// Query sources for the trending view.
const (
	sourceUserSearches = "user_searches"
	sourceDatasets     = "datasets"
)

// handleTrending runs trending analysis over the recent query log (or the
// dataset catalog when source=datasets). Degraded analysis is still a 200:
// the method field tells callers what they got.
func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	days := clampQueryParam(r, "days", 30, 1, 365)
	limit := clampQueryParam(r, "limit", s.config.Analysis.DefaultTopN, 1, 50)
	source := r.URL.Query().Get("source")
	if source == "" {
		source = sourceUserSearches
	}

	var records []models.QueryRecord
	var err error
	switch source {
	case sourceUserSearches:
		records, err = s.store.RecentQueries(r.Context(), days)
	case sourceDatasets:
		records, err = s.store.DatasetQueries(r.Context())
	default:
		s.respondError(w, http.StatusBadRequest, "source must be user_searches or datasets")
		return
	}
	if err != nil {
		s.logger.Error("query extraction failed", zap.String("source", source), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to load queries")
		return
	}

	s.logger.Debug("trending request",
		zap.Int("days", days), zap.Int("limit", limit),
		zap.String("source", source), zap.Int("queries", len(records)))

	result := s.analyzer.AnalyzeRecords(r.Context(), records, limit)
	if source == sourceUserSearches {
		result.AnalysisStats.DataSource = "user_searches_last_" + strconv.Itoa(days) + "_days"
	} else {
		result.AnalysisStats.DataSource = sourceDatasets
	}
	s.respondJSON(w, http.StatusOK, result)
}

// handleSimilar finds queries semantically similar to a target among the
// recent query log.
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	var req models.SimilarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.store.RecentQueries(r.Context(), s.config.Analysis.DefaultWindowDays)
	if err != nil {
		s.logger.Error("query extraction failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to load queries")
		return
	}
	if len(records) == 0 {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"target_query":    req.TargetQuery,
			"similar_queries": []models.SimilarQueryResult{},
			"total_found":     0,
		})
		return
	}

	similar, err := s.analyzer.FindSimilarQueries(r.Context(), records, req.TargetQuery, req.TopK)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"target_query":    req.TargetQuery,
		"similar_queries": similar,
		"total_found":     len(similar),
	})
}

// handleRecordQuery logs one search query.
func (s *Server) handleRecordQuery(w http.ResponseWriter, r *http.Request) {
	var req models.RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := s.store.Record(r.Context(), req.Query, nil)
	if err != nil {
		s.logger.Error("record query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": id, "status": "recorded"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountQueries(r.Context())
	if err != nil {
		s.logger.Error("status: count queries failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"queries_logged": count,
		"config": map[string]interface{}{
			"embedding_provider":   s.config.Embedding.Provider,
			"model_name":           s.info.ModelName(),
			"embedding_dimensions": s.info.Dimensions(),
			"similarity_threshold": s.config.Analysis.SimilarityThreshold,
			"min_cluster_size":     s.config.Analysis.MinClusterSize,
			"database_path":        s.config.Storage.DatabasePath,
		},
	})
}

// handleHealth reports degraded (not failing) when the embedding backend is
// unavailable, since the service still answers with the frequency fallback.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !s.info.Available() {
		status = "degraded"
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"model_name": s.info.ModelName(),
		"timestamp":  time.Now().UTC(),
	})
}

// clampQueryParam parses an integer query parameter, bounding it into [lo, hi].
func clampQueryParam(r *http.Request, name string, def, lo, hi int) int {
	v := def
	if raw := r.URL.Query().Get(name); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			v = parsed
		}
	}
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
