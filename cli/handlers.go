package cli

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rentascout/rentascout-mvp/engine/domain"
	"github.com/rentascout/rentascout-mvp/engine/search"
	"github.com/rentascout/rentascout-mvp/pkg/metrics"
)

// Serve metrics
var (
	mSearchTotal = func(outcome string) *metrics.Counter {
		return met.Counter(metrics.WithLabels("rentascout_search_requests_total", "outcome", outcome), "Search requests per outcome")
	}
	mSearchDur = met.Histogram("rentascout_search_duration_seconds", "Search request latency", nil)
)

// searcher is what the HTTP handlers need from the search service.
type searcher interface {
	Search(ctx context.Context, f domain.SearchFilter) ([]domain.RankedResult, error)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SearchResponse is the JSON response for POST /v1/search.
type SearchResponse struct {
	Results []domain.RankedResult `json:"results"`
	Count   int                   `json:"count"`
}

func handleSearch(svc searcher, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter domain.SearchFilter
		if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		start := time.Now()
		results, err := svc.Search(r.Context(), filter)
		mSearchDur.Since(start)
		if err != nil {
			status, msg := statusOf(err)
			if status == http.StatusInternalServerError {
				logger.Error("search failed", "err", err)
				msg = "internal server error"
			}
			mSearchTotal("error").Inc()
			writeError(w, status, msg)
			return
		}

		mSearchTotal("ok").Inc()
		if results == nil {
			results = []domain.RankedResult{}
		}
		writeJSON(w, http.StatusOK, SearchResponse{Results: results, Count: len(results)})
	}
}

// ToolRequest is the JSON body for POST /v1/tool/search_vehicles, shaped
// like an LLM tool call.
type ToolRequest struct {
	Arguments domain.SearchFilter `json:"arguments"`
}

// ToolResponse carries the tool output as a single text block.
type ToolResponse struct {
	Output string `json:"output"`
}

func handleToolSearch(svc searcher, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ToolRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		// Tool callers expect errors in-band, as output text.
		start := time.Now()
		results, err := svc.Search(r.Context(), req.Arguments)
		mSearchDur.Since(start)
		if err != nil {
			logger.Warn("tool search failed", "err", err)
			mSearchTotal("error").Inc()
			writeJSON(w, http.StatusOK, ToolResponse{Output: "Error processing query: " + err.Error()})
			return
		}

		mSearchTotal("ok").Inc()
		writeJSON(w, http.StatusOK, ToolResponse{Output: search.FormatResults(results)})
	}
}

func statusOf(err error) (int, string) {
	var fe *domain.FilterError
	switch {
	case errors.As(err, &fe),
		errors.Is(err, domain.ErrEmptyQuery),
		errors.Is(err, domain.ErrInvalidLimit),
		errors.Is(err, domain.ErrInvalidRange):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrEmbedFailed):
		return http.StatusBadGateway, "embedding backend unavailable"
	default:
		return http.StatusInternalServerError, ""
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
