package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dshills/brief/internal/budget"
	"github.com/dshills/brief/internal/gitctx"
	"github.com/dshills/brief/internal/providers"
	"github.com/dshills/brief/internal/summary"
)

type fileRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type summaryRequest struct {
	Files  []fileRequest `json:"files"`
	Diff   string        `json:"diff"`
	Titles []string      `json:"titles"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) handle(mode summary.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := chimw.GetReqID(ctx)

		var body summaryRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON: "+err.Error())
			return
		}

		req, err := s.buildRequest(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}

		var resp *summary.Response
		if mode == summary.ModeAnalyze {
			resp, err = s.svc.Analyze(ctx, req)
		} else {
			resp, err = s.svc.Summarize(ctx, req)
		}
		if err != nil {
			status, code := classify(err)
			s.log.Warn("request failed",
				"request_id", requestID,
				"mode", mode,
				"status", status,
				"error", err,
			)
			writeError(w, status, code, err.Error())
			return
		}

		s.log.Info("request complete",
			"request_id", requestID,
			"run_id", resp.RunID(),
			"mode", mode,
			"files", resp.Analysis().Count(),
			"excluded", resp.Analysis().ExcludedCount(),
			"cached", resp.Cached(),
		)
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) buildRequest(body summaryRequest) (summary.Request, error) {
	var cands []budget.Candidate
	for _, f := range body.Files {
		if f.Path == "" {
			return summary.Request{}, errors.New("every file needs a path")
		}
		cands = append(cands, budget.Candidate{Path: f.Path, Content: f.Content})
	}
	if body.Diff != "" {
		for _, fd := range gitctx.Split(body.Diff, s.diffOpts) {
			cands = append(cands, budget.Candidate(fd))
		}
	}
	seen := make(map[string]bool, len(cands))
	for _, c := range cands {
		if seen[c.Path] {
			return summary.Request{}, &budget.DuplicatePathError{Path: c.Path}
		}
		seen[c.Path] = true
	}
	if n := s.redactor.ApplyAll(cands); n > 0 {
		s.log.Debug("redacted candidates", "count", n)
	}
	return summary.Request{Candidates: cands, Titles: body.Titles}, nil
}

// classify maps a service error to an HTTP status and error code.
func classify(err error) (int, string) {
	var allocErr *budget.AllocationError
	var dupErr *budget.DuplicatePathError
	var modelErr *summary.ModelInvocationError
	switch {
	case errors.As(err, &dupErr):
		return http.StatusBadRequest, "bad_request"
	case errors.As(err, &allocErr):
		return http.StatusUnprocessableEntity, "allocation_failed"
	case errors.Is(err, summary.ErrNoProvider):
		return http.StatusServiceUnavailable, "no_provider"
	case errors.As(err, &modelErr):
		if providers.IsRateLimit(err) {
			return http.StatusTooManyRequests, "rate_limited"
		}
		return http.StatusBadGateway, "model_error"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// writeError writes a standard error response.
func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, errorResponse{
		Error:   errCode,
		Message: message,
	})
}
