package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	apperrors "price-finder/internal/common/errors"
	"price-finder/internal/common/validation"
	"price-finder/internal/relevance"
	"price-finder/internal/search"
)

type pendingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) writeOutcome(w http.ResponseWriter, out *search.Outcome) {
	if out.Status == search.StatusPending {
		writeJSON(w, http.StatusAccepted, pendingResponse{
			Status:  string(search.StatusPending),
			Message: "Search in progress. Poll /results for updates.",
		})
		return
	}
	writeJSON(w, http.StatusOK, out.Results)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Search(r.Context(), r.URL.Query().Get("query"), clientIP(r))
	if err != nil {
		s.errs.WriteHTTPError(w, r, err)
		return
	}
	s.writeOutcome(w, out)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")
	if unescaped, err := url.PathUnescape(query); err == nil {
		query = unescaped
	}

	out, err := s.svc.Results(r.Context(), query)
	if err != nil {
		s.errs.WriteHTTPError(w, r, err)
		return
	}
	s.writeOutcome(w, out)
}

// readValidated reads the request body and checks it against schema.
func (s *Server) readValidated(w http.ResponseWriter, r *http.Request, schema *validation.Schema) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		return nil, apperrors.NewInvalidPayloadError(err.Error())
	}
	if result := schema.ValidateBytes(body); !result.Valid {
		return nil, apperrors.NewInvalidPayloadError(result.Summary()).
			WithMetadata("schema", schema.Name())
	}
	return body, nil
}

type heartbeatRequest struct {
	VisitorID string `json:"visitorId"`
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	body, err := s.readValidated(w, r, validation.Heartbeat)
	if err != nil {
		s.errs.WriteHTTPError(w, r, err)
		return
	}
	var req heartbeatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.errs.WriteHTTPError(w, r, apperrors.NewInvalidPayloadError(err.Error()))
		return
	}
	s.svc.Heartbeat(req.VisitorID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLiveState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.LiveState())
}

type submitRequest struct {
	Secret  string                 `json:"secret"`
	Query   string                 `json:"query"`
	Results []relevance.RawListing `json:"results"`
}

type submitResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

func (s *Server) handleSubmitResults(w http.ResponseWriter, r *http.Request) {
	body, err := s.readValidated(w, r, validation.SubmitResults)
	if err != nil {
		s.errs.WriteHTTPError(w, r, err)
		return
	}
	var req submitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.errs.WriteHTTPError(w, r, apperrors.NewInvalidPayloadError(err.Error()))
		return
	}
	if !secretsEqual(req.Secret, s.opts.WorkerSecret) {
		s.errs.WriteHTTPError(w, r, apperrors.NewUnauthorizedError("invalid worker secret"))
		return
	}

	rs, err := s.svc.Submit(r.Context(), req.Query, req.Results)
	if err != nil {
		s.errs.WriteHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Message: "Results received", Count: len(rs.Items)})
}
