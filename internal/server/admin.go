package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "price-finder/internal/common/errors"
	"price-finder/internal/common/validation"
	"price-finder/internal/relay"
)

type adminCommand struct {
	Code    string  `json:"code"`
	Query   *string `json:"query"`
	Theme   string  `json:"theme"`
	Message string  `json:"message"`
}

type adminKey struct{}

// adminAuth validates the body of every admin request and checks its code.
// The decoded command is stored in the request context.
func (s *Server) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := s.readValidated(w, r, validation.AdminCommand)
		if err != nil {
			s.errs.WriteHTTPError(w, r, err)
			return
		}
		var cmd adminCommand
		if err := json.Unmarshal(body, &cmd); err != nil {
			s.errs.WriteHTTPError(w, r, apperrors.NewInvalidPayloadError(err.Error()))
			return
		}
		if !secretsEqual(cmd.Code, s.opts.AdminCode) {
			s.errs.WriteHTTPError(w, r, apperrors.NewUnauthorizedError("invalid admin code"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminKey{}, &cmd)))
	})
}

func commandFrom(r *http.Request) *adminCommand {
	cmd, _ := r.Context().Value(adminKey{}).(*adminCommand)
	if cmd == nil {
		return &adminCommand{}
	}
	return cmd
}

func (s *Server) handleTrafficData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.TrafficData(r.Context()))
}

func (s *Server) handleToggleMaintenance(w http.ResponseWriter, _ *http.Request) {
	disabled := s.svc.ToggleMaintenance()
	state := "enabled"
	if disabled {
		state = "disabled"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":           fmt.Sprintf("Service is now %s.", state),
		"isServiceDisabled": disabled,
	})
}

func (s *Server) handleToggleQueue(w http.ResponseWriter, _ *http.Request) {
	paused := s.svc.ToggleQueue()
	state := "resumed"
	if paused {
		state = "paused"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       fmt.Sprintf("Job queue %s.", state),
		"isQueuePaused": paused,
	})
}

func (s *Server) handleDisconnectWorker(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DisconnectWorker(); err != nil {
		if errors.Is(err, relay.ErrNoWorker) {
			s.errs.WriteHTTPError(w, r, apperrors.NewWorkerUnavailableError())
			return
		}
		s.errs.WriteHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Worker disconnected."})
}

func (s *Server) handleClearQueue(w http.ResponseWriter, _ *http.Request) {
	n := s.svc.ClearQueue()
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Cleared %d queued jobs.", n)})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	query := ""
	if q := commandFrom(r).Query; q != nil {
		query = *q
	}
	if err := s.svc.ClearCache(r.Context(), query); err != nil {
		s.errs.WriteHTTPError(w, r, apperrors.NewCacheUnavailableError(err))
		return
	}
	msg := "Result cache cleared."
	if query != "" {
		msg = fmt.Sprintf("Cache cleared for %q.", query)
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (s *Server) handleClearImageCache(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearImageCache(r.Context()); err != nil {
		s.errs.WriteHTTPError(w, r, apperrors.NewQueryExecutionFailedError("clear image cache", err))
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Image cache cleared."})
}

func (s *Server) handleClearStats(w http.ResponseWriter, _ *http.Request) {
	s.svc.ClearStats()
	writeJSON(w, http.StatusOK, messageResponse{Message: "Traffic statistics cleared."})
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	theme := commandFrom(r).Theme
	if theme == "" {
		s.errs.WriteHTTPError(w, r, apperrors.NewInvalidPayloadError("theme is required"))
		return
	}
	if err := s.svc.SetTheme(theme); err != nil {
		s.errs.WriteHTTPError(w, r, apperrors.NewInternalError(err))
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Theme set to %s.", theme)})
}

func (s *Server) handleSetBanner(w http.ResponseWriter, r *http.Request) {
	message := commandFrom(r).Message
	if err := s.svc.SetBanner(message); err != nil {
		s.errs.WriteHTTPError(w, r, apperrors.NewInternalError(err))
		return
	}
	msg := "Banner set."
	if message == "" {
		msg = "Banner cleared."
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (s *Server) handleTriggerRain(w http.ResponseWriter, r *http.Request) {
	ts, err := s.svc.TriggerRain()
	if err != nil {
		s.errs.WriteHTTPError(w, r, apperrors.NewInternalError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":            "Rain triggered.",
		"rainEventTimestamp": ts,
	})
}
