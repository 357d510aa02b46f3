package server

import (
	"errors"
	"math"
	"net/http"

	"github.com/kichiro01/ToPick-api/internal/model"
	"github.com/kichiro01/ToPick-api/internal/validation"
)

type contactRequest struct {
	UserID int64  `json:"user_id" validate:"required"`
	Text   string `json:"text" validate:"min=1,max=100"`
}

type reportRequest struct {
	UserID           int64  `json:"user_id" validate:"required"`
	ReportedMyListID int64  `json:"reported_mylist_id" validate:"required"`
	ReasonCode       string `json:"reason_code" validate:"len=3"`
	ReportContent    string `json:"report_content" validate:"min=1,max=100"`
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if !s.acquireNotify(w, r, req.UserID) {
		return
	}

	if err := s.Notifier.SendContact(r.Context(), req.UserID, req.Text); err != nil {
		s.mailFailed(w, r, req.UserID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email sent successfully"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	list, err := s.Lists.Get(r.Context(), req.ReportedMyListID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.Logger.WarnContext(r.Context(), "reported mylist not found", "my_list_id", req.ReportedMyListID)
		}
		s.writeListError(w, r, err, req.ReportedMyListID)
		return
	}
	if !s.acquireNotify(w, r, req.UserID) {
		return
	}

	if err := s.Notifier.SendReport(r.Context(), req.UserID, req.ReasonCode, req.ReportContent, list); err != nil {
		s.mailFailed(w, r, req.UserID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email sent successfully"})
}

// acquireNotify starts the sender's cooldown and writes a 429 when one is running.
func (s *Server) acquireNotify(w http.ResponseWriter, r *http.Request, userID int64) bool {
	if s.RateLimiter == nil {
		return true
	}
	ok, wait, err := s.RateLimiter.AcquireNotify(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return false
	}
	if !ok {
		s.writeDomainError(w, r, model.NewTooManyRequests("Please wait %d seconds before sending another message", int(math.Ceil(wait.Seconds()))))
		return false
	}
	return true
}

// mailFailed reports the delivery error verbatim as a 500.
func (s *Server) mailFailed(w http.ResponseWriter, r *http.Request, userID int64, err error) {
	if s.RateLimiter != nil {
		s.RateLimiter.ReleaseNotify(r.Context(), userID)
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
