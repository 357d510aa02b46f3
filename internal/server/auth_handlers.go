package server

import (
	"net/http"

	"github.com/kichiro01/ToPick-api/internal/validation"
)

type issueAuthCodeRequest struct {
	UserID int64 `json:"user_id" validate:"required"`
}

type issueAuthCodeResponse struct {
	AuthID   int64  `json:"auth_id"`
	AuthCode string `json:"auth_code"`
}

type redeemAuthCodeRequest struct {
	AuthID   int64  `json:"auth_id" validate:"required"`
	AuthCode string `json:"auth_code" validate:"len=6"`
}

type userIDResponse struct {
	UserID int64 `json:"user_id"`
}

func (s *Server) handleIssueAuthCode(w http.ResponseWriter, r *http.Request) {
	var req issueAuthCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	issued, err := s.Auth.Issue(r.Context(), req.UserID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, issueAuthCodeResponse{AuthID: issued.ID, AuthCode: issued.Code})
}

func (s *Server) handleRedeemAuthCode(w http.ResponseWriter, r *http.Request) {
	var req redeemAuthCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	userID, err := s.Auth.Redeem(r.Context(), req.AuthID, req.AuthCode)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userIDResponse{UserID: userID})
}
