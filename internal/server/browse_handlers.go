package server

import (
	"net/http"
	"time"
)

type lastUpdatedResponse struct {
	UpdatedAt *time.Time `json:"updated_at"`
}

func (s *Server) handleListThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := s.Themes.List(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(themes))
}

func (s *Server) handleThemesLastUpdated(w http.ResponseWriter, r *http.Request) {
	last, err := s.Themes.LastUpdated(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lastUpdatedResponse{UpdatedAt: last})
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	lists, err := s.Lists.ListPublic(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(lists))
}
