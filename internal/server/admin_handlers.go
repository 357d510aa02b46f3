package server

import (
	"net/http"

	"github.com/kichiro01/ToPick-api/internal/model"
)

type reportedFlagResponse struct {
	model.MyList
	ReportedFlag bool `json:"reported_flag"`
}

func (s *Server) handleActivateReportedFlag(w http.ResponseWriter, r *http.Request) {
	s.setReportedFlag(w, r, true)
}

func (s *Server) handleInactivateReportedFlag(w http.ResponseWriter, r *http.Request) {
	s.setReportedFlag(w, r, false)
}

func (s *Server) setReportedFlag(w http.ResponseWriter, r *http.Request, flag bool) {
	listID, err := pathID(r, "mylist_id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	updated, err := s.Lists.Update(r.Context(), listID, model.MyListPatch{ReportedFlag: &flag})
	if err != nil {
		s.writeListError(w, r, err, listID)
		return
	}
	s.Logger.InfoContext(r.Context(), "reported flag changed", "my_list_id", listID, "reported_flag", flag)
	writeJSON(w, http.StatusOK, reportedFlagResponse{MyList: updated, ReportedFlag: updated.ReportedFlag})
}
