package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kichiro01/ToPick-api/internal/model"
	"github.com/kichiro01/ToPick-api/internal/validation"
)

type createListRequest struct {
	UserID    int64           `json:"user_id" validate:"required"`
	Title     string          `json:"title" validate:"min=1,max=30"`
	ThemeType string          `json:"theme_type" validate:"len=3"`
	Topic     json.RawMessage `json:"topic"`
	IsPrivate *bool           `json:"is_private"`
}

type createUserAndListRequest struct {
	Title     string          `json:"title" validate:"min=1,max=30"`
	ThemeType string          `json:"theme_type" validate:"len=3"`
	Topic     json.RawMessage `json:"topic"`
	IsPrivate *bool           `json:"is_private"`
}

type updateListRequest struct {
	MyListID  int64  `json:"my_list_id" validate:"required"`
	Title     string `json:"title" validate:"min=1,max=30"`
	ThemeType string `json:"theme_type" validate:"len=3"`
	IsPrivate *bool  `json:"is_private" validate:"required"`
}

type updateTitleRequest struct {
	Title string `json:"title" validate:"min=1,max=30"`
}

type updateThemeRequest struct {
	ThemeType string `json:"theme_type" validate:"len=3"`
}

type updateTopicRequest struct {
	Topic json.RawMessage `json:"topic"`
}

type updatePrivateFlagRequest struct {
	IsPrivate *bool `json:"is_private" validate:"required"`
}

type importListRequest struct {
	Title     string          `json:"title" validate:"min=1,max=30"`
	Topic     json.RawMessage `json:"topic"`
	CreatedAt time.Time       `json:"created_at" validate:"required"`
}

type myListWithUserResponse struct {
	model.MyList
	UserID int64 `json:"user_id"`
}

type importListsResponse struct {
	UserID  int64          `json:"user_id"`
	MyLists []model.MyList `json:"mylists"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.Users.Create(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.Logger.InfoContext(r.Context(), "user created", "user_id", user.ID)
	writeJSON(w, http.StatusOK, userIDResponse{UserID: user.ID})
}

func (s *Server) handleListByOwner(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.requireUser(r, userID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	lists, err := s.Lists.ListByOwner(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(lists))
}

func (s *Server) handleCreateUserAndList(w http.ResponseWriter, r *http.Request) {
	var req createUserAndListRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	topic, err := validation.OptionalTopic(req.Topic)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	created, err := s.Lists.CreateWithUser(r.Context(), model.MyList{
		Title:     req.Title,
		ThemeType: req.ThemeType,
		Topic:     topic,
		IsPrivate: boolOrFalse(req.IsPrivate),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.Logger.InfoContext(r.Context(), "user and mylist created", "user_id", created.UserID, "my_list_id", created.ID)
	writeJSON(w, http.StatusOK, myListWithUserResponse{MyList: created, UserID: created.UserID})
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	topic, err := validation.OptionalTopic(req.Topic)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.requireUser(r, req.UserID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	created, err := s.Lists.Create(r.Context(), model.MyList{
		UserID:    req.UserID,
		Title:     req.Title,
		ThemeType: req.ThemeType,
		Topic:     topic,
		IsPrivate: boolOrFalse(req.IsPrivate),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleUpdateList(w http.ResponseWriter, r *http.Request) {
	var req updateListRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.applyPatch(w, r, req.MyListID, model.MyListPatch{
		Title:     &req.Title,
		ThemeType: &req.ThemeType,
		IsPrivate: req.IsPrivate,
	})
}

func (s *Server) handleUpdateTitle(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "mylist_id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	var req updateTitleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.applyPatch(w, r, listID, model.MyListPatch{Title: &req.Title})
}

func (s *Server) handleUpdateTheme(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "mylist_id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	var req updateThemeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.applyPatch(w, r, listID, model.MyListPatch{ThemeType: &req.ThemeType})
}

func (s *Server) handleUpdateTopic(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "mylist_id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	var req updateTopicRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	topic, err := validation.ParseTopic(req.Topic)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.applyPatch(w, r, listID, model.MyListPatch{Topic: &topic})
}

func (s *Server) handleUpdatePrivateFlag(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "mylist_id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	var req updatePrivateFlagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.applyPatch(w, r, listID, model.MyListPatch{IsPrivate: req.IsPrivate})
}

func (s *Server) applyPatch(w http.ResponseWriter, r *http.Request, listID int64, patch model.MyListPatch) {
	updated, err := s.Lists.Update(r.Context(), listID, patch)
	if err != nil {
		s.writeListError(w, r, err, listID)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "mylist_id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.Lists.Delete(r.Context(), listID); err != nil {
		s.writeListError(w, r, err, listID)
		return
	}
	s.Logger.InfoContext(r.Context(), "mylist deleted", "my_list_id", listID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImportLists(w http.ResponseWriter, r *http.Request) {
	var req []importListRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	lists := make([]model.MyList, 0, len(req))
	for _, item := range req {
		if err := validation.Struct(item); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		topic, err := validation.ParseTopic(item.Topic)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		lists = append(lists, model.MyList{
			Title:     item.Title,
			ThemeType: model.DefaultThemeType,
			Topic:     topic,
			IsPrivate: true,
			CreatedAt: item.CreatedAt,
		})
	}

	userID, saved, err := s.Lists.Import(r.Context(), lists)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.Logger.InfoContext(r.Context(), "local mylists imported", "user_id", userID, "count", len(saved))
	writeJSON(w, http.StatusOK, importListsResponse{UserID: userID, MyLists: nonNil(saved)})
}

func (s *Server) requireUser(r *http.Request, userID int64) error {
	exists, err := s.Users.Exists(r.Context(), userID)
	if err != nil {
		return err
	}
	if !exists {
		return model.UserNotFound(userID)
	}
	return nil
}

func boolOrFalse(v *bool) bool {
	return v != nil && *v
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
