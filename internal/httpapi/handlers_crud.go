package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/airesearchhub/research-hub/internal/core/domain"
	db "github.com/airesearchhub/research-hub/internal/storage"
)

const (
	errMsgInvalidBody   = "invalid request body"
	errMsgNameRequired  = "name is required"
	errMsgNotFound      = "not found"
	errMsgAlreadyExists = "already exists"
)

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type datasetRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	FilePath    string `json:"file_path"`
	OwnerID     string `json:"owner_id"`
	ProjectID   string `json:"project_id"`
}

type userRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, errMsgInvalidBody)

		return false
	}

	return true
}

// storageError maps repository errors to HTTP responses.
func (s *Server) storageError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, errMsgNotFound)
	case errors.Is(err, db.ErrAlreadyExists):
		writeError(w, http.StatusConflict, errMsgAlreadyExists)
	default:
		s.logger.Error().Err(err).Str("operation", operation).Msg("storage operation failed")
		writeError(w, http.StatusInternalServerError, errMsgStorageFailed)
	}
}

// Projects

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, errMsgNameRequired)

		return
	}

	project, err := s.repo.CreateProject(r.Context(), req.Name, req.Description)
	if err != nil {
		s.storageError(w, err, "create project")

		return
	}

	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.repo.ListProjects(r.Context())
	if err != nil {
		s.storageError(w, err, "list projects")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": projects})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.repo.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storageError(w, err, "get project")

		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, errMsgNameRequired)

		return
	}

	project, err := s.repo.UpdateProject(r.Context(), r.PathValue("id"), req.Name, req.Description)
	if err != nil {
		s.storageError(w, err, "update project")

		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		s.storageError(w, err, "delete project")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProjectUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.repo.ProjectUsers(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storageError(w, err, "project users")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": users})
}

func (s *Server) handleAddProjectUser(w http.ResponseWriter, r *http.Request) {
	err := s.repo.AddProjectUser(r.Context(), r.PathValue("id"), r.PathValue("userID"))
	if err != nil {
		s.storageError(w, err, "add project user")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveProjectUser(w http.ResponseWriter, r *http.Request) {
	err := s.repo.RemoveProjectUser(r.Context(), r.PathValue("id"), r.PathValue("userID"))
	if err != nil {
		s.storageError(w, err, "remove project user")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProjectDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.repo.ProjectDatasets(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storageError(w, err, "project datasets")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": datasets})
}

// Datasets

func (s *Server) handleCreateDataset(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, errMsgNameRequired)

		return
	}

	dataset, err := s.repo.CreateDataset(r.Context(), domain.Dataset{
		Name:        req.Name,
		Description: req.Description,
		FilePath:    req.FilePath,
		OwnerID:     req.OwnerID,
		ProjectID:   req.ProjectID,
	})
	if err != nil {
		s.storageError(w, err, "create dataset")

		return
	}

	writeJSON(w, http.StatusCreated, dataset)
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	dataset, err := s.repo.GetDataset(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storageError(w, err, "get dataset")

		return
	}

	writeJSON(w, http.StatusOK, dataset)
}

func (s *Server) handleUpdateDataset(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, errMsgNameRequired)

		return
	}

	dataset, err := s.repo.UpdateDataset(r.Context(), domain.Dataset{
		ID:          r.PathValue("id"),
		Name:        req.Name,
		Description: req.Description,
		FilePath:    req.FilePath,
	})
	if err != nil {
		s.storageError(w, err, "update dataset")

		return
	}

	writeJSON(w, http.StatusOK, dataset)
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteDataset(r.Context(), r.PathValue("id")); err != nil {
		s.storageError(w, err, "delete dataset")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Users

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "username and email are required")

		return
	}

	user, err := s.repo.CreateUser(r.Context(), req.Username, req.Email, req.PasswordHash)
	if err != nil {
		s.storageError(w, err, "create user")

		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.repo.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storageError(w, err, "get user")

		return
	}

	writeJSON(w, http.StatusOK, user)
}
