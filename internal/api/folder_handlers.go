package api

import (
	"encoding/json"
	"net/http"

	"serwer-dokumentow/internal/models"
	"serwer-dokumentow/internal/tree"

	"github.com/go-chi/chi/v5"
)

type CreateFolderRequest struct {
	Name           string  `json:"name" example:"Raporty"`
	ParentFolderID *string `json:"parent_folder_id" example:"V1StGXR8_Z5jdHi6B-myT"`
}

// UpdateFolderRequest is a partial update. Omitting parent_folder_id keeps
// the folder where it is, null moves it to the root.
type UpdateFolderRequest struct {
	Name           *string           `json:"name" example:"Raporty 2025"`
	ParentFolderID models.OptionalID `json:"parent_folder_id" swaggertype:"string"`
}

type CreatedResponse struct {
	ID string `json:"id" example:"V1StGXR8_Z5jdHi6B-myT"`
}

// queryID returns nil when the parameter is missing or empty, which selects
// the drive root.
func queryID(r *http.Request, name string) *string {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	return &v
}

// @Summary      Get folder
// @Description  Returns the folder, or null when the id does not resolve.
// @Tags         folders
// @Produce      json
// @Security     BearerAuth
// @Param        folderId  path      string  true  "Folder ID"
// @Success      200       {object}  models.Folder
// @Failure      401       {string}  string "Unauthorized"
// @Failure      403       {string}  string "Forbidden"
// @Router       /folders/{folderId} [get]
func (s *Server) GetFolderHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())

	folder, err := s.tree.GetFolder(r.Context(), caller, chi.URLParam(r, "folderId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, folder)
}

// @Summary      Get folder path
// @Description  Returns the breadcrumb from the root down to the folder.
// @Tags         folders
// @Produce      json
// @Security     BearerAuth
// @Param        folderId  path      string  true  "Folder ID"
// @Success      200       {array}   models.PathEntry
// @Failure      401       {string}  string "Unauthorized"
// @Failure      403       {string}  string "Forbidden"
// @Router       /folders/{folderId}/path [get]
func (s *Server) GetFolderPathHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())

	path, err := s.tree.GetFolderPath(r.Context(), caller, chi.URLParam(r, "folderId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, path)
}

// @Summary      List folders
// @Description  Lists the caller's folders under a parent, sorted by name. Omit parentFolderId for the root.
// @Tags         folders
// @Produce      json
// @Security     BearerAuth
// @Param        parentFolderId  query     string  false  "Parent folder ID"
// @Success      200             {array}   models.Folder
// @Failure      401             {string}  string "Unauthorized"
// @Router       /folders [get]
func (s *Server) ListFoldersHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())

	folders, err := s.tree.ListFolders(r.Context(), caller, queryID(r, "parentFolderId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, folders)
}

// @Summary      Create folder
// @Tags         folders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateFolderRequest  true  "Folder"
// @Success      201      {object}  CreatedResponse
// @Failure      400      {string}  string "Bad Request"
// @Failure      401      {string}  string "Unauthorized"
// @Router       /folders [post]
func (s *Server) CreateFolderHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())

	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := s.tree.CreateFolder(r.Context(), caller, tree.CreateFolderInput{
		Name:           req.Name,
		ParentFolderID: req.ParentFolderID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

// @Summary      Update folder
// @Description  Renames and/or moves a folder. Moving a folder under itself or one of its descendants is rejected.
// @Tags         folders
// @Accept       json
// @Security     BearerAuth
// @Param        folderId  path      string               true  "Folder ID"
// @Param        request   body      UpdateFolderRequest  true  "Changes"
// @Success      204
// @Failure      400       {string}  string "Bad Request"
// @Failure      403       {string}  string "Forbidden"
// @Failure      404       {string}  string "Not Found"
// @Failure      409       {string}  string "Circular move"
// @Router       /folders/{folderId} [patch]
func (s *Server) UpdateFolderHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())

	var req UpdateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := s.tree.UpdateFolder(r.Context(), caller, chi.URLParam(r, "folderId"), tree.UpdateFolderInput{
		Name:           req.Name,
		ParentFolderID: req.ParentFolderID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Delete folder
// @Description  Deletes the folder together with every folder and document below it.
// @Tags         folders
// @Security     BearerAuth
// @Param        folderId  path  string  true  "Folder ID"
// @Success      204
// @Failure      403       {string}  string "Forbidden"
// @Failure      404       {string}  string "Not Found"
// @Router       /folders/{folderId} [delete]
func (s *Server) DeleteFolderHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())

	if err := s.tree.RemoveFolder(r.Context(), caller, chi.URLParam(r, "folderId")); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
