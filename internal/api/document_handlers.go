package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"serwer-dokumentow/internal/models"
	"serwer-dokumentow/internal/tree"

	"github.com/go-chi/chi/v5"
)

type CreateDocumentRequest struct {
	Title          *string             `json:"title" example:"Notatki"`
	InitialContent *string             `json:"initial_content"`
	ContentType    *models.ContentType `json:"content_type" swaggertype:"string" enums:"regular,markdown"`
	ParentFolderID *string             `json:"parent_folder_id"`
	RoomID         *string             `json:"room_id"`
}

type UpdateDocumentRequest struct {
	Title          *string           `json:"title"`
	UpdateTime     *int64            `json:"update_time" example:"1735689600000"`
	ParentFolderID models.OptionalID `json:"parent_folder_id" swaggertype:"string"`
}

type IDsRequest struct {
	IDs []string `json:"ids"`
}

func pageRequest(r *http.Request) (tree.PageRequest, bool) {
	page := tree.PageRequest{Cursor: r.URL.Query().Get("cursor")}
	if v := r.URL.Query().Get("numItems"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return page, false
		}
		page.NumItems = n
	}
	return page, true
}

// @Summary      Get document
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        documentId  path      string  true  "Document ID"
// @Success      200         {object}  models.Document
// @Failure      401         {string}  string "Unauthorized"
// @Failure      403         {string}  string "Forbidden"
// @Failure      404         {string}  string "Not Found"
// @Router       /documents/{documentId} [get]
func (s *Server) GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())

	doc, err := s.tree.GetDocument(r.Context(), caller, chi.URLParam(r, "documentId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// @Summary      Resolve document names
// @Description  Returns {id, name} for each requested id in order. Missing or inaccessible documents are named "[Removed Document]".
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      IDsRequest  true  "Document IDs"
// @Success      200      {array}   models.DocumentRef
// @Failure      400      {string}  string "Bad Request"
// @Failure      401      {string}  string "Unauthorized"
// @Router       /documents/batch [post]
func (s *Server) GetDocumentRefsHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())

	var req IDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	refs, err := s.tree.GetDocumentRefs(r.Context(), caller, req.IDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, refs)
}

// @Summary      List documents
// @Description  Pages through the caller's documents, optionally filtered by a full-text search on the title.
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        search    query     string  false  "Search text"
// @Param        cursor    query     string  false  "Continue cursor from the previous page"
// @Param        numItems  query     int     false  "Page size (default 20, max 100)"
// @Success      200       {object}  models.DocumentPage
// @Failure      400       {string}  string "Bad Request"
// @Failure      401       {string}  string "Unauthorized"
// @Router       /documents [get]
func (s *Server) ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())

	page, ok := pageRequest(r)
	if !ok {
		http.Error(w, "Invalid 'numItems' parameter, must be a non-negative number", http.StatusBadRequest)
		return
	}

	result, err := s.tree.ListDocuments(r.Context(), caller, r.URL.Query().Get("search"), page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// @Summary      List recent documents
// @Description  Pages through the caller's documents, most recently edited first.
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        cursor    query     string  false  "Continue cursor from the previous page"
// @Param        numItems  query     int     false  "Page size (default 20, max 100)"
// @Success      200       {object}  models.DocumentPage
// @Failure      400       {string}  string "Bad Request"
// @Failure      401       {string}  string "Unauthorized"
// @Router       /documents/recent [get]
func (s *Server) ListRecentDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())

	page, ok := pageRequest(r)
	if !ok {
		http.Error(w, "Invalid 'numItems' parameter, must be a non-negative number", http.StatusBadRequest)
		return
	}

	result, err := s.tree.ListRecentDocuments(r.Context(), caller, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// @Summary      List documents in a folder
// @Description  Lists the caller's documents directly under a folder, sorted by title. Omit parentFolderId for the root.
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        parentFolderId  query     string  false  "Parent folder ID"
// @Success      200             {array}   models.Document
// @Failure      401             {string}  string "Unauthorized"
// @Router       /documents/children [get]
func (s *Server) ListChildDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())

	docs, err := s.tree.ListDocumentsByParent(r.Context(), caller, queryID(r, "parentFolderId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, docs)
}

// @Summary      Create document
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateDocumentRequest  true  "Document"
// @Success      201      {object}  CreatedResponse
// @Failure      400      {string}  string "Bad Request"
// @Failure      401      {string}  string "Unauthorized"
// @Failure      403      {string}  string "Forbidden"
// @Failure      404      {string}  string "Parent folder not found"
// @Router       /documents [post]
func (s *Server) CreateDocumentHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())

	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := s.tree.CreateDocument(r.Context(), caller, tree.CreateDocumentInput{
		Title:          req.Title,
		InitialContent: req.InitialContent,
		ContentType:    req.ContentType,
		ParentFolderID: req.ParentFolderID,
		RoomID:         req.RoomID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

// @Summary      Update document
// @Tags         documents
// @Accept       json
// @Security     BearerAuth
// @Param        documentId  path  string                 true  "Document ID"
// @Param        request     body  UpdateDocumentRequest  true  "Changes"
// @Success      204
// @Failure      400         {string}  string "Bad Request"
// @Failure      403         {string}  string "Forbidden"
// @Failure      404         {string}  string "Not Found"
// @Router       /documents/{documentId} [patch]
func (s *Server) UpdateDocumentHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())

	var req UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := s.tree.UpdateDocument(r.Context(), caller, chi.URLParam(r, "documentId"), tree.UpdateDocumentInput{
		Title:          req.Title,
		UpdateTime:     req.UpdateTime,
		ParentFolderID: req.ParentFolderID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Delete document
// @Tags         documents
// @Security     BearerAuth
// @Param        documentId  path  string  true  "Document ID"
// @Success      204
// @Failure      403         {string}  string "Forbidden"
// @Failure      404         {string}  string "Not Found"
// @Router       /documents/{documentId} [delete]
func (s *Server) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())

	if err := s.tree.RemoveDocument(r.Context(), caller, chi.URLParam(r, "documentId")); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Delete documents
// @Description  Deletes all listed documents or none of them.
// @Tags         documents
// @Accept       json
// @Security     BearerAuth
// @Param        request  body  IDsRequest  true  "Document IDs"
// @Success      204
// @Failure      400      {string}  string "Bad Request"
// @Failure      403      {string}  string "Forbidden"
// @Failure      404      {string}  string "Not Found"
// @Router       /documents/remove [post]
func (s *Server) RemoveDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())

	var req IDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.tree.RemoveDocuments(r.Context(), caller, req.IDs); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
