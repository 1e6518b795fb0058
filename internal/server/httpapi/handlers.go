package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dropcrate/dropcrate/internal/common"
	"github.com/dropcrate/dropcrate/internal/server/models"
	"github.com/dropcrate/dropcrate/internal/server/services"
)

type uploadURLRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

type uploadURLResponse struct {
	UploadURL  string `json:"uploadUrl"`
	StorageKey string `json:"storageKey"`
}

type registerRequest struct {
	StorageKey       string `json:"storageKey"`
	OriginalFileName string `json:"originalFileName"`
	FileSize         int64  `json:"fileSize"`
	Tag              string `json:"tag"`
}

type registerResponse struct {
	Message string `json:"message"`
	FileID  string `json:"fileId"`
}

type renameRequest struct {
	Tag string `json:"tag"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type shareResponse struct {
	ShareableURL string `json:"shareableUrl"`
}

type fileResponse struct {
	FileID           string    `json:"fileId"`
	OwnerID          string    `json:"ownerId"`
	StorageKey       string    `json:"storageKey"`
	OriginalFileName string    `json:"originalFileName"`
	Tag              string    `json:"tag"`
	FileSize         int64     `json:"fileSize"`
	UploadTimestamp  time.Time `json:"uploadTimestamp"`
	DownloadURL      string    `json:"downloadUrl,omitempty"`
}

func fileFromModel(f *models.File, downloadURL string) fileResponse {
	return fileResponse{
		FileID:           f.FileID,
		OwnerID:          f.OwnerID,
		StorageKey:       f.StorageKey,
		OriginalFileName: f.OriginalFileName,
		Tag:              f.Tag,
		FileSize:         f.FileSize,
		UploadTimestamp:  f.UploadTimestamp,
		DownloadURL:      downloadURL,
	}
}

func filesFromInfos(infos []*services.FileInfo) []fileResponse {
	out := make([]fileResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, fileFromModel(&info.File, info.DownloadURL))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// writeServiceError maps the service error taxonomy to HTTP statuses:
// validation → 400, not-found-or-forbidden → 404, everything else → 500
// with a generic body (internal detail stays in the log).
func (s *Server) writeServiceError(r *http.Request, w http.ResponseWriter, err error, internalMessage string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrNotFoundOrForbidden):
		writeError(w, http.StatusNotFound, common.ErrNotFoundOrForbidden.Error())
	default:
		s.logger.Error(r.Context(), err.Error())
		writeError(w, http.StatusInternalServerError, internalMessage)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleUploadURL(w http.ResponseWriter, r *http.Request, ownerID string) {
	var req uploadURLRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ticket, err := s.files.RequestUpload(r.Context(), ownerID, req.FileName, req.FileType, req.FileSize)
	if err != nil {
		s.writeServiceError(r, w, err, "error generating upload URL")
		return
	}

	writeJSON(w, http.StatusOK, uploadURLResponse{UploadURL: ticket.UploadURL, StorageKey: ticket.StorageKey})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request, ownerID string) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	file, err := s.files.Register(r.Context(), ownerID, req.StorageKey, req.OriginalFileName, req.FileSize, req.Tag)
	if err != nil {
		s.writeServiceError(r, w, err, "error recording metadata")
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{Message: "Metadata recorded successfully", FileID: file.FileID})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, ownerID string) {
	infos, err := s.files.List(r.Context(), ownerID)
	if err != nil {
		s.writeServiceError(r, w, err, "error listing files")
		return
	}
	writeJSON(w, http.StatusOK, filesFromInfos(infos))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, ownerID string) {
	infos, err := s.files.Search(r.Context(), ownerID, r.URL.Query().Get("query"))
	if err != nil {
		s.writeServiceError(r, w, err, "error searching files")
		return
	}
	writeJSON(w, http.StatusOK, filesFromInfos(infos))
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request, ownerID string) {
	var req renameRequest
	if !decodeBody(w, r, &req) {
		return
	}

	file, err := s.files.Rename(r.Context(), ownerID, r.PathValue("fileId"), req.Tag)
	if err != nil {
		s.writeServiceError(r, w, err, "error renaming file")
		return
	}
	writeJSON(w, http.StatusOK, fileFromModel(file, ""))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, ownerID string) {
	if err := s.files.Delete(r.Context(), ownerID, r.PathValue("fileId")); err != nil {
		s.writeServiceError(r, w, err, "error deleting file")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "File deleted successfully"})
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request, ownerID string) {
	url, err := s.files.Share(r.Context(), ownerID, r.PathValue("fileId"))
	if err != nil {
		s.writeServiceError(r, w, err, "error generating shareable link")
		return
	}
	writeJSON(w, http.StatusOK, shareResponse{ShareableURL: url})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			writeError(w, http.StatusInternalServerError, "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "OK"})
}
