package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"filegraph/application/services"
	"filegraph/pkg/common"
	pkgerrors "filegraph/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// multipartMemory is the in-memory threshold for multipart parsing; larger
// parts spill to temp files.
const multipartMemory = 32 << 20

// FileHandler handles file-related HTTP requests
type FileHandler struct {
	service   *services.InteractionService
	errors    *pkgerrors.ErrorHandler
	logger    *zap.Logger
	maxUpload int64
}

// NewFileHandler creates a new file handler
func NewFileHandler(service *services.InteractionService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger, maxUpload int64) *FileHandler {
	return &FileHandler{
		service:   service,
		errors:    errorHandler,
		logger:    logger,
		maxUpload: maxUpload,
	}
}

// Upload handles POST /files/upload
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	person, uploads, err := h.parseMultipart(r, "file", false)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	file, err := h.service.UploadFile(r.Context(), person, uploads[0])
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toFileResponse(file))
}

// UploadBatch handles POST /files/upload/batch. The batch is atomic: either
// every file is created and linked, or none survive.
func (h *FileHandler) UploadBatch(w http.ResponseWriter, r *http.Request) {
	person, uploads, err := h.parseMultipart(r, "files", true)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	files, err := h.service.UploadBatch(r.Context(), person, uploads)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toFileResponses(files))
}

// Download handles GET /files/{person}/{filename}/download
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	person := chi.URLParam(r, "person")
	filename := chi.URLParam(r, "filename")

	file, data, err := h.service.DownloadFile(r.Context(), person, filename)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("Failed to write download response",
			zap.String("filename", file.Filename()),
			zap.Error(err),
		)
	}
}

// Edit handles PUT /files/{person}/{filename}
func (h *FileHandler) Edit(w http.ResponseWriter, r *http.Request) {
	person := chi.URLParam(r, "person")
	filename := chi.URLParam(r, "filename")

	upload, err := h.parseSingleFile(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	// The path names the file; the part's own filename is ignored.
	upload.Filename = filename

	file, err := h.service.EditFile(r.Context(), person, upload)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toFileResponse(file))
}

// Delete handles DELETE /files/{person}/{filename}
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	person := chi.URLParam(r, "person")
	filename := chi.URLParam(r, "filename")

	file, err := h.service.DeleteFile(r.Context(), person, filename)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toFileResponse(file))
}

// List handles GET /files
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.ListAllFiles(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toFileResponses(files))
}

// GetByID handles GET /files/{id}
func (h *FileHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	file, err := h.service.GetFileByID(r.Context(), id)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toFileResponse(file))
}

// History handles GET /files/{person}/{filename}/history
func (h *FileHandler) History(w http.ResponseWriter, r *http.Request) {
	person := chi.URLParam(r, "person")
	filename := chi.URLParam(r, "filename")

	interactions, err := h.service.History(r.Context(), person, filename)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toInteractionResponses(interactions))
}

// BatchRelated handles GET /files/{person}/{filename}/batch-related
func (h *FileHandler) BatchRelated(w http.ResponseWriter, r *http.Request) {
	person := chi.URLParam(r, "person")
	filename := chi.URLParam(r, "filename")

	files, err := h.service.BatchRelated(r.Context(), person, filename)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toFileResponses(files))
}

// Stats handles GET /stats
func (h *FileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GraphStats(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, stats)
}

// parseMultipart reads the person form field and one or more file parts from
// a multipart request, capped at the configured upload size.
func (h *FileHandler) parseMultipart(r *http.Request, field string, multiple bool) (string, []services.FileUpload, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return "", nil, pkgerrors.NewValidationError("invalid multipart request: " + err.Error())
	}

	person := r.FormValue("person")
	if person == "" {
		return "", nil, pkgerrors.NewValidationError("person is required")
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File[field]
	}
	if len(headers) == 0 {
		return "", nil, pkgerrors.NewValidationError("no file provided")
	}
	if !multiple && len(headers) > 1 {
		return "", nil, pkgerrors.NewValidationError("exactly one file is expected")
	}

	uploads := make([]services.FileUpload, 0, len(headers))
	for _, header := range headers {
		upload, err := readPart(header)
		if err != nil {
			return "", nil, err
		}
		uploads = append(uploads, upload)
	}
	return person, uploads, nil
}

// parseSingleFile reads the one file part of an edit request.
func (h *FileHandler) parseSingleFile(r *http.Request) (services.FileUpload, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return services.FileUpload{}, pkgerrors.NewValidationError("invalid multipart request: " + err.Error())
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		return services.FileUpload{}, pkgerrors.NewValidationError("no file provided")
	}
	return readPart(headers[0])
}

func readPart(header *multipart.FileHeader) (services.FileUpload, error) {
	part, err := header.Open()
	if err != nil {
		return services.FileUpload{}, pkgerrors.NewValidationError("failed to open file part: " + err.Error())
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		return services.FileUpload{}, pkgerrors.NewValidationError("failed to read file part: " + err.Error())
	}

	return services.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
