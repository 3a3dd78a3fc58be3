package handlers

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/storage"
	"github.com/caseline/caseline/testrun"
)

// MaxUploadSize is the maximum evidence upload size (100MB).
const MaxUploadSize = 100 * 1024 * 1024

// AttachmentHandler handles execution evidence uploads and retrieval.
// Rows live in the attachment store; bytes live in blob storage.
type AttachmentHandler struct {
	attachmentStore testrun.AttachmentStore
	execStore       testrun.ExecutionStore
	blobs           storage.Blob
	logger          logger.Logger
}

// NewAttachmentHandler creates a new attachment handler.
func NewAttachmentHandler(
	attachmentStore testrun.AttachmentStore,
	execStore testrun.ExecutionStore,
	blobs storage.Blob,
	log logger.Logger,
) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentStore: attachmentStore,
		execStore:       execStore,
		blobs:           blobs,
		logger:          log,
	}
}

// AttachmentURLResponse carries a fetch URL for an attachment's content.
type AttachmentURLResponse struct {
	URL string `json:"url"`
}

// Upload handles storing a piece of evidence against an execution. The
// file streams into blob storage while a BLAKE2b-256 digest is computed,
// so the recorded checksum always matches the stored bytes.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}

	executionID, ok := parseUUIDOrRespond(w, r, "execution_id", "test execution")
	if !ok {
		return
	}

	// Verify execution exists before accepting any bytes
	if _, err := h.execStore.GetByID(r.Context(), executionID); err != nil {
		if errors.Is(err, testrun.ErrExecutionNotFound) {
			respondError(w, http.StatusNotFound, "test execution not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to verify test execution")
		return
	}

	// Limit upload size
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.logger.Error(r.Context(), "failed to parse multipart form", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusBadRequest, "file too large or invalid form data")
		return
	}

	kindStr := r.FormValue("kind")
	if kindStr == "" {
		respondError(w, http.StatusBadRequest, "kind is required")
		return
	}
	kind := testrun.AttachmentKind(kindStr)
	if !kind.IsValid() {
		respondError(w, http.StatusBadRequest, "invalid kind")
		return
	}

	description := r.FormValue("description")

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if filename == "" {
		respondError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	// The attachment ID goes into the storage key, so repeated uploads of
	// the same filename never collide.
	attachmentID := uuid.New()
	key := fmt.Sprintf("executions/%s/%s/%s", executionID, attachmentID, filename)

	// Stream to storage, hashing the same bytes on the way through.
	hasher, err := blake2b.New256(nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to upload file")
		return
	}

	size, err := h.blobs.Put(r.Context(), key, io.TeeReader(file, hasher))
	if err != nil {
		h.logger.Error(r.Context(), "failed to upload file to storage", map[string]interface{}{
			"error": err.Error(),
			"path":  key,
		})
		respondError(w, http.StatusInternalServerError, "failed to upload file")
		return
	}

	attachment := &testrun.ExecutionAttachment{
		ID:          attachmentID,
		ExecutionID: executionID,
		Kind:        kind,
		Path:        key,
		FileName:    filename,
		FileSize:    size,
		MimeType:    header.Header.Get("Content-Type"),
		Checksum:    hex.EncodeToString(hasher.Sum(nil)),
		Description: description,
		UploadedBy:  actorID,
	}

	if err := h.attachmentStore.Create(r.Context(), attachment); err != nil {
		// Clean up the stored blob on database error
		h.blobs.Delete(r.Context(), key)
		if errors.Is(err, testrun.ErrExecutionNotFound) {
			respondError(w, http.StatusNotFound, "test execution not found")
			return
		}
		h.logger.Error(r.Context(), "failed to create attachment record", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to create attachment record")
		return
	}

	respondJSON(w, http.StatusCreated, attachment)
}

// List handles listing an execution's attachments.
func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	executionID, ok := parseUUIDOrRespond(w, r, "execution_id", "test execution")
	if !ok {
		return
	}

	attachments, err := h.attachmentStore.ListByExecution(r.Context(), executionID)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list attachments", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": executionID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list attachments")
		return
	}

	respondJSON(w, http.StatusOK, attachments)
}

// Download handles streaming an attachment's content.
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	attachmentID, ok := parseUUIDOrRespond(w, r, "attachment_id", "attachment")
	if !ok {
		return
	}

	attachment, err := h.attachmentStore.GetByID(r.Context(), attachmentID)
	if err != nil {
		if errors.Is(err, testrun.ErrAttachmentNotFound) {
			respondError(w, http.StatusNotFound, "attachment not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get attachment", map[string]interface{}{
			"error":         err.Error(),
			"attachment_id": attachmentID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get attachment")
		return
	}

	reader, err := h.blobs.Get(r.Context(), attachment.Path)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			respondError(w, http.StatusNotFound, "attachment content not found in storage")
			return
		}
		h.logger.Error(r.Context(), "failed to read from storage", map[string]interface{}{
			"error": err.Error(),
			"path":  attachment.Path,
		})
		respondError(w, http.StatusInternalServerError, "failed to download attachment")
		return
	}
	defer reader.Close()

	contentType := attachment.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	w.Header().Set("Content-Length", strconv.FormatInt(attachment.FileSize, 10))

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error(r.Context(), "failed to stream attachment", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// GetURL handles resolving a fetch URL for an attachment's content. On
// the S3 backend this is a presigned URL; locally it is a file path.
func (h *AttachmentHandler) GetURL(w http.ResponseWriter, r *http.Request) {
	attachmentID, ok := parseUUIDOrRespond(w, r, "attachment_id", "attachment")
	if !ok {
		return
	}

	attachment, err := h.attachmentStore.GetByID(r.Context(), attachmentID)
	if err != nil {
		if errors.Is(err, testrun.ErrAttachmentNotFound) {
			respondError(w, http.StatusNotFound, "attachment not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get attachment", map[string]interface{}{
			"error":         err.Error(),
			"attachment_id": attachmentID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get attachment")
		return
	}

	url, err := h.blobs.URL(r.Context(), attachment.Path)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			respondError(w, http.StatusNotFound, "attachment content not found in storage")
			return
		}
		h.logger.Error(r.Context(), "failed to resolve attachment URL", map[string]interface{}{
			"error": err.Error(),
			"path":  attachment.Path,
		})
		respondError(w, http.StatusInternalServerError, "failed to resolve attachment URL")
		return
	}

	respondJSON(w, http.StatusOK, AttachmentURLResponse{URL: url})
}

// Delete handles removing an attachment. The database row goes first;
// the blob delete is best effort and an orphaned blob only wastes space.
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	attachmentID, ok := parseUUIDOrRespond(w, r, "attachment_id", "attachment")
	if !ok {
		return
	}

	attachment, err := h.attachmentStore.GetByID(r.Context(), attachmentID)
	if err != nil {
		if errors.Is(err, testrun.ErrAttachmentNotFound) {
			respondError(w, http.StatusNotFound, "attachment not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get attachment", map[string]interface{}{
			"error":         err.Error(),
			"attachment_id": attachmentID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get attachment")
		return
	}

	if err := h.attachmentStore.Delete(r.Context(), attachmentID); err != nil {
		h.logger.Error(r.Context(), "failed to delete attachment", map[string]interface{}{
			"error":         err.Error(),
			"attachment_id": attachmentID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to delete attachment")
		return
	}

	if err := h.blobs.Delete(r.Context(), attachment.Path); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
		h.logger.Warn(r.Context(), "failed to delete attachment blob", map[string]interface{}{
			"error": err.Error(),
			"path":  attachment.Path,
		})
	}

	respondSuccess(w, "attachment deleted successfully")
}

// sanitizeFilename removes potentially dangerous characters from filenames.
func sanitizeFilename(filename string) string {
	// Get base name to remove any directory paths
	filename = filepath.Base(filename)

	// Remove any remaining path separators
	filename = strings.ReplaceAll(filename, "/", "")
	filename = strings.ReplaceAll(filename, "\\", "")

	// Trim spaces
	filename = strings.TrimSpace(filename)

	if filename == "." || filename == ".." {
		return ""
	}

	return filename
}
