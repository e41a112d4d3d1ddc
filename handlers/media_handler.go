package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"p9e.in/garage/config"
	"p9e.in/garage/middleware"
	"p9e.in/garage/models"
	"p9e.in/garage/pkg/objectstore"
)

// Presigned URL lifetimes.
const (
	uploadURLTTL   = 15 * time.Minute
	downloadURLTTL = 60 * time.Minute
)

// MediaHandler records file metadata and attachments. Bytes never pass
// through this service: clients upload and download directly against the
// object store using presigned URLs.
type MediaHandler struct {
	db    *gorm.DB
	store objectstore.Store
}

func NewMediaHandler(store objectstore.Store) *MediaHandler {
	return &MediaHandler{db: config.DB, store: store}
}

// CreateUploadURLRequest asks for a presigned upload slot
type CreateUploadURLRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	MediaType   string `json:"media_type"` // image, video, document
	Category    string `json:"category"`
	SizeBytes   int64  `json:"size_bytes"`
}

// CreateUploadURL issues a presigned PUT URL and creates the pending metadata
// row tied to the generated key.
func (h *MediaHandler) CreateUploadURL(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req CreateUploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if req.FileName == "" || req.ContentType == "" {
		writeError(w, http.StatusBadRequest, "file_name and content_type are required", nil)
		return
	}

	var session models.GarageSession
	if err := h.db.First(&session, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	key := objectstore.GenerateKey(companyID, session.ID, req.Category, req.FileName)
	uploadURL, err := h.store.GeneratePresignedUploadURL(key, req.ContentType, uploadURLTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate upload URL", err)
		return
	}

	userID := middleware.GetUserID(r)
	item := models.MediaItem{
		CompanyID:    companyID,
		SessionID:    session.ID,
		StorageKey:   key,
		FileName:     req.FileName,
		ContentType:  req.ContentType,
		MediaType:    req.MediaType,
		Category:     req.Category,
		SizeBytes:    req.SizeBytes,
		Status:       models.MediaPending,
		UploadedByID: &userID,
	}
	if err := h.db.Create(&item).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create media item", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"media_item": item,
		"upload_url": uploadURL,
		"expires_in": int(uploadURLTTL.Seconds()),
	})
}

// ConfirmUpload marks a pending item ready once the client reports the upload
// finished. With ?verify=true the object's presence is checked first.
func (h *MediaHandler) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var item models.MediaItem
	if err := h.db.First(&item, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	if r.URL.Query().Get("verify") == "true" {
		exists, err := h.store.ObjectExists(r.Context(), item.StorageKey)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to verify object", err)
			return
		}
		if !exists {
			writeError(w, http.StatusConflict, "object not found in storage", nil)
			return
		}
	}

	item.Status = models.MediaReady
	if err := h.db.Save(&item).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to confirm upload", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Upload confirmed",
		"media_item": item,
	})
}

// LinkMediaRequest attaches an item to one sub-record
type LinkMediaRequest struct {
	Kind     models.MediaLinkKind `json:"kind"`
	TargetID uuid.UUID            `json:"target_id"`
}

// LinkMedia attaches the item to one sub-record of its session. A second link
// replaces the first: last write wins, exactly one link is ever active.
func (h *MediaHandler) LinkMedia(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req LinkMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if req.TargetID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "target_id is required", nil)
		return
	}

	var item models.MediaItem
	if err := h.db.First(&item, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.validateLinkTarget(req.Kind, req.TargetID, item.SessionID, companyID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid link target", err)
		return
	}

	item.Link(req.Kind, req.TargetID)
	if err := h.db.Save(&item).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to link media", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Media linked successfully",
		"media_item": item,
	})
}

// validateLinkTarget checks the target exists, belongs to the tenant, and
// hangs off the same session as the media item.
func (h *MediaHandler) validateLinkTarget(kind models.MediaLinkKind, targetID, sessionID, companyID uuid.UUID) error {
	switch kind {
	case models.MediaLinkCustomerRequest:
		var cr models.CustomerRequest
		return h.db.First(&cr, "id = ? AND session_id = ? AND company_id = ?", targetID, sessionID, companyID).Error
	case models.MediaLinkInspection:
		var insp models.Inspection
		return h.db.First(&insp, "id = ? AND session_id = ? AND company_id = ?", targetID, sessionID, companyID).Error
	case models.MediaLinkTestDrive:
		var td models.TestDrive
		return h.db.First(&td, "id = ? AND session_id = ? AND company_id = ?", targetID, sessionID, companyID).Error
	case models.MediaLinkJobCard:
		var jc models.JobCard
		return h.db.First(&jc, "id = ? AND session_id = ? AND company_id = ?", targetID, sessionID, companyID).Error
	case models.MediaLinkJobCardItem:
		var it models.JobCardItem
		return h.db.
			Joins("JOIN job_cards ON job_cards.id = job_card_items.job_card_id").
			Where("job_card_items.id = ? AND job_cards.session_id = ? AND job_cards.company_id = ?", targetID, sessionID, companyID).
			First(&it).Error
	default:
		return gorm.ErrRecordNotFound
	}
}

// UnlinkMedia detaches the item from its sub-record. The session association
// is permanent.
func (h *MediaHandler) UnlinkMedia(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var item models.MediaItem
	if err := h.db.First(&item, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	item.Unlink()
	if err := h.db.Save(&item).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to unlink media", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Media unlinked successfully",
		"media_item": item,
	})
}

// GetDownloadURL returns a presigned GET URL for a ready item.
func (h *MediaHandler) GetDownloadURL(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var item models.MediaItem
	if err := h.db.First(&item, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}
	if item.Status != models.MediaReady {
		writeError(w, http.StatusConflict, "upload not confirmed", nil)
		return
	}

	url, err := h.store.GeneratePresignedDownloadURL(item.StorageKey, downloadURLTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate download URL", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"download_url": url,
		"expires_in":   int(downloadURLTTL.Seconds()),
	})
}

// ListSessionMedia lists a session's media, optionally filtered by link kind.
func (h *MediaHandler) ListSessionMedia(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	query := h.db.Where("session_id = ? AND company_id = ?", vars["id"], companyID)
	if kind := r.URL.Query().Get("kind"); kind != "" {
		query = query.Where("linked_kind = ?", kind)
	}

	var items []models.MediaItem
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch media", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"media_items": items,
		"count":       len(items),
	})
}

// DeleteMedia removes the metadata row and best-effort deletes the object.
// A storage failure does not undo the row delete.
func (h *MediaHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var item models.MediaItem
	if err := h.db.First(&item, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.db.Delete(&item).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete media item", err)
		return
	}

	if err := h.store.DeleteObject(r.Context(), item.StorageKey); err != nil {
		log.Printf("⚠️ Failed to delete object %s: %v", item.StorageKey, err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Media deleted successfully"})
}

// DeleteSessionMedia removes all media rows for a session, best-effort
// deleting the underlying objects.
func (h *MediaHandler) DeleteSessionMedia(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var items []models.MediaItem
	if err := h.db.Find(&items, "session_id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch media", err)
		return
	}

	if err := h.db.Delete(&models.MediaItem{}, "session_id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete media items", err)
		return
	}

	for _, item := range items {
		if err := h.store.DeleteObject(r.Context(), item.StorageKey); err != nil {
			log.Printf("⚠️ Failed to delete object %s: %v", item.StorageKey, err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Session media deleted successfully",
		"deleted": len(items),
	})
}
