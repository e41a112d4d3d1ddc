package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"p9e.in/garage/config"
	"p9e.in/garage/middleware"
	"p9e.in/garage/models"
)

// JobCardHandler manages work orders and their tasks.
type JobCardHandler struct {
	db *gorm.DB
}

func NewJobCardHandler() *JobCardHandler {
	return &JobCardHandler{db: config.DB}
}

// CreateJobCardRequest opens a work order for a session
type CreateJobCardRequest struct {
	EstimatedHours     float64              `json:"estimated_hours"`
	CustomerAuthorized bool                 `json:"customer_authorized"`
	Notes              string               `json:"notes"`
	Items              []JobCardItemRequest `json:"items"`
}

type JobCardItemRequest struct {
	Title          string     `json:"title"`
	Category       string     `json:"category"`
	Priority       string     `json:"priority"`
	EstimatedHours float64    `json:"estimated_hours"`
	TechnicianID   *uuid.UUID `json:"technician_id"`
}

// CreateJobCard opens the work order for a session. When the customer has
// already authorized the work, the card is created authorized and the session
// advances from awaiting_approval to in_progress — all in one transaction.
func (h *JobCardHandler) CreateJobCard(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req CreateJobCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}

	var session models.GarageSession
	if err := h.db.First(&session, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	var existing models.JobCard
	if err := h.db.First(&existing, "session_id = ?", session.ID).Error; err == nil {
		writeError(w, http.StatusConflict, "session already has a job card", nil)
		return
	}

	card := models.JobCard{
		CompanyID:      companyID,
		SessionID:      session.ID,
		Status:         models.JobCardDraft,
		EstimatedHours: req.EstimatedHours,
		Notes:          req.Notes,
	}
	for _, item := range req.Items {
		card.Items = append(card.Items, models.JobCardItem{
			Title:          item.Title,
			Category:       item.Category,
			Priority:       defaultPriority(item.Priority),
			EstimatedHours: item.EstimatedHours,
			TechnicianID:   item.TechnicianID,
			Status:         models.JobItemPending,
		})
	}

	tx := h.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if req.CustomerAuthorized {
		for _, next := range []models.JobCardStatus{models.JobCardPendingAuth, models.JobCardAuthorized} {
			if err := card.Transition(next); err != nil {
				tx.Rollback()
				writeServiceError(w, err)
				return
			}
		}
		if err := session.Transition(models.SessionInProgress); err != nil {
			tx.Rollback()
			writeServiceError(w, err)
			return
		}
	}

	if err := tx.Create(&card).Error; err != nil {
		tx.Rollback()
		log.Printf("❌ Failed to create job card: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create job card", err)
		return
	}
	if err := tx.Save(&session).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to update session", err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction", err)
		return
	}

	log.Printf("✅ Job card opened for session %s (%d tasks)", session.SessionNumber, len(card.Items))
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Job card created successfully",
		"job_card": card,
	})
}

// GetJobCard returns the work order for a session with its tasks and counts.
func (h *JobCardHandler) GetJobCard(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var card models.JobCard
	if err := h.db.Preload("Items").
		First(&card, "session_id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	completed, total := card.ItemCounts()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_card":        card,
		"completed_items": completed,
		"total_items":     total,
	})
}

// UpdateJobCardStatusRequest moves the card through its lifecycle
type UpdateJobCardStatusRequest struct {
	Status models.JobCardStatus `json:"status"`
}

// UpdateJobCardStatus transitions the work order status.
func (h *JobCardHandler) UpdateJobCardStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req UpdateJobCardStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required", nil)
		return
	}

	var card models.JobCard
	if err := h.db.First(&card, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	oldStatus := card.Status
	if err := card.Transition(req.Status); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.db.Save(&card).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update job card", err)
		return
	}

	log.Printf("✅ Job card %s: %s -> %s", card.ID, oldStatus, card.Status)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Job card status updated successfully",
		"job_card": card,
	})
}

// AddJobCardItem appends a task to an existing work order.
func (h *JobCardHandler) AddJobCardItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req JobCardItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required", nil)
		return
	}

	var card models.JobCard
	if err := h.db.First(&card, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	item := models.JobCardItem{
		JobCardID:      card.ID,
		Title:          req.Title,
		Category:       req.Category,
		Priority:       defaultPriority(req.Priority),
		EstimatedHours: req.EstimatedHours,
		TechnicianID:   req.TechnicianID,
		Status:         models.JobItemPending,
	}
	if err := h.db.Create(&item).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add item", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Item added successfully",
		"item":    item,
	})
}

// UpdateJobCardItemRequest updates one task's state and work record
type UpdateJobCardItemRequest struct {
	Status         models.JobCardItemStatus `json:"status"`
	WorkPerformed  string                   `json:"work_performed"`
	ActualHours    float64                  `json:"actual_hours"`
	QualityChecked *bool                    `json:"quality_checked"`
}

// UpdateJobCardItem transitions one task and rolls its hours up to the card.
func (h *JobCardHandler) UpdateJobCardItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req UpdateJobCardItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}

	var item models.JobCardItem
	if err := h.db.
		Joins("JOIN job_cards ON job_cards.id = job_card_items.job_card_id").
		Where("job_card_items.id = ? AND job_cards.company_id = ?", vars["itemId"], companyID).
		First(&item).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	if req.Status != "" && req.Status != item.Status {
		if err := item.Transition(req.Status); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	if req.WorkPerformed != "" {
		item.WorkPerformed = req.WorkPerformed
	}
	if req.ActualHours > 0 {
		item.ActualHours = req.ActualHours
	}
	if req.QualityChecked != nil {
		item.QualityChecked = *req.QualityChecked
	}

	tx := h.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Save(&item).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to update item", err)
		return
	}

	// Roll actual hours up to the card
	var totalHours float64
	if err := tx.Model(&models.JobCardItem{}).
		Where("job_card_id = ?", item.JobCardID).
		Select("COALESCE(SUM(actual_hours), 0)").
		Scan(&totalHours).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to roll up hours", err)
		return
	}
	if err := tx.Model(&models.JobCard{}).
		Where("id = ?", item.JobCardID).
		Update("actual_hours", totalHours).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to update job card hours", err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Item updated successfully",
		"item":    item,
	})
}
