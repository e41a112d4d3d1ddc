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
)

// AppointmentHandler manages booked visits and their conversion into live
// garage sessions.
type AppointmentHandler struct {
	db *gorm.DB
}

func NewAppointmentHandler() *AppointmentHandler {
	return &AppointmentHandler{db: config.DB}
}

// CreateAppointmentRequest books a future visit
type CreateAppointmentRequest struct {
	BranchID    uuid.UUID  `json:"branch_id"`
	ClientID    uuid.UUID  `json:"client_id"`
	VehicleID   *uuid.UUID `json:"vehicle_id"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Duration    int        `json:"duration_minutes"`
	ServiceType string     `json:"service_type"`
	Notes       string     `json:"notes"`
}

func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if req.ClientID == uuid.Nil || req.BranchID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "branch_id and client_id are required", nil)
		return
	}
	if req.ScheduledAt.Before(time.Now()) {
		writeError(w, http.StatusBadRequest, "scheduled_at must be in the future", nil)
		return
	}

	var client models.Client
	if err := h.db.First(&client, "id = ? AND company_id = ?", req.ClientID, companyID).Error; err != nil {
		writeError(w, http.StatusNotFound, "client not found", err)
		return
	}
	if req.VehicleID != nil {
		var vehicle models.ClientVehicle
		if err := h.db.First(&vehicle, "id = ? AND client_id = ?", req.VehicleID, client.ID).Error; err != nil {
			writeError(w, http.StatusNotFound, "vehicle not found for this client", err)
			return
		}
	}

	appointment := models.Appointment{
		CompanyID:   companyID,
		BranchID:    req.BranchID,
		ClientID:    req.ClientID,
		VehicleID:   req.VehicleID,
		ScheduledAt: req.ScheduledAt,
		Duration:    req.Duration,
		ServiceType: req.ServiceType,
		Status:      models.AppointmentScheduled,
		Notes:       req.Notes,
	}
	if appointment.Duration <= 0 {
		appointment.Duration = 60
	}

	if err := h.db.Create(&appointment).Error; err != nil {
		log.Printf("❌ Failed to create appointment: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create appointment", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Appointment booked successfully",
		"appointment": appointment,
	})
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var appointment models.Appointment
	if err := h.db.Preload("Client").Preload("Vehicle").
		First(&appointment, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, appointment)
}

// ListAppointments lists bookings for a day (?date=2026-09-01) or a range
// (?from/?to), optionally narrowed by status or branch.
func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	query := h.db.Model(&models.Appointment{}).
		Preload("Client").Preload("Vehicle").
		Where("company_id = ?", companyID)

	if date := r.URL.Query().Get("date"); date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", err)
			return
		}
		query = query.Where("scheduled_at >= ? AND scheduled_at < ?", day, day.AddDate(0, 0, 1))
	} else {
		if from := r.URL.Query().Get("from"); from != "" {
			query = query.Where("scheduled_at >= ?", from)
		}
		if to := r.URL.Query().Get("to"); to != "" {
			query = query.Where("scheduled_at <= ?", to)
		}
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if branchID := r.URL.Query().Get("branch_id"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}

	var appointments []models.Appointment
	if err := query.Order("scheduled_at ASC").Limit(200).Find(&appointments).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch appointments", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
		"count":        len(appointments),
	})
}

// UpdateAppointmentStatusRequest moves a booking between scheduled, confirmed,
// cancelled and no_show
type UpdateAppointmentStatusRequest struct {
	Status string `json:"status"`
}

func (h *AppointmentHandler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req UpdateAppointmentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	switch req.Status {
	case models.AppointmentConfirmed, models.AppointmentCancelled, models.AppointmentNoShow:
	default:
		writeError(w, http.StatusBadRequest, "status must be confirmed, cancelled or no_show", nil)
		return
	}

	var appointment models.Appointment
	if err := h.db.First(&appointment, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}
	if appointment.Status == models.AppointmentCompleted || appointment.Status == models.AppointmentCancelled {
		writeError(w, http.StatusConflict, "appointment is already finalized", nil)
		return
	}

	appointment.Status = req.Status
	if err := h.db.Save(&appointment).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update appointment", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Appointment updated successfully",
		"appointment": appointment,
	})
}

// ConvertAppointmentRequest turns a booking into a checked-in session
type ConvertAppointmentRequest struct {
	VehicleID *uuid.UUID `json:"vehicle_id"`
	AdvisorID *uuid.UUID `json:"advisor_id"`
	MileageIn *int64     `json:"mileage_in"`
}

// ConvertAppointment checks the client in: it creates a garage session and
// marks the appointment completed, both in one transaction. A vehicle must be
// known by now, either on the booking or in the request body.
func (h *AppointmentHandler) ConvertAppointment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req ConvertAppointmentRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	var appointment models.Appointment
	if err := h.db.First(&appointment, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}
	if appointment.SessionID != nil {
		writeError(w, http.StatusConflict, "appointment has already been converted", nil)
		return
	}
	if appointment.Status == models.AppointmentCancelled || appointment.Status == models.AppointmentNoShow {
		writeError(w, http.StatusConflict, "cancelled or no-show appointments cannot be converted", nil)
		return
	}

	vehicleID := appointment.VehicleID
	if req.VehicleID != nil {
		vehicleID = req.VehicleID
	}
	if vehicleID == nil {
		writeError(w, http.StatusBadRequest, "a vehicle is required to check in", nil)
		return
	}
	var vehicle models.ClientVehicle
	if err := h.db.First(&vehicle, "id = ? AND client_id = ?", vehicleID, appointment.ClientID).Error; err != nil {
		writeError(w, http.StatusNotFound, "vehicle not found for this client", err)
		return
	}

	session := models.GarageSession{
		CompanyID: companyID,
		BranchID:  appointment.BranchID,
		ClientID:  appointment.ClientID,
		VehicleID: *vehicleID,
		AdvisorID: req.AdvisorID,
		Status:    models.SessionCheckedIn,
		CheckInAt: time.Now(),
		MileageIn: req.MileageIn,
		Notes:     appointment.Notes,
	}

	tx := h.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	number, err := nextSessionNumber(tx, companyID)
	if err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to allocate session number", err)
		return
	}
	session.SessionNumber = number

	if err := tx.Create(&session).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to create session", err)
		return
	}

	appointment.Status = models.AppointmentCompleted
	appointment.SessionID = &session.ID
	if err := tx.Save(&appointment).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to update appointment", err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction", err)
		return
	}

	log.Printf("✅ Appointment %s converted to session %s", appointment.ID, session.SessionNumber)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Appointment converted successfully",
		"session": session,
	})
}
