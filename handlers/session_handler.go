package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"p9e.in/garage/config"
	"p9e.in/garage/middleware"
	"p9e.in/garage/models"
)

// SessionHandler owns the garage session lifecycle: check-in, status
// progression, sub-record creation and lookup/search.
type SessionHandler struct {
	db *gorm.DB
}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{db: config.DB}
}

// CreateSessionRequest represents the check-in request
type CreateSessionRequest struct {
	BranchID  uuid.UUID  `json:"branch_id"`
	ClientID  uuid.UUID  `json:"client_id"`
	VehicleID uuid.UUID  `json:"vehicle_id"`
	MileageIn *int64     `json:"mileage_in"`
	AdvisorID *uuid.UUID `json:"advisor_id"`
	Notes     string     `json:"notes"`
}

// CreateSession checks a vehicle in and opens a new session.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if req.BranchID == uuid.Nil || req.ClientID == uuid.Nil || req.VehicleID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "branch_id, client_id and vehicle_id are required", nil)
		return
	}

	// Client and vehicle must exist in this company
	var client models.Client
	if err := h.db.First(&client, "id = ? AND company_id = ?", req.ClientID, companyID).Error; err != nil {
		writeError(w, http.StatusBadRequest, "invalid client", err)
		return
	}
	var vehicle models.ClientVehicle
	if err := h.db.First(&vehicle, "id = ? AND company_id = ? AND client_id = ?", req.VehicleID, companyID, req.ClientID).Error; err != nil {
		writeError(w, http.StatusBadRequest, "invalid vehicle", err)
		return
	}

	session := models.GarageSession{
		CompanyID: companyID,
		BranchID:  req.BranchID,
		ClientID:  req.ClientID,
		VehicleID: req.VehicleID,
		AdvisorID: req.AdvisorID,
		Status:    models.SessionCheckedIn,
		CheckInAt: time.Now(),
		MileageIn: req.MileageIn,
		Notes:     req.Notes,
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
		log.Printf("❌ Failed to create session: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create session", err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction", err)
		return
	}

	log.Printf("✅ Checked in session %s (vehicle %s)", session.SessionNumber, vehicle.DisplayName())
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Session created successfully",
		"session": session,
	})
}

// nextSessionNumber allocates S-<YYYYMMDD>-<seq> within the company and day.
func nextSessionNumber(tx *gorm.DB, companyID uuid.UUID) (string, error) {
	day := time.Now().Format("20060102")
	prefix := fmt.Sprintf("S-%s-", day)
	var count int64
	if err := tx.Model(&models.GarageSession{}).
		Where("company_id = ? AND session_number LIKE ?", companyID, prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// fetchSession loads a session by id scoped to the company. A miss and a
// tenant mismatch are indistinguishable to the caller: both are not-found.
func (h *SessionHandler) fetchSession(id string, companyID uuid.UUID) (*models.GarageSession, error) {
	var session models.GarageSession
	if err := h.db.First(&session, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession retrieves one session with all sub-records.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var session models.GarageSession
	if err := h.db.
		Preload("Client").
		Preload("Vehicle").
		Preload("CustomerRequest").
		Preload("Inspection.Items").
		Preload("TestDrive").
		Preload("JobCard.Items").
		Preload("MediaItems").
		First(&session, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// GetSessionByNumber retrieves one session by its human-facing number.
func (h *SessionHandler) GetSessionByNumber(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var session models.GarageSession
	if err := h.db.
		Preload("Client").
		Preload("Vehicle").
		First(&session, "session_number = ? AND company_id = ?", vars["number"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// ListSessions lists sessions with filters and pagination.
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := h.db.Model(&models.GarageSession{}).
		Preload("Client").
		Preload("Vehicle").
		Where("company_id = ?", companyID)

	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if clientID := r.URL.Query().Get("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if vehicleID := r.URL.Query().Get("vehicle_id"); vehicleID != "" {
		query = query.Where("vehicle_id = ?", vehicleID)
	}
	if branchID := r.URL.Query().Get("branch_id"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}
	if from := r.URL.Query().Get("from"); from != "" {
		query = query.Where("check_in_at >= ?", from)
	}
	if to := r.URL.Query().Get("to"); to != "" {
		query = query.Where("check_in_at <= ?", to)
	}

	var total int64
	query.Count(&total)

	var sessions []models.GarageSession
	if err := query.Limit(limit).Offset(offset).Order("check_in_at DESC").Find(&sessions).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch sessions", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// SearchSessions matches a term against session numbers and related client and
// vehicle display fields. Most recent check-in first; no ranking.
func (h *SessionHandler) SearchSessions(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)
	term := r.URL.Query().Get("q")
	if term == "" {
		writeError(w, http.StatusBadRequest, "search query is required", nil)
		return
	}
	pattern := "%" + strings.ToLower(term) + "%"

	var sessions []models.GarageSession
	if err := h.db.
		Preload("Client").
		Preload("Vehicle").
		Joins("JOIN clients ON clients.id = garage_sessions.client_id").
		Joins("JOIN client_vehicles ON client_vehicles.id = garage_sessions.vehicle_id").
		Where("garage_sessions.company_id = ?", companyID).
		Where(`LOWER(garage_sessions.session_number) LIKE ?
			OR LOWER(clients.first_name) LIKE ?
			OR LOWER(clients.last_name) LIKE ?
			OR LOWER(clients.phone) LIKE ?
			OR LOWER(client_vehicles.plate_number) LIKE ?
			OR LOWER(client_vehicles.make) LIKE ?
			OR LOWER(client_vehicles.model) LIKE ?`,
			pattern, pattern, pattern, pattern, pattern, pattern, pattern).
		Order("garage_sessions.check_in_at DESC").
		Limit(50).
		Find(&sessions).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "search failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":    term,
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// UpdateSessionStatusRequest represents a status progression request
type UpdateSessionStatusRequest struct {
	Status     models.SessionStatus `json:"status"`
	MileageOut *int64               `json:"mileage_out"`
	Notes      string               `json:"notes"`
}

// UpdateSessionStatus progresses a session through its lifecycle. Moves not in
// the transition table are rejected with 409.
func (h *SessionHandler) UpdateSessionStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req UpdateSessionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required", nil)
		return
	}

	session, err := h.fetchSession(vars["id"], companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	oldStatus := session.Status
	if err := session.Transition(req.Status); err != nil {
		writeServiceError(w, err)
		return
	}
	if req.MileageOut != nil {
		session.MileageOut = req.MileageOut
	}
	if req.Notes != "" {
		session.Notes = req.Notes
	}

	if err := h.db.Save(session).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update session", err)
		return
	}

	log.Printf("✅ Session %s: %s -> %s", session.SessionNumber, oldStatus, session.Status)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Session status updated successfully",
		"session": session,
	})
}

// CreateCustomerRequestRequest captures customer-reported concerns
type CreateCustomerRequestRequest struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Concerns          []string `json:"concerns"`
	RequestedServices []string `json:"requested_services"`
	Priority          string   `json:"priority"`
}

// CreateCustomerRequest records the customer's concerns and advances the
// session to the customer_request stage in one transaction.
func (h *SessionHandler) CreateCustomerRequest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req CreateCustomerRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required", nil)
		return
	}

	session, err := h.fetchSession(vars["id"], companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var existing models.CustomerRequest
	if err := h.db.First(&existing, "session_id = ?", session.ID).Error; err == nil {
		writeError(w, http.StatusConflict, "session already has a customer request", nil)
		return
	}

	if err := session.Transition(models.SessionCustomerRequest); err != nil {
		writeServiceError(w, err)
		return
	}

	cr := models.CustomerRequest{
		CompanyID:         companyID,
		SessionID:         session.ID,
		Title:             req.Title,
		Description:       req.Description,
		Concerns:          req.Concerns,
		RequestedServices: req.RequestedServices,
		Priority:          defaultPriority(req.Priority),
	}

	tx := h.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&cr).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to create customer request", err)
		return
	}
	if err := tx.Save(session).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to update session", err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction", err)
		return
	}

	log.Printf("✅ Customer request recorded for session %s", session.SessionNumber)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":          "Customer request created successfully",
		"customer_request": cr,
	})
}

// CreateInspectionRequest captures technician findings with per-item checks
type CreateInspectionRequest struct {
	InspectorID     *uuid.UUID              `json:"inspector_id"`
	Findings        string                  `json:"findings"`
	Recommendations string                  `json:"recommendations"`
	OverallPriority string                  `json:"overall_priority"`
	Items           []InspectionItemRequest `json:"items"`
}

type InspectionItemRequest struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Condition string `json:"condition"`
	Priority  string `json:"priority"`
	Notes     string `json:"notes"`
}

// CreateInspection records the inspection and advances the session in one
// transaction.
func (h *SessionHandler) CreateInspection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req CreateInspectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}

	session, err := h.fetchSession(vars["id"], companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var existing models.Inspection
	if err := h.db.First(&existing, "session_id = ?", session.ID).Error; err == nil {
		writeError(w, http.StatusConflict, "session already has an inspection", nil)
		return
	}

	if err := session.Transition(models.SessionInspection); err != nil {
		writeServiceError(w, err)
		return
	}

	inspection := models.Inspection{
		CompanyID:       companyID,
		SessionID:       session.ID,
		InspectorID:     req.InspectorID,
		Findings:        req.Findings,
		Recommendations: req.Recommendations,
		OverallPriority: defaultPriority(req.OverallPriority),
	}
	for i, item := range req.Items {
		inspection.Items = append(inspection.Items, models.InspectionItem{
			Name:      item.Name,
			Category:  item.Category,
			Condition: item.Condition,
			Priority:  defaultPriority(item.Priority),
			Notes:     item.Notes,
			ItemOrder: i,
		})
	}

	tx := h.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&inspection).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to create inspection", err)
		return
	}
	if err := tx.Save(session).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to update session", err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction", err)
		return
	}

	log.Printf("✅ Inspection recorded for session %s (%d items)", session.SessionNumber, len(inspection.Items))
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Inspection created successfully",
		"inspection": inspection,
	})
}

// CreateTestDriveRequest captures road test observations
type CreateTestDriveRequest struct {
	DriverID        *uuid.UUID        `json:"driver_id"`
	MileageStart    int64             `json:"mileage_start"`
	SubsystemNotes  map[string]string `json:"subsystem_notes"`
	Findings        string            `json:"findings"`
	Recommendations string            `json:"recommendations"`
}

// CreateTestDrive records a road test and advances the session in one
// transaction.
func (h *SessionHandler) CreateTestDrive(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req CreateTestDriveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}

	session, err := h.fetchSession(vars["id"], companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var existing models.TestDrive
	if err := h.db.First(&existing, "session_id = ?", session.ID).Error; err == nil {
		writeError(w, http.StatusConflict, "session already has a test drive", nil)
		return
	}

	if err := session.Transition(models.SessionTestDrive); err != nil {
		writeServiceError(w, err)
		return
	}

	notesJSON, _ := json.Marshal(req.SubsystemNotes)
	td := models.TestDrive{
		CompanyID:       companyID,
		SessionID:       session.ID,
		DriverID:        req.DriverID,
		MileageStart:    req.MileageStart,
		SubsystemNotes:  datatypes.JSON(notesJSON),
		Findings:        req.Findings,
		Recommendations: req.Recommendations,
	}

	tx := h.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&td).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to create test drive", err)
		return
	}
	if err := tx.Save(session).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to update session", err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction", err)
		return
	}

	log.Printf("✅ Test drive recorded for session %s", session.SessionNumber)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Test drive created successfully",
		"test_drive": td,
	})
}

// CompleteTestDriveRequest closes out a road test
type CompleteTestDriveRequest struct {
	MileageEnd      int64  `json:"mileage_end"`
	Findings        string `json:"findings"`
	Recommendations string `json:"recommendations"`
}

// CompleteTestDrive records end mileage and final findings.
func (h *SessionHandler) CompleteTestDrive(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req CompleteTestDriveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}

	var td models.TestDrive
	if err := h.db.First(&td, "session_id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}
	if req.MileageEnd < td.MileageStart {
		writeError(w, http.StatusBadRequest, "mileage_end cannot be less than mileage_start", nil)
		return
	}

	now := time.Now()
	td.MileageEnd = &req.MileageEnd
	td.CompletedAt = &now
	if req.Findings != "" {
		td.Findings = req.Findings
	}
	if req.Recommendations != "" {
		td.Recommendations = req.Recommendations
	}

	if err := h.db.Save(&td).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update test drive", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Test drive completed successfully",
		"test_drive": td,
	})
}

func defaultPriority(p string) string {
	if p == "" {
		return models.PriorityMedium
	}
	return p
}
