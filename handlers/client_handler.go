package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"p9e.in/garage/config"
	"p9e.in/garage/middleware"
	"p9e.in/garage/models"
)

// ClientHandler manages customers and their vehicles.
type ClientHandler struct {
	db *gorm.DB
}

func NewClientHandler() *ClientHandler {
	return &ClientHandler{db: config.DB}
}

// CreateClientRequest registers a new customer
type CreateClientRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Notes     string `json:"notes"`
}

func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if req.FirstName == "" {
		writeError(w, http.StatusBadRequest, "first_name is required", nil)
		return
	}

	client := models.Client{
		CompanyID: companyID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Notes:     req.Notes,
		IsActive:  true,
	}

	if err := h.db.Create(&client).Error; err != nil {
		log.Printf("❌ Failed to create client: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create client", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Client created successfully",
		"client":  client,
	})
}

func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var client models.Client
	if err := h.db.Preload("Vehicles").
		First(&client, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, client)
}

// ListClients pages through the company's customers, with optional free-text
// search over name, phone and email.
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.Model(&models.Client{}).Where("company_id = ? AND is_active = ?", companyID, true)

	if search := r.URL.Query().Get("search"); search != "" {
		term := "%" + search + "%"
		query = query.Where(
			"LOWER(first_name) LIKE LOWER(?) OR LOWER(last_name) LIKE LOWER(?) OR phone LIKE ? OR LOWER(email) LIKE LOWER(?)",
			term, term, term, term)
	}

	var total int64
	query.Count(&total)

	var clients []models.Client
	if err := query.Order("first_name ASC").
		Offset((page - 1) * limit).Limit(limit).Find(&clients).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch clients", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"clients": clients,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// UpdateClientRequest edits customer details
type UpdateClientRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	Notes     *string `json:"notes"`
	IsActive  *bool   `json:"is_active"`
}

func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req UpdateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}

	var client models.Client
	if err := h.db.First(&client, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	if req.FirstName != nil {
		if *req.FirstName == "" {
			writeError(w, http.StatusBadRequest, "first_name cannot be empty", nil)
			return
		}
		client.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		client.LastName = *req.LastName
	}
	if req.Email != nil {
		client.Email = *req.Email
	}
	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.Address != nil {
		client.Address = *req.Address
	}
	if req.Notes != nil {
		client.Notes = *req.Notes
	}
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}

	if err := h.db.Save(&client).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update client", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Client updated successfully",
		"client":  client,
	})
}

// AddVehicleRequest attaches a vehicle to a client
type AddVehicleRequest struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	PlateNumber  string `json:"plate_number"`
	VIN          string `json:"vin"`
	Color        string `json:"color"`
	EngineNumber string `json:"engine_number"`
	Mileage      int64  `json:"mileage"`
	Notes        string `json:"notes"`
}

func (h *ClientHandler) AddVehicle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req AddVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if req.Make == "" || req.Model == "" {
		writeError(w, http.StatusBadRequest, "make and model are required", nil)
		return
	}

	var client models.Client
	if err := h.db.First(&client, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	vehicle := models.ClientVehicle{
		CompanyID:    companyID,
		ClientID:     client.ID,
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		PlateNumber:  req.PlateNumber,
		VIN:          req.VIN,
		Color:        req.Color,
		EngineNumber: req.EngineNumber,
		Mileage:      req.Mileage,
		Notes:        req.Notes,
	}

	if err := h.db.Create(&vehicle).Error; err != nil {
		log.Printf("❌ Failed to add vehicle: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to add vehicle", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Vehicle added successfully",
		"vehicle": vehicle,
	})
}

// UpdateVehicleRequest edits vehicle details
type UpdateVehicleRequest struct {
	Make         *string `json:"make"`
	Model        *string `json:"model"`
	Year         *int    `json:"year"`
	PlateNumber  *string `json:"plate_number"`
	VIN          *string `json:"vin"`
	Color        *string `json:"color"`
	EngineNumber *string `json:"engine_number"`
	Mileage      *int64  `json:"mileage"`
	Notes        *string `json:"notes"`
}

func (h *ClientHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req UpdateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}

	var vehicle models.ClientVehicle
	if err := h.db.First(&vehicle, "id = ? AND company_id = ?", vars["vehicleId"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	if req.Make != nil {
		vehicle.Make = *req.Make
	}
	if req.Model != nil {
		vehicle.Model = *req.Model
	}
	if req.Year != nil {
		vehicle.Year = *req.Year
	}
	if req.PlateNumber != nil {
		vehicle.PlateNumber = *req.PlateNumber
	}
	if req.VIN != nil {
		vehicle.VIN = *req.VIN
	}
	if req.Color != nil {
		vehicle.Color = *req.Color
	}
	if req.EngineNumber != nil {
		vehicle.EngineNumber = *req.EngineNumber
	}
	if req.Mileage != nil {
		vehicle.Mileage = *req.Mileage
	}
	if req.Notes != nil {
		vehicle.Notes = *req.Notes
	}

	if err := h.db.Save(&vehicle).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update vehicle", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Vehicle updated successfully",
		"vehicle": vehicle,
	})
}

// GetVehicleHistory returns all past sessions for one vehicle, newest first.
func (h *ClientHandler) GetVehicleHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var vehicle models.ClientVehicle
	if err := h.db.First(&vehicle, "id = ? AND company_id = ?", vars["vehicleId"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	var sessions []models.GarageSession
	if err := h.db.Where("vehicle_id = ? AND company_id = ?", vehicle.ID, companyID).
		Order("check_in_at DESC").Limit(100).Find(&sessions).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch history", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vehicle":  vehicle,
		"sessions": sessions,
		"count":    len(sessions),
	})
}
