package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"p9e.in/garage/config"
	"p9e.in/garage/middleware"
	"p9e.in/garage/models"
	"p9e.in/garage/pkg/mailer"
)

// CompanyHandler manages the tenant itself: company profile, branches and
// staff accounts. Most operations here require the admin role.
type CompanyHandler struct {
	db     *gorm.DB
	mailer *mailer.Mailer
}

func NewCompanyHandler(m *mailer.Mailer) *CompanyHandler {
	return &CompanyHandler{db: config.DB, mailer: m}
}

// GetCompany returns the caller's company with branches.
func (h *CompanyHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	var company models.Company
	if err := h.db.Preload("Branches").First(&company, "id = ?", companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, company)
}

// UpdateCompanyRequest edits the company profile
type UpdateCompanyRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	TaxID   *string `json:"tax_id"`
}

func (h *CompanyHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	var req UpdateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}

	var company models.Company
	if err := h.db.First(&company, "id = ?", companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.Email != nil {
		company.Email = *req.Email
	}
	if req.Phone != nil {
		company.Phone = *req.Phone
	}
	if req.Address != nil {
		company.Address = *req.Address
	}
	if req.TaxID != nil {
		company.TaxID = *req.TaxID
	}

	if err := h.db.Save(&company).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update company", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Company updated successfully",
		"company": company,
	})
}

// CreateBranchRequest adds a location
type CreateBranchRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (h *CompanyHandler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	var req CreateBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	branch := models.Branch{
		CompanyID: companyID,
		Name:      req.Name,
		Address:   req.Address,
		Phone:     req.Phone,
		IsActive:  true,
	}

	if err := h.db.Create(&branch).Error; err != nil {
		log.Printf("❌ Failed to create branch: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create branch", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Branch created successfully",
		"branch":  branch,
	})
}

func (h *CompanyHandler) ListBranches(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	var branches []models.Branch
	if err := h.db.Where("company_id = ? AND is_active = ?", companyID, true).
		Order("name ASC").Find(&branches).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch branches", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"branches": branches,
		"count":    len(branches),
	})
}

// InviteUserRequest creates a staff account with a generated temporary password
type InviteUserRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Role     string  `json:"role"`
	BranchID *string `json:"branch_id"`
}

var allowedRoles = map[string]bool{
	"admin":      true,
	"advisor":    true,
	"technician": true,
	"inspector":  true,
}

// InviteUser creates the account and emails a temporary password. The email
// is best-effort; the temporary password is returned in the response only
// when no mailer is configured.
func (h *CompanyHandler) InviteUser(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	var req InviteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required", nil)
		return
	}
	if !allowedRoles[req.Role] {
		writeError(w, http.StatusBadRequest, "role must be admin, advisor, technician or inspector", nil)
		return
	}

	var count int64
	h.db.Model(&models.CompanyUser{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		writeError(w, http.StatusConflict, "a user with this email already exists", nil)
		return
	}

	tempPassword := uuid.New().String()[:12]
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password", err)
		return
	}

	now := time.Now()
	user := models.CompanyUser{
		CompanyID:    companyID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
		InvitedAt:    &now,
	}
	if req.BranchID != nil {
		branchID, err := parseUUIDParam(*req.BranchID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid branch_id", err)
			return
		}
		user.BranchID = &branchID
	}

	if err := h.db.Create(&user).Error; err != nil {
		log.Printf("❌ Failed to create user: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create user", err)
		return
	}

	body := fmt.Sprintf("Hello %s,\n\nAn account has been created for you.\nEmail: %s\nTemporary password: %s\n\nPlease change your password after your first login.",
		user.Name, user.Email, tempPassword)
	sent := h.mailer.Send(user.Email, "Your account invitation", body)

	resp := map[string]interface{}{
		"message":    "User invited successfully",
		"user":       user,
		"email_sent": sent,
	}
	if !sent {
		resp["temporary_password"] = tempPassword
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *CompanyHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	query := h.db.Model(&models.CompanyUser{}).Where("company_id = ?", companyID)
	if role := r.URL.Query().Get("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.CompanyUser
	if err := query.Order("name ASC").Find(&users).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch users", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

// DeactivateUser disables a staff account. Admins cannot deactivate
// themselves.
func (h *CompanyHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)
	callerID := middleware.GetUserID(r)

	var user models.CompanyUser
	if err := h.db.First(&user, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}
	if user.ID == callerID {
		writeError(w, http.StatusConflict, "you cannot deactivate your own account", nil)
		return
	}

	user.IsActive = false
	if err := h.db.Save(&user).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to deactivate user", err)
		return
	}

	log.Printf("✅ User %s deactivated", user.Email)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User deactivated successfully",
	})
}

type testEmailRequest struct {
	To string `json:"to"`
}

// SendTestEmail lets an admin verify the SMTP configuration.
func (h *CompanyHandler) SendTestEmail(w http.ResponseWriter, r *http.Request) {
	var req testEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.To) == "" {
		writeError(w, http.StatusBadRequest, "recipient address is required", err)
		return
	}

	sent := h.mailer.Send(strings.TrimSpace(req.To),
		"Test email", "This is a test email from your garage management system.")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"email_sent": sent,
	})
}
