// handlers/auth.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"p9e.in/garage/config"
	"p9e.in/garage/middleware"
	"p9e.in/garage/models"
)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

type userPayload struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

// Login authenticates a company user by email and password and returns a JWT
// carrying the user's company as the tenant claim.
func Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	var u models.CompanyUser
	if err := config.DB.Where("email = ? AND is_active = ?", strings.ToLower(req.Email), true).First(&u).Error; err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	token, err := middleware.GenerateToken(u.ID.String(), u.CompanyID.String(), u.Name, u.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "couldn't create token", err)
		return
	}

	now := time.Now()
	config.DB.Model(&u).Update("last_login_at", &now)

	out := loginResp{
		Token: token,
		User: userPayload{
			ID:        u.ID,
			CompanyID: u.CompanyID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      u.Role,
		},
	}
	json.NewEncoder(w).Encode(out)
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword lets an authenticated user rotate their own password.
func ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == uuid.Nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req changePasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusBadRequest, "new password must be at least 8 characters", nil)
		return
	}

	var u models.CompanyUser
	if err := config.DB.First(&u, "id = ?", userID).Error; err != nil {
		writeError(w, http.StatusNotFound, "user not found", err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		writeError(w, http.StatusUnauthorized, "current password is incorrect", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error hashing password", err)
		return
	}
	if err := config.DB.Model(&u).Update("password_hash", string(hash)).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update password", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// Profile returns the authenticated user's account details.
func Profile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == uuid.Nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var u models.CompanyUser
	if err := config.DB.First(&u, "id = ? AND company_id = ?", userID, middleware.GetCompanyID(r)).Error; err != nil {
		writeError(w, http.StatusNotFound, "user not found", err)
		return
	}
	writeJSON(w, http.StatusOK, userPayload{
		ID:        u.ID,
		CompanyID: u.CompanyID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
	})
}
