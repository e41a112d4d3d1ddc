package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"p9e.in/garage/models"
)

func TestCreateSession(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	h := &SessionHandler{db: db}

	body, _ := json.Marshal(CreateSessionRequest{
		BranchID:  fx.Branch.ID,
		ClientID:  fx.Client.ID,
		VehicleID: fx.Vehicle.ID,
	})
	req := httptest.NewRequest("POST", "/sessions", bytes.NewReader(body))
	req = authRequest(t, req, fx.Company.ID)

	rr := httptest.NewRecorder()
	h.CreateSession(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		Session models.GarageSession `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, models.SessionCheckedIn, resp.Session.Status)
	require.Regexp(t, `^S-\d{8}-\d{4}$`, resp.Session.SessionNumber)
	require.False(t, resp.Session.CheckInAt.IsZero())
}

func TestCreateSessionRejectsForeignVehicle(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	other := seedFixture(t, db)
	h := &SessionHandler{db: db}

	body, _ := json.Marshal(CreateSessionRequest{
		BranchID:  fx.Branch.ID,
		ClientID:  fx.Client.ID,
		VehicleID: other.Vehicle.ID,
	})
	req := httptest.NewRequest("POST", "/sessions", bytes.NewReader(body))
	req = authRequest(t, req, fx.Company.ID)

	rr := httptest.NewRecorder()
	h.CreateSession(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateSessionStatusRejectsIllegalTransition(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	h := &SessionHandler{db: db}

	body, _ := json.Marshal(UpdateSessionStatusRequest{Status: models.SessionClosed})
	req := newSessionRequest(t, "PUT", "/sessions/{id}/status", fx, bytes.NewReader(body))

	rr := httptest.NewRecorder()
	h.UpdateSessionStatus(rr, req)
	require.Equal(t, http.StatusConflict, rr.Code)

	// status must be unchanged after the rejection
	var saved models.GarageSession
	require.NoError(t, db.First(&saved, "id = ?", fx.Session.ID).Error)
	require.Equal(t, models.SessionCheckedIn, saved.Status)
}

func TestCreateCustomerRequestAdvancesSession(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	h := &SessionHandler{db: db}

	body, _ := json.Marshal(CreateCustomerRequestRequest{
		Title:    "Engine hesitation",
		Concerns: []string{"hesitates on acceleration"},
		Priority: models.PriorityHigh,
	})
	req := newSessionRequest(t, "POST", "/sessions/{id}/request", fx, bytes.NewReader(body))

	rr := httptest.NewRecorder()
	h.CreateCustomerRequest(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var saved models.GarageSession
	require.NoError(t, db.First(&saved, "id = ?", fx.Session.ID).Error)
	require.Equal(t, models.SessionCustomerRequest, saved.Status)

	// a second request for the same session is rejected
	body, _ = json.Marshal(CreateCustomerRequestRequest{Title: "Another"})
	req = newSessionRequest(t, "POST", "/sessions/{id}/request", fx, bytes.NewReader(body))
	rr = httptest.NewRecorder()
	h.CreateCustomerRequest(rr, req)
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestCreateInspectionFromCheckedIn(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	h := &SessionHandler{db: db}

	body, _ := json.Marshal(CreateInspectionRequest{
		Findings:        "Worn suspension bushings",
		OverallPriority: models.PriorityMedium,
		Items: []InspectionItemRequest{
			{Name: "Front bushings", Category: "suspension", Condition: "poor", Priority: models.PriorityHigh},
		},
	})
	req := newSessionRequest(t, "POST", "/sessions/{id}/inspection", fx, bytes.NewReader(body))

	rr := httptest.NewRecorder()
	h.CreateInspection(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var saved models.GarageSession
	require.NoError(t, db.First(&saved, "id = ?", fx.Session.ID).Error)
	require.Equal(t, models.SessionInspection, saved.Status)

	var inspection models.Inspection
	require.NoError(t, db.Preload("Items").First(&inspection, "session_id = ?", fx.Session.ID).Error)
	require.Len(t, inspection.Items, 1)
}

func TestSessionTenantIsolation(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	other := seedFixture(t, db)
	h := &SessionHandler{db: db}

	req := httptest.NewRequest("GET", "/sessions/"+fx.Session.ID.String(), nil)
	req = setSessionVars(req, fx.Session.ID.String())
	req = authRequest(t, req, other.Company.ID)

	rr := httptest.NewRecorder()
	h.GetSession(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
