package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"p9e.in/garage/middleware"
	"p9e.in/garage/models"
)

// setupTestDB opens an in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Company{}, &models.Branch{}, &models.CompanyUser{},
		&models.Client{}, &models.ClientVehicle{},
		&models.GarageSession{}, &models.CustomerRequest{},
		&models.Inspection{}, &models.InspectionItem{}, &models.TestDrive{},
		&models.JobCard{}, &models.JobCardItem{},
		&models.MediaItem{},
		&models.Invoice{}, &models.InvoiceItem{}, &models.Payment{},
		&models.InventoryItem{}, &models.StockMovement{},
		&models.Appointment{},
	))
	return db
}

// testFixture is the minimal tenant graph most handler tests start from.
type testFixture struct {
	Company models.Company
	Branch  models.Branch
	Client  models.Client
	Vehicle models.ClientVehicle
	Session models.GarageSession
}

func seedFixture(t *testing.T, db *gorm.DB) testFixture {
	t.Helper()

	company := models.Company{Name: "Apex Motors", Code: "APEX-" + uuid.New().String()[:8], IsActive: true}
	require.NoError(t, db.Create(&company).Error)

	branch := models.Branch{CompanyID: company.ID, Name: "Main Workshop", IsActive: true}
	require.NoError(t, db.Create(&branch).Error)

	client := models.Client{CompanyID: company.ID, FirstName: "Ada", LastName: "Osei", Phone: "0700123456", IsActive: true}
	require.NoError(t, db.Create(&client).Error)

	vehicle := models.ClientVehicle{CompanyID: company.ID, ClientID: client.ID, Make: "Toyota", Model: "Corolla", Year: 2019, PlateNumber: "KDA 123X"}
	require.NoError(t, db.Create(&vehicle).Error)

	session := models.GarageSession{
		CompanyID:     company.ID,
		BranchID:      branch.ID,
		ClientID:      client.ID,
		VehicleID:     vehicle.ID,
		SessionNumber: "S-20260901-" + uuid.New().String()[:4],
		Status:        models.SessionCheckedIn,
		CheckInAt:     time.Now(),
	}
	require.NoError(t, db.Create(&session).Error)

	return testFixture{Company: company, Branch: branch, Client: client, Vehicle: vehicle, Session: session}
}

// authRequest stamps tenant claims onto the request the same way the JWT
// middleware does in production.
func authRequest(t *testing.T, r *http.Request, companyID uuid.UUID) *http.Request {
	t.Helper()
	token, err := middleware.GenerateToken(uuid.New().String(), companyID.String(), "Test Advisor", "advisor")
	require.NoError(t, err)
	r.Header.Set("Authorization", "Bearer "+token)

	authed := make(chan *http.Request, 1)
	middleware.JWTMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, inner *http.Request) {
		authed <- inner
	})).ServeHTTP(discardWriter{}, r)

	select {
	case inner := <-authed:
		return inner
	default:
		t.Fatal("token was rejected by the auth middleware")
		return nil
	}
}

// setSessionVars stamps the {id} path variable the way the router would.
func setSessionVars(r *http.Request, id string) *http.Request {
	return mux.SetURLVars(r, map[string]string{"id": id})
}

// newSessionRequest builds an authenticated request against one of the
// /sessions/{id}/... endpoints.
func newSessionRequest(t *testing.T, method, path string, fx testFixture, body io.Reader) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, strings.Replace(path, "{id}", fx.Session.ID.String(), 1), body)
	req = setSessionVars(req, fx.Session.ID.String())
	return authRequest(t, req, fx.Company.ID)
}

type discardWriter struct{}

func (discardWriter) Header() http.Header         { return http.Header{} }
func (discardWriter) Write(b []byte) (int, error) { return len(b), nil }
func (discardWriter) WriteHeader(int)             {}
