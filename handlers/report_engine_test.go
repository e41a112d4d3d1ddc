package handlers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"p9e.in/garage/models"
)

func TestGenerateInitialReport(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)

	request := models.CustomerRequest{
		CompanyID:         fx.Company.ID,
		SessionID:         fx.Session.ID,
		Title:             "Grinding noise when braking",
		Concerns:          pq.StringArray{"noise from front wheels", "soft brake pedal"},
		RequestedServices: pq.StringArray{"brake inspection"},
		Priority:          models.PriorityHigh,
	}
	require.NoError(t, db.Create(&request).Error)

	inspection := models.Inspection{
		CompanyID:       fx.Company.ID,
		SessionID:       fx.Session.ID,
		Findings:        "Front pads worn to 2mm",
		OverallPriority: models.PriorityHigh,
		Items: []models.InspectionItem{
			{Name: "Front brake pads", Category: "brakes", Condition: "poor", Priority: models.PriorityHigh},
			{Name: "Rear brake pads", Category: "brakes", Condition: "good", Priority: models.PriorityLow},
			{Name: "Brake fluid", Category: "brakes", Condition: "fair", Priority: models.PriorityMedium},
		},
	}
	require.NoError(t, db.Create(&inspection).Error)

	engine := &ReportEngine{db: db}
	report, err := engine.GenerateInitialReport(fx.Session.ID, fx.Company.ID, "Test Advisor")
	require.NoError(t, err)

	require.Equal(t, fx.Session.SessionNumber, report.SessionNumber)
	require.Equal(t, "Ada Osei", report.Client.Name)
	require.Equal(t, "Toyota", report.Vehicle.Make)
	require.Equal(t, "Test Advisor", report.GeneratedBy)
	require.False(t, report.GeneratedAt.IsZero())

	require.NotNil(t, report.CustomerRequest)
	require.Len(t, report.CustomerRequest.Concerns, 2)

	require.NotNil(t, report.Inspection)
	require.Equal(t, 3, report.Inspection.TotalItems)
	require.Equal(t, 1, report.Inspection.ItemsRequiringAttention)

	require.Nil(t, report.TestDrive)
}

func TestInitialReportCountsOnlyReadyMedia(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)

	ready := models.MediaItem{
		CompanyID: fx.Company.ID, SessionID: fx.Session.ID,
		StorageKey: "k1", FileName: "before.jpg", Status: models.MediaReady,
	}
	pending := models.MediaItem{
		CompanyID: fx.Company.ID, SessionID: fx.Session.ID,
		StorageKey: "k2", FileName: "after.jpg", Status: models.MediaPending,
	}
	require.NoError(t, db.Create(&ready).Error)
	require.NoError(t, db.Create(&pending).Error)

	engine := &ReportEngine{db: db}
	report, err := engine.GenerateInitialReport(fx.Session.ID, fx.Company.ID, "Test Advisor")
	require.NoError(t, err)
	require.Equal(t, int64(1), report.MediaCount)
}

func TestInitialReportRejectsForeignTenant(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	other := seedFixture(t, db)

	engine := &ReportEngine{db: db}
	_, err := engine.GenerateInitialReport(fx.Session.ID, other.Company.ID, "Test Advisor")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGenerateFinalReportWithJobCard(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)

	card := models.JobCard{
		CompanyID: fx.Company.ID,
		SessionID: fx.Session.ID,
		Status:    models.JobCardCompleted,
		Items: []models.JobCardItem{
			{Title: "Replace front pads", Status: models.JobItemCompleted, ActualHours: 1.5, QualityChecked: true},
			{Title: "Flush brake fluid", Status: models.JobItemDeferred},
		},
	}
	require.NoError(t, db.Create(&card).Error)

	engine := &ReportEngine{db: db}
	report, err := engine.GenerateFinalReport(fx.Session.ID, fx.Company.ID, "Test Advisor")
	require.NoError(t, err)

	require.NotNil(t, report.JobCard)
	require.Equal(t, 1, report.JobCard.CompletedItems)
	require.Equal(t, 2, report.JobCard.TotalItems)
	require.Len(t, report.JobCard.Items, 2)
}

func TestGenerateFinalReportWithoutJobCard(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)

	engine := &ReportEngine{db: db}
	report, err := engine.GenerateFinalReport(fx.Session.ID, fx.Company.ID, "Test Advisor")
	require.NoError(t, err)
	require.Nil(t, report.JobCard)
}

func TestGenerateFinalReportEmptyJobCard(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)

	card := models.JobCard{CompanyID: fx.Company.ID, SessionID: fx.Session.ID, Status: models.JobCardDraft}
	require.NoError(t, db.Create(&card).Error)

	engine := &ReportEngine{db: db}
	report, err := engine.GenerateFinalReport(fx.Session.ID, fx.Company.ID, "Test Advisor")
	require.NoError(t, err)

	require.NotNil(t, report.JobCard)
	require.Equal(t, 0, report.JobCard.CompletedItems)
	require.Equal(t, 0, report.JobCard.TotalItems)
	require.NotNil(t, report.JobCard.Items)
	require.Empty(t, report.JobCard.Items)
}

func TestFinalReportMissingSession(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)

	engine := &ReportEngine{db: db}
	_, err := engine.GenerateFinalReport(uuid.New(), fx.Company.ID, "Test Advisor")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
