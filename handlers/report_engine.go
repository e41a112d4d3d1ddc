package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"p9e.in/garage/config"
	"p9e.in/garage/middleware"
	"p9e.in/garage/models"
)

// ReportEngine assembles point-in-time session snapshots. Reports are never
// persisted: every call re-reads the session and its sub-records, and the
// generation stamp changes on every run.
type ReportEngine struct {
	db *gorm.DB
}

func NewReportEngine() *ReportEngine {
	return &ReportEngine{db: config.DB}
}

// ClientSummary is the client slice of a report
type ClientSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"`
	Email string    `json:"email"`
}

// VehicleSummary is the vehicle slice of a report
type VehicleSummary struct {
	ID          uuid.UUID `json:"id"`
	Make        string    `json:"make"`
	Model       string    `json:"model"`
	Year        int       `json:"year"`
	PlateNumber string    `json:"plate_number"`
	VIN         string    `json:"vin"`
}

// InspectionSummary carries the findings plus the attention count used by
// advisors when walking the customer through the estimate.
type InspectionSummary struct {
	Findings                string `json:"findings"`
	Recommendations         string `json:"recommendations"`
	OverallPriority         string `json:"overall_priority"`
	TotalItems              int    `json:"total_items"`
	ItemsRequiringAttention int    `json:"items_requiring_attention"`
}

// TestDriveSummary is the road test slice of a report
type TestDriveSummary struct {
	MileageStart    int64  `json:"mileage_start"`
	MileageEnd      *int64 `json:"mileage_end,omitempty"`
	Findings        string `json:"findings"`
	Recommendations string `json:"recommendations"`
}

// CustomerRequestSummary is the customer concerns slice of a report
type CustomerRequestSummary struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Concerns          []string `json:"concerns"`
	RequestedServices []string `json:"requested_services"`
	Priority          string   `json:"priority"`
}

// InitialReport is the pre-work-approval snapshot of a session.
type InitialReport struct {
	SessionID     uuid.UUID            `json:"session_id"`
	SessionNumber string               `json:"session_number"`
	Status        models.SessionStatus `json:"status"`
	CheckInAt     time.Time            `json:"check_in_at"`
	MileageIn     *int64               `json:"mileage_in,omitempty"`

	Client          ClientSummary           `json:"client"`
	Vehicle         VehicleSummary          `json:"vehicle"`
	CustomerRequest *CustomerRequestSummary `json:"customer_request,omitempty"`
	Inspection      *InspectionSummary      `json:"inspection,omitempty"`
	TestDrive       *TestDriveSummary       `json:"test_drive,omitempty"`
	MediaCount      int64                   `json:"media_count"`

	GeneratedAt time.Time `json:"generated_at"`
	GeneratedBy string    `json:"generated_by"`
}

// JobCardItemSummary is one task line in a final report
type JobCardItemSummary struct {
	Title          string                   `json:"title"`
	Category       string                   `json:"category"`
	Status         models.JobCardItemStatus `json:"status"`
	WorkPerformed  string                   `json:"work_performed"`
	ActualHours    float64                  `json:"actual_hours"`
	QualityChecked bool                     `json:"quality_checked"`
}

// JobCardSummary aggregates the work order for a final report
type JobCardSummary struct {
	Status         models.JobCardStatus `json:"status"`
	EstimatedHours float64              `json:"estimated_hours"`
	ActualHours    float64              `json:"actual_hours"`
	CompletedItems int                  `json:"completed_items"`
	TotalItems     int                  `json:"total_items"`
	Items          []JobCardItemSummary `json:"items"`
}

// FinalReport is the post-completion snapshot: everything in the initial
// report plus the job card results.
type FinalReport struct {
	InitialReport
	CheckOutAt *time.Time      `json:"check_out_at,omitempty"`
	MileageOut *int64          `json:"mileage_out,omitempty"`
	JobCard    *JobCardSummary `json:"job_card,omitempty"`
}

// GenerateInitialReport builds the pre-approval snapshot. All sub-fetches
// must succeed; a missing session (or tenant mismatch) fails the whole call.
func (e *ReportEngine) GenerateInitialReport(sessionID, companyID uuid.UUID, generatedBy string) (*InitialReport, error) {
	var session models.GarageSession
	if err := e.db.
		Preload("Client").
		Preload("Vehicle").
		Preload("CustomerRequest").
		Preload("Inspection.Items").
		Preload("TestDrive").
		First(&session, "id = ? AND company_id = ?", sessionID, companyID).Error; err != nil {
		return nil, err
	}

	var mediaCount int64
	if err := e.db.Model(&models.MediaItem{}).
		Where("session_id = ? AND status = ?", session.ID, models.MediaReady).
		Count(&mediaCount).Error; err != nil {
		return nil, err
	}

	report := &InitialReport{
		SessionID:     session.ID,
		SessionNumber: session.SessionNumber,
		Status:        session.Status,
		CheckInAt:     session.CheckInAt,
		MileageIn:     session.MileageIn,
		Client: ClientSummary{
			ID:    session.Client.ID,
			Name:  session.Client.DisplayName(),
			Phone: session.Client.Phone,
			Email: session.Client.Email,
		},
		Vehicle: VehicleSummary{
			ID:          session.Vehicle.ID,
			Make:        session.Vehicle.Make,
			Model:       session.Vehicle.Model,
			Year:        session.Vehicle.Year,
			PlateNumber: session.Vehicle.PlateNumber,
			VIN:         session.Vehicle.VIN,
		},
		MediaCount:  mediaCount,
		GeneratedAt: time.Now(),
		GeneratedBy: generatedBy,
	}

	if cr := session.CustomerRequest; cr != nil {
		report.CustomerRequest = &CustomerRequestSummary{
			Title:             cr.Title,
			Description:       cr.Description,
			Concerns:          cr.Concerns,
			RequestedServices: cr.RequestedServices,
			Priority:          cr.Priority,
		}
	}
	if insp := session.Inspection; insp != nil {
		summary := &InspectionSummary{
			Findings:        insp.Findings,
			Recommendations: insp.Recommendations,
			OverallPriority: insp.OverallPriority,
			TotalItems:      len(insp.Items),
		}
		for i := range insp.Items {
			if insp.Items[i].RequiresAttention() {
				summary.ItemsRequiringAttention++
			}
		}
		report.Inspection = summary
	}
	if td := session.TestDrive; td != nil {
		report.TestDrive = &TestDriveSummary{
			MileageStart:    td.MileageStart,
			MileageEnd:      td.MileageEnd,
			Findings:        td.Findings,
			Recommendations: td.Recommendations,
		}
	}

	return report, nil
}

// GenerateFinalReport builds the post-completion snapshot. A session without
// a job card, or a job card without items, is not an error: the summary just
// carries zero counts.
func (e *ReportEngine) GenerateFinalReport(sessionID, companyID uuid.UUID, generatedBy string) (*FinalReport, error) {
	initial, err := e.GenerateInitialReport(sessionID, companyID, generatedBy)
	if err != nil {
		return nil, err
	}

	var session models.GarageSession
	if err := e.db.
		Preload("JobCard.Items").
		First(&session, "id = ? AND company_id = ?", sessionID, companyID).Error; err != nil {
		return nil, err
	}

	report := &FinalReport{
		InitialReport: *initial,
		CheckOutAt:    session.CheckOutAt,
		MileageOut:    session.MileageOut,
	}

	if jc := session.JobCard; jc != nil {
		completed, total := jc.ItemCounts()
		summary := &JobCardSummary{
			Status:         jc.Status,
			EstimatedHours: jc.EstimatedHours,
			ActualHours:    jc.ActualHours,
			CompletedItems: completed,
			TotalItems:     total,
			Items:          []JobCardItemSummary{},
		}
		for i := range jc.Items {
			it := &jc.Items[i]
			summary.Items = append(summary.Items, JobCardItemSummary{
				Title:          it.Title,
				Category:       it.Category,
				Status:         it.Status,
				WorkPerformed:  it.WorkPerformed,
				ActualHours:    it.ActualHours,
				QualityChecked: it.QualityChecked,
			})
		}
		report.JobCard = summary
	}

	return report, nil
}

// GetInitialReport serves the initial report for a session.
func (e *ReportEngine) GetInitialReport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, err := uuid.Parse(vars["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id", err)
		return
	}

	report, err := e.GenerateInitialReport(sessionID, middleware.GetCompanyID(r), middleware.GetClaims(r).Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetFinalReport serves the final report for a session.
func (e *ReportEngine) GetFinalReport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, err := uuid.Parse(vars["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id", err)
		return
	}

	report, err := e.GenerateFinalReport(sessionID, middleware.GetCompanyID(r), middleware.GetClaims(r).Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
