package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"p9e.in/garage/config"
	"p9e.in/garage/middleware"
	"p9e.in/garage/models"
)

// ExportSessionsToExcel exports the company's sessions for a date range to an
// Excel workbook. Query params: from, to (RFC3339 or YYYY-MM-DD), status.
func ExportSessionsToExcel(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	query := config.DB.Model(&models.GarageSession{}).
		Preload("Client").
		Preload("Vehicle").
		Where("company_id = ?", companyID)

	if from := r.URL.Query().Get("from"); from != "" {
		query = query.Where("check_in_at >= ?", from)
	}
	if to := r.URL.Query().Get("to"); to != "" {
		query = query.Where("check_in_at <= ?", to)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var sessions []models.GarageSession
	if err := query.Order("check_in_at DESC").Limit(5000).Find(&sessions).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch sessions", err)
		return
	}

	f, err := createSessionsWorkbook(sessions)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate Excel file", err)
		return
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write Excel file", err)
		return
	}

	filename := fmt.Sprintf("sessions_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))

	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}

func createSessionsWorkbook(sessions []models.GarageSession) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Sessions"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "center",
		},
	})
	f.SetCellValue(sheetName, "A1", "Service Sessions")
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	f.SetRowHeight(sheetName, 1, 30)
	f.SetCellValue(sheetName, "A2", fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05")))

	headers := []string{"Session #", "Status", "Client", "Vehicle", "Plate", "Check-In", "Check-Out", "Mileage In", "Mileage Out"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	for colIdx, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 4)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	f.SetColWidth(sheetName, "A", "I", 20)

	for rowIdx, s := range sessions {
		row := rowIdx + 5
		checkOut := ""
		if s.CheckOutAt != nil {
			checkOut = s.CheckOutAt.Format("2006-01-02 15:04")
		}
		mileageIn, mileageOut := "", ""
		if s.MileageIn != nil {
			mileageIn = fmt.Sprintf("%d", *s.MileageIn)
		}
		if s.MileageOut != nil {
			mileageOut = fmt.Sprintf("%d", *s.MileageOut)
		}
		values := []interface{}{
			s.SessionNumber,
			string(s.Status),
			s.Client.DisplayName(),
			s.Vehicle.Make + " " + s.Vehicle.Model,
			s.Vehicle.PlateNumber,
			s.CheckInAt.Format("2006-01-02 15:04"),
			checkOut,
			mileageIn,
			mileageOut,
		}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}
