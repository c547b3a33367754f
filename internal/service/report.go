package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"fleetpool/api/internal/model"
)

// ReportService exports movement history for offline review
type ReportService struct {
	db *gorm.DB
}

// NewReportService creates a new report service
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// MovementReportQuery bounds a movement export
type MovementReportQuery struct {
	VehicleCode string
	EmpID       int
	StartTime   time.Time
	EndTime     time.Time
}

// ExportMovements builds an XLSX workbook with the movements matching the
// query, newest first, capped at 10000 rows.
func (s *ReportService) ExportMovements(ctx context.Context, query MovementReportQuery) (*excelize.File, error) {
	db := s.db.WithContext(ctx).Model(&model.Movement{})
	if query.VehicleCode != "" {
		db = db.Where("vehicle_code = ?", query.VehicleCode)
	}
	if query.EmpID > 0 {
		db = db.Where("emp_id = ?", query.EmpID)
	}
	if !query.StartTime.IsZero() {
		db = db.Where(`"timestamp" >= ?`, query.StartTime)
	}
	if !query.EndTime.IsZero() {
		db = db.Where(`"timestamp" <= ?`, query.EndTime)
	}

	var movements []model.Movement
	if err := db.Order(`"timestamp" DESC, id DESC`).Limit(10000).Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrServer, err)
	}

	f := excelize.NewFile()
	sheet := "Movements"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Vehicle Code", "Operation", "Employee ID", "Timestamp", "Notes", "Lat", "Lng"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err == nil {
		f.SetCellStyle(sheet, "A1", "H1", headerStyle)
	}

	for row, m := range movements {
		values := []interface{}{
			m.ID,
			m.VehicleCode,
			m.Op,
			m.EmpID,
			m.Timestamp.Format("2006-01-02 15:04:05"),
			m.Notes,
		}
		if m.Lat != nil {
			values = append(values, *m.Lat)
		} else {
			values = append(values, "")
		}
		if m.Lng != nil {
			values = append(values, *m.Lng)
		} else {
			values = append(values, "")
		}

		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	f.SetColWidth(sheet, "B", "B", 16)
	f.SetColWidth(sheet, "E", "E", 20)
	f.SetColWidth(sheet, "F", "F", 40)

	return f, nil
}
