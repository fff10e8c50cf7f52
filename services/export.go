package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/vnkhanh/internship-platform-backend/models"
)

const applicationSheet = "Applications"

var applicationHeaders = []string{
	"Application ID", "Internship", "Student", "Email", "Status", "Applied At", "Reviewed At", "Resume",
}

// ExportApplications ghi danh sách hồ sơ ứng tuyển ra file xlsx.
// Application cần được preload Internship và Student.
func ExportApplications(apps []models.Application) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", applicationSheet); err != nil {
		return nil, err
	}

	for i, h := range applicationHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(applicationSheet, cell, h); err != nil {
			return nil, err
		}
	}

	for r, a := range apps {
		reviewed := ""
		if a.ReviewedAt != nil {
			reviewed = a.ReviewedAt.Format("2006-01-02 15:04")
		}
		resume := ""
		if a.ResumeURL != nil {
			resume = *a.ResumeURL
		}
		row := []interface{}{
			a.ID.String(),
			a.Internship.Title,
			a.Student.FullName,
			a.Student.Email,
			string(a.Status),
			a.AppliedAt.Format("2006-01-02 15:04"),
			reviewed,
			resume,
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(applicationSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if err := f.SetColWidth(applicationSheet, "A", "H", 22); err != nil {
		return nil, err
	}

	return f.WriteToBuffer()
}
