package service

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/model"
	"github.com/formpilot/formpilot/internal/repository"
)

// ExportService produces an xlsx workbook with one row per submission,
// columns ordered by the form's schema.
type ExportService interface {
	ExportSubmissions(formID uint) (filename string, content *bytes.Buffer, err error)
}

type exportService struct {
	formRepo repository.FormRepository
	subRepo  repository.SubmissionRepository
}

func NewExportService(formRepo repository.FormRepository, subRepo repository.SubmissionRepository) ExportService {
	return &exportService{formRepo: formRepo, subRepo: subRepo}
}

func (s *exportService) ExportSubmissions(formID uint) (string, *bytes.Buffer, error) {
	form, err := s.formRepo.FindByID(formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrFormNotFound
		}
		return "", nil, err
	}

	subs, err := s.subRepo.FindAllByFormID(formID)
	if err != nil {
		return "", nil, fmt.Errorf("loading submissions for form %d: %w", formID, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Submissions"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Submission ID", "Submitted At", "IP", "Email"}
	for _, field := range form.Fields {
		headers = append(headers, field.Label)
	}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, sub := range subs {
		values := []any{
			sub.ID,
			sub.CreatedAt.Format("2006-01-02 15:04:05"),
			sub.SubmitterIP,
			"",
		}
		if sub.SubmitterEmail != nil {
			values[3] = *sub.SubmitterEmail
		}
		for _, field := range form.Fields {
			values = append(values, model.DecodeAnswer(sub.Answers[field.ID]).Canonical())
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", nil, fmt.Errorf("writing workbook: %w", err)
	}

	name := fmt.Sprintf("form-%d-submissions.xlsx", form.ID)
	return name, buf, nil
}
