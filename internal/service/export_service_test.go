package service

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/formpilot/formpilot/internal/model"
	"github.com/formpilot/formpilot/internal/repository"
)

func TestExportSubmissions(t *testing.T) {
	db := testDB(t)
	form := createForm(t, db, &model.Form{Title: "Signup", Fields: contactFields(), Active: true})

	subs := []model.Submission{
		{
			FormID: form.ID,
			Answers: datatypes.JSONMap{
				"name": "Ada Lovelace", "email": "ada@example.com", "ticket": "vip",
			},
			SubmitterEmail: strPtr("ada@example.com"),
			SubmitterIP:    "10.0.0.1",
		},
		{
			FormID: form.ID,
			Answers: datatypes.JSONMap{
				"name": "Grace Hopper", "ticket": []any{"standard"},
			},
			SubmitterIP: "10.0.0.2",
		},
	}
	for i := range subs {
		if err := db.Create(&subs[i]).Error; err != nil {
			t.Fatalf("seeding submission: %v", err)
		}
	}

	svc := NewExportService(repository.NewFormRepository(db), repository.NewSubmissionRepository(db))
	name, buf, err := svc.ExportSubmissions(form.ID)
	if err != nil {
		t.Fatalf("ExportSubmissions: %v", err)
	}
	if name == "" {
		t.Fatalf("empty filename")
	}

	wb, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("workbook does not open: %v", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows("Submissions")
	if err != nil {
		t.Fatalf("reading sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}

	header := rows[0]
	want := []string{"Submission ID", "Submitted At", "IP", "Email", "Full name", "Email", "Ticket"}
	if len(header) != len(want) {
		t.Fatalf("header = %v, want %v", header, want)
	}
	for i := range want {
		if header[i] != want[i] {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], want[i])
		}
	}

	if rows[1][4] != "Ada Lovelace" || rows[1][6] != "vip" {
		t.Fatalf("first data row wrong: %v", rows[1])
	}
	if rows[2][6] != "standard" {
		t.Fatalf("list answer should flatten to its canonical form, got %v", rows[2])
	}
}

func TestExportUnknownForm(t *testing.T) {
	db := testDB(t)
	svc := NewExportService(repository.NewFormRepository(db), repository.NewSubmissionRepository(db))
	if _, _, err := svc.ExportSubmissions(999); err != ErrFormNotFound {
		t.Fatalf("expected ErrFormNotFound, got %v", err)
	}
}
