package service

import (
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/formpilot/formpilot/config"
	"github.com/formpilot/formpilot/internal/model"
	"github.com/formpilot/formpilot/internal/repository"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Form{}, &model.Submission{}, &model.EmailBlast{}); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	cfg := &config.Config{PublicBaseURL: "http://forms.test"}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TTLHours = 1
	cfg.Blast.SendIntervalMS = 0
	return cfg
}

// fakeMailer records sends and can be told to fail.
type fakeMailer struct {
	sent []fakeMail
	fail error
}

type fakeMail struct {
	To      string
	Subject string
	Body    string
}

func (m *fakeMailer) Send(to, subject, htmlBody string, attachments []Attachment) (string, error) {
	if m.fail != nil {
		return "", m.fail
	}
	m.sent = append(m.sent, fakeMail{To: to, Subject: subject, Body: htmlBody})
	return "msg-1", nil
}

// noopSideEffects keeps submission tests focused on the write path.
type noopSideEffects struct{}

func (noopSideEffects) AfterSubmit(form *model.Form, sub *model.Submission) SideEffectReport {
	return SideEffectReport{}
}

func strPtr(s string) *string { return &s }

func createForm(t *testing.T, db *gorm.DB, form *model.Form) *model.Form {
	t.Helper()
	if form.ConstraintType == "" {
		form.ConstraintType = model.ConstraintNone
	}
	if err := db.Create(form).Error; err != nil {
		t.Fatalf("creating form: %v", err)
	}
	return form
}

func contactFields() []model.Field {
	return []model.Field{
		{ID: "name", Type: model.FieldShortText, Label: "Full name", Required: true},
		{ID: "email", Type: model.FieldEmail, Label: "Email", Required: true},
		{ID: "ticket", Type: model.FieldSelect, Label: "Ticket", Options: []string{"standard", "vip"}},
	}
}

func newSubmissionService(t *testing.T, db *gorm.DB, effects SideEffectRunner) SubmissionService {
	t.Helper()
	if effects == nil {
		effects = noopSideEffects{}
	}
	return NewSubmissionService(
		repository.NewFormRepository(db),
		repository.NewSubmissionRepository(db),
		NewResponseValidator(),
		effects,
		db,
	)
}

var errMailDown = errors.New("mail relay unavailable")
