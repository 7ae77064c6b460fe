package service

import (
	"errors"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/dto"
	"github.com/formpilot/formpilot/internal/model"
	"github.com/formpilot/formpilot/internal/repository"
)

func blastServiceForTest(t *testing.T, db *gorm.DB, mailer Mailer) *blastService {
	t.Helper()
	svc := NewBlastService(
		repository.NewBlastRepository(db),
		repository.NewFormRepository(db),
		repository.NewSubmissionRepository(db),
		mailer,
		testConfig(),
	)
	return svc.(*blastService)
}

func seedSubmitters(t *testing.T, db *gorm.DB, formID uint, emails ...string) {
	t.Helper()
	for i, email := range emails {
		sub := model.Submission{
			FormID:         formID,
			Answers:        datatypes.JSONMap{"email": email},
			SubmitterEmail: strPtr(email),
			SubmitterIP:    "10.0.0.1",
		}
		if err := db.Create(&sub).Error; err != nil {
			t.Fatalf("seeding submitter %d: %v", i, err)
		}
	}
}

func TestBlastSendsToDistinctSubmitters(t *testing.T) {
	db := testDB(t)
	form := createForm(t, db, &model.Form{Title: "Event", Fields: contactFields(), Active: true, CreatedBy: 1})
	seedSubmitters(t, db, form.ID, "a@example.com", "b@example.com", "a@example.com")

	mailer := &fakeMailer{}
	svc := blastServiceForTest(t, db, mailer)
	owner := &model.User{ID: 1, Role: model.RoleAdmin}

	resp, err := svc.CreateBlast(owner, form.ID, dto.BlastCreateDTO{Subject: "Update", Body: "<p>Hi</p>"})
	if err != nil {
		t.Fatalf("CreateBlast: %v", err)
	}
	if resp.Status != model.BlastPending {
		t.Fatalf("fresh blast status = %q, want pending", resp.Status)
	}

	svc.run(resp.ID)

	done, err := svc.Get(resp.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if done.Status != model.BlastCompleted {
		t.Fatalf("status = %q, want completed", done.Status)
	}
	if done.TotalRecipients != 2 || done.SentCount != 2 || done.FailedCount != 0 {
		t.Fatalf("tallies wrong: %+v", done)
	}
	if len(mailer.sent) != 2 {
		t.Fatalf("sent %d mails, want 2 (duplicate address must collapse)", len(mailer.sent))
	}
}

func TestBlastAllSendsFailing(t *testing.T) {
	db := testDB(t)
	form := createForm(t, db, &model.Form{Title: "Event", Fields: contactFields(), Active: true, CreatedBy: 1})
	seedSubmitters(t, db, form.ID, "a@example.com")

	svc := blastServiceForTest(t, db, &fakeMailer{fail: errMailDown})
	owner := &model.User{ID: 1, Role: model.RoleAdmin}

	resp, err := svc.CreateBlast(owner, form.ID, dto.BlastCreateDTO{Subject: "Update", Body: "x"})
	if err != nil {
		t.Fatalf("CreateBlast: %v", err)
	}
	svc.run(resp.ID)

	done, _ := svc.Get(resp.ID)
	if done.Status != model.BlastFailed {
		t.Fatalf("status = %q, want failed", done.Status)
	}
	if done.FailedCount != 1 || done.SentCount != 0 {
		t.Fatalf("tallies wrong: %+v", done)
	}
}

func TestBlastWithoutRecipientsCompletes(t *testing.T) {
	db := testDB(t)
	form := createForm(t, db, &model.Form{Title: "Event", Fields: contactFields(), Active: true, CreatedBy: 1})

	svc := blastServiceForTest(t, db, &fakeMailer{})
	owner := &model.User{ID: 1, Role: model.RoleAdmin}

	resp, err := svc.CreateBlast(owner, form.ID, dto.BlastCreateDTO{Subject: "Update", Body: "x"})
	if err != nil {
		t.Fatalf("CreateBlast: %v", err)
	}
	svc.run(resp.ID)

	done, _ := svc.Get(resp.ID)
	if done.Status != model.BlastCompleted || done.TotalRecipients != 0 {
		t.Fatalf("empty blast should complete immediately: %+v", done)
	}
}

func TestBlastOwnership(t *testing.T) {
	db := testDB(t)
	form := createForm(t, db, &model.Form{Title: "Event", Fields: contactFields(), Active: true, CreatedBy: 1})

	svc := blastServiceForTest(t, db, &fakeMailer{})
	stranger := &model.User{ID: 2, Role: model.RoleAdmin}

	if _, err := svc.CreateBlast(stranger, form.ID, dto.BlastCreateDTO{Subject: "s", Body: "b"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger blast should be forbidden, got %v", err)
	}
	if _, err := svc.CreateBlast(stranger, 999, dto.BlastCreateDTO{Subject: "s", Body: "b"}); !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("unknown form: got %v", err)
	}
}

func TestBlastRunIsIdempotentPerJob(t *testing.T) {
	db := testDB(t)
	form := createForm(t, db, &model.Form{Title: "Event", Fields: contactFields(), Active: true, CreatedBy: 1})
	seedSubmitters(t, db, form.ID, "a@example.com")

	mailer := &fakeMailer{}
	svc := blastServiceForTest(t, db, mailer)
	owner := &model.User{ID: 1, Role: model.RoleAdmin}

	resp, _ := svc.CreateBlast(owner, form.ID, dto.BlastCreateDTO{Subject: "s", Body: "b"})
	svc.run(resp.ID)
	svc.run(resp.ID)

	if len(mailer.sent) != 1 {
		t.Fatalf("re-running a finished blast must not resend, sent = %d", len(mailer.sent))
	}
}
