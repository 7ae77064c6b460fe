package service

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/dto"
	"github.com/formpilot/formpilot/internal/model"
	"github.com/formpilot/formpilot/internal/repository"
)

// SubmitMeta is the ambient request metadata the transport layer supplies.
type SubmitMeta struct {
	IP        string
	UserAgent string
}

type SubmissionService interface {
	// Submit runs the whole public pipeline: structural validation against the
	// form's schema, the uniqueness constraint check, the transactional write
	// (submission insert + counter increment), and the best-effort side
	// effects whose outcome is merged into the response.
	Submit(formID uint, req dto.SubmitRequestDTO, meta SubmitMeta) (*dto.SubmitResponseDTO, error)

	List(formID uint, page, pageSize int) (*dto.SubmissionListDTO, error)
	Get(id uint) (*dto.SubmissionDTO, error)
	UpdateAnswers(id uint, req dto.SubmissionUpdateDTO) (*dto.SubmissionDTO, error)
	Delete(id uint) error
}

type submissionService struct {
	formRepo    repository.FormRepository
	subRepo     repository.SubmissionRepository
	validator   ResponseValidator
	sideEffects SideEffectRunner
	db          *gorm.DB
}

func NewSubmissionService(
	formRepo repository.FormRepository,
	subRepo repository.SubmissionRepository,
	validator ResponseValidator,
	sideEffects SideEffectRunner,
	db *gorm.DB,
) SubmissionService {
	return &submissionService{
		formRepo:    formRepo,
		subRepo:     subRepo,
		validator:   validator,
		sideEffects: sideEffects,
		db:          db,
	}
}

func (s *submissionService) Submit(formID uint, req dto.SubmitRequestDTO, meta SubmitMeta) (*dto.SubmitResponseDTO, error) {
	form, err := s.formRepo.FindActiveByID(formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("loading form %d: %w", formID, err)
	}

	if violations := s.validator.ValidateResponses(form.Fields, req.Responses); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	submitterEmail, err := extractSubmitterEmail(form, req.Responses)
	if err != nil {
		return nil, err
	}

	constraintValue, err := constraintFieldValue(form, req.Responses)
	if err != nil {
		return nil, err
	}

	// Fast-reject path. The probe is re-run inside the write transaction
	// below, right before the insert.
	if err := s.checkUnique(s.db, form, meta.IP, constraintValue); err != nil {
		return nil, err
	}

	sub := model.Submission{
		FormID:          form.ID,
		Answers:         datatypes.JSONMap(req.Responses),
		SubmitterEmail:  submitterEmail,
		SubmitterIP:     meta.IP,
		UserAgent:       meta.UserAgent,
		ConstraintValue: constraintValue,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.checkUnique(tx, form, meta.IP, constraintValue); err != nil {
			return err
		}
		if err := tx.Create(&sub).Error; err != nil {
			return fmt.Errorf("inserting submission: %w", err)
		}
		if err := incrementSubmissionCount(tx, form.ID, 1); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateSubmission) || errors.Is(err, ErrConstraintMisconfigured) {
			return nil, err
		}
		log.Error().Err(err).Uint("form_id", form.ID).Msg("Submission write transaction failed")
		return nil, err
	}

	report := s.sideEffects.AfterSubmit(form, &sub)

	resp := &dto.SubmitResponseDTO{
		Message: "Submission received",
		Submission: dto.SubmissionRefDTO{
			ID:          sub.ID,
			FormID:      sub.FormID,
			SubmittedAt: sub.CreatedAt,
		},
		QRCode:     report.QRCode,
		EmailSent:  report.EmailSent,
		EmailError: report.EmailError,
	}
	return resp, nil
}

// constraintFieldValue resolves the canonical form of the constrained field's
// answer for a per-field form, nil for any other constraint type. Absence of
// the constrained value means a corrupt client or form configuration, not a
// duplicate.
func constraintFieldValue(form *model.Form, responses map[string]any) (*string, error) {
	if form.ConstraintType != model.ConstraintPerField {
		return nil, nil
	}
	if form.ConstraintField == nil || *form.ConstraintField == "" {
		return nil, fmt.Errorf("%w: per-field constraint declared without a target field", ErrConstraintMisconfigured)
	}
	fieldID := *form.ConstraintField

	ans := model.DecodeAnswer(responses[fieldID])
	if ans.IsBlank() {
		return nil, fmt.Errorf("%w: value for constrained field %q is missing", ErrConstraintMisconfigured, fieldID)
	}

	value := ans.Canonical()
	return &value, nil
}

// checkUnique is the constraint state machine. It takes the db handle
// explicitly so the same logic serves both the pre-check and the
// in-transaction re-check.
func (s *submissionService) checkUnique(db *gorm.DB, form *model.Form, ip string, constraintValue *string) error {
	switch form.ConstraintType {
	case "", model.ConstraintNone:
		return nil

	case model.ConstraintPerIP:
		exists, err := repository.TxExistsByFormAndIP(db, form.ID, ip)
		if err != nil {
			return fmt.Errorf("per-ip duplicate probe: %w", err)
		}
		if exists {
			return ErrDuplicateSubmission
		}
		return nil

	case model.ConstraintPerField:
		if constraintValue == nil {
			return fmt.Errorf("%w: per-field constraint without a resolved value", ErrConstraintMisconfigured)
		}
		exists, err := repository.TxExistsByFormAndConstraintValue(db, form.ID, *constraintValue)
		if err != nil {
			return fmt.Errorf("per-field duplicate probe: %w", err)
		}
		if exists {
			return ErrDuplicateSubmission
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown constraint type %q", ErrConstraintMisconfigured, form.ConstraintType)
	}
}

// extractSubmitterEmail scans the schema in declared order for the first
// email-typed field carrying a value. A present but malformed value is a hard
// reject; the validator normally catches it first, so hitting this means the
// inputs were tampered with between stages.
func extractSubmitterEmail(form *model.Form, responses map[string]any) (*string, error) {
	for _, f := range form.Fields {
		if f.Type != model.FieldEmail {
			continue
		}
		ans := model.DecodeAnswer(responses[f.ID])
		if ans.IsBlank() {
			continue
		}
		if !model.ValidEmail(ans.Scalar) {
			return nil, fmt.Errorf("%w: field %q holds a malformed email address", ErrConstraintMisconfigured, f.ID)
		}
		email := ans.Scalar
		return &email, nil
	}
	return nil, nil
}

func incrementSubmissionCount(tx *gorm.DB, formID uint, delta int) error {
	res := tx.Model(&model.Form{}).
		Where("id = ?", formID).
		UpdateColumn("submission_count", gorm.Expr("submission_count + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("adjusting submission counter: %w", res.Error)
	}
	return nil
}

func (s *submissionService) List(formID uint, page, pageSize int) (*dto.SubmissionListDTO, error) {
	if _, err := s.formRepo.FindByID(formID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	subs, total, err := s.subRepo.FindByFormID(formID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("listing submissions for form %d: %w", formID, err)
	}

	items := make([]dto.SubmissionDTO, 0, len(subs))
	for i := range subs {
		items = append(items, toSubmissionDTO(&subs[i]))
	}
	return &dto.SubmissionListDTO{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *submissionService) Get(id uint) (*dto.SubmissionDTO, error) {
	sub, err := s.subRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	d := toSubmissionDTO(sub)
	return &d, nil
}

// UpdateAnswers lets an admin edit a stored submission. The replacement
// answers go through the same schema validation as a fresh submit; the
// submitter email is re-extracted so it stays consistent with the answers.
func (s *submissionService) UpdateAnswers(id uint, req dto.SubmissionUpdateDTO) (*dto.SubmissionDTO, error) {
	sub, err := s.subRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	form, err := s.formRepo.FindByID(sub.FormID)
	if err != nil {
		return nil, fmt.Errorf("loading form %d: %w", sub.FormID, err)
	}

	if violations := s.validator.ValidateResponses(form.Fields, req.Responses); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	email, err := extractSubmitterEmail(form, req.Responses)
	if err != nil {
		return nil, err
	}
	constraintValue, err := constraintFieldValue(form, req.Responses)
	if err != nil {
		return nil, err
	}

	sub.Answers = datatypes.JSONMap(req.Responses)
	sub.SubmitterEmail = email
	sub.ConstraintValue = constraintValue
	if err := s.subRepo.Update(sub); err != nil {
		return nil, fmt.Errorf("updating submission %d: %w", id, err)
	}

	d := toSubmissionDTO(sub)
	return &d, nil
}

// Delete removes one submission and decrements the owning form's counter in
// the same transaction, preserving counter == count(submissions).
func (s *submissionService) Delete(id uint) error {
	sub, err := s.subRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Submission{}, sub.ID).Error; err != nil {
			return fmt.Errorf("deleting submission %d: %w", id, err)
		}
		return incrementSubmissionCount(tx, sub.FormID, -1)
	})
}

func toSubmissionDTO(sub *model.Submission) dto.SubmissionDTO {
	return dto.SubmissionDTO{
		ID:             sub.ID,
		FormID:         sub.FormID,
		Answers:        sub.Answers,
		SubmitterEmail: sub.SubmitterEmail,
		SubmitterIP:    sub.SubmitterIP,
		UserAgent:      sub.UserAgent,
		CreatedAt:      sub.CreatedAt,
		UpdatedAt:      sub.UpdatedAt,
	}
}
