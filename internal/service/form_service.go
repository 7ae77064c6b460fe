package service

import (
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/dto"
	"github.com/formpilot/formpilot/internal/model"
	"github.com/formpilot/formpilot/internal/repository"
)

type FormService interface {
	Create(userID uint, req dto.FormCreateDTO) (*dto.FormResponseDTO, error)
	Get(id uint) (*dto.FormResponseDTO, error)
	List() ([]dto.FormSummaryDTO, error)
	Update(user *model.User, id uint, req dto.FormUpdateDTO) (*dto.FormResponseDTO, error)
	Delete(user *model.User, id uint) error

	// SetDisplayed marks one form as the publicly displayed one and clears the
	// flag on every other form in the same transaction. At most one form is
	// displayed at any time.
	SetDisplayed(user *model.User, id uint) (*dto.FormResponseDTO, error)

	SetBanner(user *model.User, id uint, bannerURL string) (*dto.FormResponseDTO, error)
}

type formService struct {
	formRepo repository.FormRepository
	db       *gorm.DB
}

func NewFormService(formRepo repository.FormRepository, db *gorm.DB) FormService {
	return &formService{formRepo: formRepo, db: db}
}

func (s *formService) Create(userID uint, req dto.FormCreateDTO) (*dto.FormResponseDTO, error) {
	if violations := validateSchema(req); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	form := model.Form{
		Title:              req.Title,
		Description:        req.Description,
		Fields:             req.Fields,
		Active:             true,
		ConstraintType:     req.ConstraintType,
		ConstraintField:    req.ConstraintField,
		QRCodeEnabled:      req.QRCodeEnabled,
		EmailNotifyEnabled: req.EmailNotifyEnabled,
		ShowTerms:          req.ShowTerms,
		TermsTitle:         req.TermsTitle,
		TermsText:          req.TermsText,
		TermsLink:          req.TermsLink,
		CreatedBy:          userID,
	}
	if req.Active != nil {
		form.Active = *req.Active
	}
	if form.ConstraintType == "" {
		form.ConstraintType = model.ConstraintNone
	}

	if err := s.formRepo.Create(&form); err != nil {
		return nil, fmt.Errorf("creating form: %w", err)
	}
	return toFormResponseDTO(&form), nil
}

func (s *formService) Get(id uint) (*dto.FormResponseDTO, error) {
	form, err := s.formRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	return toFormResponseDTO(form), nil
}

func (s *formService) List() ([]dto.FormSummaryDTO, error) {
	forms, err := s.formRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("listing forms: %w", err)
	}

	summaries := make([]dto.FormSummaryDTO, 0, len(forms))
	for i := range forms {
		f := &forms[i]
		summaries = append(summaries, dto.FormSummaryDTO{
			ID:              f.ID,
			Title:           f.Title,
			Description:     f.Description,
			Active:          f.Active,
			Displayed:       f.Displayed,
			SubmissionCount: f.SubmissionCount,
			FieldCount:      len(f.Fields),
			CreatedAt:       f.CreatedAt,
		})
	}
	return summaries, nil
}

func (s *formService) Update(user *model.User, id uint, req dto.FormUpdateDTO) (*dto.FormResponseDTO, error) {
	form, err := s.ownedForm(user, id)
	if err != nil {
		return nil, err
	}

	if violations := validateSchema(req); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	form.Title = req.Title
	form.Description = req.Description
	form.Fields = req.Fields
	form.ConstraintType = req.ConstraintType
	form.ConstraintField = req.ConstraintField
	form.QRCodeEnabled = req.QRCodeEnabled
	form.EmailNotifyEnabled = req.EmailNotifyEnabled
	form.ShowTerms = req.ShowTerms
	form.TermsTitle = req.TermsTitle
	form.TermsText = req.TermsText
	form.TermsLink = req.TermsLink
	if req.Active != nil {
		form.Active = *req.Active
	}
	if form.ConstraintType == "" {
		form.ConstraintType = model.ConstraintNone
	}

	if err := s.formRepo.Update(form); err != nil {
		return nil, fmt.Errorf("updating form %d: %w", id, err)
	}
	return toFormResponseDTO(form), nil
}

// Delete soft-deletes the form and its submissions together, so no live
// submission rows outlast their form.
func (s *formService) Delete(user *model.User, id uint) error {
	if _, err := s.ownedForm(user, id); err != nil {
		return err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("form_id = ?", id).Delete(&model.Submission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Form{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("deleting form %d: %w", id, err)
	}
	return nil
}

func (s *formService) SetDisplayed(user *model.User, id uint) (*dto.FormResponseDTO, error) {
	form, err := s.ownedForm(user, id)
	if err != nil {
		return nil, err
	}
	if !form.Active {
		return nil, &ValidationError{Violations: []string{"an inactive form cannot be displayed"}}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Form{}).
			Where("displayed = ?", true).
			UpdateColumn("displayed", false).Error; err != nil {
			return err
		}
		return tx.Model(&model.Form{}).
			Where("id = ?", form.ID).
			UpdateColumn("displayed", true).Error
	})
	if err != nil {
		return nil, fmt.Errorf("switching displayed form to %d: %w", id, err)
	}

	form.Displayed = true
	return toFormResponseDTO(form), nil
}

func (s *formService) SetBanner(user *model.User, id uint, bannerURL string) (*dto.FormResponseDTO, error) {
	form, err := s.ownedForm(user, id)
	if err != nil {
		return nil, err
	}

	form.BannerURL = &bannerURL
	if err := s.formRepo.Update(form); err != nil {
		return nil, fmt.Errorf("setting banner on form %d: %w", id, err)
	}
	return toFormResponseDTO(form), nil
}

func (s *formService) ownedForm(user *model.User, id uint) (*model.Form, error) {
	form, err := s.formRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	if !user.CanManage(form) {
		return nil, ErrForbidden
	}
	return form, nil
}

// validateSchema checks a form definition before it is stored: field ids are
// unique and non-empty, types are known, option-based fields declare options,
// and the per-field constraint points at an existing field.
func validateSchema(req dto.FormCreateDTO) []string {
	var violations []string

	seen := make(map[string]bool, len(req.Fields))
	for _, f := range req.Fields {
		if f.ID == "" {
			violations = append(violations, "every field needs an id")
			continue
		}
		if seen[f.ID] {
			violations = append(violations, fmt.Sprintf("duplicate field id %q", f.ID))
		}
		seen[f.ID] = true

		if !model.KnownFieldType(f.Type) {
			violations = append(violations, fmt.Sprintf("field %q has unknown type %q", f.ID, f.Type))
		}
		if f.NeedsOptions() && len(f.Options) == 0 {
			violations = append(violations, fmt.Sprintf("field %q needs at least one option", f.ID))
		}
	}

	if req.ConstraintType != "" && !model.KnownConstraintType(req.ConstraintType) {
		violations = append(violations, fmt.Sprintf("unknown constraint type %q", req.ConstraintType))
	}
	if req.ConstraintType == model.ConstraintPerField {
		if req.ConstraintField == nil || *req.ConstraintField == "" {
			violations = append(violations, "per_field constraint needs a constraint_field")
		} else if !seen[*req.ConstraintField] {
			violations = append(violations, fmt.Sprintf("constraint_field %q is not a field of this form", *req.ConstraintField))
		}
	}

	return violations
}

func toFormResponseDTO(form *model.Form) *dto.FormResponseDTO {
	var resp dto.FormResponseDTO
	copier.Copy(&resp, form)
	resp.Fields = []model.Field(form.Fields)
	return &resp
}
