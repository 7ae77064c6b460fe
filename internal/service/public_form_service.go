package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/dto"
	"github.com/formpilot/formpilot/internal/model"
	"github.com/formpilot/formpilot/internal/repository"
)

// PublicFormService serves the anonymous read surface. Inactive forms and
// forms that are not displayed stay invisible here.
type PublicFormService interface {
	GetDisplayedForm() (*dto.PublicFormDTO, error)
	GetForm(id uint) (*dto.PublicFormDTO, error)
}

type publicFormService struct {
	formRepo repository.FormRepository
}

func NewPublicFormService(formRepo repository.FormRepository) PublicFormService {
	return &publicFormService{formRepo: formRepo}
}

func (s *publicFormService) GetDisplayedForm() (*dto.PublicFormDTO, error) {
	form, err := s.formRepo.FindDisplayed()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	return toPublicFormDTO(form), nil
}

func (s *publicFormService) GetForm(id uint) (*dto.PublicFormDTO, error) {
	form, err := s.formRepo.FindActiveByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	return toPublicFormDTO(form), nil
}

func toPublicFormDTO(form *model.Form) *dto.PublicFormDTO {
	return &dto.PublicFormDTO{
		ID:          form.ID,
		Title:       form.Title,
		Description: form.Description,
		Fields:      []model.Field(form.Fields),
		BannerURL:   form.BannerURL,
		ShowTerms:   form.ShowTerms,
		TermsTitle:  form.TermsTitle,
		TermsText:   form.TermsText,
		TermsLink:   form.TermsLink,
	}
}
