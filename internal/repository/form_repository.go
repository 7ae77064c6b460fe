package repository

import (
	"github.com/formpilot/formpilot/internal/model"
	"gorm.io/gorm"
)

type FormRepository interface {
	Create(form *model.Form) error
	FindByID(id uint) (*model.Form, error)
	// FindActiveByID is the public lookup: inactive forms are invisible to
	// anonymous clients.
	FindActiveByID(id uint) (*model.Form, error)
	FindDisplayed() (*model.Form, error)
	FindAll() ([]model.Form, error)
	Update(form *model.Form) error
}

type formRepository struct {
	db *gorm.DB
}

func NewFormRepository(db *gorm.DB) FormRepository {
	return &formRepository{db: db}
}

func (r *formRepository) Create(form *model.Form) error {
	return r.db.Create(form).Error
}

func (r *formRepository) FindByID(id uint) (*model.Form, error) {
	var form model.Form
	if err := r.db.First(&form, id).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *formRepository) FindActiveByID(id uint) (*model.Form, error) {
	var form model.Form
	if err := r.db.Where("active = ?", true).First(&form, id).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *formRepository) FindDisplayed() (*model.Form, error) {
	var form model.Form
	if err := r.db.Where("displayed = ? AND active = ?", true, true).First(&form).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *formRepository) FindAll() ([]model.Form, error) {
	var forms []model.Form
	if err := r.db.Order("created_at DESC").Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

func (r *formRepository) Update(form *model.Form) error {
	return r.db.Save(form).Error
}
