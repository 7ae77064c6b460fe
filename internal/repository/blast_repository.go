package repository

import (
	"github.com/formpilot/formpilot/internal/model"
	"gorm.io/gorm"
)

type BlastRepository interface {
	Create(blast *model.EmailBlast) error
	FindByID(id uint) (*model.EmailBlast, error)
	FindByStatus(status string) ([]model.EmailBlast, error)
	Update(blast *model.EmailBlast) error
}

type blastRepository struct {
	db *gorm.DB
}

func NewBlastRepository(db *gorm.DB) BlastRepository {
	return &blastRepository{db: db}
}

func (r *blastRepository) Create(blast *model.EmailBlast) error {
	return r.db.Create(blast).Error
}

func (r *blastRepository) FindByID(id uint) (*model.EmailBlast, error) {
	var blast model.EmailBlast
	if err := r.db.First(&blast, id).Error; err != nil {
		return nil, err
	}
	return &blast, nil
}

func (r *blastRepository) FindByStatus(status string) ([]model.EmailBlast, error) {
	var blasts []model.EmailBlast
	if err := r.db.Where("status = ?", status).Order("created_at ASC").Find(&blasts).Error; err != nil {
		return nil, err
	}
	return blasts, nil
}

func (r *blastRepository) Update(blast *model.EmailBlast) error {
	return r.db.Save(blast).Error
}
