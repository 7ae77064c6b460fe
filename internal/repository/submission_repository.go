package repository

import (
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/model"
)

type SubmissionRepository interface {
	FindByID(id uint) (*model.Submission, error)
	FindByFormID(formID uint, limit, offset int) ([]model.Submission, int64, error)
	FindAllByFormID(formID uint) ([]model.Submission, error)
	Update(sub *model.Submission) error

	// Duplicate probes for the uniqueness constraint checker. Both honor soft
	// deletes: a deleted submission no longer blocks a resubmission.
	ExistsByFormAndIP(formID uint, ip string) (bool, error)
	ExistsByFormAndConstraintValue(formID uint, value string) (bool, error)

	// DistinctEmails lists each distinct non-null submitter email of a form,
	// used as the recipient set of an email blast.
	DistinctEmails(formID uint) ([]string, error)
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) FindByID(id uint) (*model.Submission, error) {
	var sub model.Submission
	if err := r.db.First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepository) FindByFormID(formID uint, limit, offset int) ([]model.Submission, int64, error) {
	var subs []model.Submission
	var total int64

	q := r.db.Model(&model.Submission{}).Where("form_id = ?", formID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (r *submissionRepository) FindAllByFormID(formID uint) ([]model.Submission, error) {
	var subs []model.Submission
	if err := r.db.Where("form_id = ?", formID).Order("created_at ASC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *submissionRepository) Update(sub *model.Submission) error {
	return r.db.Save(sub).Error
}

func (r *submissionRepository) ExistsByFormAndIP(formID uint, ip string) (bool, error) {
	return existsByFormAndIP(r.db, formID, ip)
}

func (r *submissionRepository) ExistsByFormAndConstraintValue(formID uint, value string) (bool, error) {
	return existsByFormAndConstraintValue(r.db, formID, value)
}

func (r *submissionRepository) DistinctEmails(formID uint) ([]string, error) {
	var emails []string
	err := r.db.Model(&model.Submission{}).
		Where("form_id = ? AND submitter_email IS NOT NULL", formID).
		Distinct("submitter_email").
		Pluck("submitter_email", &emails).Error
	return emails, err
}

// The probe helpers take the *gorm.DB explicitly so the submission writer can
// re-run them inside its own transaction (see SubmissionService.Submit).

func existsByFormAndIP(db *gorm.DB, formID uint, ip string) (bool, error) {
	var n int64
	err := db.Model(&model.Submission{}).
		Where("form_id = ? AND submitter_ip = ?", formID, ip).
		Count(&n).Error
	return n > 0, err
}

// The stored side is the constraint_value column written by the submission
// writer, so both sides of the comparison are canonical strings regardless of
// the answer's JSON shape or the database in use.
func existsByFormAndConstraintValue(db *gorm.DB, formID uint, value string) (bool, error) {
	var n int64
	err := db.Model(&model.Submission{}).
		Where("form_id = ? AND constraint_value = ?", formID, value).
		Count(&n).Error
	return n > 0, err
}

// TxExistsByFormAndIP and TxExistsByFormAndConstraintValue expose the
// transaction-scoped probes to the service layer.
func TxExistsByFormAndIP(tx *gorm.DB, formID uint, ip string) (bool, error) {
	return existsByFormAndIP(tx, formID, ip)
}

func TxExistsByFormAndConstraintValue(tx *gorm.DB, formID uint, value string) (bool, error) {
	return existsByFormAndConstraintValue(tx, formID, value)
}
