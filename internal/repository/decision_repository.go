package repository

import (
	"errors"

	"github.com/lshigami/Skillgate/internal/model"
	"gorm.io/gorm"
)

type DecisionRepository interface {
	Create(decision *model.DisqualificationDecision) error
	FindByID(id string) (*model.DisqualificationDecision, error)
	FindByAttempt(attemptID uint) (*model.DisqualificationDecision, error)
	FindPendingReview() ([]model.DisqualificationDecision, error)
	Update(decision *model.DisqualificationDecision) error
}

type decisionRepository struct {
	db *gorm.DB
}

func NewDecisionRepository(db *gorm.DB) DecisionRepository {
	return &decisionRepository{db: db}
}

func (r *decisionRepository) Create(decision *model.DisqualificationDecision) error {
	return r.db.Create(decision).Error
}

func (r *decisionRepository) FindByID(id string) (*model.DisqualificationDecision, error) {
	var decision model.DisqualificationDecision
	err := r.db.Where("id = ?", id).First(&decision).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &decision, nil
}

func (r *decisionRepository) FindByAttempt(attemptID uint) (*model.DisqualificationDecision, error) {
	var decision model.DisqualificationDecision
	err := r.db.Where("attempt_id = ?", attemptID).First(&decision).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &decision, nil
}

func (r *decisionRepository) FindPendingReview() ([]model.DisqualificationDecision, error) {
	var decisions []model.DisqualificationDecision
	err := r.db.Where("manual_review_needed = ? AND review_decision IS NULL", true).
		Order("created_at asc").Find(&decisions).Error
	if err != nil {
		return nil, err
	}
	return decisions, nil
}

func (r *decisionRepository) Update(decision *model.DisqualificationDecision) error {
	return r.db.Save(decision).Error
}
