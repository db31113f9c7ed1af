package repository

import (
	"errors"

	"github.com/lshigami/Skillgate/internal/model"
	"gorm.io/gorm"
)

// ErrStaleAttempt is returned when a versioned update matched no row, i.e.
// another writer advanced the attempt since it was loaded.
var ErrStaleAttempt = errors.New("attempt was modified concurrently")

type AttemptRepository interface {
	Create(attempt *model.Attempt) error
	FindByID(id uint) (*model.Attempt, error)
	FindInProgress(testID, candidateID uint) (*model.Attempt, error)
	CountByCandidate(testID, candidateID uint) (int64, error)
	FindByTest(testID uint) ([]model.Attempt, error)
	FindByCandidate(candidateID uint) ([]model.Attempt, error)
	// UpdateVersioned persists the attempt only if its version column still
	// holds the value the attempt was loaded with, then bumps it.
	UpdateVersioned(attempt *model.Attempt) error
	Update(attempt *model.Attempt) error
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(attempt *model.Attempt) error {
	return r.db.Create(attempt).Error
}

func (r *attemptRepository) FindByID(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	if err := r.db.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindInProgress(testID, candidateID uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.db.Where("test_id = ? AND candidate_id = ? AND overall_status = ?",
		testID, candidateID, model.OverallInProgress).First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) CountByCandidate(testID, candidateID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Attempt{}).
		Where("test_id = ? AND candidate_id = ?", testID, candidateID).
		Count(&count).Error
	return count, err
}

func (r *attemptRepository) FindByTest(testID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	if err := r.db.Where("test_id = ?", testID).Order("created_at desc").Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *attemptRepository) FindByCandidate(candidateID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	if err := r.db.Where("candidate_id = ?", candidateID).Order("created_at desc").Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *attemptRepository) UpdateVersioned(attempt *model.Attempt) error {
	loadedVersion := attempt.Version
	attempt.Version = loadedVersion + 1
	res := r.db.Model(&model.Attempt{}).
		Where("id = ? AND version = ?", attempt.ID, loadedVersion).
		Select("*").Omit("id", "created_at").
		Updates(attempt)
	if res.Error != nil {
		attempt.Version = loadedVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		attempt.Version = loadedVersion
		return ErrStaleAttempt
	}
	return nil
}

func (r *attemptRepository) Update(attempt *model.Attempt) error {
	return r.db.Save(attempt).Error
}
