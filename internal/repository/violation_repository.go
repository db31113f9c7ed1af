package repository

import (
	"errors"

	"github.com/lshigami/Skillgate/internal/model"
	"gorm.io/gorm"
)

// TypeAggregate groups recorded events of one type for an attempt.
type TypeAggregate struct {
	EventType     string
	Count         int
	TotalSeverity float64
}

type ViolationRepository interface {
	AllRules() ([]model.ViolationRule, error)
	FindRuleByType(violationType string) (*model.ViolationRule, error)
	SeedRules(rules []model.ViolationRule) error

	ConfigsForTest(testID uint) ([]model.TestViolationConfig, error)
	UpsertConfig(cfg *model.TestViolationConfig) error

	CreateEvent(event *model.ViolationEvent) error
	EventsForAttempt(attemptID uint) ([]model.ViolationEvent, error)
	CountByType(attemptID uint, eventType string) (int64, error)
	AggregateByType(attemptID uint) ([]TypeAggregate, error)
}

type violationRepository struct {
	db *gorm.DB
}

func NewViolationRepository(db *gorm.DB) ViolationRepository {
	return &violationRepository{db: db}
}

func (r *violationRepository) AllRules() ([]model.ViolationRule, error) {
	var rules []model.ViolationRule
	if err := r.db.Order("violation_type").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *violationRepository) FindRuleByType(violationType string) (*model.ViolationRule, error) {
	var rule model.ViolationRule
	err := r.db.Where("violation_type = ?", violationType).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *violationRepository) SeedRules(rules []model.ViolationRule) error {
	for i := range rules {
		existing, err := r.FindRuleByType(rules[i].ViolationType)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := r.db.Create(&rules[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *violationRepository) ConfigsForTest(testID uint) ([]model.TestViolationConfig, error) {
	var configs []model.TestViolationConfig
	if err := r.db.Where("test_id = ?", testID).Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *violationRepository) UpsertConfig(cfg *model.TestViolationConfig) error {
	var existing model.TestViolationConfig
	err := r.db.Where("test_id = ? AND violation_rule_id = ?", cfg.TestID, cfg.ViolationRuleID).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.Create(cfg).Error
		}
		return err
	}
	existing.SeverityOverride = cfg.SeverityOverride
	existing.Enabled = cfg.Enabled
	if err := r.db.Save(&existing).Error; err != nil {
		return err
	}
	*cfg = existing
	return nil
}

func (r *violationRepository) CreateEvent(event *model.ViolationEvent) error {
	return r.db.Create(event).Error
}

func (r *violationRepository) EventsForAttempt(attemptID uint) ([]model.ViolationEvent, error) {
	var events []model.ViolationEvent
	if err := r.db.Where("attempt_id = ?", attemptID).Order("created_at asc, id asc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *violationRepository) CountByType(attemptID uint, eventType string) (int64, error) {
	var count int64
	err := r.db.Model(&model.ViolationEvent{}).
		Where("attempt_id = ? AND event_type = ?", attemptID, eventType).
		Count(&count).Error
	return count, err
}

func (r *violationRepository) AggregateByType(attemptID uint) ([]TypeAggregate, error) {
	var aggregates []TypeAggregate
	err := r.db.Model(&model.ViolationEvent{}).
		Select("event_type, count(*) as count, sum(severity) as total_severity").
		Where("attempt_id = ?", attemptID).
		Group("event_type").
		Order("event_type").
		Scan(&aggregates).Error
	if err != nil {
		return nil, err
	}
	return aggregates, nil
}
