package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TreasureHunt-org/backend/internal/domain"
)

// challengeRepository implements domain.ChallengeRepository using GORM
type challengeRepository struct {
	db *gorm.DB
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(db *gorm.DB) domain.ChallengeRepository {
	return &challengeRepository{db: db}
}

// FindByID finds a challenge by its ID without test cases
func (r *challengeRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Challenge, error) {
	var challenge domain.Challenge
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&challenge)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrChallengeNotFound
		}
		return nil, result.Error
	}
	return &challenge, nil
}

// FindByIDWithTestCases finds a challenge with its test cases in evaluation order
func (r *challengeRepository) FindByIDWithTestCases(ctx context.Context, id uuid.UUID) (*domain.Challenge, error) {
	var challenge domain.Challenge
	result := r.db.WithContext(ctx).
		Preload("TestCases", func(db *gorm.DB) *gorm.DB {
			return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}})
		}).
		Where("id = ?", id).
		First(&challenge)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrChallengeNotFound
		}
		return nil, result.Error
	}
	return &challenge, nil
}

// FindByHuntID returns all challenges of a hunt
func (r *challengeRepository) FindByHuntID(ctx context.Context, huntID uuid.UUID) ([]domain.Challenge, error) {
	var challenges []domain.Challenge
	result := r.db.WithContext(ctx).
		Where("hunt_id = ?", huntID).
		Order("created_at ASC").
		Find(&challenges)
	return challenges, result.Error
}

// FindByIDs returns the challenges with the given IDs
func (r *challengeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Challenge, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var challenges []domain.Challenge
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&challenges)
	return challenges, result.Error
}
