package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TreasureHunt-org/backend/internal/domain"
)

// huntRepository implements domain.HuntRepository using GORM
type huntRepository struct {
	db *gorm.DB
}

// NewHuntRepository creates a new hunt repository
func NewHuntRepository(db *gorm.DB) domain.HuntRepository {
	return &huntRepository{db: db}
}

// FindByID finds a hunt by its ID
func (r *huntRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Hunt, error) {
	var hunt domain.Hunt
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&hunt)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrHuntNotFound
		}
		return nil, result.Error
	}
	return &hunt, nil
}
