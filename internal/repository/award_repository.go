package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TreasureHunt-org/backend/internal/domain"
)

// awardRepository implements domain.AwardRepository using GORM
type awardRepository struct {
	db *gorm.DB
}

// NewAwardRepository creates a new award repository
func NewAwardRepository(db *gorm.DB) domain.AwardRepository {
	return &awardRepository{db: db}
}

// GrantOnce locks the user row, checks for a prior success, bumps the score
// and stores the award, all in one transaction. The partial unique index on
// award submissions turns a lost race into a duplicate-key error, which is
// reported as "not granted".
func (r *awardRepository) GrantOnce(ctx context.Context, award *domain.Submission, points int) (bool, error) {
	granted := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", award.UserID).
			First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}

		var prior int64
		if err := tx.Model(&domain.Submission{}).
			Where("challenge_id = ? AND user_id = ? AND status = ?", award.ChallengeID, award.UserID, domain.SubmissionStatusSuccess).
			Count(&prior).Error; err != nil {
			return err
		}
		if prior > 0 {
			return nil
		}

		if err := tx.Model(&domain.User{}).
			Where("id = ?", user.ID).
			UpdateColumn("score", gorm.Expr("score + ?", points)).Error; err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(award).Error; err != nil {
			return err
		}

		granted = true
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return granted, nil
}

// Reconcile rewrites the user's score as the sum of points of the GAME
// challenges they were awarded. The user row is locked for the whole
// read-and-write, so it serializes with GrantOnce.
func (r *awardRepository) Reconcile(ctx context.Context, userID uuid.UUID) (int64, int64, error) {
	var stored, recomputed int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).
			First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}
		stored = user.Score

		awarded := tx.Model(&domain.Submission{}).
			Select("challenge_id").
			Where("user_id = ? AND kind = ? AND status = ?", userID, domain.SubmissionKindAward, domain.SubmissionStatusSuccess)
		if err := tx.Model(&domain.Challenge{}).
			Select("COALESCE(SUM(points), 0)").
			Where("type = ? AND id IN (?)", domain.ChallengeTypeGame, awarded).
			Scan(&recomputed).Error; err != nil {
			return err
		}

		if stored == recomputed {
			return nil
		}
		return tx.Model(&domain.User{}).
			Where("id = ?", userID).
			UpdateColumn("score", recomputed).Error
	})
	if err != nil {
		return 0, 0, err
	}
	return stored, recomputed, nil
}
