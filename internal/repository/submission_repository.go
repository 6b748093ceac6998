package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TreasureHunt-org/backend/internal/domain"
)

// likeEscaper makes LIKE wildcards in user input match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// submissionRepository implements domain.SubmissionRepository using GORM
type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *gorm.DB) domain.SubmissionRepository {
	return &submissionRepository{db: db}
}

// Create appends a new submission record
func (r *submissionRepository) Create(ctx context.Context, submission *domain.Submission) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(submission).Error
}

// FindByID finds a submission by its ID
func (r *submissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	var submission domain.Submission
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&submission)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, result.Error
	}
	return &submission, nil
}

// FindByChallengeAndUser returns the full submission history for a (challenge, user) pair, oldest first
func (r *submissionRepository) FindByChallengeAndUser(ctx context.Context, challengeID, userID uuid.UUID) ([]domain.Submission, error) {
	var submissions []domain.Submission
	result := r.db.WithContext(ctx).
		Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		Order("time ASC").
		Find(&submissions)
	return submissions, result.Error
}

// FindAwardsByUser returns every successful award granted to a user
func (r *submissionRepository) FindAwardsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Submission, error) {
	var submissions []domain.Submission
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ? AND status = ?", userID, domain.SubmissionKindAward, domain.SubmissionStatusSuccess).
		Find(&submissions)
	return submissions, result.Error
}

// List returns one page of submissions joined with hunter, challenge and hunt, newest first
func (r *submissionRepository) List(ctx context.Context, filter domain.SubmissionFilter) ([]domain.SubmissionListItem, int64, error) {
	query := r.db.WithContext(ctx).
		Table("submissions AS s").
		Joins("JOIN users u ON u.id = s.user_id").
		Joins("JOIN challenges c ON c.id = s.challenge_id").
		Joins("JOIN hunts h ON h.id = c.hunt_id")

	if filter.HuntID != nil {
		query = query.Where("h.id = ?", *filter.HuntID)
	}
	if name := strings.TrimSpace(filter.HunterName); name != "" {
		query = query.Where(`LOWER(u.username) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(name))+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []domain.SubmissionListItem
	err := query.Session(&gorm.Session{}).
		Select(`s.id AS id, u.username AS hunter_name, s.time AS submission_date,
			c.id AS challenge_id, c.title AS challenge_title, c.points AS score,
			s.status AS status, s.code AS code, h.id AS hunt_id, h.title AS hunt_name`).
		Order("s.time DESC").
		Offset(filter.Page * filter.PageSize).
		Limit(filter.PageSize).
		Scan(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
