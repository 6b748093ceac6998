package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubmissionStatus is the final verdict of an attempt
type SubmissionStatus string

const (
	SubmissionStatusSuccess SubmissionStatus = "SUCCESS"
	SubmissionStatusFail    SubmissionStatus = "FAIL"
)

// SubmissionKind distinguishes judged attempts from direct point awards
type SubmissionKind string

const (
	SubmissionKindEvaluation SubmissionKind = "EVALUATION"
	SubmissionKindAward      SubmissionKind = "AWARD"
)

// Submission is an immutable record of one attempt by a user to solve a challenge.
// At most one AWARD/SUCCESS row may exist per (user, challenge); the partial
// unique index enforces it at the storage layer.
type Submission struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ChallengeID uuid.UUID        `json:"challenge_id" gorm:"type:uuid;not null;index:idx_submissions_challenge_user;uniqueIndex:idx_submissions_award_once,where:kind = 'AWARD' AND status = 'SUCCESS'"`
	UserID      uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index:idx_submissions_challenge_user;uniqueIndex:idx_submissions_award_once,where:kind = 'AWARD' AND status = 'SUCCESS'"`
	Code        string           `json:"code" gorm:"type:text"`
	Language    string           `json:"language" gorm:"type:varchar(32)"`
	Status      SubmissionStatus `json:"status" gorm:"type:varchar(10);not null"`
	Kind        SubmissionKind   `json:"kind" gorm:"type:varchar(16);not null;default:'EVALUATION'"`
	Results     datatypes.JSON   `json:"-" gorm:"type:jsonb"`
	Time        time.Time        `json:"time" gorm:"not null;index"`

	// Relationships
	User      User      `json:"-" gorm:"foreignKey:UserID"`
	Challenge Challenge `json:"-" gorm:"foreignKey:ChallengeID"`
}

// TableName specifies the table name for GORM
func (Submission) TableName() string {
	return "submissions"
}

// BeforeUpdate rejects any attempt to modify a stored submission
func (s *Submission) BeforeUpdate(tx *gorm.DB) error {
	return ErrSubmissionImmutable
}

// IsSuccess reports whether the submission solved its challenge
func (s *Submission) IsSuccess() bool {
	return s.Status == SubmissionStatusSuccess
}

// StatusFor maps an overall verdict to a submission status
func StatusFor(passed bool) SubmissionStatus {
	if passed {
		return SubmissionStatusSuccess
	}
	return SubmissionStatusFail
}

// TestCaseResults decodes the stored per-case detail. Award submissions have none.
func (s *Submission) TestCaseResults() ([]TestCaseResult, error) {
	if len(s.Results) == 0 {
		return nil, nil
	}
	var results []TestCaseResult
	if err := json.Unmarshal(s.Results, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// SubmissionRepository defines the interface for submission data access.
// Submissions are append-only, so there is no update or delete.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *Submission) error
	FindByID(ctx context.Context, id uuid.UUID) (*Submission, error)
	FindByChallengeAndUser(ctx context.Context, challengeID, userID uuid.UUID) ([]Submission, error)
	FindAwardsByUser(ctx context.Context, userID uuid.UUID) ([]Submission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]SubmissionListItem, int64, error)
}

// AwardRepository grants points and records the award atomically
type AwardRepository interface {
	// GrantOnce adds points to the user's score and stores the award submission
	// in one transaction. It returns false without changing anything when an
	// award for the same (user, challenge) already exists.
	GrantOnce(ctx context.Context, award *Submission, points int) (bool, error)
	// Reconcile rewrites the user's score from award history in one transaction
	// and returns the stored and the recomputed value.
	Reconcile(ctx context.Context, userID uuid.UUID) (stored, recomputed int64, err error)
}

// SubmissionFilter narrows the submission listing
type SubmissionFilter struct {
	HuntID     *uuid.UUID
	HunterName string
	Page       int
	PageSize   int
}

// SubmissionListItem is a denormalized row for the submission listing
type SubmissionListItem struct {
	ID             uuid.UUID        `json:"id"`
	HunterName     string           `json:"hunter_name"`
	SubmissionDate time.Time        `json:"submission_date"`
	ChallengeID    uuid.UUID        `json:"challenge_id"`
	ChallengeTitle string           `json:"challenge_title"`
	Score          int              `json:"score"`
	Status         SubmissionStatus `json:"status"`
	Code           string           `json:"code"`
	HuntID         uuid.UUID        `json:"hunt_id"`
	HuntName       string           `json:"hunt_name"`
}

// SubmissionListResponse is a page of the submission listing
type SubmissionListResponse struct {
	Success    bool                 `json:"success"`
	TotalPages int64                `json:"total_pages"`
	Data       []SubmissionListItem `json:"data"`
}

// SubmitSolutionRequest is the body of a code submission
type SubmitSolutionRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// SubmissionResponse represents a submission in API responses
type SubmissionResponse struct {
	ID          uuid.UUID        `json:"id"`
	ChallengeID uuid.UUID        `json:"challenge_id"`
	UserID      uuid.UUID        `json:"user_id"`
	Code        string           `json:"code,omitempty"`
	Language    string           `json:"language,omitempty"`
	Status      SubmissionStatus `json:"status"`
	Kind        SubmissionKind   `json:"kind"`
	Time        time.Time        `json:"time"`
	Results     []TestCaseResult `json:"test_case_results,omitempty"`
}

// ToResponse converts a Submission to a SubmissionResponse.
// Undecodable stored results are omitted rather than failing the response.
func (s *Submission) ToResponse() SubmissionResponse {
	results, _ := s.TestCaseResults()
	return SubmissionResponse{
		ID:          s.ID,
		ChallengeID: s.ChallengeID,
		UserID:      s.UserID,
		Code:        s.Code,
		Language:    s.Language,
		Status:      s.Status,
		Kind:        s.Kind,
		Time:        s.Time,
		Results:     results,
	}
}
