package domain

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ChallengeType describes how a challenge is judged
type ChallengeType string

const (
	ChallengeTypeCoding ChallengeType = "CODING"
	ChallengeTypeBugfix ChallengeType = "BUGFIX"
	ChallengeTypeGame   ChallengeType = "GAME"
)

// IsCodeJudged reports whether solutions to this type are validated against test cases
func (t ChallengeType) IsCodeJudged() bool {
	return t == ChallengeTypeCoding || t == ChallengeTypeBugfix
}

// Hunt is the owner of a set of challenges. Hunt authoring lives outside this service;
// only the fields needed for scoring and reporting are mapped here.
type Hunt struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title     string    `json:"title" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`

	Challenges []Challenge `json:"-" gorm:"foreignKey:HuntID"`
}

// TableName specifies the table name for GORM
func (Hunt) TableName() string {
	return "hunts"
}

// Challenge is a single puzzle inside a hunt
type Challenge struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	HuntID    uuid.UUID      `json:"hunt_id" gorm:"type:uuid;not null;index"`
	Title     string         `json:"title" gorm:"not null"`
	Type      ChallengeType  `json:"type" gorm:"type:varchar(10);not null"`
	Points    int            `json:"points" gorm:"not null"`
	Languages pq.StringArray `json:"languages" gorm:"type:text[]"` // Empty means any supported language
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	// Relationships
	Hunt      Hunt       `json:"-" gorm:"foreignKey:HuntID"`
	TestCases []TestCase `json:"-" gorm:"foreignKey:ChallengeID"`
}

// TableName specifies the table name for GORM
func (Challenge) TableName() string {
	return "challenges"
}

// AllowsLanguage reports whether submissions in the given language are accepted
func (c *Challenge) AllowsLanguage(language string) bool {
	if len(c.Languages) == 0 {
		return true
	}
	for _, l := range c.Languages {
		if strings.EqualFold(l, language) {
			return true
		}
	}
	return false
}

// OrderedTestCases returns the test cases sorted by ascending order.
// The receiver's slice is left untouched.
func (c *Challenge) OrderedTestCases() []TestCase {
	out := make([]TestCase, len(c.TestCases))
	copy(out, c.TestCases)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// TestCase is an (input, expected output) pair used to judge a submission
type TestCase struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ChallengeID    uuid.UUID `json:"challenge_id" gorm:"type:uuid;not null;index"`
	Input          string    `json:"input" gorm:"type:text;not null"`
	ExpectedOutput string    `json:"expected_output" gorm:"type:text;not null"`
	Order          int       `json:"order" gorm:"column:order;not null"`
}

// TableName specifies the table name for GORM
func (TestCase) TableName() string {
	return "test_cases"
}

// ChallengeRepository defines read access to challenges.
// Challenge authoring is owned by another service.
type ChallengeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Challenge, error)
	FindByIDWithTestCases(ctx context.Context, id uuid.UUID) (*Challenge, error)
	FindByHuntID(ctx context.Context, huntID uuid.UUID) ([]Challenge, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Challenge, error)
}

// HuntRepository defines read access to hunts
type HuntRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Hunt, error)
}
