package data

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TreasureHunt-org/backend/internal/domain"
)

//go:embed demo_hunt.json
var demoHuntData []byte

type demoFile struct {
	Hunt struct {
		ID    uuid.UUID `json:"id"`
		Title string    `json:"title"`
	} `json:"hunt"`
	Hunters []struct {
		ID       uuid.UUID `json:"id"`
		Username string    `json:"username"`
	} `json:"hunters"`
	Challenges []struct {
		ID        uuid.UUID            `json:"id"`
		Title     string               `json:"title"`
		Type      domain.ChallengeType `json:"type"`
		Points    int                  `json:"points"`
		Languages []string             `json:"languages"`
		TestCases []struct {
			Input          string `json:"input"`
			ExpectedOutput string `json:"expected_output"`
			Order          int    `json:"order"`
		} `json:"test_cases"`
	} `json:"challenges"`
}

// DemoData is the embedded demo hunt converted to domain entities
type DemoData struct {
	Hunt  domain.Hunt
	Users []domain.User
}

// Seeder handles database seeding operations
type Seeder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSeeder creates a new database seeder
func NewSeeder(db *gorm.DB, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:     db,
		logger: logger,
	}
}

// SeedDemoHunt inserts the demo hunt, its challenges and test cases and the demo hunters.
// Rows that already exist are left alone, so seeding can run on every start.
func (s *Seeder) SeedDemoHunt() error {
	demo, err := LoadDemoData()
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&demo.Users).Error; err != nil {
			return err
		}
		// Hunt, challenges and test cases go in through associations
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&demo.Hunt).Error
	})
	if err != nil {
		return fmt.Errorf("failed to seed demo hunt: %w", err)
	}

	s.logger.Info("Demo hunt seeded",
		zap.String("hunt_id", demo.Hunt.ID.String()),
		zap.Int("challenges", len(demo.Hunt.Challenges)),
		zap.Int("hunters", len(demo.Users)),
	)
	return nil
}

// LoadDemoData parses the embedded demo hunt
func LoadDemoData() (*DemoData, error) {
	var file demoFile
	if err := json.Unmarshal(demoHuntData, &file); err != nil {
		return nil, fmt.Errorf("failed to parse demo hunt: %w", err)
	}

	hunt := domain.Hunt{ID: file.Hunt.ID, Title: file.Hunt.Title}
	for _, c := range file.Challenges {
		challenge := domain.Challenge{
			ID:        c.ID,
			HuntID:    hunt.ID,
			Title:     c.Title,
			Type:      c.Type,
			Points:    c.Points,
			Languages: pq.StringArray(c.Languages),
		}
		for _, tc := range c.TestCases {
			challenge.TestCases = append(challenge.TestCases, domain.TestCase{
				ID:             uuid.NewSHA1(c.ID, fmt.Appendf(nil, "test-case-%d", tc.Order)),
				ChallengeID:    c.ID,
				Input:          tc.Input,
				ExpectedOutput: tc.ExpectedOutput,
				Order:          tc.Order,
			})
		}
		hunt.Challenges = append(hunt.Challenges, challenge)
	}

	users := make([]domain.User, len(file.Hunters))
	for i, h := range file.Hunters {
		users[i] = domain.User{ID: h.ID, Username: h.Username}
	}

	return &DemoData{Hunt: hunt, Users: users}, nil
}
