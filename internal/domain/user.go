package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a hunt participant. Accounts are created by the auth service;
// this service only reads them and maintains the cumulative score.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null"`
	Score     int64     `json:"score" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Submissions []Submission `json:"-" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// UserScoreResponse compares the stored score counter with the value
// recomputed from submission history
type UserScoreResponse struct {
	UserID     uuid.UUID `json:"user_id"`
	Username   string    `json:"username"`
	Score      int64     `json:"score"`
	Recomputed int64     `json:"recomputed_score"`
	InSync     bool      `json:"in_sync"`
}
