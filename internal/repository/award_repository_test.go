package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TreasureHunt-org/backend/internal/domain"
)

const (
	lockUserSQL    = `SELECT \* FROM "users" WHERE id = \$1 ORDER BY "users"\."id" LIMIT .* FOR UPDATE`
	priorAwardSQL  = `SELECT count(*) FROM "submissions" WHERE challenge_id = $1 AND user_id = $2 AND status = $3`
	bumpScoreSQL   = `UPDATE "users" SET "score"=score + $1 WHERE id = $2`
	insertAwardSQL = `INSERT INTO "submissions" \("id","challenge_id","user_id",.*RETURNING "id"`
)

func newAward(userID, challengeID uuid.UUID) *domain.Submission {
	return &domain.Submission{
		ID:          uuid.New(),
		ChallengeID: challengeID,
		UserID:      userID,
		Status:      domain.SubmissionStatusSuccess,
		Kind:        domain.SubmissionKindAward,
		Time:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func userRow(id uuid.UUID, score int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "score"}).AddRow(id.String(), "hunter", score)
}

func TestGrantOnceAwardsInsideLockedTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	userID, challengeID := uuid.New(), uuid.New()
	award := newAward(userID, challengeID)

	mock.ExpectBegin()
	mock.ExpectQuery(lockUserSQL).WithArgs(userID.String(), 1).WillReturnRows(userRow(userID, 100))
	mock.ExpectQuery(exact(priorAwardSQL)).
		WithArgs(challengeID.String(), userID.String(), "SUCCESS").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(exact(bumpScoreSQL)).
		WithArgs(50, userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(insertAwardSQL).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(award.ID.String()))
	mock.ExpectCommit()

	granted, err := NewAwardRepository(db).GrantOnce(context.Background(), award, 50)
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestGrantOnceSkipsWhenAlreadySolved(t *testing.T) {
	db, mock := newMockDB(t)
	userID, challengeID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockUserSQL).WillReturnRows(userRow(userID, 150))
	mock.ExpectQuery(exact(priorAwardSQL)).
		WithArgs(challengeID.String(), userID.String(), "SUCCESS").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	granted, err := NewAwardRepository(db).GrantOnce(context.Background(), newAward(userID, challengeID), 50)
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestGrantOnceDuplicateKeyIsNotGranted(t *testing.T) {
	db, mock := newMockDB(t)
	userID, challengeID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockUserSQL).WillReturnRows(userRow(userID, 100))
	mock.ExpectQuery(exact(priorAwardSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(exact(bumpScoreSQL)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(insertAwardSQL).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_submissions_award_once"})
	mock.ExpectRollback()

	granted, err := NewAwardRepository(db).GrantOnce(context.Background(), newAward(userID, challengeID), 50)
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestGrantOnceUnknownUser(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockUserSQL).WillReturnRows(sqlmock.NewRows([]string{"id", "username", "score"}))
	mock.ExpectRollback()

	granted, err := NewAwardRepository(db).GrantOnce(context.Background(), newAward(uuid.New(), uuid.New()), 50)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.False(t, granted)
}

func TestGrantOnceStorageFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockUserSQL).WillReturnRows(userRow(userID, 100))
	mock.ExpectQuery(exact(priorAwardSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(exact(bumpScoreSQL)).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	granted, err := NewAwardRepository(db).GrantOnce(context.Background(), newAward(userID, uuid.New()), 50)
	assert.EqualError(t, err, "connection reset")
	assert.False(t, granted)
}

const recomputeSQL = `SELECT COALESCE(SUM(points), 0) FROM "challenges" WHERE type = $1 AND id IN (SELECT challenge_id FROM "submissions" WHERE user_id = $2 AND kind = $3 AND status = $4)`

func TestReconcileRewritesScoreUnderRowLock(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockUserSQL).WillReturnRows(userRow(userID, 100))
	mock.ExpectQuery(exact(recomputeSQL)).
		WithArgs("GAME", userID.String(), "AWARD", "SUCCESS").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(50))
	mock.ExpectExec(exact(`UPDATE "users" SET "score"=$1 WHERE id = $2`)).
		WithArgs(50, userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	stored, recomputed, err := NewAwardRepository(db).Reconcile(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stored)
	assert.Equal(t, int64(50), recomputed)
}

func TestReconcileInSyncDoesNotWrite(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockUserSQL).WillReturnRows(userRow(userID, 50))
	mock.ExpectQuery(exact(recomputeSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(50))
	mock.ExpectCommit()

	stored, recomputed, err := NewAwardRepository(db).Reconcile(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, stored, recomputed)
}
