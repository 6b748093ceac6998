package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TreasureHunt-org/backend/internal/domain"
)

func TestFindByIDWithTestCasesOrdersByQuotedOrderColumn(t *testing.T) {
	db, mock := newMockDB(t)
	challengeID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "challenges" WHERE id = \$1 ORDER BY "challenges"\."id" LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "type", "points"}).
			AddRow(challengeID.String(), "Count the Coins", "CODING", 30))
	mock.ExpectQuery(exact(`SELECT * FROM "test_cases" WHERE "test_cases"."challenge_id" = $1 ORDER BY "order"`)).
		WithArgs(challengeID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "challenge_id", "input", "expected_output", "order"}).
			AddRow(uuid.NewString(), challengeID.String(), "1 2 3", "6", 1).
			AddRow(uuid.NewString(), challengeID.String(), "7", "7", 2))

	challenge, err := NewChallengeRepository(db).FindByIDWithTestCases(context.Background(), challengeID)
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengeTypeCoding, challenge.Type)
	require.Len(t, challenge.TestCases, 2)
	assert.Equal(t, 1, challenge.TestCases[0].Order)
	assert.Equal(t, 2, challenge.TestCases[1].Order)
}

func TestFindChallengeNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "challenges" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewChallengeRepository(db).FindByIDWithTestCases(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrChallengeNotFound)
}

func TestFindByIDsSkipsEmptyQuery(t *testing.T) {
	db, _ := newMockDB(t)

	challenges, err := NewChallengeRepository(db).FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, challenges)
}
