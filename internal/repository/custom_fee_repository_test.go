package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func customFeeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_name", "contact_no", "course_id",
		"custom_full_fee", "custom_installment_fee", "custom_installment_1", "custom_installment_2",
		"reason", "created_by", "is_active", "created_at", "updated_at",
	})
}

func TestCustomFeeRepositoryFindActiveMatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomFeeRepository(db)

	now := time.Now()
	rows := customFeeRows().
		AddRow("cf-1", "Asha Patel", "9876543210", "course-1", "9000", nil, nil, nil, "scholarship", "admin", true, now, now)
	mock.ExpectQuery(`SELECT .+ FROM custom_student_fees\s+WHERE is_active = TRUE AND student_name = \$1 AND contact_no = \$2 AND course_id = \$3\s+ORDER BY created_at DESC LIMIT 1`).
		WithArgs("Asha Patel", "9876543210", "course-1").
		WillReturnRows(rows)

	customFee, err := repo.FindActiveMatch(context.Background(), "Asha Patel", "9876543210", "course-1")
	require.NoError(t, err)
	require.True(t, customFee.CustomFullFee.Valid)
	require.True(t, customFee.CustomFullFee.Decimal.Equal(decimal.RequireFromString("9000")))
	require.False(t, customFee.CustomInstallmentFee.Valid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomFeeRepositoryFindActiveMatchMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomFeeRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM custom_student_fees`).
		WithArgs("Nobody", "0", "course-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveMatch(context.Background(), "Nobody", "0", "course-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomFeeRepositoryExistsActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomFeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM custom_student_fees WHERE is_active = TRUE AND student_name = $1 AND contact_no = $2 AND course_id = $3 LIMIT 1")).
		WithArgs("Asha Patel", "9876543210", "course-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsActive(context.Background(), "Asha Patel", "9876543210", "course-1", "")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomFeeRepositoryExistsActiveExcludesSelf(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomFeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM custom_student_fees WHERE is_active = TRUE AND student_name = $1 AND contact_no = $2 AND course_id = $3 AND id <> $4 LIMIT 1")).
		WithArgs("Asha Patel", "9876543210", "course-1", "cf-1").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsActive(context.Background(), "Asha Patel", "9876543210", "course-1", "cf-1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}
