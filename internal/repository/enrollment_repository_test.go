package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-api/internal/models"
)

func enrollmentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "inquiry_id", "student_name", "course_id", "contact_no", "father_name", "father_contact_no",
		"student_education", "student_email", "student_address", "start_date", "end_date",
		"fee_plan", "total_fee", "batch_id", "cancelled", "created_at", "updated_at",
	})
}

func TestEnrollmentRepositoryListByStudentAndCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := enrollmentRows().
		AddRow("enr-1", "inq-1", "Asha Patel", "course-1", "9876543210", "", "", "", "", "",
			now, now.AddDate(0, 6, 0), "full", "15000", "batch-1", false, now, now)
	mock.ExpectQuery(`SELECT .+ FROM enrollments WHERE student_name = \$1 AND contact_no = \$2 AND course_id = \$3`).
		WithArgs("Asha Patel", "9876543210", "course-1").
		WillReturnRows(rows)

	enrollments, err := repo.ListByStudentAndCourse(context.Background(), "Asha Patel", "9876543210", "course-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.True(t, enrollments[0].TotalFee.Equal(decimal.RequireFromString("15000")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateTotalFee(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET total_fee = $2, updated_at = NOW() WHERE id = $1")).
		WithArgs("enr-1", decimal.RequireFromString("9000")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateTotalFee(context.Background(), "enr-1", decimal.RequireFromString("9000"))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdatePersistsFeePlan(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(`(?s)UPDATE enrollments SET .*fee_plan = .+ WHERE id = .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now().UTC()
	enrollment := &models.Enrollment{
		ID:          "enr-1",
		StudentName: "Asha Patel",
		ContactNo:   "9876543210",
		StartDate:   now,
		EndDate:     now.AddDate(0, 6, 0),
		FeePlan:     models.FeePlanInstallments,
	}
	err := repo.Update(context.Background(), enrollment)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateFromInquiryTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO enrollments`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE inquiries SET status = $2, updated_at = NOW() WHERE id = $1")).
		WithArgs("inq-1", models.InquiryStatusEnrolled).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	now := time.Now().UTC()
	enrollment := &models.Enrollment{
		InquiryID:   "inq-1",
		StudentName: "Asha Patel",
		CourseID:    "course-1",
		ContactNo:   "9876543210",
		StartDate:   now,
		EndDate:     now.AddDate(0, 6, 0),
		FeePlan:     models.FeePlanFull,
		TotalFee:    decimal.RequireFromString("15000"),
	}
	err := repo.CreateFromInquiry(context.Background(), enrollment)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListFeeRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"enrollment_id", "student_name", "contact_no", "course_name", "fee_plan", "start_date", "total_fee", "paid_amount"}).
		AddRow("enr-1", "Asha Patel", "9876543210", "DCA", "full", now, "15000", "5000").
		AddRow("enr-2", "Ravi Kumar", "9123456780", "Tally", "installments", now, "8000", "0")
	mock.ExpectQuery(`SELECT e\.id AS enrollment_id, .+ FROM enrollments e`).
		WillReturnRows(rows)

	feeRows, err := repo.ListFeeRows(context.Background())
	require.NoError(t, err)
	require.Len(t, feeRows, 2)
	require.True(t, feeRows[0].PaidAmount.Equal(decimal.RequireFromString("5000")))
	require.True(t, feeRows[1].PaidAmount.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
