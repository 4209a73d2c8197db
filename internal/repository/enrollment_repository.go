package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/institute-api/internal/models"
)

const enrollmentColumns = `id, inquiry_id, student_name, course_id, contact_no, father_name, father_contact_no, student_education, student_email, student_address, start_date, end_date, fee_plan, total_fee, batch_id, cancelled, created_at, updated_at`

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments joined with course info and summed payments.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
LEFT JOIN courses c ON c.id = e.course_id
LEFT JOIN (SELECT enrollment_id, SUM(amount) AS paid FROM payments GROUP BY enrollment_id) p ON p.enrollment_id = e.id`
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.BatchID != "" {
		conditions = append(conditions, fmt.Sprintf("e.batch_id = $%d", len(args)+1))
		args = append(args, filter.BatchID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(e.student_name ILIKE $%d OR e.contact_no ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Cancelled != nil {
		conditions = append(conditions, fmt.Sprintf("e.cancelled = $%d", len(args)+1))
		args = append(args, *filter.Cancelled)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"start_date":   "e.start_date",
		"student_name": "e.student_name",
		"total_fee":    "e.total_fee",
		"created_at":   "e.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.inquiry_id, e.student_name, e.course_id, e.contact_no, e.father_name, e.father_contact_no,
        e.student_education, e.student_email, e.student_address, e.start_date, e.end_date, e.fee_plan, e.total_fee,
        e.batch_id, e.cancelled, e.created_at, e.updated_at,
        COALESCE(c.name, '') AS course_name, COALESCE(c.code, '') AS course_code, COALESCE(p.paid, 0) AS paid_amount
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE id = $1`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with course info and summed payments.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.inquiry_id, e.student_name, e.course_id, e.contact_no, e.father_name, e.father_contact_no,
        e.student_education, e.student_email, e.student_address, e.start_date, e.end_date, e.fee_plan, e.total_fee,
        e.batch_id, e.cancelled, e.created_at, e.updated_at,
        COALESCE(c.name, '') AS course_name, COALESCE(c.code, '') AS course_code, COALESCE(p.paid, 0) AS paid_amount
        FROM enrollments e
        LEFT JOIN courses c ON c.id = e.course_id
        LEFT JOIN (SELECT enrollment_id, SUM(amount) AS paid FROM payments GROUP BY enrollment_id) p ON p.enrollment_id = e.id
        WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsForInquiry checks whether the inquiry was already converted.
func (r *EnrollmentRepository) ExistsForInquiry(ctx context.Context, inquiryID string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM enrollments WHERE inquiry_id = $1 LIMIT 1`, inquiryID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check inquiry enrollment: %w", err)
	}
	return true, nil
}

// CreateFromInquiry persists the enrollment and flips the originating
// inquiry to enrolled within one transaction.
func (r *EnrollmentRepository) CreateFromInquiry(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO enrollments (id, inquiry_id, student_name, course_id, contact_no, father_name, father_contact_no,
        student_education, student_email, student_address, start_date, end_date, fee_plan, total_fee, batch_id, cancelled, created_at, updated_at)
        VALUES (:id, :inquiry_id, :student_name, :course_id, :contact_no, :father_name, :father_contact_no,
        :student_education, :student_email, :student_address, :start_date, :end_date, :fee_plan, :total_fee, :batch_id, :cancelled, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE inquiries SET status = $2, updated_at = NOW() WHERE id = $1`, enrollment.InquiryID, models.InquiryStatusEnrolled); err != nil {
		return fmt.Errorf("mark inquiry enrolled: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment create: %w", err)
	}
	return nil
}

// Update replaces the mutable student columns of an enrollment. The frozen
// total_fee is only changed through UpdateTotalFee.
func (r *EnrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrollments SET student_name = :student_name, contact_no = :contact_no, father_name = :father_name,
        father_contact_no = :father_contact_no, student_education = :student_education, student_email = :student_email,
        student_address = :student_address, start_date = :start_date, end_date = :end_date, fee_plan = :fee_plan,
        batch_id = :batch_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}

// UpdateTotalFee rewrites the frozen fee snapshot (re-sync path).
func (r *EnrollmentRepository) UpdateTotalFee(ctx context.Context, id string, totalFee decimal.Decimal) error {
	const query = `UPDATE enrollments SET total_fee = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, totalFee); err != nil {
		return fmt.Errorf("update enrollment total fee: %w", err)
	}
	return nil
}

// Cancel soft-flags an enrollment.
func (r *EnrollmentRepository) Cancel(ctx context.Context, id string) error {
	const query = `UPDATE enrollments SET cancelled = TRUE, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("cancel enrollment: %w", err)
	}
	return nil
}

// ListByStudentAndCourse returns the re-sync scope: every enrollment of one
// student identity in one course.
func (r *EnrollmentRepository) ListByStudentAndCourse(ctx context.Context, studentName, contactNo, courseID string) ([]models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE student_name = $1 AND contact_no = $2 AND course_id = $3`, enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentName, contactNo, courseID); err != nil {
		return nil, fmt.Errorf("list enrollments for resync: %w", err)
	}
	return enrollments, nil
}

// ListFeeRows returns the aggregation input for stats, exports, and
// reminders: frozen totals with summed payments for non-cancelled rows.
func (r *EnrollmentRepository) ListFeeRows(ctx context.Context) ([]models.EnrollmentFeeRow, error) {
	const query = `SELECT e.id AS enrollment_id, e.student_name, e.contact_no, COALESCE(c.name, '') AS course_name,
        e.fee_plan, e.start_date, e.total_fee, COALESCE(p.paid, 0) AS paid_amount
        FROM enrollments e
        LEFT JOIN courses c ON c.id = e.course_id
        LEFT JOIN (SELECT enrollment_id, SUM(amount) AS paid FROM payments GROUP BY enrollment_id) p ON p.enrollment_id = e.id
        WHERE e.cancelled = FALSE
        ORDER BY e.start_date`
	var rows []models.EnrollmentFeeRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list enrollment fee rows: %w", err)
	}
	return rows, nil
}

// CountActive returns the number of non-cancelled enrollments.
func (r *EnrollmentRepository) CountActive(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM enrollments WHERE cancelled = FALSE`); err != nil {
		return 0, fmt.Errorf("count active enrollments: %w", err)
	}
	return total, nil
}
