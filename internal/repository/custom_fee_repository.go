package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-api/internal/models"
)

const customFeeColumns = `id, student_name, contact_no, course_id, custom_full_fee, custom_installment_fee, custom_installment_1, custom_installment_2, reason, created_by, is_active, created_at, updated_at`

// CustomFeeRepository handles persistence of per-student fee overrides.
type CustomFeeRepository struct {
	db *sqlx.DB
}

// NewCustomFeeRepository constructs the repository.
func NewCustomFeeRepository(db *sqlx.DB) *CustomFeeRepository {
	return &CustomFeeRepository{db: db}
}

// List returns custom fees filtered by the provided criteria.
func (r *CustomFeeRepository) List(ctx context.Context, filter models.CustomFeeFilter) ([]models.CustomStudentFee, int, error) {
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(student_name ILIKE $%d OR contact_no ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"student_name": "student_name",
		"created_at":   "created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "created_at"
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

	query := fmt.Sprintf(`SELECT %s FROM custom_student_fees%s ORDER BY %s %s LIMIT %d OFFSET %d`,
		customFeeColumns, clause, orderBy, order, size, offset)

	var customFees []models.CustomStudentFee
	if err := r.db.SelectContext(ctx, &customFees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list custom fees: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM custom_student_fees" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count custom fees: %w", err)
	}
	return customFees, total, nil
}

// FindByID returns a custom fee by its ID.
func (r *CustomFeeRepository) FindByID(ctx context.Context, id string) (*models.CustomStudentFee, error) {
	query := fmt.Sprintf(`SELECT %s FROM custom_student_fees WHERE id = $1`, customFeeColumns)
	var customFee models.CustomStudentFee
	if err := r.db.GetContext(ctx, &customFee, query, id); err != nil {
		return nil, err
	}
	return &customFee, nil
}

// FindActiveMatch returns the active override for the exact student identity
// and course. Should more than one exist, the newest wins.
func (r *CustomFeeRepository) FindActiveMatch(ctx context.Context, studentName, contactNo, courseID string) (*models.CustomStudentFee, error) {
	query := fmt.Sprintf(`SELECT %s FROM custom_student_fees
        WHERE is_active = TRUE AND student_name = $1 AND contact_no = $2 AND course_id = $3
        ORDER BY created_at DESC LIMIT 1`, customFeeColumns)
	var customFee models.CustomStudentFee
	if err := r.db.GetContext(ctx, &customFee, query, studentName, contactNo, courseID); err != nil {
		return nil, err
	}
	return &customFee, nil
}

// ExistsActive checks the single-active-override rule, optionally excluding
// one record (for updates).
func (r *CustomFeeRepository) ExistsActive(ctx context.Context, studentName, contactNo, courseID, excludeID string) (bool, error) {
	query := "SELECT 1 FROM custom_student_fees WHERE is_active = TRUE AND student_name = $1 AND contact_no = $2 AND course_id = $3"
	args := []interface{}{studentName, contactNo, courseID}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active custom fee: %w", err)
	}
	return true, nil
}

// Create persists a new custom fee record.
func (r *CustomFeeRepository) Create(ctx context.Context, customFee *models.CustomStudentFee) error {
	if customFee.ID == "" {
		customFee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if customFee.CreatedAt.IsZero() {
		customFee.CreatedAt = now
	}
	customFee.UpdatedAt = now
	const query = `INSERT INTO custom_student_fees (id, student_name, contact_no, course_id, custom_full_fee, custom_installment_fee, custom_installment_1, custom_installment_2, reason, created_by, is_active, created_at, updated_at)
        VALUES (:id, :student_name, :contact_no, :course_id, :custom_full_fee, :custom_installment_fee, :custom_installment_1, :custom_installment_2, :reason, :created_by, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, customFee); err != nil {
		return fmt.Errorf("create custom fee: %w", err)
	}
	return nil
}

// Update replaces the mutable columns of a custom fee.
func (r *CustomFeeRepository) Update(ctx context.Context, customFee *models.CustomStudentFee) error {
	customFee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE custom_student_fees SET custom_full_fee = :custom_full_fee, custom_installment_fee = :custom_installment_fee,
        custom_installment_1 = :custom_installment_1, custom_installment_2 = :custom_installment_2, reason = :reason,
        is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, customFee); err != nil {
		return fmt.Errorf("update custom fee: %w", err)
	}
	return nil
}

// Deactivate retires a custom fee. Enrollments already re-synced keep their
// snapshots; there is no automatic revert to course defaults.
func (r *CustomFeeRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE custom_student_fees SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deactivate custom fee: %w", err)
	}
	return nil
}
