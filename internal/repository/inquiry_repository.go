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

// InquiryRepository handles persistence of inquiries.
type InquiryRepository struct {
	db *sqlx.DB
}

// NewInquiryRepository constructs the repository.
func NewInquiryRepository(db *sqlx.DB) *InquiryRepository {
	return &InquiryRepository{db: db}
}

// List returns inquiries filtered by the provided criteria.
func (r *InquiryRepository) List(ctx context.Context, filter models.InquiryFilter) ([]models.InquiryDetail, int, error) {
	base := `FROM inquiries i LEFT JOIN courses c ON c.id = i.course_id`
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("i.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(i.student_name ILIKE $%d OR i.contact_no ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at":   "i.created_at",
		"student_name": "i.student_name",
		"status":       "i.status",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "i.created_at"
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

	query := fmt.Sprintf(`SELECT i.id, i.student_name, i.course_id, i.contact_no, i.father_contact_no, i.address, i.batch_id, i.status, i.created_at, i.updated_at,
        COALESCE(c.name, '') AS course_name, COALESCE(c.code, '') AS course_code
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var inquiries []models.InquiryDetail
	if err := r.db.SelectContext(ctx, &inquiries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list inquiries: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count inquiries: %w", err)
	}
	return inquiries, total, nil
}

// FindByID returns an inquiry by its ID.
func (r *InquiryRepository) FindByID(ctx context.Context, id string) (*models.Inquiry, error) {
	const query = `SELECT id, student_name, course_id, contact_no, father_contact_no, address, batch_id, status, created_at, updated_at FROM inquiries WHERE id = $1`
	var inquiry models.Inquiry
	if err := r.db.GetContext(ctx, &inquiry, query, id); err != nil {
		return nil, err
	}
	return &inquiry, nil
}

// Create persists a new inquiry record.
func (r *InquiryRepository) Create(ctx context.Context, inquiry *models.Inquiry) error {
	if inquiry.ID == "" {
		inquiry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if inquiry.CreatedAt.IsZero() {
		inquiry.CreatedAt = now
	}
	inquiry.UpdatedAt = now
	if inquiry.Status == "" {
		inquiry.Status = models.InquiryStatusPending
	}
	const query = `INSERT INTO inquiries (id, student_name, course_id, contact_no, father_contact_no, address, batch_id, status, created_at, updated_at)
        VALUES (:id, :student_name, :course_id, :contact_no, :father_contact_no, :address, :batch_id, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, inquiry); err != nil {
		return fmt.Errorf("create inquiry: %w", err)
	}
	return nil
}

// Update replaces the mutable columns of an inquiry.
func (r *InquiryRepository) Update(ctx context.Context, inquiry *models.Inquiry) error {
	inquiry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE inquiries SET student_name = :student_name, course_id = :course_id, contact_no = :contact_no,
        father_contact_no = :father_contact_no, address = :address, batch_id = :batch_id, status = :status,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, inquiry); err != nil {
		return fmt.Errorf("update inquiry: %w", err)
	}
	return nil
}

// UpdateStatus advances the inquiry lifecycle.
func (r *InquiryRepository) UpdateStatus(ctx context.Context, id string, status models.InquiryStatus) error {
	const query = `UPDATE inquiries SET status = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update inquiry status: %w", err)
	}
	return nil
}

// DeleteCascade removes an inquiry together with its derived enrollment and
// that enrollment's payments inside a single transaction.
func (r *InquiryRepository) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin inquiry delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE enrollment_id IN (SELECT id FROM enrollments WHERE inquiry_id = $1)`, id); err != nil {
		return fmt.Errorf("delete inquiry payments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE inquiry_id = $1`, id); err != nil {
		return fmt.Errorf("delete inquiry enrollment: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM inquiries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete inquiry: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit inquiry delete: %w", err)
	}
	return nil
}

// CountByStatus aggregates inquiry counts per status.
func (r *InquiryRepository) CountByStatus(ctx context.Context) (map[models.InquiryStatus]int, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT status, COUNT(*) FROM inquiries GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count inquiries by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.InquiryStatus]int)
	for rows.Next() {
		var status models.InquiryStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan inquiry status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inquiry status counts: %w", err)
	}
	return counts, nil
}
