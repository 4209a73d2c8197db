package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/institute-api/internal/models"
)

// PaymentRepository handles the append-only payment ledger. There are no
// update or delete operations on purpose.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create appends a payment row.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	if payment.PaymentDate.IsZero() {
		payment.PaymentDate = now
	}
	const query = `INSERT INTO payments (id, enrollment_id, amount, payment_date, payment_mode, transaction_id, installment_number, notes, created_at)
        VALUES (:id, :enrollment_id, :amount, :payment_date, :payment_mode, :transaction_id, :installment_number, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// FindDetailByID returns a payment with enrollment context.
func (r *PaymentRepository) FindDetailByID(ctx context.Context, id string) (*models.PaymentDetail, error) {
	const query = `SELECT p.id, p.enrollment_id, p.amount, p.payment_date, p.payment_mode, p.transaction_id, p.installment_number, p.notes, p.created_at,
        COALESCE(e.student_name, '') AS student_name, COALESCE(c.name, '') AS course_name
        FROM payments p
        LEFT JOIN enrollments e ON e.id = p.enrollment_id
        LEFT JOIN courses c ON c.id = e.course_id
        WHERE p.id = $1`
	var detail models.PaymentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns payments filtered by the provided criteria.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	base := `FROM payments p
LEFT JOIN enrollments e ON e.id = p.enrollment_id
LEFT JOIN courses c ON c.id = e.course_id`
	var conditions []string
	var args []interface{}

	if filter.EnrollmentID != "" {
		conditions = append(conditions, fmt.Sprintf("p.enrollment_id = $%d", len(args)+1))
		args = append(args, filter.EnrollmentID)
	}
	if filter.Mode != "" {
		conditions = append(conditions, fmt.Sprintf("p.payment_mode = $%d", len(args)+1))
		args = append(args, filter.Mode)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("p.payment_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("p.payment_date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"payment_date": "p.payment_date",
		"amount":       "p.amount",
		"created_at":   "p.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "p.payment_date"
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

	query := fmt.Sprintf(`SELECT p.id, p.enrollment_id, p.amount, p.payment_date, p.payment_mode, p.transaction_id, p.installment_number, p.notes, p.created_at,
        COALESCE(e.student_name, '') AS student_name, COALESCE(c.name, '') AS course_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var paymentRows []models.PaymentDetail
	if err := r.db.SelectContext(ctx, &paymentRows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return paymentRows, total, nil
}

// ListAmountsByEnrollment returns the raw amounts feeding status aggregation.
func (r *PaymentRepository) ListAmountsByEnrollment(ctx context.Context, enrollmentID string) ([]decimal.Decimal, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT amount FROM payments WHERE enrollment_id = $1 ORDER BY payment_date`, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("list payment amounts: %w", err)
	}
	defer rows.Close()

	var amounts []decimal.Decimal
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return nil, fmt.Errorf("scan payment amount: %w", err)
		}
		amounts = append(amounts, amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment amounts: %w", err)
	}
	return amounts, nil
}
