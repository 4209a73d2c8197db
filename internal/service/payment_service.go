package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/fees"
	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
)

type paymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindDetailByID(ctx context.Context, id string) (*models.PaymentDetail, error)
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error)
	ListAmountsByEnrollment(ctx context.Context, enrollmentID string) ([]decimal.Decimal, error)
}

type paymentEnrollmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

// RecordPaymentRequest holds payload for appending a payment to the ledger.
type RecordPaymentRequest struct {
	EnrollmentID      string             `json:"enrollment_id" validate:"required"`
	Amount            decimal.Decimal    `json:"amount"`
	PaymentDate       time.Time          `json:"payment_date"`
	PaymentMode       models.PaymentMode `json:"payment_mode" validate:"required"`
	TransactionID     string             `json:"transaction_id"`
	InstallmentNumber *int               `json:"installment_number"`
	Notes             string             `json:"notes"`
}

// PaymentService handles the append-only payment ledger.
type PaymentService struct {
	repo        paymentRepository
	enrollments paymentEnrollmentRepository
	validator   *validator.Validate
	logger      *zap.Logger
	graceDays   int
}

// NewPaymentService constructs the payment service.
func NewPaymentService(repo paymentRepository, enrollments paymentEnrollmentRepository, validate *validator.Validate, logger *zap.Logger, graceDays int) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if graceDays <= 0 {
		graceDays = fees.DefaultGraceDays
	}
	return &PaymentService{repo: repo, enrollments: enrollments, validator: validate, logger: logger, graceDays: graceDays}
}

// List returns payments matching the filter.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, *models.Pagination, error) {
	if filter.Mode != "" && !models.ValidPaymentMode(filter.Mode) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown payment mode")
	}
	payments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return payments, pagination, nil
}

// Get returns one payment with its enrollment context.
func (s *PaymentService) Get(ctx context.Context, id string) (*models.PaymentDetail, error) {
	payment, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// Record appends a payment. Overpayment is allowed; rows are never mutated
// or removed afterwards.
func (s *PaymentService) Record(ctx context.Context, req RecordPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if req.Amount.Sign() <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment amount must be positive")
	}
	if !models.ValidPaymentMode(req.PaymentMode) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown payment mode")
	}

	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Cancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cancelled enrollment cannot take payments")
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now().UTC()
	}

	payment := &models.Payment{
		EnrollmentID:      req.EnrollmentID,
		Amount:            req.Amount,
		PaymentDate:       paymentDate,
		PaymentMode:       req.PaymentMode,
		TransactionID:     req.TransactionID,
		InstallmentNumber: req.InstallmentNumber,
		Notes:             req.Notes,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	return payment, nil
}

// Summary recomputes the derived payment aggregate for one enrollment from
// the full ledger.
func (s *PaymentService) Summary(ctx context.Context, enrollmentID string) (*fees.Summary, error) {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	amounts, err := s.repo.ListAmountsByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}
	summary := fees.Summarize(enrollment.TotalFee, amounts, enrollment.StartDate, time.Now().UTC(), fees.WithGraceDays(s.graceDays))
	return &summary, nil
}
