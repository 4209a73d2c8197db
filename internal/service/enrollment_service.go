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

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ExistsForInquiry(ctx context.Context, inquiryID string) (bool, error)
	CreateFromInquiry(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
	Cancel(ctx context.Context, id string) error
}

type enrollmentInquiryRepository interface {
	FindByID(ctx context.Context, id string) (*models.Inquiry, error)
}

type enrollmentCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type customFeeMatcher interface {
	FindActiveMatch(ctx context.Context, studentName, contactNo, courseID string) (*models.CustomStudentFee, error)
}

// ConvertInquiryRequest holds payload for converting an inquiry into an
// enrollment.
type ConvertInquiryRequest struct {
	InquiryID        string         `json:"inquiry_id" validate:"required"`
	FeePlan          models.FeePlan `json:"fee_plan" validate:"required"`
	StartDate        time.Time      `json:"start_date" validate:"required"`
	FatherName       string         `json:"father_name"`
	FatherContactNo  string         `json:"father_contact_no"`
	StudentEducation string         `json:"student_education"`
	StudentEmail     string         `json:"student_email" validate:"omitempty,email"`
	StudentAddress   string         `json:"student_address"`
	BatchID          string         `json:"batch_id"`
}

// UpdateEnrollmentRequest holds payload for editing enrollment details. The
// frozen total fee is deliberately absent; it only changes through re-sync.
type UpdateEnrollmentRequest struct {
	StudentName      string         `json:"student_name" validate:"required"`
	ContactNo        string         `json:"contact_no" validate:"required"`
	FatherName       string         `json:"father_name"`
	FatherContactNo  string         `json:"father_contact_no"`
	StudentEducation string         `json:"student_education"`
	StudentEmail     string         `json:"student_email" validate:"omitempty,email"`
	StudentAddress   string         `json:"student_address"`
	StartDate        time.Time      `json:"start_date" validate:"required"`
	EndDate          time.Time      `json:"end_date" validate:"required"`
	FeePlan          models.FeePlan `json:"fee_plan" validate:"required"`
	BatchID          string         `json:"batch_id"`
}

// EnrollmentService handles enrollment use-cases including the inquiry
// conversion that freezes the effective fee.
type EnrollmentService struct {
	repo       enrollmentRepository
	inquiries  enrollmentInquiryRepository
	courses    enrollmentCourseRepository
	customFees customFeeMatcher
	validator  *validator.Validate
	logger     *zap.Logger
	graceDays  int
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(repo enrollmentRepository, inquiries enrollmentInquiryRepository, courses enrollmentCourseRepository, customFees customFeeMatcher, validate *validator.Validate, logger *zap.Logger, graceDays int) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if graceDays <= 0 {
		graceDays = fees.DefaultGraceDays
	}
	return &EnrollmentService{
		repo:       repo,
		inquiries:  inquiries,
		courses:    courses,
		customFees: customFees,
		validator:  validate,
		logger:     logger,
		graceDays:  graceDays,
	}
}

// List returns enrollments with derived balance and fee status. Listing rows
// use the three-state classification: an unpaid enrollment stays pending no
// matter how old it is; overdue detection belongs to the fee surfaces.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	now := time.Now().UTC()
	for i := range enrollments {
		s.applySummary(&enrollments[i], now, fees.WithOverdue(false))
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
	return enrollments, pagination, nil
}

// Get returns one enrollment with derived balance and fee status.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	s.applySummary(detail, time.Now().UTC())
	return detail, nil
}

// ConvertInquiry turns an inquiry into an enrollment. The effective fee for
// the chosen plan is resolved against any active custom override and frozen
// onto the enrollment; the inquiry status flips to enrolled in the same
// transaction as the insert.
func (s *EnrollmentService) ConvertInquiry(ctx context.Context, req ConvertInquiryRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if !models.ValidFeePlan(req.FeePlan) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown fee plan")
	}

	inquiry, err := s.inquiries.FindByID(ctx, req.InquiryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inquiry")
	}
	if inquiry.Status == models.InquiryStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cancelled inquiry cannot be enrolled")
	}

	exists, err := s.repo.ExistsForInquiry(ctx, req.InquiryID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "inquiry is already enrolled")
	}

	course, err := s.courses.FindByID(ctx, inquiry.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "inquiry references a missing course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	totalFee, err := s.resolveTotal(ctx, inquiry.StudentName, inquiry.ContactNo, *course, req.FeePlan)
	if err != nil {
		return nil, err
	}

	batchID := req.BatchID
	if batchID == "" {
		batchID = inquiry.BatchID
	}

	enrollment := &models.Enrollment{
		InquiryID:        inquiry.ID,
		StudentName:      inquiry.StudentName,
		CourseID:         inquiry.CourseID,
		ContactNo:        inquiry.ContactNo,
		FatherName:       req.FatherName,
		FatherContactNo:  req.FatherContactNo,
		StudentEducation: req.StudentEducation,
		StudentEmail:     req.StudentEmail,
		StudentAddress:   req.StudentAddress,
		StartDate:        req.StartDate,
		EndDate:          req.StartDate.AddDate(0, course.DurationMonths, 0),
		FeePlan:          req.FeePlan,
		TotalFee:         totalFee,
		BatchID:          batchID,
	}
	if err := s.repo.CreateFromInquiry(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	return enrollment, nil
}

// Update modifies enrollment details. The frozen total fee is preserved even
// when the fee plan changes; only re-sync recomputes it.
func (s *EnrollmentService) Update(ctx context.Context, id string, req UpdateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if !models.ValidFeePlan(req.FeePlan) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown fee plan")
	}
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Cancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cancelled enrollment cannot be edited")
	}

	enrollment.StudentName = req.StudentName
	enrollment.ContactNo = req.ContactNo
	enrollment.FatherName = req.FatherName
	enrollment.FatherContactNo = req.FatherContactNo
	enrollment.StudentEducation = req.StudentEducation
	enrollment.StudentEmail = req.StudentEmail
	enrollment.StudentAddress = req.StudentAddress
	enrollment.StartDate = req.StartDate
	enrollment.EndDate = req.EndDate
	enrollment.FeePlan = req.FeePlan
	enrollment.BatchID = req.BatchID
	if err := s.repo.Update(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	return enrollment, nil
}

// Cancel marks an enrollment as cancelled. Payments stay in the ledger.
func (s *EnrollmentService) Cancel(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.repo.Cancel(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel enrollment")
	}
	return nil
}

func (s *EnrollmentService) resolveTotal(ctx context.Context, studentName, contactNo string, course models.Course, plan models.FeePlan) (decimal.Decimal, error) {
	custom, err := s.customFees.FindActiveMatch(ctx, studentName, contactNo, course.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return decimal.Decimal{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up custom fee")
	}
	effective := fees.Resolve(course, custom)
	return effective.TotalFor(plan), nil
}

func (s *EnrollmentService) applySummary(detail *models.EnrollmentDetail, now time.Time, opts ...fees.SummaryOption) {
	opts = append([]fees.SummaryOption{fees.WithGraceDays(s.graceDays)}, opts...)
	summary := fees.Summarize(detail.TotalFee, []decimal.Decimal{detail.PaidAmount}, detail.StartDate, now, opts...)
	detail.Balance = summary.Balance
	detail.FeeStatus = string(summary.Status)
}
