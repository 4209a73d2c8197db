package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/fees"
	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
)

type customFeeRepository interface {
	List(ctx context.Context, filter models.CustomFeeFilter) ([]models.CustomStudentFee, int, error)
	FindByID(ctx context.Context, id string) (*models.CustomStudentFee, error)
	FindActiveMatch(ctx context.Context, studentName, contactNo, courseID string) (*models.CustomStudentFee, error)
	ExistsActive(ctx context.Context, studentName, contactNo, courseID, excludeID string) (bool, error)
	Create(ctx context.Context, customFee *models.CustomStudentFee) error
	Update(ctx context.Context, customFee *models.CustomStudentFee) error
	Deactivate(ctx context.Context, id string) error
}

type customFeeCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type resyncEnrollmentRepository interface {
	ListByStudentAndCourse(ctx context.Context, studentName, contactNo, courseID string) ([]models.Enrollment, error)
	UpdateTotalFee(ctx context.Context, id string, totalFee decimal.Decimal) error
}

// CreateCustomFeeRequest holds payload for creating a fee override. Unset
// figures fall back to the course schedule.
type CreateCustomFeeRequest struct {
	StudentName          string              `json:"student_name" validate:"required"`
	ContactNo            string              `json:"contact_no" validate:"required"`
	CourseID             string              `json:"course_id" validate:"required"`
	CustomFullFee        decimal.NullDecimal `json:"custom_full_fee"`
	CustomInstallmentFee decimal.NullDecimal `json:"custom_installment_fee"`
	CustomInstallment1   decimal.NullDecimal `json:"custom_installment_1"`
	CustomInstallment2   decimal.NullDecimal `json:"custom_installment_2"`
	Reason               string              `json:"reason"`
}

// UpdateCustomFeeRequest holds payload for editing a fee override.
type UpdateCustomFeeRequest struct {
	CustomFullFee        decimal.NullDecimal `json:"custom_full_fee"`
	CustomInstallmentFee decimal.NullDecimal `json:"custom_installment_fee"`
	CustomInstallment1   decimal.NullDecimal `json:"custom_installment_1"`
	CustomInstallment2   decimal.NullDecimal `json:"custom_installment_2"`
	Reason               string              `json:"reason"`
	IsActive             bool                `json:"is_active"`
}

// CustomFeeService manages per-student fee overrides and the best-effort
// re-sync of frozen enrollment totals.
type CustomFeeService struct {
	repo        customFeeRepository
	courses     customFeeCourseRepository
	enrollments resyncEnrollmentRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCustomFeeService constructs the custom fee service.
func NewCustomFeeService(repo customFeeRepository, courses customFeeCourseRepository, enrollments resyncEnrollmentRepository, validate *validator.Validate, logger *zap.Logger) *CustomFeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomFeeService{repo: repo, courses: courses, enrollments: enrollments, validator: validate, logger: logger}
}

// List returns custom fees and pagination metadata.
func (s *CustomFeeService) List(ctx context.Context, filter models.CustomFeeFilter) ([]models.CustomStudentFee, *models.Pagination, error) {
	customFees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list custom fees")
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
	return customFees, pagination, nil
}

// Get returns a single custom fee.
func (s *CustomFeeService) Get(ctx context.Context, id string) (*models.CustomStudentFee, error) {
	customFee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "custom fee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load custom fee")
	}
	return customFee, nil
}

// Check reports whether an active override exists for the student identity
// and course. Enrollment surfaces call this before resolving fees.
func (s *CustomFeeService) Check(ctx context.Context, studentName, contactNo, courseID string) (*models.CustomFeeCheck, error) {
	if studentName == "" || contactNo == "" || courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_name, contact_no and course_id are required")
	}
	customFee, err := s.repo.FindActiveMatch(ctx, studentName, contactNo, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.CustomFeeCheck{HasCustomFee: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up custom fee")
	}
	return &models.CustomFeeCheck{HasCustomFee: true, CustomFee: customFee}, nil
}

// Create registers an override and re-syncs matching enrollments. The
// re-sync is best-effort; a partial failure does not undo the override.
func (s *CustomFeeService) Create(ctx context.Context, req CreateCustomFeeRequest, createdBy string) (*models.CustomStudentFee, *models.ResyncReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid custom fee payload")
	}
	if err := validateOverrideAmounts(req.CustomFullFee, req.CustomInstallmentFee, req.CustomInstallment1, req.CustomInstallment2); err != nil {
		return nil, nil, err
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "course does not exist")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course")
	}

	exists, err := s.repo.ExistsActive(ctx, req.StudentName, req.ContactNo, req.CourseID, "")
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing override")
	}
	if exists {
		return nil, nil, appErrors.Clone(appErrors.ErrConflict, "an active override already exists for this student and course")
	}

	customFee := &models.CustomStudentFee{
		StudentName:          req.StudentName,
		ContactNo:            req.ContactNo,
		CourseID:             req.CourseID,
		CustomFullFee:        req.CustomFullFee,
		CustomInstallmentFee: req.CustomInstallmentFee,
		CustomInstallment1:   req.CustomInstallment1,
		CustomInstallment2:   req.CustomInstallment2,
		Reason:               req.Reason,
		CreatedBy:            createdBy,
		IsActive:             true,
	}
	if err := s.repo.Create(ctx, customFee); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create custom fee")
	}

	report := s.resync(ctx, customFee, *course)
	return customFee, report, nil
}

// Update edits an override and re-syncs matching enrollments.
func (s *CustomFeeService) Update(ctx context.Context, id string, req UpdateCustomFeeRequest) (*models.CustomStudentFee, *models.ResyncReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid custom fee payload")
	}
	if err := validateOverrideAmounts(req.CustomFullFee, req.CustomInstallmentFee, req.CustomInstallment1, req.CustomInstallment2); err != nil {
		return nil, nil, err
	}

	customFee, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if req.IsActive {
		exists, err := s.repo.ExistsActive(ctx, customFee.StudentName, customFee.ContactNo, customFee.CourseID, id)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing override")
		}
		if exists {
			return nil, nil, appErrors.Clone(appErrors.ErrConflict, "another active override exists for this student and course")
		}
	}

	course, err := s.courses.FindByID(ctx, customFee.CourseID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	customFee.CustomFullFee = req.CustomFullFee
	customFee.CustomInstallmentFee = req.CustomInstallmentFee
	customFee.CustomInstallment1 = req.CustomInstallment1
	customFee.CustomInstallment2 = req.CustomInstallment2
	customFee.Reason = req.Reason
	customFee.IsActive = req.IsActive
	if err := s.repo.Update(ctx, customFee); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update custom fee")
	}

	var report *models.ResyncReport
	if customFee.IsActive {
		report = s.resync(ctx, customFee, *course)
	}
	return customFee, report, nil
}

// Delete deactivates an override. Enrollment totals frozen under it are
// left untouched.
func (s *CustomFeeService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate custom fee")
	}
	return nil
}

// resync recomputes frozen totals for every non-cancelled enrollment that
// matches the override identity. Failed rows are reported, not rolled back.
func (s *CustomFeeService) resync(ctx context.Context, customFee *models.CustomStudentFee, course models.Course) *models.ResyncReport {
	report := &models.ResyncReport{}
	enrollments, err := s.enrollments.ListByStudentAndCourse(ctx, customFee.StudentName, customFee.ContactNo, customFee.CourseID)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("list enrollments: %v", err))
		return report
	}

	effective := fees.Resolve(course, customFee)
	for _, enrollment := range enrollments {
		if enrollment.Cancelled {
			continue
		}
		report.Matched++
		totalFee := effective.TotalFor(enrollment.FeePlan)
		if totalFee.Equal(enrollment.TotalFee) {
			continue
		}
		if err := s.enrollments.UpdateTotalFee(ctx, enrollment.ID, totalFee); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("enrollment %s: %v", enrollment.ID, err))
			s.logger.Warn("fee re-sync failed for enrollment",
				zap.String("enrollment_id", enrollment.ID), zap.Error(err))
			continue
		}
		report.Updated++
	}
	return report
}

func validateOverrideAmounts(amounts ...decimal.NullDecimal) error {
	for _, a := range amounts {
		if a.Valid && a.Decimal.Sign() < 0 {
			return appErrors.Clone(appErrors.ErrValidation, "override amounts must not be negative")
		}
	}
	return nil
}
