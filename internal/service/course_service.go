package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Deactivate(ctx context.Context, id string) error
}

// CreateCourseRequest holds payload for creating a course.
type CreateCourseRequest struct {
	Name           string                `json:"name" validate:"required"`
	Code           string                `json:"code" validate:"required"`
	DurationMonths int                   `json:"duration_months" validate:"required,gt=0"`
	FullFee        decimal.Decimal       `json:"full_fee"`
	InstallmentFee decimal.Decimal       `json:"installment_fee"`
	Installment1   decimal.Decimal       `json:"installment_1"`
	Installment2   decimal.Decimal       `json:"installment_2"`
	FeePlans       models.FeePlanOptions `json:"fee_plans"`
	Description    string                `json:"description"`
}

// UpdateCourseRequest holds payload for updating a course.
type UpdateCourseRequest struct {
	Name           string                `json:"name" validate:"required"`
	Code           string                `json:"code" validate:"required"`
	DurationMonths int                   `json:"duration_months" validate:"required,gt=0"`
	FullFee        decimal.Decimal       `json:"full_fee"`
	InstallmentFee decimal.Decimal       `json:"installment_fee"`
	Installment1   decimal.Decimal       `json:"installment_1"`
	Installment2   decimal.Decimal       `json:"installment_2"`
	FeePlans       models.FeePlanOptions `json:"fee_plans"`
	Description    string                `json:"description"`
	IsActive       bool                  `json:"is_active"`
}

// CourseService handles the course fee schedule use-cases.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns courses and pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
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
	return courses, pagination, nil
}

// Get returns a single course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create registers a new course with its fee schedule.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if err := validateFeeAmounts(req.FullFee, req.InstallmentFee, req.Installment1, req.Installment2); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already used")
	}

	course := &models.Course{
		Name:           req.Name,
		Code:           req.Code,
		DurationMonths: req.DurationMonths,
		FullFee:        req.FullFee,
		InstallmentFee: req.InstallmentFee,
		Installment1:   req.Installment1,
		Installment2:   req.Installment2,
		FeePlans:       req.FeePlans,
		Description:    req.Description,
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Update modifies an existing course. Existing enrollments keep their frozen
// totals; only future enrollments and re-syncs see the new schedule.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if err := validateFeeAmounts(req.FullFee, req.InstallmentFee, req.Installment1, req.Installment2); err != nil {
		return nil, err
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	exists, err := s.repo.ExistsByCode(ctx, req.Code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already used")
	}

	course.Name = req.Name
	course.Code = req.Code
	course.DurationMonths = req.DurationMonths
	course.FullFee = req.FullFee
	course.InstallmentFee = req.InstallmentFee
	course.Installment1 = req.Installment1
	course.Installment2 = req.Installment2
	course.FeePlans = req.FeePlans
	course.Description = req.Description
	course.IsActive = req.IsActive
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Delete deactivates a course. Historic enrollments keep referencing it.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate course")
	}
	return nil
}

func validateFeeAmounts(amounts ...decimal.Decimal) error {
	for _, a := range amounts {
		if a.Sign() < 0 {
			return appErrors.Clone(appErrors.ErrValidation, "fee amounts must not be negative")
		}
	}
	return nil
}
