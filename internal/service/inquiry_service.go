package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
)

type inquiryRepository interface {
	List(ctx context.Context, filter models.InquiryFilter) ([]models.InquiryDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Inquiry, error)
	Create(ctx context.Context, inquiry *models.Inquiry) error
	Update(ctx context.Context, inquiry *models.Inquiry) error
	UpdateStatus(ctx context.Context, id string, status models.InquiryStatus) error
	DeleteCascade(ctx context.Context, id string) error
}

type inquiryCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CreateInquiryRequest holds payload for registering an inquiry.
type CreateInquiryRequest struct {
	StudentName     string `json:"student_name" validate:"required"`
	CourseID        string `json:"course_id" validate:"required"`
	ContactNo       string `json:"contact_no" validate:"required"`
	FatherContactNo string `json:"father_contact_no"`
	Address         string `json:"address"`
	BatchID         string `json:"batch_id"`
}

// UpdateInquiryRequest holds payload for editing an inquiry.
type UpdateInquiryRequest struct {
	StudentName     string               `json:"student_name" validate:"required"`
	CourseID        string               `json:"course_id" validate:"required"`
	ContactNo       string               `json:"contact_no" validate:"required"`
	FatherContactNo string               `json:"father_contact_no"`
	Address         string               `json:"address"`
	BatchID         string               `json:"batch_id"`
	Status          models.InquiryStatus `json:"status" validate:"required"`
}

// InquiryService handles the inquiry lifecycle.
type InquiryService struct {
	repo      inquiryRepository
	courses   inquiryCourseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInquiryService constructs the inquiry service.
func NewInquiryService(repo inquiryRepository, courses inquiryCourseRepository, validate *validator.Validate, logger *zap.Logger) *InquiryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InquiryService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// List returns inquiries and pagination metadata.
func (s *InquiryService) List(ctx context.Context, filter models.InquiryFilter) ([]models.InquiryDetail, *models.Pagination, error) {
	if filter.Status != "" && !models.ValidInquiryStatus(filter.Status) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown inquiry status")
	}
	inquiries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list inquiries")
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
	return inquiries, pagination, nil
}

// Get returns a single inquiry.
func (s *InquiryService) Get(ctx context.Context, id string) (*models.Inquiry, error) {
	inquiry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inquiry")
	}
	return inquiry, nil
}

// Create registers a new inquiry in pending status.
func (s *InquiryService) Create(ctx context.Context, req CreateInquiryRequest) (*models.Inquiry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid inquiry payload")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course")
	}

	inquiry := &models.Inquiry{
		StudentName:     req.StudentName,
		CourseID:        req.CourseID,
		ContactNo:       req.ContactNo,
		FatherContactNo: req.FatherContactNo,
		Address:         req.Address,
		BatchID:         req.BatchID,
		Status:          models.InquiryStatusPending,
	}
	if err := s.repo.Create(ctx, inquiry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create inquiry")
	}
	return inquiry, nil
}

// Update modifies an existing inquiry.
func (s *InquiryService) Update(ctx context.Context, id string, req UpdateInquiryRequest) (*models.Inquiry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid inquiry payload")
	}
	if !models.ValidInquiryStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown inquiry status")
	}
	inquiry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.CourseID != inquiry.CourseID {
		if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "course does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course")
		}
	}

	inquiry.StudentName = req.StudentName
	inquiry.CourseID = req.CourseID
	inquiry.ContactNo = req.ContactNo
	inquiry.FatherContactNo = req.FatherContactNo
	inquiry.Address = req.Address
	inquiry.BatchID = req.BatchID
	inquiry.Status = req.Status
	if err := s.repo.Update(ctx, inquiry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update inquiry")
	}
	return inquiry, nil
}

// UpdateStatus moves an inquiry to a new lifecycle status.
func (s *InquiryService) UpdateStatus(ctx context.Context, id string, status models.InquiryStatus) (*models.Inquiry, error) {
	if !models.ValidInquiryStatus(status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown inquiry status")
	}
	inquiry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update inquiry status")
	}
	inquiry.Status = status
	return inquiry, nil
}

// Delete removes an inquiry together with its enrollment and payments in a
// single transaction.
func (s *InquiryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete inquiry")
	}
	return nil
}
