package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/models"
)

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	details     map[string]models.EnrollmentDetail
	byInquiry   map[string]bool
	cancelled   []string
	updatedFees map[string]decimal.Decimal
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	details := make([]models.EnrollmentDetail, 0, len(m.details))
	for _, d := range m.details {
		details = append(details, d)
	}
	return details, len(details), nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if d, ok := m.details[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ExistsForInquiry(ctx context.Context, inquiryID string) (bool, error) {
	return m.byInquiry[inquiryID], nil
}

func (m *mockEnrollmentRepo) CreateFromInquiry(ctx context.Context, enrollment *models.Enrollment) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if m.byInquiry == nil {
		m.byInquiry = make(map[string]bool)
	}
	if enrollment.ID == "" {
		enrollment.ID = "generated"
	}
	m.enrollments[enrollment.ID] = *enrollment
	m.byInquiry[enrollment.InquiryID] = true
	return nil
}

func (m *mockEnrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	m.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (m *mockEnrollmentRepo) Cancel(ctx context.Context, id string) error {
	m.cancelled = append(m.cancelled, id)
	if e, ok := m.enrollments[id]; ok {
		e.Cancelled = true
		m.enrollments[id] = e
	}
	return nil
}

type mockInquiryFinder struct {
	inquiries map[string]models.Inquiry
}

func (m *mockInquiryFinder) FindByID(ctx context.Context, id string) (*models.Inquiry, error) {
	if i, ok := m.inquiries[id]; ok {
		return &i, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourseFinder struct {
	courses map[string]models.Course
}

func (m *mockCourseFinder) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type mockCustomFeeMatch struct {
	match *models.CustomStudentFee
}

func (m *mockCustomFeeMatch) FindActiveMatch(ctx context.Context, studentName, contactNo, courseID string) (*models.CustomStudentFee, error) {
	if m.match == nil {
		return nil, sql.ErrNoRows
	}
	return m.match, nil
}

func testCourse() models.Course {
	return models.Course{
		ID:             "course-1",
		Name:           "Diploma in Computer Applications",
		Code:           "DCA",
		DurationMonths: 6,
		FullFee:        decimal.RequireFromString("15000"),
		InstallmentFee: decimal.RequireFromString("16000"),
		Installment1:   decimal.RequireFromString("8000"),
		Installment2:   decimal.RequireFromString("8000"),
		IsActive:       true,
	}
}

func testInquiry() models.Inquiry {
	return models.Inquiry{
		ID:          "inq-1",
		StudentName: "Asha Patel",
		CourseID:    "course-1",
		ContactNo:   "9876543210",
		Status:      models.InquiryStatusConfirmed,
	}
}

func newEnrollmentService(repo *mockEnrollmentRepo, inquiries *mockInquiryFinder, courses *mockCourseFinder, custom *mockCustomFeeMatch) *EnrollmentService {
	return NewEnrollmentService(repo, inquiries, courses, custom, validator.New(), zap.NewNop(), 30)
}

func TestEnrollmentServiceConvertInquiryFullPlan(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc := newEnrollmentService(repo,
		&mockInquiryFinder{inquiries: map[string]models.Inquiry{"inq-1": testInquiry()}},
		&mockCourseFinder{courses: map[string]models.Course{"course-1": testCourse()}},
		&mockCustomFeeMatch{})

	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	enrollment, err := svc.ConvertInquiry(context.Background(), ConvertInquiryRequest{
		InquiryID: "inq-1",
		FeePlan:   models.FeePlanFull,
		StartDate: start,
	})
	require.NoError(t, err)
	assert.True(t, enrollment.TotalFee.Equal(decimal.RequireFromString("15000")))
	assert.Equal(t, "Asha Patel", enrollment.StudentName)
	assert.Equal(t, start.AddDate(0, 6, 0), enrollment.EndDate)
	assert.True(t, repo.byInquiry["inq-1"])
}

func TestEnrollmentServiceConvertInquiryInstallmentsPlan(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc := newEnrollmentService(repo,
		&mockInquiryFinder{inquiries: map[string]models.Inquiry{"inq-1": testInquiry()}},
		&mockCourseFinder{courses: map[string]models.Course{"course-1": testCourse()}},
		&mockCustomFeeMatch{})

	enrollment, err := svc.ConvertInquiry(context.Background(), ConvertInquiryRequest{
		InquiryID: "inq-1",
		FeePlan:   models.FeePlanInstallments,
		StartDate: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.True(t, enrollment.TotalFee.Equal(decimal.RequireFromString("16000")))
}

func TestEnrollmentServiceConvertInquiryUsesCustomFee(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	override := &models.CustomStudentFee{
		ID:            "cf-1",
		StudentName:   "Asha Patel",
		ContactNo:     "9876543210",
		CourseID:      "course-1",
		CustomFullFee: decimal.NewNullDecimal(decimal.RequireFromString("12000")),
		IsActive:      true,
	}
	svc := newEnrollmentService(repo,
		&mockInquiryFinder{inquiries: map[string]models.Inquiry{"inq-1": testInquiry()}},
		&mockCourseFinder{courses: map[string]models.Course{"course-1": testCourse()}},
		&mockCustomFeeMatch{match: override})

	enrollment, err := svc.ConvertInquiry(context.Background(), ConvertInquiryRequest{
		InquiryID: "inq-1",
		FeePlan:   models.FeePlanFull,
		StartDate: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.True(t, enrollment.TotalFee.Equal(decimal.RequireFromString("12000")))
}

func TestEnrollmentServiceConvertInquiryRejectsDuplicate(t *testing.T) {
	repo := &mockEnrollmentRepo{byInquiry: map[string]bool{"inq-1": true}}
	svc := newEnrollmentService(repo,
		&mockInquiryFinder{inquiries: map[string]models.Inquiry{"inq-1": testInquiry()}},
		&mockCourseFinder{courses: map[string]models.Course{"course-1": testCourse()}},
		&mockCustomFeeMatch{})

	_, err := svc.ConvertInquiry(context.Background(), ConvertInquiryRequest{
		InquiryID: "inq-1",
		FeePlan:   models.FeePlanFull,
		StartDate: time.Now().UTC(),
	})
	require.Error(t, err)
}

func TestEnrollmentServiceConvertInquiryRejectsCancelled(t *testing.T) {
	inquiry := testInquiry()
	inquiry.Status = models.InquiryStatusCancelled
	svc := newEnrollmentService(&mockEnrollmentRepo{},
		&mockInquiryFinder{inquiries: map[string]models.Inquiry{"inq-1": inquiry}},
		&mockCourseFinder{courses: map[string]models.Course{"course-1": testCourse()}},
		&mockCustomFeeMatch{})

	_, err := svc.ConvertInquiry(context.Background(), ConvertInquiryRequest{
		InquiryID: "inq-1",
		FeePlan:   models.FeePlanFull,
		StartDate: time.Now().UTC(),
	})
	require.Error(t, err)
}

func TestEnrollmentServiceUpdateKeepsFrozenTotal(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{"enr-1": {
		ID:          "enr-1",
		InquiryID:   "inq-1",
		StudentName: "Asha Patel",
		CourseID:    "course-1",
		ContactNo:   "9876543210",
		FeePlan:     models.FeePlanFull,
		TotalFee:    decimal.RequireFromString("15000"),
	}}}
	svc := newEnrollmentService(repo, &mockInquiryFinder{}, &mockCourseFinder{}, &mockCustomFeeMatch{})

	updated, err := svc.Update(context.Background(), "enr-1", UpdateEnrollmentRequest{
		StudentName: "Asha P",
		ContactNo:   "9876543210",
		StartDate:   time.Now().UTC(),
		EndDate:     time.Now().UTC().AddDate(0, 6, 0),
		FeePlan:     models.FeePlanInstallments,
	})
	require.NoError(t, err)
	assert.True(t, updated.TotalFee.Equal(decimal.RequireFromString("15000")))
	assert.Equal(t, models.FeePlanInstallments, updated.FeePlan)
}

func TestEnrollmentServiceGetDerivesStatus(t *testing.T) {
	start := time.Now().UTC().AddDate(0, 0, -60)
	repo := &mockEnrollmentRepo{details: map[string]models.EnrollmentDetail{"enr-1": {
		Enrollment: models.Enrollment{
			ID:        "enr-1",
			StartDate: start,
			TotalFee:  decimal.RequireFromString("15000"),
		},
		PaidAmount: decimal.RequireFromString("5000"),
	}}}
	svc := newEnrollmentService(repo, &mockInquiryFinder{}, &mockCourseFinder{}, &mockCustomFeeMatch{})

	detail, err := svc.Get(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Equal(t, "partial", detail.FeeStatus)
	assert.True(t, detail.Balance.Equal(decimal.RequireFromString("10000")))
}

func TestEnrollmentServiceListUsesThreeStateStatus(t *testing.T) {
	start := time.Now().UTC().AddDate(0, 0, -90)
	repo := &mockEnrollmentRepo{details: map[string]models.EnrollmentDetail{"enr-1": {
		Enrollment: models.Enrollment{
			ID:        "enr-1",
			StartDate: start,
			TotalFee:  decimal.RequireFromString("15000"),
		},
		PaidAmount: decimal.Zero,
	}}}
	svc := newEnrollmentService(repo, &mockInquiryFinder{}, &mockCourseFinder{}, &mockCustomFeeMatch{})

	listed, _, err := svc.List(context.Background(), models.EnrollmentFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "pending", listed[0].FeeStatus)

	// The detail surface keeps overdue detection for the same row.
	detail, err := svc.Get(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Equal(t, "overdue", detail.FeeStatus)
}

func TestEnrollmentServiceCancel(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{"enr-1": {ID: "enr-1"}}}
	svc := newEnrollmentService(repo, &mockInquiryFinder{}, &mockCourseFinder{}, &mockCustomFeeMatch{})

	require.NoError(t, svc.Cancel(context.Background(), "enr-1"))
	assert.Contains(t, repo.cancelled, "enr-1")
}
