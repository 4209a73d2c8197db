package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/models"
)

type mockCustomFeeRepo struct {
	fees        map[string]models.CustomStudentFee
	activeMatch *models.CustomStudentFee
	deactivated []string
}

func (m *mockCustomFeeRepo) List(ctx context.Context, filter models.CustomFeeFilter) ([]models.CustomStudentFee, int, error) {
	out := make([]models.CustomStudentFee, 0, len(m.fees))
	for _, f := range m.fees {
		out = append(out, f)
	}
	return out, len(out), nil
}

func (m *mockCustomFeeRepo) FindByID(ctx context.Context, id string) (*models.CustomStudentFee, error) {
	if f, ok := m.fees[id]; ok {
		return &f, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCustomFeeRepo) FindActiveMatch(ctx context.Context, studentName, contactNo, courseID string) (*models.CustomStudentFee, error) {
	if m.activeMatch == nil {
		return nil, sql.ErrNoRows
	}
	return m.activeMatch, nil
}

func (m *mockCustomFeeRepo) ExistsActive(ctx context.Context, studentName, contactNo, courseID, excludeID string) (bool, error) {
	for _, f := range m.fees {
		if !f.IsActive || f.StudentName != studentName || f.ContactNo != contactNo || f.CourseID != courseID {
			continue
		}
		if excludeID != "" && f.ID == excludeID {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (m *mockCustomFeeRepo) Create(ctx context.Context, customFee *models.CustomStudentFee) error {
	if m.fees == nil {
		m.fees = make(map[string]models.CustomStudentFee)
	}
	if customFee.ID == "" {
		customFee.ID = "generated"
	}
	m.fees[customFee.ID] = *customFee
	return nil
}

func (m *mockCustomFeeRepo) Update(ctx context.Context, customFee *models.CustomStudentFee) error {
	m.fees[customFee.ID] = *customFee
	return nil
}

func (m *mockCustomFeeRepo) Deactivate(ctx context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	if f, ok := m.fees[id]; ok {
		f.IsActive = false
		m.fees[id] = f
	}
	return nil
}

type mockResyncRepo struct {
	enrollments []models.Enrollment
	updated     map[string]decimal.Decimal
	failFor     map[string]error
}

func (m *mockResyncRepo) ListByStudentAndCourse(ctx context.Context, studentName, contactNo, courseID string) ([]models.Enrollment, error) {
	var matched []models.Enrollment
	for _, e := range m.enrollments {
		if e.StudentName == studentName && e.ContactNo == contactNo && e.CourseID == courseID {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (m *mockResyncRepo) UpdateTotalFee(ctx context.Context, id string, totalFee decimal.Decimal) error {
	if err, ok := m.failFor[id]; ok {
		return err
	}
	if m.updated == nil {
		m.updated = make(map[string]decimal.Decimal)
	}
	m.updated[id] = totalFee
	return nil
}

func newCustomFeeService(repo *mockCustomFeeRepo, courses *mockCourseFinder, resync *mockResyncRepo) *CustomFeeService {
	return NewCustomFeeService(repo, courses, resync, validator.New(), zap.NewNop())
}

func TestCustomFeeServiceCreateResyncsMatchingEnrollments(t *testing.T) {
	repo := &mockCustomFeeRepo{}
	resync := &mockResyncRepo{enrollments: []models.Enrollment{
		{ID: "enr-1", StudentName: "Asha Patel", ContactNo: "9876543210", CourseID: "course-1", FeePlan: models.FeePlanFull, TotalFee: decimal.RequireFromString("15000")},
		{ID: "enr-2", StudentName: "Ravi Kumar", ContactNo: "9000000000", CourseID: "course-1", FeePlan: models.FeePlanFull, TotalFee: decimal.RequireFromString("15000")},
	}}
	svc := newCustomFeeService(repo, &mockCourseFinder{courses: map[string]models.Course{"course-1": testCourse()}}, resync)

	customFee, report, err := svc.Create(context.Background(), CreateCustomFeeRequest{
		StudentName:   "Asha Patel",
		ContactNo:     "9876543210",
		CourseID:      "course-1",
		CustomFullFee: decimal.NewNullDecimal(decimal.RequireFromString("12000")),
		Reason:        "scholarship",
	}, "admin-1")
	require.NoError(t, err)
	assert.True(t, customFee.IsActive)
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 1, report.Updated)
	assert.Empty(t, report.Errors)

	// Only the exact identity match moves; the other student keeps its total.
	assert.True(t, resync.updated["enr-1"].Equal(decimal.RequireFromString("12000")))
	_, touched := resync.updated["enr-2"]
	assert.False(t, touched)
}

func TestCustomFeeServiceCreateRejectsDuplicateActive(t *testing.T) {
	repo := &mockCustomFeeRepo{fees: map[string]models.CustomStudentFee{"cf-1": {
		ID: "cf-1", StudentName: "Asha Patel", ContactNo: "9876543210", CourseID: "course-1", IsActive: true,
	}}}
	svc := newCustomFeeService(repo, &mockCourseFinder{courses: map[string]models.Course{"course-1": testCourse()}}, &mockResyncRepo{})

	_, _, err := svc.Create(context.Background(), CreateCustomFeeRequest{
		StudentName: "Asha Patel",
		ContactNo:   "9876543210",
		CourseID:    "course-1",
	}, "admin-1")
	require.Error(t, err)
}

func TestCustomFeeServiceCreateRejectsNegativeOverride(t *testing.T) {
	svc := newCustomFeeService(&mockCustomFeeRepo{}, &mockCourseFinder{courses: map[string]models.Course{"course-1": testCourse()}}, &mockResyncRepo{})

	_, _, err := svc.Create(context.Background(), CreateCustomFeeRequest{
		StudentName:   "Asha Patel",
		ContactNo:     "9876543210",
		CourseID:      "course-1",
		CustomFullFee: decimal.NewNullDecimal(decimal.RequireFromString("-1")),
	}, "admin-1")
	require.Error(t, err)
}

func TestCustomFeeServiceResyncSkipsCancelledAndCollectsErrors(t *testing.T) {
	repo := &mockCustomFeeRepo{}
	resync := &mockResyncRepo{
		enrollments: []models.Enrollment{
			{ID: "enr-1", StudentName: "Asha Patel", ContactNo: "9876543210", CourseID: "course-1", FeePlan: models.FeePlanFull, TotalFee: decimal.RequireFromString("15000")},
			{ID: "enr-2", StudentName: "Asha Patel", ContactNo: "9876543210", CourseID: "course-1", FeePlan: models.FeePlanFull, TotalFee: decimal.RequireFromString("15000"), Cancelled: true},
			{ID: "enr-3", StudentName: "Asha Patel", ContactNo: "9876543210", CourseID: "course-1", FeePlan: models.FeePlanInstallments, TotalFee: decimal.RequireFromString("16000")},
		},
		failFor: map[string]error{"enr-3": errors.New("boom")},
	}
	svc := newCustomFeeService(repo, &mockCourseFinder{courses: map[string]models.Course{"course-1": testCourse()}}, resync)

	_, report, err := svc.Create(context.Background(), CreateCustomFeeRequest{
		StudentName:          "Asha Patel",
		ContactNo:            "9876543210",
		CourseID:             "course-1",
		CustomFullFee:        decimal.NewNullDecimal(decimal.RequireFromString("12000")),
		CustomInstallmentFee: decimal.NewNullDecimal(decimal.RequireFromString("13000")),
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Matched)
	assert.Equal(t, 1, report.Updated)
	assert.Len(t, report.Errors, 1)
	_, cancelledTouched := resync.updated["enr-2"]
	assert.False(t, cancelledTouched)
}

func TestCustomFeeServiceCheck(t *testing.T) {
	override := &models.CustomStudentFee{ID: "cf-1", StudentName: "Asha Patel", ContactNo: "9876543210", CourseID: "course-1", IsActive: true}
	svc := newCustomFeeService(&mockCustomFeeRepo{activeMatch: override}, &mockCourseFinder{}, &mockResyncRepo{})

	check, err := svc.Check(context.Background(), "Asha Patel", "9876543210", "course-1")
	require.NoError(t, err)
	assert.True(t, check.HasCustomFee)
	assert.Equal(t, "cf-1", check.CustomFee.ID)
}

func TestCustomFeeServiceCheckNoMatch(t *testing.T) {
	svc := newCustomFeeService(&mockCustomFeeRepo{}, &mockCourseFinder{}, &mockResyncRepo{})

	check, err := svc.Check(context.Background(), "Asha Patel", "9876543210", "course-1")
	require.NoError(t, err)
	assert.False(t, check.HasCustomFee)
	assert.Nil(t, check.CustomFee)
}

func TestCustomFeeServiceDeleteKeepsFrozenTotals(t *testing.T) {
	repo := &mockCustomFeeRepo{fees: map[string]models.CustomStudentFee{"cf-1": {ID: "cf-1", StudentName: "Asha Patel", ContactNo: "9876543210", CourseID: "course-1", IsActive: true}}}
	resync := &mockResyncRepo{enrollments: []models.Enrollment{
		{ID: "enr-1", StudentName: "Asha Patel", ContactNo: "9876543210", CourseID: "course-1", FeePlan: models.FeePlanFull, TotalFee: decimal.RequireFromString("12000")},
	}}
	svc := newCustomFeeService(repo, &mockCourseFinder{}, resync)

	require.NoError(t, svc.Delete(context.Background(), "cf-1"))
	assert.Contains(t, repo.deactivated, "cf-1")
	assert.Empty(t, resync.updated)
}
