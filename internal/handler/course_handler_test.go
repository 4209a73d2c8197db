package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/internal/service"
)

type fakeCourseRepo struct {
	courses map[string]*models.Course
	created *models.Course
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{courses: map[string]*models.Course{}}
}

func (f *fakeCourseRepo) List(context.Context, models.CourseFilter) ([]models.Course, int, error) {
	out := make([]models.Course, 0, len(f.courses))
	for _, c := range f.courses {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (f *fakeCourseRepo) FindByID(_ context.Context, id string) (*models.Course, error) {
	course, ok := f.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *course
	return &copied, nil
}

func (f *fakeCourseRepo) ExistsByCode(_ context.Context, code, excludeID string) (bool, error) {
	for _, c := range f.courses {
		if c.Code == code && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCourseRepo) Create(_ context.Context, course *models.Course) error {
	course.ID = "course-new"
	f.created = course
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) Update(_ context.Context, course *models.Course) error {
	if _, ok := f.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) Deactivate(_ context.Context, id string) error {
	course, ok := f.courses[id]
	if !ok {
		return sql.ErrNoRows
	}
	course.IsActive = false
	return nil
}

func newCourseHandlerForTest(repo *fakeCourseRepo) *CourseHandler {
	svc := service.NewCourseService(repo, nil, nil)
	return NewCourseHandler(svc, nil)
}

func TestCourseHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCourseHandlerForTest(newFakeCourseRepo())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCourseHandlerGetSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newFakeCourseRepo()
	repo.courses["course-1"] = &models.Course{
		ID:             "course-1",
		Name:           "Diploma in Computer Applications",
		Code:           "DCA",
		DurationMonths: 6,
		FullFee:        decimal.RequireFromString("15000"),
		IsActive:       true,
	}
	handler := newCourseHandlerForTest(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/course-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "course-1"}}

	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "DCA", envelope.Data["code"])
}

func TestCourseHandlerCreateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCourseHandlerForTest(newFakeCourseRepo())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/courses", bytes.NewBufferString(`{"name":"X"`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCourseHandlerCreateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newFakeCourseRepo()
	handler := newCourseHandlerForTest(repo)

	payload := `{"name":"Tally Prime","code":"TALLY","duration_months":3,"full_fee":"8000","installment_fee":"9000","installment_1":"4500","installment_2":"4500"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/courses", bytes.NewBufferString(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	if assert.NotNil(t, repo.created) {
		assert.Equal(t, "TALLY", repo.created.Code)
		assert.True(t, repo.created.FullFee.Equal(decimal.RequireFromString("8000")))
	}
}

func TestCourseHandlerCreateDuplicateCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newFakeCourseRepo()
	repo.courses["course-1"] = &models.Course{ID: "course-1", Code: "DCA", IsActive: true}
	handler := newCourseHandlerForTest(repo)

	payload := `{"name":"Another DCA","code":"DCA","duration_months":6}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/courses", bytes.NewBufferString(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCourseHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newFakeCourseRepo()
	repo.courses["course-1"] = &models.Course{ID: "course-1", Code: "DCA", IsActive: true}
	handler := newCourseHandlerForTest(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/courses/course-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "course-1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, repo.courses["course-1"].IsActive)
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
