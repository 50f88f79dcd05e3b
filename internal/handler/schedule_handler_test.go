package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/campusforge/timetable-engine/internal/domain"
	"github.com/campusforge/timetable-engine/internal/scheduler"
	apperrors "github.com/campusforge/timetable-engine/pkg/errors"
)

type scheduleGeneratorMock struct {
	result *scheduler.GenerateResult
	err    error
}

func (m *scheduleGeneratorMock) Generate(ctx context.Context, batchID string) (*scheduler.GenerateResult, error) {
	return m.result, m.err
}

func TestScheduleHandlerGenerateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &scheduleGeneratorMock{
		result: &scheduler.GenerateResult{
			Options: []scheduler.Option{{
				Name: "CS3A weekly schedule",
				WeekSlots: []domain.Placement{
					{Day: "Monday", StartTime: "09:00", EndTime: "10:00", SubjectID: "math", FacultyID: "f1", ClassroomID: "r1", Type: domain.SubjectTheory},
				},
			}},
		},
	}
	handler := NewScheduleHandler(mock, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/batches/b1/schedule", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "b1"}}

	handler.Generate(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestScheduleHandlerGenerateMissingBatchID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&scheduleGeneratorMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/batches//schedule", nil)
	c.Request = req

	handler.Generate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerGeneratePropagatesEngineError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &scheduleGeneratorMock{err: apperrors.ErrUnplaceable}
	handler := NewScheduleHandler(mock, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/batches/b1/schedule", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "b1"}}

	handler.Generate(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
