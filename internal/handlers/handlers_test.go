package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"planvista/internal/handlers"
	"planvista/internal/logger"
	"planvista/internal/models/record"
	"planvista/internal/models/schedule"
	"planvista/internal/models/task"
	"planvista/internal/service"
	"planvista/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(true)
	os.Exit(m.Run())
}

// withURLParam подкладывает параметр маршрута chi в контекст запроса
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func jsonBody(t *testing.T, payload any) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

// MockTaskService - мок сервиса задач
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) CreateTask(ctx context.Context, userID int64, name string) (*task.Task, error) {
	args := m.Called(ctx, userID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) Rename(ctx context.Context, taskID int64, newName string) (*task.Task, error) {
	args := m.Called(ctx, taskID, newName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, taskID int64) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

func (m *MockTaskService) GetByID(ctx context.Context, taskID int64) (*task.Task, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) ListByUser(ctx context.Context, userID int64) ([]*task.Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

var _ handlers.TaskService = (*MockTaskService)(nil)

// MockScheduleService - мок сервиса расписаний
type MockScheduleService struct {
	mock.Mock
}

func (m *MockScheduleService) CreateManual(ctx context.Context, sch *schedule.Schedule) (*schedule.Schedule, error) {
	args := m.Called(ctx, sch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedule.Schedule), args.Error(1)
}

func (m *MockScheduleService) UpdateManual(ctx context.Context, sch *schedule.Schedule) (*schedule.Schedule, error) {
	args := m.Called(ctx, sch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedule.Schedule), args.Error(1)
}

func (m *MockScheduleService) Delete(ctx context.Context, id, userID int64) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockScheduleService) GetByID(ctx context.Context, id, userID int64) (*schedule.Schedule, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedule.Schedule), args.Error(1)
}

func (m *MockScheduleService) GetAllByUser(ctx context.Context, userID int64) ([]*schedule.Schedule, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schedule.Schedule), args.Error(1)
}

func (m *MockScheduleService) GetByPeriod(ctx context.Context, userID int64, from, to time.Time) ([]*schedule.Schedule, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schedule.Schedule), args.Error(1)
}

func (m *MockScheduleService) GetManual(ctx context.Context, userID int64) ([]*schedule.Schedule, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schedule.Schedule), args.Error(1)
}

func (m *MockScheduleService) GetSynced(ctx context.Context, userID int64) ([]*schedule.Schedule, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schedule.Schedule), args.Error(1)
}

func (m *MockScheduleService) GetUpcoming(ctx context.Context, userID int64) ([]*schedule.Schedule, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schedule.Schedule), args.Error(1)
}

func (m *MockScheduleService) GetPast(ctx context.Context, userID int64) ([]*schedule.Schedule, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schedule.Schedule), args.Error(1)
}

func (m *MockScheduleService) SearchByTitle(ctx context.Context, userID int64, title string) ([]*schedule.Schedule, error) {
	args := m.Called(ctx, userID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schedule.Schedule), args.Error(1)
}

func (m *MockScheduleService) SearchByTask(ctx context.Context, userID int64, taskName string) ([]*schedule.Schedule, error) {
	args := m.Called(ctx, userID, taskName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schedule.Schedule), args.Error(1)
}

func (m *MockScheduleService) GetEstimatedTaskTime(ctx context.Context, userID int64, taskName string) (*service.TaskTimeEstimate, error) {
	args := m.Called(ctx, userID, taskName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TaskTimeEstimate), args.Error(1)
}

var _ handlers.ScheduleService = (*MockScheduleService)(nil)

// MockRecordService - мок сервиса записей времени
type MockRecordService struct {
	mock.Mock
}

func (m *MockRecordService) StartRecord(ctx context.Context, userID, taskID int64, memo string) (*record.Record, error) {
	args := m.Called(ctx, userID, taskID, memo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func (m *MockRecordService) EndRecord(ctx context.Context, recordID int64, scheduleID *int64) (*record.Record, error) {
	args := m.Called(ctx, recordID, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func (m *MockRecordService) UpdateRecord(ctx context.Context, recordID, taskID int64, start, end time.Time, memo, changeReason string) (*record.Record, error) {
	args := m.Called(ctx, recordID, taskID, start, end, memo, changeReason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func (m *MockRecordService) GetActiveRecord(ctx context.Context, userID int64) (*record.Record, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func (m *MockRecordService) GetRecordByID(ctx context.Context, recordID int64) (*record.Record, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func (m *MockRecordService) GetAllRecordsByUser(ctx context.Context, userID int64) ([]*record.Record, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*record.Record), args.Error(1)
}

func (m *MockRecordService) GetRecordsByUserAndDate(ctx context.Context, userID int64, date time.Time) ([]*record.Record, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*record.Record), args.Error(1)
}

func (m *MockRecordService) GetRecordsByUserAndDateRange(ctx context.Context, userID int64, from, to time.Time) ([]*record.Record, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*record.Record), args.Error(1)
}

func (m *MockRecordService) GetRecordByScheduleID(ctx context.Context, scheduleID int64) (*record.Record, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func (m *MockRecordService) DeleteRecord(ctx context.Context, recordID int64) error {
	args := m.Called(ctx, recordID)
	return args.Error(0)
}

var _ handlers.RecordService = (*MockRecordService)(nil)

// MockAnalysisService - мок сервиса анализа
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) GetAnalysisForUser(ctx context.Context, userID int64) (*service.AnalysisResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalysisResult), args.Error(1)
}

var _ handlers.AnalysisService = (*MockAnalysisService)(nil)

// MockSyncService - мок сервиса синхронизации
type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) SyncUser(ctx context.Context, accessToken string, userID int64) (*service.SyncResult, error) {
	args := m.Called(ctx, accessToken, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SyncResult), args.Error(1)
}

func (m *MockSyncService) Unsync(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

var _ handlers.SyncService = (*MockSyncService)(nil)

// MockSyncQueue - мок очереди воркера
type MockSyncQueue struct {
	mock.Mock
}

func (m *MockSyncQueue) Enqueue(job worker.SyncJob) bool {
	args := m.Called(job)
	return args.Bool(0)
}

var _ handlers.SyncQueue = (*MockSyncQueue)(nil)

// TestTaskHandler_CreateTask тестирует создание задачи
func TestTaskHandler_CreateTask(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		contentType    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:        "success",
			body:        map[string]any{"user_id": 1, "name": "数学"},
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, int64(1), "数学").
					Return(&task.Task{ID: 1, UserID: 1, Name: "数学"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "wrong content type",
			body:           map[string]any{"user_id": 1, "name": "数学"},
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "missing user_id",
			body:           map[string]any{"name": "数学"},
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "empty name",
			body:           map[string]any{"user_id": 1, "name": "   "},
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "duplicate name maps to conflict",
			body:        map[string]any{"user_id": 1, "name": "数学"},
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, int64(1), "数学").
					Return(nil, service.NewDuplicateTaskName("数学"))
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)
			handler := handlers.NewTaskHandler(mockService)

			req := httptest.NewRequest("POST", "/tasks", jsonBody(t, tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			handler.CreateTask(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusCreated {
				assert.Contains(t, w.Body.String(), `"task"`)
			}
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_GetTaskByID тестирует получение задачи
func TestTaskHandler_GetTaskByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("GetByID", mock.Anything, int64(5)).
			Return(&task.Task{ID: 5, UserID: 1, Name: "英語"}, nil)
		handler := handlers.NewTaskHandler(mockService)

		req := withURLParam(httptest.NewRequest("GET", "/tasks/5", nil), "id", "5")
		w := httptest.NewRecorder()

		handler.GetTaskByID(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "英語")
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("GetByID", mock.Anything, int64(99)).
			Return(nil, service.NewNotFound("задача", int64(99)))
		handler := handlers.NewTaskHandler(mockService)

		req := withURLParam(httptest.NewRequest("GET", "/tasks/99", nil), "id", "99")
		w := httptest.NewRecorder()

		handler.GetTaskByID(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		handler := handlers.NewTaskHandler(new(MockTaskService))

		req := withURLParam(httptest.NewRequest("GET", "/tasks/abc", nil), "id", "abc")
		w := httptest.NewRecorder()

		handler.GetTaskByID(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestTaskHandler_DeleteTask тестирует удаление задачи
func TestTaskHandler_DeleteTask(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("Delete", mock.Anything, int64(3)).Return(nil)
	handler := handlers.NewTaskHandler(mockService)

	req := withURLParam(httptest.NewRequest("DELETE", "/tasks/3", nil), "id", "3")
	w := httptest.NewRecorder()

	handler.DeleteTask(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

// TestScheduleHandler_CreateSchedule тестирует создание расписания
func TestScheduleHandler_CreateSchedule(t *testing.T) {
	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		mockService := new(MockScheduleService)
		mockService.On("CreateManual", mock.Anything, mock.AnythingOfType("*schedule.Schedule")).
			Return(&schedule.Schedule{
				ID:        1,
				UserID:    1,
				Title:     "会議",
				StartTime: start,
				EndTime:   start.Add(time.Hour),
				TaskName:  "その他",
			}, nil)
		handler := handlers.NewScheduleHandler(mockService)

		body := map[string]any{
			"user_id":    1,
			"title":      "会議",
			"start_time": start.Format(time.RFC3339),
			"end_time":   start.Add(time.Hour).Format(time.RFC3339),
		}
		req := httptest.NewRequest("POST", "/schedules", jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.CreateSchedule(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"is_editable":true`)
		mockService.AssertExpectations(t)
	})

	t.Run("validation error maps to 400", func(t *testing.T) {
		mockService := new(MockScheduleService)
		mockService.On("CreateManual", mock.Anything, mock.AnythingOfType("*schedule.Schedule")).
			Return(nil, service.NewValidationError("title", "не может быть пустым"))
		handler := handlers.NewScheduleHandler(mockService)

		body := map[string]any{
			"user_id":    1,
			"start_time": start.Format(time.RFC3339),
			"end_time":   start.Add(time.Hour).Format(time.RFC3339),
		}
		req := httptest.NewRequest("POST", "/schedules", jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.CreateSchedule(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestScheduleHandler_GetSchedules тестирует выбор выборки по query-параметрам
func TestScheduleHandler_GetSchedules(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		url            string
		setupMock      func(*MockScheduleService)
		expectedStatus int
	}{
		{
			name: "period query",
			url:  "/schedules?user_id=1&from=" + from.Format(time.RFC3339) + "&to=" + to.Format(time.RFC3339),
			setupMock: func(m *MockScheduleService) {
				m.On("GetByPeriod", mock.Anything, int64(1), from, to).
					Return([]*schedule.Schedule{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "title search",
			url:  "/schedules?user_id=1&title=会議",
			setupMock: func(m *MockScheduleService) {
				m.On("SearchByTitle", mock.Anything, int64(1), "会議").
					Return([]*schedule.Schedule{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "manual filter",
			url:  "/schedules?user_id=1&filter=manual",
			setupMock: func(m *MockScheduleService) {
				m.On("GetManual", mock.Anything, int64(1)).
					Return([]*schedule.Schedule{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown filter",
			url:            "/schedules?user_id=1&filter=bogus",
			setupMock:      func(m *MockScheduleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "no filters returns all",
			url:  "/schedules?user_id=1",
			setupMock: func(m *MockScheduleService) {
				m.On("GetAllByUser", mock.Anything, int64(1)).
					Return([]*schedule.Schedule{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing user_id",
			url:            "/schedules",
			setupMock:      func(m *MockScheduleService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockScheduleService)
			tt.setupMock(mockService)
			handler := handlers.NewScheduleHandler(mockService)

			req := httptest.NewRequest("GET", tt.url, nil)
			w := httptest.NewRecorder()

			handler.GetSchedules(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

// TestScheduleHandler_UpdateSchedule - синхронизированное расписание даёт 403
func TestScheduleHandler_UpdateSchedule(t *testing.T) {
	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	mockService := new(MockScheduleService)
	mockService.On("UpdateManual", mock.Anything, mock.AnythingOfType("*schedule.Schedule")).
		Return(nil, service.NewSyncedReadonly(7))
	handler := handlers.NewScheduleHandler(mockService)

	body := map[string]any{
		"user_id":    1,
		"title":      "会議（更新）",
		"start_time": start.Format(time.RFC3339),
		"end_time":   start.Add(time.Hour).Format(time.RFC3339),
	}
	req := httptest.NewRequest("PUT", "/schedules/7", jsonBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	req = withURLParam(req, "id", "7")
	w := httptest.NewRecorder()

	handler.UpdateSchedule(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

// TestScheduleHandler_DeleteSchedule тестирует идемпотентное удаление
func TestScheduleHandler_DeleteSchedule(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		mockService := new(MockScheduleService)
		mockService.On("Delete", mock.Anything, int64(7), int64(1)).Return(true, nil)
		handler := handlers.NewScheduleHandler(mockService)

		req := withURLParam(httptest.NewRequest("DELETE", "/schedules/7?user_id=1", nil), "id", "7")
		w := httptest.NewRecorder()

		handler.DeleteSchedule(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"deleted":true`)
	})

	t.Run("already gone is not an error", func(t *testing.T) {
		mockService := new(MockScheduleService)
		mockService.On("Delete", mock.Anything, int64(7), int64(1)).Return(false, nil)
		handler := handlers.NewScheduleHandler(mockService)

		req := withURLParam(httptest.NewRequest("DELETE", "/schedules/7?user_id=1", nil), "id", "7")
		w := httptest.NewRecorder()

		handler.DeleteSchedule(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"deleted":false`)
	})

	t.Run("synced schedule maps to 403", func(t *testing.T) {
		mockService := new(MockScheduleService)
		mockService.On("Delete", mock.Anything, int64(7), int64(1)).
			Return(false, service.NewSyncedReadonly(7))
		handler := handlers.NewScheduleHandler(mockService)

		req := withURLParam(httptest.NewRequest("DELETE", "/schedules/7?user_id=1", nil), "id", "7")
		w := httptest.NewRecorder()

		handler.DeleteSchedule(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

// TestScheduleHandler_GetEstimatedTaskTime тестирует оценку времени задачи
func TestScheduleHandler_GetEstimatedTaskTime(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockService := new(MockScheduleService)
		mockService.On("GetEstimatedTaskTime", mock.Anything, int64(1), "数学").
			Return(&service.TaskTimeEstimate{EstimatedTime: "01:30", SampleCount: 3}, nil)
		handler := handlers.NewScheduleHandler(mockService)

		req := httptest.NewRequest("GET", "/schedules/estimate?user_id=1&task_name=数学", nil)
		w := httptest.NewRecorder()

		handler.GetEstimatedTaskTime(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "01:30")
		assert.Contains(t, w.Body.String(), `"sampleCount":3`)
	})

	t.Run("missing task_name", func(t *testing.T) {
		handler := handlers.NewScheduleHandler(new(MockScheduleService))

		req := httptest.NewRequest("GET", "/schedules/estimate?user_id=1", nil)
		w := httptest.NewRecorder()

		handler.GetEstimatedTaskTime(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestRecordHandler_StartRecord тестирует запуск записи
func TestRecordHandler_StartRecord(t *testing.T) {
	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		mockService := new(MockRecordService)
		mockService.On("StartRecord", mock.Anything, int64(1), int64(2), "第3章").
			Return(&record.Record{ID: 1, UserID: 1, TaskID: 2, TaskName: "数学", StartTime: start, Memo: "第3章"}, nil)
		handler := handlers.NewRecordHandler(mockService)

		body := map[string]any{"user_id": 1, "task_id": 2, "memo": "第3章"}
		req := httptest.NewRequest("POST", "/records/start", jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.StartRecord(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"is_active":true`)
	})

	t.Run("active session maps to 409", func(t *testing.T) {
		mockService := new(MockRecordService)
		mockService.On("StartRecord", mock.Anything, int64(1), int64(2), "").
			Return(nil, service.NewSessionActive(1, 5))
		handler := handlers.NewRecordHandler(mockService)

		body := map[string]any{"user_id": 1, "task_id": 2}
		req := httptest.NewRequest("POST", "/records/start", jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.StartRecord(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("missing task_id", func(t *testing.T) {
		handler := handlers.NewRecordHandler(new(MockRecordService))

		body := map[string]any{"user_id": 1}
		req := httptest.NewRequest("POST", "/records/start", jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.StartRecord(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestRecordHandler_EndRecord тестирует завершение записи
func TestRecordHandler_EndRecord(t *testing.T) {
	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)
	scheduleID := int64(7)

	mockService := new(MockRecordService)
	mockService.On("EndRecord", mock.Anything, int64(1), &scheduleID).
		Return(&record.Record{ID: 1, UserID: 1, TaskID: 2, TaskName: "数学",
			ScheduleID: &scheduleID, StartTime: start, EndTime: &end}, nil)
	handler := handlers.NewRecordHandler(mockService)

	body := map[string]any{"schedule_id": 7}
	req := httptest.NewRequest("POST", "/records/1/end", jsonBody(t, body))
	req = withURLParam(req, "id", "1")
	w := httptest.NewRecorder()

	handler.EndRecord(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_active":false`)
	mockService.AssertExpectations(t)
}

// TestRecordHandler_GetActiveRecord - отсутствие активной записи это не ошибка
func TestRecordHandler_GetActiveRecord(t *testing.T) {
	t.Run("no active record returns null", func(t *testing.T) {
		mockService := new(MockRecordService)
		mockService.On("GetActiveRecord", mock.Anything, int64(1)).Return(nil, nil)
		handler := handlers.NewRecordHandler(mockService)

		req := httptest.NewRequest("GET", "/records/active?user_id=1", nil)
		w := httptest.NewRecorder()

		handler.GetActiveRecord(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"record":null`)
	})

	t.Run("active record returned", func(t *testing.T) {
		start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
		mockService := new(MockRecordService)
		mockService.On("GetActiveRecord", mock.Anything, int64(1)).
			Return(&record.Record{ID: 3, UserID: 1, TaskID: 2, TaskName: "数学", StartTime: start}, nil)
		handler := handlers.NewRecordHandler(mockService)

		req := httptest.NewRequest("GET", "/records/active?user_id=1", nil)
		w := httptest.NewRecorder()

		handler.GetActiveRecord(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"is_active":true`)
	})
}

// TestRecordHandler_GetRecords тестирует разбор query-параметров
func TestRecordHandler_GetRecords(t *testing.T) {
	t.Run("by date", func(t *testing.T) {
		expectedDate := time.Date(2026, 8, 28, 0, 0, 0, 0, time.Local)
		mockService := new(MockRecordService)
		mockService.On("GetRecordsByUserAndDate", mock.Anything, int64(1), expectedDate).
			Return([]*record.Record{}, nil)
		handler := handlers.NewRecordHandler(mockService)

		req := httptest.NewRequest("GET", "/records?user_id=1&date=2026-08-28", nil)
		w := httptest.NewRecorder()

		handler.GetRecords(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("bad date format", func(t *testing.T) {
		handler := handlers.NewRecordHandler(new(MockRecordService))

		req := httptest.NewRequest("GET", "/records?user_id=1&date=28.08.2026", nil)
		w := httptest.NewRecorder()

		handler.GetRecords(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("all records by default", func(t *testing.T) {
		mockService := new(MockRecordService)
		mockService.On("GetAllRecordsByUser", mock.Anything, int64(1)).
			Return([]*record.Record{}, nil)
		handler := handlers.NewRecordHandler(mockService)

		req := httptest.NewRequest("GET", "/records?user_id=1", nil)
		w := httptest.NewRecorder()

		handler.GetRecords(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})
}

// TestAnalysisHandler_GetAnalysis тестирует выдачу анализа
func TestAnalysisHandler_GetAnalysis(t *testing.T) {
	mockService := new(MockAnalysisService)
	mockService.On("GetAnalysisForUser", mock.Anything, int64(1)).
		Return(&service.AnalysisResult{
			TaskAverageTimes: map[string]string{"数学": "00:45"},
			Accuracy:         82,
			Feedbacks:        []string{"予定の精度は非常に高いです！この調子で頑張りましょう。"},
		}, nil)
	handler := handlers.NewAnalysisHandler(mockService)

	req := httptest.NewRequest("GET", "/analysis?user_id=1", nil)
	w := httptest.NewRecorder()

	handler.GetAnalysis(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"accuracy":82`)
	assert.Contains(t, w.Body.String(), "00:45")
	mockService.AssertExpectations(t)
}

// TestSyncHandler_SyncNow тестирует синхронную синхронизацию
func TestSyncHandler_SyncNow(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockService := new(MockSyncService)
		mockService.On("SyncUser", mock.Anything, "token", int64(1)).
			Return(&service.SyncResult{Synced: 5, Skipped: 1}, nil)
		handler := handlers.NewSyncHandler(mockService, new(MockSyncQueue))

		body := map[string]any{"user_id": 1, "access_token": "token"}
		req := httptest.NewRequest("POST", "/calendar/sync", jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.SyncNow(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"synced":5`)
		assert.Contains(t, w.Body.String(), `"skipped":1`)
	})

	t.Run("external source failure maps to 502", func(t *testing.T) {
		mockService := new(MockSyncService)
		mockService.On("SyncUser", mock.Anything, "expired", int64(1)).
			Return(nil, service.NewExternalSourceError(errors.New("401 unauthorized")))
		handler := handlers.NewSyncHandler(mockService, new(MockSyncQueue))

		body := map[string]any{"user_id": 1, "access_token": "expired"}
		req := httptest.NewRequest("POST", "/calendar/sync", jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.SyncNow(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("empty access_token", func(t *testing.T) {
		handler := handlers.NewSyncHandler(new(MockSyncService), new(MockSyncQueue))

		body := map[string]any{"user_id": 1}
		req := httptest.NewRequest("POST", "/calendar/sync", jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.SyncNow(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestSyncHandler_SyncAsync тестирует постановку задания в очередь
func TestSyncHandler_SyncAsync(t *testing.T) {
	t.Run("enqueued", func(t *testing.T) {
		queue := new(MockSyncQueue)
		queue.On("Enqueue", mock.AnythingOfType("worker.SyncJob")).Return(true)
		handler := handlers.NewSyncHandler(new(MockSyncService), queue)

		body := map[string]any{"user_id": 1, "access_token": "token"}
		req := httptest.NewRequest("POST", "/calendar/sync/async", jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.SyncAsync(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), `"enqueued":true`)
	})

	t.Run("queue full maps to 503", func(t *testing.T) {
		queue := new(MockSyncQueue)
		queue.On("Enqueue", mock.AnythingOfType("worker.SyncJob")).Return(false)
		handler := handlers.NewSyncHandler(new(MockSyncService), queue)

		body := map[string]any{"user_id": 1, "access_token": "token"}
		req := httptest.NewRequest("POST", "/calendar/sync/async", jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.SyncAsync(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

// TestSyncHandler_Unsync тестирует отключение синхронизации
func TestSyncHandler_Unsync(t *testing.T) {
	mockService := new(MockSyncService)
	mockService.On("Unsync", mock.Anything, int64(1)).Return(int64(4), nil)
	handler := handlers.NewSyncHandler(mockService, new(MockSyncQueue))

	req := httptest.NewRequest("DELETE", "/calendar/sync?user_id=1", nil)
	w := httptest.NewRecorder()

	handler.Unsync(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"removed":4`)
	mockService.AssertExpectations(t)
}
