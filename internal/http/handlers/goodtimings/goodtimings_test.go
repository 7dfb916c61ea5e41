package goodtimings

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/dvs/internal/http/middlewarectx"
	"github.com/magabrotheeeer/dvs/internal/http/validate"
	"github.com/magabrotheeeer/dvs/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, f models.GoodTimingFilter) ([]models.GoodTiming, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GoodTiming), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, id int) (*models.GoodTiming, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GoodTiming), args.Error(1)
}

func (m *MockService) Create(ctx context.Context, actor models.Actor, req models.GoodTimingRequest) (*models.GoodTiming, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GoodTiming), args.Error(1)
}

func (m *MockService) Update(ctx context.Context, id int, req models.GoodTimingRequest) (*models.GoodTiming, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GoodTiming), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockService) CreateSlot(ctx context.Context, goodTimingID int, req models.TimeSlotRequest) (*models.TimeSlot, error) {
	args := m.Called(ctx, goodTimingID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeSlot), args.Error(1)
}

func (m *MockService) UpdateSlot(ctx context.Context, goodTimingID, slotID int, req models.UpdateTimeSlotRequest) (*models.TimeSlot, error) {
	args := m.Called(ctx, goodTimingID, slotID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeSlot), args.Error(1)
}

func (m *MockService) DeleteSlot(ctx context.Context, goodTimingID, slotID int) error {
	return m.Called(ctx, goodTimingID, slotID).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func withParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHandler_List(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		setupMock  func(m *MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "фильтр по дню",
			url:  "/good-timings?day=Monday&start_date=2025-09-01",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, models.GoodTimingFilter{StartDate: "2025-09-01", Day: "Monday"}).
					Return([]models.GoodTiming{{ID: 1, Day: "Monday"}}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"day":"Monday"`,
		},
		{
			name:       "неизвестный день",
			url:        "/good-timings?day=someday",
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"field":"day"`,
		},
		{
			name:       "перевёрнутый диапазон",
			url:        "/good-timings?start_date=2025-09-10&end_date=2025-09-01",
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `Validation failed`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			h := New(newNoopLogger(), svc, validate.New())

			w := httptest.NewRecorder()
			h.List(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Create(t *testing.T) {
	actor := models.Actor{UserID: 1, Role: models.RoleAdmin}

	t.Run("конец раньше начала", func(t *testing.T) {
		svc := new(MockService)
		h := New(newNoopLogger(), svc, validate.New())

		body := `{"day":"Monday","start_date":"2025-09-10","end_date":"2025-09-01"}`
		req := httptest.NewRequest(http.MethodPost, "/good-timings", strings.NewReader(body))
		req = req.WithContext(middlewarectx.WithActor(req.Context(), actor))
		w := httptest.NewRecorder()
		h.Create(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"end_date"`)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("создание", func(t *testing.T) {
		svc := new(MockService)
		want := models.GoodTimingRequest{Day: "Monday", StartDate: "2025-09-01", EndDate: "2025-09-07"}
		svc.On("Create", mock.Anything, actor, want).Return(&models.GoodTiming{ID: 9, Day: "Monday"}, nil).Once()
		h := New(newNoopLogger(), svc, validate.New())

		body := `{"day":"Monday","start_date":"2025-09-01","end_date":"2025-09-07"}`
		req := httptest.NewRequest(http.MethodPost, "/good-timings", strings.NewReader(body))
		req = req.WithContext(middlewarectx.WithActor(req.Context(), actor))
		w := httptest.NewRecorder()
		h.Create(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"id":9`)
		svc.AssertExpectations(t)
	})
}

func TestHandler_Get(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		setupMock  func(m *MockService)
		wantStatus int
	}{
		{
			name: "найден",
			id:   "4",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, 4).Return(&models.GoodTiming{ID: 4}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "не найден",
			id:   "5",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, 5).Return(nil, models.ErrNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "некорректный id",
			id:         "abc",
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			h := New(newNoopLogger(), svc, validate.New())

			req := withParams(httptest.NewRequest(http.MethodGet, "/good-timings/"+tt.id, nil), map[string]string{"id": tt.id})
			w := httptest.NewRecorder()
			h.Get(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_CreateSlot(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(m *MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "создание слота",
			body: `{"start_time":"09:00","end_time":"10:30","category_id":1}`,
			setupMock: func(m *MockService) {
				m.On("CreateSlot", mock.Anything, 3, models.TimeSlotRequest{StartTime: "09:00", EndTime: "10:30", CategoryID: 1}).
					Return(&models.TimeSlot{ID: 11, GoodTimingID: 3}, nil).Once()
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"id":11`,
		},
		{
			name:       "конец не позже начала",
			body:       `{"start_time":"10:00","end_time":"09:00","category_id":1}`,
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"field":"end_time"`,
		},
		{
			name: "интервал не найден",
			body: `{"start_time":"09:00","end_time":"10:00","category_id":1}`,
			setupMock: func(m *MockService) {
				m.On("CreateSlot", mock.Anything, 3, mock.Anything).Return(nil, models.ErrNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "неактивная категория",
			body: `{"start_time":"09:00","end_time":"10:00","category_id":2}`,
			setupMock: func(m *MockService) {
				m.On("CreateSlot", mock.Anything, 3, mock.Anything).Return(nil, models.ErrInvalidCategory).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `Invalid category`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			h := New(newNoopLogger(), svc, validate.New())

			req := httptest.NewRequest(http.MethodPost, "/good-timings/3/time-slots", strings.NewReader(tt.body))
			req = withParams(req, map[string]string{"id": "3"})
			w := httptest.NewRecorder()
			h.CreateSlot(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_SlotRoutes(t *testing.T) {
	t.Run("слот внутри интервала", func(t *testing.T) {
		svc := new(MockService)
		svc.On("DeleteSlot", mock.Anything, 3, 11).Return(nil).Once()
		h := New(newNoopLogger(), svc, validate.New())

		req := withParams(httptest.NewRequest(http.MethodDelete, "/", nil), map[string]string{"id": "3", "slotId": "11"})
		w := httptest.NewRecorder()
		h.DeleteSlot(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("слот без интервала", func(t *testing.T) {
		svc := new(MockService)
		end := "11:00"
		svc.On("UpdateSlot", mock.Anything, 0, 11, models.UpdateTimeSlotRequest{EndTime: &end}).
			Return(&models.TimeSlot{ID: 11, EndTime: "11:00:00"}, nil).Once()
		h := New(newNoopLogger(), svc, validate.New())

		req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"end_time":"11:00"}`))
		req = withParams(req, map[string]string{"slotId": "11"})
		w := httptest.NewRecorder()
		h.UpdateSlot(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"end_time":"11:00:00"`)
		svc.AssertExpectations(t)
	})
}
