package calendar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/dvs/internal/calendar"
	"github.com/magabrotheeeer/dvs/internal/http/middlewarectx"
	"github.com/magabrotheeeer/dvs/internal/http/validate"
	"github.com/magabrotheeeer/dvs/internal/models"
	services "github.com/magabrotheeeer/dvs/internal/services/calendar"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, f models.CalendarEventFilter) ([]models.CalendarEvent, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CalendarEvent), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, id int) (*models.CalendarEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarEvent), args.Error(1)
}

func (m *MockService) Create(ctx context.Context, actor models.Actor, req models.CalendarEventRequest) (*models.CalendarEvent, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarEvent), args.Error(1)
}

func (m *MockService) Update(ctx context.Context, actor models.Actor, id int, req models.CalendarEventRequest) (*models.CalendarEvent, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarEvent), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, actor models.Actor, id int) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockService) Categories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockService) Day(ctx context.Context, date string) (*services.Day, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Day), args.Error(1)
}

func (m *MockService) Agenda(ctx context.Context, from, to string, limit int) ([]calendar.DayResult, error) {
	args := m.Called(ctx, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]calendar.DayResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestHandler_List(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		setupMock  func(m *MockService)
		wantStatus int
	}{
		{
			name: "фильтр по категории",
			url:  "/calendar?category_id=2&start_date=2025-09-01",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, mock.MatchedBy(func(f models.CalendarEventFilter) bool {
					return f.CategoryID != nil && *f.CategoryID == 2 && f.StartDate == "2025-09-01"
				})).Return([]models.CalendarEvent{}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "нечисловая категория",
			url:        "/calendar?category_id=abc",
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
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
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Create(t *testing.T) {
	actor := models.Actor{UserID: 7, Role: models.RoleUser}

	tests := []struct {
		name       string
		body       string
		setupMock  func(m *MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "создание события",
			body: `{"title":"Retreat","start_date":"2025-09-10","end_date":"2025-09-12"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, actor, mock.AnythingOfType("models.CalendarEventRequest")).
					Return(&models.CalendarEvent{ID: 1, Title: "Retreat", Color: "blue"}, nil).Once()
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"color":"blue"`,
		},
		{
			name:       "неизвестный цвет",
			body:       `{"title":"Retreat","start_date":"2025-09-10","end_date":"2025-09-12","color":"black"}`,
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"field":"color"`,
		},
		{
			name:       "без заголовка",
			body:       `{"start_date":"2025-09-10","end_date":"2025-09-12"}`,
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"field":"title"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			h := New(newNoopLogger(), svc, validate.New())

			req := httptest.NewRequest(http.MethodPost, "/calendar", strings.NewReader(tt.body))
			req = req.WithContext(middlewarectx.WithActor(req.Context(), actor))
			w := httptest.NewRecorder()
			h.Create(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Delete_Forbidden(t *testing.T) {
	actor := models.Actor{UserID: 7, Role: models.RoleUser}
	svc := new(MockService)
	svc.On("Delete", mock.Anything, actor, 3).Return(fmt.Errorf("calendar.Delete: %w", models.ErrForbidden)).Once()
	h := New(newNoopLogger(), svc, validate.New())

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "3")
	req := httptest.NewRequest(http.MethodDelete, "/calendar/3", nil)
	ctx := middlewarectx.WithActor(context.WithValue(req.Context(), chi.RouteCtxKey, rctx), actor)
	w := httptest.NewRecorder()
	h.Delete(w, req.WithContext(ctx))

	assert.Equal(t, http.StatusForbidden, w.Code)
	svc.AssertExpectations(t)
}

func TestHandler_Day(t *testing.T) {
	tests := []struct {
		name       string
		date       string
		setupMock  func(m *MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "окна дня",
			date: "2025-09-10",
			setupMock: func(m *MockService) {
				m.On("Day", mock.Anything, "2025-09-10").Return(&services.Day{
					Date: "2025-09-10", Weekday: "Wednesday",
					Windows: []calendar.Window{{Source: "good_timing", Label: "Wednesday"}},
				}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"weekday":"Wednesday"`,
		},
		{
			name: "некорректная дата",
			date: "not-a-date",
			setupMock: func(m *MockService) {
				m.On("Day", mock.Anything, "not-a-date").
					Return(nil, fmt.Errorf("calendar.Day: %w: bad date", models.ErrInvalidInput)).Once()
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			h := New(newNoopLogger(), svc, validate.New())

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("date", tt.date)
			req := httptest.NewRequest(http.MethodGet, "/calendar/day/"+tt.date, nil)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()
			h.Day(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Agenda(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		setupMock  func(m *MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "с ограничением на день",
			url:  "/calendar/agenda?start_date=2025-09-10&end_date=2025-09-11&limit=1",
			setupMock: func(m *MockService) {
				m.On("Agenda", mock.Anything, "2025-09-10", "2025-09-11", 1).Return([]calendar.DayResult{
					{Date: "2025-09-10", Windows: []calendar.Window{{Source: "event"}}, More: 2},
					{Date: "2025-09-11"},
				}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"more":2`,
		},
		{
			name:       "нет границ",
			url:        "/calendar/agenda?start_date=2025-09-10",
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "отрицательный limit",
			url:        "/calendar/agenda?start_date=2025-09-10&end_date=2025-09-11&limit=-1",
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "слишком длинный диапазон",
			url:  "/calendar/agenda?start_date=2025-01-01&end_date=2025-12-31",
			setupMock: func(m *MockService) {
				m.On("Agenda", mock.Anything, "2025-01-01", "2025-12-31", 0).
					Return(nil, fmt.Errorf("calendar.Agenda: %w", services.ErrRangeTooLong)).Once()
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			h := New(newNoopLogger(), svc, validate.New())

			w := httptest.NewRecorder()
			h.Agenda(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
