package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/dvs/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockRepository) GetUser(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) UpdateUser(ctx context.Context, id int, req models.UpdateUserRequest) (*models.User, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) DeleteUser(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

var (
	admin = models.Actor{UserID: 1, Role: models.RoleAdmin}
	user  = models.Actor{UserID: 2, Role: models.RoleUser}
)

func newService(repo *MockRepository) *UserService {
	return NewUserService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestUserService_List(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListUsers", mock.Anything).Return([]models.User{{ID: 1}, {ID: 2}}, nil).Once()
	svc := newService(repo)

	users, err := svc.List(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = svc.List(context.Background(), user)
	assert.ErrorIs(t, err, models.ErrForbidden)
	repo.AssertExpectations(t)
}

func TestUserService_Get(t *testing.T) {
	tests := []struct {
		name    string
		actor   models.Actor
		id      int
		wantErr error
	}{
		{name: "администратор читает чужой профиль", actor: admin, id: 2},
		{name: "пользователь читает свой профиль", actor: user, id: 2},
		{name: "пользователь читает чужой профиль", actor: user, id: 3, wantErr: models.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			repo.On("GetUser", mock.Anything, tt.id).Return(&models.User{ID: tt.id}, nil).Maybe()
			_, err := newService(repo).Get(context.Background(), tt.actor, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUserService_Update(t *testing.T) {
	name := "New Name"
	role := models.RoleAdmin

	tests := []struct {
		name    string
		actor   models.Actor
		id      int
		req     models.UpdateUserRequest
		wantErr error
	}{
		{name: "пользователь меняет своё имя", actor: user, id: 2, req: models.UpdateUserRequest{Name: &name}},
		{name: "пользователь меняет свою роль", actor: user, id: 2, req: models.UpdateUserRequest{Role: &role}, wantErr: models.ErrForbidden},
		{name: "администратор меняет роль", actor: admin, id: 2, req: models.UpdateUserRequest{Role: &role}},
		{name: "пустое обновление", actor: admin, id: 2, req: models.UpdateUserRequest{}, wantErr: models.ErrNoUpdates},
		{name: "чужой профиль", actor: user, id: 3, req: models.UpdateUserRequest{Name: &name}, wantErr: models.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			if tt.wantErr == nil {
				repo.On("UpdateUser", mock.Anything, tt.id, tt.req).Return(&models.User{ID: tt.id}, nil).Once()
			}
			_, err := newService(repo).Update(context.Background(), tt.actor, tt.id, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestUserService_Delete(t *testing.T) {
	tests := []struct {
		name    string
		actor   models.Actor
		id      int
		repoErr error
		wantErr error
	}{
		{name: "администратор удаляет пользователя", actor: admin, id: 2},
		{name: "администратор удаляет себя", actor: admin, id: 1, wantErr: models.ErrSelfDelete},
		{name: "не администратор", actor: user, id: 3, wantErr: models.ErrForbidden},
		{name: "пользователь не найден", actor: admin, id: 9, repoErr: models.ErrNotFound, wantErr: models.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			repo.On("DeleteUser", mock.Anything, tt.id).Return(tt.repoErr).Maybe()
			err := newService(repo).Delete(context.Background(), tt.actor, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
