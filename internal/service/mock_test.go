package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tgienger/tasker/internal/api"
	"github.com/tgienger/tasker/internal/models"
)

type gatewayMock struct {
	mock.Mock
}

func tasksArg(args mock.Arguments) []models.Task {
	if v := args.Get(0); v != nil {
		return v.([]models.Task)
	}
	return nil
}

func (m *gatewayMock) Tasks(ctx context.Context) ([]models.Task, error) {
	args := m.Called(ctx)
	return tasksArg(args), args.Error(1)
}

func (m *gatewayMock) MyAssignedTasks(ctx context.Context) ([]models.Task, error) {
	args := m.Called(ctx)
	return tasksArg(args), args.Error(1)
}

func (m *gatewayMock) MyCreatedTasks(ctx context.Context) ([]models.Task, error) {
	args := m.Called(ctx)
	return tasksArg(args), args.Error(1)
}

func (m *gatewayMock) SearchTasks(ctx context.Context, p api.SearchParams) ([]models.Task, error) {
	args := m.Called(ctx, p)
	return tasksArg(args), args.Error(1)
}

func (m *gatewayMock) Task(ctx context.Context, id string) (models.Task, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Task), args.Error(1)
}

func (m *gatewayMock) CreateTask(ctx context.Context, in api.TaskInput, files []api.Upload) (models.Task, error) {
	args := m.Called(ctx, in, files)
	return args.Get(0).(models.Task), args.Error(1)
}

func (m *gatewayMock) UpdateTask(ctx context.Context, id string, in api.TaskInput, files []api.Upload) (models.Task, error) {
	args := m.Called(ctx, id, in, files)
	return args.Get(0).(models.Task), args.Error(1)
}

func (m *gatewayMock) DeleteTask(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *gatewayMock) UpdateTaskStatus(ctx context.Context, id string, status models.Status) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *gatewayMock) CompleteTask(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *gatewayMock) ReassignTask(ctx context.Context, id, assigneeID string) error {
	return m.Called(ctx, id, assigneeID).Error(0)
}

func (m *gatewayMock) UpdateTaskPriority(ctx context.Context, id string, p models.Priority) error {
	return m.Called(ctx, id, p).Error(0)
}

func (m *gatewayMock) UpdateTaskDeadline(ctx context.Context, id string, end *time.Time) error {
	return m.Called(ctx, id, end).Error(0)
}

func (m *gatewayMock) AddTaskFiles(ctx context.Context, id string, files []api.Upload) error {
	return m.Called(ctx, id, files).Error(0)
}

func (m *gatewayMock) CreateComment(ctx context.Context, taskID, content string, files []api.Upload) (models.Comment, error) {
	args := m.Called(ctx, taskID, content, files)
	return args.Get(0).(models.Comment), args.Error(1)
}

func (m *gatewayMock) Projects(ctx context.Context) ([]models.Project, error) {
	args := m.Called(ctx)
	var out []models.Project
	if v := args.Get(0); v != nil {
		out = v.([]models.Project)
	}
	return out, args.Error(1)
}

func (m *gatewayMock) Project(ctx context.Context, id string) (models.Project, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Project), args.Error(1)
}

func (m *gatewayMock) CreateProject(ctx context.Context, in api.ProjectInput) (models.Project, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.Project), args.Error(1)
}

func (m *gatewayMock) UpdateProject(ctx context.Context, id string, in api.ProjectInput) (models.Project, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(models.Project), args.Error(1)
}

func (m *gatewayMock) Teams(ctx context.Context) ([]models.Team, error) {
	args := m.Called(ctx)
	var out []models.Team
	if v := args.Get(0); v != nil {
		out = v.([]models.Team)
	}
	return out, args.Error(1)
}

func (m *gatewayMock) Team(ctx context.Context, id string) (models.Team, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Team), args.Error(1)
}

func (m *gatewayMock) CreateTeam(ctx context.Context, in api.TeamInput) (models.Team, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.Team), args.Error(1)
}

func (m *gatewayMock) UpdateTeam(ctx context.Context, id string, in api.TeamInput) (models.Team, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(models.Team), args.Error(1)
}

func (m *gatewayMock) DeleteTeam(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *gatewayMock) InviteMember(ctx context.Context, teamID, email string, role models.Role) error {
	return m.Called(ctx, teamID, email, role).Error(0)
}
