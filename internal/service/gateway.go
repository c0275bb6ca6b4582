// Package service runs every user action through the same steps: validate
// locally, check the actor's capabilities, call the API, then invalidate the
// cached queries the action made stale.
//
// Nothing is sent when validation or the permission check fails.
package service

import (
	"context"
	"time"

	"github.com/tgienger/tasker/internal/api"
	"github.com/tgienger/tasker/internal/attachments"
	"github.com/tgienger/tasker/internal/models"
)

// TaskGateway is the remote side of task actions
type TaskGateway interface {
	Tasks(ctx context.Context) ([]models.Task, error)
	MyAssignedTasks(ctx context.Context) ([]models.Task, error)
	MyCreatedTasks(ctx context.Context) ([]models.Task, error)
	SearchTasks(ctx context.Context, p api.SearchParams) ([]models.Task, error)
	Task(ctx context.Context, id string) (models.Task, error)
	CreateTask(ctx context.Context, in api.TaskInput, files []api.Upload) (models.Task, error)
	UpdateTask(ctx context.Context, id string, in api.TaskInput, files []api.Upload) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	UpdateTaskStatus(ctx context.Context, id string, status models.Status) error
	CompleteTask(ctx context.Context, id string) error
	ReassignTask(ctx context.Context, id, assigneeID string) error
	UpdateTaskPriority(ctx context.Context, id string, p models.Priority) error
	UpdateTaskDeadline(ctx context.Context, id string, end *time.Time) error
	AddTaskFiles(ctx context.Context, id string, files []api.Upload) error
	CreateComment(ctx context.Context, taskID, content string, files []api.Upload) (models.Comment, error)
}

// ProjectGateway is the remote side of project actions
type ProjectGateway interface {
	Projects(ctx context.Context) ([]models.Project, error)
	Project(ctx context.Context, id string) (models.Project, error)
	CreateProject(ctx context.Context, in api.ProjectInput) (models.Project, error)
	UpdateProject(ctx context.Context, id string, in api.ProjectInput) (models.Project, error)
}

// TeamGateway is the remote side of team actions
type TeamGateway interface {
	Teams(ctx context.Context) ([]models.Team, error)
	Team(ctx context.Context, id string) (models.Team, error)
	CreateTeam(ctx context.Context, in api.TeamInput) (models.Team, error)
	UpdateTeam(ctx context.Context, id string, in api.TeamInput) (models.Team, error)
	DeleteTeam(ctx context.Context, id string) error
	InviteMember(ctx context.Context, teamID, email string, role models.Role) error
}

var (
	_ TaskGateway    = (*api.Client)(nil)
	_ ProjectGateway = (*api.Client)(nil)
	_ TeamGateway    = (*api.Client)(nil)
)

func uploads(files []attachments.Staged) []api.Upload {
	if len(files) == 0 {
		return nil
	}
	out := make([]api.Upload, len(files))
	for i, f := range files {
		out[i] = api.Upload{Path: f.Path, Name: f.Name, MimeType: f.MimeType}
	}
	return out
}
