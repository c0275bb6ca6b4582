package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tgienger/tasker/internal/api"
	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/lifecycle"
	"github.com/tgienger/tasker/internal/models"
	"github.com/tgienger/tasker/internal/permissions"
	"github.com/tgienger/tasker/internal/query"
)

// Projects reads and mutates projects
type Projects struct {
	api   ProjectGateway
	cache *query.Cache
	rec   recorder
}

// NewProjects returns a project service
func NewProjects(gw ProjectGateway, cache *query.Cache, log *zap.Logger) *Projects {
	return &Projects{api: gw, cache: cache, rec: newRecorder(cache, log)}
}

// ProjectDraft is the content of the project form
type ProjectDraft struct {
	Name        string
	Description string
	TeamID      string
	Flag        models.Flag
	StartDate   *time.Time
	EndDate     *time.Time
}

func (d ProjectDraft) input() (api.ProjectInput, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return api.ProjectInput{}, apperr.Invalid(apperr.CodeNameRequired)
	}
	if d.Flag == "" {
		d.Flag = models.FlagNormal
	}
	if !d.Flag.Valid() {
		return api.ProjectInput{}, apperr.Invalid(apperr.CodeInvalidFlag)
	}
	if err := lifecycle.ValidateDates(d.StartDate, d.EndDate); err != nil {
		return api.ProjectInput{}, err
	}
	in := api.ProjectInput{Name: name, Flag: d.Flag, StartDate: d.StartDate, EndDate: d.EndDate}
	if desc := strings.TrimSpace(d.Description); desc != "" {
		in.Description = &desc
	}
	if d.TeamID != "" {
		in.TeamID = &d.TeamID
	}
	return in, nil
}

// List returns the user's projects
func (s *Projects) List(ctx context.Context) ([]models.Project, error) {
	return query.Fetch(ctx, s.cache, query.Projects, s.api.Projects)
}

// Get returns one project with its team and tasks
func (s *Projects) Get(ctx context.Context, id string) (models.Project, error) {
	return query.Fetch(ctx, s.cache, query.Project(id), func(ctx context.Context) (models.Project, error) {
		return s.api.Project(ctx, id)
	})
}

// Create submits the new-project form. The signed-in user becomes the owner.
func (s *Projects) Create(ctx context.Context, user models.User, d ProjectDraft) (models.Project, error) {
	const action = "create_project"
	fields := []zap.Field{zap.String("user_id", user.ID)}
	in, err := d.input()
	if err != nil {
		return models.Project{}, s.rec.rejected(action, err, fields...)
	}
	p, err := s.api.CreateProject(ctx, in)
	if err != nil {
		return models.Project{}, s.rec.failed(action, err, nil, fields...)
	}
	s.rec.succeeded(action, []query.Key{query.Projects}, append(fields, zap.String("project_id", p.ID))...)
	return p, nil
}

// Update submits the edit form for project
func (s *Projects) Update(ctx context.Context, user models.User, project models.Project, d ProjectDraft) (models.Project, error) {
	const action = "update_project"
	fields := []zap.Field{zap.String("user_id", user.ID), zap.String("project_id", project.ID)}
	if !permissions.ForProject(user, project).Edit {
		return models.Project{}, s.rec.rejected(action, apperr.Forbidden(apperr.CodeCannotEditProject), fields...)
	}
	in, err := d.input()
	if err != nil {
		return models.Project{}, s.rec.rejected(action, err, fields...)
	}
	p, err := s.api.UpdateProject(ctx, project.ID, in)
	if err != nil {
		return models.Project{}, s.rec.failed(action, err, query.AffectedByProject(project.ID), fields...)
	}
	s.rec.succeeded(action, query.AffectedByProject(project.ID), fields...)
	return p, nil
}
