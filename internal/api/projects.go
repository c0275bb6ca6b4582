package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/models"
)

// ProjectInput is the editable part of a project
type ProjectInput struct {
	Name        string      `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	TeamID      *string     `json:"teamId,omitempty"`
	Flag        models.Flag `json:"flag,omitempty"`
	StartDate   *time.Time  `json:"startDate,omitempty"`
	EndDate     *time.Time  `json:"endDate,omitempty"`
}

// Projects lists the user's projects
func (c *Client) Projects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	err := c.do(ctx, request{method: http.MethodGet, path: "/projects"}, &out)
	return out, err
}

// Project fetches one project with its team and tasks
func (c *Client) Project(ctx context.Context, id string) (models.Project, error) {
	var p models.Project
	err := c.do(ctx, request{method: http.MethodGet, path: "/projects/" + id, notFound: apperr.CodeProjectNotFound}, &p)
	return p, err
}

// CreateProject creates a project owned by the user
func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (models.Project, error) {
	r, err := jsonRequest(http.MethodPost, "/projects", in)
	if err != nil {
		return models.Project{}, err
	}
	var p models.Project
	err = c.do(ctx, r, &p)
	return p, err
}

// UpdateProject edits a project
func (c *Client) UpdateProject(ctx context.Context, id string, in ProjectInput) (models.Project, error) {
	r, err := jsonRequest(http.MethodPatch, "/projects/"+id, in)
	if err != nil {
		return models.Project{}, err
	}
	r.notFound = apperr.CodeProjectNotFound
	var p models.Project
	err = c.do(ctx, r, &p)
	return p, err
}
