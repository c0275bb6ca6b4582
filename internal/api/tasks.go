package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/models"
)

// TaskInput is the editable part of a task. Nil and zero fields are not sent.
type TaskInput struct {
	Title       string
	Description *string
	Status      models.Status
	Priority    models.Priority
	ProjectID   string
	AssigneeID  *string
	StartDate   *time.Time
	EndDate     *time.Time
}

func (in TaskInput) fields() []field {
	var fs []field
	add := func(name, value string) {
		if value != "" {
			fs = append(fs, field{name, value})
		}
	}
	add("title", in.Title)
	if in.Description != nil {
		fs = append(fs, field{"description", *in.Description})
	}
	add("status", string(in.Status))
	add("priority", string(in.Priority))
	add("projectId", in.ProjectID)
	if in.AssigneeID != nil {
		fs = append(fs, field{"assigneeId", *in.AssigneeID})
	}
	if in.StartDate != nil {
		add("startDate", in.StartDate.UTC().Format(time.RFC3339))
	}
	if in.EndDate != nil {
		add("endDate", in.EndDate.UTC().Format(time.RFC3339))
	}
	return fs
}

// SearchParams filters a task search. Empty filters are omitted.
type SearchParams struct {
	Query     string
	ProjectID string
	Status    models.Status
	Priority  models.Priority
}

func (c *Client) listTasks(ctx context.Context, path string) ([]models.Task, error) {
	var out []models.Task
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Tasks lists every task visible to the user
func (c *Client) Tasks(ctx context.Context) ([]models.Task, error) {
	return c.listTasks(ctx, "/tasks")
}

// MyAssignedTasks lists the tasks assigned to the user
func (c *Client) MyAssignedTasks(ctx context.Context) ([]models.Task, error) {
	return c.listTasks(ctx, "/tasks/my/assigned")
}

// MyCreatedTasks lists the tasks the user created
func (c *Client) MyCreatedTasks(ctx context.Context) ([]models.Task, error) {
	return c.listTasks(ctx, "/tasks/my/created")
}

// SearchTasks runs a filtered search
func (c *Client) SearchTasks(ctx context.Context, p SearchParams) ([]models.Task, error) {
	q := url.Values{}
	q.Set("q", p.Query)
	if p.ProjectID != "" {
		q.Set("projectId", p.ProjectID)
	}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	if p.Priority != "" {
		q.Set("priority", string(p.Priority))
	}
	var out []models.Task
	err := c.do(ctx, request{method: http.MethodGet, path: "/tasks/search/" + url.PathEscape(p.Query), query: q}, &out)
	return out, err
}

// Task fetches one task with its project, comments and files
func (c *Client) Task(ctx context.Context, id string) (models.Task, error) {
	var t models.Task
	err := c.do(ctx, request{method: http.MethodGet, path: "/tasks/" + id, notFound: apperr.CodeTaskNotFound}, &t)
	return t, err
}

// CreateTask creates a task, uploading files with it
func (c *Client) CreateTask(ctx context.Context, in TaskInput, files []Upload) (models.Task, error) {
	r, err := multipartRequest(http.MethodPost, "/tasks", in.fields(), "files", files)
	if err != nil {
		return models.Task{}, err
	}
	r.notFound = apperr.CodeProjectNotFound
	var t models.Task
	err = c.do(ctx, r, &t)
	return t, err
}

// UpdateTask edits a task, uploading files with it
func (c *Client) UpdateTask(ctx context.Context, id string, in TaskInput, files []Upload) (models.Task, error) {
	r, err := multipartRequest(http.MethodPatch, "/tasks/"+id, in.fields(), "files", files)
	if err != nil {
		return models.Task{}, err
	}
	r.notFound = apperr.CodeTaskNotFound
	var t models.Task
	err = c.do(ctx, r, &t)
	return t, err
}

// DeleteTask deletes a task
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/tasks/" + id, notFound: apperr.CodeTaskNotFound}, nil)
}

func (c *Client) patchTask(ctx context.Context, path string, body any) error {
	r, err := jsonRequest(http.MethodPatch, path, body)
	if err != nil {
		return err
	}
	r.notFound = apperr.CodeTaskNotFound
	return c.do(ctx, r, nil)
}

// UpdateTaskStatus sets a task's status
func (c *Client) UpdateTaskStatus(ctx context.Context, id string, status models.Status) error {
	return c.patchTask(ctx, "/tasks/"+id, map[string]models.Status{"status": status})
}

// CompleteTask marks a task DONE through the dedicated endpoint
func (c *Client) CompleteTask(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/tasks/complete/" + id, notFound: apperr.CodeTaskNotFound}, nil)
}

// ReassignTask hands a task to assigneeID. An empty id unassigns it.
func (c *Client) ReassignTask(ctx context.Context, id, assigneeID string) error {
	var v *string
	if assigneeID != "" {
		v = &assigneeID
	}
	return c.patchTask(ctx, "/tasks/reassign/"+id, map[string]*string{"assigneeId": v})
}

// UpdateTaskPriority sets a task's priority
func (c *Client) UpdateTaskPriority(ctx context.Context, id string, p models.Priority) error {
	return c.patchTask(ctx, "/tasks/priority/"+id, map[string]models.Priority{"priority": p})
}

// UpdateTaskDeadline sets or clears a task's end date
func (c *Client) UpdateTaskDeadline(ctx context.Context, id string, end *time.Time) error {
	var v *string
	if end != nil {
		s := end.UTC().Format(time.RFC3339)
		v = &s
	}
	return c.patchTask(ctx, "/tasks/deadline/"+id, map[string]*string{"endDate": v})
}

// AddTaskFiles uploads files to an existing task
func (c *Client) AddTaskFiles(ctx context.Context, id string, files []Upload) error {
	r, err := multipartRequest(http.MethodPost, "/tasks/"+id+"/files", nil, "files", files)
	if err != nil {
		return err
	}
	r.notFound = apperr.CodeTaskNotFound
	return c.do(ctx, r, nil)
}

// CreateComment posts a comment. It is sent as JSON, or as multipart when
// files come with it.
func (c *Client) CreateComment(ctx context.Context, taskID, content string, files []Upload) (models.Comment, error) {
	path := "/tasks/" + taskID + "/comments"
	var (
		r   request
		err error
	)
	if len(files) == 0 {
		r, err = jsonRequest(http.MethodPost, path, map[string]string{"taskId": taskID, "content": content})
	} else {
		r, err = multipartRequest(http.MethodPost, path, []field{{"taskId", taskID}, {"content", content}}, "files", files)
	}
	if err != nil {
		return models.Comment{}, err
	}
	r.notFound = apperr.CodeTaskNotFound
	var cm models.Comment
	err = c.do(ctx, r, &cm)
	return cm, err
}
