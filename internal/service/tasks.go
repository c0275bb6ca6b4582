package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tgienger/tasker/internal/api"
	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/attachments"
	"github.com/tgienger/tasker/internal/lifecycle"
	"github.com/tgienger/tasker/internal/models"
	"github.com/tgienger/tasker/internal/permissions"
	"github.com/tgienger/tasker/internal/query"
)

// Tasks reads and mutates tasks
type Tasks struct {
	api   TaskGateway
	cache *query.Cache
	rec   recorder
}

// NewTasks returns a task service
func NewTasks(gw TaskGateway, cache *query.Cache, log *zap.Logger) *Tasks {
	return &Tasks{api: gw, cache: cache, rec: newRecorder(cache, log)}
}

// TaskDraft is the content of the task form
type TaskDraft struct {
	Title       string
	Description string
	Status      models.Status
	Priority    models.Priority
	// AssigneeID is nil to leave the assignee as it is; an empty id unassigns
	AssigneeID  *string
	StartDate   *time.Time
	EndDate     *time.Time
	Files       []attachments.Staged
}

// Task fetches one task
func (s *Tasks) Task(ctx context.Context, id string) (models.Task, error) {
	return query.Fetch(ctx, s.cache, query.Task(id), func(ctx context.Context) (models.Task, error) {
		return s.api.Task(ctx, id)
	})
}

// All lists every visible task
func (s *Tasks) All(ctx context.Context) ([]models.Task, error) {
	return query.Fetch(ctx, s.cache, query.Tasks, s.api.Tasks)
}

// MyAssigned lists the tasks assigned to the signed-in user
func (s *Tasks) MyAssigned(ctx context.Context) ([]models.Task, error) {
	return query.Fetch(ctx, s.cache, query.MyAssigned, s.api.MyAssignedTasks)
}

// MyCreated lists the tasks the signed-in user created
func (s *Tasks) MyCreated(ctx context.Context) ([]models.Task, error) {
	return query.Fetch(ctx, s.cache, query.MyCreated, s.api.MyCreatedTasks)
}

// Search runs a filtered task search
func (s *Tasks) Search(ctx context.Context, p api.SearchParams) ([]models.Task, error) {
	p.Query = strings.TrimSpace(p.Query)
	if p.Query == "" {
		return nil, nil
	}
	key := query.Search(p.Query, p.ProjectID, string(p.Status), string(p.Priority))
	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]models.Task, error) {
		return s.api.SearchTasks(ctx, p)
	})
}

func taskFields(task models.Task, user models.User) []zap.Field {
	return []zap.Field{zap.String("task_id", task.ID), zap.String("user_id", user.ID)}
}

// ChangeStatus moves task to status `to` through the general status path
func (s *Tasks) ChangeStatus(ctx context.Context, user models.User, task models.Task, to models.Status) error {
	const action = "change_status"
	fields := append(taskFields(task, user), zap.String("status", string(to)))
	if err := lifecycle.ValidateTransition(permissions.ForTask(user, task), task, to); err != nil {
		return s.rec.rejected(action, err, fields...)
	}
	if err := s.api.UpdateTaskStatus(ctx, task.ID, to); err != nil {
		return s.rec.failed(action, err, query.AffectedByTask(task), fields...)
	}
	s.rec.succeeded(action, query.AffectedByTask(task), fields...)
	return nil
}

// Complete marks task DONE through the dedicated complete action
func (s *Tasks) Complete(ctx context.Context, user models.User, task models.Task) error {
	const action = "complete"
	fields := taskFields(task, user)
	if err := lifecycle.ValidateComplete(permissions.ForTask(user, task), task); err != nil {
		return s.rec.rejected(action, err, fields...)
	}
	if err := s.api.CompleteTask(ctx, task.ID); err != nil {
		return s.rec.failed(action, err, query.AffectedByTask(task), fields...)
	}
	s.rec.succeeded(action, query.AffectedByTask(task), fields...)
	return nil
}

// Reassign hands task to assigneeID, or unassigns it when the id is empty
func (s *Tasks) Reassign(ctx context.Context, user models.User, task models.Task, assigneeID string) error {
	const action = "reassign"
	fields := append(taskFields(task, user), zap.String("assignee_id", assigneeID))
	if err := lifecycle.ValidateReassign(permissions.ForTask(user, task), task, assigneeID); err != nil {
		return s.rec.rejected(action, err, fields...)
	}
	if err := s.api.ReassignTask(ctx, task.ID, assigneeID); err != nil {
		return s.rec.failed(action, err, query.AffectedByTask(task), fields...)
	}
	s.rec.succeeded(action, query.AffectedByTask(task), fields...)
	return nil
}

// ChangePriority sets task's priority
func (s *Tasks) ChangePriority(ctx context.Context, user models.User, task models.Task, p models.Priority) error {
	const action = "change_priority"
	fields := append(taskFields(task, user), zap.String("priority", string(p)))
	if err := lifecycle.ValidatePriority(permissions.ForTask(user, task), task, p); err != nil {
		return s.rec.rejected(action, err, fields...)
	}
	if err := s.api.UpdateTaskPriority(ctx, task.ID, p); err != nil {
		return s.rec.failed(action, err, query.AffectedByTask(task), fields...)
	}
	s.rec.succeeded(action, query.AffectedByTask(task), fields...)
	return nil
}

// ChangeDeadline sets or clears task's end date
func (s *Tasks) ChangeDeadline(ctx context.Context, user models.User, task models.Task, end *time.Time) error {
	const action = "change_deadline"
	fields := taskFields(task, user)
	if err := lifecycle.ValidateDeadline(permissions.ForTask(user, task), task, end); err != nil {
		return s.rec.rejected(action, err, fields...)
	}
	if err := s.api.UpdateTaskDeadline(ctx, task.ID, end); err != nil {
		return s.rec.failed(action, err, query.AffectedByTask(task), fields...)
	}
	s.rec.succeeded(action, query.AffectedByTask(task), fields...)
	return nil
}

// AddAttachments uploads staged files to task
func (s *Tasks) AddAttachments(ctx context.Context, user models.User, task models.Task, files []attachments.Staged) error {
	const action = "add_attachments"
	fields := append(taskFields(task, user), zap.Int("files", len(files)))
	if err := lifecycle.ValidateAttach(permissions.ForTask(user, task), len(files)); err != nil {
		return s.rec.rejected(action, err, fields...)
	}
	if err := s.api.AddTaskFiles(ctx, task.ID, uploads(files)); err != nil {
		return s.rec.failed(action, err, query.AffectedByTask(task), fields...)
	}
	s.rec.succeeded(action, query.AffectedByTask(task), fields...)
	return nil
}

// Comment posts a comment on task. Any signed-in viewer may comment; files
// need the attach capability.
func (s *Tasks) Comment(ctx context.Context, user models.User, task models.Task, content string, files []attachments.Staged) (models.Comment, error) {
	const action = "comment"
	fields := append(taskFields(task, user), zap.Int("files", len(files)))
	if strings.TrimSpace(content) == "" && len(files) == 0 {
		return models.Comment{}, s.rec.rejected(action, apperr.Invalid(apperr.CodeCommentEmpty), fields...)
	}
	if len(files) > 0 {
		if err := lifecycle.ValidateAttach(permissions.ForTask(user, task), len(files)); err != nil {
			return models.Comment{}, s.rec.rejected(action, err, fields...)
		}
	}
	cm, err := s.api.CreateComment(ctx, task.ID, content, uploads(files))
	if err != nil {
		return models.Comment{}, s.rec.failed(action, err, query.AffectedByTask(task), fields...)
	}
	s.rec.succeeded(action, []query.Key{query.Task(task.ID)}, fields...)
	return cm, nil
}

// Create submits the new-task form for project. project is nil when none is
// selected yet.
func (s *Tasks) Create(ctx context.Context, user models.User, project *models.Project, d TaskDraft) (models.Task, error) {
	const action = "create_task"
	fields := []zap.Field{zap.String("user_id", user.ID), zap.Int("files", len(d.Files))}
	in, err := validateCreate(user, project, d)
	if err != nil {
		return models.Task{}, s.rec.rejected(action, err, fields...)
	}
	fields = append(fields, zap.String("project_id", project.ID))

	task, err := s.api.CreateTask(ctx, in, uploads(d.Files))
	if err != nil {
		return models.Task{}, s.rec.failed(action, err, nil, fields...)
	}
	s.rec.succeeded(action, []query.Key{query.Tasks, query.Project(project.ID), query.Projects},
		append(fields, zap.String("task_id", task.ID))...)
	return task, nil
}

func validateCreate(user models.User, project *models.Project, d TaskDraft) (api.TaskInput, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return api.TaskInput{}, apperr.Invalid(apperr.CodeTitleRequired)
	}
	if project == nil || project.ID == "" {
		return api.TaskInput{}, apperr.Invalid(apperr.CodeProjectRequired)
	}
	if !permissions.ForProject(user, *project).CreateTask {
		return api.TaskInput{}, apperr.Forbidden(apperr.CodeCannotCreateTask)
	}
	if d.Status == "" {
		d.Status = models.StatusTodo
	}
	if d.Priority == "" {
		d.Priority = models.PriorityMedium
	}
	if !d.Status.Valid() {
		return api.TaskInput{}, apperr.Invalid(apperr.CodeInvalidStatus)
	}
	if !d.Priority.Valid() {
		return api.TaskInput{}, apperr.Invalid(apperr.CodeInvalidPriority)
	}
	assigneeID := deref(d.AssigneeID)
	if err := permissions.ValidateAssignee(*project, assigneeID); err != nil {
		return api.TaskInput{}, err
	}
	if err := lifecycle.ValidateDates(d.StartDate, d.EndDate); err != nil {
		return api.TaskInput{}, err
	}
	in := api.TaskInput{
		Title:     title,
		Status:    d.Status,
		Priority:  d.Priority,
		ProjectID: project.ID,
		StartDate: d.StartDate,
		EndDate:   d.EndDate,
	}
	if desc := strings.TrimSpace(d.Description); desc != "" {
		in.Description = &desc
	}
	if assigneeID != "" {
		in.AssigneeID = &assigneeID
	}
	return in, nil
}

// Update submits the edit form for task. Only changed fields are sent.
func (s *Tasks) Update(ctx context.Context, user models.User, task models.Task, d TaskDraft) (models.Task, error) {
	const action = "update_task"
	fields := append(taskFields(task, user), zap.Int("files", len(d.Files)))
	in, err := validateUpdate(user, task, d)
	if err != nil {
		return models.Task{}, s.rec.rejected(action, err, fields...)
	}
	updated, err := s.api.UpdateTask(ctx, task.ID, in, uploads(d.Files))
	if err != nil {
		return models.Task{}, s.rec.failed(action, err, query.AffectedByTask(task), fields...)
	}
	s.rec.succeeded(action, query.AffectedByTask(task), fields...)
	return updated, nil
}

func validateUpdate(user models.User, task models.Task, d TaskDraft) (api.TaskInput, error) {
	caps := permissions.ForTask(user, task)
	if err := lifecycle.ValidateEdit(caps); err != nil {
		return api.TaskInput{}, err
	}
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return api.TaskInput{}, apperr.Invalid(apperr.CodeTitleRequired)
	}
	in := api.TaskInput{}
	if title != task.Title {
		in.Title = title
	}
	desc := strings.TrimSpace(d.Description)
	if old := deref(task.Description); desc != old {
		in.Description = &desc
	}
	if d.Status != "" && d.Status != task.Status {
		if err := lifecycle.ValidateTransition(caps, task, d.Status); err != nil {
			return api.TaskInput{}, err
		}
		in.Status = d.Status
	}
	if d.Priority != "" && d.Priority != task.Priority {
		if err := lifecycle.ValidatePriority(caps, task, d.Priority); err != nil {
			return api.TaskInput{}, err
		}
		in.Priority = d.Priority
	}
	if d.AssigneeID != nil && *d.AssigneeID != task.AssigneeUserID() {
		id := *d.AssigneeID
		if err := lifecycle.ValidateReassign(caps, task, id); err != nil {
			return api.TaskInput{}, err
		}
		in.AssigneeID = &id
	}
	start, end := task.StartDate, task.EndDate
	if d.StartDate != nil {
		start = d.StartDate
		in.StartDate = d.StartDate
	}
	if d.EndDate != nil {
		end = d.EndDate
		in.EndDate = d.EndDate
	}
	if err := lifecycle.ValidateDates(start, end); err != nil {
		return api.TaskInput{}, err
	}
	if len(d.Files) > 0 {
		if err := lifecycle.ValidateAttach(caps, len(d.Files)); err != nil {
			return api.TaskInput{}, err
		}
	}
	return in, nil
}

// Delete removes task
func (s *Tasks) Delete(ctx context.Context, user models.User, task models.Task) error {
	const action = "delete_task"
	fields := taskFields(task, user)
	if err := lifecycle.ValidateDelete(permissions.ForTask(user, task)); err != nil {
		return s.rec.rejected(action, err, fields...)
	}
	if err := s.api.DeleteTask(ctx, task.ID); err != nil {
		return s.rec.failed(action, err, query.AffectedByTask(task), fields...)
	}
	s.rec.succeeded(action, query.AffectedByTask(task), fields...)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
