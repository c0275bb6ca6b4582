package views

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/tgienger/tasker/internal/db"
	"github.com/tgienger/tasker/internal/models"
	"github.com/tgienger/tasker/internal/service"
	"github.com/tgienger/tasker/internal/session"
)

// Deps are the collaborators shared by every view
type Deps struct {
	Tasks    *service.Tasks
	Projects *service.Projects
	Teams    *service.Teams
	Session  *session.Provider
	DB       *db.DB
	Log      *zap.Logger

	Lang    string
	Timeout time.Duration
	Refresh time.Duration
}

func (d Deps) ctx() (context.Context, context.CancelFunc) {
	if d.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d.Timeout)
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

// SelectedProject opens the task list of a project
type SelectedProject struct {
	Project models.Project
}

// BackToProjects signals to go back to project list
type BackToProjects struct{}

// OpenTask opens the detail view of a task
type OpenTask struct {
	Task    models.Task
	Project models.Project
}

// BackToTasks returns from a task screen to the task list
type BackToTasks struct{}

// OpenTaskForm opens the task form. Task is nil for a new task.
type OpenTaskForm struct {
	Project models.Project
	Task    *models.Task
}

// OpenTeams opens the team list
type OpenTeams struct{}

// errMsg carries a failed load or mutation back to the view that started it
type errMsg struct {
	err error
}

// doneMsg reports a finished mutation
type doneMsg struct {
	action string
	err    error
}

// RefreshMsg asks the visible view to refetch its data
type RefreshMsg struct {
	At time.Time
}

// RefreshEvery schedules the next RefreshMsg
func RefreshEvery(d time.Duration) tea.Cmd {
	if d <= 0 {
		return nil
	}
	return tea.Tick(d, func(t time.Time) tea.Msg { return RefreshMsg{At: t} })
}

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
