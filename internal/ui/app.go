package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/models"
	"github.com/tgienger/tasker/internal/ui/styles"
	"github.com/tgienger/tasker/internal/ui/views"
)

// LastProjectKey is the settings key of the project reopened on start
const LastProjectKey = "last_project_id"

// Currently active view
type View int

const (
	ViewProjects View = iota
	ViewTasks
	ViewTask
	ViewTaskForm
	ViewTeams
)

type App struct {
	deps        views.Deps
	currentView View
	projectList *views.ProjectListView
	taskList    *views.TaskListView
	taskDetail  *views.TaskDetailView
	taskForm    *views.TaskFormView
	teams       *views.TeamsView
	authErr     error
	width       int
	height      int
}

// NewApp creates a new application
func NewApp(deps views.Deps) *App {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &App{
		deps:        deps,
		currentView: ViewProjects,
		projectList: views.NewProjectListView(deps),
	}
}

func (a *App) Init() tea.Cmd {
	if _, err := a.deps.Session.Current(); err != nil {
		a.authErr = err
		return nil
	}

	tick := views.RefreshEvery(a.deps.Refresh)

	// Check for last opened project
	if a.deps.DB != nil {
		lastProjectID, err := a.deps.DB.GetSetting(LastProjectKey)
		if err == nil && lastProjectID != "" {
			return tea.Batch(tick, a.openProject(models.Project{ID: lastProjectID}))
		}
	}

	return tea.Batch(tick, a.projectList.Init())
}

// resize re-sends the window size so a freshly built view can lay itself out
func (a *App) resize() tea.Cmd {
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: a.width, Height: a.height}
	}
}

func (a *App) openProject(project models.Project) tea.Cmd {
	a.currentView = ViewTasks
	a.taskList = views.NewTaskListView(a.deps, project)

	// Save as last opened project
	a.setSetting(LastProjectKey, project.ID)

	return tea.Batch(a.taskList.Init(), a.resize())
}

func (a *App) setSetting(key, value string) {
	if a.deps.DB == nil {
		return
	}
	if err := a.deps.DB.SetSetting(key, value); err != nil {
		a.deps.Log.Warn("save setting", zap.String("key", key), zap.Error(err))
	}
}

func (a *App) backToTasks() tea.Cmd {
	a.taskDetail = nil
	a.taskForm = nil
	if a.taskList == nil {
		return a.backToProjects()
	}
	a.currentView = ViewTasks
	return tea.Batch(a.taskList.Init(), a.resize())
}

func (a *App) backToProjects() tea.Cmd {
	a.currentView = ViewProjects
	a.taskList = nil
	a.taskDetail = nil
	a.taskForm = nil
	a.teams = nil
	a.setSetting(LastProjectKey, "")
	return tea.Batch(a.projectList.Init(), a.resize())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Always update project list size since it persists
		a.projectList.Update(msg)

	case tea.KeyMsg:
		if a.authErr != nil {
			return a, tea.Quit
		}

	case views.RefreshMsg:
		_, cmd := a.current().Update(msg)
		return a, tea.Batch(cmd, views.RefreshEvery(a.deps.Refresh))

	case views.SelectedProject:
		return a, a.openProject(msg.Project)

	case views.BackToProjects:
		return a, a.backToProjects()

	case views.OpenTask:
		a.currentView = ViewTask
		a.taskDetail = views.NewTaskDetailView(a.deps, msg.Project, msg.Task)
		return a, tea.Batch(a.taskDetail.Init(), a.resize())

	case views.OpenTaskForm:
		a.currentView = ViewTaskForm
		a.taskForm = views.NewTaskFormView(a.deps, msg.Project, msg.Task)
		return a, tea.Batch(a.taskForm.Init(), a.resize())

	case views.TaskSaved:
		a.taskForm = nil
		a.currentView = ViewTask
		a.taskDetail = views.NewTaskDetailView(a.deps, msg.Project, msg.Task)
		return a, tea.Batch(a.taskDetail.Init(), a.resize())

	case views.BackToTasks:
		return a, a.backToTasks()

	case views.OpenTeams:
		a.currentView = ViewTeams
		a.teams = views.NewTeamsView(a.deps)
		return a, tea.Batch(a.teams.Init(), a.resize())
	}

	_, cmd := a.current().Update(msg)
	return a, cmd
}

func (a *App) current() tea.Model {
	switch a.currentView {
	case ViewTasks:
		if a.taskList != nil {
			return a.taskList
		}
	case ViewTask:
		if a.taskDetail != nil {
			return a.taskDetail
		}
	case ViewTaskForm:
		if a.taskForm != nil {
			return a.taskForm
		}
	case ViewTeams:
		if a.teams != nil {
			return a.teams
		}
	}
	return a.projectList
}

func (a *App) View() string {
	if a.authErr != nil {
		return a.renderSignedOut()
	}
	return a.current().View()
}

func (a *App) renderSignedOut() string {
	s := styles.NewStyles()
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render(apperr.Message(a.authErr, a.deps.Lang)),
		"",
		s.TitleMuted.Render("Sign in with: tasker login <token>"),
		s.TitleMuted.Render("or set TASKER_TOKEN"),
		"",
		s.TitleMuted.Render("Press any key to exit"),
	)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, content)
}
