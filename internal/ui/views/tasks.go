package views

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tasker/internal/api"
	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/lifecycle"
	"github.com/tgienger/tasker/internal/models"
	"github.com/tgienger/tasker/internal/permissions"
	"github.com/tgienger/tasker/internal/ui/keys"
	"github.com/tgienger/tasker/internal/ui/styles"
)

// FocusArea represents which part of the UI has focus
type FocusArea int

const (
	FocusBackButton FocusArea = iota
	FocusSearchInput
	FocusScope
	FocusTaskList
)

// Scope selects which task list the view shows
type Scope int

const (
	ScopeAll Scope = iota
	ScopeAssigned
	ScopeCreated
	ScopeSearch
)

func (s Scope) String() string {
	switch s {
	case ScopeAssigned:
		return "Assigned to me"
	case ScopeCreated:
		return "Created by me"
	case ScopeSearch:
		return "Search results"
	}
	return "All tasks"
}

// next cycles the list scopes. Search is only entered from the search box.
func (s Scope) next() Scope {
	switch s {
	case ScopeAll:
		return ScopeAssigned
	case ScopeAssigned:
		return ScopeCreated
	}
	return ScopeAll
}

// TaskListView shows tasks for a project
type TaskListView struct {
	deps    Deps
	project models.Project
	tasks   []models.Task // current scope, every status
	visible []models.Task // after the completed toggle and local search
	styles  *styles.Styles
	keys    keys.KeyMap
	banner  banner

	width  int
	height int

	// UI state
	focus       FocusArea
	cursor      int
	scrollY     int
	searchInput textinput.Model
	scope       Scope
	loaded      bool

	// Show completed tasks mode
	showingCompleted bool

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewTaskListView creates a new task list view
func NewTaskListView(deps Deps, project models.Project) *TaskListView {
	search := textinput.New()
	search.Placeholder = "Search tasks..."
	search.CharLimit = 100

	return &TaskListView{
		deps:        deps,
		project:     project,
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		focus:       FocusTaskList,
		searchInput: search,
	}
}

// Project returns the project the list belongs to
func (v *TaskListView) Project() models.Project { return v.project }

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return v.loadTasks
}

type tasksLoadedMsg struct {
	project models.Project
	tasks   []models.Task
}

func (v *TaskListView) loadTasks() tea.Msg {
	ctx, cancel := v.deps.ctx()
	defer cancel()

	project, err := v.deps.Projects.Get(ctx, v.project.ID)
	if err != nil {
		return errMsg{err: err}
	}

	var tasks []models.Task
	switch v.scope {
	case ScopeAssigned:
		tasks, err = v.deps.Tasks.MyAssigned(ctx)
	case ScopeCreated:
		tasks, err = v.deps.Tasks.MyCreated(ctx)
	case ScopeSearch:
		tasks, err = v.deps.Tasks.Search(ctx, api.SearchParams{
			Query:     v.searchInput.Value(),
			ProjectID: project.ID,
		})
	default:
		tasks, err = v.deps.Tasks.All(ctx)
	}
	if err != nil {
		return errMsg{err: err}
	}
	return tasksLoadedMsg{project: project, tasks: inProject(tasks, project)}
}

// inProject keeps the tasks of project and points each at it, so the
// permission resolver sees the project's owner and team
func inProject(tasks []models.Task, project models.Project) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		pid := t.ProjectID
		if pid == "" && t.Project != nil {
			pid = t.Project.ID
		}
		if pid != project.ID {
			continue
		}
		if t.Project == nil || t.Project.Team == nil {
			p := project
			t.Project = &p
		}
		out = append(out, t)
	}
	return out
}

// visibleTasks applies the completed toggle and the local search. Active
// tasks are ordered by priority, highest first.
func visibleTasks(tasks []models.Task, completed bool, search string) []models.Task {
	var out []models.Task
	if completed {
		out = lifecycle.Done(tasks)
	} else {
		out = lifecycle.Active(tasks)
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return cmp.Compare(b.Priority.Rank(), a.Priority.Rank())
		})
	}
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return out
	}
	return slices.DeleteFunc(out, func(t models.Task) bool {
		text := strings.ToLower(t.Title + " " + deref(t.Description))
		return !strings.Contains(text, search)
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (v *TaskListView) refilter() {
	search := v.searchInput.Value()
	if v.scope == ScopeSearch {
		search = ""
	}
	v.visible = visibleTasks(v.tasks, v.showingCompleted, search)
	if v.cursor >= len(v.visible) {
		v.cursor = max(0, len(v.visible)-1)
	}
	v.ensureVisible()
}

func (v *TaskListView) selected() (models.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.visible) {
		return models.Task{}, false
	}
	return v.visible[v.cursor], true
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case tasksLoadedMsg:
		v.project = msg.project
		v.tasks = msg.tasks
		v.loaded = true
		v.refilter()
		return v, nil

	case errMsg:
		v.loaded = true
		v.banner.fail(msg.err, v.deps.Lang)
		if apperr.IsKind(msg.err, apperr.KindNotFound) && apperr.CodeOf(msg.err) == apperr.CodeProjectNotFound {
			return v, send(BackToProjects{})
		}
		return v, nil

	case RefreshMsg:
		if v.focus == FocusSearchInput {
			return v, nil
		}
		return v, v.loadTasks

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle search input typing first - don't process hotkeys while typing
	if v.focus == FocusSearchInput {
		switch {
		case key.Matches(msg, v.keys.Back):
			v.searchInput.Blur()
			v.focus = FocusTaskList
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			v.searchInput.Blur()
			v.focus = FocusTaskList
			if strings.TrimSpace(v.searchInput.Value()) == "" {
				if v.scope == ScopeSearch {
					v.scope = ScopeAll
					return v, v.loadTasks
				}
				return v, nil
			}
			// Enter runs the search on the server
			v.scope = ScopeSearch
			v.cursor = 0
			v.scrollY = 0
			return v, v.loadTasks
		default:
			var cmd tea.Cmd
			v.searchInput, cmd = v.searchInput.Update(msg)
			v.refilter()
			return v, cmd
		}
	}

	v.banner.clear()

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if v.scope == ScopeSearch {
			v.scope = ScopeAll
			v.searchInput.Reset()
			return v, v.loadTasks
		}
		return v, send(BackToProjects{})

	case key.Matches(msg, v.keys.Tab):
		v.cycleFocus(1)
		return v, nil

	case key.Matches(msg, v.keys.ShiftTab):
		v.cycleFocus(-1)
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.focus == FocusTaskList && v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.focus == FocusTaskList && v.cursor < len(v.visible)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.focus {
		case FocusBackButton:
			return v, send(BackToProjects{})
		case FocusScope:
			return v.nextScope()
		case FocusTaskList:
			if task, ok := v.selected(); ok {
				return v, send(OpenTask{Task: task, Project: v.project})
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Edit):
		task, ok := v.selected()
		if !ok || v.focus != FocusTaskList {
			return v, nil
		}
		if user, err := v.deps.Session.Current(); err != nil {
			v.banner.fail(err, v.deps.Lang)
			return v, nil
		} else if err := lifecycle.ValidateEdit(permissions.ForTask(user, task)); err != nil {
			v.banner.fail(err, v.deps.Lang)
			return v, nil
		}
		return v, send(OpenTaskForm{Project: v.project, Task: &task})

	case key.Matches(msg, v.keys.New):
		user, err := v.deps.Session.Current()
		if err != nil {
			v.banner.fail(err, v.deps.Lang)
			return v, nil
		}
		if !permissions.ForProject(user, v.project).CreateTask {
			v.banner.fail(apperr.Forbidden(apperr.CodeCannotCreateTask), v.deps.Lang)
			return v, nil
		}
		return v, send(OpenTaskForm{Project: v.project})

	case key.Matches(msg, v.keys.Search):
		v.focus = FocusSearchInput
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Filter):
		return v.nextScope()

	case key.Matches(msg, v.keys.Refresh):
		return v, v.loadTasks

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.ShowCompleted):
		v.showingCompleted = !v.showingCompleted
		v.cursor = 0
		v.scrollY = 0
		v.refilter()
		return v, nil
	}

	return v, nil
}

func (v *TaskListView) nextScope() (tea.Model, tea.Cmd) {
	v.scope = v.scope.next()
	v.searchInput.Reset()
	v.cursor = 0
	v.scrollY = 0
	return v, v.loadTasks
}

func (v *TaskListView) cycleFocus(dir int) {
	// Blur current
	v.searchInput.Blur()

	// Cycle
	v.focus = FocusArea((int(v.focus) + dir + 4) % 4)

	// Focus search if needed
	if v.focus == FocusSearchInput {
		v.searchInput.Focus()
	}
}

func (v *TaskListView) visibleItems() int {
	// Each task item is 2 lines + 1 margin = 3 lines
	availableHeight := max(v.height-13, 3)
	return max(availableHeight/3, 1)
}

func (v *TaskListView) ensureVisible() {
	visibleItems := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return helpPopup(v.styles, v.helpItems(), v.width, v.height)
	}

	var b strings.Builder

	b.WriteString(v.banner.view(v.styles, styles.ContentWidth(v.width)))

	// Header with back button, search, and scope
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")

	b.WriteString(v.renderTaskList())

	b.WriteString("\n")
	if v.loaded && len(v.visible) > 0 {
		b.WriteString(v.styles.StatusBar.Render(countLine(len(v.visible), len(v.tasks))))
		b.WriteString("\n")
	}
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	isNarrow := contentWidth < 60

	// Search input - dynamic width
	searchStyle := s.Input
	if v.focus == FocusSearchInput {
		searchStyle = s.InputFocused
	}
	searchWidth := clamp(contentWidth-8, 10, 30)
	searchBox := searchStyle.Width(searchWidth).Render(v.searchInput.View())

	scopeStyle := s.Button
	if v.focus == FocusScope {
		scopeStyle = s.ButtonFocused
	}
	scopeLabel := v.scope.String()
	if !isNarrow {
		scopeLabel = "Show: " + scopeLabel
	}
	scopeBtn := scopeStyle.Render(scopeLabel + " ▼")

	// Title - add indicator when viewing completed tasks
	titleText := clean(v.project.Name)
	if v.showingCompleted {
		titleText += " (Completed)"
	}
	title := s.TitleBar.Render(titleText)

	var header string
	if isNarrow {
		// Narrow: stack vertically, no back button (esc still works)
		header = lipgloss.JoinVertical(lipgloss.Left, searchBox, scopeBtn)
	} else {
		backStyle := s.Button
		if v.focus == FocusBackButton {
			backStyle = s.ButtonFocused
		}
		backBtn := backStyle.Render("← Projects")

		header = lipgloss.JoinHorizontal(lipgloss.Center,
			backBtn, "  ", searchBox, "  ", scopeBtn,
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, header)
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if !v.loaded {
		return s.TitleMuted.Render("Loading...")
	}
	if len(v.visible) == 0 {
		if v.showingCompleted {
			return s.TitleMuted.Render("No completed tasks.")
		}
		return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	var items []string
	endIdx := min(v.scrollY+v.visibleItems(), len(v.visible))

	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTaskItem(v.visible[i], i == v.cursor && v.focus == FocusTaskList))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-6, 20)

	name := clean(task.Title)
	if !selected {
		name = s.TaskTitle.Render(name)
	}
	titleLine := priorityBadge(s, task.Priority) + statusBadge(s, task.Status) + name

	meta := []string{userName(task.Assignee)}
	switch {
	case overdue(task, time.Now()):
		meta = append(meta, s.TaskOverdue.Render("overdue "+formatDate(task.EndDate)))
	case task.EndDate != nil:
		meta = append(meta, "due "+formatDate(task.EndDate))
	}
	if n := len(task.Comments); n > 0 {
		meta = append(meta, fmt.Sprintf("%d comments", n))
	}
	if n := len(task.Files); n > 0 {
		meta = append(meta, fmt.Sprintf("%d files", n))
	}
	metaLine := strings.Join(meta, " · ")

	var titleStyle, metaStyle lipgloss.Style
	if selected {
		titleStyle = s.ListSelected.Width(width)
		metaStyle = s.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = s.ListItem.Width(width)
		metaStyle = s.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	// Return two-line item with margin
	return s.TaskItem.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(titleLine), metaStyle.Render(metaLine))) + "\n"
}

// overdue reports whether an unfinished task is past its end date
func overdue(task models.Task, now time.Time) bool {
	if task.EndDate == nil || task.EndDate.IsZero() || task.Status == models.StatusDone {
		return false
	}
	return task.EndDate.Before(now)
}

func countLine(shown, total int) string {
	if shown == total {
		return fmt.Sprintf("%d tasks", total)
	}
	return fmt.Sprintf("%d of %d tasks", shown, total)
}

func (v *TaskListView) helpItems() [][2]string {
	completedLabel := "done"
	if v.showingCompleted {
		completedLabel = "active"
	}
	return [][2]string{
		{"↵", "view"},
		{"e", "edit"},
		{"n", "new"},
		{"/", "search"},
		{"f", "scope"},
		{"c", completedLabel},
		{"r", "refresh"},
		{"esc", "back"},
		{"q", "quit"},
	}
}

func (v *TaskListView) renderHelp() string {
	return helpLine(v.styles, v.width, v.helpItems())
}
