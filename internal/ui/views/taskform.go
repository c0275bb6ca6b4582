package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/attachments"
	"github.com/tgienger/tasker/internal/db"
	"github.com/tgienger/tasker/internal/models"
	"github.com/tgienger/tasker/internal/permissions"
	"github.com/tgienger/tasker/internal/service"
	"github.com/tgienger/tasker/internal/ui/keys"
	"github.com/tgienger/tasker/internal/ui/styles"
)

// form fields in focus order
const (
	fieldTitle = iota
	fieldDesc
	fieldStatus
	fieldPriority
	fieldAssignee
	fieldStart
	fieldEnd
	fieldSave
	fieldCount
)

// TaskSaved reports a created or updated task
type TaskSaved struct {
	Task    models.Task
	Project models.Project
}

type taskSavedMsg struct {
	task models.Task
	err  error
}

type formDraftMsg struct {
	draft db.Draft
}

// TaskFormView creates a task, or edits one when task is set
type TaskFormView struct {
	deps    Deps
	project models.Project
	task    *models.Task
	styles  *styles.Styles
	keys    keys.KeyMap
	banner  banner

	width  int
	height int

	title     textinput.Model
	desc      textarea.Model
	startDate textinput.Model
	endDate   textinput.Model
	status    models.Status
	priority  models.Priority
	assignees []models.User
	assignIdx int // 0 = unassigned
	// assignSet is true once the user moved the assignee choice. Until then an
	// edit leaves the assignee alone, even one missing from the roster.
	assignSet bool

	files    *attachments.Batch
	picker   picker
	picking  bool
	focusIdx int
	busy     bool
}

// NewTaskFormView opens the form. task is nil for a new task.
func NewTaskFormView(deps Deps, project models.Project, task *models.Task) *TaskFormView {
	title := textinput.New()
	title.Placeholder = "Task title"
	title.CharLimit = 200

	desc := textarea.New()
	desc.Placeholder = "Description"
	desc.CharLimit = 2000
	desc.SetWidth(50)
	desc.SetHeight(3)
	desc.ShowLineNumbers = false

	startDate := textinput.New()
	startDate.Placeholder = "YYYY-MM-DD"
	startDate.CharLimit = 10

	endDate := textinput.New()
	endDate.Placeholder = "YYYY-MM-DD"
	endDate.CharLimit = 10

	v := &TaskFormView{
		deps:      deps,
		project:   project,
		task:      task,
		styles:    styles.NewStyles(),
		keys:      keys.DefaultKeyMap(),
		title:     title,
		desc:      desc,
		startDate: startDate,
		endDate:   endDate,
		status:    models.StatusTodo,
		priority:  models.PriorityMedium,
		assignees: permissions.Assignees(project),
		files:     &attachments.Batch{},
	}

	if task != nil {
		v.title.SetValue(task.Title)
		v.desc.SetValue(deref(task.Description))
		v.status = task.Status
		v.priority = task.Priority
		if task.StartDate != nil {
			v.startDate.SetValue(task.StartDate.Local().Format("2006-01-02"))
		}
		if task.EndDate != nil {
			v.endDate.SetValue(task.EndDate.Local().Format("2006-01-02"))
		}
		current := task.AssigneeUserID()
		for i, u := range v.assignees {
			if u.ID == current {
				v.assignIdx = i + 1
			}
		}
	}
	v.updateFocus()
	return v
}

func (v *TaskFormView) draftKey() string {
	if v.task == nil {
		return db.NewTaskDraftKey
	}
	return db.EditTaskDraftKey(v.task.ID)
}

// Init restores a saved draft of this form
func (v *TaskFormView) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, v.loadDraft)
}

func (v *TaskFormView) loadDraft() tea.Msg {
	if v.deps.DB == nil {
		return nil
	}
	d, ok, err := v.deps.DB.GetDraft(v.draftKey())
	if err != nil {
		v.deps.logger().Warn("load task draft", zap.String("key", v.draftKey()), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return formDraftMsg{draft: d}
}

func (v *TaskFormView) saveDraft() {
	if v.deps.DB == nil {
		return
	}
	err := v.deps.DB.SaveDraft(db.Draft{
		Key:   v.draftKey(),
		Title: v.title.Value(),
		Body:  v.desc.Value(),
		Files: v.files.Paths(),
	})
	if err != nil {
		v.deps.logger().Warn("save task draft", zap.String("key", v.draftKey()), zap.Error(err))
	}
}

func (v *TaskFormView) dropDraft() {
	if v.deps.DB == nil {
		return
	}
	if err := v.deps.DB.DeleteDraft(v.draftKey()); err != nil {
		v.deps.logger().Warn("delete task draft", zap.String("key", v.draftKey()), zap.Error(err))
	}
}

// draft reads the form into a service draft
func (v *TaskFormView) draft() (service.TaskDraft, error) {
	start, ok := parseDate(v.startDate.Value())
	if !ok {
		return service.TaskDraft{}, apperr.Invalid(apperr.CodeInvalidDate)
	}
	end, ok := parseDate(v.endDate.Value())
	if !ok {
		return service.TaskDraft{}, apperr.Invalid(apperr.CodeInvalidDate)
	}
	d := service.TaskDraft{
		Title:       v.title.Value(),
		Description: v.desc.Value(),
		Status:      v.status,
		Priority:    v.priority,
		StartDate:   start,
		EndDate:     end,
		Files:       v.files.Items(),
	}
	if v.task == nil || v.assignSet {
		id := ""
		if v.assignIdx > 0 {
			id = v.assignees[v.assignIdx-1].ID
		}
		d.AssigneeID = &id
	}
	return d, nil
}

func (v *TaskFormView) save() tea.Cmd {
	if v.busy {
		return nil
	}
	user, err := v.deps.Session.Current()
	if err != nil {
		v.banner.fail(err, v.deps.Lang)
		return nil
	}
	d, err := v.draft()
	if err != nil {
		v.banner.fail(err, v.deps.Lang)
		return nil
	}
	v.busy = true
	project, task := v.project, v.task
	return func() tea.Msg {
		ctx, cancel := v.deps.ctx()
		defer cancel()
		var saved models.Task
		var err error
		if task == nil {
			saved, err = v.deps.Tasks.Create(ctx, user, &project, d)
		} else {
			saved, err = v.deps.Tasks.Update(ctx, user, *task, d)
		}
		return taskSavedMsg{task: saved, err: err}
	}
}

// Update handles messages
func (v *TaskFormView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.desc.SetWidth(clamp(contentWidth-10, 20, 50))
		if v.picking {
			v.picker.resize(v.width, v.height)
		}
		return v, nil

	case formDraftMsg:
		if strings.TrimSpace(msg.draft.Title) != "" {
			v.title.SetValue(msg.draft.Title)
		}
		if strings.TrimSpace(msg.draft.Body) != "" {
			v.desc.SetValue(msg.draft.Body)
		}
		if v.files.Len() == 0 {
			v.files = attachments.Restore(msg.draft.Files)
		}
		v.banner.notice("Restored unsaved changes")
		return v, nil

	case taskSavedMsg:
		v.busy = false
		if msg.err != nil {
			v.saveDraft()
			v.banner.fail(msg.err, v.deps.Lang)
			return v, nil
		}
		v.dropDraft()
		v.files.Clear()
		return v, send(TaskSaved{Task: msg.task, Project: v.project})

	case tea.KeyMsg:
		if v.picking {
			return v.updatePicking(msg)
		}
		return v.updateEditing(msg)
	}

	if v.picking {
		return v.updatePicking(msg)
	}
	return v, nil
}

func (v *TaskFormView) updatePicking(msg tea.Msg) (tea.Model, tea.Cmd) {
	res, cmd := v.picker.update(msg)
	if res.done {
		v.picking = false
		if err := stage(v.files, res); err != nil {
			v.banner.fail(err, v.deps.Lang)
		}
	}
	return v, cmd
}

func (v *TaskFormView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.busy {
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		// Leaving keeps nothing; drafts are only written by failed saves
		return v, send(BackToTasks{})

	case key.Matches(msg, v.keys.Save):
		return v, v.save()

	case key.Matches(msg, v.keys.Tab):
		v.focusIdx = (v.focusIdx + 1) % fieldCount
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.ShiftTab):
		v.focusIdx = (v.focusIdx + fieldCount - 1) % fieldCount
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Document):
		v.picking = true
		return v, v.picker.start(attachments.Document, v.width, v.height)

	case key.Matches(msg, v.keys.Image):
		v.picking = true
		return v, v.picker.start(attachments.Image, v.width, v.height)

	case key.Matches(msg, v.keys.Unstage):
		v.files.Remove(v.files.Len() - 1)
		return v, nil

	case key.Matches(msg, v.keys.Left), key.Matches(msg, v.keys.Right):
		dir := 1
		if key.Matches(msg, v.keys.Left) {
			dir = -1
		}
		if v.cycle(dir) {
			return v, nil
		}

	case key.Matches(msg, v.keys.Enter):
		switch v.focusIdx {
		case fieldSave:
			return v, v.save()
		case fieldDesc:
			// Let enter pass through for newlines
		default:
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case fieldTitle:
		v.title, cmd = v.title.Update(msg)
	case fieldDesc:
		v.desc, cmd = v.desc.Update(msg)
	case fieldStart:
		v.startDate, cmd = v.startDate.Update(msg)
	case fieldEnd:
		v.endDate, cmd = v.endDate.Update(msg)
	}
	return v, cmd
}

// cycle steps the focused choice field. It returns false when the focused
// field is not a choice.
func (v *TaskFormView) cycle(dir int) bool {
	switch v.focusIdx {
	case fieldStatus:
		v.status = step(models.Statuses, v.status, dir)
	case fieldPriority:
		v.priority = step(models.Priorities, v.priority, dir)
	case fieldAssignee:
		n := len(v.assignees) + 1
		v.assignIdx = ((v.assignIdx+dir)%n + n) % n
		v.assignSet = true
	default:
		return false
	}
	return true
}

func step[T comparable](values []T, cur T, dir int) T {
	i := 0
	for j, x := range values {
		if x == cur {
			i = j
		}
	}
	n := len(values)
	return values[((i+dir)%n+n)%n]
}

func (v *TaskFormView) updateFocus() {
	v.title.Blur()
	v.desc.Blur()
	v.startDate.Blur()
	v.endDate.Blur()

	switch v.focusIdx {
	case fieldTitle:
		v.title.Focus()
	case fieldDesc:
		v.desc.Focus()
	case fieldStart:
		v.startDate.Focus()
	case fieldEnd:
		v.endDate.Focus()
	}
}

// View renders the view
func (v *TaskFormView) View() string {
	if v.picking {
		return v.picker.view(v.styles, v.width, v.height)
	}

	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-10, 20, 50)

	style := func(idx int) lipgloss.Style {
		if v.focusIdx == idx {
			return s.InputFocused
		}
		return s.Input
	}
	choice := func(idx int, label string) string {
		st := s.Button
		if v.focusIdx == idx {
			st = s.ButtonFocused
			label = "◀ " + label + " ▶"
		}
		return st.Render(label)
	}

	formTitle := "New Task in " + clean(v.project.Name)
	if v.task != nil {
		formTitle = "Edit Task"
	}

	assignee := "Unassigned"
	switch {
	case v.assignIdx > 0:
		assignee = clean(v.assignees[v.assignIdx-1].DisplayName())
	case !v.assignSet && v.task != nil && v.task.Assignee != nil:
		assignee = userName(v.task.Assignee)
	}

	btnStyle := s.Button
	label := " Save "
	switch {
	case v.busy:
		btnStyle = s.Button.Foreground(styles.Current.ForegroundDim)
		label = " Saving... "
	case v.focusIdx == fieldSave:
		btnStyle = s.ButtonFocused
	}

	files := s.TitleMuted.Render("No files. Ctrl+O: document • Ctrl+G: image")
	if v.files.Len() > 0 {
		lines := make([]string, 0, v.files.Len()+1)
		for _, f := range v.files.Items() {
			lines = append(lines, f.Name+" "+s.TitleMuted.Render(attachments.FormatSize(f.Size)))
		}
		lines = append(lines, s.TitleMuted.Render(fmt.Sprintf("%d files, %s • Ctrl+X: remove last", v.files.Len(), attachments.FormatSize(v.files.Total()))))
		files = lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		v.banner.view(s, inputWidth+4),
		s.Title.Render(formTitle),
		"",
		"Title:",
		style(fieldTitle).Width(inputWidth).Render(v.title.View()),
		"Description:",
		style(fieldDesc).Render(v.desc.View()),
		lipgloss.JoinHorizontal(lipgloss.Center,
			"Status: ", choice(fieldStatus, v.status.Label()),
			"  Priority: ", choice(fieldPriority, string(v.priority)),
		),
		"Assignee: "+choice(fieldAssignee, assignee),
		lipgloss.JoinHorizontal(lipgloss.Center,
			"Start: ", style(fieldStart).Width(14).Render(v.startDate.View()),
			"  End: ", style(fieldEnd).Width(14).Render(v.endDate.View()),
		),
		"Files:",
		files,
		"",
		btnStyle.Render(label),
		"",
		s.TitleMuted.Render("Tab: next • ←/→: change • Ctrl+S: save • Esc: cancel"),
	)

	padded := lipgloss.NewStyle().Padding(1, 2).Render(form)
	return styles.CenterView(padded, v.width, v.height)
}
