package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/attachments"
	"github.com/tgienger/tasker/internal/db"
	"github.com/tgienger/tasker/internal/lifecycle"
	"github.com/tgienger/tasker/internal/mention"
	"github.com/tgienger/tasker/internal/models"
	"github.com/tgienger/tasker/internal/permissions"
	"github.com/tgienger/tasker/internal/ui/keys"
	"github.com/tgienger/tasker/internal/ui/styles"
)

type detailMode int

const (
	detailViewing detailMode = iota
	detailCommenting
	detailReassigning
	detailConfirmDelete
	detailPicking
)

type taskLoadedMsg struct {
	task models.Task
}

type commentDraftMsg struct {
	draft db.Draft
}

type commentSentMsg struct {
	err error
}

type taskDeletedMsg struct{}

const filesAttached = "Files attached"

// TaskDetailView shows one task with its comments and the actions the
// signed-in user may take on it
type TaskDetailView struct {
	deps    Deps
	project models.Project
	task    models.Task
	user    models.User
	caps    permissions.Capabilities
	styles  *styles.Styles
	keys    keys.KeyMap
	banner  banner

	width  int
	height int

	mode detailMode
	busy bool

	comment  textarea.Model
	composer *mention.Composer
	picker   picker

	// taskFiles waits for u to attach to the task, commentFiles goes out
	// with the next comment
	taskFiles    *attachments.Batch
	commentFiles *attachments.Batch

	assignees    []models.User
	assignCursor int // 0 = unassigned

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewTaskDetailView creates the detail view of task
func NewTaskDetailView(deps Deps, project models.Project, task models.Task) *TaskDetailView {
	comment := textarea.New()
	comment.Placeholder = "Add a comment... (@ to mention)"
	comment.CharLimit = 2000
	comment.SetWidth(50)
	comment.SetHeight(3)
	comment.ShowLineNumbers = false

	if task.Project == nil {
		p := project
		task.Project = &p
	}
	roster := permissions.Assignees(project)

	v := &TaskDetailView{
		deps:      deps,
		project:   project,
		task:      task,
		styles:    styles.NewStyles(),
		keys:      keys.DefaultKeyMap(),
		comment:   comment,
		composer:  mention.NewComposer(roster),
		assignees: roster,

		taskFiles:    &attachments.Batch{},
		commentFiles: &attachments.Batch{},
	}
	v.resolve()
	return v
}

// resolve recomputes the capabilities after the task or the session changed
func (v *TaskDetailView) resolve() {
	user, err := v.deps.Session.Current()
	if err != nil {
		v.user = models.User{}
		v.caps = permissions.Capabilities{}
		v.banner.fail(err, v.deps.Lang)
		return
	}
	v.user = user
	v.caps = permissions.ForTask(user, v.task)
}

// Init loads the fresh task and any saved comment draft
func (v *TaskDetailView) Init() tea.Cmd {
	return tea.Batch(v.loadTask, v.loadDraft)
}

func (v *TaskDetailView) loadTask() tea.Msg {
	ctx, cancel := v.deps.ctx()
	defer cancel()
	task, err := v.deps.Tasks.Task(ctx, v.task.ID)
	if err != nil {
		return errMsg{err: err}
	}
	return taskLoadedMsg{task: task}
}

func (v *TaskDetailView) loadDraft() tea.Msg {
	if v.deps.DB == nil {
		return nil
	}
	d, ok, err := v.deps.DB.GetDraft(db.CommentDraftKey(v.task.ID))
	if err != nil {
		v.deps.logger().Warn("load comment draft", zap.String("task_id", v.task.ID), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return commentDraftMsg{draft: d}
}

// mutate runs one task mutation in the background. The view stays busy until
// the doneMsg arrives.
func (v *TaskDetailView) mutate(action string, fn func(models.User, models.Task) error) tea.Cmd {
	if v.busy {
		return nil
	}
	v.resolve()
	if v.user.ID == "" {
		return nil
	}
	v.busy = true
	user, task := v.user, v.task
	return func() tea.Msg {
		return doneMsg{action: action, err: fn(user, task)}
	}
}

func (v *TaskDetailView) changeStatus() tea.Cmd {
	to := lifecycle.Next(v.task.Status)
	return v.mutate("Status changed to "+to.Label(), func(u models.User, t models.Task) error {
		ctx, cancel := v.deps.ctx()
		defer cancel()
		return v.deps.Tasks.ChangeStatus(ctx, u, t, to)
	})
}

func (v *TaskDetailView) complete() tea.Cmd {
	return v.mutate("Task completed", func(u models.User, t models.Task) error {
		ctx, cancel := v.deps.ctx()
		defer cancel()
		return v.deps.Tasks.Complete(ctx, u, t)
	})
}

func (v *TaskDetailView) changePriority() tea.Cmd {
	to := lifecycle.NextPriority(v.task.Priority)
	return v.mutate("Priority set to "+string(to), func(u models.User, t models.Task) error {
		ctx, cancel := v.deps.ctx()
		defer cancel()
		return v.deps.Tasks.ChangePriority(ctx, u, t, to)
	})
}

func (v *TaskDetailView) reassign(assigneeID string) tea.Cmd {
	return v.mutate("Task reassigned", func(u models.User, t models.Task) error {
		ctx, cancel := v.deps.ctx()
		defer cancel()
		return v.deps.Tasks.Reassign(ctx, u, t, assigneeID)
	})
}

// batch is the file batch the current mode stages into
func (v *TaskDetailView) batch() *attachments.Batch {
	if v.mode == detailCommenting || (v.mode == detailPicking && v.comment.Focused()) {
		return v.commentFiles
	}
	return v.taskFiles
}

func (v *TaskDetailView) uploadStaged() tea.Cmd {
	files := v.taskFiles.Items()
	return v.mutate(filesAttached, func(u models.User, t models.Task) error {
		ctx, cancel := v.deps.ctx()
		defer cancel()
		return v.deps.Tasks.AddAttachments(ctx, u, t, files)
	})
}

func (v *TaskDetailView) deleteTask() tea.Cmd {
	if v.busy {
		return nil
	}
	v.resolve()
	v.busy = true
	user, task := v.user, v.task
	return func() tea.Msg {
		ctx, cancel := v.deps.ctx()
		defer cancel()
		if err := v.deps.Tasks.Delete(ctx, user, task); err != nil {
			return doneMsg{action: "delete", err: err}
		}
		return taskDeletedMsg{}
	}
}

func (v *TaskDetailView) submitComment() tea.Cmd {
	if v.busy {
		return nil
	}
	v.resolve()
	if v.user.ID == "" {
		return nil
	}
	v.busy = true
	user, task := v.user, v.task
	content := strings.TrimSpace(v.comment.Value())
	files := v.commentFiles.Items()
	return func() tea.Msg {
		ctx, cancel := v.deps.ctx()
		defer cancel()
		_, err := v.deps.Tasks.Comment(ctx, user, task, content, files)
		return commentSentMsg{err: err}
	}
}

// saveDraft keeps the comment box content across a failed submit
func (v *TaskDetailView) saveDraft() {
	if v.deps.DB == nil {
		return
	}
	err := v.deps.DB.SaveDraft(db.Draft{
		Key:   db.CommentDraftKey(v.task.ID),
		Body:  v.comment.Value(),
		Files: v.commentFiles.Paths(),
	})
	if err != nil {
		v.deps.logger().Warn("save comment draft", zap.String("task_id", v.task.ID), zap.Error(err))
	}
}

func (v *TaskDetailView) dropDraft() {
	if v.deps.DB == nil {
		return
	}
	if err := v.deps.DB.DeleteDraft(db.CommentDraftKey(v.task.ID)); err != nil {
		v.deps.logger().Warn("delete comment draft", zap.String("task_id", v.task.ID), zap.Error(err))
	}
}

// Update handles messages
func (v *TaskDetailView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.comment.SetWidth(clamp(contentWidth-10, 20, 60))
		if v.mode == detailPicking {
			v.picker.resize(v.width, v.height)
		}
		return v, nil

	case taskLoadedMsg:
		if msg.task.Project == nil || msg.task.Project.Team == nil {
			p := v.project
			msg.task.Project = &p
		}
		v.task = msg.task
		v.resolve()
		return v, nil

	case commentDraftMsg:
		if v.comment.Value() == "" && v.commentFiles.Len() == 0 {
			v.comment.SetValue(msg.draft.Body)
			v.composer.SetText(msg.draft.Body)
			v.commentFiles = attachments.Restore(msg.draft.Files)
		}
		return v, nil

	case doneMsg:
		v.busy = false
		if msg.err != nil {
			v.banner.fail(msg.err, v.deps.Lang)
			if apperr.IsKind(msg.err, apperr.KindNotFound) {
				return v, send(BackToTasks{})
			}
			return v, nil
		}
		if msg.action == filesAttached {
			v.taskFiles.Clear()
		}
		v.banner.notice(msg.action)
		return v, v.loadTask

	case commentSentMsg:
		v.busy = false
		if msg.err != nil {
			v.saveDraft()
			v.banner.fail(msg.err, v.deps.Lang)
			return v, nil
		}
		v.comment.Reset()
		v.composer.Reset()
		v.commentFiles.Clear()
		v.dropDraft()
		v.mode = detailViewing
		v.comment.Blur()
		v.banner.notice("Comment posted")
		return v, v.loadTask

	case taskDeletedMsg:
		v.busy = false
		return v, send(BackToTasks{})

	case errMsg:
		v.busy = false
		v.banner.fail(msg.err, v.deps.Lang)
		if apperr.IsKind(msg.err, apperr.KindNotFound) {
			return v, send(BackToTasks{})
		}
		return v, nil

	case RefreshMsg:
		if v.mode != detailViewing || v.busy {
			return v, nil
		}
		return v, v.loadTask

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		switch v.mode {
		case detailPicking:
			return v.updatePicking(msg)
		case detailConfirmDelete:
			return v.updateConfirmDelete(msg)
		case detailReassigning:
			return v.updateReassigning(msg)
		case detailCommenting:
			return v.updateCommenting(msg)
		}
		return v.updateViewing(msg)
	}

	if v.mode == detailPicking {
		return v.updatePicking(msg)
	}
	return v, nil
}

func (v *TaskDetailView) updatePicking(msg tea.Msg) (tea.Model, tea.Cmd) {
	res, cmd := v.picker.update(msg)
	if !res.done {
		return v, cmd
	}
	v.mode = detailViewing
	if v.comment.Focused() {
		v.mode = detailCommenting
	}
	if err := stage(v.batch(), res); err != nil {
		v.banner.fail(err, v.deps.Lang)
	}
	return v, cmd
}

func (v *TaskDetailView) openPicker(origin attachments.Origin) tea.Cmd {
	if err := lifecycle.ValidateAttach(v.caps, 1); err != nil {
		v.banner.fail(err, v.deps.Lang)
		return nil
	}
	v.mode = detailPicking
	return v.picker.start(origin, v.width, v.height)
}

func (v *TaskDetailView) updateViewing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.busy && !key.Matches(msg, v.keys.Quit) {
		return v, nil
	}
	v.banner.clear()

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	case key.Matches(msg, v.keys.Back):
		return v, send(BackToTasks{})
	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	case key.Matches(msg, v.keys.Refresh):
		return v, v.loadTask
	case key.Matches(msg, v.keys.Status):
		return v, v.changeStatus()
	case key.Matches(msg, v.keys.Complete):
		return v, v.complete()
	case key.Matches(msg, v.keys.Priority):
		return v, v.changePriority()
	case key.Matches(msg, v.keys.Reassign):
		if !v.caps.Reassign {
			v.banner.fail(apperr.Forbidden(apperr.CodeCannotReassign), v.deps.Lang)
			return v, nil
		}
		v.mode = detailReassigning
		v.assignCursor = 0
		current := v.task.AssigneeUserID()
		for i, u := range v.assignees {
			if u.ID == current {
				v.assignCursor = i + 1
			}
		}
		return v, nil
	case key.Matches(msg, v.keys.Delete):
		if err := lifecycle.ValidateDelete(v.caps); err != nil {
			v.banner.fail(err, v.deps.Lang)
			return v, nil
		}
		v.mode = detailConfirmDelete
		return v, nil
	case key.Matches(msg, v.keys.Edit):
		if err := lifecycle.ValidateEdit(v.caps); err != nil {
			v.banner.fail(err, v.deps.Lang)
			return v, nil
		}
		task := v.task
		return v, send(OpenTaskForm{Project: v.project, Task: &task})
	case key.Matches(msg, v.keys.Comment):
		v.mode = detailCommenting
		v.comment.Focus()
		return v, textarea.Blink
	case key.Matches(msg, v.keys.Document):
		return v, v.openPicker(attachments.Document)
	case key.Matches(msg, v.keys.Image):
		return v, v.openPicker(attachments.Image)
	case key.Matches(msg, v.keys.Unstage):
		v.batch().Remove(v.batch().Len() - 1)
		return v, nil
	case key.Matches(msg, v.keys.Upload):
		return v, v.uploadStaged()
	}
	return v, nil
}

func (v *TaskDetailView) updateCommenting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Mention candidates take the arrow and accept keys while they show
	if len(v.composer.Candidates()) > 0 {
		switch {
		case key.Matches(msg, v.keys.Up):
			v.composer.Move(-1)
			return v, nil
		case key.Matches(msg, v.keys.Down):
			v.composer.Move(1)
			return v, nil
		case key.Matches(msg, v.keys.Tab), key.Matches(msg, v.keys.Enter):
			if v.composer.Accept() {
				v.comment.SetValue(v.composer.Text())
			}
			return v, nil
		}
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = detailViewing
		v.comment.Blur()
		return v, nil
	case key.Matches(msg, v.keys.Save):
		return v, v.submitComment()
	case key.Matches(msg, v.keys.Document):
		return v, v.openPicker(attachments.Document)
	case key.Matches(msg, v.keys.Image):
		return v, v.openPicker(attachments.Image)
	case key.Matches(msg, v.keys.Unstage):
		v.batch().Remove(v.batch().Len() - 1)
		return v, nil
	}

	if v.busy {
		return v, nil
	}
	var cmd tea.Cmd
	v.comment, cmd = v.comment.Update(msg)
	v.composer.SetText(v.comment.Value())
	return v, cmd
}

func (v *TaskDetailView) updateReassigning(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = detailViewing
		return v, nil
	case key.Matches(msg, v.keys.Up):
		if v.assignCursor > 0 {
			v.assignCursor--
		}
		return v, nil
	case key.Matches(msg, v.keys.Down):
		if v.assignCursor < len(v.assignees) {
			v.assignCursor++
		}
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		v.mode = detailViewing
		id := ""
		if v.assignCursor > 0 {
			id = v.assignees[v.assignCursor-1].ID
		}
		return v, v.reassign(id)
	}
	return v, nil
}

func (v *TaskDetailView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Confirm):
		v.mode = detailViewing
		return v, v.deleteTask()
	case key.Matches(msg, v.keys.Cancel):
		v.mode = detailViewing
		return v, nil
	}
	return v, nil
}

// View renders the view
func (v *TaskDetailView) View() string {
	switch {
	case v.showHelpPopup:
		return helpPopup(v.styles, v.helpItems(), v.width, v.height)
	case v.mode == detailPicking:
		return v.picker.view(v.styles, v.width, v.height)
	case v.mode == detailConfirmDelete:
		return confirm(v.styles, "Delete Task?", clean(v.task.Title), v.width, v.height)
	case v.mode == detailReassigning:
		return v.renderReassign()
	}
	return v.renderTask()
}

func (v *TaskDetailView) renderReassign() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	current := v.task.AssigneeUserID()
	row := func(i int, label string, isCurrent bool) string {
		st := s.ListItem
		if i == v.assignCursor {
			st = s.ListSelected
		}
		mark := "  "
		if isCurrent {
			mark = "● "
		}
		return st.Render(mark + label)
	}

	items := []string{row(0, "Unassigned", current == "")}
	for i, u := range v.assignees {
		items = append(items, row(i+1, clean(u.DisplayName()), u.ID == current))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Reassign: "+clean(v.task.Title)),
		"",
		lipgloss.JoinVertical(lipgloss.Left, items...),
		"",
		s.TitleMuted.Render("↵ assign • esc cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskDetailView) renderTask() string {
	s := v.styles
	task := v.task
	maxContentWidth := styles.ContentWidth(v.width)
	textWidth := clamp(maxContentWidth-10, 20, 70)
	labelStyle := s.TitleMuted
	text := lipgloss.NewStyle().Width(textWidth)

	descText := cleanPtr(task.Description)
	if descText == "" {
		descText = s.TitleMuted.Render("No description")
	}

	dates := fmt.Sprintf("%s → %s", formatDate(task.StartDate), formatDate(task.EndDate))

	content := []string{
		v.banner.view(s, textWidth),
		s.Title.MarginBottom(1).Render(clean(task.Title)),
		statusBadge(s, task.Status) + priorityBadge(s, task.Priority),
		"",
		labelStyle.Render("Assignee"),
		userName(task.Assignee),
		"",
		labelStyle.Render("Created by"),
		clean(task.Creator.DisplayName()),
		"",
		labelStyle.Render("Dates"),
		dates,
		"",
		labelStyle.Render("Description"),
		text.Render(descText),
	}

	if len(task.Files) > 0 {
		content = append(content, "", labelStyle.Render("Files"))
		for _, f := range task.Files {
			content = append(content, "  "+clean(f.Name)+" "+s.TitleMuted.Render(attachments.FormatSize(f.Size)))
		}
	}

	content = append(content, "", labelStyle.Render("Comments"), v.renderComments(textWidth))

	inputStyle := s.Input
	if v.mode == detailCommenting {
		inputStyle = s.InputFocused
	}
	content = append(content, "", inputStyle.Render(v.comment.View()))
	if cands := v.renderCandidates(); cands != "" {
		content = append(content, cands)
	}
	if staged := v.renderStaged(); staged != "" {
		content = append(content, staged)
	}
	content = append(content, "", v.renderHelp())

	// Return with padding, not centered vertically, but horizontally centered if wide
	padded := lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, content...))
	return styles.CenterView(padded, v.width, v.height)
}

func (v *TaskDetailView) renderComments(width int) string {
	s := v.styles
	if len(v.task.Comments) == 0 {
		return s.TitleMuted.Render("No comments yet")
	}
	var lines []string
	for _, c := range v.task.Comments {
		body := clean(c.Content)
		body = highlightMentions(s, body, mention.Names(body, v.assignees))
		header := clean(c.Author.DisplayName()) + "  " + s.TitleMuted.Render(c.CreatedAt.Local().Format("Jan 2, 2006 3:04 PM"))
		lines = append(lines, header, lipgloss.NewStyle().Width(width).Render(body))
		for _, f := range c.Files {
			lines = append(lines, s.TitleMuted.Render("  📎 "+clean(f.Name)))
		}
		lines = append(lines, "")
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (v *TaskDetailView) renderCandidates() string {
	cands := v.composer.Candidates()
	if v.mode != detailCommenting || len(cands) == 0 {
		return ""
	}
	s := v.styles
	items := make([]string, len(cands))
	for i, u := range cands {
		st := s.ListItem
		if i == v.composer.Cursor() {
			st = s.ListSelected
		}
		items[i] = st.Render("@" + clean(u.DisplayName()) + " " + s.TitleMuted.Render(u.Email))
	}
	return s.FilterBar.Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (v *TaskDetailView) renderStaged() string {
	s := v.styles
	var lines []string
	list := func(label string, b *attachments.Batch) {
		if b.Len() == 0 {
			return
		}
		lines = append(lines, s.TitleMuted.Render(fmt.Sprintf("%s (%s):", label, attachments.FormatSize(b.Total()))))
		for _, f := range b.Items() {
			lines = append(lines, "  "+f.Name+" "+s.TitleMuted.Render(attachments.FormatSize(f.Size)))
		}
	}
	list("To upload", v.taskFiles)
	list("With comment", v.commentFiles)
	if len(lines) == 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// helpItems lists only the actions the user may take
func (v *TaskDetailView) helpItems() [][2]string {
	if v.busy {
		return [][2]string{{"…", "working"}}
	}
	if v.mode == detailCommenting {
		return [][2]string{
			{"ctrl+s", "submit"},
			{"ctrl+o", "document"},
			{"ctrl+g", "image"},
			{"esc", "cancel"},
		}
	}
	var items [][2]string
	if v.caps.ChangeStatus {
		items = append(items, [2]string{"s", lifecycle.Next(v.task.Status).Label()})
	}
	if v.caps.Complete {
		items = append(items, [2]string{"x", "complete"})
	}
	if v.caps.ChangePriority {
		items = append(items, [2]string{"p", "priority"})
	}
	if v.caps.Reassign {
		items = append(items, [2]string{"a", "reassign"})
	}
	if v.caps.Edit {
		items = append(items, [2]string{"e", "edit"})
	}
	if v.caps.Delete {
		items = append(items, [2]string{"d", "delete"})
	}
	items = append(items, [2]string{"c", "comment"})
	if v.caps.AddAttachment {
		items = append(items, [2]string{"ctrl+o", "document"}, [2]string{"ctrl+g", "image"})
		if v.taskFiles.Len() > 0 {
			items = append(items, [2]string{"u", "upload"})
		}
	}
	return append(items, [2]string{"esc", "back"})
}

func (v *TaskDetailView) renderHelp() string {
	return helpLine(v.styles, v.width, v.helpItems())
}
