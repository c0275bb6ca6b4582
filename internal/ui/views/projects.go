package views

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tasker/internal/models"
	"github.com/tgienger/tasker/internal/service"
	"github.com/tgienger/tasker/internal/ui/keys"
	"github.com/tgienger/tasker/internal/ui/styles"
)

type projectItem struct {
	project models.Project
}

func (i projectItem) Title() string       { return clean(i.project.Name) }
func (i projectItem) Description() string { return cleanPtr(i.project.Description) }
func (i projectItem) FilterValue() string { return i.project.Name }

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d projectDelegate) Height() int                               { return 2 }
func (d projectDelegate) Spacing() int                              { return 1 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	name := p.Title()
	if p.project.Flag != "" && p.project.Flag != models.FlagNormal {
		name += " " + lipgloss.NewStyle().Foreground(styles.FlagColor(p.project.Flag)).Render("● "+string(p.project.Flag))
	}
	desc := p.Description()
	if p.project.Team != nil {
		desc = strings.TrimSpace(clean(p.project.Team.Name) + "  " + desc)
	}

	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(name), descStyle.Render(desc))
}

type projectsLoadedMsg struct {
	projects []models.Project
}

type projectCreatedMsg struct {
	project models.Project
}

// ProjectListView lists the user's projects
type ProjectListView struct {
	deps     Deps
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool
	banner   banner

	creating bool
	busy     bool
	newName  textinput.Model
	newDesc  textinput.Model
	focusIdx int // 0=name, 1=desc, 2=confirm

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewProjectListView creates the project list
func NewProjectListView(deps Deps) *ProjectListView {
	s := styles.NewStyles()

	newName := textinput.New()
	newName.Placeholder = "Project name"
	newName.CharLimit = 100

	newDesc := textinput.New()
	newDesc.Placeholder = "Description (optional)"
	newDesc.CharLimit = 500

	delegate := &projectDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &ProjectListView{
		deps:     deps,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		newName:  newName,
		newDesc:  newDesc,
	}
}

func (v *ProjectListView) Init() tea.Cmd {
	return v.loadProjects
}

func (v *ProjectListView) loadProjects() tea.Msg {
	ctx, cancel := v.deps.ctx()
	defer cancel()
	projects, err := v.deps.Projects.List(ctx)
	if err != nil {
		return errMsg{err: err}
	}
	return projectsLoadedMsg{projects: projects}
}

func (v *ProjectListView) createProject() tea.Cmd {
	if v.busy {
		return nil
	}
	user, err := v.deps.Session.Current()
	if err != nil {
		v.banner.fail(err, v.deps.Lang)
		return nil
	}
	draft := service.ProjectDraft{
		Name:        v.newName.Value(),
		Description: v.newDesc.Value(),
	}
	v.busy = true
	return func() tea.Msg {
		ctx, cancel := v.deps.ctx()
		defer cancel()
		p, err := v.deps.Projects.Create(ctx, user, draft)
		if err != nil {
			return errMsg{err: err}
		}
		return projectCreatedMsg{project: p}
	}
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		// Use content width (capped at MaxWidth) for internal layout
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-7)
		return v, nil

	case projectsLoadedMsg:
		items := make([]list.Item, len(msg.projects))
		for i, p := range msg.projects {
			items[i] = projectItem{project: p}
		}
		v.list.SetItems(items)
		v.loaded = true
		return v, nil

	case projectCreatedMsg:
		v.busy = false
		v.creating = false
		return v, send(SelectedProject{Project: msg.project})

	case errMsg:
		v.busy = false
		v.loaded = true
		v.banner.fail(msg.err, v.deps.Lang)
		return v, nil

	case RefreshMsg:
		if v.creating || v.list.FilterState() == list.Filtering {
			return v, nil
		}
		return v, v.loadProjects

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.creating {
			return v.updateCreating(msg)
		}

		if v.list.FilterState() == list.Filtering {
			break
		}

		v.banner.clear()
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			// Don't quit on escape in project list - only q quits
			return v, nil
		case key.Matches(msg, v.keys.New):
			v.creating = true
			v.focusIdx = 0
			v.newName.Reset()
			v.newDesc.Reset()
			v.updateFocus()
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Teams):
			return v, send(OpenTeams{})
		case key.Matches(msg, v.keys.Refresh):
			return v, v.loadProjects
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				return v, send(SelectedProject{Project: item.project})
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		v.banner.clear()
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.createProject()

	case key.Matches(msg, v.keys.ShiftTab):
		v.focusIdx = (v.focusIdx + 2) % 3
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.focusIdx = (v.focusIdx + 1) % 3
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx < 2 {
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
		return v, v.createProject()
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.newName, cmd = v.newName.Update(msg)
	case 1:
		v.newDesc, cmd = v.newDesc.Update(msg)
	}
	return v, cmd
}

func (v *ProjectListView) updateFocus() {
	v.newName.Blur()
	v.newDesc.Blur()
	switch v.focusIdx {
	case 0:
		v.newName.Focus()
	case 1:
		v.newDesc.Focus()
	}
}

// View renders the view
func (v *ProjectListView) View() string {
	if v.showHelpPopup {
		return helpPopup(v.styles, v.helpItems(), v.width, v.height)
	}

	if v.creating {
		return v.renderCreateForm()
	}

	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	if len(v.list.Items()) == 0 {
		return v.renderEmpty()
	}

	content := v.banner.view(v.styles, styles.ContentWidth(v.width)) + v.list.View() + "\n" +
		helpLine(v.styles, v.width, v.helpItems()[:5])
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectListView) helpItems() [][2]string {
	return [][2]string{
		{"↵", "select"},
		{"n", "new"},
		{"t", "teams"},
		{"r", "refresh"},
		{"q", "quit"},
		{"/", "filter projects"},
	}
}

func (v *ProjectListView) renderEmpty() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		v.banner.view(s, contentWidth),
		s.Title.Render("No Projects"),
		"",
		s.TitleMuted.Render("Press 'n' to create your first project"),
		"",
		s.ButtonPrimary.Render(" New Project "),
	)

	// Center within content width, then center that in terminal
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	nameStyle := s.Input
	descStyle := s.Input
	btnStyle := s.Button

	switch v.focusIdx {
	case 0:
		nameStyle = s.InputFocused
	case 1:
		descStyle = s.InputFocused
	case 2:
		btnStyle = s.ButtonFocused
	}

	label := " Create "
	if v.busy {
		label = " Creating... "
		btnStyle = s.Button.Foreground(styles.Current.ForegroundDim)
	}

	// Dynamic input width based on content width
	inputWidth := clamp(contentWidth-6, 20, 50)

	form := lipgloss.JoinVertical(lipgloss.Left,
		v.banner.view(s, inputWidth+4),
		s.Title.Render("New Project"),
		"",
		"Name:",
		nameStyle.Width(inputWidth).Render(v.newName.View()),
		"",
		"Description:",
		descStyle.Width(inputWidth).Render(v.newDesc.View()),
		"",
		btnStyle.Render(label),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	// Center within content width, then center that in terminal
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}
