package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tasker/internal/attachments"
	"github.com/tgienger/tasker/internal/models"
	"github.com/tgienger/tasker/internal/permissions"
	"github.com/tgienger/tasker/internal/service"
	"github.com/tgienger/tasker/internal/ui/keys"
	"github.com/tgienger/tasker/internal/ui/styles"
)

type teamMode int

const (
	teamListing teamMode = iota
	teamViewing
	teamEditing
	teamInviting
	teamConfirmDelete
	teamPicking
)

type teamsLoadedMsg struct {
	teams []models.Team
}

type teamLoadedMsg struct {
	team models.Team
}

type teamSavedMsg struct {
	team models.Team
}

type teamDeletedMsg struct{}

// TeamsView lists teams, shows a team's roster and runs the team forms
type TeamsView struct {
	deps   Deps
	styles *styles.Styles
	keys   keys.KeyMap
	banner banner

	width  int
	height int

	mode   teamMode
	busy   bool
	teams  []models.Team
	cursor int
	team   models.Team // the opened team
	caps   permissions.TeamCapabilities
	loaded bool

	// Create and edit form
	editingNew bool
	name       textinput.Model
	privacy    models.Privacy
	avatar     *attachments.Staged
	picker     picker

	// Invite form
	email     textinput.Model
	role      models.Role
	inviteIdx int // 0=email, 1=role, 2=send

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewTeamsView creates the team screens
func NewTeamsView(deps Deps) *TeamsView {
	name := textinput.New()
	name.Placeholder = "Team name"
	name.CharLimit = 100

	email := textinput.New()
	email.Placeholder = "name@example.com"
	email.CharLimit = 200

	return &TeamsView{
		deps:    deps,
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
		name:    name,
		email:   email,
		privacy: models.PrivacyPrivate,
		role:    models.RoleMember,
	}
}

func (v *TeamsView) Init() tea.Cmd {
	return v.loadTeams
}

func (v *TeamsView) loadTeams() tea.Msg {
	ctx, cancel := v.deps.ctx()
	defer cancel()
	teams, err := v.deps.Teams.List(ctx)
	if err != nil {
		return errMsg{err: err}
	}
	return teamsLoadedMsg{teams: teams}
}

func (v *TeamsView) loadTeam(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := v.deps.ctx()
		defer cancel()
		team, err := v.deps.Teams.Get(ctx, id)
		if err != nil {
			return errMsg{err: err}
		}
		return teamLoadedMsg{team: team}
	}
}

func (v *TeamsView) resolve() (models.User, bool) {
	user, err := v.deps.Session.Current()
	if err != nil {
		v.banner.fail(err, v.deps.Lang)
		return models.User{}, false
	}
	v.caps = permissions.ForTeam(user, v.team)
	return user, true
}

func (v *TeamsView) saveTeam() tea.Cmd {
	if v.busy {
		return nil
	}
	user, ok := v.resolve()
	if !ok {
		return nil
	}
	d := service.TeamDraft{Name: v.name.Value(), Privacy: v.privacy, Avatar: v.avatar}
	isNew, team := v.editingNew, v.team
	v.busy = true
	return func() tea.Msg {
		ctx, cancel := v.deps.ctx()
		defer cancel()
		var saved models.Team
		var err error
		if isNew {
			saved, err = v.deps.Teams.Create(ctx, user, d)
		} else {
			saved, err = v.deps.Teams.Update(ctx, user, team, d)
		}
		if err != nil {
			return errMsg{err: err}
		}
		return teamSavedMsg{team: saved}
	}
}

func (v *TeamsView) invite() tea.Cmd {
	if v.busy {
		return nil
	}
	user, ok := v.resolve()
	if !ok {
		return nil
	}
	team, email, role := v.team, v.email.Value(), v.role
	v.busy = true
	return func() tea.Msg {
		ctx, cancel := v.deps.ctx()
		defer cancel()
		err := v.deps.Teams.Invite(ctx, user, team, email, role)
		return doneMsg{action: "Invitation sent to " + strings.TrimSpace(email), err: err}
	}
}

func (v *TeamsView) deleteTeam() tea.Cmd {
	if v.busy {
		return nil
	}
	user, ok := v.resolve()
	if !ok {
		return nil
	}
	team := v.team
	v.busy = true
	return func() tea.Msg {
		ctx, cancel := v.deps.ctx()
		defer cancel()
		if err := v.deps.Teams.Delete(ctx, user, team); err != nil {
			return errMsg{err: err}
		}
		return teamDeletedMsg{}
	}
}

// Update handles messages
func (v *TeamsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		if v.mode == teamPicking {
			v.picker.resize(v.width, v.height)
		}
		return v, nil

	case teamsLoadedMsg:
		v.teams = msg.teams
		v.loaded = true
		if v.cursor >= len(v.teams) {
			v.cursor = max(0, len(v.teams)-1)
		}
		return v, nil

	case teamLoadedMsg:
		v.team = msg.team
		v.resolve()
		return v, nil

	case teamSavedMsg:
		v.busy = false
		v.avatar = nil
		v.team = msg.team
		v.mode = teamViewing
		v.resolve()
		v.banner.notice("Team saved")
		return v, tea.Batch(v.loadTeams, v.loadTeam(msg.team.ID))

	case teamDeletedMsg:
		v.busy = false
		v.mode = teamListing
		v.team = models.Team{}
		v.banner.notice("Team deleted")
		return v, v.loadTeams

	case doneMsg:
		v.busy = false
		if msg.err != nil {
			v.banner.fail(msg.err, v.deps.Lang)
			return v, nil
		}
		v.email.Reset()
		v.mode = teamViewing
		v.banner.notice(msg.action)
		return v, v.loadTeam(v.team.ID)

	case errMsg:
		v.busy = false
		v.loaded = true
		v.banner.fail(msg.err, v.deps.Lang)
		return v, nil

	case RefreshMsg:
		switch v.mode {
		case teamListing:
			return v, v.loadTeams
		case teamViewing:
			return v, v.loadTeam(v.team.ID)
		}
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		switch v.mode {
		case teamPicking:
			return v.updatePicking(msg)
		case teamEditing:
			return v.updateEditing(msg)
		case teamInviting:
			return v.updateInviting(msg)
		case teamConfirmDelete:
			return v.updateConfirmDelete(msg)
		case teamViewing:
			return v.updateViewing(msg)
		}
		return v.updateListing(msg)
	}

	if v.mode == teamPicking {
		return v.updatePicking(msg)
	}
	return v, nil
}

func (v *TeamsView) updatePicking(msg tea.Msg) (tea.Model, tea.Cmd) {
	res, cmd := v.picker.update(msg)
	if !res.done {
		return v, cmd
	}
	v.mode = teamEditing
	b := &attachments.Batch{}
	if err := stage(b, res); err != nil {
		v.banner.fail(err, v.deps.Lang)
	} else if b.Len() == 1 {
		f := b.Items()[0]
		v.avatar = &f
	}
	return v, cmd
}

func (v *TeamsView) updateListing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v.banner.clear()
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	case key.Matches(msg, v.keys.Back):
		return v, send(BackToProjects{})
	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
	case key.Matches(msg, v.keys.Refresh):
		return v, v.loadTeams
	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}
	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.teams)-1 {
			v.cursor++
		}
	case key.Matches(msg, v.keys.New):
		v.startEdit(true)
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Enter):
		if v.cursor < len(v.teams) {
			v.team = v.teams[v.cursor]
			v.mode = teamViewing
			v.resolve()
			return v, v.loadTeam(v.team.ID)
		}
	}
	return v, nil
}

func (v *TeamsView) updateViewing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.busy && !key.Matches(msg, v.keys.Quit) {
		return v, nil
	}
	v.banner.clear()
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	case key.Matches(msg, v.keys.Back):
		v.mode = teamListing
		return v, v.loadTeams
	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
	case key.Matches(msg, v.keys.Refresh):
		return v, v.loadTeam(v.team.ID)
	case key.Matches(msg, v.keys.Invite):
		if !v.caps.Invite {
			return v, nil
		}
		v.mode = teamInviting
		v.inviteIdx = 0
		v.role = models.RoleMember
		v.email.Reset()
		v.email.Focus()
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Edit):
		if !v.caps.Edit {
			return v, nil
		}
		v.startEdit(false)
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Delete):
		if !v.caps.Delete {
			return v, nil
		}
		v.mode = teamConfirmDelete
	}
	return v, nil
}

func (v *TeamsView) startEdit(isNew bool) {
	v.mode = teamEditing
	v.editingNew = isNew
	v.avatar = nil
	v.name.Reset()
	v.privacy = models.PrivacyPrivate
	if !isNew {
		v.name.SetValue(v.team.Name)
		if v.team.Privacy != "" {
			v.privacy = v.team.Privacy
		}
	}
	v.name.Focus()
}

func (v *TeamsView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.busy {
		return v, nil
	}
	switch {
	case key.Matches(msg, v.keys.Back):
		v.name.Blur()
		v.banner.clear()
		if v.editingNew {
			v.mode = teamListing
		} else {
			v.mode = teamViewing
		}
		return v, nil
	case key.Matches(msg, v.keys.Save), key.Matches(msg, v.keys.Enter):
		return v, v.saveTeam()
	case key.Matches(msg, v.keys.Tab):
		if v.privacy == models.PrivacyPrivate {
			v.privacy = models.PrivacyPublic
		} else {
			v.privacy = models.PrivacyPrivate
		}
		return v, nil
	case key.Matches(msg, v.keys.Image):
		v.mode = teamPicking
		return v, v.picker.start(attachments.Image, v.width, v.height)
	case key.Matches(msg, v.keys.Unstage):
		v.avatar = nil
		return v, nil
	}
	var cmd tea.Cmd
	v.name, cmd = v.name.Update(msg)
	return v, cmd
}

func (v *TeamsView) updateInviting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.busy {
		return v, nil
	}
	switch {
	case key.Matches(msg, v.keys.Back):
		v.email.Blur()
		v.mode = teamViewing
		v.banner.clear()
		return v, nil
	case key.Matches(msg, v.keys.Save):
		return v, v.invite()
	case key.Matches(msg, v.keys.Tab), key.Matches(msg, v.keys.ShiftTab):
		dir := 1
		if key.Matches(msg, v.keys.ShiftTab) {
			dir = 2
		}
		v.inviteIdx = (v.inviteIdx + dir) % 3
		if v.inviteIdx == 0 {
			v.email.Focus()
		} else {
			v.email.Blur()
		}
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		if v.inviteIdx == 2 {
			return v, v.invite()
		}
		v.inviteIdx++
		v.email.Blur()
		return v, nil
	case key.Matches(msg, v.keys.Left), key.Matches(msg, v.keys.Right):
		if v.inviteIdx == 1 {
			dir := 1
			if key.Matches(msg, v.keys.Left) {
				dir = -1
			}
			v.role = step(models.Roles, v.role, dir)
			return v, nil
		}
	}
	if v.inviteIdx != 0 {
		return v, nil
	}
	var cmd tea.Cmd
	v.email, cmd = v.email.Update(msg)
	return v, cmd
}

func (v *TeamsView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Confirm):
		v.mode = teamViewing
		return v, v.deleteTeam()
	case key.Matches(msg, v.keys.Cancel):
		v.mode = teamViewing
	}
	return v, nil
}

// View renders the view
func (v *TeamsView) View() string {
	if v.showHelpPopup {
		return helpPopup(v.styles, v.helpItems(), v.width, v.height)
	}
	switch v.mode {
	case teamPicking:
		return v.picker.view(v.styles, v.width, v.height)
	case teamConfirmDelete:
		return confirm(v.styles, "Delete Team?", clean(v.team.Name), v.width, v.height)
	case teamEditing:
		return v.renderEditForm()
	case teamInviting:
		return v.renderInviteForm()
	case teamViewing:
		return v.renderTeam()
	}
	return v.renderList()
}

func (v *TeamsView) renderList() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	lines := []string{v.banner.view(s, contentWidth), s.TitleBar.Render("Teams"), ""}
	switch {
	case !v.loaded:
		lines = append(lines, s.TitleMuted.Render("Loading..."))
	case len(v.teams) == 0:
		lines = append(lines, s.TitleMuted.Render("No teams. Press 'n' to create one."))
	}
	for i, t := range v.teams {
		st := s.ListItem.Width(width)
		if i == v.cursor {
			st = s.ListSelected.Width(width)
		}
		meta := fmt.Sprintf("%s · %d members", t.Privacy, len(t.Members))
		lines = append(lines, st.Render(clean(t.Name)+"  "+s.TitleMuted.Render(meta)))
	}
	lines = append(lines, "", helpLine(s, v.width, v.helpItems()))
	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, lines...), v.width, v.height)
}

func (v *TeamsView) renderTeam() string {
	s := v.styles
	t := v.team

	lines := []string{
		v.banner.view(s, styles.ContentWidth(v.width)),
		s.Title.Render(clean(t.Name)),
		s.TitleMuted.Render(string(t.Privacy)),
	}
	if desc := cleanPtr(t.Description); desc != "" {
		lines = append(lines, "", desc)
	}

	lines = append(lines, "", s.TitleMuted.Render("Members"))
	if len(t.Members) == 0 {
		lines = append(lines, s.TitleMuted.Render("No members yet"))
	}
	for _, m := range t.Members {
		role := s.Badge.Foreground(styles.Current.Secondary).Render(string(m.Role))
		lines = append(lines, "  "+clean(m.User.DisplayName())+" "+role+s.TitleMuted.Render(m.User.Email))
	}

	if len(t.Projects) > 0 {
		lines = append(lines, "", s.TitleMuted.Render("Projects"))
		for _, p := range t.Projects {
			lines = append(lines, "  "+clean(p.Name))
		}
	}

	lines = append(lines, "", helpLine(s, v.width, v.helpItems()))
	padded := lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return styles.CenterView(padded, v.width, v.height)
}

func (v *TeamsView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	title := "New Team"
	if !v.editingNew {
		title = "Edit Team"
	}
	avatar := s.TitleMuted.Render("none (Ctrl+G to pick an image)")
	if v.avatar != nil {
		avatar = v.avatar.Name + " " + s.TitleMuted.Render(attachments.FormatSize(v.avatar.Size))
	}
	label := " Save "
	if v.busy {
		label = " Saving... "
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		v.banner.view(s, inputWidth+4),
		s.Title.Render(title),
		"",
		"Name:",
		s.InputFocused.Width(inputWidth).Render(v.name.View()),
		"",
		"Privacy: "+s.Button.Render(string(v.privacy)),
		"Avatar: "+avatar,
		"",
		s.ButtonPrimary.Render(label),
		"",
		s.TitleMuted.Render("Tab: privacy • Ctrl+G: avatar • Ctrl+S: save • Esc: cancel"),
	)
	centered := lipgloss.Place(contentWidth, v.height, lipgloss.Center, lipgloss.Center, form)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TeamsView) renderInviteForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	emailStyle, roleStyle, btnStyle := s.Input, s.Button, s.Button
	switch v.inviteIdx {
	case 0:
		emailStyle = s.InputFocused
	case 1:
		roleStyle = s.ButtonFocused
	case 2:
		btnStyle = s.ButtonFocused
	}
	label := " Send invite "
	if v.busy {
		label = " Sending... "
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		v.banner.view(s, inputWidth+4),
		s.Title.Render("Invite to "+clean(v.team.Name)),
		"",
		"Email:",
		emailStyle.Width(inputWidth).Render(v.email.View()),
		"",
		"Role: "+roleStyle.Render("◀ "+string(v.role)+" ▶"),
		"",
		btnStyle.Render(label),
		"",
		s.TitleMuted.Render("Tab: next • ←/→: role • Ctrl+S: send • Esc: cancel"),
	)
	centered := lipgloss.Place(contentWidth, v.height, lipgloss.Center, lipgloss.Center, form)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TeamsView) helpItems() [][2]string {
	if v.mode == teamListing {
		return [][2]string{{"↵", "open"}, {"n", "new team"}, {"r", "refresh"}, {"esc", "projects"}, {"q", "quit"}}
	}
	var items [][2]string
	if v.caps.Invite {
		items = append(items, [2]string{"i", "invite"})
	}
	if v.caps.Edit {
		items = append(items, [2]string{"e", "edit"})
	}
	if v.caps.Delete {
		items = append(items, [2]string{"d", "delete"})
	}
	return append(items, [2]string{"r", "refresh"}, [2]string{"esc", "back"})
}
