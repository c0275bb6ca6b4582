package views

import (
	"html"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"

	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/models"
	"github.com/tgienger/tasker/internal/ui/styles"
)

var sanitizer = bluemonday.StrictPolicy()

// clean turns server-provided text into plain terminal text: markup is
// stripped and control characters other than newlines and tabs are dropped.
func clean(s string) string {
	s = html.UnescapeString(sanitizer.Sanitize(s))
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

func cleanPtr(s *string) string {
	if s == nil {
		return ""
	}
	return clean(*s)
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("Jan 2, 2006")
}

// parseDate reads the form date field. Empty input clears the date.
func parseDate(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func userName(u *models.User) string {
	if u == nil {
		return "Unassigned"
	}
	return clean(u.DisplayName())
}

func statusBadge(s *styles.Styles, st models.Status) string {
	return s.Badge.Foreground(styles.StatusColor(st)).Render(st.Label())
}

func priorityBadge(s *styles.Styles, p models.Priority) string {
	return s.Badge.Foreground(styles.PriorityColor(p)).Render(string(p))
}

// highlightMentions renders the @name tokens of a comment in the mention style
func highlightMentions(s *styles.Styles, text string, names []string) string {
	for _, n := range names {
		text = strings.ReplaceAll(text, "@"+n, s.Mention.Render("@"+n))
	}
	return text
}

// banner is the dismissible message line shown above a view
type banner struct {
	text  string
	isErr bool
}

func (b *banner) fail(err error, lang string) {
	b.text = apperr.Message(err, lang)
	b.isErr = true
}

func (b *banner) notice(text string) {
	b.text = text
	b.isErr = false
}

func (b *banner) clear() {
	b.text = ""
	b.isErr = false
}

func (b banner) visible() bool { return b.text != "" }

func (b banner) view(s *styles.Styles, width int) string {
	if b.text == "" {
		return ""
	}
	st := s.Banner
	if b.isErr {
		st = s.BannerError
	}
	return st.Width(max(width-2, 10)).Render(b.text) + "\n"
}

// confirm renders the yes/no dialog used before destructive actions
func confirm(s *styles.Styles, title, detail string, width, height int) string {
	contentWidth := styles.ContentWidth(width)
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render(title),
		"",
		s.TitleMuted.Render(detail),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	centered := lipgloss.Place(contentWidth, height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, width, height)
}

// helpPopup renders a list of key/description pairs in a bordered box
func helpPopup(s *styles.Styles, items [][2]string, width, height int) string {
	contentWidth := styles.ContentWidth(width)
	lines := []string{s.Title.Render("Keyboard Shortcuts"), ""}
	for _, it := range items {
		lines = append(lines, s.HelpKey.Render(it[0])+strings.Repeat(" ", max(8-lipgloss.Width(it[0]), 1))+s.HelpDesc.Render(it[1]))
	}
	lines = append(lines, "", s.TitleMuted.Render("Press any key to close"))

	centered := lipgloss.Place(contentWidth, height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
	return styles.CenterView(centered, width, height)
}

// helpLine renders the one-line key hint at the bottom of a view. At narrow
// widths only the ? hint is shown.
func helpLine(s *styles.Styles, width int, items [][2]string) string {
	contentWidth := styles.ContentWidth(width)
	if contentWidth > 0 && contentWidth < 50 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = s.HelpKey.Render(it[0]) + " " + s.HelpDesc.Render(it[1])
	}
	return s.Help.Width(max(contentWidth, 20)).Render(strings.Join(parts, " • "))
}
