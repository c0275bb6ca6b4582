package views

import (
	"errors"
	"os"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/attachments"
	"github.com/tgienger/tasker/internal/ui/styles"
)

// picker is the document/image chooser embedded in the forms that stage
// attachments
type picker struct {
	fp     filepicker.Model
	origin attachments.Origin
	active bool
}

// picked is the outcome of one picker interaction
type picked struct {
	done bool
	file attachments.Staged
	err  error
}

func (p *picker) start(origin attachments.Origin, width, height int) tea.Cmd {
	fp := filepicker.New()
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	if origin == attachments.Image {
		fp.AllowedTypes = attachments.ImageExtensions
	} else {
		fp.AllowedTypes = attachments.DocumentExtensions
	}
	if dir, err := os.Getwd(); err == nil {
		fp.CurrentDirectory = dir
	} else if home, err := os.UserHomeDir(); err == nil {
		fp.CurrentDirectory = home
	}
	fp.Styles.Selected = fp.Styles.Selected.Foreground(styles.Current.Primary)
	fp.Styles.Cursor = fp.Styles.Cursor.Foreground(styles.Current.Primary)

	p.fp = fp
	p.origin = origin
	p.active = true
	p.resize(width, height)
	return p.fp.Init()
}

// resize fits the file list under the picker header. The picker only learns
// its height from a resize.
func (p *picker) resize(width, height int) {
	p.fp, _ = p.fp.Update(tea.WindowSizeMsg{Width: width, Height: max(height-6, 5)})
}

func (p *picker) update(msg tea.Msg) (picked, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && (k.String() == "esc" || k.String() == "q") {
		p.active = false
		return picked{done: true, err: attachments.ErrSilent}, nil
	}

	var cmd tea.Cmd
	p.fp, cmd = p.fp.Update(msg)

	if ok, path := p.fp.DidSelectFile(msg); ok {
		p.active = false
		f, err := attachments.FromPath(path, p.origin)
		return picked{done: true, file: f, err: err}, cmd
	}
	if ok, _ := p.fp.DidSelectDisabledFile(msg); ok {
		p.active = false
		return picked{done: true, err: apperr.Invalid(apperr.CodeUnsupportedFile)}, cmd
	}
	return picked{}, cmd
}

func (p *picker) view(s *styles.Styles, width, height int) string {
	title := "Attach a document"
	if p.origin == attachments.Image {
		title = "Attach an image"
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(title),
		s.TitleMuted.Render(p.fp.CurrentDirectory),
		"",
		p.fp.View(),
		"",
		s.TitleMuted.Render("↵ choose • ← up a directory • esc cancel"),
	)
	padded := lipgloss.NewStyle().Padding(1, 2).Render(content)
	return styles.CenterView(padded, width, height)
}

// stage applies a picker outcome to a batch. Silent outcomes change nothing
// and report nothing.
func stage(b *attachments.Batch, res picked) error {
	if res.err != nil {
		if errors.Is(res.err, attachments.ErrSilent) {
			return nil
		}
		return res.err
	}
	b.Add(res.file)
	return nil
}
