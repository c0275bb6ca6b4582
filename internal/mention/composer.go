package mention

import (
	"slices"

	"github.com/tgienger/tasker/internal/models"
)

// Composer tracks comment text and the mention candidates for it. The roster
// is shared with the caller and never modified.
type Composer struct {
	members    []models.User
	text       string
	candidates []models.User
	cursor     int
}

// NewComposer returns a composer over the given roster
func NewComposer(members []models.User) *Composer {
	return &Composer{members: members}
}

// SetMembers swaps the roster, e.g. after a refetch
func (c *Composer) SetMembers(members []models.User) {
	c.members = members
	c.refresh()
}

// SetText updates the text and recomputes candidates
func (c *Composer) SetText(text string) {
	c.text = text
	c.refresh()
}

// Text returns the current text
func (c *Composer) Text() string { return c.text }

// Searching reports whether a mention is being typed
func (c *Composer) Searching() bool {
	_, ok := Active(c.text)
	return ok
}

// Candidates returns the current candidate list
func (c *Composer) Candidates() []models.User { return c.candidates }

// Cursor returns the highlighted candidate index
func (c *Composer) Cursor() int { return c.cursor }

// Move shifts the highlighted candidate, wrapping around
func (c *Composer) Move(delta int) {
	n := len(c.candidates)
	if n == 0 {
		return
	}
	c.cursor = ((c.cursor+delta)%n + n) % n
}

// Accept inserts the highlighted candidate. It returns false when there is
// nothing to accept.
func (c *Composer) Accept() bool {
	if len(c.candidates) == 0 {
		return false
	}
	c.text = Insert(c.text, c.candidates[c.cursor].DisplayName())
	c.refresh()
	return true
}

// Reset clears the text
func (c *Composer) Reset() {
	c.SetText("")
}

func (c *Composer) refresh() {
	c.candidates = nil
	c.cursor = 0
	term, ok := Active(c.text)
	if !ok {
		return
	}
	c.candidates = slices.Collect(Candidates(c.members, term))
}
