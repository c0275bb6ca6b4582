// Package mention detects and completes @name mentions in comment text.
//
// The cursor is always at the end of the text. Mentions are stored as plain
// display names, not user ids, so a renamed or duplicated name is ambiguous.
package mention

import (
	"iter"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tgienger/tasker/internal/models"
)

// Active returns the search term of the mention being typed. ok is false
// when the last @ has been terminated by whitespace or there is no @ at all.
func Active(text string) (term string, ok bool) {
	i := strings.LastIndex(text, "@")
	if i < 0 {
		return "", false
	}
	rest := text[i+1:]
	if strings.IndexFunc(rest, unicode.IsSpace) >= 0 {
		return "", false
	}
	return rest, true
}

// Candidates yields the members whose name or email contains term, case
// insensitively, in roster order. An empty term yields nothing.
func Candidates(members []models.User, term string) iter.Seq[models.User] {
	needle := strings.ToLower(term)
	return func(yield func(models.User) bool) {
		if needle == "" {
			return
		}
		for _, m := range members {
			if !strings.Contains(strings.ToLower(m.Name), needle) &&
				!strings.Contains(strings.ToLower(m.Email), needle) {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}

// Insert replaces everything from the last @ with "@name ". Without an @ the
// mention is appended.
func Insert(text, name string) string {
	i := strings.LastIndex(text, "@")
	if i < 0 {
		i = len(text)
	}
	return text[:i] + "@" + name + " "
}

// Names returns the roster names mentioned in text, in order of first
// appearance. Longer names win when one name is a prefix of another.
func Names(text string, members []models.User) []string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	slices.SortStableFunc(names, func(a, b string) int { return len(b) - len(a) })

	var found []string
	for i := 0; i < len(text); {
		at := strings.IndexByte(text[i:], '@')
		if at < 0 {
			break
		}
		i += at + 1
		for _, n := range names {
			if !strings.HasPrefix(text[i:], n) || !boundary(text[i+len(n):]) {
				continue
			}
			if !slices.Contains(found, n) {
				found = append(found, n)
			}
			i += len(n)
			break
		}
	}
	return found
}

// boundary reports whether a mention may end right before rest
func boundary(rest string) bool {
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
