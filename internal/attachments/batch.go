package attachments

import "slices"

// Batch is the ordered list of files staged by one form. The owning form
// hands Items to its submit call, clears the batch on success and keeps it
// on failure.
type Batch struct {
	items []Staged
}

// Add appends files in order
func (b *Batch) Add(files ...Staged) {
	b.items = append(b.items, files...)
}

// Remove drops the file at index i. Out of range indexes are ignored.
func (b *Batch) Remove(i int) bool {
	if i < 0 || i >= len(b.items) {
		return false
	}
	b.items = slices.Delete(b.items, i, i+1)
	return true
}

// Items returns a copy of the staged files in display order
func (b *Batch) Items() []Staged {
	return slices.Clone(b.items)
}

// Len returns the number of staged files
func (b *Batch) Len() int { return len(b.items) }

// Clear empties the batch
func (b *Batch) Clear() { b.items = nil }

// Total returns the combined size in bytes
func (b *Batch) Total() int64 {
	var n int64
	for _, s := range b.items {
		n += s.Size
	}
	return n
}

// Paths returns the local paths, used to persist a draft
func (b *Batch) Paths() []string {
	out := make([]string, len(b.items))
	for i, s := range b.items {
		out[i] = s.Path
	}
	return out
}

// Restore rebuilds a batch from saved paths. Files that can no longer be
// read are dropped.
func Restore(paths []string) *Batch {
	b := &Batch{}
	for _, p := range paths {
		origin := Document
		if Allowed(MimeType(p), Image) {
			origin = Image
		}
		s, err := FromPath(p, origin)
		if err != nil {
			continue
		}
		b.Add(s)
	}
	return b
}
