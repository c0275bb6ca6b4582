package lifecycle

import "github.com/tgienger/tasker/internal/models"

// IsActive reports whether t shows up in active views
func IsActive(t models.Task) bool {
	return t.Status != models.StatusDone
}

// Active returns the tasks that are not DONE, in order
func Active(tasks []models.Task) []models.Task {
	return filter(tasks, IsActive)
}

// Done returns the DONE tasks, in order
func Done(tasks []models.Task) []models.Task {
	return filter(tasks, func(t models.Task) bool { return !IsActive(t) })
}

func filter(tasks []models.Task, keep func(models.Task) bool) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
