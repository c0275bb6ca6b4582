package query

import "github.com/tgienger/tasker/internal/models"

var (
	Tasks      = Key{"tasks"}
	MyAssigned = Key{"tasks", "my", "assigned"}
	MyCreated  = Key{"tasks", "my", "created"}
	Projects   = Key{"projects"}
	Teams      = Key{"teams"}
)

func Task(id string) Key    { return Key{"task", id} }
func Project(id string) Key { return Key{"project", id} }
func Team(id string) Key    { return Key{"team", id} }

// Search keys a filtered task search under the task lists
func Search(q, projectID, status, priority string) Key {
	return Key{"tasks", "search", q, projectID, status, priority}
}

// AffectedByTask lists what a mutation of task makes stale: the task itself,
// every task list and the owning project.
func AffectedByTask(task models.Task) []Key {
	keys := []Key{Task(task.ID), Tasks}
	if task.ProjectID != "" {
		keys = append(keys, Project(task.ProjectID))
	} else if task.Project != nil && task.Project.ID != "" {
		keys = append(keys, Project(task.Project.ID))
	}
	return keys
}

// AffectedByProject lists what a mutation of a project makes stale
func AffectedByProject(id string) []Key {
	return []Key{Project(id), Projects}
}

// AffectedByTeam lists what a mutation of a team makes stale. Projects embed
// their team, so they go too.
func AffectedByTeam(id string) []Key {
	return []Key{Team(id), Teams, Projects, {"project"}}
}
