// Package permissions computes what a user may do to a task, project or team.
//
// Every function here is pure: the same inputs always give the same answer
// and nothing is fetched. Callers pass fully loaded entities.
package permissions

import (
	"github.com/tgienger/tasker/internal/models"
	"github.com/tgienger/tasker/internal/session"
)

// Capabilities is the resolved action set for one user on one task
type Capabilities struct {
	Edit           bool
	Delete         bool
	Reassign       bool
	ChangeStatus   bool
	ChangePriority bool
	AddAttachment  bool
	Complete       bool
}

// ForTask resolves user's capabilities on task:
//   - the creator, the assignee, any member of the project's team and the
//     project owner may edit, reassign, change status and priority, and attach
//   - only the creator and the project owner may delete
//   - anyone may complete a task that is not DONE yet
func ForTask(user models.User, task models.Task) Capabilities {
	rel := session.Relate(user, task)
	base := rel.Creator || rel.Assignee || rel.TeamMember || rel.Owner
	return Capabilities{
		Edit:           base,
		Delete:         rel.Creator || rel.Owner,
		Reassign:       base,
		ChangeStatus:   base,
		ChangePriority: base,
		AddAttachment:  base,
		Complete:       task.Status != models.StatusDone,
	}
}
