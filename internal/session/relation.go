package session

import "github.com/tgienger/tasker/internal/models"

// Relation is how a user stands to one task
type Relation struct {
	Owner      bool
	Creator    bool
	Assignee   bool
	TeamMember bool
	// Role is the user's role in the project's team, when TeamMember is set
	Role models.Role
}

// None reports whether the user is unrelated to the task
func (r Relation) None() bool {
	return !r.Owner && !r.Creator && !r.Assignee && !r.TeamMember
}

// Relate looks up user's relation to task. A zero user id relates to nothing.
func Relate(user models.User, task models.Task) Relation {
	var r Relation
	if user.ID == "" {
		return r
	}
	r.Creator = user.ID == task.CreatorUserID()
	r.Assignee = user.ID == task.AssigneeUserID()
	if task.Project != nil {
		r.Owner = user.ID == task.Project.OwnerID
		if m, ok := task.Project.Team.Member(user.ID); ok {
			r.TeamMember = true
			r.Role = m.Role
		}
	}
	return r
}
