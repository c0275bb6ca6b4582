package permissions

import (
	"slices"

	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/models"
)

// ProjectCapabilities is the resolved action set on one project
type ProjectCapabilities struct {
	View       bool
	Edit       bool
	Delete     bool
	CreateTask bool
}

// ForProject resolves user's capabilities on project. The owner may edit and
// delete it; the owner and the members of its team may add tasks.
func ForProject(user models.User, project models.Project) ProjectCapabilities {
	isOwner := user.ID != "" && user.ID == project.OwnerID
	_, isMember := project.Team.Member(user.ID)
	return ProjectCapabilities{
		View:       true,
		Edit:       isOwner,
		Delete:     isOwner,
		CreateTask: isOwner || isMember,
	}
}

// ValidateAssignee checks that assigneeID may hold a task of project. An
// empty id means unassigned and is always valid.
func ValidateAssignee(project models.Project, assigneeID string) error {
	if assigneeID == "" {
		return nil
	}
	if assigneeID == project.OwnerID {
		return nil
	}
	if _, ok := project.Team.Member(assigneeID); ok {
		return nil
	}
	return apperr.Invalid(apperr.CodeAssigneeNotMember)
}

// Assignees lists the users a task of project can be given to: the owner
// first, then the team roster in order, without duplicates.
func Assignees(project models.Project) []models.User {
	var out []models.User
	seen := map[string]bool{}
	add := func(u models.User) {
		if u.ID == "" || seen[u.ID] {
			return
		}
		seen[u.ID] = true
		out = append(out, u)
	}
	switch {
	case project.Owner != nil:
		add(*project.Owner)
	case project.OwnerID != "":
		add(models.User{ID: project.OwnerID})
	}
	if project.Team != nil {
		for _, m := range project.Team.Members {
			add(m.User)
		}
	}
	return slices.Clip(out)
}
