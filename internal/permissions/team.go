package permissions

import "github.com/tgienger/tasker/internal/models"

// TeamCapabilities is the resolved action set on one team
type TeamCapabilities struct {
	Edit   bool
	Delete bool
	Invite bool
}

// ForTeam resolves user's capabilities on team. The creator and admins run
// the team; managers may only invite.
func ForTeam(user models.User, team models.Team) TeamCapabilities {
	if user.ID == "" {
		return TeamCapabilities{}
	}
	if user.ID == team.CreatedBy {
		return TeamCapabilities{Edit: true, Delete: true, Invite: true}
	}
	m, ok := team.Member(user.ID)
	if !ok {
		return TeamCapabilities{}
	}
	switch m.Role {
	case models.RoleAdmin:
		return TeamCapabilities{Edit: true, Delete: true, Invite: true}
	case models.RoleManager:
		return TeamCapabilities{Invite: true}
	}
	return TeamCapabilities{}
}
