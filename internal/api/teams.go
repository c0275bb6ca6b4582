package api

import (
	"context"
	"net/http"

	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/models"
)

// TeamInput creates or edits a team. Avatar is an optional local image.
type TeamInput struct {
	Name      string
	Privacy   models.Privacy
	MemberIDs []string
	Avatar    *Upload
}

func (in TeamInput) fields() []field {
	var fs []field
	if in.Name != "" {
		fs = append(fs, field{"name", in.Name})
	}
	if in.Privacy != "" {
		fs = append(fs, field{"privacy", string(in.Privacy)})
	}
	for _, id := range in.MemberIDs {
		fs = append(fs, field{"memberIds[]", id})
	}
	return fs
}

func (in TeamInput) files() []Upload {
	if in.Avatar == nil {
		return nil
	}
	return []Upload{*in.Avatar}
}

// Teams lists the user's teams
func (c *Client) Teams(ctx context.Context) ([]models.Team, error) {
	var out []models.Team
	err := c.do(ctx, request{method: http.MethodGet, path: "/teams"}, &out)
	return out, err
}

// Team fetches one team with its members and projects
func (c *Client) Team(ctx context.Context, id string) (models.Team, error) {
	var t models.Team
	err := c.do(ctx, request{method: http.MethodGet, path: "/teams/" + id, notFound: apperr.CodeTeamNotFound}, &t)
	return t, err
}

// CreateTeam creates a team
func (c *Client) CreateTeam(ctx context.Context, in TeamInput) (models.Team, error) {
	r, err := multipartRequest(http.MethodPost, "/teams", in.fields(), "avatar", in.files())
	if err != nil {
		return models.Team{}, err
	}
	var t models.Team
	err = c.do(ctx, r, &t)
	return t, err
}

// UpdateTeam edits a team
func (c *Client) UpdateTeam(ctx context.Context, id string, in TeamInput) (models.Team, error) {
	r, err := multipartRequest(http.MethodPatch, "/teams/"+id, in.fields(), "avatar", in.files())
	if err != nil {
		return models.Team{}, err
	}
	r.notFound = apperr.CodeTeamNotFound
	var t models.Team
	err = c.do(ctx, r, &t)
	return t, err
}

// DeleteTeam deletes a team
func (c *Client) DeleteTeam(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/teams/" + id, notFound: apperr.CodeTeamNotFound}, nil)
}

// InviteMember invites email to the team with role
func (c *Client) InviteMember(ctx context.Context, teamID, email string, role models.Role) error {
	r, err := jsonRequest(http.MethodPost, "/invites/team/"+teamID, map[string]string{"email": email, "role": string(role)})
	if err != nil {
		return err
	}
	r.notFound = apperr.CodeTeamNotFound
	return c.do(ctx, r, nil)
}
