package service

import (
	"context"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/tgienger/tasker/internal/api"
	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/attachments"
	"github.com/tgienger/tasker/internal/models"
	"github.com/tgienger/tasker/internal/permissions"
	"github.com/tgienger/tasker/internal/query"
)

// Teams reads and mutates teams
type Teams struct {
	api   TeamGateway
	cache *query.Cache
	rec   recorder
}

// NewTeams returns a team service
func NewTeams(gw TeamGateway, cache *query.Cache, log *zap.Logger) *Teams {
	return &Teams{api: gw, cache: cache, rec: newRecorder(cache, log)}
}

// TeamDraft is the content of the team form
type TeamDraft struct {
	Name      string
	Privacy   models.Privacy
	MemberIDs []string
	Avatar    *attachments.Staged
}

func (d TeamDraft) input() (api.TeamInput, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return api.TeamInput{}, apperr.Invalid(apperr.CodeNameRequired)
	}
	if d.Privacy == "" {
		d.Privacy = models.PrivacyPrivate
	}
	in := api.TeamInput{Name: name, Privacy: d.Privacy, MemberIDs: d.MemberIDs}
	if d.Avatar != nil {
		if !strings.HasPrefix(d.Avatar.MimeType, "image/") {
			return api.TeamInput{}, apperr.Invalid(apperr.CodeUnsupportedFile)
		}
		in.Avatar = &api.Upload{Path: d.Avatar.Path, Name: d.Avatar.Name, MimeType: d.Avatar.MimeType}
	}
	return in, nil
}

// List returns the user's teams
func (s *Teams) List(ctx context.Context) ([]models.Team, error) {
	return query.Fetch(ctx, s.cache, query.Teams, s.api.Teams)
}

// Get returns one team with members and projects
func (s *Teams) Get(ctx context.Context, id string) (models.Team, error) {
	return query.Fetch(ctx, s.cache, query.Team(id), func(ctx context.Context) (models.Team, error) {
		return s.api.Team(ctx, id)
	})
}

// Create submits the new-team form
func (s *Teams) Create(ctx context.Context, user models.User, d TeamDraft) (models.Team, error) {
	const action = "create_team"
	fields := []zap.Field{zap.String("user_id", user.ID)}
	in, err := d.input()
	if err != nil {
		return models.Team{}, s.rec.rejected(action, err, fields...)
	}
	t, err := s.api.CreateTeam(ctx, in)
	if err != nil {
		return models.Team{}, s.rec.failed(action, err, nil, fields...)
	}
	s.rec.succeeded(action, []query.Key{query.Teams}, append(fields, zap.String("team_id", t.ID))...)
	return t, nil
}

// Update submits the edit form for team
func (s *Teams) Update(ctx context.Context, user models.User, team models.Team, d TeamDraft) (models.Team, error) {
	const action = "update_team"
	fields := []zap.Field{zap.String("user_id", user.ID), zap.String("team_id", team.ID)}
	if !permissions.ForTeam(user, team).Edit {
		return models.Team{}, s.rec.rejected(action, apperr.Forbidden(apperr.CodeCannotEditTeam), fields...)
	}
	in, err := d.input()
	if err != nil {
		return models.Team{}, s.rec.rejected(action, err, fields...)
	}
	t, err := s.api.UpdateTeam(ctx, team.ID, in)
	if err != nil {
		return models.Team{}, s.rec.failed(action, err, query.AffectedByTeam(team.ID), fields...)
	}
	s.rec.succeeded(action, query.AffectedByTeam(team.ID), fields...)
	return t, nil
}

// Delete removes team
func (s *Teams) Delete(ctx context.Context, user models.User, team models.Team) error {
	const action = "delete_team"
	fields := []zap.Field{zap.String("user_id", user.ID), zap.String("team_id", team.ID)}
	if !permissions.ForTeam(user, team).Delete {
		return s.rec.rejected(action, apperr.Forbidden(apperr.CodeCannotDeleteTeam), fields...)
	}
	if err := s.api.DeleteTeam(ctx, team.ID); err != nil {
		return s.rec.failed(action, err, query.AffectedByTeam(team.ID), fields...)
	}
	s.rec.succeeded(action, query.AffectedByTeam(team.ID), fields...)
	return nil
}

// Invite asks email to join team with role
func (s *Teams) Invite(ctx context.Context, user models.User, team models.Team, email string, role models.Role) error {
	const action = "invite"
	fields := []zap.Field{zap.String("user_id", user.ID), zap.String("team_id", team.ID), zap.String("role", string(role))}
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return s.rec.rejected(action, err, fields...)
	}
	if !role.Valid() {
		return s.rec.rejected(action, apperr.Invalid(apperr.CodeInvalidRole), fields...)
	}
	if !permissions.ForTeam(user, team).Invite {
		return s.rec.rejected(action, apperr.Forbidden(apperr.CodeCannotInvite), fields...)
	}
	if err := s.api.InviteMember(ctx, team.ID, email, role); err != nil {
		return s.rec.failed(action, err, []query.Key{query.Team(team.ID)}, fields...)
	}
	s.rec.succeeded(action, []query.Key{query.Team(team.ID)}, fields...)
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Invalid(apperr.CodeInvalidEmail)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@"):], ".") {
		return apperr.Invalid(apperr.CodeInvalidEmail)
	}
	return nil
}
