package apperr_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/tgienger/tasker/internal/apperr"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"nil", nil, 0},
		{"validation", apperr.Invalid(apperr.CodeTitleRequired), apperr.KindValidation},
		{"forbidden", apperr.Forbidden(apperr.CodeCannotReassign), apperr.KindForbidden},
		{"not found", apperr.NotFound(apperr.CodeTaskNotFound), apperr.KindNotFound},
		{"wrapped", fmt.Errorf("reassign: %w", apperr.Forbidden(apperr.CodeCannotReassign)), apperr.KindForbidden},
		{"plain error is network", errors.New("connection reset"), apperr.KindNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.KindOf(tt.err))
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "", apperr.CodeOf(nil))
	assert.Equal(t, apperr.CodeAlreadyDone, apperr.CodeOf(fmt.Errorf("x: %w", apperr.Invalid(apperr.CodeAlreadyDone))))
	assert.Equal(t, apperr.CodeTimeout, apperr.CodeOf(fmt.Errorf("get: %w", context.DeadlineExceeded)))
	assert.Equal(t, apperr.CodeNetworkUnavailable, apperr.CodeOf(errors.New("boom")))
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("complete: %w", apperr.Invalid(apperr.CodeAlreadyDone))

	assert.ErrorIs(t, err, apperr.Invalid(apperr.CodeAlreadyDone))
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation})
	assert.NotErrorIs(t, err, apperr.Invalid(apperr.CodeTitleRequired))
	assert.NotErrorIs(t, err, apperr.Forbidden(apperr.CodeAlreadyDone))
}

func TestNetworkUnwraps(t *testing.T) {
	err := apperr.Network(apperr.CodeServerError, fs.ErrClosed)
	assert.ErrorIs(t, err, fs.ErrClosed)
	assert.Contains(t, err.Error(), "serverError")
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		lang string
		want string
	}{
		{
			name: "permission",
			err:  apperr.Forbidden(apperr.CodeCannotReassign),
			lang: apperr.LanguageEn,
			want: "You don't have permission to reassign this task.",
		},
		{
			name: "required field",
			err:  apperr.Invalid(apperr.CodeTitleRequired),
			lang: apperr.LanguageEn,
			want: "A title is required.",
		},
		{
			name: "unreachable server",
			err:  errors.New("dial tcp: connection refused"),
			lang: apperr.LanguageEn,
			want: "Could not reach the server. Try again.",
		},
		{
			name: "french",
			err:  apperr.Invalid(apperr.CodeTitleRequired),
			lang: apperr.LanguageFr,
			want: "Un titre est requis.",
		},
		{
			name: "generic not found in french",
			err:  apperr.NotFound(apperr.CodeNotFound),
			lang: apperr.LanguageFr,
			want: "Introuvable.",
		},
		{
			name: "unknown language falls back to english",
			err:  apperr.Invalid(apperr.CodeCommentEmpty),
			lang: "de",
			want: "Write something or attach a file.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.Message(tt.err, tt.lang))
		})
	}
}

func TestMessageHidesCause(t *testing.T) {
	err := apperr.Network(apperr.CodeServerError, errors.New("pq: relation tasks_secret does not exist"))
	msg := apperr.Message(err, apperr.LanguageEn)
	assert.NotContains(t, msg, "tasks_secret")
}

func TestTranslateMissingInFrenchUsesEnglish(t *testing.T) {
	require.NoError(t, apperr.Bundle().AddMessages(language.English, &i18n.Message{ID: "onlyInEnglish", Other: "Only in English."}))
	assert.Equal(t, "Only in English.", apperr.Translate("onlyInEnglish", apperr.LanguageFr))
	assert.Equal(t, "Only in English.", apperr.Message(apperr.Invalid("onlyInEnglish"), apperr.LanguageFr))
}

func TestLocalesHaveSameKeys(t *testing.T) {
	load := func(name string) map[string]any {
		b, err := os.ReadFile("locales/" + name)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, toml.Unmarshal(b, &m))
		return m
	}
	en, fr := load("active.en.toml"), load("active.fr.toml")
	for id := range en {
		assert.Contains(t, fr, id, "french is missing %s", id)
	}
	for id := range fr {
		assert.Contains(t, en, id, "english is missing %s", id)
	}
}

func TestTranslateUnknownID(t *testing.T) {
	assert.Equal(t, "noSuchMessage", apperr.Translate("noSuchMessage", apperr.LanguageEn))
}

func TestEveryCodeHasEnglishText(t *testing.T) {
	codes := []string{
		apperr.CodeTitleRequired, apperr.CodeProjectRequired, apperr.CodeNameRequired,
		apperr.CodeInvalidEmail, apperr.CodeInvalidRole, apperr.CodeInvalidDateRange, apperr.CodeInvalidDate,
		apperr.CodeInvalidStatus, apperr.CodeStatusUnchanged, apperr.CodeAlreadyDone,
		apperr.CodeInvalidPriority, apperr.CodePriorityUnchanged, apperr.CodeInvalidFlag, apperr.CodeAssigneeNotMember,
		apperr.CodeAssigneeUnchanged, apperr.CodeCommentEmpty, apperr.CodeNoAttachments,
		apperr.CodeUnsupportedFile, apperr.CodeFileUnreadable, apperr.CodeServerRejected,
		apperr.CodeCannotEdit, apperr.CodeCannotDelete, apperr.CodeCannotReassign,
		apperr.CodeCannotChangeStatus, apperr.CodeCannotChangePriority, apperr.CodeCannotAddAttachment,
		apperr.CodeCannotComplete, apperr.CodeCannotEditProject, apperr.CodeCannotDeleteProject,
		apperr.CodeCannotCreateTask, apperr.CodeCannotEditTeam, apperr.CodeCannotDeleteTeam,
		apperr.CodeCannotInvite, apperr.CodeNotSignedIn, apperr.CodeSessionInvalid, apperr.CodeSessionExpired, apperr.CodeServerForbidden,
		apperr.CodeNetworkUnavailable, apperr.CodeTimeout, apperr.CodeServerError,
		apperr.CodeTaskNotFound, apperr.CodeProjectNotFound, apperr.CodeTeamNotFound, apperr.CodeNotFound,
	}
	require.NotNil(t, apperr.Bundle())
	for _, c := range codes {
		assert.NotEqual(t, c, apperr.Translate(c, apperr.LanguageEn), c)
	}
}
