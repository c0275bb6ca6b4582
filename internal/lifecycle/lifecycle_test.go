package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/models"
	"github.com/tgienger/tasker/internal/permissions"
)

var (
	editor   = permissions.Capabilities{Edit: true, Reassign: true, ChangeStatus: true, ChangePriority: true, AddAttachment: true, Complete: true}
	stranger = permissions.Capabilities{Complete: true}
)

func TestValidateTransitionAnyToAny(t *testing.T) {
	for _, from := range models.Statuses {
		for _, to := range models.Statuses {
			if from == to {
				continue
			}
			err := ValidateTransition(editor, models.Task{Status: from}, to)
			assert.NoError(t, err, "%s -> %s", from, to)
		}
	}
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name string
		caps permissions.Capabilities
		from models.Status
		to   models.Status
		want *apperr.Error
	}{
		{"todo to done", editor, models.StatusTodo, models.StatusDone, nil},
		{"unknown status", editor, models.StatusTodo, "ARCHIVED", apperr.Invalid(apperr.CodeInvalidStatus)},
		{"same status", editor, models.StatusInProgress, models.StatusInProgress, apperr.Invalid(apperr.CodeStatusUnchanged)},
		{"no permission", stranger, models.StatusTodo, models.StatusDone, apperr.Forbidden(apperr.CodeCannotChangeStatus)},
		{"no permission beats same status", stranger, models.StatusDone, models.StatusDone, apperr.Forbidden(apperr.CodeCannotChangeStatus)},
		{"unknown status beats no permission", stranger, models.StatusTodo, "ARCHIVED", apperr.Invalid(apperr.CodeInvalidStatus)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.caps, models.Task{Status: tt.from}, tt.to)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateComplete(t *testing.T) {
	assert.NoError(t, ValidateComplete(stranger, models.Task{Status: models.StatusInProgress}))

	err := ValidateComplete(editor, models.Task{Status: models.StatusDone})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.ErrorIs(t, err, apperr.Invalid(apperr.CodeAlreadyDone))

	assert.ErrorIs(t, ValidateComplete(permissions.Capabilities{}, models.Task{Status: models.StatusTodo}),
		apperr.Forbidden(apperr.CodeCannotComplete))
}

func TestValidatePriority(t *testing.T) {
	task := models.Task{Priority: models.PriorityLow}
	assert.NoError(t, ValidatePriority(editor, task, models.PriorityCritical))
	assert.ErrorIs(t, ValidatePriority(editor, task, "URGENT"), apperr.Invalid(apperr.CodeInvalidPriority))
	assert.ErrorIs(t, ValidatePriority(editor, task, models.PriorityLow), apperr.Invalid(apperr.CodePriorityUnchanged))
	assert.ErrorIs(t, ValidatePriority(stranger, task, models.PriorityHigh), apperr.Forbidden(apperr.CodeCannotChangePriority))
}

func TestValidateReassign(t *testing.T) {
	task := models.Task{
		Assignee: &models.User{ID: "a"},
		Project: &models.Project{OwnerID: "o", Team: &models.Team{Members: []models.TeamMember{
			{User: models.User{ID: "m"}},
		}}},
	}

	assert.NoError(t, ValidateReassign(editor, task, "m"))
	assert.NoError(t, ValidateReassign(editor, task, "o"))
	assert.NoError(t, ValidateReassign(editor, task, ""))
	assert.ErrorIs(t, ValidateReassign(editor, task, "a"), apperr.Invalid(apperr.CodeAssigneeUnchanged))
	assert.ErrorIs(t, ValidateReassign(editor, task, "x"), apperr.Invalid(apperr.CodeAssigneeNotMember))
	assert.ErrorIs(t, ValidateReassign(stranger, task, "m"), apperr.Forbidden(apperr.CodeCannotReassign))
}

func TestValidateDeadline(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	before := start.AddDate(0, 0, -1)
	after := start.AddDate(0, 0, 7)
	task := models.Task{StartDate: &start}

	assert.NoError(t, ValidateDeadline(editor, task, &after))
	assert.NoError(t, ValidateDeadline(editor, task, nil))
	assert.ErrorIs(t, ValidateDeadline(editor, task, &before), apperr.Invalid(apperr.CodeInvalidDateRange))
	assert.ErrorIs(t, ValidateDeadline(stranger, task, &after), apperr.Forbidden(apperr.CodeCannotEdit))
}

func TestSimpleGates(t *testing.T) {
	assert.NoError(t, ValidateEdit(editor))
	assert.ErrorIs(t, ValidateEdit(stranger), apperr.Forbidden(apperr.CodeCannotEdit))

	assert.NoError(t, ValidateDelete(permissions.Capabilities{Delete: true}))
	assert.ErrorIs(t, ValidateDelete(editor), apperr.Forbidden(apperr.CodeCannotDelete))

	assert.NoError(t, ValidateAttach(editor, 2))
	assert.ErrorIs(t, ValidateAttach(editor, 0), apperr.Invalid(apperr.CodeNoAttachments))
	assert.ErrorIs(t, ValidateAttach(stranger, 1), apperr.Forbidden(apperr.CodeCannotAddAttachment))
}

func TestNext(t *testing.T) {
	assert.Equal(t, models.StatusInProgress, Next(models.StatusTodo))
	assert.Equal(t, models.StatusDone, Next(models.StatusInProgress))
	assert.Equal(t, models.StatusTodo, Next(models.StatusDone))
	assert.Equal(t, models.StatusTodo, Next("bogus"))

	assert.Equal(t, models.PriorityMedium, NextPriority(models.PriorityLow))
	assert.Equal(t, models.PriorityLow, NextPriority(models.PriorityCritical))
}

func TestActiveAndDone(t *testing.T) {
	tasks := []models.Task{
		{ID: "1", Status: models.StatusTodo},
		{ID: "2", Status: models.StatusDone},
		{ID: "3", Status: models.StatusInProgress},
		{ID: "4", Status: models.StatusDone},
	}
	ids := func(ts []models.Task) []string {
		var out []string
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}
	assert.Equal(t, []string{"1", "3"}, ids(Active(tasks)))
	assert.Equal(t, []string{"2", "4"}, ids(Done(tasks)))
	assert.Len(t, tasks, 4)
}
