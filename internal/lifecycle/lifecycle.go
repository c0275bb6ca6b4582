// Package lifecycle holds the rules every task mutation is checked against
// before it is sent.
//
// Any status may move to any other status when the actor may change status.
// Completing is a separate transition to DONE gated by Capabilities.Complete.
package lifecycle

import (
	"time"

	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/models"
	"github.com/tgienger/tasker/internal/permissions"
)

// ValidateTransition checks a general status change of task to `to`
func ValidateTransition(caps permissions.Capabilities, task models.Task, to models.Status) error {
	if !to.Valid() {
		return apperr.Invalid(apperr.CodeInvalidStatus)
	}
	if !caps.ChangeStatus {
		return apperr.Forbidden(apperr.CodeCannotChangeStatus)
	}
	if to == task.Status {
		return apperr.Invalid(apperr.CodeStatusUnchanged)
	}
	return nil
}

// ValidateComplete checks the dedicated complete action
func ValidateComplete(caps permissions.Capabilities, task models.Task) error {
	if task.Status == models.StatusDone {
		return apperr.Invalid(apperr.CodeAlreadyDone)
	}
	if !caps.Complete {
		return apperr.Forbidden(apperr.CodeCannotComplete)
	}
	return nil
}

// ValidatePriority checks a priority change
func ValidatePriority(caps permissions.Capabilities, task models.Task, to models.Priority) error {
	if !to.Valid() {
		return apperr.Invalid(apperr.CodeInvalidPriority)
	}
	if !caps.ChangePriority {
		return apperr.Forbidden(apperr.CodeCannotChangePriority)
	}
	if to == task.Priority {
		return apperr.Invalid(apperr.CodePriorityUnchanged)
	}
	return nil
}

// ValidateReassign checks handing task to assigneeID. An empty id unassigns.
func ValidateReassign(caps permissions.Capabilities, task models.Task, assigneeID string) error {
	if !caps.Reassign {
		return apperr.Forbidden(apperr.CodeCannotReassign)
	}
	if assigneeID == task.AssigneeUserID() {
		return apperr.Invalid(apperr.CodeAssigneeUnchanged)
	}
	if task.Project != nil {
		return permissions.ValidateAssignee(*task.Project, assigneeID)
	}
	return nil
}

// ValidateDeadline checks a new end date against the task's start date
func ValidateDeadline(caps permissions.Capabilities, task models.Task, end *time.Time) error {
	if !caps.Edit {
		return apperr.Forbidden(apperr.CodeCannotEdit)
	}
	return ValidateDates(task.StartDate, end)
}

// ValidateEdit checks that the actor may edit the task's fields
func ValidateEdit(caps permissions.Capabilities) error {
	if !caps.Edit {
		return apperr.Forbidden(apperr.CodeCannotEdit)
	}
	return nil
}

// ValidateDelete checks that the actor may delete the task
func ValidateDelete(caps permissions.Capabilities) error {
	if !caps.Delete {
		return apperr.Forbidden(apperr.CodeCannotDelete)
	}
	return nil
}

// ValidateAttach checks adding n staged files to the task
func ValidateAttach(caps permissions.Capabilities, n int) error {
	if !caps.AddAttachment {
		return apperr.Forbidden(apperr.CodeCannotAddAttachment)
	}
	if n == 0 {
		return apperr.Invalid(apperr.CodeNoAttachments)
	}
	return nil
}

// ValidateDates rejects an end date before the start date. Either may be nil.
func ValidateDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return apperr.Invalid(apperr.CodeInvalidDateRange)
	}
	return nil
}

// Next returns the status after s in the TODO, IN_PROGRESS, DONE cycle
func Next(s models.Status) models.Status {
	switch s {
	case models.StatusTodo:
		return models.StatusInProgress
	case models.StatusInProgress:
		return models.StatusDone
	}
	return models.StatusTodo
}

// NextPriority returns the priority after p, wrapping from CRITICAL to LOW
func NextPriority(p models.Priority) models.Priority {
	i := p.Rank()
	return models.Priorities[(i+1)%len(models.Priorities)]
}
