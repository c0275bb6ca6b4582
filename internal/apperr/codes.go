package apperr

// Validation codes
const (
	CodeTitleRequired     = "titleRequired"
	CodeProjectRequired   = "projectRequired"
	CodeNameRequired      = "nameRequired"
	CodeInvalidEmail      = "invalidEmail"
	CodeInvalidRole       = "invalidRole"
	CodeInvalidDateRange  = "invalidDateRange"
	CodeInvalidDate       = "invalidDate"
	CodeInvalidStatus     = "invalidStatus"
	CodeStatusUnchanged   = "statusUnchanged"
	CodeAlreadyDone       = "alreadyDone"
	CodeInvalidPriority   = "invalidPriority"
	CodePriorityUnchanged = "priorityUnchanged"
	CodeInvalidFlag       = "invalidFlag"
	CodeAssigneeNotMember = "assigneeNotMember"
	CodeAssigneeUnchanged = "assigneeUnchanged"
	CodeCommentEmpty      = "commentEmpty"
	CodeNoAttachments     = "noAttachments"
	CodeUnsupportedFile   = "unsupportedFile"
	CodeFileUnreadable    = "fileUnreadable"
	CodeServerRejected    = "serverRejected"
)

// Authorization codes
const (
	CodeCannotEdit           = "cannotEdit"
	CodeCannotDelete         = "cannotDelete"
	CodeCannotReassign       = "cannotReassign"
	CodeCannotChangeStatus   = "cannotChangeStatus"
	CodeCannotChangePriority = "cannotChangePriority"
	CodeCannotAddAttachment  = "cannotAddAttachment"
	CodeCannotComplete       = "cannotComplete"
	CodeCannotEditProject    = "cannotEditProject"
	CodeCannotDeleteProject  = "cannotDeleteProject"
	CodeCannotCreateTask     = "cannotCreateTask"
	CodeCannotEditTeam       = "cannotEditTeam"
	CodeCannotDeleteTeam     = "cannotDeleteTeam"
	CodeCannotInvite         = "cannotInvite"
	CodeNotSignedIn          = "notSignedIn"
	CodeSessionInvalid       = "sessionInvalid"
	CodeSessionExpired       = "sessionExpired"
	CodeServerForbidden      = "serverForbidden"
)

// Network and not-found codes
const (
	CodeNetworkUnavailable = "networkUnavailable"
	CodeTimeout            = "timeout"
	CodeServerError        = "serverError"
	CodeTaskNotFound       = "taskNotFound"
	CodeProjectNotFound    = "projectNotFound"
	CodeTeamNotFound       = "teamNotFound"
	CodeNotFound           = "notFound"
)
