package models

import "strings"

// Role is a user's role inside one team
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// Roles lists the team roles in descending authority
var Roles = []Role{RoleAdmin, RoleManager, RoleMember}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

// Status is a task's lifecycle state
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Statuses lists the lifecycle states in display order
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Label returns a human readable status
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To do"
	case StatusInProgress:
		return "In progress"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// Priority is a task's urgency
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Priorities lists priorities from lowest to highest
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Rank orders priorities, LOW being 0. Unknown priorities rank -1.
func (p Priority) Rank() int {
	for i, v := range Priorities {
		if v == p {
			return i
		}
	}
	return -1
}

// Flag marks a project's urgency. It is independent of any task priority.
type Flag string

const (
	FlagNormal   Flag = "NORMAL"
	FlagUrgent   Flag = "URGENT"
	FlagCritical Flag = "CRITICAL"
)

// Valid reports whether f is a known flag
func (f Flag) Valid() bool {
	switch f {
	case FlagNormal, FlagUrgent, FlagCritical:
		return true
	}
	return false
}

// Privacy is a team's visibility
type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyPrivate Privacy = "private"
)

// ParseStatus accepts the wire form case-insensitively, with spaces or
// dashes in place of underscores.
func ParseStatus(s string) (Status, bool) {
	v := Status(normalizeEnum(s))
	return v, v.Valid()
}

// ParsePriority accepts the wire form case-insensitively
func ParsePriority(s string) (Priority, bool) {
	v := Priority(normalizeEnum(s))
	return v, v.Valid()
}

// ParseRole accepts a role case-insensitively
func ParseRole(s string) (Role, bool) {
	v := Role(strings.ToLower(strings.TrimSpace(s)))
	return v, v.Valid()
}

func normalizeEnum(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
