package models

import "time"

// User is the identity atom shared by every other entity
type User struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Avatar *string `json:"avatar,omitempty"`
}

// DisplayName returns the name, falling back to the email
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// TeamMember is a user's membership in a team with the role they hold there
type TeamMember struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	User User   `json:"user"`
}

// Team is a named group of users that grants edit rights on its projects' tasks
type Team struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	Avatar      *string      `json:"avatar,omitempty"`
	Privacy     Privacy      `json:"privacy"`
	CreatedBy   string       `json:"createdBy"`
	Members     []TeamMember `json:"members,omitempty"`
	Projects    []Project    `json:"projects,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Member returns the membership of userID, if any
func (t *Team) Member(userID string) (TeamMember, bool) {
	if t == nil || userID == "" {
		return TeamMember{}, false
	}
	for _, m := range t.Members {
		if m.User.ID == userID {
			return m, true
		}
	}
	return TeamMember{}, false
}

// Project is a container of tasks with an owner and an optional team
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	OwnerID     string     `json:"ownerId"`
	Owner       *User      `json:"owner,omitempty"`
	TeamID      *string    `json:"teamId,omitempty"`
	Team        *Team      `json:"team,omitempty"`
	Flag        Flag       `json:"flag"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Tasks       []Task     `json:"tasks,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Task is the unit of trackable work
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	Status      Status       `json:"status"`
	Priority    Priority     `json:"priority"`
	AssigneeID  *string      `json:"assigneeId,omitempty"`
	Assignee    *User        `json:"assignee,omitempty"`
	CreatorID   string       `json:"creatorId"`
	Creator     User         `json:"creator"`
	ProjectID   string       `json:"projectId"`
	Project     *Project     `json:"project,omitempty"`
	StartDate   *time.Time   `json:"startDate,omitempty"`
	EndDate     *time.Time   `json:"endDate,omitempty"`
	Files       []Attachment `json:"files,omitempty"`
	Comments    []Comment    `json:"comments,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// AssigneeUserID returns the assignee's id or "" when unassigned
func (t Task) AssigneeUserID() string {
	if t.Assignee != nil && t.Assignee.ID != "" {
		return t.Assignee.ID
	}
	if t.AssigneeID != nil {
		return *t.AssigneeID
	}
	return ""
}

// CreatorUserID returns the creator's id
func (t Task) CreatorUserID() string {
	if t.Creator.ID != "" {
		return t.Creator.ID
	}
	return t.CreatorID
}

// Comment is an append-only note on a task. Content may embed @name mentions.
type Comment struct {
	ID        string       `json:"id"`
	TaskID    string       `json:"taskId"`
	Content   string       `json:"content"`
	Author    User         `json:"author"`
	Files     []Attachment `json:"files,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Attachment is a file owned by a task or a comment.
//
// A staged attachment only has a local URI (a path on this machine); a
// persisted one has the server id and URL.
type Attachment struct {
	ID       string `json:"id,omitempty"`
	URL      string `json:"url,omitempty"`
	URI      string `json:"-"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size,omitempty"`
}

// IsStaged reports whether the attachment has not been uploaded yet
func (a Attachment) IsStaged() bool {
	return a.ID == "" && a.URL == "" && a.URI != ""
}
