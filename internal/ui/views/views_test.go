package views

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/attachments"
	"github.com/tgienger/tasker/internal/models"
	"github.com/tgienger/tasker/internal/session"
	"github.com/tgienger/tasker/internal/ui/styles"
)

func strPtr(s string) *string { return &s }

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Ship the release", "Ship the release"},
		{"tags stripped", "<b>Ship</b> <i>it</i>", "Ship it"},
		{"entities decoded", "Q&amp;A <em>today</em>", "Q&A today"},
		{"script dropped", "<script>alert(1)</script>ok", "ok"},
		{"control chars dropped", "a\x1b[31mb\x07", "a[31mb"},
		{"newlines kept", "  first\nsecond\tcol  ", "first\nsecond\tcol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clean(tt.in))
		})
	}

	assert.Empty(t, cleanPtr(nil))
	assert.Equal(t, "hi", cleanPtr(strPtr("<p>hi</p>")))
}

func TestParseDate(t *testing.T) {
	d, ok := parseDate(" 2026-03-04 ")
	require.True(t, ok)
	require.NotNil(t, d)
	assert.Equal(t, time.Date(2026, time.March, 4, 0, 0, 0, 0, time.Local), *d)

	d, ok = parseDate("")
	assert.True(t, ok)
	assert.Nil(t, d)

	_, ok = parseDate("03/04/2026")
	assert.False(t, ok)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "-", formatDate(nil))
	assert.Equal(t, "-", formatDate(&time.Time{}))

	d := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.Local)
	assert.Equal(t, "Mar 4, 2026", formatDate(&d))
}

func TestUserName(t *testing.T) {
	assert.Equal(t, "Unassigned", userName(nil))
	assert.Equal(t, "ann@example.com", userName(&models.User{Email: "ann@example.com"}))
	assert.Equal(t, "Ann", userName(&models.User{Name: "<b>Ann</b>", Email: "ann@example.com"}))
}

func TestVisibleTasks(t *testing.T) {
	tasks := []models.Task{
		{ID: "low", Title: "Sweep", Status: models.StatusTodo, Priority: models.PriorityLow},
		{ID: "crit", Title: "Outage", Status: models.StatusInProgress, Priority: models.PriorityCritical},
		{ID: "done", Title: "Retro", Status: models.StatusDone, Priority: models.PriorityHigh},
		{ID: "med", Title: "Docs", Description: strPtr("alpha release notes"), Status: models.StatusTodo, Priority: models.PriorityMedium},
		{ID: "low2", Title: "Tidy", Status: models.StatusTodo, Priority: models.PriorityLow},
	}

	ids := func(ts []models.Task) []string {
		out := make([]string, len(ts))
		for i, t := range ts {
			out[i] = t.ID
		}
		return out
	}

	t.Run("active by priority", func(t *testing.T) {
		assert.Equal(t, []string{"crit", "med", "low", "low2"}, ids(visibleTasks(tasks, false, "")))
	})

	t.Run("completed only", func(t *testing.T) {
		assert.Equal(t, []string{"done"}, ids(visibleTasks(tasks, true, "")))
	})

	t.Run("search matches description", func(t *testing.T) {
		assert.Equal(t, []string{"med"}, ids(visibleTasks(tasks, false, "  ALPHA ")))
	})

	t.Run("search respects completed", func(t *testing.T) {
		assert.Empty(t, visibleTasks(tasks, true, "outage"))
	})

	t.Run("input untouched", func(t *testing.T) {
		assert.Equal(t, "low", tasks[0].ID)
		assert.Equal(t, "crit", tasks[1].ID)
	})
}

func TestInProject(t *testing.T) {
	project := models.Project{ID: "p1", Name: "Launch"}
	tasks := []models.Task{
		{ID: "a", ProjectID: "p1"},
		{ID: "b", Project: &models.Project{ID: "p1"}},
		{ID: "c", ProjectID: "p2"},
	}

	got := inProject(tasks, project)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	for _, task := range got {
		require.NotNil(t, task.Project)
		assert.Equal(t, "Launch", task.Project.Name)
	}
	assert.Nil(t, tasks[0].Project)
}

func TestStep(t *testing.T) {
	assert.Equal(t, models.StatusInProgress, step(models.Statuses, models.StatusTodo, 1))
	assert.Equal(t, models.StatusTodo, step(models.Statuses, models.StatusDone, 1))
	assert.Equal(t, models.StatusDone, step(models.Statuses, models.StatusTodo, -1))
	assert.Equal(t, models.PriorityMedium, step(models.Priorities, models.PriorityLow, 1))
}

func TestScopeCycle(t *testing.T) {
	s := ScopeAll
	seen := map[Scope]bool{}
	for range 3 {
		seen[s] = true
		s = s.next()
	}
	assert.Equal(t, ScopeAll, s)
	assert.Len(t, seen, 3)
	assert.False(t, seen[ScopeSearch])
	assert.Equal(t, ScopeAll, ScopeSearch.next())
}

func TestBanner(t *testing.T) {
	var b banner
	assert.False(t, b.visible())
	assert.Empty(t, b.view(styles.NewStyles(), 80))

	b.fail(apperr.Invalid(apperr.CodeInvalidDate), "en")
	assert.True(t, b.visible())
	assert.True(t, b.isErr)
	assert.Contains(t, b.text, "YYYY-MM-DD")

	b.notice("Saved")
	assert.False(t, b.isErr)
	assert.Contains(t, b.view(styles.NewStyles(), 80), "Saved")

	b.clear()
	assert.False(t, b.visible())
}

func TestHelpLine(t *testing.T) {
	s := styles.NewStyles()
	items := [][2]string{{"n", "new task"}, {"/", "search"}}

	assert.Contains(t, helpLine(s, 80, items), "new task")

	narrow := helpLine(s, 40, items)
	assert.Contains(t, narrow, "help")
	assert.NotContains(t, narrow, "new task")
}

func TestTaskFormKeepsAssigneeMissingFromRoster(t *testing.T) {
	owner := models.User{ID: "owner", Name: "Olive"}
	project := models.Project{ID: "p1", OwnerID: owner.ID, Owner: &owner}
	task := &models.Task{
		ID:       "t1",
		Title:    "Ship",
		Status:   models.StatusTodo,
		Priority: models.PriorityMedium,
		Assignee: &models.User{ID: "gone", Name: "Former member"},
	}

	v := NewTaskFormView(Deps{}, project, task)
	assert.Equal(t, 0, v.assignIdx)

	d, err := v.draft()
	require.NoError(t, err)
	assert.Nil(t, d.AssigneeID)
	v.width, v.height = 120, 40
	assert.Contains(t, v.View(), "Former member")

	v.focusIdx = fieldAssignee
	require.True(t, v.cycle(1))
	d, err = v.draft()
	require.NoError(t, err)
	require.NotNil(t, d.AssigneeID)
	assert.Equal(t, "owner", *d.AssigneeID)
}

func TestTaskFormNewTaskSendsAssignee(t *testing.T) {
	owner := models.User{ID: "owner"}
	project := models.Project{ID: "p1", OwnerID: owner.ID, Owner: &owner}

	v := NewTaskFormView(Deps{}, project, nil)
	d, err := v.draft()
	require.NoError(t, err)
	require.NotNil(t, d.AssigneeID)
	assert.Empty(t, *d.AssigneeID)
}

func TestOverdue(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	assert.True(t, overdue(models.Task{Status: models.StatusInProgress, EndDate: &past}, now))
	assert.False(t, overdue(models.Task{Status: models.StatusDone, EndDate: &past}, now))
	assert.False(t, overdue(models.Task{Status: models.StatusTodo, EndDate: &future}, now))
	assert.False(t, overdue(models.Task{Status: models.StatusTodo}, now))
	assert.False(t, overdue(models.Task{Status: models.StatusTodo, EndDate: &time.Time{}}, now))
}

func TestCountLine(t *testing.T) {
	assert.Equal(t, "4 tasks", countLine(4, 4))
	assert.Equal(t, "1 of 4 tasks", countLine(1, 4))
}

func TestTaskItemStyles(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	v := NewTaskListView(Deps{}, models.Project{ID: "p1", Name: "Launch"})
	v.width, v.height = 100, 40

	item := v.renderTaskItem(models.Task{
		Title:    "Ship <b>it</b>",
		Status:   models.StatusTodo,
		Priority: models.PriorityHigh,
		EndDate:  &past,
	}, false)
	assert.Contains(t, item, "Ship it")
	assert.Contains(t, item, "overdue")

	v.tasks = []models.Task{{ID: "a", Title: "One"}, {ID: "b", Title: "Two"}}
	v.visible = v.tasks[:1]
	v.loaded = true
	assert.Contains(t, v.View(), "1 of 2 tasks")
}

func TestTaskDetailKeepsUploadAndCommentFilesApart(t *testing.T) {
	project := models.Project{ID: "p1", Name: "Launch"}
	task := models.Task{ID: "t1", Title: "Ship", Status: models.StatusTodo}
	v := NewTaskDetailView(Deps{Session: session.NewProvider(nil, "")}, project, task)

	require.Same(t, v.taskFiles, v.batch())
	require.NoError(t, stage(v.batch(), picked{done: true, file: attachments.Staged{Name: "brief.pdf", Size: 10}}))

	v.mode = detailCommenting
	v.comment.Focus()
	require.Same(t, v.commentFiles, v.batch())
	require.NoError(t, stage(v.batch(), picked{done: true, file: attachments.Staged{Name: "shot.png", Size: 20}}))
	require.NoError(t, stage(v.batch(), picked{done: true, file: attachments.Staged{Name: "log.txt", Size: 5}}))

	v.mode = detailPicking
	assert.Same(t, v.commentFiles, v.batch())
	v.mode = detailCommenting

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.Equal(t, 1, v.commentFiles.Len())
	assert.Equal(t, 1, v.taskFiles.Len())

	v.Update(commentSentMsg{})
	assert.Zero(t, v.commentFiles.Len())
	require.Equal(t, 1, v.taskFiles.Len())
	assert.Equal(t, "brief.pdf", v.taskFiles.Items()[0].Name)
	assert.Equal(t, detailViewing, v.mode)

	require.NoError(t, stage(v.commentFiles, picked{done: true, file: attachments.Staged{Name: "shot.png", Size: 20}}))
	v.Update(doneMsg{action: filesAttached})
	assert.Zero(t, v.taskFiles.Len())
	assert.Equal(t, 1, v.commentFiles.Len())
}
