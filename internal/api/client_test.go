package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/models"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

type noToken struct{}

func (noToken) Token() (string, error) { return "", apperr.Forbidden(apperr.CodeNotSignedIn) }

func newTestClient(t *testing.T, routes func(r chi.Router)) *Client {
	t.Helper()
	r := chi.NewRouter()
	routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, staticToken("tok"), 5*time.Second, nil)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com", nil, time.Second, nil)
	assert.Error(t, err)
	_, err = New("://", nil, time.Second, nil)
	assert.Error(t, err)
}

func TestTaskSendsHeaders(t *testing.T) {
	c := newTestClient(t, func(r chi.Router) {
		r.Get("/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
			assert.NoError(t, err)
			writeJSON(w, http.StatusOK, models.Task{ID: chi.URLParam(r, "id"), Title: "Write docs", Status: models.StatusTodo})
		})
	})

	task, err := c.Task(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", task.ID)
	assert.Equal(t, "Write docs", task.Title)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   apperr.Kind
		code   string
	}{
		{http.StatusInternalServerError, apperr.KindNetwork, apperr.CodeServerError},
		{http.StatusBadGateway, apperr.KindNetwork, apperr.CodeServerError},
		{http.StatusNotFound, apperr.KindNotFound, apperr.CodeTaskNotFound},
		{http.StatusUnauthorized, apperr.KindForbidden, apperr.CodeSessionInvalid},
		{http.StatusForbidden, apperr.KindForbidden, apperr.CodeServerForbidden},
		{http.StatusUnprocessableEntity, apperr.KindValidation, apperr.CodeServerRejected},
		{http.StatusBadRequest, apperr.KindValidation, apperr.CodeServerRejected},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(r chi.Router) {
				r.Get("/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
					writeJSON(w, tt.status, map[string]string{"message": "internal detail"})
				})
			})
			_, err := c.Task(context.Background(), "1")
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Equal(t, tt.code, apperr.CodeOf(err))
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c, err := New(srv.URL, staticToken("tok"), time.Second, nil)
	require.NoError(t, err)

	_, err = c.Tasks(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNetwork, apperr.KindOf(err))
	assert.Equal(t, apperr.CodeNetworkUnavailable, apperr.CodeOf(err))
}

func TestTimeout(t *testing.T) {
	c := newTestClient(t, func(r chi.Router) {
		r.Get("/tasks", func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Tasks(ctx)
	assert.Equal(t, apperr.CodeTimeout, apperr.CodeOf(err))
}

func TestMissingTokenSendsNothing(t *testing.T) {
	var hits atomic.Int32
	r := chi.NewRouter()
	r.Get("/tasks", func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })
	srv := httptest.NewServer(r)
	defer srv.Close()

	c, err := New(srv.URL, noToken{}, time.Second, nil)
	require.NoError(t, err)
	_, err = c.Tasks(context.Background())
	assert.ErrorIs(t, err, apperr.Forbidden(apperr.CodeNotSignedIn))
	assert.Zero(t, hits.Load())
}

func TestCreateTaskMultipart(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "brief.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.7"), 0o644))
	desc := "details"
	assignee := "u2"

	c := newTestClient(t, func(r chi.Router) {
		r.Post("/tasks", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "Ship it", r.FormValue("title"))
			assert.Equal(t, "details", r.FormValue("description"))
			assert.Equal(t, "HIGH", r.FormValue("priority"))
			assert.Equal(t, "p1", r.FormValue("projectId"))
			assert.Equal(t, "u2", r.FormValue("assigneeId"))
			assert.Equal(t, "2026-06-01T00:00:00Z", r.FormValue("endDate"))
			assert.Empty(t, r.FormValue("startDate"))

			files := r.MultipartForm.File["files"]
			require.Len(t, files, 1)
			assert.Equal(t, "brief.pdf", files[0].Filename)
			assert.Equal(t, "application/pdf", files[0].Header.Get("Content-Type"))
			f, err := files[0].Open()
			require.NoError(t, err)
			body, _ := io.ReadAll(f)
			assert.Equal(t, "%PDF-1.7", string(body))

			writeJSON(w, http.StatusCreated, models.Task{ID: "new", Title: r.FormValue("title")})
		})
	})

	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	task, err := c.CreateTask(context.Background(), TaskInput{
		Title:       "Ship it",
		Description: &desc,
		Priority:    models.PriorityHigh,
		ProjectID:   "p1",
		AssigneeID:  &assignee,
		EndDate:     &end,
	}, []Upload{{Path: pdf, Name: "brief.pdf", MimeType: "application/pdf"}})
	require.NoError(t, err)
	assert.Equal(t, "new", task.ID)
}

func TestCreateTaskUnreadableFile(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(r chi.Router) {
		r.Post("/tasks", func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })
	})
	_, err := c.CreateTask(context.Background(), TaskInput{Title: "x", ProjectID: "p"},
		[]Upload{{Path: filepath.Join(t.TempDir(), "gone.pdf"), Name: "gone.pdf"}})
	assert.ErrorIs(t, err, apperr.Invalid(apperr.CodeFileUnreadable))
	assert.Zero(t, hits.Load())
}

func TestCreateComment(t *testing.T) {
	img := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(img, []byte{0x89, 'P', 'N', 'G'}, 0o644))

	c := newTestClient(t, func(r chi.Router) {
		r.Post("/tasks/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
			var content string
			if r.Header.Get("Content-Type") == "application/json" {
				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, chi.URLParam(r, "id"), body["taskId"])
				content = body["content"]
			} else {
				require.NoError(t, r.ParseMultipartForm(1<<20))
				assert.Len(t, r.MultipartForm.File["files"], 1)
				content = r.FormValue("content")
			}
			writeJSON(w, http.StatusCreated, models.Comment{ID: "c1", Content: content})
		})
	})

	cm, err := c.CreateComment(context.Background(), "T", "hi @Ada Lovelace ", nil)
	require.NoError(t, err)
	assert.Equal(t, "hi @Ada Lovelace ", cm.Content)

	cm, err = c.CreateComment(context.Background(), "T", "see file", []Upload{{Path: img, Name: "a.png", MimeType: "image/png"}})
	require.NoError(t, err)
	assert.Equal(t, "see file", cm.Content)
}

func TestNarrowTaskPatches(t *testing.T) {
	got := map[string]map[string]any{}
	record := func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		got[r.Method+" "+r.URL.Path] = body
		w.WriteHeader(http.StatusNoContent)
	}
	c := newTestClient(t, func(r chi.Router) {
		r.Patch("/tasks/{id}", record)
		r.Patch("/tasks/reassign/{id}", record)
		r.Patch("/tasks/priority/{id}", record)
		r.Patch("/tasks/deadline/{id}", record)
		r.Post("/tasks/complete/{id}", record)
	})
	ctx := context.Background()

	require.NoError(t, c.UpdateTaskStatus(ctx, "T", models.StatusDone))
	require.NoError(t, c.ReassignTask(ctx, "T", ""))
	require.NoError(t, c.UpdateTaskPriority(ctx, "T", models.PriorityCritical))
	require.NoError(t, c.UpdateTaskDeadline(ctx, "T", nil))
	require.NoError(t, c.CompleteTask(ctx, "T"))

	assert.Equal(t, map[string]any{"status": "DONE"}, got["PATCH /tasks/T"])
	assert.Equal(t, map[string]any{"assigneeId": nil}, got["PATCH /tasks/reassign/T"])
	assert.Equal(t, map[string]any{"priority": "CRITICAL"}, got["PATCH /tasks/priority/T"])
	assert.Equal(t, map[string]any{"endDate": nil}, got["PATCH /tasks/deadline/T"])
	assert.Contains(t, got, "POST /tasks/complete/T")
}

func TestSearchTasks(t *testing.T) {
	c := newTestClient(t, func(r chi.Router) {
		r.Get("/tasks/search/{q}", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "docs", chi.URLParam(r, "q"))
			assert.Equal(t, "docs", r.URL.Query().Get("q"))
			assert.Equal(t, "IN_PROGRESS", r.URL.Query().Get("status"))
			assert.False(t, r.URL.Query().Has("priority"))
			writeJSON(w, http.StatusOK, []models.Task{{ID: "1"}, {ID: "2"}})
		})
	})
	tasks, err := c.SearchTasks(context.Background(), SearchParams{Query: "docs", Status: models.StatusInProgress})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestSearchTasksEscapesQuery(t *testing.T) {
	for _, term := range []string{"ui/ux", "what?", "a b#c", "docs"} {
		t.Run(term, func(t *testing.T) {
			c := newTestClient(t, func(r chi.Router) {
				r.Get("/tasks/search/{q}", func(w http.ResponseWriter, r *http.Request) {
					got, err := url.PathUnescape(chi.URLParam(r, "q"))
					assert.NoError(t, err)
					assert.Equal(t, term, got)
					assert.Equal(t, term, r.URL.Query().Get("q"))
					writeJSON(w, http.StatusOK, []models.Task{{ID: "1"}})
				})
			})
			tasks, err := c.SearchTasks(context.Background(), SearchParams{Query: term})
			require.NoError(t, err)
			assert.Len(t, tasks, 1)
		})
	}
}

func TestTeamsAndInvite(t *testing.T) {
	c := newTestClient(t, func(r chi.Router) {
		r.Post("/teams", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, []string{"a", "b"}, r.MultipartForm.Value["memberIds[]"])
			writeJSON(w, http.StatusCreated, models.Team{ID: "t1", Name: r.FormValue("name")})
		})
		r.Post("/invites/team/{id}", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]string{"email": "ada@example.com", "role": "manager"}, body)
			w.WriteHeader(http.StatusCreated)
		})
		r.Delete("/teams/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	})
	ctx := context.Background()

	team, err := c.CreateTeam(ctx, TeamInput{Name: "Core", Privacy: models.PrivacyPrivate, MemberIDs: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "Core", team.Name)

	require.NoError(t, c.InviteMember(ctx, "t1", "ada@example.com", models.RoleManager))

	err = c.DeleteTeam(ctx, "gone")
	assert.ErrorIs(t, err, apperr.NotFound(apperr.CodeTeamNotFound))
}

func TestDecodeFailureIsServerError(t *testing.T) {
	c := newTestClient(t, func(r chi.Router) {
		r.Get("/projects", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		})
	})
	_, err := c.Projects(context.Background())
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, apperr.CodeServerError, ae.Code)
}
