package db

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Draft is unsent form content kept across a failed submit or a restart
type Draft struct {
	Key       string
	Title     string
	Body      string
	Files     []string
	UpdatedAt time.Time
}

// NewTaskDraftKey is the draft key of the new-task form
const NewTaskDraftKey = "task:new"

// CommentDraftKey returns the draft key of the comment box on a task
func CommentDraftKey(taskID string) string { return "comment:" + taskID }

// EditTaskDraftKey returns the draft key of the edit form of a task
func EditTaskDraftKey(taskID string) string { return "task:" + taskID }

// SaveDraft creates or replaces a draft
func (db *DB) SaveDraft(d Draft) error {
	files := d.Files
	if files == nil {
		files = []string{}
	}
	b, err := json.Marshal(files)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO drafts (key, title, body, files, updated_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			files = excluded.files,
			updated_at = CURRENT_TIMESTAMP
	`, d.Key, d.Title, d.Body, string(b))
	return err
}

// GetDraft retrieves a draft by key. ok is false when there is none.
func (db *DB) GetDraft(key string) (d Draft, ok bool, err error) {
	var files string
	err = db.QueryRow(`
		SELECT key, title, body, files, updated_at
		FROM drafts WHERE key = ?
	`, key).Scan(&d.Key, &d.Title, &d.Body, &files, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return Draft{}, false, nil
	}
	if err != nil {
		return Draft{}, false, err
	}
	if err := json.Unmarshal([]byte(files), &d.Files); err != nil {
		return Draft{}, false, err
	}
	return d, true, nil
}

// DeleteDraft removes a draft
func (db *DB) DeleteDraft(key string) error {
	_, err := db.Exec("DELETE FROM drafts WHERE key = ?", key)
	return err
}

// GetDrafts lists every draft, newest first
func (db *DB) GetDrafts() ([]Draft, error) {
	rows, err := db.Query(`
		SELECT key, title, body, files, updated_at
		FROM drafts
		ORDER BY updated_at DESC, key ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []Draft
	for rows.Next() {
		var d Draft
		var files string
		if err := rows.Scan(&d.Key, &d.Title, &d.Body, &files, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(files), &d.Files); err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}
