package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"

	"github.com/tgienger/tasker/internal/apperr"
)

// Upload is a local file sent as one part of a multipart body
type Upload struct {
	Path     string
	Name     string
	MimeType string
}

// field is one ordered form value
type field struct {
	name, value string
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartRequest(method, path string, fields []field, fileField string, files []Upload) (request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return request{}, fmt.Errorf("write field %s: %w", f.name, err)
		}
	}
	for _, up := range files {
		if err := writeFile(w, fileField, up); err != nil {
			return request{}, err
		}
	}
	if err := w.Close(); err != nil {
		return request{}, fmt.Errorf("close multipart body: %w", err)
	}
	return request{
		method:      method,
		path:        path,
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, nil
}

func writeFile(w *multipart.Writer, fieldName string, up Upload) error {
	f, err := os.Open(up.Path)
	if err != nil {
		return &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeFileUnreadable, Err: err}
	}
	defer f.Close()

	ct := up.MimeType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(fieldName), quoteEscaper.Replace(up.Name)))
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part %s: %w", up.Name, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeFileUnreadable, Err: err}
	}
	return nil
}
