// Package attachments stages files picked for a form until the form submits.
package attachments

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/models"
)

// ErrSilent marks a pick that should leave the staged list alone and report
// nothing: a cancelled picker, a vanished file, a denied read.
var ErrSilent = errors.New("attachments: nothing picked")

// Origin is the picker a file came from
type Origin int

const (
	Document Origin = iota
	Image
)

func (o Origin) String() string {
	if o == Image {
		return "image"
	}
	return "document"
}

// Staged is a file picked locally and not uploaded yet
type Staged struct {
	ID       string
	Path     string
	Name     string
	MimeType string
	Size     int64
	Origin   Origin
}

// Attachment returns the staged file in the shared attachment shape
func (s Staged) Attachment() models.Attachment {
	return models.Attachment{URI: s.Path, Name: s.Name, MimeType: s.MimeType, Size: s.Size}
}

var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
}

// ImageExtensions are the extensions the image picker offers
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".heic"}

// DocumentExtensions are the extensions the document picker offers: images,
// pdf, word, plain text and excel files.
var DocumentExtensions = append([]string{".pdf", ".doc", ".docx", ".txt", ".xls", ".xlsx"}, ImageExtensions...)

// MimeType returns the mime type for a file name, without parameters
func MimeType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
	}
	return "application/octet-stream"
}

// Allowed reports whether a mime type may be staged from origin
func Allowed(mimeType string, origin Origin) bool {
	if strings.HasPrefix(mimeType, "image/") {
		return true
	}
	if origin == Image {
		return false
	}
	for _, t := range mimeTypes {
		if t == mimeType {
			return true
		}
	}
	return false
}

// FromPath normalizes a picker selection into a staged file
func FromPath(path string, origin Origin) (Staged, error) {
	if path == "" {
		return Staged{}, ErrSilent
	}
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return Staged{}, fmt.Errorf("%w: %v", ErrSilent, err)
		}
		return Staged{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return Staged{}, apperr.Invalid(apperr.CodeUnsupportedFile)
	}
	mt := MimeType(path)
	if !Allowed(mt, origin) {
		return Staged{}, apperr.Invalid(apperr.CodeUnsupportedFile)
	}
	return Staged{
		ID:       uuid.NewString(),
		Path:     path,
		Name:     filepath.Base(path),
		MimeType: mt,
		Size:     fi.Size(),
		Origin:   origin,
	}, nil
}

// FormatSize renders a byte count the way file lists show it
func FormatSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}
