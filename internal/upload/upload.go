// Package upload validates and unpacks image uploads before they reach storage.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// MaxImageSize caps every image upload.
const MaxImageSize = 10 << 20

// formOverhead leaves room for the other multipart fields.
const formOverhead = 1 << 20

var (
	ErrMissingFile     = errors.New("no image file provided")
	ErrUnsupportedType = errors.New("invalid file type: only JPEG, PNG, and WebP are allowed")
	ErrTooLarge        = errors.New("file too large: maximum size is 10MB")
	ErrEmpty           = errors.New("file is empty")
)

// AllowedImageTypes lists the accepted image MIME types.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// NormalizeContentType lowercases and strips parameters such as charset.
func NormalizeContentType(contentType string) string {
	return strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
}

// ValidateImage checks type and size.
func ValidateImage(contentType string, size int64) error {
	if !AllowedImageTypes[NormalizeContentType(contentType)] {
		return fmt.Errorf("%w (got %q)", ErrUnsupportedType, contentType)
	}
	if size <= 0 {
		return ErrEmpty
	}
	if size > MaxImageSize {
		return ErrTooLarge
	}
	return nil
}

// IsValidationError reports whether err came from this package's checks.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingFile) || errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrTooLarge) || errors.Is(err, ErrEmpty)
}

// File is an image pulled out of a multipart form.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// FormImage parses r as a multipart form, takes the image in field and
// validates it. The caller must close File.Body.
func FormImage(w http.ResponseWriter, r *http.Request, field string) (*File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageSize+formOverhead)
	if err := r.ParseMultipartForm(MaxImageSize + formOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || errors.Is(err, multipart.ErrMessageTooLarge) {
			return nil, ErrTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, ErrMissingFile
		}
		return nil, fmt.Errorf("parse form: %w", err)
	}

	f, header, err := r.FormFile(field)
	if err != nil {
		return nil, ErrMissingFile
	}

	contentType := NormalizeContentType(header.Header.Get("Content-Type"))
	if err := ValidateImage(contentType, header.Size); err != nil {
		_ = f.Close()
		return nil, err
	}

	return &File{Name: header.Filename, ContentType: contentType, Size: header.Size, Body: f}, nil
}
