package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

var extByContentType = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"text/plain": "txt",
}

// VisitPhotoKey builds visits/{visitID}/{photoType}/{uuid}.{ext}.
func VisitPhotoKey(visitID, photoType, ext string) string {
	return fmt.Sprintf("visits/%s/%s/%s.%s", visitID, photoType, uuid.NewString(), ext)
}

// UserImageKey builds {userID}/{uuid}.{ext}.
func UserImageKey(userID, ext string) string {
	return fmt.Sprintf("%s/%s.%s", userID, uuid.NewString(), ext)
}

// Extension picks the key extension for an upload: the original filename's
// extension when it has one, otherwise one derived from the content type.
func Extension(filename, contentType string) string {
	if ext := strings.TrimPrefix(path.Ext(filename), "."); ext != "" {
		return strings.ToLower(ext)
	}
	if ext, ok := extByContentType[strings.ToLower(contentType)]; ok {
		return ext
	}
	return "bin"
}
