package util

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultExtension is applied when the content type is absent or unknown,
// and when normalizing legacy blob names stored without an extension.
const DefaultExtension = ".jpeg"

var extensionByContentType = map[string]string{
	"image/jpeg": ".jpeg",
	"image/jpg":  ".jpeg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// GenerateFileName produces a fresh random blob name. Uniqueness per upload
// is what allows the blob store to keep plain overwrite semantics.
func GenerateFileName(contentType string) string {
	return uuid.New().String() + ExtensionForContentType(contentType)
}

func ExtensionForContentType(contentType string) string {
	// Strip parameters like "; charset=..." before the lookup.
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	if ext, ok := extensionByContentType[contentType]; ok {
		return ext
	}
	return DefaultExtension
}

// NormalizeFileName appends the default extension to legacy names stored
// before blobs carried a content type.
func NormalizeFileName(fileName string) string {
	if !strings.Contains(fileName, ".") {
		return fileName + DefaultExtension
	}
	return fileName
}

// ContentTypeForFileName is the inverse mapping used when serving a blob.
func ContentTypeForFileName(fileName string) string {
	idx := strings.LastIndexByte(fileName, '.')
	if idx < 0 {
		return "image/jpeg"
	}

	switch strings.ToLower(fileName[idx:]) {
	case ".jpeg", ".jpg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
