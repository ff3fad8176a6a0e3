package ingest

import (
	"fmt"
	"path/filepath"
	"strings"
)

type FileType string

const (
	FileTypeText  FileType = "text"
	FileTypePDF   FileType = "pdf"
	FileTypeDOCX  FileType = "docx"
	FileTypeImage FileType = "image"
)

var extensionTypes = map[string]FileType{
	".txt":  FileTypeText,
	".pdf":  FileTypePDF,
	".docx": FileTypeDOCX,
	".png":  FileTypeImage,
	".jpg":  FileTypeImage,
	".jpeg": FileTypeImage,
}

// Chunk is one bounded slice of a document's text, in document order.
type Chunk struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

// DetectType maps a file name to its document type by lowercase extension.
func DetectType(name string) (FileType, error) {
	ext := strings.ToLower(filepath.Ext(name))
	t, ok := extensionTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return t, nil
}

// SupportedExtensions lists accepted extensions, used in error messages and the upload form.
func SupportedExtensions() []string {
	return []string{".pdf", ".txt", ".docx", ".png", ".jpg", ".jpeg"}
}
