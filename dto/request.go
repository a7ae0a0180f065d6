package dto

import (
	"path/filepath"
	"strings"
)

// ParseTextRequest carries already recognized text to the extractor.
type ParseTextRequest struct {
	Text  string    `json:"text"`
	Lines []OCRLine `json:"lines"`
}

// Validate performs basic validation on the request
func (r *ParseTextRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" && len(r.Lines) == 0 {
		return ErrTextRequired
	}
	return nil
}

// UploadedFile is one document read from a multipart upload.
type UploadedFile struct {
	Name     string
	Data     []byte
	Password string
}

// Validate checks size and extension of the upload.
func (f UploadedFile) Validate(maxSize int64) error {
	if len(f.Data) == 0 {
		return ErrFileRequired
	}
	if maxSize > 0 && int64(len(f.Data)) > maxSize {
		return ErrFileTooLarge
	}
	if !IsPDF(f.Name) && !IsImage(f.Name) {
		return ErrUnsupportedFileType
	}
	return nil
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
	".bmp": true, ".gif": true,
}

// IsPDF reports whether name has a .pdf extension.
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// IsImage reports whether name has a supported image extension.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}
