package validation

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// UploadValidator checks incoming files before a job is created for them.
type UploadValidator struct {
	maxBytes int64
	logger   *slog.Logger
}

// NewUploadValidator creates a validator enforcing a size ceiling.
func NewUploadValidator(maxBytes int64, logger *slog.Logger) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadValidator{maxBytes: maxBytes, logger: logger}
}

var supportedExtensions = map[string]bool{
	".csv":      true,
	".json":     true,
	".xlsx":     true,
	".xls":      true,
	".md":       true,
	".markdown": true,
}

// ValidateUpload checks the declared file name and size. It does not read
// content; structural problems surface at parse time.
func (v *UploadValidator) ValidateUpload(fileName string, size int64) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !supportedExtensions[ext] {
		v.logger.Warn("rejected upload with unsupported extension",
			slog.String("file", fileName),
			slog.String("extension", ext))
		return fmt.Errorf("unsupported file extension %q", ext)
	}
	if size <= 0 {
		return fmt.Errorf("file %s is empty", fileName)
	}
	if v.maxBytes > 0 && size > v.maxBytes {
		v.logger.Warn("rejected oversized upload",
			slog.String("file", fileName),
			slog.Int64("bytes", size),
			slog.Int64("limit", v.maxBytes))
		return fmt.Errorf("file %s exceeds the %d byte limit", fileName, v.maxBytes)
	}
	return nil
}
