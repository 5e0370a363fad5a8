package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// MaxWorkbookSize caps uploaded product workbooks
const MaxWorkbookSize = 10 * 1024 * 1024 // 10MB

// xlsx files are zip archives
var zipMagic = []byte("PK\x03\x04")

// ValidateWorkbookUpload checks an uploaded product workbook before it is parsed
func ValidateWorkbookUpload(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxWorkbookSize {
		return fmt.Errorf("%w: file exceeds the maximum size of 10MB", ErrInvalidWorkbook)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".xlsx" {
		return fmt.Errorf("%w: only .xlsx files are allowed", ErrInvalidWorkbook)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	header := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(file, header); err != nil || string(header) != string(zipMagic) {
		return fmt.Errorf("%w: file is not a valid workbook", ErrInvalidWorkbook)
	}
	return nil
}
