package blobstore

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/cupuri/portal-backend/internal/pkg/logger"
)

// LocalStore handles saving exam files to the local filesystem.
type LocalStore struct {
	root string // the directory all local blobs live in, flat
}

// NewLocalStore creates a LocalStore rooted at the given directory,
// creating it if necessary.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", root).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", root, err)
	}
	logger.Info().Str("path", root).Msg("Local storage directory ensured")

	return &LocalStore{root: root}, nil
}

// Save writes the uploaded file under a collision-resistant generated name
// and returns that bare filename (no directory prefix).
func (ls *LocalStore) Save(_ context.Context, fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	ext := filepath.Ext(fileHeader.Filename)
	uniqueFilename := uuid.New().String() + strings.ToLower(ext)

	dstPath := filepath.Join(ls.root, uniqueFilename)
	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, file); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	logger.Info().Str("filename", fileHeader.Filename).Str("saved_as", uniqueFilename).Msg("File saved")
	return uniqueFilename, nil
}

// Delete removes the blob behind a local reference. A missing file counts
// as a successful delete.
func (ls *LocalStore) Delete(_ context.Context, ref string) error {
	if ref == "" {
		return nil
	}

	physicalPath := ls.FullPath(ref)
	if physicalPath == "" {
		return fmt.Errorf("invalid local reference: %s", ref)
	}

	if _, err := os.Stat(physicalPath); os.IsNotExist(err) {
		logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
		return nil
	}

	if err := os.Remove(physicalPath); err != nil {
		logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", physicalPath).Msg("File deleted")
	return nil
}

// FullPath resolves a local reference to its absolute path under the blob
// root. References carrying directory components resolve to "" rather than
// escaping the root.
func (ls *LocalStore) FullPath(ref string) string {
	filename := filepath.Base(ref)
	if filename == "" || filename == "." || filename == string(filepath.Separator) || filename != ref {
		return ""
	}
	return filepath.Join(ls.root, filename)
}
