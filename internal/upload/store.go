package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/pinboard/pkg/util"
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Store writes uploaded images to a local directory under random names.
type Store struct {
	dir      string
	maxBytes int64
	logger   *zap.Logger
}

// NewStore creates dir if needed.
func NewStore(dir string, maxBytes int64, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, maxBytes: maxBytes, logger: logger}, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Save validates and stores an uploaded image, returning the stored file name.
func (s *Store) Save(header *multipart.FileHeader) (string, error) {
	if header == nil {
		return "", apperrors.NewValidationError("image file required", nil)
	}
	if s.maxBytes > 0 && header.Size > s.maxBytes {
		return "", apperrors.NewValidationError("image too large", map[string]any{"max_bytes": s.maxBytes})
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return "", apperrors.NewValidationError("unsupported image type", map[string]any{"type": mtype.String()})
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	name := uuid.NewString() + mtype.Extension()
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}

	s.logger.Debug("stored upload", zap.String("file", name), zap.String("type", mtype.String()), zap.Int64("size", header.Size))
	return name, nil
}

// Remove deletes a stored file. Only the base name is honored and missing files are ignored.
func (s *Store) Remove(name string) error {
	base := filepath.Base(name)
	if name == "" || base == "." || base == string(filepath.Separator) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, base))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
