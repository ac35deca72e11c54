package repository

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"familytree/domain"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

type photoRepository struct {
	dir       string
	urlPrefix string
}

// NewPhotoRepository stores uploaded photos under dir and hands out
// references below urlPrefix.
func NewPhotoRepository(dir, urlPrefix string) domain.PhotoRepo {
	return &photoRepository{
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}
}

func (pr *photoRepository) SavePhoto(ctx context.Context, photo *multipart.FileHeader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := photo.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded photo: %w", err)
	}
	defer src.Close()

	mime, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("failed to detect photo type: %w", err)
	}
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", domain.ErrUnsupportedFile
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind uploaded photo: %w", err)
	}

	if err := os.MkdirAll(pr.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := uuid.NewString() + mime.Extension()
	dst, err := os.Create(filepath.Join(pr.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to store photo: %w", err)
	}
	defer dst.Close()

	if _, err := dst.ReadFrom(src); err != nil {
		return "", fmt.Errorf("failed to store photo: %w", err)
	}

	return pr.urlPrefix + "/" + name, nil
}
