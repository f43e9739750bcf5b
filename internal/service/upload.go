package service

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"requirement-service/internal/apperror"
	"requirement-service/internal/storage"

	"github.com/google/uuid"
)

const (
	logoPrefix    = "logo_"
	LogoURLPrefix = "/api/v1/upload/logo/"
)

// allowedLogoTypes maps each accepted MIME type to its default extension
var allowedLogoTypes = map[string]string{
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
}

// logoExtTypes is the only source of served content types
var logoExtTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
}

// LogoFile describes a stored logo
type LogoFile struct {
	Filename    string    `json:"filename"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// UploadService validates logo uploads and keeps them in a BlobStore
type UploadService struct {
	store   storage.BlobStore
	maxSize int64
	now     func() time.Time
}

func NewUploadService(store storage.BlobStore, maxSize int64) *UploadService {
	return &UploadService{store: store, maxSize: maxSize, now: utcNow}
}

// MaxSize is the largest accepted logo in bytes
func (s *UploadService) MaxSize() int64 {
	return s.maxSize
}

// UploadLogo stores r under a generated name. size is the declared length,
// -1 when unknown; the stored length is checked as well.
func (s *UploadService) UploadLogo(ctx context.Context, filename, contentType string, size int64, r io.Reader) (*LogoFile, error) {
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	defaultExt, ok := allowedLogoTypes[contentType]
	if !ok {
		return nil, apperror.Validation("file type %q not allowed, must be one of: image/jpeg, image/jpg, image/png, image/gif, image/svg+xml", contentType)
	}
	if size > s.maxSize {
		return nil, apperror.Validation("file too large, maximum size is %d bytes", s.maxSize)
	}

	// the stored extension always comes from the checked type
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && allowedLogoTypes[logoExtTypes[ext]] != defaultExt {
		return nil, apperror.Validation("file extension %q does not match file type %q", ext, contentType)
	}
	id := uuid.New()
	name := logoPrefix + hex.EncodeToString(id[:]) + defaultExt

	n, err := s.store.Put(ctx, name, io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, apperror.Internal(err, "failed to store logo")
	}
	if n > s.maxSize {
		_ = s.store.Delete(ctx, name)
		return nil, apperror.Validation("file too large, maximum size is %d bytes", s.maxSize)
	}

	return &LogoFile{
		Filename:    name,
		URL:         LogoURLPrefix + name,
		Size:        n,
		ContentType: contentType,
		ModifiedAt:  s.now(),
	}, nil
}

// ListLogos returns every stored logo sorted by name
func (s *UploadService) ListLogos(ctx context.Context) ([]LogoFile, error) {
	blobs, err := s.store.List(ctx, logoPrefix)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list logos")
	}
	out := make([]LogoFile, len(blobs))
	for i, b := range blobs {
		out[i] = LogoFile{
			Filename:    b.Name,
			URL:         LogoURLPrefix + b.Name,
			Size:        b.Size,
			ContentType: logoContentType(b.Name),
			ModifiedAt:  b.ModTime,
		}
	}
	return out, nil
}

// OpenLogo returns the logo content and its media type. The caller closes the reader.
func (s *UploadService) OpenLogo(ctx context.Context, name string) (io.ReadCloser, string, error) {
	rc, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, "", blobError(err, name)
	}
	return rc, logoContentType(name), nil
}

func (s *UploadService) DeleteLogo(ctx context.Context, name string) error {
	if err := s.store.Delete(ctx, name); err != nil {
		return blobError(err, name)
	}
	return nil
}

func blobError(err error, name string) error {
	switch {
	case errors.Is(err, storage.ErrBlobNotFound), errors.Is(err, storage.ErrInvalidName):
		return apperror.NotFound("file %s not found", name)
	}
	return apperror.Internal(err, "failed to access logo")
}

func logoContentType(name string) string {
	if ct, ok := logoExtTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
