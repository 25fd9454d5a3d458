package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const photoDir = "worker-photos"

// imageExtensions maps the sniffed content types accepted as photos to the stored file extension.
var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var (
	// ErrEmptyFile is returned when an upload carries no content.
	ErrEmptyFile = errors.New("photo store: empty file")
	// ErrUnknownContentType is returned when the upload type cannot be determined.
	ErrUnknownContentType = errors.New("photo store: unknown content type")
	// ErrNotImage is returned for uploads that are not images.
	ErrNotImage = errors.New("photo store: not an image")
)

var _ PhotoStore = (*FilesystemPhotoStore)(nil)

// PhotoStore persists uploaded worker photos and returns their public URL.
type PhotoStore interface {
	Save(ctx context.Context, owner string, upload Upload) (string, error)
	Delete(ctx context.Context, url string) error
}

// Upload is a single uploaded file.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// FilesystemPhotoStore writes photos below a root directory served at publicPath.
type FilesystemPhotoStore struct {
	root       string
	publicPath string
}

// NewFilesystemPhotoStore initialises a photo store rooted at dir. URLs are built under publicPath.
func NewFilesystemPhotoStore(dir, publicPath string) (*FilesystemPhotoStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("photo store: root directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, photoDir), 0o755); err != nil {
		return nil, fmt.Errorf("photo store: ensure root directory: %w", err)
	}

	publicPath = "/" + strings.Trim(strings.TrimSpace(publicPath), "/")
	if publicPath == "/" {
		publicPath = "/uploads"
	}
	return &FilesystemPhotoStore{root: dir, publicPath: publicPath}, nil
}

// Root returns the directory photos are written below.
func (s *FilesystemPhotoStore) Root() string {
	return s.root
}

// PublicPath returns the URL prefix the root directory is served at.
func (s *FilesystemPhotoStore) PublicPath() string {
	return s.publicPath
}

// Save sniffs upload, accepts PNG, JPEG, GIF and WebP images, writes it under a unique name
// prefixed with owner and returns its URL. The file extension follows the detected type.
func (s *FilesystemPhotoStore) Save(_ context.Context, owner string, upload Upload) (string, error) {
	if s == nil {
		return "", errors.New("photo store: store not initialised")
	}
	if upload.Body == nil || upload.Size == 0 {
		return "", ErrEmptyFile
	}

	claimed := strings.ToLower(strings.TrimSpace(upload.ContentType))
	if claimed != "" && claimed != "application/octet-stream" && !strings.HasPrefix(claimed, "image/") {
		return "", ErrNotImage
	}

	// The stored name and served type come from the sniffed bytes, never from the client.
	body := bufio.NewReader(upload.Body)
	head, err := body.Peek(512)
	if len(head) == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("photo store: read upload: %w", err)
		}
		return "", ErrEmptyFile
	}
	detected := http.DetectContentType(head)
	if detected == "application/octet-stream" {
		return "", ErrUnknownContentType
	}
	ext, ok := imageExtensions[detected]
	if !ok {
		return "", ErrNotImage
	}

	filename := uuid.NewString() + ext
	if prefix := sanitizeFragment(owner); prefix != "" {
		filename = prefix + "_" + filename
	}
	fullPath := filepath.Join(s.root, photoDir, filename)

	fh, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("photo store: create file: %w", err)
	}
	written, copyErr := io.Copy(fh, body)
	closeErr := fh.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("photo store: write file: %w", errors.Join(copyErr, closeErr))
	}
	if written == 0 {
		_ = os.Remove(fullPath)
		return "", ErrEmptyFile
	}

	return path.Join(s.publicPath, photoDir, filename), nil
}

// Delete removes the photo behind url. URLs outside the store are ignored.
func (s *FilesystemPhotoStore) Delete(_ context.Context, url string) error {
	if s == nil {
		return errors.New("photo store: store not initialised")
	}
	prefix := path.Join(s.publicPath, photoDir) + "/"
	if !strings.HasPrefix(url, prefix) {
		return nil
	}
	name := path.Base(strings.TrimPrefix(url, prefix))
	if name == "." || name == "/" || name == ".." {
		return nil
	}
	if err := os.Remove(filepath.Join(s.root, photoDir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("photo store: delete file: %w", err)
	}
	return nil
}

func sanitizeFragment(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	fragment = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, fragment)
	return strings.Trim(fragment, "-")
}
