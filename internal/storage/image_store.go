// Package storage persists uploaded product images on the local filesystem
// and maps them to URLs served from the uploads route.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type ImageStore interface {
	// Save writes the uploaded file under a generated name and returns the
	// path relative to the uploads directory.
	Save(file multipart.File, header *multipart.FileHeader) (string, error)
	Delete(relPath string) error
	// URL converts a stored relative path into the public URL for the image.
	URL(baseURL, relPath string) string
	Dir() string
}

type imageStore struct {
	dir string
}

func NewImageStore(dir string) (ImageStore, error) {

	productsDir := filepath.Join(dir, "products")

	if err := os.MkdirAll(productsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory %s: %w", productsDir, err)
	}

	return &imageStore{dir: dir}, nil
}

func (s *imageStore) Save(file multipart.File, header *multipart.FileHeader) (string, error) {

	ext := strings.ToLower(filepath.Ext(header.Filename))

	if !allowedImageExtensions[ext] {
		return "", fmt.Errorf("unsupported image type: %s", ext)
	}

	relPath := filepath.Join("products", uuid.NewString()+ext)

	dst, err := os.Create(filepath.Join(s.dir, relPath))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return filepath.ToSlash(relPath), nil
}

func (s *imageStore) Delete(relPath string) error {

	if relPath == "" {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(relPath)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image file %s: %w", relPath, err)
	}

	return nil
}

func (s *imageStore) URL(baseURL, relPath string) string {

	if relPath == "" {
		return ""
	}

	return strings.TrimSuffix(baseURL, "/") + "/uploads/" + relPath
}

func (s *imageStore) Dir() string {
	return s.dir
}
