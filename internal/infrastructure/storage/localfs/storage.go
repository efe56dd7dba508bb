// Package localfs reads local files into upload parts.
package localfs

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/docdesk/internal/core/domain"
)

var contentTypes = map[string]string{
	".txt":  "text/plain",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Storage resolves relative paths against basePath.
type Storage struct {
	basePath string
}

func New(basePath string) *Storage {
	if basePath == "" {
		basePath = "."
	}
	return &Storage{basePath: basePath}
}

func (s *Storage) Load(ctx context.Context, path string) (domain.UploadFile, error) {
	if err := ctx.Err(); err != nil {
		return domain.UploadFile{}, err
	}
	reader, err := s.Open(ctx, path)
	if err != nil {
		return domain.UploadFile{}, err
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return domain.UploadFile{}, fmt.Errorf("read file: %w", err)
	}
	return domain.UploadFile{
		Name:        filepath.Base(path),
		ContentType: ContentType(path),
		Data:        raw,
	}, nil
}

// LoadAll loads paths in order and stops at the first failure.
func (s *Storage) LoadAll(ctx context.Context, paths []string) ([]domain.UploadFile, error) {
	files := make([]domain.UploadFile, 0, len(paths))
	for _, path := range paths {
		file, err := s.Load(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		files = append(files, file)
	}
	return files, nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path := key
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.basePath, key)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// ContentType guesses the part content type from the file extension.
func ContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
