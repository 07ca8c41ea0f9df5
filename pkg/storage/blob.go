package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileBlobStore serves artifacts from <root>/<bucket>/<file id>.
type FileBlobStore struct {
	root string
}

func NewFileBlobStore(root string) *FileBlobStore {
	return &FileBlobStore{root: root}
}

func (s *FileBlobStore) Download(ctx context.Context, bucket, fileID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.resolve(bucket, fileID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", bucket, fileID, err)
	}
	return data, nil
}

// resolve rejects ids that would escape the root directory.
func (s *FileBlobStore) resolve(bucket, fileID string) (string, error) {
	for _, part := range []string{bucket, fileID} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("invalid blob reference %q/%q", bucket, fileID)
		}
	}
	return filepath.Join(s.root, bucket, fileID), nil
}
