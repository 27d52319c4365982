package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore 本地磁盘存储，未配置 MinIO 时使用
type LocalStore struct {
	root      string
	urlPrefix string
	now       func() time.Time
}

// NewLocalStore root 为保存目录，urlPrefix 为静态文件路由前缀（如 /uploads）
func NewLocalStore(root, urlPrefix string) *LocalStore {
	return &LocalStore{
		root:      root,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		now:       time.Now,
	}
}

// Upload 按 年/月 目录保存文件
func (s *LocalStore) Upload(ctx context.Context, objectName, contentType string, r io.Reader, size int64) (string, error) {
	clean := filepath.ToSlash(filepath.Clean("/" + objectName))[1:]
	if clean == "" || clean == "." {
		return "", fmt.Errorf("invalid object name %q", objectName)
	}

	now := s.now()
	rel := fmt.Sprintf("%d/%02d/%s", now.Year(), now.Month(), clean)
	savePath := filepath.Join(s.root, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(savePath), 0755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	dst, err := os.Create(savePath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return s.urlPrefix + "/" + rel, nil
}
