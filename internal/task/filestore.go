package task

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStore 任务产物的本地文件存储
// 路径按 {dir}/{tenantID}/{name} 组织，name 不允许越出目录
type FileStore struct {
	dir string
}

// NewFileStore 创建文件存储，确保根目录存在
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create file dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(tenantID, name string) (string, error) {
	name = filepath.Base(name)
	if name == "" || name == "." || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid file name: %q", name)
	}
	return filepath.Join(s.dir, tenantID, name), nil
}

// Save 写入文件内容，返回存储相对路径
func (s *FileStore) Save(tenantID, name string, r io.Reader) (string, error) {
	full, err := s.path(tenantID, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create tenant dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return filepath.Join(tenantID, filepath.Base(full)), nil
}

// FullPath 存储相对路径转绝对路径（供 excelize 直接写入）
func (s *FileStore) FullPath(tenantID, name string) (string, error) {
	full, err := s.path(tenantID, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create tenant dir: %w", err)
	}
	return full, nil
}

// Open 打开已存储的文件
func (s *FileStore) Open(tenantID, name string) (io.ReadCloser, error) {
	full, err := s.path(tenantID, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Remove 删除已存储的文件，不存在视为成功
func (s *FileStore) Remove(tenantID, name string) error {
	full, err := s.path(tenantID, name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}
