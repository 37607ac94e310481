// Package storage хранит загруженные файлы импорта на локальном диске
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImportsDir - подкаталог для файлов импорта
const ImportsDir = "imports"

// ErrPathOutsideBase возвращается для путей, выходящих за базовый каталог
var ErrPathOutsideBase = errors.New("path escapes storage directory")

// Local хранит файлы относительно BaseDir
type Local struct {
	BaseDir string
}

// NewLocal создаёт локальное хранилище
func NewLocal(baseDir string) *Local {
	if baseDir == "" {
		baseDir = "."
	}
	return &Local{BaseDir: baseDir}
}

// Store записывает содержимое в imports/<uuid><ext> и возвращает относительный путь
func (s *Local) Store(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".json"
	}
	rel := filepath.ToSlash(filepath.Join(ImportsDir, uuid.NewString()+ext))

	full, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}

	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file %s: %w", rel, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write file %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file %s: %w", rel, err)
	}
	return rel, nil
}

// Read читает файл по относительному пути
func (s *Local) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	return data, nil
}

// Delete удаляет файл; отсутствие файла не считается ошибкой
func (s *Local) Delete(ctx context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file %s: %w", path, err)
	}
	return nil
}

func (s *Local) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideBase, path)
	}
	base, err := filepath.Abs(s.BaseDir)
	if err != nil {
		return "", err
	}
	full := filepath.Join(base, filepath.FromSlash(path))
	rel, err := filepath.Rel(base, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideBase, path)
	}
	return full, nil
}
