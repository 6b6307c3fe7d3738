package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Service manages the payslip document area: a permanent directory served
// to downloads and a temp directory for files that are not yet promoted.
type Service struct {
	Dir     string
	TempDir string
}

func New(dir, tempDir string) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	return &Service{Dir: dir, TempDir: tempDir}, nil
}

// WriteTemp writes data into the temp area and returns the temp path.
func (s *Service) WriteTemp(name string, data []byte) (string, error) {
	path := filepath.Join(s.TempDir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Promote moves a fully written temp file into the permanent area. The
// rename is atomic on the same filesystem, so a crash never leaves the
// permanent path pointing at a partial file.
func (s *Service) Promote(tempPath string) (string, error) {
	finalPath := filepath.Join(s.Dir, filepath.Base(tempPath))
	if err := os.Rename(tempPath, finalPath); err != nil {
		return "", err
	}
	return finalPath, nil
}

func (s *Service) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (s *Service) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Delete removes a single file. Deleting an already-absent path is a no-op.
func (s *Service) Delete(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// InTemp reports whether path points into the temp area.
func (s *Service) InTemp(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	tempAbs, err := filepath.Abs(s.TempDir)
	if err != nil {
		return false
	}
	return strings.HasPrefix(abs, tempAbs+string(os.PathSeparator)) || filepath.Dir(abs) == tempAbs
}

// CleanupTemp deletes temp files whose last modification is older than
// maxAge, skipping paths in protected (files still referenced as a
// payslip's only copy). A single file's failure is logged and the run
// continues. Returns the number of files deleted.
func (s *Service) CleanupTemp(maxAge time.Duration, protected map[string]bool) (int, error) {
	entries, err := os.ReadDir(s.TempDir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.TempDir, entry.Name())
		if protected[path] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			slog.Warn("temp file stat failed", "path", path, "err", err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			slog.Warn("temp file delete failed", "path", path, "err", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}
