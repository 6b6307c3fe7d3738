package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	base := t.TempDir()
	svc, err := New(filepath.Join(base, "payslips"), filepath.Join(base, "payslips", "tmp"))
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	return svc
}

func TestWriteTempAndPromote(t *testing.T) {
	svc := newTestService(t)

	tempPath, err := svc.WriteTemp("slip.pdf", []byte("pdf-bytes"))
	if err != nil {
		t.Fatalf("write temp: %v", err)
	}
	if !svc.InTemp(tempPath) {
		t.Fatalf("expected %s to be in temp area", tempPath)
	}

	finalPath, err := svc.Promote(tempPath)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if svc.InTemp(finalPath) {
		t.Fatalf("promoted path %s still in temp area", finalPath)
	}
	if svc.Exists(tempPath) {
		t.Fatal("temp file should be gone after promote")
	}
	data, err := svc.Read(finalPath)
	if err != nil || string(data) != "pdf-bytes" {
		t.Fatalf("read promoted file: %v %q", err, data)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	svc := newTestService(t)
	path, err := svc.WriteTemp("x.pdf", []byte("x"))
	if err != nil {
		t.Fatalf("write temp: %v", err)
	}
	if err := svc.Delete(path); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := svc.Delete(path); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
}

func TestCleanupTempSkipsFreshAndProtected(t *testing.T) {
	svc := newTestService(t)

	oldPath, _ := svc.WriteTemp("old.pdf", []byte("old"))
	protectedPath, _ := svc.WriteTemp("kept.pdf", []byte("kept"))
	freshPath, _ := svc.WriteTemp("fresh.pdf", []byte("fresh"))

	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldPath, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.Chtimes(protectedPath, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	deleted, err := svc.CleanupTemp(24*time.Hour, map[string]bool{protectedPath: true})
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}
	if svc.Exists(oldPath) {
		t.Fatal("old file should have been deleted")
	}
	if !svc.Exists(protectedPath) {
		t.Fatal("protected file must survive cleanup")
	}
	if !svc.Exists(freshPath) {
		t.Fatal("fresh file must survive cleanup")
	}
}

func TestCleanupTempIdempotent(t *testing.T) {
	svc := newTestService(t)

	path, _ := svc.WriteTemp("old.pdf", []byte("old"))
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(path, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	first, err := svc.CleanupTemp(24*time.Hour, nil)
	if err != nil {
		t.Fatalf("first cleanup: %v", err)
	}
	if first != 1 {
		t.Fatalf("expected 1 deleted on first run, got %d", first)
	}

	second, err := svc.CleanupTemp(24*time.Hour, nil)
	if err != nil {
		t.Fatalf("second cleanup must not error: %v", err)
	}
	if second != 0 {
		t.Fatalf("expected 0 deleted on second run, got %d", second)
	}
}
