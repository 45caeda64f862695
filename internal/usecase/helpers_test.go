package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/droidkeep/droidkeep/internal/domain"
)

type testLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *testLogger) record(level, template string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+": "+fmt.Sprintf(template, args...))
}

func (l *testLogger) Infof(template string, args ...interface{}) {
	l.record("INFO", template, args...)
}

func (l *testLogger) Errorf(template string, args ...interface{}) {
	l.record("ERROR", template, args...)
}

func (l *testLogger) Warnf(template string, args ...interface{}) {
	l.record("WARN", template, args...)
}

func (l *testLogger) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// fakeInput records the synthetic input sequence a session issues.
type fakeInput struct {
	mu    sync.Mutex
	steps []string
}

func (f *fakeInput) Tap(ctx context.Context, device domain.DeviceID, x, y int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, fmt.Sprintf("tap %d %d", x, y))
	return true
}

func (f *fakeInput) TypeText(ctx context.Context, device domain.DeviceID, text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, "text "+text)
	return true
}

func (f *fakeInput) PressKey(ctx context.Context, device domain.DeviceID, keyCode int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, fmt.Sprintf("key %d", keyCode))
	return true
}

func (f *fakeInput) sequence() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.steps...)
}

// stubLocal is a directory-backed LocalStorage for tests.
type stubLocal struct {
	basePath string

	mu      sync.Mutex
	deleted []string
}

func newStubLocal(t *testing.T) *stubLocal {
	t.Helper()
	return &stubLocal{basePath: t.TempDir()}
}

func (s *stubLocal) Upload(ctx context.Context, localPath, remoteName string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.basePath, remoteName), data, 0o644)
}

func (s *stubLocal) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (s *stubLocal) Delete(ctx context.Context, remoteName string) error {
	s.mu.Lock()
	s.deleted = append(s.deleted, remoteName)
	s.mu.Unlock()
	return os.Remove(filepath.Join(s.basePath, remoteName))
}

func (s *stubLocal) GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, err
	}
	var old []string
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		if info.ModTime().Before(cutoffTime) {
			old = append(old, e.Name())
		}
	}
	return old, nil
}

func (s *stubLocal) GetPath(filename string) string {
	return filepath.Join(s.basePath, filename)
}

// fakeStorage is a scripted remote target.
type fakeStorage struct {
	mu       sync.Mutex
	uploads  []string
	deleted  []string
	files    []string
	oldFiles []string

	listErr   error
	oldErr    error
	uploadErr error
	deleteErr error
}

func (f *fakeStorage) Upload(ctx context.Context, localPath, remoteName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads = append(f.uploads, remoteName)
	return nil
}

func (f *fakeStorage) List(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.files, nil
}

func (f *fakeStorage) Delete(ctx context.Context, remoteName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, remoteName)
	return nil
}

func (f *fakeStorage) GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error) {
	if f.oldErr != nil {
		return nil, f.oldErr
	}
	return f.oldFiles, nil
}

func (f *fakeStorage) uploadedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

func (f *fakeStorage) deletedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// writeStub drops an executable shell script standing in for the
// bridge binary.
func writeStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adb")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func quickDelays() domain.SettleDelays {
	return domain.SettleDelays{
		Dialog:  time.Millisecond,
		Tap:     time.Millisecond,
		Field:   time.Millisecond,
		Text:    time.Millisecond,
		Confirm: time.Millisecond,
	}
}
