package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/droidkeep/droidkeep/internal/domain"
)

// fakeRunner is a scripted Runner that records every invocation.
type fakeRunner struct {
	mu     sync.Mutex
	stdout string
	stderr string
	err    error
	calls  [][]string
}

func (f *fakeRunner) Run(ctx context.Context, device domain.DeviceID, raw bool, args ...string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := []string{}
	if device != "" {
		call = append(call, "-s", string(device))
	}
	call = append(call, args...)
	f.calls = append(f.calls, call)
	return f.stdout, f.stderr, f.err
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// testLogger captures log lines so tests can assert on warnings.
type testLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *testLogger) Infof(template string, args ...interface{}) {}
func (l *testLogger) Errorf(template string, args ...interface{}) {}
func (l *testLogger) Warnf(template string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(template, args...))
}

func (l *testLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}
