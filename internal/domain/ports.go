package domain

import (
	"context"
	"time"
)

// Runner executes one short-lived bridge invocation. device may be
// empty for commands that are not device-scoped. When raw is false the
// returned streams are whitespace-trimmed; raw output is for dumps
// where leading/trailing whitespace is meaningful.
type Runner interface {
	Run(ctx context.Context, device DeviceID, raw bool, args ...string) (stdout, stderr string, err error)
}

// InputDriver issues synthetic input events on a device. Each call is
// best-effort: the boolean is the only signal of failure, and a false
// return is indistinguishable from an event that landed on the wrong
// UI element. Implementations log, never raise.
type InputDriver interface {
	Tap(ctx context.Context, device DeviceID, x, y int) bool
	TypeText(ctx context.Context, device DeviceID, text string) bool
	PressKey(ctx context.Context, device DeviceID, keyCode int) bool
}

// Storage is a destination for backup artifacts. Artifacts are opaque
// binary files; no implementation may inspect their contents.
type Storage interface {
	Upload(ctx context.Context, localPath string, remoteName string) error
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, remoteName string) error
	GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error)
}

// Compressor shrinks an artifact on disk. The artifact stays opaque;
// compression wraps the byte stream without reading into it.
type Compressor interface {
	Compress(sourcePath, destPath string) error
	Decompress(sourcePath, destPath string) error
}
