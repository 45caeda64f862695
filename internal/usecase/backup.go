package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/droidkeep/droidkeep/internal/domain"
)

// ErrBridgeNotFound reports that the bridge binary could not be
// resolved when spawning the backup subprocess.
var ErrBridgeNotFound = errors.New("bridge binary not found")

type UploadTarget struct {
	Name    string
	Storage domain.Storage
}

type LocalStorage interface {
	domain.Storage
	GetPath(filename string) string
}

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

// SessionController runs one backup session: it spawns the backup
// subprocess directly (the per-command timeout of the short-lived
// runner would kill it), drives the optional confirmation automation
// while the subprocess waits on the device, and races completion
// against the session timeout.
type SessionController struct {
	bridgePath    string
	input         domain.InputDriver
	localStorage  LocalStorage
	uploadTargets []UploadTarget
	compressor    domain.Compressor
	logger        Logger
	compress      bool
}

func NewSessionController(
	bridgePath string,
	input domain.InputDriver,
	localStorage LocalStorage,
	uploadTargets []UploadTarget,
	compressor domain.Compressor,
	logger Logger,
	compress bool,
) *SessionController {
	if bridgePath == "" {
		bridgePath = "adb"
	}
	return &SessionController{
		bridgePath:    bridgePath,
		input:         input,
		localStorage:  localStorage,
		uploadTargets: uploadTargets,
		compressor:    compressor,
		logger:        logger,
		compress:      compress,
	}
}

// BackupArgs maps a session onto the bridge backup invocation.
func BackupArgs(sess *domain.Session) []string {
	args := []string{"-s", string(sess.Device), "backup"}
	if sess.Scope.IsAllData() {
		return append(args, "-all", "-f", sess.OutputPath)
	}
	return append(args, "-f", sess.OutputPath, "-apk", sess.Scope.Package())
}

// Execute runs the session to its terminal state. The returned result
// is non-nil whenever the subprocess was spawned; an error without a
// result means it never started.
func (uc *SessionController) Execute(ctx context.Context, sess *domain.Session) (*domain.SessionResult, error) {
	start := time.Now()
	uc.logger.Infof("[%s] Starting %s backup, output: %s, timeout: %s",
		sess.Device, sess.Scope, sess.OutputPath, sess.Timeout)

	cmd := exec.Command(uc.bridgePath, BackupArgs(sess)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBridgeNotFound, uc.bridgePath)
		}
		return nil, fmt.Errorf("failed to start backup subprocess: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	// The timer covers the whole session, automation included.
	timer := time.NewTimer(sess.Timeout)
	defer timer.Stop()

	if sess.Automation != nil {
		uc.runAutomation(ctx, sess)
	} else {
		uc.logger.Infof("[%s] Waiting for on-device confirmation", sess.Device)
	}

	select {
	case err := <-done:
		result := &domain.SessionResult{Duration: time.Since(start)}
		if err != nil {
			result.Outcome = domain.OutcomeFailed
			result.Stderr = strings.TrimSpace(stderr.String())
			uc.logger.Errorf("[%s] Backup failed after %s: %s "+
				"(possible causes: confirmation not given on-device, insufficient device storage, bridge error)",
				sess.Device, result.Duration.Round(time.Second), result.Stderr)
			return result, nil
		}
		result.Outcome = domain.OutcomeSucceeded
		uc.finalize(ctx, sess, result)
		return result, nil

	case <-timer.C:
		uc.logger.Errorf("[%s] Backup timed out after %s, killing subprocess", sess.Device, sess.Timeout)
		uc.kill(cmd, done)
		return &domain.SessionResult{
			Outcome:  domain.OutcomeTimedOut,
			Stderr:   strings.TrimSpace(stderr.String()),
			Duration: time.Since(start),
		}, nil

	case <-ctx.Done():
		uc.logger.Warnf("[%s] Backup cancelled, killing subprocess", sess.Device)
		uc.kill(cmd, done)
		return nil, ctx.Err()
	}
}

// kill terminates the subprocess and drains its Wait. Skipping the
// drain would leak the wait goroutine and a zombie process entry.
func (uc *SessionController) kill(cmd *exec.Cmd, done <-chan error) {
	if err := cmd.Process.Kill(); err != nil {
		uc.logger.Warnf("Failed to kill backup subprocess: %v", err)
	}
	<-done
}

// runAutomation plays the confirmation plan against the dialog the
// subprocess raised on the device. Every step is fire-and-forget: a
// failed tap is logged by the input driver and the sequence carries
// on, since there is no way to observe the dialog state anyway.
func (uc *SessionController) runAutomation(ctx context.Context, sess *domain.Session) {
	plan := sess.Automation
	delays := sess.Delays

	uc.logger.Infof("[%s] Automating backup confirmation", sess.Device)
	time.Sleep(delays.Dialog)

	uc.input.Tap(ctx, sess.Device, plan.Confirm.X, plan.Confirm.Y)
	time.Sleep(delays.Tap)

	if plan.Password != "" {
		if plan.PasswordField != nil {
			uc.input.Tap(ctx, sess.Device, plan.PasswordField.X, plan.PasswordField.Y)
			time.Sleep(delays.Field)
		}

		uc.input.TypeText(ctx, sess.Device, plan.Password)
		time.Sleep(delays.Text)

		if plan.PasswordConfirm != nil {
			uc.input.Tap(ctx, sess.Device, plan.PasswordConfirm.X, plan.PasswordConfirm.Y)
		} else {
			uc.input.PressKey(ctx, sess.Device, plan.EnterKeyCode)
		}
		time.Sleep(delays.Confirm)
	}
}

// finalize handles the artifact of a successful session: verify it
// exists, optionally compress it, fan out to the upload targets.
func (uc *SessionController) finalize(ctx context.Context, sess *domain.Session, result *domain.SessionResult) {
	info, err := os.Stat(sess.OutputPath)
	if err != nil {
		// The subprocess exits zero when the operator cancels the
		// dialog on-device; there is simply no artifact then.
		uc.logger.Warnf("[%s] Backup exited cleanly but produced no artifact at %s",
			sess.Device, sess.OutputPath)
		return
	}

	uc.logger.Infof("[%s] Backup completed in %s, size: %.2f MB",
		sess.Device, result.Duration.Round(time.Second), float64(info.Size())/(1024*1024))

	artifactPath := sess.OutputPath
	if uc.compress {
		compressedPath := artifactPath + ".gz"
		if err := uc.compressor.Compress(artifactPath, compressedPath); err != nil {
			uc.logger.Warnf("[%s] Compression failed, keeping raw artifact: %v", sess.Device, err)
		} else {
			if err := os.Remove(artifactPath); err != nil {
				uc.logger.Warnf("[%s] Failed to remove raw artifact: %v", sess.Device, err)
			}
			artifactPath = compressedPath
		}
	}

	result.ArtifactPath = artifactPath

	if len(uc.uploadTargets) > 0 {
		uc.uploadToTargets(ctx, sess.Device, artifactPath, filepath.Base(artifactPath))
	}
}

func (uc *SessionController) uploadToTargets(ctx context.Context, device domain.DeviceID, filePath, filename string) {
	var wg sync.WaitGroup

	for _, target := range uc.uploadTargets {
		wg.Add(1)
		go func(t UploadTarget) {
			defer wg.Done()

			uc.logger.Infof("[%s] Uploading to %s...", device, t.Name)
			if err := t.Storage.Upload(ctx, filePath, filename); err != nil {
				uc.logger.Errorf("[%s] Failed to upload to %s: %v", device, t.Name, err)
			} else {
				uc.logger.Infof("[%s] Successfully uploaded to %s", device, t.Name)
			}
		}(target)
	}

	wg.Wait()
}
