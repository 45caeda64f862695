package domain

import (
	"fmt"
	"time"
)

// BackupScope selects what the backup subprocess will archive:
// the whole device, or a single application identified by package.
type BackupScope struct {
	pkg string
	all bool
}

func AllData() BackupScope {
	return BackupScope{all: true}
}

func SingleApplication(pkg string) BackupScope {
	return BackupScope{pkg: pkg}
}

func (s BackupScope) IsAllData() bool { return s.all }
func (s BackupScope) Package() string { return s.pkg }

func (s BackupScope) String() string {
	if s.all {
		return "all"
	}
	return fmt.Sprintf("app:%s", s.pkg)
}

// Point is a screen coordinate in pixels.
type Point struct {
	X int
	Y int
}

// AutomationPlan drives the on-device backup confirmation dialog with
// synthetic input. Coordinates are device- and OS-version-specific and
// carry no validation; a wrong coordinate taps the wrong element. There
// is no feedback channel, so every step is fire-and-forget.
type AutomationPlan struct {
	Confirm         Point  // the "Back up my data" button
	PasswordField   *Point // optional tap to focus the password field
	PasswordConfirm *Point // optional confirm after password entry
	Password        string
	EnterKeyCode    int // sent when PasswordConfirm is absent
}

// KeycodeEnter is the AOSP key-event code for ENTER.
const KeycodeEnter = 66

// SettleDelays are the pauses between automation steps that let the
// on-device UI render before the next synthetic event. Empirical
// defaults, not tuned constants.
type SettleDelays struct {
	Dialog  time.Duration // after spawn, before the first tap
	Tap     time.Duration // after the confirm tap
	Field   time.Duration // after focusing the password field
	Text    time.Duration // after injecting the password
	Confirm time.Duration // after the final confirm
}

func DefaultSettleDelays() SettleDelays {
	return SettleDelays{
		Dialog:  5 * time.Second,
		Tap:     2 * time.Second,
		Field:   time.Second,
		Text:    time.Second,
		Confirm: 2 * time.Second,
	}
}

// Default wait bounds for the backup subprocess, matching the scope:
// a whole-device archive can run for a very long time.
const (
	DefaultAllDataTimeout   = time.Hour
	DefaultSingleAppTimeout = 10 * time.Minute
)

// Session holds everything one backup run needs. It is transient:
// created once the operator's parameters are validated, discarded when
// the subprocess has exited or been killed. Exactly one subprocess is
// ever in flight per session.
type Session struct {
	Device     DeviceID
	Scope      BackupScope
	Automation *AutomationPlan // nil means the operator confirms on-device
	OutputPath string
	Timeout    time.Duration
	Delays     SettleDelays
}

// Outcome is the terminal state of a backup session.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeFailed
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return "failed"
	}
}

// SessionResult reports how a session ended. Stderr carries the
// subprocess error output verbatim when the outcome is Failed.
type SessionResult struct {
	Outcome      Outcome
	Stderr       string
	Duration     time.Duration
	ArtifactPath string // final artifact location on success, possibly compressed
}
