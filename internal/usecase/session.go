package usecase

import (
	"fmt"
	"strconv"
	"time"

	"github.com/droidkeep/droidkeep/internal/config"
	"github.com/droidkeep/droidkeep/internal/domain"
)

// SessionBuilder turns an operator's session config into a ready
// domain.Session: scope, timeout, output path and the optional
// automation plan.
type SessionBuilder struct {
	localStorage LocalStorage
	logger       Logger
	delays       domain.SettleDelays
}

func NewSessionBuilder(localStorage LocalStorage, logger Logger, delays domain.SettleDelays) *SessionBuilder {
	return &SessionBuilder{
		localStorage: localStorage,
		logger:       logger,
		delays:       delays,
	}
}

// Build validates the session parameters and assembles a Session for
// the given device. A broken automation config demotes the session to
// manual on-device confirmation instead of failing it.
func (b *SessionBuilder) Build(cfg config.SessionConfig, device domain.DeviceID) (*domain.Session, error) {
	var scope domain.BackupScope
	switch cfg.Scope {
	case "all":
		scope = domain.AllData()
	case "app":
		if cfg.Package == "" {
			return nil, fmt.Errorf("session %q: app scope requires a package name", cfg.Name)
		}
		scope = domain.SingleApplication(cfg.Package)
	default:
		return nil, fmt.Errorf("session %q: unknown scope %q", cfg.Name, cfg.Scope)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		if scope.IsAllData() {
			timeout = domain.DefaultAllDataTimeout
		} else {
			timeout = domain.DefaultSingleAppTimeout
		}
	}

	filename := artifactFilename(scope, device, time.Now())

	return &domain.Session{
		Device:     device,
		Scope:      scope,
		Automation: b.buildPlan(cfg),
		OutputPath: b.localStorage.GetPath(filename),
		Timeout:    timeout,
		Delays:     b.delays,
	}, nil
}

// artifactFilename names the archive after the scope, device and
// start time. Network serials contribute only their IP.
func artifactFilename(scope domain.BackupScope, device domain.DeviceID, at time.Time) string {
	ts := at.Format("20060102_150405")
	if scope.IsAllData() {
		return fmt.Sprintf("droidkeep_all_%s_%s.ab", device.FilenameSafe(), ts)
	}
	return fmt.Sprintf("droidkeep_app_%s_%s_%s.ab", scope.Package(), device.FilenameSafe(), ts)
}

// buildPlan parses the automation coordinates. Any coordinate that is
// present but not an integer demotes the whole plan: the operator
// confirms on the device instead, and the session still runs.
func (b *SessionBuilder) buildPlan(cfg config.SessionConfig) *domain.AutomationPlan {
	auto := cfg.Automation
	if !auto.Enabled {
		return nil
	}

	confirm, ok := parsePoint(auto.ConfirmX, auto.ConfirmY)
	if !ok || confirm == nil {
		b.logger.Warnf("session %q: invalid confirm coordinates (%q, %q), falling back to manual confirmation",
			cfg.Name, auto.ConfirmX, auto.ConfirmY)
		return nil
	}

	field, ok := parsePoint(auto.PasswordFieldX, auto.PasswordFieldY)
	if !ok {
		b.logger.Warnf("session %q: invalid password field coordinates (%q, %q), falling back to manual confirmation",
			cfg.Name, auto.PasswordFieldX, auto.PasswordFieldY)
		return nil
	}

	done, ok := parsePoint(auto.PasswordDoneX, auto.PasswordDoneY)
	if !ok {
		b.logger.Warnf("session %q: invalid password done coordinates (%q, %q), falling back to manual confirmation",
			cfg.Name, auto.PasswordDoneX, auto.PasswordDoneY)
		return nil
	}

	enterKey := auto.EnterKeyCode
	if enterKey == 0 {
		enterKey = domain.KeycodeEnter
	}

	return &domain.AutomationPlan{
		Confirm:         *confirm,
		PasswordField:   field,
		PasswordConfirm: done,
		Password:        auto.Password,
		EnterKeyCode:    enterKey,
	}
}

// parsePoint reads an optional coordinate pair. Both fields empty
// means absent (nil, true); anything that does not parse as an
// integer, fractional values included, reports false.
func parsePoint(xs, ys string) (*domain.Point, bool) {
	if xs == "" && ys == "" {
		return nil, true
	}

	x, err := strconv.Atoi(xs)
	if err != nil {
		return nil, false
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return nil, false
	}

	return &domain.Point{X: x, Y: y}, true
}

// SettleDelaysFrom converts the config pauses to durations, falling
// back to the defaults for fields left at zero.
func SettleDelaysFrom(cfg config.DelaysConfig) domain.SettleDelays {
	d := domain.DefaultSettleDelays()
	if cfg.DialogSeconds > 0 {
		d.Dialog = time.Duration(cfg.DialogSeconds) * time.Second
	}
	if cfg.TapSeconds > 0 {
		d.Tap = time.Duration(cfg.TapSeconds) * time.Second
	}
	if cfg.FieldSeconds > 0 {
		d.Field = time.Duration(cfg.FieldSeconds) * time.Second
	}
	if cfg.TextSeconds > 0 {
		d.Text = time.Duration(cfg.TextSeconds) * time.Second
	}
	if cfg.ConfirmSeconds > 0 {
		d.Confirm = time.Duration(cfg.ConfirmSeconds) * time.Second
	}
	return d
}
