package bridge

import (
	"context"
	"strconv"
	"strings"

	"github.com/droidkeep/droidkeep/internal/domain"
)

// InputAgent sends synthetic input events through `adb shell input`.
// There is no way to observe whether an event reached the intended UI
// element, so every operation is fire-and-forget: a non-empty error
// stream logs a warning and flips the return to false, nothing more.
// No retries.
type InputAgent struct {
	runner domain.Runner
	logger Logger
}

func NewInputAgent(runner domain.Runner, logger Logger) *InputAgent {
	return &InputAgent{runner: runner, logger: logger}
}

// Tap sends a tap at integer pixel coordinates.
func (a *InputAgent) Tap(ctx context.Context, device domain.DeviceID, x, y int) bool {
	return a.shellInput(ctx, device, "tap", strconv.Itoa(x), strconv.Itoa(y))
}

// TypeText injects text into the focused field. Spaces are replaced
// with the %s escape the input command expects; no other character is
// escaped, so punctuation and newlines have undefined on-device effect.
func (a *InputAgent) TypeText(ctx context.Context, device domain.DeviceID, text string) bool {
	escaped := strings.ReplaceAll(text, " ", "%s")
	return a.shellInput(ctx, device, "text", escaped)
}

// PressKey sends a single key event. keyCode is an opaque value from
// the platform key-event table and is passed through uninterpreted.
func (a *InputAgent) PressKey(ctx context.Context, device domain.DeviceID, keyCode int) bool {
	return a.shellInput(ctx, device, "keyevent", strconv.Itoa(keyCode))
}

func (a *InputAgent) shellInput(ctx context.Context, device domain.DeviceID, kind string, values ...string) bool {
	args := append([]string{"shell", "input", kind}, values...)
	_, stderr, err := a.runner.Run(ctx, device, false, args...)
	if err != nil {
		a.logger.Warnf("Input %s failed on %s: %v", kind, device, err)
		return false
	}
	if stderr != "" {
		a.logger.Warnf("Input %s on %s reported: %s", kind, device, stderr)
		return false
	}
	return true
}
