package bridge

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/droidkeep/droidkeep/internal/domain"
)

// Diagnostics wraps the single-shot query commands: system properties,
// network state, memory, storage, logcat and the package list. These
// are stateless request/response calls with no orchestration; dumps
// that may contain meaningful whitespace are fetched raw.
type Diagnostics struct {
	runner domain.Runner
	logger Logger
}

func NewDiagnostics(runner domain.Runner, logger Logger) *Diagnostics {
	return &Diagnostics{runner: runner, logger: logger}
}

func (d *Diagnostics) Model(ctx context.Context, device domain.DeviceID) (string, error) {
	return d.prop(ctx, device, "ro.product.model")
}

func (d *Diagnostics) Manufacturer(ctx context.Context, device domain.DeviceID) (string, error) {
	return d.prop(ctx, device, "ro.product.manufacturer")
}

func (d *Diagnostics) AndroidVersion(ctx context.Context, device domain.DeviceID) (string, error) {
	return d.prop(ctx, device, "ro.build.version.release")
}

func (d *Diagnostics) prop(ctx context.Context, device domain.DeviceID, name string) (string, error) {
	stdout, _, err := d.runner.Run(ctx, device, false, "shell", "getprop", name)
	if err != nil {
		return "", fmt.Errorf("getprop %s: %w", name, err)
	}
	return stdout, nil
}

// Properties returns the full getprop dump, unstripped.
func (d *Diagnostics) Properties(ctx context.Context, device domain.DeviceID) (string, error) {
	stdout, _, err := d.runner.Run(ctx, device, true, "shell", "getprop")
	if err != nil {
		return "", fmt.Errorf("getprop: %w", err)
	}
	return stdout, nil
}

func (d *Diagnostics) NetworkInterfaces(ctx context.Context, device domain.DeviceID) (string, error) {
	stdout, _, err := d.runner.Run(ctx, device, true, "shell", "ip", "addr", "show")
	if err != nil {
		return "", fmt.Errorf("ip addr show: %w", err)
	}
	return stdout, nil
}

// Procrank returns per-process memory usage. The tool is missing from
// many builds, so its presence is checked first.
func (d *Diagnostics) Procrank(ctx context.Context, device domain.DeviceID) (string, error) {
	found, _, err := d.runner.Run(ctx, device, false, "shell", "which", "procrank")
	if err != nil || found == "" {
		return "", fmt.Errorf("procrank not available on device")
	}
	stdout, _, err := d.runner.Run(ctx, device, true, "shell", "procrank")
	if err != nil {
		return "", fmt.Errorf("procrank: %w", err)
	}
	return stdout, nil
}

func (d *Diagnostics) MemInfo(ctx context.Context, device domain.DeviceID, pkg string) (string, error) {
	stdout, _, err := d.runner.Run(ctx, device, true, "shell", "dumpsys", "meminfo", pkg)
	if err != nil {
		return "", fmt.Errorf("dumpsys meminfo %s: %w", pkg, err)
	}
	return stdout, nil
}

func (d *Diagnostics) Battery(ctx context.Context, device domain.DeviceID) (string, error) {
	stdout, _, err := d.runner.Run(ctx, device, true, "shell", "dumpsys", "battery")
	if err != nil {
		return "", fmt.Errorf("dumpsys battery: %w", err)
	}
	return stdout, nil
}

func (d *Diagnostics) StorageUsage(ctx context.Context, device domain.DeviceID) (string, error) {
	stdout, _, err := d.runner.Run(ctx, device, true, "shell", "df", "-h", "/sdcard")
	if err != nil {
		return "", fmt.Errorf("df /sdcard: %w", err)
	}
	return stdout, nil
}

// PackageInfo is one installed application as reported by the package
// manager.
type PackageInfo struct {
	Name    string
	APKPath string
}

// The path may itself contain '=' (base64 segments in app dirs on
// Android 11+), so the greedy first group splits at the last '='.
var packageLinePattern = regexp.MustCompile(`^package:(.+)=([^=\s]+)$`)

// InstalledPackages lists installed applications with their APK paths.
// Lines the package manager prints in another shape pass through with
// only the name set.
func (d *Diagnostics) InstalledPackages(ctx context.Context, device domain.DeviceID) ([]PackageInfo, error) {
	stdout, _, err := d.runner.Run(ctx, device, false, "shell", "pm", "list", "packages", "-f")
	if err != nil {
		return nil, fmt.Errorf("pm list packages: %w", err)
	}

	var pkgs []PackageInfo
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := packageLinePattern.FindStringSubmatch(line); m != nil {
			pkgs = append(pkgs, PackageInfo{Name: m[2], APKPath: m[1]})
		} else {
			pkgs = append(pkgs, PackageInfo{Name: line})
		}
	}
	return pkgs, nil
}

// LogcatDump returns the current log buffer verbatim.
func (d *Diagnostics) LogcatDump(ctx context.Context, device domain.DeviceID) (string, error) {
	stdout, _, err := d.runner.Run(ctx, device, true, "shell", "logcat", "-d")
	if err != nil {
		return "", fmt.Errorf("logcat dump: %w", err)
	}
	return stdout, nil
}

// LogcatClear empties the log buffer.
func (d *Diagnostics) LogcatClear(ctx context.Context, device domain.DeviceID) error {
	_, stderr, err := d.runner.Run(ctx, device, false, "shell", "logcat", "-c")
	if err != nil {
		return fmt.Errorf("logcat clear: %w", err)
	}
	if stderr != "" {
		return fmt.Errorf("logcat clear: %s", stderr)
	}
	return nil
}
