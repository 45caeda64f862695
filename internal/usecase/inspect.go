package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/droidkeep/droidkeep/internal/domain"
)

// DeviceInfo is the slice of the diagnostics adapter the inspector
// uses to assemble a report.
type DeviceInfo interface {
	Model(ctx context.Context, device domain.DeviceID) (string, error)
	Manufacturer(ctx context.Context, device domain.DeviceID) (string, error)
	AndroidVersion(ctx context.Context, device domain.DeviceID) (string, error)
	Properties(ctx context.Context, device domain.DeviceID) (string, error)
	NetworkInterfaces(ctx context.Context, device domain.DeviceID) (string, error)
	Procrank(ctx context.Context, device domain.DeviceID) (string, error)
	Battery(ctx context.Context, device domain.DeviceID) (string, error)
	StorageUsage(ctx context.Context, device domain.DeviceID) (string, error)
	LogcatDump(ctx context.Context, device domain.DeviceID) (string, error)
}

// Inspect gathers a device state report and archives it next to the
// backup artifacts. Every section is best-effort: a device without
// procrank still yields a report.
type Inspect struct {
	info         DeviceInfo
	localStorage LocalStorage
	logger       Logger
}

func NewInspect(info DeviceInfo, localStorage LocalStorage, logger Logger) *Inspect {
	return &Inspect{
		info:         info,
		localStorage: localStorage,
		logger:       logger,
	}
}

// Report assembles the textual device report.
func (uc *Inspect) Report(ctx context.Context, device domain.DeviceID) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Device report: %s\n", device)
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().Format(time.RFC3339))

	sections := []struct {
		title string
		fetch func(context.Context, domain.DeviceID) (string, error)
	}{
		{"Model", uc.info.Model},
		{"Manufacturer", uc.info.Manufacturer},
		{"Android version", uc.info.AndroidVersion},
		{"Battery", uc.info.Battery},
		{"Storage", uc.info.StorageUsage},
		{"Network interfaces", uc.info.NetworkInterfaces},
		{"Process memory", uc.info.Procrank},
		{"System properties", uc.info.Properties},
	}

	gathered := 0
	for _, s := range sections {
		value, err := s.fetch(ctx, device)
		if err != nil {
			uc.logger.Warnf("[%s] Report section %q unavailable: %v", device, s.title, err)
			continue
		}
		fmt.Fprintf(&b, "=== %s ===\n%s\n\n", s.title, strings.TrimRight(value, "\n"))
		gathered++
	}

	if gathered == 0 {
		return "", fmt.Errorf("no report sections available for %s", device)
	}

	return b.String(), nil
}

// SaveReport writes the report into the archive directory and returns
// the artifact filename.
func (uc *Inspect) SaveReport(ctx context.Context, device domain.DeviceID) (string, error) {
	report, err := uc.Report(ctx, device)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("droidkeep_report_%s_%s.txt",
		device.FilenameSafe(), time.Now().Format("20060102_150405"))

	return filename, uc.archive(ctx, filename, report)
}

// SaveLogcat dumps the device log buffer into the archive directory.
func (uc *Inspect) SaveLogcat(ctx context.Context, device domain.DeviceID) (string, error) {
	dump, err := uc.info.LogcatDump(ctx, device)
	if err != nil {
		return "", fmt.Errorf("logcat dump: %w", err)
	}

	filename := fmt.Sprintf("droidkeep_logcat_%s_%s.txt",
		device.FilenameSafe(), time.Now().Format("20060102_150405"))

	return filename, uc.archive(ctx, filename, dump)
}

func (uc *Inspect) archive(ctx context.Context, filename, content string) error {
	tempPath := filepath.Join(os.TempDir(), filename)
	if err := os.WriteFile(tempPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	defer os.Remove(tempPath)

	if err := uc.localStorage.Upload(ctx, tempPath, filename); err != nil {
		return fmt.Errorf("archive %s: %w", filename, err)
	}

	uc.logger.Infof("Saved %s", filename)
	return nil
}
