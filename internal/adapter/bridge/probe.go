package bridge

import (
	"context"
	"fmt"
	"strings"

	"github.com/droidkeep/droidkeep/internal/domain"
)

// Probe classifies the serials reported by `adb devices`. One Probe
// call covers one transport track; the ip:port shape of the serial is
// the sole discriminator, so the two tracks are disjoint by
// construction. Results are never cached: every call re-reads the
// daemon's current view.
type Probe struct {
	runner domain.Runner
	logger Logger
}

func NewProbe(runner domain.Runner, logger Logger) *Probe {
	return &Probe{runner: runner, logger: logger}
}

func (p *Probe) Probe(ctx context.Context, transport domain.Transport) domain.ProbeReport {
	report := domain.ProbeReport{Transport: transport}

	stdout, _, err := p.runner.Run(ctx, "", false, "devices")
	if err != nil {
		report.Summary = fmt.Sprintf("listing %s devices: %v", transport, err)
		return report
	}

	lines := strings.Split(stdout, "\n")
	if len(lines) > 0 {
		lines = lines[1:] // "List of devices attached" header
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) != 2 {
			// Informational noise (daemon restarts, "* daemon started" etc.)
			p.logger.Warnf("Skipping malformed device line: %q", line)
			continue
		}

		id := domain.DeviceID(strings.TrimSpace(parts[0]))
		if !transport.Matches(id) {
			continue
		}

		switch domain.ParseDeviceStatus(strings.TrimSpace(parts[1])) {
		case domain.StatusAuthorized:
			report.Authorized = append(report.Authorized, id)
		case domain.StatusUnauthorized:
			report.Unauthorized = append(report.Unauthorized, id)
		case domain.StatusOffline:
			report.Offline = append(report.Offline, id)
		default:
			p.logger.Warnf("Unrecognized %s device status for %s: %q", transport, id, strings.TrimSpace(parts[1]))
		}
	}

	p.summarize(&report)
	return report
}

func (p *Probe) summarize(r *domain.ProbeReport) {
	switch {
	case len(r.Authorized) > 0:
		r.OK = true
		r.Summary = fmt.Sprintf("%s devices connected and authorized: %s",
			r.Transport, joinIDs(r.Authorized))
	case len(r.Unauthorized) > 0:
		r.Summary = fmt.Sprintf("%s device(s) detected but unauthorized: %s. "+
			"Check the device screen and allow debugging.",
			r.Transport, joinIDs(r.Unauthorized))
	case len(r.Offline) > 0:
		r.Summary = fmt.Sprintf("%s device(s) detected but offline: %s. "+
			"Ensure the device is powered on and reachable.",
			r.Transport, joinIDs(r.Offline))
	default:
		r.Summary = fmt.Sprintf("no authorized %s devices found", r.Transport)
	}
}

func joinIDs(ids []domain.DeviceID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
