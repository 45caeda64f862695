package bridge

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/droidkeep/droidkeep/internal/domain"
)

// Connector manages network (ip:port) device connections. adb signals
// success for these subcommands through stdout markers rather than
// exit codes, so each call inspects the output text.
type Connector struct {
	runner domain.Runner
	logger Logger
}

func NewConnector(runner domain.Runner, logger Logger) *Connector {
	return &Connector{runner: runner, logger: logger}
}

// Connect attaches to a device listening on addr (ip:port).
func (c *Connector) Connect(ctx context.Context, addr string) (string, error) {
	stdout, stderr, err := c.runner.Run(ctx, "", false, "connect", addr)
	if err != nil {
		return "", fmt.Errorf("connect %s: %w", addr, err)
	}
	if strings.Contains(stdout, "connected to") || strings.Contains(stdout, "already connected") {
		return stdout, nil
	}
	return "", fmt.Errorf("connect %s: %s", addr, firstNonEmpty(stderr, stdout))
}

// Pair performs Android 11+ wireless-debugging pairing with the code
// shown on the device's pairing dialog.
func (c *Connector) Pair(ctx context.Context, host, port, code string) (string, error) {
	addr := net.JoinHostPort(host, port)
	stdout, stderr, err := c.runner.Run(ctx, "", false, "pair", addr, code)
	if err != nil {
		return "", fmt.Errorf("pair %s: %w", addr, err)
	}
	if strings.Contains(stdout, "Successfully paired") {
		return stdout, nil
	}
	return "", fmt.Errorf("pair %s: %s", addr, firstNonEmpty(stderr, stdout))
}

// Disconnect drops one network device.
func (c *Connector) Disconnect(ctx context.Context, addr string) (string, error) {
	stdout, stderr, err := c.runner.Run(ctx, "", false, "disconnect", addr)
	if err != nil {
		return "", fmt.Errorf("disconnect %s: %w", addr, err)
	}
	if strings.Contains(stdout, "disconnected") {
		return stdout, nil
	}
	return "", fmt.Errorf("disconnect %s: %s", addr, firstNonEmpty(stderr, stdout))
}

// DisconnectAll drops every network device.
func (c *Connector) DisconnectAll(ctx context.Context) (string, error) {
	stdout, stderr, err := c.runner.Run(ctx, "", false, "disconnect")
	if err != nil {
		return "", fmt.Errorf("disconnect all: %w", err)
	}
	if strings.Contains(stdout, "disconnected") {
		return stdout, nil
	}
	return "", fmt.Errorf("disconnect all: %s", firstNonEmpty(stderr, stdout))
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
