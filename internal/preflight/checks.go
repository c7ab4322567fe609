package preflight

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"subburn/internal/config"
	"subburn/internal/deps"
	"subburn/internal/events"
)

const dialTimeout = 3 * time.Second

// CheckDirectoryAccess verifies path is an existing directory the process can
// read, write, and traverse.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external tools the pipeline invokes.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}
	return deps.CheckBinaries(deps.Requirements(cfg.Tools.FFmpegBinary, cfg.Tools.WhisperBinary))
}

// CheckNATS connects to the configured NATS server and disconnects.
func CheckNATS(ctx context.Context, url string) Result {
	const name = "NATS events"
	if err := ctx.Err(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	publisher, err := events.ConnectNATS(url, "")
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", url, err)}
	}
	if err := publisher.Close(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", url, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", url)}
}

// CheckEndpoint verifies a host:port accepts TCP connections.
func CheckEndpoint(ctx context.Context, name, address string) Result {
	address = strings.TrimSpace(address)
	if address == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", address, err)}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", address)}
}
