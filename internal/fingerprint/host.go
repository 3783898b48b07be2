package fingerprint

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/term"
)

// ClientVersion is stamped into the user-agent signal; overridden via
// ldflags at build time.
var ClientVersion = "dev"

// HostSource reads signals from the machine the client runs on. It is
// the single place in the codebase that touches platform globals.
type HostSource struct{}

// NewHostSource creates the production signal source.
func NewHostSource() *HostSource {
	return &HostSource{}
}

// DisplayGeometry returns the terminal size in cells. For a headless
// observer client the terminal is the display.
func (s *HostSource) DisplayGeometry() (int, int, error) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0, 0, fmt.Errorf("stdout is not a terminal")
	}
	w, h, err := term.GetSize(fd)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get terminal size: %w", err)
	}
	return w, h, nil
}

// ColorDepth derives the color depth from the terminal environment.
func (s *HostSource) ColorDepth() (int, error) {
	if os.Getenv("COLORTERM") == "truecolor" || os.Getenv("COLORTERM") == "24bit" {
		return 24, nil
	}
	if strings.Contains(os.Getenv("TERM"), "256color") {
		return 8, nil
	}
	if os.Getenv("TERM") != "" {
		return 4, nil
	}
	return 0, fmt.Errorf("no terminal environment")
}

// Timezone returns the local timezone abbreviation as reported by the OS.
func (s *HostSource) Timezone() (string, error) {
	if tz := os.Getenv("TZ"); tz != "" {
		return tz, nil
	}
	name, _ := time.Now().Zone()
	if name == "" {
		return "", fmt.Errorf("timezone unavailable")
	}
	return name, nil
}

// Language returns the locale language tag.
func (s *HostSource) Language() (string, error) {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("locale unavailable")
}

// Platform returns the OS/architecture pair.
func (s *HostSource) Platform() (string, error) {
	return runtime.GOOS + "/" + runtime.GOARCH, nil
}

// NumCPU returns the logical processor count.
func (s *HostSource) NumCPU() (int, error) {
	return runtime.NumCPU(), nil
}

// CapabilityCount counts network interfaces - the enumerable capability
// class available to a headless client (the browser plugin-count analog).
func (s *HostSource) CapabilityCount() (int, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate interfaces: %w", err)
	}
	return len(ifaces), nil
}

// UserAgent identifies the client build.
func (s *HostSource) UserAgent() (string, error) {
	return fmt.Sprintf("devicebind-client/%s (%s; %s; %s)",
		ClientVersion, runtime.GOOS, runtime.GOARCH, runtime.Version()), nil
}
