// Package system describes the machine and terminal the assistant runs on.
package system

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// OSInfo contains information about the operating system
type OSInfo struct {
	Type         string // OS type (e.g., "linux", "darwin")
	Distribution string // Linux distribution name (e.g., "Ubuntu")
	Version      string // OS or distribution version
	Kernel       string // Kernel release
}

// String renders a compact one-line description.
func (o OSInfo) String() string {
	parts := []string{o.Type}
	if o.Distribution != "" {
		parts = append(parts, o.Distribution)
	}
	if o.Version != "" {
		parts = append(parts, o.Version)
	}
	if o.Kernel != "" {
		parts = append(parts, "kernel "+o.Kernel)
	}
	return strings.Join(parts, " ")
}

var osReleasePath = "/etc/os-release"

// GetOSInfo retrieves information about the current operating system
func GetOSInfo() (OSInfo, error) {
	info := OSInfo{
		Type: runtime.GOOS,
	}

	switch info.Type {
	case "linux":
		name, version, err := readOSRelease(osReleasePath)
		if err != nil {
			return info, fmt.Errorf("failed to read os-release: %w", err)
		}
		info.Distribution = name
		info.Version = version
		info.Kernel = kernelVersion()

	case "darwin":
		if version, err := exec.Command("sw_vers", "-productVersion").Output(); err == nil {
			info.Version = strings.TrimSpace(string(version))
		}
		info.Kernel = kernelVersion()
	}

	return info, nil
}

// readOSRelease extracts NAME and VERSION_ID from an os-release file.
func readOSRelease(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}

	var name, version string
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), "\"'")
		switch key {
		case "NAME":
			name = value
		case "VERSION_ID":
			version = value
		}
	}
	return name, version, nil
}

func kernelVersion() string {
	output, err := exec.Command("uname", "-r").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}
