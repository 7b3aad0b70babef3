package metrics

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Host describes the machine a compressor instance runs on. Encoder work is
// CPU and memory bound, so /health reports it next to tool availability.
type Host struct {
	Hostname         string `json:"hostname"`
	OS               string `json:"os"`
	Arch             string `json:"arch"`
	CPUs             int    `json:"cpus"`
	TotalMemoryMB    uint64 `json:"total_memory_mb,omitempty"`
	InContainer      bool   `json:"in_container"`
	ContainerRuntime string `json:"container_runtime,omitempty"`
	GoVersion        string `json:"go_version"`
}

// CaptureHost gathers host information. Missing sources leave fields zero.
func CaptureHost() Host {
	h := Host{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		GoVersion: runtime.Version(),
		Hostname:  "unknown",
	}
	if name, err := os.Hostname(); err == nil {
		h.Hostname = name
	}
	h.InContainer, h.ContainerRuntime = detectContainer()
	if runtime.GOOS == "linux" {
		h.TotalMemoryMB = readMemTotalMB("/proc/meminfo")
	}
	return h
}

func detectContainer() (bool, string) {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "docker"
	}
	if _, err := os.Stat("/var/run/secrets/kubernetes.io"); err == nil {
		return true, "kubernetes"
	}
	if data, err := os.ReadFile("/proc/1/cgroup"); err == nil {
		content := string(data)
		switch {
		case strings.Contains(content, "kubepods"):
			return true, "kubernetes"
		case strings.Contains(content, "docker"):
			return true, "docker"
		case strings.Contains(content, "containerd"):
			return true, "containerd"
		}
	}
	return false, ""
}

// readMemTotalMB parses the MemTotal line of a meminfo file
func readMemTotalMB(path string) uint64 {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "MemTotal:" {
			kb, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return 0
			}
			return kb / 1024
		}
	}
	return 0
}
