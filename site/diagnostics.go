package site

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Diagnostics describes the environment a build runs in.
type Diagnostics struct {
	Path         string
	GOOS         string
	GOARCH       string
	Hostname     string
	Platform     string
	KernelArch   string
	MemTotal     uint64
	MemAvailable uint64
}

// CollectDiagnostics gathers what it can; host lookups that fail leave their
// fields empty.
func CollectDiagnostics() Diagnostics {
	d := Diagnostics{
		Path:   os.Getenv("PATH"),
		GOOS:   runtime.GOOS,
		GOARCH: runtime.GOARCH,
	}

	if hostInfo, err := host.Info(); err == nil {
		d.Hostname = hostInfo.Hostname
		d.Platform = hostInfo.Platform + " " + hostInfo.PlatformVersion
		d.KernelArch = hostInfo.KernelArch
	}

	if memInfo, err := mem.VirtualMemory(); err == nil {
		d.MemTotal = memInfo.Total
		d.MemAvailable = memInfo.Available
	}

	return d
}

// Fields flattens d into key-value pairs for structured logging.
func (d Diagnostics) Fields() []interface{} {
	return []interface{}{
		"path", d.Path,
		"os", d.GOOS,
		"arch", d.GOARCH,
		"hostname", d.Hostname,
		"platform", d.Platform,
		"kernel_arch", d.KernelArch,
		"mem_total", d.MemTotal,
		"mem_available", d.MemAvailable,
	}
}
