package trainer

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// Host records the machine a run executed on, for the config snapshot.
type Host struct {
	OS     string `json:"os"`
	Arch   string `json:"arch"`
	CPU    string `json:"cpu"`
	Cores  int    `json:"physical_cores"`
	AVX2   bool   `json:"avx2"`
	AVX512 bool   `json:"avx512"`
}

// CaptureHost collects the host facts.
func CaptureHost() Host {
	return Host{
		OS:     runtime.GOOS,
		Arch:   runtime.GOARCH,
		CPU:    cpuid.CPU.BrandName,
		Cores:  cpuid.CPU.PhysicalCores,
		AVX2:   cpuid.CPU.Supports(cpuid.AVX2),
		AVX512: cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ),
	}
}
