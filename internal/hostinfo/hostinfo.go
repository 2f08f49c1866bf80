// Package hostinfo describes the machine a simulation runs on.
package hostinfo

import (
	"log/slog"
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// Info is a static description of the host CPU.
type Info struct {
	Brand          string   `json:"brand"`
	Vendor         string   `json:"vendor"`
	PhysicalCores  int      `json:"physical_cores"`
	LogicalCores   int      `json:"logical_cores"`
	ThreadsPerCore int      `json:"threads_per_core"`
	GOMAXPROCS     int      `json:"gomaxprocs"`
	SIMD           []string `json:"simd"`
}

// simdFeatures are the vector extensions worth reporting.
var simdFeatures = []cpuid.FeatureID{cpuid.SSE4, cpuid.AVX, cpuid.AVX2, cpuid.FMA3, cpuid.F16C, cpuid.AVX512F, cpuid.ASIMD}

// Collect reads the CPU description.
func Collect() Info {
	info := Info{
		Brand:          cpuid.CPU.BrandName,
		Vendor:         cpuid.CPU.VendorString,
		PhysicalCores:  cpuid.CPU.PhysicalCores,
		LogicalCores:   cpuid.CPU.LogicalCores,
		ThreadsPerCore: cpuid.CPU.ThreadsPerCore,
		GOMAXPROCS:     runtime.GOMAXPROCS(0),
		SIMD:           []string{},
	}
	for _, f := range simdFeatures {
		if cpuid.CPU.Has(f) {
			info.SIMD = append(info.SIMD, f.String())
		}
	}
	return info
}

// LogValue groups the description under a single log attribute.
func (i Info) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("brand", i.Brand),
		slog.Int("cores", i.PhysicalCores),
		slog.Int("threads", i.LogicalCores),
		slog.Int("gomaxprocs", i.GOMAXPROCS),
		slog.Any("simd", i.SIMD),
	)
}
