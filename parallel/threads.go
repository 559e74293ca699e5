package parallel

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// Threads returns n when positive, otherwise the number of physical cores,
// falling back to the logical CPU count when the topology is unknown.
func Threads(n int) int {
	if n > 0 {
		return n
	}
	if cores := cpuid.CPU.PhysicalCores; cores > 0 {
		return cores
	}
	return runtime.NumCPU()
}

// CPU describes the host processor for log lines.
type CPU struct {
	Brand         string
	PhysicalCores int
	LogicalCores  int
	AVX2          bool
	AVX512        bool
}

// DescribeCPU reports what cpuid detected.
func DescribeCPU() CPU {
	return CPU{
		Brand:         cpuid.CPU.BrandName,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		AVX2:          cpuid.CPU.Supports(cpuid.AVX2),
		AVX512:        cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ),
	}
}
