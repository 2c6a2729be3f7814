package util

import "runtime"

// GetOptimalPoolSize returns the worker count for workspace analysis.
//
// Formula: min(max(runtime.NumCPU(), 2), 16)
//
// Each job mostly waits on a src2json subprocess and then decodes its
// JSON, so one worker per core keeps every core busy without spawning
// more compiler processes than the machine can run at once.
//
// Examples:
//   - 1 core: 2 (minimum enforced)
//   - 8 cores: 8
//   - 32 cores: 16 (maximum enforced)
func GetOptimalPoolSize() int {
	poolSize := runtime.NumCPU()

	// Enforce minimum
	if poolSize < 2 {
		poolSize = 2
	}

	// Enforce maximum
	if poolSize > 16 {
		poolSize = 16
	}

	return poolSize
}

// GetOptimalPoolSizeWithOverride returns pool size with optional override.
//
// If override > 0, uses override value (from --workers or config).
// Otherwise, uses GetOptimalPoolSize().
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
