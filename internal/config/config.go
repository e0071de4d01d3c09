// Package config reads CLI configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
)

// BenchmarkConfig holds configuration for the benchmark CLI.
type BenchmarkConfig struct {
	URIs           []string
	Name           string
	Description    string
	OutFile        string
	Overwrite      bool
	ContextNum     int
	FromDialogLen  int
	ToDialogLen    int
	StepDialogLen  int
	MessageLengths []int
	MiscLengths    []int

	BreakerThreshold       int
	BreakerCooldownSeconds int
}

// LoadBenchmarkConfig reads benchmark configuration from environment
// variables; flags layered on top by the CLI override these.
func LoadBenchmarkConfig() BenchmarkConfig {
	return BenchmarkConfig{
		URIs:           SplitList(os.Getenv("CONTEXTSTORE_URIS")),
		Name:           envOrDefault("CONTEXTSTORE_BENCH_NAME", "context-storage-benchmark"),
		Description:    os.Getenv("CONTEXTSTORE_BENCH_DESCRIPTION"),
		OutFile:        os.Getenv("CONTEXTSTORE_BENCH_OUT"),
		Overwrite:      envBoolOrDefault("CONTEXTSTORE_BENCH_OVERWRITE", false),
		ContextNum:     envIntOrDefault("CONTEXTSTORE_BENCH_CONTEXT_NUM", 100),
		FromDialogLen:  envIntOrDefault("CONTEXTSTORE_BENCH_FROM_DIALOG_LEN", 300),
		ToDialogLen:    envIntOrDefault("CONTEXTSTORE_BENCH_TO_DIALOG_LEN", 311),
		StepDialogLen:  envIntOrDefault("CONTEXTSTORE_BENCH_STEP_DIALOG_LEN", 1),
		MessageLengths: ParseDims(envOrDefault("CONTEXTSTORE_BENCH_MESSAGE_DIMS", "10,10")),
		MiscLengths:    ParseDims(envOrDefault("CONTEXTSTORE_BENCH_MISC_DIMS", "10,10")),

		BreakerThreshold:       envIntOrDefault("CONTEXTSTORE_BREAKER_THRESHOLD", 0),
		BreakerCooldownSeconds: envIntOrDefault("CONTEXTSTORE_BREAKER_COOLDOWN_SECONDS", 30),
	}
}

// SplitList splits a comma-separated list, dropping empty elements.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ParseDims parses comma-separated payload dimensions like "10,10".
// Malformed elements are skipped.
func ParseDims(s string) []int {
	var out []int
	for _, part := range SplitList(s) {
		if n, err := strconv.Atoi(part); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolOrDefault(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
