// Package bench times full builds of one project across compiler
// toolchains.
package bench

// Result holds the measurements for one toolchain.
type Result struct {
	Toolchain       string  `json:"toolchain"`
	Version         string  `json:"version,omitempty"`
	SamplesMs       []int64 `json:"samples_ms"`
	FastestMs       int64   `json:"fastest_ms"`
	MeanMs          int64   `json:"mean_ms"`
	TargetSizeBytes uint64  `json:"target_size_bytes"`
}
