package result

// Sample is one measured phase: wall-clock time, isolated CPU and the
// clamped resident-memory delta.
type Sample struct {
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryKB       float64 `json:"memory_kb"`
}

type OperationResult struct {
	Sample Sample `json:"sample"`
}

type CaseResult struct {
	PayloadSizeKB int             `json:"payload_size_kb"`
	Encryption    OperationResult `json:"encryption"`
	Decryption    OperationResult `json:"decryption"`
	Success       bool            `json:"success"`
}

// Collection keeps cases in the order their sizes were requested. That order
// is the column order of every report.
type Collection []CaseResult

// Sizes returns the payload sizes in collection order, duplicates included.
func (c Collection) Sizes() []int {
	sizes := make([]int, len(c))
	for i, r := range c {
		sizes[i] = r.PayloadSizeKB
	}
	return sizes
}

// MemoryDeltaKB clamps a before/after reading pair to a non-negative delta.
func MemoryDeltaKB(before, after float64) float64 {
	if d := after - before; d > 0 {
		return d
	}
	return 0
}
